// Package utils holds small helpers shared by streamline commands that do
// not warrant a package of their own.
package utils

// Build metadata, set with -ldflags "-X" at release time.
var (
	Version   = "dev"
	Sha       = "HEAD"
	Buildtime = "dev"
)
