// Package dotdir manages the .streamline/ and ~/.streamline directories.
//
// The directory holds config.toml and the resume state of the last chat
// conversation, so that "streamline chat --resume" continues it.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DirName is the name of the streamline directory.
	DirName = ".streamline"
)

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the target absolute path to a .streamline/ directory.
// Order of precedence is as follows:
//  1. Provided override, created if missing
//  2. Local ./.streamline/ dir
//  3. Home ~/.streamline/ dir
//
// If none is found the empty string is returned.
func (m *Manager) Target(overrideDir string) (string, error) {
	if overrideDir != "" {
		if err := os.MkdirAll(overrideDir, 0o755); err != nil {
			return "", fmt.Errorf("creating streamline directory %s: %w", overrideDir, err)
		}
		return filepath.Abs(overrideDir)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting current directory: %w", err)
	}
	if local := filepath.Join(cwd, DirName); isDir(local) {
		return local, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	if dir := filepath.Join(home, DirName); isDir(dir) {
		return dir, nil
	}

	return "", nil
}

// Init creates a .streamline/ directory under parent. It reports whether the
// directory already existed.
func (m *Manager) Init(parent string) (string, bool, error) {
	dir, err := filepath.Abs(filepath.Join(parent, DirName))
	if err != nil {
		return "", false, err
	}

	if isDir(dir) {
		return dir, true, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", false, fmt.Errorf("creating .streamline directory: %w", err)
	}
	return dir, false, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
