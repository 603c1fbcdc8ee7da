package utils

// Truncate shortens s to maxRunes runes and marks the cut with "...". The
// cut falls on a rune boundary, so multi-byte text stays valid UTF-8.
func Truncate(s string, maxRunes int) string {
	n := 0
	for i := range s {
		if n == maxRunes {
			return s[:i] + "..."
		}
		n++
	}
	return s
}
