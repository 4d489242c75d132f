package ui

import "golang.org/x/term"

// IsTTY reports whether fd refers to a terminal.
func IsTTY(fd uintptr) bool {
	return term.IsTerminal(int(fd))
}

// TermWidth returns the column count for fd, falling back to the default
// width when fd is not a sizable terminal.
func TermWidth(fd uintptr) int {
	if w, _, err := term.GetSize(int(fd)); err == nil && w > 0 {
		return w
	}
	return defaultTermWidth
}
