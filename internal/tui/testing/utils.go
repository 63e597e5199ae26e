package testing

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// StripANSI removes escape sequences, leaving the text a user would see.
func StripANSI(s string) string {
	return ansi.Strip(s)
}

// ContainsInOrder reports whether every expected string appears in output,
// each after the end of the previous one.
func ContainsInOrder(output string, expected ...string) bool {
	rest := output
	for _, exp := range expected {
		_, after, found := strings.Cut(rest, exp)
		if !found {
			return false
		}
		rest = after
	}
	return true
}

// CountRune counts occurrences of r in the visible text of output.
func CountRune(output string, r rune) int {
	return strings.Count(StripANSI(output), string(r))
}

// Line returns the visible text of line n of a view, or "" past the end.
func Line(view string, n int) string {
	lines := strings.Split(StripANSI(view), "\n")
	if n < 0 || n >= len(lines) {
		return ""
	}
	return lines[n]
}
