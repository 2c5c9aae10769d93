package utils

import (
	"strings"
	"unicode/utf8"
)

// Preview returns a single-line excerpt of a prompt or model response for log
// entries. Whitespace runs collapse to one space and text longer than limit
// runes is cut with an ellipsis.
func Preview(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit]) + "..."
}
