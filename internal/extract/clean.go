package extract

import (
	"strings"
	"unicode"
)

// CleanText lowercases s, turns every rune that is not a letter, digit or underscore
// into a space, and collapses whitespace runs into single spaces.
// "C++ / Node.js\n(5 yrs)" becomes "c node js 5 yrs".
func CleanText(s string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '_':
			return unicode.ToLower(r)
		default:
			return ' '
		}
	}, s)
	return strings.Join(strings.Fields(mapped), " ")
}
