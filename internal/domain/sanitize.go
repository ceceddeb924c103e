package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// SanitizeDestination normalises a destination typed by the user.
// Whitespace runs collapse to one space and the ends are trimmed. Text that is
// already fully upper-case ("BR-116 KM 30") is kept as is; anything else is
// title-cased ("são  paulo" → "São Paulo").
// The function is idempotent.
func SanitizeDestination(s string) string {
	clean := strings.Join(strings.Fields(s), " ")
	if isUpper(clean) {
		return clean
	}
	// A Caser is stateful, so one is built per call.
	return cases.Title(language.BrazilianPortuguese).String(clean)
}

// isUpper reports whether s has at least one cased letter and no lower-case
// ones.
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) || unicode.IsTitle(r) {
			cased = true
		}
	}
	return cased
}
