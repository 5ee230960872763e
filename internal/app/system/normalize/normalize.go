// Package normalize canonicalizes user-supplied identity fields before they
// are validated or stored.
package normalize

import (
	"html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Email trims and lowercases an email address. The (email, auth_provider)
// uniqueness key is always built from this form.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name strips markup from a display name and collapses runs of whitespace.
// Case is preserved.
func Name(s string) string {
	s = html.UnescapeString(strict.Sanitize(s))
	return strings.Join(strings.Fields(s), " ")
}

// Phone keeps the digits of s and a leading '+', dropping spaces, dashes,
// dots and parentheses. It does not check length; see inputval.IsValidPhone.
func Phone(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	for i, r := range s {
		switch {
		case r == '+' && i == 0:
			b.WriteRune(r)
		case unicode.IsDigit(r) && r < unicode.MaxASCII:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// OptionalString trims s and returns nil when nothing is left.
func OptionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
