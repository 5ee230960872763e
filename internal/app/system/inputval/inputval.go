// Package inputval validates request input before it reaches the session
// core. Single-value checks are plain functions; request structs are checked
// with Validate using `validate` and `label` struct tags.
package inputval

import (
	"net/mail"
	"net/url"
	"strings"

	"github.com/dalemusser/authhub/internal/app/system/normalize"
	"github.com/dalemusser/authhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	PhoneMinDigits = 10
	PhoneMaxDigits = 15
)

// IsValidEmail reports whether s is a bare addr-spec (no display name) with
// well-formed dot placement in both halves.
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, " \t<>") {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || addr.Name != "" {
		return false
	}
	at := strings.LastIndex(s, "@")
	local, domain := s[:at], s[at+1:]
	return dotsOK(local) && dotsOK(domain)
}

func dotsOK(part string) bool {
	return part != "" &&
		!strings.HasPrefix(part, ".") &&
		!strings.HasSuffix(part, ".") &&
		!strings.Contains(part, "..")
}

// IsValidPhone reports whether s is made only of digits, an optional leading
// '+' and the separators space, '-', '.', '(' and ')', and has 10 to 15 digits.
func IsValidPhone(s string) bool {
	s = strings.TrimSpace(s)
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r == '+' && i == 0:
		case strings.ContainsRune(" -.()", r):
		default:
			return false
		}
	}
	p := strings.TrimPrefix(normalize.Phone(s), "+")
	return len(p) >= PhoneMinDigits && len(p) <= PhoneMaxDigits
}

// IsValidAuthProvider reports whether s names a known provider.
func IsValidAuthProvider(s string) bool {
	_, ok := models.ParseAuthProvider(s)
	return ok
}

// IsValidHTTPURL reports whether s is an absolute http or https URL.
func IsValidHTTPURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// IsValidObjectID reports whether s is a 24-character hex ObjectID.
func IsValidObjectID(s string) bool {
	_, err := primitive.ObjectIDFromHex(strings.TrimSpace(s))
	return err == nil
}
