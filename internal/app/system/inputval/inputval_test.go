package inputval

import (
	"strings"
	"testing"

	"github.com/dalemusser/authhub/internal/app/system/normalize"
)

// Register and Login hand IsValidEmail the output of normalize.Email, so the
// cases below go through it first.
func TestIsValidEmail_AfterNormalize(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{"alice@example.com", true},
		{"  Alice@Example.COM ", true},
		{"first.last+auth@mail.example.org", true},
		{"ops@intranet", true},
		{"o'brien@example.ie", true},

		{"", false},
		{"\t \n", false},
		{"alice", false},
		{"alice@", false},
		{"@example.com", false},
		{"alice@@example.com", false},
		{"alice smith@example.com", false},
		{"Alice <alice@example.com>", false},
		{"<alice@example.com>", false},
		{".alice@example.com", false},
		{"alice.@example.com", false},
		{"al..ice@example.com", false},
		{"alice@example..com", false},
		{"alice@.example.com", false},
		{"alice@example.com.", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			email := normalize.Email(tt.raw)
			if got := IsValidEmail(email); got != tt.want {
				t.Errorf("IsValidEmail(%q) = %v, want %v", email, got, tt.want)
			}
		})
	}
}

func TestNormalizedEmailIsLowercase(t *testing.T) {
	got := normalize.Email("  MiXeD.Case@Example.COM ")
	if got != "mixed.case@example.com" {
		t.Errorf("expected lowercased trimmed email, got %q", got)
	}
	if !IsValidEmail(got) {
		t.Errorf("expected %q to be valid", got)
	}
}

func TestValidate_EmailLengthBound(t *testing.T) {
	type account struct {
		Email string `json:"email" validate:"required,email,max=254" label:"Email"`
	}
	domain := "@example.com"

	tests := []struct {
		name      string
		email     string
		wantFirst string
	}{
		{"at bound", strings.Repeat("a", 64) + "@" + strings.Repeat("b", 254-64-1-len(".com")) + ".com", ""},
		{"short", "a" + domain, ""},
		{"over bound", strings.Repeat("a", 64) + "@" + strings.Repeat("b", 255-64-1-len(".com")) + ".com", "Email must be at most 254 characters."},
		{"empty", "", "Email is required."},
		{"malformed", "a" + domain + ">", "A valid email address is required."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(account{Email: tt.email})
			if tt.wantFirst == "" {
				if res.HasErrors() {
					t.Errorf("expected %d-char email to pass, got %s", len(tt.email), res.All())
				}
				return
			}
			if res.First() != tt.wantFirst {
				t.Errorf("expected %q, got %q", tt.wantFirst, res.First())
			}
			if len(res.Errors) == 0 || res.Errors[0].Field != "email" {
				t.Errorf("expected failure on field email, got %+v", res.Errors)
			}
		})
	}
}
