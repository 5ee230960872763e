// internal/domain/models/authproviders.go
package models

import "strings"

// AuthProvider tags which identity source owns a user record.
type AuthProvider string

const (
	ProviderLocal  AuthProvider = "local"
	ProviderGoogle AuthProvider = "google"
	ProviderApple  AuthProvider = "apple"
)

// AllAuthProviders lists every provider the service accepts.
var AllAuthProviders = []AuthProvider{ProviderLocal, ProviderGoogle, ProviderApple}

// ParseAuthProvider normalizes a provider tag. ok is false for unknown tags.
func ParseAuthProvider(s string) (AuthProvider, bool) {
	p := AuthProvider(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllAuthProviders {
		if p == known {
			return p, true
		}
	}
	return "", false
}

// IsSocial reports whether the provider is an external identity provider.
// Social accounts are verified by the provider and never carry a password.
func (p AuthProvider) IsSocial() bool {
	return p == ProviderGoogle || p == ProviderApple
}

func (p AuthProvider) String() string {
	return string(p)
}
