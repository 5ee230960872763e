// Package autherr is the error taxonomy shared by the credential and session
// packages. Callers classify failures with errors.Is; lower layers wrap these
// sentinels with context using fmt.Errorf("...: %w", err).
package autherr

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateAccount means the (email, auth_provider) pair is already taken.
	ErrDuplicateAccount = errors.New("account already exists")

	// ErrInvalidCredentials is returned for an unknown email and a wrong
	// password alike.
	ErrInvalidCredentials = errors.New("incorrect email or password")

	ErrInvalidToken   = errors.New("invalid or expired token")
	ErrWrongTokenType = errors.New("wrong token type")

	// ErrProviderRejected means the identity provider refused the assertion
	// (non-200 response, bad signature, audience mismatch).
	ErrProviderRejected = errors.New("identity provider rejected the assertion")

	// ErrProviderUnavailable wraps transport failures talking to a provider.
	// It is surfaced, never retried here.
	ErrProviderUnavailable = errors.New("identity provider unavailable")

	ErrUnsupportedProvider = errors.New("unsupported auth provider")
	ErrNotFound            = errors.New("user not found")
	ErrAccountDisabled     = errors.New("account disabled")
	ErrValidation          = errors.New("validation failed")
)

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrValidation) true for any *ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid builds a *ValidationError.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
