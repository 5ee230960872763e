// Package identity verifies assertions issued by external identity providers
// and reduces them to a provider-agnostic Profile.
//
// Each provider is a Verifier. Callers pick one by provider tag through a
// Registry. Verifiers perform network I/O only; every call is bounded by
// timeouts.Provider() and failures are surfaced, never retried.
package identity

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dalemusser/authhub/internal/domain/autherr"
	"github.com/dalemusser/authhub/internal/domain/models"
)

// Assertion is what a client hands us after talking to a provider.
// Which fields matter depends on the provider.
type Assertion struct {
	IDToken string
	Code    string

	// FullName is a caller-supplied name. It is never trusted as the
	// provider's own claim; see Profile.FallbackName.
	FullName string
}

// Profile is the normalized identity extracted from a verified assertion.
// FullName and Picture come from the provider. FallbackName comes from the
// caller and only names an account when it is first created.
type Profile struct {
	ProviderUserID string
	Email          string
	FullName       string
	Picture        string
	FallbackName   string
}

// Verifier validates an assertion against one provider.
type Verifier interface {
	Provider() models.AuthProvider
	Verify(ctx context.Context, a Assertion) (Profile, error)
}

// Registry selects a Verifier by provider tag.
type Registry map[models.AuthProvider]Verifier

// NewRegistry indexes verifiers by their Provider().
func NewRegistry(vs ...Verifier) Registry {
	r := make(Registry, len(vs))
	for _, v := range vs {
		r[v.Provider()] = v
	}
	return r
}

// Get returns the verifier for p, or autherr.ErrUnsupportedProvider.
func (r Registry) Get(p models.AuthProvider) (Verifier, error) {
	v, ok := r[p]
	if !ok || !p.IsSocial() {
		return nil, fmt.Errorf("%w: %q", autherr.ErrUnsupportedProvider, p)
	}
	return v, nil
}

func rejected(format string, args ...any) error {
	return fmt.Errorf("%w: %s", autherr.ErrProviderRejected, fmt.Sprintf(format, args...))
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, autherr.ErrProviderUnavailable, err)
}

// statusError classifies a non-200 provider response. 5xx is a transient
// provider failure; anything else is a refusal.
func statusError(op string, code int) error {
	if code >= http.StatusInternalServerError {
		return unavailable(op, fmt.Errorf("status %d", code))
	}
	return rejected("%s: status %d", op, code)
}
