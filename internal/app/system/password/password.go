// Package password hashes and verifies local-account passwords with bcrypt.
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost matches the cost used for member passwords elsewhere in the app.
const DefaultCost = 12

// MinCost is the weakest cost New accepts.
const MinCost = 10

// MaxLength is bcrypt's input limit; longer passwords are rejected rather than
// silently truncated.
const MaxLength = 72

var (
	ErrEmpty   = errors.New("password is empty")
	ErrTooLong = fmt.Errorf("password longer than %d bytes", MaxLength)
	ErrBadCost = fmt.Errorf("bcrypt cost must be between %d and %d", MinCost, bcrypt.MaxCost)
)

// Hasher produces salted one-way password hashes.
type Hasher struct {
	cost int
}

// New returns a Hasher using the given bcrypt cost.
func New(cost int) (*Hasher, error) {
	if cost < MinCost || cost > bcrypt.MaxCost {
		return nil, ErrBadCost
	}
	return &Hasher{cost: cost}, nil
}

// Hash returns a bcrypt hash of plain. Each call uses a fresh random salt.
func (h *Hasher) Hash(plain string) (string, error) {
	if plain == "" {
		return "", ErrEmpty
	}
	if len(plain) > MaxLength {
		return "", ErrTooLong
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(b), nil
}

// Verify reports whether plain matches hash. A malformed hash yields false.
func (h *Hasher) Verify(plain, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// Cost returns the configured bcrypt cost.
func (h *Hasher) Cost() int {
	return h.cost
}
