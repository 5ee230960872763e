package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/authhub/internal/domain/autherr"
	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength is the shortest signing secret New accepts.
const MinSecretLength = 32

const (
	claimSubject = "sub"
	claimExpiry  = "exp"
	claimRefresh = "refresh"
)

var (
	ErrSecretTooShort   = fmt.Errorf("signing secret must be at least %d bytes", MinSecretLength)
	ErrUnsupportedAlg   = errors.New("signing algorithm must be HS256, HS384 or HS512")
	errEmptySubject     = errors.New("empty subject")
	errNonPositiveTTL   = errors.New("ttl must be positive")
	errUnexpectedClaim  = errors.New("unexpected claim")
	errMalformedSubject = errors.New("sub claim missing or not a string")
	errMalformedRefresh = errors.New("refresh claim is not a boolean")
)

// Claims is the decoded payload of a verified token.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
	Refresh   bool
}

// Codec issues and verifies HMAC-signed JWTs.
type Codec struct {
	secret []byte
	method *jwt.SigningMethodHMAC
	now    func() time.Time
}

// New builds a Codec for the given secret and algorithm name.
func New(secret []byte, alg string) (*Codec, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrSecretTooShort
	}
	method, ok := jwt.GetSigningMethod(alg).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, ErrUnsupportedAlg
	}
	return &Codec{secret: secret, method: method, now: time.Now}, nil
}

// WithClock returns a copy of c that reads time from now. Used by tests.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	cp := *c
	cp.now = now
	return &cp
}

// Algorithm returns the configured signing algorithm name.
func (c *Codec) Algorithm() string {
	return c.method.Alg()
}

// Issue signs a token for subject that expires ttl from now.
func (c *Codec) Issue(subject string, ttl time.Duration, refresh bool) (string, error) {
	if subject == "" {
		return "", errEmptySubject
	}
	if ttl <= 0 {
		return "", errNonPositiveTTL
	}

	tok := jwt.NewWithClaims(c.method, jwt.MapClaims{
		claimSubject: subject,
		claimExpiry:  jwt.NewNumericDate(c.now().Add(ttl)),
		claimRefresh: refresh,
	})
	s, err := tok.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return s, nil
}

// Verify checks signature, algorithm, expiry and claim shape.
// Every failure is reported as autherr.ErrInvalidToken.
func (c *Codec) Verify(tokenString string) (Claims, error) {
	tok, err := jwt.Parse(tokenString,
		func(*jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", autherr.ErrInvalidToken, err)
	}

	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok || !tok.Valid {
		return Claims{}, autherr.ErrInvalidToken
	}
	claims, err := decodeClaims(mc)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", autherr.ErrInvalidToken, err)
	}
	return claims, nil
}

// VerifyAccess verifies tokenString and requires it to be an access token.
func (c *Codec) VerifyAccess(tokenString string) (Claims, error) {
	claims, err := c.Verify(tokenString)
	if err != nil {
		return Claims{}, err
	}
	if claims.Refresh {
		return Claims{}, fmt.Errorf("%w: refresh token used as access token", autherr.ErrWrongTokenType)
	}
	return claims, nil
}

// VerifyRefresh verifies tokenString and requires the refresh flag.
func (c *Codec) VerifyRefresh(tokenString string) (Claims, error) {
	claims, err := c.Verify(tokenString)
	if err != nil {
		return Claims{}, err
	}
	if !claims.Refresh {
		return Claims{}, fmt.Errorf("%w: access token used as refresh token", autherr.ErrWrongTokenType)
	}
	return claims, nil
}

func decodeClaims(mc jwt.MapClaims) (Claims, error) {
	for k := range mc {
		switch k {
		case claimSubject, claimExpiry, claimRefresh:
		default:
			return Claims{}, fmt.Errorf("%w %q", errUnexpectedClaim, k)
		}
	}

	sub, ok := mc[claimSubject].(string)
	if !ok || sub == "" {
		return Claims{}, errMalformedSubject
	}

	exp, err := mc.GetExpirationTime()
	if err != nil || exp == nil {
		return Claims{}, jwt.ErrTokenInvalidClaims
	}

	var refresh bool
	if raw, present := mc[claimRefresh]; present {
		refresh, ok = raw.(bool)
		if !ok {
			return Claims{}, errMalformedRefresh
		}
	}

	return Claims{Subject: sub, ExpiresAt: exp.Time, Refresh: refresh}, nil
}
