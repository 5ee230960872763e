package identity

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/authhub/internal/app/system/timeouts"
	"github.com/dalemusser/authhub/internal/domain/autherr"
	"github.com/dalemusser/authhub/internal/domain/models"
	"github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const (
	DefaultAppleKeysURL = "https://appleid.apple.com/auth/keys"
	DefaultAppleIssuer  = "https://appleid.apple.com"
)

// AppleConfig configures the Apple verifier. BundleID is the expected
// audience of every ID token.
type AppleConfig struct {
	BundleID   string
	KeysURL    string
	Issuer     string
	HTTPClient *http.Client
}

// Apple verifies Sign in with Apple ID tokens against Apple's published
// key set. The key set is fetched on every call; Apple rotates keys and a
// shared cache would be cross-request mutable state.
type Apple struct {
	bundleID string
	keysURL  string
	issuer   string
	client   *http.Client
	now      func() time.Time
	log      *zap.Logger
}

// NewApple builds an Apple verifier.
func NewApple(cfg AppleConfig, logger *zap.Logger) (*Apple, error) {
	if cfg.BundleID == "" {
		return nil, errors.New("apple bundle id is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.KeysURL == "" {
		cfg.KeysURL = DefaultAppleKeysURL
	}
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultAppleIssuer
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	return &Apple{
		bundleID: cfg.BundleID,
		keysURL:  cfg.KeysURL,
		issuer:   cfg.Issuer,
		client:   cfg.HTTPClient,
		now:      time.Now,
		log:      logger,
	}, nil
}

func (a *Apple) Provider() models.AuthProvider { return models.ProviderApple }

// Verify checks the ID token's RS256 signature, issuer, audience and expiry.
// Only the token's name claim fills Profile.FullName. The caller's name is
// carried separately as FallbackName.
func (a *Apple) Verify(ctx context.Context, as Assertion) (Profile, error) {
	if as.IDToken == "" {
		return Profile{}, autherr.Invalid("id_token", "is required")
	}

	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Provider(), a.log, "apple keys")
	defer cancel()

	keys, err := a.fetchKeys(ctx)
	if err != nil {
		return Profile{}, err
	}

	tok, err := jwt.Parse(as.IDToken, keyLookup(keys),
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(a.bundleID),
		jwt.WithIssuer(a.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		a.log.Warn("apple id token rejected", zap.Error(err))
		return Profile{}, fmt.Errorf("%w: %w", autherr.ErrProviderRejected, err)
	}

	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Profile{}, rejected("unexpected claims type")
	}
	if verified, present := claims["email_verified"]; present && !truthy(verified) {
		return Profile{}, rejected("apple email not verified")
	}

	sub, _ := claims.GetSubject()
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	p, err := profileFrom(sub, email, name, "")
	if err != nil {
		return Profile{}, err
	}
	p.FallbackName = strings.TrimSpace(as.FullName)
	return p, nil
}

func (a *Apple) fetchKeys(ctx context.Context) (*jose.JSONWebKeySet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.keysURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build apple keys request: %w", err)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, unavailable("apple keys", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("apple keys", resp.StatusCode)
	}

	var set jose.JSONWebKeySet
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return nil, unavailable("apple keys", fmt.Errorf("decode key set: %w", err))
	}
	return &set, nil
}

func keyLookup(set *jose.JSONWebKeySet) jwt.Keyfunc {
	return func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("token has no kid header")
		}
		for _, k := range set.Key(kid) {
			if pub, ok := k.Key.(*rsa.PublicKey); ok {
				return pub, nil
			}
		}
		return nil, fmt.Errorf("no rsa key for kid %q", kid)
	}
}

// Apple sends email_verified as either a bool or the string "true".
func truthy(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return strings.EqualFold(b, "true")
	}
	return false
}
