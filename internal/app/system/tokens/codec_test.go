package tokens

import (
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/authhub/internal/domain/autherr"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestCodec(t *testing.T) (*Codec, *fakeClock) {
	t.Helper()
	c, err := New(testSecret, "HS256")
	require.NoError(t, err)
	clock := &fakeClock{t: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	return c.WithClock(clock.Now), clock
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		secret  []byte
		alg     string
		wantErr error
	}{
		{name: "ok HS256", secret: testSecret, alg: "HS256"},
		{name: "ok HS512", secret: testSecret, alg: "HS512"},
		{name: "short secret", secret: []byte("short"), alg: "HS256", wantErr: ErrSecretTooShort},
		{name: "rsa alg", secret: testSecret, alg: "RS256", wantErr: ErrUnsupportedAlg},
		{name: "none alg", secret: testSecret, alg: "none", wantErr: ErrUnsupportedAlg},
		{name: "unknown alg", secret: testSecret, alg: "XX1", wantErr: ErrUnsupportedAlg},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.secret, tt.alg)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, c)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.alg, c.Algorithm())
		})
	}
}

func TestIssueVerify_RoundTrip(t *testing.T) {
	c, clock := newTestCodec(t)

	tok, err := c.Issue("64b7f0c2a1b2c3d4e5f60718", 30*time.Minute, false)
	require.NoError(t, err)

	claims, err := c.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "64b7f0c2a1b2c3d4e5f60718", claims.Subject)
	assert.False(t, claims.Refresh)
	assert.Equal(t, clock.Now().Add(30*time.Minute).Unix(), claims.ExpiresAt.Unix())
}

func TestVerify_ExpiresAfterTTL(t *testing.T) {
	c, clock := newTestCodec(t)

	tok, err := c.Issue("user-1", time.Minute, false)
	require.NoError(t, err)

	_, err = c.Verify(tok)
	require.NoError(t, err)

	clock.Advance(time.Minute + time.Second)

	_, err = c.Verify(tok)
	require.ErrorIs(t, err, autherr.ErrInvalidToken)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestIssue_RejectsBadInput(t *testing.T) {
	c, _ := newTestCodec(t)

	_, err := c.Issue("", time.Minute, false)
	assert.Error(t, err)

	_, err = c.Issue("user-1", 0, false)
	assert.Error(t, err)

	_, err = c.Issue("user-1", -time.Second, true)
	assert.Error(t, err)
}

func TestVerify_Malformed(t *testing.T) {
	c, _ := newTestCodec(t)

	for _, bad := range []string{"", "not.a.jwt", "a.b", strings.Repeat("x", 500), "....."} {
		_, err := c.Verify(bad)
		assert.ErrorIs(t, err, autherr.ErrInvalidToken, "input %q", bad)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	c, _ := newTestCodec(t)

	other, err := New([]byte("ffffffffffffffffffffffffffffffff"), "HS256")
	require.NoError(t, err)

	tok, err := other.Issue("user-1", time.Hour, false)
	require.NoError(t, err)

	_, err = c.Verify(tok)
	assert.ErrorIs(t, err, autherr.ErrInvalidToken)
}

func TestVerify_AlgorithmMismatch(t *testing.T) {
	c, _ := newTestCodec(t)

	// Same secret, different HMAC variant.
	other, err := New(testSecret, "HS512")
	require.NoError(t, err)
	tok, err := other.Issue("user-1", time.Hour, false)
	require.NoError(t, err)

	_, err = c.Verify(tok)
	assert.ErrorIs(t, err, autherr.ErrInvalidToken)
}

func TestVerify_TamperedPayload(t *testing.T) {
	c, _ := newTestCodec(t)

	tok, err := c.Issue("user-1", time.Hour, false)
	require.NoError(t, err)
	forged, err := c.Issue("user-2", time.Hour, true)
	require.NoError(t, err)

	// Header and signature from tok, payload from forged.
	a := strings.Split(tok, ".")
	b := strings.Split(forged, ".")
	spliced := a[0] + "." + b[1] + "." + a[2]

	_, err = c.Verify(spliced)
	assert.ErrorIs(t, err, autherr.ErrInvalidToken)
}

func TestVerify_RejectsUnknownAndMissingClaims(t *testing.T) {
	c, clock := newTestCodec(t)
	exp := jwt.NewNumericDate(clock.Now().Add(time.Hour))

	tests := []struct {
		name   string
		claims jwt.MapClaims
	}{
		{"extra claim", jwt.MapClaims{"sub": "u1", "exp": exp, "refresh": false, "role": "admin"}},
		{"missing sub", jwt.MapClaims{"exp": exp, "refresh": false}},
		{"numeric sub", jwt.MapClaims{"sub": 42, "exp": exp}},
		{"missing exp", jwt.MapClaims{"sub": "u1", "refresh": false}},
		{"string refresh", jwt.MapClaims{"sub": "u1", "exp": exp, "refresh": "true"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tt.claims).SignedString(testSecret)
			require.NoError(t, err)

			_, err = c.Verify(tok)
			assert.ErrorIs(t, err, autherr.ErrInvalidToken)
		})
	}
}

func TestVerify_AbsentRefreshMeansAccess(t *testing.T) {
	c, clock := newTestCodec(t)

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": jwt.NewNumericDate(clock.Now().Add(time.Hour)),
	}).SignedString(testSecret)
	require.NoError(t, err)

	claims, err := c.VerifyAccess(tok)
	require.NoError(t, err)
	assert.False(t, claims.Refresh)
}

func TestVerifyAccessAndRefresh_TypeChecks(t *testing.T) {
	c, _ := newTestCodec(t)

	access, err := c.Issue("user-1", time.Hour, false)
	require.NoError(t, err)
	refresh, err := c.Issue("user-1", time.Hour, true)
	require.NoError(t, err)

	_, err = c.VerifyRefresh(access)
	assert.ErrorIs(t, err, autherr.ErrWrongTokenType)

	_, err = c.VerifyAccess(refresh)
	assert.ErrorIs(t, err, autherr.ErrWrongTokenType)

	claims, err := c.VerifyRefresh(refresh)
	require.NoError(t, err)
	assert.True(t, claims.Refresh)

	claims, err = c.VerifyAccess(access)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
}
