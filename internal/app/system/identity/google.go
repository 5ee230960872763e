package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/dalemusser/authhub/internal/app/system/timeouts"
	"github.com/dalemusser/authhub/internal/domain/autherr"
	"github.com/dalemusser/authhub/internal/domain/models"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	DefaultGoogleTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"
	DefaultGoogleUserInfoURL  = "https://www.googleapis.com/oauth2/v3/userinfo"
)

// GoogleConfig configures the Google verifier. Empty URLs and a nil
// HTTPClient fall back to Google's production endpoints and http.DefaultClient.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	TokenInfoURL string
	UserInfoURL  string
	Endpoint     oauth2.Endpoint
	HTTPClient   *http.Client
}

// Google verifies either a Google ID token (via tokeninfo) or an
// authorization code (via token exchange plus userinfo).
type Google struct {
	oauth        *oauth2.Config
	tokenInfoURL string
	userInfoURL  string
	client       *http.Client
	log          *zap.Logger
}

// NewGoogle builds a Google verifier.
func NewGoogle(cfg GoogleConfig, logger *zap.Logger) (*Google, error) {
	if cfg.ClientID == "" {
		return nil, errors.New("google client id is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TokenInfoURL == "" {
		cfg.TokenInfoURL = DefaultGoogleTokenInfoURL
	}
	if cfg.UserInfoURL == "" {
		cfg.UserInfoURL = DefaultGoogleUserInfoURL
	}
	if cfg.Endpoint.TokenURL == "" {
		cfg.Endpoint = google.Endpoint
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}

	return &Google{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     cfg.Endpoint,
		},
		tokenInfoURL: cfg.TokenInfoURL,
		userInfoURL:  cfg.UserInfoURL,
		client:       cfg.HTTPClient,
		log:          logger,
	}, nil
}

func (g *Google) Provider() models.AuthProvider { return models.ProviderGoogle }

// Verify prefers the ID token when both are supplied.
func (g *Google) Verify(ctx context.Context, a Assertion) (Profile, error) {
	switch {
	case a.IDToken != "":
		return g.verifyIDToken(ctx, a.IDToken)
	case a.Code != "":
		return g.exchangeCode(ctx, a.Code)
	default:
		return Profile{}, autherr.Invalid("assertion", "id_token or code is required")
	}
}

// tokeninfo returns every claim as a string, including email_verified.
type googleTokenInfo struct {
	Aud           string `json:"aud"`
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func (g *Google) verifyIDToken(ctx context.Context, idToken string) (Profile, error) {
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Provider(), g.log, "google tokeninfo")
	defer cancel()

	u := g.tokenInfoURL + "?" + url.Values{"id_token": {idToken}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Profile{}, fmt.Errorf("build tokeninfo request: %w", err)
	}

	var info googleTokenInfo
	if err := g.getJSON(req, "google tokeninfo", &info); err != nil {
		return Profile{}, err
	}

	if info.Aud != g.oauth.ClientID {
		g.log.Warn("google id token audience mismatch", zap.String("aud", info.Aud))
		return Profile{}, rejected("audience mismatch")
	}
	if info.EmailVerified != "" && !strings.EqualFold(info.EmailVerified, "true") {
		return Profile{}, rejected("google email not verified")
	}

	return profileFrom(info.Sub, info.Email, info.Name, info.Picture)
}

type googleUserInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified *bool  `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func (g *Google) exchangeCode(ctx context.Context, code string) (Profile, error) {
	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Provider(), g.log, "google code exchange")
	defer cancel()

	ctx = context.WithValue(ctx, oauth2.HTTPClient, g.client)

	token, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil {
			g.log.Warn("google code exchange refused",
				zap.Int("status", re.Response.StatusCode),
				zap.String("error_code", re.ErrorCode))
			return Profile{}, statusError("google token exchange", re.Response.StatusCode)
		}
		return Profile{}, unavailable("google token exchange", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return Profile{}, fmt.Errorf("build userinfo request: %w", err)
	}
	token.SetAuthHeader(req)

	var info googleUserInfo
	if err := g.getJSON(req, "google userinfo", &info); err != nil {
		return Profile{}, err
	}
	if info.EmailVerified != nil && !*info.EmailVerified {
		return Profile{}, rejected("google email not verified")
	}

	return profileFrom(info.Sub, info.Email, info.Name, info.Picture)
}

func (g *Google) getJSON(req *http.Request, op string, into any) error {
	resp, err := g.client.Do(req)
	if err != nil {
		return unavailable(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(op, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		return rejected("%s: decode response: %v", op, err)
	}
	return nil
}

func profileFrom(sub, email, name, picture string) (Profile, error) {
	sub = strings.TrimSpace(sub)
	email = strings.ToLower(strings.TrimSpace(email))
	if sub == "" {
		return Profile{}, rejected("missing subject")
	}
	if email == "" {
		return Profile{}, rejected("missing email")
	}
	return Profile{
		ProviderUserID: sub,
		Email:          email,
		FullName:       strings.TrimSpace(name),
		Picture:        strings.TrimSpace(picture),
	}, nil
}
