// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/authhub/internal/app/system/auditlog"
	"github.com/dalemusser/authhub/internal/app/system/password"
	"github.com/dalemusser/authhub/internal/app/system/tokens"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// appConfigKeys defines the configuration keys for authhub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, jwt_secret_key, etc.
//   - Environment variables: AUTHHUB_MONGO_URI, AUTHHUB_JWT_SECRET_KEY, etc.
//   - Command-line flags: --mongo_uri, --jwt_secret_key, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "authhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Token signing
	{Name: "jwt_secret_key", Default: "", Desc: "HMAC signing secret for access and refresh tokens (at least 32 bytes)"},
	{Name: "jwt_algorithm", Default: "HS256", Desc: "Token signing algorithm: HS256, HS384 or HS512"},
	{Name: "jwt_access_token_ttl", Default: "30m", Desc: "Access token lifetime (e.g., 15m, 1h)"},
	{Name: "jwt_refresh_token_ttl", Default: "168h", Desc: "Refresh token lifetime; must exceed the access token lifetime"},

	// Identity providers
	{Name: "google_client_id", Default: "", Desc: "Google OAuth2 client ID (audience of Google ID tokens)"},
	{Name: "google_client_secret", Default: "", Desc: "Google OAuth2 client secret"},
	{Name: "google_redirect_uri", Default: "", Desc: "Redirect URI registered for the Google authorization-code flow"},
	{Name: "apple_bundle_id", Default: "", Desc: "Apple bundle/service ID (audience of Apple ID tokens)"},
	{Name: "provider_timeout", Default: "10s", Desc: "Timeout for each identity provider request"},

	// Passwords
	{Name: "bcrypt_cost", Default: password.DefaultCost, Desc: "bcrypt cost factor for local passwords (10-31)"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_account", Default: "all", Desc: "Account event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// HTTP extras
	{Name: "cors_allowed_origins", Default: "", Desc: "Comma-separated browser origins allowed to call the API (blank disables CORS)"},
	{Name: "metrics_enabled", Default: true, Desc: "Serve Prometheus metrics at /metrics"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// Precedence is flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "AUTHHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		JWTSecretKey:    appValues.String("jwt_secret_key"),
		JWTAlgorithm:    strings.ToUpper(strings.TrimSpace(appValues.String("jwt_algorithm"))),
		AccessTokenTTL:  appValues.Duration("jwt_access_token_ttl", 30*time.Minute),
		RefreshTokenTTL: appValues.Duration("jwt_refresh_token_ttl", 7*24*time.Hour),

		GoogleClientID:     appValues.String("google_client_id"),
		GoogleClientSecret: appValues.String("google_client_secret"),
		GoogleRedirectURI:  appValues.String("google_redirect_uri"),
		AppleBundleID:      appValues.String("apple_bundle_id"),
		ProviderTimeout:    appValues.Duration("provider_timeout", 10*time.Second),

		BcryptCost: appValues.Int("bcrypt_cost"),

		AuditLogAuth:    appValues.String("audit_log_auth"),
		AuditLogAccount: appValues.String("audit_log_account"),

		CORSAllowedOrigins: splitList(appValues.String("cors_allowed_origins")),
		MetricsEnabled:     appValues.Bool("metrics_enabled"),
	}

	return coreCfg, appCfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ValidateConfig rejects a configuration the service cannot run with.
// Every problem is reported at once so a misconfigured deploy fails fast
// with the full list.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	var problems []error
	fail := func(format string, args ...any) {
		problems = append(problems, fmt.Errorf(format, args...))
	}

	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		fail("invalid MongoDB URI: %w", err)
	}
	if strings.TrimSpace(appCfg.MongoDatabase) == "" {
		fail("mongo_database is required")
	}

	if _, err := tokens.New([]byte(appCfg.JWTSecretKey), appCfg.JWTAlgorithm); err != nil {
		fail("jwt: %w", err)
	}
	if appCfg.AccessTokenTTL <= 0 {
		fail("jwt_access_token_ttl must be positive")
	}
	if appCfg.RefreshTokenTTL <= appCfg.AccessTokenTTL {
		fail("jwt_refresh_token_ttl (%s) must exceed jwt_access_token_ttl (%s)", appCfg.RefreshTokenTTL, appCfg.AccessTokenTTL)
	}

	for _, kv := range []struct{ key, val string }{
		{"google_client_id", appCfg.GoogleClientID},
		{"google_client_secret", appCfg.GoogleClientSecret},
		{"google_redirect_uri", appCfg.GoogleRedirectURI},
		{"apple_bundle_id", appCfg.AppleBundleID},
	} {
		if strings.TrimSpace(kv.val) == "" {
			fail("%s is required", kv.key)
		}
	}
	if appCfg.ProviderTimeout <= 0 {
		fail("provider_timeout must be positive")
	}

	if appCfg.BcryptCost < password.MinCost || appCfg.BcryptCost > bcrypt.MaxCost {
		fail("bcrypt_cost must be between %d and %d", password.MinCost, bcrypt.MaxCost)
	}

	if !auditlog.IsValidSetting(appCfg.AuditLogAuth) {
		fail("audit_log_auth must be all, db, log or off")
	}
	if !auditlog.IsValidSetting(appCfg.AuditLogAccount) {
		fail("audit_log_account must be all, db, log or off")
	}

	if len(problems) == 0 {
		return nil
	}
	err := errors.Join(problems...)
	logger.Error("invalid configuration", zap.Error(err))
	return err
}
