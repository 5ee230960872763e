// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables (AUTHHUB_*), configuration
// files, or command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig
// covers the framework side: ports, TLS, log level and request limits.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Token signing
	JWTSecretKey    string
	JWTAlgorithm    string        // HS256, HS384 or HS512
	AccessTokenTTL  time.Duration // jwt_access_token_ttl
	RefreshTokenTTL time.Duration // jwt_refresh_token_ttl

	// Google sign-in
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURI  string

	// Apple sign-in
	AppleBundleID string

	// Outbound identity provider calls
	ProviderTimeout time.Duration

	// bcrypt work factor for local passwords
	BcryptCost int

	// Audit logging: all, db, log or off
	AuditLogAuth    string
	AuditLogAccount string

	// Browser origins allowed to call the API. Empty disables CORS handling.
	CORSAllowedOrigins []string

	// Serve Prometheus metrics at /metrics
	MetricsEnabled bool
}
