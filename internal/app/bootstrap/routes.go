// internal/app/bootstrap/routes.go
package bootstrap

import (
	"fmt"
	"net/http"

	authapifeature "github.com/dalemusser/authhub/internal/app/features/authapi"
	healthfeature "github.com/dalemusser/authhub/internal/app/features/health"
	usersfeature "github.com/dalemusser/authhub/internal/app/features/users"
	auditstore "github.com/dalemusser/authhub/internal/app/store/audit"
	userstore "github.com/dalemusser/authhub/internal/app/store/users"
	"github.com/dalemusser/authhub/internal/app/system/auditlog"
	"github.com/dalemusser/authhub/internal/app/system/auth"
	"github.com/dalemusser/authhub/internal/app/system/identity"
	"github.com/dalemusser/authhub/internal/app/system/metrics"
	"github.com/dalemusser/authhub/internal/app/system/password"
	"github.com/dalemusser/authhub/internal/app/system/requestid"
	"github.com/dalemusser/authhub/internal/app/system/session"
	"github.com/dalemusser/authhub/internal/app/system/tokens"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed.
//
// Routes:
//
//	GET  /health
//	GET  /metrics          (when metrics_enabled)
//	POST /auth/register | /auth/login | /auth/refresh
//	POST /auth/google | /auth/apple | /auth/social
//	GET  /users/me, PUT /users/me   (bearer token required)
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	var m *metrics.Metrics
	if appCfg.MetricsEnabled {
		m = metrics.New()
	}

	audit := auditlog.New(auditstore.New(deps.MongoDatabase), logger, auditlog.Config{
		Auth:    appCfg.AuditLogAuth,
		Account: appCfg.AuditLogAccount,
	})

	svc, err := buildSession(appCfg, userstore.New(deps.MongoDatabase), audit, m, logger)
	if err != nil {
		logger.Error("session service init failed", zap.Error(err))
		return nil, err
	}

	r := newRouter(appCfg, svc, m, logger)

	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	return r, nil
}

// buildSession assembles the credential core from config.
func buildSession(appCfg AppConfig, users *userstore.Store, audit *auditlog.Logger, m *metrics.Metrics, logger *zap.Logger) (*session.Service, error) {
	codec, err := tokens.New([]byte(appCfg.JWTSecretKey), appCfg.JWTAlgorithm)
	if err != nil {
		return nil, fmt.Errorf("token codec: %w", err)
	}
	hasher, err := password.New(appCfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("password hasher: %w", err)
	}

	google, err := identity.NewGoogle(identity.GoogleConfig{
		ClientID:     appCfg.GoogleClientID,
		ClientSecret: appCfg.GoogleClientSecret,
		RedirectURL:  appCfg.GoogleRedirectURI,
	}, logger.Named("google"))
	if err != nil {
		return nil, err
	}
	apple, err := identity.NewApple(identity.AppleConfig{BundleID: appCfg.AppleBundleID}, logger.Named("apple"))
	if err != nil {
		return nil, err
	}

	return session.New(session.Deps{
		Users:      users,
		Hasher:     hasher,
		Codec:      codec,
		Verifiers:  identity.NewRegistry(google, apple),
		AccessTTL:  appCfg.AccessTokenTTL,
		RefreshTTL: appCfg.RefreshTokenTTL,
		Audit:      audit,
		Metrics:    m,
		Logger:     logger,
	})
}

// sessionAPI is what the HTTP features need from the session core.
type sessionAPI interface {
	authapifeature.Sessions
	usersfeature.Profiles
	auth.AccessVerifier
}

// newRouter mounts the API routes over svc. Split from BuildHandler so the
// routing can be exercised without MongoDB.
func newRouter(appCfg AppConfig, svc sessionAPI, m *metrics.Metrics, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(requestid.Middleware)
	r.Use(auditlog.Middleware)
	if len(appCfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   appCfg.CORSAllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type", requestid.Header},
			ExposedHeaders:   []string{requestid.Header},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	if m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	authHandler := authapifeature.NewHandler(svc, logger)
	r.Mount("/auth", authapifeature.Routes(authHandler))

	requireUser := auth.NewMiddleware(svc, logger).RequireUser
	usersHandler := usersfeature.NewHandler(svc, logger)
	r.Mount("/users", usersfeature.Routes(usersHandler, requireUser))

	return r
}
