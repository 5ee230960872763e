// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/dalemusser/authhub/internal/app/store/audit"
	"github.com/dalemusser/authhub/internal/app/system/requestid"
	"github.com/dalemusser/authhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destination settings for a category.
const (
	All = "all" // MongoDB + zap
	DB  = "db"  // MongoDB only
	Log = "log" // zap only
	Off = "off"
)

// IsValidSetting reports whether s is one of all, db, log, off.
func IsValidSetting(s string) bool {
	switch s {
	case All, DB, Log, Off:
		return true
	}
	return false
}

// Config holds audit logging configuration.
type Config struct {
	// Auth controls register, login, refresh and social-login events.
	Auth string
	// Account controls profile changes.
	Account string
}

// Sink persists audit events. *audit.Store satisfies it.
type Sink interface {
	Log(ctx context.Context, event audit.Event) error
}

// Logger records audit events to a Sink and to zap, per Config.
// A nil *Logger is a valid no-op.
type Logger struct {
	sink   Sink
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(sink Sink, zapLog *zap.Logger, config Config) *Logger {
	if zapLog == nil {
		zapLog = zap.NewNop()
	}
	return &Logger{sink: sink, zapLog: zapLog, config: config}
}

/* -------------------------------------------------------------------------- */
/* Request metadata                                                            */
/* -------------------------------------------------------------------------- */

// Client is the caller metadata attached to events.
type Client struct {
	IP        string
	UserAgent string
	RequestID string
}

type clientKey struct{}

// WithClient returns ctx carrying c.
func WithClient(ctx context.Context, c Client) context.Context {
	return context.WithValue(ctx, clientKey{}, c)
}

// ClientFrom returns the Client stored in ctx (zero value if none).
func ClientFrom(ctx context.Context) Client {
	c, _ := ctx.Value(clientKey{}).(Client)
	return c
}

// Middleware captures caller metadata for events emitted further down.
// Mount it after requestid.Middleware.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithClient(r.Context(), Client{
			IP:        clientIP(r),
			UserAgent: r.UserAgent(),
			RequestID: requestid.From(r.Context()),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// clientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then
// RemoteAddr without its port.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

/* -------------------------------------------------------------------------- */
/* Core                                                                        */
/* -------------------------------------------------------------------------- */

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
	}
	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.RequestID != "" {
		fields = append(fields, zap.String("request_id", event.RequestID))
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.Provider != "" {
		fields = append(fields, zap.String("provider", event.Provider))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records event according to the setting for its category. Caller
// metadata from ctx fills IP, user agent and request id when unset.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryAccount:
		setting = l.config.Account
	}
	if setting == "" {
		setting = All
	}
	if setting == Off {
		return
	}

	c := ClientFrom(ctx)
	if event.IP == "" {
		event.IP = c.IP
	}
	if event.UserAgent == "" {
		event.UserAgent = c.UserAgent
	}
	if event.RequestID == "" {
		event.RequestID = c.RequestID
	}

	if setting == All || setting == Log {
		l.logToZap(event)
	}
	if (setting == All || setting == DB) && l.sink != nil {
		if err := l.sink.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType))
		}
	}
}

/* -------------------------------------------------------------------------- */
/* Auth events                                                                 */
/* -------------------------------------------------------------------------- */

func authEvent(eventType string, success bool) audit.Event {
	return audit.Event{Category: audit.CategoryAuth, EventType: eventType, Success: success}
}

func userEvent(ev audit.Event, u models.User) audit.Event {
	id := u.ID
	ev.UserID = &id
	ev.Email = u.Email
	ev.Provider = u.AuthProvider.String()
	return ev
}

// Registered logs a new local account.
func (l *Logger) Registered(ctx context.Context, u models.User) {
	l.Log(ctx, userEvent(authEvent(audit.EventRegistered, true), u))
}

// RegisterFailed logs a rejected registration.
func (l *Logger) RegisterFailed(ctx context.Context, email, reason string) {
	ev := authEvent(audit.EventRegisterFailed, false)
	ev.Email = email
	ev.Provider = models.ProviderLocal.String()
	ev.FailureReason = reason
	l.Log(ctx, ev)
}

// LoginSuccess logs a successful password login.
func (l *Logger) LoginSuccess(ctx context.Context, u models.User) {
	l.Log(ctx, userEvent(authEvent(audit.EventLoginSuccess, true), u))
}

// LoginFailed logs a failed password login. The reason is recorded for
// operators only; callers always see the same credential error.
func (l *Logger) LoginFailed(ctx context.Context, email string, userID *primitive.ObjectID, reason string) {
	ev := authEvent(audit.EventLoginFailed, false)
	ev.Email = email
	ev.UserID = userID
	ev.Provider = models.ProviderLocal.String()
	ev.FailureReason = reason
	l.Log(ctx, ev)
}

// TokenRefreshed logs a refresh-token exchange.
func (l *Logger) TokenRefreshed(ctx context.Context, userID primitive.ObjectID) {
	ev := authEvent(audit.EventTokenRefreshed, true)
	ev.UserID = &userID
	l.Log(ctx, ev)
}

// TokenRefreshFailed logs a rejected refresh attempt.
func (l *Logger) TokenRefreshFailed(ctx context.Context, reason string) {
	ev := authEvent(audit.EventTokenRefreshFailed, false)
	ev.FailureReason = reason
	l.Log(ctx, ev)
}

// SocialLoginSuccess logs a completed Google or Apple sign-in.
func (l *Logger) SocialLoginSuccess(ctx context.Context, u models.User) {
	l.Log(ctx, userEvent(authEvent(audit.EventSocialLoginSuccess, true), u))
}

// SocialAccountCreated logs the first sign-in of a provider identity.
func (l *Logger) SocialAccountCreated(ctx context.Context, u models.User) {
	l.Log(ctx, userEvent(authEvent(audit.EventSocialAccountCreated, true), u))
}

// SocialLoginFailed logs a provider rejection or outage.
func (l *Logger) SocialLoginFailed(ctx context.Context, provider models.AuthProvider, reason string) {
	ev := authEvent(audit.EventSocialLoginFailed, false)
	ev.Provider = provider.String()
	ev.FailureReason = reason
	l.Log(ctx, ev)
}

/* -------------------------------------------------------------------------- */
/* Account events                                                              */
/* -------------------------------------------------------------------------- */

// ProfileUpdated logs which profile fields changed.
func (l *Logger) ProfileUpdated(ctx context.Context, userID primitive.ObjectID, fields []string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAccount,
		EventType: audit.EventProfileUpdated,
		UserID:    &userID,
		Success:   true,
		Details:   map[string]string{"fields": strings.Join(fields, ",")},
	})
}
