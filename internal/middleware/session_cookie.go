package middleware

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/jsamuelsen11/commitquest/ui-service/internal/config"
	"github.com/jsamuelsen11/commitquest/ui-service/internal/token"
	"github.com/jsamuelsen11/commitquest/ui-service/pkg/logger"
)

const sessionIDKey contextKey = "session_id"

// SessionID returns the session id resolved by SessionCookies.Middleware, or "".
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDKey).(string)
	return id
}

// WithSessionID stores a session id in ctx.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

// SessionCookies reads and writes the signed session cookie.
type SessionCookies struct {
	signer   *token.CookieService
	name     string
	secure   bool
	sameSite http.SameSite
	logger   *logrus.Logger
}

// NewSessionCookies creates the cookie helper from configuration.
func NewSessionCookies(cfg *config.Config, signer *token.CookieService, logger *logrus.Logger) *SessionCookies {
	return &SessionCookies{
		signer:   signer,
		name:     cfg.Session.CookieName,
		secure:   cfg.Security.SecureCookies,
		sameSite: cfg.SameSiteMode(),
		logger:   logger,
	}
}

// Middleware puts the session id of a valid cookie into the request context.
// Missing or tampered cookies leave the id empty so a new session is started.
func (c *SessionCookies) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(c.name)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		sessionID, parseErr := c.signer.Parse(cookie.Value)
		if parseErr != nil {
			logger.WithCorrelationID(r.Context(), c.logger).WithError(parseErr).Debug("Ignoring invalid session cookie")
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithSessionID(r.Context(), sessionID)))
	})
}

// Write issues a fresh cookie for sessionID, extending its lifetime.
func (c *SessionCookies) Write(w http.ResponseWriter, sessionID string) error {
	value, err := c.signer.Issue(sessionID)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(c.signer.TTL().Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: c.sameSite,
	})
	return nil
}
