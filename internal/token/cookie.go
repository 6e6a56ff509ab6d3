// Package token signs and verifies the session cookie.
//
// The cookie value is an HS256 JWT whose subject is the session id. It carries
// no user input and no credentials; everything else lives in the session store.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jsamuelsen11/commitquest/ui-service/internal/config"
)

const (
	// TokenTypeSession is the "typ" claim of session cookies.
	TokenTypeSession = "session"
)

// ErrInvalidSessionCookie is returned for cookies that fail signature, expiry or claim checks.
var ErrInvalidSessionCookie = errors.New("invalid session cookie")

// Claims are the JWT claims of a session cookie.
type Claims struct {
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

// CookieService issues and parses session cookies.
type CookieService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	method jwt.SigningMethod
}

// NewCookieService creates a cookie signer from the session configuration.
func NewCookieService(cfg *config.SessionConfig) *CookieService {
	return &CookieService{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    cfg.TTL,
		method: jwt.SigningMethodHS256,
	}
}

// TTL returns the lifetime of issued cookies.
func (s *CookieService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a cookie value for sessionID that expires after the configured TTL.
func (s *CookieService) Issue(sessionID string) (string, error) {
	if sessionID == "" {
		return "", errors.New("session id is empty")
	}

	now := time.Now()
	claims := &Claims{
		Type: TokenTypeSession,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   sessionID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session cookie: %w", err)
	}
	return signed, nil
}

// Parse verifies a cookie value and returns the session id it names.
func (s *CookieService) Parse(value string) (string, error) {
	parsed, err := jwt.ParseWithClaims(value, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method != s.method {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidSessionCookie, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return "", ErrInvalidSessionCookie
	}

	if claims.Type != TokenTypeSession {
		return "", fmt.Errorf("%w: unexpected token type %q", ErrInvalidSessionCookie, claims.Type)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidSessionCookie)
	}

	return claims.Subject, nil
}
