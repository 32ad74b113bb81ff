package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	CookieName = "budget_session"
	issuer     = "budget"
)

// ErrInvalidSession covers missing, malformed, expired and revoked tokens.
var ErrInvalidSession = errors.New("invalid session")

// Session is the verified content of a session token.
type Session struct {
	ID        string
	UserID    int64
	ExpiresAt time.Time
}

type SessionConfig struct {
	Secret       []byte
	TTL          time.Duration
	SecureCookie bool
}

// SessionManager issues HS256 session tokens and checks them against a
// revocation list.
type SessionManager struct {
	secret  []byte
	ttl     time.Duration
	secure  bool
	revoker Revoker
	now     func() time.Time
}

func NewSessionManager(cfg SessionConfig, revoker Revoker) (*SessionManager, error) {
	if len(cfg.Secret) < 32 {
		return nil, errors.New("session secret must be at least 32 bytes")
	}
	if cfg.TTL <= 0 {
		return nil, errors.New("session ttl must be positive")
	}
	if revoker == nil {
		return nil, errors.New("session revoker is required")
	}
	return &SessionManager{
		secret:  cfg.Secret,
		ttl:     cfg.TTL,
		secure:  cfg.SecureCookie,
		revoker: revoker,
		now:     time.Now,
	}, nil
}

// Issue creates a signed token for the user.
func (m *SessionManager) Issue(userID int64) (string, Session, error) {
	now := m.now()
	s := Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		ExpiresAt: now.Add(m.ttl).Truncate(time.Second),
	}
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   strconv.FormatInt(userID, 10),
		ID:        s.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", Session{}, fmt.Errorf("sign session: %w", err)
	}
	return token, s, nil
}

// Verify parses the token and rejects it if it was revoked.
func (m *SessionManager) Verify(ctx context.Context, token string) (Session, error) {
	if token == "" {
		return Session{}, ErrInvalidSession
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || claims.ID == "" {
		return Session{}, ErrInvalidSession
	}

	revoked, err := m.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return Session{}, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return Session{}, ErrInvalidSession
	}

	return Session{ID: claims.ID, UserID: userID, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// Revoke blacklists the session until it would have expired anyway.
func (m *SessionManager) Revoke(ctx context.Context, s Session) error {
	ttl := s.ExpiresAt.Sub(m.now())
	if ttl <= 0 {
		return nil
	}
	return m.revoker.Revoke(ctx, s.ID, ttl)
}

// SetCookie writes the session cookie.
func (m *SessionManager) SetCookie(w http.ResponseWriter, token string, s Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  s.ExpiresAt,
		MaxAge:   int(s.ExpiresAt.Sub(m.now()).Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie on the client.
func (m *SessionManager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// TokenFromRequest reads the session cookie, falling back to a bearer token.
func TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	const prefix = "Bearer "
	if h := r.Header.Get("Authorization"); len(h) > len(prefix) && h[:len(prefix)] == prefix {
		return h[len(prefix):]
	}
	return ""
}
