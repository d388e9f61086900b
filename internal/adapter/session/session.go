// Package session holds the bearer credential shared by every component that
// talks to the product backend.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/rl1809/inventory-console/internal/port"
)

// Session is created at login, read by the REST client on every request and
// torn down on logout or when the backend rejects the token.
type Session struct {
	mu     sync.RWMutex
	tokens port.Tokens
	store  port.SessionStore
}

// New returns an empty session. store may be nil for an in-memory session.
func New(store port.SessionStore) *Session {
	return &Session{store: store}
}

// Restore loads previously persisted tokens.
func Restore(ctx context.Context, store port.SessionStore) (*Session, error) {
	s := New(store)
	if store == nil {
		return s, nil
	}
	tokens, err := store.LoadTokens(ctx)
	if err != nil {
		return nil, err
	}
	s.tokens = tokens
	return s, nil
}

// Token returns the current access token, empty when signed out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens.Access
}

func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens.Refresh
}

// Set installs freshly issued tokens. A blank refresh token keeps the old one.
func (s *Session) Set(ctx context.Context, tokens port.Tokens) error {
	s.mu.Lock()
	if tokens.Refresh == "" {
		tokens.Refresh = s.tokens.Refresh
	}
	s.tokens = tokens
	s.mu.Unlock()

	if s.store == nil {
		return nil
	}
	return s.store.SaveTokens(ctx, tokens)
}

// Invalidate drops the credentials. It is called on logout and whenever the
// backend answers 401.
func (s *Session) Invalidate(ctx context.Context) {
	s.mu.Lock()
	s.tokens = port.Tokens{}
	s.mu.Unlock()

	if s.store == nil {
		return
	}
	if err := s.store.ClearTokens(ctx); err != nil {
		zap.L().Warn("failed to clear persisted session", zap.Error(err))
	}
}

// Authenticated reports whether an unexpired access token is held.
func (s *Session) Authenticated() bool {
	if s.Token() == "" {
		return false
	}
	exp, ok := s.ExpiresAt()
	return !ok || time.Now().Before(exp)
}

// ExpiresAt decodes the exp claim of the access token. The signature is not
// checked here; the backend does that on every request.
func (s *Session) ExpiresAt() (time.Time, bool) {
	return expiry(s.Token())
}

func expiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
