package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/inventory-console/internal/port"
)

// Mock SessionStore
type memoryStore struct {
	mu       sync.Mutex
	tokens   port.Tokens
	saves    int
	clears   int
	clearErr error
}

func (m *memoryStore) LoadTokens(ctx context.Context) (port.Tokens, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens, nil
}

func (m *memoryStore) SaveTokens(ctx context.Context, tokens port.Tokens) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = tokens
	m.saves++
	return nil
}

func (m *memoryStore) ClearTokens(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clears++
	if m.clearErr != nil {
		return m.clearErr
	}
	m.tokens = port.Tokens{}
	return nil
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{Subject: "admin", ExpiresAt: jwt.NewNumericDate(exp)}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestSession_SetPersists(t *testing.T) {
	store := &memoryStore{}
	s := New(store)

	require.NoError(t, s.Set(context.Background(), port.Tokens{Access: "a1", Refresh: "r1"}))

	assert.Equal(t, "a1", s.Token())
	assert.Equal(t, "r1", s.RefreshToken())
	assert.Equal(t, port.Tokens{Access: "a1", Refresh: "r1"}, store.tokens)
}

func TestSession_SetKeepsRefreshToken(t *testing.T) {
	s := New(nil)
	require.NoError(t, s.Set(context.Background(), port.Tokens{Access: "a1", Refresh: "r1"}))

	require.NoError(t, s.Set(context.Background(), port.Tokens{Access: "a2"}))

	assert.Equal(t, "a2", s.Token())
	assert.Equal(t, "r1", s.RefreshToken())
}

func TestSession_Restore(t *testing.T) {
	store := &memoryStore{tokens: port.Tokens{Access: "saved", Refresh: "r"}}

	s, err := Restore(context.Background(), store)
	require.NoError(t, err)

	assert.Equal(t, "saved", s.Token())
}

func TestSession_Invalidate(t *testing.T) {
	store := &memoryStore{}
	s := New(store)
	require.NoError(t, s.Set(context.Background(), port.Tokens{Access: "a1", Refresh: "r1"}))

	s.Invalidate(context.Background())

	assert.Empty(t, s.Token())
	assert.Empty(t, s.RefreshToken())
	assert.False(t, s.Authenticated())
	assert.Equal(t, 1, store.clears)
	assert.Equal(t, port.Tokens{}, store.tokens)
}

func TestSession_InvalidateStoreFailureStillSignsOut(t *testing.T) {
	store := &memoryStore{clearErr: errors.New("disk full")}
	s := New(store)
	require.NoError(t, s.Set(context.Background(), port.Tokens{Access: "a1"}))

	s.Invalidate(context.Background())

	assert.Empty(t, s.Token())
}

func TestSession_ExpiresAt(t *testing.T) {
	exp := time.Now().Add(5 * time.Minute).Truncate(time.Second)
	s := New(nil)
	require.NoError(t, s.Set(context.Background(), port.Tokens{Access: signedToken(t, exp)}))

	got, ok := s.ExpiresAt()
	require.True(t, ok)
	assert.True(t, exp.Equal(got), "want %v, got %v", exp, got)
	assert.True(t, s.Authenticated())
}

func TestSession_ExpiredTokenIsNotAuthenticated(t *testing.T) {
	s := New(nil)
	require.NoError(t, s.Set(context.Background(), port.Tokens{Access: signedToken(t, time.Now().Add(-time.Minute))}))

	assert.False(t, s.Authenticated())
}

func TestSession_OpaqueTokenIsAuthenticated(t *testing.T) {
	s := New(nil)
	require.NoError(t, s.Set(context.Background(), port.Tokens{Access: "not-a-jwt"}))

	_, ok := s.ExpiresAt()
	assert.False(t, ok)
	assert.True(t, s.Authenticated())
}
