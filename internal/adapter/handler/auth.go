package handler

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/rl1809/inventory-console/internal/port"
)

var (
	ErrInvalidCredentials = errors.New("no active account found with the given credentials")
	ErrInvalidToken       = errors.New("given token not valid for any token type")
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// Claims is the JWT payload for both token types.
type Claims struct {
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// Authenticator issues and verifies HS256 tokens for the single admin
// account.
type Authenticator struct {
	secret       []byte
	accessTTL    time.Duration
	refreshTTL   time.Duration
	username     string
	passwordHash []byte
	now          func() time.Time
}

func NewAuthenticator(secret string, accessTTL, refreshTTL time.Duration, username, passwordHash string) *Authenticator {
	return &Authenticator{
		secret:       []byte(secret),
		accessTTL:    accessTTL,
		refreshTTL:   refreshTTL,
		username:     username,
		passwordHash: []byte(passwordHash),
		now:          time.Now,
	}
}

// Login checks the password against the bcrypt hash and issues a token pair.
func (a *Authenticator) Login(username, password string) (port.Tokens, error) {
	if username != a.username || len(a.passwordHash) == 0 {
		return port.Tokens{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)); err != nil {
		return port.Tokens{}, ErrInvalidCredentials
	}

	access, err := a.sign(username, tokenTypeAccess, a.accessTTL)
	if err != nil {
		return port.Tokens{}, err
	}
	refresh, err := a.sign(username, tokenTypeRefresh, a.refreshTTL)
	if err != nil {
		return port.Tokens{}, err
	}
	return port.Tokens{Access: access, Refresh: refresh}, nil
}

// Refresh issues a new access token for a valid refresh token.
func (a *Authenticator) Refresh(refresh string) (port.Tokens, error) {
	claims, err := a.parse(refresh, tokenTypeRefresh)
	if err != nil {
		return port.Tokens{}, err
	}
	access, err := a.sign(claims.Subject, tokenTypeAccess, a.accessTTL)
	if err != nil {
		return port.Tokens{}, err
	}
	return port.Tokens{Access: access}, nil
}

// Verify validates an access token and returns its subject.
func (a *Authenticator) Verify(access string) (string, error) {
	claims, err := a.parse(access, tokenTypeAccess)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (a *Authenticator) sign(subject, tokenType string, ttl time.Duration) (string, error) {
	now := a.now()
	claims := Claims{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (a *Authenticator) parse(tokenStr, tokenType string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return a.secret, nil
	}, jwt.WithTimeFunc(a.now))
	if err != nil || !token.Valid || claims.TokenType != tokenType {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// HashPassword returns the bcrypt hash to put in ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
