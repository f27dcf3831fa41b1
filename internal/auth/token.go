package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fivetwenty-io/opsdesk/internal/constants"
)

// Static errors for err113 compliance.
var (
	ErrNoToken             = errors.New("no access token available")
	ErrRefreshNotSupported = errors.New("token cannot be refreshed")
	ErrLoginFuncRequired   = errors.New("login function is required")
)

// TokenManager supplies bearer tokens to the transport.
type TokenManager interface {
	GetToken(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context) error
	SetToken(token string, expiresAt time.Time)
}

// Token is an access token and its expiry. A zero ExpiresAt never expires.
type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type,omitempty"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Valid reports whether the token can be used, allowing a safety buffer before expiry.
func (t *Token) Valid() bool {
	if t == nil || t.AccessToken == "" {
		return false
	}

	if t.ExpiresAt.IsZero() {
		return true
	}

	return time.Now().Add(constants.TokenExpirationBuffer).Before(t.ExpiresAt)
}

// TokenStore holds the current token for concurrent readers.
type TokenStore struct {
	mu    sync.RWMutex
	token *Token
}

// NewTokenStore creates an empty store.
func NewTokenStore() *TokenStore {
	return &TokenStore{}
}

// Get returns the stored token or nil.
func (s *TokenStore) Get() *Token {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.token
}

// Set replaces the stored token.
func (s *TokenStore) Set(token *Token) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token
}

// Clear removes the stored token.
func (s *TokenStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = nil
}

// ExpiryFromJWT reads the exp claim of a JWT without verifying its signature.
// The backend is the authority on validity; the client only needs to know
// when to stop using the token.
func ExpiryFromJWT(token string) (time.Time, error) {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())

	parsed, _, err := parser.ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", constants.ErrInvalidJWTFormat, err)
	}

	expiry, err := parsed.Claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", constants.ErrInvalidJWTFormat, err)
	}

	if expiry == nil {
		return time.Time{}, constants.ErrNoExpirationClaim
	}

	return expiry.Time, nil
}

// StaticTokenManager serves a fixed token, typically one given on the command
// line or read from the config file.
type StaticTokenManager struct {
	store *TokenStore
}

// NewStaticTokenManager creates a manager for token. When the token is a JWT
// its exp claim becomes the expiry.
func NewStaticTokenManager(token string) *StaticTokenManager {
	expiresAt, _ := ExpiryFromJWT(token)

	store := NewTokenStore()
	store.Set(&Token{AccessToken: token, TokenType: "bearer", ExpiresAt: expiresAt})

	return &StaticTokenManager{store: store}
}

// GetToken returns the token unless it has expired.
func (m *StaticTokenManager) GetToken(ctx context.Context) (string, error) {
	token := m.store.Get()
	if token == nil || token.AccessToken == "" {
		return "", ErrNoToken
	}

	if !token.Valid() {
		return "", constants.ErrTokenExpired
	}

	return token.AccessToken, nil
}

// RefreshToken always fails: a static token has no way to renew itself.
func (m *StaticTokenManager) RefreshToken(ctx context.Context) error {
	return ErrRefreshNotSupported
}

// SetToken replaces the token.
func (m *StaticTokenManager) SetToken(token string, expiresAt time.Time) {
	m.store.Set(&Token{AccessToken: token, TokenType: "bearer", ExpiresAt: expiresAt})
}

// LoginFunc signs in and returns a fresh token.
type LoginFunc func(ctx context.Context) (*Token, error)

// LoginTokenManager signs in with stored credentials whenever it has no valid token.
type LoginTokenManager struct {
	store *TokenStore
	login LoginFunc
	mu    sync.Mutex
}

// NewLoginTokenManager creates a manager that calls login on demand.
func NewLoginTokenManager(login LoginFunc) *LoginTokenManager {
	return &LoginTokenManager{store: NewTokenStore(), login: login}
}

// GetToken returns the current token, signing in first if needed.
func (m *LoginTokenManager) GetToken(ctx context.Context) (string, error) {
	token := m.store.Get()
	if token.Valid() {
		return token.AccessToken, nil
	}

	err := m.RefreshToken(ctx)
	if err != nil {
		return "", err
	}

	return m.store.Get().AccessToken, nil
}

// RefreshToken signs in again.
func (m *LoginTokenManager) RefreshToken(ctx context.Context) error {
	if m.login == nil {
		return ErrLoginFuncRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	token, err := m.login(ctx)
	if err != nil {
		return fmt.Errorf("signing in: %w", err)
	}

	if token == nil || token.AccessToken == "" {
		return ErrNoToken
	}

	if token.ExpiresAt.IsZero() {
		token.ExpiresAt, _ = ExpiryFromJWT(token.AccessToken)
	}

	m.store.Set(token)

	return nil
}

// SetToken seeds the manager with a known token.
func (m *LoginTokenManager) SetToken(token string, expiresAt time.Time) {
	m.store.Set(&Token{AccessToken: token, TokenType: "bearer", ExpiresAt: expiresAt})
}

// Current returns the stored token, if any.
func (m *LoginTokenManager) Current() *Token {
	return m.store.Get()
}
