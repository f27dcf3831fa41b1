package constants

import "errors"

// API and configuration errors.
var (
	ErrNoAPIsConfigured  = errors.New("no APIs configured, use 'opsdesk login --api <url>' to add one")
	ErrNoAPIEndpoint     = errors.New("no API endpoint configured")
	ErrAPIConfigNotFound = errors.New("API configuration not found")
	ErrUnknownConfigKey  = errors.New("unknown configuration key")
	ErrNotAuthenticated  = errors.New("not authenticated, use 'opsdesk login' first")
)

// Token errors.
var (
	ErrInvalidJWTFormat  = errors.New("invalid JWT format")
	ErrNoExpirationClaim = errors.New("no expiration claim found")
	ErrTokenExpired      = errors.New("access token expired, use 'opsdesk login' again")
)

// Input errors.
var (
	ErrInvalidFilter   = errors.New("filters must be given as key=value")
	ErrInvalidQuantity = errors.New("quantity must be an integer")
	ErrInvalidBoolean  = errors.New("value must be true or false")
)
