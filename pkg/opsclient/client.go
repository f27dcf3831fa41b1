// Package opsclient provides the main entry point for creating opsdesk API clients
package opsclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/fivetwenty-io/opsdesk/internal/client"
	"github.com/fivetwenty-io/opsdesk/pkg/opsdesk"
)

// New creates a new opsdesk API client. When the configuration carries a
// username and password, New signs in before returning so bad credentials
// fail here rather than on the first request.
func New(ctx context.Context, config *opsdesk.Config) (opsdesk.Client, error) {
	if config == nil {
		return nil, opsdesk.ErrConfigRequired
	}

	if config.APIEndpoint == "" {
		return nil, opsdesk.ErrAPIEndpointRequired
	}

	config.APIEndpoint = NormalizeEndpoint(config.APIEndpoint)

	// Use the internal client implementation
	c, err := client.New(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	if needsSignIn(config) {
		_, err = c.GetTokenProvider().GetToken(ctx)
		if err != nil {
			return nil, fmt.Errorf("signing in as %s: %w", config.Username, err)
		}
	}

	return c, nil
}

// NormalizeEndpoint trims trailing slashes and defaults the scheme to https.
func NormalizeEndpoint(endpoint string) string {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}

	return endpoint
}

// needsSignIn checks if the config authenticates with credentials only.
func needsSignIn(config *opsdesk.Config) bool {
	return config.TokenProvider == nil &&
		config.AccessToken == "" &&
		config.Username != "" && config.Password != ""
}

// NewWithEndpoint creates a new client with just an API endpoint (no auth).
func NewWithEndpoint(ctx context.Context, endpoint string) (opsdesk.Client, error) {
	return New(ctx, &opsdesk.Config{
		APIEndpoint: endpoint,
	})
}

// NewWithToken creates a new client with an API endpoint and access token.
func NewWithToken(ctx context.Context, endpoint, token string) (opsdesk.Client, error) {
	return New(ctx, &opsdesk.Config{
		APIEndpoint: endpoint,
		AccessToken: token,
	})
}

// NewWithPassword creates a new client that signs in with email and password.
func NewWithPassword(ctx context.Context, endpoint, email, password string) (opsdesk.Client, error) {
	return New(ctx, &opsdesk.Config{
		APIEndpoint: endpoint,
		Username:    email,
		Password:    password,
	})
}
