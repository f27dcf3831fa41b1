package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/fivetwenty-io/opsdesk/internal/auth"
	"github.com/fivetwenty-io/opsdesk/internal/constants"
	"github.com/fivetwenty-io/opsdesk/internal/http"
	"github.com/fivetwenty-io/opsdesk/internal/pipeline"
	"github.com/fivetwenty-io/opsdesk/pkg/opsdesk"
)

// Static errors for err113 compliance.
var (
	ErrNoTokenManagerConfigured = errors.New("no token manager configured")
	ErrEmptySessionToken        = errors.New("sign-in returned an empty token")
)

// Client implements the opsdesk.Client interface.
type Client struct {
	httpClient    *http.Client
	pipeline      *pipeline.Pipeline
	tokenProvider opsdesk.TokenProvider
	logger        opsdesk.Logger
	metrics       *opsdesk.MetricsCollector

	// Feature clients
	facilities *FacilitiesClient
	inventory  *InventoryClient
	attendance *AttendanceClient
	hazards    *HazardsClient
	tickets    *TicketsClient
	session    *SessionClient
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *opsdesk.Config, chain *opsdesk.InterceptorChain) ([]http.Option, error) {
	var httpOpts []http.Option

	if config.Logger != nil {
		httpOpts = append(httpOpts, http.WithLogger(config.Logger))
	}

	if config.Debug {
		httpOpts = append(httpOpts, http.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, http.WithUserAgent(config.UserAgent))
	}

	if config.HTTPTimeout > 0 {
		httpOpts = append(httpOpts, http.WithHTTPTimeout(config.HTTPTimeout))
	}

	if config.RetryMax > 0 {
		retryWaitMin := constants.DefaultRetryWaitMin
		retryWaitMax := constants.ExtendedRetryWaitMax

		if config.RetryWaitMin > 0 {
			retryWaitMin = config.RetryWaitMin
		}

		if config.RetryWaitMax > 0 {
			retryWaitMax = config.RetryWaitMax
		}

		httpOpts = append(httpOpts, http.WithRetryConfig(config.RetryMax, retryWaitMin, retryWaitMax))
	}

	if config.ResponseCache != nil {
		cache, err := opsdesk.NewCacheFromConfig(config.ResponseCache)
		if err != nil {
			return nil, fmt.Errorf("creating response cache: %w", err)
		}

		httpOpts = append(httpOpts, http.WithResponseCache(cache, config.ResponseCache.Options))
	}

	httpOpts = append(httpOpts, http.WithInterceptors(chain))

	return httpOpts, nil
}

// createInterceptorChain tags requests with an ID, runs the caller's
// interceptors and records per-endpoint metrics.
func createInterceptorChain(config *opsdesk.Config, metrics *opsdesk.MetricsCollector) *opsdesk.InterceptorChain {
	chain := opsdesk.NewInterceptorChain()
	chain.AddRequestInterceptor(opsdesk.RequestIDInterceptor())

	if config.Interceptors != nil {
		chain.AddRequestInterceptor(config.Interceptors.ExecuteRequestInterceptors)
		chain.AddResponseInterceptor(config.Interceptors.ExecuteResponseInterceptors)
	}

	if config.Debug && config.Logger != nil {
		chain.AddRequestInterceptor(opsdesk.LoggingInterceptor(config.Logger))
		chain.AddResponseInterceptor(opsdesk.LoggingResponseInterceptor(config.Logger))
	}

	chain.AddRequestInterceptor(opsdesk.MetricsRequestInterceptor(metrics))
	chain.AddResponseInterceptor(opsdesk.MetricsResponseInterceptor(metrics))

	return chain
}

// createTokenProvider picks the token source based on the available credentials.
func createTokenProvider(config *opsdesk.Config, httpOpts []http.Option, cache *opsdesk.QueryCache) opsdesk.TokenProvider {
	if config.TokenProvider != nil {
		return config.TokenProvider
	}

	if config.AccessToken != "" {
		return auth.NewStaticTokenManager(config.AccessToken)
	}

	if config.Username != "" && config.Password != "" {
		// Sign-in goes through its own unauthenticated transport so that
		// requesting a token never asks for one.
		anonymous := http.NewClient(config.APIEndpoint, nil, httpOpts...)
		session := NewSessionClient(pipeline.New(anonymous, cache, config.Logger))

		return auth.NewLoginTokenManager(PasswordLogin(session, config.Username, config.Password))
	}

	return nil // No authentication
}

// PasswordLogin returns a login function that signs in through session.
func PasswordLogin(session opsdesk.SessionClient, email, password string) auth.LoginFunc {
	return func(ctx context.Context) (*auth.Token, error) {
		result, err := session.Login(ctx, &opsdesk.LoginRequest{Email: email, Password: password})
		if err != nil {
			return nil, err
		}

		if result.Token == "" {
			return nil, ErrEmptySessionToken
		}

		token := &auth.Token{AccessToken: result.Token, TokenType: "bearer"}
		if result.ExpiresAt != nil {
			token.ExpiresAt = *result.ExpiresAt
		}

		return token, nil
	}
}

// New creates a new opsdesk API client.
func New(ctx context.Context, config *opsdesk.Config) (*Client, error) {
	if config == nil {
		return nil, opsdesk.ErrConfigRequired
	}

	if config.APIEndpoint == "" {
		return nil, opsdesk.ErrAPIEndpointRequired
	}

	queryCache, err := newQueryCache(config)
	if err != nil {
		return nil, err
	}

	metrics := opsdesk.NewMetricsCollector()

	httpOpts, err := createHTTPClientOptions(config, createInterceptorChain(config, metrics))
	if err != nil {
		return nil, err
	}

	tokenProvider := createTokenProvider(config, httpOpts, queryCache)

	return newClient(config, tokenProvider, httpOpts, queryCache, metrics), nil
}

// NewWithTokenManager creates a new opsdesk API client with a custom token manager.
func NewWithTokenManager(config *opsdesk.Config, tokenManager auth.TokenManager) (*Client, error) {
	if config == nil {
		return nil, opsdesk.ErrConfigRequired
	}

	if config.APIEndpoint == "" {
		return nil, opsdesk.ErrAPIEndpointRequired
	}

	if tokenManager == nil {
		return nil, ErrNoTokenManagerConfigured
	}

	queryCache, err := newQueryCache(config)
	if err != nil {
		return nil, err
	}

	metrics := opsdesk.NewMetricsCollector()

	httpOpts, err := createHTTPClientOptions(config, createInterceptorChain(config, metrics))
	if err != nil {
		return nil, err
	}

	return newClient(config, tokenManager, httpOpts, queryCache, metrics), nil
}

func newQueryCache(config *opsdesk.Config) (*opsdesk.QueryCache, error) {
	cacheConfig := opsdesk.DefaultQueryCacheConfig()
	if config.QueryCache != nil {
		cacheConfig = *config.QueryCache
	}

	queryCache, err := opsdesk.NewQueryCache(cacheConfig, config.Logger)
	if err != nil {
		return nil, fmt.Errorf("creating query cache: %w", err)
	}

	return queryCache, nil
}

func newClient(
	config *opsdesk.Config,
	tokenProvider opsdesk.TokenProvider,
	httpOpts []http.Option,
	queryCache *opsdesk.QueryCache,
	metrics *opsdesk.MetricsCollector,
) *Client {
	logger := config.Logger
	if logger == nil {
		logger = opsdesk.NopLogger{}
	}

	httpClient := http.NewClient(config.APIEndpoint, tokenProvider, httpOpts...)
	ops := pipeline.New(httpClient, queryCache, logger)

	return &Client{
		httpClient:    httpClient,
		pipeline:      ops,
		tokenProvider: tokenProvider,
		logger:        logger,
		metrics:       metrics,
		facilities:    NewFacilitiesClient(ops),
		inventory:     NewInventoryClient(ops),
		attendance:    NewAttendanceClient(ops),
		hazards:       NewHazardsClient(ops),
		tickets:       NewTicketsClient(ops),
		session:       NewSessionClient(ops),
	}
}

// GetTokenProvider returns the token source of this client, nil when
// requests are sent unauthenticated.
func (c *Client) GetTokenProvider() opsdesk.TokenProvider {
	return c.tokenProvider
}

// Pipeline returns the operation pipeline the feature clients are built on.
func (c *Client) Pipeline() *pipeline.Pipeline {
	return c.pipeline
}

// QueryCache implements opsdesk.Client.QueryCache.
func (c *Client) QueryCache() *opsdesk.QueryCache {
	return c.pipeline.Cache()
}

// Metrics implements opsdesk.Client.Metrics.
func (c *Client) Metrics() *opsdesk.MetricsCollector {
	return c.metrics
}

// Feature client accessors

// Facilities implements opsdesk.Client.Facilities.
func (c *Client) Facilities() opsdesk.FacilitiesClient {
	return c.facilities
}

// Inventory implements opsdesk.Client.Inventory.
func (c *Client) Inventory() opsdesk.InventoryClient {
	return c.inventory
}

// Attendance implements opsdesk.Client.Attendance.
func (c *Client) Attendance() opsdesk.AttendanceClient {
	return c.attendance
}

// Hazards implements opsdesk.Client.Hazards.
func (c *Client) Hazards() opsdesk.HazardsClient {
	return c.hazards
}

// Tickets implements opsdesk.Client.Tickets.
func (c *Client) Tickets() opsdesk.TicketsClient {
	return c.tickets
}

// Session implements opsdesk.Client.Session.
func (c *Client) Session() opsdesk.SessionClient {
	return c.session
}

// byID is the route of every single-entity endpoint.
func byID(id string) opsdesk.Params {
	return opsdesk.Params{"id": id}
}

// invalidate drops every cached read of the given logical names after a
// successful mutation.
func invalidate(p *pipeline.Pipeline, names ...string) {
	p.Cache().InvalidateName(names...)
}
