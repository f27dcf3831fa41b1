package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/fivetwenty-io/opsdesk/internal/constants"
	"github.com/fivetwenty-io/opsdesk/pkg/opsdesk"
)

// Client is the HTTP transport shared by every operation.
type Client struct {
	baseURL      string
	httpClient   *retryablehttp.Client
	tokens       opsdesk.TokenProvider
	logger       opsdesk.Logger
	debug        bool
	userAgent    string
	cache        opsdesk.Cache
	cacheOptions *opsdesk.CacheOptions
	interceptors *opsdesk.InterceptorChain
}

// Request describes one API call. Path may already carry a query string;
// Query entries are added to it.
type Request struct {
	Method    string
	Path      string
	Query     url.Values
	Body      interface{}
	Multipart bool
	Headers   map[string]string
}

// Response is a received reply with its body fully read.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte

	// FromCache is set when the body was served from the response cache after a 304.
	FromCache bool
}

// tokenRefresher is implemented by token providers that can renew a rejected token.
type tokenRefresher interface {
	RefreshToken(ctx context.Context) error
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger opsdesk.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithDebug logs every request and response.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// WithRetryConfig retries transient failures (connection errors, 5xx, 429)
// up to retryMax times with exponential backoff between waitMin and waitMax.
func WithRetryConfig(retryMax int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.httpClient.RetryMax = retryMax

		if waitMin > 0 {
			c.httpClient.RetryWaitMin = waitMin
		}

		if waitMax > 0 {
			c.httpClient.RetryWaitMax = waitMax
		}
	}
}

// WithHTTPTimeout bounds every attempt.
func WithHTTPTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.HTTPClient.Timeout = timeout
		}
	}
}

// WithResponseCache stores GET bodies that carry an ETag and revalidates them
// with If-None-Match.
func WithResponseCache(cache opsdesk.Cache, options *opsdesk.CacheOptions) Option {
	return func(c *Client) {
		c.cache = cache

		if options == nil {
			options = opsdesk.DefaultCacheOptions()
		}

		if options.Policy == nil {
			options.Policy = opsdesk.DefaultCachingPolicy()
		}

		c.cacheOptions = options
	}
}

// WithInterceptors runs chain around every exchange.
func WithInterceptors(chain *opsdesk.InterceptorChain) Option {
	return func(c *Client) {
		c.interceptors = chain
	}
}

// NewClient creates a transport for baseURL. tokens may be nil for
// unauthenticated use.
func NewClient(baseURL string, tokens opsdesk.TokenProvider, opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 0
	retryClient.RetryWaitMin = constants.DefaultRetryWaitMin
	retryClient.RetryWaitMax = constants.DefaultRetryWaitMax
	retryClient.HTTPClient.Timeout = constants.DefaultHTTPTimeout
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: retryClient,
		tokens:     tokens,
		logger:     opsdesk.NopLogger{},
		userAgent:  constants.DefaultUserAgent,
	}

	for _, opt := range opts {
		opt(client)
	}

	retryClient.Logger = &leveledLogger{logger: client.logger}

	return client
}

// BaseURL returns the API root requests are resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do performs req. A non-2xx reply returns the response together with an
// *opsdesk.ResponseError; a failure to get any reply wraps opsdesk.ErrTransport.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	resp, err := c.do(ctx, req)
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	refresher, ok := c.tokens.(tokenRefresher)
	if !ok {
		return resp, err
	}

	refreshErr := refresher.RefreshToken(ctx)
	if refreshErr != nil {
		c.logger.Debug("Token refresh failed", map[string]interface{}{"error": refreshErr})

		return resp, err
	}

	return c.do(ctx, req)
}

func (c *Client) do(ctx context.Context, req *Request) (*Response, error) {
	fullURL, err := c.resolveURL(req)
	if err != nil {
		return nil, err
	}

	body, contentType, err := encodeBody(req)
	if err != nil {
		return nil, err
	}

	headers := make(http.Header)
	headers.Set(constants.HeaderAccept, constants.ContentTypeJSON)
	headers.Set(constants.HeaderUserAgent, c.userAgent)

	if contentType != "" {
		headers.Set(constants.HeaderContentType, contentType)
	}

	if c.tokens != nil {
		token, tokenErr := c.tokens.GetToken(ctx)
		if tokenErr != nil {
			return nil, fmt.Errorf("failed to get token: %w", tokenErr)
		}

		if token != "" {
			headers.Set(constants.HeaderAuthorization, "Bearer "+token)
		}
	}

	for key, value := range req.Headers {
		headers.Set(key, value)
	}

	intercepted := &opsdesk.Request{
		Method:  req.Method,
		Path:    req.Path,
		Headers: headers,
		Body:    body,
	}

	if !c.interceptors.Empty() {
		err = c.interceptors.ExecuteRequestInterceptors(ctx, intercepted)
		if err != nil {
			return nil, err
		}
	}

	cacheKey := req.Method + ":" + fullURL

	cached := c.lookupCache(ctx, req.Method, cacheKey)
	if cached != nil && cached.ETag != "" {
		intercepted.Headers.Set(constants.HeaderIfNoneMatch, cached.ETag)
	}

	var rawBody interface{}
	if len(intercepted.Body) > 0 {
		rawBody = intercepted.Body
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, fullURL, rawBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header = intercepted.Headers

	if c.debug {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method":  req.Method,
			"url":     fullURL,
			"headers": redactHeaders(intercepted.Headers),
		})
	}

	start := time.Now()

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if httpResp != nil && httpResp.Body != nil {
			_ = httpResp.Body.Close()
		}

		transportErr := fmt.Errorf("%w: %s %s: %w", opsdesk.ErrTransport, req.Method, req.Path, err)
		c.runResponseInterceptors(ctx, intercepted, &opsdesk.Response{Error: transportErr})

		return nil, transportErr
	}

	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		transportErr := fmt.Errorf("%w: reading response body: %w", opsdesk.ErrTransport, err)
		c.runResponseInterceptors(ctx, intercepted, &opsdesk.Response{StatusCode: httpResp.StatusCode, Error: transportErr})

		return nil, transportErr
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       respBody,
	}

	if resp.StatusCode == http.StatusNotModified && cached != nil {
		resp.StatusCode = http.StatusOK
		resp.Body = cached.Data
		resp.FromCache = true
	} else {
		c.storeCache(ctx, req, cacheKey, resp)
	}

	if c.debug {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"status":     resp.StatusCode,
			"duration":   time.Since(start).String(),
			"size":       len(resp.Body),
			"from_cache": resp.FromCache,
		})
	}

	var respErr error
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		respErr = opsdesk.ParseResponseError(resp.StatusCode, resp.Body)
	}

	c.runResponseInterceptors(ctx, intercepted, &opsdesk.Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		Body:       resp.Body,
		Error:      respErr,
	})

	return resp, respErr
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Body: body})
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPut, Path: path, Body: body})
}

// Patch performs a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPatch, Path: path, Body: body})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodDelete, Path: path})
}

func (c *Client) resolveURL(req *Request) (string, error) {
	raw := req.Path
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		if !strings.HasPrefix(raw, "/") {
			raw = "/" + raw
		}

		raw = c.baseURL + raw
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parsing request URL %q: %w", raw, err)
	}

	if len(req.Query) > 0 {
		query := parsed.Query()

		for key, values := range req.Query {
			for _, value := range values {
				query.Add(key, value)
			}
		}

		parsed.RawQuery = query.Encode()
	}

	return parsed.String(), nil
}

func encodeBody(req *Request) ([]byte, string, error) {
	if req.Body == nil {
		return nil, "", nil
	}

	if req.Multipart {
		return EncodeMultipart(req.Body)
	}

	switch body := req.Body.(type) {
	case []byte:
		return body, constants.ContentTypeJSON, nil
	case json.RawMessage:
		return body, constants.ContentTypeJSON, nil
	case io.Reader:
		data, err := io.ReadAll(body)
		if err != nil {
			return nil, "", fmt.Errorf("reading request body: %w", err)
		}

		return data, constants.ContentTypeJSON, nil
	}

	data, err := json.Marshal(req.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	return data, constants.ContentTypeJSON, nil
}

func (c *Client) lookupCache(ctx context.Context, method, key string) *opsdesk.CacheEntry {
	if c.cache == nil || method != http.MethodGet {
		return nil
	}

	entry, err := c.cache.Get(ctx, key)
	if err != nil {
		return nil
	}

	return entry
}

func (c *Client) storeCache(ctx context.Context, req *Request, key string, resp *Response) {
	if c.cache == nil {
		return
	}

	etag := resp.Headers.Get(constants.HeaderETag)
	if etag == "" || !c.cacheOptions.Policy.ShouldCache(req.Method, req.Path, resp.StatusCode) {
		return
	}

	entry := &opsdesk.CacheEntry{
		Data:      bytes.Clone(resp.Body),
		ExpiresAt: time.Now().Add(c.cacheOptions.TTL),
		ETag:      etag,
	}

	err := c.cache.Set(ctx, key, entry)
	if err != nil {
		c.logger.Warn("Failed to store response in cache", map[string]interface{}{
			"key":   key,
			"error": err,
		})
	}
}

func (c *Client) runResponseInterceptors(ctx context.Context, req *opsdesk.Request, resp *opsdesk.Response) {
	if c.interceptors.Empty() {
		return
	}

	err := c.interceptors.ExecuteResponseInterceptors(ctx, req, resp)
	if err != nil {
		c.logger.Warn("Response interceptor failed", map[string]interface{}{"error": err})
	}
}

func redactHeaders(headers http.Header) map[string]interface{} {
	fields := make(map[string]interface{}, len(headers))
	for key := range headers {
		fields[key] = headers.Get(key)
	}

	return opsdesk.Redact(fields)
}

// IsTimeout reports whether err is a transport timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var timeoutErr interface{ Timeout() bool }

	return errors.As(err, &timeoutErr) && timeoutErr.Timeout()
}

// leveledLogger forwards retry warnings and failures; retryablehttp's
// per-attempt debug output is dropped in favor of the client's own request logs.
type leveledLogger struct {
	logger opsdesk.Logger
}

func (l *leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, keyValueFields(keysAndValues))
}

func (l *leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, keyValueFields(keysAndValues))
}

func (l *leveledLogger) Info(string, ...interface{}) {}

func (l *leveledLogger) Debug(string, ...interface{}) {}

func keyValueFields(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2)

	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}

	return fields
}
