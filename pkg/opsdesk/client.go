package opsdesk

import (
	"context"
	"time"
)

// FacilitiesClient manages facilities.
type FacilitiesClient interface {
	List(ctx context.Context, opts *ListOptions) (*Page[Facility], error)
	Get(ctx context.Context, id string) (*Facility, error)
	Create(ctx context.Context, req *FacilityRequest) (*Facility, error)
	Update(ctx context.Context, id string, req *FacilityRequest) (*Facility, error)
	Patch(ctx context.Context, id string, fields map[string]any) (*RawEnvelope, error)
	Delete(ctx context.Context, id string) error
}

// InventoryClient manages inventory items and stock levels.
type InventoryClient interface {
	List(ctx context.Context, opts *ListOptions) (*Page[InventoryItem], error)
	Get(ctx context.Context, id string) (*InventoryItem, error)
	Create(ctx context.Context, req *InventoryItemRequest) (*InventoryItem, error)
	Update(ctx context.Context, id string, req *InventoryItemRequest) (*InventoryItem, error)
	AdjustStock(ctx context.Context, id string, adjustment *StockAdjustment) (*RawEnvelope, error)
	Delete(ctx context.Context, id string) error
}

// AttendanceClient records employee attendance.
type AttendanceClient interface {
	List(ctx context.Context, opts *ListOptions) (*Page[AttendanceRecord], error)
	ListForEmployee(ctx context.Context, employeeID string, opts *ListOptions) (*Page[AttendanceRecord], error)
	Get(ctx context.Context, id string) (*AttendanceRecord, error)
	ClockIn(ctx context.Context, req *ClockInRequest) (*AttendanceRecord, error)
	ClockOut(ctx context.Context, id string, req *ClockOutRequest) (*RawEnvelope, error)
}

// HazardsClient manages hazard observations.
type HazardsClient interface {
	List(ctx context.Context, opts *ListOptions) (*Page[HazardObservation], error)
	Get(ctx context.Context, id string) (*HazardObservation, error)
	Report(ctx context.Context, req *HazardReportRequest) (*HazardObservation, error)
	UpdateStatus(ctx context.Context, id string, update *HazardStatusUpdate) (*RawEnvelope, error)
	Delete(ctx context.Context, id string) error
}

// TicketsClient manages IT tickets and their comments.
type TicketsClient interface {
	List(ctx context.Context, opts *ListOptions) (*Page[Ticket], error)
	Get(ctx context.Context, id string) (*Ticket, error)
	Create(ctx context.Context, req *TicketRequest) (*Ticket, error)
	Update(ctx context.Context, id string, req *TicketRequest) (*Ticket, error)
	Assign(ctx context.Context, id, assigneeID string) (*RawEnvelope, error)
	SetStatus(ctx context.Context, id, status string) (*RawEnvelope, error)
	Comments(ctx context.Context, id string, opts *ListOptions) (*Page[TicketComment], error)
	AddComment(ctx context.Context, id string, req *TicketCommentRequest) (*TicketComment, error)
	Delete(ctx context.Context, id string) error
}

// SessionClient authenticates and reports the signed-in user.
type SessionClient interface {
	Login(ctx context.Context, req *LoginRequest) (*Session, error)
	Me(ctx context.Context) (*Profile, error)
}

// ResourceClients provides access to all feature clients.
type ResourceClients interface {
	Facilities() FacilitiesClient
	Inventory() InventoryClient
	Attendance() AttendanceClient
	Hazards() HazardsClient
	Tickets() TicketsClient
	Session() SessionClient
}

// Client is the opsdesk API client.
type Client interface {
	ResourceClients

	// QueryCache exposes the read cache for targeted invalidation.
	QueryCache() *QueryCache

	// Metrics returns per-endpoint call metrics.
	Metrics() *MetricsCollector
}

// TokenProvider supplies the bearer token attached to requests. An empty
// token sends the request unauthenticated.
type TokenProvider interface {
	GetToken(ctx context.Context) (string, error)
}

// Config represents client configuration for building an opsdesk.Client.
//
// # Authentication precedence
//
//  1. TokenProvider: if set, it is asked for a token before every request.
//  2. AccessToken: used directly as a static Bearer token.
//  3. Username/Password: opsclient.New signs in through /auth/login once and
//     uses the returned token.
//  4. No credentials: requests are sent without authentication.
//
// # Caching
//
// Decoded reads are kept in a QueryCache sized by QueryCache. Raw GET bodies
// can additionally be kept in a response cache (ResponseCache) and
// revalidated with ETags.
type Config struct {
	// APIEndpoint: base URL of the backend (e.g., "https://ops.example.com/api").
	APIEndpoint string

	AccessToken   string
	Username      string
	Password      string
	TokenProvider TokenProvider

	// HTTPTimeout bounds each HTTP attempt. Zero uses the default.
	HTTPTimeout time.Duration
	// RetryMax: retries for transient failures (>=500, 429, connection errors). Zero disables retries.
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration

	// Debug: enables verbose HTTP request/response logging when a Logger is provided.
	Debug bool
	// Logger: optional structured logger used by the HTTP layer and the pipeline.
	Logger Logger
	// UserAgent: overrides the default User-Agent header sent by the client.
	UserAgent string

	// QueryCache sizes the decoded read cache. If nil, DefaultQueryCacheConfig() is used.
	QueryCache *QueryCacheConfig
	// ResponseCache enables ETag revalidation of GET responses. If nil, it is disabled.
	ResponseCache *CacheConfig
	// Interceptors run around every HTTP exchange.
	Interceptors *InterceptorChain
}
