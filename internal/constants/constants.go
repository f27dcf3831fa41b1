package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// ShortHTTPTimeout is used for quick operations.
	ShortHTTPTimeout = 10 * time.Second
)

// Retry limits.
const (
	// DefaultRetryWaitMin is the minimum wait time between retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait time between retries.
	DefaultRetryWaitMax = 10 * time.Second

	// ExtendedRetryWaitMax is used for operations that need longer waits.
	ExtendedRetryWaitMax = 30 * time.Second
)

// Pagination defaults applied by paginated reads.
const (
	// DefaultPage is the page requested when the caller does not set one.
	DefaultPage = 1

	// DefaultLimit is the page size requested when the caller does not set one.
	DefaultLimit = 25

	// QueryParamPage is the query key carrying the page number.
	QueryParamPage = "page"

	// QueryParamLimit is the query key carrying the page size.
	QueryParamLimit = "limit"

	// QueryParamSort is the query key carrying the field:direction sort string.
	QueryParamSort = "sort"

	// QueryParamSearch is the query key carrying free-text search.
	QueryParamSearch = "search"
)

// Sort directions.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// Query cache defaults.
const (
	// DefaultQueryCacheCapacity is the maximum number of decoded reads kept.
	DefaultQueryCacheCapacity = 1000

	// DefaultQueryCacheShards is the number of shards of the query cache.
	DefaultQueryCacheShards = 16

	// DefaultQueryCacheTTL is how long a decoded read stays fresh.
	DefaultQueryCacheTTL = 30 * time.Second

	// DefaultEvictionPercentage is the share of entries evicted when full.
	DefaultEvictionPercentage = 10
)

// Response cache defaults.
const (
	// DefaultCacheSize is the default number of raw responses kept in memory.
	DefaultCacheSize = 500

	// DefaultResponseCacheTTL is how long a raw response is kept for revalidation.
	DefaultResponseCacheTTL = 10 * time.Minute

	// DefaultNATSBucket is the JetStream key-value bucket used for shared caching.
	DefaultNATSBucket = "opsdesk-responses"
)

// Token handling.
const (
	// TokenExpirationBuffer is the buffer time before token expiration.
	TokenExpirationBuffer = 30 * time.Second
)

// HTTP headers.
const (
	HeaderAccept        = "Accept"
	HeaderAuthorization = "Authorization"
	HeaderContentType   = "Content-Type"
	HeaderETag          = "ETag"
	HeaderIfNoneMatch   = "If-None-Match"
	HeaderRequestID     = "X-Request-Id"
	HeaderUserAgent     = "User-Agent"

	ContentTypeJSON = "application/json"

	// DefaultUserAgent is sent when the configuration does not override it.
	DefaultUserAgent = "opsdesk-go"
)

// Validation and limits.
const (
	// MinimumArgumentCount is the argument count of KEY VALUE commands.
	MinimumArgumentCount = 2

	// MaxErrorBodyLength caps how much of an unparsable error body is kept in messages.
	MaxErrorBodyLength = 512
)

// UI and display constants.
const (
	// CheckMarkSymbol is used to indicate current/active items.
	CheckMarkSymbol = "✓"

	// NotAvailable is used when information is not available.
	NotAvailable = "N/A"

	// MaskedSecret is used to hide sensitive information.
	MaskedSecret = "***"

	// DateLayout is the short date format used in tables.
	DateLayout = "2006-01-02"

	// DateTimeLayout is the long date format used in detail views.
	DateTimeLayout = "2006-01-02 15:04:05"
)

// Format constants.
const (
	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"

	// FormatTable for tabular output.
	FormatTable = "table"
)
