package client

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/opsdesk/internal/auth"
	"github.com/fivetwenty-io/opsdesk/pkg/opsdesk"
)

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("requires config", func(t *testing.T) {
		t.Parallel()

		_, err := New(context.Background(), nil)
		require.ErrorIs(t, err, opsdesk.ErrConfigRequired)
	})

	t.Run("requires API endpoint", func(t *testing.T) {
		t.Parallel()

		_, err := New(context.Background(), &opsdesk.Config{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "API endpoint is required")
	})

	t.Run("creates client with access token", func(t *testing.T) {
		t.Parallel()

		client, err := New(context.Background(), &opsdesk.Config{
			APIEndpoint: "https://ops.example.com/api",
			AccessToken: "test-token",
		})
		require.NoError(t, err)
		assert.IsType(t, &auth.StaticTokenManager{}, client.GetTokenProvider())
	})

	t.Run("creates client with username/password", func(t *testing.T) {
		t.Parallel()

		client, err := New(context.Background(), &opsdesk.Config{
			APIEndpoint: "https://ops.example.com/api",
			Username:    "ada@example.com",
			Password:    "secret",
		})
		require.NoError(t, err)
		assert.IsType(t, &auth.LoginTokenManager{}, client.GetTokenProvider())
	})

	t.Run("creates unauthenticated client", func(t *testing.T) {
		t.Parallel()

		client, err := New(context.Background(), &opsdesk.Config{APIEndpoint: "https://ops.example.com/api"})
		require.NoError(t, err)
		assert.Nil(t, client.GetTokenProvider())
	})

	t.Run("rejects invalid query cache config", func(t *testing.T) {
		t.Parallel()

		_, err := New(context.Background(), &opsdesk.Config{
			APIEndpoint: "https://ops.example.com/api",
			QueryCache:  &opsdesk.QueryCacheConfig{},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "query cache")
	})

	t.Run("rejects NATS cache without connection settings", func(t *testing.T) {
		t.Parallel()

		_, err := New(context.Background(), &opsdesk.Config{
			APIEndpoint:   "https://ops.example.com/api",
			ResponseCache: &opsdesk.CacheConfig{Type: opsdesk.CacheTypeNATS},
		})
		require.ErrorIs(t, err, opsdesk.ErrNATSConfigRequired)
	})
}

func TestNewWithTokenManager(t *testing.T) {
	t.Parallel()

	_, err := NewWithTokenManager(&opsdesk.Config{APIEndpoint: "https://ops.example.com"}, nil)
	require.ErrorIs(t, err, ErrNoTokenManagerConfigured)

	manager := auth.NewStaticTokenManager("tok")

	client, err := NewWithTokenManager(&opsdesk.Config{APIEndpoint: "https://ops.example.com"}, manager)
	require.NoError(t, err)
	assert.Same(t, manager, client.GetTokenProvider())
}

func TestClient_StaticTokenIsSent(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend(t)
	backend.handle("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer static-token", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-Id"))

		respond(w, http.StatusOK, opsdesk.Profile{ID: "u1", Email: "ada@example.com"})
	})

	client := backend.clientWith(t, &opsdesk.Config{AccessToken: "static-token"})

	_, err := client.Session().Me(context.Background())
	require.NoError(t, err)
}

func TestClient_PasswordLogin(t *testing.T) {
	t.Parallel()

	var tokens atomic.Int32

	backend := newFakeBackend(t)
	backend.handle("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"), "sign-in must not carry a token")

		var req opsdesk.LoginRequest
		decodeJSON(t, r, &req)
		assert.Equal(t, "ada@example.com", req.Email)

		token := "tok-1"
		if tokens.Add(1) > 1 {
			token = "tok-2"
		}

		respond(w, http.StatusOK, opsdesk.Session{Token: token, User: opsdesk.Profile{ID: "u1", Email: req.Email}})
	})
	backend.handle("GET /tickets/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-2" {
			respond(w, http.StatusUnauthorized, nil)

			return
		}

		respond(w, http.StatusOK, testTicket(r.PathValue("id")))
	})

	client := backend.clientWith(t, &opsdesk.Config{Username: "ada@example.com", Password: "secret"})

	ticket, err := client.Tickets().Get(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "t1", ticket.ID)

	assert.Equal(t, 2, backend.count("POST /auth/login"), "a rejected token is refreshed once")
	assert.Equal(t, 2, backend.count("GET /tickets/{id}"))
}

func TestClient_InterceptorsAndMetrics(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend(t)
	backend.handle("GET /facilities", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "north", r.Header.Get("X-Region"))

		respondPage(w, []opsdesk.Facility{}, 0)
	})
	backend.handle("GET /facilities/{id}", func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusNotFound, nil)
	})

	var seen atomic.Int32

	chain := opsdesk.NewInterceptorChain()
	chain.AddRequestInterceptor(opsdesk.HeaderInterceptor(map[string]string{"X-Region": "north"}))
	chain.AddResponseInterceptor(func(ctx context.Context, req *opsdesk.Request, resp *opsdesk.Response) error {
		seen.Add(1)

		return nil
	})

	client := backend.clientWith(t, &opsdesk.Config{Interceptors: chain})

	_, err := client.Facilities().List(context.Background(), nil)
	require.NoError(t, err)

	_, err = client.Facilities().Get(context.Background(), "nope")
	require.Error(t, err)

	assert.Equal(t, int32(2), seen.Load())

	endpoints := client.Metrics().Endpoints()
	assert.Len(t, endpoints, 2)

	var failures int64

	for _, endpoint := range endpoints {
		metrics, ok := client.Metrics().GetMetrics(endpoint)
		require.True(t, ok)
		assert.Equal(t, int64(1), metrics.TotalRequests)

		failures += metrics.TotalErrors
	}

	assert.Equal(t, int64(1), failures)
}

func TestClient_ResponseCacheRevalidates(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend(t)
	backend.handle("GET /facilities/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", `"v1"`)

		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)

			return
		}

		respond(w, http.StatusOK, testFacility(r.PathValue("id"), "Depot"))
	})

	client := backend.clientWith(t, &opsdesk.Config{ResponseCache: opsdesk.DefaultCacheConfig()})
	facilities := client.Facilities()

	first, err := facilities.Get(context.Background(), "f1")
	require.NoError(t, err)

	client.QueryCache().InvalidateName(NameFacilities)

	second, err := facilities.Get(context.Background(), "f1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 2, backend.count("GET /facilities/{id}"))
}

func TestClient_ResourceAccessors(t *testing.T) {
	t.Parallel()

	client, err := New(context.Background(), &opsdesk.Config{APIEndpoint: "https://ops.example.com"})
	require.NoError(t, err)

	var _ opsdesk.Client = client

	assert.NotNil(t, client.Facilities())
	assert.NotNil(t, client.Inventory())
	assert.NotNil(t, client.Attendance())
	assert.NotNil(t, client.Hazards())
	assert.NotNil(t, client.Tickets())
	assert.NotNil(t, client.Session())
	assert.NotNil(t, client.QueryCache())
	assert.NotNil(t, client.Metrics())
	assert.Same(t, client.Pipeline().Cache(), client.QueryCache())
}
