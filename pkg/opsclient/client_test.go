package opsclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/opsdesk/pkg/opsclient"
	"github.com/fivetwenty-io/opsdesk/pkg/opsdesk"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("creates client with config", func(t *testing.T) {
		t.Parallel()

		client, err := opsclient.New(context.Background(), &opsdesk.Config{APIEndpoint: "https://ops.example.com"})
		require.NoError(t, err)
		assert.NotNil(t, client)
	})

	t.Run("requires config", func(t *testing.T) {
		t.Parallel()

		_, err := opsclient.New(context.Background(), nil)
		require.ErrorIs(t, err, opsdesk.ErrConfigRequired)
	})

	t.Run("requires endpoint", func(t *testing.T) {
		t.Parallel()

		_, err := opsclient.New(context.Background(), &opsdesk.Config{})
		require.ErrorIs(t, err, opsdesk.ErrAPIEndpointRequired)
	})
}

func TestNormalizeEndpoint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "ops.example.com", want: "https://ops.example.com"},
		{in: "https://ops.example.com/api/", want: "https://ops.example.com/api"},
		{in: " http://localhost:3333 ", want: "http://localhost:3333"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, opsclient.NormalizeEndpoint(tt.in))
		})
	}
}

func TestNewWithEndpoint(t *testing.T) {
	t.Parallel()

	client, err := opsclient.NewWithEndpoint(context.Background(), "https://ops.example.com")
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestNewWithToken(t *testing.T) {
	t.Parallel()

	client, err := opsclient.NewWithToken(context.Background(), "https://ops.example.com", "test-token")
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func newSignInServer(t *testing.T) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/auth/login":
			var req opsdesk.LoginRequest
			_ = json.NewDecoder(r.Body).Decode(&req)

			if req.Password != "secret" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"success":false,"message":"Invalid credentials"}`))

				return
			}

			_, _ = w.Write([]byte(`{"success":true,"message":"ok","data":{"token":"tok","user":{"id":"u1","email":"ada@example.com"}}}`))
		case "/auth/me":
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

			_, _ = w.Write([]byte(`{"success":true,"message":"ok","data":{"id":"u1","name":"Ada","email":"ada@example.com"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)

	return server
}

func TestNewWithPassword(t *testing.T) {
	t.Parallel()

	server := newSignInServer(t)

	client, err := opsclient.NewWithPassword(context.Background(), server.URL, "ada@example.com", "secret")
	require.NoError(t, err)

	profile, err := client.Session().Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ada", profile.Name)

	_, err = opsclient.NewWithPassword(context.Background(), server.URL, "ada@example.com", "wrong")
	require.Error(t, err)
	assert.True(t, opsdesk.IsUnauthorized(err))
}
