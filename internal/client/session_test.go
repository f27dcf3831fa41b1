package client

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/opsdesk/pkg/opsdesk"
)

func TestSessionClient_Login(t *testing.T) {
	t.Parallel()

	expires := fixedTime.Add(time.Hour)

	backend := newFakeBackend(t)
	backend.handle("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req opsdesk.LoginRequest
		decodeJSON(t, r, &req)

		if req.Password != "correct horse" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"success":false,"message":"Invalid credentials"}`))

			return
		}

		respond(w, http.StatusOK, opsdesk.Session{
			Token:     "tok-1",
			ExpiresAt: &expires,
			User:      opsdesk.Profile{ID: "u1", Name: "Ada", Email: req.Email},
		})
	})

	ctx := context.Background()
	session := backend.client(t).Session()

	result, err := session.Login(ctx, &opsdesk.LoginRequest{Email: "ada@example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, "tok-1", result.Token)
	assert.Equal(t, "ada@example.com", result.User.Email)
	assert.True(t, expires.Equal(*result.ExpiresAt))

	_, err = session.Login(ctx, &opsdesk.LoginRequest{Email: "ada@example.com", Password: "wrong"})
	require.Error(t, err)
	assert.True(t, opsdesk.IsUnauthorized(err))
	assert.Contains(t, err.Error(), "Invalid credentials")

	_, err = session.Login(ctx, &opsdesk.LoginRequest{Email: "not-an-email", Password: "x"})
	require.Error(t, err)
	assert.Equal(t, "email", opsdesk.FieldErrors(err)[0].Path)
	assert.Equal(t, 2, backend.count("POST /auth/login"))
}

func TestSessionClient_Me(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		profile   map[string]string
		wantField string
	}{
		{name: "valid", profile: map[string]string{"id": "u1", "name": "Ada", "email": "ada@example.com"}},
		{name: "malformed email", profile: map[string]string{"id": "u1", "email": "ada"}, wantField: "email"},
		{name: "blank id", profile: map[string]string{"id": " ", "email": "ada@example.com"}, wantField: "id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			backend := newFakeBackend(t)
			backend.handle("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
				respond(w, http.StatusOK, tt.profile)
			})

			profile, err := backend.client(t).Session().Me(context.Background())
			if tt.wantField != "" {
				require.Error(t, err)
				assert.True(t, opsdesk.IsDecodeError(err))
				assert.False(t, opsdesk.IsValidationError(err), "a bad profile is the backend's fault")

				fields := opsdesk.FieldErrors(err)
				require.Len(t, fields, 1)
				assert.Equal(t, tt.wantField, fields[0].Path)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, "Ada", profile.Name)
		})
	}
}

func TestSessionClient_LoginInvalidatesProfile(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend(t)
	backend.handle("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusOK, opsdesk.Profile{ID: "u1", Email: "ada@example.com"})
	})
	backend.handle("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusOK, opsdesk.Session{Token: "tok", User: opsdesk.Profile{ID: "u1", Email: "ada@example.com"}})
	})

	ctx := context.Background()
	session := backend.client(t).Session()

	_, err := session.Me(ctx)
	require.NoError(t, err)
	_, err = session.Me(ctx)
	require.NoError(t, err)

	_, err = session.Login(ctx, &opsdesk.LoginRequest{Email: "ada@example.com", Password: "pw"})
	require.NoError(t, err)

	_, err = session.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, backend.count("GET /auth/me"))
}
