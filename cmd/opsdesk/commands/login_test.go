package commands

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/opsdesk/internal/constants"
	"github.com/fivetwenty-io/opsdesk/pkg/opsdesk"
)

var testProfile = opsdesk.Profile{ID: "u1", Name: "Ada Lovelace", Email: "ada@example.com", Role: "admin"}

// handleLogin answers sign-ins for ada@example.com/secret with token.
func (b *fakeBackend) handleLogin(t *testing.T, token string) {
	t.Helper()

	b.handle("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req opsdesk.LoginRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		if req.Email != "ada@example.com" || req.Password != "secret" {
			respond(w, http.StatusUnauthorized, nil)

			return
		}

		respond(w, http.StatusOK, opsdesk.Session{Token: token, User: testProfile})
	})
}

func (b *fakeBackend) handleMe(t *testing.T, token string) {
	t.Helper()

	b.handle("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(constants.HeaderAuthorization) != "Bearer "+token {
			respond(w, http.StatusUnauthorized, nil)

			return
		}

		respond(w, http.StatusOK, testProfile)
	})
}

func TestLogin_StoresSession(t *testing.T) {
	useTempConfig(t)

	backend := newFakeBackend(t)
	backend.handleLogin(t, "session-token")
	viper.Set("api", backend.server.URL)

	out, err := execute(t, NewLoginCommand(), "--name", "hq", "--email", "ada@example.com", "--password", "secret")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in to "+backend.server.URL+" as Ada Lovelace <ada@example.com>")
	assert.Contains(t, out, "API 'hq' is the current target")

	config, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "hq", config.CurrentAPI)
	require.Contains(t, config.APIs, "hq")
	assert.Equal(t, "session-token", config.APIs["hq"].Token)
	assert.Equal(t, "ada@example.com", config.APIs["hq"].Username)
	assert.NotNil(t, config.APIs["hq"].LastRefreshed)
}

func TestLogin_WrongPassword(t *testing.T) {
	useTempConfig(t)

	backend := newFakeBackend(t)
	backend.handleLogin(t, "session-token")
	viper.Set("api", backend.server.URL)

	_, err := execute(t, NewLoginCommand(), "--email", "ada@example.com", "--password", "wrong")
	require.Error(t, err)
	assert.True(t, opsdesk.IsUnauthorized(err))

	config, err := loadConfig()
	require.NoError(t, err)
	assert.Empty(t, config.APIs, "a failed sign-in stores nothing")
}

func TestLogin_InvalidEmailSendsNothing(t *testing.T) {
	useTempConfig(t)

	backend := newFakeBackend(t)
	backend.handleLogin(t, "session-token")
	viper.Set("api", backend.server.URL)

	_, err := execute(t, NewLoginCommand(), "--email", "not-an-email", "--password", "secret")
	require.Error(t, err)
	assert.Equal(t, []string{"email"}, fieldPaths(err))
	assert.Zero(t, backend.count("POST /auth/login"))
}

func TestLogoutAndWhoAmI(t *testing.T) {
	useTempConfig(t)

	backend := newFakeBackend(t)
	backend.signIn(t, "tok")
	backend.handleMe(t, "tok")

	out, err := execute(t, NewWhoAmICommand())
	require.NoError(t, err)
	assert.Contains(t, out, "Ada Lovelace")
	assert.Contains(t, out, "admin")

	out, err = execute(t, NewLogoutCommand())
	require.NoError(t, err)
	assert.Contains(t, out, "Signed out of test")

	config, err := loadConfig()
	require.NoError(t, err)
	assert.Empty(t, config.APIs["test"].Token)
	assert.Equal(t, "ada@example.com", config.APIs["test"].Username, "the username is kept for the next sign-in")

	_, err = execute(t, NewWhoAmICommand())
	require.ErrorIs(t, err, constants.ErrNotAuthenticated)
}

func TestCreateClient_TokenFlagOverridesStoredToken(t *testing.T) {
	useTempConfig(t)

	backend := newFakeBackend(t)
	backend.signIn(t, "stored")
	backend.handleMe(t, "override")
	viper.Set("token", "override")

	c, err := CreateClient(context.Background())
	require.NoError(t, err)

	profile, err := c.Session().Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1", profile.ID)
}

func TestCreateClient_ExpiredToken(t *testing.T) {
	useTempConfig(t)

	backend := newFakeBackend(t)
	backend.handleMe(t, "old")

	expired := time.Now().Add(-time.Hour)
	require.NoError(t, saveConfigStruct(&Config{
		CurrentAPI: "test",
		APIs: map[string]*APIConfig{
			"test": {Endpoint: backend.server.URL, Token: "old", TokenExpiresAt: &expired, Username: "ada@example.com"},
		},
	}))

	c, err := CreateClient(context.Background())
	require.NoError(t, err)

	_, err = c.Session().Me(context.Background())
	require.ErrorIs(t, err, constants.ErrTokenExpired)
	assert.Zero(t, backend.count("GET /auth/me"), "an expired token is never sent")
}

func TestCreateClient_RenewsAndPersistsToken(t *testing.T) {
	useTempConfig(t)

	backend := newFakeBackend(t)
	backend.handleLogin(t, "fresh")
	backend.handleMe(t, "fresh")

	expired := time.Now().Add(-time.Hour)
	require.NoError(t, saveConfigStruct(&Config{
		CurrentAPI: "test",
		APIs: map[string]*APIConfig{
			"test": {Endpoint: backend.server.URL, Token: "old", TokenExpiresAt: &expired, Username: "ada@example.com"},
		},
	}))
	viper.Set("password", "secret")

	c, err := CreateClient(context.Background())
	require.NoError(t, err)

	profile, err := c.Session().Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", profile.Email)
	assert.Equal(t, 1, backend.count("POST /auth/login"))

	config, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "fresh", config.APIs["test"].Token)
	assert.Nil(t, config.APIs["test"].TokenExpiresAt, "an opaque token has no known expiry")
}

func TestCreateClient_NoAPIs(t *testing.T) {
	useTempConfig(t)

	_, err := CreateClient(context.Background())
	require.ErrorIs(t, err, constants.ErrNoAPIsConfigured)
}

func TestVersionCommand(t *testing.T) {
	useTempConfig(t)
	viper.Set("output", constants.FormatJSON)

	out, err := execute(t, NewVersionCommand("1.2.3", "abc123", "2024-05-06"))
	require.NoError(t, err)
	assert.Contains(t, out, "1.2.3")
	assert.Contains(t, out, "abc123")
	assert.Contains(t, out, `"go": "go`)
}
