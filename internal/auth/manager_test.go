package auth_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/opsdesk/internal/auth"
	"github.com/fivetwenty-io/opsdesk/internal/constants"
)

var errLoginRejected = errors.New("invalid credentials")

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	return signed
}

func TestExpiryFromJWT(t *testing.T) {
	t.Parallel()

	exp := time.Now().Add(2 * time.Hour).Truncate(time.Second)

	t.Run("reads exp claim", func(t *testing.T) {
		t.Parallel()

		got, err := auth.ExpiryFromJWT(signedToken(t, jwt.MapClaims{"sub": "u-1", "exp": jwt.NewNumericDate(exp)}))
		require.NoError(t, err)
		assert.True(t, exp.Equal(got))
	})

	t.Run("missing exp claim", func(t *testing.T) {
		t.Parallel()

		_, err := auth.ExpiryFromJWT(signedToken(t, jwt.MapClaims{"sub": "u-1"}))
		require.ErrorIs(t, err, constants.ErrNoExpirationClaim)
	})

	t.Run("not a jwt", func(t *testing.T) {
		t.Parallel()

		_, err := auth.ExpiryFromJWT("opaque-token")
		require.ErrorIs(t, err, constants.ErrInvalidJWTFormat)
	})
}

func TestStaticTokenManager(t *testing.T) {
	t.Parallel()

	t.Run("opaque token never expires", func(t *testing.T) {
		t.Parallel()

		manager := auth.NewStaticTokenManager("opaque-token")

		token, err := manager.GetToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "opaque-token", token)
	})

	t.Run("expired jwt is rejected", func(t *testing.T) {
		t.Parallel()

		expired := signedToken(t, jwt.MapClaims{"exp": jwt.NewNumericDate(time.Now().Add(-time.Minute))})
		manager := auth.NewStaticTokenManager(expired)

		_, err := manager.GetToken(context.Background())
		require.ErrorIs(t, err, constants.ErrTokenExpired)
	})

	t.Run("empty token", func(t *testing.T) {
		t.Parallel()

		_, err := auth.NewStaticTokenManager("").GetToken(context.Background())
		require.ErrorIs(t, err, auth.ErrNoToken)
	})

	t.Run("refresh is not supported", func(t *testing.T) {
		t.Parallel()

		err := auth.NewStaticTokenManager("opaque-token").RefreshToken(context.Background())
		require.ErrorIs(t, err, auth.ErrRefreshNotSupported)
	})

	t.Run("set token replaces value", func(t *testing.T) {
		t.Parallel()

		manager := auth.NewStaticTokenManager("first")
		manager.SetToken("second", time.Now().Add(time.Hour))

		token, err := manager.GetToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "second", token)
	})
}

func TestLoginTokenManager(t *testing.T) {
	t.Parallel()

	t.Run("signs in once and reuses the token", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32

		manager := auth.NewLoginTokenManager(func(ctx context.Context) (*auth.Token, error) {
			calls.Add(1)

			return &auth.Token{AccessToken: "session-token", ExpiresAt: time.Now().Add(time.Hour)}, nil
		})

		for range 3 {
			token, err := manager.GetToken(context.Background())
			require.NoError(t, err)
			assert.Equal(t, "session-token", token)
		}

		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("expiry taken from jwt when not given", func(t *testing.T) {
		t.Parallel()

		exp := time.Now().Add(time.Hour).Truncate(time.Second)
		jwtToken := signedToken(t, jwt.MapClaims{"exp": jwt.NewNumericDate(exp)})

		manager := auth.NewLoginTokenManager(func(ctx context.Context) (*auth.Token, error) {
			return &auth.Token{AccessToken: jwtToken}, nil
		})

		require.NoError(t, manager.RefreshToken(context.Background()))
		assert.True(t, exp.Equal(manager.Current().ExpiresAt))
	})

	t.Run("login failure is returned", func(t *testing.T) {
		t.Parallel()

		manager := auth.NewLoginTokenManager(func(ctx context.Context) (*auth.Token, error) {
			return nil, errLoginRejected
		})

		_, err := manager.GetToken(context.Background())
		require.ErrorIs(t, err, errLoginRejected)
	})

	t.Run("missing login func", func(t *testing.T) {
		t.Parallel()

		err := auth.NewLoginTokenManager(nil).RefreshToken(context.Background())
		require.ErrorIs(t, err, auth.ErrLoginFuncRequired)
	})

	t.Run("expired token triggers new login", func(t *testing.T) {
		t.Parallel()

		manager := auth.NewLoginTokenManager(func(ctx context.Context) (*auth.Token, error) {
			return &auth.Token{AccessToken: "fresh", ExpiresAt: time.Now().Add(time.Hour)}, nil
		})
		manager.SetToken("stale", time.Now().Add(-time.Hour))

		token, err := manager.GetToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "fresh", token)
	})
}

type recordingPersister struct {
	mu     sync.Mutex
	tokens []string
	err    error
}

func (p *recordingPersister) UpdateAPIToken(apiName, token string, expiresAt time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.tokens = append(p.tokens, apiName+"="+token)

	return p.err
}

func (p *recordingPersister) saved() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]string(nil), p.tokens...)
}

func TestConfigTokenManager(t *testing.T) {
	t.Parallel()

	t.Run("persists new tokens only once", func(t *testing.T) {
		t.Parallel()

		persister := &recordingPersister{}
		manager := auth.NewConfigTokenManager(auth.NewStaticTokenManager("tok-1"), persister, "prod", nil)

		for range 3 {
			token, err := manager.GetToken(context.Background())
			require.NoError(t, err)
			assert.Equal(t, "tok-1", token)
		}

		assert.Equal(t, []string{"prod=tok-1"}, persister.saved())
	})

	t.Run("refresh persists the renewed token", func(t *testing.T) {
		t.Parallel()

		var n atomic.Int32

		inner := auth.NewLoginTokenManager(func(ctx context.Context) (*auth.Token, error) {
			if n.Add(1) == 1 {
				return &auth.Token{AccessToken: "first"}, nil
			}

			return &auth.Token{AccessToken: "second"}, nil
		})

		persister := &recordingPersister{}
		manager := auth.NewConfigTokenManager(inner, persister, "prod", nil)

		_, err := manager.GetToken(context.Background())
		require.NoError(t, err)
		require.NoError(t, manager.RefreshToken(context.Background()))

		assert.Equal(t, []string{"prod=first", "prod=second"}, persister.saved())
	})

	t.Run("set token does not persist", func(t *testing.T) {
		t.Parallel()

		persister := &recordingPersister{}
		manager := auth.NewConfigTokenManager(auth.NewStaticTokenManager("tok-1"), persister, "prod", nil)
		manager.SetToken("tok-2", time.Time{})

		token, err := manager.GetToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "tok-2", token)
		assert.Empty(t, persister.saved())
	})

	t.Run("persist failure does not fail the request", func(t *testing.T) {
		t.Parallel()

		persister := &recordingPersister{err: errLoginRejected}
		manager := auth.NewConfigTokenManager(auth.NewStaticTokenManager("tok-1"), persister, "prod", nil)

		token, err := manager.GetToken(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "tok-1", token)
	})
}
