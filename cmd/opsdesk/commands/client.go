package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/fivetwenty-io/opsdesk/internal/auth"
	"github.com/fivetwenty-io/opsdesk/internal/client"
	"github.com/fivetwenty-io/opsdesk/internal/constants"
	"github.com/fivetwenty-io/opsdesk/pkg/opsclient"
	"github.com/fivetwenty-io/opsdesk/pkg/opsdesk"
)

const cliUserAgent = constants.DefaultUserAgent + "-cli"

// CreateClient builds a client for the API selected by --api or the current
// API. A --token flag overrides the stored token. With a stored username and
// OPSDESK_PASSWORD set, an expired token is renewed by signing in again and
// the new token is written back to the config file.
func CreateClient(ctx context.Context) (opsdesk.Client, error) {
	config, err := loadConfig()
	if err != nil {
		return nil, err
	}

	name, apiConfig, err := resolveAPI(config, viper.GetString("api"))
	if err != nil {
		return nil, err
	}

	logger, err := newCLILogger()
	if err != nil {
		return nil, err
	}

	clientConfig := &opsdesk.Config{
		APIEndpoint: apiConfig.Endpoint,
		Logger:      logger,
		Debug:       viper.GetBool("verbose"),
		UserAgent:   cliUserAgent,

		ResponseCache: responseCacheConfig(config),
	}

	if token := viper.GetString("token"); token != "" {
		clientConfig.AccessToken = token

		return opsclient.New(ctx, clientConfig)
	}

	tokenManager, err := createTokenManager(ctx, name, apiConfig, logger)
	if err != nil {
		return nil, err
	}

	c, err := client.NewWithTokenManager(clientConfig, tokenManager)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return c, nil
}

func createTokenManager(ctx context.Context, name string, apiConfig *APIConfig, logger opsdesk.Logger) (auth.TokenManager, error) {
	password := viper.GetString("password")

	if apiConfig.Username != "" && password != "" {
		anonymous, err := opsclient.NewWithEndpoint(ctx, apiConfig.Endpoint)
		if err != nil {
			return nil, fmt.Errorf("failed to create sign-in client: %w", err)
		}

		login := auth.NewLoginTokenManager(client.PasswordLogin(anonymous.Session(), apiConfig.Username, password))
		manager := auth.NewConfigTokenManager(login, NewConfigPersister(), name, logger)

		if apiConfig.Token != "" {
			manager.SetToken(apiConfig.Token, tokenExpiry(apiConfig))
		}

		return manager, nil
	}

	if apiConfig.Token == "" {
		return nil, constants.ErrNotAuthenticated
	}

	manager := auth.NewStaticTokenManager(apiConfig.Token)
	if apiConfig.TokenExpiresAt != nil {
		manager.SetToken(apiConfig.Token, *apiConfig.TokenExpiresAt)
	}

	return manager, nil
}

// responseCacheConfig turns the cache and nats_url settings into a response
// cache configuration. Without a cache setting responses are not cached.
func responseCacheConfig(config *Config) *opsdesk.CacheConfig {
	if config.Cache == "" {
		return nil
	}

	builder := opsdesk.NewCacheBuilder().WithType(opsdesk.CacheType(config.Cache))

	cacheType := opsdesk.CacheType(config.Cache)
	if cacheType == opsdesk.CacheTypeNATS || cacheType == opsdesk.CacheTypeTiered {
		builder.WithNATSServer(config.NATSURL, constants.DefaultNATSBucket)
	}

	return builder.Config()
}

func tokenExpiry(apiConfig *APIConfig) (expiresAt time.Time) {
	if apiConfig.TokenExpiresAt != nil {
		return *apiConfig.TokenExpiresAt
	}

	expiresAt, _ = auth.ExpiryFromJWT(apiConfig.Token)

	return expiresAt
}

// newCLILogger logs warnings by default and everything with --verbose.
func newCLILogger() (opsdesk.Logger, error) {
	level := "warn"
	if viper.GetBool("verbose") {
		level = "debug"
	}

	logger, err := opsdesk.NewLogger(level)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return opsdesk.NewZapLogger(logger), nil
}
