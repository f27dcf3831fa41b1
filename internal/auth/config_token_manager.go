package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fivetwenty-io/opsdesk/pkg/opsdesk"
)

// Static errors for err113 compliance.
var (
	ErrNoConfigPersister = errors.New("no config persister configured")
)

// ConfigPersister defines the interface for persisting config changes.
type ConfigPersister interface {
	UpdateAPIToken(apiName, token string, expiresAt time.Time) error
}

// ConfigTokenManager wraps another TokenManager and writes every renewed token
// back to the configuration file.
type ConfigTokenManager struct {
	inner           TokenManager
	configPersister ConfigPersister
	apiName         string
	logger          opsdesk.Logger
	mutex           sync.Mutex
	lastToken       string
}

// NewConfigTokenManager creates a new config-persisting token manager.
func NewConfigTokenManager(inner TokenManager, configPersister ConfigPersister, apiName string, logger opsdesk.Logger) *ConfigTokenManager {
	if logger == nil {
		logger = opsdesk.NopLogger{}
	}

	return &ConfigTokenManager{
		inner:           inner,
		configPersister: configPersister,
		apiName:         apiName,
		logger:          logger,
	}
}

// GetToken returns a valid access token and persists it when it changed.
func (m *ConfigTokenManager) GetToken(ctx context.Context) (string, error) {
	token, err := m.inner.GetToken(ctx)
	if err != nil {
		return "", err
	}

	m.mutex.Lock()
	changed := token != m.lastToken
	m.lastToken = token
	m.mutex.Unlock()

	if changed {
		m.persist(token)
	}

	return token, nil
}

// RefreshToken forces a token refresh and persists the result.
func (m *ConfigTokenManager) RefreshToken(ctx context.Context) error {
	err := m.inner.RefreshToken(ctx)
	if err != nil {
		return err
	}

	token, err := m.inner.GetToken(ctx)
	if err != nil {
		return err
	}

	m.mutex.Lock()
	m.lastToken = token
	m.mutex.Unlock()

	m.persist(token)

	return nil
}

// SetToken manually sets the access token without persisting it.
func (m *ConfigTokenManager) SetToken(token string, expiresAt time.Time) {
	m.inner.SetToken(token, expiresAt)

	m.mutex.Lock()
	m.lastToken = token
	m.mutex.Unlock()
}

func (m *ConfigTokenManager) persist(token string) {
	err := m.persistToken(token)
	if err != nil {
		m.logger.Warn("Failed to persist refreshed token", map[string]interface{}{
			"api":   m.apiName,
			"error": err,
		})
	}
}

// persistToken saves the token to config.
func (m *ConfigTokenManager) persistToken(token string) error {
	if m.configPersister == nil {
		return ErrNoConfigPersister
	}

	expiresAt, _ := ExpiryFromJWT(token)

	err := m.configPersister.UpdateAPIToken(m.apiName, token, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to update API token: %w", err)
	}

	return nil
}
