package commands

import (
	"fmt"
	"sync"
	"time"

	"github.com/fivetwenty-io/opsdesk/internal/constants"
)

// ConfigPersister implements the auth.ConfigPersister interface.
type ConfigPersister struct {
	mutex sync.Mutex
}

// NewConfigPersister creates a new config persister.
func NewConfigPersister() *ConfigPersister {
	return &ConfigPersister{}
}

// UpdateAPIToken stores a renewed token of the named API in the config file.
func (p *ConfigPersister) UpdateAPIToken(apiName, token string, expiresAt time.Time) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	config, err := loadConfig()
	if err != nil {
		return err
	}

	apiConfig, exists := config.APIs[apiName]
	if !exists {
		return fmt.Errorf("API configuration for '%s': %w", apiName, constants.ErrAPIConfigNotFound)
	}

	apiConfig.Token = token
	apiConfig.TokenExpiresAt = nil

	if !expiresAt.IsZero() {
		apiConfig.TokenExpiresAt = &expiresAt
	}

	now := time.Now()
	apiConfig.LastRefreshed = &now

	return saveConfigStruct(config)
}
