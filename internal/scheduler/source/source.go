// Package source provides job source strategies for the scheduler.
// Each concrete source (database polling, HTTP submission) implements
// the JobSource interface and registers itself with the package
// registry so instances can be built from configuration alone.
package source

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// SourceType identifies a job source strategy.
type SourceType string

// JobSource is the strategy interface every job source implements.
type JobSource interface {
	// Type returns the strategy constant of this source.
	Type() SourceType

	// Name returns the instance name, distinguishing multiple
	// instances of the same type.
	Name() string

	// Start starts the source.
	Start(ctx context.Context) error

	// Stop stops the source gracefully.
	Stop() error

	// Jobs returns the channel this source emits job events on.
	Jobs() <-chan *JobEvent

	// Ack records that a job finished successfully.
	Ack(ctx context.Context, event *JobEvent) error

	// Nack records that a job failed and why.
	Nack(ctx context.Context, event *JobEvent, reason string) error

	// HealthCheck probes the source's backing system.
	HealthCheck(ctx context.Context) error
}

// SourceConfig holds the configuration for one job source instance.
type SourceConfig struct {
	// Type selects the strategy (database, http).
	Type SourceType `yaml:"type" mapstructure:"type"`

	// Name is the unique name of this instance.
	Name string `yaml:"name" mapstructure:"name"`

	// Enabled toggles this source without removing its config.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// Options holds strategy-specific settings.
	Options map[string]interface{} `yaml:"options" mapstructure:"options"`
}

// GetString retrieves a string option with a default value.
func (c *SourceConfig) GetString(key, defaultValue string) string {
	if c.Options == nil {
		return defaultValue
	}
	if v, ok := c.Options[key].(string); ok {
		return v
	}
	return defaultValue
}

// GetInt retrieves an int option with a default value.
func (c *SourceConfig) GetInt(key string, defaultValue int) int {
	if c.Options == nil {
		return defaultValue
	}
	switch v := c.Options[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return defaultValue
}

// GetDuration retrieves a duration option with a default value.
// Accepts a duration string (e.g. "2s") or a number of seconds.
func (c *SourceConfig) GetDuration(key string, defaultValue time.Duration) time.Duration {
	if c.Options == nil {
		return defaultValue
	}
	switch v := c.Options[key].(type) {
	case string:
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	case int:
		return time.Duration(v) * time.Second
	case int64:
		return time.Duration(v) * time.Second
	case float64:
		return time.Duration(v) * time.Second
	}
	return defaultValue
}

// SourceCreator builds a JobSource from its configuration.
type SourceCreator func(cfg *SourceConfig) (JobSource, error)

var (
	registry   = make(map[SourceType]SourceCreator)
	registryMu sync.RWMutex
)

// Register registers a source creator for a source type. Called from
// the init function of each strategy implementation.
func Register(sourceType SourceType, creator SourceCreator) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[sourceType] = creator
}

// RegisteredTypes returns all registered source types.
func RegisteredTypes() []SourceType {
	registryMu.RLock()
	defer registryMu.RUnlock()
	types := make([]SourceType, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	return types
}

// CreateSource builds a JobSource from the given configuration.
func CreateSource(cfg *SourceConfig) (JobSource, error) {
	registryMu.RLock()
	creator, exists := registry[cfg.Type]
	registryMu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("unknown source type: %s (registered types: %v)", cfg.Type, RegisteredTypes())
	}

	return creator(cfg)
}

// CreateSources builds all enabled sources from their configurations.
func CreateSources(configs []*SourceConfig) ([]JobSource, error) {
	var sources []JobSource

	for _, cfg := range configs {
		if !cfg.Enabled {
			continue
		}

		src, err := CreateSource(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create source %q: %w", cfg.Name, err)
		}

		sources = append(sources, src)
	}

	return sources, nil
}
