// Package config provides configuration management for the resopt
// service and CLI.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Remap     RemapConfig     `mapstructure:"remap"`
	Resources ResourcesConfig `mapstructure:"resources"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Sources   []SourceConfig  `mapstructure:"sources"`
	Log       LogConfig       `mapstructure:"log"`
}

// SourceConfig declares one job source instance for the scheduler.
// With no sources configured the service falls back to a single
// database source driven by the scheduler poll settings.
type SourceConfig struct {
	Type    string                 `mapstructure:"type"` // database or http
	Name    string                 `mapstructure:"name"`
	Enabled bool                   `mapstructure:"enabled"`
	Options map[string]interface{} `mapstructure:"options"`
}

// RemapConfig holds engine-level configuration.
type RemapConfig struct {
	Version    string `mapstructure:"version"`
	DataDir    string `mapstructure:"data_dir"`
	MaxWorkers int    `mapstructure:"max_workers"`
}

// ResourcesConfig describes how resource holder classes are
// recognized and which role their arrays get.
type ResourcesConfig struct {
	// CustomizedHolders lists app-specific R classes (JVM descriptors)
	// that do not match the default R / R$<type> naming.
	CustomizedHolders []string `mapstructure:"customized_holders"`

	// RoleOverrides forces a role for specific class descriptors.
	// Valid role names: sequential, positional, skip.
	RoleOverrides map[string]string `mapstructure:"role_overrides"`
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	Type     string `mapstructure:"type"`   // postgres or mysql
	Driver   string `mapstructure:"driver"` // gorm (default) or sql
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	MaxConns int    `mapstructure:"max_conns"`
}

// StorageConfig holds artifact storage configuration.
type StorageConfig struct {
	Type      string `mapstructure:"type"` // cos or local
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	SecretID  string `mapstructure:"secret_id"`
	SecretKey string `mapstructure:"secret_key"`
	Domain    string `mapstructure:"domain"`
	Scheme    string `mapstructure:"scheme"`
	LocalPath string `mapstructure:"local_path"`
}

// SchedulerConfig holds job scheduler configuration.
type SchedulerConfig struct {
	PollInterval  int `mapstructure:"poll_interval"` // seconds
	WorkerCount   int `mapstructure:"worker_count"`
	PrioritySlots int `mapstructure:"priority_slots"`
	JobBatchSize  int `mapstructure:"job_batch_size"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load reads configuration from configPath, or from the standard
// locations when the path is empty. A missing file is not an error;
// defaults apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/resopt")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// No file anywhere on the search path; defaults apply.
		} else if os.IsNotExist(err) {
			// Explicit path that does not exist; defaults apply.
		} else {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("RESOPT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadFromReader loads configuration from bytes, for tests.
func LoadFromReader(configType string, content []byte) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("remap.version", "1.0.0")
	v.SetDefault("remap.data_dir", "./data")
	v.SetDefault("remap.max_workers", 4)

	v.SetDefault("database.type", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.max_conns", 10)

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_path", "./storage")

	v.SetDefault("scheduler.poll_interval", 2)
	v.SetDefault("scheduler.worker_count", 4)
	v.SetDefault("scheduler.priority_slots", 1)
	v.SetDefault("scheduler.job_batch_size", 10)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.output_path", "./logs")
	v.SetDefault("log.format", "text")
}

// Validate checks the parts every deployment needs. Role override
// names are validated by the holder filter, storage settings by the
// storage factory.
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.Type != "postgres" && c.Database.Type != "mysql" {
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}
	if c.Scheduler.WorkerCount < 1 {
		return fmt.Errorf("worker count must be at least 1")
	}
	if c.Remap.MaxWorkers < 1 {
		return fmt.Errorf("remap max_workers must be at least 1")
	}
	return nil
}

// EnsureDataDir creates the working data directory if needed.
func (c *Config) EnsureDataDir() error {
	if c.Remap.DataDir == "" {
		return nil
	}
	return os.MkdirAll(c.Remap.DataDir, 0755)
}

// GetJobDir returns the per-job working directory.
func (c *Config) GetJobDir(jobUUID string) string {
	return filepath.Join(c.Remap.DataDir, jobUUID)
}
