package pprof

import (
	"fmt"
	"strings"
	"time"
)

// ModeType selects how profiles are collected.
type ModeType string

const (
	// ModeFile snapshots profiles on a timer and writes files.
	ModeFile ModeType = "file"
	// ModeHTTP serves pprof endpoints for on-demand collection.
	ModeHTTP ModeType = "http"
)

// ProfileType names a runtime profile.
type ProfileType string

const (
	ProfileCPU       ProfileType = "cpu"
	ProfileHeap      ProfileType = "heap"
	ProfileGoroutine ProfileType = "goroutine"
	ProfileBlock     ProfileType = "block"
	ProfileMutex     ProfileType = "mutex"
	ProfileAllocs    ProfileType = "allocs"
)

// AllProfileTypes lists every supported profile.
func AllProfileTypes() []ProfileType {
	return []ProfileType{ProfileCPU, ProfileHeap, ProfileGoroutine, ProfileBlock, ProfileMutex, ProfileAllocs}
}

// DefaultProfileTypes lists the profiles collected when none are named.
func DefaultProfileTypes() []ProfileType {
	return []ProfileType{ProfileCPU, ProfileHeap, ProfileGoroutine}
}

// ParseProfileTypes parses a comma-separated profile list. An empty
// string yields the defaults.
func ParseProfileTypes(s string) ([]ProfileType, error) {
	if s == "" {
		return DefaultProfileTypes(), nil
	}

	valid := make(map[ProfileType]bool)
	for _, pt := range AllProfileTypes() {
		valid[pt] = true
	}

	parts := strings.Split(s, ",")
	types := make([]ProfileType, 0, len(parts))
	for _, p := range parts {
		pt := ProfileType(strings.TrimSpace(strings.ToLower(p)))
		if !valid[pt] {
			return nil, fmt.Errorf("unknown profile type: %q", p)
		}
		types = append(types, pt)
	}
	return types, nil
}

// Config holds the collector configuration.
type Config struct {
	Enabled bool `mapstructure:"enabled"`

	// Mode is "file" or "http".
	Mode ModeType `mapstructure:"mode"`

	// Profiles lists the profile types to collect.
	Profiles []ProfileType `mapstructure:"profiles"`

	// OutputDir receives profile files.
	OutputDir string `mapstructure:"output_dir"`

	File *FileConfig `mapstructure:"file"`
	HTTP *HTTPConfig `mapstructure:"http"`
}

// FileConfig configures timer-driven collection.
type FileConfig struct {
	// Interval is the time between snapshots.
	Interval time.Duration `mapstructure:"interval"`

	// CPUDuration is how long each CPU sample runs. Must be shorter
	// than Interval.
	CPUDuration time.Duration `mapstructure:"cpu_duration"`

	// MaxFiles bounds the files kept per profile type; older files
	// are removed. Zero disables rotation.
	MaxFiles int `mapstructure:"max_files"`
}

// HTTPConfig configures the pprof endpoint server.
type HTTPConfig struct {
	// Addr is the listen address.
	Addr string `mapstructure:"addr"`

	// Path is the URL prefix for the endpoints.
	Path string `mapstructure:"path"`

	// Token, when set, is required as a bearer token or ?token= query
	// parameter on every request.
	Token string `mapstructure:"token"`

	// SaveToFile also writes served profiles to OutputDir.
	SaveToFile bool `mapstructure:"save_to_file"`

	// DefaultSeconds is the CPU profile duration when the request
	// does not specify one.
	DefaultSeconds int `mapstructure:"default_seconds"`
}

// DefaultConfig returns a disabled file-mode configuration.
func DefaultConfig() *Config {
	return &Config{
		Enabled:   false,
		Mode:      ModeFile,
		Profiles:  DefaultProfileTypes(),
		OutputDir: "./pprof",
		File: &FileConfig{
			Interval:    30 * time.Second,
			CPUDuration: 10 * time.Second,
			MaxFiles:    10,
		},
		HTTP: &HTTPConfig{
			Addr:           ":6060",
			Path:           "/debug/pprof",
			DefaultSeconds: 30,
		},
	}
}

// Validate checks an enabled configuration for consistency.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Mode != ModeFile && c.Mode != ModeHTTP {
		return fmt.Errorf("invalid pprof mode: %q (valid: file, http)", c.Mode)
	}
	if len(c.Profiles) == 0 {
		return fmt.Errorf("at least one profile type must be specified")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output directory is required")
	}
	if c.Mode == ModeFile && c.File != nil {
		if c.File.Interval < time.Second {
			return fmt.Errorf("interval must be at least 1 second")
		}
		if c.File.CPUDuration < time.Second {
			return fmt.Errorf("CPU duration must be at least 1 second")
		}
		if c.File.CPUDuration >= c.File.Interval {
			return fmt.Errorf("CPU duration must be less than interval")
		}
	}
	if c.Mode == ModeHTTP && c.HTTP != nil && c.HTTP.Addr == "" {
		return fmt.Errorf("HTTP address is required")
	}
	return nil
}

// HasProfile reports whether pt is among the configured profiles.
func (c *Config) HasProfile(pt ProfileType) bool {
	for _, p := range c.Profiles {
		if p == pt {
			return true
		}
	}
	return false
}
