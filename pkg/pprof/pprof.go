// Package pprof collects runtime profiles of the remapper itself.
//
// Two modes are supported. File mode snapshots profiles on a timer and
// writes them under an output directory, which suits one-shot CLI runs
// over large programs. HTTP mode serves the standard pprof endpoints
// for the long-running daemon.
//
// CLI usage (file mode):
//
//	cfg := pprof.DefaultConfig()
//	cfg.Enabled = true
//	cfg.OutputDir = "./pprof"
//	if err := pprof.StartGlobal(cfg); err != nil {
//	    return err
//	}
//	defer pprof.StopGlobal()
//
// Daemon usage (http mode):
//
//	cfg := pprof.DefaultConfig()
//	cfg.Enabled = true
//	cfg.Mode = pprof.ModeHTTP
//	pprof.StartGlobal(cfg)
//	// profiles at http://localhost:6060/debug/pprof/
package pprof

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

var globalCollector *Collector

// StartGlobal starts the process-wide collector and installs signal
// handling so profiles are flushed on SIGINT or SIGTERM. A nil or
// disabled config is a no-op.
func StartGlobal(cfg *Config) error {
	if cfg == nil || !cfg.Enabled {
		return nil
	}

	collector, err := NewCollector(cfg)
	if err != nil {
		return err
	}
	if err := collector.Start(); err != nil {
		return err
	}
	globalCollector = collector

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		StopGlobal()
	}()

	return nil
}

// StopGlobal stops the process-wide collector.
func StopGlobal() error {
	if globalCollector == nil {
		return nil
	}
	err := globalCollector.Stop()
	globalCollector = nil
	return err
}

// GetGlobal returns the process-wide collector, nil when not started.
func GetGlobal() *Collector {
	return globalCollector
}

// RunWithProfiling runs fn under a collector started for its duration.
// With a nil or disabled config fn runs unprofiled.
func RunWithProfiling(cfg *Config, fn func(ctx context.Context) error) error {
	if cfg == nil || !cfg.Enabled {
		return fn(context.Background())
	}

	collector, err := NewCollector(cfg)
	if err != nil {
		return err
	}
	if err := collector.Start(); err != nil {
		return err
	}
	defer collector.Stop()

	return fn(collector.Context())
}
