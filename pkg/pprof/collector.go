package pprof

import (
	"bytes"
	"context"
	"fmt"
	"runtime"
	"runtime/pprof"
	"sync"
	"time"
)

// Collector drives profile collection through the configured mode.
type Collector struct {
	config *Config
	mode   Mode
	writer *Writer

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	status Status

	// Serializes CPU profiling; the runtime allows only one at a time.
	cpuMu sync.Mutex
}

// Status is a snapshot of collector state.
type Status struct {
	Running      bool                      `json:"running"`
	Mode         ModeType                  `json:"mode"`
	StartTime    time.Time                 `json:"start_time"`
	Snapshots    map[ProfileType]int64     `json:"snapshots"`
	LastSnapshot map[ProfileType]time.Time `json:"last_snapshot"`
	LastError    string                    `json:"last_error,omitempty"`
}

// Mode is a collection strategy.
type Mode interface {
	Name() string
	Start(ctx context.Context, collector *Collector) error
	Stop() error
}

// NewCollector creates a collector for the given configuration.
func NewCollector(cfg *Config) (*Collector, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	fileCfg := cfg.File
	if fileCfg == nil {
		fileCfg = DefaultConfig().File
	}

	c := &Collector{
		config: cfg,
		writer: NewWriter(cfg.OutputDir, fileCfg.MaxFiles),
		status: Status{
			Snapshots:    make(map[ProfileType]int64),
			LastSnapshot: make(map[ProfileType]time.Time),
		},
	}

	switch cfg.Mode {
	case ModeFile:
		c.mode = NewFileMode(cfg.File)
	case ModeHTTP:
		c.mode = NewHTTPMode(cfg.HTTP)
	default:
		return nil, fmt.Errorf("unknown mode: %s", cfg.Mode)
	}
	return c, nil
}

// Start begins collection.
func (c *Collector) Start() error {
	c.mu.Lock()
	if c.status.Running {
		c.mu.Unlock()
		return fmt.Errorf("collector is already running")
	}
	if err := c.writer.EnsureDir(c.config.Profiles); err != nil {
		c.mu.Unlock()
		return fmt.Errorf("create output directory: %w", err)
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.status.Running = true
	c.status.Mode = c.config.Mode
	c.status.StartTime = time.Now()
	c.mu.Unlock()

	if err := c.mode.Start(c.ctx, c); err != nil {
		c.mu.Lock()
		c.status.Running = false
		c.mu.Unlock()
		return fmt.Errorf("start %s mode: %w", c.mode.Name(), err)
	}
	return nil
}

// Stop ends collection and waits for in-flight snapshots.
func (c *Collector) Stop() error {
	c.mu.Lock()
	if !c.status.Running {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}
	if err := c.mode.Stop(); err != nil {
		c.noteError(fmt.Errorf("stop %s mode: %w", c.mode.Name(), err))
	}

	c.mu.Lock()
	c.status.Running = false
	c.mu.Unlock()
	return nil
}

// Status returns a copy of the current state.
func (c *Collector) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := c.status
	out.Snapshots = make(map[ProfileType]int64, len(c.status.Snapshots))
	out.LastSnapshot = make(map[ProfileType]time.Time, len(c.status.LastSnapshot))
	for k, v := range c.status.Snapshots {
		out.Snapshots[k] = v
	}
	for k, v := range c.status.LastSnapshot {
		out.LastSnapshot[k] = v
	}
	return out
}

// lookupNames maps non-CPU profiles to their runtime/pprof names.
var lookupNames = map[ProfileType]string{
	ProfileHeap:      "heap",
	ProfileGoroutine: "goroutine",
	ProfileBlock:     "block",
	ProfileMutex:     "mutex",
	ProfileAllocs:    "allocs",
}

// Snapshot collects one non-CPU profile.
func (c *Collector) Snapshot(pt ProfileType) ([]byte, error) {
	if pt == ProfileCPU {
		return nil, fmt.Errorf("use SnapshotCPU for CPU profiles")
	}
	name, ok := lookupNames[pt]
	if !ok {
		return nil, fmt.Errorf("unknown profile type: %s", pt)
	}
	if pt == ProfileHeap {
		// A GC right before the snapshot keeps live-heap numbers honest.
		runtime.GC()
	}

	p := pprof.Lookup(name)
	if p == nil {
		return nil, fmt.Errorf("%s profile not found", name)
	}
	var buf bytes.Buffer
	if err := p.WriteTo(&buf, 0); err != nil {
		return nil, fmt.Errorf("write %s profile: %w", name, err)
	}
	return buf.Bytes(), nil
}

// SnapshotCPU samples the CPU profile for the given duration.
func (c *Collector) SnapshotCPU(ctx context.Context, duration time.Duration) ([]byte, error) {
	c.cpuMu.Lock()
	defer c.cpuMu.Unlock()

	var buf bytes.Buffer
	if err := pprof.StartCPUProfile(&buf); err != nil {
		return nil, fmt.Errorf("start CPU profile: %w", err)
	}

	select {
	case <-time.After(duration):
	case <-ctx.Done():
		pprof.StopCPUProfile()
		return nil, ctx.Err()
	}
	pprof.StopCPUProfile()
	return buf.Bytes(), nil
}

// WriteSnapshot persists a collected profile and updates the counters.
func (c *Collector) WriteSnapshot(pt ProfileType, data []byte) (string, error) {
	path, err := c.writer.Write(pt, data)
	if err != nil {
		c.noteError(fmt.Errorf("write %s: %w", pt, err))
		return "", err
	}

	c.mu.Lock()
	c.status.Snapshots[pt]++
	c.status.LastSnapshot[pt] = time.Now()
	c.mu.Unlock()
	return path, nil
}

// Config returns the collector configuration.
func (c *Collector) Config() *Config {
	return c.config
}

// Context returns the collector's lifetime context.
func (c *Collector) Context() context.Context {
	return c.ctx
}

func (c *Collector) noteError(err error) {
	c.mu.Lock()
	c.status.LastError = err.Error()
	c.mu.Unlock()
}
