package pprof

import (
	"context"
	"runtime"
	"sync"
	"time"
)

// FileMode snapshots the configured profiles on a timer.
type FileMode struct {
	config    *FileConfig
	collector *Collector

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// onSnapshot, when set, observes every snapshot attempt.
	onSnapshot func(pt ProfileType, path string, err error)
}

// NewFileMode creates a timer-driven mode.
func NewFileMode(config *FileConfig) *FileMode {
	if config == nil {
		config = DefaultConfig().File
	}
	return &FileMode{config: config}
}

func (m *FileMode) Name() string { return "file" }

// SetSnapshotCallback registers an observer for snapshot events.
func (m *FileMode) SetSnapshotCallback(fn func(pt ProfileType, path string, err error)) {
	m.onSnapshot = fn
}

func (m *FileMode) Start(ctx context.Context, collector *Collector) error {
	m.collector = collector
	m.ctx, m.cancel = context.WithCancel(ctx)

	cfg := collector.Config()
	if cfg.HasProfile(ProfileBlock) {
		runtime.SetBlockProfileRate(1)
	}
	if cfg.HasProfile(ProfileMutex) {
		runtime.SetMutexProfileFraction(1)
	}

	m.wg.Add(1)
	go m.loop()
	return nil
}

func (m *FileMode) Stop() error {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()

	// One last round of the cheap profiles so exit state is captured.
	m.snapshotAll(true)

	runtime.SetBlockProfileRate(0)
	runtime.SetMutexProfileFraction(0)
	return nil
}

func (m *FileMode) loop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.config.Interval)
	defer ticker.Stop()

	m.snapshotAll(false)
	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.snapshotAll(false)
		}
	}
}

// snapshotAll collects every configured profile once. In the final
// round the CPU profile is skipped since its sampling window is gone.
func (m *FileMode) snapshotAll(final bool) {
	for _, pt := range m.collector.Config().Profiles {
		if !final {
			select {
			case <-m.ctx.Done():
				return
			default:
			}
		}

		var data []byte
		var err error
		if pt == ProfileCPU {
			if final {
				continue
			}
			data, err = m.collector.SnapshotCPU(m.ctx, m.config.CPUDuration)
		} else {
			data, err = m.collector.Snapshot(pt)
		}
		if err != nil {
			m.notify(pt, "", err)
			continue
		}

		path, err := m.collector.WriteSnapshot(pt, data)
		m.notify(pt, path, err)
	}
}

func (m *FileMode) notify(pt ProfileType, path string, err error) {
	if m.onSnapshot != nil {
		m.onSnapshot(pt, path, err)
	}
}
