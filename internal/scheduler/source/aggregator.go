package source

import (
	"context"
	"sync"

	"github.com/resopt/pkg/utils"
)

// Aggregator merges the job events of several sources into one channel
// and routes acknowledgments back to the source that emitted the event.
type Aggregator struct {
	sources    []JobSource
	sourceMap  map[string]JobSource // key: "type:name"
	outputChan chan *JobEvent
	logger     utils.Logger

	mu      sync.RWMutex
	running bool
	wg      sync.WaitGroup
	stopCh  chan struct{}
}

// NewAggregator creates an Aggregator over the given sources.
func NewAggregator(sources []JobSource, bufferSize int, logger utils.Logger) *Aggregator {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	if logger == nil {
		logger = utils.NewDefaultLogger(utils.LevelInfo, nil)
	}

	sourceMap := make(map[string]JobSource)
	for _, src := range sources {
		sourceMap[sourceKey(src.Type(), src.Name())] = src
	}

	return &Aggregator{
		sources:    sources,
		sourceMap:  sourceMap,
		outputChan: make(chan *JobEvent, bufferSize),
		logger:     logger,
		stopCh:     make(chan struct{}),
	}
}

func sourceKey(sourceType SourceType, name string) string {
	return string(sourceType) + ":" + name
}

// Start starts all sources and begins forwarding their events.
func (a *Aggregator) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return nil
	}
	a.running = true
	a.mu.Unlock()

	a.logger.Info("Starting aggregator with %d sources", len(a.sources))

	for _, src := range a.sources {
		if err := src.Start(ctx); err != nil {
			a.logger.Error("Failed to start source %s/%s: %v", src.Type(), src.Name(), err)
			a.Stop()
			return err
		}

		a.logger.Info("Started source: %s/%s", src.Type(), src.Name())

		a.wg.Add(1)
		go a.forward(ctx, src)
	}

	return nil
}

// forward forwards events from one source to the output channel.
func (a *Aggregator) forward(ctx context.Context, src JobSource) {
	defer a.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-a.stopCh:
			return
		case event, ok := <-src.Jobs():
			if !ok {
				a.logger.Info("Source %s/%s channel closed", src.Type(), src.Name())
				return
			}

			// Stamp the origin so Ack and Nack route back correctly.
			event.SourceType = src.Type()
			event.SourceName = src.Name()

			select {
			case a.outputChan <- event:
			case <-ctx.Done():
				return
			case <-a.stopCh:
				return
			}
		}
	}
}

// Stop stops all sources and the forwarders.
func (a *Aggregator) Stop() error {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return nil
	}
	a.running = false
	a.mu.Unlock()

	a.logger.Info("Stopping aggregator...")

	close(a.stopCh)

	for _, src := range a.sources {
		if err := src.Stop(); err != nil {
			a.logger.Error("Failed to stop source %s/%s: %v", src.Type(), src.Name(), err)
		}
	}

	a.wg.Wait()
	close(a.outputChan)

	a.logger.Info("Aggregator stopped")
	return nil
}

// Jobs returns the merged job event channel.
func (a *Aggregator) Jobs() <-chan *JobEvent {
	return a.outputChan
}

// GetSource retrieves a source by type and name.
func (a *Aggregator) GetSource(sourceType SourceType, name string) JobSource {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.sourceMap[sourceKey(sourceType, name)]
}

// Ack acknowledges an event with the source that produced it.
func (a *Aggregator) Ack(ctx context.Context, event *JobEvent) error {
	src := a.GetSource(event.SourceType, event.SourceName)
	if src == nil {
		return nil
	}
	return src.Ack(ctx, event)
}

// Nack rejects an event with the source that produced it.
func (a *Aggregator) Nack(ctx context.Context, event *JobEvent, reason string) error {
	src := a.GetSource(event.SourceType, event.SourceName)
	if src == nil {
		return nil
	}
	return src.Nack(ctx, event, reason)
}

// HealthCheck probes every source.
func (a *Aggregator) HealthCheck(ctx context.Context) error {
	for _, src := range a.sources {
		if err := src.HealthCheck(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Sources returns all registered sources.
func (a *Aggregator) Sources() []JobSource {
	return a.sources
}
