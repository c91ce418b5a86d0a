// Package parallel provides a generic worker pool and fan-out helpers
// for processing independent work items concurrently.
package parallel

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// Config controls pool sizing and instrumentation.
type Config struct {
	// MaxWorkers is the number of concurrent workers.
	// Default: min(runtime.NumCPU(), 8)
	MaxWorkers int

	// Timeout bounds a whole Run call. Zero means no timeout.
	Timeout time.Duration

	// TrackStats enables per-task accounting.
	TrackStats bool
}

// DefaultConfig returns a configuration sized for the current machine.
func DefaultConfig() Config {
	workers := runtime.NumCPU()
	if workers > 8 {
		workers = 8
	}
	if workers < 2 {
		workers = 2
	}
	return Config{MaxWorkers: workers}
}

// WithWorkers returns a copy of the config with the worker count set.
func (c Config) WithWorkers(n int) Config {
	c.MaxWorkers = n
	return c
}

// WithTimeout returns a copy of the config with the run timeout set.
func (c Config) WithTimeout(d time.Duration) Config {
	c.Timeout = d
	return c
}

// WithStats returns a copy of the config with task accounting enabled.
func (c Config) WithStats() Config {
	c.TrackStats = true
	return c
}

// Stats accumulates task accounting across Run calls.
type Stats struct {
	Submitted int64
	Succeeded int64
	Failed    int64
	WallTime  time.Duration
	MaxTask   time.Duration
	MinTask   time.Duration
}

// Task is a unit of work executed by the pool.
type Task[T any, R any] interface {
	Run(ctx context.Context) (R, error)
	Input() T
}

// FuncTask adapts a function and its input to the Task interface.
type FuncTask[T any, R any] struct {
	input T
	fn    func(ctx context.Context, input T) (R, error)
}

// NewTask wraps fn and input as a Task.
func NewTask[T any, R any](input T, fn func(ctx context.Context, input T) (R, error)) *FuncTask[T, R] {
	return &FuncTask[T, R]{input: input, fn: fn}
}

func (t *FuncTask[T, R]) Run(ctx context.Context) (R, error) { return t.fn(ctx, t.input) }

func (t *FuncTask[T, R]) Input() T { return t.input }

// Result pairs a task's input with its outcome.
type Result[T any, R any] struct {
	Input   T
	Value   R
	Err     error
	Elapsed time.Duration
}

// Pool executes batches of tasks with bounded concurrency.
type Pool[T any, R any] struct {
	cfg   Config
	mu    sync.Mutex
	stats Stats
}

// NewPool creates a pool with the given configuration.
func NewPool[T any, R any](cfg Config) *Pool[T, R] {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = DefaultConfig().MaxWorkers
	}
	return &Pool[T, R]{cfg: cfg}
}

// Run executes all tasks and returns one Result per task, in input order.
// Tasks never started because the context ended carry the context error.
func (p *Pool[T, R]) Run(ctx context.Context, tasks []Task[T, R]) []Result[T, R] {
	if len(tasks) == 0 {
		return nil
	}
	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	started := time.Now()
	results := make([]Result[T, R], len(tasks))

	queue := make(chan int, len(tasks))
	for i := range tasks {
		queue <- i
	}
	close(queue)

	workers := min(p.cfg.MaxWorkers, len(tasks))
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for idx := range queue {
				task := tasks[idx]
				if err := ctx.Err(); err != nil {
					results[idx] = Result[T, R]{Input: task.Input(), Err: err}
					if p.cfg.TrackStats {
						p.record(0, err)
					}
					continue
				}
				t0 := time.Now()
				value, err := task.Run(ctx)
				elapsed := time.Since(t0)
				results[idx] = Result[T, R]{Input: task.Input(), Value: value, Err: err, Elapsed: elapsed}
				if p.cfg.TrackStats {
					p.record(elapsed, err)
				}
			}
		}()
	}
	wg.Wait()

	if p.cfg.TrackStats {
		p.mu.Lock()
		p.stats.WallTime += time.Since(started)
		p.mu.Unlock()
	}
	return results
}

// RunFunc executes fn over every input and returns the results in input order.
func (p *Pool[T, R]) RunFunc(ctx context.Context, inputs []T, fn func(ctx context.Context, input T) (R, error)) []Result[T, R] {
	tasks := make([]Task[T, R], len(inputs))
	for i, input := range inputs {
		tasks[i] = NewTask(input, fn)
	}
	return p.Run(ctx, tasks)
}

func (p *Pool[T, R]) record(elapsed time.Duration, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats.Submitted++
	if err != nil {
		p.stats.Failed++
	} else {
		p.stats.Succeeded++
	}
	if elapsed > p.stats.MaxTask {
		p.stats.MaxTask = elapsed
	}
	if p.stats.MinTask == 0 || elapsed < p.stats.MinTask {
		p.stats.MinTask = elapsed
	}
}

// Stats returns a snapshot of the accumulated accounting.
func (p *Pool[T, R]) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// ChunkReduce splits items into one chunk per worker, processes the chunks
// concurrently and reduces the per-chunk values into a single result.
func ChunkReduce[T any, R any](ctx context.Context, items []T, cfg Config, process func(ctx context.Context, chunk []T) R, reduce func(parts []R) R) R {
	if len(items) == 0 {
		var zero R
		return zero
	}
	workers := cfg.MaxWorkers
	if workers <= 0 {
		workers = DefaultConfig().MaxWorkers
	}
	if workers > len(items) {
		workers = len(items)
	}

	size := (len(items) + workers - 1) / workers
	var chunks [][]T
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunks = append(chunks, items[start:end])
	}

	parts := make([]R, len(chunks))
	var wg sync.WaitGroup
	wg.Add(len(chunks))
	for i, chunk := range chunks {
		go func(i int, chunk []T) {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			parts[i] = process(ctx, chunk)
		}(i, chunk)
	}
	wg.Wait()
	return reduce(parts)
}

// MapReduce maps every item concurrently and reduces the mapped values.
func MapReduce[T any, M any, R any](ctx context.Context, items []T, cfg Config, mapper func(ctx context.Context, item T) M, reducer func(mapped []M) R) R {
	if len(items) == 0 {
		var zero R
		return zero
	}
	pool := NewPool[T, M](cfg)
	results := pool.RunFunc(ctx, items, func(ctx context.Context, item T) (M, error) {
		return mapper(ctx, item), nil
	})
	mapped := make([]M, len(results))
	for i, r := range results {
		mapped[i] = r.Value
	}
	return reducer(mapped)
}

// ForEach runs fn over every item concurrently. It returns the number of
// items that succeeded and the first error observed, if any.
func ForEach[T any](ctx context.Context, items []T, cfg Config, fn func(ctx context.Context, item T) error) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}

	var done atomic.Int64
	var mu sync.Mutex
	var firstErr error

	pool := NewPool[T, struct{}](cfg)
	pool.RunFunc(ctx, items, func(ctx context.Context, item T) (struct{}, error) {
		if err := fn(ctx, item); err != nil {
			mu.Lock()
			if firstErr == nil {
				firstErr = err
			}
			mu.Unlock()
			return struct{}{}, err
		}
		done.Add(1)
		return struct{}{}, nil
	})
	return done.Load(), firstErr
}

// Aggregate builds a map from items concurrently. Each chunk aggregates into
// a worker-local map, then the local maps are merged, so no locking happens
// on the hot path. Values sharing a key are combined with merge.
func Aggregate[T any, K comparable, V any](ctx context.Context, items []T, cfg Config, extract func(item T) (K, V), merge func(a, b V) V) map[K]V {
	if len(items) == 0 {
		return make(map[K]V)
	}
	return ChunkReduce(ctx, items, cfg,
		func(ctx context.Context, chunk []T) map[K]V {
			local := make(map[K]V)
			for _, item := range chunk {
				if ctx.Err() != nil {
					return local
				}
				k, v := extract(item)
				if cur, ok := local[k]; ok {
					local[k] = merge(cur, v)
				} else {
					local[k] = v
				}
			}
			return local
		},
		func(parts []map[K]V) map[K]V {
			out := make(map[K]V)
			for _, part := range parts {
				for k, v := range part {
					if cur, ok := out[k]; ok {
						out[k] = merge(cur, v)
					} else {
						out[k] = v
					}
				}
			}
			return out
		})
}

// Progress reports completion counts at a fixed interval while a batch runs.
type Progress struct {
	total   int64
	done    atomic.Int64
	report  func(done, total int64)
	every   time.Duration
	stopCh  chan struct{}
	stopped atomic.Bool
}

// NewProgress creates a progress reporter. The report callback fires every
// interval and once more when Stop is called.
func NewProgress(total int64, report func(done, total int64), every time.Duration) *Progress {
	if every <= 0 {
		every = 500 * time.Millisecond
	}
	return &Progress{
		total:  total,
		report: report,
		every:  every,
		stopCh: make(chan struct{}),
	}
}

// Start launches the reporting loop. It ends when ctx is done or Stop is called.
func (p *Progress) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(p.every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-p.stopCh:
				return
			case <-ticker.C:
				if p.report != nil {
					p.report(p.done.Load(), p.total)
				}
			}
		}
	}()
}

// Increment adds one completed item.
func (p *Progress) Increment() {
	p.done.Add(1)
}

// Add adds n completed items.
func (p *Progress) Add(n int64) {
	p.done.Add(n)
}

// Done returns the completed count.
func (p *Progress) Done() int64 {
	return p.done.Load()
}

// Stop ends reporting and emits a final report.
func (p *Progress) Stop() {
	if p.stopped.CompareAndSwap(false, true) {
		close(p.stopCh)
		if p.report != nil {
			p.report(p.done.Load(), p.total)
		}
	}
}
