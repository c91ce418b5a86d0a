package parallel

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestPool_Run(t *testing.T) {
	pool := NewPool[int, int](DefaultConfig())

	inputs := []int{1, 2, 3, 4, 5}
	results := pool.RunFunc(context.Background(), inputs, func(ctx context.Context, input int) (int, error) {
		return input * 2, nil
	})

	if len(results) != len(inputs) {
		t.Fatalf("expected %d results, got %d", len(inputs), len(results))
	}
	for i, r := range results {
		if r.Err != nil {
			t.Errorf("unexpected error for input %d: %v", inputs[i], r.Err)
		}
		if r.Input != inputs[i] {
			t.Errorf("result %d out of order: input %d", i, r.Input)
		}
		if r.Value != inputs[i]*2 {
			t.Errorf("expected %d, got %d", inputs[i]*2, r.Value)
		}
	}
}

func TestPool_Timeout(t *testing.T) {
	pool := NewPool[int, int](DefaultConfig().WithTimeout(30 * time.Millisecond))

	inputs := make([]int, 50)
	for i := range inputs {
		inputs[i] = i
	}

	results := pool.RunFunc(context.Background(), inputs, func(ctx context.Context, input int) (int, error) {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(20 * time.Millisecond):
			return input, nil
		}
	})

	cancelled := 0
	for _, r := range results {
		if r.Err != nil {
			cancelled++
		}
	}
	if cancelled == 0 {
		t.Error("expected at least one task to be cancelled by the timeout")
	}
	if len(results) != len(inputs) {
		t.Errorf("expected %d results even after timeout, got %d", len(inputs), len(results))
	}
}

func TestPool_Stats(t *testing.T) {
	pool := NewPool[int, int](DefaultConfig().WithStats())

	boom := errors.New("boom")
	results := pool.RunFunc(context.Background(), []int{1, 2, 3, 4, 5}, func(ctx context.Context, input int) (int, error) {
		if input == 3 {
			return 0, boom
		}
		return input, nil
	})
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}

	stats := pool.Stats()
	if stats.Submitted != 5 {
		t.Errorf("expected 5 submitted, got %d", stats.Submitted)
	}
	if stats.Succeeded != 4 {
		t.Errorf("expected 4 succeeded, got %d", stats.Succeeded)
	}
	if stats.Failed != 1 {
		t.Errorf("expected 1 failed, got %d", stats.Failed)
	}
	if stats.WallTime <= 0 {
		t.Error("expected positive wall time")
	}
}

func TestChunkReduce(t *testing.T) {
	items := make([]int, 1000)
	for i := range items {
		items[i] = i
	}

	sum := ChunkReduce(context.Background(), items, DefaultConfig().WithWorkers(4),
		func(ctx context.Context, chunk []int) int {
			s := 0
			for _, v := range chunk {
				s += v
			}
			return s
		},
		func(parts []int) int {
			total := 0
			for _, p := range parts {
				total += p
			}
			return total
		})

	expected := 999 * 1000 / 2
	if sum != expected {
		t.Errorf("expected %d, got %d", expected, sum)
	}
}

func TestChunkReduce_Empty(t *testing.T) {
	got := ChunkReduce(context.Background(), nil, DefaultConfig(),
		func(ctx context.Context, chunk []int) int { return 1 },
		func(parts []int) int { return 1 })
	if got != 0 {
		t.Errorf("expected zero value for empty input, got %d", got)
	}
}

func TestMapReduce(t *testing.T) {
	result := MapReduce(context.Background(), []int{1, 2, 3, 4, 5}, DefaultConfig(),
		func(ctx context.Context, item int) int { return item * item },
		func(mapped []int) int {
			sum := 0
			for _, v := range mapped {
				sum += v
			}
			return sum
		})

	if result != 55 {
		t.Errorf("expected 55, got %d", result)
	}
}

func TestForEach(t *testing.T) {
	var sum atomic.Int64

	processed, err := ForEach(context.Background(), []int{1, 2, 3, 4, 5}, DefaultConfig(),
		func(ctx context.Context, item int) error {
			sum.Add(int64(item))
			return nil
		})

	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if processed != 5 {
		t.Errorf("expected 5 processed, got %d", processed)
	}
	if sum.Load() != 15 {
		t.Errorf("expected sum 15, got %d", sum.Load())
	}
}

func TestForEach_Error(t *testing.T) {
	boom := errors.New("boom")

	processed, err := ForEach(context.Background(), []int{1, 2, 3}, DefaultConfig().WithWorkers(1),
		func(ctx context.Context, item int) error {
			if item == 2 {
				return boom
			}
			return nil
		})

	if !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
	if processed != 2 {
		t.Errorf("expected 2 processed, got %d", processed)
	}
}

func TestAggregate(t *testing.T) {
	type item struct {
		key   string
		value int
	}

	items := []item{
		{"A", 1},
		{"B", 2},
		{"A", 3},
		{"B", 4},
		{"A", 5},
	}

	result := Aggregate(context.Background(), items, DefaultConfig(),
		func(it item) (string, int) { return it.key, it.value },
		func(a, b int) int { return a + b })

	if result["A"] != 9 {
		t.Errorf("expected A=9, got %d", result["A"])
	}
	if result["B"] != 6 {
		t.Errorf("expected B=6, got %d", result["B"])
	}
}

func TestAggregate_Empty(t *testing.T) {
	result := Aggregate(context.Background(), nil, DefaultConfig(),
		func(v int) (int, int) { return v, v },
		func(a, b int) int { return a + b })
	if result == nil {
		t.Fatal("expected non-nil map for empty input")
	}
	if len(result) != 0 {
		t.Errorf("expected empty map, got %d entries", len(result))
	}
}

func TestProgress(t *testing.T) {
	var lastDone, lastTotal atomic.Int64

	progress := NewProgress(100, func(done, total int64) {
		lastDone.Store(done)
		lastTotal.Store(total)
	}, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	progress.Start(ctx)

	for i := 0; i < 50; i++ {
		progress.Increment()
	}
	progress.Add(10)
	progress.Stop()

	if got := lastDone.Load(); got != 60 {
		t.Errorf("expected final report with 60 done, got %d", got)
	}
	if got := lastTotal.Load(); got != 100 {
		t.Errorf("expected total 100, got %d", got)
	}
	if progress.Done() != 60 {
		t.Errorf("expected Done()=60, got %d", progress.Done())
	}

	// A second Stop must be a no-op.
	progress.Stop()
}

func BenchmarkPool(b *testing.B) {
	pool := NewPool[int, int](DefaultConfig())
	inputs := make([]int, 1000)
	for i := range inputs {
		inputs[i] = i
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		pool.RunFunc(context.Background(), inputs, func(ctx context.Context, input int) (int, error) {
			return input * 2, nil
		})
	}
}
