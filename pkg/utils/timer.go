package utils

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// TimerOutput is where a Timer writes its summaries.
type TimerOutput interface {
	// Output writes one line of timing information.
	Output(format string, args ...interface{})
}

// LoggerOutput adapts a Logger to TimerOutput.
type LoggerOutput struct {
	Logger Logger
}

// Output writes via Logger.Info.
func (o *LoggerOutput) Output(format string, args ...interface{}) {
	if o.Logger != nil {
		o.Logger.Info(format, args...)
	}
}

// Phase is one named timing span.
type Phase struct {
	Name      string
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
	completed bool
}

// PhaseTimer stops a running phase, typically via defer.
type PhaseTimer struct {
	timer *Timer
	name  string
}

// Stop ends the phase and records its duration. Safe to call more
// than once; only the first call takes effect.
func (pt *PhaseTimer) Stop() time.Duration {
	return pt.timer.StopPhase(pt.name)
}

// Timer records named phases of a run. A disabled timer is a no-op so
// callers never need to branch on whether timing is wanted.
type Timer struct {
	mu      sync.RWMutex
	name    string
	started time.Time
	phases  map[string]*Phase
	order   []string
	output  TimerOutput
	enabled bool
	clock   Clock
}

// TimerOption configures a Timer.
type TimerOption func(*Timer)

// WithOutput sets the summary output.
func WithOutput(output TimerOutput) TimerOption {
	return func(t *Timer) { t.output = output }
}

// WithLogger routes summaries through a Logger.
func WithLogger(logger Logger) TimerOption {
	return func(t *Timer) {
		if logger != nil {
			t.output = &LoggerOutput{Logger: logger}
		}
	}
}

// WithEnabled turns the timer into a no-op when false.
func WithEnabled(enabled bool) TimerOption {
	return func(t *Timer) { t.enabled = enabled }
}

// WithClock substitutes the clock, for tests.
func WithClock(clock Clock) TimerOption {
	return func(t *Timer) { t.clock = clock }
}

// NewTimer creates a Timer named name.
func NewTimer(name string, opts ...TimerOption) *Timer {
	t := &Timer{
		name:    name,
		phases:  make(map[string]*Phase),
		enabled: true,
		clock:   NewRealClock(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.started = t.clock.Now()
	return t
}

// Start begins a phase and returns its PhaseTimer.
func (t *Timer) Start(name string) *PhaseTimer {
	if !t.enabled {
		return &PhaseTimer{timer: t, name: name}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.phases[name]; !exists {
		t.order = append(t.order, name)
	}
	t.phases[name] = &Phase{Name: name, StartTime: t.clock.Now()}

	return &PhaseTimer{timer: t, name: name}
}

// StopPhase ends a phase and returns its duration.
func (t *Timer) StopPhase(name string) time.Duration {
	if !t.enabled {
		return 0
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	phase, ok := t.phases[name]
	if !ok {
		return 0
	}
	if phase.completed {
		return phase.Duration
	}

	phase.EndTime = t.clock.Now()
	phase.Duration = phase.EndTime.Sub(phase.StartTime)
	phase.completed = true
	return phase.Duration
}

// GetDuration returns the recorded duration of a phase.
func (t *Timer) GetDuration(name string) time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if phase, ok := t.phases[name]; ok {
		return phase.Duration
	}
	return 0
}

// TotalDuration returns the time since the timer was created.
func (t *Timer) TotalDuration() time.Duration {
	return t.clock.Since(t.started)
}

// GetPhases returns copies of all phases in start order.
func (t *Timer) GetPhases() []*Phase {
	t.mu.RLock()
	defer t.mu.RUnlock()

	phases := make([]*Phase, 0, len(t.order))
	for _, name := range t.order {
		if phase, ok := t.phases[name]; ok {
			cp := *phase
			phases = append(phases, &cp)
		}
	}
	return phases
}

// Summary renders all phases as a multi-line string.
func (t *Timer) Summary() string {
	if !t.enabled {
		return ""
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	var sb strings.Builder
	fmt.Fprintf(&sb, "=== %s timing ===\n", t.name)
	for i, name := range t.order {
		fmt.Fprintf(&sb, "phase %d - %s: %v\n", i+1, name, t.phases[name].Duration)
	}
	fmt.Fprintf(&sb, "total: %v\n", t.TotalDuration())
	return sb.String()
}

// PrintSummary writes the summary through the configured output.
func (t *Timer) PrintSummary() {
	if !t.enabled || t.output == nil {
		return
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	t.output.Output("=== %s timing ===", t.name)
	for i, name := range t.order {
		t.output.Output("phase %d - %s: %v", i+1, name, t.phases[name].Duration)
	}
	t.output.Output("total: %v", t.TotalDuration())
}

// ToMap returns the timing data in a form ready for JSON summaries.
func (t *Timer) ToMap() map[string]interface{} {
	t.mu.RLock()
	defer t.mu.RUnlock()

	phases := make([]map[string]interface{}, 0, len(t.order))
	for _, name := range t.order {
		phase := t.phases[name]
		phases = append(phases, map[string]interface{}{
			"name": phase.Name,
			"ms":   phase.Duration.Milliseconds(),
		})
	}

	return map[string]interface{}{
		"name":     t.name,
		"total_ms": t.TotalDuration().Milliseconds(),
		"phases":   phases,
	}
}

// Reset drops all phases and restarts the total clock.
func (t *Timer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.phases = make(map[string]*Phase)
	t.order = nil
	t.started = t.clock.Now()
}

// TimeFunc runs fn as a phase and returns its duration.
func (t *Timer) TimeFunc(name string, fn func()) time.Duration {
	pt := t.Start(name)
	fn()
	return pt.Stop()
}

// TimeFuncWithError runs fn as a phase, returning duration and error.
func (t *Timer) TimeFuncWithError(name string, fn func() error) (time.Duration, error) {
	pt := t.Start(name)
	err := fn()
	return pt.Stop(), err
}

// NullTimer is a shared disabled timer.
var NullTimer = &Timer{enabled: false, phases: make(map[string]*Phase), clock: NewRealClock()}
