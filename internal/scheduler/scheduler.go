// Package scheduler turns queued remap jobs into pass executions. It
// merges job events from the configured sources, enforces the worker
// pool and priority slots, and hands each claimed job to a processor.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/resopt/internal/repository"
	"github.com/resopt/internal/scheduler/source"
	"github.com/resopt/pkg/config"
	"github.com/resopt/pkg/model"
	"github.com/resopt/pkg/utils"
)

// Job is the scheduler's view of one queued remap job.
type Job struct {
	ID        int64
	UUID      string
	DumpKey   string
	TableKey  string
	OutputKey string
	UserName  string
	BatchUUID *string
	Bucket    string
	Params    model.RequestParams
	Priority  int // above zero uses the reserved slots
}

// JobProcessor runs the remap pipeline for one job.
type JobProcessor interface {
	Process(ctx context.Context, job *Job, rules []model.SuggestionRule) error
}

// SchedulerConfig holds scheduler configuration.
type SchedulerConfig struct {
	PollInterval  time.Duration // how often sources poll for new jobs
	WorkerCount   int           // number of concurrent workers
	PrioritySlots int           // slots reserved for high priority jobs
	JobBatchSize  int           // max jobs fetched per poll
}

// DefaultSchedulerConfig returns the default scheduler configuration.
func DefaultSchedulerConfig() *SchedulerConfig {
	return &SchedulerConfig{
		PollInterval:  2 * time.Second,
		WorkerCount:   5,
		PrioritySlots: 2,
		JobBatchSize:  10,
	}
}

// FromConfig creates scheduler config from the application config.
func FromConfig(cfg *config.SchedulerConfig) *SchedulerConfig {
	return &SchedulerConfig{
		PollInterval:  time.Duration(cfg.PollInterval) * time.Second,
		WorkerCount:   cfg.WorkerCount,
		PrioritySlots: cfg.PrioritySlots,
		JobBatchSize:  cfg.JobBatchSize,
	}
}

// Scheduler manages the job queue and worker pool.
type Scheduler struct {
	config    *SchedulerConfig
	processor JobProcessor
	logger    utils.Logger

	aggregator     *source.Aggregator
	suggestionRepo repository.SuggestionRepository

	workerPool chan struct{} // semaphore sized to WorkerCount
	jobQueue   chan *Job
	wg         sync.WaitGroup
	mu         sync.Mutex
	rules      []model.SuggestionRule // cached advisor rules

	running bool
	stopCh  chan struct{}
}

// New creates a Scheduler fed by the given source aggregator.
func New(config *SchedulerConfig, aggregator *source.Aggregator, processor JobProcessor, suggestionRepo repository.SuggestionRepository, logger utils.Logger) *Scheduler {
	if config == nil {
		config = DefaultSchedulerConfig()
	}
	if logger == nil {
		logger = utils.NewDefaultLogger(utils.LevelInfo, nil)
	}

	return &Scheduler{
		config:         config,
		aggregator:     aggregator,
		suggestionRepo: suggestionRepo,
		processor:      processor,
		logger:         logger,
		workerPool:     make(chan struct{}, config.WorkerCount),
		jobQueue:       make(chan *Job, config.JobBatchSize*2),
		stopCh:         make(chan struct{}),
	}
}

// Start starts the scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("Starting scheduler with %d workers", s.config.WorkerCount)

	s.running = true

	for i := 0; i < s.config.WorkerCount; i++ {
		s.workerPool <- struct{}{}
	}

	s.refreshRules(ctx)

	if err := s.aggregator.Start(ctx); err != nil {
		return err
	}

	go s.sourceEventLoop(ctx)
	go s.processLoop(ctx)

	return nil
}

// Stop stops the scheduler gracefully.
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler...")
	s.running = false
	close(s.stopCh)

	s.wg.Wait()
	s.logger.Info("Scheduler stopped")
}

// shouldAcceptJob applies the priority slot policy. Normal jobs may
// not occupy the slots reserved for high priority work.
func (s *Scheduler) shouldAcceptJob(job *Job) bool {
	activeWorkers := s.config.WorkerCount - len(s.workerPool)

	if job.Priority > 0 {
		return activeWorkers < s.config.WorkerCount
	}

	return activeWorkers < s.config.WorkerCount-s.config.PrioritySlots
}

// processLoop dispatches queued jobs onto worker slots.
func (s *Scheduler) processLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case job := <-s.jobQueue:
			select {
			case <-s.workerPool:
				s.wg.Add(1)
				go s.processJob(ctx, job)
			case <-ctx.Done():
				return
			case <-s.stopCh:
				return
			}
		}
	}
}

// processJob runs one job on a claimed worker slot.
func (s *Scheduler) processJob(ctx context.Context, job *Job) {
	defer func() {
		s.workerPool <- struct{}{}
		s.wg.Done()
	}()

	s.logger.Info("Processing job %d (jid: %s, dump: %s)", job.ID, job.UUID, job.DumpKey)

	s.mu.Lock()
	rules := s.rules
	s.mu.Unlock()

	startTime := time.Now()
	err := s.processor.Process(ctx, job, rules)
	duration := time.Since(startTime)

	if err != nil {
		s.logger.Error("Job %d failed after %v: %v", job.ID, duration, err)
		return
	}

	s.logger.Info("Job %d completed in %v", job.ID, duration)
}

// sourceEventLoop receives job events from the aggregator and queues
// them for processing. It also refreshes the advisor rule cache.
func (s *Scheduler) sourceEventLoop(ctx context.Context) {
	rulesTicker := time.NewTicker(30 * time.Second)
	defer rulesTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-rulesTicker.C:
			s.refreshRules(ctx)
		case event, ok := <-s.aggregator.Jobs():
			if !ok {
				s.logger.Info("Aggregator channel closed")
				return
			}

			job := jobFromEvent(event)

			if !s.shouldAcceptJob(job) {
				// The source already claimed the job; return the claim
				// so a later poll retries it.
				s.logger.Debug("No worker slot for job %d, returning to source", job.ID)
				if err := s.aggregator.Nack(ctx, event, "no worker slot available"); err != nil {
					s.logger.Error("Failed to nack event: %v", err)
				}
				continue
			}

			select {
			case s.jobQueue <- job:
				s.logger.Info("Queued job %d (jid: %s) from source %s/%s",
					job.ID, job.UUID, event.SourceType, event.SourceName)
			default:
				// Queue full, nack so the source can retry.
				s.logger.Warn("Job queue full, nacking job %d", job.ID)
				if err := s.aggregator.Nack(ctx, event, "job queue full"); err != nil {
					s.logger.Error("Failed to nack event: %v", err)
				}
			}
		}
	}
}

// refreshRules fetches and caches the suggestion rules.
func (s *Scheduler) refreshRules(ctx context.Context) {
	if s.suggestionRepo == nil {
		return
	}

	rules, err := s.suggestionRepo.GetSuggestionRules(ctx)
	if err != nil {
		s.logger.Warn("Failed to refresh suggestion rules: %v", err)
		return
	}

	s.mu.Lock()
	s.rules = rules
	s.mu.Unlock()

	s.logger.Debug("Refreshed %d suggestion rules", len(rules))
}

// jobFromEvent converts a source event into a scheduler job.
func jobFromEvent(event *source.JobEvent) *Job {
	j := event.Job
	return &Job{
		ID:        j.ID,
		UUID:      j.JobUUID,
		DumpKey:   j.DumpKey,
		TableKey:  j.TableKey,
		OutputKey: j.OutputKey,
		UserName:  j.UserName,
		BatchUUID: j.BatchUUID,
		Bucket:    j.Bucket,
		Params:    j.Params,
		Priority:  event.Priority,
	}
}

// Stats returns current scheduler statistics.
func (s *Scheduler) Stats() SchedulerStats {
	return SchedulerStats{
		ActiveWorkers: s.config.WorkerCount - len(s.workerPool),
		TotalWorkers:  s.config.WorkerCount,
		QueuedJobs:    len(s.jobQueue),
		Running:       s.running,
	}
}

// SchedulerStats holds scheduler statistics.
type SchedulerStats struct {
	ActiveWorkers int  `json:"active_workers"`
	TotalWorkers  int  `json:"total_workers"`
	QueuedJobs    int  `json:"queued_jobs"`
	Running       bool `json:"running"`
}
