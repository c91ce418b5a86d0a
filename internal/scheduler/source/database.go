package source

import (
	"context"
	"sync"
	"time"

	"github.com/resopt/internal/repository"
	"github.com/resopt/pkg/model"
	"github.com/resopt/pkg/utils"
)

// SourceTypeDB is the source type constant for the database source.
const SourceTypeDB SourceType = "database"

func init() {
	Register(SourceTypeDB, NewDatabaseSource)
}

// DatabaseOptions holds database source specific configuration.
type DatabaseOptions struct {
	// PollInterval is how often to poll for pending jobs.
	PollInterval time.Duration

	// BatchSize is the maximum number of jobs to fetch per poll.
	BatchSize int
}

// DefaultDatabaseOptions returns the default options.
func DefaultDatabaseOptions() *DatabaseOptions {
	return &DatabaseOptions{
		PollInterval: 2 * time.Second,
		BatchSize:    10,
	}
}

// DatabaseSource polls the job table for pending remap jobs, claims
// them with a row lock and emits each claimed job as an event.
type DatabaseSource struct {
	name    string
	options *DatabaseOptions
	logger  utils.Logger

	jobRepo repository.JobRepository

	jobChan chan *JobEvent
	stopCh  chan struct{}

	mu      sync.RWMutex
	running bool
}

// NewDatabaseSource creates a database source from configuration.
// SetRepository must be called before Start.
func NewDatabaseSource(cfg *SourceConfig) (JobSource, error) {
	opts := &DatabaseOptions{
		PollInterval: cfg.GetDuration("poll_interval", 2*time.Second),
		BatchSize:    cfg.GetInt("batch_size", 10),
	}

	return &DatabaseSource{
		name:    cfg.Name,
		options: opts,
		jobChan: make(chan *JobEvent, opts.BatchSize*2),
		stopCh:  make(chan struct{}),
	}, nil
}

// NewDatabaseSourceWithDeps creates a database source with explicit
// dependencies, the usual path for production wiring.
func NewDatabaseSourceWithDeps(name string, opts *DatabaseOptions, jobRepo repository.JobRepository, logger utils.Logger) *DatabaseSource {
	if opts == nil {
		opts = DefaultDatabaseOptions()
	}
	if logger == nil {
		logger = utils.NewDefaultLogger(utils.LevelInfo, nil)
	}

	return &DatabaseSource{
		name:    name,
		options: opts,
		logger:  logger,
		jobRepo: jobRepo,
		jobChan: make(chan *JobEvent, opts.BatchSize*2),
		stopCh:  make(chan struct{}),
	}
}

// SetRepository sets the job repository.
func (s *DatabaseSource) SetRepository(jobRepo repository.JobRepository) {
	s.jobRepo = jobRepo
}

// SetLogger sets the logger.
func (s *DatabaseSource) SetLogger(logger utils.Logger) {
	s.logger = logger
}

// Type returns the source type.
func (s *DatabaseSource) Type() SourceType {
	return SourceTypeDB
}

// Name returns the source instance name.
func (s *DatabaseSource) Name() string {
	return s.name
}

// Start starts the polling loop.
func (s *DatabaseSource) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}

	if s.jobRepo == nil {
		s.mu.Unlock()
		return nil // no repository configured, skip
	}

	s.running = true
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Info("Database source %s starting with poll_interval=%v, batch_size=%d",
			s.name, s.options.PollInterval, s.options.BatchSize)
	}

	go s.pollLoop(ctx)
	return nil
}

// Stop stops the database source.
func (s *DatabaseSource) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopCh)
	return nil
}

// Jobs returns the job event channel.
func (s *DatabaseSource) Jobs() <-chan *JobEvent {
	return s.jobChan
}

// Ack marks the job's remap phase completed.
func (s *DatabaseSource) Ack(ctx context.Context, event *JobEvent) error {
	if s.jobRepo == nil || event.Job == nil {
		return nil
	}
	return s.jobRepo.UpdateRemapStatus(ctx, event.Job.ID, model.RemapStatusCompleted)
}

// Nack returns the claim so a later poll retries the job. Permanent
// failures are recorded by the processor, not here.
func (s *DatabaseSource) Nack(ctx context.Context, event *JobEvent, reason string) error {
	if s.jobRepo == nil || event.Job == nil {
		return nil
	}
	return s.jobRepo.UpdateRemapStatusWithInfo(ctx, event.Job.ID, model.RemapStatusPending, reason)
}

// HealthCheck probes the job table.
func (s *DatabaseSource) HealthCheck(ctx context.Context) error {
	if s.jobRepo == nil {
		return nil
	}
	_, err := s.jobRepo.GetPendingJobs(ctx, 1)
	return err
}

// pollLoop polls the job table until stopped.
func (s *DatabaseSource) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(s.options.PollInterval)
	defer ticker.Stop()

	s.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.poll(ctx)
		}
	}
}

// poll claims pending jobs and emits them on the job channel.
func (s *DatabaseSource) poll(ctx context.Context) {
	if s.jobRepo == nil {
		return
	}

	jobs, err := s.jobRepo.GetPendingJobs(ctx, s.options.BatchSize)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("Database source %s failed to fetch jobs: %v", s.name, err)
		}
		return
	}

	for _, job := range jobs {
		locked, err := s.jobRepo.LockJobForRemap(ctx, job.ID)
		if err != nil {
			if s.logger != nil {
				s.logger.Error("Database source %s failed to lock job %d: %v", s.name, job.ID, err)
			}
			continue
		}
		if !locked {
			continue // claimed by another instance
		}

		event := NewJobEvent(job, SourceTypeDB, s.name).
			WithMetadata("locked_at", time.Now().Format(time.RFC3339))

		select {
		case s.jobChan <- event:
			if s.logger != nil {
				s.logger.Debug("Database source %s emitted job %s", s.name, job.JobUUID)
			}
		default:
			// Channel full, return the claim so the next poll retries.
			if s.logger != nil {
				s.logger.Warn("Database source %s job channel full, job %d requeued", s.name, job.ID)
			}
			if err := s.Nack(ctx, event, "source channel full"); err != nil && s.logger != nil {
				s.logger.Error("Database source %s failed to requeue job %d: %v", s.name, job.ID, err)
			}
		}
	}
}
