// Package service assembles the remap daemon: database, storage, job
// sources and the scheduler, with one lifecycle for all of them.
package service

import (
	"context"
	"fmt"

	"github.com/resopt/internal/repository"
	"github.com/resopt/internal/scheduler"
	"github.com/resopt/internal/scheduler/source"
	"github.com/resopt/internal/storage"
	"github.com/resopt/pkg/config"
	"github.com/resopt/pkg/telemetry"
	"github.com/resopt/pkg/utils"
)

// Service is the main application service.
type Service struct {
	config    *config.Config
	logger    utils.Logger
	db        *repository.Repositories
	storage   storage.Storage
	scheduler *scheduler.Scheduler

	sources    []source.JobSource
	aggregator *source.Aggregator

	telemetryStop telemetry.ShutdownFunc
	running       bool
}

// New creates a new Service instance.
func New(cfg *config.Config, logger utils.Logger) (*Service, error) {
	if logger == nil {
		logger = utils.NewDefaultLogger(utils.LevelInfo, nil)
	}

	return &Service{
		config: cfg,
		logger: logger,
	}, nil
}

// Initialize initializes all service components.
func (s *Service) Initialize(ctx context.Context) error {
	s.logger.Info("Initializing service components...")

	s.initTelemetry(ctx)

	if err := s.initDatabase(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := s.initStorage(); err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	if err := s.initScheduler(); err != nil {
		return fmt.Errorf("failed to initialize scheduler: %w", err)
	}

	s.logger.Info("Service components initialized successfully")
	return nil
}

// initTelemetry installs the tracer provider when OTEL_ENABLED is set.
// Tracing failures degrade to no-op tracing, never to a dead service.
func (s *Service) initTelemetry(ctx context.Context) {
	stop, err := telemetry.Init(ctx)
	if err != nil {
		s.logger.Warn("Tracing disabled: %v", err)
	}
	s.telemetryStop = stop
	if telemetry.Enabled() {
		s.logger.Info("Tracing enabled (endpoint: %s)", telemetry.GetConfig().Endpoint)
	}
}

// initDatabase opens the database and builds the repositories. The
// driver setting selects between GORM and the raw SQL repositories.
func (s *Service) initDatabase() error {
	s.logger.Info("Connecting to database (%s, driver: %s)...",
		s.config.Database.Type, s.databaseDriver())

	if s.databaseDriver() == "sql" {
		db, err := repository.NewSQLDB(&s.config.Database)
		if err != nil {
			return err
		}
		repos, err := repository.NewSQLRepositories(db, s.config.Database.Type, s.config.Remap.Version)
		if err != nil {
			db.Close()
			return err
		}
		s.db = repos
	} else {
		gormDB, err := repository.NewGormDB(&s.config.Database)
		if err != nil {
			return err
		}
		s.db = repository.NewRepositories(gormDB, s.config.Database.Type, s.config.Remap.Version)
	}

	s.logger.Info("Database connection established")
	return nil
}

func (s *Service) databaseDriver() string {
	if s.config.Database.Driver == "" {
		return "gorm"
	}
	return s.config.Database.Driver
}

// initStorage initializes the artifact storage.
func (s *Service) initStorage() error {
	s.logger.Info("Initializing storage (%s)...", s.config.Storage.Type)

	store, err := storage.NewStorage(&s.config.Storage)
	if err != nil {
		return err
	}

	s.storage = store
	s.logger.Info("Storage initialized")

	return nil
}

// initScheduler builds the job sources, the processor and the
// scheduler around them.
func (s *Service) initScheduler() error {
	s.logger.Info("Initializing scheduler...")

	if err := s.initSources(); err != nil {
		return fmt.Errorf("failed to initialize sources: %w", err)
	}

	processor := scheduler.NewDefaultJobProcessor(&scheduler.ProcessorConfig{
		Config:  s.config,
		Storage: s.storage,
		Repos:   s.db,
		Logger:  s.logger,
	})

	schedulerConfig := scheduler.FromConfig(&s.config.Scheduler)
	s.scheduler = scheduler.New(schedulerConfig, s.aggregator, processor, s.db.Suggestion, s.logger)

	s.logger.Info("Scheduler initialized")
	return nil
}

// initSources builds job sources from configuration, defaulting to a
// single database source when none are configured.
func (s *Service) initSources() error {
	s.logger.Info("Initializing job sources...")

	var sourceConfigs []*source.SourceConfig
	for _, cfg := range s.config.Sources {
		if !cfg.Enabled {
			s.logger.Info("Source %s (%s) is disabled, skipping", cfg.Name, cfg.Type)
			continue
		}

		sourceConfigs = append(sourceConfigs, &source.SourceConfig{
			Type:    source.SourceType(cfg.Type),
			Name:    cfg.Name,
			Enabled: cfg.Enabled,
			Options: cfg.Options,
		})
	}

	if len(sourceConfigs) == 0 {
		s.logger.Info("No sources configured, using default database source")
		sourceConfigs = append(sourceConfigs, &source.SourceConfig{
			Type:    source.SourceTypeDB,
			Name:    "default-db",
			Enabled: true,
			Options: map[string]interface{}{
				"poll_interval": s.config.Scheduler.PollInterval,
				"batch_size":    s.config.Scheduler.JobBatchSize,
			},
		})
	}

	sources, err := source.CreateSources(sourceConfigs)
	if err != nil {
		return err
	}

	// Inject runtime dependencies the registry cannot provide.
	for _, src := range sources {
		switch typed := src.(type) {
		case *source.DatabaseSource:
			typed.SetRepository(s.db.Job)
			typed.SetLogger(s.logger)
		case *source.HTTPSource:
			typed.SetLogger(s.logger)
		}
	}

	s.sources = sources
	s.aggregator = source.NewAggregator(sources, s.config.Scheduler.JobBatchSize*2, s.logger)

	s.logger.Info("Initialized %d job sources", len(sources))
	for _, src := range sources {
		s.logger.Info("  - %s (%s)", src.Name(), src.Type())
	}

	return nil
}

// Start starts the service.
func (s *Service) Start(ctx context.Context) error {
	s.logger.Info("Starting service...")

	if err := s.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	s.running = true
	s.logger.Info("Service started successfully")

	return nil
}

// Stop stops the service gracefully.
func (s *Service) Stop() error {
	s.logger.Info("Stopping service...")

	if s.scheduler != nil {
		s.scheduler.Stop()
	}

	if s.aggregator != nil {
		if err := s.aggregator.Stop(); err != nil {
			s.logger.Error("Failed to stop aggregator: %v", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection: %v", err)
		}
	}

	if s.telemetryStop != nil {
		if err := s.telemetryStop(context.Background()); err != nil {
			s.logger.Error("Failed to flush traces: %v", err)
		}
	}

	s.running = false
	s.logger.Info("Service stopped")

	return nil
}

// IsRunning returns whether the service is running.
func (s *Service) IsRunning() bool {
	return s.running
}

// Stats returns service statistics.
func (s *Service) Stats() ServiceStats {
	stats := ServiceStats{
		Running: s.running,
	}

	if s.scheduler != nil {
		stats.Scheduler = s.scheduler.Stats()
	}

	return stats
}

// HealthCheck probes the database and the job sources.
func (s *Service) HealthCheck(ctx context.Context) error {
	if s.db != nil {
		if err := s.db.HealthCheck(ctx); err != nil {
			return fmt.Errorf("database health check failed: %w", err)
		}
	}

	if s.aggregator != nil {
		if err := s.aggregator.HealthCheck(ctx); err != nil {
			return fmt.Errorf("source health check failed: %w", err)
		}
	}

	return nil
}

// Repositories exposes the repositories for the report API.
func (s *Service) Repositories() *repository.Repositories {
	return s.db
}

// Storage exposes the artifact storage for the report API.
func (s *Service) Storage() storage.Storage {
	return s.storage
}

// ServiceStats holds service statistics.
type ServiceStats struct {
	Running   bool                     `json:"running"`
	Scheduler scheduler.SchedulerStats `json:"scheduler"`
}
