package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/resopt/internal/scheduler"
	"github.com/resopt/internal/service"
	"github.com/resopt/internal/webui"
	"github.com/resopt/pkg/config"
	"github.com/resopt/pkg/utils"
)

// Version information (injected by build flags)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Command line flags
var (
	configPath string
	apiPort    int
	verbose    bool
	drainBatch int
)

// binName returns the base name of the current executable
func binName() string {
	return filepath.Base(os.Args[0])
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "resopt-optimizer",
	Short: "The resource-array remapping service",
	Long: `resopt-optimizer is a background service that rewrites the constant
resource-ID arrays of Android programs after resource shrinking.

It claims queued remap jobs from the database (or an HTTP submission
endpoint), downloads the program dump and remap table, runs the remap
pass and uploads the rewritten dump together with a pass report.`,
	RunE: runService,
}

// versionCmd shows version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("%s version %s\n", binName(), Version)
		fmt.Printf("  Git Commit: %s\n", GitCommit)
		fmt.Printf("  Build Time: %s\n", BuildTime)
		fmt.Printf("  Go Version: %s\n", runtime.Version())
		fmt.Printf("  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

// drainCmd processes pending jobs once and exits.
var drainCmd = &cobra.Command{
	Use:   "drain",
	Short: "Process all pending jobs once and exit",
	Long: `Drain claims every pending remap job, processes it and exits when
the queue is empty. Useful for backfills and for running the engine
without the long-lived scheduler.`,
	RunE: runDrain,
}

func init() {
	bin := binName()
	rootCmd.Example = `  # Start service with config file
  ` + bin + ` -c /etc/resopt/config.yaml

  # Start with the report API on a custom port
  ` + bin + ` -c ./config.yaml --api-port 9090

  # Process the current queue once and exit
  ` + bin + ` drain -c ./config.yaml`

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")

	rootCmd.Flags().IntVar(&apiPort, "api-port", 8080, "Port for the report API (0 disables)")
	drainCmd.Flags().IntVar(&drainBatch, "batch", 10, "Jobs claimed per drain round")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(drainCmd)
}

func newLogger() utils.Logger {
	logLevel := utils.LevelInfo
	if verbose {
		logLevel = utils.LevelDebug
	}
	logger := utils.NewDefaultLogger(logLevel, os.Stdout)
	utils.SetGlobalLogger(logger)
	return logger
}

// initService loads configuration and initializes all components.
func initService(ctx context.Context, logger utils.Logger) (*service.Service, *config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger.Info("Engine version: %s", cfg.Remap.Version)
	logger.Info("Workers: %d (priority slots: %d)", cfg.Scheduler.WorkerCount, cfg.Scheduler.PrioritySlots)
	logger.Info("Database: %s://%s:%d/%s", cfg.Database.Type, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)
	logger.Info("Storage: %s", cfg.Storage.Type)

	if err := cfg.EnsureDataDir(); err != nil {
		return nil, nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	svc, err := service.New(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create service: %w", err)
	}

	if err := svc.Initialize(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize service: %w", err)
	}

	return svc, cfg, nil
}

func runService(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	logger.Info("Starting resopt-optimizer...")
	logger.Info("Version: %s, Commit: %s, Built: %s", Version, GitCommit, BuildTime)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	svc, _, err := initService(ctx, logger)
	if err != nil {
		return err
	}

	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}

	var apiServer *webui.Server
	if apiPort > 0 {
		apiServer = webui.NewServer(svc.Repositories(), svc.Storage(), apiPort, logger)
		apiServer.SetStatsProvider(func() interface{} { return svc.Stats() })
		go func() {
			if err := apiServer.Start(); err != nil {
				logger.Warn("Report API stopped: %v", err)
			}
		}()
	}

	logger.Info("Service started, waiting for jobs...")

	select {
	case sig := <-sigChan:
		logger.Info("Received signal %v, initiating graceful shutdown...", sig)
		cancel()
	case <-ctx.Done():
		logger.Info("Context cancelled, shutting down...")
	}

	if apiServer != nil {
		if err := apiServer.Shutdown(context.Background()); err != nil {
			logger.Error("Error stopping report API: %v", err)
		}
	}

	if err := svc.Stop(); err != nil {
		logger.Error("Error during shutdown: %v", err)
	}

	logger.Info("Service stopped")
	return nil
}

// runDrain claims and processes pending jobs until the queue is empty.
func runDrain(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc, cfg, err := initService(ctx, logger)
	if err != nil {
		return err
	}
	defer svc.Stop()

	repos := svc.Repositories()
	fetcher := scheduler.NewRepositoryJobFetcher(repos.Job, repos.Suggestion)
	processor := scheduler.NewDefaultJobProcessor(&scheduler.ProcessorConfig{
		Config:  cfg,
		Storage: svc.Storage(),
		Repos:   repos,
		Logger:  logger,
	})

	rules, err := fetcher.FetchSuggestionRules(ctx)
	if err != nil {
		logger.Warn("Failed to fetch suggestion rules: %v", err)
	}

	processed, failed := 0, 0
	for {
		jobs, err := fetcher.FetchPendingJobs(ctx, drainBatch)
		if err != nil {
			return fmt.Errorf("failed to fetch pending jobs: %w", err)
		}
		if len(jobs) == 0 {
			break
		}

		for _, job := range jobs {
			locked, err := fetcher.LockJob(ctx, job.ID)
			if err != nil {
				logger.Error("Failed to lock job %d: %v", job.ID, err)
				continue
			}
			if !locked {
				continue
			}

			if err := processor.Process(ctx, job, rules); err != nil {
				logger.Error("Job %s failed: %v", job.UUID, err)
				failed++
				continue
			}
			processed++
		}
	}

	logger.Info("Drain complete: %d processed, %d failed", processed, failed)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
