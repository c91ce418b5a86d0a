package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/resopt/internal/advisor"
	"github.com/resopt/internal/dex"
	"github.com/resopt/internal/remap"
	"github.com/resopt/internal/repository"
	"github.com/resopt/internal/statistics"
	"github.com/resopt/internal/storage"
	"github.com/resopt/pkg/compression"
	"github.com/resopt/pkg/config"
	"github.com/resopt/pkg/model"
	"github.com/resopt/pkg/resid"
	"github.com/resopt/pkg/utils"
	"github.com/resopt/pkg/writer"
)

// DefaultJobProcessor runs the remap pipeline: download the dump and
// table, execute the pass, upload the rewritten dump and persist the
// report, suggestions and batch outcome.
type DefaultJobProcessor struct {
	config      *config.Config
	storage     storage.Storage
	dumpStorage storage.Storage // optional separate storage for raw dumps
	repos       *repository.Repositories
	logger      utils.Logger
}

// ProcessorConfig holds processor dependencies.
type ProcessorConfig struct {
	Config      *config.Config
	Storage     storage.Storage
	DumpStorage storage.Storage
	Repos       *repository.Repositories
	Logger      utils.Logger
}

// NewDefaultJobProcessor creates a new DefaultJobProcessor.
func NewDefaultJobProcessor(cfg *ProcessorConfig) *DefaultJobProcessor {
	if cfg.Logger == nil {
		cfg.Logger = utils.NewDefaultLogger(utils.LevelInfo, nil)
	}

	dumpStorage := cfg.DumpStorage
	if dumpStorage == nil {
		dumpStorage = cfg.Storage
	}

	return &DefaultJobProcessor{
		config:      cfg.Config,
		storage:     cfg.Storage,
		dumpStorage: dumpStorage,
		repos:       cfg.Repos,
		logger:      cfg.Logger,
	}
}

// Process runs the remap pipeline for a single job. The final remap
// status is written here: completed, empty or failed.
func (p *DefaultJobProcessor) Process(ctx context.Context, job *Job, rules []model.SuggestionRule) error {
	p.logger.Info("Starting remap for job %s (dump: %s, table: %s)",
		job.UUID, job.DumpKey, job.TableKey)

	report, suggestions, err := p.run(ctx, job, rules)
	if err != nil {
		if statusErr := p.repos.Job.UpdateRemapStatusWithInfo(ctx, job.ID, model.RemapStatusFailed, err.Error()); statusErr != nil {
			p.logger.Error("Failed to mark job %s failed: %v", job.UUID, statusErr)
		}
		p.finishBatch(ctx, job, model.RemapStatusFailed, nil, nil)
		return err
	}

	if report.ClassesScanned == 0 {
		p.logger.Info("Job %s has no resource holder classes", job.UUID)
		if err := p.repos.Job.UpdateRemapStatusWithInfo(ctx, job.ID, model.RemapStatusEmpty, "no resource holder classes found"); err != nil {
			return err
		}
		p.finishBatch(ctx, job, model.RemapStatusEmpty, report, nil)
		return nil
	}

	if err := p.repos.Job.UpdateRemapStatus(ctx, job.ID, model.RemapStatusCompleted); err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}
	p.finishBatch(ctx, job, model.RemapStatusCompleted, report, suggestions)

	p.logger.Info("Job %s remap completed: %d/%d classes rewritten, %d elements deleted",
		job.UUID, report.ClassesRewritten, report.ClassesScanned, report.ElementsDeleted)
	return nil
}

// run executes the pipeline and persists all artifacts. It returns the
// pass report so Process can derive the final status.
func (p *DefaultJobProcessor) run(ctx context.Context, job *Job, rules []model.SuggestionRule) (*model.PassReport, []model.Suggestion, error) {
	jobDir := p.config.GetJobDir(job.UUID)
	if err := os.MkdirAll(jobDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create job directory: %w", err)
	}

	defer func() {
		if err := os.RemoveAll(jobDir); err != nil {
			p.logger.Warn("Failed to clean up job directory %s: %v", jobDir, err)
		}
	}()

	prog, table, err := p.fetchInputs(ctx, job, jobDir)
	if err != nil {
		return nil, nil, err
	}

	report, err := p.executePass(ctx, job, prog, table)
	if err != nil {
		return nil, nil, fmt.Errorf("remap pass failed: %w", err)
	}

	report.JobUUID = job.UUID
	report.Version = p.config.Remap.Version

	if report.ClassesScanned == 0 {
		return report, nil, nil
	}

	if err := p.saveOutput(ctx, job, prog, jobDir); err != nil {
		return nil, nil, err
	}

	if err := p.saveReport(ctx, job, report, jobDir); err != nil {
		return nil, nil, err
	}

	suggestions := p.generateSuggestions(ctx, job, report, rules)

	return report, suggestions, nil
}

// fetchInputs downloads and decodes the program dump and remap table.
// The two downloads are independent and run concurrently.
func (p *DefaultJobProcessor) fetchInputs(ctx context.Context, job *Job, jobDir string) (*dex.Program, *resid.Table, error) {
	localDump := filepath.Join(jobDir, storage.BaseName(job.DumpKey))
	localTable := filepath.Join(jobDir, storage.BaseName(job.TableKey))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := p.dumpStorage.DownloadFile(gctx, job.DumpKey, localDump); err != nil {
			return fmt.Errorf("failed to download dump: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := p.storage.DownloadFile(gctx, job.TableKey, localTable); err != nil {
			return fmt.Errorf("failed to download remap table: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	prog, err := dex.LoadProgram(localDump)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load program dump: %w", err)
	}

	tableData, err := os.ReadFile(localTable)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read remap table: %w", err)
	}
	plain, err := compression.AutoDecompress(tableData)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decompress remap table: %w", err)
	}
	table, err := resid.ParseTable(plain)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse remap table: %w", err)
	}

	return prog, table, nil
}

// executePass builds the holder filter and runs the remap pass.
func (p *DefaultJobProcessor) executePass(ctx context.Context, job *Job, prog *dex.Program, table *resid.Table) (*model.PassReport, error) {
	// Per-job customized holders extend the service-wide set.
	resources := p.config.Resources
	if len(job.Params.CustomizedHolders) > 0 {
		resources.CustomizedHolders = append(
			append([]string{}, p.config.Resources.CustomizedHolders...),
			job.Params.CustomizedHolders...)
	}

	roleFilter, err := remap.FilterFromConfig(&resources)
	if err != nil {
		return nil, err
	}

	maxWorkers := job.Params.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = p.config.Remap.MaxWorkers
	}

	pass := remap.NewPass(&remap.Config{
		MaxWorkers: maxWorkers,
		DryRun:     job.Params.DryRun,
		Filter:     roleFilter,
		Logger:     p.logger,
	})

	return pass.Run(ctx, prog, table)
}

// saveOutput serializes the rewritten program and uploads it. Dry runs
// leave the stored dump untouched.
func (p *DefaultJobProcessor) saveOutput(ctx context.Context, job *Job, prog *dex.Program, jobDir string) error {
	if job.Params.DryRun {
		p.logger.Info("Job %s is a dry run, skipping output upload", job.UUID)
		return nil
	}

	outputKey := job.OutputKey
	if outputKey == "" {
		outputKey = storage.OutputKeyFor(job.DumpKey)
	}

	localOutput := filepath.Join(jobDir, storage.BaseName(outputKey))
	if err := dex.SaveProgram(prog, localOutput); err != nil {
		return fmt.Errorf("failed to serialize rewritten dump: %w", err)
	}

	if err := p.storage.UploadFile(ctx, outputKey, localOutput); err != nil {
		return fmt.Errorf("failed to upload rewritten dump: %w", err)
	}

	return nil
}

// saveReport persists the pass report to the database and uploads the
// JSON rendition next to the output artifacts.
func (p *DefaultJobProcessor) saveReport(ctx context.Context, job *Job, report *model.PassReport, jobDir string) error {
	if err := p.repos.Report.SaveReport(ctx, report); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}

	reportKey := storage.ReportKeyFor(job.UUID)
	localReport := filepath.Join(jobDir, storage.BaseName(reportKey))
	if err := writer.NewJSONWriter[*model.PassReport]().WriteToFile(report, localReport); err != nil {
		p.logger.Warn("Failed to write report file for job %s: %v", job.UUID, err)
		return nil
	}
	if err := p.storage.UploadFile(ctx, reportKey, localReport); err != nil {
		p.logger.Warn("Failed to upload report for job %s: %v", job.UUID, err)
	}

	return nil
}

// generateSuggestions runs the advisor over the report and persists
// whatever it finds. Suggestion errors never fail the job.
func (p *DefaultJobProcessor) generateSuggestions(ctx context.Context, job *Job, report *model.PassReport, rules []model.SuggestionRule) []model.Suggestion {
	topClasses := statistics.NewTopClassesCalculator().Calculate(report)
	ruleCtx := &advisor.RuleContext{
		Report:     report,
		TopClasses: topClasses,
		Params:     &job.Params,
	}

	suggestions := advisor.NewAdvisor().Advise(ruleCtx)
	if len(rules) > 0 {
		stored := advisor.NewAdvisorWithRules(advisor.FromStoredRules(rules))
		suggestions = append(suggestions, stored.Advise(ruleCtx)...)
	}

	if len(suggestions) == 0 {
		return nil
	}

	for i := range suggestions {
		suggestions[i].JobUUID = job.UUID
	}

	if err := p.repos.Suggestion.SaveSuggestions(ctx, suggestions); err != nil {
		p.logger.Warn("Failed to save suggestions for job %s: %v", job.UUID, err)
	}

	return suggestions
}

// finishBatch folds the job's outcome into its submission batch and
// completes the batch when this was the last member. It runs after the
// job's own remap status is final, so the member count is accurate.
// Batch errors never fail the job.
func (p *DefaultJobProcessor) finishBatch(ctx context.Context, job *Job, status model.RemapStatus, report *model.PassReport, suggestions []model.Suggestion) {
	if job.BatchUUID == nil {
		return
	}
	batchUUID := *job.BatchUUID

	outcome := model.OutcomeFromReport(status.String(), report, suggestions)
	if err := p.repos.Batch.UpdateBatchOutcome(ctx, batchUUID, job.UUID, &outcome); err != nil {
		p.logger.Warn("Failed to update batch %s: %v", batchUUID, err)
		return
	}

	if err := p.repos.Batch.CheckAndCompleteIfReady(ctx, batchUUID); err != nil {
		p.logger.Warn("Failed to complete batch %s: %v", batchUUID, err)
	}
}
