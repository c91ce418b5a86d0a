// Package repository provides database abstraction for the resopt service.
package repository

import (
	"context"

	"github.com/resopt/pkg/model"
)

// JobRepository defines the interface for remap job database operations.
type JobRepository interface {
	// GetPendingJobs retrieves jobs whose dump is ready and whose remap
	// pass has not started.
	GetPendingJobs(ctx context.Context, limit int) ([]*model.Job, error)

	// GetJobByID retrieves a job by its ID.
	GetJobByID(ctx context.Context, id int64) (*model.Job, error)

	// GetJobByUUID retrieves a job by its UUID.
	GetJobByUUID(ctx context.Context, uuid string) (*model.Job, error)

	// UpdateRemapStatus updates the remap status of a job.
	UpdateRemapStatus(ctx context.Context, id int64, status model.RemapStatus) error

	// UpdateRemapStatusWithInfo updates the remap status with additional info.
	UpdateRemapStatusWithInfo(ctx context.Context, id int64, status model.RemapStatus, info string) error

	// LockJobForRemap attempts to claim a job (prevents concurrent processing).
	LockJobForRemap(ctx context.Context, id int64) (bool, error)
}

// ReportRepository defines the interface for pass report operations.
type ReportRepository interface {
	// SaveReport saves a pass report to the database.
	SaveReport(ctx context.Context, report *model.PassReport) error

	// GetReportByJobUUID retrieves the pass report for a job.
	GetReportByJobUUID(ctx context.Context, jobUUID string) (*model.PassReport, error)

	// UpdateReport updates an existing pass report.
	UpdateReport(ctx context.Context, report *model.PassReport) error
}

// SuggestionRepository defines the interface for suggestion operations.
type SuggestionRepository interface {
	// SaveSuggestions saves multiple suggestions to the database.
	SaveSuggestions(ctx context.Context, suggestions []model.Suggestion) error

	// GetSuggestionsByJobUUID retrieves suggestions for a job.
	GetSuggestionsByJobUUID(ctx context.Context, jobUUID string) ([]model.Suggestion, error)

	// GetSuggestionRules retrieves all active suggestion rules.
	GetSuggestionRules(ctx context.Context) ([]model.SuggestionRule, error)
}

// BatchRepository defines the interface for submission batch operations.
type BatchRepository interface {
	// GetBatch retrieves a batch by its UUID.
	GetBatch(ctx context.Context, batchUUID string) (*Batch, error)

	// UpdateBatchOutcome records the outcome of one batch member.
	UpdateBatchOutcome(ctx context.Context, batchUUID string, jobUUID string, outcome *model.JobOutcome) error

	// UpdateBatchStatus updates the remap status of a batch.
	UpdateBatchStatus(ctx context.Context, batchUUID string, status model.RemapStatus) error

	// GetIncompleteJobCount returns the count of unfinished member jobs.
	GetIncompleteJobCount(ctx context.Context, batchUUID string) (int, error)

	// CheckAndCompleteIfReady checks if all member jobs are done and updates status.
	CheckAndCompleteIfReady(ctx context.Context, batchUUID string) error
}

// Batch represents a submission batch holding several remap jobs.
type Batch struct {
	BatchUUID   string              `json:"batch_uuid" db:"batch_uuid"`
	JobUUIDs    []string            `json:"job_uuids" db:"job_uuids"`
	Outcome     *model.BatchOutcome `json:"outcome" db:"outcome"`
	RemapStatus model.RemapStatus   `json:"remap_status" db:"remap_status"`
}
