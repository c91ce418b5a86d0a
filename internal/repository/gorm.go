package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/resopt/pkg/model"
)

// GormJobRepository implements JobRepository using GORM.
type GormJobRepository struct {
	db *gorm.DB
}

// NewGormJobRepository creates a new GormJobRepository.
func NewGormJobRepository(db *gorm.DB) *GormJobRepository {
	return &GormJobRepository{db: db}
}

// GetPendingJobs retrieves jobs whose dump is uploaded and whose remap
// pass has not started.
func (r *GormJobRepository) GetPendingJobs(ctx context.Context, limit int) ([]*model.Job, error) {
	var jobs []RemapJob

	err := r.db.WithContext(ctx).
		Where("status = ? AND remap_status = ?", model.JobStatusPending, model.RemapStatusPending).
		Order("id DESC").
		Limit(limit).
		Find(&jobs).Error

	if err != nil {
		return nil, fmt.Errorf("failed to query pending jobs: %w", err)
	}

	result := make([]*model.Job, len(jobs))
	for i, j := range jobs {
		result[i] = j.ToModel()
	}

	return result, nil
}

// GetJobByID retrieves a job by its ID.
func (r *GormJobRepository) GetJobByID(ctx context.Context, id int64) (*model.Job, error) {
	var job RemapJob

	err := r.db.WithContext(ctx).Where("id = ?", id).First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("job not found: %d", id)
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return job.ToModel(), nil
}

// GetJobByUUID retrieves a job by its UUID.
func (r *GormJobRepository) GetJobByUUID(ctx context.Context, uuid string) (*model.Job, error) {
	var job RemapJob

	err := r.db.WithContext(ctx).Where("jid = ?", uuid).First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("job not found: %s", uuid)
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return job.ToModel(), nil
}

// UpdateRemapStatus updates the remap status of a job.
func (r *GormJobRepository) UpdateRemapStatus(ctx context.Context, id int64, status model.RemapStatus) error {
	result := r.db.WithContext(ctx).
		Model(&RemapJob{}).
		Where("id = ?", id).
		Update("remap_status", status)

	if result.Error != nil {
		return fmt.Errorf("failed to update remap status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("job not found: %d", id)
	}

	return nil
}

// UpdateRemapStatusWithInfo updates the remap status with additional info.
func (r *GormJobRepository) UpdateRemapStatusWithInfo(ctx context.Context, id int64, status model.RemapStatus, info string) error {
	result := r.db.WithContext(ctx).
		Model(&RemapJob{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"remap_status": status,
			"status_info":  info,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update remap status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("job not found: %d", id)
	}

	return nil
}

// LockJobForRemap attempts to claim a job using FOR UPDATE.
func (r *GormJobRepository) LockJobForRemap(ctx context.Context, id int64) (bool, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var job RemapJob

		// Try to lock the row with FOR UPDATE
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND remap_status = ?", id, model.RemapStatusPending).
			First(&job).Error

		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return gorm.ErrRecordNotFound
			}
			return err
		}

		// Update status to running
		return tx.Model(&RemapJob{}).
			Where("id = ?", id).
			Update("remap_status", model.RemapStatusRunning).Error
	})

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to lock job: %w", err)
	}

	return true, nil
}

// GormReportRepository implements ReportRepository using GORM.
type GormReportRepository struct {
	db      *gorm.DB
	version string
}

// NewGormReportRepository creates a new GormReportRepository.
func NewGormReportRepository(db *gorm.DB, version string) *GormReportRepository {
	return &GormReportRepository{db: db, version: version}
}

// SaveReport saves a pass report to the database.
func (r *GormReportRepository) SaveReport(ctx context.Context, report *model.PassReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	record := &RemapReport{
		JID:     report.JobUUID,
		Report:  reportJSON,
		Version: r.version,
	}

	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to save pass report: %w", err)
	}

	return nil
}

// GetReportByJobUUID retrieves the pass report for a job.
func (r *GormReportRepository) GetReportByJobUUID(ctx context.Context, jobUUID string) (*model.PassReport, error) {
	var record RemapReport

	err := r.db.WithContext(ctx).Where("jid = ?", jobUUID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("report not found for job: %s", jobUUID)
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	return record.ToModel()
}

// UpdateReport updates an existing pass report.
func (r *GormReportRepository) UpdateReport(ctx context.Context, report *model.PassReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	res := r.db.WithContext(ctx).
		Model(&RemapReport{}).
		Where("jid = ?", report.JobUUID).
		Updates(map[string]interface{}{
			"report":  reportJSON,
			"version": r.version,
		})

	if res.Error != nil {
		return fmt.Errorf("failed to update report: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("report not found for job: %s", report.JobUUID)
	}

	return nil
}

// GormSuggestionRepository implements SuggestionRepository using GORM.
type GormSuggestionRepository struct {
	db *gorm.DB
}

// NewGormSuggestionRepository creates a new GormSuggestionRepository.
func NewGormSuggestionRepository(db *gorm.DB) *GormSuggestionRepository {
	return &GormSuggestionRepository{db: db}
}

// SaveSuggestions saves multiple suggestions to the database.
func (r *GormSuggestionRepository) SaveSuggestions(ctx context.Context, suggestions []model.Suggestion) error {
	if len(suggestions) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		for _, sug := range suggestions {
			if sug.IsEmpty() {
				continue
			}

			detail := JSONField("{}")
			if sug.Detail != nil {
				detail = JSONField(sug.Detail)
			}

			record := &RemapSuggestion{
				JID:        sug.JobUUID,
				Type:       sug.Type,
				Severity:   sug.Severity,
				Suggestion: sug.Suggestion,
				ClassName:  sug.ClassName,
				Detail:     detail,
				CreatedAt:  now,
				UpdatedAt:  now,
			}

			if err := tx.Create(record).Error; err != nil {
				return fmt.Errorf("failed to insert suggestion: %w", err)
			}
		}

		return nil
	})
}

// GetSuggestionsByJobUUID retrieves suggestions for a job.
func (r *GormSuggestionRepository) GetSuggestionsByJobUUID(ctx context.Context, jobUUID string) ([]model.Suggestion, error) {
	var records []RemapSuggestion

	err := r.db.WithContext(ctx).Where("jid = ?", jobUUID).Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query suggestions: %w", err)
	}

	suggestions := make([]model.Suggestion, len(records))
	for i, rec := range records {
		suggestions[i] = rec.ToModel()
	}

	return suggestions, nil
}

// GetSuggestionRules retrieves all active suggestion rules.
func (r *GormSuggestionRepository) GetSuggestionRules(ctx context.Context) ([]model.SuggestionRule, error) {
	var records []RemapSuggestionRule

	err := r.db.WithContext(ctx).Where("deleted IS NULL").Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}

	rules := make([]model.SuggestionRule, len(records))
	for i, rec := range records {
		rules[i] = rec.ToModel()
	}

	return rules, nil
}

// GormBatchRepository implements BatchRepository using GORM.
type GormBatchRepository struct {
	db *gorm.DB
}

// NewGormBatchRepository creates a new GormBatchRepository.
func NewGormBatchRepository(db *gorm.DB) *GormBatchRepository {
	return &GormBatchRepository{db: db}
}

// GetBatch retrieves a batch by its UUID.
func (r *GormBatchRepository) GetBatch(ctx context.Context, batchUUID string) (*Batch, error) {
	var record RemapBatch

	err := r.db.WithContext(ctx).Where("jid = ?", batchUUID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("batch not found: %s", batchUUID)
		}
		return nil, fmt.Errorf("failed to get batch: %w", err)
	}

	return record.ToBatch()
}

// UpdateBatchOutcome records the outcome of one batch member atomically.
func (r *GormBatchRepository) UpdateBatchOutcome(ctx context.Context, batchUUID string, jobUUID string, outcome *model.JobOutcome) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record RemapBatch

		// Lock the row for update
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("jid = ?", batchUUID).
			First(&record).Error
		if err != nil {
			return fmt.Errorf("failed to lock batch: %w", err)
		}

		// Parse existing outcomes
		existing := model.NewBatchOutcome()
		if record.Outcome != nil {
			if err := json.Unmarshal(record.Outcome, existing); err != nil {
				existing = model.NewBatchOutcome()
			}
		}

		// Add the new outcome
		existing.AddJobOutcome(jobUUID, *outcome)

		// Serialize and update
		newOutcomeJSON, err := json.Marshal(existing)
		if err != nil {
			return fmt.Errorf("failed to marshal outcome: %w", err)
		}

		return tx.Model(&RemapBatch{}).
			Where("jid = ?", batchUUID).
			Update("outcome", newOutcomeJSON).Error
	})
}

// UpdateBatchStatus updates the remap status of a batch.
func (r *GormBatchRepository) UpdateBatchStatus(ctx context.Context, batchUUID string, status model.RemapStatus) error {
	updates := map[string]interface{}{
		"remap_status": status,
	}

	if status == model.RemapStatusCompleted {
		updates["end_time"] = time.Now()
	}

	return r.db.WithContext(ctx).
		Model(&RemapBatch{}).
		Where("jid = ?", batchUUID).
		Updates(updates).Error
}

// GetIncompleteJobCount returns the count of unfinished member jobs.
func (r *GormBatchRepository) GetIncompleteJobCount(ctx context.Context, batchUUID string) (int, error) {
	var count int64

	err := r.db.WithContext(ctx).
		Model(&RemapJob{}).
		Where("batch_jid = ? AND remap_status <= 1 AND status != 3", batchUUID).
		Count(&count).Error

	if err != nil {
		return 0, fmt.Errorf("failed to count incomplete jobs: %w", err)
	}

	return int(count), nil
}

// CheckAndCompleteIfReady checks if all member jobs are done and updates batch status.
func (r *GormBatchRepository) CheckAndCompleteIfReady(ctx context.Context, batchUUID string) error {
	count, err := r.GetIncompleteJobCount(ctx, batchUUID)
	if err != nil {
		return err
	}

	var newStatus model.RemapStatus
	if count == 0 {
		newStatus = model.RemapStatusCompleted
	} else {
		newStatus = model.RemapStatusRunning
	}

	return r.UpdateBatchStatus(ctx, batchUUID, newStatus)
}
