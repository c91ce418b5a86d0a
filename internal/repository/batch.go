package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/resopt/pkg/model"
)

// PostgresBatchRepository implements BatchRepository for PostgreSQL.
type PostgresBatchRepository struct {
	db *sql.DB
}

// NewPostgresBatchRepository creates a new PostgresBatchRepository.
func NewPostgresBatchRepository(db *sql.DB) *PostgresBatchRepository {
	return &PostgresBatchRepository{db: db}
}

// GetBatch retrieves a batch by its UUID.
func (r *PostgresBatchRepository) GetBatch(ctx context.Context, batchUUID string) (*Batch, error) {
	query := `
		SELECT jid, job_jids, outcome, remap_status
		FROM remap_batch
		WHERE jid = $1
	`

	var jobJIDsJSON, outcomeJSON []byte
	batch := &Batch{}

	err := r.db.QueryRowContext(ctx, query, batchUUID).Scan(
		&batch.BatchUUID, &jobJIDsJSON, &outcomeJSON, &batch.RemapStatus,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("batch not found: %s", batchUUID)
		}
		return nil, fmt.Errorf("failed to get batch: %w", err)
	}

	if jobJIDsJSON != nil {
		if err := json.Unmarshal(jobJIDsJSON, &batch.JobUUIDs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal job_jids: %w", err)
		}
	}

	if outcomeJSON != nil {
		batch.Outcome = model.NewBatchOutcome()
		if err := json.Unmarshal(outcomeJSON, batch.Outcome); err != nil {
			return nil, fmt.Errorf("failed to unmarshal outcome: %w", err)
		}
	}

	return batch, nil
}

// UpdateBatchOutcome records the outcome of one batch member atomically.
func (r *PostgresBatchRepository) UpdateBatchOutcome(ctx context.Context, batchUUID string, jobUUID string, outcome *model.JobOutcome) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Lock the row for update
	var existingJSON []byte
	query := `SELECT outcome FROM remap_batch WHERE jid = $1 FOR UPDATE`
	err = tx.QueryRowContext(ctx, query, batchUUID).Scan(&existingJSON)
	if err != nil {
		return fmt.Errorf("failed to lock batch: %w", err)
	}

	existing := model.NewBatchOutcome()
	if existingJSON != nil {
		if err := json.Unmarshal(existingJSON, existing); err != nil {
			existing = model.NewBatchOutcome()
		}
	}

	existing.AddJobOutcome(jobUUID, *outcome)

	newOutcomeJSON, err := json.Marshal(existing)
	if err != nil {
		return fmt.Errorf("failed to marshal outcome: %w", err)
	}

	updateQuery := `UPDATE remap_batch SET outcome = $1 WHERE jid = $2`
	_, err = tx.ExecContext(ctx, updateQuery, newOutcomeJSON, batchUUID)
	if err != nil {
		return fmt.Errorf("failed to update outcome: %w", err)
	}

	return tx.Commit()
}

// UpdateBatchStatus updates the remap status of a batch.
func (r *PostgresBatchRepository) UpdateBatchStatus(ctx context.Context, batchUUID string, status model.RemapStatus) error {
	query := `UPDATE remap_batch SET remap_status = $1 WHERE jid = $2`
	if status == model.RemapStatusCompleted {
		query = `UPDATE remap_batch SET remap_status = $1, end_time = $2 WHERE jid = $3`
		_, err := r.db.ExecContext(ctx, query, status, time.Now(), batchUUID)
		return err
	}

	_, err := r.db.ExecContext(ctx, query, status, batchUUID)
	return err
}

// GetIncompleteJobCount returns the count of unfinished member jobs.
func (r *PostgresBatchRepository) GetIncompleteJobCount(ctx context.Context, batchUUID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM remap_job
		WHERE batch_jid = $1 AND remap_status <= 1 AND status != 3
	`

	var count int
	err := r.db.QueryRowContext(ctx, query, batchUUID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count incomplete jobs: %w", err)
	}

	return count, nil
}

// CheckAndCompleteIfReady checks if all member jobs are done and updates batch status.
func (r *PostgresBatchRepository) CheckAndCompleteIfReady(ctx context.Context, batchUUID string) error {
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

// MySQLBatchRepository implements BatchRepository for MySQL.
type MySQLBatchRepository struct {
	db *sql.DB
}

// NewMySQLBatchRepository creates a new MySQLBatchRepository.
func NewMySQLBatchRepository(db *sql.DB) *MySQLBatchRepository {
	return &MySQLBatchRepository{db: db}
}

// GetBatch retrieves a batch by its UUID.
func (r *MySQLBatchRepository) GetBatch(ctx context.Context, batchUUID string) (*Batch, error) {
	query := `
		SELECT jid, job_jids, outcome, remap_status
		FROM remap_batch
		WHERE jid = ?
	`

	var jobJIDsJSON, outcomeJSON []byte
	batch := &Batch{}

	err := r.db.QueryRowContext(ctx, query, batchUUID).Scan(
		&batch.BatchUUID, &jobJIDsJSON, &outcomeJSON, &batch.RemapStatus,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("batch not found: %s", batchUUID)
		}
		return nil, fmt.Errorf("failed to get batch: %w", err)
	}

	if jobJIDsJSON != nil {
		if err := json.Unmarshal(jobJIDsJSON, &batch.JobUUIDs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal job_jids: %w", err)
		}
	}

	if outcomeJSON != nil {
		batch.Outcome = model.NewBatchOutcome()
		if err := json.Unmarshal(outcomeJSON, batch.Outcome); err != nil {
			return nil, fmt.Errorf("failed to unmarshal outcome: %w", err)
		}
	}

	return batch, nil
}

// UpdateBatchOutcome records the outcome of one batch member atomically.
func (r *MySQLBatchRepository) UpdateBatchOutcome(ctx context.Context, batchUUID string, jobUUID string, outcome *model.JobOutcome) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Lock the row for update
	var existingJSON []byte
	query := `SELECT outcome FROM remap_batch WHERE jid = ? FOR UPDATE`
	err = tx.QueryRowContext(ctx, query, batchUUID).Scan(&existingJSON)
	if err != nil {
		return fmt.Errorf("failed to lock batch: %w", err)
	}

	existing := model.NewBatchOutcome()
	if existingJSON != nil {
		if err := json.Unmarshal(existingJSON, existing); err != nil {
			existing = model.NewBatchOutcome()
		}
	}

	existing.AddJobOutcome(jobUUID, *outcome)

	newOutcomeJSON, err := json.Marshal(existing)
	if err != nil {
		return fmt.Errorf("failed to marshal outcome: %w", err)
	}

	updateQuery := `UPDATE remap_batch SET outcome = ? WHERE jid = ?`
	_, err = tx.ExecContext(ctx, updateQuery, newOutcomeJSON, batchUUID)
	if err != nil {
		return fmt.Errorf("failed to update outcome: %w", err)
	}

	return tx.Commit()
}

// UpdateBatchStatus updates the remap status of a batch.
func (r *MySQLBatchRepository) UpdateBatchStatus(ctx context.Context, batchUUID string, status model.RemapStatus) error {
	query := `UPDATE remap_batch SET remap_status = ? WHERE jid = ?`
	if status == model.RemapStatusCompleted {
		query = `UPDATE remap_batch SET remap_status = ?, end_time = ? WHERE jid = ?`
		_, err := r.db.ExecContext(ctx, query, status, time.Now(), batchUUID)
		return err
	}

	_, err := r.db.ExecContext(ctx, query, status, batchUUID)
	return err
}

// GetIncompleteJobCount returns the count of unfinished member jobs.
func (r *MySQLBatchRepository) GetIncompleteJobCount(ctx context.Context, batchUUID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM remap_job
		WHERE batch_jid = ? AND remap_status <= 1 AND status != 3
	`

	var count int
	err := r.db.QueryRowContext(ctx, query, batchUUID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count incomplete jobs: %w", err)
	}

	return count, nil
}

// CheckAndCompleteIfReady checks if all member jobs are done and updates batch status.
func (r *MySQLBatchRepository) CheckAndCompleteIfReady(ctx context.Context, batchUUID string) error {
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
