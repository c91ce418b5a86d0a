package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/resopt/pkg/model"
)

// PostgresJobRepository implements JobRepository for PostgreSQL.
type PostgresJobRepository struct {
	db *sql.DB
}

// NewPostgresJobRepository creates a new PostgresJobRepository.
func NewPostgresJobRepository(db *sql.DB) *PostgresJobRepository {
	return &PostgresJobRepository{db: db}
}

// GetPendingJobs retrieves jobs whose remap pass has not started.
func (r *PostgresJobRepository) GetPendingJobs(ctx context.Context, limit int) ([]*model.Job, error) {
	query := `
		SELECT id, jid, status, remap_status,
			   COALESCE(status_info, ''), COALESCE(dump_key, ''),
			   COALESCE(table_key, ''), COALESCE(output_key, ''),
			   COALESCE(report_file, ''), COALESCE(user_name, ''),
			   batch_jid, COALESCE(bucket, ''),
			   request_params, create_time, begin_time, end_time
		FROM remap_job
		WHERE status = $1 AND remap_status = $2
		ORDER BY id DESC
		LIMIT $3
	`

	rows, err := r.db.QueryContext(ctx, query, model.JobStatusPending, model.RemapStatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*model.Job
	for rows.Next() {
		job, err := scanPostgresJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job row: %w", err)
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return jobs, nil
}

// GetJobByID retrieves a job by its ID.
func (r *PostgresJobRepository) GetJobByID(ctx context.Context, id int64) (*model.Job, error) {
	query := `
		SELECT id, jid, status, remap_status,
			   COALESCE(status_info, ''), COALESCE(dump_key, ''),
			   COALESCE(table_key, ''), COALESCE(output_key, ''),
			   COALESCE(report_file, ''), COALESCE(user_name, ''),
			   batch_jid, COALESCE(bucket, ''),
			   request_params, create_time, begin_time, end_time
		FROM remap_job
		WHERE id = $1
	`

	job, err := scanPostgresJob(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("job not found: %d", id)
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return job, nil
}

// GetJobByUUID retrieves a job by its UUID.
func (r *PostgresJobRepository) GetJobByUUID(ctx context.Context, uuid string) (*model.Job, error) {
	query := `
		SELECT id, jid, status, remap_status,
			   COALESCE(status_info, ''), COALESCE(dump_key, ''),
			   COALESCE(table_key, ''), COALESCE(output_key, ''),
			   COALESCE(report_file, ''), COALESCE(user_name, ''),
			   batch_jid, COALESCE(bucket, ''),
			   request_params, create_time, begin_time, end_time
		FROM remap_job
		WHERE jid = $1
	`

	job, err := scanPostgresJob(r.db.QueryRowContext(ctx, query, uuid))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("job not found: %s", uuid)
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return job, nil
}

// UpdateRemapStatus updates the remap status of a job.
func (r *PostgresJobRepository) UpdateRemapStatus(ctx context.Context, id int64, status model.RemapStatus) error {
	query := `UPDATE remap_job SET remap_status = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update remap status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("job not found: %d", id)
	}

	return nil
}

// UpdateRemapStatusWithInfo updates the remap status with additional info.
func (r *PostgresJobRepository) UpdateRemapStatusWithInfo(ctx context.Context, id int64, status model.RemapStatus, info string) error {
	query := `UPDATE remap_job SET remap_status = $1, status_info = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, status, info, id)
	if err != nil {
		return fmt.Errorf("failed to update remap status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("job not found: %d", id)
	}

	return nil
}

// LockJobForRemap attempts to claim a job using FOR UPDATE SKIP LOCKED.
func (r *PostgresJobRepository) LockJobForRemap(ctx context.Context, id int64) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var remapStatus model.RemapStatus
	query := `SELECT remap_status FROM remap_job WHERE id = $1 AND remap_status = $2 FOR UPDATE SKIP LOCKED`
	err = tx.QueryRowContext(ctx, query, id, model.RemapStatusPending).Scan(&remapStatus)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("failed to lock job: %w", err)
	}

	// Update status to running
	updateQuery := `UPDATE remap_job SET remap_status = $1 WHERE id = $2`
	_, err = tx.ExecContext(ctx, updateQuery, model.RemapStatusRunning, id)
	if err != nil {
		return false, fmt.Errorf("failed to update status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return true, nil
}

// scanPostgresJob scans a single job from a row.
func scanPostgresJob(row rowScanner) (*model.Job, error) {
	job := &model.Job{}
	var requestParamsJSON []byte
	var batchJID sql.NullString
	var beginTime, endTime sql.NullTime

	err := row.Scan(
		&job.ID, &job.JobUUID, &job.Status, &job.RemapStatus,
		&job.StatusInfo, &job.DumpKey, &job.TableKey, &job.OutputKey,
		&job.ReportFile, &job.UserName, &batchJID, &job.Bucket,
		&requestParamsJSON, &job.CreateTime, &beginTime, &endTime,
	)
	if err != nil {
		return nil, err
	}

	if batchJID.Valid {
		job.BatchUUID = &batchJID.String
	}
	if beginTime.Valid {
		job.BeginTime = &beginTime.Time
	}
	if endTime.Valid {
		job.EndTime = &endTime.Time
	}

	if requestParamsJSON != nil {
		if err := json.Unmarshal(requestParamsJSON, &job.Params); err != nil {
			return nil, fmt.Errorf("failed to parse request params: %w", err)
		}
	}

	return job, nil
}

// PostgresReportRepository implements ReportRepository for PostgreSQL.
type PostgresReportRepository struct {
	db      *sql.DB
	version string
}

// NewPostgresReportRepository creates a new PostgresReportRepository.
func NewPostgresReportRepository(db *sql.DB, version string) *PostgresReportRepository {
	return &PostgresReportRepository{db: db, version: version}
}

// SaveReport saves a pass report to the database.
func (r *PostgresReportRepository) SaveReport(ctx context.Context, report *model.PassReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	query := `
		INSERT INTO remap_reports (jid, report, version)
		VALUES ($1, $2, $3)
	`

	_, err = r.db.ExecContext(ctx, query, report.JobUUID, reportJSON, r.version)
	if err != nil {
		return fmt.Errorf("failed to save pass report: %w", err)
	}

	return nil
}

// GetReportByJobUUID retrieves the pass report for a job.
func (r *PostgresReportRepository) GetReportByJobUUID(ctx context.Context, jobUUID string) (*model.PassReport, error) {
	query := `
		SELECT jid, report, version
		FROM remap_reports
		WHERE jid = $1
	`

	var jid, version string
	var reportJSON []byte

	err := r.db.QueryRowContext(ctx, query, jobUUID).Scan(&jid, &reportJSON, &version)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("report not found for job: %s", jobUUID)
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	report := &model.PassReport{}
	if reportJSON != nil {
		if err := json.Unmarshal(reportJSON, report); err != nil {
			return nil, fmt.Errorf("failed to unmarshal report: %w", err)
		}
	}
	report.JobUUID = jid
	report.Version = version

	return report, nil
}

// UpdateReport updates an existing pass report.
func (r *PostgresReportRepository) UpdateReport(ctx context.Context, report *model.PassReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	query := `
		UPDATE remap_reports
		SET report = $1, version = $2
		WHERE jid = $3
	`

	res, err := r.db.ExecContext(ctx, query, reportJSON, r.version, report.JobUUID)
	if err != nil {
		return fmt.Errorf("failed to update report: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("report not found for job: %s", report.JobUUID)
	}

	return nil
}

// PostgresSuggestionRepository implements SuggestionRepository for PostgreSQL.
type PostgresSuggestionRepository struct {
	db *sql.DB
}

// NewPostgresSuggestionRepository creates a new PostgresSuggestionRepository.
func NewPostgresSuggestionRepository(db *sql.DB) *PostgresSuggestionRepository {
	return &PostgresSuggestionRepository{db: db}
}

// SaveSuggestions saves multiple suggestions to the database.
func (r *PostgresSuggestionRepository) SaveSuggestions(ctx context.Context, suggestions []model.Suggestion) error {
	if len(suggestions) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO remap_suggestions (jid, type, severity, suggestion, class_name, detail, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	now := time.Now()
	for _, sug := range suggestions {
		if sug.IsEmpty() {
			continue
		}

		detailJSON := "{}"
		if sug.Detail != nil {
			detailJSON = string(sug.Detail)
		}

		_, err := tx.ExecContext(ctx, query,
			sug.JobUUID, sug.Type, sug.Severity, sug.Suggestion,
			sug.ClassName, detailJSON, now, now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert suggestion: %w", err)
		}
	}

	return tx.Commit()
}

// GetSuggestionsByJobUUID retrieves suggestions for a job.
func (r *PostgresSuggestionRepository) GetSuggestionsByJobUUID(ctx context.Context, jobUUID string) ([]model.Suggestion, error) {
	query := `
		SELECT id, jid, COALESCE(type, ''), COALESCE(severity, ''), suggestion,
			   COALESCE(class_name, ''), detail, created_at, updated_at
		FROM remap_suggestions
		WHERE jid = $1
	`

	rows, err := r.db.QueryContext(ctx, query, jobUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to query suggestions: %w", err)
	}
	defer rows.Close()

	var suggestions []model.Suggestion
	for rows.Next() {
		var sug model.Suggestion
		var detailJSON []byte

		err := rows.Scan(
			&sug.ID, &sug.JobUUID, &sug.Type, &sug.Severity, &sug.Suggestion,
			&sug.ClassName, &detailJSON, &sug.CreatedAt, &sug.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan suggestion: %w", err)
		}

		sug.Detail = detailJSON
		suggestions = append(suggestions, sug)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return suggestions, nil
}

// GetSuggestionRules retrieves all active suggestion rules.
func (r *PostgresSuggestionRepository) GetSuggestionRules(ctx context.Context) ([]model.SuggestionRule, error) {
	query := `
		SELECT id, type, operation, target, threshold, suggestion_content
		FROM remap_suggestion_rules
		WHERE deleted IS NULL
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer rows.Close()

	var rules []model.SuggestionRule
	for rows.Next() {
		var rule model.SuggestionRule
		err := rows.Scan(
			&rule.ID, &rule.Type, &rule.Operation, &rule.Target,
			&rule.Threshold, &rule.SuggestionContent,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rules = append(rules, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return rules, nil
}
