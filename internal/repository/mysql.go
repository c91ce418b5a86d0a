package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/resopt/pkg/model"
)

// MySQLJobRepository implements JobRepository for MySQL.
type MySQLJobRepository struct {
	db *sql.DB
}

// NewMySQLJobRepository creates a new MySQLJobRepository.
func NewMySQLJobRepository(db *sql.DB) *MySQLJobRepository {
	return &MySQLJobRepository{db: db}
}

// GetPendingJobs retrieves jobs whose remap pass has not started.
func (r *MySQLJobRepository) GetPendingJobs(ctx context.Context, limit int) ([]*model.Job, error) {
	query := `
		SELECT id, jid, status, remap_status,
			   COALESCE(status_info, ''), COALESCE(dump_key, ''),
			   COALESCE(table_key, ''), COALESCE(output_key, ''),
			   COALESCE(report_file, ''), COALESCE(user_name, ''),
			   batch_jid, COALESCE(bucket, ''),
			   request_params, create_time, begin_time, end_time
		FROM remap_job
		WHERE status = ? AND remap_status = ?
		ORDER BY id DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, model.JobStatusPending, model.RemapStatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending jobs: %w", err)
	}
	defer rows.Close()

	return r.scanJobs(rows)
}

// GetJobByID retrieves a job by its ID.
func (r *MySQLJobRepository) GetJobByID(ctx context.Context, id int64) (*model.Job, error) {
	query := `
		SELECT id, jid, status, remap_status,
			   COALESCE(status_info, ''), COALESCE(dump_key, ''),
			   COALESCE(table_key, ''), COALESCE(output_key, ''),
			   COALESCE(report_file, ''), COALESCE(user_name, ''),
			   batch_jid, COALESCE(bucket, ''),
			   request_params, create_time, begin_time, end_time
		FROM remap_job
		WHERE id = ?
	`

	job, err := r.scanJobRow(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("job not found: %d", id)
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return job, nil
}

// GetJobByUUID retrieves a job by its UUID.
func (r *MySQLJobRepository) GetJobByUUID(ctx context.Context, uuid string) (*model.Job, error) {
	query := `
		SELECT id, jid, status, remap_status,
			   COALESCE(status_info, ''), COALESCE(dump_key, ''),
			   COALESCE(table_key, ''), COALESCE(output_key, ''),
			   COALESCE(report_file, ''), COALESCE(user_name, ''),
			   batch_jid, COALESCE(bucket, ''),
			   request_params, create_time, begin_time, end_time
		FROM remap_job
		WHERE jid = ?
	`

	job, err := r.scanJobRow(r.db.QueryRowContext(ctx, query, uuid))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("job not found: %s", uuid)
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return job, nil
}

// UpdateRemapStatus updates the remap status of a job.
func (r *MySQLJobRepository) UpdateRemapStatus(ctx context.Context, id int64, status model.RemapStatus) error {
	query := `UPDATE remap_job SET remap_status = ? WHERE id = ?`
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
func (r *MySQLJobRepository) UpdateRemapStatusWithInfo(ctx context.Context, id int64, status model.RemapStatus, info string) error {
	query := `UPDATE remap_job SET remap_status = ?, status_info = ? WHERE id = ?`
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

// LockJobForRemap attempts to claim a job using FOR UPDATE.
func (r *MySQLJobRepository) LockJobForRemap(ctx context.Context, id int64) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var remapStatus model.RemapStatus
	query := `SELECT remap_status FROM remap_job WHERE id = ? AND remap_status = ? FOR UPDATE`
	err = tx.QueryRowContext(ctx, query, id, model.RemapStatusPending).Scan(&remapStatus)
	if err != nil {
		if err == sql.ErrNoRows || strings.Contains(err.Error(), "lock wait timeout") {
			return false, nil
		}
		return false, fmt.Errorf("failed to lock job: %w", err)
	}

	// Update status to running
	updateQuery := `UPDATE remap_job SET remap_status = ? WHERE id = ?`
	_, err = tx.ExecContext(ctx, updateQuery, model.RemapStatusRunning, id)
	if err != nil {
		return false, fmt.Errorf("failed to update status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return true, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanning.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanJobRow scans a single job from a row.
func (r *MySQLJobRepository) scanJobRow(row rowScanner) (*model.Job, error) {
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

// scanJobs scans multiple jobs from rows.
func (r *MySQLJobRepository) scanJobs(rows *sql.Rows) ([]*model.Job, error) {
	var jobs []*model.Job

	for rows.Next() {
		job, err := r.scanJobRow(rows)
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

// MySQLReportRepository implements ReportRepository for MySQL.
type MySQLReportRepository struct {
	db      *sql.DB
	version string
}

// NewMySQLReportRepository creates a new MySQLReportRepository.
func NewMySQLReportRepository(db *sql.DB, version string) *MySQLReportRepository {
	return &MySQLReportRepository{db: db, version: version}
}

// SaveReport saves a pass report to the database.
func (r *MySQLReportRepository) SaveReport(ctx context.Context, report *model.PassReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	query := `
		INSERT INTO remap_reports (jid, report, version)
		VALUES (?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query, report.JobUUID, reportJSON, r.version)
	if err != nil {
		return fmt.Errorf("failed to save pass report: %w", err)
	}

	return nil
}

// GetReportByJobUUID retrieves the pass report for a job.
func (r *MySQLReportRepository) GetReportByJobUUID(ctx context.Context, jobUUID string) (*model.PassReport, error) {
	query := `
		SELECT jid, report, version
		FROM remap_reports
		WHERE jid = ?
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
func (r *MySQLReportRepository) UpdateReport(ctx context.Context, report *model.PassReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	query := `
		UPDATE remap_reports
		SET report = ?, version = ?
		WHERE jid = ?
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

// MySQLSuggestionRepository implements SuggestionRepository for MySQL.
type MySQLSuggestionRepository struct {
	db *sql.DB
}

// NewMySQLSuggestionRepository creates a new MySQLSuggestionRepository.
func NewMySQLSuggestionRepository(db *sql.DB) *MySQLSuggestionRepository {
	return &MySQLSuggestionRepository{db: db}
}

// SaveSuggestions saves multiple suggestions to the database.
func (r *MySQLSuggestionRepository) SaveSuggestions(ctx context.Context, suggestions []model.Suggestion) error {
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
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
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
func (r *MySQLSuggestionRepository) GetSuggestionsByJobUUID(ctx context.Context, jobUUID string) ([]model.Suggestion, error) {
	query := `
		SELECT id, jid, COALESCE(type, ''), COALESCE(severity, ''), suggestion,
			   COALESCE(class_name, ''), detail, created_at, updated_at
		FROM remap_suggestions
		WHERE jid = ?
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
func (r *MySQLSuggestionRepository) GetSuggestionRules(ctx context.Context) ([]model.SuggestionRule, error) {
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
