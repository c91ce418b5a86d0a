package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resopt/pkg/model"
)

func TestMySQLJobRepository_GetPendingJobs(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewMySQLJobRepository(db)

	t.Run("GetPendingJobs_Success", func(t *testing.T) {
		params := model.RequestParams{MaxWorkers: 8}
		paramsJSON, _ := json.Marshal(params)

		rows := sqlmock.NewRows([]string{
			"id", "jid", "status", "remap_status",
			"status_info", "dump_key", "table_key", "output_key",
			"report_file", "user_name", "batch_jid", "bucket",
			"request_params", "create_time", "begin_time", "end_time",
		}).AddRow(
			int64(1), "uuid-1", model.JobStatusPending, model.RemapStatusPending,
			"", "dumps/uuid-1.json.zst", "tables/uuid-1.json", "",
			"", "testuser", nil, "bucket-1",
			paramsJSON, time.Now(), nil, nil,
		)

		mock.ExpectQuery("SELECT id, jid, status").WillReturnRows(rows)

		jobs, err := repo.GetPendingJobs(context.Background(), 10)
		require.NoError(t, err)
		require.Len(t, jobs, 1)
		assert.Equal(t, int64(1), jobs[0].ID)
		assert.Equal(t, 8, jobs[0].Params.MaxWorkers)
	})
}

func TestMySQLJobRepository_UpdateRemapStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewMySQLJobRepository(db)

	t.Run("UpdateStatus_Success", func(t *testing.T) {
		mock.ExpectExec("UPDATE remap_job").
			WithArgs(model.RemapStatusCompleted, int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateRemapStatus(context.Background(), 1, model.RemapStatusCompleted)
		require.NoError(t, err)
	})

	t.Run("UpdateStatus_NotFound", func(t *testing.T) {
		mock.ExpectExec("UPDATE remap_job").
			WithArgs(model.RemapStatusCompleted, int64(2)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateRemapStatus(context.Background(), 2, model.RemapStatusCompleted)
		assert.Error(t, err)
	})
}

func TestMySQLJobRepository_LockJobForRemap(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewMySQLJobRepository(db)

	t.Run("Lock_Success", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT remap_status FROM remap_job").
			WithArgs(int64(1), model.RemapStatusPending).
			WillReturnRows(sqlmock.NewRows([]string{"remap_status"}).AddRow(model.RemapStatusPending))
		mock.ExpectExec("UPDATE remap_job").
			WithArgs(model.RemapStatusRunning, int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		locked, err := repo.LockJobForRemap(context.Background(), 1)
		require.NoError(t, err)
		assert.True(t, locked)
	})

	t.Run("Lock_AlreadyClaimed", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT remap_status FROM remap_job").
			WithArgs(int64(2), model.RemapStatusPending).
			WillReturnRows(sqlmock.NewRows([]string{"remap_status"}))
		mock.ExpectRollback()

		locked, err := repo.LockJobForRemap(context.Background(), 2)
		require.NoError(t, err)
		assert.False(t, locked)
	})
}

func TestMySQLReportRepository_SaveReport(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewMySQLReportRepository(db, "1.0.0")

	t.Run("SaveReport_Success", func(t *testing.T) {
		report := &model.PassReport{JobUUID: "uuid-1"}
		report.Add(model.ClassReport{ClassName: "Lcom/app/R;", GroupsRewritten: 1})

		mock.ExpectExec("INSERT INTO remap_reports").
			WithArgs(report.JobUUID, sqlmock.AnyArg(), "1.0.0").
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := repo.SaveReport(context.Background(), report)
		require.NoError(t, err)
	})
}

func TestMySQLReportRepository_GetReport(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewMySQLReportRepository(db, "1.0.0")

	t.Run("GetReport_Success", func(t *testing.T) {
		stored := &model.PassReport{}
		stored.Add(model.ClassReport{ClassName: "Lcom/app/R;", ElementsKept: 3})
		reportJSON, _ := json.Marshal(stored)

		rows := sqlmock.NewRows([]string{"jid", "report", "version"}).
			AddRow("uuid-1", reportJSON, "0.9.0")
		mock.ExpectQuery("SELECT jid, report, version").WithArgs("uuid-1").WillReturnRows(rows)

		report, err := repo.GetReportByJobUUID(context.Background(), "uuid-1")
		require.NoError(t, err)
		assert.Equal(t, "uuid-1", report.JobUUID)
		assert.Equal(t, "0.9.0", report.Version)
		assert.Equal(t, 3, report.ElementsKept)
	})

	t.Run("GetReport_NotFound", func(t *testing.T) {
		mock.ExpectQuery("SELECT jid, report, version").
			WithArgs("missing").
			WillReturnRows(sqlmock.NewRows([]string{"jid", "report", "version"}))

		_, err := repo.GetReportByJobUUID(context.Background(), "missing")
		assert.Error(t, err)
	})
}

func TestMySQLSuggestionRepository_SaveSuggestions(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewMySQLSuggestionRepository(db)

	t.Run("SaveSuggestions_Success", func(t *testing.T) {
		suggestions := []model.Suggestion{
			{JobUUID: "uuid-1", Type: "structural_failure", Severity: "error", Suggestion: "holder not rewritten"},
		}

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO remap_suggestions").WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		err := repo.SaveSuggestions(context.Background(), suggestions)
		require.NoError(t, err)
	})

	t.Run("SaveSuggestions_Empty", func(t *testing.T) {
		err := repo.SaveSuggestions(context.Background(), nil)
		require.NoError(t, err)
	})
}

func TestMySQLSuggestionRepository_GetSuggestionRules(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewMySQLSuggestionRepository(db)

	rows := sqlmock.NewRows([]string{"id", "type", "operation", "target", "threshold", "suggestion_content"}).
		AddRow(int64(1), "remap", ">", "deletion_ratio", 0.5, "heavy shrink")
	mock.ExpectQuery("SELECT id, type, operation").WillReturnRows(rows)

	rules, err := repo.GetSuggestionRules(context.Background())
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "deletion_ratio", rules[0].Target)
}

func TestMySQLBatchRepository(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewMySQLBatchRepository(db)

	t.Run("GetBatch_Success", func(t *testing.T) {
		jobJIDs := []string{"member-1", "member-2"}
		jobJIDsJSON, _ := json.Marshal(jobJIDs)
		outcomeJSON, _ := json.Marshal(model.NewBatchOutcome())

		rows := sqlmock.NewRows([]string{"jid", "job_jids", "outcome", "remap_status"}).
			AddRow("batch-1", jobJIDsJSON, outcomeJSON, model.RemapStatusRunning)
		mock.ExpectQuery("SELECT jid, job_jids").WithArgs("batch-1").WillReturnRows(rows)

		batch, err := repo.GetBatch(context.Background(), "batch-1")
		require.NoError(t, err)
		assert.Equal(t, jobJIDs, batch.JobUUIDs)
		assert.Equal(t, model.RemapStatusRunning, batch.RemapStatus)
	})

	t.Run("UpdateBatchOutcome_Success", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT outcome FROM remap_batch").
			WithArgs("batch-1").
			WillReturnRows(sqlmock.NewRows([]string{"outcome"}).AddRow([]byte(`{"jobs":{}}`)))
		mock.ExpectExec("UPDATE remap_batch").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		outcome := model.JobOutcome{Status: "completed", GroupsRewritten: 2}
		err := repo.UpdateBatchOutcome(context.Background(), "batch-1", "member-1", &outcome)
		require.NoError(t, err)
	})

	t.Run("CheckAndCompleteIfReady_AllDone", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT").
			WithArgs("batch-1").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectExec("UPDATE remap_batch").WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.CheckAndCompleteIfReady(context.Background(), "batch-1")
		require.NoError(t, err)
	})
}
