package repository

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/resopt/pkg/model"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// Create tables
	err = db.AutoMigrate(
		&RemapJob{},
		&RemapReport{},
		&RemapSuggestion{},
		&RemapSuggestionRule{},
		&RemapBatch{},
	)
	require.NoError(t, err)

	return db
}

func TestGormJobRepository_GetPendingJobs(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormJobRepository(db)
	ctx := context.Background()

	t.Run("GetPendingJobs_Empty", func(t *testing.T) {
		jobs, err := repo.GetPendingJobs(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, jobs)
	})

	t.Run("GetPendingJobs_WithData", func(t *testing.T) {
		// Insert test data
		job := &RemapJob{
			JID:         "test-uuid-1",
			Status:      model.JobStatusPending,
			RemapStatus: model.RemapStatusPending,
			DumpKey:     "dumps/test-uuid-1.json.zst",
			TableKey:    "tables/test-uuid-1.json",
			UserName:    "testuser",
		}
		require.NoError(t, db.Create(job).Error)

		jobs, err := repo.GetPendingJobs(ctx, 10)
		require.NoError(t, err)
		require.Len(t, jobs, 1)
		assert.Equal(t, "test-uuid-1", jobs[0].JobUUID)
		assert.Equal(t, "dumps/test-uuid-1.json.zst", jobs[0].DumpKey)
	})

	t.Run("GetPendingJobs_SkipsRunning", func(t *testing.T) {
		job := &RemapJob{
			JID:         "test-uuid-running",
			Status:      model.JobStatusPending,
			RemapStatus: model.RemapStatusRunning,
		}
		require.NoError(t, db.Create(job).Error)

		jobs, err := repo.GetPendingJobs(ctx, 10)
		require.NoError(t, err)
		require.Len(t, jobs, 1)
		assert.Equal(t, "test-uuid-1", jobs[0].JobUUID)
	})
}

func TestGormJobRepository_GetJobByID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormJobRepository(db)
	ctx := context.Background()

	t.Run("GetJobByID_NotFound", func(t *testing.T) {
		job, err := repo.GetJobByID(ctx, 999)
		assert.Error(t, err)
		assert.Nil(t, job)
		assert.Contains(t, err.Error(), "job not found")
	})

	t.Run("GetJobByID_Success", func(t *testing.T) {
		params, _ := json.Marshal(model.RequestParams{MaxWorkers: 4, DryRun: true})
		job := &RemapJob{
			JID:           "test-uuid-2",
			Status:        model.JobStatusPending,
			RemapStatus:   model.RemapStatusPending,
			RequestParams: params,
		}
		require.NoError(t, db.Create(job).Error)

		result, err := repo.GetJobByID(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, "test-uuid-2", result.JobUUID)
		assert.Equal(t, 4, result.Params.MaxWorkers)
		assert.True(t, result.Params.DryRun)
	})
}

func TestGormJobRepository_GetJobByUUID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormJobRepository(db)
	ctx := context.Background()

	t.Run("GetJobByUUID_NotFound", func(t *testing.T) {
		job, err := repo.GetJobByUUID(ctx, "nonexistent")
		assert.Error(t, err)
		assert.Nil(t, job)
		assert.Contains(t, err.Error(), "job not found")
	})

	t.Run("GetJobByUUID_Success", func(t *testing.T) {
		job := &RemapJob{
			JID:         "test-uuid-3",
			Status:      model.JobStatusPending,
			RemapStatus: model.RemapStatusPending,
		}
		require.NoError(t, db.Create(job).Error)

		result, err := repo.GetJobByUUID(ctx, "test-uuid-3")
		require.NoError(t, err)
		assert.Equal(t, job.ID, result.ID)
	})
}

func TestGormJobRepository_UpdateRemapStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormJobRepository(db)
	ctx := context.Background()

	t.Run("UpdateStatus_NotFound", func(t *testing.T) {
		err := repo.UpdateRemapStatus(ctx, 999, model.RemapStatusCompleted)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "job not found")
	})

	t.Run("UpdateStatus_Success", func(t *testing.T) {
		job := &RemapJob{
			JID:         "test-uuid-4",
			Status:      model.JobStatusPending,
			RemapStatus: model.RemapStatusPending,
		}
		require.NoError(t, db.Create(job).Error)

		err := repo.UpdateRemapStatus(ctx, job.ID, model.RemapStatusCompleted)
		require.NoError(t, err)

		// Verify update
		var updated RemapJob
		require.NoError(t, db.First(&updated, job.ID).Error)
		assert.Equal(t, model.RemapStatusCompleted, updated.RemapStatus)
	})

	t.Run("UpdateStatusWithInfo_Success", func(t *testing.T) {
		job := &RemapJob{
			JID:         "test-uuid-5",
			Status:      model.JobStatusPending,
			RemapStatus: model.RemapStatusPending,
		}
		require.NoError(t, db.Create(job).Error)

		err := repo.UpdateRemapStatusWithInfo(ctx, job.ID, model.RemapStatusFailed, "table missing")
		require.NoError(t, err)

		var updated RemapJob
		require.NoError(t, db.First(&updated, job.ID).Error)
		assert.Equal(t, model.RemapStatusFailed, updated.RemapStatus)
		assert.Equal(t, "table missing", updated.StatusInfo)
	})
}

func TestGormJobRepository_LockJobForRemap(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormJobRepository(db)
	ctx := context.Background()

	t.Run("Lock_Success", func(t *testing.T) {
		job := &RemapJob{
			JID:         "test-uuid-6",
			Status:      model.JobStatusPending,
			RemapStatus: model.RemapStatusPending,
		}
		require.NoError(t, db.Create(job).Error)

		locked, err := repo.LockJobForRemap(ctx, job.ID)
		require.NoError(t, err)
		assert.True(t, locked)

		var updated RemapJob
		require.NoError(t, db.First(&updated, job.ID).Error)
		assert.Equal(t, model.RemapStatusRunning, updated.RemapStatus)
	})

	t.Run("Lock_AlreadyClaimed", func(t *testing.T) {
		job := &RemapJob{
			JID:         "test-uuid-7",
			Status:      model.JobStatusPending,
			RemapStatus: model.RemapStatusRunning,
		}
		require.NoError(t, db.Create(job).Error)

		locked, err := repo.LockJobForRemap(ctx, job.ID)
		require.NoError(t, err)
		assert.False(t, locked)
	})
}

func TestGormReportRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormReportRepository(db, "1.0.0")
	ctx := context.Background()

	report := &model.PassReport{JobUUID: "test-uuid-1"}
	report.Add(model.ClassReport{ClassName: "Lcom/app/R;", Role: "sequential", GroupsScanned: 2, GroupsRewritten: 2, ElementsKept: 5, ElementsDeleted: 1})

	t.Run("SaveReport_Success", func(t *testing.T) {
		require.NoError(t, repo.SaveReport(ctx, report))
	})

	t.Run("GetReport_Success", func(t *testing.T) {
		loaded, err := repo.GetReportByJobUUID(ctx, "test-uuid-1")
		require.NoError(t, err)
		assert.Equal(t, "test-uuid-1", loaded.JobUUID)
		assert.Equal(t, "1.0.0", loaded.Version)
		require.Len(t, loaded.Classes, 1)
		assert.Equal(t, "Lcom/app/R;", loaded.Classes[0].ClassName)
		assert.Equal(t, 5, loaded.ElementsKept)
	})

	t.Run("GetReport_NotFound", func(t *testing.T) {
		_, err := repo.GetReportByJobUUID(ctx, "nonexistent")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "report not found")
	})

	t.Run("UpdateReport_Success", func(t *testing.T) {
		report.Add(model.ClassReport{ClassName: "Lcom/app/R$styleable;", Role: "positional", GroupsScanned: 1, GroupsRewritten: 1, ElementsKept: 2})
		require.NoError(t, repo.UpdateReport(ctx, report))

		loaded, err := repo.GetReportByJobUUID(ctx, "test-uuid-1")
		require.NoError(t, err)
		assert.Len(t, loaded.Classes, 2)
	})

	t.Run("UpdateReport_NotFound", func(t *testing.T) {
		missing := &model.PassReport{JobUUID: "nonexistent"}
		err := repo.UpdateReport(ctx, missing)
		assert.Error(t, err)
	})
}

func TestGormSuggestionRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormSuggestionRepository(db)
	ctx := context.Background()

	t.Run("SaveSuggestions_Empty", func(t *testing.T) {
		require.NoError(t, repo.SaveSuggestions(ctx, nil))
	})

	t.Run("SaveSuggestions_SkipsBlank", func(t *testing.T) {
		suggestions := []model.Suggestion{
			{JobUUID: "test-uuid-1", Type: "high_deletion_ratio", Severity: "warning", Suggestion: "verify keep rules", ClassName: "Lcom/app/R$drawable;"},
			{JobUUID: "test-uuid-1", Suggestion: ""},
		}
		require.NoError(t, repo.SaveSuggestions(ctx, suggestions))

		loaded, err := repo.GetSuggestionsByJobUUID(ctx, "test-uuid-1")
		require.NoError(t, err)
		require.Len(t, loaded, 1)
		assert.Equal(t, "high_deletion_ratio", loaded[0].Type)
		assert.Equal(t, "Lcom/app/R$drawable;", loaded[0].ClassName)
	})

	t.Run("GetSuggestionRules", func(t *testing.T) {
		deleted := int64(1)
		require.NoError(t, db.Create(&RemapSuggestionRule{
			Type: "remap", Target: "deletion_ratio", Operation: ">", Threshold: 0.5,
			SuggestionContent: "heavy shrink",
		}).Error)
		require.NoError(t, db.Create(&RemapSuggestionRule{
			Type: "remap", Target: "classes_failed", Threshold: 1, Deleted: &deleted,
		}).Error)

		rules, err := repo.GetSuggestionRules(ctx)
		require.NoError(t, err)
		require.Len(t, rules, 1)
		assert.Equal(t, "deletion_ratio", rules[0].Target)
	})
}

func TestGormBatchRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormBatchRepository(db)
	jobRepo := NewGormJobRepository(db)
	ctx := context.Background()

	jobJIDs, _ := json.Marshal([]string{"member-1", "member-2"})
	require.NoError(t, db.Create(&RemapBatch{
		JID:         "batch-1",
		JobJIDs:     jobJIDs,
		RemapStatus: model.RemapStatusPending,
	}).Error)

	batchJID := "batch-1"
	member := &RemapJob{
		JID:         "member-1",
		Status:      model.JobStatusPending,
		RemapStatus: model.RemapStatusPending,
		BatchJID:    &batchJID,
	}
	require.NoError(t, db.Create(member).Error)

	t.Run("GetBatch_Success", func(t *testing.T) {
		batch, err := repo.GetBatch(ctx, "batch-1")
		require.NoError(t, err)
		assert.Equal(t, []string{"member-1", "member-2"}, batch.JobUUIDs)
		assert.Equal(t, model.RemapStatusPending, batch.RemapStatus)
	})

	t.Run("GetBatch_NotFound", func(t *testing.T) {
		_, err := repo.GetBatch(ctx, "nonexistent")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "batch not found")
	})

	t.Run("UpdateBatchOutcome", func(t *testing.T) {
		outcome := model.OutcomeFromReport("completed", nil, nil)
		outcome.GroupsRewritten = 3
		require.NoError(t, repo.UpdateBatchOutcome(ctx, "batch-1", "member-1", &outcome))

		batch, err := repo.GetBatch(ctx, "batch-1")
		require.NoError(t, err)
		require.NotNil(t, batch.Outcome)
		assert.Equal(t, 3, batch.Outcome.Jobs["member-1"].GroupsRewritten)
	})

	t.Run("IncompleteCountAndComplete", func(t *testing.T) {
		count, err := repo.GetIncompleteJobCount(ctx, "batch-1")
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		require.NoError(t, jobRepo.UpdateRemapStatus(ctx, member.ID, model.RemapStatusCompleted))

		require.NoError(t, repo.CheckAndCompleteIfReady(ctx, "batch-1"))
		batch, err := repo.GetBatch(ctx, "batch-1")
		require.NoError(t, err)
		assert.Equal(t, model.RemapStatusCompleted, batch.RemapStatus)
	})
}
