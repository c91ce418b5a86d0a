package scheduler

import (
	"context"

	"github.com/resopt/internal/repository"
	"github.com/resopt/pkg/model"
)

// RepositoryJobFetcher exposes the job queue through the repository
// interfaces for callers outside the source event loop, such as the
// one-shot drain mode of the daemon.
type RepositoryJobFetcher struct {
	jobRepo        repository.JobRepository
	suggestionRepo repository.SuggestionRepository
}

// NewRepositoryJobFetcher creates a new RepositoryJobFetcher.
func NewRepositoryJobFetcher(jobRepo repository.JobRepository, suggestionRepo repository.SuggestionRepository) *RepositoryJobFetcher {
	return &RepositoryJobFetcher{
		jobRepo:        jobRepo,
		suggestionRepo: suggestionRepo,
	}
}

// FetchPendingJobs returns pending jobs ready for remapping.
func (f *RepositoryJobFetcher) FetchPendingJobs(ctx context.Context, limit int) ([]*Job, error) {
	jobs, err := f.jobRepo.GetPendingJobs(ctx, limit)
	if err != nil {
		return nil, err
	}

	result := make([]*Job, len(jobs))
	for i, j := range jobs {
		result[i] = convertModelJob(j)
	}

	return result, nil
}

// LockJob attempts to claim a job for processing.
func (f *RepositoryJobFetcher) LockJob(ctx context.Context, jobID int64) (bool, error) {
	return f.jobRepo.LockJobForRemap(ctx, jobID)
}

// UpdateJobStatus updates the remap status of a job.
func (f *RepositoryJobFetcher) UpdateJobStatus(ctx context.Context, jobID int64, status model.RemapStatus, info string) error {
	if info != "" {
		return f.jobRepo.UpdateRemapStatusWithInfo(ctx, jobID, status, info)
	}
	return f.jobRepo.UpdateRemapStatus(ctx, jobID, status)
}

// FetchSuggestionRules returns the stored suggestion rules.
func (f *RepositoryJobFetcher) FetchSuggestionRules(ctx context.Context) ([]model.SuggestionRule, error) {
	return f.suggestionRepo.GetSuggestionRules(ctx)
}

// convertModelJob converts a model.Job to a scheduler.Job.
func convertModelJob(j *model.Job) *Job {
	job := &Job{
		ID:        j.ID,
		UUID:      j.JobUUID,
		DumpKey:   j.DumpKey,
		TableKey:  j.TableKey,
		OutputKey: j.OutputKey,
		UserName:  j.UserName,
		BatchUUID: j.BatchUUID,
		Bucket:    j.Bucket,
		Params:    j.Params,
	}

	if j.IsHighPriority() {
		job.Priority = j.Params.Priority
	}

	return job
}
