package source

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resopt/pkg/model"
)

// fakeJobRepo is an in-memory JobRepository for source tests.
type fakeJobRepo struct {
	mu       sync.Mutex
	jobs     []*model.Job
	statuses map[int64]model.RemapStatus
	infos    map[int64]string
	lockErr  error
	fetchErr error
}

func newFakeJobRepo(jobs ...*model.Job) *fakeJobRepo {
	return &fakeJobRepo{
		jobs:     jobs,
		statuses: make(map[int64]model.RemapStatus),
		infos:    make(map[int64]string),
	}
}

func (r *fakeJobRepo) GetPendingJobs(ctx context.Context, limit int) ([]*model.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fetchErr != nil {
		return nil, r.fetchErr
	}

	pending := make([]*model.Job, 0)
	for _, j := range r.jobs {
		if j.Status == model.JobStatusPending && len(pending) < limit {
			pending = append(pending, j)
		}
	}
	return pending, nil
}

func (r *fakeJobRepo) GetJobByID(ctx context.Context, id int64) (*model.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, j := range r.jobs {
		if j.ID == id {
			return j, nil
		}
	}
	return nil, fmt.Errorf("job %d not found", id)
}

func (r *fakeJobRepo) GetJobByUUID(ctx context.Context, uuid string) (*model.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, j := range r.jobs {
		if j.JobUUID == uuid {
			return j, nil
		}
	}
	return nil, fmt.Errorf("job %s not found", uuid)
}

func (r *fakeJobRepo) UpdateRemapStatus(ctx context.Context, id int64, status model.RemapStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses[id] = status
	return nil
}

func (r *fakeJobRepo) UpdateRemapStatusWithInfo(ctx context.Context, id int64, status model.RemapStatus, info string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses[id] = status
	r.infos[id] = info
	return nil
}

func (r *fakeJobRepo) LockJobForRemap(ctx context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lockErr != nil {
		return false, r.lockErr
	}
	for _, j := range r.jobs {
		if j.ID == id && j.Status == model.JobStatusPending {
			j.Status = model.JobStatusRunning
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeJobRepo) statusOf(id int64) model.RemapStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.statuses[id]
}

func TestDatabaseSource_PollEmitsClaimedJobs(t *testing.T) {
	job := model.NewJob(1, "jid-1", "dumps/jid-1.json.zst", "tables/jid-1.json")
	repo := newFakeJobRepo(job)

	src := NewDatabaseSourceWithDeps("db-test", &DatabaseOptions{
		PollInterval: 50 * time.Millisecond,
		BatchSize:    5,
	}, repo, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, src.Start(ctx))
	defer src.Stop()

	select {
	case event := <-src.Jobs():
		assert.Equal(t, "jid-1", event.ID)
		assert.Equal(t, SourceTypeDB, event.SourceType)
		assert.NotEmpty(t, event.GetMetadata("locked_at"))
		// The job was claimed before it was emitted.
		assert.Equal(t, model.JobStatusRunning, job.Status)
	case <-time.After(2 * time.Second):
		t.Fatal("no event emitted")
	}

	// A claimed job must not be emitted twice.
	select {
	case event := <-src.Jobs():
		t.Fatalf("unexpected second event: %s", event.ID)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestDatabaseSource_AckNack(t *testing.T) {
	job := model.NewJob(7, "jid-7", "dumps/jid-7.json", "tables/jid-7.json")
	repo := newFakeJobRepo(job)
	src := NewDatabaseSourceWithDeps("db-test", nil, repo, nil)

	ctx := context.Background()
	event := NewJobEvent(job, SourceTypeDB, "db-test")

	require.NoError(t, src.Ack(ctx, event))
	assert.Equal(t, model.RemapStatusCompleted, repo.statusOf(7))

	// Nack returns the claim for a later retry instead of failing the job.
	require.NoError(t, src.Nack(ctx, event, "no worker slot available"))
	assert.Equal(t, model.RemapStatusPending, repo.statusOf(7))
	assert.Equal(t, "no worker slot available", repo.infos[7])
}

func TestDatabaseSource_HealthCheck(t *testing.T) {
	repo := newFakeJobRepo()
	src := NewDatabaseSourceWithDeps("db-test", nil, repo, nil)

	assert.NoError(t, src.HealthCheck(context.Background()))

	repo.fetchErr = fmt.Errorf("connection refused")
	assert.Error(t, src.HealthCheck(context.Background()))
}

func TestDatabaseSource_StartWithoutRepository(t *testing.T) {
	src, err := NewDatabaseSource(&SourceConfig{Type: SourceTypeDB, Name: "db-bare"})
	require.NoError(t, err)

	// Without a repository Start is a no-op rather than a failure.
	assert.NoError(t, src.Start(context.Background()))
	assert.NoError(t, src.Stop())
}
