package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJobStatus_String(t *testing.T) {
	tests := []struct {
		status   JobStatus
		expected string
	}{
		{JobStatusPending, "pending"},
		{JobStatusRunning, "running"},
		{JobStatusCompleted, "completed"},
		{JobStatusFailed, "failed"},
		{JobStatus(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.status.String())
		})
	}
}

func TestRemapStatus_String(t *testing.T) {
	tests := []struct {
		status   RemapStatus
		expected string
	}{
		{RemapStatusPending, "pending"},
		{RemapStatusRunning, "running"},
		{RemapStatusCompleted, "completed"},
		{RemapStatusFailed, "failed"},
		{RemapStatusEmpty, "empty"},
		{RemapStatus(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.status.String())
		})
	}
}

func TestJob_IsHighPriority(t *testing.T) {
	job := NewJob(1, "job-1", "dumps/a.json.gz", "tables/a.json")
	assert.False(t, job.IsHighPriority())

	job.Params.Priority = 1
	assert.True(t, job.IsHighPriority())
}

func TestJob_IsBatchMember(t *testing.T) {
	job := NewJob(1, "job-1", "dumps/a.json.gz", "tables/a.json")
	assert.False(t, job.IsBatchMember())

	empty := ""
	job.BatchUUID = &empty
	assert.False(t, job.IsBatchMember())

	batch := "batch-7"
	job.BatchUUID = &batch
	assert.True(t, job.IsBatchMember())
}

func TestNewJob_Defaults(t *testing.T) {
	job := NewJob(42, "job-42", "dumps/app.json.zst", "tables/app.json")

	assert.Equal(t, int64(42), job.ID)
	assert.Equal(t, "job-42", job.JobUUID)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.Equal(t, RemapStatusPending, job.RemapStatus)
	assert.False(t, job.CreateTime.IsZero())
}

func TestRequestParams_UnmarshalJSON(t *testing.T) {
	data := []byte(`{"max_workers": 8, "dry_run": true, "customized_holders": ["Lcom/app/CustomR;"]}`)

	var params RequestParams
	err := json.Unmarshal(data, &params)

	assert.NoError(t, err)
	assert.Equal(t, 8, params.MaxWorkers)
	assert.True(t, params.DryRun)
	assert.Equal(t, []string{"Lcom/app/CustomR;"}, params.CustomizedHolders)
}
