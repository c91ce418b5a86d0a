// Package model defines the core data structures shared by the remap
// engine, the job pipeline and the report API.
package model

import (
	"encoding/json"
	"time"
)

// JobStatus represents the lifecycle state of a remap job.
type JobStatus int

const (
	JobStatusPending   JobStatus = 0 // Waiting to be claimed
	JobStatusRunning   JobStatus = 1 // Claimed by a worker
	JobStatusCompleted JobStatus = 2 // Rewritten dump uploaded
	JobStatusFailed    JobStatus = 3 // Unrecoverable failure
)

// String returns the string representation of JobStatus.
func (s JobStatus) String() string {
	switch s {
	case JobStatusPending:
		return "pending"
	case JobStatusRunning:
		return "running"
	case JobStatusCompleted:
		return "completed"
	case JobStatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RemapStatus tracks the engine phase inside a running job.
type RemapStatus int

const (
	RemapStatusPending   RemapStatus = 0 // Not started
	RemapStatusRunning   RemapStatus = 1 // Pass executing
	RemapStatusCompleted RemapStatus = 2 // Pass finished
	RemapStatusFailed    RemapStatus = 3 // Pass aborted
	RemapStatusEmpty     RemapStatus = 5 // No holder classes found
)

// String returns the string representation of RemapStatus.
func (s RemapStatus) String() string {
	switch s {
	case RemapStatusPending:
		return "pending"
	case RemapStatusRunning:
		return "running"
	case RemapStatusCompleted:
		return "completed"
	case RemapStatusFailed:
		return "failed"
	case RemapStatusEmpty:
		return "empty"
	default:
		return "unknown"
	}
}

// Job represents one program dump queued for resource-array remapping.
type Job struct {
	ID          int64         `json:"id" db:"id"`
	JobUUID     string        `json:"jid" db:"jid"`
	Status      JobStatus     `json:"status" db:"status"`
	RemapStatus RemapStatus   `json:"remap_status" db:"remap_status"`
	StatusInfo  string        `json:"status_info" db:"status_info"`
	DumpKey     string        `json:"dump_key" db:"dump_key"`
	TableKey    string        `json:"table_key" db:"table_key"`
	OutputKey   string        `json:"output_key" db:"output_key"`
	ReportFile  string        `json:"report_file" db:"report_file"`
	UserName    string        `json:"user_name" db:"user_name"`
	BatchUUID   *string       `json:"batch_uuid" db:"batch_uuid"`
	Bucket      string        `json:"bucket" db:"bucket"`
	Params      RequestParams `json:"request_params" db:"request_params"`
	CreateTime  time.Time     `json:"create_time" db:"create_time"`
	BeginTime   *time.Time    `json:"begin_time" db:"begin_time"`
	EndTime     *time.Time    `json:"end_time" db:"end_time"`
}

// RequestParams holds per-job request parameters.
type RequestParams struct {
	MaxWorkers        int      `json:"max_workers,omitempty"`
	DryRun            bool     `json:"dry_run,omitempty"`
	Compression       string   `json:"compression,omitempty"`
	CustomizedHolders []string `json:"customized_holders,omitempty"`
	Priority          int      `json:"priority,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler for RequestParams.
func (rp *RequestParams) UnmarshalJSON(data []byte) error {
	type Alias RequestParams
	aux := &struct {
		*Alias
	}{
		Alias: (*Alias)(rp),
	}
	return json.Unmarshal(data, aux)
}

// IsHighPriority returns true if the job should jump the queue.
func (j *Job) IsHighPriority() bool {
	return j.Params.Priority > 0
}

// IsBatchMember returns true if the job belongs to a submission batch.
func (j *Job) IsBatchMember() bool {
	return j.BatchUUID != nil && *j.BatchUUID != ""
}

// NewJob creates a pending Job for a dump/table artifact pair.
func NewJob(id int64, jobUUID, dumpKey, tableKey string) *Job {
	return &Job{
		ID:          id,
		JobUUID:     jobUUID,
		DumpKey:     dumpKey,
		TableKey:    tableKey,
		Status:      JobStatusPending,
		RemapStatus: RemapStatusPending,
		CreateTime:  time.Now(),
	}
}
