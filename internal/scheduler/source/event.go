package source

import (
	"github.com/resopt/pkg/model"
)

// JobEvent is the unified job event emitted by every source.
type JobEvent struct {
	// ID is the job UUID carried by this event.
	ID string

	// Job is the queued remap job.
	Job *model.Job

	// SourceType and SourceName identify the emitting source instance.
	SourceType SourceType
	SourceName string

	// Priority above zero lets the job use the reserved worker slots.
	Priority int

	// Metadata holds source-specific annotations.
	Metadata map[string]string
}

// NewJobEvent creates a JobEvent for a queued job.
func NewJobEvent(job *model.Job, sourceType SourceType, sourceName string) *JobEvent {
	priority := 0
	if job.IsHighPriority() {
		priority = 1
	}

	return &JobEvent{
		ID:         job.JobUUID,
		Job:        job,
		SourceType: sourceType,
		SourceName: sourceName,
		Priority:   priority,
		Metadata:   make(map[string]string),
	}
}

// WithMetadata annotates the event and returns it for chaining.
func (e *JobEvent) WithMetadata(key, value string) *JobEvent {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

// GetMetadata retrieves a metadata value by key.
func (e *JobEvent) GetMetadata(key string) string {
	if e.Metadata == nil {
		return ""
	}
	return e.Metadata[key]
}
