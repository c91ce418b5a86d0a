// Package repository provides database abstraction for the resopt service.
package repository

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/resopt/pkg/model"
)

// RemapJob represents the remap_job table.
type RemapJob struct {
	ID            int64             `gorm:"column:id;primaryKey;autoIncrement"`
	JID           string            `gorm:"column:jid;type:varchar(64);uniqueIndex"`
	Status        model.JobStatus   `gorm:"column:status"`
	RemapStatus   model.RemapStatus `gorm:"column:remap_status"`
	StatusInfo    string            `gorm:"column:status_info;type:text"`
	DumpKey       string            `gorm:"column:dump_key;type:varchar(512)"`
	TableKey      string            `gorm:"column:table_key;type:varchar(512)"`
	OutputKey     string            `gorm:"column:output_key;type:varchar(512)"`
	ReportFile    string            `gorm:"column:report_file;type:varchar(512)"`
	UserName      string            `gorm:"column:user_name;type:varchar(128)"`
	BatchJID      *string           `gorm:"column:batch_jid;type:varchar(64)"`
	Bucket        string            `gorm:"column:bucket;type:varchar(128)"`
	RequestParams JSONField         `gorm:"column:request_params;type:json"`
	CreateTime    time.Time         `gorm:"column:create_time;autoCreateTime"`
	BeginTime     *time.Time        `gorm:"column:begin_time"`
	EndTime       *time.Time        `gorm:"column:end_time"`
}

// TableName returns the table name for RemapJob.
func (RemapJob) TableName() string {
	return "remap_job"
}

// ToModel converts RemapJob to model.Job.
func (j *RemapJob) ToModel() *model.Job {
	job := &model.Job{
		ID:          j.ID,
		JobUUID:     j.JID,
		Status:      j.Status,
		RemapStatus: j.RemapStatus,
		StatusInfo:  j.StatusInfo,
		DumpKey:     j.DumpKey,
		TableKey:    j.TableKey,
		OutputKey:   j.OutputKey,
		ReportFile:  j.ReportFile,
		UserName:    j.UserName,
		BatchUUID:   j.BatchJID,
		Bucket:      j.Bucket,
		CreateTime:  j.CreateTime,
		BeginTime:   j.BeginTime,
		EndTime:     j.EndTime,
	}

	if j.RequestParams != nil {
		_ = json.Unmarshal(j.RequestParams, &job.Params)
	}

	return job
}

// RemapReport represents the remap_reports table.
type RemapReport struct {
	ID      int64     `gorm:"column:id;primaryKey;autoIncrement"`
	JID     string    `gorm:"column:jid;type:varchar(64);uniqueIndex"`
	Report  JSONField `gorm:"column:report;type:json"`
	Version string    `gorm:"column:version;type:varchar(32)"`
}

// TableName returns the table name for RemapReport.
func (RemapReport) TableName() string {
	return "remap_reports"
}

// ToModel converts RemapReport to model.PassReport.
func (r *RemapReport) ToModel() (*model.PassReport, error) {
	report := &model.PassReport{}

	if r.Report != nil {
		if err := json.Unmarshal(r.Report, report); err != nil {
			return nil, err
		}
	}

	report.JobUUID = r.JID
	report.Version = r.Version

	return report, nil
}

// RemapSuggestion represents the remap_suggestions table.
type RemapSuggestion struct {
	ID         int64     `gorm:"column:id;primaryKey;autoIncrement"`
	JID        string    `gorm:"column:jid;type:varchar(64);index"`
	Type       string    `gorm:"column:type;type:varchar(64)"`
	Severity   string    `gorm:"column:severity;type:varchar(32)"`
	Suggestion string    `gorm:"column:suggestion;type:text"`
	ClassName  string    `gorm:"column:class_name;type:varchar(512)"`
	Detail     JSONField `gorm:"column:detail;type:json"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the table name for RemapSuggestion.
func (RemapSuggestion) TableName() string {
	return "remap_suggestions"
}

// ToModel converts RemapSuggestion to model.Suggestion.
func (s *RemapSuggestion) ToModel() model.Suggestion {
	return model.Suggestion{
		ID:         s.ID,
		JobUUID:    s.JID,
		Type:       s.Type,
		Severity:   s.Severity,
		Suggestion: s.Suggestion,
		ClassName:  s.ClassName,
		Detail:     json.RawMessage(s.Detail),
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
}

// RemapSuggestionRule represents the remap_suggestion_rules table.
type RemapSuggestionRule struct {
	ID                int64   `gorm:"column:id;primaryKey;autoIncrement"`
	Type              string  `gorm:"column:type;type:varchar(64)"`
	Operation         string  `gorm:"column:operation;type:varchar(64)"`
	Target            string  `gorm:"column:target;type:varchar(512)"`
	Threshold         float64 `gorm:"column:threshold"`
	SuggestionContent string  `gorm:"column:suggestion_content;type:text"`
	Deleted           *int64  `gorm:"column:deleted"`
}

// TableName returns the table name for RemapSuggestionRule.
func (RemapSuggestionRule) TableName() string {
	return "remap_suggestion_rules"
}

// ToModel converts RemapSuggestionRule to model.SuggestionRule.
func (r *RemapSuggestionRule) ToModel() model.SuggestionRule {
	return model.SuggestionRule{
		ID:                r.ID,
		Type:              r.Type,
		Operation:         r.Operation,
		Target:            r.Target,
		Threshold:         r.Threshold,
		SuggestionContent: r.SuggestionContent,
	}
}

// RemapBatch represents the remap_batch table for submission batches.
type RemapBatch struct {
	JID         string            `gorm:"column:jid;type:varchar(64);primaryKey"`
	JobJIDs     JSONField         `gorm:"column:job_jids;type:json"`
	Outcome     JSONField         `gorm:"column:outcome;type:json"`
	RemapStatus model.RemapStatus `gorm:"column:remap_status"`
	EndTime     *time.Time        `gorm:"column:end_time"`
}

// TableName returns the table name for RemapBatch.
func (RemapBatch) TableName() string {
	return "remap_batch"
}

// ToBatch converts RemapBatch to Batch.
func (b *RemapBatch) ToBatch() (*Batch, error) {
	batch := &Batch{
		BatchUUID:   b.JID,
		RemapStatus: b.RemapStatus,
	}

	if b.JobJIDs != nil {
		if err := json.Unmarshal(b.JobJIDs, &batch.JobUUIDs); err != nil {
			return nil, err
		}
	}

	if b.Outcome != nil {
		batch.Outcome = model.NewBatchOutcome()
		if err := json.Unmarshal(b.Outcome, batch.Outcome); err != nil {
			batch.Outcome = model.NewBatchOutcome()
		}
	}

	return batch, nil
}

// JSONField is a custom type for handling JSON fields in GORM.
type JSONField []byte

// Value implements driver.Valuer interface.
func (j JSONField) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return []byte(j), nil
}

// Scan implements sql.Scanner interface.
func (j *JSONField) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		*j = append((*j)[0:0], v...)
		return nil
	case string:
		*j = []byte(v)
		return nil
	default:
		return errors.New("unsupported type for JSONField")
	}
}

// MarshalJSON implements json.Marshaler interface.
func (j JSONField) MarshalJSON() ([]byte, error) {
	if j == nil {
		return []byte("null"), nil
	}
	return j, nil
}

// UnmarshalJSON implements json.Unmarshaler interface.
func (j *JSONField) UnmarshalJSON(data []byte) error {
	if data == nil || string(data) == "null" {
		*j = nil
		return nil
	}
	*j = append((*j)[0:0], data...)
	return nil
}
