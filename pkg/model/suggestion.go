package model

import (
	"encoding/json"
	"time"
)

// Suggestion represents one piece of advice derived from a pass report.
type Suggestion struct {
	ID         int64           `json:"id,omitempty" db:"id"`
	JobUUID    string          `json:"jid" db:"jid"`
	Type       string          `json:"type,omitempty"`
	Severity   string          `json:"severity,omitempty"`
	Suggestion string          `json:"suggestion" db:"suggestion"`
	ClassName  string          `json:"class_name,omitempty" db:"class_name"`
	Detail     json.RawMessage `json:"detail,omitempty" db:"detail"`
	CreatedAt  time.Time       `json:"created_at,omitempty" db:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at,omitempty" db:"updated_at"`
}

// IsEmpty returns true if the suggestion text is empty.
func (s *Suggestion) IsEmpty() bool {
	return s.Suggestion == ""
}

// SuggestionRule represents a rule for generating suggestions from a
// pass report. Rules loaded from the database carry a threshold that
// the advisor compares against the report metric named by Target.
type SuggestionRule struct {
	ID                int64   `json:"id" db:"id"`
	Type              string  `json:"type" db:"type"`
	Operation         string  `json:"operation" db:"operation"`
	Target            string  `json:"target" db:"target"`
	Threshold         float64 `json:"threshold" db:"threshold"`
	SuggestionContent string  `json:"suggestion_content" db:"suggestion_content"`
}

// SuggestionBuilder helps build suggestions with a fluent interface.
type SuggestionBuilder struct {
	suggestion Suggestion
}

// NewSuggestionBuilder creates a new SuggestionBuilder.
func NewSuggestionBuilder() *SuggestionBuilder {
	return &SuggestionBuilder{
		suggestion: Suggestion{
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		},
	}
}

// WithJobUUID sets the job UUID.
func (b *SuggestionBuilder) WithJobUUID(jobUUID string) *SuggestionBuilder {
	b.suggestion.JobUUID = jobUUID
	return b
}

// WithType sets the suggestion type.
func (b *SuggestionBuilder) WithType(typ string) *SuggestionBuilder {
	b.suggestion.Type = typ
	return b
}

// WithSeverity sets the severity.
func (b *SuggestionBuilder) WithSeverity(severity string) *SuggestionBuilder {
	b.suggestion.Severity = severity
	return b
}

// WithSuggestion sets the suggestion text.
func (b *SuggestionBuilder) WithSuggestion(text string) *SuggestionBuilder {
	b.suggestion.Suggestion = text
	return b
}

// WithClass sets the holder class the advice refers to.
func (b *SuggestionBuilder) WithClass(className string) *SuggestionBuilder {
	b.suggestion.ClassName = className
	return b
}

// WithDetail attaches a JSON-serializable detail payload.
func (b *SuggestionBuilder) WithDetail(detail interface{}) *SuggestionBuilder {
	if detail != nil {
		data, err := json.Marshal(detail)
		if err == nil {
			b.suggestion.Detail = data
		}
	}
	return b
}

// Build returns the built Suggestion.
func (b *SuggestionBuilder) Build() Suggestion {
	return b.suggestion
}
