package model

// JobOutcome is the digest stored for one finished batch member.
type JobOutcome struct {
	Status           string       `json:"status"`
	GroupsRewritten  int          `json:"groups_rewritten"`
	ElementsRemapped int          `json:"elements_remapped"`
	ElementsDeleted  int          `json:"elements_deleted"`
	Suggestions      []Suggestion `json:"suggestions,omitempty"`
}

// BatchOutcome aggregates per-job outcomes for one submission batch,
// keyed by job UUID.
type BatchOutcome struct {
	Jobs map[string]JobOutcome `json:"jobs"`
}

// NewBatchOutcome creates an empty BatchOutcome.
func NewBatchOutcome() *BatchOutcome {
	return &BatchOutcome{
		Jobs: make(map[string]JobOutcome),
	}
}

// AddJobOutcome records the outcome for one batch member. A later
// outcome for the same job replaces the earlier one.
func (b *BatchOutcome) AddJobOutcome(jobUUID string, outcome JobOutcome) {
	if b.Jobs == nil {
		b.Jobs = make(map[string]JobOutcome)
	}
	b.Jobs[jobUUID] = outcome
}

// OutcomeFromReport builds a JobOutcome digest from a pass report and
// the suggestions derived from it.
func OutcomeFromReport(status string, report *PassReport, suggestions []Suggestion) JobOutcome {
	outcome := JobOutcome{
		Status:      status,
		Suggestions: suggestions,
	}
	if report != nil {
		outcome.GroupsRewritten = report.GroupsRewritten
		outcome.ElementsRemapped = report.ElementsRemapped
		outcome.ElementsDeleted = report.ElementsDeleted
	}
	return outcome
}
