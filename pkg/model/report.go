package model

import "time"

// ClassReport records what the remap pass did to one holder class.
type ClassReport struct {
	ClassName        string `json:"class_name"`
	Store            string `json:"store,omitempty"`
	Role             string `json:"role"`
	Customized       bool   `json:"customized,omitempty"`
	GroupsScanned    int    `json:"groups_scanned"`
	GroupsRewritten  int    `json:"groups_rewritten"`
	GroupsSkipped    int    `json:"groups_skipped"`
	ElementsKept     int    `json:"elements_kept"`
	ElementsRemapped int    `json:"elements_remapped"`
	ElementsDeleted  int    `json:"elements_deleted"`
	Error            string `json:"error,omitempty"`
}

// Failed returns true if the class could not be rewritten.
func (c *ClassReport) Failed() bool {
	return c.Error != ""
}

// DeletionRatio returns the fraction of elements deleted from the
// class's arrays, in [0, 1]. A class with no elements reports 0.
func (c *ClassReport) DeletionRatio() float64 {
	total := c.ElementsKept + c.ElementsDeleted
	if total == 0 {
		return 0
	}
	return float64(c.ElementsDeleted) / float64(total)
}

// PassReport aggregates class reports for one whole remap pass.
//
// Totals are plain sums over the class reports, so merging reports is
// associative and the outcome does not depend on worker scheduling.
type PassReport struct {
	JobUUID          string        `json:"jid,omitempty"`
	Version          string        `json:"version,omitempty"`
	Classes          []ClassReport `json:"classes"`
	ClassesScanned   int           `json:"classes_scanned"`
	ClassesRewritten int           `json:"classes_rewritten"`
	ClassesFailed    int           `json:"classes_failed"`
	GroupsScanned    int           `json:"groups_scanned"`
	GroupsRewritten  int           `json:"groups_rewritten"`
	GroupsSkipped    int           `json:"groups_skipped"`
	ElementsKept     int           `json:"elements_kept"`
	ElementsRemapped int           `json:"elements_remapped"`
	ElementsDeleted  int           `json:"elements_deleted"`
	FinishedAt       time.Time     `json:"finished_at,omitempty"`
}

// Add folds one class report into the pass totals.
func (r *PassReport) Add(c ClassReport) {
	r.Classes = append(r.Classes, c)
	r.ClassesScanned++
	if c.Failed() {
		r.ClassesFailed++
	} else if c.GroupsRewritten > 0 {
		r.ClassesRewritten++
	}
	r.GroupsScanned += c.GroupsScanned
	r.GroupsRewritten += c.GroupsRewritten
	r.GroupsSkipped += c.GroupsSkipped
	r.ElementsKept += c.ElementsKept
	r.ElementsRemapped += c.ElementsRemapped
	r.ElementsDeleted += c.ElementsDeleted
}

// Merge folds another pass report into this one.
func (r *PassReport) Merge(other *PassReport) {
	for _, c := range other.Classes {
		r.Add(c)
	}
}

// FailedClasses returns the reports of classes that errored.
func (r *PassReport) FailedClasses() []ClassReport {
	var failed []ClassReport
	for _, c := range r.Classes {
		if c.Failed() {
			failed = append(failed, c)
		}
	}
	return failed
}
