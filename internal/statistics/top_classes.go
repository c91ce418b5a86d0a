// Package statistics calculates summary statistics over remap pass
// reports.
package statistics

import (
	"sort"

	"github.com/resopt/pkg/model"
)

// TopClassesCalculator ranks holder classes by how many of their
// resource ids a pass deleted.
type TopClassesCalculator struct {
	topN          int
	includeFailed bool
}

// TopClassesOption configures the TopClassesCalculator.
type TopClassesOption func(*TopClassesCalculator)

// WithTopN sets the number of classes to return.
func WithTopN(n int) TopClassesOption {
	return func(c *TopClassesCalculator) {
		c.topN = n
	}
}

// WithFailed includes classes that failed structurally in the ranking.
func WithFailed(include bool) TopClassesOption {
	return func(c *TopClassesCalculator) {
		c.includeFailed = include
	}
}

// NewTopClassesCalculator creates a new TopClassesCalculator.
func NewTopClassesCalculator(opts ...TopClassesOption) *TopClassesCalculator {
	c := &TopClassesCalculator{
		topN:          15,
		includeFailed: false,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TopClassEntry represents one ranked holder class.
type TopClassEntry struct {
	ClassName       string
	Role            string
	ElementsKept    int
	ElementsDeleted int
	DeletionRatio   float64
}

// TopClassesResult holds the calculation result.
type TopClassesResult struct {
	TopClasses      []TopClassEntry
	TotalElements   int
	TotalDeleted    int
	OverallDeletion float64
}

// Calculate ranks the classes of a pass report.
func (c *TopClassesCalculator) Calculate(report *model.PassReport) *TopClassesResult {
	result := &TopClassesResult{
		TopClasses: make([]TopClassEntry, 0),
	}
	if report == nil {
		return result
	}

	entries := make([]TopClassEntry, 0, len(report.Classes))
	for _, cls := range report.Classes {
		if cls.Failed() && !c.includeFailed {
			continue
		}
		total := cls.ElementsKept + cls.ElementsDeleted
		result.TotalElements += total
		result.TotalDeleted += cls.ElementsDeleted
		if cls.ElementsDeleted == 0 {
			continue
		}
		entries = append(entries, TopClassEntry{
			ClassName:       cls.ClassName,
			Role:            cls.Role,
			ElementsKept:    cls.ElementsKept,
			ElementsDeleted: cls.ElementsDeleted,
			DeletionRatio:   cls.DeletionRatio(),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].ElementsDeleted != entries[j].ElementsDeleted {
			return entries[i].ElementsDeleted > entries[j].ElementsDeleted
		}
		return entries[i].ClassName < entries[j].ClassName
	})

	topN := c.topN
	if topN > len(entries) {
		topN = len(entries)
	}
	result.TopClasses = entries[:topN]

	if result.TotalElements > 0 {
		result.OverallDeletion = float64(result.TotalDeleted) / float64(result.TotalElements)
	}
	return result
}
