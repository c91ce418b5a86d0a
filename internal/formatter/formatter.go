// Package formatter renders remap pass reports for different views.
package formatter

import (
	"github.com/resopt/pkg/model"
	"github.com/resopt/pkg/utils"
)

// ReportFormatter is the interface for rendering a pass report.
type ReportFormatter interface {
	// Format outputs the report to the logger.
	Format(report *model.PassReport, log utils.Logger)

	// FormatSummary returns a summary map for serialization.
	FormatSummary(report *model.PassReport) map[string]interface{}

	// Views returns the view names this formatter supports.
	Views() []string
}

// Registry manages formatter instances keyed by view name.
type Registry struct {
	formatters map[string]ReportFormatter
	fallback   ReportFormatter
}

// NewRegistry creates a new formatter registry with default formatters.
func NewRegistry() *Registry {
	r := &Registry{
		formatters: make(map[string]ReportFormatter),
		fallback:   &SummaryFormatter{},
	}

	// Register default formatters
	r.Register(&SummaryFormatter{})
	r.Register(&ClassesFormatter{})
	r.Register(&DiagnosticsFormatter{})

	return r
}

// Register registers a formatter.
func (r *Registry) Register(f ReportFormatter) {
	for _, v := range f.Views() {
		r.formatters[v] = f
	}
}

// Get returns the formatter for a view name.
func (r *Registry) Get(view string) ReportFormatter {
	if f, ok := r.formatters[view]; ok {
		return f
	}
	return r.fallback
}

// Format renders the report for the named view.
func (r *Registry) Format(view string, report *model.PassReport, log utils.Logger) {
	if report == nil {
		return
	}
	r.Get(view).Format(report, log)
}

// FormatSummary returns a summary map for the named view.
func (r *Registry) FormatSummary(view string, report *model.PassReport) map[string]interface{} {
	if report == nil {
		return nil
	}
	return r.Get(view).FormatSummary(report)
}

// truncateString truncates a string to maxLen characters.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
