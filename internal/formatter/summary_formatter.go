package formatter

import (
	"github.com/resopt/pkg/model"
	"github.com/resopt/pkg/utils"
)

// SummaryFormatter renders the pass totals. It is also the fallback
// for unknown view names.
type SummaryFormatter struct{}

// Views returns the view names this formatter supports.
func (f *SummaryFormatter) Views() []string {
	return []string{"summary"}
}

// Format outputs the pass totals to the logger.
func (f *SummaryFormatter) Format(report *model.PassReport, log utils.Logger) {
	log.Info("=== Remap Results ===")
	if report.JobUUID != "" {
		log.Info("Job UUID:          %s", report.JobUUID)
	}
	log.Info("Classes Scanned:   %d", report.ClassesScanned)
	log.Info("Classes Rewritten: %d", report.ClassesRewritten)
	log.Info("Classes Failed:    %d", report.ClassesFailed)
	log.Info("Groups Rewritten:  %d/%d (%d skipped)",
		report.GroupsRewritten, report.GroupsScanned, report.GroupsSkipped)
	log.Info("Elements:          %d kept, %d remapped, %d deleted",
		report.ElementsKept, report.ElementsRemapped, report.ElementsDeleted)
	if !report.FinishedAt.IsZero() {
		log.Info("Finished At:       %s", report.FinishedAt.Format("2006-01-02 15:04:05"))
	}
	log.Info("")
}

// FormatSummary returns a summary map for serialization.
func (f *SummaryFormatter) FormatSummary(report *model.PassReport) map[string]interface{} {
	return map[string]interface{}{
		"job_uuid":          report.JobUUID,
		"classes_scanned":   report.ClassesScanned,
		"classes_rewritten": report.ClassesRewritten,
		"classes_failed":    report.ClassesFailed,
		"groups_scanned":    report.GroupsScanned,
		"groups_rewritten":  report.GroupsRewritten,
		"groups_skipped":    report.GroupsSkipped,
		"elements_kept":     report.ElementsKept,
		"elements_remapped": report.ElementsRemapped,
		"elements_deleted":  report.ElementsDeleted,
	}
}
