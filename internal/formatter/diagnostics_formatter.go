package formatter

import (
	"github.com/resopt/pkg/model"
	"github.com/resopt/pkg/utils"
)

// DiagnosticsFormatter surfaces failures and skipped groups.
type DiagnosticsFormatter struct{}

// Views returns the view names this formatter supports.
func (f *DiagnosticsFormatter) Views() []string {
	return []string{"diagnostics"}
}

// Format outputs failed classes and skip counts to the logger.
func (f *DiagnosticsFormatter) Format(report *model.PassReport, log utils.Logger) {
	log.Info("=== Diagnostics ===")

	failed := report.FailedClasses()
	if len(failed) > 0 {
		log.Info("Failed classes (%d):", len(failed))
		for _, cls := range failed {
			log.Info("  %s: %s", cls.ClassName, truncateString(cls.Error, 100))
		}
	} else {
		log.Info("No failed classes")
	}

	var skipped int
	for _, cls := range report.Classes {
		if cls.GroupsSkipped == 0 {
			continue
		}
		if skipped == 0 {
			log.Info("Skipped groups:")
		}
		skipped++
		flag := ""
		if cls.Customized {
			flag = " (customized)"
		}
		log.Info("  %s: %d skipped%s", cls.ClassName, cls.GroupsSkipped, flag)
	}
	if skipped == 0 {
		log.Info("No skipped groups")
	}
	log.Info("")
}

// FormatSummary returns a summary map for serialization.
func (f *DiagnosticsFormatter) FormatSummary(report *model.PassReport) map[string]interface{} {
	failed := report.FailedClasses()
	failures := make([]map[string]interface{}, 0, len(failed))
	for _, cls := range failed {
		failures = append(failures, map[string]interface{}{
			"class_name": cls.ClassName,
			"error":      cls.Error,
		})
	}

	skips := make([]map[string]interface{}, 0)
	for _, cls := range report.Classes {
		if cls.GroupsSkipped == 0 {
			continue
		}
		skips = append(skips, map[string]interface{}{
			"class_name": cls.ClassName,
			"skipped":    cls.GroupsSkipped,
			"customized": cls.Customized,
		})
	}

	return map[string]interface{}{
		"classes_failed": report.ClassesFailed,
		"failures":       failures,
		"skipped_groups": skips,
	}
}
