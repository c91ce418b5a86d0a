package formatter

import (
	"github.com/resopt/internal/statistics"
	"github.com/resopt/pkg/model"
	"github.com/resopt/pkg/utils"
)

// ClassesFormatter ranks holder classes by deleted elements.
type ClassesFormatter struct{}

// Views returns the view names this formatter supports.
func (f *ClassesFormatter) Views() []string {
	return []string{"classes", "top"}
}

// Format outputs the top holder classes to the logger.
func (f *ClassesFormatter) Format(report *model.PassReport, log utils.Logger) {
	result := statistics.NewTopClassesCalculator().Calculate(report)

	log.Info("=== Top Holder Classes ===")
	if len(result.TopClasses) == 0 {
		log.Info("  no class lost any resource ids")
		log.Info("")
		return
	}
	for i, entry := range result.TopClasses {
		log.Info("  %2d. %6.2f%%  %4d deleted  %s",
			i+1, entry.DeletionRatio*100, entry.ElementsDeleted, truncateString(entry.ClassName, 80))
	}
	log.Info("")
	log.Info("Overall: %d of %d elements deleted (%.2f%%)",
		result.TotalDeleted, result.TotalElements, result.OverallDeletion*100)
	log.Info("")
}

// FormatSummary returns a summary map for serialization.
func (f *ClassesFormatter) FormatSummary(report *model.PassReport) map[string]interface{} {
	result := statistics.NewTopClassesCalculator().Calculate(report)
	return map[string]interface{}{
		"top_classes":      result.TopClasses,
		"total_elements":   result.TotalElements,
		"total_deleted":    result.TotalDeleted,
		"overall_deletion": result.OverallDeletion,
	}
}
