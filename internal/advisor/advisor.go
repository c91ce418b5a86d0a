// Package advisor derives advice from remap pass reports: holders
// that lost most of their ids, classes the pass could not rewrite,
// and shrink results worth double-checking.
package advisor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/resopt/internal/statistics"
	"github.com/resopt/pkg/model"
)

// Advisor generates suggestions from a pass report.
type Advisor struct {
	rules []Rule
}

// Rule represents a suggestion rule.
type Rule struct {
	Type        string
	Name        string
	Description string
	Threshold   float64
	Check       RuleCheckFunc
}

// RuleCheckFunc is a function that checks if a rule applies.
type RuleCheckFunc func(ctx *RuleContext) []model.Suggestion

// RuleContext provides context for rule checking.
type RuleContext struct {
	Report     *model.PassReport
	TopClasses *statistics.TopClassesResult
	Params     *model.RequestParams
}

// NewAdvisor creates a new Advisor with default rules.
func NewAdvisor() *Advisor {
	return &Advisor{
		rules: defaultRules(),
	}
}

// NewAdvisorWithRules creates a new Advisor with custom rules.
func NewAdvisorWithRules(rules []Rule) *Advisor {
	return &Advisor{
		rules: rules,
	}
}

// Advise generates suggestions based on the rule context.
func (a *Advisor) Advise(ctx *RuleContext) []model.Suggestion {
	suggestions := make([]model.Suggestion, 0)

	for _, rule := range a.rules {
		if rule.Check != nil {
			suggestions = append(suggestions, rule.Check(ctx)...)
		}
	}

	return suggestions
}

// defaultRules returns the default set of report rules.
func defaultRules() []Rule {
	return []Rule{
		{
			Type:        "remap",
			Name:        "high_deletion_ratio",
			Description: "Check for holder classes that lost most of their ids",
			Threshold:   0.5,
			Check:       checkHighDeletionRatio,
		},
		{
			Type:        "remap",
			Name:        "structural_failure",
			Description: "Check for classes the pass could not rewrite",
			Check:       checkStructuralFailures,
		},
		{
			Type:        "remap",
			Name:        "skipped_groups",
			Description: "Check for incomplete array idioms in non-customized holders",
			Check:       checkSkippedGroups,
		},
		{
			Type:        "remap",
			Name:        "empty_holder",
			Description: "Check for holder classes with no arrays at all",
			Check:       checkEmptyHolders,
		},
	}
}

// checkHighDeletionRatio flags classes where the shrinker deleted more
// than half of the declared ids. Usually intended, occasionally a sign
// of an over-aggressive keep rule.
func checkHighDeletionRatio(ctx *RuleContext) []model.Suggestion {
	suggestions := make([]model.Suggestion, 0)
	if ctx.Report == nil {
		return suggestions
	}

	for _, cls := range ctx.Report.Classes {
		if cls.Failed() {
			continue
		}
		if ratio := cls.DeletionRatio(); ratio > 0.5 {
			suggestions = append(suggestions, model.Suggestion{
				Type:     "high_deletion_ratio",
				Severity: "warning",
				Suggestion: "holder " + cls.ClassName + " lost " + formatPercent(ratio*100) +
					"% of its resource ids; verify the shrinker keep rules cover this feature",
				ClassName: cls.ClassName,
			})
		}
	}
	return suggestions
}

// checkStructuralFailures surfaces every class the pass had to skip.
func checkStructuralFailures(ctx *RuleContext) []model.Suggestion {
	suggestions := make([]model.Suggestion, 0)
	if ctx.Report == nil {
		return suggestions
	}

	for _, cls := range ctx.Report.FailedClasses() {
		suggestions = append(suggestions, model.Suggestion{
			Type:     "structural_failure",
			Severity: "error",
			Suggestion: "holder " + cls.ClassName + " was not rewritten (" + cls.Error +
				"); its resource arrays still reference pre-shrink ids",
			ClassName: cls.ClassName,
		})
	}
	return suggestions
}

// checkSkippedGroups flags incomplete idioms in holders that are not
// expected to carry client-injected code.
func checkSkippedGroups(ctx *RuleContext) []model.Suggestion {
	suggestions := make([]model.Suggestion, 0)
	if ctx.Report == nil {
		return suggestions
	}

	for _, cls := range ctx.Report.Classes {
		if cls.GroupsSkipped == 0 || cls.Customized {
			continue
		}
		suggestions = append(suggestions, model.Suggestion{
			Type:     "skipped_groups",
			Severity: "info",
			Suggestion: fmt.Sprintf("holder %s has %d array allocation(s) outside the generated idiom; "+
				"mark the class customized if it carries injected code", cls.ClassName, cls.GroupsSkipped),
			ClassName: cls.ClassName,
		})
	}
	return suggestions
}

// checkEmptyHolders flags holder-looking classes without any array
// group, typically a sign of a stale naming pattern.
func checkEmptyHolders(ctx *RuleContext) []model.Suggestion {
	suggestions := make([]model.Suggestion, 0)
	if ctx.Report == nil {
		return suggestions
	}

	for _, cls := range ctx.Report.Classes {
		if cls.Failed() || cls.GroupsScanned > 0 {
			continue
		}
		suggestions = append(suggestions, model.Suggestion{
			Type:       "empty_holder",
			Severity:   "info",
			Suggestion: "holder " + cls.ClassName + " declares no resource arrays; consider a skip override",
			ClassName:  cls.ClassName,
		})
	}
	return suggestions
}

// FromStoredRules converts threshold rules loaded from the database
// into checkable rules. Unknown targets are dropped.
func FromStoredRules(stored []model.SuggestionRule) []Rule {
	rules := make([]Rule, 0, len(stored))
	for _, sr := range stored {
		sr := sr
		var check RuleCheckFunc
		switch sr.Target {
		case "deletion_ratio":
			check = func(ctx *RuleContext) []model.Suggestion {
				if ctx.TopClasses == nil || !compare(ctx.TopClasses.OverallDeletion, sr.Operation, sr.Threshold) {
					return nil
				}
				return []model.Suggestion{{
					Type:       sr.Type,
					Severity:   "info",
					Suggestion: sr.SuggestionContent,
				}}
			}
		case "classes_failed":
			check = func(ctx *RuleContext) []model.Suggestion {
				if ctx.Report == nil || !compare(float64(ctx.Report.ClassesFailed), sr.Operation, sr.Threshold) {
					return nil
				}
				return []model.Suggestion{{
					Type:       sr.Type,
					Severity:   "warning",
					Suggestion: sr.SuggestionContent,
				}}
			}
		default:
			continue
		}
		rules = append(rules, Rule{
			Type:      sr.Type,
			Name:      sr.Target,
			Threshold: sr.Threshold,
			Check:     check,
		})
	}
	return rules
}

func compare(value float64, op string, threshold float64) bool {
	switch op {
	case "<":
		return value < threshold
	case ">=":
		return value >= threshold
	default:
		return value > threshold
	}
}

// formatPercent formats a percentage value without trailing zeros.
func formatPercent(pct float64) string {
	s := strconv.FormatFloat(pct, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	return s
}
