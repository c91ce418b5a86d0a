package advisor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resopt/internal/statistics"
	"github.com/resopt/pkg/model"
)

func TestNewAdvisor(t *testing.T) {
	advisor := NewAdvisor()

	assert.NotNil(t, advisor)
	assert.NotEmpty(t, advisor.rules)
}

func TestNewAdvisorWithRules(t *testing.T) {
	rules := []Rule{
		{Type: "test", Name: "test_rule"},
	}

	advisor := NewAdvisorWithRules(rules)

	assert.Len(t, advisor.rules, 1)
	assert.Equal(t, "test_rule", advisor.rules[0].Name)
}

func reportWith(classes ...model.ClassReport) *model.PassReport {
	var report model.PassReport
	for _, c := range classes {
		report.Add(c)
	}
	return &report
}

func TestAdvisor_HighDeletionRatio(t *testing.T) {
	advisor := NewAdvisor()

	report := reportWith(
		model.ClassReport{ClassName: "Lcom/app/R$drawable;", Role: "sequential", GroupsScanned: 1, GroupsRewritten: 1, ElementsKept: 2, ElementsDeleted: 8},
		model.ClassReport{ClassName: "Lcom/app/R$string;", Role: "sequential", GroupsScanned: 1, GroupsRewritten: 1, ElementsKept: 9, ElementsDeleted: 1},
	)

	suggestions := advisor.Advise(&RuleContext{Report: report})

	var found bool
	for _, s := range suggestions {
		if s.Type == "high_deletion_ratio" {
			found = true
			assert.Equal(t, "Lcom/app/R$drawable;", s.ClassName)
			assert.Contains(t, s.Suggestion, "80%")
		}
	}
	assert.True(t, found, "should flag the holder that lost 80%% of its ids")
}

func TestAdvisor_StructuralFailure(t *testing.T) {
	advisor := NewAdvisor()

	report := reportWith(
		model.ClassReport{ClassName: "Lcom/app/R$id;", Role: "sequential", Error: "malformed static initializer"},
	)

	suggestions := advisor.Advise(&RuleContext{Report: report})

	require.NotEmpty(t, suggestions)
	var found bool
	for _, s := range suggestions {
		if s.Type == "structural_failure" {
			found = true
			assert.Equal(t, "error", s.Severity)
			assert.Contains(t, s.Suggestion, "malformed static initializer")
		}
	}
	assert.True(t, found)
}

func TestAdvisor_SkippedGroups_CustomizedQuiet(t *testing.T) {
	advisor := NewAdvisor()

	report := reportWith(
		model.ClassReport{ClassName: "Lcom/app/R;", Role: "sequential", Customized: true, GroupsScanned: 3, GroupsRewritten: 2, GroupsSkipped: 1, ElementsKept: 1},
		model.ClassReport{ClassName: "Lcom/app/R$layout;", Role: "sequential", GroupsScanned: 2, GroupsRewritten: 1, GroupsSkipped: 1, ElementsKept: 1},
	)

	suggestions := advisor.Advise(&RuleContext{Report: report})

	var flagged []string
	for _, s := range suggestions {
		if s.Type == "skipped_groups" {
			flagged = append(flagged, s.ClassName)
		}
	}
	assert.Equal(t, []string{"Lcom/app/R$layout;"}, flagged)
}

func TestAdvisor_EmptyHolder(t *testing.T) {
	advisor := NewAdvisor()

	report := reportWith(
		model.ClassReport{ClassName: "Lcom/app/R$anim;", Role: "sequential"},
	)

	suggestions := advisor.Advise(&RuleContext{Report: report})

	var found bool
	for _, s := range suggestions {
		if s.Type == "empty_holder" {
			found = true
			assert.Equal(t, "Lcom/app/R$anim;", s.ClassName)
		}
	}
	assert.True(t, found)
}

func TestAdvisor_NilReport(t *testing.T) {
	suggestions := NewAdvisor().Advise(&RuleContext{})
	assert.Empty(t, suggestions)
}

func TestFromStoredRules(t *testing.T) {
	stored := []model.SuggestionRule{
		{Type: "remap", Target: "deletion_ratio", Operation: ">", Threshold: 0.3, SuggestionContent: "heavy shrink"},
		{Type: "remap", Target: "classes_failed", Operation: ">=", Threshold: 1, SuggestionContent: "failures present"},
		{Type: "remap", Target: "nonsense", Threshold: 1},
	}

	rules := FromStoredRules(stored)
	require.Len(t, rules, 2)

	advisor := NewAdvisorWithRules(rules)
	report := reportWith(model.ClassReport{ClassName: "Lcom/app/R$id;", Error: "boom"})
	top := statistics.NewTopClassesCalculator().Calculate(reportWith(
		model.ClassReport{ClassName: "Lcom/app/R;", ElementsKept: 1, ElementsDeleted: 9},
	))

	suggestions := advisor.Advise(&RuleContext{Report: report, TopClasses: top})

	texts := make([]string, 0, len(suggestions))
	for _, s := range suggestions {
		texts = append(texts, s.Suggestion)
	}
	assert.Contains(t, texts, "heavy shrink")
	assert.Contains(t, texts, "failures present")
}
