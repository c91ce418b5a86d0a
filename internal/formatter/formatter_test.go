package formatter

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resopt/pkg/model"
	"github.com/resopt/pkg/utils"
)

// recordingLogger collects Info lines for assertions.
type recordingLogger struct {
	lines []string
}

func (l *recordingLogger) Debug(msg string, args ...interface{}) {}
func (l *recordingLogger) Info(msg string, args ...interface{}) {
	l.lines = append(l.lines, fmt.Sprintf(msg, args...))
}
func (l *recordingLogger) Warn(msg string, args ...interface{})  {}
func (l *recordingLogger) Error(msg string, args ...interface{}) {}
func (l *recordingLogger) WithField(key string, value interface{}) utils.Logger {
	return l
}
func (l *recordingLogger) WithFields(fields map[string]interface{}) utils.Logger {
	return l
}

func (l *recordingLogger) joined() string {
	return strings.Join(l.lines, "\n")
}

func sampleReport() *model.PassReport {
	var report model.PassReport
	report.JobUUID = "job-123"
	report.Add(model.ClassReport{ClassName: "Lcom/app/R;", Role: "sequential", GroupsScanned: 3, GroupsRewritten: 3, ElementsKept: 7, ElementsRemapped: 4, ElementsDeleted: 3})
	report.Add(model.ClassReport{ClassName: "Lcom/app/R$styleable;", Role: "positional", GroupsScanned: 1, GroupsRewritten: 1, GroupsSkipped: 1, ElementsKept: 1, ElementsDeleted: 1})
	report.Add(model.ClassReport{ClassName: "Lcom/app/R$id;", Role: "sequential", Error: "malformed static initializer"})
	return &report
}

func TestRegistry_Get(t *testing.T) {
	r := NewRegistry()

	assert.IsType(t, &SummaryFormatter{}, r.Get("summary"))
	assert.IsType(t, &ClassesFormatter{}, r.Get("classes"))
	assert.IsType(t, &ClassesFormatter{}, r.Get("top"))
	assert.IsType(t, &DiagnosticsFormatter{}, r.Get("diagnostics"))

	// Unknown views fall back to the summary view.
	assert.IsType(t, &SummaryFormatter{}, r.Get("flamegraph"))
}

func TestRegistry_NilReport(t *testing.T) {
	r := NewRegistry()
	log := &recordingLogger{}

	r.Format("summary", nil, log)
	assert.Empty(t, log.lines)
	assert.Nil(t, r.FormatSummary("summary", nil))
}

func TestSummaryFormatter(t *testing.T) {
	log := &recordingLogger{}
	NewRegistry().Format("summary", sampleReport(), log)

	out := log.joined()
	assert.Contains(t, out, "job-123")
	assert.Contains(t, out, "Classes Scanned:   3")
	assert.Contains(t, out, "Classes Rewritten: 2")
	assert.Contains(t, out, "Classes Failed:    1")
	assert.Contains(t, out, "4 remapped")
}

func TestSummaryFormatter_Summary(t *testing.T) {
	summary := NewRegistry().FormatSummary("summary", sampleReport())

	require.NotNil(t, summary)
	assert.Equal(t, 3, summary["classes_scanned"])
	assert.Equal(t, 4, summary["groups_rewritten"])
	assert.Equal(t, 4, summary["elements_deleted"])
}

func TestClassesFormatter(t *testing.T) {
	log := &recordingLogger{}
	NewRegistry().Format("classes", sampleReport(), log)

	out := log.joined()
	assert.Contains(t, out, "Lcom/app/R;")
	assert.Contains(t, out, "Overall: 4 of 12 elements deleted")
}

func TestClassesFormatter_Summary(t *testing.T) {
	summary := NewRegistry().FormatSummary("top", sampleReport())

	assert.Equal(t, 12, summary["total_elements"])
	assert.Equal(t, 4, summary["total_deleted"])
}

func TestDiagnosticsFormatter(t *testing.T) {
	log := &recordingLogger{}
	NewRegistry().Format("diagnostics", sampleReport(), log)

	out := log.joined()
	assert.Contains(t, out, "Lcom/app/R$id;: malformed static initializer")
	assert.Contains(t, out, "Lcom/app/R$styleable;: 1 skipped")
}

func TestDiagnosticsFormatter_Summary(t *testing.T) {
	summary := NewRegistry().FormatSummary("diagnostics", sampleReport())

	assert.Equal(t, 1, summary["classes_failed"])
	failures, ok := summary["failures"].([]map[string]interface{})
	require.True(t, ok)
	require.Len(t, failures, 1)
	assert.Equal(t, "Lcom/app/R$id;", failures[0]["class_name"])
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", truncateString("short", 10))
	assert.Equal(t, "long st...", truncateString("long string here", 10))
}
