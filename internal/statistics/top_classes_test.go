package statistics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resopt/pkg/model"
)

func sampleReport() *model.PassReport {
	var report model.PassReport
	report.Add(model.ClassReport{ClassName: "Lcom/app/R;", Role: "sequential", ElementsKept: 10, ElementsDeleted: 6})
	report.Add(model.ClassReport{ClassName: "Lcom/app/R$styleable;", Role: "positional", ElementsKept: 8, ElementsDeleted: 2})
	report.Add(model.ClassReport{ClassName: "Lcom/app/R$string;", Role: "sequential", ElementsKept: 12})
	report.Add(model.ClassReport{ClassName: "Lcom/app/R$id;", Role: "sequential", Error: "malformed static initializer"})
	return &report
}

func TestTopClassesCalculator_Ranking(t *testing.T) {
	calc := NewTopClassesCalculator()
	result := calc.Calculate(sampleReport())

	require.Len(t, result.TopClasses, 2)
	assert.Equal(t, "Lcom/app/R;", result.TopClasses[0].ClassName)
	assert.Equal(t, 6, result.TopClasses[0].ElementsDeleted)
	assert.InDelta(t, 0.375, result.TopClasses[0].DeletionRatio, 1e-9)
	assert.Equal(t, "Lcom/app/R$styleable;", result.TopClasses[1].ClassName)

	assert.Equal(t, 38, result.TotalElements)
	assert.Equal(t, 8, result.TotalDeleted)
	assert.InDelta(t, float64(8)/38, result.OverallDeletion, 1e-9)
}

func TestTopClassesCalculator_TopN(t *testing.T) {
	calc := NewTopClassesCalculator(WithTopN(1))
	result := calc.Calculate(sampleReport())

	require.Len(t, result.TopClasses, 1)
	assert.Equal(t, "Lcom/app/R;", result.TopClasses[0].ClassName)
}

func TestTopClassesCalculator_FailedClasses(t *testing.T) {
	var report model.PassReport
	report.Add(model.ClassReport{ClassName: "Lcom/app/R$id;", Error: "boom", ElementsDeleted: 3, ElementsKept: 1})

	assert.Empty(t, NewTopClassesCalculator().Calculate(&report).TopClasses)

	withFailed := NewTopClassesCalculator(WithFailed(true)).Calculate(&report)
	require.Len(t, withFailed.TopClasses, 1)
	assert.Equal(t, "Lcom/app/R$id;", withFailed.TopClasses[0].ClassName)
}

func TestTopClassesCalculator_TiesSortedByName(t *testing.T) {
	var report model.PassReport
	report.Add(model.ClassReport{ClassName: "Lb/R;", ElementsKept: 1, ElementsDeleted: 2})
	report.Add(model.ClassReport{ClassName: "La/R;", ElementsKept: 5, ElementsDeleted: 2})

	result := NewTopClassesCalculator().Calculate(&report)
	require.Len(t, result.TopClasses, 2)
	assert.Equal(t, "La/R;", result.TopClasses[0].ClassName)
}

func TestTopClassesCalculator_NilReport(t *testing.T) {
	result := NewTopClassesCalculator().Calculate(nil)
	assert.Empty(t, result.TopClasses)
	assert.Zero(t, result.TotalElements)
}
