package remap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resopt/pkg/filter"
	"github.com/resopt/pkg/resid"
)

func mustTable(t *testing.T, entries []resid.Entry) *resid.Table {
	t.Helper()
	table, err := resid.NewTable(entries)
	require.NoError(t, err)
	return table
}

func TestForRole(t *testing.T) {
	seq, err := ForRole(filter.RoleSequential)
	require.NoError(t, err)
	assert.Equal(t, "sequential", seq.Name())

	pos, err := ForRole(filter.RolePositional)
	require.NoError(t, err)
	assert.Equal(t, "positional", pos.Name())

	_, err = ForRole(filter.RoleNone)
	assert.Error(t, err)
	_, err = ForRole(filter.RoleSkip)
	assert.Error(t, err)
}

func TestSequential_ShrinkAndShift(t *testing.T) {
	table := mustTable(t, []resid.Entry{
		{Old: 0x7f020000, New: 0x7f020000},
		{Old: 0x7f020001, New: 0x7f020001},
	})
	ids := []resid.ID{0x7f020000, 0x7f020002, 0x7f020001, 0x7f020003}

	plan := SequentialStrategy{}.Apply(ids, table)

	assert.Equal(t, []resid.ID{0x7f020000, 0x7f020001}, plan.IDs)
	assert.Equal(t, 2, plan.Size())
	assert.Equal(t, 2, plan.Kept)
	assert.Equal(t, 2, plan.Deleted)
	assert.Equal(t, 0, plan.Remapped)
}

func TestSequential_AllRemapped(t *testing.T) {
	table := mustTable(t, []resid.Entry{
		{Old: 0x7f010000, New: 0x7f010010},
		{Old: 0x7f010001, New: 0x7f010011},
		{Old: 0x7f010002, New: 0x7f010012},
		{Old: 0x7f010003, New: 0x7f010013},
	})
	ids := []resid.ID{0x7f010000, 0x7f010001, 0x7f010002, 0x7f010003}

	plan := SequentialStrategy{}.Apply(ids, table)

	assert.Equal(t, []resid.ID{0x7f010010, 0x7f010011, 0x7f010012, 0x7f010013}, plan.IDs)
	assert.Equal(t, 4, plan.Size())
	assert.Equal(t, 4, plan.Remapped)
	assert.Zero(t, plan.Deleted)
}

func TestSequential_SingleSurvivor(t *testing.T) {
	table := mustTable(t, []resid.Entry{{Old: 0x7f030000, New: 0x7f030000}})
	ids := []resid.ID{0x7f030000, 0x7f050000}

	plan := SequentialStrategy{}.Apply(ids, table)

	assert.Equal(t, []resid.ID{0x7f030000}, plan.IDs)
	assert.Equal(t, 1, plan.Size())
}

// The output length always equals the number of table hits.
func TestSequential_LengthInvariant(t *testing.T) {
	table := mustTable(t, []resid.Entry{
		{Old: 0x7f010000, New: 0x7f010005},
		{Old: 0x7f010002, New: 0x7f010002},
	})
	ids := []resid.ID{0x7f010000, 0x7f010001, 0x7f010002, 0x7f010003, 0x7f010000}

	hits := 0
	for _, id := range ids {
		if table.Keep(id) {
			hits++
		}
	}

	plan := SequentialStrategy{}.Apply(ids, table)
	assert.Len(t, plan.IDs, hits)
}

func TestPositional_ZeroInPlace(t *testing.T) {
	table := mustTable(t, []resid.Entry{{Old: 0x7f040001, New: 0x7f040001}})
	ids := []resid.ID{0x7f040000, 0x7f040001}

	plan := PositionalStrategy{}.Apply(ids, table)

	assert.Equal(t, []resid.ID{0, 0x7f040001}, plan.IDs)
	assert.Equal(t, 2, plan.Size())
	assert.Equal(t, 1, plan.Kept)
	assert.Equal(t, 1, plan.Deleted)
}

// Deleted slots become 0; every other slot keeps its position.
func TestPositional_LengthAndSlots(t *testing.T) {
	table := mustTable(t, []resid.Entry{
		{Old: 0x7f040000, New: 0x7f040007},
		{Old: 0x7f040002, New: 0x7f040002},
	})
	ids := []resid.ID{0x7f040000, 0x7f040001, 0x7f040002, 0x7f040003}

	plan := PositionalStrategy{}.Apply(ids, table)

	require.Len(t, plan.IDs, len(ids))
	assert.Equal(t, []resid.ID{0x7f040007, 0, 0x7f040002, 0}, plan.IDs)
	for i, id := range ids {
		if !table.Keep(id) {
			assert.Equal(t, resid.ID(0), plan.IDs[i], "slot %d", i)
		}
	}
}

// An identity table makes both strategies no-ops on content.
func TestStrategies_IdentityStability(t *testing.T) {
	ids := []resid.ID{0x7f010000, 0x7f010001, 0x7f040000}
	table, err := resid.IdentityTable(ids)
	require.NoError(t, err)

	seq := SequentialStrategy{}.Apply(ids, table)
	assert.Equal(t, ids, seq.IDs)
	assert.Zero(t, seq.Remapped)
	assert.Zero(t, seq.Deleted)

	pos := PositionalStrategy{}.Apply(ids, table)
	assert.Equal(t, ids, pos.IDs)
	assert.Zero(t, pos.Remapped)
	assert.Zero(t, pos.Deleted)
}

// Duplicate old ids are remapped independently; colliding new ids
// survive as duplicates.
func TestStrategies_DuplicatesAndCollisions(t *testing.T) {
	table := mustTable(t, []resid.Entry{
		{Old: 0x7f010000, New: 0x7f010005},
		{Old: 0x7f010001, New: 0x7f010005},
	})
	ids := []resid.ID{0x7f010000, 0x7f010000, 0x7f010001}

	plan := SequentialStrategy{}.Apply(ids, table)
	assert.Equal(t, []resid.ID{0x7f010005, 0x7f010005, 0x7f010005}, plan.IDs)
}

func TestStrategies_InputNeverMutated(t *testing.T) {
	table := mustTable(t, []resid.Entry{{Old: 0x7f010000, New: 0x7f010009}})
	ids := []resid.ID{0x7f010000, 0x7f010001}
	original := append([]resid.ID(nil), ids...)

	SequentialStrategy{}.Apply(ids, table)
	PositionalStrategy{}.Apply(ids, table)

	assert.Equal(t, original, ids)
}
