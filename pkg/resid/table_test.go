package resid

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTableLookup(t *testing.T) {
	table, err := NewTable([]Entry{
		{Old: 0x7f010000, New: 0x7f010010},
		{Old: 0x7f020000, New: 0x7f020000},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, table.Len())

	got, ok := table.Lookup(0x7f010000)
	assert.True(t, ok)
	assert.Equal(t, ID(0x7f010010), got)

	got, ok = table.Lookup(0x7f020000)
	assert.True(t, ok, "identity entry is still a hit")
	assert.Equal(t, ID(0x7f020000), got)

	_, ok = table.Lookup(0x7f030000)
	assert.False(t, ok, "absent key means deleted")
	assert.False(t, table.Keep(0x7f030000))
	assert.True(t, table.Keep(0x7f010000))
}

func TestNewTableRejectsDuplicates(t *testing.T) {
	_, err := NewTable([]Entry{
		{Old: 0x7f010000, New: 0x7f010010},
		{Old: 0x7f010000, New: 0x7f010011},
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "0x7f010000")
}

func TestWalkOrder(t *testing.T) {
	table, err := NewTable([]Entry{
		{Old: 0x7f030000, New: 0x7f030000},
		{Old: 0x7f010000, New: 0x7f010010},
		{Old: 0x7f020000, New: 0x7f020001},
	})
	require.NoError(t, err)

	var olds []ID
	table.Walk(func(old, _ ID) bool {
		olds = append(olds, old)
		return true
	})
	assert.Equal(t, []ID{0x7f030000, 0x7f010000, 0x7f020000}, olds,
		"Walk follows construction order")

	olds = olds[:0]
	table.Walk(func(old, _ ID) bool {
		olds = append(olds, old)
		return false
	})
	assert.Len(t, olds, 1, "Walk stops when fn returns false")
}

func TestIdentityTable(t *testing.T) {
	table, err := IdentityTable([]ID{0x7f010000, 0x7f020005})
	require.NoError(t, err)

	got, ok := table.Lookup(0x7f020005)
	assert.True(t, ok)
	assert.Equal(t, ID(0x7f020005), got)
}

func TestParseTable(t *testing.T) {
	data := []byte(`{
		"0x7f020000": "0x7f020000",
		"0x7f010001": "0x7f010011",
		"0x7f010000": "0x7f010010"
	}`)

	table, err := ParseTable(data)
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())

	got, ok := table.Lookup(0x7f010001)
	require.True(t, ok)
	assert.Equal(t, ID(0x7f010011), got)

	var olds []ID
	table.Walk(func(old, _ ID) bool {
		olds = append(olds, old)
		return true
	})
	assert.Equal(t, []ID{0x7f010000, 0x7f010001, 0x7f020000}, olds,
		"parsed entries are sorted by old id")
}

func TestParseTableErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "nope"},
		{"bad key", `{"zz": "0x7f010000"}`},
		{"bad value", `{"0x7f010000": "zz"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTable([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestTableJSONRoundTrip(t *testing.T) {
	table, err := NewTable([]Entry{
		{Old: 0x7f010000, New: 0x7f010010},
		{Old: 0x7f040001, New: 0x7f040001},
	})
	require.NoError(t, err)

	data, err := json.Marshal(table)
	require.NoError(t, err)

	back, err := ParseTable(data)
	require.NoError(t, err)
	assert.Equal(t, table.Len(), back.Len())

	got, ok := back.Lookup(0x7f010000)
	require.True(t, ok)
	assert.Equal(t, ID(0x7f010010), got)
}
