package resid

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Entry is a single old-to-new mapping in a remap table.
type Entry struct {
	Old ID
	New ID
}

// Table maps pre-shrink resource identifiers to their rewritten values.
//
// A Table is built once and never mutated afterwards, which makes it
// safe to share across any number of concurrent readers without
// locking. An identifier with no entry was deleted by the shrinker; an
// identity entry (old == new) keeps its value.
type Table struct {
	mapping map[ID]ID
	order   []ID
}

// NewTable builds a table from entries, preserving their order for
// Walk. A duplicate old identifier is a construction error.
func NewTable(entries []Entry) (*Table, error) {
	t := &Table{
		mapping: make(map[ID]ID, len(entries)),
		order:   make([]ID, 0, len(entries)),
	}
	for _, e := range entries {
		if _, dup := t.mapping[e.Old]; dup {
			return nil, fmt.Errorf("duplicate remap entry for %s", e.Old)
		}
		t.mapping[e.Old] = e.New
		t.order = append(t.order, e.Old)
	}
	return t, nil
}

// IdentityTable builds a table that keeps every given identifier
// unchanged. Useful for tests and for passes that only prune.
func IdentityTable(ids []ID) (*Table, error) {
	entries := make([]Entry, len(ids))
	for i, id := range ids {
		entries[i] = Entry{Old: id, New: id}
	}
	return NewTable(entries)
}

// Lookup returns the rewritten value for old. ok is false when the
// identifier has no entry, meaning the resource was deleted.
func (t *Table) Lookup(old ID) (ID, bool) {
	v, ok := t.mapping[old]
	return v, ok
}

// Keep reports whether old survives the remap in any form.
func (t *Table) Keep(old ID) bool {
	_, ok := t.mapping[old]
	return ok
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.mapping)
}

// Walk visits entries in construction order until fn returns false.
func (t *Table) Walk(fn func(old, new ID) bool) {
	for _, old := range t.order {
		if !fn(old, t.mapping[old]) {
			return
		}
	}
}

// ParseTable reads the JSON remap artifact, an object of hex strings:
//
//	{"0x7f010000": "0x7f010010", "0x7f020000": "0x7f020000"}
//
// JSON objects carry no order, so entries are sorted by old identifier
// to keep Walk deterministic.
func ParseTable(data []byte) (*Table, error) {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid remap table: %w", err)
	}

	entries := make([]Entry, 0, len(raw))
	for k, v := range raw {
		old, err := Parse(k)
		if err != nil {
			return nil, err
		}
		newID, err := Parse(v)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{Old: old, New: newID})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Old < entries[j].Old })

	return NewTable(entries)
}

// MarshalJSON writes the table back in the ParseTable artifact form.
func (t *Table) MarshalJSON() ([]byte, error) {
	raw := make(map[string]string, len(t.mapping))
	t.Walk(func(old, new ID) bool {
		raw[old.String()] = new.String()
		return true
	})
	return json.Marshal(raw)
}
