package remap

import (
	"github.com/resopt/pkg/filter"
	"github.com/resopt/pkg/resid"
)

// Plan is the rewrite decision for one group: the new element
// sequence (the new declared size is its length) and the element
// accounting behind it.
type Plan struct {
	IDs      []resid.ID
	Kept     int // elements present in the table
	Remapped int // kept elements whose value changed
	Deleted  int // elements absent from the table
}

// Size returns the new declared array size.
func (p *Plan) Size() int {
	return len(p.IDs)
}

// Strategy decides how deleted resource ids affect an array. Both
// implementations are pure functions of their inputs: the input slice
// is never mutated and the table is read-only, so strategies are safe
// to run concurrently across groups and classes.
type Strategy interface {
	Name() string
	Apply(ids []resid.ID, table *resid.Table) *Plan
}

// ForRole returns the strategy for a holder role. Only the two array
// roles carry a strategy; anything else is a configuration bug.
func ForRole(role filter.Role) (Strategy, error) {
	switch role {
	case filter.RoleSequential:
		return SequentialStrategy{}, nil
	case filter.RolePositional:
		return PositionalStrategy{}, nil
	default:
		return nil, unknownRolef("role %s has no remap strategy", role)
	}
}

// SequentialStrategy implements the umbrella-holder policy: deleting
// an element shrinks the array and shifts later elements left. The
// umbrella holder's arrays are only ever iterated forward, so element
// positions carry no meaning.
type SequentialStrategy struct{}

// Name returns the role name of the policy.
func (SequentialStrategy) Name() string { return "sequential" }

// Apply keeps every id with a table entry, in original order, mapped
// to its new value; absent ids are dropped. Duplicate inputs are
// remapped independently, and two old ids mapping to the same new id
// both survive as duplicates.
func (SequentialStrategy) Apply(ids []resid.ID, table *resid.Table) *Plan {
	plan := &Plan{IDs: make([]resid.ID, 0, len(ids))}
	for _, id := range ids {
		mapped, ok := table.Lookup(id)
		if !ok {
			plan.Deleted++
			continue
		}
		plan.Kept++
		if mapped != id {
			plan.Remapped++
		}
		plan.IDs = append(plan.IDs, mapped)
	}
	return plan
}

// PositionalStrategy implements the attribute-list policy: the array
// is indexed elsewhere by fixed numeric offset, so slots never move.
// Deleting an element zeroes its slot in place and the declared size
// never changes.
type PositionalStrategy struct{}

// Name returns the role name of the policy.
func (PositionalStrategy) Name() string { return "positional" }

// Apply substitutes each mapped id with its new value and writes 0
// into slots whose id was deleted. Output length always equals input
// length.
func (PositionalStrategy) Apply(ids []resid.ID, table *resid.Table) *Plan {
	plan := &Plan{IDs: make([]resid.ID, len(ids))}
	for i, id := range ids {
		mapped, ok := table.Lookup(id)
		if !ok {
			plan.Deleted++
			plan.IDs[i] = 0
			continue
		}
		plan.Kept++
		if mapped != id {
			plan.Remapped++
		}
		plan.IDs[i] = mapped
	}
	return plan
}
