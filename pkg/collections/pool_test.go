package collections

import "testing"

func TestSlicePool(t *testing.T) {
	p := NewSlicePool[int](16)

	s := p.Get()
	if len(*s) != 0 {
		t.Errorf("expected zero length, got %d", len(*s))
	}
	if cap(*s) < 16 {
		t.Errorf("expected capacity >= 16, got %d", cap(*s))
	}

	*s = append(*s, 1, 2, 3)
	p.Put(s)

	s2 := p.Get()
	if len(*s2) != 0 {
		t.Errorf("expected recycled slice to be truncated, got length %d", len(*s2))
	}
	p.Put(s2)
}

func TestByteSlicePool(t *testing.T) {
	b := GetByteSlice()
	if len(*b) != 0 {
		t.Errorf("expected zero length, got %d", len(*b))
	}
	*b = append(*b, 0xde, 0xad)
	PutByteSlice(b)

	b2 := GetByteSlice()
	if len(*b2) != 0 {
		t.Errorf("expected recycled buffer to be truncated, got length %d", len(*b2))
	}
	PutByteSlice(b2)
}

func TestMapPool(t *testing.T) {
	p := NewMapPool[string, int](8)

	m := p.Get()
	m["a"] = 1
	m["b"] = 2
	p.Put(m)

	m2 := p.Get()
	if len(m2) != 0 {
		t.Errorf("expected recycled map to be empty, got %d entries", len(m2))
	}
	p.Put(m2)
}
