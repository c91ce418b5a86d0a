package collections

import "testing"

func TestBitset_Basic(t *testing.T) {
	b := NewBitset(100)

	b.Set(0)
	b.Set(50)
	b.Set(99)

	if !b.Test(0) || !b.Test(50) || !b.Test(99) {
		t.Error("expected bits 0, 50 and 99 to be set")
	}
	if b.Test(1) {
		t.Error("expected bit 1 to be clear")
	}
	if b.Count() != 3 {
		t.Errorf("expected count 3, got %d", b.Count())
	}

	b.Clear(50)
	if b.Test(50) {
		t.Error("expected bit 50 to be clear after Clear")
	}
	if b.Count() != 2 {
		t.Errorf("expected count 2 after Clear, got %d", b.Count())
	}
}

func TestBitset_OutOfRange(t *testing.T) {
	b := NewBitset(64)

	b.Set(-1)
	if b.Count() != 0 {
		t.Error("negative Set must be ignored")
	}
	if b.Test(-1) || b.Test(1000) {
		t.Error("out-of-range Test must report false")
	}
	b.Clear(1000)
}

func TestBitset_Grow(t *testing.T) {
	b := NewBitset(64)

	b.Set(200)
	if !b.Test(200) {
		t.Error("expected bit 200 to be set after grow")
	}
	if b.Size() < 201 {
		t.Errorf("expected size >= 201, got %d", b.Size())
	}
	if b.Test(199) {
		t.Error("grow must not set neighboring bits")
	}
}

func TestBitset_ClearAll(t *testing.T) {
	b := NewBitset(100)
	for i := 0; i < 100; i += 7 {
		b.Set(i)
	}

	b.ClearAll()
	if b.Count() != 0 {
		t.Errorf("expected count 0 after ClearAll, got %d", b.Count())
	}
}

func TestBitset_Iterate(t *testing.T) {
	b := NewBitset(256)
	want := []int{3, 64, 65, 200}
	for _, i := range want {
		b.Set(i)
	}

	var got []int
	b.Iterate(func(i int) bool {
		got = append(got, i)
		return true
	})

	if len(got) != len(want) {
		t.Fatalf("expected %d indices, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: expected %d, got %d", i, want[i], got[i])
		}
	}

	// Early stop after the first index.
	var first []int
	b.Iterate(func(i int) bool {
		first = append(first, i)
		return false
	})
	if len(first) != 1 || first[0] != 3 {
		t.Errorf("expected iteration to stop at 3, got %v", first)
	}
}

func TestBitset_ToSlice(t *testing.T) {
	b := NewBitset(64)
	b.Set(5)
	b.Set(9)

	got := b.ToSlice()
	if len(got) != 2 || got[0] != 5 || got[1] != 9 {
		t.Errorf("expected [5 9], got %v", got)
	}
}

func TestVersionedBitset_SetTestReset(t *testing.T) {
	v := NewVersionedBitset(32)

	v.Set(3)
	v.Set(17)
	if !v.Test(3) || !v.Test(17) {
		t.Error("expected marks 3 and 17")
	}
	if v.Test(4) {
		t.Error("expected 4 to be unmarked")
	}

	v.Reset()
	if v.Test(3) || v.Test(17) {
		t.Error("expected all marks gone after Reset")
	}

	v.Set(3)
	if !v.Test(3) {
		t.Error("expected mark 3 in the new generation")
	}
}

func TestVersionedBitset_Grow(t *testing.T) {
	v := NewVersionedBitset(8)

	v.Set(100)
	if !v.Test(100) {
		t.Error("expected mark 100 after grow")
	}
	if v.Size() < 101 {
		t.Errorf("expected size >= 101, got %d", v.Size())
	}
	if v.Test(99) {
		t.Error("grow must not mark neighboring slots")
	}
}

func TestVersionedBitset_ManyResets(t *testing.T) {
	v := NewVersionedBitset(4)
	for round := 0; round < 1000; round++ {
		v.Set(round % 4)
		if !v.Test(round % 4) {
			t.Fatalf("round %d: expected mark", round)
		}
		v.Reset()
		if v.Test(round % 4) {
			t.Fatalf("round %d: expected no mark after Reset", round)
		}
	}
}
