package puzzle

import "testing"

func TestBoardHashApplyIsSelfInverse(t *testing.T) {
	h := NewBoardHash()
	initial := h.Value()

	h.Apply(0, 0, 1, 2)
	if h.Value() == initial {
		t.Fatal("applying a placement should change the hash")
	}

	h.Apply(0, 0, 1, 2)
	if h.Value() != initial {
		t.Fatal("applying the same placement twice should restore the original hash")
	}
}

func TestBoardHashOrderIndependent(t *testing.T) {
	a := NewBoardHash()
	a.Apply(0, 0, 1, 0)
	a.Apply(0, 1, 2, 1)

	b := NewBoardHash()
	b.Apply(0, 1, 2, 1)
	b.Apply(0, 0, 1, 0)

	if a.Value() != b.Value() {
		t.Fatal("XOR accumulation must be order independent")
	}
}

func TestBoardHashCloneIndependence(t *testing.T) {
	a := NewBoardHash()
	a.Apply(1, 1, 5, 0)
	b := a.Clone()
	b.Apply(2, 2, 6, 0)

	if a.Value() == b.Value() {
		t.Fatal("clone should be independent after divergent mutation")
	}
}
