package puzzle

import "testing"

func TestEdgesRotatedModulo(t *testing.T) {
	tile := NewTile(1, Edges{1, 2, 3, 4})

	tests := []struct {
		k        int
		expected Edges
	}{
		{0, Edges{1, 2, 3, 4}},
		{1, Edges{4, 1, 2, 3}},
		{2, Edges{3, 4, 1, 2}},
		{3, Edges{2, 3, 4, 1}},
		{4, Edges{1, 2, 3, 4}},
		{-1, Edges{2, 3, 4, 1}},
		{-4, Edges{1, 2, 3, 4}},
		{5, Edges{4, 1, 2, 3}},
	}

	for _, tt := range tests {
		if got := tile.EdgesRotated(tt.k); got != tt.expected {
			t.Errorf("EdgesRotated(%d) = %v, want %v", tt.k, got, tt.expected)
		}
	}
}

func TestEdgesRotatedModuloEquivalence(t *testing.T) {
	tile := NewTile(1, Edges{7, 9, 2, 5})
	for k := -12; k <= 12; k++ {
		mod := ((k % 4) + 4) % 4
		if tile.EdgesRotated(k) != tile.EdgesRotated(mod) {
			t.Errorf("EdgesRotated(%d) != EdgesRotated(%d)", k, mod)
		}
	}
}

func TestEdgesRotatedInverse(t *testing.T) {
	base := Edges{3, 1, 4, 1}
	tile := NewTile(1, base)
	if tile.EdgesRotated(0) != tile.BaseEdges() {
		t.Fatalf("EdgesRotated(0) must equal BaseEdges")
	}
	for k := 0; k < 4; k++ {
		rotated := NewTile(2, tile.EdgesRotated(k))
		if rotated.EdgesRotated(4-k) != base {
			t.Errorf("rotate by %d then %d did not return to base: got %v", k, 4-k, rotated.EdgesRotated(4-k))
		}
	}
}

func TestDistinctRotations(t *testing.T) {
	tests := []struct {
		name string
		base Edges
		want int
	}{
		{"all different", Edges{1, 2, 3, 4}, 4},
		{"fully symmetric frame", Edges{0, 0, 0, 0}, 1},
		{"two-fold symmetry", Edges{1, 2, 1, 2}, 2},
	}
	for _, tt := range tests {
		tile := NewTile(1, tt.base)
		if got := tile.DistinctRotations(); got != tt.want {
			t.Errorf("%s: DistinctRotations() = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestFrameEdgeCount(t *testing.T) {
	corner := NewTile(1, Edges{FrameColor, 1, 2, FrameColor})
	if got := corner.FrameEdgeCount(); got != 2 {
		t.Errorf("corner FrameEdgeCount() = %d, want 2", got)
	}
	edge := NewTile(2, Edges{FrameColor, 1, 2, 3})
	if got := edge.FrameEdgeCount(); got != 1 {
		t.Errorf("edge FrameEdgeCount() = %d, want 1", got)
	}
	interior := NewTile(3, Edges{1, 2, 3, 4})
	if got := interior.FrameEdgeCount(); got != 0 {
		t.Errorf("interior FrameEdgeCount() = %d, want 0", got)
	}
}

func TestCornerCandidates(t *testing.T) {
	ts := NewTileSet([]*Tile{
		NewTile(1, Edges{FrameColor, 1, 2, FrameColor}),  // corner
		NewTile(2, Edges{1, 2, 3, 4}),                    // interior
		NewTile(3, Edges{FrameColor, 5, 6, FrameColor}),  // corner
		NewTile(4, Edges{FrameColor, 7, 8, 9}),           // edge (1 frame side)
		NewTile(5, Edges{FrameColor, FrameColor, 1, 2}),  // corner
	})

	got := ts.CornerCandidates(2)
	want := []TileID{1, 3}
	if len(got) != len(want) {
		t.Fatalf("CornerCandidates(2) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("CornerCandidates(2) = %v, want %v", got, want)
		}
	}

	all := ts.CornerCandidates(10)
	if len(all) != 3 {
		t.Fatalf("CornerCandidates(10) = %v, want 3 corner tiles (fewer than requested)", all)
	}
}

func TestTileSetDuplicateIDPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate tile id")
		}
	}()
	NewTileSet([]*Tile{NewTile(1, Edges{}), NewTile(1, Edges{})})
}
