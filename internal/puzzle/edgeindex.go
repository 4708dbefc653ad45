package puzzle

// EdgeIndex answers, for a compass direction and a color, which tiles
// can present that color on that side in some rotation. It is built
// once from a TileSet and never mutated afterward, so every worker can
// read it without synchronization.
//
// It also carries a per-tile difficulty score, the value orderer's
// secondary key: the sum, over the tile's four sides, of the reciprocal
// of how many tiles can be placed against it on the opposite side. A
// tile whose colors are rare on the sides that must match a neighbor is
// "hard"; committing hard tiles first tends to fail fast rather than
// late.
type EdgeIndex struct {
	// bySideColor[d][color] lists (tileId, rotation) pairs presenting
	// color on side d.
	bySideColor [4]map[Color][]Placement

	difficulty map[TileID]float64
}

// Placement names an oriented tile without a board position: which tile,
// in which rotation.
type Placement struct {
	TileID   TileID
	Rotation int
}

// BuildEdgeIndex constructs the index from a tile set.
func BuildEdgeIndex(ts *TileSet) *EdgeIndex {
	idx := &EdgeIndex{difficulty: make(map[TileID]float64, ts.Len())}
	for d := 0; d < 4; d++ {
		idx.bySideColor[d] = make(map[Color][]Placement)
	}

	// sideColorCount[d][color] = number of distinct (tile,rotation)
	// pairs presenting color on side d; used for the opposite-side
	// popularity count in the difficulty formula.
	var sideColorCount [4]map[Color]int
	for d := 0; d < 4; d++ {
		sideColorCount[d] = make(map[Color]int)
	}

	ts.Each(func(t *Tile) {
		rotations := t.DistinctRotations()
		seen := make(map[Edges]bool, rotations)
		for k := 0; k < 4; k++ {
			e := t.EdgesRotated(k)
			if seen[e] {
				continue // symmetric duplicate, don't double count
			}
			seen[e] = true
			for side := 0; side < 4; side++ {
				color := e[side]
				idx.bySideColor[side][color] = append(idx.bySideColor[side][color], Placement{TileID: t.id, Rotation: k})
				sideColorCount[side][color]++
			}
		}
	})

	ts.Each(func(t *Tile) {
		base := t.BaseEdges()
		var score float64
		for side := 0; side < 4; side++ {
			opposite := Direction(side).Opposite()
			color := base[side]
			count := sideColorCount[opposite][color]
			if count == 0 {
				count = 1 // avoid div-by-zero; an unmatched color is maximally hard
			}
			score += 1.0 / float64(count)
		}
		idx.difficulty[t.id] = score
	})

	return idx
}

// CandidatesFor returns the (tileId, rotation) pairs that present color
// on side d, in ascending tileId then rotation order. The returned slice
// is a fresh copy; callers may filter it freely.
func (idx *EdgeIndex) CandidatesFor(d Direction, color Color) []Placement {
	src := idx.bySideColor[d][color]
	out := make([]Placement, len(src))
	copy(out, src)
	return out
}

// Difficulty returns the tile's precomputed difficulty score: higher
// means its colors are rarer among the rest of the set.
func (idx *EdgeIndex) Difficulty(id TileID) float64 {
	return idx.difficulty[id]
}
