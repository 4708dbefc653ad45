// Package orderer implements the LCV (Least Constraining Value) value
// orderer: given a chosen cell, order its candidate placements so the
// most promising ones are tried first.
package orderer

import (
	"sort"

	"github.com/edgetile/eternity/internal/domain"
	"github.com/edgetile/eternity/internal/puzzle"
)

// SortOrder selects the numeric tileId fallback direction when the
// orderer is disabled, matching the external "sortOrder" control.
type SortOrder int

const (
	Ascending SortOrder = iota
	Descending
)

// Candidate is one (tile, rotation) option for a cell, carrying the
// scoring inputs an Orderer needs.
type Candidate struct {
	TileID   puzzle.TileID
	Rotation int
	Edges    puzzle.Edges
}

// Orderer produces an ordered candidate list for a cell.
type Orderer struct {
	enabled   bool
	sortOrder SortOrder
	ts        *puzzle.TileSet
	edgeIndex *puzzle.EdgeIndex
}

// New creates an Orderer. When enabled is false, Order falls back to
// numeric tileId order in the configured direction. ts is used to
// resolve a neighbor domain entry's oriented edges; edgeIndex supplies
// the secondary difficulty key.
func New(enabled bool, sortOrder SortOrder, ts *puzzle.TileSet, edgeIndex *puzzle.EdgeIndex) *Orderer {
	return &Orderer{enabled: enabled, sortOrder: sortOrder, ts: ts, edgeIndex: edgeIndex}
}

// scored pairs a candidate with its ordering keys.
type scored struct {
	cand             Candidate
	remainingOptions int     // primary: least-constraining-first (higher is better)
	difficulty       float64 // secondary: harder tiles first
}

// Order sorts candidates for placement at (r,c). remainingOptions is
// computed as the total, summed over each empty orthogonal neighbor of
// (r,c), of how many of that neighbor's current domain entries would
// still fit if the candidate were placed: the "leaves neighbors with
// the most remaining options" LCV criterion. Sort is stable for
// determinism, and remaining ties break by tile-id ascending whatever
// the configured fallback direction, for predictability across runs.
func (o *Orderer) Order(b *puzzle.Board, store *domain.Store, r, c int, candidates []Candidate) []Candidate {
	if !o.enabled {
		out := make([]Candidate, len(candidates))
		copy(out, candidates)
		sort.SliceStable(out, func(i, j int) bool {
			if o.sortOrder == Descending {
				return out[i].TileID > out[j].TileID
			}
			return out[i].TileID < out[j].TileID
		})
		return out
	}

	scoredList := make([]scored, len(candidates))
	for i, cand := range candidates {
		scoredList[i] = scored{
			cand:             cand,
			remainingOptions: o.remainingOptionsAfter(b, store, r, c, cand.Edges),
			difficulty:       o.difficultyOf(cand.TileID),
		}
	}

	sort.SliceStable(scoredList, func(i, j int) bool {
		a, bb := scoredList[i], scoredList[j]
		if a.remainingOptions != bb.remainingOptions {
			return a.remainingOptions > bb.remainingOptions
		}
		if a.difficulty != bb.difficulty {
			return a.difficulty > bb.difficulty
		}
		return a.cand.TileID < bb.cand.TileID
	})

	out := make([]Candidate, len(scoredList))
	for i, s := range scoredList {
		out[i] = s.cand
	}
	return out
}

func (o *Orderer) difficultyOf(id puzzle.TileID) float64 {
	if o.edgeIndex == nil {
		return 0
	}
	return o.edgeIndex.Difficulty(id)
}

// remainingOptionsAfter sums, over each empty orthogonal neighbor of
// (r,c), how many of that neighbor's current domain (tile, rotation)
// entries present an edge compatible with the hypothetical placement's
// facing side.
func (o *Orderer) remainingOptionsAfter(b *puzzle.Board, store *domain.Store, r, c int, edges puzzle.Edges) int {
	total := 0
	for _, d := range [4]puzzle.Direction{puzzle.North, puzzle.East, puzzle.South, puzzle.West} {
		nr, nc := r, c
		switch d {
		case puzzle.North:
			nr--
		case puzzle.South:
			nr++
		case puzzle.East:
			nc++
		case puzzle.West:
			nc--
		}
		if !b.InBounds(nr, nc) || !b.IsEmpty(nr, nc) {
			continue
		}
		required := edges[d]
		opposite := d.Opposite()
		for _, entry := range store.DomainOf(nr, nc) {
			t := o.ts.Get(entry.TileID)
			for _, rot := range entry.Rotations {
				if t.EdgesRotated(rot)[opposite] == required {
					total++
				}
			}
		}
	}
	return total
}
