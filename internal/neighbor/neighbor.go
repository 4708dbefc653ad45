// Package neighbor implements the trapped-gap lookahead: reject a
// candidate placement if it would leave any empty neighbor with zero
// legal candidates.
package neighbor

import (
	"github.com/edgetile/eternity/internal/domain"
	"github.com/edgetile/eternity/internal/puzzle"
)

// Analyzer performs the cheap, early-exit veto test. It duplicates part
// of what AC-3 would discover anyway, but runs before a placement is
// committed and bails on the first trapped neighbor, so it is much
// cheaper than the full propagation pass it front-runs.
type Analyzer struct {
	ts *puzzle.TileSet
}

// New creates an Analyzer bound to the immutable tile set.
func New(ts *puzzle.TileSet) *Analyzer {
	return &Analyzer{ts: ts}
}

// Result carries the veto verdict and the constraint score (an
// additional LCV signal: how many total neighbor options survive).
type Result struct {
	OK              bool
	ConstraintScore int
}

// Check evaluates a hypothetical placement of edges at (r,c) without
// mutating the board. For each empty orthogonal neighbor, it counts how
// many (unused tile, rotation) pairs in that neighbor's current domain
// would still fit assuming (r,c) holds edges; a zero count on any
// neighbor vetoes the candidate.
func (a *Analyzer) Check(b *puzzle.Board, store *domain.Store, r, c int, candidateID puzzle.TileID, edges puzzle.Edges) Result {
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
		count := 0
		for _, entry := range store.DomainOf(nr, nc) {
			if entry.TileID == candidateID {
				continue // candidateID will be used up by this placement
			}
			t := a.ts.Get(entry.TileID)
			for _, rot := range entry.Rotations {
				if t.EdgesRotated(rot)[opposite] == required {
					count++
				}
			}
		}
		if count == 0 {
			return Result{OK: false}
		}
		total += count
	}
	return Result{OK: true, ConstraintScore: total}
}
