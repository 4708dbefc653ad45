// Package fit implements the cheap local-legality test: does an
// oriented tile satisfy the frame constraint and agree with whichever
// neighbors are already filled at a given cell.
package fit

import "github.com/edgetile/eternity/internal/puzzle"

// Checker is a pure fit-check function plus a monotone counter that the
// statistics report draws on.
type Checker struct {
	checks uint64
}

// New creates a Checker with its counter at zero.
func New() *Checker {
	return &Checker{}
}

// Checks returns the number of fit checks performed so far.
func (c *Checker) Checks() uint64 { return c.checks }

// Fits reports whether placing oriented edges at (r,c) on board b is
// locally legal: frame sides must carry the sentinel color, interior
// sides must not, and every already-filled neighbor's facing edge must
// match. Pure: no mutation of b beyond the counter.
func (c *Checker) Fits(b *puzzle.Board, r, cCol int, edges puzzle.Edges) bool {
	c.checks++

	for _, d := range [4]puzzle.Direction{puzzle.North, puzzle.East, puzzle.South, puzzle.West} {
		if isOutwardFrameSide(b, r, cCol, d) {
			// Sides facing the perimeter must carry the sentinel.
			if edges[d] != puzzle.FrameColor {
				return false
			}
			continue
		}

		// Interior-facing sides must not be the sentinel.
		if edges[d] == puzzle.FrameColor {
			return false
		}

		// Agree with an already-filled neighbor, if any.
		if neighborEdge, filled := b.NeighborEdge(r, cCol, d); filled {
			if neighborEdge != edges[d] {
				return false
			}
		}
	}
	return true
}

// isOutwardFrameSide reports whether side d of cell (r,c) faces outward
// past the board edge (i.e. there is no neighbor in that direction).
func isOutwardFrameSide(b *puzzle.Board, r, c int, d puzzle.Direction) bool {
	switch d {
	case puzzle.North:
		return r == 0
	case puzzle.South:
		return r == b.Rows()-1
	case puzzle.East:
		return c == b.Cols()-1
	case puzzle.West:
		return c == 0
	}
	return false
}
