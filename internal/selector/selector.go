// Package selector implements the MRV (Minimum Remaining Values) cell
// selector: which empty cell to branch on next.
package selector

import (
	"github.com/edgetile/eternity/internal/domain"
	"github.com/edgetile/eternity/internal/puzzle"
)

// Selector picks the next empty cell to branch on. It never mutates
// board or store state.
type Selector struct {
	prioritizeBorders bool
	// gapRuleThreshold is the tuned constant of the "50% gap rule": a
	// zero-filled-neighbor border cell is demoted versus a cell with
	// >=1 filled neighbor when its candidate count exceeds this
	// fraction of the other's.
	gapRuleThreshold float64
}

// New creates a Selector. prioritizeBorders gates tie-break 2 (frame
// cells preferred, "gap-on-border" suppression).
func New(prioritizeBorders bool) *Selector {
	return &Selector{prioritizeBorders: prioritizeBorders, gapRuleThreshold: 0.5}
}

// Result names the chosen cell, or Found=false when the board is
// complete.
type Result struct {
	Row, Col int
	Found    bool
}

// candidate is one empty cell's tie-break key set.
type candidate struct {
	row, col   int
	domainSize int
	filledNbrs int
	onBorder   bool
}

// Select scans every empty cell and returns the MRV winner. When border
// priority is enabled, the 50% gap rule between two border cells is
// applied first; then (1) fewest candidates, (2) most filled orthogonal
// neighbors, (3) border cells first (if enabled), (4) row-major index.
func (s *Selector) Select(b *puzzle.Board, store *domain.Store) Result {
	var best *candidate
	for r := 0; r < b.Rows(); r++ {
		for c := 0; c < b.Cols(); c++ {
			if !b.IsEmpty(r, c) {
				continue
			}
			cand := candidate{
				row:        r,
				col:        c,
				domainSize: store.Size(r, c),
				filledNbrs: b.FilledNeighborCount(r, c),
				onBorder:   b.IsFrame(r, c),
			}
			if best == nil || s.less(&cand, best) {
				best = &cand
			}
		}
	}

	if best == nil {
		return Result{Found: false}
	}
	return Result{Row: best.row, Col: best.col, Found: true}
}

// less reports whether a should be preferred over b per the tie-break
// chain. The 50% gap rule runs ahead of the MRV primary key: it exists
// precisely to override "smallest domain wins" when that would start a
// disconnected border run, so it cannot live below the domain-size
// comparison.
func (s *Selector) less(a, b *candidate) bool {
	if s.prioritizeBorders && a.onBorder && b.onBorder {
		// 50% gap rule: a zero-filled-neighbor border cell is demoted
		// versus one with >=1 filled neighbor unless its candidate
		// count is at most half the other's, to avoid splitting border
		// fill into disconnected runs.
		if a.filledNbrs == 0 && b.filledNbrs >= 1 &&
			float64(a.domainSize) > s.gapRuleThreshold*float64(b.domainSize) {
			return false
		}
		if b.filledNbrs == 0 && a.filledNbrs >= 1 &&
			float64(b.domainSize) > s.gapRuleThreshold*float64(a.domainSize) {
			return true
		}
	}
	if a.domainSize != b.domainSize {
		return a.domainSize < b.domainSize
	}
	if a.filledNbrs != b.filledNbrs {
		return a.filledNbrs > b.filledNbrs
	}
	if s.prioritizeBorders && a.onBorder != b.onBorder {
		return a.onBorder
	}
	if a.row != b.row {
		return a.row < b.row
	}
	return a.col < b.col
}
