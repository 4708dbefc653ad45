// Package propagate implements the AC-3 style constraint propagator:
// after a placement, shrink the domains of empty neighbors and report a
// dead end if any domain empties out.
package propagate

import (
	"github.com/edgetile/eternity/internal/domain"
	"github.com/edgetile/eternity/internal/fit"
	"github.com/edgetile/eternity/internal/puzzle"
)

// Propagator prunes neighbor domains after a placement. It is sound
// (never discards a still-feasible placement) but not complete (it does
// not solve the remaining subproblem).
type Propagator struct {
	checker *fit.Checker
	useAC3  bool

	deadEnds uint64

	cache  *domain.Cache
	hashFn func() uint64
}

// New creates a Propagator. useAC3 gates propagation entirely: when
// false, Propagate is a no-op returning true. A debugging/benchmark
// knob, not a correctness knob.
func New(checker *fit.Checker, useAC3 bool) *Propagator {
	return &Propagator{checker: checker, useAC3: useAC3}
}

// EnableCache opts a Propagator into the domain cache: cell
// revalidation during AC-3 first consults cache for the board state
// hashFn reports, only falling back to the Fit Checker on a miss. Not
// set by New directly since a Propagator is usable without caching;
// the orchestrator wires this in only when UseDomainCache is set.
func (p *Propagator) EnableCache(cache *domain.Cache, hashFn func() uint64) {
	p.cache = cache
	p.hashFn = hashFn
}

// DeadEnds returns the number of dead-ends detected so far.
func (p *Propagator) DeadEnds() uint64 { return p.deadEnds }

// Propagate runs AC-3 starting from the empty neighbors of (r,c), which
// just received a placement of tile id. It mutates store in place and
// returns false the instant any cell's domain becomes empty. The
// caller is responsible for snapshotting store before calling Propagate
// and restoring it on a false return or on backtrack (the Store itself
// does not auto-checkpoint).
func (p *Propagator) Propagate(b *puzzle.Board, ts *puzzle.TileSet, store *domain.Store, r, c int, placedID puzzle.TileID) bool {
	if !p.useAC3 {
		return true
	}

	queue := emptyNeighbors(b, r, c)
	queued := make(map[[2]int]bool, len(queue))
	for _, cell := range queue {
		queued[cell] = true
	}

	for len(queue) > 0 {
		cell := queue[0]
		queue = queue[1:]
		delete(queued, cell)
		cr, cc := cell[0], cell[1]

		if !b.IsEmpty(cr, cc) {
			continue // filled since being queued; nothing to prune
		}

		before := store.Size(cr, cc)
		emptied := store.RemoveTileFromCell(cr, cc, placedID)
		// Re-validate every remaining (tile, rotation) pair against the
		// cell's currently-filled neighbors; a neighbor placed earlier
		// in this same propagation pass may have invalidated entries
		// that were legal when the domain was first computed. When the
		// domain cache is enabled, a full cached recompute replaces the
		// incremental per-rotation scan below it would otherwise take.
		var becameEmpty bool
		if p.cache != nil {
			store.RecomputeCellCached(b, ts, p.cache, p.hashFn(), cr, cc)
			becameEmpty = store.Size(cr, cc) == 0 || emptied
		} else {
			becameEmpty = p.revalidateCell(b, ts, store, cr, cc) || emptied
		}

		if becameEmpty {
			p.deadEnds++
			return false
		}
		if store.Size(cr, cc) >= before {
			continue // domain did not shrink; its neighbors need no re-check
		}

		for _, n := range emptyNeighbors(b, cr, cc) {
			if !queued[n] {
				queue = append(queue, n)
				queued[n] = true
			}
		}
	}
	return true
}

// revalidateCell drops any (tile, rotation) entry that no longer fits
// the cell's currently-filled neighbors. Returns true if the domain
// became empty.
func (p *Propagator) revalidateCell(b *puzzle.Board, ts *puzzle.TileSet, store *domain.Store, r, c int) bool {
	for _, entry := range store.DomainOf(r, c) {
		t := ts.Get(entry.TileID)
		for _, rot := range entry.Rotations {
			edges := t.EdgesRotated(rot)
			if !p.checker.Fits(b, r, c, edges) {
				if empty := store.RemoveRotationFromCell(r, c, entry.TileID, rot); empty {
					return true
				}
			}
		}
	}
	return store.Size(r, c) == 0
}

func emptyNeighbors(b *puzzle.Board, r, c int) [][2]int {
	var out [][2]int
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
		if b.InBounds(nr, nc) && b.IsEmpty(nr, nc) {
			out = append(out, [2]int{nr, nc})
		}
	}
	return out
}
