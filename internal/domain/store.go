// Package domain implements the per-cell legal-placement store: for
// every empty cell, which (tileId, rotation) pairs are currently legal,
// plus a checkpoint/restore pair that makes backtracking sound.
package domain

import (
	"sort"

	"github.com/edgetile/eternity/internal/fit"
	"github.com/edgetile/eternity/internal/puzzle"
)

// Entry is one legal candidate at a cell: a tile id and the (possibly
// several) rotations that are locally legal there. Rotations is never
// empty; an entry whose last rotation is pruned is removed from the
// domain entirely.
type Entry struct {
	TileID    puzzle.TileID
	Rotations []int
}

// cellDomain is the per-cell legal-entry map, keyed by tile id for O(1)
// removal, plus an ordered id list so iteration is deterministic.
type cellDomain struct {
	entries map[puzzle.TileID][]int
	order   []puzzle.TileID
}

func newCellDomain() *cellDomain {
	return &cellDomain{entries: make(map[puzzle.TileID][]int)}
}

func (cd *cellDomain) set(id puzzle.TileID, rotations []int) {
	if _, exists := cd.entries[id]; !exists {
		cd.order = append(cd.order, id)
	}
	cd.entries[id] = rotations
}

func (cd *cellDomain) remove(id puzzle.TileID) {
	if _, exists := cd.entries[id]; !exists {
		return
	}
	delete(cd.entries, id)
	for i, existing := range cd.order {
		if existing == id {
			cd.order = append(cd.order[:i], cd.order[i+1:]...)
			break
		}
	}
}

func (cd *cellDomain) clone() *cellDomain {
	out := newCellDomain()
	out.order = append(out.order, cd.order...)
	for id, rot := range cd.entries {
		cp := make([]int, len(rot))
		copy(cp, rot)
		out.entries[id] = cp
	}
	return out
}

func (cd *cellDomain) entriesOrdered() []Entry {
	out := make([]Entry, 0, len(cd.order))
	for _, id := range cd.order {
		out = append(out, Entry{TileID: id, Rotations: cd.entries[id]})
	}
	return out
}

// Store holds the current domain for every empty cell of one worker's
// board. Not safe for concurrent use; each worker owns exactly one
// Store and nothing else ever reads it.
type Store struct {
	rows, cols int
	cells      []*cellDomain // nil for filled cells, row-major
	checker    *fit.Checker
}

// NewStore creates an empty Store sized for an R x C board. Call
// Initialize before first use.
func NewStore(rows, cols int, checker *fit.Checker) *Store {
	return &Store{rows: rows, cols: cols, cells: make([]*cellDomain, rows*cols), checker: checker}
}

func (s *Store) index(r, c int) int { return r*s.cols + c }

// Initialize computes the domain for every empty cell by trying every
// unused tile in every one of its distinct rotations against the Fit
// Checker. If the resulting state is unsolvable, at least one cell ends
// up with an empty domain; callers detect this by scanning rather than
// through an error return.
func (s *Store) Initialize(b *puzzle.Board, ts *puzzle.TileSet) {
	for r := 0; r < s.rows; r++ {
		for c := 0; c < s.cols; c++ {
			if b.IsEmpty(r, c) {
				s.cells[s.index(r, c)] = s.computeCellDomain(b, ts, r, c)
			} else {
				s.cells[s.index(r, c)] = nil
			}
		}
	}
}

// computeCellDomain recomputes the domain of a single empty cell from
// scratch against the board's current neighbors.
func (s *Store) computeCellDomain(b *puzzle.Board, ts *puzzle.TileSet, r, c int) *cellDomain {
	cd := newCellDomain()
	ids := ts.IDs()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		if b.IsUsed(id) {
			continue // no placed tile appears in any domain
		}
		t := ts.Get(id)
		var rotations []int
		seen := make(map[puzzle.Edges]bool, t.DistinctRotations())
		for k := 0; k < 4; k++ {
			edges := t.EdgesRotated(k)
			if seen[edges] {
				continue
			}
			seen[edges] = true
			if s.checker.Fits(b, r, c, edges) {
				rotations = append(rotations, k)
			}
		}
		if len(rotations) > 0 {
			cd.set(id, rotations)
		}
	}
	return cd
}

// RecomputeCell lazily recomputes a single cell's domain (used by the
// AC-3 propagator and by cache misses).
func (s *Store) RecomputeCell(b *puzzle.Board, ts *puzzle.TileSet, r, c int) {
	if !b.IsEmpty(r, c) {
		s.cells[s.index(r, c)] = nil
		return
	}
	s.cells[s.index(r, c)] = s.computeCellDomain(b, ts, r, c)
}

// RecomputeCellCached is RecomputeCell with an optional LRU assist: if
// cache already holds a domain for (hash, r, c) it is installed
// directly, skipping the Fit Checker entirely; otherwise the domain is
// computed from scratch and stored back into cache for the next worker
// frame that revisits this exact (board-state, cell) pair. cache may be
// nil to disable the optimization (falls back to RecomputeCell).
func (s *Store) RecomputeCellCached(b *puzzle.Board, ts *puzzle.TileSet, cache *Cache, hash uint64, r, c int) {
	if cache == nil {
		s.RecomputeCell(b, ts, r, c)
		return
	}
	if !b.IsEmpty(r, c) {
		s.cells[s.index(r, c)] = nil
		return
	}
	if hit, ok := cache.Get(hash, r, c); ok {
		cd := newCellDomain()
		for _, e := range hit {
			cd.set(e.TileID, e.Rotations)
		}
		s.cells[s.index(r, c)] = cd
		return
	}
	s.cells[s.index(r, c)] = s.computeCellDomain(b, ts, r, c)
	cache.Put(hash, r, c, s.DomainOf(r, c))
}

// DomainOf returns the current legal entries for an empty cell, in
// ascending tile-id order. Returns nil for a filled cell.
func (s *Store) DomainOf(r, c int) []Entry {
	cd := s.cells[s.index(r, c)]
	if cd == nil {
		return nil
	}
	return cd.entriesOrdered()
}

// Size returns the number of distinct tile ids legal at (r,c).
func (s *Store) Size(r, c int) int {
	cd := s.cells[s.index(r, c)]
	if cd == nil {
		return 0
	}
	return len(cd.order)
}

// RemoveTileFromCell removes one tile id from a cell's domain entirely
// (e.g. because it was just placed elsewhere). Returns true if the
// domain became empty as a result (a dead-end signal for AC-3).
func (s *Store) RemoveTileFromCell(r, c int, id puzzle.TileID) (becameEmpty bool) {
	cd := s.cells[s.index(r, c)]
	if cd == nil {
		return false
	}
	cd.remove(id)
	return len(cd.order) == 0
}

// RemoveRotationFromCell drops a single rotation from a (cell, tile)
// entry, retiring the tile from the cell entirely if no rotation
// remains. Returns true if the domain became empty as a result.
func (s *Store) RemoveRotationFromCell(r, c int, id puzzle.TileID, rotation int) (becameEmpty bool) {
	cd := s.cells[s.index(r, c)]
	if cd == nil {
		return false
	}
	rotations, ok := cd.entries[id]
	if !ok {
		return len(cd.order) == 0
	}
	filtered := rotations[:0:0]
	for _, k := range rotations {
		if k != rotation {
			filtered = append(filtered, k)
		}
	}
	if len(filtered) == 0 {
		cd.remove(id)
	} else {
		cd.entries[id] = filtered
	}
	return len(cd.order) == 0
}

// MarkFilled clears a cell's domain because it now holds a placement;
// only empty cells carry a domain.
func (s *Store) MarkFilled(r, c int) {
	s.cells[s.index(r, c)] = nil
}

// Checkpoint is an opaque deep snapshot of the whole store, restorable
// with Restore. The only contract is that Restore returns domain state
// bit-equivalent to before the corresponding placement; a full copy is
// used here rather than an undo log.
type Checkpoint struct {
	cells []*cellDomain
}

// Snapshot captures the entire store's current state.
func (s *Store) Snapshot() *Checkpoint {
	cp := &Checkpoint{cells: make([]*cellDomain, len(s.cells))}
	for i, cd := range s.cells {
		if cd != nil {
			cp.cells[i] = cd.clone()
		}
	}
	return cp
}

// Restore replaces the store's state with a previously captured
// checkpoint.
func (s *Store) Restore(cp *Checkpoint) {
	for i, cd := range cp.cells {
		if cd != nil {
			s.cells[i] = cd.clone()
		} else {
			s.cells[i] = nil
		}
	}
}

// EmptyCells returns the (r,c) of every cell currently carrying a
// (possibly empty) domain, i.e. every board-empty cell.
func (s *Store) EmptyCells() [][2]int {
	var out [][2]int
	for r := 0; r < s.rows; r++ {
		for c := 0; c < s.cols; c++ {
			if s.cells[s.index(r, c)] != nil {
				out = append(out, [2]int{r, c})
			}
		}
	}
	return out
}
