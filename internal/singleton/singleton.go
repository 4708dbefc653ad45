// Package singleton implements the forced-move detector: find an
// empty cell with exactly one legal placement, or an unused tile with
// exactly one legal placement anywhere on the board.
package singleton

import (
	"github.com/edgetile/eternity/internal/domain"
	"github.com/edgetile/eternity/internal/puzzle"
)

// ForcedMove names a single legal placement the backtracker must take
// without branching.
type ForcedMove struct {
	Row, Col int
	TileID   puzzle.TileID
	Rotation int
}

// Result is the outcome of one detection pass.
type Result struct {
	Move     ForcedMove
	Found    bool
	DeadEnd  bool // a stronger signal than AC-3: some unused tile fits nowhere
	DeadTile puzzle.TileID
}

// Detector scans the current domain store for forced moves. It is
// stateless and safe to call repeatedly as the board changes; the
// Backtracking Core calls it at the top of every recursion frame.
type Detector struct {
	enabled bool
}

// New creates a Detector. enabled mirrors the useSingletons control.
func New(enabled bool) *Detector {
	return &Detector{enabled: enabled}
}

// Detect scans every empty cell once, collecting (a) the first
// cell-singleton (a domain with exactly one (tile,rotation) entry) and
// (b) a tileId -> occurrences map for every unused tile. A dead tile
// (zero occurrences) is a stronger signal than any singleton and is
// checked first, since a singleton would otherwise mislead the caller
// into continuing an already-unsolvable branch. Absent a dead tile, a
// cell-singleton is preferred over a tile-singleton; when several
// disjoint singletons exist the first found wins and the next scan
// picks up the rest.
func (d *Detector) Detect(b *puzzle.Board, ts *puzzle.TileSet, store *domain.Store) Result {
	if !d.enabled {
		return Result{}
	}

	tileOccurrences := make(map[puzzle.TileID][]ForcedMove)
	var cellSingleton *ForcedMove

	for r := 0; r < b.Rows(); r++ {
		for c := 0; c < b.Cols(); c++ {
			if !b.IsEmpty(r, c) {
				continue
			}
			dom := store.DomainOf(r, c)
			total := 0
			for _, entry := range dom {
				total += len(entry.Rotations)
				for _, rot := range entry.Rotations {
					tileOccurrences[entry.TileID] = append(tileOccurrences[entry.TileID], ForcedMove{Row: r, Col: c, TileID: entry.TileID, Rotation: rot})
				}
			}
			if total == 1 && cellSingleton == nil {
				only := dom[0]
				cellSingleton = &ForcedMove{Row: r, Col: c, TileID: only.TileID, Rotation: only.Rotations[0]}
			}
		}
	}

	for _, id := range ts.IDs() {
		if b.IsUsed(id) {
			continue
		}
		if len(tileOccurrences[id]) == 0 {
			return Result{DeadEnd: true, DeadTile: id}
		}
	}

	if cellSingleton != nil {
		return Result{Found: true, Move: *cellSingleton}
	}

	for _, id := range ts.IDs() {
		if b.IsUsed(id) {
			continue
		}
		if occurrences := tileOccurrences[id]; len(occurrences) == 1 {
			return Result{Found: true, Move: occurrences[0]}
		}
	}

	return Result{}
}
