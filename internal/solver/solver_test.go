package solver

import (
	"fmt"
	"testing"
	"time"

	"github.com/edgetile/eternity/internal/domain"
	"github.com/edgetile/eternity/internal/fit"
	"github.com/edgetile/eternity/internal/neighbor"
	"github.com/edgetile/eternity/internal/orderer"
	"github.com/edgetile/eternity/internal/persist"
	"github.com/edgetile/eternity/internal/propagate"
	"github.com/edgetile/eternity/internal/puzzle"
	"github.com/edgetile/eternity/internal/record"
	"github.com/edgetile/eternity/internal/selector"
	"github.com/edgetile/eternity/internal/singleton"
	"github.com/edgetile/eternity/internal/stats"
)

func TestSolveWithAutosaveEnabledCheckpointsProgress(t *testing.T) {
	ts := puzzle.NewTileSet([]*puzzle.Tile{
		puzzle.NewTile(1, puzzle.Edges{puzzle.FrameColor, 1, 1, puzzle.FrameColor}),
		puzzle.NewTile(2, puzzle.Edges{puzzle.FrameColor, puzzle.FrameColor, 1, 1}),
		puzzle.NewTile(3, puzzle.Edges{1, 1, puzzle.FrameColor, puzzle.FrameColor}),
		puzzle.NewTile(4, puzzle.Edges{1, puzzle.FrameColor, puzzle.FrameColor, 1}),
	})
	tracker := record.NewTracker(4, 0)
	s, b, store := buildSolver(ts, tracker)

	persistStore, err := persist.Open(t.TempDir())
	if err != nil {
		t.Fatalf("persist.Open: %v", err)
	}
	defer persistStore.Close()

	// A nanosecond interval means the time trigger is already due at
	// the first committed placement, so a completed solve is guaranteed
	// to have saved at least once even if it never backtracks.
	s.SetSeed(42)
	s.EnableAutosave(persistStore, persist.NewAutosavePolicy(0, time.Nanosecond), "2x2-autosave", 0, 0)

	if !s.Solve(b, ts, store) {
		t.Fatal("expected the 2x2 perfect tiling to remain solvable with autosave enabled")
	}

	cp, found, err := persistStore.Load("2x2-autosave", 0)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !found {
		t.Fatal("expected at least one checkpoint to have been written during the solve")
	}
	if len(cp.History) == 0 {
		t.Fatal("expected the checkpoint to carry a non-empty placement history")
	}
	if cp.Generation == 0 {
		t.Fatal("expected the generation counter to have been bumped by the first save")
	}
	if cp.Seed != 42 {
		t.Fatalf("checkpoint seed = %d, want 42", cp.Seed)
	}
}

// TestSolveSeededTraceIsDeterministic pins the fixed-seed determinism
// guarantee: two single-worker solves of the same board with the same
// seed must commit identical placements.
func TestSolveSeededTraceIsDeterministic(t *testing.T) {
	run := func() []string {
		ts := puzzle.NewTileSet([]*puzzle.Tile{
			puzzle.NewTile(1, puzzle.Edges{puzzle.FrameColor, 1, 1, puzzle.FrameColor}),
			puzzle.NewTile(2, puzzle.Edges{puzzle.FrameColor, puzzle.FrameColor, 1, 1}),
			puzzle.NewTile(3, puzzle.Edges{1, 1, puzzle.FrameColor, puzzle.FrameColor}),
			puzzle.NewTile(4, puzzle.Edges{1, puzzle.FrameColor, puzzle.FrameColor, 1}),
		})
		tracker := record.NewTracker(4, 0)
		s, b, store := buildSolver(ts, tracker)
		s.SetSeed(7)
		if !s.Solve(b, ts, store) {
			t.Fatal("expected the 2x2 perfect tiling to be solvable")
		}
		var trace []string
		for r := 0; r < b.Rows(); r++ {
			for c := 0; c < b.Cols(); c++ {
				p := b.Placement(r, c)
				trace = append(trace, fmt.Sprintf("%d/%d", p.TileID, p.Rotation))
			}
		}
		return trace
	}

	first := run()
	second := run()
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("cell %d diverged across identically-seeded runs: %s vs %s", i, first[i], second[i])
		}
	}
}

// TestSolveTrivialOneByOne: a single all-frame tile on a 1x1 board
// solves immediately with a (0,0) score.
func TestSolveTrivialOneByOne(t *testing.T) {
	ts := puzzle.NewTileSet([]*puzzle.Tile{
		puzzle.NewTile(1, puzzle.Edges{puzzle.FrameColor, puzzle.FrameColor, puzzle.FrameColor, puzzle.FrameColor}),
	})
	b := puzzle.NewBoard(1, 1)
	checker := fit.New()
	store := domain.NewStore(1, 1, checker)
	store.Initialize(b, ts)

	tracker := record.NewTracker(1, 0)
	edgeIndex := puzzle.BuildEdgeIndex(ts)
	s := New(
		0,
		propagate.New(checker, true),
		selector.New(true),
		orderer.New(true, orderer.Ascending, ts, edgeIndex),
		singleton.New(true),
		neighbor.New(ts),
		true,
		tracker,
		stats.New(),
		stats.NewDepthProgress(),
		nil,
		time.Time{},
	)

	if !s.Solve(b, ts, store) {
		t.Fatal("expected the trivial 1x1 board to solve immediately")
	}
	placement := b.Placement(0, 0)
	if placement == nil || placement.TileID != 1 || placement.Rotation != 0 {
		t.Fatalf("unexpected placement %+v, want tile 1 at rotation 0", placement)
	}
	score := b.CalculateScore()
	if score.Matched != 0 || score.Max != 0 {
		t.Fatalf("score = %+v, want (0,0) for a 1x1 board", score)
	}
}

// TestSolveForcedSingletonAtDepthEight:
// a 3x3 board with 8 tiles pre-placed leaves (1,1) with exactly one
// legal entry, which the singleton detector must resolve without any
// further backtracking.
func TestSolveForcedSingletonAtDepthEight(t *testing.T) {
	// Ring of 8 tiles around the border, each presenting color 1 inward
	// on whichever side faces the empty center; the center tile is the
	// only one left and has to present color 1 on every side to close
	// the ring, so its domain at (1,1) has exactly one entry.
	ts := puzzle.NewTileSet([]*puzzle.Tile{
		puzzle.NewTile(1, puzzle.Edges{puzzle.FrameColor, 1, 1, puzzle.FrameColor}),   // (0,0)
		puzzle.NewTile(2, puzzle.Edges{puzzle.FrameColor, 1, 1, 1}),                   // (0,1)
		puzzle.NewTile(3, puzzle.Edges{puzzle.FrameColor, puzzle.FrameColor, 1, 1}),   // (0,2)
		puzzle.NewTile(4, puzzle.Edges{1, 1, 1, puzzle.FrameColor}),                   // (1,0)
		puzzle.NewTile(5, puzzle.Edges{1, puzzle.FrameColor, 1, 1}),                   // (1,2)
		puzzle.NewTile(6, puzzle.Edges{1, 1, puzzle.FrameColor, puzzle.FrameColor}),   // (2,0)
		puzzle.NewTile(7, puzzle.Edges{1, 1, puzzle.FrameColor, 1}),                   // (2,1)
		puzzle.NewTile(8, puzzle.Edges{1, puzzle.FrameColor, puzzle.FrameColor, 1}),   // (2,2)
		puzzle.NewTile(9, puzzle.Edges{1, 1, 1, 1}),                                   // center, forced
	})
	b := puzzle.NewBoard(3, 3)
	checker := fit.New()

	place := func(r, c int, id puzzle.TileID) {
		b.Place(r, c, ts.Get(id), 0)
	}
	place(0, 0, 1)
	place(0, 1, 2)
	place(0, 2, 3)
	place(1, 0, 4)
	place(1, 2, 5)
	place(2, 0, 6)
	place(2, 1, 7)
	place(2, 2, 8)

	store := domain.NewStore(3, 3, checker)
	store.Initialize(b, ts)

	dom := store.DomainOf(1, 1)
	if len(dom) != 1 || dom[0].TileID != 9 {
		t.Fatalf("expected exactly one legal entry (tile 9) at (1,1), got %+v", dom)
	}

	d := singleton.New(true)
	res := d.Detect(b, ts, store)
	if !res.Found || res.Move.Row != 1 || res.Move.Col != 1 || res.Move.TileID != 9 {
		t.Fatalf("expected the detector to find the forced move at (1,1)=tile9 on its first call, got %+v", res)
	}

	tracker := record.NewTracker(9, 0)
	edgeIndex := puzzle.BuildEdgeIndex(ts)
	s := New(
		0,
		propagate.New(checker, true),
		selector.New(true),
		orderer.New(true, orderer.Ascending, ts, edgeIndex),
		singleton.New(true),
		neighbor.New(ts),
		true,
		tracker,
		stats.New(),
		stats.NewDepthProgress(),
		nil,
		time.Time{},
	)
	if !s.Solve(b, ts, store) {
		t.Fatal("expected the forced center tile to complete the board")
	}
	// The singleton resolves the only remaining cell in a straight line:
	// no alternative candidate is ever tried and no placement is undone.
	if s.counters.Backtracks.Load() != 0 {
		t.Fatalf("expected zero backtracks, got %d", s.counters.Backtracks.Load())
	}
	if s.counters.Singletons.Load() != 1 {
		t.Fatalf("expected exactly one singleton resolution, got %d", s.counters.Singletons.Load())
	}
}

func TestSolveWithDomainCacheEnabledStillSolves(t *testing.T) {
	ts := puzzle.NewTileSet([]*puzzle.Tile{
		puzzle.NewTile(1, puzzle.Edges{puzzle.FrameColor, 1, 1, puzzle.FrameColor}),
		puzzle.NewTile(2, puzzle.Edges{puzzle.FrameColor, puzzle.FrameColor, 1, 1}),
		puzzle.NewTile(3, puzzle.Edges{1, 1, puzzle.FrameColor, puzzle.FrameColor}),
		puzzle.NewTile(4, puzzle.Edges{1, puzzle.FrameColor, puzzle.FrameColor, 1}),
	})
	tracker := record.NewTracker(4, 0)
	s, b, store := buildSolver(ts, tracker)
	s.EnableDomainCache(domain.NewCache(64))

	if !s.Solve(b, ts, store) {
		t.Fatal("expected the puzzle to remain solvable with the domain cache enabled")
	}
}

// buildSolver wires every search component the way an orchestrator
// would for a single worker, with every optional technique turned on.
func buildSolver(ts *puzzle.TileSet, tracker *record.Tracker) (*Solver, *puzzle.Board, *domain.Store) {
	b := puzzle.NewBoard(2, 2)
	checker := fit.New()
	store := domain.NewStore(2, 2, checker)
	store.Initialize(b, ts)

	edgeIndex := puzzle.BuildEdgeIndex(ts)
	s := New(
		0,
		propagate.New(checker, true),
		selector.New(true),
		orderer.New(true, orderer.Ascending, ts, edgeIndex),
		singleton.New(true),
		neighbor.New(ts),
		true,
		tracker,
		stats.New(),
		stats.NewDepthProgress(),
		nil,
		time.Time{},
	)
	return s, b, store
}

func TestSolvePerfectTwoByTwo(t *testing.T) {
	// Same four interlocking corner tiles as the board package's
	// perfect-2x2 case, supplied unplaced so the solver must discover
	// the orientation itself.
	ts := puzzle.NewTileSet([]*puzzle.Tile{
		puzzle.NewTile(1, puzzle.Edges{puzzle.FrameColor, 1, 1, puzzle.FrameColor}),
		puzzle.NewTile(2, puzzle.Edges{puzzle.FrameColor, puzzle.FrameColor, 1, 1}),
		puzzle.NewTile(3, puzzle.Edges{1, 1, puzzle.FrameColor, puzzle.FrameColor}),
		puzzle.NewTile(4, puzzle.Edges{1, puzzle.FrameColor, puzzle.FrameColor, 1}),
	})

	tracker := record.NewTracker(4, 0)
	s, b, store := buildSolver(ts, tracker)

	if !s.Solve(b, ts, store) {
		t.Fatal("expected the 2x2 perfect tiling to be solvable")
	}
	if b.UsedCount() != 4 {
		t.Fatalf("UsedCount() = %d, want 4", b.UsedCount())
	}
	score := b.CalculateScore()
	if score.Matched != score.Max {
		t.Fatalf("score = %+v, want every border matched", score)
	}
	if !tracker.Solved() {
		t.Fatal("tracker.Solved() must be true after a completed board")
	}
}

func TestSolveUnsatisfiableReturnsFalse(t *testing.T) {
	// Each tile fits one end of a 1x2 board on its own, but their
	// interior edges (5 and 7) never match, so the two can never
	// interlock.
	ts := puzzle.NewTileSet([]*puzzle.Tile{
		puzzle.NewTile(1, puzzle.Edges{puzzle.FrameColor, 5, puzzle.FrameColor, puzzle.FrameColor}),
		puzzle.NewTile(2, puzzle.Edges{puzzle.FrameColor, puzzle.FrameColor, puzzle.FrameColor, 7}),
	})

	b := puzzle.NewBoard(1, 2)
	checker := fit.New()
	store := domain.NewStore(1, 2, checker)
	store.Initialize(b, ts)

	tracker := record.NewTracker(2, 0)
	edgeIndex := puzzle.BuildEdgeIndex(ts)
	s := New(
		0,
		propagate.New(checker, true),
		selector.New(true),
		orderer.New(true, orderer.Ascending, ts, edgeIndex),
		singleton.New(true),
		neighbor.New(ts),
		true,
		tracker,
		stats.New(),
		stats.NewDepthProgress(),
		nil,
		time.Time{},
	)

	if s.Solve(b, ts, store) {
		t.Fatal("expected no solution: edges can never interlock")
	}
	if tracker.Solved() {
		t.Fatal("tracker must not be marked solved")
	}
}

func TestSolveRespectsDeadline(t *testing.T) {
	ts := puzzle.NewTileSet([]*puzzle.Tile{
		puzzle.NewTile(1, puzzle.Edges{puzzle.FrameColor, 1, 1, puzzle.FrameColor}),
		puzzle.NewTile(2, puzzle.Edges{puzzle.FrameColor, puzzle.FrameColor, 1, 1}),
	})
	b := puzzle.NewBoard(2, 2)
	checker := fit.New()
	store := domain.NewStore(2, 2, checker)
	store.Initialize(b, ts)

	tracker := record.NewTracker(4, 0)
	edgeIndex := puzzle.BuildEdgeIndex(ts)
	s := New(
		0,
		propagate.New(checker, true),
		selector.New(true),
		orderer.New(true, orderer.Ascending, ts, edgeIndex),
		singleton.New(true),
		neighbor.New(ts),
		true,
		tracker,
		stats.New(),
		stats.NewDepthProgress(),
		nil,
		time.Now().Add(-time.Second), // already expired
	)

	if s.Solve(b, ts, store) {
		t.Fatal("expected an already-expired deadline to abort immediately")
	}
}
