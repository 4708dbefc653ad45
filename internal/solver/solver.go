// Package solver implements the backtracking core: the recursive
// per-worker search that drives the domain store, fit checker, AC-3
// propagator, cell selector, value orderer, singleton detector and
// neighbor analyzer to fill a board. A single recursive entry point
// polls for an external stop signal and undoes every trial move whose
// subtree fails.
package solver

import (
	"log"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/edgetile/eternity/internal/domain"
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

// autosave bundles the pieces EnableAutosave needs to checkpoint mid
// search: where to write, which puzzle/thread this is, when a save is
// due, and the resume bookkeeping (generation counter, cumulative
// elapsed time) each checkpoint carries forward.
type autosave struct {
	store    *persist.Store
	policy   *persist.AutosavePolicy
	puzzleID string
	threadID int

	generation    uint64
	elapsedOffset time.Duration
	started       time.Time
}

// Solver owns one worker's private search. Every field except the
// shared tracker/stop flag is used read-only or is itself
// worker-private.
type Solver struct {
	threadID int

	propagator *propagate.Propagator
	selector   *selector.Selector
	orderer    *orderer.Orderer
	singleton  *singleton.Detector
	neighbor   *neighbor.Analyzer

	tracker  *record.Tracker
	counters *stats.Counters
	progress *stats.DepthProgress

	useNeighborCheck bool
	verbose          bool

	stopFlag *atomic.Bool
	deadline time.Time // zero value means no deadline

	// seed/rng perturb the root frame's candidate order so workers with
	// different seeds open the search differently (the corner
	// diversification analogue for workers past the first four). nil rng
	// leaves ordering untouched.
	seed      int64
	rng       *rand.Rand
	rootDepth int

	hash  *puzzle.BoardHash // non-nil only when the domain cache is enabled
	cache *domain.Cache     // non-nil only when the domain cache is enabled

	autosave *autosave // non-nil only when save/resume checkpointing is enabled
}

// New assembles a Solver from the already-constructed search components
// plus the shared record tracker and this worker's private statistics.
// stopFlag may be nil (no external cancellation besides the deadline).
func New(
	threadID int,
	prop *propagate.Propagator,
	sel *selector.Selector,
	ord *orderer.Orderer,
	sing *singleton.Detector,
	nbr *neighbor.Analyzer,
	useNeighborCheck bool,
	tracker *record.Tracker,
	counters *stats.Counters,
	progress *stats.DepthProgress,
	stopFlag *atomic.Bool,
	deadline time.Time,
) *Solver {
	return &Solver{
		threadID:         threadID,
		propagator:       prop,
		selector:         sel,
		orderer:          ord,
		singleton:        sing,
		neighbor:         nbr,
		useNeighborCheck: useNeighborCheck,
		tracker:          tracker,
		counters:         counters,
		progress:         progress,
		stopFlag:         stopFlag,
		deadline:         deadline,
	}
}

// SetSeed installs the worker's random seed. The only thing it feeds is
// a rotation of the root frame's ordered candidate list, so a fixed
// seed on a single worker still produces an identical placement trace
// across runs.
func (s *Solver) SetSeed(seed int64) {
	s.seed = seed
	s.rng = rand.New(rand.NewSource(seed))
}

// Seed returns the seed set by SetSeed, or zero if none was set.
func (s *Solver) Seed() int64 { return s.seed }

// SetVerbose gates informational record logging.
func (s *Solver) SetVerbose(v bool) { s.verbose = v }

// EnableDomainCache opts this worker into the domain cache: the
// propagator consults cache for AC-3 revalidation, keyed by an
// incrementally-maintained Zobrist-style hash of this worker's board
// that Solve now starts tracking. Call before the first Solve.
func (s *Solver) EnableDomainCache(cache *domain.Cache) {
	s.hash = puzzle.NewBoardHash()
	s.cache = cache
	s.propagator.EnableCache(cache, s.hash.Value)
}

// EnableAutosave opts this worker into periodic checkpointing:
// every backtrack is counted against policy, policy is consulted after
// every committed placement and every backtrack, and whenever
// policy reports a save is due, the worker's current board is
// checkpointed to store under (puzzleID, threadID). generation and
// elapsedOffset come from a resumed checkpoint (zero on a fresh start)
// so the counters stay cumulative across restarts. Call before the
// first Solve.
func (s *Solver) EnableAutosave(store *persist.Store, policy *persist.AutosavePolicy, puzzleID string, generation uint64, elapsedOffset time.Duration) {
	s.autosave = &autosave{
		store:         store,
		policy:        policy,
		puzzleID:      puzzleID,
		threadID:      s.threadID,
		generation:    generation,
		elapsedOffset: elapsedOffset,
		started:       time.Now(),
	}
}

// Solve runs the backtracking search to completion (board full),
// exhaustion (every branch from the initial state ruled out) or
// cancellation (another worker solved it, the deadline passed, or
// stopFlag was raised). Its boolean return only distinguishes "this
// call completed the board"; callers that need to tell exhaustion
// apart from cancellation should check b.UsedCount() against the
// board's cell count and Tracker.Solved() afterward.
func (s *Solver) Solve(b *puzzle.Board, ts *puzzle.TileSet, store *domain.Store) bool {
	s.rootDepth = b.UsedCount()
	return s.search(b, ts, store)
}

// search is the ENTRY -> SINGLETON_CHECK -> {TRY_FORCED | SELECT_CELL}
// -> ENUMERATE_CANDIDATES -> {RECURSE | EXHAUSTED} -> EXIT state
// machine, one call per board state.
func (s *Solver) search(b *puzzle.Board, ts *puzzle.TileSet, store *domain.Store) bool {
	calls := s.counters.RecursiveCalls.Add(1)
	if calls&1023 == 0 && s.aborted() {
		return false
	}

	depth := b.UsedCount()
	s.progress.Reached(depth, calls)
	raisedDepth, raisedScore := s.tracker.Offer(s.threadID, depth, b.CalculateScore().Matched, b)
	if s.verbose && (raisedDepth || raisedScore) && s.tracker.ShouldShow(depth, raisedDepth, raisedScore) {
		log.Printf("[solver] worker %d: new record depth=%d score=%d", s.threadID, s.tracker.MaxDepth(), s.tracker.BestScore())
	}

	if depth == b.Rows()*b.Cols() {
		s.tracker.MarkSolved()
		return true
	}
	if s.aborted() {
		return false
	}

	res := s.singleton.Detect(b, ts, store)
	if res.DeadEnd {
		s.counters.DeadEnds.Add(1)
		return false
	}
	if res.Found {
		s.counters.Singletons.Add(1)
		return s.tryPlacement(b, ts, store, res.Move.Row, res.Move.Col, res.Move.TileID, res.Move.Rotation)
	}

	sel := s.selector.Select(b, store)
	if !sel.Found {
		return false // unreachable: depth < total cells guarantees an empty one
	}

	ordered := s.orderer.Order(b, store, sel.Row, sel.Col, s.buildCandidates(ts, store, sel.Row, sel.Col))
	if s.rng != nil && depth == s.rootDepth && len(ordered) > 1 {
		// Rotate the root candidate list by a seed-derived offset so
		// differently-seeded workers open in different regions of the
		// tree. Deeper frames keep the pure LCV order.
		k := s.rng.Intn(len(ordered))
		ordered = append(ordered[k:], ordered[:k]...)
	}
	s.progress.Register(depth+1, len(ordered))
	for _, cand := range ordered {
		if s.useNeighborCheck {
			if nres := s.neighbor.Check(b, store, sel.Row, sel.Col, cand.TileID, cand.Edges); !nres.OK {
				s.counters.ForwardCheckRejects.Add(1)
				s.progress.Explored(depth + 1)
				continue
			}
		}
		if s.tryPlacement(b, ts, store, sel.Row, sel.Col, cand.TileID, cand.Rotation) {
			return true
		}
		s.progress.Explored(depth + 1)
		if s.aborted() {
			return false
		}
	}

	s.counters.Backtracks.Add(1)
	return false
}

// buildCandidates flattens a cell's domain entries into one
// (tile, rotation, edges) list for the orderer to sort.
func (s *Solver) buildCandidates(ts *puzzle.TileSet, store *domain.Store, r, c int) []orderer.Candidate {
	dom := store.DomainOf(r, c)
	out := make([]orderer.Candidate, 0, len(dom))
	for _, entry := range dom {
		t := ts.Get(entry.TileID)
		for _, rot := range entry.Rotations {
			out = append(out, orderer.Candidate{TileID: entry.TileID, Rotation: rot, Edges: t.EdgesRotated(rot)})
		}
	}
	return out
}

// tryPlacement commits one candidate placement, propagates, recurses,
// and undoes everything if the recursive call did not complete the
// board. Checkpointing the domain store before mutating it is what
// makes the undo sound even though AC-3 may have pruned cells several
// hops away from (r,c).
func (s *Solver) tryPlacement(b *puzzle.Board, ts *puzzle.TileSet, store *domain.Store, r, c int, id puzzle.TileID, rotation int) bool {
	checkpoint := store.Snapshot()
	store.MarkFilled(r, c)
	b.Place(r, c, ts.Get(id), rotation)
	if s.hash != nil {
		s.hash.Apply(r, c, id, rotation)
	}

	ok := s.propagator.Propagate(b, ts, store, r, c, id)
	if ok {
		s.counters.Placements.Add(1)
		if s.autosave != nil && s.autosave.policy.ShouldSave() {
			s.saveCheckpoint(b)
		}
		ok = s.search(b, ts, store)
	}
	if !ok {
		b.Remove(r, c)
		store.Restore(checkpoint)
		if s.hash != nil {
			s.hash.Apply(r, c, id, rotation) // XOR is its own inverse
		}
		if s.cache != nil {
			// Invalidate wholesale on every backtrack rather than
			// relying solely on the board-hash key to make stale
			// entries unreachable.
			s.cache.Invalidate()
		}
		if s.autosave != nil {
			s.autosave.policy.RecordBacktrack()
			if s.autosave.policy.ShouldSave() {
				s.saveCheckpoint(b)
			}
		}
	}
	return ok
}

// saveCheckpoint writes the current board as a placement history
// checkpoint. Save errors are logged and otherwise ignored; the search
// continues.
func (s *Solver) saveCheckpoint(b *puzzle.Board) {
	s.autosave.generation++
	elapsed := s.autosave.elapsedOffset + time.Since(s.autosave.started)
	cp := &persist.Checkpoint{
		PuzzleID:      s.autosave.puzzleID,
		ThreadID:      s.autosave.threadID,
		Generation:    s.autosave.generation,
		Seed:          s.seed,
		ElapsedMillis: elapsed.Milliseconds(),
		History:       persist.HistoryFromBoard(b),
		MaxDepth:      s.tracker.MaxDepth(),
		BestScore:     s.tracker.BestScore(),
	}
	if err := s.autosave.store.Save(cp); err != nil {
		log.Printf("[solver] worker %d: autosave failed: %v", s.autosave.threadID, err)
	}
}

// aborted reports whether this call should unwind immediately: the
// puzzle was solved by another worker, the caller raised stopFlag, or
// the wall-clock deadline passed.
func (s *Solver) aborted() bool {
	if s.tracker.Solved() {
		return true
	}
	if s.stopFlag != nil && s.stopFlag.Load() {
		return true
	}
	if !s.deadline.IsZero() && time.Now().After(s.deadline) {
		return true
	}
	return false
}
