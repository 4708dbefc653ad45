// Package orchestrator spawns one independent solver per thread, gives
// early workers distinct pre-placed corners for search diversity, and
// joins everyone against a shared solved flag and deadline: a WaitGroup
// of per-worker goroutines feeding a shared atomic stop flag, collected
// through a dedicated completion channel so partial results drain as
// workers finish.
package orchestrator

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/edgetile/eternity/internal/config"
	"github.com/edgetile/eternity/internal/domain"
	"github.com/edgetile/eternity/internal/fit"
	"github.com/edgetile/eternity/internal/fixedpieces"
	"github.com/edgetile/eternity/internal/neighbor"
	"github.com/edgetile/eternity/internal/orderer"
	"github.com/edgetile/eternity/internal/persist"
	"github.com/edgetile/eternity/internal/propagate"
	"github.com/edgetile/eternity/internal/puzzle"
	"github.com/edgetile/eternity/internal/record"
	"github.com/edgetile/eternity/internal/selector"
	"github.com/edgetile/eternity/internal/singleton"
	"github.com/edgetile/eternity/internal/solver"
	"github.com/edgetile/eternity/internal/stats"
)

// domainCacheCapacity bounds each worker's per-cell domain cache. A
// worker's board is private, so the right-sized capacity scales with
// how many distinct (state, cell) pairs a single search thread
// realistically revisits, not with board area.
const domainCacheCapacity = 4096

// Result is the orchestrator's final report: whether any worker solved
// the board, the winning board (or the best partial one found), and
// aggregated statistics across every worker.
type Result struct {
	Solved   bool
	Board    *puzzle.Board
	MaxDepth int
	Score    int
	Elapsed  time.Duration
	Stats    stats.Snapshot
}

// Orchestrator owns the shared state every worker reads: the tile set,
// edge index, record tracker, stop flag, and (optionally) a checkpoint
// store.
type Orchestrator struct {
	ts        *puzzle.TileSet
	edgeIndex *puzzle.EdgeIndex
	cfg       config.Config
	persist   *persist.Store // nil disables checkpointing
	hints     []fixedpieces.Hint
}

// New creates an Orchestrator for a fixed tile set under cfg.
// persistStore may be nil to run without save/resume.
func New(ts *puzzle.TileSet, cfg config.Config, persistStore *persist.Store) *Orchestrator {
	return &Orchestrator{
		ts:        ts,
		edgeIndex: puzzle.BuildEdgeIndex(ts),
		cfg:       cfg,
		persist:   persistStore,
	}
}

// SetHints registers mandatory fixed-piece clues. A worker that starts
// fresh gets them on its board before the diversification corner; a
// worker resumed from a checkpoint gets its board, hints included, from
// the replayed history instead.
func (o *Orchestrator) SetHints(hints []fixedpieces.Hint) {
	o.hints = hints
}

// workerOutcome is what one worker goroutine reports back on
// completion: whether it personally completed the board (as opposed to
// merely aborting because another worker did), plus its final stats.
type workerOutcome struct {
	threadID int
	solved   bool
	stats    stats.Snapshot
}

// Run spawns cfg.ThreadCount workers against a fresh rows x cols board
// and blocks until one solves it, every worker exhausts its branch, or
// the deadline passes. Workers 0..3 are pre-placed with a distinct
// board corner whenever enough tiles remain unused to make that
// worthwhile; see fixedpieces.Settings.CornerDiversificationThreshold.
func (o *Orchestrator) Run(rows, cols int, cornerTiles [4]puzzle.TileID, diversificationThreshold int) Result {
	start := time.Now()
	deadline := o.cfg.Deadline(start)

	totalCells := rows * cols
	tracker := record.NewTracker(totalCells, o.cfg.MinDepthToShowRecords)
	var stopFlag atomic.Bool

	n := o.cfg.ThreadCount
	if n < 1 {
		n = 1
	}

	outcomes := make(chan workerOutcome, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go o.runWorker(i, rows, cols, cornerTiles, diversificationThreshold, tracker, &stopFlag, deadline, &wg, outcomes)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(outcomes)
		close(done)
	}()

	if o.cfg.Verbose {
		go o.monitorProgress(tracker, done)
	}

	var aggregate stats.Snapshot
	solved := false
	for outcome := range outcomes {
		aggregate = aggregate.Merge(outcome.stats)
		if outcome.solved {
			solved = true
			stopFlag.Store(true)
		}
	}
	<-done

	board := tracker.BestBoard()
	return Result{
		Solved:   solved,
		Board:    board,
		MaxDepth: tracker.MaxDepth(),
		Score:    tracker.BestScore(),
		Elapsed:  time.Since(start),
		Stats:    aggregate,
	}
}

// runWorker builds one worker's private Board/Store/Solver stack,
// optionally resumes it from a checkpoint, searches, and reports its
// outcome. Every piece of state here is worker-private except tracker
// and stopFlag.
func (o *Orchestrator) runWorker(
	threadID, rows, cols int,
	cornerTiles [4]puzzle.TileID,
	diversificationThreshold int,
	tracker *record.Tracker,
	stopFlag *atomic.Bool,
	deadline time.Time,
	wg *sync.WaitGroup,
	outcomes chan<- workerOutcome,
) {
	defer wg.Done()

	b := puzzle.NewBoard(rows, cols)
	checker := fit.New()

	var resumed *persist.Checkpoint
	if o.persist != nil {
		resumed = o.resumeFromCheckpoint(b, threadID)
	}

	if resumed == nil {
		if len(o.hints) > 0 {
			if err := fixedpieces.Apply(b, o.ts, o.hints); err != nil {
				log.Printf("[orchestrator] worker %d: fixed-piece hints rejected: %v", threadID, err)
			}
		}
		if threadID < 4 && o.ts.Len()-b.UsedCount() > diversificationThreshold {
			o.placeDiversificationCorner(b, checker, threadID, cornerTiles[threadID])
		}
	}

	store := domain.NewStore(rows, cols, checker)
	store.Initialize(b, o.ts)

	counters := stats.New()
	progress := stats.NewDepthProgress()

	s := solverFor(threadID, checker, o.ts, o.edgeIndex, o.cfg, tracker, counters, progress, stopFlag, deadline)
	s.SetSeed(workerSeed(o.cfg.RandomSeed, threadID, resumed))
	s.SetVerbose(o.cfg.Verbose)
	if o.cfg.UseDomainCache {
		s.EnableDomainCache(domain.NewCache(domainCacheCapacity))
	}
	if o.persist != nil {
		policy := persist.NewAutosavePolicy(o.cfg.AutosaveEveryBacktracks, o.cfg.AutosaveInterval)
		var generation uint64
		var elapsedOffset time.Duration
		if resumed != nil {
			generation = resumed.Generation
			elapsedOffset = time.Duration(resumed.ElapsedMillis) * time.Millisecond
		}
		s.EnableAutosave(o.persist, policy, o.puzzleID(), generation, elapsedOffset)
	}

	if o.cfg.Verbose {
		log.Printf("[orchestrator] worker %d starting at depth %d", threadID, b.UsedCount())
	}

	solved := s.Solve(b, o.ts, store)
	counters.FitChecks.Store(checker.Checks())

	if solved && o.persist != nil {
		o.persist.Delete(o.puzzleID(), threadID)
	}

	outcomes <- workerOutcome{threadID: threadID, solved: solved, stats: counters.Snapshot()}
}

// placeDiversificationCorner pre-places one of the four board corners
// with a distinct corner-compatible tile for workers 0-3, so the first
// handful of workers explore genuinely different regions of the search
// tree instead of racing down the same MRV-chosen opening.
func (o *Orchestrator) placeDiversificationCorner(b *puzzle.Board, checker *fit.Checker, threadID int, tileID puzzle.TileID) {
	t := o.ts.Get(tileID)
	if t == nil {
		return
	}
	corners := [4][2]int{{0, 0}, {0, b.Cols() - 1}, {b.Rows() - 1, 0}, {b.Rows() - 1, b.Cols() - 1}}
	r, c := corners[threadID][0], corners[threadID][1]
	for rot := 0; rot < 4; rot++ {
		if checker.Fits(b, r, c, t.EdgesRotated(rot)) {
			b.Place(r, c, t, rot)
			return
		}
	}
}

// resumeFromCheckpoint loads and replays a worker's most recent
// checkpoint, returning it if one was actually applied. Replay failure
// falls back to a fresh start rather than aborting the run, and is
// reported as nil so the caller re-seeds hints and the diversification
// corner.
func (o *Orchestrator) resumeFromCheckpoint(b *puzzle.Board, threadID int) *persist.Checkpoint {
	cp, found, err := o.persist.Load(o.puzzleID(), threadID)
	if err != nil || !found {
		return nil
	}
	if err := persist.Replay(b, o.ts, cp.History); err != nil {
		log.Printf("[orchestrator] worker %d: checkpoint inconsistent (%v), starting fresh", threadID, err)
		*b = *puzzle.NewBoard(b.Rows(), b.Cols())
		return nil
	}
	return cp
}

// workerSeed derives a per-worker seed from the base entropy and the
// worker index; a resumed checkpoint's saved seed wins so the worker
// re-opens the tree the same way it did before the restart.
func workerSeed(base int64, threadID int, resumed *persist.Checkpoint) int64 {
	if resumed != nil && resumed.Seed != 0 {
		return resumed.Seed
	}
	return base + int64(threadID)*0x9E3779B9
}

// monitorProgress periodically logs the global best depth until every
// worker has exited.
func (o *Orchestrator) monitorProgress(tracker *record.Tracker, done <-chan struct{}) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			log.Printf("[orchestrator] best depth=%d score=%d (worker %d)", tracker.MaxDepth(), tracker.BestScore(), tracker.BestThreadID())
		}
	}
}

func (o *Orchestrator) puzzleID() string {
	if o.cfg.PuzzleID != "" {
		return o.cfg.PuzzleID
	}
	return fmt.Sprintf("tileset-%d", o.ts.Len())
}

// solverFor assembles one worker's full search stack from cfg's
// technique toggles.
func solverFor(
	threadID int,
	checker *fit.Checker,
	ts *puzzle.TileSet,
	edgeIndex *puzzle.EdgeIndex,
	cfg config.Config,
	tracker *record.Tracker,
	counters *stats.Counters,
	progress *stats.DepthProgress,
	stopFlag *atomic.Bool,
	deadline time.Time,
) *solver.Solver {
	return solver.New(
		threadID,
		propagate.New(checker, cfg.UseAC3),
		selector.New(cfg.PrioritizeBorders),
		orderer.New(cfg.UseValueOrderer, cfg.SortOrder, ts, edgeIndex),
		singleton.New(cfg.UseSingletons),
		neighbor.New(ts),
		cfg.UseNeighborCheck,
		tracker,
		counters,
		progress,
		stopFlag,
		deadline,
	)
}
