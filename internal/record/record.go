// Package record implements the global best record: the shared,
// monotone "deepest depth / highest partial score" state every worker
// offers candidates to, plus the solved flag workers poll.
package record

import (
	"sync"
	"sync/atomic"

	"github.com/edgetile/eternity/internal/puzzle"
)

// Tracker is the shared context object passed explicitly to every
// worker; there is no process-wide state. Reads are lock-free; writes
// to the scalar fields are CAS loops; only the composite "install a new
// winning board" operation takes the mutex.
type Tracker struct {
	maxDepth     atomic.Int64
	bestScore    atomic.Int64
	bestThreadID atomic.Int64
	solved       atomic.Bool

	mu        sync.Mutex
	bestBoard *puzzle.Board

	minDisplayDepth int
	totalCells      int
}

// NewTracker creates a Tracker for a board with the given total cell
// count (used by ShouldShow's 60%-of-cells depth-record gate).
func NewTracker(totalCells, minDisplayDepth int) *Tracker {
	t := &Tracker{totalCells: totalCells, minDisplayDepth: minDisplayDepth}
	t.bestScore.Store(-1) // so the first offer (score 0) still counts as a raise
	return t
}

// Solved reports whether any worker has found a complete solution.
func (t *Tracker) Solved() bool { return t.solved.Load() }

// MarkSolved sets the shared solved flag. Monotone: false -> true only.
func (t *Tracker) MarkSolved() { t.solved.Store(true) }

// MaxDepth returns the deepest depth reached by any worker so far.
func (t *Tracker) MaxDepth() int { return int(t.maxDepth.Load()) }

// BestScore returns the highest partial score reached so far.
func (t *Tracker) BestScore() int { return int(t.bestScore.Load()) }

// BestThreadID returns the id of the worker that holds the current
// record (whichever of depth/score was raised most recently).
func (t *Tracker) BestThreadID() int { return int(t.bestThreadID.Load()) }

// BestBoard returns a snapshot of the current record board, or nil if
// none has been installed yet.
func (t *Tracker) BestBoard() *puzzle.Board {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.bestBoard == nil {
		return nil
	}
	return t.bestBoard.Snapshot()
}

// casRaise raises target to candidate if candidate is strictly greater,
// retrying under contention. Returns true if this call performed the
// raise.
func casRaise(target *atomic.Int64, candidate int64) bool {
	for {
		old := target.Load()
		if candidate <= old {
			return false
		}
		if target.CompareAndSwap(old, candidate) {
			return true
		}
	}
}

// Offer reports a candidate (depth, score, board) from threadID. If
// either maxDepth or bestScore is strictly raised by this offer, the
// board is deep-copied and installed as the new record under the
// mutex, and bestThreadID is updated. Readers observe either the
// previous coherent record or the new one, never a torn one.
func (t *Tracker) Offer(threadID, depth, score int, board *puzzle.Board) (raisedDepth, raisedScore bool) {
	raisedDepth = casRaise(&t.maxDepth, int64(depth))
	raisedScore = casRaise(&t.bestScore, int64(score))

	if raisedDepth || raisedScore {
		snap := board.Snapshot()
		t.mu.Lock()
		t.bestBoard = snap
		t.bestThreadID.Store(int64(threadID))
		t.mu.Unlock()
	}
	return raisedDepth, raisedScore
}

// ShouldShow gates record-display: depth must meet the configured
// minimum, and a pure depth record additionally requires depth to
// exceed 60% of the board's total cells. A display-gating concern
// separate from the atomic update itself.
func (t *Tracker) ShouldShow(depth int, isDepthRecord, isScoreRecord bool) bool {
	if depth < t.minDisplayDepth {
		return false
	}
	if isDepthRecord && !isScoreRecord {
		return float64(depth) > 0.6*float64(t.totalCells)
	}
	return true
}
