// Package persist implements save/resume: periodic checkpoints of a
// worker's placement history to an embedded BadgerDB store, so a search
// can be killed and restarted without losing progress. Values are
// JSON-marshaled under small fixed keys inside db.View/db.Update
// transactions.
package persist

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/edgetile/eternity/internal/puzzle"
)

// Placement is one step of a worker's placement history, in the order
// it was committed. Replaying a []Placement history against a fresh board
// reconstructs the worker's exact search position.
type Placement struct {
	Row, Col int
	TileID   puzzle.TileID
	Rotation int
}

// Checkpoint is everything needed to resume one worker's search: its
// placement history, the seed its candidate ordering was perturbed
// with, a generation counter bumped on every save, and the cumulative
// search time across all prior resumes of this checkpoint.
type Checkpoint struct {
	PuzzleID      string      `json:"puzzle_id"`
	ThreadID      int         `json:"thread_id"`
	Generation    uint64      `json:"generation"`
	Seed          int64       `json:"seed"`
	ElapsedMillis int64       `json:"elapsed_millis"`
	History       []Placement `json:"history"`
	SavedAt       time.Time   `json:"saved_at"`
	MaxDepth      int         `json:"max_depth"`
	BestScore     int         `json:"best_score"`
}

// Store wraps a BadgerDB handle. One Store is shared by every worker of
// a run; each worker's checkpoints live under their own key, so writes
// never contend on the same row.
type Store struct {
	db *badger.DB
}

// Open opens (creating if absent) a BadgerDB database rooted at dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("persist: open %s: %w", dir, err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func checkpointKey(puzzleID string, threadID int) []byte {
	return []byte(fmt.Sprintf("checkpoint:%s:%d", puzzleID, threadID))
}

// Save writes a worker's checkpoint, overwriting any previous one for
// the same (puzzleID, threadID) pair.
func (s *Store) Save(cp *Checkpoint) error {
	cp.SavedAt = time.Now()
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("persist: marshal checkpoint: %w", err)
	}

	key := checkpointKey(cp.PuzzleID, cp.ThreadID)
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
}

// Load reads back a worker's most recent checkpoint. found is false if
// none exists, which callers treat as "start this worker fresh" rather
// than an error.
func (s *Store) Load(puzzleID string, threadID int) (cp *Checkpoint, found bool, err error) {
	key := checkpointKey(puzzleID, threadID)
	cp = &Checkpoint{}

	err = s.db.View(func(txn *badger.Txn) error {
		item, getErr := txn.Get(key)
		if getErr == badger.ErrKeyNotFound {
			found = false
			return nil
		}
		if getErr != nil {
			return getErr
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, cp)
		})
	})
	if err != nil {
		return nil, false, fmt.Errorf("persist: load checkpoint: %w", err)
	}
	if !found {
		return nil, false, nil
	}
	return cp, true, nil
}

// Delete removes a worker's checkpoint, used once a puzzle is solved so
// a future run of the same puzzle ID starts clean.
func (s *Store) Delete(puzzleID string, threadID int) error {
	key := checkpointKey(puzzleID, threadID)
	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(key)
		if err == badger.ErrKeyNotFound {
			return nil
		}
		return err
	})
}

// Replay reconstructs a board and re-places every step of a history in
// order. If a step names an unknown tile id, an out-of-bounds or
// already-filled cell, or a tile already placed, Replay returns an error
// and the caller falls back to a fresh start rather than trusting a
// partially-replayed board. Replay does not check a step's edges against
// the frame or its neighbors.
func Replay(b *puzzle.Board, ts *puzzle.TileSet, history []Placement) error {
	for i, step := range history {
		t := ts.Get(step.TileID)
		if t == nil {
			return fmt.Errorf("persist: replay step %d: unknown tile id %d", i, step.TileID)
		}
		if !b.InBounds(step.Row, step.Col) {
			return fmt.Errorf("persist: replay step %d: cell (%d,%d) out of bounds", i, step.Row, step.Col)
		}
		if !b.IsEmpty(step.Row, step.Col) {
			return fmt.Errorf("persist: replay step %d: cell (%d,%d) already filled", i, step.Row, step.Col)
		}
		if b.IsUsed(step.TileID) {
			return fmt.Errorf("persist: replay step %d: tile %d already used", i, step.TileID)
		}
		b.Place(step.Row, step.Col, t, step.Rotation)
	}
	return nil
}

// HistoryFromBoard reconstructs a placement history from a board's
// current state, in row-major order. Replaying it against a fresh board
// reproduces the same final state (Place only requires an empty cell and
// an unused tile, so the row-major order Replay uses here need not match
// the chronological order the placements were originally committed in).
func HistoryFromBoard(b *puzzle.Board) []Placement {
	var out []Placement
	for r := 0; r < b.Rows(); r++ {
		for c := 0; c < b.Cols(); c++ {
			p := b.Placement(r, c)
			if p == nil {
				continue
			}
			out = append(out, Placement{Row: r, Col: c, TileID: p.TileID, Rotation: p.Rotation})
		}
	}
	return out
}

// AutosavePolicy decides when a worker should checkpoint: every N
// backtracks or every interval of wall-clock time, whichever comes
// first. Backtracks are the trigger because a thrashing search is
// exactly the one that most needs its position persisted; a search
// that only moves forward is covered by the time trigger.
type AutosavePolicy struct {
	EveryNBacktracks int
	Interval         time.Duration

	backtracksSinceSave int
	lastSave            time.Time
}

// NewAutosavePolicy creates a policy with the given thresholds. A
// non-positive value disables that trigger.
func NewAutosavePolicy(everyN int, interval time.Duration) *AutosavePolicy {
	return &AutosavePolicy{EveryNBacktracks: everyN, Interval: interval, lastSave: time.Now()}
}

// RecordBacktrack tells the policy one more placement was undone.
func (p *AutosavePolicy) RecordBacktrack() {
	p.backtracksSinceSave++
}

// ShouldSave reports whether either threshold has been crossed, and
// resets the relevant counters if so.
func (p *AutosavePolicy) ShouldSave() bool {
	due := false
	if p.EveryNBacktracks > 0 && p.backtracksSinceSave >= p.EveryNBacktracks {
		due = true
	}
	if p.Interval > 0 && time.Since(p.lastSave) >= p.Interval {
		due = true
	}
	if due {
		p.backtracksSinceSave = 0
		p.lastSave = time.Now()
	}
	return due
}
