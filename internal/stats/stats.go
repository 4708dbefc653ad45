// Package stats implements the search statistics counters: monotone
// per-worker counts the orchestrator aggregates and logs, cheap enough
// to bump on hot paths and read only for periodic reporting.
package stats

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
)

// Counters holds one worker's running totals. Every field is an atomic
// so a progress-monitor goroutine can read them without synchronizing
// with the worker that owns them; these are monitoring reads, not
// control flow dependent on exact values.
type Counters struct {
	RecursiveCalls      atomic.Uint64
	FitChecks           atomic.Uint64
	Placements          atomic.Uint64
	Backtracks          atomic.Uint64
	DeadEnds            atomic.Uint64
	Singletons          atomic.Uint64
	ForwardCheckRejects atomic.Uint64
}

// New creates a zeroed Counters.
func New() *Counters { return &Counters{} }

// Snapshot is an immutable point-in-time copy, safe to log or compare.
type Snapshot struct {
	RecursiveCalls      uint64
	FitChecks           uint64
	Placements          uint64
	Backtracks          uint64
	DeadEnds            uint64
	Singletons          uint64
	ForwardCheckRejects uint64
}

// Snapshot reads every counter into a plain struct.
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		RecursiveCalls:      c.RecursiveCalls.Load(),
		FitChecks:           c.FitChecks.Load(),
		Placements:          c.Placements.Load(),
		Backtracks:          c.Backtracks.Load(),
		DeadEnds:            c.DeadEnds.Load(),
		Singletons:          c.Singletons.Load(),
		ForwardCheckRejects: c.ForwardCheckRejects.Load(),
	}
}

// Merge adds another snapshot's counts into a running total, used by
// the orchestrator to aggregate per-worker counters into one report.
func (s Snapshot) Merge(o Snapshot) Snapshot {
	return Snapshot{
		RecursiveCalls:      s.RecursiveCalls + o.RecursiveCalls,
		FitChecks:           s.FitChecks + o.FitChecks,
		Placements:          s.Placements + o.Placements,
		Backtracks:          s.Backtracks + o.Backtracks,
		DeadEnds:            s.DeadEnds + o.DeadEnds,
		Singletons:          s.Singletons + o.Singletons,
		ForwardCheckRejects: s.ForwardCheckRejects + o.ForwardCheckRejects,
	}
}

// Report renders the snapshot as a one-line human-readable summary for
// the final log, with grouped digits and a calls-per-second rate.
func (s Snapshot) Report(elapsed time.Duration) string {
	rate := "n/a"
	if secs := elapsed.Seconds(); secs > 0 {
		rate = humanize.Comma(int64(float64(s.RecursiveCalls)/secs)) + "/s"
	}
	return fmt.Sprintf(
		"calls=%s (%s) fit-checks=%s placements=%s backtracks=%s dead-ends=%s singletons=%s gap-rejects=%s elapsed=%s",
		humanize.Comma(int64(s.RecursiveCalls)), rate,
		humanize.Comma(int64(s.FitChecks)),
		humanize.Comma(int64(s.Placements)),
		humanize.Comma(int64(s.Backtracks)),
		humanize.Comma(int64(s.DeadEnds)),
		humanize.Comma(int64(s.Singletons)),
		humanize.Comma(int64(s.ForwardCheckRejects)),
		elapsed.Round(time.Millisecond),
	)
}

// trackedDepths caps how many of the shallowest depths get detailed
// progress tracking; past that the branching factor makes the numbers
// meaningless.
const trackedDepths = 5

// DepthProgress tracks the shallowest depths in detail: the
// recursive-call count at first sighting, the total candidate count
// registered at the first branch, and how many of those candidates have
// been fully explored. Deeper progress is summarized by the record
// tracker instead.
type DepthProgress struct {
	mu         sync.Mutex
	seen       [trackedDepths]bool
	reached    [trackedDepths]uint64 // recursive-call count at first sighting of depth i+1
	registered [trackedDepths]bool
	total      [trackedDepths]uint64 // candidate placements to try at depth i+1
	explored   [trackedDepths]uint64 // candidates fully finished at depth i+1
}

// NewDepthProgress creates a tracker ready for use.
func NewDepthProgress() *DepthProgress {
	return &DepthProgress{}
}

// Reached registers that depth (1-based) was just reached, recording
// the recursive-call count at the moment of first sighting for the
// tracked depths only. Calls for later depths are no-ops.
func (p *DepthProgress) Reached(depth int, recursiveCalls uint64) {
	if depth < 1 || depth > trackedDepths {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	idx := depth - 1
	if !p.seen[idx] {
		p.seen[idx] = true
		p.reached[idx] = recursiveCalls
	}
}

// FirstSeen returns the recursive-call count at which depth (1-based)
// was first reached, and whether it has been reached at all.
func (p *DepthProgress) FirstSeen(depth int) (uint64, bool) {
	if depth < 1 || depth > trackedDepths {
		return 0, false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	idx := depth - 1
	return p.reached[idx], p.seen[idx]
}

// Register records, at the first branch taken at depth (1-based), the
// total number of candidate placements there were to try. Repeat calls
// for the same depth keep the first total.
func (p *DepthProgress) Register(depth int, totalOptions int) {
	if depth < 1 || depth > trackedDepths {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	idx := depth - 1
	if !p.registered[idx] {
		p.registered[idx] = true
		p.total[idx] = uint64(totalOptions)
	}
}

// Explored records that one candidate at depth (1-based) was fully
// finished, successfully or not.
func (p *DepthProgress) Explored(depth int) {
	if depth < 1 || depth > trackedDepths {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.explored[depth-1]++
}

// Percent estimates overall progress as the fraction of registered
// candidates explored across the tracked depths, weighting each depth
// equally. Returns 0 until at least one depth has registered options.
func (p *DepthProgress) Percent() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	var sum float64
	counted := 0
	for i := 0; i < trackedDepths; i++ {
		if !p.registered[i] || p.total[i] == 0 {
			continue
		}
		frac := float64(p.explored[i]) / float64(p.total[i])
		if frac > 1 {
			frac = 1
		}
		sum += frac
		counted++
	}
	if counted == 0 {
		return 0
	}
	return sum / float64(counted) * 100
}
