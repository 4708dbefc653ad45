// Package config carries every process-level control the solve run
// recognizes: a plain struct of knobs plus a small set of named
// presets.
package config

import (
	"runtime"
	"time"

	"github.com/edgetile/eternity/internal/orderer"
)

// Config controls one solve run. There is deliberately no hidden
// global state anywhere else in the module; everything tunable lives
// here and travels with the orchestrator.
type Config struct {
	// Technique toggles.
	UseSingletons     bool
	UseAC3            bool
	UseDomainCache    bool
	UseValueOrderer   bool
	PrioritizeBorders bool
	UseNeighborCheck  bool
	SortOrder         orderer.SortOrder

	// Reporting.
	Verbose               bool
	MinDepthToShowRecords int

	// Resource limits.
	MaxExecutionTime time.Duration
	ThreadCount      int
	RandomSeed       int64

	// Save/resume.
	CheckpointDir           string
	AutosaveEveryBacktracks int
	AutosaveInterval        time.Duration

	// PuzzleID identifies this puzzle instance for checkpoint keys; it
	// should be stable across resumed runs of the same board+tile set
	// (e.g. a hash of the tile catalog, or a named puzzle family tag).
	PuzzleID string
}

// Default returns a Config with every technique enabled, one worker per
// CPU, no execution-time limit, and checkpoints disabled.
func Default() Config {
	return Config{
		UseSingletons:           true,
		UseAC3:                  true,
		UseDomainCache:          true,
		UseValueOrderer:         true,
		PrioritizeBorders:       true,
		UseNeighborCheck:        true,
		SortOrder:               orderer.Ascending,
		MinDepthToShowRecords:   0,
		MaxExecutionTime:        0,
		ThreadCount:             runtime.GOMAXPROCS(0),
		RandomSeed:              1,
		AutosaveEveryBacktracks: 500,
		AutosaveInterval:        30 * time.Second,
	}
}

// Fast disables the more expensive techniques (AC-3, neighbor lookahead,
// domain cache) for a quick, lower-quality run, e.g. smoke-testing a new
// tile catalog.
func Fast() Config {
	c := Default()
	c.UseAC3 = false
	c.UseNeighborCheck = false
	c.UseDomainCache = false
	return c
}

// Deadline computes the absolute deadline for a run started at start,
// or the zero Time if MaxExecutionTime is unset (no limit).
func (c Config) Deadline(start time.Time) time.Time {
	if c.MaxExecutionTime <= 0 {
		return time.Time{}
	}
	return start.Add(c.MaxExecutionTime)
}
