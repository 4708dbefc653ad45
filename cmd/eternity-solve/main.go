// Command eternity-solve loads a tile catalog, wires up the search
// components per the requested technique flags, and runs the parallel
// worker orchestrator to completion or deadline. Optional pprof CPU
// profiling is gated by a flag or the CPUPROFILE environment variable.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"time"

	"github.com/edgetile/eternity/internal/config"
	"github.com/edgetile/eternity/internal/fixedpieces"
	"github.com/edgetile/eternity/internal/orchestrator"
	"github.com/edgetile/eternity/internal/orderer"
	"github.com/edgetile/eternity/internal/persist"
	"github.com/edgetile/eternity/internal/puzzle"
)

var (
	tileFile      = flag.String("tiles", "", "path to the tile catalog (required)")
	hintFile      = flag.String("hints", "", "optional binary fixed-piece hint file")
	familyTag     = flag.String("family", "custom", "puzzle family tag (standard-e2, mini, custom)")
	rows          = flag.Int("rows", 0, "board row count (required)")
	cols          = flag.Int("cols", 0, "board column count (required)")
	threads       = flag.Int("threads", 0, "worker count (0 = GOMAXPROCS)")
	seed          = flag.Int64("seed", 1, "base entropy for per-worker seed derivation")
	maxSeconds    = flag.Int("max-seconds", 0, "execution time limit in seconds (0 = unlimited)")
	sortDesc      = flag.Bool("sort-desc", false, "fall back to descending tile-id order when ordering is disabled")
	noAC3         = flag.Bool("no-ac3", false, "disable AC-3 propagation")
	noSingletons  = flag.Bool("no-singletons", false, "disable the forced-move detector")
	noCache       = flag.Bool("no-domain-cache", false, "disable the per-worker domain cache")
	noOrderer     = flag.Bool("no-value-order", false, "disable LCV value ordering (falls back to numeric tile-id order)")
	noNeighbor    = flag.Bool("no-neighbor-check", false, "disable the trapped-gap lookahead")
	noBorders     = flag.Bool("no-border-priority", false, "disable border-priority cell selection")
	verbose       = flag.Bool("v", false, "log per-worker progress")
	minDepthShow  = flag.Int("min-depth-show", 0, "minimum depth before record improvements are logged")
	checkpointDir = flag.String("checkpoint-dir", "", "directory for save/resume checkpoints (empty disables)")
	puzzleID      = flag.String("puzzle-id", "", "stable id for checkpoint keys (defaults to a tileset-size tag)")
	cpuprofile    = flag.String("cpuprofile", "", "write a CPU profile to this file")
)

func main() {
	flag.Parse()

	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
		log.Printf("CPU profiling enabled, writing to %s", profilePath)
	}

	if *tileFile == "" || *rows == 0 || *cols == 0 {
		log.Fatal("usage: eternity-solve -tiles <file> -rows N -cols M [flags]")
	}

	ts, err := loadTileSet(*tileFile)
	if err != nil {
		log.Fatalf("loading tile catalog: %v", err)
	}
	if ts.Len() != *rows**cols {
		log.Fatalf("tile catalog has %d tiles, board needs %d", ts.Len(), *rows**cols)
	}

	cfg := config.Default()
	cfg.UseAC3 = !*noAC3
	cfg.UseSingletons = !*noSingletons
	cfg.UseDomainCache = !*noCache
	cfg.UseValueOrderer = !*noOrderer
	cfg.UseNeighborCheck = !*noNeighbor
	cfg.PrioritizeBorders = !*noBorders
	cfg.Verbose = *verbose
	cfg.MinDepthToShowRecords = *minDepthShow
	if *threads > 0 {
		cfg.ThreadCount = *threads
	}
	cfg.RandomSeed = *seed
	cfg.PuzzleID = *puzzleID
	if *sortDesc {
		cfg.SortOrder = orderer.Descending
	}
	if *maxSeconds > 0 {
		cfg.MaxExecutionTime = time.Duration(*maxSeconds) * time.Second
	}

	var store *persist.Store
	if *checkpointDir != "" {
		store, err = persist.Open(*checkpointDir)
		if err != nil {
			log.Fatalf("opening checkpoint store: %v", err)
		}
		defer store.Close()
	}

	o := orchestrator.New(ts, cfg, store)

	family := fixedpieces.SettingsFor(fixedpieces.Family(*familyTag))
	var hints []fixedpieces.Hint
	if *hintFile != "" {
		hints, err = fixedpieces.LoadHintFile(*hintFile)
		if err != nil {
			log.Fatalf("loading hint file: %v", err)
		}
		log.Printf("[eternity-solve] loaded %d fixed-piece hints from %s", len(hints), *hintFile)
	}
	if err := family.ValidateHintCount(len(hints)); err != nil {
		log.Fatalf("family %q: %v", *familyTag, err)
	}
	if len(hints) > 0 {
		o.SetHints(hints)
	}

	// Corner diversification seeds are an orthogonal concern from the
	// fixed-piece clues above: they just need one corner-compatible tile
	// id per early worker, picked from whatever the tile set offers.
	var cornerTiles [4]puzzle.TileID
	for i, id := range ts.CornerCandidates(4) {
		cornerTiles[i] = id
	}

	start := time.Now()
	res := o.Run(*rows, *cols, cornerTiles, family.CornerDiversificationThreshold)

	log.Printf("[eternity-solve] solved=%v maxDepth=%d score=%d", res.Solved, res.MaxDepth, res.Score)
	log.Printf("[eternity-solve] %s", res.Stats.Report(time.Since(start)))

	if res.Board != nil {
		printBoard(res.Board)
	}
	if !res.Solved {
		os.Exit(1)
	}
}

// loadTileSet reads a plain-text tile catalog: one tile per line, five
// whitespace-separated unsigned integers: id, north, east, south, west.
// Blank lines and lines starting with '#' are ignored. This grammar is
// an external adapter detail, not part of the search engine itself.
func loadTileSet(path string) (*puzzle.TileSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var tiles []*puzzle.Tile
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		var id, n, e, s, w uint64
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		if _, err := fmt.Sscanf(line, "%d %d %d %d %d", &id, &n, &e, &s, &w); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		tiles = append(tiles, puzzle.NewTile(puzzle.TileID(id), puzzle.Edges{
			puzzle.Color(n), puzzle.Color(e), puzzle.Color(s), puzzle.Color(w),
		}))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return puzzle.NewTileSet(tiles), nil
}

// printBoard renders the final board as plain tile-id/rotation pairs.
// Full ANSI rendering with next-cell candidate counts is explicitly out
// of scope for the search engine and belongs to a presentation layer
// this command does not attempt to replicate.
func printBoard(b *puzzle.Board) {
	for r := 0; r < b.Rows(); r++ {
		for c := 0; c < b.Cols(); c++ {
			p := b.Placement(r, c)
			if p == nil {
				fmt.Printf("  .      ")
				continue
			}
			fmt.Printf("%4d/%d  ", p.TileID, p.Rotation)
		}
		fmt.Println()
	}
}
