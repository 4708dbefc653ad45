// Package fixedpieces maps a puzzle family to its pre-placed "clue"
// tiles and loads the compact fixed-width binary hint files describing
// them.
package fixedpieces

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/edgetile/eternity/internal/puzzle"
)

// Family names a puzzle family with its own fixed-piece convention.
// The genuine Eternity II competition board famously shipped with
// exactly one pre-placed "clue" tile near the center as an
// anti-brute-force measure; other families in this registry have none.
type Family string

const (
	FamilyStandardE2 Family = "standard-e2" // 16x16, one fixed clue tile
	FamilyMini       Family = "mini"        // small practice boards, no clues
	FamilyCustom     Family = "custom"      // caller-supplied hint file, count unknown ahead of time
)

// Settings describes one family's fixed-piece convention and the
// worker-diversification threshold used by the orchestrator: below this
// many unused tiles, pre-placing distinct corners across workers isn't
// worth the reduced search diversity it costs.
type Settings struct {
	ExpectedFixedPieces            int
	CornerDiversificationThreshold int
}

var registry = map[Family]Settings{
	FamilyStandardE2: {ExpectedFixedPieces: 1, CornerDiversificationThreshold: 10},
	FamilyMini:       {ExpectedFixedPieces: 0, CornerDiversificationThreshold: 4},
	FamilyCustom:     {ExpectedFixedPieces: -1, CornerDiversificationThreshold: 10}, // -1: unknown, don't validate count
}

// SettingsFor returns the registered settings for a family. Tags are
// normalized to lower case at this boundary; unrecognized tags map to
// zero fixed pieces, not to FamilyCustom's "unknown count" sentinel.
func SettingsFor(f Family) Settings {
	f = Family(strings.ToLower(string(f)))
	if s, ok := registry[f]; ok {
		return s
	}
	return Settings{ExpectedFixedPieces: 0, CornerDiversificationThreshold: 10}
}

// ValidateHintCount checks a loaded hint count against the family's
// convention. Families with an unknown expected count (negative, i.e.
// FamilyCustom) accept any count.
func (s Settings) ValidateHintCount(n int) error {
	if s.ExpectedFixedPieces >= 0 && n != s.ExpectedFixedPieces {
		return fmt.Errorf("fixedpieces: %d hints loaded, family expects %d", n, s.ExpectedFixedPieces)
	}
	return nil
}

// Hint names one pre-placed tile: a cell, a tile id, and its required
// rotation.
type Hint struct {
	Row, Col int
	TileID   puzzle.TileID
	Rotation int
}

// hintRecordSize is the on-disk size of one Hint: four big-endian
// uint32 fields (row, col, tileId, rotation).
const hintRecordSize = 16

// LoadHintFile reads a fixed-width binary hint file from disk.
func LoadHintFile(path string) ([]Hint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("fixedpieces: open %s: %w", path, err)
	}
	defer f.Close()
	return LoadHintReader(f)
}

// LoadHintReader reads hint records from r until EOF. Each record is
// 16 bytes: row, col, tileId, rotation, each a big-endian uint32.
func LoadHintReader(r io.Reader) ([]Hint, error) {
	var hints []Hint
	var record [hintRecordSize]byte

	for {
		_, err := io.ReadFull(r, record[:])
		if err == io.EOF {
			break
		}
		if err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("fixedpieces: truncated hint record")
		}
		if err != nil {
			return nil, err
		}

		hints = append(hints, Hint{
			Row:      int(binary.BigEndian.Uint32(record[0:4])),
			Col:      int(binary.BigEndian.Uint32(record[4:8])),
			TileID:   puzzle.TileID(binary.BigEndian.Uint32(record[8:12])),
			Rotation: int(binary.BigEndian.Uint32(record[12:16])),
		})
	}
	return hints, nil
}

// WriteHintFile writes hints back out in the same format LoadHintFile
// reads, used by tooling that derives a hint file from a known solution.
func WriteHintFile(path string, hints []Hint) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("fixedpieces: create %s: %w", path, err)
	}
	defer f.Close()

	var record [hintRecordSize]byte
	for _, h := range hints {
		binary.BigEndian.PutUint32(record[0:4], uint32(h.Row))
		binary.BigEndian.PutUint32(record[4:8], uint32(h.Col))
		binary.BigEndian.PutUint32(record[8:12], uint32(h.TileID))
		binary.BigEndian.PutUint32(record[12:16], uint32(h.Rotation))
		if _, err := f.Write(record[:]); err != nil {
			return err
		}
	}
	return nil
}

// Apply pre-places every hint onto an empty board before search begins.
// Placements are not validated against the fit checker here: a hint
// file is trusted input describing a known-consistent partial solution.
func Apply(b *puzzle.Board, ts *puzzle.TileSet, hints []Hint) error {
	for i, h := range hints {
		t := ts.Get(h.TileID)
		if t == nil {
			return fmt.Errorf("fixedpieces: hint %d: unknown tile id %d", i, h.TileID)
		}
		if !b.InBounds(h.Row, h.Col) {
			return fmt.Errorf("fixedpieces: hint %d: cell (%d,%d) out of bounds", i, h.Row, h.Col)
		}
		b.Place(h.Row, h.Col, t, h.Rotation)
	}
	return nil
}
