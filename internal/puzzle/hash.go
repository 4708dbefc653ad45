package puzzle

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// zobristKey returns a reproducible per-(cell, tileId, rotation) hash
// key, computed on demand via xxhash rather than looked up in a
// precomputed table: the (cell x tile x rotation) key space is large
// enough that a dense table would mostly hold keys no search ever
// touches.
func zobristKey(r, c int, id TileID, rotation int) uint64 {
	var buf [20]byte
	binary.LittleEndian.PutUint32(buf[0:4], uint32(r))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(c))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(id))
	binary.LittleEndian.PutUint32(buf[16:20], uint32(rotation))
	return xxhash.Sum64(buf[:])
}

// BoardHash incrementally tracks a Zobrist-style hash of a board's
// current placements: XOR-in on place, XOR-out on remove (XOR is its
// own inverse), so hashing a board after N place/remove operations
// costs O(1) per operation instead of O(cells) per query. Used as the
// cache key for the optional per-cell domain cache.
type BoardHash struct {
	value uint64
}

// NewBoardHash returns a hash representing an empty board.
func NewBoardHash() *BoardHash { return &BoardHash{} }

// Value returns the current accumulated hash.
func (h *BoardHash) Value() uint64 { return h.value }

// Apply folds in (or, applied twice, folds out) one cell's placement.
func (h *BoardHash) Apply(r, c int, id TileID, rotation int) {
	h.value ^= zobristKey(r, c, id, rotation)
}

// Clone returns an independent copy.
func (h *BoardHash) Clone() *BoardHash {
	return &BoardHash{value: h.value}
}
