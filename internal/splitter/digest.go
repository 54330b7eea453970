package splitter

import (
	"encoding/binary"

	"github.com/zeebo/xxh3"
)

// Digest is an order-sensitive chain over record payloads. Two record
// sequences produce the same sum only if they contain the same records in
// the same order, which is exactly the conservation guarantee the splitter
// makes about its outputs.
type Digest struct {
	sum uint64
	n   int
}

// Add folds one record's serialized bytes into the chain.
func (d *Digest) Add(raw []byte) {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], d.sum)
	binary.LittleEndian.PutUint64(buf[8:], xxh3.Hash(raw))
	d.sum = xxh3.Hash(buf[:])
	d.n++
}

// Sum returns the chained digest; 0 for an empty sequence.
func (d *Digest) Sum() uint64 { return d.sum }

// Count returns how many records have been folded in.
func (d *Digest) Count() int { return d.n }
