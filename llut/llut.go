// llut.go -- direct lookup table MPH backend
//
// (c) Sudhi Herle 2018
//
// License GPLv2
//
// If you need a commercial license for this work, please contact
// the author.
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

// Package llut implements the direct-table ("LLUT") minimal perfect
// hash backend: one cell per possible key value. It is cheap to build
// and cheap to look up, but its footprint is proportional to the
// largest key rather than the number of keys -- the mph package picks
// it over fks only when that tradeoff pays off.
package llut

import (
	"errors"
	"fmt"

	"github.com/opencoff/go-static-mph/bitutil"
	"github.com/opencoff/go-static-mph/distinct"
)

var (
	// ErrEmptyKeySet is returned when Build is given zero keys.
	ErrEmptyKeySet = errors.New("llut: key set must be non-empty")

	// ErrDuplicateKey is returned when Build finds a repeated key.
	ErrDuplicateKey = errors.New("llut: duplicate key in key set")
)

// Table is a frozen direct lookup table over a fixed key set of type K.
type Table[K bitutil.Unsigned] struct {
	cell []uint32 // dense index per possible key value; sentinel = n
	n    uint32
}

// Build constructs a Table from keys in declaration order. Declaration
// order becomes the dense index: keys[i] maps to i.
func Build[K bitutil.Unsigned](keys []K) (*Table[K], error) {
	if len(keys) == 0 {
		return nil, ErrEmptyKeySet
	}
	if !distinct.Check(keys) {
		return nil, ErrDuplicateKey
	}

	n := uint32(len(keys))

	var max K
	for _, k := range keys {
		if k > max {
			max = k
		}
	}

	capacity := uint64(max) + 1
	cell := make([]uint32, capacity)
	for i := range cell {
		cell[i] = n
	}
	for i, k := range keys {
		cell[k] = uint32(i)
	}

	return &Table[K]{cell: cell, n: n}, nil
}

// Size returns the number of registered keys, N.
func (t *Table[K]) Size() int { return int(t.n) }

// Sentinel returns N, the not-found index.
func (t *Table[K]) Sentinel() uint32 { return t.n }

// Capacity returns max(keys)+1, the backing array length.
func (t *Table[K]) Capacity() int { return len(t.cell) }

// Backend identifies this table's construction strategy.
func (t *Table[K]) Backend() string { return "LLUT" }

// Lookup returns the dense index for key, or Sentinel() if key was
// never registered. Out-of-range keys unconditionally yield Sentinel().
func (t *Table[K]) Lookup(key K) uint32 {
	k := uint64(key)
	if k >= uint64(len(t.cell)) {
		return t.n
	}
	return t.cell[k]
}

// DumpMeta writes a short human-readable summary of the table.
func (t *Table[K]) DumpMeta() string {
	return fmt.Sprintf("LLUT: %d keys, capacity %d cells", t.n, len(t.cell))
}
