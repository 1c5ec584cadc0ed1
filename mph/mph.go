// mph.go -- MPH backend selector and canonical singleton cache
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

// Package mph picks between the llut and fks backends by a memory
// heuristic and hands back the canonical, process-wide table for a
// given (K, keys) signature. Go has no compile-time table synthesis,
// so "canonical" here means "memoized behind a lock, keyed by a
// fingerprint of the key set" rather than true translation-unit
// identity -- the nearest honest equivalent available to a language
// without constexpr evaluation.
package mph

import (
	"encoding/binary"
	"errors"
	"sync"
	"unsafe"

	"github.com/cespare/xxhash/v2"

	"github.com/opencoff/go-static-mph/bitutil"
	"github.com/opencoff/go-static-mph/fks"
	"github.com/opencoff/go-static-mph/llut"
)

// ErrEmptyKeySet is returned when Get is given zero keys.
var ErrEmptyKeySet = errors.New("mph: key set must be non-empty")

// Table is the narrow capability set the dispatch factory (and any
// other caller) needs, regardless of which backend was chosen.
type Table[K bitutil.Unsigned] interface {
	Lookup(key K) uint32
	Size() int
	Sentinel() uint32
	Backend() string
}

var (
	_ Table[uint64] = (*llut.Table[uint64])(nil)
	_ Table[uint64] = (*fks.Table[uint64])(nil)
)

// alpha is the small integer multiplier in the FKS memory estimate;
// 3 is the spec's suggested default.
const alpha = 3

// wordSize models the native machine word used in the FKS memory
// estimate (base offset + multiplier, each a native word).
const wordSize = 8

// chooseFKS reports whether the FKS backend is estimated cheaper than
// LLUT for this key set, per the §4.E memory model. Keys must be
// non-empty; callers check that first.
func chooseFKS[K bitutil.Unsigned](keys []K) bool {
	n := uint64(len(keys))

	var max K
	for _, k := range keys {
		if k > max {
			max = k
		}
	}
	span := uint64(max) + 1
	indexWidth := bytesFor(n)
	keySize := uint64(unsafe.Sizeof(max))

	memLLUT := span * indexWidth
	memFKS := n * (alpha*indexWidth + 2*wordSize + 1 + keySize)

	return memLLUT > memFKS
}

// bytesFor returns the byte width of the smallest unsigned integer
// that can hold the value n.
func bytesFor(n uint64) uint64 {
	bits := bitutil.BitWidth(n)
	switch {
	case bits <= 8:
		return 1
	case bits <= 16:
		return 2
	case bits <= 32:
		return 4
	default:
		return 8
	}
}

// BackendFor reports which backend Get would choose for this key set,
// without building it. Useful for diagnostics and tests (see the S6
// scenario).
func BackendFor[K bitutil.Unsigned](keys []K) string {
	if len(keys) == 0 {
		return "LLUT"
	}
	if chooseFKS(keys) {
		return "FKS"
	}
	return "LLUT"
}

func build[K bitutil.Unsigned](keys []K) (Table[K], error) {
	if chooseFKS(keys) {
		return fks.Build(keys)
	}
	return llut.Build(keys)
}

// fingerprint identifies a (K, keys) signature for the singleton
// cache. Key order matters (it defines dense indices), so the keys
// are hashed in declaration order; the element width is folded in so
// that, say, uint8{1,2} and uint16{1,2} don't alias each other.
func fingerprint[K bitutil.Unsigned](keys []K) uint64 {
	h := xxhash.New()
	var buf [8]byte

	binary.LittleEndian.PutUint64(buf[:], uint64(unsafe.Sizeof(keys[0])))
	h.Write(buf[:])

	for _, k := range keys {
		binary.LittleEndian.PutUint64(buf[:], uint64(k))
		h.Write(buf[:])
	}
	return h.Sum64()
}

var (
	cacheMu sync.Mutex
	cache   = make(map[uint64]any)
)

// Get returns the canonical MPH table for keys, building it on first
// request and memoizing it for subsequent calls with an identical key
// set (same values, same order, same element width).
func Get[K bitutil.Unsigned](keys []K) (Table[K], error) {
	if len(keys) == 0 {
		return nil, ErrEmptyKeySet
	}

	fp := fingerprint(keys)

	cacheMu.Lock()
	if v, ok := cache[fp]; ok {
		cacheMu.Unlock()
		return v.(Table[K]), nil
	}
	cacheMu.Unlock()

	tbl, err := build(keys)
	if err != nil {
		return nil, err
	}

	cacheMu.Lock()
	defer cacheMu.Unlock()
	if v, ok := cache[fp]; ok {
		return v.(Table[K]), nil
	}
	cache[fp] = tbl
	return tbl, nil
}
