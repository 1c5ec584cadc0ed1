// fks.go -- two-level FKS minimal perfect hash backend
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

// Package fks implements the two-level Fredman-Komlos-Szemeredi
// perfect-hash backend: first-level bucketing by mix_native(key), then
// a per-bucket multiply-shift second level of at least s^2 slots for a
// bucket of s keys, so that a collision-free multiplier is usually found
// within a few trials; the search is capped, and Build returns
// ErrBuildFailed if a bucket exhausts the cap. Space is near-linear in N
// rather than proportional to max(keys) the way llut's is.
//
// The per-bucket multiplier search here plays the same role as the
// per-bucket seed search in the teacher's CHD implementation
// (chd.go:Freeze), but each bucket owns a private slot range (via
// base[b]) instead of sharing one global slot space, so there is no
// cross-bucket occupancy bitvector to maintain -- processing order
// across buckets doesn't affect correctness, only wall-clock time.
package fks

import (
	"errors"
	"fmt"

	"github.com/opencoff/go-static-mph/bitutil"
	"github.com/opencoff/go-static-mph/distinct"
)

var (
	// ErrEmptyKeySet is returned when Build is given zero keys.
	ErrEmptyKeySet = errors.New("fks: key set must be non-empty")

	// ErrDuplicateKey is returned when Build finds a repeated key.
	ErrDuplicateKey = errors.New("fks: duplicate key in key set")

	// ErrBuildFailed is returned when a bucket's multiplier search
	// exhausts its trial cap without finding a collision-free fit.
	ErrBuildFailed = errors.New("fks: no collision-free multiplier found")
)

// member pairs a key with its declaration-order dense index, kept
// around only for the duration of Build.
type member[K bitutil.Unsigned] struct {
	key   K
	dense uint32
}

// Table is a frozen two-level FKS perfect hash over a fixed key set.
type Table[K bitutil.Unsigned] struct {
	m           uint64   // first-level bucket count, a power of two
	rbits       []uint8  // per-bucket log2(second-level size)
	mult        []uint64 // per-bucket odd multiplier
	base        []uint32 // per-bucket offset into slotToIndex
	slotToIndex []uint32 // flat second-level slot array; sentinel = n
	keysByIndex []K      // dense index -> original key, for the final equality check
	n           uint32
}

// trialCap bounds the per-bucket multiplier search. It is proportional
// to the bucket's second-level size, scaled well above the
// 2^(rbits+4) floor the design notes suggest -- see the FKS build cap
// decision recorded in SPEC_FULL.md.
func trialCap(size uint64) uint64 {
	return size * 32
}

// rbitsFor returns ceilLog2(max(1, s*s)), the second-level size
// exponent for a bucket holding s keys.
func rbitsFor(s int) uint8 {
	if s <= 1 {
		return 0
	}
	return uint8(bitutil.CeilLog2(uint64(s) * uint64(s)))
}

// Build constructs a Table from keys in declaration order. Declaration
// order defines each key's dense index, independent of which bucket
// it lands in or the order buckets are processed during the build.
func Build[K bitutil.Unsigned](keys []K) (*Table[K], error) {
	if len(keys) == 0 {
		return nil, ErrEmptyKeySet
	}
	if !distinct.Check(keys) {
		return nil, ErrDuplicateKey
	}

	n := uint32(len(keys))
	m := bitutil.CeilPow2(uint64(n))

	buckets := make([][]member[K], m)
	for i, k := range keys {
		b := bitutil.BucketOf(k, m)
		buckets[b] = append(buckets[b], member[K]{key: k, dense: uint32(i)})
	}

	rbits := make([]uint8, m)
	base := make([]uint32, m)
	var totalSlots uint32
	for b, ms := range buckets {
		rb := rbitsFor(len(ms))
		rbits[b] = rb
		base[b] = totalSlots
		totalSlots += uint32(1) << rb
	}

	slotToIndex := make([]uint32, totalSlots)
	for i := range slotToIndex {
		slotToIndex[i] = n
	}
	keysByIndex := make([]K, n)
	mult := make([]uint64, m)

	for b, ms := range buckets {
		if len(ms) == 0 {
			mult[b] = 1
			continue
		}

		rb := uint(rbits[b])
		size := uint64(1) << rb
		cap := trialCap(size)

		used := make([]bool, size)
		pos := make([]uint32, len(ms))

		found := false
		for seed := uint64(1); seed <= cap; seed++ {
			a := bitutil.Mix64(seed) | 1

			for i := range used {
				used[i] = false
			}

			ok := true
			for j, mem := range ms {
				h := bitutil.MixNative(mem.key)
				p := bitutil.TopBits(h*a, rb)
				if used[p] {
					ok = false
					break
				}
				used[p] = true
				pos[j] = uint32(p)
			}

			if ok {
				mult[b] = a
				for j, mem := range ms {
					slotToIndex[base[b]+pos[j]] = mem.dense
					keysByIndex[mem.dense] = mem.key
				}
				found = true
				break
			}
		}

		if !found {
			return nil, fmt.Errorf("%w: bucket %d holding %d keys after %d trials",
				ErrBuildFailed, b, len(ms), cap)
		}
	}

	return &Table[K]{
		m:           m,
		rbits:       rbits,
		mult:        mult,
		base:        base,
		slotToIndex: slotToIndex,
		keysByIndex: keysByIndex,
		n:           n,
	}, nil
}

// Size returns the number of registered keys, N.
func (t *Table[K]) Size() int { return int(t.n) }

// Sentinel returns N, the not-found index.
func (t *Table[K]) Sentinel() uint32 { return t.n }

// Buckets returns M, the first-level bucket count.
func (t *Table[K]) Buckets() int { return int(t.m) }

// Slots returns the total second-level slot count across all buckets.
func (t *Table[K]) Slots() int { return len(t.slotToIndex) }

// Backend identifies this table's construction strategy.
func (t *Table[K]) Backend() string { return "FKS" }

// Lookup returns the dense index for key, or Sentinel() if key was
// never registered. The final equality check against keysByIndex is
// mandatory: an unregistered key can still land on an occupied slot
// belonging to another bucket's key.
func (t *Table[K]) Lookup(key K) uint32 {
	h := bitutil.MixNative(key)
	b := h & (t.m - 1)
	rb := uint(t.rbits[b])
	p := bitutil.TopBits(h*t.mult[b], rb)
	slot := t.base[b] + uint32(p)

	i := t.slotToIndex[slot]
	if i >= t.n {
		return t.n
	}
	if t.keysByIndex[i] != key {
		return t.n
	}
	return i
}

// DumpMeta writes a short human-readable summary of the table.
func (t *Table[K]) DumpMeta() string {
	return fmt.Sprintf("FKS: %d keys, %d buckets, %d total slots", t.n, t.m, len(t.slotToIndex))
}
