// registry.go -- mutable, key-sorted registry of storage cells
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

// Package registry implements the mutable, key-sorted collaborator
// the core dispatch factory deliberately leaves out: a registry whose
// key set can grow and shrink at run time, with sort.Search binary
// search instead of an MPH lookup, plus ordered teardown of the
// storage cells it holds -- the one piece of cell lifecycle the core
// does not provide on its own.
//
// It exists alongside dispatch.Factory, not in place of it: Factory
// is for a key set known and frozen before the program reaches
// steady state; Set is for one that is discovered incrementally (a
// plugin registry, a config-driven type list) and may need to track
// whether a rebuild of the frozen MPH form is warranted.
package registry

import (
	"fmt"
	"sort"

	"github.com/zeebo/xxh3"
)

// Destroyer is implemented by registered values that hold resources
// needing release at removal or teardown time.
type Destroyer interface {
	Destroy()
}

type entry struct {
	key   uint64
	value Destroyer
}

// Set is an insertion-ordered-then-sorted registry of uint64 keys to
// values, kept sorted by key at all times so Lookup can binary
// search. Not safe for concurrent use, matching the rest of this
// library's single-threaded design.
type Set struct {
	entries []entry
	digest  *xxh3.Hasher
}

// New returns an empty registry.
func New() *Set {
	return &Set{digest: xxh3.New()}
}

// Len returns the number of registered entries.
func (s *Set) Len() int { return len(s.entries) }

func (s *Set) search(key uint64) int {
	return sort.Search(len(s.entries), func(i int) bool {
		return s.entries[i].key >= key
	})
}

// Lookup returns the value registered under key, or nil if key is not
// present.
func (s *Set) Lookup(key uint64) Destroyer {
	i := s.search(key)
	if i < len(s.entries) && s.entries[i].key == key {
		return s.entries[i].value
	}
	return nil
}

// Insert adds or replaces the value registered under key. If key was
// already present, its old value is destroyed first. Insert keeps the
// registry sorted and folds key into the change-detection digest.
func (s *Set) Insert(key uint64, v Destroyer) {
	i := s.search(key)
	if i < len(s.entries) && s.entries[i].key == key {
		if old := s.entries[i].value; old != nil {
			old.Destroy()
		}
		s.entries[i].value = v
	} else {
		s.entries = append(s.entries, entry{})
		copy(s.entries[i+1:], s.entries[i:])
		s.entries[i] = entry{key: key, value: v}
	}
	s.mark(key)
}

// Remove destroys and removes the entry registered under key, if any.
func (s *Set) Remove(key uint64) bool {
	i := s.search(key)
	if i >= len(s.entries) || s.entries[i].key != key {
		return false
	}
	if v := s.entries[i].value; v != nil {
		v.Destroy()
	}
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	s.mark(key)
	return true
}

func (s *Set) mark(key uint64) {
	var b [8]byte
	for i := range b {
		b[i] = byte(key >> (8 * i))
	}
	s.digest.Write(b[:])
}

// Digest returns a change-detection fingerprint folding in every key
// ever inserted or removed since the registry (or its last call to
// ResetDigest) was created. Callers use this to decide whether a
// frozen mph.Table built over the registry's current key set is stale
// and needs rebuilding.
func (s *Set) Digest() uint64 {
	return s.digest.Sum64()
}

// ResetDigest clears the change-detection fingerprint without
// touching any entries, for callers that have just rebuilt their
// frozen MPH table and want to track changes since that rebuild.
func (s *Set) ResetDigest() {
	s.digest.Reset()
}

// Keys returns the registry's keys in ascending order.
func (s *Set) Keys() []uint64 {
	keys := make([]uint64, len(s.entries))
	for i, e := range s.entries {
		keys[i] = e.key
	}
	return keys
}

// Teardown destroys every registered value in ascending key order and
// empties the registry. It is the ordered-teardown facility the core
// storage cell does not itself provide.
func (s *Set) Teardown() {
	for _, e := range s.entries {
		if e.value != nil {
			e.value.Destroy()
		}
	}
	s.entries = s.entries[:0]
}

// String renders a short human-readable summary.
func (s *Set) String() string {
	return fmt.Sprintf("registry.Set{entries: %d, digest: %#x}", len(s.entries), s.Digest())
}
