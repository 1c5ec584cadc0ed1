// typeset_test.go - test suite for typeset
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

package typeset

import (
	"fmt"
	"runtime"
	"testing"
)

func newAsserter(t *testing.T) func(cond bool, msg string, args ...interface{}) {
	return func(cond bool, msg string, args ...interface{}) {
		if cond {
			return
		}
		_, file, line, ok := runtime.Caller(1)
		if !ok {
			file = "???"
			line = 0
		}
		t.Fatalf("%s:%d: %s", file, line, fmt.Sprintf(msg, args...))
	}
}

func TestMarkClear(t *testing.T) {
	assert := newAsserter(t)

	s := New(130)
	assert(s.Count() == 0, "new set should be empty")

	s.Mark(0)
	s.Mark(64)
	s.Mark(129)
	assert(s.Count() == 3, "count = %d, want 3", s.Count())
	assert(s.IsMarked(0), "bit 0 should be marked")
	assert(s.IsMarked(64), "bit 64 should be marked")
	assert(s.IsMarked(129), "bit 129 should be marked")
	assert(!s.IsMarked(1), "bit 1 should not be marked")

	s.Clear(64)
	assert(!s.IsMarked(64), "bit 64 should be cleared")
	assert(s.Count() == 2, "count after clear = %d, want 2", s.Count())
}

func TestReset(t *testing.T) {
	assert := newAsserter(t)

	s := New(65)
	s.Mark(0)
	s.Mark(64)
	s.Reset()
	assert(s.Count() == 0, "reset should clear all bits")
}

func TestMerge(t *testing.T) {
	assert := newAsserter(t)

	a := New(128)
	b := New(128)
	a.Mark(3)
	b.Mark(70)
	a.Merge(b)

	assert(a.IsMarked(3), "merged set must keep original bits")
	assert(a.IsMarked(70), "merged set must pick up other's bits")
	assert(a.Count() == 2, "count = %d, want 2", a.Count())
}

func TestRank(t *testing.T) {
	assert := newAsserter(t)

	s := New(200)
	s.Mark(5)
	s.Mark(63)
	s.Mark(64)
	s.Mark(150)

	assert(s.Rank(0) == 0, "rank(0) = %d, want 0", s.Rank(0))
	assert(s.Rank(6) == 1, "rank(6) = %d, want 1", s.Rank(6))
	assert(s.Rank(64) == 2, "rank(64) = %d, want 2", s.Rank(64))
	assert(s.Rank(65) == 3, "rank(65) = %d, want 3", s.Rank(65))
	assert(s.Rank(200) == 4, "rank(200) = %d, want 4", s.Rank(200))
}
