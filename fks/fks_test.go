// fks_test.go - test suite for fks
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

package fks

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

// TestS2 is the "FKS dense" scenario: keys 0..1023 over a 16-bit key
// type. Every key maps to its own value and the next 256 values are
// rejected.
func TestS2(t *testing.T) {
	assert := newAsserter(t)

	keys := make([]uint16, 1024)
	for i := range keys {
		keys[i] = uint16(i)
	}

	tbl, err := Build(keys)
	assert(err == nil, "build failed: %s", err)

	for i := 0; i < 1024; i++ {
		got := tbl.Lookup(uint16(i))
		assert(got == uint32(i), "lookup(%d) = %d, want %d", i, got, i)
	}
	for i := 1024; i < 1280; i++ {
		got := tbl.Lookup(uint16(i))
		assert(got == tbl.Sentinel(), "lookup(%d) = %d, want sentinel", i, got)
	}
}

// TestS3 is the "FKS permuted sparse" scenario: k_i = (25173*i +
// 13849) mod 65536 for i in [0, 2048).
func TestS3(t *testing.T) {
	assert := newAsserter(t)

	const n = 2048
	keys := make([]uint32, n)
	seen := make(map[uint32]bool, n)
	for i := 0; i < n; i++ {
		k := uint32((25173*i + 13849) % 65536)
		keys[i] = k
		seen[k] = true
	}

	tbl, err := Build(keys)
	assert(err == nil, "build failed: %s", err)

	for i, k := range keys {
		got := tbl.Lookup(k)
		assert(got == uint32(i), "lookup(k_%d=%d) = %d, want %d", i, k, got, i)
	}

	checked := 0
	for i := n; i < n+256 && checked < 256; i++ {
		k := uint32((25173*i + 13849) % 65536)
		if seen[k] {
			continue
		}
		got := tbl.Lookup(k)
		assert(got == tbl.Sentinel(), "lookup(unregistered %d) = %d, want sentinel", k, got)
		checked++
	}
}

func TestEmptyKeySet(t *testing.T) {
	assert := newAsserter(t)
	_, err := Build([]uint32{})
	assert(err == ErrEmptyKeySet, "expected ErrEmptyKeySet, got %v", err)
}

func TestDuplicateKey(t *testing.T) {
	assert := newAsserter(t)
	_, err := Build([]uint64{7, 9, 7})
	assert(err == ErrDuplicateKey, "expected ErrDuplicateKey, got %v", err)
}

func TestSingleKeyBucket(t *testing.T) {
	assert := newAsserter(t)
	tbl, err := Build([]uint8{42})
	assert(err == nil, "build failed: %s", err)
	assert(tbl.Lookup(42) == 0, "lookup(42) != 0")
	assert(tbl.Lookup(1) == tbl.Sentinel(), "lookup(1) != sentinel")
}
