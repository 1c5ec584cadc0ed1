// bitutil_test.go - test suite for bitutil
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

package bitutil

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

		s := fmt.Sprintf(msg, args...)
		t.Fatalf("%s:%d: %s", file, line, s)
	}
}

func TestMixFixedPoint(t *testing.T) {
	assert := newAsserter(t)

	assert(Mix8(0) == 0, "mix8(0) != 0")
	assert(Mix16(0) == 0, "mix16(0) != 0")
	assert(Mix32(0) == 0, "mix32(0) != 0")
	assert(Mix64(0) == 0, "mix64(0) != 0")
	assert(MixWidth[uint8](0) == 0, "mix_width uint8(0) != 0")
	assert(MixWidth[uint16](0) == 0, "mix_width uint16(0) != 0")
	assert(MixWidth[uint32](0) == 0, "mix_width uint32(0) != 0")
	assert(MixWidth[uint64](0) == 0, "mix_width uint64(0) != 0")
}

func TestMixWidthDispatch(t *testing.T) {
	assert := newAsserter(t)

	assert(MixWidth[uint8](7) == Mix8(7), "mix_width uint8 mismatch")
	assert(MixWidth[uint16](7) == Mix16(7), "mix_width uint16 mismatch")
	assert(MixWidth[uint32](7) == Mix32(7), "mix_width uint32 mismatch")
	assert(MixWidth[uint64](7) == Mix64(7), "mix_width uint64 mismatch")
}

func TestCeilPow2(t *testing.T) {
	assert := newAsserter(t)

	cases := []struct{ in, want uint64 }{
		{0, 1}, {1, 1}, {2, 2}, {3, 4}, {4, 4}, {5, 8},
		{1023, 1024}, {1024, 1024}, {1025, 2048},
	}
	for _, c := range cases {
		got := CeilPow2(c.in)
		assert(got == c.want, "CeilPow2(%d) = %d, want %d", c.in, got, c.want)
	}
}

func TestCeilPow2Saturating(t *testing.T) {
	assert := newAsserter(t)

	max := uint64(1) << 63
	assert(CeilPow2Saturating(max+1) == max, "saturating CeilPow2 did not clamp")
	assert(CeilPow2Saturating(max) == max, "saturating CeilPow2(max) changed value")
}

func TestBitWidth(t *testing.T) {
	assert := newAsserter(t)

	cases := []struct {
		in   uint64
		want uint
	}{
		{0, 0}, {1, 1}, {2, 2}, {3, 2}, {4, 3}, {255, 8}, {256, 9},
	}
	for _, c := range cases {
		got := BitWidth(c.in)
		assert(got == c.want, "BitWidth(%d) = %d, want %d", c.in, got, c.want)
	}
}

func TestCeilLog2(t *testing.T) {
	assert := newAsserter(t)

	cases := []struct {
		in   uint64
		want uint
	}{
		{0, 0}, {1, 0}, {2, 1}, {3, 2}, {4, 2}, {5, 3}, {1024, 10}, {1025, 11},
	}
	for _, c := range cases {
		got := CeilLog2(c.in)
		assert(got == c.want, "CeilLog2(%d) = %d, want %d", c.in, got, c.want)
	}
}

func TestTopBits(t *testing.T) {
	assert := newAsserter(t)

	x := uint64(0xff00000000000000)
	assert(TopBits(x, 0) == 0, "TopBits r=0 must be 0")
	assert(TopBits(x, 64) == x, "TopBits r=64 must be x")
	assert(TopBits(x, 8) == 0xff, "TopBits r=8 mismatch: %#x", TopBits(x, 8))
}

func TestBucketOf(t *testing.T) {
	assert := newAsserter(t)

	M := uint64(16)
	for k := uint64(0); k < 1000; k++ {
		b := BucketOf(k, M)
		assert(b < M, "bucket %d out of range for M=%d", b, M)
	}
}
