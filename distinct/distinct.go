// distinct.go -- build-time duplicate detection over a key set
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

// Package distinct answers one question: are all the keys in a fixed
// key set pairwise distinct? It is called once, while the llut/fks
// tables are being built, and never again.
package distinct

import (
	"unsafe"

	"github.com/opencoff/go-static-mph/bitutil"
)

// Check reports whether every key in keys is unique. For key types
// whose representation has <= 16 value bits it uses a direct bitmap;
// otherwise it falls back to an open-addressed probe set. Both run in
// near-linear time, bounding the cost of building llut/fks tables.
func Check[T bitutil.Unsigned](keys []T) bool {
	if valueBits[T]() <= 16 {
		return checkBitmap(keys)
	}
	return checkOpenAddressed(keys)
}

func valueBits[T bitutil.Unsigned]() uint {
	var z T
	return uint(unsafe.Sizeof(z)) * 8
}

func checkBitmap[T bitutil.Unsigned](keys []T) bool {
	size := uint64(1) << valueBits[T]()
	words := (size + 63) / 64
	bm := make([]uint64, words)

	for _, k := range keys {
		v := uint64(k)
		w := v / 64
		b := uint64(1) << (v % 64)
		if bm[w]&b != 0 {
			return false
		}
		bm[w] |= b
	}
	return true
}

func checkOpenAddressed[T bitutil.Unsigned](keys []T) bool {
	n := uint64(len(keys))
	want := 2 * n
	if want < 1 {
		want = 1
	}
	capacity := bitutil.CeilPow2(want)
	mask := capacity - 1

	slots := make([]T, capacity)
	used := make([]bool, capacity)

	for _, k := range keys {
		i := bitutil.MixNative(k) & mask
		for {
			if !used[i] {
				used[i] = true
				slots[i] = k
				break
			}
			if slots[i] == k {
				return false
			}
			i = (i + 1) & mask
		}
	}
	return true
}
