// keyhash.go -- derive a uint64 key from an arbitrary byte string
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

// Package keyhash derives a uint64 key from an arbitrary byte string
// or string, for callers whose natural key space isn't already a
// small unsigned integer -- a name, a path, a wire identifier. The
// derived key is computed once, before it ever reaches mph or fks, so
// it does not change the determinism guarantees of the tables built
// over it: the same input byte string always derives the same key.
//
// Uses github.com/cespare/xxhash/v2, chosen because it's the key
// derivation hash used elsewhere in this corpus for minimal-perfect-
// hash key sets.
package keyhash

import "github.com/cespare/xxhash/v2"

// Of derives a key from an arbitrary byte string.
func Of(b []byte) uint64 {
	return xxhash.Sum64(b)
}

// OfString derives a key from a string without a copy.
func OfString(s string) uint64 {
	return xxhash.Sum64String(s)
}

// Digest incrementally derives a key from a sequence of byte chunks,
// for callers assembling a key from several fields (e.g. a composite
// name) without concatenating them first.
type Digest struct {
	d *xxhash.Digest
}

// NewDigest returns an empty incremental digest.
func NewDigest() *Digest {
	return &Digest{d: xxhash.New()}
}

// Write feeds b into the running digest.
func (d *Digest) Write(b []byte) {
	d.d.Write(b)
}

// Sum64 returns the key derived from everything written so far.
func (d *Digest) Sum64() uint64 {
	return d.d.Sum64()
}

// Reset clears the digest back to its initial state, so it can be
// reused for another key derivation.
func (d *Digest) Reset() {
	d.d.Reset()
}
