// romstore.go -- read-only placement of a frozen MPH-indexed value store
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

// Package romstore persists a key/value set built over the mph
// package to a flat file and reopens it read-only through a
// memory-mapped, write-protected page range -- the nearest Go
// analogue to placing a table in a ROM segment rather than in
// ordinary heap memory.
//
// The on-disk layout and the integrity scheme are carried over from
// the teacher's own constant-database writer/reader almost
// unchanged: a 64-byte big-endian header, a per-record siphash-2-4
// checksum (so record corruption is caught without re-reading the
// whole file), and a SHA512-256 trailer covering the header, offset
// table, backend tag and key list, checked at open time. The record
// region is not covered by the trailer.
package romstore

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/dchest/siphash"
	arc "github.com/hashicorp/golang-lru/arc/v2"
	"github.com/opencoff/go-mmap"

	"github.com/opencoff/go-static-mph/mph"

	"github.com/dustin/go-humanize"
)

const (
	magic      = "RMPH"
	headerSize = 64
	trailerSize = sha512.Size256
)

// writer/reader state
type wstate int

const (
	stateOpen wstate = iota
	stateFrozen
	stateAborted
)

type record struct {
	off  uint64
	vlen uint32
}

// Writer accumulates key/value pairs and, on Freeze, builds the MPH
// table over the accumulated keys and writes everything to a single
// flat file.
type Writer struct {
	fd      *os.File
	fn, tmp string
	state   wstate

	salt []byte
	keys []uint64
	vals map[uint64][]byte

	off uint64
}

// Create opens fn for writing a new read-only store. The file is
// written to a temporary name alongside fn and only renamed into
// place once Freeze succeeds, so a crash mid-build never leaves a
// corrupt fn behind.
func Create(fn string) (*Writer, error) {
	tmp := fmt.Sprintf("%s.tmp", fn)
	fd, err := os.OpenFile(tmp, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return nil, err
	}

	salt := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		fd.Close()
		return nil, err
	}

	w := &Writer{
		fd:   fd,
		fn:   fn,
		tmp:  tmp,
		salt: salt,
		vals: make(map[uint64][]byte),
		off:  headerSize,
	}

	var z [headerSize]byte
	if _, err := writeAll(fd, z[:]); err != nil {
		fd.Close()
		return nil, err
	}
	return w, nil
}

// Put registers a key/value pair. Duplicate keys are rejected.
func (w *Writer) Put(key uint64, val []byte) error {
	if w.state != stateOpen {
		return ErrFrozen
	}
	if _, ok := w.vals[key]; ok {
		return ErrExists
	}
	w.keys = append(w.keys, key)
	w.vals[key] = val
	return nil
}

// Len returns the number of registered keys.
func (w *Writer) Len() int { return len(w.keys) }

// Abort discards the in-progress store.
func (w *Writer) Abort() error {
	if w.state != stateOpen {
		return ErrFrozen
	}
	w.state = stateAborted
	w.fd.Close()
	return os.Remove(w.tmp)
}

// Freeze builds the MPH table over the accumulated keys, writes the
// store to disk with its integrity trailer, and atomically renames it
// into place.
func (w *Writer) Freeze() (err error) {
	if w.state != stateOpen {
		return ErrFrozen
	}
	defer func() {
		if err != nil {
			w.fd.Close()
			os.Remove(w.tmp)
			w.state = stateAborted
		}
	}()

	if len(w.keys) == 0 {
		return ErrEmpty
	}

	tbl, err := mph.Get(w.keys)
	if err != nil {
		return fmt.Errorf("romstore: %w", err)
	}

	h := sha512.New512_256()
	tee := io.MultiWriter(w.fd, h)

	recs := make([]record, tbl.Size())
	for k, v := range w.vals {
		i := tbl.Lookup(k)
		if i == tbl.Sentinel() {
			return fmt.Errorf("romstore: key %#x not found in its own table", k)
		}
		recs[i] = record{off: w.off, vlen: uint32(len(v))}
		if err := w.writeRecord(v); err != nil {
			return err
		}
	}

	// Align the offset table to a page boundary so it can be mmap'd
	// back on open; mmap(2) requires a page-aligned file offset.
	pgsz := uint64(os.Getpagesize())
	pgszM1 := pgsz - 1
	offtbl := (w.off + pgszM1) &^ pgszM1
	if offtbl > w.off {
		zeroes := make([]byte, offtbl-w.off)
		if _, err := writeAll(w.fd, zeroes); err != nil {
			return err
		}
		w.off = offtbl
	}

	var hdr [headerSize]byte
	be := binary.BigEndian
	copy(hdr[:4], magic)
	copy(hdr[4:20], w.salt)
	be.PutUint64(hdr[20:28], uint64(tbl.Size()))
	be.PutUint64(hdr[28:36], offtbl)
	h.Write(hdr[:])

	// offset table: file-offset, value-length, in dense-index order
	for _, r := range recs {
		var b [20]byte
		be.PutUint64(b[0:8], r.off)
		be.PutUint32(b[8:12], r.vlen)
		if _, err := writeAll(tee, b[:12]); err != nil {
			return err
		}
		w.off += 12
	}

	backend := []byte(tbl.Backend())
	var blen [4]byte
	be.PutUint32(blen[:], uint32(len(backend)))
	if _, err := writeAll(tee, blen[:]); err != nil {
		return err
	}
	if _, err := writeAll(tee, backend); err != nil {
		return err
	}

	var klen [4]byte
	be.PutUint32(klen[:], uint32(len(w.keys)))
	if _, err := writeAll(tee, klen[:]); err != nil {
		return err
	}
	for _, k := range w.keys {
		var b [8]byte
		be.PutUint64(b[:], k)
		if _, err := writeAll(tee, b[:]); err != nil {
			return err
		}
	}

	trailer := h.Sum(nil)
	if _, err := writeAll(w.fd, trailer); err != nil {
		return err
	}

	if _, err := w.fd.Seek(0, 0); err != nil {
		return err
	}
	if _, err := writeAll(w.fd, hdr[:]); err != nil {
		return err
	}
	if err := w.fd.Sync(); err != nil {
		return err
	}
	if err := w.fd.Close(); err != nil {
		return err
	}
	if err := os.Rename(w.tmp, w.fn); err != nil {
		return err
	}
	w.state = stateFrozen
	return nil
}

func (w *Writer) writeRecord(val []byte) error {
	var o [8]byte
	binary.BigEndian.PutUint64(o[:], w.off)

	h := siphash.New(w.salt)
	h.Write(o[:])
	h.Write(val)

	var c [8]byte
	binary.BigEndian.PutUint64(c[:], h.Sum64())

	if _, err := writeAll(w.fd, c[:]); err != nil {
		return err
	}
	if _, err := writeAll(w.fd, val); err != nil {
		return err
	}
	w.off += uint64(len(val)) + 8
	return nil
}

// Reader opens a store written by Writer for read-only, memory-mapped
// lookup.
type Reader struct {
	mm  *mmap.Mapping
	fd  *os.File
	fn  string

	salt []byte
	nkeys uint64

	recs []record
	keys []uint64

	tbl mph.Table[uint64]

	cache *arc.ARCCache[uint64, []byte]
}

// Open reopens a store previously written by Writer. cache bounds how
// many decoded values are kept in an opportunistic read cache; 0
// selects a default of 128.
func Open(fn string, cache int) (rd *Reader, err error) {
	if cache <= 0 {
		cache = 128
	}

	fd, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			fd.Close()
		}
	}()

	st, err := fd.Stat()
	if err != nil {
		return nil, err
	}
	if st.Size() < headerSize+trailerSize {
		return nil, fmt.Errorf("romstore: %s: %w", fn, ErrCorrupt)
	}

	var hdr [headerSize]byte
	if _, err := io.ReadFull(fd, hdr[:]); err != nil {
		return nil, err
	}
	if string(hdr[:4]) != magic {
		return nil, fmt.Errorf("romstore: %s: %w", fn, ErrBadMagic)
	}

	be := binary.BigEndian
	salt := append([]byte(nil), hdr[4:20]...)
	nkeys := be.Uint64(hdr[20:28])
	offtbl := be.Uint64(hdr[28:36])

	if err := verifyTrailer(fd, hdr[:], offtbl, st.Size()); err != nil {
		return nil, fmt.Errorf("romstore: %s: %w", fn, err)
	}

	mm := mmap.New(fd)
	mapsz := st.Size() - int64(offtbl) - trailerSize
	mapping, err := mm.Map(mapsz, int64(offtbl), mmap.PROT_READ, mmap.F_READAHEAD)
	if err != nil {
		return nil, fmt.Errorf("romstore: %s: mmap: %w", fn, err)
	}

	body := mapping.Bytes()
	recs := make([]record, nkeys)
	pos := 0
	for i := range recs {
		recs[i] = record{
			off:  be.Uint64(body[pos : pos+8]),
			vlen: be.Uint32(body[pos+8 : pos+12]),
		}
		pos += 12
	}

	blen := int(be.Uint32(body[pos : pos+4]))
	pos += 4
	backend := string(body[pos : pos+blen])
	pos += blen

	klen := int(be.Uint32(body[pos : pos+4]))
	pos += 4
	keys := make([]uint64, klen)
	for i := range keys {
		keys[i] = be.Uint64(body[pos : pos+8])
		pos += 8
	}

	tbl, err := mph.Get(keys)
	if err != nil {
		mapping.Unmap()
		return nil, fmt.Errorf("romstore: %s: rebuild table: %w", fn, err)
	}
	if tbl.Backend() != backend {
		mapping.Unmap()
		return nil, fmt.Errorf("romstore: %s: backend mismatch: file has %s, rebuilt %s",
			fn, backend, tbl.Backend())
	}

	c, err := arc.NewARC[uint64, []byte](cache)
	if err != nil {
		mapping.Unmap()
		return nil, err
	}

	return &Reader{
		mm:    mapping,
		fd:    fd,
		fn:    fn,
		salt:  salt,
		nkeys: nkeys,
		recs:  recs,
		keys:  keys,
		tbl:   tbl,
		cache: c,
	}, nil
}

// Lookup returns the value stored under key, verifying its per-record
// siphash checksum on first read and serving repeat lookups from the
// opportunistic cache thereafter.
func (rd *Reader) Lookup(key uint64) ([]byte, bool) {
	if v, ok := rd.cache.Get(key); ok {
		return v, true
	}

	i := rd.tbl.Lookup(key)
	if i == rd.tbl.Sentinel() {
		return nil, false
	}
	r := rd.recs[i]

	fd := rd.fd
	buf := make([]byte, 8+r.vlen)
	if _, err := fd.ReadAt(buf, int64(r.off)); err != nil {
		return nil, false
	}
	want := buf[:8]
	val := buf[8:]

	var o [8]byte
	binary.BigEndian.PutUint64(o[:], r.off)
	h := siphash.New(rd.salt)
	h.Write(o[:])
	h.Write(val)
	var got [8]byte
	binary.BigEndian.PutUint64(got[:], h.Sum64())

	if subtle.ConstantTimeCompare(want, got[:]) != 1 {
		return nil, false
	}

	out := append([]byte(nil), val...)
	rd.cache.Add(key, out)
	return out, true
}

// Len returns the number of keys in the store.
func (rd *Reader) Len() int { return int(rd.nkeys) }

// Close unmaps the store and releases its file descriptor and cache.
func (rd *Reader) Close() {
	rd.mm.Unmap()
	rd.fd.Close()
	rd.cache.Purge()
}

// Desc returns a human-readable summary, with byte counts rendered via
// humanize rather than as raw integers.
func (rd *Reader) Desc() string {
	var sz int64
	if st, err := rd.fd.Stat(); err == nil {
		sz = st.Size()
	}
	return fmt.Sprintf("romstore: %d keys (%s), backend %s, file size %s",
		rd.nkeys, humanize.Comma(int64(rd.nkeys)), rd.tbl.Backend(), humanize.Bytes(uint64(sz)))
}

// verifyTrailer recomputes the SHA512-256 trailer over the header plus
// everything from offtbl onward (the offset table, backend tag and key
// list) -- exactly the range Freeze hashes into it. The record region
// [headerSize, offtbl) is deliberately excluded: each record already
// carries its own siphash checksum, verified opportunistically on
// Lookup, not eagerly here.
func verifyTrailer(fd *os.File, hdr []byte, offtbl uint64, size int64) error {
	h := sha512.New512_256()
	h.Write(hdr)

	bodyLen := size - int64(offtbl) - trailerSize
	if _, err := fd.Seek(int64(offtbl), 0); err != nil {
		return err
	}
	if _, err := io.CopyN(h, fd, bodyLen); err != nil {
		return err
	}

	var want [trailerSize]byte
	if _, err := io.ReadFull(fd, want[:]); err != nil {
		return err
	}

	got := h.Sum(nil)
	if subtle.ConstantTimeCompare(want[:], got) != 1 {
		return ErrCorrupt
	}
	return nil
}

func writeAll(w io.Writer, buf []byte) (int, error) {
	n, err := w.Write(buf)
	if err != nil {
		return n, err
	}
	if n != len(buf) {
		return n, fmt.Errorf("romstore: short write: wrote %d, want %d", n, len(buf))
	}
	return n, nil
}
