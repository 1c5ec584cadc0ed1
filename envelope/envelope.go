// envelope.go -- binary-framed argument blobs for dispatch construction
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

// Package envelope frames a dispatch constructor argument as a small,
// versioned binary blob instead of an in-process Go value, for callers
// that receive constructor arguments off the wire or from a
// persisted store (romstore) rather than from another goroutine in
// the same process. It is built on the same Borsh encoder/decoder
// (github.com/gagliardetto/binary) the corpus's other record-framing
// code (rpcpool-yellowstone-faithful's bucketteer) uses to frame
// variable-length records ahead of a hash table.
package envelope

import (
	"bytes"
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"
)

// Version is the current envelope wire version.
const Version uint8 = 1

// Envelope is a decoded, type-tagged argument blob: a key identifying
// which derived type the payload is for, plus the raw Borsh-encoded
// payload bytes.
type Envelope struct {
	Version uint8
	Key     uint64
	Payload []byte
}

// Encode renders key and payload as an envelope's wire form: version
// byte, key, payload length, payload bytes.
func Encode(key uint64, payload []byte) ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := bin.NewBorshEncoder(buf)

	if err := enc.WriteUint8(Version); err != nil {
		return nil, fmt.Errorf("envelope: encode version: %w", err)
	}
	if err := enc.WriteUint64(key, binary.LittleEndian); err != nil {
		return nil, fmt.Errorf("envelope: encode key: %w", err)
	}
	if err := enc.WriteUint64(uint64(len(payload)), binary.LittleEndian); err != nil {
		return nil, fmt.Errorf("envelope: encode payload length: %w", err)
	}
	if _, err := enc.Write(payload); err != nil {
		return nil, fmt.Errorf("envelope: encode payload: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses a wire-form envelope produced by Encode.
func Decode(b []byte) (*Envelope, error) {
	dec := bin.NewBorshDecoder(b)

	ver, err := dec.ReadUint8()
	if err != nil {
		return nil, fmt.Errorf("envelope: decode version: %w", err)
	}
	if ver != Version {
		return nil, fmt.Errorf("envelope: unsupported version %d", ver)
	}
	key, err := dec.ReadUint64(binary.LittleEndian)
	if err != nil {
		return nil, fmt.Errorf("envelope: decode key: %w", err)
	}
	n, err := dec.ReadUint64(binary.LittleEndian)
	if err != nil {
		return nil, fmt.Errorf("envelope: decode payload length: %w", err)
	}
	payload := make([]byte, n)
	if n > 0 {
		if _, err := dec.Read(payload); err != nil {
			return nil, fmt.Errorf("envelope: decode payload: %w", err)
		}
	}
	return &Envelope{Version: ver, Key: key, Payload: payload}, nil
}

// Borsh encodes v using the envelope's wire encoder, for derived
// types whose constructors accept an already-decoded Go value rather
// than a raw payload.
func Borsh(v interface{ MarshalWithEncoder(*bin.Encoder) error }) ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := bin.NewBorshEncoder(buf)
	if err := v.MarshalWithEncoder(enc); err != nil {
		return nil, fmt.Errorf("envelope: marshal payload: %w", err)
	}
	return buf.Bytes(), nil
}
