// errors.go - public errors exposed by romstore
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

package romstore

import "errors"

var (
	// ErrFrozen is returned when attempting to mutate a writer that
	// has already been frozen or aborted.
	ErrFrozen = errors.New("romstore: store already frozen")

	// ErrExists is returned when Put is given a duplicate key.
	ErrExists = errors.New("romstore: key exists")

	// ErrEmpty is returned when Freeze is called with no keys added.
	ErrEmpty = errors.New("romstore: no keys added")

	// ErrCorrupt is returned when a store's integrity trailer does
	// not match its contents.
	ErrCorrupt = errors.New("romstore: checksum mismatch")

	// ErrBadMagic is returned when a file does not carry this
	// package's header magic.
	ErrBadMagic = errors.New("romstore: bad magic")
)
