// dispatch.go -- static dispatch factory over an MPH-indexed type list
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

// Package dispatch binds a key set to a declaration-ordered list of
// derived types, each with its own per-type storage cell, and
// constructs the one selected by a run-time key through a single MPH
// lookup. It is the canonical consumer of mph and cell.
//
// Go has neither C++ overload resolution nor lvalue/rvalue reference
// binding, so the "value-category preservation" the original design
// calls for is made explicit instead of implicit: an Arg carries a
// Mode (Borrow or Take) alongside its value, and a derived type's
// constructor function inspects that mode to pick its own copy-vs-move
// path. This is exactly the "distinct entry points for borrow vs
// take" escape hatch the design notes recommend for languages without
// reference-category overloading.
package dispatch

import (
	"fmt"

	"github.com/opencoff/go-static-mph/bitutil"
	"github.com/opencoff/go-static-mph/cell"
	"github.com/opencoff/go-static-mph/mph"
)

// ArgMode distinguishes a borrowed (copy/lvalue-like) argument from a
// taken (move/rvalue-like) one.
type ArgMode int

const (
	// Borrow means the argument should be treated as a read-only
	// reference -- the copy-constructor-equivalent path.
	Borrow ArgMode = iota
	// Take means the caller is surrendering the argument -- the
	// move-constructor-equivalent path.
	Take
)

// Arg is one forwarded constructor argument.
type Arg struct {
	Mode  ArgMode
	Value any
}

// Borrowed wraps v as a Borrow-mode argument.
func Borrowed(v any) Arg { return Arg{Mode: Borrow, Value: v} }

// Taken wraps v as a Take-mode argument.
func Taken(v any) Arg { return Arg{Mode: Take, Value: v} }

// Ctor is a derived type's constructor-compatibility test: given the
// forwarded args, it reports whether this type can be built from them
// (ok == false means "no matching constructor", mirroring an
// overload-resolution failure) and, if so, the built value.
type Ctor[T any] func(args []Arg) (T, bool)

// Binding associates one derived type's key, storage cell and
// constructor with the Base type the factory returns.
type Binding[K bitutil.Unsigned, B any] struct {
	key K
	try func(args []Arg) (B, bool, error)
}

// Bind declares one derived-type registration: key is its constant
// key, c is its (typically package-level) storage cell, and ctor is
// its constructor-compatibility test. T need not be Base itself, but
// *T (what the cell hands back) must be assignable to B -- exactly
// the "pointer convertible to Base" requirement in §4.G.
func Bind[K bitutil.Unsigned, B any, T any](key K, c *cell.Cell[T], ctor Ctor[T]) Binding[K, B] {
	return Binding[K, B]{
		key: key,
		try: func(args []Arg) (B, bool, error) {
			var zero B

			v, ok := ctor(args)
			if !ok {
				return zero, false, nil
			}

			ptr, err := c.Replace(func() (T, error) { return v, nil })
			if err != nil {
				return zero, true, err
			}

			b, ok := any(ptr).(B)
			if !ok {
				return zero, true, fmt.Errorf("dispatch: %T is not assignable to the factory's Base type", ptr)
			}
			return b, true, nil
		},
	}
}

// Factory binds a key set to a declaration-ordered derived-type list
// and dispatches a run-time key to the matching type's storage cell.
type Factory[K bitutil.Unsigned, B any] struct {
	keys     mph.Table[K]
	bindings []Binding[K, B]
}

// New builds a Factory from its derived-type bindings. Declaration
// order in bindings is preserved as the dense-index order the
// underlying MPH table uses; duplicate keys are rejected the same way
// mph.Get rejects them.
func New[K bitutil.Unsigned, B any](bindings ...Binding[K, B]) (*Factory[K, B], error) {
	keys := make([]K, len(bindings))
	for i, b := range bindings {
		keys[i] = b.key
	}

	tbl, err := mph.Get(keys)
	if err != nil {
		return nil, err
	}

	return &Factory[K, B]{keys: tbl, bindings: bindings}, nil
}

// Emplace looks up key, and if it names a registered derived type
// whose constructor accepts args, replaces that type's storage cell
// with a freshly built instance and returns it as Base. It returns
// (zero, false) when the key is unregistered, or when it is
// registered but no constructor among args matched -- in both cases
// no cell is touched.
func (f *Factory[K, B]) Emplace(key K, args ...Arg) (B, bool) {
	var zero B

	i := f.keys.Lookup(key)
	if i == f.keys.Sentinel() {
		return zero, false
	}

	b, ok, err := f.bindings[i].try(args)
	if err != nil || !ok {
		return zero, false
	}
	return b, true
}

// Len returns the number of registered derived types.
func (f *Factory[K, B]) Len() int { return len(f.bindings) }
