// cell_test.go - test suite for cell
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

package cell

import (
	"errors"
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

type widget struct {
	val      int
	destroys *int
}

func (w *widget) Destroy() {
	*w.destroys++
}

// TestSingleOccupancy exercises invariant 5: construct/destroy
// transitions.
func TestSingleOccupancy(t *testing.T) {
	assert := newAsserter(t)

	var destroys int
	c := New[widget]()

	assert(c.Get() == nil, "empty cell must return nil from Get")

	_, err := c.Construct(func() (widget, error) {
		return widget{val: 1, destroys: &destroys}, nil
	})
	assert(err == nil, "construct failed: %s", err)
	assert(c.Get() != nil, "live cell must return non-nil from Get")
	assert(c.Get().val == 1, "constructed value mismatch")

	c.Destroy()
	assert(c.Get() == nil, "destroyed cell must return nil from Get")
	assert(destroys == 1, "destroy count = %d, want 1", destroys)
}

func TestConstructOnLivePanics(t *testing.T) {
	c := New[widget]()
	var destroys int
	c.Construct(func() (widget, error) { return widget{destroys: &destroys}, nil })

	defer func() {
		if recover() == nil {
			t.Fatalf("Construct on a live cell did not panic")
		}
	}()
	c.Construct(func() (widget, error) { return widget{destroys: &destroys}, nil })
}

// TestReplacementAccounting exercises invariant 9: n successful
// constructions via Replace cause n-1 destructor calls.
func TestReplacementAccounting(t *testing.T) {
	assert := newAsserter(t)

	var destroys int
	c := New[widget]()

	for i, want := range []int{10, 20, 30, 40} {
		_, err := c.Replace(func() (widget, error) {
			return widget{val: want, destroys: &destroys}, nil
		})
		assert(err == nil, "replace %d failed: %s", i, err)
	}

	assert(c.Get().val == 40, "final value = %d, want 40", c.Get().val)
	assert(destroys == 3, "destroy count = %d, want 3", destroys)
}

func TestReplaceFailedConstructLeavesCellEmpty(t *testing.T) {
	assert := newAsserter(t)

	var destroys int
	c := New[widget]()
	c.Construct(func() (widget, error) { return widget{val: 1, destroys: &destroys}, nil })

	_, err := c.Replace(func() (widget, error) {
		return widget{}, errors.New("boom")
	})
	assert(err != nil, "expected replace error")
	assert(c.Get() == nil, "cell should be empty after a failed replace")
	assert(destroys == 1, "old value should have been destroyed exactly once")
}

func TestTrivialDestructor(t *testing.T) {
	assert := newAsserter(t)

	c := New[int]()
	_, err := c.Construct(func() (int, error) { return 7, nil })
	assert(err == nil, "construct failed: %s", err)
	assert(*c.Get() == 7, "value mismatch")
	c.Destroy()
	assert(c.Get() == nil, "cell should be empty after destroy")
}
