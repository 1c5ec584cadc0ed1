// dispatch.go -- 'dispatch' command: canned dispatch factory demo
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

package main

import (
	"fmt"

	"github.com/opencoff/go-static-mph/cell"
	"github.com/opencoff/go-static-mph/dispatch"
)

type shape interface {
	Area() float64
}

type square struct{ side float64 }

func (s *square) Area() float64 { return s.side * s.side }

type circle struct{ radius float64 }

func (c *circle) Area() float64 { return 3.14159265 * c.radius * c.radius }

type dispatchCommand struct{}

func init() {
	registerCommand("dispatch", &dispatchCommand{})
}

func (m *dispatchCommand) run(args []string, opt *Option) error {
	cSquare := cell.New[square]()
	cCircle := cell.New[circle]()

	f, err := dispatch.New[uint8, shape](
		dispatch.Bind[uint8, shape](1, cSquare, func(a []dispatch.Arg) (square, bool) {
			if len(a) != 1 {
				return square{}, false
			}
			side, ok := a[0].Value.(float64)
			if !ok {
				return square{}, false
			}
			return square{side: side}, true
		}),
		dispatch.Bind[uint8, shape](2, cCircle, func(a []dispatch.Arg) (circle, bool) {
			if len(a) != 1 {
				return circle{}, false
			}
			r, ok := a[0].Value.(float64)
			if !ok {
				return circle{}, false
			}
			return circle{radius: r}, true
		}),
	)
	if err != nil {
		return fmt.Errorf("dispatch: %w", err)
	}

	for _, c := range []struct {
		key uint8
		arg float64
	}{{1, 4}, {2, 2.5}, {1, 1}} {
		s, ok := f.Emplace(c.key, dispatch.Borrowed(c.arg))
		if !ok {
			fmt.Printf("emplace(%d, %v): no matching constructor\n", c.key, c.arg)
			continue
		}
		fmt.Printf("emplace(%d, %v) -> area %.4f\n", c.key, c.arg, s.Area())
	}
	return nil
}
