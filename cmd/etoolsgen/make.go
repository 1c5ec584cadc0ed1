// make.go -- 'make' command implementation
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
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	flag "github.com/opencoff/pflag"

	"github.com/opencoff/go-static-mph/keyhash"
	"github.com/opencoff/go-static-mph/romstore"
)

type makeCommand struct{}

func init() {
	registerCommand("make", &makeCommand{})
}

func (m *makeCommand) run(args []string, opt *Option) (err error) {
	var db *romstore.Writer

	defer func(e *error) {
		if *e != nil && db != nil {
			db.Abort()
		}
	}(&err)

	fs := flag.NewFlagSet("make", flag.ExitOnError)
	fs.SetOutput(os.Stdout)
	fs.Usage = func() {
		fmt.Printf(`Usage: make [options] DB [INPUT...]

where:
   DB       is the name of the output romstore file
   INPUT    is one or more optional text files, or stdin if none given

Each input line is "key value", whitespace delimited; the key's text
is hashed via keyhash.Of to derive the store's uint64 key.

options:
`)
		fs.PrintDefaults()
		os.Exit(0)
	}

	if err = fs.Parse(args[1:]); err != nil {
		return fmt.Errorf("make: %w", err)
	}

	args = fs.Args()
	if len(args) < 1 {
		return fmt.Errorf("make: insufficient args")
	}

	fn := args[0]
	inputs := args[1:]

	db, err = romstore.Create(fn)
	if err != nil {
		return fmt.Errorf("make: can't create %s: %w", fn, err)
	}

	var tot uint64
	if len(inputs) > 0 {
		for _, f := range inputs {
			n, err := addTextFile(db, f)
			if err != nil {
				return fmt.Errorf("make: can't add %s: %w", f, err)
			}
			opt.Printf("+ %s: %d records\n", f, n)
			tot += n
		}
	} else {
		n, err := addTextStream(db, os.Stdin)
		if err != nil {
			return fmt.Errorf("make: can't add text from stdin: %w", err)
		}
		opt.Printf("+ <STDIN>: %d records\n", n)
		tot += n
	}

	start := time.Now()
	if err = db.Freeze(); err != nil {
		return fmt.Errorf("make: can't write db %s: %w", fn, err)
	}
	delta := time.Since(start)
	opt.Printf("%d keys, %s\n", tot, delta.Truncate(time.Millisecond).String())
	return nil
}

func addTextFile(w *romstore.Writer, fn string) (uint64, error) {
	fd, err := os.Open(fn)
	if err != nil {
		return 0, err
	}
	defer fd.Close()
	return addTextStream(w, fd)
}

func addTextStream(w *romstore.Writer, fd io.Reader) (uint64, error) {
	sc := bufio.NewScanner(fd)

	var n uint64
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if len(s) == 0 || s[0] == '#' {
			continue
		}

		k, v := s, ""
		if i := strings.IndexAny(s, " \t"); i >= 0 {
			k, v = s[:i], s[i+1:]
		}
		k = strings.TrimSpace(k)
		v = strings.TrimSpace(v)

		if err := w.Put(keyhash.OfString(k), []byte(v)); err != nil {
			if err == romstore.ErrExists {
				continue
			}
			return n, err
		}
		n++
	}
	return n, sc.Err()
}
