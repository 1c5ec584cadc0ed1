// dump.go -- 'dump' command implementation
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
	"os"

	flag "github.com/opencoff/pflag"

	"github.com/opencoff/go-static-mph/romstore"
)

type dumpCommand struct{}

func init() {
	registerCommand("dump", &dumpCommand{})
}

func (m *dumpCommand) run(args []string, opt *Option) (err error) {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	fs.SetOutput(os.Stdout)
	fs.Usage = func() {
		fmt.Printf(`Usage: dump DB

where 'DB' is the name of a romstore file
`)
		os.Exit(0)
	}

	if err = fs.Parse(args[1:]); err != nil {
		return fmt.Errorf("dump: %w", err)
	}

	args = fs.Args()
	if len(args) < 1 {
		return fmt.Errorf("dump: insufficient args")
	}

	rd, err := romstore.Open(args[0], 0)
	if err != nil {
		return fmt.Errorf("dump: %w", err)
	}
	defer rd.Close()

	fmt.Println(rd.Desc())
	return nil
}
