// fsck.go -- 'fsck' command implementation
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

type fsckCommand struct{}

func init() {
	registerCommand("fsck", &fsckCommand{})
}

func (m *fsckCommand) run(args []string, opt *Option) (err error) {
	fs := flag.NewFlagSet("fsck", flag.ExitOnError)
	fs.SetOutput(os.Stdout)
	fs.Usage = func() {
		fmt.Printf(`Usage: fsck DB

where 'DB' is the name of a romstore file. Opening the store verifies
its header and the checksum trailer over the header and index region;
per-record checksums are not checked. This command reports the result.
`)
		os.Exit(0)
	}

	if err = fs.Parse(args[1:]); err != nil {
		return fmt.Errorf("fsck: %w", err)
	}

	args = fs.Args()
	if len(args) < 1 {
		return fmt.Errorf("fsck: insufficient args")
	}

	rd, err := romstore.Open(args[0], 0)
	if err != nil {
		return fmt.Errorf("fsck: %s: corrupt: %w", args[0], err)
	}
	defer rd.Close()

	opt.Printf("%s: OK\n", args[0])
	fmt.Println(rd.Desc())
	return nil
}
