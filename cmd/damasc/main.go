package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/midbel/damasc"
	"github.com/midbel/damasc/bag"
)

func main() {
	file := flag.String("f", "", "read statements from file instead of stdin")
	state := flag.String("state", "", "bbolt file to restore/checkpoint the bag set from/to")
	flag.Parse()

	sess := damasc.NewSession()

	var snap *bag.BoltSnapshotter
	if *state != "" {
		snap = bag.NewBoltSnapshotter(*state)
		if _, err := os.Stat(*state); err == nil {
			if err := snap.Load(sess.Bags()); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
		}
	}

	in := os.Stdin
	if *file != "" {
		f, err := os.Open(*file)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}

	err := run(sess, in, os.Stdout)

	if snap != nil {
		if serr := snap.Save(sess.Bags()); serr != nil {
			fmt.Fprintln(os.Stderr, serr)
			os.Exit(1)
		}
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run drives the read-eval-print loop: one statement per line, one
// line of output per Output produced. Per-line parse/eval failures are
// printed and do not stop the loop; only an I/O error reading in does.
func run(sess *damasc.Session, in io.Reader, out io.Writer) error {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		for _, o := range sess.Eval(line) {
			fmt.Fprintln(out, o.String())
		}
	}
	return sc.Err()
}
