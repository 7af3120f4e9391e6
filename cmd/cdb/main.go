// Command cdb is the oursqlgo CLI: the current working directory is the
// database root (spec.md §6), an optional positional argument names a
// script file to run non-interactively, and otherwise statements are read
// from STDIN with prompts on STDERR until EOF.
package main

import (
	"fmt"
	"os"

	"github.com/jamishoo-go/oursqlgo/db"
	"github.com/jamishoo-go/oursqlgo/repl"
)

func main() {
	wd, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	d, err := db.New(wd)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer d.Close()

	in := os.Stdin
	interactive := true
	if len(os.Args) > 1 {
		f, err := os.Open(os.Args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
		interactive = false
	}
	repl.New(d).Run(in, interactive)
}
