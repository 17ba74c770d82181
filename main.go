package main

import (
	"os"

	"github.com/temirov/gitm/cmd/cli"
)

// main executes the gitm command-line application.
func main() {
	os.Exit(cli.Run(os.Args, os.Stdin, os.Stdout, os.Stderr))
}
