// Command fascicolo runs the vehicle sale case workflow from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/fascicolo/internal/cli"
)

func main() {
	root := cli.NewRootCommand()
	if err := root.Execute(); err != nil {
		if !cli.IsReported(err) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
