// Command blastdb runs NCBI BLAST searches and stores the results in SQLite.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/blastdb/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err == nil {
		return
	}

	// Commands report their own errors; anything else came from cobra
	// (unknown command, bad flag).
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCommandError)
	}
	os.Exit(exitErr.Code)
}
