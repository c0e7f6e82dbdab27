// This is the main-driver for our compiler.
package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/rack-lang/rackc/cmd/rackc"
)

func main() {
	if err := rackc.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "rackc: %s\n", err)
		// Propagate fasm's own exit code, and the compiled program's own
		// exit code under --run, rather than always reporting 1 (spec §6
		// "propagate fasm or chmod exit code on tool failure").
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.ExitCode())
		}
		os.Exit(1)
	}
}
