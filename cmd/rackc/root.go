// Package rackc implements the rackc command-line surface (spec §6).
// It is a thin cobra tree over driver.Build/driver.Run; all compiler
// logic lives in the compiler, parser and codegen packages.
package rackc

import (
	"errors"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rack-lang/rackc/driver"
)

var errRunRequiresBinary = errors.New("--run requires an ELF target, not x86_64-fasm")

var (
	flagRun    bool
	flagTarget string
	flagOut    string
	flagQuiet  bool
	flagDebug  bool
)

// NewRootCommand builds the rackc command tree.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rackc <source.rack>",
		Short: "Compile Rack source to a native executable",
		Args:  cobra.ExactArgs(1),
		RunE:  runCompile,
	}

	cmd.Flags().BoolVarP(&flagRun, "run", "r", false, "run the produced binary after a successful build")
	cmd.Flags().StringVarP(&flagTarget, "target", "t", string(driver.TargetLinuxELF),
		"backend target: x86_64-linux, x86_64-fasm, mos_6502-nesulator")
	cmd.Flags().StringVarP(&flagOut, "out", "o", "", "output path (default ./out or ./out.asm)")
	cmd.Flags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress [INFO] lines")
	cmd.Flags().BoolVar(&flagDebug, "debug", false, "wrap parse errors with extra context")

	return cmd
}

func runCompile(cmd *cobra.Command, args []string) error {
	if flagQuiet {
		logrus.SetLevel(logrus.ErrorLevel)
	}

	opts := driver.Options{
		Target: driver.Target(flagTarget),
		Out:    flagOut,
		Debug:  flagDebug,
		Quiet:  flagQuiet,
	}
	if flagRun && opts.Target == driver.TargetFASMOnly {
		return errRunRequiresBinary
	}

	result, err := driver.Build(args[0], opts)
	if err != nil {
		return err
	}

	if flagRun {
		return driver.Run(result.BinPath)
	}
	return nil
}
