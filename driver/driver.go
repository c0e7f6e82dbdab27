// Package driver wires the compiler to its external collaborators: the
// fasm assembler, chmod, and (optionally) the produced binary itself
// (spec §6, out of core scope but specified for completeness). It is
// grounded on the teacher's main.go, which shelled out to gcc in much
// the same shape.
package driver

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/sirupsen/logrus"

	"github.com/rack-lang/rackc/codegen/mos6502"
	"github.com/rack-lang/rackc/compiler"
	"github.com/rack-lang/rackc/source"
)

// Target selects which backend/output shape a Build produces (spec §6
// "-t / --target").
type Target string

const (
	// TargetLinuxELF assembles and links a runnable ELF64 executable.
	TargetLinuxELF Target = "x86_64-linux"
	// TargetFASMOnly emits the .asm text only, skipping assembly.
	TargetFASMOnly Target = "x86_64-fasm"
	// TargetNesulator is the experimental, unimplemented 6502 backend.
	TargetNesulator Target = "mos_6502-nesulator"
)

// Options configures a single Build invocation.
type Options struct {
	Target Target
	// Out is the output path. Empty selects the target's default:
	// "./out" for ELF targets, "./out.asm" for FASM-only.
	Out   string
	Debug bool
	Quiet bool
}

// Result reports what a Build produced.
type Result struct {
	// AsmPath is always populated: the .asm file written to disk.
	AsmPath string
	// BinPath is populated only for TargetLinuxELF.
	BinPath string
}

// log is package-level so tests can silence it; info() respects
// Options.Quiet per call instead of mutating global state.
var log = logrus.New()

func info(quiet bool, format string, args ...any) {
	if quiet {
		return
	}
	log.Infof(format, args...)
}

// Build reads src, compiles it, and (unless TargetFASMOnly) assembles
// and links it into a runnable binary (spec §6 "Assembler contract").
func Build(path string, opts Options) (Result, error) {
	buf, err := source.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("reading %s: %w", path, err)
	}

	c := compiler.New(buf)
	c.SetDebug(opts.Debug)

	asm, err := c.Compile()
	if err != nil {
		return Result{}, err
	}

	asmPath := opts.Out
	if asmPath == "" {
		asmPath = "./out.asm"
	} else if opts.Target != TargetFASMOnly {
		// opts.Out names the final binary for non-FASM-only targets;
		// the intermediate assembly sits alongside it.
		asmPath += ".asm"
	}

	if err := os.WriteFile(asmPath, []byte(asm), 0o644); err != nil {
		return Result{}, fmt.Errorf("writing %s: %w", asmPath, err)
	}
	info(opts.Quiet, "wrote %s", asmPath)

	result := Result{AsmPath: asmPath}

	switch opts.Target {
	case TargetFASMOnly:
		return result, nil

	case TargetNesulator:
		if _, err := mos6502.Generate(c.Program()); err != nil {
			return Result{}, fmt.Errorf("mos_6502-nesulator: %w", err)
		}
		return result, nil

	case TargetLinuxELF, "":
		binPath := opts.Out
		if binPath == "" {
			binPath = "./out"
		}
		if err := assemble(asmPath, binPath, opts.Quiet); err != nil {
			return Result{}, err
		}
		result.BinPath = binPath
		return result, nil

	default:
		return Result{}, fmt.Errorf("unknown target %q", opts.Target)
	}
}

// assemble invokes the external fasm assembler, then chmod +x on its
// output (spec §6 "Assembler contract": "the driver invokes `fasm
// <out.asm>` and then `chmod +x <out>`"). Both are run as external
// processes, not wrapped in Go's os.Chmod, so a tool failure's exit
// code survives unwrapped to the caller (spec §6 "propagate fasm or
// chmod exit code on tool failure").
func assemble(asmPath, binPath string, quiet bool) error {
	if err := runTool(quiet, "fasm", asmPath, binPath); err != nil {
		return fmt.Errorf("fasm: %w", err)
	}
	info(quiet, "assembled %s", binPath)

	if err := runTool(quiet, "chmod", "+x", binPath); err != nil {
		return fmt.Errorf("chmod +x %s: %w", binPath, err)
	}
	return nil
}

// runTool runs an external command, capturing stderr for the error
// message while leaving a *exec.ExitError unwrapped underneath so
// errors.As can recover its exit code at the top level.
func runTool(quiet bool, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	var stderr bytes.Buffer
	if quiet {
		cmd.Stdout = io.Discard
	} else {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return fmt.Errorf("%w: %s", err, stderr.String())
		}
		return err
	}
	return nil
}

// Run executes the produced binary, inheriting stdio (spec §6 "-r /
// --run").
func Run(binPath string) error {
	cmd := exec.Command(binPath)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
