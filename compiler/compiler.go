// Package compiler wires the lexer, parser and x86-64 emitter into the
// single Compile entry point the driver (and tests) call.
//
// The pipeline is strictly linear (spec §2): source text -> token
// stream (lazy, inside the parser) -> Program (eager) -> assembly
// string. There is no feedback from codegen back into parsing.
package compiler

import (
	"fmt"

	"github.com/rack-lang/rackc/codegen/x8664"
	"github.com/rack-lang/rackc/op"
	"github.com/rack-lang/rackc/parser"
	"github.com/rack-lang/rackc/source"
)

// ErrNoMain is returned when a program has no function named "main".
var ErrNoMain = fmt.Errorf("no function named %q", "main")

// ErrDuplicateMain is returned when more than one function is named
// "main". The parser happily accepts two functions with the same name
// (the later declaration simply overwrites the earlier one's lookup
// entry), so this invariant is enforced here instead, exactly as spec
// §3 requires: "Exactly one function is named main; the driver
// enforces it before codegen."
var ErrDuplicateMain = fmt.Errorf("more than one function named %q", "main")

// Compiler holds the state of a single compile: the source buffer it
// was built from and, once parsed, the Program that codegen consumes.
type Compiler struct {
	debug bool
	src   *source.Buffer

	prog *op.Program
}

// New creates a Compiler over already-read source text.
func New(buf *source.Buffer) *Compiler {
	return &Compiler{src: buf}
}

// SetDebug toggles verbose diagnostics during Compile.
func (c *Compiler) SetDebug(debug bool) {
	c.debug = debug
}

// Program returns the Program built by the most recent successful
// Compile call, or nil if Compile has not yet succeeded.
func (c *Compiler) Program() *op.Program {
	return c.prog
}

// Compile lexes, parses and emits assembly for the held source buffer,
// returning the finished FASM text.
func (c *Compiler) Compile() (string, error) {
	prog, err := parser.Parse(c.src)
	if err != nil {
		if c.debug {
			return "", fmt.Errorf("%s: %w", c.src.Name(), err)
		}
		return "", err
	}

	if err := requireSingleMain(prog); err != nil {
		return "", err
	}

	asm, err := x8664.Generate(prog)
	if err != nil {
		return "", err
	}
	c.prog = prog
	return asm, nil
}

// requireSingleMain enforces spec §3's invariant: "Exactly one function
// is named main."
func requireSingleMain(prog *op.Program) error {
	count := 0
	for _, fn := range prog.Funcs {
		if fn.Ident == "main" {
			count++
		}
	}
	switch {
	case count == 0:
		return ErrNoMain
	case count > 1:
		return ErrDuplicateMain
	default:
		return nil
	}
}
