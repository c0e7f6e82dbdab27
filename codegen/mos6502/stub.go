// Package mos6502 is the experimental, partial 6502 backend (spec §1:
// "experimental, partial"). The reference implementation leaves this
// backend as a todo!() behind a fully sketched opcode table; this
// preserves the same shape — the intended opcode constants and the
// Generate entry point — without completing the translation, since the
// repo itself never finished it.
package mos6502

import (
	"errors"

	"github.com/rack-lang/rackc/op"
)

// ROM images for the target emulator are fixed-size, starting after
// its reserved low memory.
const ROMSize = 65536 - 0x4020

// Opcode constants the reference backend intended to emit. Kept named
// and typed so a future implementation has the same vocabulary the
// original sketch used, even though no Op currently maps to them.
const (
	NOP     byte = 0xea
	PHA     byte = 0x48
	PLA     byte = 0x68
	CLC     byte = 0x18
	SEC     byte = 0x38
	ADCZpg  byte = 0x65
	SBCZpg  byte = 0xe5
	LDAImm  byte = 0xa9
	LDAZpg  byte = 0xa5
	STAZpg  byte = 0x85
	BNE     byte = 0xd0
	CMPImm  byte = 0xc9
	CMPZpg  byte = 0xc5
)

// ErrNotImplemented is returned by Generate unconditionally; the
// reference nesulator backend never got past its opcode sketch either.
var ErrNotImplemented = errors.New("mos6502: backend not implemented")

// Generate would lower prog to a ROMSize-byte NES-like image. It is
// intentionally a stub (spec §1 Non-goals: the 6502 backend "the repo
// itself leaves it stubbed") — it accepts a fully resolved Program so
// the driver can wire it in ahead of a real lowering, but always
// reports ErrNotImplemented.
func Generate(prog *op.Program) ([ROMSize]byte, error) {
	_ = prog
	var out [ROMSize]byte
	return out, ErrNotImplemented
}
