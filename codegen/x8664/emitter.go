// Package x8664 emits FASM-flavored x86-64 Linux assembly from a
// resolved op.Program (spec §4.3). It is a stateless post-order walk of
// the op tree save for one mutable fresh-label counter threaded by
// reference (spec §5, §9 "Global mutable state in the emitter").
package x8664

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"

	"github.com/rack-lang/rackc/op"
)

// prelude is written once, before any function: the FASM executable
// header and the decimal integer-printing subroutine used by
// Op::Print. Grounded on the reference codegen's embedded print
// routine, itself unchanged since the flat-instruction-list revision.
var prelude = heredoc.Doc(`
	format ELF64 executable 3
	entry main
	segment readable executable
	print:
		mov	r9, -3689348814741910323
		sub	rsp, 40
		mov	BYTE [rsp+31], 10
		lea	rcx, [rsp+30]
	.L2:
		mov	rax, rdi
		lea	r8, [rsp+32]
		mul	r9
		mov	rax, rdi
		sub	r8, rcx
		shr	rdx, 3
		lea	rsi, [rdx+rdx*4]
		add	rsi, rsi
		sub	rax, rsi
		add	eax, 48
		mov	BYTE [rcx], al
		mov	rax, rdi
		mov	rdi, rdx
		mov	rdx, rcx
		sub	rcx, 1
		cmp	rax, 9
		ja	.L2
		lea	rax, [rsp+32]
		mov	edi, 1
		sub	rdx, rax
		xor	eax, eax
		lea	rsi, [rsp+32+rdx]
		mov	rdx, r8
		mov	rax, 1
		syscall
		add	rsp, 40
		ret
`)

// mainTrampoline runs after every function body has been emitted: it
// seeds the return stack with a sentinel, calls fn_main, then exits
// cleanly (spec §4.3 "main trampoline").
const mainTrampoline = `main:
	mov	rax, ret_stack_end
	sub	rax, 8
	mov	qword [ret_stack_rsp], rax
	mov	qword [rax], RET_MAIN
	call	fn_main
RET_MAIN:
	mov	rax, 60
	mov	rdi, 0
	syscall
segment readable
`

// runtimeSegment declares the secondary return stack: a fixed 64 KiB
// bump-pointer region disjoint from the native data stack (spec §4.3,
// §9 "Two-stack discipline").
const runtimeSegment = `segment readable writable
ret_stack_rsp: rq 1
ret_stack: rb 65536
ret_stack_end:
`

// emitter carries the fresh-label counter across the whole program
// walk (spec §4.3 "Stateless in the op tree; carries one counter").
type emitter struct {
	buf      strings.Builder
	freshCtr int
}

// Generate walks prog and returns the complete FASM source (spec
// §4.3). It never consults anything outside prog.Ctx for symbol names,
// so the same Program always yields byte-identical output (spec §8
// property 5, "Idempotent codegen").
func Generate(prog *op.Program) (string, error) {
	e := &emitter{}
	e.buf.WriteString(prelude)

	for _, fn := range prog.Funcs {
		fmt.Fprintf(&e.buf, "fn_%s:\n", fn.Ident)
		for _, o := range fn.Body {
			if err := e.writeOp(prog.Ctx, o); err != nil {
				return "", err
			}
		}
	}

	e.buf.WriteString(mainTrampoline)
	for i, s := range prog.Ctx.Strings {
		fmt.Fprintf(&e.buf, "str_%d: db %s\n", i, dataBytes(s))
	}
	e.buf.WriteString(runtimeSegment)

	return e.buf.String(), nil
}

// dataBytes renders a string's bytes as a comma-separated FASM db
// operand list (spec §4.3 "Data segment").
func dataBytes(s string) string {
	b := []byte(s)
	parts := make([]string, len(b))
	for i, c := range b {
		parts[i] = strconv.Itoa(int(c))
	}
	if len(parts) == 0 {
		return "0"
	}
	return strings.Join(parts, ",")
}

// fresh allocates the next unique label suffix.
func (e *emitter) fresh() int {
	n := e.freshCtr
	e.freshCtr++
	return n
}

// writeOp emits one op.Op node, recursing into composite bodies (spec
// §4.3.1-§4.3.4). Grounded on the reference emitter's write_op match,
// translated from Rust's match-on-enum into a Go switch on op.Kind.
func (e *emitter) writeOp(ctx *op.Context, o op.Op) error {
	switch o.Kind {
	case op.CallFn:
		k := e.fresh()
		name := ctx.FuncIdents[o.FuncIndex]
		fmt.Fprintf(&e.buf, "\tmov\trax, [ret_stack_rsp]\n\tsub\trax, 8\n\tmov\t[ret_stack_rsp], rax\n\tmov\tqword [rax], RET%d\n\tjmp\tfn_%s\nRET%d:\n\tmov\trax, [ret_stack_rsp]\n\tadd\trax, 8\n\tmov\t[ret_stack_rsp], rax\n", k, name, k)

	case op.Ret:
		if o.ExtraFrames == 0 {
			e.buf.WriteString("\tmov\trax, qword [ret_stack_rsp]\n\tjmp\tqword [rax]\n")
		} else {
			fmt.Fprintf(&e.buf, "\tmov\trax, [ret_stack_rsp]\n\tadd\trax, %d\n\tmov\tqword [ret_stack_rsp], rax\n\tjmp\tqword [rax]\n", o.ExtraFrames*8)
		}

	case op.Bind:
		count := o.Count
		fmt.Fprintf(&e.buf, "\tmov\trax, [ret_stack_rsp]\n\tsub\trax, %d\n\tmov\t[ret_stack_rsp], rax\n", count*8)
		for i := 0; i < count; i++ {
			fmt.Fprintf(&e.buf, "\tmov\trbx, [rsp+%d]\n\tmov\t[rax+%d], rbx\n", i*8, i*8)
		}
		if !o.Peek {
			fmt.Fprintf(&e.buf, "\tadd\trsp, %d\n", count*8)
		}
		for _, inner := range o.Body {
			if err := e.writeOp(ctx, inner); err != nil {
				return err
			}
		}
		fmt.Fprintf(&e.buf, "\tmov\trax, [ret_stack_rsp]\n\tadd\trax, %d\n\tmov\tqword [ret_stack_rsp], rax\n", count*8)

	case op.PushBind:
		fmt.Fprintf(&e.buf, "\tmov\trax, [ret_stack_rsp]\n\tadd\trax, %d\n\tpush\tqword [rax]\n", o.BindIndex*8)

	case op.PushInt:
		fmt.Fprintf(&e.buf, "\tpush\t%d\n", o.IntValue)

	case op.PushStrPtr:
		fmt.Fprintf(&e.buf, "\tpush\tstr_%d\n", o.StrIndex)

	case op.Plus:
		e.buf.WriteString("\tpop\trax\n\tpop\trbx\n\tadd\trax, rbx\n\tpush\trax\n")

	case op.Minus:
		e.buf.WriteString("\tpop\trbx\n\tpop\trax\n\tsub\trax, rbx\n\tpush\trax\n")

	case op.DivMod:
		e.buf.WriteString("\tpop\trbx\n\tpop\trax\n\tmov\trdx, 0\n\tdiv\trbx\n\tpush\trax\n\tpush\trdx\n")

	case op.Dup:
		e.buf.WriteString("\tpush\tqword [rsp]\n")

	case op.Drop:
		e.buf.WriteString("\tadd\trsp, 8\n")

	case op.Swap:
		e.buf.WriteString("\tpop\trax\n\tpop\trbx\n\tpush\trax\n\tpush\trbx\n")

	case op.Over:
		// Documented reference behavior, not classical Forth `over`
		// (spec §9 "Over-operator bug"): pop a, b, c (top first), push
		// b, a, c.
		e.buf.WriteString("\tpop\trax\n\tpop\trbx\n\tpop\trcx\n\tpush\trbx\n\tpush\trax\n\tpush\trcx\n")

	case op.Equals:
		e.writeCompare("je")

	case op.Neq:
		e.writeCompare("jne")

	case op.Not:
		e.buf.WriteString("\tpop\trax\n\tmov\trbx, 1\n\tsub\trbx, rax\n\tpush\trbx\n")

	case op.GreaterThan:
		e.writeOrderedCompare(false)

	case op.LessThan:
		e.writeOrderedCompare(true)

	case op.Or:
		j0, j1 := e.fresh(), e.fresh()
		fmt.Fprintf(&e.buf, "\tpop\trax\n\tpop\trbx\n\tcmp\trax, 1\n\tje\tJ%d\n\tcmp\trbx, 1\n\tje\tJ%d\n\tpush\t0\n\tjmp\tJ%d\nJ%d:\n\tpush\t1\nJ%d:\n", j0, j0, j1, j0, j1)

	case op.And:
		j0, j1 := e.fresh(), e.fresh()
		fmt.Fprintf(&e.buf, "\tpop\trax\n\tpop\trbx\n\tcmp\trax, rbx\n\tjne\tJ%d\n\tcmp\trax, 1\n\tjne\tJ%d\n\tpush\t1\n\tjmp\tJ%d\nJ%d:\n\tpush\t0\nJ%d:\n", j0, j0, j1, j0, j1)

	case op.ReadByte:
		e.buf.WriteString("\tpop\trbx\n\tmov\trax, 0\n\tmov\tal, byte [rbx]\n\tpush\trax\n")

	case op.Print:
		e.buf.WriteString("\tpop\trdi\n\tcall\tprint\n")

	case op.Puts:
		e.buf.WriteString("\tmov\trdi, 1\n\tpop\trsi\n\tpop\trdx\n\tmov\trax, 1\n\tsyscall\n")

	case op.If:
		f := e.fresh()
		fmt.Fprintf(&e.buf, "\tpop\trax\n\tcmp\trax, 1\n\tjne\tF%d\n", f)
		for _, inner := range o.Body {
			if err := e.writeOp(ctx, inner); err != nil {
				return err
			}
		}
		fmt.Fprintf(&e.buf, "F%d:\n", f)

	case op.While:
		head, exit := e.fresh(), e.fresh()
		fmt.Fprintf(&e.buf, "F%d:\n", head)
		for _, inner := range o.Cond {
			if err := e.writeOp(ctx, inner); err != nil {
				return err
			}
		}
		fmt.Fprintf(&e.buf, "\tpop\trax\n\tcmp\trax, 1\n\tjne\tF%d\n", exit)
		for _, inner := range o.Body {
			if err := e.writeOp(ctx, inner); err != nil {
				return err
			}
		}
		fmt.Fprintf(&e.buf, "\tjmp\tF%d\nF%d:\n", head, exit)

	default:
		return fmt.Errorf("x8664: unhandled op kind %d", o.Kind)
	}
	return nil
}

// writeCompare emits the Equals/Neq pattern: pop two, compare, jump to
// one of two fresh labels depending on jumpInstr.
func (e *emitter) writeCompare(jumpInstr string) {
	j0, j1 := e.fresh(), e.fresh()
	fmt.Fprintf(&e.buf, "\tpop\trax\n\tpop\trbx\n\tcmp\trax, rbx\n\t%s\tJ%d\n\tpush\t0\n\tjmp\tJ%d\nJ%d:\n\tpush\t1\nJ%d:\n", jumpInstr, j0, j1, j0, j1)
}

// writeOrderedCompare emits GreaterThan/LessThan, which compare in
// opposite operand order (spec §4.3.4 table).
func (e *emitter) writeOrderedCompare(lessThan bool) {
	j0, j1 := e.fresh(), e.fresh()
	if lessThan {
		fmt.Fprintf(&e.buf, "\tpop\trax\n\tpop\trbx\n\tcmp\trbx, rax\n\tjb\tJ%d\n\tpush\t0\n\tjmp\tJ%d\nJ%d:\n\tpush\t1\nJ%d:\n", j0, j1, j0, j1)
		return
	}
	fmt.Fprintf(&e.buf, "\tpop\trax\n\tpop\trbx\n\tcmp\trax, rbx\n\tjb\tJ%d\n\tpush\t0\n\tjmp\tJ%d\nJ%d:\n\tpush\t1\nJ%d:\n", j0, j1, j0, j1)
}
