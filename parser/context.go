package parser

import (
	"strings"

	"github.com/rack-lang/rackc/stack"
	"github.com/rack-lang/rackc/token"
)

// bindings is the transient stack of borrowed names active during
// parsing only (spec §3 Context.bindings); it must be empty at every
// function boundary. Built on stack.Stack, adapted from the teacher's
// dead stack package (spec §4.2 scoping rule).
type bindings struct {
	names *stack.Stack[string]
}

func newBindings() *bindings {
	return &bindings{names: stack.New[string]()}
}

// push adds names in the order they were written (first identifier
// after let/peek is bound first), so the stack's top is the
// last-written identifier.
func (b *bindings) push(names []string) {
	for _, n := range names {
		b.names.Push(n)
	}
}

// pop discards the n most recently pushed names, restoring the outer
// scope.
func (b *bindings) pop(n int) {
	for i := 0; i < n; i++ {
		b.names.Pop()
	}
}

// resolve walks the binding stack from the end (innermost first); the
// first match wins, and its reverse position from the top is the
// runtime frame index (spec §4.2 "Scoping rule").
func (b *bindings) resolve(name string) (int, bool) {
	all := b.names.Reverse()
	for i, n := range all {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

func (b *bindings) len() int {
	return b.names.Len()
}

// resolveEscapes processes \n, \t, \0, \" in a string literal's
// content (delimiters already stripped). An unrecognized escape emits
// the literal character with the backslash dropped (spec §6 "Escape
// sequences in strings").
func resolveEscapes(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		if runes[i] != '\\' || i == len(runes)-1 {
			b.WriteRune(runes[i])
			continue
		}
		i++
		switch runes[i] {
		case 'n':
			b.WriteRune('\n')
		case 't':
			b.WriteRune('\t')
		case '0':
			b.WriteRune(0)
		case '"':
			b.WriteRune('"')
		default:
			b.WriteRune(runes[i])
		}
	}
	return b.String()
}

// stringLiteralContent strips the surrounding quotes from a token.STRING
// literal.
func stringLiteralContent(raw string) string {
	return raw[1 : len(raw)-1]
}

// charLiteralValue strips the surrounding quotes from a token.CHAR
// literal and requires exactly one character (spec §4.2 "require single
// character").
func charLiteralValue(raw string, loc token.Location) (uint64, error) {
	content := raw[1 : len(raw)-1]
	runes := []rune(content)
	if len(runes) != 1 {
		return 0, errGeneric(loc, "char literal must contain exactly one character, found %q", content)
	}
	return uint64(runes[0]), nil
}
