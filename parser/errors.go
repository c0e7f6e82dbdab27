// Package parser turns a token stream into a resolved op.Program: it
// hoists function names, tracks lexically scoped bindings, interns
// strings, and builds the nested operation tree the emitter walks
// (spec §4.2).
package parser

import (
	"fmt"

	"github.com/rack-lang/rackc/token"
)

// ErrorKind tags the SyntaxError taxonomy from spec §7.
type ErrorKind int

const (
	// Eof is a premature end of the token stream inside any block.
	Eof ErrorKind = iota
	// UnexpectedTopLevel is any token other than fn at the top level.
	UnexpectedTopLevel
	// ExpectedToken is an expected-vs-found token mismatch.
	ExpectedToken
	// UnknownIdentifier is an identifier that names neither a function
	// nor a binding in scope.
	UnknownIdentifier
	// UnexpectedKeyword is do/in/end appearing where it is not the
	// current block's terminator, or a keyword with no meaning inside a
	// block (such as / or %).
	UnexpectedKeyword
	// Generic covers the remaining messages: fn inside a block,
	// malformed char literals, let/peek with no identifiers, etc.
	Generic
)

// SyntaxError is the error type the parser's own checks return. Lexer
// failures (unterminated literals, malformed numeric literals) are
// passed through as the lexer's plain errors, which carry the same
// file:line:col prefix. A SyntaxError always carries that prefix when
// the originating token had a location (spec §7: "reported once with a
// file:line:col prefix when possible").
type SyntaxError struct {
	Kind ErrorKind
	Loc  token.Location
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: %s", e.Loc, e.Msg)
}

func newErr(kind ErrorKind, loc token.Location, format string, args ...any) *SyntaxError {
	return &SyntaxError{Kind: kind, Loc: loc, Msg: fmt.Sprintf(format, args...)}
}

func errEOF(loc token.Location) *SyntaxError {
	return newErr(Eof, loc, "unexpected end of input")
}

func errUnexpectedTopLevel(tok token.Token) *SyntaxError {
	return newErr(UnexpectedTopLevel, tok.Location, "expected 'fn' at top level, found %q", tok.Literal)
}

func errExpected(tok token.Token, want token.Type) *SyntaxError {
	return newErr(ExpectedToken, tok.Location, "expected %s, found %q", want, tok.Literal)
}

func errUnknownIdentifier(tok token.Token) *SyntaxError {
	return newErr(UnknownIdentifier, tok.Location, "unknown identifier %q", tok.Literal)
}

func errUnexpectedKeyword(tok token.Token) *SyntaxError {
	return newErr(UnexpectedKeyword, tok.Location, "unexpected keyword %q", tok.Literal)
}

func errGeneric(loc token.Location, format string, args ...any) *SyntaxError {
	return newErr(Generic, loc, format, args...)
}
