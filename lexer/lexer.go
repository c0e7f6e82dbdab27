// Package lexer turns Rack source text into a stream of tokens.
//
// It keeps the teacher's single-pass, cursor-based scanning idiom
// (readChar/peekChar advancing over a rune slice) but generalizes it
// from math-compiler's arithmetic-expression alphabet to Rack's full
// token set: keywords, identifiers, string literals with escape-aware
// termination, character literals (which end at the first closing
// quote), and multi-base integer literals (spec §4.1).
package lexer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rack-lang/rackc/token"
)

// separators are emitted as single-character tokens rather than being
// absorbed into a longer word (spec §4.1 point 3). Note `*` is in this
// set per spec even though Rack has no multiply keyword — it lexes
// fine and simply falls through classification to Identifier, same as
// any other non-keyword word.
const separators = "+-*/%"

// Lexer is a single-pass, non-restartable iterator over a Rack source
// buffer's characters.
type Lexer struct {
	file       string
	characters []rune

	position     int // current character position
	readPosition int // next character position
	ch           rune

	line    int // 1-based
	col     int // 1-based, of l.ch
	nextCol int
}

// New creates a Lexer over the given source text. file is used only for
// diagnostics.
func New(file, input string) *Lexer {
	l := &Lexer{file: file, characters: []rune(input), line: 1, col: 0, nextCol: 1}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.nextCol = 1
	}
	if l.readPosition >= len(l.characters) {
		l.ch = 0
	} else {
		l.ch = l.characters[l.readPosition]
	}
	l.position = l.readPosition
	l.col = l.nextCol
	l.nextCol++
	l.readPosition++
}

func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.characters) {
		return 0
	}
	return l.characters[l.readPosition]
}

func (l *Lexer) loc() token.Location {
	return token.Location{File: l.file, Line: l.line, Col: l.col}
}

// NextToken scans and returns the next token, skipping leading
// whitespace. At end of input it returns a token.EOF token. Lexical
// failures (unterminated string/char literal, malformed numeric
// literal) are returned as errors;
// everything else — including an unrecognized word, which is simply
// classified as token.IDENT — is not a lexer error (spec §4.1: "
// UnknownKeyword is not an error").
func (l *Lexer) NextToken() (token.Token, error) {
	l.skipWhitespace()
	loc := l.loc()

	switch {
	case l.ch == 0:
		return token.Token{Type: token.EOF, Location: loc}, nil

	case l.ch == '"':
		return l.readString(loc)

	case l.ch == '\'':
		return l.readChar_(loc)

	case l.ch == '/' && l.peekChar() == '/':
		l.skipLineComment()
		return l.NextToken()

	case strings.ContainsRune(separators, l.ch):
		word := string(l.ch)
		l.readChar()
		return l.classify(word, loc)

	default:
		word := l.readWord()
		return l.classify(word, loc)
	}
}

func (l *Lexer) skipWhitespace() {
	for isWhitespace(l.ch) {
		l.readChar()
	}
}

// skipLineComment consumes a `//` through end of line (not inclusive),
// so the following NextToken call picks up right after the newline
// (spec §4.1 point 3, §9 "Comment handling": the parser never sees a
// comment's contents).
func (l *Lexer) skipLineComment() {
	for l.ch != 0 && l.ch != '\n' {
		l.readChar()
	}
}

// readWord accumulates characters until the next whitespace or
// separator (spec §4.1 point 3, last bullet).
func (l *Lexer) readWord() string {
	var b strings.Builder
	for l.ch != 0 && !isWhitespace(l.ch) && !strings.ContainsRune(separators, l.ch) {
		b.WriteRune(l.ch)
		l.readChar()
	}
	return b.String()
}

// classify turns an accumulated word into a token: try Keyword, else
// try parse_int, else Identifier (spec §4.1 point 4).
//
// A word starting with a digit that fails parse_int is a malformed
// numeric literal, reported here rather than silently falling through
// to Identifier (spec §4.1: "Lexer-level failures are only malformed
// numeric literals").
func (l *Lexer) classify(word string, loc token.Location) (token.Token, error) {
	if kw, ok := token.LookupKeyword(word); ok {
		return token.Token{Type: kw, Literal: word, Location: loc}, nil
	}
	if len(word) > 0 && word[0] >= '0' && word[0] <= '9' {
		if _, err := parseInt(word); err != nil {
			return token.Token{}, fmt.Errorf("%s: malformed numeric literal %q: %w", loc, word, err)
		}
		return token.Token{Type: token.INT, Literal: word, Location: loc}, nil
	}
	return token.Token{Type: token.IDENT, Literal: word, Location: loc}, nil
}

// readString scans a "..."-delimited string literal, including the
// surrounding quotes in the returned literal (spec §3 Token.value). A
// backslash and the character after it are kept as-is, so an escaped
// quote does not end the literal; the parser resolves the escapes.
func (l *Lexer) readString(start token.Location) (token.Token, error) {
	var b strings.Builder
	b.WriteRune('"')
	l.readChar() // consume opening quote

	for {
		if l.ch == 0 {
			return token.Token{}, fmt.Errorf("%s: unterminated string literal", start)
		}
		if l.ch == '\\' && l.peekChar() != 0 {
			b.WriteRune(l.ch)
			l.readChar()
			b.WriteRune(l.ch)
			l.readChar()
			continue
		}
		if l.ch == '"' {
			b.WriteRune('"')
			l.readChar()
			break
		}
		b.WriteRune(l.ch)
		l.readChar()
	}
	return token.Token{Type: token.STRING, Literal: b.String(), Location: start}, nil
}

// readChar_ scans a '...'-delimited character literal, including the
// surrounding quotes (the trailing underscore avoids shadowing the
// Lexer.readChar cursor-advance method).
func (l *Lexer) readChar_(start token.Location) (token.Token, error) {
	var b strings.Builder
	b.WriteRune('\'')
	l.readChar() // consume opening quote

	for {
		if l.ch == 0 {
			return token.Token{}, fmt.Errorf("%s: unterminated char literal", start)
		}
		if l.ch == '\'' {
			b.WriteRune('\'')
			l.readChar()
			break
		}
		b.WriteRune(l.ch)
		l.readChar()
	}
	return token.Token{Type: token.CHAR, Literal: b.String(), Location: start}, nil
}

func isWhitespace(ch rune) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

// parseInt implements spec §4.1's parse_int: decimal, or 0x/0o/0b
// prefixed, unsigned 64-bit.
func parseInt(word string) (uint64, error) {
	switch {
	case strings.HasPrefix(word, "0x"):
		return strconv.ParseUint(word[2:], 16, 64)
	case strings.HasPrefix(word, "0o"):
		return strconv.ParseUint(word[2:], 8, 64)
	case strings.HasPrefix(word, "0b"):
		return strconv.ParseUint(word[2:], 2, 64)
	default:
		return strconv.ParseUint(word, 10, 64)
	}
}

// ParseInt is the exported form of parseInt, used by the parser once a
// token has already been classified as token.INT.
func ParseInt(word string) (uint64, error) {
	return parseInt(word)
}
