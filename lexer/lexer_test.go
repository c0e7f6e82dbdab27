package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rack-lang/rackc/token"
)

func tokens(t *testing.T, src string) []token.Token {
	t.Helper()
	l := New("<test>", src)
	var out []token.Token
	for {
		tok, err := l.NextToken()
		require.NoError(t, err)
		out = append(out, tok)
		if tok.Type == token.EOF {
			return out
		}
	}
}

func TestKeywordsAndInts(t *testing.T) {
	toks := tokens(t, "fn main in 34 35 + print end")

	want := []token.Type{token.FN, token.IDENT, token.IN, token.INT, token.INT, token.PLUS, token.PRINT, token.END, token.EOF}
	require.Len(t, toks, len(want))
	for i, ty := range want {
		assert.Equal(t, ty, toks[i].Type, "token %d", i)
	}
	assert.Equal(t, "main", toks[1].Literal)
	assert.Equal(t, "34", toks[3].Literal)
}

func TestMultiBaseIntegers(t *testing.T) {
	toks := tokens(t, "0x1a 0o17 0b101 42")
	for i, want := range []string{"0x1a", "0o17", "0b101", "42"} {
		assert.Equal(t, token.INT, toks[i].Type)
		assert.Equal(t, want, toks[i].Literal)
	}
}

func TestSeparatorsAreSingleChar(t *testing.T) {
	toks := tokens(t, "+-%/")
	want := []token.Type{token.PLUS, token.MINUS, token.PERCENT, token.SLASH, token.EOF}
	require.Len(t, toks, len(want))
	for i, ty := range want {
		assert.Equal(t, ty, toks[i].Type)
	}
}

func TestAsteriskIsNotAKeyword(t *testing.T) {
	toks := tokens(t, "*")
	require.Len(t, toks, 2)
	assert.Equal(t, token.IDENT, toks[0].Type)
	assert.Equal(t, "*", toks[0].Literal)
}

func TestLineComment(t *testing.T) {
	toks := tokens(t, "1 // this is a comment\n2")
	want := []token.Type{token.INT, token.INT, token.EOF}
	require.Len(t, toks, len(want))
	for i, ty := range want {
		assert.Equal(t, ty, toks[i].Type, "token %d", i)
	}
	assert.Equal(t, "1", toks[0].Literal)
	assert.Equal(t, "2", toks[1].Literal)
}

func TestLineCommentAtEOFHasNoTrailingNewline(t *testing.T) {
	toks := tokens(t, "1 // trailing comment, no newline")
	require.Len(t, toks, 2)
	assert.Equal(t, token.INT, toks[0].Type)
	assert.Equal(t, token.EOF, toks[1].Type)
}

func TestLineCommentDoesNotConsumeFollowingLine(t *testing.T) {
	toks := tokens(t, "// leading comment\nfn main in 1 end")
	want := []token.Type{token.FN, token.IDENT, token.IN, token.INT, token.END, token.EOF}
	require.Len(t, toks, len(want))
	for i, ty := range want {
		assert.Equal(t, ty, toks[i].Type, "token %d", i)
	}
}

func TestStringLiteral(t *testing.T) {
	toks := tokens(t, `"hi\n"`)
	require.Len(t, toks, 2)
	assert.Equal(t, token.STRING, toks[0].Type)
	assert.Equal(t, `"hi\n"`, toks[0].Literal)
}

func TestUnterminatedString(t *testing.T) {
	l := New("<test>", `"unterminated`)
	_, err := l.NextToken()
	assert.Error(t, err)
}

func TestCharLiteral(t *testing.T) {
	toks := tokens(t, `'a'`)
	require.Len(t, toks, 2)
	assert.Equal(t, token.CHAR, toks[0].Type)
	assert.Equal(t, `'a'`, toks[0].Literal)
}

func TestUnterminatedChar(t *testing.T) {
	l := New("<test>", `'a`)
	_, err := l.NextToken()
	assert.Error(t, err)
}

func TestLineAndColumnTracking(t *testing.T) {
	l := New("prog.rack", "ab\ncd")
	tok, err := l.NextToken()
	require.NoError(t, err)
	assert.Equal(t, 1, tok.Location.Line)
	assert.Equal(t, 1, tok.Location.Col)

	tok, err = l.NextToken()
	require.NoError(t, err)
	assert.Equal(t, 2, tok.Location.Line)
	assert.Equal(t, 1, tok.Location.Col)
}

func TestUnknownIdentifierIsNotALexError(t *testing.T) {
	toks := tokens(t, "flibbertigibbet")
	require.Len(t, toks, 2)
	assert.Equal(t, token.IDENT, toks[0].Type)
}
