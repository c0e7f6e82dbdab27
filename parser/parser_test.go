package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rack-lang/rackc/op"
	"github.com/rack-lang/rackc/source"
)

func parse(t *testing.T, src string) *op.Program {
	t.Helper()
	prog, err := Parse(source.New("<test>", src))
	require.NoError(t, err)
	return prog
}

func TestSimpleAddPrint(t *testing.T) {
	prog := parse(t, "fn main in 34 35 + print end")
	require.Len(t, prog.Funcs, 1)
	main := prog.Funcs[0]
	assert.Equal(t, "main", main.Ident)

	want := []op.Op{
		op.NewPushInt(34),
		op.NewPushInt(35),
		op.Leaf(op.Plus),
		op.Leaf(op.Print),
		op.NewRet(0),
	}
	assert.Equal(t, want, main.Body)
}

func TestDivAndModExpandToDivModPair(t *testing.T) {
	prog := parse(t, "fn main in 10 3 div end")
	body := prog.Funcs[0].Body
	assert.Equal(t, op.DivMod, body[2].Kind)
	assert.Equal(t, op.Drop, body[3].Kind)

	prog = parse(t, "fn main in 10 3 mod end")
	body = prog.Funcs[0].Body
	assert.Equal(t, op.DivMod, body[2].Kind)
	assert.Equal(t, op.Swap, body[3].Kind)
	assert.Equal(t, op.Drop, body[4].Kind)
}

func TestIfWrapsBody(t *testing.T) {
	prog := parse(t, "fn main in 5 3 > if 42 print end end")
	body := prog.Funcs[0].Body
	require.Len(t, body, 5)
	assert.Equal(t, op.GreaterThan, body[2].Kind)
	assert.Equal(t, op.If, body[3].Kind)
	assert.Equal(t, []op.Op{op.NewPushInt(42), op.Leaf(op.Print)}, body[3].Body)
}

func TestWhileWrapsCondAndBody(t *testing.T) {
	prog := parse(t, "fn main in 0 while dup 3 < do dup print 1 + end drop end")
	body := prog.Funcs[0].Body
	require.Len(t, body, 4)
	w := body[1]
	require.Equal(t, op.While, w.Kind)
	assert.Equal(t, []op.Op{op.Leaf(op.Dup), op.NewPushInt(3), op.Leaf(op.LessThan)}, w.Cond)
	assert.Equal(t, []op.Op{op.Leaf(op.Dup), op.Leaf(op.Print), op.NewPushInt(1), op.Leaf(op.Plus)}, w.Body)
}

func TestLetBindsAndResolves(t *testing.T) {
	prog := parse(t, "fn main in 7 let x in x x + print end end")
	body := prog.Funcs[0].Body
	require.Len(t, body, 3)
	bind := body[1]
	require.Equal(t, op.Bind, bind.Kind)
	assert.Equal(t, 1, bind.Count)
	assert.False(t, bind.Peek)
	assert.Equal(t, []op.Op{
		op.NewPushBind(0),
		op.NewPushBind(0),
		op.Leaf(op.Plus),
		op.Leaf(op.Print),
	}, bind.Body)
}

func TestPeekLeavesDataStackSemanticFlag(t *testing.T) {
	prog := parse(t, "fn main in 1 2 peek a b in a end end")
	bind := prog.Funcs[0].Body[2]
	require.Equal(t, op.Bind, bind.Kind)
	assert.True(t, bind.Peek)
	assert.Equal(t, 2, bind.Count)
}

func TestBindingOrderIsReverseIndexed(t *testing.T) {
	prog := parse(t, "fn main in 1 2 3 let a b c in c b a end end")
	bind := prog.Funcs[0].Body[3]
	// c was written last, so it's the most recently pushed -> index 0.
	assert.Equal(t, []op.Op{
		op.NewPushBind(0),
		op.NewPushBind(1),
		op.NewPushBind(2),
	}, bind.Body)
}

func TestBindingOutOfScopeIsUnknownIdentifier(t *testing.T) {
	_, err := Parse(source.New("<test>", "fn main in 1 let x in x end x end"))
	require.Error(t, err)
	serr, ok := err.(*SyntaxError)
	require.True(t, ok)
	assert.Equal(t, UnknownIdentifier, serr.Kind)
}

func TestFunctionCallResolvesEarlierDeclaredFunction(t *testing.T) {
	prog := parse(t, "fn sq in let x in x x + end end fn main in 6 sq print end")
	require.Len(t, prog.Funcs, 2)
	sqBody := prog.Funcs[0].Body
	bind := sqBody[0]
	require.Equal(t, op.Bind, bind.Kind)

	mainBody := prog.Funcs[1].Body
	require.Len(t, mainBody, 4)
	assert.Equal(t, op.CallFn, mainBody[1].Kind)
	assert.Equal(t, 0, mainBody[1].FuncIndex)
}

func TestShadowingPrefersFunctionOverBinding(t *testing.T) {
	prog := parse(t, "fn x in 99 end fn main in let x in x end end")
	bind := prog.Funcs[1].Body[0]
	require.Equal(t, op.Bind, bind.Kind)
	// x resolves to the function call, not PushBind(0), per the
	// documented lookup order (functions checked before bindings).
	assert.Equal(t, []op.Op{op.NewCallFn(0)}, bind.Body)
}

func TestStringLiteralIsInternedAndPushesLenThenPtr(t *testing.T) {
	prog := parse(t, `fn main in "hi\n" puts end`)
	body := prog.Funcs[0].Body
	require.Len(t, body, 4)
	assert.Equal(t, op.PushInt, body[0].Kind)
	assert.Equal(t, uint64(3), body[0].IntValue)
	assert.Equal(t, op.PushStrPtr, body[1].Kind)
	assert.Equal(t, 0, body[1].StrIndex)
	require.Len(t, prog.Ctx.Strings, 1)
	assert.Equal(t, "hi\n", prog.Ctx.Strings[0])
}

func TestDuplicateStringLiteralsShareIndex(t *testing.T) {
	prog := parse(t, `fn main in "dup" puts "dup" puts end`)
	body := prog.Funcs[0].Body
	assert.Equal(t, body[1].StrIndex, body[4].StrIndex)
	assert.Len(t, prog.Ctx.Strings, 1)
}

func TestUnknownEscapeDropsBackslash(t *testing.T) {
	prog := parse(t, `fn main in "\q" puts end`)
	assert.Equal(t, "q", prog.Ctx.Strings[0])
}

func TestCharLiteralPushesCodepoint(t *testing.T) {
	prog := parse(t, "fn main in 'a' print end")
	body := prog.Funcs[0].Body
	assert.Equal(t, op.NewPushInt(uint64('a')), body[0])
}

func TestMultiCharLiteralIsError(t *testing.T) {
	_, err := Parse(source.New("<test>", "fn main in 'ab' end"))
	require.Error(t, err)
}

func TestRetCountsCurrentBindings(t *testing.T) {
	prog := parse(t, "fn main in 1 let x in ret end end")
	bind := prog.Funcs[0].Body[1]
	ret := bind.Body[0]
	assert.Equal(t, op.Ret, ret.Kind)
	assert.Equal(t, 1, ret.ExtraFrames)

	// A bare ret at top level (zero bindings in scope).
	prog = parse(t, "fn main in ret end")
	ret = prog.Funcs[0].Body[0]
	assert.Equal(t, 0, ret.ExtraFrames)
}

func TestTrailingRetZeroIsAppended(t *testing.T) {
	prog := parse(t, "fn main in 1 end")
	body := prog.Funcs[0].Body
	last := body[len(body)-1]
	assert.Equal(t, op.Ret, last.Kind)
	assert.Equal(t, 0, last.ExtraFrames)
}

func TestUnexpectedTopLevelToken(t *testing.T) {
	_, err := Parse(source.New("<test>", "42"))
	require.Error(t, err)
	serr, ok := err.(*SyntaxError)
	require.True(t, ok)
	assert.Equal(t, UnexpectedTopLevel, serr.Kind)
}

func TestFnInsideBlockIsError(t *testing.T) {
	_, err := Parse(source.New("<test>", "fn main in fn nested in end end end"))
	require.Error(t, err)
}

func TestDoOutsideWhileIsUnexpectedKeyword(t *testing.T) {
	_, err := Parse(source.New("<test>", "fn main in do end end"))
	require.Error(t, err)
	serr, ok := err.(*SyntaxError)
	require.True(t, ok)
	assert.Equal(t, UnexpectedKeyword, serr.Kind)
}

func TestPrematureEOFIsEofError(t *testing.T) {
	_, err := Parse(source.New("<test>", "fn main in 1 2 +"))
	require.Error(t, err)
	serr, ok := err.(*SyntaxError)
	require.True(t, ok)
	assert.Equal(t, Eof, serr.Kind)
}

func TestLineCommentsAreInvisibleToTheParser(t *testing.T) {
	src := "// leading comment\n" +
		"fn main in\n" +
		"  34 35 + // inline comment\n" +
		"  print\n" +
		"end // trailing comment, no newline"
	prog := parse(t, src)
	require.Len(t, prog.Funcs, 1)

	want := []op.Op{
		op.NewPushInt(34),
		op.NewPushInt(35),
		op.Leaf(op.Plus),
		op.Leaf(op.Print),
		op.NewRet(0),
	}
	assert.Equal(t, want, prog.Funcs[0].Body)
}
