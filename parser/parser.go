package parser

import (
	"github.com/josharian/intern"

	"github.com/rack-lang/rackc/lexer"
	"github.com/rack-lang/rackc/op"
	"github.com/rack-lang/rackc/source"
	"github.com/rack-lang/rackc/token"
)

// Parser is a recursive-descent parser over a single source buffer,
// producing a fully resolved op.Program in one pass with no forward
// patching (spec §4.2).
type Parser struct {
	lex  *lexer.Lexer
	cur  token.Token
	peek token.Token

	ctx      *op.Context
	bindings *bindings
}

// Parse lexes and parses an entire source buffer into a Program (spec
// §4.2 parse_tokens).
func Parse(buf *source.Buffer) (*op.Program, error) {
	p := &Parser{
		lex:      lexer.New(buf.Name(), buf.Text()),
		ctx:      op.NewContext(),
		bindings: newBindings(),
	}
	if err := p.primeTokens(); err != nil {
		return nil, err
	}

	var funcs []op.Func
	for p.cur.Type != token.EOF {
		if p.cur.Type != token.FN {
			return nil, errUnexpectedTopLevel(p.cur)
		}
		fn, err := p.parseFn()
		if err != nil {
			return nil, err
		}
		funcs = append(funcs, fn)
	}

	return &op.Program{Funcs: funcs, Ctx: p.ctx}, nil
}

func (p *Parser) primeTokens() error {
	var err error
	if p.cur, err = p.lex.NextToken(); err != nil {
		return err
	}
	if p.peek, err = p.lex.NextToken(); err != nil {
		return err
	}
	return nil
}

// advance shifts the lookahead window forward by one token.
func (p *Parser) advance() error {
	p.cur = p.peek
	if p.cur.Type == token.EOF {
		p.peek = p.cur
		return nil
	}
	next, err := p.lex.NextToken()
	if err != nil {
		return err
	}
	p.peek = next
	return nil
}

// expect checks the current token's type, advances past it, and
// returns it, or fails with ExpectedToken.
func (p *Parser) expect(want token.Type) (token.Token, error) {
	if p.cur.Type == token.EOF {
		return token.Token{}, errEOF(p.cur.Location)
	}
	if p.cur.Type != want {
		return token.Token{}, errExpected(p.cur, want)
	}
	tok := p.cur
	if err := p.advance(); err != nil {
		return token.Token{}, err
	}
	return tok, nil
}

// parseFn implements spec §4.2 parse_fn.
func (p *Parser) parseFn() (op.Func, error) {
	if _, err := p.expect(token.FN); err != nil {
		return op.Func{}, err
	}

	nameTok, err := p.expect(token.IDENT)
	if err != nil {
		return op.Func{}, err
	}
	name := nameTok.Literal

	// Record before parsing the body, so the function can call itself
	// recursively (spec §4.2 parse_fn step 1).
	p.ctx.DeclareFunc(name)

	if _, err := p.expect(token.IN); err != nil {
		return op.Func{}, err
	}

	body, err := p.parseBlock(token.END)
	if err != nil {
		return op.Func{}, err
	}
	if _, err := p.expect(token.END); err != nil {
		return op.Func{}, err
	}

	body = append(body, op.NewRet(0))
	return op.Func{Ident: name, Body: body}, nil
}

// parseBlock implements spec §4.2 parse_block: it consumes tokens
// until terminator is seen (and does NOT consume the terminator
// itself, mirroring expect's contract at each call site).
func (p *Parser) parseBlock(terminator token.Type) ([]op.Op, error) {
	var body []op.Op

	for {
		if p.cur.Type == token.EOF {
			return nil, errEOF(p.cur.Location)
		}
		if p.cur.Type == terminator {
			return body, nil
		}

		o, err := p.parseOne(terminator)
		if err != nil {
			return nil, err
		}
		body = append(body, o...)
	}
}

// parseOne consumes and classifies a single token per spec §4.2's
// parse_block table, returning zero or more Ops (div/mod expand to two
// ops; most rows are exactly one).
func (p *Parser) parseOne(terminator token.Type) ([]op.Op, error) {
	tok := p.cur

	switch tok.Type {
	case token.INT:
		n, err := lexer.ParseInt(tok.Literal)
		if err != nil {
			return nil, errGeneric(tok.Location, "malformed numeric literal %q: %v", tok.Literal, err)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return []op.Op{op.NewPushInt(n)}, nil

	case token.TRUE:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return []op.Op{op.NewPushInt(1)}, nil

	case token.FALSE:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return []op.Op{op.NewPushInt(0)}, nil

	case token.DIV:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return []op.Op{op.Leaf(op.DivMod), op.Leaf(op.Drop)}, nil

	case token.MOD:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return []op.Op{op.Leaf(op.DivMod), op.Leaf(op.Swap), op.Leaf(op.Drop)}, nil

	case token.RET:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return []op.Op{op.NewRet(p.bindings.len())}, nil

	case token.IF:
		return p.parseIf()

	case token.WHILE:
		return p.parseWhile()

	case token.PRINT:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return []op.Op{op.Leaf(op.Print)}, nil

	case token.PUTS:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return []op.Op{op.Leaf(op.Puts)}, nil

	case token.LET:
		return p.parseBind(false)

	case token.PEEK:
		return p.parseBind(true)

	case token.FN:
		return nil, errGeneric(tok.Location, "'fn' is only allowed at the top level")

	case token.IN, token.DO, token.END:
		return nil, errUnexpectedKeyword(tok)

	case token.IDENT:
		return p.parseIdent(tok)

	case token.STRING:
		return p.parseString(tok)

	case token.CHAR:
		if err := p.advance(); err != nil {
			return nil, err
		}
		v, err := charLiteralValue(tok.Literal, tok.Location)
		if err != nil {
			return nil, err
		}
		return []op.Op{op.NewPushInt(v)}, nil

	default:
		if token.IsLeaf(tok.Type) {
			if err := p.advance(); err != nil {
				return nil, err
			}
			return []op.Op{op.Leaf(leafKind(tok.Type))}, nil
		}
		return nil, errUnexpectedKeyword(tok)
	}
}

// leafKind maps a leaf-keyword token type to its op.Kind (spec §4.2
// table, "arithmetic/stack/comparison keyword" row).
func leafKind(t token.Type) op.Kind {
	switch t {
	case token.PLUS:
		return op.Plus
	case token.MINUS:
		return op.Minus
	case token.DUP:
		return op.Dup
	case token.DROP:
		return op.Drop
	case token.SWAP:
		return op.Swap
	case token.OVER:
		return op.Over
	case token.NOT:
		return op.Not
	case token.AND:
		return op.And
	case token.OR:
		return op.Or
	case token.EQUALS:
		return op.Equals
	case token.NEQ:
		return op.Neq
	case token.GT:
		return op.GreaterThan
	case token.LT:
		return op.LessThan
	case token.AT:
		return op.ReadByte
	case token.DIVMOD:
		return op.DivMod
	case token.PRINT:
		return op.Print
	case token.PUTS:
		return op.Puts
	default:
		panic("leafKind: not a leaf token type: " + string(t))
	}
}

func (p *Parser) parseIf() ([]op.Op, error) {
	if _, err := p.expect(token.IF); err != nil {
		return nil, err
	}
	body, err := p.parseBlock(token.END)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.END); err != nil {
		return nil, err
	}
	return []op.Op{op.NewIf(body)}, nil
}

func (p *Parser) parseWhile() ([]op.Op, error) {
	if _, err := p.expect(token.WHILE); err != nil {
		return nil, err
	}
	cond, err := p.parseBlock(token.DO)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.DO); err != nil {
		return nil, err
	}
	body, err := p.parseBlock(token.END)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.END); err != nil {
		return nil, err
	}
	return []op.Op{op.NewWhile(cond, body)}, nil
}

// parseBind implements let/peek (spec §4.2 table row).
func (p *Parser) parseBind(peek bool) ([]op.Op, error) {
	start := token.LET
	if peek {
		start = token.PEEK
	}
	if _, err := p.expect(start); err != nil {
		return nil, err
	}

	var names []string
	for p.cur.Type == token.IDENT {
		names = append(names, p.cur.Literal)
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if len(names) == 0 {
		return nil, errGeneric(p.cur.Location, "expected at least one identifier after let/peek")
	}

	if _, err := p.expect(token.IN); err != nil {
		return nil, err
	}

	p.bindings.push(names)
	body, err := p.parseBlock(token.END)
	p.bindings.pop(len(names))
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.END); err != nil {
		return nil, err
	}

	return []op.Op{op.NewBind(len(names), peek, body)}, nil
}

// parseIdent resolves an identifier against function names first, then
// bindings, preserving the reference implementation's lookup order
// (spec §9 "Identifier shadowing bug"): a binding whose name matches a
// function name is shadowed by the function.
func (p *Parser) parseIdent(tok token.Token) ([]op.Op, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	if idx, ok := p.ctx.Lookup[tok.Literal]; ok {
		return []op.Op{op.NewCallFn(idx)}, nil
	}
	if idx, ok := p.bindings.resolve(tok.Literal); ok {
		return []op.Op{op.NewPushBind(idx)}, nil
	}
	return nil, errUnknownIdentifier(tok)
}

// parseString implements spec §4.2's String row: escape processing,
// interning, then PushInt(len) PushStrPtr(index).
func (p *Parser) parseString(tok token.Token) ([]op.Op, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	content := stringLiteralContent(tok.Literal)
	resolved := resolveEscapes(content)
	// Canonicalize before the equality scan so repeated literals with
	// identical escape-resolved content share one backing string (spec
	// §4.2 "String interning": "duplicates are deduplicated").
	resolved = intern.String(resolved)

	idx := p.ctx.InternString(resolved)
	return []op.Op{
		op.NewPushInt(uint64(len(resolved))),
		op.NewPushStrPtr(idx),
	}, nil
}
