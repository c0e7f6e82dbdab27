// Package op defines the recursive operation tree the parser builds and
// the x86-64 emitter walks (spec §3 "Op (recursive sum)").
//
// Rack's control flow is block-structured (`if…end`, `while…do…end`,
// `let/peek…in…end`), so unlike the teacher's flat instruction list
// keyed by a single InstructionType byte, Op bodies nest: `If`, `While`
// and `Bind` each carry their own []Op. This removes the jump-patching
// invariants a flat, label-based representation would need at parse
// time (spec §9) — codegen becomes a straightforward post-order walk.
package op

// Kind tags which operation a given Op value represents.
type Kind int

const (
	PushInt Kind = iota
	PushStrPtr
	PushBind
	Plus
	Minus
	DivMod
	Dup
	Drop
	Swap
	Over
	Equals
	Neq
	Not
	GreaterThan
	LessThan
	Or
	And
	ReadByte
	Print
	Puts
	CallFn
	Ret
	If
	While
	Bind
)

// Op is a single node in the operation tree. Only the fields relevant
// to Kind are populated; the rest are zero. This mirrors the teacher's
// Instruction{Type, Value} pair, generalized with nested bodies for the
// composite kinds and named fields instead of a single string payload.
type Op struct {
	Kind Kind

	// PushInt
	IntValue uint64

	// PushStrPtr
	StrIndex int

	// PushBind: reverse index counting from the innermost binding.
	BindIndex int

	// CallFn: stable index into Context.FuncIdents/Context.Lookup.
	FuncIndex int

	// Ret: number of bound values (8-byte return-stack slots) in scope,
	// discarded before returning.
	ExtraFrames int

	// If: body executes iff the top of stack equals 1.
	Body []Op

	// While: Cond is re-evaluated before every iteration; Body runs
	// while it leaves 1 on top of the stack.
	Cond []Op

	// Bind: pop (or peek, if Peek) Count values off the data stack into
	// a return-stack frame, run Body, then discard the frame.
	Count int
	Peek  bool
}

// Leaf constructors. Each returns a zero-bodied Op of the given Kind;
// composite constructors (If, While, Bind, CallFn, Ret, PushInt,
// PushStrPtr, PushBind) take their payload directly.

func NewPushInt(v uint64) Op     { return Op{Kind: PushInt, IntValue: v} }
func NewPushStrPtr(i int) Op     { return Op{Kind: PushStrPtr, StrIndex: i} }
func NewPushBind(i int) Op       { return Op{Kind: PushBind, BindIndex: i} }
func NewCallFn(i int) Op         { return Op{Kind: CallFn, FuncIndex: i} }
func NewRet(extraFrames int) Op  { return Op{Kind: Ret, ExtraFrames: extraFrames} }
func NewIf(body []Op) Op         { return Op{Kind: If, Body: body} }
func NewWhile(cond, body []Op) Op {
	return Op{Kind: While, Cond: cond, Body: body}
}
func NewBind(count int, peek bool, body []Op) Op {
	return Op{Kind: Bind, Count: count, Peek: peek, Body: body}
}

// Leaf returns a bare Op of kind k, for the kinds that carry no payload.
func Leaf(k Kind) Op { return Op{Kind: k} }

// Func is a single top-level function definition: its name and its
// body, which the parser always terminates with Ret(0) (spec §3 Func;
// §4.2 parse_fn step 4 — "the emitter relies on this to close
// functions").
type Func struct {
	Ident string
	Body  []Op
}

// Context is shared, per-program state threaded through both the parser
// and the emitter (spec §3 Context).
type Context struct {
	// Lookup maps function name to its stable call-index, in declaration
	// order; a name declared twice maps to its later declaration.
	Lookup map[string]int

	// FuncIdents is the ordered sequence of function names currently
	// visible; FuncIdents[Lookup[name]] == name.
	FuncIdents []string

	// Strings is the ordered sequence of interned, escape-processed
	// string literals. PushStrPtr indices are stable offsets into this
	// slice (spec §4.2 "String interning").
	Strings []string
}

// NewContext returns an empty Context ready for a fresh parse.
func NewContext() *Context {
	return &Context{Lookup: make(map[string]int)}
}

// DeclareFunc registers a function name before its body is parsed, so
// recursive calls to it resolve (spec §4.2 parse_fn step 1: "Record it
// in the context before parsing the body").
func (c *Context) DeclareFunc(name string) int {
	idx := len(c.FuncIdents)
	c.FuncIdents = append(c.FuncIdents, name)
	c.Lookup[name] = idx
	return idx
}

// InternString deduplicates a string literal by value equality, adding
// it to Strings on first sight, and returns its stable index.
func (c *Context) InternString(s string) int {
	for i, existing := range c.Strings {
		if existing == s {
			return i
		}
	}
	idx := len(c.Strings)
	c.Strings = append(c.Strings, s)
	return idx
}

// Program is the fully parsed, semantically resolved compilation unit
// the emitter consumes (spec §3 Program).
type Program struct {
	Funcs []Func
	Ctx   *Context
}
