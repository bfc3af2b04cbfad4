package expr

// AST node kinds. The tree is tiny and evaluated directly; there is no
// compilation step.
type astNode interface{ isNode() }

type litNode struct{ val Value }

type identNode struct{ name string }

type unaryNode struct {
	op string // "-" or "!"
	x  astNode
}

type binaryNode struct {
	op   string
	l, r astNode
}

type callNode struct {
	name string // one of the builtins
	args []astNode
}

func (litNode) isNode()    {}
func (identNode) isNode()  {}
func (unaryNode) isNode()  {}
func (binaryNode) isNode() {}
func (callNode) isNode()   {}

// builtins recognized as call syntax. Anything else followed by '(' is
// treated as a plain identifier.
var builtins = map[string]bool{
	"len": true,
	"num": true,
	"str": true,
	"abs": true,
}

type parser struct {
	toks []token
	pos  int
}

// parse builds an AST from tokens. The parser never fails: a missing
// operand becomes the literal 0, an unclosed parenthesis closes at end of
// input, and trailing tokens are ignored.
func parse(toks []token) astNode {
	p := &parser{toks: toks}
	return p.parseOr()
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

// acceptOp consumes the next token if it is one of the given operators.
func (p *parser) acceptOp(ops ...string) (string, bool) {
	t := p.peek()
	if t.kind != tokOp {
		return "", false
	}
	for _, op := range ops {
		if t.text == op {
			p.next()
			return op, true
		}
	}
	return "", false
}

// Precedence low to high: || , && , comparison, additive, multiplicative,
// unary, primary.

func (p *parser) parseOr() astNode {
	left := p.parseAnd()
	for {
		if _, ok := p.acceptOp("||"); !ok {
			return left
		}
		left = binaryNode{op: "||", l: left, r: p.parseAnd()}
	}
}

func (p *parser) parseAnd() astNode {
	left := p.parseComparison()
	for {
		if _, ok := p.acceptOp("&&"); !ok {
			return left
		}
		left = binaryNode{op: "&&", l: left, r: p.parseComparison()}
	}
}

func (p *parser) parseComparison() astNode {
	left := p.parseAdditive()
	for {
		op, ok := p.acceptOp(">=", "<=", ">", "<", "==", "!=")
		if !ok {
			return left
		}
		left = binaryNode{op: op, l: left, r: p.parseAdditive()}
	}
}

func (p *parser) parseAdditive() astNode {
	left := p.parseMultiplicative()
	for {
		op, ok := p.acceptOp("+", "-")
		if !ok {
			return left
		}
		left = binaryNode{op: op, l: left, r: p.parseMultiplicative()}
	}
}

func (p *parser) parseMultiplicative() astNode {
	left := p.parseUnary()
	for {
		op, ok := p.acceptOp("*", "/", "%")
		if !ok {
			return left
		}
		left = binaryNode{op: op, l: left, r: p.parseUnary()}
	}
}

func (p *parser) parseUnary() astNode {
	if op, ok := p.acceptOp("!", "-"); ok {
		return unaryNode{op: op, x: p.parseUnary()}
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() astNode {
	switch t := p.peek(); t.kind {
	case tokNumber:
		p.next()
		return litNode{val: Number(t.num)}

	case tokString:
		p.next()
		return litNode{val: String(t.str)}

	case tokBool:
		p.next()
		return litNode{val: Bool(t.b)}

	case tokLParen:
		p.next()
		inner := p.parseOr()
		if p.peek().kind == tokRParen {
			p.next()
		}
		return inner

	case tokIdent:
		p.next()
		if builtins[t.text] && p.peek().kind == tokLParen {
			p.next()
			return callNode{name: t.text, args: p.parseArgs()}
		}
		return identNode{name: t.text}

	default:
		// Missing operand: substitute 0 and consume the stray token so the
		// parser always makes progress.
		p.next()
		return litNode{val: Number(0)}
	}
}

// parseArgs parses a comma-separated argument list up to the closing
// parenthesis (or end of input, for malformed calls).
func (p *parser) parseArgs() []astNode {
	var args []astNode
	if p.peek().kind == tokRParen {
		p.next()
		return args
	}
	for {
		args = append(args, p.parseOr())
		switch p.peek().kind {
		case tokComma:
			p.next()
		case tokRParen:
			p.next()
			return args
		case tokEOF:
			return args
		default:
			p.next()
		}
	}
}
