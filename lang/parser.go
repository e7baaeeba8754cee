package lang

import (
	"log/slog"
	"math"
	"math/bits"
	"reflect"
	"slices"
)

// Grammar holds the settings that change what the parser accepts.
type Grammar struct {
	DefaultNumber NumberType
	Assignment    AssignmentOperators
	Lambdas       bool
	MaxDepth      int
}

// binaryLevels lists infix operators from lowest to highest precedence.
var binaryLevels = [][]string{
	{"||"},
	{"&&"},
	{"|"},
	{"^"},
	{"&"},
	{"==", "!="},
	{"<", ">", "<=", ">="},
	{"<<", ">>"},
	{"+", "-"},
	{"*", "/", "%"},
}

// ParseSyntax parses expression text into an unbound syntax tree.
func ParseSyntax(text string, g Grammar) (Node, error) {
	tokens, err := NewLexer(text).Tokens()
	if err != nil {
		return nil, withSource(err, text)
	}

	if g.MaxDepth < 1 {
		g.MaxDepth = DefaultMaxDepth
	}

	p := &parser{tokens: tokens, grammar: g}

	node, err := p.parseExpression()
	if err != nil {
		return nil, withSource(err, text)
	}

	if tok := p.peek(); tok.Kind != TokenEOF {
		return nil, withSource(p.unexpected("end of input"), text)
	}

	return node, nil
}

// parser holds the parser state.
type parser struct {
	tokens  []Token
	pos     int
	depth   int
	grammar Grammar
}

func (p *parser) peek() Token { return p.peekN(0) }

func (p *parser) peekN(n int) Token {
	if p.pos+n < len(p.tokens) {
		return p.tokens[p.pos+n]
	}

	return p.tokens[len(p.tokens)-1]
}

func (p *parser) advance() Token {
	tok := p.peek()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}

	return tok
}

func (p *parser) accept(s string) bool {
	if p.peek().Kind == TokenPunct && p.peek().Text == s {
		p.advance()

		return true
	}

	return false
}

func (p *parser) expect(s string) (Token, error) {
	tok := p.peek()
	if tok.Kind != TokenPunct || tok.Text != s {
		return tok, p.unexpected(`"` + s + `"`)
	}

	return p.advance(), nil
}

func (p *parser) unexpected(want string) *Error {
	tok := p.peek()

	return ErrSyntax.
		Wrapf("expected %s, found %s", want, tok).
		With(slog.String("expected", want), slog.String("found", tok.Text)).
		At(tok.Span)
}

func (p *parser) enter() error {
	p.depth++
	if p.depth > p.grammar.MaxDepth {
		return ErrSyntax.
			Wrapf("expression nesting exceeds %d", p.grammar.MaxDepth).
			At(p.peek().Span)
	}

	return nil
}

func (p *parser) leave() { p.depth-- }

// parseExpression parses: Lambda | Conditional [AssignOp Expression].
func (p *parser) parseExpression() (Node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	if n := p.lambdaArity(); n >= 0 {
		return p.parseLambda(n)
	}

	target, err := p.parseConditional()
	if err != nil {
		return nil, err
	}

	tok := p.peek()
	if tok.Kind != TokenPunct || !isAssignOp(tok.Text) {
		return target, nil
	}

	if !p.grammar.Assignment.Allows(tok.Text) {
		return nil, ErrSyntax.
			Wrapf("assignment operator %q is not enabled", tok.Text).
			With(slog.String("operator", tok.Text)).
			At(tok.Span)
	}

	p.advance()

	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	return &Assign{
		Span:   target.Pos().To(value.Pos()),
		Op:     tok.Text,
		Target: target,
		Value:  value,
	}, nil
}

// lambdaArity reports the parameter count of a lambda literal starting at the
// current token, or -1 if none starts here.
func (p *parser) lambdaArity() int {
	if p.peek().Kind == TokenIdent && p.peekN(1).Is("=>") {
		return 1
	}

	if !p.peek().Is("(") {
		return -1
	}

	if p.peekN(1).Is(")") {
		if p.peekN(2).Is("=>") {
			return 0
		}

		return -1
	}

	for i, n := 1, 1; ; i, n = i+2, n+1 {
		if p.peekN(i).Kind != TokenIdent {
			return -1
		}

		switch next := p.peekN(i + 1); {
		case next.Is(","):
			continue
		case next.Is(")") && p.peekN(i+2).Is("=>"):
			return n
		default:
			return -1
		}
	}
}

func (p *parser) parseLambda(arity int) (Node, error) {
	start := p.peek().Span

	if !p.grammar.Lambdas {
		return nil, ErrSyntax.
			Wrapf("lambda expressions are not enabled").
			At(start)
	}

	params := make([]*Ident, 0, arity)

	if p.peek().Kind == TokenIdent {
		tok := p.advance()
		params = append(params, &Ident{Span: tok.Span, Name: tok.Text})
	} else {
		p.advance() // (

		for range arity {
			tok := p.advance()
			params = append(params, &Ident{Span: tok.Span, Name: tok.Text})

			p.accept(",")
		}

		p.advance() // )
	}

	for _, a := range params {
		if IsKeyword(a.Name) {
			return nil, ErrSyntax.
				Wrapf("reserved keyword %q used as lambda parameter", a.Name).
				At(a.Span)
		}
	}

	if _, err := p.expect("=>"); err != nil {
		return nil, err
	}

	body, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	return &LambdaLit{
		Span:   start.To(body.Pos()),
		Params: params,
		Body:   body,
	}, nil
}

// parseConditional parses: Binary ['?' Expression ':' Expression].
func (p *parser) parseConditional() (Node, error) {
	cond, err := p.parseBinary(0)
	if err != nil {
		return nil, err
	}

	if !p.accept("?") {
		return cond, nil
	}

	then, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(":"); err != nil {
		return nil, err
	}

	els, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	return &Conditional{
		Span: cond.Pos().To(els.Pos()),
		Cond: cond,
		Then: then,
		Else: els,
	}, nil
}

// parseBinary parses left-associative infix operators at or above level.
func (p *parser) parseBinary(level int) (Node, error) {
	if level == len(binaryLevels) {
		return p.parseUnary()
	}

	x, err := p.parseBinary(level + 1)
	if err != nil {
		return nil, err
	}

	for {
		tok := p.peek()
		if tok.Kind != TokenPunct || !slices.Contains(binaryLevels[level], tok.Text) {
			return x, nil
		}

		p.advance()

		y, err := p.parseBinary(level + 1)
		if err != nil {
			return nil, err
		}

		x = &Binary{Span: x.Pos().To(y.Pos()), Op: tok.Text, X: x, Y: y}
	}
}

// parseUnary parses: ('-' | '+' | '!' | '~') Unary | Postfix.
func (p *parser) parseUnary() (Node, error) {
	tok := p.peek()
	if tok.Kind != TokenPunct {
		return p.parsePostfix()
	}

	switch tok.Text {
	case "-", "+", "!", "~":
	default:
		return p.parsePostfix()
	}

	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	p.advance()

	// Negative integer literals are folded so the most negative value of each
	// signed type can be written directly.
	if next := p.peek(); tok.Text == "-" && next.Kind == TokenInt &&
		(next.Suffix == SuffixNone || next.Suffix == SuffixLong) &&
		!isPostfixStart(p.peekN(1)) {
		p.advance()

		lit, err := p.intLiteral(next, true)
		if err != nil {
			return nil, err
		}

		lit.Span = tok.Span.To(next.Span)

		return lit, nil
	}

	x, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	return &Unary{Span: tok.Span.To(x.Pos()), Op: tok.Text, X: x}, nil
}

func isPostfixStart(tok Token) bool {
	return tok.Is(".") || tok.Is("[") || tok.Is("(")
}

// parsePostfix parses: Primary ('.' Ident | '[' Args ']' | '(' Args ')')*.
func (p *parser) parsePostfix() (Node, error) {
	x, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		switch tok := p.peek(); {
		case tok.Is("."):
			p.advance()

			name := p.peek()
			if name.Kind != TokenIdent {
				return nil, p.unexpected("member name")
			}

			p.advance()

			x = &Member{
				Span:     x.Pos().To(name.Span),
				X:        x,
				Name:     name.Text,
				NameSpan: name.Span,
			}

		case tok.Is("["):
			p.advance()

			args, end, err := p.parseArgs("]")
			if err != nil {
				return nil, err
			}

			if len(args) == 0 {
				return nil, ErrSyntax.Wrapf("empty index expression").At(tok.Span.To(end))
			}

			x = &Index{Span: x.Pos().To(end), X: x, Args: args}

		case tok.Is("("):
			p.advance()

			args, end, err := p.parseArgs(")")
			if err != nil {
				return nil, err
			}

			x = &Call{Span: x.Pos().To(end), Fun: x, Args: args}

		default:
			return x, nil
		}
	}
}

// parseArgs parses a comma-separated list terminated by closer, returning
// the span of the closing token.
func (p *parser) parseArgs(closer string) ([]Node, Span, error) {
	var args []Node

	if tok := p.peek(); tok.Is(closer) {
		p.advance()

		return args, tok.Span, nil
	}

	for {
		arg, err := p.parseExpression()
		if err != nil {
			return nil, Span{}, err
		}

		args = append(args, arg)

		if p.accept(",") {
			continue
		}

		tok, err := p.expect(closer)
		if err != nil {
			return nil, Span{}, err
		}

		return args, tok.Span, nil
	}
}

// parsePrimary parses literals, identifiers and parenthesized expressions.
func (p *parser) parsePrimary() (Node, error) {
	tok := p.peek()

	switch tok.Kind {
	case TokenInt:
		p.advance()

		return p.intLiteral(tok, false)

	case TokenReal:
		p.advance()

		return p.realLiteral(tok), nil

	case TokenString, TokenChar:
		p.advance()

		return &Literal{
			Span:  tok.Span,
			Type:  reflect.TypeOf(tok.Value),
			Value: tok.Value,
		}, nil

	case TokenIdent:
		p.advance()

		switch tok.Text {
		case "true", "false":
			return &Literal{
				Span:  tok.Span,
				Type:  reflect.TypeFor[bool](),
				Value: tok.Text == "true",
			}, nil
		case "null":
			return &Literal{Span: tok.Span}, nil
		}

		if IsKeyword(tok.Text) {
			return nil, ErrSyntax.
				Wrapf("unexpected reserved keyword %q", tok.Text).
				At(tok.Span)
		}

		return &Ident{Span: tok.Span, Name: tok.Text}, nil

	case TokenPunct:
		if tok.Text == "(" {
			p.advance()

			x, err := p.parseExpression()
			if err != nil {
				return nil, err
			}

			if _, err := p.expect(")"); err != nil {
				return nil, err
			}

			return x, nil
		}
	}

	return nil, p.unexpected("expression")
}

// intLiteral types an integer token, negating its magnitude when neg is set.
func (p *parser) intLiteral(tok Token, neg bool) (*Literal, error) {
	u, _ := tok.Value.(uint64)

	overflow := func(typ string) (*Literal, error) {
		return nil, ErrSyntax.
			Wrapf("integer literal %s overflows %s", tok.Text, typ).
			At(tok.Span)
	}

	var v any

	switch tok.Suffix {
	case SuffixUnsigned:
		if bits.UintSize == 32 && u > math.MaxUint32 {
			return overflow("uint")
		}

		v = uint(u)

	case SuffixULong:
		v = u

	case SuffixLong:
		if !fitsInt64(u, neg) {
			return overflow("long")
		}

		v = signed64(u, neg)

	default:
		switch p.grammar.DefaultNumber {
		case NumberSingle:
			v = float32(signedFloat(u, neg))
		case NumberDouble:
			v = signedFloat(u, neg)
		case NumberLong:
			switch {
			case fitsInt64(u, neg):
				v = signed64(u, neg)
			case !neg:
				v = u
			default:
				return overflow("long")
			}
		default:
			switch {
			case fitsInt(u, neg):
				v = int(signed64(u, neg))
			case fitsInt64(u, neg):
				v = signed64(u, neg)
			case !neg:
				v = u
			default:
				return overflow("int")
			}
		}
	}

	return &Literal{Span: tok.Span, Type: reflect.TypeOf(v), Value: v}, nil
}

func (p *parser) realLiteral(tok Token) *Literal {
	f, _ := tok.Value.(float64)

	var v any = f

	switch tok.Suffix {
	case SuffixFloat:
		v = float32(f)
	case SuffixDouble:
	default:
		if p.grammar.DefaultNumber == NumberSingle {
			v = float32(f)
		}
	}

	return &Literal{Span: tok.Span, Type: reflect.TypeOf(v), Value: v}
}

func signed64(u uint64, neg bool) int64 {
	v := int64(u) //nolint:gosec // wraps to MinInt64 only when neg is set
	if neg {
		v = -v
	}

	return v
}

func signedFloat(u uint64, neg bool) float64 {
	if neg {
		return -float64(u)
	}

	return float64(u)
}
