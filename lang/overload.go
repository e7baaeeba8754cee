package lang

import (
	"log/slog"
	"reflect"
	"strings"
)

// signature builds an overload from a func type, skipping the first skip
// parameters (a method receiver).
func signature(t reflect.Type, skip int) (*Overload, error) {
	o := &Overload{Variadic: t.IsVariadic()}

	for i := skip; i < t.NumIn(); i++ {
		o.Params = append(o.Params, t.In(i))
	}

	switch t.NumOut() {
	case 0:
	case 1:
		if t.Out(0) == errorType {
			o.Errors = true
		} else {
			o.Result = t.Out(0)
		}
	case 2:
		if t.Out(1) != errorType {
			return nil, ErrConfiguration.Wrapf("second result of %s must be error", t)
		}

		o.Result = t.Out(0)
		o.Errors = true
	default:
		return nil, ErrConfiguration.Wrapf("%s returns too many results", t)
	}

	return o, nil
}

// argument is a call argument that is either bound or a lambda literal
// waiting for its target type.
type argument struct {
	expr   Expr
	lambda *LambdaLit
}

func (a argument) pos() Span {
	if a.lambda != nil {
		return a.lambda.Span
	}

	return a.expr.Pos()
}

func (a argument) typeName() string {
	if a.lambda != nil {
		return "lambda"
	}

	return typeName(a.expr.Type())
}

// candidate is an overload checked against a particular argument list.
type candidate struct {
	overload *Overload
	params   []reflect.Type // parameter type per argument
	ranks    []Rank
	expanded bool // variadic arguments passed individually

	// set for member calls
	name     string
	method   int
	addrRecv bool
	ext      *Extension
	recv     reflect.Type // receiver parameter type of extensions
}

// paramsAt returns the parameter type of each argument position, for the
// normal or expanded form of o.
func paramsAt(o *Overload, n int, expanded bool) ([]reflect.Type, bool) {
	if !o.Variadic || !expanded {
		if n != len(o.Params) {
			return nil, false
		}

		return o.Params, true
	}

	fixed := len(o.Params) - 1
	if n < fixed {
		return nil, false
	}

	out := make([]reflect.Type, n)
	copy(out, o.Params[:fixed])

	elem := o.Params[fixed].Elem()
	for i := fixed; i < n; i++ {
		out[i] = elem
	}

	return out, true
}

// applicable ranks args against c.overload, filling c.params and c.ranks.
func (b *binder) applicable(c *candidate, args []argument) bool {
	params, ok := paramsAt(c.overload, len(args), c.expanded)
	if !ok {
		return false
	}

	c.params = params
	c.ranks = make([]Rank, len(args))

	for i, a := range args {
		if a.lambda != nil {
			p := params[i]
			if p.Kind() != reflect.Func || p.NumIn() != len(a.lambda.Params) {
				return false
			}

			c.ranks[i] = RankExact

			continue
		}

		c.ranks[i] = b.rank(a.expr, params[i])
		if c.ranks[i] == RankNone {
			return false
		}
	}

	return true
}

// better reports whether c is a better function member than d: no argument
// converts worse and at least one converts better. Equal ranks never count
// as an improvement, so candidates that tie on every argument are
// ambiguous.
func better(c, d *candidate) bool {
	improved := false

	for i := range c.ranks {
		switch {
		case c.ranks[i] < d.ranks[i]:
			improved = true
		case c.ranks[i] > d.ranks[i]:
			return false
		}
	}

	return improved
}

// resolve selects the unique best applicable candidate.
func (b *binder) resolve(
	name string,
	span Span,
	cands []*candidate,
	args []argument,
) (*candidate, error) {
	var ok []*candidate

	for _, c := range cands {
		if b.applicable(c, args) {
			ok = append(ok, c)

			continue
		}

		// Try the expanded form of variadic overloads whose normal form
		// did not match.
		if c.overload.Variadic && !c.expanded {
			x := *c
			x.expanded = true

			if b.applicable(&x, args) {
				ok = append(ok, &x)
			}
		}
	}

	argTypes := make([]string, len(args))
	for i, a := range args {
		argTypes[i] = a.typeName()
	}

	list := strings.Join(argTypes, ", ")

	if len(ok) == 0 {
		return nil, ErrNoApplicableOverload.
			Wrapf("no overload of %s accepts (%s)", name, list).
			With(slog.String("name", name), slog.Int("candidates", len(cands))).
			At(span)
	}

	for _, c := range ok {
		best := true

		for _, d := range ok {
			if c != d && !better(c, d) {
				best = false

				break
			}
		}

		if best {
			return c, nil
		}
	}

	sigs := make([]string, 0, len(ok))
	for _, c := range ok {
		sigs = append(sigs, name+c.overload.String())
	}

	return nil, ErrAmbiguousOverload.
		Wrapf("call %s(%s) is ambiguous between %s",
			name, list, strings.Join(sigs, " and ")).
		With(slog.String("name", name), slog.Int("matches", len(ok))).
		At(span)
}

// bindArgs converts each argument to the parameter type selected by c,
// binding lambda literals against their target func types, and packs the
// expanded variadic arguments into a slice.
func (b *binder) bindArgs(c *candidate, args []argument) ([]Expr, error) {
	out := make([]Expr, len(args))

	for i, a := range args {
		if a.lambda != nil {
			lam, err := b.bindLambda(a.lambda, c.params[i])
			if err != nil {
				return nil, err
			}

			out[i] = lam

			continue
		}

		x, err := b.convert(a.expr, c.params[i])
		if err != nil {
			return nil, err
		}

		out[i] = x
	}

	if !c.overload.Variadic {
		return out, nil
	}

	fixed := len(c.overload.Params) - 1
	if !c.expanded {
		return out, nil
	}

	pack := &sliceLit{
		Typ:   c.overload.Params[fixed],
		Elems: out[fixed:],
	}

	if len(out) > fixed {
		pack.Span = out[fixed].Pos().To(out[len(out)-1].Pos())
	}

	return append(out[:fixed:fixed], pack), nil
}

// sliceLit packs expanded variadic arguments.
type sliceLit struct {
	Span  Span
	Typ   reflect.Type
	Elems []Expr
}

func (e *sliceLit) Pos() Span          { return e.Span }
func (e *sliceLit) Type() reflect.Type { return e.Typ }
func (e *sliceLit) String() string     { return joinExprs(e.Elems) }
