package lang

import (
	"log/slog"
	"reflect"
	"slices"
	"strings"

	"github.com/sahilm/fuzzy"
)

// Parameter declares a named, typed expression parameter. Value is only
// consulted by [Interpreter.Eval].
type Parameter struct {
	Name  string
	Type  reflect.Type
	Value any
}

// Bound is a type-checked expression tree and the names it references.
type Bound struct {
	Root        Expr
	Params      []Parameter
	ReturnType  reflect.Type
	Identifiers []string // environment identifiers referenced
	Types       []string // type aliases referenced
	UsedParams  []string // declared parameters referenced
}

// scope holds the parameters of one lambda literal.
type scope struct {
	names []string
	types []reflect.Type
}

type nameKind int

const (
	nameUnknown nameKind = iota
	nameLambda
	nameParam
	nameIdent
	nameType
)

type resolution struct {
	kind  nameKind
	name  string // registered spelling
	depth int
	index int
	typ   reflect.Type
	ident Identifier
	desc  *TypeDescriptor
}

// resolveName looks name up in lambda scopes (innermost first), then the
// declared parameters, then environment identifiers, then type aliases.
func resolveName(
	env *Environment,
	params []Parameter,
	scopes []scope,
	name string,
) resolution {
	for i := len(scopes) - 1; i >= 0; i-- {
		for j, n := range scopes[i].names {
			if env.sameName(n, name) {
				r := resolution{
					kind: nameLambda, name: n, depth: len(scopes) - 1 - i, index: j,
				}
				if j < len(scopes[i].types) {
					r.typ = scopes[i].types[j]
				}

				return r
			}
		}
	}

	for j, p := range params {
		if env.sameName(p.Name, name) {
			return resolution{
				kind: nameParam, name: p.Name, depth: len(scopes), index: j, typ: p.Type,
			}
		}
	}

	if id, ok := env.Lookup(name); ok {
		return resolution{kind: nameIdent, name: id.Name(), ident: id}
	}

	if td, ok := env.LookupType(name); ok {
		return resolution{kind: nameType, name: td.Alias, desc: td}
	}

	return resolution{kind: nameUnknown, name: name}
}

func suggest(word string, candidates []string) (string, bool) {
	if m := fuzzy.Find(word, candidates); len(m) > 0 && m[0].Str != word {
		return m[0].Str, true
	}

	return "", false
}

func checkParams(env *Environment, params []Parameter) error {
	for i, p := range params {
		if err := validName(p.Name); err != nil {
			return WrapError(err).With(slog.Int("param", i))
		}

		if p.Type == nil {
			return ErrConfiguration.
				Wrapf("parameter %q has no type", p.Name).
				With(slog.String("param", p.Name))
		}

		for _, q := range params[:i] {
			if env.sameName(p.Name, q.Name) {
				return ErrConfiguration.
					Wrapf("duplicate parameter %q", p.Name).
					With(slog.String("param", p.Name))
			}
		}
	}

	return nil
}

// Bind type-checks root against env and the declared params. A nil
// returnType leaves the result type unconstrained; otherwise the root must
// convert implicitly to returnType.
func Bind(
	env *Environment,
	root Node,
	returnType reflect.Type,
	params ...Parameter,
) (*Bound, error) {
	if err := checkParams(env, params); err != nil {
		return nil, err
	}

	b := &binder{
		env:    env,
		params: params,
		idents: make(map[string]struct{}),
		types:  make(map[string]struct{}),
		used:   make(map[string]struct{}),
	}

	x, err := b.bind(root, returnType)
	if err != nil {
		return nil, err
	}

	if returnType != nil {
		if b.rank(x, returnType) == RankNone {
			return nil, ErrReturnTypeMismatch.
				Wrapf("expression of type %s does not convert to %s",
					typeName(x.Type()), typeName(returnType)).
				With(slog.String("want", typeName(returnType))).
				At(x.Pos())
		}

		if x, err = b.convert(x, returnType); err != nil {
			return nil, err
		}
	}

	return &Bound{
		Root:        x,
		Params:      params,
		ReturnType:  returnType,
		Identifiers: sortedKeys(b.idents),
		Types:       sortedKeys(b.types),
		UsedParams:  sortedKeys(b.used),
	}, nil
}

type binder struct {
	env    *Environment
	params []Parameter
	scopes []scope
	idents map[string]struct{}
	types  map[string]struct{}
	used   map[string]struct{}
}

// lookup resolves name and records what it referenced.
func (b *binder) lookup(name string) resolution {
	r := resolveName(b.env, b.params, b.scopes, name)

	switch r.kind {
	case nameParam:
		b.used[r.name] = struct{}{}
	case nameIdent:
		b.idents[r.name] = struct{}{}
	case nameType:
		b.types[r.name] = struct{}{}
	}

	return r
}

// late reports whether members of t may be resolved when invoked.
func (b *binder) late(t reflect.Type) bool {
	return b.env.settings.LateBinding && t != nil &&
		(t.Kind() == reflect.Interface || t.Implements(memberLookupType))
}

func (b *binder) bind(n Node, hint reflect.Type) (Expr, error) {
	switch n := n.(type) {
	case *Literal:
		if n.Type == nil {
			return &Const{Span: n.Span}, nil
		}

		return &Const{Span: n.Span, Typ: n.Type, Value: reflect.ValueOf(n.Value)}, nil
	case *Ident:
		return b.bindIdent(n)
	case *Member:
		return b.bindMember(n)
	case *Index:
		return b.bindIndex(n)
	case *Unary:
		return b.bindUnary(n)
	case *Binary:
		x, err := b.bind(n.X, nil)
		if err != nil {
			return nil, err
		}

		y, err := b.bind(n.Y, nil)
		if err != nil {
			return nil, err
		}

		return b.binary(n.Op, x, y, n.Span)
	case *Conditional:
		return b.bindConditional(n, hint)
	case *Call:
		return b.bindCall(n)
	case *Assign:
		return b.bindAssign(n)
	case *LambdaLit:
		return b.bindLambda(n, hint)
	}

	return nil, ErrInvalidOperation.Wrapf("unsupported syntax %T", n).At(n.Pos())
}

func (b *binder) bindIdent(n *Ident) (Expr, error) {
	r := b.lookup(n.Name)

	switch r.kind {
	case nameLambda, nameParam:
		return &ParamRef{
			Span:     n.Span,
			Name:     r.name,
			Typ:      r.typ,
			Depth:    r.depth,
			Index:    r.index,
			Declared: r.kind == nameParam,
		}, nil

	case nameIdent:
		switch id := r.ident.(type) {
		case *Variable:
			return &VarRef{Span: n.Span, Var: id}, nil
		case *FunctionSet:
			if t := id.Type(); t != nil {
				return &Const{Span: n.Span, Typ: t, Value: id.Overloads[0].Fn}, nil
			}

			return nil, ErrInvalidOperation.
				Wrapf("function %q has %d overloads and cannot be used as a value",
					id.name, len(id.Overloads)).
				At(n.Span)
		}

	case nameType:
		return nil, ErrInvalidOperation.
			Wrapf("type %q is not an expression", r.name).
			At(n.Span)
	}

	return nil, b.unknownIdentifier(n.Name, n.Span)
}

func (b *binder) unknownIdentifier(name string, span Span) error {
	names := b.env.Names()
	for _, p := range b.params {
		names = append(names, p.Name)
	}

	for _, s := range b.scopes {
		names = append(names, s.names...)
	}

	if s, ok := suggest(name, names); ok {
		return ErrUnknownIdentifier.
			Wrapf("%q (did you mean %q?)", name, s).
			With(slog.String("name", name), slog.String("suggestion", s)).
			At(span)
	}

	return ErrUnknownIdentifier.
		Wrapf("%q", name).
		With(slog.String("name", name)).
		At(span)
}

// aliasReceiver returns the type descriptor named by x when x is a bare
// identifier resolving to a type alias.
func (b *binder) aliasReceiver(x Node) (*TypeDescriptor, bool) {
	id, ok := x.(*Ident)
	if !ok {
		return nil, false
	}

	if r := resolveName(b.env, b.params, b.scopes, id.Name); r.kind == nameType {
		b.types[r.name] = struct{}{}

		return r.desc, true
	}

	return nil, false
}

func (b *binder) bindMember(n *Member) (Expr, error) {
	if td, ok := b.aliasReceiver(n.X); ok {
		return nil, ErrUnknownMember.
			Wrapf("type %s has no static member %q", td.Alias, n.Name).
			With(slog.String("member", n.Name)).
			At(n.NameSpan)
	}

	x, err := b.bind(n.X, nil)
	if err != nil {
		return nil, err
	}

	return b.member(x, n.Name, n.Span, n.NameSpan)
}

func (b *binder) field(st reflect.Type, name string) (reflect.StructField, bool) {
	var (
		f  reflect.StructField
		ok bool
	)

	if b.env.settings.CaseInsensitive {
		f, ok = st.FieldByNameFunc(func(s string) bool {
			return strings.EqualFold(s, name)
		})
	} else {
		f, ok = st.FieldByName(name)
	}

	return f, ok && f.IsExported()
}

// member binds a field, string-keyed map entry or late-bound member of x.
func (b *binder) member(x Expr, name string, span, nameSpan Span) (Expr, error) {
	t := x.Type()
	if t == nil {
		return nil, ErrInvalidOperation.
			Wrapf("member access %q on null", name).
			At(span)
	}

	st := t
	if st.Kind() == reflect.Pointer && st.Elem().Kind() == reflect.Struct {
		st = st.Elem()
	}

	if st.Kind() == reflect.Struct {
		if f, ok := b.field(st, name); ok {
			return &FieldRef{Span: span, X: x, Field: f}, nil
		}
	}

	if t.Kind() == reflect.Map && t.Key().Kind() == reflect.String {
		key := reflect.ValueOf(name).Convert(t.Key())

		return &IndexRef{
			Span:  span,
			X:     x,
			Index: &Const{Span: nameSpan, Typ: t.Key(), Value: key},
			Typ:   t.Elem(),
		}, nil
	}

	if b.late(t) {
		return &DynamicMember{Span: span, X: x, Name: name}, nil
	}

	return nil, b.unknownMember(t, name, nameSpan)
}

func (b *binder) unknownMember(t reflect.Type, name string, span Span) error {
	var names []string

	st := t
	if st.Kind() == reflect.Pointer {
		st = st.Elem()
	}

	if st.Kind() == reflect.Struct {
		for i := range st.NumField() {
			if f := st.Field(i); f.IsExported() {
				names = append(names, f.Name)
			}
		}
	}

	for i := range t.NumMethod() {
		names = append(names, t.Method(i).Name)
	}

	for _, td := range b.env.Types() {
		for _, x := range td.Extensions {
			if implicitRank(t, x.overload.Params[0]) != RankNone {
				names = append(names, x.Name)
			}
		}
	}

	err := ErrUnknownMember.Wrapf("%s has no member %q", typeName(t), name)
	if s, ok := suggest(name, names); ok {
		err = ErrUnknownMember.Wrapf("%s has no member %q (did you mean %q?)",
			typeName(t), name, s)
	}

	return err.
		With(slog.String("type", typeName(t)), slog.String("member", name)).
		At(span)
}

func (b *binder) bindIndex(n *Index) (Expr, error) {
	x, err := b.bind(n.X, nil)
	if err != nil {
		return nil, err
	}

	if len(n.Args) != 1 {
		return nil, ErrInvalidOperation.
			Wrapf("index takes exactly one argument, got %d", len(n.Args)).
			At(n.Span)
	}

	idx, err := b.bind(n.Args[0], nil)
	if err != nil {
		return nil, err
	}

	t := x.Type()

	if b.late(t) && t.Kind() == reflect.Interface {
		return &DynamicIndex{Span: n.Span, X: x, Index: idx}, nil
	}

	if t == nil {
		return nil, ErrInvalidOperation.Wrapf("index of null").At(n.Span)
	}

	var elem reflect.Type

	switch t.Kind() {
	case reflect.Map:
		key, err := b.convert(idx, t.Key())
		if err != nil {
			return nil, err
		}

		return &IndexRef{Span: n.Span, X: x, Index: key, Typ: t.Elem()}, nil
	case reflect.Slice, reflect.Array:
		elem = t.Elem()
	case reflect.String:
		elem = reflect.TypeFor[byte]()
	case reflect.Pointer:
		if t.Elem().Kind() == reflect.Array {
			elem = t.Elem().Elem()
		}
	}

	if elem == nil {
		return nil, ErrInvalidOperation.
			Wrapf("cannot index %s", typeName(t)).
			At(n.Span)
	}

	if !isInteger(idx.Type()) {
		return nil, ErrInvalidOperation.
			Wrapf("index must be an integer, got %s", typeName(idx.Type())).
			At(idx.Pos())
	}

	return &IndexRef{Span: n.Span, X: x, Index: idx, Typ: elem}, nil
}

func (b *binder) bindArguments(nodes []Node) ([]argument, error) {
	args := make([]argument, len(nodes))

	for i, n := range nodes {
		if lam, ok := n.(*LambdaLit); ok {
			args[i] = argument{lambda: lam}

			continue
		}

		x, err := b.bind(n, nil)
		if err != nil {
			return nil, err
		}

		args[i] = argument{expr: x}
	}

	return args, nil
}

func (b *binder) bindCall(n *Call) (Expr, error) {
	args, err := b.bindArguments(n.Args)
	if err != nil {
		return nil, err
	}

	switch fun := n.Fun.(type) {
	case *Ident:
		r := resolveName(b.env, b.params, b.scopes, fun.Name)

		switch r.kind {
		case nameIdent:
			if fs, ok := r.ident.(*FunctionSet); ok {
				b.idents[r.name] = struct{}{}

				return b.funcCall(fs, n.Span, args)
			}
		case nameType:
			b.types[r.name] = struct{}{}

			return b.explicitConvert(r.desc.Type, n.Span, args)
		case nameUnknown:
			return nil, b.unknownIdentifier(fun.Name, fun.Span)
		}

	case *Member:
		if td, ok := b.aliasReceiver(fun.X); ok {
			recv := &Const{
				Span:  fun.X.Pos(),
				Typ:   td.Type,
				Value: reflect.Zero(td.Type),
			}

			return b.methodCall(recv, fun.Name, fun.NameSpan, n.Span, args)
		}

		recv, err := b.bind(fun.X, nil)
		if err != nil {
			return nil, err
		}

		return b.methodCall(recv, fun.Name, fun.NameSpan, n.Span, args)
	}

	fn, err := b.bind(n.Fun, nil)
	if err != nil {
		return nil, err
	}

	return b.valueCall(fn, n.Span, args)
}

func (b *binder) funcCall(fs *FunctionSet, span Span, args []argument) (Expr, error) {
	cands := make([]*candidate, len(fs.Overloads))
	for i, o := range fs.Overloads {
		cands[i] = &candidate{overload: o, method: -1}
	}

	c, err := b.resolve(fs.name, span, cands, args)
	if err != nil {
		return nil, err
	}

	bound, err := b.bindArgs(c, args)
	if err != nil {
		return nil, err
	}

	return &FuncCall{Span: span, Func: fs, Overload: c.overload, Args: bound}, nil
}

func (b *binder) valueCall(fn Expr, span Span, args []argument) (Expr, error) {
	t := fn.Type()

	if t != nil && t.Kind() == reflect.Func {
		o, err := signature(t, 0)
		if err != nil {
			return nil, ErrInvalidOperation.Wrap(err).At(span)
		}

		c, err := b.resolve(fn.String(), span,
			[]*candidate{{overload: o, method: -1}}, args)
		if err != nil {
			return nil, err
		}

		bound, err := b.bindArgs(c, args)
		if err != nil {
			return nil, err
		}

		return &ValueCall{Span: span, Fn: fn, Overload: o, Args: bound}, nil
	}

	if isInterface(t) && b.env.settings.LateBinding {
		bound, err := dynamicArgs(args)
		if err != nil {
			return nil, err
		}

		return &DynamicCall{Span: span, X: fn, Args: bound}, nil
	}

	return nil, ErrInvalidOperation.
		Wrapf("%s (%s) is not callable", fn, typeName(t)).
		At(span)
}

func dynamicArgs(args []argument) ([]Expr, error) {
	out := make([]Expr, len(args))

	for i, a := range args {
		if a.lambda != nil {
			return nil, ErrInvalidOperation.
				Wrapf("lambda argument to a late-bound call").
				At(a.lambda.Span)
		}

		out[i] = a.expr
	}

	return out, nil
}

// methodCandidates collects the instance methods of t named name, including
// pointer-receiver methods of addressable copies.
func (b *binder) methodCandidates(t reflect.Type, name string) []*candidate {
	var cands []*candidate

	add := func(mt reflect.Type, addr bool) {
		skip := 1
		if mt.Kind() == reflect.Interface {
			skip = 0
		}

		for i := range mt.NumMethod() {
			m := mt.Method(i)
			if !b.env.sameName(m.Name, name) {
				continue
			}

			if addr {
				if _, ok := t.MethodByName(m.Name); ok {
					continue
				}
			}

			o, err := signature(m.Type, skip)
			if err != nil {
				continue
			}

			cands = append(cands, &candidate{
				overload: o, method: i, addrRecv: addr, name: m.Name,
			})
		}
	}

	add(t, false)

	if t.Kind() != reflect.Pointer && t.Kind() != reflect.Interface {
		add(reflect.PointerTo(t), true)
	}

	return cands
}

// extensionCandidates collects extension methods named name whose receiver
// accepts t, dropping those that duplicate an instance method signature.
func (b *binder) extensionCandidates(
	t reflect.Type,
	name string,
	inst []*candidate,
) []*candidate {
	var cands []*candidate

	for _, td := range b.env.Types() {
		for _, x := range td.Extensions {
			if !b.env.sameName(x.Name, name) {
				continue
			}

			o := x.overload
			if implicitRank(t, o.Params[0]) == RankNone {
				continue
			}

			eo := &Overload{
				Params:   o.Params[1:],
				Variadic: o.Variadic,
				Result:   o.Result,
				Errors:   o.Errors,
				Fn:       o.Fn,
			}

			if slices.ContainsFunc(inst, func(c *candidate) bool {
				return c.overload.SameSignature(eo)
			}) {
				continue
			}

			cands = append(cands, &candidate{
				overload: eo, method: -1, ext: x, recv: o.Params[0], name: x.Name,
			})
		}
	}

	return cands
}

func (b *binder) methodCall(
	recv Expr,
	name string,
	nameSpan, span Span,
	args []argument,
) (Expr, error) {
	t := recv.Type()
	if t == nil {
		return nil, ErrInvalidOperation.
			Wrapf("method call %q on null", name).
			At(span)
	}

	inst := b.methodCandidates(t, name)
	cands := append(inst, b.extensionCandidates(t, name, inst)...)

	if len(cands) == 0 {
		// Func-valued fields and map entries are called like methods.
		if fn, err := b.member(recv, name, nameSpan, nameSpan); err == nil {
			if ft := fn.Type(); ft.Kind() == reflect.Func {
				return b.valueCall(fn, span, args)
			}
		}

		if b.late(t) {
			bound, err := dynamicArgs(args)
			if err != nil {
				return nil, err
			}

			return &DynamicCall{Span: span, X: recv, Name: name, Args: bound}, nil
		}

		return nil, b.unknownMember(t, name, nameSpan)
	}

	c, err := b.resolve(typeName(t)+"."+name, span, cands, args)
	if err != nil {
		return nil, err
	}

	bound, err := b.bindArgs(c, args)
	if err != nil {
		return nil, err
	}

	call := &MethodCall{
		Span:     span,
		Recv:     recv,
		Name:     c.name,
		Method:   c.method,
		AddrRecv: c.addrRecv,
		Overload: c.overload,
		Args:     bound,
	}

	if c.ext != nil {
		if call.Recv, err = b.convert(recv, c.recv); err != nil {
			return nil, err
		}
	}

	return call, nil
}

func (b *binder) explicitConvert(
	to reflect.Type,
	span Span,
	args []argument,
) (Expr, error) {
	if len(args) != 1 || args[0].lambda != nil {
		return nil, ErrInvalidConversion.
			Wrapf("conversion to %s takes exactly one value", typeName(to)).
			At(span)
	}

	x := args[0].expr
	from := x.Type()

	if from != nil {
		if o, ok := b.env.conversion(from, to); ok {
			return &Convert{Span: span, X: x, Typ: to, User: o, Explicit: true}, nil
		}
	}

	if !explicitConvertible(from, to) {
		return nil, ErrInvalidConversion.
			Wrapf("cannot convert %s (%s) to %s", x, typeName(from), typeName(to)).
			At(span)
	}

	if from == to {
		return x, nil
	}

	if c, ok := x.(*Const); ok {
		if v, err := convertValue(c.Value, to); err == nil {
			return &Const{Span: span, Typ: to, Value: v}, nil
		}
	}

	return &Convert{Span: span, X: x, Typ: to, Explicit: true}, nil
}

// rank ranks the implicit conversion of x to type to.
func (b *binder) rank(x Expr, to reflect.Type) Rank {
	from := x.Type()

	if r := implicitRank(from, to); r != RankNone {
		return r
	}

	if c, ok := x.(*Const); ok && constFits(c.Value, to) {
		return RankWidening
	}

	if from != nil {
		if _, ok := b.env.conversion(from, to); ok {
			return RankUser
		}
	}

	if isInterface(from) && b.env.settings.LateBinding {
		return RankDynamic
	}

	return RankNone
}

// convert wraps x in an implicit conversion to type to.
func (b *binder) convert(x Expr, to reflect.Type) (Expr, error) {
	switch b.rank(x, to) {
	case RankExact:
		return x, nil
	case RankNone:
		return nil, ErrInvalidConversion.
			Wrapf("cannot use %s (%s) as %s", x, typeName(x.Type()), typeName(to)).
			With(slog.String("from", typeName(x.Type())),
				slog.String("to", typeName(to))).
			At(x.Pos())
	case RankUser:
		if implicitRank(x.Type(), to) == RankNone {
			o, _ := b.env.conversion(x.Type(), to)

			return &Convert{Span: x.Pos(), X: x, Typ: to, User: o}, nil
		}
	}

	if c, ok := x.(*Const); ok {
		if v, err := convertValue(c.Value, to); err == nil {
			return &Const{Span: c.Span, Typ: to, Value: v}, nil
		}
	}

	return &Convert{Span: x.Pos(), X: x, Typ: to}, nil
}

func (b *binder) bindConditional(n *Conditional, hint reflect.Type) (Expr, error) {
	test, err := b.bind(n.Cond, nil)
	if err != nil {
		return nil, err
	}

	if test, err = b.convert(test, boolType); err != nil {
		return nil, err
	}

	then, err := b.bind(n.Then, hint)
	if err != nil {
		return nil, err
	}

	els, err := b.bind(n.Else, hint)
	if err != nil {
		return nil, err
	}

	tt, et := then.Type(), els.Type()

	var typ reflect.Type

	switch {
	case tt == et:
		typ = tt
	case tt == nil && nillable(et):
		typ = et
	case et == nil && nillable(tt):
		typ = tt
	default:
		if ct, ok := b.common(then, els); ok {
			typ = ct
		} else if b.rank(then, et) != RankNone && b.rank(then, et) != RankDynamic {
			typ = et
		} else if b.rank(els, tt) != RankNone && b.rank(els, tt) != RankDynamic {
			typ = tt
		} else {
			return nil, ErrInvalidOperation.
				Wrapf("conditional branches have mismatched types %s and %s",
					typeName(tt), typeName(et)).
				At(n.Span)
		}
	}

	if typ != nil {
		if then, err = b.convert(then, typ); err != nil {
			return nil, err
		}

		if els, err = b.convert(els, typ); err != nil {
			return nil, err
		}
	}

	return &Cond{Span: n.Span, Test: test, Then: then, Else: els, Typ: typ}, nil
}

func (b *binder) bindAssign(n *Assign) (Expr, error) {
	target, err := b.bind(n.Target, nil)
	if err != nil {
		return nil, err
	}

	if !assignable(target) {
		return nil, ErrNotAssignable.
			Wrapf("cannot assign to %s", target).
			At(target.Pos())
	}

	value, err := b.bind(n.Value, target.Type())
	if err != nil {
		return nil, err
	}

	if n.Op != "=" {
		value, err = b.binary(strings.TrimSuffix(n.Op, "="), target, value, n.Span)
		if err != nil {
			return nil, err
		}
	}

	if value, err = b.convert(value, target.Type()); err != nil {
		return nil, err
	}

	return &AssignOp{Span: n.Span, Op: n.Op, Target: target, Value: value}, nil
}

// assignable reports whether e denotes a storage location.
func assignable(e Expr) bool {
	if x, ok := e.(*IndexRef); ok && x.X.Type().Kind() == reflect.Map {
		return true
	}

	return addressable(e)
}

func addressable(e Expr) bool {
	switch e := e.(type) {
	case *ParamRef:
		return true
	case *FieldRef:
		return e.X.Type().Kind() == reflect.Pointer || addressable(e.X)
	case *IndexRef:
		switch e.X.Type().Kind() {
		case reflect.Slice, reflect.Pointer:
			return true
		case reflect.Array:
			return addressable(e.X)
		}
	}

	return false
}

func (b *binder) bindLambda(n *LambdaLit, target reflect.Type) (Expr, error) {
	if target == nil || target.Kind() != reflect.Func ||
		target.NumIn() != len(n.Params) {
		want := "unknown"
		if target != nil {
			want = typeName(target)
		}

		return nil, ErrInvalidOperation.
			Wrapf("cannot infer lambda parameter types (target %s)", want).
			At(n.Span)
	}

	s := scope{
		names: make([]string, len(n.Params)),
		types: make([]reflect.Type, len(n.Params)),
	}

	for i, p := range n.Params {
		if slices.Contains(s.names[:i], p.Name) {
			return nil, ErrInvalidOperation.
				Wrapf("duplicate lambda parameter %q", p.Name).
				At(p.Span)
		}

		s.names[i] = p.Name
		s.types[i] = target.In(i)
	}

	b.scopes = append(b.scopes, s)
	defer func() { b.scopes = b.scopes[:len(b.scopes)-1] }()

	var out reflect.Type
	if target.NumOut() > 0 {
		out = target.Out(0)
	}

	body, err := b.bind(n.Body, out)
	if err != nil {
		return nil, err
	}

	if out != nil {
		if body, err = b.convert(body, out); err != nil {
			return nil, err
		}
	}

	return &Lambda{Span: n.Span, Params: s.names, Body: body, Typ: target}, nil
}
