package lang

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
)

// frame holds the parameter slots of one invocation (the outermost frame)
// or one lambda call. Slots are addressable so parameters can be assigned.
type frame struct {
	slots  []reflect.Value
	parent *frame
}

func (f *frame) up(depth int) *frame {
	for ; depth > 0; depth-- {
		f = f.parent
	}

	return f
}

func newFrame(types []reflect.Type, values []reflect.Value, parent *frame) *frame {
	f := &frame{slots: make([]reflect.Value, len(types)), parent: parent}

	for i, t := range types {
		s := reflect.New(t).Elem()
		if values[i].IsValid() {
			s.Set(values[i])
		}

		f.slots[i] = s
	}

	return f
}

type evalFunc func(*frame) (reflect.Value, error)

// lambdaPanic carries an evaluation error out of a lambda through the host
// function that called it. [Overload.invoke] turns it back into an error.
type lambdaPanic struct{ err error }

// compiler turns a bound tree into evaluation closures.
type compiler struct {
	settings Settings
	guard    *guard // checks guarded late-bound nodes

	// mutates is set when the tree assigns, so reads of storage locations
	// are copied instead of aliasing the slot.
	mutates bool
}

func newCompiler(settings Settings, g *guard, root Expr) *compiler {
	c := &compiler{settings: settings, guard: g}

	Walk(root, func(x Expr) bool {
		if _, ok := x.(*AssignOp); ok {
			c.mutates = true
		}

		return !c.mutates
	})

	return c
}

func (c *compiler) dynamic(guarded bool) dynamic {
	d := dynamic{insensitive: c.settings.CaseInsensitive}

	if guarded {
		d.guard = c.guard
		if d.guard == nil {
			d.guard = newGuard(DefaultReflectiveMembers)
		}
	}

	return d
}

// fail attaches the span of the failing node to errors that have none.
func fail(err error, span Span) error {
	var e *Error
	if !errors.As(err, &e) {
		return ErrInvocation.Wrap(err).At(span)
	}

	if _, ok := e.Span(); ok {
		return err
	}

	return e.At(span)
}

func (c *compiler) read(fn evalFunc) evalFunc {
	if !c.mutates {
		return fn
	}

	return func(f *frame) (reflect.Value, error) {
		v, err := fn(f)
		if err != nil || !v.IsValid() {
			return v, err
		}

		cp := reflect.New(v.Type()).Elem()
		cp.Set(v)

		return cp, nil
	}
}

func (c *compiler) exprs(xs []Expr) ([]evalFunc, error) {
	fns := make([]evalFunc, len(xs))

	for i, x := range xs {
		fn, err := c.expr(x)
		if err != nil {
			return nil, err
		}

		fns[i] = fn
	}

	return fns, nil
}

func evalAll(f *frame, fns []evalFunc) ([]reflect.Value, error) {
	vs := make([]reflect.Value, len(fns))

	for i, fn := range fns {
		v, err := fn(f)
		if err != nil {
			return nil, err
		}

		vs[i] = v
	}

	return vs, nil
}

// args evaluates call arguments and converts each to its parameter type.
func callArgs(f *frame, fns []evalFunc, params []reflect.Type) ([]reflect.Value, error) {
	vs, err := evalAll(f, fns)
	if err != nil {
		return nil, err
	}

	for i, v := range vs {
		if i >= len(params) {
			break
		}

		if !v.IsValid() || v.Type() != params[i] {
			if vs[i], err = convertValue(v, params[i]); err != nil {
				return nil, err
			}
		}
	}

	return vs, nil
}

//nolint:gocyclo,cyclop,funlen // one case per node type
func (c *compiler) expr(x Expr) (evalFunc, error) {
	switch x := x.(type) {
	case *Const:
		v := x.Value

		return func(*frame) (reflect.Value, error) { return v, nil }, nil

	case *ParamRef:
		depth, index := x.Depth, x.Index

		return c.read(func(f *frame) (reflect.Value, error) {
			return f.up(depth).slots[index], nil
		}), nil

	case *VarRef:
		if o := x.Var.getter; o != nil {
			span := x.Span

			return func(*frame) (reflect.Value, error) {
				v, err := o.call(nil)
				if err != nil {
					return reflect.Value{}, fail(err, span)
				}

				return v, nil
			}, nil
		}

		v := x.Var.value

		return func(*frame) (reflect.Value, error) { return v, nil }, nil

	case *FieldRef:
		return c.fieldRef(x)

	case *IndexRef:
		return c.indexRef(x)

	case *MethodCall:
		return c.methodCall(x)

	case *FuncCall:
		args, err := c.exprs(x.Args)
		if err != nil {
			return nil, err
		}

		o, span := x.Overload, x.Span

		return func(f *frame) (reflect.Value, error) {
			in, err := callArgs(f, args, o.Params)
			if err != nil {
				return reflect.Value{}, err
			}

			v, err := o.call(in)
			if err != nil {
				return reflect.Value{}, fail(err, span)
			}

			return v, nil
		}, nil

	case *ValueCall:
		fn, err := c.expr(x.Fn)
		if err != nil {
			return nil, err
		}

		args, err := c.exprs(x.Args)
		if err != nil {
			return nil, err
		}

		o, span := x.Overload, x.Span

		return func(f *frame) (reflect.Value, error) {
			fv, err := fn(f)
			if err != nil {
				return reflect.Value{}, err
			}

			fv = unwrap(fv)
			if isNilValue(fv) {
				return reflect.Value{}, ErrInvocation.Wrapf("call of null function").At(span)
			}

			in, err := callArgs(f, args, o.Params)
			if err != nil {
				return reflect.Value{}, err
			}

			v, err := o.invoke(fv, in)
			if err != nil {
				return reflect.Value{}, fail(err, span)
			}

			return v, nil
		}, nil

	case *Convert:
		return c.convert(x)

	case *UnaryOp:
		xf, err := c.expr(x.X)
		if err != nil {
			return nil, err
		}

		op, t, span := x.Op, x.Type(), x.Span

		return func(f *frame) (reflect.Value, error) {
			v, err := xf(f)
			if err != nil {
				return reflect.Value{}, err
			}

			r, err := unaryOp(op, unwrap(v), t)
			if err != nil {
				return reflect.Value{}, fail(err, span)
			}

			return r, nil
		}, nil

	case *BinaryOp:
		return c.binaryOp(x)

	case *Cond:
		test, err := c.expr(x.Test)
		if err != nil {
			return nil, err
		}

		then, err := c.expr(x.Then)
		if err != nil {
			return nil, err
		}

		els, err := c.expr(x.Else)
		if err != nil {
			return nil, err
		}

		return func(f *frame) (reflect.Value, error) {
			t, err := test(f)
			if err != nil {
				return reflect.Value{}, err
			}

			if unwrap(t).Bool() {
				return then(f)
			}

			return els(f)
		}, nil

	case *AssignOp:
		return c.assign(x)

	case *Lambda:
		return c.lambda(x)

	case *DynamicMember:
		xf, err := c.expr(x.X)
		if err != nil {
			return nil, err
		}

		d, name, span := c.dynamic(x.Guarded), x.Name, x.Span

		return func(f *frame) (reflect.Value, error) {
			v, err := xf(f)
			if err != nil {
				return reflect.Value{}, err
			}

			r, err := d.member(v, name)
			if err != nil {
				return reflect.Value{}, fail(err, span)
			}

			return r, nil
		}, nil

	case *DynamicCall:
		xf, err := c.expr(x.X)
		if err != nil {
			return nil, err
		}

		args, err := c.exprs(x.Args)
		if err != nil {
			return nil, err
		}

		d, name, span := c.dynamic(x.Guarded), x.Name, x.Span

		return func(f *frame) (reflect.Value, error) {
			v, err := xf(f)
			if err != nil {
				return reflect.Value{}, err
			}

			in, err := evalAll(f, args)
			if err != nil {
				return reflect.Value{}, err
			}

			r, err := d.call(v, name, in)
			if err != nil {
				return reflect.Value{}, fail(err, span)
			}

			return r, nil
		}, nil

	case *DynamicIndex:
		xf, err := c.expr(x.X)
		if err != nil {
			return nil, err
		}

		idx, err := c.expr(x.Index)
		if err != nil {
			return nil, err
		}

		d, span := c.dynamic(x.Guarded), x.Span

		return func(f *frame) (reflect.Value, error) {
			v, err := xf(f)
			if err != nil {
				return reflect.Value{}, err
			}

			i, err := idx(f)
			if err != nil {
				return reflect.Value{}, err
			}

			r, err := d.index(v, i)
			if err != nil {
				return reflect.Value{}, fail(err, span)
			}

			return r, nil
		}, nil

	case *DynamicOp:
		return c.dynamicOp(x)

	case *sliceLit:
		elems, err := c.exprs(x.Elems)
		if err != nil {
			return nil, err
		}

		t := x.Typ

		return func(f *frame) (reflect.Value, error) {
			s := reflect.MakeSlice(t, 0, len(elems))

			for _, e := range elems {
				v, err := e(f)
				if err != nil {
					return reflect.Value{}, err
				}

				if v, err = convertValue(v, t.Elem()); err != nil {
					return reflect.Value{}, err
				}

				s = reflect.Append(s, v)
			}

			return s, nil
		}, nil
	}

	return nil, ErrInvalidOperation.Wrapf("cannot compile %T", x).At(x.Pos())
}

// deref follows v to the struct it points to.
func deref(v reflect.Value, span Span) (reflect.Value, error) {
	v = unwrap(v)
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return reflect.Value{}, ErrInvocation.
				Wrapf("field access through null %s", v.Type()).
				At(span)
		}

		v = v.Elem()
	}

	return v, nil
}

func (c *compiler) fieldRef(x *FieldRef) (evalFunc, error) {
	xf, err := c.expr(x.X)
	if err != nil {
		return nil, err
	}

	index, span := x.Field.Index, x.Span

	return c.read(func(f *frame) (reflect.Value, error) {
		v, err := xf(f)
		if err != nil {
			return reflect.Value{}, err
		}

		if v, err = deref(v, span); err != nil {
			return reflect.Value{}, err
		}

		r, err := v.FieldByIndexErr(index)
		if err != nil {
			return reflect.Value{}, ErrInvocation.Wrap(err).At(span)
		}

		return r, nil
	}), nil
}

func element(v, i reflect.Value, span Span) (reflect.Value, error) {
	v = unwrap(v)

	if v.Kind() == reflect.Map {
		if r := v.MapIndex(i); r.IsValid() {
			return r, nil
		}

		return reflect.Zero(v.Type().Elem()), nil
	}

	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return reflect.Value{}, ErrInvocation.Wrapf("index of null %s", v.Type()).At(span)
		}

		v = v.Elem()
	}

	j, err := position(i, v.Len())
	if err != nil {
		return reflect.Value{}, WrapError(err).At(span)
	}

	return v.Index(j), nil
}

// position checks the integer index i, of any signedness and width,
// against length n before narrowing it to int.
func position(i reflect.Value, n int) (int, error) {
	i = unwrap(i)

	switch {
	case !i.IsValid():
		return 0, ErrInvocation.Wrapf("null index")
	case i.CanInt():
		if j := i.Int(); j >= 0 && j < int64(n) {
			return int(j), nil
		}
	case i.CanUint():
		if j := i.Uint(); j < uint64(n) {
			return int(j), nil
		}
	default:
		return 0, ErrInvocation.Wrapf("index of type %s is not an integer", i.Type())
	}

	return 0, ErrInvocation.
		Wrapf("index %v out of range [0:%d]", i, n).
		With(slog.String("index", fmt.Sprint(i)), slog.Int("length", n))
}

func (c *compiler) indexRef(x *IndexRef) (evalFunc, error) {
	xf, err := c.expr(x.X)
	if err != nil {
		return nil, err
	}

	idx, err := c.expr(x.Index)
	if err != nil {
		return nil, err
	}

	span := x.Span

	return c.read(func(f *frame) (reflect.Value, error) {
		v, err := xf(f)
		if err != nil {
			return reflect.Value{}, err
		}

		i, err := idx(f)
		if err != nil {
			return reflect.Value{}, err
		}

		return element(v, i, span)
	}), nil
}

func (c *compiler) methodCall(x *MethodCall) (evalFunc, error) {
	recv, err := c.expr(x.Recv)
	if err != nil {
		return nil, err
	}

	args, err := c.exprs(x.Args)
	if err != nil {
		return nil, err
	}

	o, span := x.Overload, x.Span

	if x.Method < 0 {
		params := append([]reflect.Type{x.Recv.Type()}, o.Params...)

		return func(f *frame) (reflect.Value, error) {
			r, err := recv(f)
			if err != nil {
				return reflect.Value{}, err
			}

			in, err := callArgs(f, args, o.Params)
			if err != nil {
				return reflect.Value{}, err
			}

			if r, err = convertValue(r, params[0]); err != nil {
				return reflect.Value{}, fail(err, span)
			}

			v, err := o.call(append([]reflect.Value{r}, in...))
			if err != nil {
				return reflect.Value{}, fail(err, span)
			}

			return v, nil
		}, nil
	}

	index, name, addr := x.Method, x.Name, x.AddrRecv
	static := x.Recv.Type()

	return func(f *frame) (reflect.Value, error) {
		r, err := recv(f)
		if err != nil {
			return reflect.Value{}, err
		}

		var m reflect.Value

		switch {
		case !r.IsValid() || (r.Kind() == reflect.Interface && r.IsNil()):
			return reflect.Value{}, ErrInvocation.
				Wrapf("method %s called on null", name).
				At(span)
		case addr:
			p := reflect.New(static)
			p.Elem().Set(r)
			m = p.Method(index)
		case static.Kind() == reflect.Interface && r.Kind() != reflect.Interface:
			m = r.MethodByName(name)
		default:
			m = r.Method(index)
		}

		in, err := callArgs(f, args, o.Params)
		if err != nil {
			return reflect.Value{}, err
		}

		v, err := o.invoke(m, in)
		if err != nil {
			return reflect.Value{}, fail(err, span)
		}

		return v, nil
	}, nil
}

func (c *compiler) convert(x *Convert) (evalFunc, error) {
	xf, err := c.expr(x.X)
	if err != nil {
		return nil, err
	}

	to, user, span := x.Typ, x.User, x.Span

	if user != nil {
		return func(f *frame) (reflect.Value, error) {
			v, err := xf(f)
			if err != nil {
				return reflect.Value{}, err
			}

			if v, err = convertValue(v, user.Params[0]); err != nil {
				return reflect.Value{}, fail(err, span)
			}

			r, err := user.call([]reflect.Value{v})
			if err != nil {
				return reflect.Value{}, fail(err, span)
			}

			return convertValue(r, to)
		}, nil
	}

	return func(f *frame) (reflect.Value, error) {
		v, err := xf(f)
		if err != nil {
			return reflect.Value{}, err
		}

		r, err := convertValue(v, to)
		if err != nil {
			return reflect.Value{}, fail(err, span)
		}

		return r, nil
	}, nil
}

func (c *compiler) binaryOp(x *BinaryOp) (evalFunc, error) {
	xf, err := c.expr(x.X)
	if err != nil {
		return nil, err
	}

	yf, err := c.expr(x.Y)
	if err != nil {
		return nil, err
	}

	op, t, span := x.Op, x.Typ, x.Span

	switch op {
	case "&&", "||":
		return func(f *frame) (reflect.Value, error) {
			a, err := xf(f)
			if err != nil {
				return reflect.Value{}, err
			}

			if unwrap(a).Bool() == (op == "||") {
				return reflect.ValueOf(op == "||"), nil
			}

			b, err := yf(f)
			if err != nil {
				return reflect.Value{}, err
			}

			return reflect.ValueOf(unwrap(b).Bool()), nil
		}, nil
	}

	var apply func(a, b reflect.Value) (reflect.Value, error)

	switch op {
	case "+":
		if t == stringType {
			apply = func(a, b reflect.Value) (reflect.Value, error) {
				return concat(a, b), nil
			}
		}
	case "==", "!=":
		apply = func(a, b reflect.Value) (reflect.Value, error) {
			eq, err := equalValues(a, b)
			if err != nil {
				return reflect.Value{}, err
			}

			return reflect.ValueOf(eq == (op == "==")), nil
		}
	case "<", "<=", ">", ">=":
		apply = func(a, b reflect.Value) (reflect.Value, error) {
			r, err := compare(op, unwrap(a), unwrap(b))

			return reflect.ValueOf(r), err
		}
	}

	if apply == nil {
		apply = func(a, b reflect.Value) (reflect.Value, error) {
			return arith(op, unwrap(a), unwrap(b), t)
		}
	}

	return func(f *frame) (reflect.Value, error) {
		a, err := xf(f)
		if err != nil {
			return reflect.Value{}, err
		}

		b, err := yf(f)
		if err != nil {
			return reflect.Value{}, err
		}

		r, err := apply(a, b)
		if err != nil {
			return reflect.Value{}, fail(err, span)
		}

		return r, nil
	}, nil
}

// location returns a closure yielding the addressable value denoted by x.
func (c *compiler) location(x Expr) (evalFunc, error) {
	switch x := x.(type) {
	case *ParamRef:
		depth, index := x.Depth, x.Index

		return func(f *frame) (reflect.Value, error) {
			return f.up(depth).slots[index], nil
		}, nil

	case *FieldRef:
		var (
			base evalFunc
			err  error
		)

		if x.X.Type().Kind() == reflect.Pointer {
			base, err = c.expr(x.X)
		} else {
			base, err = c.location(x.X)
		}

		if err != nil {
			return nil, err
		}

		index, span := x.Field.Index, x.Span

		return func(f *frame) (reflect.Value, error) {
			v, err := base(f)
			if err != nil {
				return reflect.Value{}, err
			}

			if v, err = deref(v, span); err != nil {
				return reflect.Value{}, err
			}

			r, err := v.FieldByIndexErr(index)
			if err != nil {
				return reflect.Value{}, ErrInvocation.Wrap(err).At(span)
			}

			return r, nil
		}, nil

	case *IndexRef:
		var (
			base evalFunc
			err  error
		)

		if x.X.Type().Kind() == reflect.Array {
			base, err = c.location(x.X)
		} else {
			base, err = c.expr(x.X)
		}

		if err != nil {
			return nil, err
		}

		idx, err := c.expr(x.Index)
		if err != nil {
			return nil, err
		}

		span := x.Span

		return func(f *frame) (reflect.Value, error) {
			v, err := base(f)
			if err != nil {
				return reflect.Value{}, err
			}

			i, err := idx(f)
			if err != nil {
				return reflect.Value{}, err
			}

			return element(v, i, span)
		}, nil
	}

	return nil, ErrNotAssignable.Wrapf("cannot assign to %s", x).At(x.Pos())
}

func (c *compiler) assign(x *AssignOp) (evalFunc, error) {
	value, err := c.expr(x.Value)
	if err != nil {
		return nil, err
	}

	t, span := x.Target.Type(), x.Span

	store := func(dst, v reflect.Value) (reflect.Value, error) {
		v, err := convertValue(v, t)
		if err != nil {
			return reflect.Value{}, fail(err, span)
		}

		if !dst.CanSet() {
			return reflect.Value{}, ErrNotAssignable.
				Wrapf("%s is not settable", x.Target).
				At(span)
		}

		dst.Set(v)

		return v, nil
	}

	if ix, ok := x.Target.(*IndexRef); ok && ix.X.Type().Kind() == reflect.Map {
		m, err := c.expr(ix.X)
		if err != nil {
			return nil, err
		}

		key, err := c.expr(ix.Index)
		if err != nil {
			return nil, err
		}

		return func(f *frame) (reflect.Value, error) {
			mv, err := m(f)
			if err != nil {
				return reflect.Value{}, err
			}

			k, err := key(f)
			if err != nil {
				return reflect.Value{}, err
			}

			v, err := value(f)
			if err != nil {
				return reflect.Value{}, err
			}

			if v, err = convertValue(v, t); err != nil {
				return reflect.Value{}, fail(err, span)
			}

			mv = unwrap(mv)
			if mv.IsNil() {
				return reflect.Value{}, ErrInvocation.
					Wrapf("assignment to entry in null map").
					At(span)
			}

			mv.SetMapIndex(k, v)

			return v, nil
		}, nil
	}

	loc, err := c.location(x.Target)
	if err != nil {
		return nil, err
	}

	return func(f *frame) (reflect.Value, error) {
		dst, err := loc(f)
		if err != nil {
			return reflect.Value{}, err
		}

		v, err := value(f)
		if err != nil {
			return reflect.Value{}, err
		}

		return store(dst, v)
	}, nil
}

func (c *compiler) lambda(x *Lambda) (evalFunc, error) {
	body, err := c.expr(x.Body)
	if err != nil {
		return nil, err
	}

	typ := x.Typ

	in := make([]reflect.Type, typ.NumIn())
	for i := range in {
		in[i] = typ.In(i)
	}

	// A second error result receives evaluation errors instead of a panic.
	errOut := typ.NumOut() == 2 && typ.Out(1) == errorType
	valOut := typ.NumOut() > 0

	return func(f *frame) (reflect.Value, error) {
		fn := reflect.MakeFunc(typ, func(args []reflect.Value) []reflect.Value {
			out := make([]reflect.Value, typ.NumOut())
			for i := range out {
				out[i] = reflect.Zero(typ.Out(i))
			}

			v, err := body(newFrame(in, args, f))
			if err == nil && valOut {
				if !v.IsValid() || v.Type() != typ.Out(0) {
					v, err = convertValue(v, typ.Out(0))
				}

				if err == nil {
					out[0] = v
				}
			}

			if err != nil {
				if !errOut {
					panic(lambdaPanic{err})
				}

				out[len(out)-1] = reflect.ValueOf(&err).Elem()
			}

			return out
		})

		return fn, nil
	}, nil
}

func (c *compiler) dynamicOp(x *DynamicOp) (evalFunc, error) {
	xf, err := c.expr(x.X)
	if err != nil {
		return nil, err
	}

	d, op, span := c.dynamic(x.Guarded), x.Op, x.Span

	if x.Y == nil {
		return func(f *frame) (reflect.Value, error) {
			v, err := xf(f)
			if err != nil {
				return reflect.Value{}, err
			}

			r, err := d.op(op, v, reflect.Value{}, true)
			if err != nil {
				return reflect.Value{}, fail(err, span)
			}

			return r, nil
		}, nil
	}

	yf, err := c.expr(x.Y)
	if err != nil {
		return nil, err
	}

	return func(f *frame) (reflect.Value, error) {
		a, err := xf(f)
		if err != nil {
			return reflect.Value{}, err
		}

		if op == "&&" || op == "||" {
			if av := unwrap(a); av.IsValid() && av.Kind() == reflect.Bool &&
				av.Bool() == (op == "||") {
				return reflect.ValueOf(op == "||"), nil
			}
		}

		b, err := yf(f)
		if err != nil {
			return reflect.Value{}, err
		}

		r, err := d.op(op, a, b, false)
		if err != nil {
			return reflect.Value{}, fail(err, span)
		}

		return r, nil
	}, nil
}

// program is a compiled bound tree ready for invocation.
type program struct {
	root   evalFunc
	params []reflect.Type
	result reflect.Type
}

func compile(b *Bound, settings Settings, g *guard) (*program, error) {
	c := newCompiler(settings, g, b.Root)

	root, err := c.expr(b.Root)
	if err != nil {
		return nil, err
	}

	p := &program{root: root, result: b.ReturnType}
	for _, q := range b.Params {
		p.params = append(p.params, q.Type)
	}

	return p, nil
}

// run binds args to fresh parameter slots and evaluates the tree. Each run
// has its own frame, so a program may run concurrently.
func (p *program) run(args []reflect.Value) (out reflect.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			if lp, ok := r.(lambdaPanic); ok {
				err = lp.err

				return
			}

			err = ErrInvocation.Wrapf("panic during evaluation: %v", r)
		}
	}()

	if len(args) != len(p.params) {
		return reflect.Value{}, ErrArgumentCount.
			Wrapf("expression takes %d arguments, got %d", len(p.params), len(args)).
			With(slog.Int("want", len(p.params)), slog.Int("got", len(args)))
	}

	in := make([]reflect.Value, len(args))

	for i, a := range args {
		v, err := argValue(a, p.params[i])
		if err != nil {
			return reflect.Value{}, WrapError(err).With(slog.Int("arg", i))
		}

		in[i] = v
	}

	v, err := p.root(newFrame(p.params, in, nil))
	if err != nil {
		return reflect.Value{}, err
	}

	if p.result != nil && v.IsValid() && v.Type() != p.result {
		return convertValue(v, p.result)
	}

	return v, nil
}

// argValue converts a host argument to a parameter type by assignment or
// implicit widening.
func argValue(a reflect.Value, t reflect.Type) (reflect.Value, error) {
	if !a.IsValid() {
		if nillable(t) {
			return reflect.Zero(t), nil
		}

		return reflect.Value{}, ErrInvocation.Wrapf("null argument for %s", typeName(t))
	}

	a = unwrap(a)

	switch {
	case !a.IsValid() || (a.Kind() == reflect.Interface && a.IsNil()):
		return argValue(reflect.Value{}, t)
	case a.Type().AssignableTo(t):
		out := reflect.New(t).Elem()
		out.Set(a)

		return out, nil
	case implicitRank(a.Type(), t) != RankNone:
		return convertValue(a, t)
	}

	return reflect.Value{}, ErrInvocation.
		Wrapf("argument of type %s does not convert to %s", a.Type(), typeName(t))
}
