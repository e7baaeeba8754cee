package lang

import (
	"log/slog"
	"reflect"
	"strings"
)

// MemberLookup is implemented by host values that resolve their own members
// by name. When late binding is enabled, unknown members of such values are
// looked up through LookupMember when the expression runs.
type MemberLookup interface {
	LookupMember(name string) (any, bool)
}

var memberLookupType = reflect.TypeFor[MemberLookup]()

// dynamic resolves late-bound members against runtime values.
type dynamic struct {
	insensitive bool
	guard       *guard // nil disables runtime reflection checks
}

func (d dynamic) sameName(a, b string) bool {
	if d.insensitive {
		return strings.EqualFold(a, b)
	}

	return a == b
}

func lateError(v reflect.Value, name string) error {
	return ErrLateBinding.
		Wrapf("%s has no member %q", v.Type(), name).
		With(slog.String("member", name))
}

// check rejects reflective members and values when guarded.
func (d dynamic) check(name string, v reflect.Value) error {
	if d.guard == nil {
		return nil
	}

	if d.guard.reflectiveName(name) {
		return ErrSecurity.
			Wrapf("late-bound access to reflective member %q", name).
			With(slog.String("member", name))
	}

	if v.IsValid() && (fromReflect(v.Type()) || fromReflect(unwrap(v).Type())) {
		return ErrSecurity.
			Wrapf("late-bound member %q yields reflection value %s", name, unwrap(v).Type()).
			With(slog.String("member", name))
	}

	return nil
}

func (d dynamic) receiver(v reflect.Value, name string) (reflect.Value, error) {
	v = unwrap(v)
	if isNilValue(v) {
		return reflect.Value{}, ErrInvocation.
			Wrapf("member %q of null", name).
			With(slog.String("member", name))
	}

	if d.guard != nil && fromReflect(v.Type()) {
		return reflect.Value{}, ErrSecurity.
			Wrapf("late-bound access to member %q of %s", name, v.Type())
	}

	return v, nil
}

func (d dynamic) lookup(v reflect.Value, name string) (reflect.Value, bool) {
	if !v.CanInterface() {
		return reflect.Value{}, false
	}

	ml, ok := v.Interface().(MemberLookup)
	if !ok {
		return reflect.Value{}, false
	}

	r, ok := ml.LookupMember(name)
	if !ok {
		return reflect.Value{}, false
	}

	out := reflect.New(anyType).Elem()
	if r != nil {
		out.Set(reflect.ValueOf(r))
	}

	return out, true
}

func (d dynamic) field(v reflect.Value, name string) (reflect.Value, bool, error) {
	s := v
	if s.Kind() == reflect.Pointer && s.Elem().Kind() == reflect.Struct {
		s = s.Elem()
	}

	switch s.Kind() {
	case reflect.Struct:
		f, ok := s.Type().FieldByNameFunc(func(n string) bool {
			return d.sameName(n, name)
		})
		if !ok || !f.IsExported() {
			return reflect.Value{}, false, nil
		}

		fv, err := s.FieldByIndexErr(f.Index)
		if err != nil {
			return reflect.Value{}, false, ErrInvocation.Wrap(err)
		}

		return fv, true, nil

	case reflect.Map:
		if s.Type().Key().Kind() != reflect.String {
			return reflect.Value{}, false, nil
		}

		r := s.MapIndex(reflect.ValueOf(name).Convert(s.Type().Key()))

		return r, r.IsValid(), nil
	}

	return reflect.Value{}, false, nil
}

// member reads the member name of the runtime value v.
func (d dynamic) member(v reflect.Value, name string) (reflect.Value, error) {
	v, err := d.receiver(v, name)
	if err != nil {
		return reflect.Value{}, err
	}

	if err := d.check(name, reflect.Value{}); err != nil {
		return reflect.Value{}, err
	}

	r, ok := d.lookup(v, name)
	if !ok {
		if r, ok, err = d.field(v, name); err != nil {
			return reflect.Value{}, err
		}
	}

	if !ok {
		return reflect.Value{}, lateError(v, name)
	}

	if err := d.check(name, r); err != nil {
		return reflect.Value{}, err
	}

	return r, nil
}

// method finds the method name of v, taking the address of a copy for
// pointer receivers.
func (d dynamic) method(v reflect.Value, name string) (reflect.Value, bool) {
	find := func(v reflect.Value) (reflect.Value, bool) {
		t := v.Type()
		for i := range t.NumMethod() {
			if d.sameName(t.Method(i).Name, name) {
				return v.Method(i), true
			}
		}

		return reflect.Value{}, false
	}

	if m, ok := find(v); ok {
		return m, true
	}

	if v.Kind() != reflect.Pointer {
		p := reflect.New(v.Type())
		p.Elem().Set(v)

		return find(p)
	}

	return reflect.Value{}, false
}

// call invokes the method or func-valued member name of v. An empty name
// calls v itself.
func (d dynamic) call(v reflect.Value, name string, args []reflect.Value) (reflect.Value, error) {
	var fn reflect.Value

	if name == "" {
		fn = unwrap(v)
		if isNilValue(fn) {
			return reflect.Value{}, ErrInvocation.Wrapf("call of null")
		}
	} else {
		recv, err := d.receiver(v, name)
		if err != nil {
			return reflect.Value{}, err
		}

		if err := d.check(name, reflect.Value{}); err != nil {
			return reflect.Value{}, err
		}

		var ok bool

		if fn, ok = d.method(recv, name); !ok {
			if fn, ok = d.lookup(recv, name); !ok {
				if fn, ok, err = d.field(recv, name); err != nil {
					return reflect.Value{}, err
				}
			}

			fn = unwrap(fn)
		}

		if !ok {
			return reflect.Value{}, lateError(recv, name)
		}
	}

	if fn.Kind() != reflect.Func || fn.IsNil() {
		return reflect.Value{}, ErrInvocation.
			Wrapf("%s of type %s is not callable", name, fn.Type())
	}

	o, err := signature(fn.Type(), 0)
	if err != nil {
		return reflect.Value{}, ErrInvocation.Wrap(err)
	}

	if d.guard != nil && fromReflect(o.Result) {
		return reflect.Value{}, ErrSecurity.
			Wrapf("late-bound call %q returns reflection value %s", name, o.Result)
	}

	in, err := dynamicIn(o, args)
	if err != nil {
		return reflect.Value{}, err
	}

	return o.invoke(fn, in)
}

// dynamicIn converts runtime arguments to the parameters of o, packing
// trailing variadic arguments.
func dynamicIn(o *Overload, args []reflect.Value) ([]reflect.Value, error) {
	fixed := len(o.Params)
	if o.Variadic {
		fixed--
	}

	if len(args) < fixed || (!o.Variadic && len(args) != fixed) {
		return nil, ErrArgumentCount.
			Wrapf("late-bound call wants %d arguments, got %d", len(o.Params), len(args))
	}

	in := make([]reflect.Value, 0, len(o.Params))

	for i := range fixed {
		v, err := convertValue(args[i], o.Params[i])
		if err != nil {
			return nil, err
		}

		in = append(in, v)
	}

	if o.Variadic {
		st := o.Params[fixed]
		rest := reflect.MakeSlice(st, 0, len(args)-fixed)

		for _, a := range args[fixed:] {
			v, err := convertValue(a, st.Elem())
			if err != nil {
				return nil, err
			}

			rest = reflect.Append(rest, v)
		}

		in = append(in, rest)
	}

	return in, nil
}

// index reads v[i] for a runtime value v.
func (d dynamic) index(v, i reflect.Value) (reflect.Value, error) {
	v, err := d.receiver(v, "[]")
	if err != nil {
		return reflect.Value{}, err
	}

	switch v.Kind() {
	case reflect.Map:
		k, err := convertValue(i, v.Type().Key())
		if err != nil {
			return reflect.Value{}, err
		}

		if r := v.MapIndex(k); r.IsValid() {
			return r, d.check("", r)
		}

		return reflect.Zero(v.Type().Elem()), nil

	case reflect.Slice, reflect.Array, reflect.String:
		if i = unwrap(i); i.IsValid() && !isInteger(i.Type()) {
			n, err := convertValue(i, intType)
			if err != nil {
				return reflect.Value{}, err
			}

			i = n
		}

		j, err := position(i, v.Len())
		if err != nil {
			return reflect.Value{}, err
		}

		r := v.Index(j)

		return r, d.check("", r)
	}

	return reflect.Value{}, ErrInvocation.Wrapf("cannot index %s", v.Type())
}

// op applies operator op to runtime operands. y is invalid for unary
// operators.
func (d dynamic) op(op string, x, y reflect.Value, unary bool) (reflect.Value, error) {
	x = unwrap(x)

	if unary {
		if isNilValue(x) {
			return reflect.Value{}, ErrInvocation.Wrapf("operator %s applied to null", op)
		}

		return unaryOp(op, x, x.Type())
	}

	y = unwrap(y)

	switch op {
	case "==", "!=":
		eq, err := equalValues(x, y)
		if err != nil {
			return reflect.Value{}, err
		}

		return reflect.ValueOf(eq == (op == "==")), nil
	}

	if op == "+" && ((x.IsValid() && x.Kind() == reflect.String) ||
		(y.IsValid() && y.Kind() == reflect.String)) {
		return concat(x, y), nil
	}

	if isNilValue(x) || isNilValue(y) {
		return reflect.Value{}, ErrInvocation.Wrapf("operator %s applied to null", op)
	}

	xt, yt := x.Type(), y.Type()

	switch op {
	case "<<", ">>":
		if !isInteger(xt) || !isInteger(yt) {
			return reflect.Value{}, badOp(op, xt)
		}

		return arith(op, x, y, xt)

	case "<", "<=", ">", ">=":
		if xt == yt && xt.Kind() == reflect.String {
			r, err := compare(op, x, y)

			return reflect.ValueOf(r), err
		}

		ct, ok := dynamicNumeric(xt, yt)
		if !ok {
			return reflect.Value{}, badOp(op, xt)
		}

		r, err := compare(op, x.Convert(ct), y.Convert(ct))

		return reflect.ValueOf(r), err
	}

	if isBool(xt) && isBool(yt) {
		return arith(op, x, y, boolType)
	}

	ct, ok := dynamicNumeric(xt, yt)
	if !ok {
		return reflect.Value{}, ErrInvocation.
			Wrapf("operator %s not defined on %s and %s", op, xt, yt)
	}

	return arith(op, x.Convert(ct), y.Convert(ct), ct)
}
