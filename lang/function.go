package lang

import (
	"log/slog"
	"reflect"
	"strings"
)

var errorType = reflect.TypeFor[error]()

// Overload is one callable signature of a [FunctionSet], an extension
// method, a getter or a user conversion.
type Overload struct {
	Params   []reflect.Type
	Variadic bool
	Result   reflect.Type // nil when the target returns nothing
	Errors   bool         // target returns a trailing error
	Fn       reflect.Value
}

// NewOverload validates fn as a callable target. Targets return nothing, a
// single value, a single error, or a value followed by an error.
func NewOverload(fn any) (*Overload, error) {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func || v.IsNil() {
		return nil, ErrConfiguration.
			Wrapf("function target must be a non-nil func, got %T", fn)
	}

	return overloadOf(v)
}

func overloadOf(v reflect.Value) (*Overload, error) {
	o, err := signature(v.Type(), 0)
	if err != nil {
		return nil, WrapError(err).With(slog.String("func", v.Type().String()))
	}

	o.Fn = v

	return o, nil
}

// SameSignature reports whether o and p accept identical parameter lists.
func (o *Overload) SameSignature(p *Overload) bool {
	if o.Variadic != p.Variadic || len(o.Params) != len(p.Params) {
		return false
	}

	for i := range o.Params {
		if o.Params[i] != p.Params[i] {
			return false
		}
	}

	return true
}

// ResultType returns the static type of a call, which is the empty interface
// when the target returns nothing.
func (o *Overload) ResultType() reflect.Type {
	if o.Result == nil {
		return anyType
	}

	return o.Result
}

// String returns the signature as "(int, string...) bool".
func (o *Overload) String() string {
	var sb strings.Builder

	sb.WriteByte('(')

	for i, p := range o.Params {
		if i > 0 {
			sb.WriteString(", ")
		}

		if o.Variadic && i == len(o.Params)-1 {
			sb.WriteString("..." + typeName(p.Elem()))
		} else {
			sb.WriteString(typeName(p))
		}
	}

	sb.WriteByte(')')

	if o.Result != nil {
		sb.WriteString(" " + typeName(o.Result))
	}

	return sb.String()
}

func (o *Overload) call(args []reflect.Value) (reflect.Value, error) {
	return o.invoke(o.Fn, args)
}

// invoke calls fn, which has the signature of o, converting a trailing error
// or a panic into an invocation error.
func (o *Overload) invoke(
	fn reflect.Value,
	args []reflect.Value,
) (out reflect.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			if p, ok := r.(lambdaPanic); ok {
				err = p.err

				return
			}

			err = ErrInvocation.Wrapf("panic in host function: %v", r)
		}
	}()

	var res []reflect.Value

	if o.Variadic {
		res = fn.CallSlice(args)
	} else {
		res = fn.Call(args)
	}

	if o.Errors {
		if e := res[len(res)-1]; !e.IsNil() {
			return reflect.Value{}, ErrInvocation.Wrap(e.Interface().(error))
		}

		res = res[:len(res)-1]
	}

	if len(res) == 0 {
		return reflect.Zero(anyType), nil
	}

	return res[0], nil
}

// FunctionSet is an ordered collection of overloads sharing one name.
type FunctionSet struct {
	name      string
	Overloads []*Overload
}

// Name returns the registered name.
func (f *FunctionSet) Name() string { return f.name }

// Type returns the func type of a set with exactly one overload, so the
// function can be referenced as a value, and nil otherwise.
func (f *FunctionSet) Type() reflect.Type {
	if len(f.Overloads) == 1 {
		return f.Overloads[0].Fn.Type()
	}

	return nil
}

// add appends o, replacing an overload with the same signature in place.
func (f *FunctionSet) add(o *Overload) {
	for i, p := range f.Overloads {
		if p.SameSignature(o) {
			f.Overloads[i] = o

			return
		}
	}

	f.Overloads = append(f.Overloads, o)
}

func (f *FunctionSet) clone() *FunctionSet {
	return &FunctionSet{
		name:      f.name,
		Overloads: append([]*Overload(nil), f.Overloads...),
	}
}

// Variable is a named value: a constant or a host getter evaluated on each
// invocation.
type Variable struct {
	name   string
	typ    reflect.Type
	value  reflect.Value
	getter *Overload
}

// Name returns the registered name.
func (v *Variable) Name() string { return v.name }

// Type returns the static type of the variable.
func (v *Variable) Type() reflect.Type { return v.typ }

// Value returns the constant value, or the zero value for getters.
func (v *Variable) Value() reflect.Value { return v.value }

// IsGetter reports whether the variable is backed by a host getter.
func (v *Variable) IsGetter() bool { return v.getter != nil }

// Identifier is a named entry of an [Environment]: a [*Variable] or a
// [*FunctionSet].
type Identifier interface {
	Name() string
	Type() reflect.Type
}

// Extension names a function contributed to a type descriptor as a method.
// The first parameter of Func is the receiver.
type Extension struct {
	Name string
	Func any

	overload *Overload
}

// Overload returns the validated target of a registered extension.
func (x *Extension) Overload() *Overload { return x.overload }

// TypeDescriptor is a registered type alias.
type TypeDescriptor struct {
	Alias      string
	Type       reflect.Type
	Extensions []*Extension
}
