package lang

import (
	"context"
	"log/slog"
	"reflect"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Expression is a compiled, immutable expression. It may be invoked any
// number of times, concurrently.
type Expression struct {
	id          uuid.UUID
	text        string
	root        Expr
	params      []Parameter
	returnType  reflect.Type
	identifiers []string
	types       []string
	usedParams  []string
	prog        *program
	interp      *Interpreter
}

// ID returns the unique identifier assigned when the expression was parsed.
func (e *Expression) ID() uuid.UUID { return e.id }

// Text returns the source text.
func (e *Expression) Text() string { return e.text }

// Root returns the bound tree after the transform pipeline ran.
func (e *Expression) Root() Expr { return e.root }

// Params returns the declared parameters.
func (e *Expression) Params() []Parameter { return slices.Clone(e.params) }

// ReturnType returns the declared return type, or nil if unconstrained.
func (e *Expression) ReturnType() reflect.Type { return e.returnType }

// Type returns the static type of the result.
func (e *Expression) Type() reflect.Type {
	if e.returnType != nil {
		return e.returnType
	}

	return e.root.Type()
}

// Identifiers returns the environment identifiers the expression references.
func (e *Expression) Identifiers() []string { return slices.Clone(e.identifiers) }

// Types returns the type aliases the expression references.
func (e *Expression) Types() []string { return slices.Clone(e.types) }

// UsedParams returns the declared parameters the expression references.
func (e *Expression) UsedParams() []string { return slices.Clone(e.usedParams) }

// String returns the source text.
func (e *Expression) String() string { return e.text }

// LogValue implements slog.LogValuer.
func (e *Expression) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("id", e.id.String()),
		slog.String("text", e.text),
		slog.String("type", typeName(e.Type())),
	)
}

// Invoke evaluates the expression with args bound positionally to the
// declared parameters.
func (e *Expression) Invoke(args ...any) (any, error) {
	return e.InvokeContext(context.Background(), args...)
}

// InvokeContext is like [Expression.Invoke] and logs with ctx. The context
// is checked before evaluation starts; evaluation itself is not interruptible.
func (e *Expression) InvokeContext(ctx context.Context, args ...any) (any, error) {
	in := make([]reflect.Value, len(args))
	for i, a := range args {
		in[i] = reflect.ValueOf(a)
	}

	v, err := e.invoke(ctx, in)
	if err != nil {
		return nil, err
	}

	return valueOf(v), nil
}

// InvokeNamed evaluates the expression with arguments given by parameter
// name. Every declared parameter must be present.
func (e *Expression) InvokeNamed(args map[string]any) (any, error) {
	in := make([]any, len(e.params))

	for i, p := range e.params {
		v, ok := args[p.Name]
		if !ok {
			return nil, ErrArgumentCount.
				Wrapf("missing argument %q", p.Name).
				With(slog.String("param", p.Name))
		}

		in[i] = v
	}

	if len(args) > len(e.params) {
		for name := range args {
			if !slices.ContainsFunc(e.params, func(p Parameter) bool { return p.Name == name }) {
				return nil, ErrArgumentCount.
					Wrapf("unknown argument %q", name).
					With(slog.String("param", name))
			}
		}
	}

	return e.Invoke(in...)
}

func (e *Expression) invoke(ctx context.Context, args []reflect.Value) (reflect.Value, error) {
	if err := ctx.Err(); err != nil {
		return reflect.Value{}, ErrInvocation.Wrap(err)
	}

	start := time.Now()

	v, err := e.prog.run(args)

	if e.interp != nil {
		e.interp.invoked(ctx, e, time.Since(start), err)
	}

	if err != nil {
		return reflect.Value{}, withSource(err, e.text)
	}

	return v, nil
}

// Func returns a func(...any) (any, error) closure over the expression.
func (e *Expression) Func() func(args ...any) (any, error) {
	return e.Invoke
}

// MakeFunc returns the expression as a value of func type fnType, whose
// parameters must match the declared parameters. If fnType has a second
// error result, invocation errors are returned there; otherwise they panic.
func (e *Expression) MakeFunc(fnType reflect.Type) (reflect.Value, error) {
	if fnType == nil || fnType.Kind() != reflect.Func {
		return reflect.Value{}, ErrConfiguration.
			Wrapf("%s is not a func type", typeName(fnType))
	}

	if fnType.NumIn() != len(e.params) {
		return reflect.Value{}, ErrConfiguration.
			Wrapf("%s takes %d arguments, expression declares %d",
				fnType, fnType.NumIn(), len(e.params))
	}

	for i, p := range e.params {
		if fnType.In(i) != p.Type {
			return reflect.Value{}, ErrConfiguration.
				Wrapf("argument %d of %s is %s, expression declares %s",
					i, fnType, fnType.In(i), p.Type)
		}
	}

	errOut := fnType.NumOut() == 2 && fnType.Out(1) == errorType

	switch {
	case fnType.NumOut() > 2,
		fnType.NumOut() == 2 && !errOut:
		return reflect.Value{}, ErrConfiguration.
			Wrapf("%s must return a value and an optional error", fnType)
	case fnType.NumOut() > 0 && implicitRank(e.Type(), fnType.Out(0)) == RankNone &&
		!isInterface(e.Type()):
		return reflect.Value{}, ErrReturnTypeMismatch.
			Wrapf("expression of type %s does not convert to %s",
				typeName(e.Type()), fnType.Out(0))
	}

	fn := reflect.MakeFunc(fnType, func(args []reflect.Value) []reflect.Value {
		out := make([]reflect.Value, fnType.NumOut())
		for i := range out {
			out[i] = reflect.Zero(fnType.Out(i))
		}

		v, err := e.invoke(context.Background(), args)
		if err == nil && fnType.NumOut() > 0 {
			if v, err = convertValue(v, fnType.Out(0)); err == nil {
				out[0] = v
			}
		}

		if err != nil {
			if !errOut {
				panic(err)
			}

			out[1] = reflect.ValueOf(&err).Elem()
		}

		return out
	})

	return fn, nil
}

// As returns the expression as a typed func F, such as func(int, int) int or
// func(string) (bool, error).
func As[F any](e *Expression) (F, error) {
	var zero F

	fn, err := e.MakeFunc(reflect.TypeFor[F]())
	if err != nil {
		return zero, err
	}

	f, _ := fn.Interface().(F)

	return f, nil
}

// valueOf returns the host value held by v, or nil.
func valueOf(v reflect.Value) any {
	if !v.IsValid() || !v.CanInterface() {
		return nil
	}

	return v.Interface()
}
