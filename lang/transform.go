package lang

import (
	"errors"
	"log/slog"
	"reflect"
	"slices"
	"strings"
)

// ReflectionGuardName names the built-in pass that rejects reflection.
const ReflectionGuardName = "reflection-guard"

// ConstantFoldingName names the optional constant folding pass.
const ConstantFoldingName = "constant-folding"

// DefaultReflectiveMembers are member names treated as reflective
// self-inspection operations regardless of their receiver type.
var DefaultReflectiveMembers = []string{
	"GetType",
	"GetMetadataHandle",
	"GetMethod",
	"GetField",
	"GetProperty",
	"InvokeMember",
	"MethodByName",
	"FieldByName",
}

// Pass is a named transformation of a bound tree. Fn returns the tree to
// pass on, which may be the tree it was given, or an error that aborts the
// pipeline.
type Pass struct {
	Name string
	Fn   func(Expr) (Expr, error)
}

// Pipeline is an ordered list of passes applied to every bound tree before
// compilation.
//
// Like [Environment], a pipeline is not synchronized; modify it before
// parsing concurrently.
type Pipeline struct {
	passes  []Pass
	version uint64
}

// NewPipeline returns a pipeline running passes in order.
func NewPipeline(passes ...Pass) *Pipeline {
	return &Pipeline{passes: slices.Clone(passes)}
}

// Append adds passes after the existing ones.
func (p *Pipeline) Append(passes ...Pass) {
	p.passes = append(p.passes, passes...)
	p.version++
}

// Remove deletes every pass named name and reports whether any existed.
func (p *Pipeline) Remove(name string) bool {
	n := len(p.passes)
	p.passes = slices.DeleteFunc(p.passes, func(q Pass) bool { return q.Name == name })

	if len(p.passes) == n {
		return false
	}

	p.version++

	return true
}

// Names returns the pass names in execution order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.passes))
	for i, q := range p.passes {
		names[i] = q.Name
	}

	return names
}

// Version returns a counter that increases with every modification.
func (p *Pipeline) Version() uint64 { return p.version }

// Run applies every pass in order. The first failure aborts the pipeline.
func (p *Pipeline) Run(x Expr) (Expr, error) {
	for _, q := range p.passes {
		y, err := q.Fn(x)
		if err != nil {
			var e *Error
			if errors.As(err, &e) &&
				(e.Kind() == KindSecurity || e.Kind() == KindTransform) {
				return nil, e.With(slog.String("pass", q.Name))
			}

			return nil, ErrTransform.Wrap(err).
				With(slog.String("pass", q.Name)).
				At(x.Pos())
		}

		if y == nil {
			return nil, ErrTransform.
				Wrapf("pass %q returned no tree", q.Name).
				With(slog.String("pass", q.Name))
		}

		x = y
	}

	return x, nil
}

// guard identifies reflective self-inspection operations.
type guard struct {
	names map[string]struct{}
	funcs []uintptr
}

func newGuard(names []string) *guard {
	g := &guard{
		names: make(map[string]struct{}, len(names)),
		funcs: []uintptr{
			reflect.ValueOf(reflect.TypeOf).Pointer(),
			reflect.ValueOf(reflect.ValueOf).Pointer(),
		},
	}

	for _, n := range names {
		g.names[strings.ToLower(n)] = struct{}{}
	}

	return g
}

func (g *guard) reflectiveName(name string) bool {
	_, ok := g.names[strings.ToLower(name)]

	return ok
}

func (g *guard) reflectiveFunc(o *Overload) bool {
	if o == nil {
		return false
	}

	if o.Fn.IsValid() && slices.Contains(g.funcs, o.Fn.Pointer()) {
		return true
	}

	return fromReflect(o.Result) || slices.ContainsFunc(o.Params, fromReflect)
}

func securityError(x Expr, format string, args ...any) error {
	return ErrSecurity.
		Wrapf(format, args...).
		With(slog.String("node", x.String())).
		At(x.Pos())
}

// check rejects x if it is itself a reflective operation.
func (g *guard) check(x Expr) error {
	if t := x.Type(); fromReflect(t) {
		return securityError(x, "expression yields reflection type %s", t)
	}

	switch x := x.(type) {
	case *Const:
		if x.Typ != nil && x.Typ.Kind() == reflect.Func && x.Value.IsValid() &&
			slices.Contains(g.funcs, x.Value.Pointer()) {
			return securityError(x, "reference to reflection function")
		}
	case *MethodCall:
		if fromReflect(x.Recv.Type()) {
			return securityError(x, "method call on reflection type %s", x.Recv.Type())
		}

		if g.reflectiveName(x.Name) || g.reflectiveFunc(x.Overload) {
			return securityError(x, "call to reflective method %s", x.Name)
		}
	case *FuncCall:
		if g.reflectiveFunc(x.Overload) {
			return securityError(x, "call to reflective function %s", x.Func.name)
		}
	case *ValueCall:
		if g.reflectiveFunc(x.Overload) {
			return securityError(x, "call to reflective function value")
		}
	case *FieldRef:
		if fromReflect(x.X.Type()) || g.reflectiveName(x.Field.Name) {
			return securityError(x, "access to reflective field %s", x.Field.Name)
		}
	case *Convert:
		if g.reflectiveFunc(x.User) {
			return securityError(x, "reflective conversion")
		}
	case *DynamicMember:
		if g.reflectiveName(x.Name) {
			return securityError(x, "late-bound access to reflective member %s", x.Name)
		}
	case *DynamicCall:
		if g.reflectiveName(x.Name) {
			return securityError(x, "late-bound call to reflective member %s", x.Name)
		}
	}

	return nil
}

// pass validates every node and marks late-bound nodes so the same checks
// apply to the members they resolve when invoked.
func (g *guard) pass(x Expr) (Expr, error) {
	return Rewrite(x, func(x Expr) (Expr, error) {
		if err := g.check(x); err != nil {
			return nil, err
		}

		switch x := x.(type) {
		case *DynamicMember:
			c := *x
			c.Guarded = true

			return &c, nil
		case *DynamicCall:
			c := *x
			c.Guarded = true

			return &c, nil
		case *DynamicIndex:
			c := *x
			c.Guarded = true

			return &c, nil
		case *DynamicOp:
			c := *x
			c.Guarded = true

			return &c, nil
		}

		return x, nil
	})
}

// ReflectionGuard returns the built-in pass rejecting reflection types,
// calls to reflect.TypeOf and reflect.ValueOf, and the given member names
// (or [DefaultReflectiveMembers] if none are given).
func ReflectionGuard(members ...string) Pass {
	if len(members) == 0 {
		members = DefaultReflectiveMembers
	}

	return Pass{Name: ReflectionGuardName, Fn: newGuard(members).pass}
}

// ConstantFolding returns a pass that evaluates operators and conversions
// whose operands are all constants, and selects the branch of conditionals
// with a constant test. Operations that fail (such as division by zero) are
// left for invocation to report.
func ConstantFolding() Pass {
	return Pass{Name: ConstantFoldingName, Fn: foldConstants}
}

func foldConstants(x Expr) (Expr, error) {
	return Rewrite(x, func(x Expr) (Expr, error) {
		switch n := x.(type) {
		case *UnaryOp, *BinaryOp, *Convert:
			if n, ok := n.(*Convert); ok && n.User != nil {
				return x, nil
			}

			for _, c := range Children(x) {
				if _, ok := c.(*Const); !ok {
					return x, nil
				}
			}

			fn, err := (&compiler{}).expr(x)
			if err != nil {
				return x, nil //nolint:nilerr // left unfolded
			}

			v, err := fn(nil)
			if err != nil {
				return x, nil //nolint:nilerr // reported on invocation
			}

			return &Const{Span: x.Pos(), Typ: x.Type(), Value: v}, nil

		case *Cond:
			if c, ok := n.Test.(*Const); ok && c.Value.IsValid() {
				if c.Value.Bool() {
					return n.Then, nil
				}

				return n.Else, nil
			}
		}

		return x, nil
	})
}
