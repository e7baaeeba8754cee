package lang

import (
	"log/slog"
	"reflect"
)

func isString(t reflect.Type) bool {
	return t != nil && t.Kind() == reflect.String
}

func isBool(t reflect.Type) bool {
	return t != nil && t.Kind() == reflect.Bool
}

func (b *binder) bindUnary(n *Unary) (Expr, error) {
	x, err := b.bind(n.X, nil)
	if err != nil {
		return nil, err
	}

	t := x.Type()

	if isInterface(t) && b.env.settings.LateBinding {
		return &DynamicOp{Span: n.Span, Op: n.Op, X: x}, nil
	}

	ok := false

	switch n.Op {
	case "-":
		ok = isNumeric(t) && !isUnsigned(t)
	case "+":
		ok = isNumeric(t)
	case "!":
		ok = isBool(t)
	case "~":
		ok = isInteger(t)
	}

	if !ok {
		return nil, ErrInvalidOperation.
			Wrapf("operator %s not defined on %s", n.Op, typeName(t)).
			With(slog.String("operator", n.Op)).
			At(n.Span)
	}

	return &UnaryOp{Span: n.Span, Op: n.Op, X: x}, nil
}

// common returns the type both numeric operands convert to, allowing an
// integer constant to adopt the type of the other operand.
func (b *binder) common(x, y Expr) (reflect.Type, bool) {
	xt, yt := x.Type(), y.Type()
	if xt == nil || yt == nil {
		return nil, false
	}

	if t, ok := promote(xt, yt); ok {
		return t, true
	}

	if c, ok := x.(*Const); ok && constFits(c.Value, yt) {
		return yt, true
	}

	if c, ok := y.(*Const); ok && constFits(c.Value, xt) {
		return xt, true
	}

	return nil, false
}

// binary types the infix operation x op y.
func (b *binder) binary(op string, x, y Expr, span Span) (Expr, error) {
	xt, yt := x.Type(), y.Type()

	if b.env.settings.LateBinding && (isInterface(xt) || isInterface(yt)) {
		return &DynamicOp{Span: span, Op: op, X: x, Y: y}, nil
	}

	invalid := func() error {
		return ErrInvalidOperation.
			Wrapf("operator %s not defined on %s and %s",
				op, typeName(xt), typeName(yt)).
			With(slog.String("operator", op)).
			At(span)
	}

	result := func(t reflect.Type, operand reflect.Type) (Expr, error) {
		cx, err := b.convert(x, operand)
		if err != nil {
			return nil, err
		}

		cy, err := b.convert(y, operand)
		if err != nil {
			return nil, err
		}

		return &BinaryOp{Span: span, Op: op, X: cx, Y: cy, Typ: t}, nil
	}

	switch op {
	case "&&", "||":
		if isBool(xt) && isBool(yt) {
			return result(boolType, boolType)
		}

	case "+":
		if isString(xt) || isString(yt) {
			return &BinaryOp{Span: span, Op: op, X: x, Y: y, Typ: stringType}, nil
		}

		if ct, ok := b.common(x, y); ok {
			return result(ct, ct)
		}

	case "-", "*", "/", "%":
		if ct, ok := b.common(x, y); ok {
			return result(ct, ct)
		}

	case "&", "|", "^":
		if isBool(xt) && isBool(yt) {
			return result(boolType, boolType)
		}

		if ct, ok := b.common(x, y); ok && isInteger(ct) {
			return result(ct, ct)
		}

	case "<<", ">>":
		if isInteger(xt) && isInteger(yt) {
			return &BinaryOp{Span: span, Op: op, X: x, Y: y, Typ: xt}, nil
		}

	case "<", ">", "<=", ">=":
		if ct, ok := b.common(x, y); ok {
			return result(boolType, ct)
		}

		if isString(xt) && xt == yt {
			return &BinaryOp{Span: span, Op: op, X: x, Y: y, Typ: boolType}, nil
		}

	case "==", "!=":
		return b.equality(op, x, y, span, invalid)
	}

	return nil, invalid()
}

func (b *binder) equality(
	op string,
	x, y Expr,
	span Span,
	invalid func() error,
) (Expr, error) {
	xt, yt := x.Type(), y.Type()

	same := func(cx, cy Expr) (Expr, error) {
		return &BinaryOp{Span: span, Op: op, X: cx, Y: cy, Typ: boolType}, nil
	}

	switch {
	case xt == nil && yt == nil:
		return same(x, y)
	case xt == nil:
		if nillable(yt) {
			return same(x, y)
		}
	case yt == nil:
		if nillable(xt) {
			return same(x, y)
		}
	case xt == yt:
		if xt.Comparable() {
			return same(x, y)
		}
	default:
		if ct, ok := b.common(x, y); ok {
			cx, err := b.convert(x, ct)
			if err != nil {
				return nil, err
			}

			cy, err := b.convert(y, ct)
			if err != nil {
				return nil, err
			}

			return same(cx, cy)
		}

		if implicitRank(xt, yt) != RankNone && yt.Comparable() {
			cx, err := b.convert(x, yt)
			if err != nil {
				return nil, err
			}

			return same(cx, y)
		}

		if implicitRank(yt, xt) != RankNone && xt.Comparable() {
			cy, err := b.convert(y, xt)
			if err != nil {
				return nil, err
			}

			return same(x, cy)
		}
	}

	return nil, invalid()
}
