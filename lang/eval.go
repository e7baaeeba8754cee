package lang

import (
	"fmt"
	"math"
	"reflect"
	"strings"
)

func isSignedKind(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Int64
}

func isUnsignedKind(k reflect.Kind) bool {
	return k >= reflect.Uint && k <= reflect.Uintptr
}

func isFloatKind(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}

// unwrap returns the dynamic value held by interface values.
func unwrap(v reflect.Value) reflect.Value {
	for v.IsValid() && v.Kind() == reflect.Interface && !v.IsNil() {
		v = v.Elem()
	}

	return v
}

func isNilValue(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}

	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func,
		reflect.Interface, reflect.Chan, reflect.UnsafePointer:
		return v.IsNil()
	}

	return false
}

// text formats v for string concatenation; null formats as "".
func text(v reflect.Value) string {
	v = unwrap(v)
	if isNilValue(v) {
		return ""
	}

	if v.Kind() == reflect.String {
		return v.String()
	}

	return fmt.Sprint(v.Interface())
}

func concat(x, y reflect.Value) reflect.Value {
	return reflect.ValueOf(text(x) + text(y))
}

func shiftCount(y reflect.Value) (uint64, error) {
	if isSignedKind(y.Kind()) {
		n := y.Int()
		if n < 0 {
			return 0, ErrInvocation.Wrapf("negative shift count %d", n)
		}

		return uint64(n), nil
	}

	return y.Uint(), nil
}

// arith applies an arithmetic, bitwise or shift operator to operands whose
// kind matches t.
func arith(op string, x, y reflect.Value, t reflect.Type) (reflect.Value, error) {
	out := reflect.New(t).Elem()
	k := t.Kind()

	switch {
	case isSignedKind(k):
		a := x.Int()

		var r int64

		switch op {
		case "<<", ">>":
			n, err := shiftCount(y)
			if err != nil {
				return reflect.Value{}, err
			}

			if op == "<<" {
				r = a << n
			} else {
				r = a >> n
			}

			out.SetInt(r)

			return out, nil
		}

		b := y.Int()

		switch op {
		case "+":
			r = a + b
		case "-":
			r = a - b
		case "*":
			r = a * b
		case "/", "%":
			if b == 0 {
				return reflect.Value{}, ErrInvocation.Wrapf("integer division by zero")
			}

			if op == "/" {
				r = a / b
			} else {
				r = a % b
			}
		case "&":
			r = a & b
		case "|":
			r = a | b
		case "^":
			r = a ^ b
		default:
			return reflect.Value{}, badOp(op, t)
		}

		out.SetInt(r)

	case isUnsignedKind(k):
		a := x.Uint()

		var r uint64

		switch op {
		case "<<", ">>":
			n, err := shiftCount(y)
			if err != nil {
				return reflect.Value{}, err
			}

			if op == "<<" {
				r = a << n
			} else {
				r = a >> n
			}

			out.SetUint(r)

			return out, nil
		}

		b := y.Uint()

		switch op {
		case "+":
			r = a + b
		case "-":
			r = a - b
		case "*":
			r = a * b
		case "/", "%":
			if b == 0 {
				return reflect.Value{}, ErrInvocation.Wrapf("integer division by zero")
			}

			if op == "/" {
				r = a / b
			} else {
				r = a % b
			}
		case "&":
			r = a & b
		case "|":
			r = a | b
		case "^":
			r = a ^ b
		default:
			return reflect.Value{}, badOp(op, t)
		}

		out.SetUint(r)

	case isFloatKind(k):
		a, b := x.Float(), y.Float()

		var r float64

		switch op {
		case "+":
			r = a + b
		case "-":
			r = a - b
		case "*":
			r = a * b
		case "/":
			r = a / b
		case "%":
			r = math.Mod(a, b)
		default:
			return reflect.Value{}, badOp(op, t)
		}

		out.SetFloat(r)

	case k == reflect.Bool:
		a, b := x.Bool(), y.Bool()

		switch op {
		case "&", "&&":
			out.SetBool(a && b)
		case "|", "||":
			out.SetBool(a || b)
		case "^":
			out.SetBool(a != b)
		default:
			return reflect.Value{}, badOp(op, t)
		}

	default:
		return reflect.Value{}, badOp(op, t)
	}

	return out, nil
}

func badOp(op string, t reflect.Type) error {
	return ErrInvocation.Wrapf("operator %s not defined on %s", op, typeName(t))
}

// compare applies a relational operator to operands of the same kind.
func compare(op string, x, y reflect.Value) (bool, error) {
	var c int

	switch k := x.Kind(); {
	case isSignedKind(k):
		c = cmp3(x.Int(), y.Int())
	case isUnsignedKind(k):
		c = cmp3(x.Uint(), y.Uint())
	case isFloatKind(k):
		a, b := x.Float(), y.Float()
		if math.IsNaN(a) || math.IsNaN(b) {
			return false, nil
		}

		c = cmp3(a, b)
	case k == reflect.String:
		c = strings.Compare(x.String(), y.String())
	default:
		return false, badOp(op, x.Type())
	}

	switch op {
	case "<":
		return c < 0, nil
	case "<=":
		return c <= 0, nil
	case ">":
		return c > 0, nil
	case ">=":
		return c >= 0, nil
	}

	return false, badOp(op, x.Type())
}

func cmp3[T int64 | uint64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}

	return 0
}

// equalValues compares two values with == semantics. Null equals only null.
func equalValues(x, y reflect.Value) (bool, error) {
	xn, yn := isNilValue(x), isNilValue(y)
	if xn || yn {
		return xn && yn, nil
	}

	x, y = unwrap(x), unwrap(y)

	if x.Type() != y.Type() {
		if ct, ok := promote(x.Type(), y.Type()); ok {
			x, y = x.Convert(ct), y.Convert(ct)
		} else {
			return false, nil
		}
	}

	if !x.Comparable() {
		return false, ErrInvocation.Wrapf("values of type %s are not comparable", x.Type())
	}

	return x.Equal(y), nil
}

func unaryOp(op string, x reflect.Value, t reflect.Type) (reflect.Value, error) {
	out := reflect.New(t).Elem()
	k := t.Kind()

	switch {
	case op == "+" && (isSignedKind(k) || isUnsignedKind(k) || isFloatKind(k)):
		out.Set(x)
	case op == "-" && isSignedKind(k):
		out.SetInt(-x.Int())
	case op == "-" && isFloatKind(k):
		out.SetFloat(-x.Float())
	case op == "~" && isSignedKind(k):
		out.SetInt(^x.Int())
	case op == "~" && isUnsignedKind(k):
		out.SetUint(^x.Uint())
	case op == "!" && k == reflect.Bool:
		out.SetBool(!x.Bool())
	default:
		return reflect.Value{}, badOp(op, t)
	}

	return out, nil
}

// dynamicNumeric returns the type dynamic numeric operands are computed in.
func dynamicNumeric(x, y reflect.Type) (reflect.Type, bool) {
	if t, ok := promote(x, y); ok {
		return t, true
	}

	if !isNumeric(x) || !isNumeric(y) {
		return nil, false
	}

	if isFloat(x) || isFloat(y) {
		return reflect.TypeFor[float64](), true
	}

	return reflect.TypeFor[int64](), true
}
