package lang

import (
	"math"
	"reflect"
)

var (
	anyType    = reflect.TypeFor[any]()
	boolType   = reflect.TypeFor[bool]()
	stringType = reflect.TypeFor[string]()
	intType    = reflect.TypeFor[int]()
)

// Rank orders implicit conversions from best to worst.
type Rank int

const (
	RankExact    Rank = iota // identical types
	RankWidening             // numeric widening, interface satisfaction, null
	RankUser                 // registered user conversion
	RankDynamic              // interface value checked when invoked
	RankNone                 // no implicit conversion
)

// String returns the lowercase name of the rank.
func (r Rank) String() string {
	switch r {
	case RankExact:
		return "exact"
	case RankWidening:
		return "widening"
	case RankUser:
		return "user"
	case RankDynamic:
		return "dynamic"
	default:
		return "none"
	}
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "null"
	}

	return t.String()
}

func nillable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func,
		reflect.Interface, reflect.Chan, reflect.UnsafePointer:
		return true
	}

	return false
}

// basic reports whether t is one of the predeclared non-defined types.
func basic(t reflect.Type) bool {
	return t != nil && t.PkgPath() == "" && t.Name() == t.Kind().String()
}

func isInteger(t reflect.Type) bool {
	if t == nil {
		return false
	}

	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64, reflect.Uintptr:
		return true
	}

	return false
}

func isUnsigned(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64, reflect.Uintptr:
		return true
	}

	return false
}

func isFloat(t reflect.Type) bool {
	return t != nil && (t.Kind() == reflect.Float32 || t.Kind() == reflect.Float64)
}

func isNumeric(t reflect.Type) bool { return isInteger(t) || isFloat(t) }

func isInterface(t reflect.Type) bool {
	return t != nil && t.Kind() == reflect.Interface
}

// widening lists, per kind, the kinds each value converts to without loss.
var widening = map[reflect.Kind][]reflect.Kind{
	reflect.Int8: {
		reflect.Int16, reflect.Int32, reflect.Int64, reflect.Int,
		reflect.Float32, reflect.Float64,
	},
	reflect.Int16: {
		reflect.Int32, reflect.Int64, reflect.Int, reflect.Float32,
		reflect.Float64,
	},
	reflect.Int32: {
		reflect.Int64, reflect.Int, reflect.Float32, reflect.Float64,
	},
	reflect.Int:   {reflect.Int64, reflect.Float32, reflect.Float64},
	reflect.Int64: {reflect.Float32, reflect.Float64},
	reflect.Uint8: {
		reflect.Int16, reflect.Int32, reflect.Int64, reflect.Int,
		reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uint,
		reflect.Float32, reflect.Float64,
	},
	reflect.Uint16: {
		reflect.Int32, reflect.Int64, reflect.Int,
		reflect.Uint32, reflect.Uint64, reflect.Uint,
		reflect.Float32, reflect.Float64,
	},
	reflect.Uint32: {
		reflect.Int64, reflect.Int, reflect.Uint64, reflect.Uint,
		reflect.Float32, reflect.Float64,
	},
	reflect.Uint:    {reflect.Uint64, reflect.Float32, reflect.Float64},
	reflect.Uint64:  {reflect.Float32, reflect.Float64},
	reflect.Float32: {reflect.Float64},
}

// widens reports whether from converts implicitly to to by numeric
// widening. Only predeclared numeric types widen.
func widens(from, to reflect.Type) bool {
	if !basic(from) || !basic(to) {
		return false
	}

	for _, k := range widening[from.Kind()] {
		if k == to.Kind() {
			return true
		}
	}

	return false
}

// implicitRank ranks the implicit conversion from -> to that needs no
// environment: identity, widening, interface satisfaction and null.
func implicitRank(from, to reflect.Type) Rank {
	switch {
	case to == nil:
		return RankNone
	case from == nil:
		if nillable(to) {
			return RankWidening
		}

		return RankNone
	case from == to:
		return RankExact
	case to.Kind() == reflect.Interface && from.Implements(to):
		return RankWidening
	case widens(from, to):
		return RankWidening
	case from.AssignableTo(to):
		return RankWidening
	}

	return RankNone
}

// constFits reports whether the integer constant v is representable in the
// numeric type to.
func constFits(v reflect.Value, to reflect.Type) bool {
	if !v.IsValid() || !isInteger(v.Type()) || !basic(to) || !isNumeric(to) {
		return false
	}

	if isFloat(to) {
		return true
	}

	if isUnsigned(v.Type()) {
		u := v.Uint()
		if isUnsigned(to) {
			return !reflect.Zero(to).OverflowUint(u)
		}

		return u <= math.MaxInt64 && !reflect.Zero(to).OverflowInt(int64(u))
	}

	i := v.Int()
	if isUnsigned(to) {
		return i >= 0 && !reflect.Zero(to).OverflowUint(uint64(i))
	}

	return !reflect.Zero(to).OverflowInt(i)
}

// promote returns the common type of two numeric operand types.
func promote(x, y reflect.Type) (reflect.Type, bool) {
	switch {
	case !isNumeric(x) || !isNumeric(y):
		return nil, false
	case x == y:
		return x, true
	case widens(x, y):
		return y, true
	case widens(y, x):
		return x, true
	}

	return nil, false
}

// convertValue converts v to type to for a conversion the binder accepted.
func convertValue(v reflect.Value, to reflect.Type) (reflect.Value, error) {
	if !v.IsValid() {
		if nillable(to) {
			return reflect.Zero(to), nil
		}

		return reflect.Value{}, ErrInvocation.
			Wrapf("cannot convert null to %s", typeName(to))
	}

	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			return convertValue(reflect.Value{}, to)
		}

		v = v.Elem()
	}

	if v.Type() == to {
		return v, nil
	}

	if to.Kind() == reflect.Interface {
		if !v.Type().Implements(to) {
			return reflect.Value{}, ErrInvocation.
				Wrapf("%s does not implement %s", v.Type(), typeName(to))
		}

		out := reflect.New(to).Elem()
		out.Set(v)

		return out, nil
	}

	if !v.Type().ConvertibleTo(to) || numericToString(v.Type(), to) {
		return reflect.Value{}, ErrInvocation.
			Wrapf("cannot convert %s to %s", v.Type(), typeName(to))
	}

	return v.Convert(to), nil
}

func numericToString(from, to reflect.Type) bool {
	return to.Kind() == reflect.String && isNumeric(from)
}

// explicitConvertible reports whether T(x) may convert from -> to.
func explicitConvertible(from, to reflect.Type) bool {
	switch {
	case from == nil:
		return nillable(to)
	case from.Kind() == reflect.Interface:
		return true
	case numericToString(from, to):
		return false
	}

	return implicitRank(from, to) != RankNone || from.ConvertibleTo(to)
}

func fromReflect(t reflect.Type) bool {
	if t == nil {
		return false
	}

	for t.Kind() == reflect.Pointer || t.Kind() == reflect.Slice ||
		t.Kind() == reflect.Array {
		t = t.Elem()
	}

	return t.PkgPath() == "reflect"
}
