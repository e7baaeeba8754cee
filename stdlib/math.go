package stdlib

import (
	"math"
	"reflect"

	"github.com/ardnew/dexpr/lang"
)

// MathFuncs is the type behind the Math alias. Integer arguments widen to
// double, so Math.Max(1, 2) is the double 2.
type MathFuncs struct{}

func (MathFuncs) Abs(x float64) float64      { return math.Abs(x) }
func (MathFuncs) Ceiling(x float64) float64  { return math.Ceil(x) }
func (MathFuncs) Floor(x float64) float64    { return math.Floor(x) }
func (MathFuncs) Truncate(x float64) float64 { return math.Trunc(x) }
func (MathFuncs) Sqrt(x float64) float64     { return math.Sqrt(x) }
func (MathFuncs) Cbrt(x float64) float64     { return math.Cbrt(x) }
func (MathFuncs) Exp(x float64) float64      { return math.Exp(x) }
func (MathFuncs) Log(x float64) float64      { return math.Log(x) }
func (MathFuncs) Log10(x float64) float64    { return math.Log10(x) }
func (MathFuncs) Log2(x float64) float64     { return math.Log2(x) }
func (MathFuncs) Sin(x float64) float64      { return math.Sin(x) }
func (MathFuncs) Cos(x float64) float64      { return math.Cos(x) }
func (MathFuncs) Tan(x float64) float64      { return math.Tan(x) }
func (MathFuncs) Atan2(y, x float64) float64 { return math.Atan2(y, x) }
func (MathFuncs) Pow(x, y float64) float64   { return math.Pow(x, y) }
func (MathFuncs) Max(x, y float64) float64   { return math.Max(x, y) }
func (MathFuncs) Min(x, y float64) float64   { return math.Min(x, y) }
func (MathFuncs) PI() float64                { return math.Pi }
func (MathFuncs) E() float64                 { return math.E }

// Round rounds half away from zero.
func (MathFuncs) Round(x float64) float64 { return math.Round(x) }

// Sign returns -1, 0 or 1.
func (MathFuncs) Sign(x float64) int {
	switch {
	case x < 0:
		return -1
	case x > 0:
		return 1
	}

	return 0
}

// Clamp limits x to [lo, hi].
func (MathFuncs) Clamp(x, lo, hi float64) float64 {
	return math.Min(math.Max(x, lo), hi)
}

func registerMath(env *lang.Environment) error {
	return env.SetType("Math", reflect.TypeFor[MathFuncs]())
}
