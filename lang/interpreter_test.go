package lang

import (
	"context"
	"errors"
	"reflect"
	"slices"
	"strings"
	"sync"
	"testing"
)

type point struct{ X, Y int }

func (p point) Sum() int { return p.X + p.Y }

func (p *point) Scale(k int) {
	p.X *= k
	p.Y *= k
}

type mathLib struct{}

func (mathLib) Max(a, b int) int { return max(a, b) }

type handle struct{}

func (handle) GetMetadataHandle() int { return 1 }
func (handle) Name() string           { return "handle" }

type greeter struct{ Prefix string }

func (g greeter) Greet(name string) string { return g.Prefix + name }

type record struct{ values map[string]any }

func (r record) LookupMember(name string) (any, bool) {
	v, ok := r.values[name]

	return v, ok
}

type celsius float64

var (
	intT    = reflect.TypeFor[int]()
	stringT = reflect.TypeFor[string]()
)

func param(name string, typ reflect.Type) Parameter {
	return Parameter{Name: name, Type: typ}
}

func mustParse(
	t *testing.T,
	in *Interpreter,
	text string,
	ret reflect.Type,
	params ...Parameter,
) *Expression {
	t.Helper()

	e, err := in.Parse(t.Context(), text, ret, params...)
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", text, err)
	}

	return e
}

func TestInterpreter_RegisteredFunction(t *testing.T) {
	env := NewEnvironment()
	if err := env.SetVariable("x", 10); err != nil {
		t.Fatal(err)
	}

	if err := env.SetFunction("double",
		func(x int) int { return 2 * x },
		func(x float64) float64 { return 2 * x },
	); err != nil {
		t.Fatal(err)
	}

	in := New(WithEnvironment(env))
	e := mustParse(t, in, "double(x) + 1", intT)

	if n := len(e.Params()); n != 0 {
		t.Fatalf("Params() has %d entries, want none", n)
	}

	got, err := e.Invoke()
	if err != nil {
		t.Fatalf("Invoke error: %v", err)
	}

	if got != 21 {
		t.Errorf("double(x) + 1 = %v, want 21", got)
	}

	if e.ID() == mustParse(t, in, "double(x) + 1", intT).ID() {
		t.Error("separately parsed expressions share an ID")
	}
}

func TestInterpreter_DetectedParameters(t *testing.T) {
	in := New()

	d, err := in.Detect("a + b", false)
	if err != nil {
		t.Fatalf("Detect error: %v", err)
	}

	if !slices.Equal(d.Unresolved, []string{"a", "b"}) {
		t.Fatalf("Unresolved = %v, want [a b]", d.Unresolved)
	}

	params := make([]Parameter, len(d.Unresolved))
	for i, name := range d.Unresolved {
		params[i] = param(name, intT)
	}

	e := mustParse(t, in, "a + b", nil, params...)

	got, err := e.Invoke(3, 4)
	if err != nil {
		t.Fatalf("Invoke error: %v", err)
	}

	if got != 7 {
		t.Errorf("a + b = %v, want 7", got)
	}
}

func TestInterpreter_Eval(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		params []Parameter
		want   any
	}{
		{"precedence", "1 + 2 * 3", nil, 7},
		{"integer division", "7 / 2", nil, 3},
		{"modulo", "7 % 3", nil, 1},
		{"mixed real", "1.5 + 1", nil, 2.5},
		{"float32", "2.0f * 3", nil, float32(6)},
		{"unsigned", "10u - 3u", nil, uint(7)},
		{"shift", "1 << 4", nil, 16},
		{"bitwise", "(0xF0 | 0x0F) ^ 6 & 3", nil, 253},
		{"complement", "~0", nil, -1},
		{"logical", "true && !false", nil, true},
		{"short circuit", "false && 1 / zero == 0", []Parameter{{Name: "zero", Value: 0}}, false},
		{"conditional", `3 > 2 ? "yes" : "no"`, nil, "yes"},
		{"concat", `"n=" + 5`, nil, "n=5"},
		{"concat left", `1 + 2 + "x"`, nil, "3x"},
		{"string compare", `"abc" < "abd"`, nil, true},
		{"null equality", "null == null", nil, true},
		{"mixed equality", "1 == 1.0", nil, true},
		{"char", "'a'", nil, 'a'},
		{"negation", "-(3)", nil, -3},
		{"parameter", "x * 2", []Parameter{{Name: "x", Value: 21}}, 42},
		{"string parameter", "s + s", []Parameter{{Name: "s", Value: "ab"}}, "abab"},
		{"string index", "s[1]", []Parameter{{Name: "s", Value: "ab"}}, byte('b')},
		{"slice index", "xs[2]", []Parameter{{Name: "xs", Value: []int{4, 5, 6}}}, 6},
		{"map member", "m.a + m[\"b\"]", []Parameter{{Name: "m", Value: map[string]int{"a": 1, "b": 2}}}, 3},
		{"missing map key", `m["zz"]`, []Parameter{{Name: "m", Value: map[string]int{}}}, 0},
		{"field", "p.X * p.Y", []Parameter{{Name: "p", Value: point{X: 3, Y: 4}}}, 12},
		{"method", "p.Sum()", []Parameter{{Name: "p", Value: point{X: 3, Y: 4}}}, 7},
		{"pointer method", "p.Sum()", []Parameter{{Name: "p", Value: &point{X: 1, Y: 1}}}, 2},
		{"nil pointer equality", "p == null", []Parameter{{Name: "p", Type: reflect.TypeFor[*point]()}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New().Eval(t.Context(), tt.input, tt.params...)
			if err != nil {
				t.Fatalf("Eval(%q) error: %v", tt.input, err)
			}

			if got != tt.want {
				t.Errorf("Eval(%q) = %v (%T), want %v (%T)", tt.input, got, got, tt.want, tt.want)
			}
		})
	}
}

func TestInterpreter_ParseErrors(t *testing.T) {
	env := NewEnvironment()
	_ = env.SetFunction("double", func(x int) int { return 2 * x })
	_ = env.SetType("Math", reflect.TypeFor[mathLib]())
	_ = env.SetType("text", stringT)

	tests := []struct {
		name   string
		input  string
		ret    reflect.Type
		params []Parameter
		target error
	}{
		{"unknown identifier", "doble(2)", nil, nil, ErrUnknownIdentifier},
		{"unknown bare identifier", "y + 1", nil, nil, ErrUnknownIdentifier},
		{"bool arithmetic", "1 + true", nil, nil, ErrInvalidOperation},
		{"string subtraction", `"a" - 1`, nil, nil, ErrInvalidOperation},
		{"unary on string", `-"a"`, nil, nil, ErrInvalidOperation},
		{"unknown member", "p.Z", nil, []Parameter{param("p", reflect.TypeFor[point]())}, ErrUnknownMember},
		{"unknown method", "p.Nope()", nil, []Parameter{param("p", reflect.TypeFor[point]())}, ErrUnknownMember},
		{"static member", "Math.Pi", nil, nil, ErrUnknownMember},
		{"return type", `"s"`, intT, nil, ErrReturnTypeMismatch},
		{"narrowing return", "1.5", intT, nil, ErrReturnTypeMismatch},
		{"not assignable", "1 = 2", nil, nil, ErrNotAssignable},
		{"call result not assignable", "double(1) = 2", nil, nil, ErrNotAssignable},
		{"non-bool condition", "1 ? 2 : 3", nil, nil, ErrInvalidConversion},
		{"mismatched branches", `true ? 1 : "a"`, nil, nil, ErrInvalidOperation},
		{"null else branch", "true ? 1 : null", nil, nil, ErrInvalidOperation},
		{"null then branch", "true ? null : 1", nil, nil, ErrInvalidOperation},
		{"null branch with parameter test", "b ? 1 : null", nil, []Parameter{param("b", reflect.TypeFor[bool]())}, ErrInvalidOperation},
		{"type as value", "Math", nil, nil, ErrInvalidOperation},
		{"numeric to string", "text(5)", nil, nil, ErrInvalidConversion},
		{"no overload", "double(1, 2)", nil, nil, ErrNoApplicableOverload},
		{"argument type", `double("x")`, nil, nil, ErrNoApplicableOverload},
		{"not callable", "x(1)", nil, []Parameter{param("x", intT)}, ErrInvalidOperation},
		{"duplicate parameter", "x", nil, []Parameter{param("x", intT), param("x", intT)}, ErrConfiguration},
		{"untyped parameter", "x", nil, []Parameter{{Name: "x"}}, ErrConfiguration},
		{"keyword parameter", "1", nil, []Parameter{param("while", intT)}, ErrReservedKeyword},
		{"syntax", "1 +", nil, nil, ErrSyntax},
		{"lex", "1m", nil, nil, ErrLex},
	}

	in := New(WithEnvironment(env))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := in.Parse(t.Context(), tt.input, tt.ret, tt.params...)
			if !errors.Is(err, tt.target) {
				t.Fatalf("Parse(%q) error = %v, want %v", tt.input, err, tt.target)
			}
		})
	}
}

func TestInterpreter_Suggestion(t *testing.T) {
	env := NewEnvironment()
	_ = env.SetFunction("double", func(x int) int { return 2 * x })

	_, err := New(WithEnvironment(env)).Parse(t.Context(), "doble(2)", nil)
	if err == nil || !strings.Contains(err.Error(), `"double"`) {
		t.Fatalf("error = %v, want a suggestion of double", err)
	}

	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("error %T is not *Error", err)
	}

	if span, ok := e.Span(); !ok || span != (Span{0, 5}) {
		t.Errorf("span = %v, %v, want 0:5", span, ok)
	}

	if e.Source() != "doble(2)" {
		t.Errorf("source = %q", e.Source())
	}
}

func TestInterpreter_Overloads(t *testing.T) {
	env := NewEnvironment()
	_ = env.SetFunction("kind",
		func(int) string { return "int" },
		func(int64) string { return "long" },
		func(float64) string { return "double" },
		func(string) string { return "string" },
	)
	_ = env.SetFunction("pick",
		func(int64, float64) string { return "A" },
		func(float64, int64) string { return "B" },
	)
	_ = env.SetFunction("sum", func(xs ...int) int {
		n := 0
		for _, x := range xs {
			n += x
		}

		return n
	})
	_ = env.SetFunction("join", func(sep string, parts ...string) string {
		return strings.Join(parts, sep)
	})

	in := New(WithEnvironment(env))

	tests := []struct {
		name   string
		input  string
		params []Parameter
		args   []any
		want   any
	}{
		{"exact int", "kind(1)", nil, nil, "int"},
		{"exact long", "kind(1L)", nil, nil, "long"},
		{"exact double", "kind(1.5)", nil, nil, "double"},
		{"string", `kind("s")`, nil, nil, "string"},
		{"widened float32", "kind(v)", []Parameter{param("v", reflect.TypeFor[float32]())}, []any{float32(1)}, "double"},
		{"resolvable pick", "pick(1L, 2.5)", nil, nil, "A"},
		{"variadic empty", "sum()", nil, nil, 0},
		{"variadic expanded", "sum(1, 2, 3)", nil, nil, 6},
		{"variadic slice", "sum(xs)", []Parameter{param("xs", reflect.TypeFor[[]int]())}, []any{[]int{4, 5}}, 9},
		{"variadic after fixed", `join("-", "a", "b", "c")`, nil, nil, "a-b-c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := mustParse(t, in, tt.input, nil, tt.params...)

			got, err := e.Invoke(tt.args...)
			if err != nil {
				t.Fatalf("Invoke error: %v", err)
			}

			if got != tt.want {
				t.Errorf("%s = %v, want %v", tt.input, got, tt.want)
			}
		})
	}

	ambiguous := []struct {
		name   string
		input  string
		params []Parameter
	}{
		{"crossed widening", "pick(1, 1)", nil},
		{"widened int32", "kind(v)", []Parameter{param("v", reflect.TypeFor[int32]())}},
		{"widened uint32", "kind(v)", []Parameter{param("v", reflect.TypeFor[uint32]())}},
	}

	for _, tt := range ambiguous {
		t.Run(tt.name, func(t *testing.T) {
			_, err := in.Parse(t.Context(), tt.input, nil, tt.params...)
			if !errors.Is(err, ErrAmbiguousOverload) {
				t.Fatalf("error = %v, want ErrAmbiguousOverload", err)
			}
		})
	}

	t.Run("registration order", func(t *testing.T) {
		rev := NewEnvironment()
		_ = rev.SetFunction("kind",
			func(float64) string { return "double" },
			func(int64) string { return "long" },
			func(int) string { return "int" },
		)

		v, err := New(WithEnvironment(rev)).Eval(t.Context(), "kind(1L)")
		if err != nil {
			t.Fatal(err)
		}

		if v != "long" {
			t.Fatalf("kind(1L) = %v, want long", v)
		}

		_, err = New(WithEnvironment(rev)).Eval(t.Context(), "kind(v)",
			Parameter{Name: "v", Value: int32(2)})
		if !errors.Is(err, ErrAmbiguousOverload) {
			t.Fatalf("kind(int32) error = %v, want ErrAmbiguousOverload", err)
		}
	})
}

func TestInterpreter_TypesAndConversions(t *testing.T) {
	env := NewEnvironment()
	_ = env.SetType("long", reflect.TypeFor[int64]())
	_ = env.SetType("Math", reflect.TypeFor[mathLib]())
	_ = env.SetType("Text", stringT,
		Extension{Name: "Shout", Func: strings.ToUpper},
		Extension{Name: "Repeat", Func: strings.Repeat},
	)
	_ = env.SetType("Point", reflect.TypeFor[point](),
		Extension{Name: "Sum", Func: func(point) int { return 999 }},
		Extension{Name: "Norm1", Func: func(p point) int { return max(p.X, -p.X) + max(p.Y, -p.Y) }},
	)
	_ = env.SetConversion(func(c celsius) float64 { return float64(c)*9/5 + 32 })
	_ = env.SetFunction("fahrenheit", func(f float64) float64 { return f })

	in := New(WithEnvironment(env))

	tests := []struct {
		name   string
		input  string
		params []Parameter
		args   []any
		want   any
	}{
		{"explicit conversion", "long(5) * 2", nil, nil, int64(10)},
		{"truncating conversion", "long(2.9)", nil, nil, int64(2)},
		{"static method", "Math.Max(1, 2)", nil, nil, 2},
		{"extension", "s.Shout()", []Parameter{param("s", stringT)}, []any{"hi"}, "HI"},
		{"extension args", "s.Repeat(3)", []Parameter{param("s", stringT)}, []any{"ab"}, "ababab"},
		{"literal receiver", `"x".Shout()`, nil, nil, "X"},
		{"instance before extension", "p.Sum()", []Parameter{param("p", reflect.TypeFor[point]())}, []any{point{1, 2}}, 3},
		{"extension on struct", "p.Norm1()", []Parameter{param("p", reflect.TypeFor[point]())}, []any{point{-1, 2}}, 3},
		{
			"user conversion", "fahrenheit(t)",
			[]Parameter{param("t", reflect.TypeFor[celsius]())}, []any{celsius(100)}, 212.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := mustParse(t, in, tt.input, nil, tt.params...)

			got, err := e.Invoke(tt.args...)
			if err != nil {
				t.Fatalf("Invoke error: %v", err)
			}

			if got != tt.want {
				t.Errorf("%s = %v (%T), want %v (%T)", tt.input, got, got, tt.want, tt.want)
			}
		})
	}
}

func TestInterpreter_Variables(t *testing.T) {
	env := NewEnvironment()
	_ = env.SetVariable("answer", 42)

	ticks := 0
	_ = env.SetGetter("tick", func() int {
		ticks++

		return ticks
	})

	in := New(WithEnvironment(env))

	if v, err := in.Eval(t.Context(), "answer + 1"); err != nil || v != 43 {
		t.Errorf("answer + 1 = %v, %v", v, err)
	}

	e := mustParse(t, in, "tick", intT)

	for want := 1; want <= 3; want++ {
		v, err := e.Invoke()
		if err != nil {
			t.Fatal(err)
		}

		if v != want {
			t.Errorf("tick = %v, want %d", v, want)
		}
	}

	// Compiled expressions keep the value registered when they were parsed.
	e = mustParse(t, in, "answer", nil)
	_ = env.SetVariable("answer", 7)

	if v, _ := e.Invoke(); v != 42 {
		t.Errorf("answer = %v after re-registration, want 42", v)
	}
}

func TestInterpreter_Assignment(t *testing.T) {
	in := New()

	t.Run("field through pointer", func(t *testing.T) {
		p := &point{X: 1, Y: 2}
		e := mustParse(t, in, "p.X = 5", nil, param("p", reflect.TypeFor[*point]()))

		v, err := e.Invoke(p)
		if err != nil {
			t.Fatal(err)
		}

		if v != 5 || p.X != 5 {
			t.Errorf("result %v, p.X = %d, want 5", v, p.X)
		}
	})

	t.Run("compound", func(t *testing.T) {
		e := mustParse(t, in, "x += 2", intT, param("x", intT))

		if v, err := e.Invoke(5); err != nil || v != 7 {
			t.Errorf("x += 2 = %v, %v, want 7", v, err)
		}
	})

	t.Run("sequence", func(t *testing.T) {
		e := mustParse(t, in, "(x = x * 3) + x", intT, param("x", intT))

		if v, err := e.Invoke(2); err != nil || v != 12 {
			t.Errorf("(x = x * 3) + x = %v, %v, want 12", v, err)
		}
	})

	t.Run("map entry", func(t *testing.T) {
		m := map[string]int{}
		e := mustParse(t, in, `m["k"] = 3`, nil, param("m", reflect.TypeFor[map[string]int]()))

		if _, err := e.Invoke(m); err != nil {
			t.Fatal(err)
		}

		if m["k"] != 3 {
			t.Errorf(`m["k"] = %d, want 3`, m["k"])
		}
	})

	t.Run("slice element", func(t *testing.T) {
		xs := []int{1, 2, 3}
		e := mustParse(t, in, "xs[1] *= 10", nil, param("xs", reflect.TypeFor[[]int]()))

		if _, err := e.Invoke(xs); err != nil {
			t.Fatal(err)
		}

		if xs[1] != 20 {
			t.Errorf("xs[1] = %d, want 20", xs[1])
		}
	})

	t.Run("pointer method", func(t *testing.T) {
		p := &point{X: 1, Y: 2}
		e := mustParse(t, in, "p.Scale(3)", nil, param("p", reflect.TypeFor[*point]()))

		if _, err := e.Invoke(p); err != nil {
			t.Fatal(err)
		}

		if *p != (point{3, 6}) {
			t.Errorf("p = %+v, want {3 6}", *p)
		}
	})

	t.Run("disabled", func(t *testing.T) {
		env := NewEnvironment(WithAssignment(AssignNone))

		_, err := New(WithEnvironment(env)).Parse(t.Context(), "x = 1", nil, param("x", intT))
		if !errors.Is(err, ErrSyntax) {
			t.Errorf("error = %v, want ErrSyntax", err)
		}
	})
}

func TestInterpreter_Lambdas(t *testing.T) {
	env := NewEnvironment(WithLambdas(true))
	_ = env.SetFunction("apply", func(f func(int) int, x int) int { return f(x) })
	_ = env.SetFunction("compose", func(f, g func(int) int) func(int) int {
		return func(x int) int { return g(f(x)) }
	})
	_ = env.SetFunction("fold", func(xs []int, seed int, f func(int, int) int) int {
		for _, x := range xs {
			seed = f(seed, x)
		}

		return seed
	})
	_ = env.SetFunction("try", func(f func(int) (int, error), x int) string {
		if _, err := f(x); err != nil {
			return "failed"
		}

		return "ok"
	})

	in := New(WithEnvironment(env))

	tests := []struct {
		name   string
		input  string
		params []Parameter
		args   []any
		want   any
	}{
		{"apply", "apply(v => v * 2, 21)", nil, nil, 42},
		{"captures parameter", "apply(v => v + k, 1)", []Parameter{param("k", intT)}, []any{10}, 11},
		{"returned func", "compose(x => x + 1, x => x * 10)(5)", nil, nil, 60},
		{"two parameters", "fold(xs, 0, (acc, x) => acc + x * x)", []Parameter{param("xs", reflect.TypeFor[[]int]())}, []any{[]int{1, 2, 3}}, 14},
		{"nested", "apply(a => apply(b => a * b, 3), 4)", nil, nil, 12},
		{"error result", "try(v => 10 / v, 0)", nil, nil, "failed"},
		{"error result ok", "try(v => 10 / v, 2)", nil, nil, "ok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := mustParse(t, in, tt.input, nil, tt.params...)

			got, err := e.Invoke(tt.args...)
			if err != nil {
				t.Fatalf("Invoke error: %v", err)
			}

			if got != tt.want {
				t.Errorf("%s = %v, want %v", tt.input, got, tt.want)
			}
		})
	}

	t.Run("error propagates", func(t *testing.T) {
		e := mustParse(t, in, "apply(v => 10 / v, 0)", nil)

		if _, err := e.Invoke(); !errors.Is(err, ErrInvocation) {
			t.Fatalf("error = %v, want ErrInvocation", err)
		}
	})

	t.Run("arity mismatch", func(t *testing.T) {
		_, err := in.Parse(t.Context(), "apply((a, b) => a, 1)", nil)
		if !errors.Is(err, ErrNoApplicableOverload) {
			t.Fatalf("error = %v, want ErrNoApplicableOverload", err)
		}
	})

	t.Run("disabled", func(t *testing.T) {
		_, err := New().Parse(t.Context(), "x => x", nil)
		if !errors.Is(err, ErrSyntax) {
			t.Fatalf("error = %v, want ErrSyntax", err)
		}
	})
}

func TestInterpreter_LateBinding(t *testing.T) {
	env := NewEnvironment(WithLateBinding(true))
	in := New(WithEnvironment(env))
	anyT := reflect.TypeFor[any]()

	t.Run("field", func(t *testing.T) {
		e := mustParse(t, in, "o.Name", nil, param("o", anyT))

		v, err := e.Invoke(struct{ Name string }{"x"})
		if err != nil || v != "x" {
			t.Fatalf("o.Name = %v, %v", v, err)
		}

		if _, err := e.Invoke(struct{ Other int }{1}); !errors.Is(err, ErrLateBinding) {
			t.Fatalf("missing member error = %v, want ErrLateBinding", err)
		}

		// A failed lookup does not poison later invocations.
		if v, err := e.Invoke(map[string]string{"Name": "y"}); err != nil || v != "y" {
			t.Fatalf("o.Name = %v, %v after failure", v, err)
		}
	})

	t.Run("method", func(t *testing.T) {
		e := mustParse(t, in, `o.Greet("Bob")`, nil, param("o", anyT))

		v, err := e.Invoke(greeter{Prefix: "Hello "})
		if err != nil || v != "Hello Bob" {
			t.Fatalf("o.Greet = %v, %v", v, err)
		}
	})

	t.Run("member lookup", func(t *testing.T) {
		e := mustParse(t, in, "r.Color", nil, param("r", reflect.TypeFor[record]()))

		v, err := e.Invoke(record{values: map[string]any{"Color": "red"}})
		if err != nil || v != "red" {
			t.Fatalf("r.Color = %v, %v", v, err)
		}
	})

	t.Run("operator", func(t *testing.T) {
		e := mustParse(t, in, "o.Count + 1", nil, param("o", anyT))

		v, err := e.Invoke(map[string]int{"Count": 4})
		if err != nil || v != 5 {
			t.Fatalf("o.Count + 1 = %v, %v", v, err)
		}
	})

	t.Run("disabled", func(t *testing.T) {
		_, err := New().Parse(t.Context(), "o.Name", nil, param("o", anyT))
		if !errors.Is(err, ErrUnknownMember) {
			t.Fatalf("error = %v, want ErrUnknownMember", err)
		}
	})
}

func TestInterpreter_ReflectionGuard(t *testing.T) {
	env := NewEnvironment(WithLateBinding(true))
	_ = env.SetFunction("typeOf", reflect.TypeOf)

	handleT := reflect.TypeFor[handle]()
	anyT := reflect.TypeFor[any]()

	t.Run("reflective method", func(t *testing.T) {
		_, err := New(WithEnvironment(env)).Parse(t.Context(), "obj.GetMetadataHandle()", nil,
			param("obj", handleT))
		if !errors.Is(err, ErrSecurity) {
			t.Fatalf("error = %v, want ErrSecurity", err)
		}

		if KindOf(err) != KindSecurity {
			t.Errorf("KindOf = %v, want security", KindOf(err))
		}
	})

	t.Run("reflection function", func(t *testing.T) {
		_, err := New(WithEnvironment(env)).Parse(t.Context(), "typeOf(1)", nil)
		if !errors.Is(err, ErrSecurity) {
			t.Fatalf("error = %v, want ErrSecurity", err)
		}
	})

	t.Run("late-bound name", func(t *testing.T) {
		_, err := New(WithEnvironment(env)).Parse(t.Context(), "o.GetType()", nil, param("o", anyT))
		if !errors.Is(err, ErrSecurity) {
			t.Fatalf("error = %v, want ErrSecurity", err)
		}
	})

	t.Run("late-bound value", func(t *testing.T) {
		e := mustParse(t, New(WithEnvironment(env)), "o.Name()", nil, param("o", anyT))

		if _, err := e.Invoke(reflect.TypeOf(1)); !errors.Is(err, ErrSecurity) {
			t.Fatalf("error = %v, want ErrSecurity", err)
		}

		if v, err := e.Invoke(handle{}); err != nil || v != "handle" {
			t.Fatalf("o.Name() = %v, %v", v, err)
		}
	})

	t.Run("custom members", func(t *testing.T) {
		in := New(WithEnvironment(env), WithReflectiveMembers("Name"))

		_, err := in.Parse(t.Context(), "obj.Name()", nil, param("obj", handleT))
		if !errors.Is(err, ErrSecurity) {
			t.Fatalf("error = %v, want ErrSecurity", err)
		}

		if _, err := in.Parse(t.Context(), "obj.GetMetadataHandle()", nil, param("obj", handleT)); err != nil {
			t.Fatalf("GetMetadataHandle rejected with custom members: %v", err)
		}
	})

	t.Run("allowed", func(t *testing.T) {
		in := New(WithEnvironment(env), WithReflection(true))

		if slices.Contains(in.Pipeline().Names(), ReflectionGuardName) {
			t.Fatal("guard pass present with reflection allowed")
		}

		v, err := in.Eval(t.Context(), "typeOf(1)")
		if err != nil {
			t.Fatal(err)
		}

		if typ, ok := v.(reflect.Type); !ok || typ.Kind() != reflect.Int {
			t.Errorf("typeOf(1) = %v", v)
		}

		e := mustParse(t, in, "obj.GetMetadataHandle()", nil, param("obj", handleT))
		if v, err := e.Invoke(handle{}); err != nil || v != 1 {
			t.Errorf("GetMetadataHandle = %v, %v", v, err)
		}
	})
}

func TestInterpreter_RuntimeErrors(t *testing.T) {
	in := New()

	tests := []struct {
		name   string
		input  string
		params []Parameter
		args   []any
		target error
	}{
		{"division by zero", "10 / d", []Parameter{param("d", intT)}, []any{0}, ErrInvocation},
		{"index out of range", "xs[5]", []Parameter{param("xs", reflect.TypeFor[[]int]())}, []any{[]int{1}}, ErrInvocation},
		{
			"huge unsigned index", "xs[i]",
			[]Parameter{param("xs", reflect.TypeFor[[]int]()), param("i", reflect.TypeFor[uint64]())},
			[]any{[]int{1}, uint64(1) << 63}, ErrInvocation,
		},
		{
			"negative long index", "xs[i]",
			[]Parameter{param("xs", reflect.TypeFor[[]int]()), param("i", reflect.TypeFor[int64]())},
			[]any{[]int{1}, int64(-1)}, ErrInvocation,
		},
		{"nil field", "p.X", []Parameter{param("p", reflect.TypeFor[*point]())}, []any{nil}, ErrInvocation},
		{"nil method", "p.Sum()", []Parameter{param("p", reflect.TypeFor[*point]())}, []any{(*point)(nil)}, ErrInvocation},
		{"argument count", "a", []Parameter{param("a", intT)}, nil, ErrArgumentCount},
		{"argument type", "a", []Parameter{param("a", intT)}, []any{"x"}, ErrInvocation},
		{"null argument", "a", []Parameter{param("a", intT)}, []any{nil}, ErrInvocation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := mustParse(t, in, tt.input, nil, tt.params...)

			_, err := e.Invoke(tt.args...)
			if !errors.Is(err, tt.target) {
				t.Fatalf("Invoke error = %v, want %v", err, tt.target)
			}

			if KindOf(err) != KindInvocation {
				t.Errorf("KindOf = %v, want invocation", KindOf(err))
			}

			if n := strings.Count(err.Error(), "invocation failed"); n > 1 {
				t.Errorf("Invoke error %q repeats its kind %d times", err, n)
			}
		})
	}
}

func TestInterpreter_UnsignedIndex(t *testing.T) {
	in := New()
	params := []Parameter{param("xs", reflect.TypeFor[[]int]()), param("i", reflect.TypeFor[uint64]())}
	e := mustParse(t, in, "xs[i]", nil, params...)

	v, err := e.Invoke([]int{4, 5}, uint64(1))
	if err != nil || v != 5 {
		t.Errorf("xs[1] = %v, %v, want 5", v, err)
	}

	_, err = e.Invoke([]int{4, 5}, uint64(1)<<63)
	if err == nil || !strings.Contains(err.Error(), "index 9223372036854775808 out of range") {
		t.Errorf("xs[1<<63] error = %v, want the unsigned index reported", err)
	}

	b := mustParse(t, in, "s[i]", nil, param("s", stringT), param("i", reflect.TypeFor[uint8]()))
	if v, err := b.Invoke("abc", uint8(2)); err != nil || v != byte('c') {
		t.Errorf(`"abc"[2] = %v, %v, want 'c'`, v, err)
	}
}

func TestInterpreter_Funcs(t *testing.T) {
	ctx := t.Context()
	in := New()

	mul, err := ParseAs[func(int, int) int](ctx, in, "a * b", "a", "b")
	if err != nil {
		t.Fatal(err)
	}

	if got := mul(6, 7); got != 42 {
		t.Errorf("mul(6, 7) = %d, want 42", got)
	}

	isX, err := ParseAs[func(string) (bool, error)](ctx, in, `s == "x"`, "s")
	if err != nil {
		t.Fatal(err)
	}

	if ok, err := isX("x"); !ok || err != nil {
		t.Errorf(`isX("x") = %v, %v`, ok, err)
	}

	div, err := ParseAs[func(int) (int, error)](ctx, in, "10 / d", "d")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := div(0); !errors.Is(err, ErrInvocation) {
		t.Errorf("div(0) error = %v, want ErrInvocation", err)
	}

	strict, err := ParseAs[func(int) int](ctx, in, "10 / d", "d")
	if err != nil {
		t.Fatal(err)
	}

	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Error("strict(0) did not panic")
			}
		}()

		strict(0)
	}()

	if _, err := ParseAs[func(int) int](ctx, in, "a", "a", "b"); !errors.Is(err, ErrConfiguration) {
		t.Errorf("name count mismatch error = %v, want ErrConfiguration", err)
	}

	if _, err := ParseAs[func(string) int](ctx, in, "s", "s"); !errors.Is(err, ErrReturnTypeMismatch) {
		t.Errorf("return mismatch error = %v, want ErrReturnTypeMismatch", err)
	}

	e := mustParse(t, in, "a - b", nil, param("a", intT), param("b", intT))

	if _, err := e.MakeFunc(reflect.TypeFor[func(string, int) int]()); !errors.Is(err, ErrConfiguration) {
		t.Errorf("MakeFunc param mismatch error = %v, want ErrConfiguration", err)
	}

	if _, err := e.MakeFunc(reflect.TypeFor[func(int, int) (int, int)]()); !errors.Is(err, ErrConfiguration) {
		t.Errorf("MakeFunc results error = %v, want ErrConfiguration", err)
	}

	if v, err := e.Func()(9, 4); err != nil || v != 5 {
		t.Errorf("Func()(9, 4) = %v, %v", v, err)
	}

	if v, err := e.InvokeNamed(map[string]any{"a": 5, "b": 3}); err != nil || v != 2 {
		t.Errorf("InvokeNamed = %v, %v", v, err)
	}

	if _, err := e.InvokeNamed(map[string]any{"a": 5}); !errors.Is(err, ErrArgumentCount) {
		t.Errorf("missing named argument error = %v, want ErrArgumentCount", err)
	}

	if _, err := e.InvokeNamed(map[string]any{"a": 5, "b": 3, "c": 1}); !errors.Is(err, ErrArgumentCount) {
		t.Errorf("unknown named argument error = %v, want ErrArgumentCount", err)
	}
}

func TestInterpreter_Metadata(t *testing.T) {
	env := NewEnvironment()
	_ = env.SetFunction("double", func(x int) int { return 2 * x })
	_ = env.SetType("Math", reflect.TypeFor[mathLib]())

	text := "Math.Max(double(x), y)"
	e := mustParse(t, New(WithEnvironment(env)), text, intT,
		param("x", intT), param("y", intT), param("z", intT))

	if got := e.Identifiers(); !slices.Equal(got, []string{"double"}) {
		t.Errorf("Identifiers = %v", got)
	}

	if got := e.Types(); !slices.Equal(got, []string{"Math"}) {
		t.Errorf("Types = %v", got)
	}

	if got := e.UsedParams(); !slices.Equal(got, []string{"x", "y"}) {
		t.Errorf("UsedParams = %v", got)
	}

	if e.Type() != intT || e.ReturnType() != intT || e.Text() != text {
		t.Errorf("Type = %v, ReturnType = %v, Text = %q", e.Type(), e.ReturnType(), e.Text())
	}

	d, err := Detect(env, text, false)
	if err != nil {
		t.Fatal(err)
	}

	if !slices.Equal(d.Identifiers, e.Identifiers()) || !slices.Equal(d.Types, e.Types()) ||
		!slices.Equal(d.Unresolved, e.UsedParams()) {
		t.Errorf("Detect = %+v, disagrees with bound expression", d)
	}

	d, err = Detect(env, text, false, e.Params()...)
	if err != nil {
		t.Fatal(err)
	}

	if !slices.Equal(d.Params, e.UsedParams()) || len(d.Unresolved) != 0 {
		t.Errorf("Detect with parameters = %+v, disagrees with bound expression", d)
	}
}

func TestInterpreter_Settings(t *testing.T) {
	t.Run("case insensitive", func(t *testing.T) {
		env := NewEnvironment(WithCaseInsensitive(true))
		_ = env.SetFunction("Double", func(x int) int { return 2 * x })

		e := mustParse(t, New(WithEnvironment(env)), "DOUBLE(X) + 1", nil, param("x", intT))
		if v, err := e.Invoke(10); err != nil || v != 21 {
			t.Errorf("DOUBLE(X) + 1 = %v, %v", v, err)
		}

		if got := e.Identifiers(); !slices.Equal(got, []string{"Double"}) {
			t.Errorf("Identifiers = %v, want registered spelling", got)
		}
	})

	t.Run("default number", func(t *testing.T) {
		env := NewEnvironment(WithDefaultNumber(NumberDouble))

		v, err := New(WithEnvironment(env)).Eval(t.Context(), "1 / 2")
		if err != nil || v != 0.5 {
			t.Errorf("1 / 2 = %v, %v, want 0.5", v, err)
		}
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		if _, err := New().Parse(ctx, "1", nil); !errors.Is(err, ErrInvocation) {
			t.Errorf("Parse error = %v, want ErrInvocation", err)
		}

		e := mustParse(t, New(), "1", nil)
		if _, err := e.InvokeContext(ctx); !errors.Is(err, ErrInvocation) {
			t.Errorf("InvokeContext error = %v, want ErrInvocation", err)
		}
	})
}

func TestInterpreter_Concurrent(t *testing.T) {
	e := mustParse(t, New(), "x * x + 1", intT, param("x", intT))

	var wg sync.WaitGroup

	for i := range 32 {
		wg.Go(func() {
			v, err := e.Invoke(i)
			if err != nil {
				t.Errorf("Invoke(%d) error: %v", i, err)

				return
			}

			if v != i*i+1 {
				t.Errorf("Invoke(%d) = %v, want %d", i, v, i*i+1)
			}
		})
	}

	wg.Wait()
}

func BenchmarkExpression_Invoke(b *testing.B) {
	env := NewEnvironment()
	_ = env.SetFunction("double", func(x int) int { return 2 * x })

	e, err := New(WithEnvironment(env)).Parse(b.Context(), "double(x) + x * 3 - 1", intT,
		Parameter{Name: "x", Type: intT})
	if err != nil {
		b.Fatal(err)
	}

	for b.Loop() {
		if _, err := e.Invoke(7); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkInterpreter_Parse(b *testing.B) {
	in := New()

	for b.Loop() {
		if _, err := in.Parse(b.Context(), "a * (b + 3) > 10 ? a : b", nil,
			Parameter{Name: "a", Type: intT}, Parameter{Name: "b", Type: intT}); err != nil {
			b.Fatal(err)
		}
	}
}
