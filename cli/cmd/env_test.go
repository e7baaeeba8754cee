package cmd

import (
	"errors"
	"strings"
	"testing"

	"github.com/ardnew/dexpr/lang"
	"github.com/ardnew/dexpr/stdlib"
)

func loadEnv(t *testing.T, src string) (*lang.Interpreter, error) {
	t.Helper()

	env := lang.NewEnvironment(lang.WithLambdas(true))
	if err := stdlib.Register(env, stdlib.All); err != nil {
		t.Fatal(err)
	}

	if err := LoadEnvironment(t.Context(), env, strings.NewReader(src)); err != nil {
		return nil, err
	}

	return lang.New(lang.WithEnvironment(env)), nil
}

func TestLoadEnvironment(t *testing.T) {
	const src = `
settings:
  lateBinding: false
variables:
  limit: 7
  name: abc
  list: [1, 2, 3]
  mixed: [1, two]
  twice: {expr: "limit * 2"}
functions:
  clamp:
    params: ["x:int", "lo:int", "hi:int"]
    returns: int
    expr: "x < lo ? lo : x > hi ? hi : x"
  scale:
    params: ["x:double"]
    returns: double
    expr: "x * limit"
`

	interp, err := loadEnv(t, src)
	if err != nil {
		t.Fatalf("LoadEnvironment() error: %v", err)
	}

	tests := []struct {
		expr string
		want string
	}{
		{"limit + 1", "8"},
		{"name.ToUpper()", `"ABC"`},
		{"list[1]", "2"},
		{"mixed[1]", `"two"`},
		{"twice", "14"},
		{"clamp(15, 0, 10)", "10"},
		{"clamp(-3, 0, 10)", "0"},
		{"clamp(limit, 0, 10)", "7"},
		{"scale(1.5)", "10.5"},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := interp.Eval(t.Context(), tt.expr)
			if err != nil {
				t.Fatalf("Eval() error: %v", err)
			}

			if s := lang.FormatResult(got); s != tt.want {
				t.Errorf("Eval() = %s, want %s", s, tt.want)
			}
		})
	}
}

func TestLoadEnvironment_Documents(t *testing.T) {
	const src = `
variables:
  a: 1
---
settings:
  number: double
variables:
  a: 2
  b: {expr: "a + 1"}
`

	interp, err := loadEnv(t, src)
	if err != nil {
		t.Fatalf("LoadEnvironment() error: %v", err)
	}

	for expr, want := range map[string]string{
		"a":     "2",
		"b":     "3",
		"1 / 2": "0.5",
	} {
		got, err := interp.Eval(t.Context(), expr)
		if err != nil {
			t.Fatalf("Eval(%q) error: %v", expr, err)
		}

		if s := lang.FormatResult(got); s != want {
			t.Errorf("Eval(%q) = %s, want %s", expr, s, want)
		}
	}
}

func TestLoadEnvironment_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"bad_yaml", "variables: [\n"},
		{"bad_number", "settings: {number: bogus}\n"},
		{"bad_assignment", "settings: {assignment: bogus}\n"},
		{"bad_initializer", "variables:\n  x: {expr: \"nope(\"}\n"},
		{"unknown_param_type", "functions:\n  f: {params: [\"x:bogus\"], returns: int, expr: x}\n"},
		{"unknown_return_type", "functions:\n  f: {params: [], returns: bogus, expr: \"1\"}\n"},
		{"bad_body", "functions:\n  f: {params: [], returns: int, expr: \"1 +\"}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := loadEnv(t, tt.src); !errors.Is(err, ErrEnvironment) {
				t.Errorf("LoadEnvironment() error = %v, want %v", err, ErrEnvironment)
			}
		})
	}
}

func TestLoadEnvironment_FunctionFailure(t *testing.T) {
	const src = `
functions:
  broken:
    params: []
    returns: int
    expr: '"text"'
`

	interp, err := loadEnv(t, src)
	if err != nil {
		t.Fatalf("LoadEnvironment() error: %v", err)
	}

	_, err = interp.Eval(t.Context(), "broken()")
	if err == nil || !strings.Contains(err.Error(), "broken") {
		t.Errorf("Eval() error = %v, want failure naming the function", err)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"int64", int64(3), "int"},
		{"uint64", uint64(3), "int"},
		{"large_uint64", ^uint64(0), "uint64"},
		{"ints", []any{uint64(1), int64(-2)}, "[]int"},
		{"strings", []any{"a", "b"}, "[]string"},
		{"mixed", []any{uint64(1), "b"}, "[]interface {}"},
		{"empty", []any{}, "[]interface {}"},
		{"maps", []any{map[string]any{}, map[string]any{}}, "[]interface {}"},
		{"map", map[string]any{"a": uint64(1)}, "map[string]interface {}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := typeString(variableType(normalize(tt.in))); got != tt.want {
				t.Errorf("normalize(%#v) type = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}
