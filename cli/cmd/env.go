package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"math"
	"reflect"
	"slices"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/dexpr/lang"
	"github.com/ardnew/dexpr/log"
)

// envDocument is one YAML document of an environment file.
//
//	settings:
//	  lateBinding: true
//	  number: double
//	variables:
//	  limit: 10
//	  twice: {expr: "limit * 2"}
//	functions:
//	  clamp:
//	    params: ["x:int", "lo:int", "hi:int"]
//	    returns: int
//	    expr: "x < lo ? lo : x > hi ? hi : x"
//
// Variable initializers and function bodies are expr-lang expressions over
// the variables declared before them (and the function parameters).
type envDocument struct {
	Settings  envSettings            `yaml:"settings"`
	Variables yaml.MapSlice          `yaml:"variables"`
	Functions map[string]envFunction `yaml:"functions"`
}

type envSettings struct {
	CaseInsensitive *bool  `yaml:"caseInsensitive"`
	LateBinding     *bool  `yaml:"lateBinding"`
	Lambdas         *bool  `yaml:"lambdas"`
	Number          string `yaml:"number"`
	Assignment      string `yaml:"assignment"`
	MaxDepth        int    `yaml:"maxDepth"`
}

type envFunction struct {
	Params  []string `yaml:"params"`
	Returns string   `yaml:"returns"`
	Expr    string   `yaml:"expr"`
}

// initializerKey marks a variable whose value is computed by expr-lang.
const initializerKey = "expr"

// LoadEnvironment reads YAML environment documents from r and registers
// their settings, variables and functions in env. Documents are applied in
// order, so later documents may refer to and replace earlier definitions.
func LoadEnvironment(ctx context.Context, env *lang.Environment, r io.Reader) error {
	l := envLoader{env: env, vars: make(map[string]any)}
	dec := yaml.NewDecoder(r)

	for doc := 0; ; doc++ {
		var d envDocument

		err := dec.Decode(&d)
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return ErrEnvironment.With(slog.Int("document", doc)).Wrap(err)
		}

		if err := l.load(ctx, d); err != nil {
			return ErrEnvironment.With(slog.Int("document", doc)).Wrap(err)
		}
	}
}

type envLoader struct {
	env  *lang.Environment
	vars map[string]any
}

func (l *envLoader) load(ctx context.Context, d envDocument) error {
	if err := l.configure(d.Settings); err != nil {
		return err
	}

	for _, item := range d.Variables {
		name := fmt.Sprint(item.Key)

		value, err := l.value(name, item.Value)
		if err != nil {
			return err
		}

		if err := l.env.SetTypedVariable(name, variableType(value), value); err != nil {
			return err
		}

		l.vars[name] = value

		log.TraceContext(ctx, "environment variable",
			slog.String("name", name),
			slog.String("type", fmt.Sprintf("%T", value)))
	}

	for _, name := range slices.Sorted(maps.Keys(d.Functions)) {
		fn, err := l.function(name, d.Functions[name])
		if err != nil {
			return err
		}

		if err := l.env.SetFunction(name, fn.Interface()); err != nil {
			return err
		}

		log.TraceContext(ctx, "environment function",
			slog.String("name", name),
			slog.String("type", fn.Type().String()))
	}

	return nil
}

func (l *envLoader) configure(s envSettings) error {
	var settings []lang.Setting

	if s.CaseInsensitive != nil {
		settings = append(settings, lang.WithCaseInsensitive(*s.CaseInsensitive))
	}

	if s.LateBinding != nil {
		settings = append(settings, lang.WithLateBinding(*s.LateBinding))
	}

	if s.Lambdas != nil {
		settings = append(settings, lang.WithLambdas(*s.Lambdas))
	}

	if s.Number != "" {
		n, ok := lang.ParseNumberType(s.Number)
		if !ok {
			return ErrSettings.With(slog.String("number", s.Number))
		}

		settings = append(settings, lang.WithDefaultNumber(n))
	}

	if s.Assignment != "" {
		a, ok := lang.ParseAssignmentOperators(s.Assignment)
		if !ok {
			return ErrSettings.With(slog.String("assignment", s.Assignment))
		}

		settings = append(settings, lang.WithAssignment(a))
	}

	if s.MaxDepth > 0 {
		settings = append(settings, lang.WithMaxDepth(s.MaxDepth))
	}

	if len(settings) == 0 {
		return nil
	}

	return l.env.Configure(settings...)
}

// value returns the Go value of a decoded variable, running its
// initializer if it has one.
func (l *envLoader) value(name string, raw any) (any, error) {
	raw = normalize(raw)

	if m, ok := raw.(map[string]any); ok && len(m) == 1 {
		if src, ok := m[initializerKey].(string); ok {
			out, err := expr.Eval(src, l.vars)
			if err != nil {
				return nil, ErrEnvironment.
					With(slog.String("variable", name), slog.String("expr", src)).
					Wrap(err)
			}

			return normalize(out), nil
		}
	}

	return raw, nil
}

// function compiles an expr-lang body into a host function with the
// declared signature. The function returns an error as its last result so
// that failures surface as invocation errors.
func (l *envLoader) function(name string, f envFunction) (reflect.Value, error) {
	params := make([]lang.Parameter, len(f.Params))
	in := make([]reflect.Type, len(f.Params))

	for i, decl := range f.Params {
		p, err := parseDecl(l.env, decl)
		if err != nil {
			return reflect.Value{}, err
		}

		params[i], in[i] = p, p.Type
	}

	result, err := resolveType(l.env, f.Returns)
	if err != nil {
		return reflect.Value{}, ErrEnvironment.
			With(slog.String("function", name)).
			Wrap(err)
	}

	program, err := expr.Compile(f.Expr)
	if err != nil {
		return reflect.Value{}, ErrEnvironment.
			With(slog.String("function", name), slog.String("expr", f.Expr)).
			Wrap(err)
	}

	globals := maps.Clone(l.vars)
	errType := reflect.TypeFor[error]()
	fnType := reflect.FuncOf(in, []reflect.Type{result, errType}, false)

	body := func(args []reflect.Value) []reflect.Value {
		scope := maps.Clone(globals)
		for i, p := range params {
			scope[p.Name] = args[i].Interface()
		}

		out, err := run(program, scope, result)
		if err != nil {
			err = fmt.Errorf("%s: %w", name, err)

			return []reflect.Value{reflect.Zero(result), reflect.ValueOf(&err).Elem()}
		}

		return []reflect.Value{out, reflect.Zero(errType)}
	}

	return reflect.MakeFunc(fnType, body), nil
}

func run(program *vm.Program, scope map[string]any, result reflect.Type) (reflect.Value, error) {
	out, err := expr.Run(program, scope)
	if err != nil {
		return reflect.Value{}, err
	}

	return coerce(out, result)
}

// coerce converts an expr-lang result to exactly type t.
func coerce(x any, t reflect.Type) (reflect.Value, error) {
	dst := reflect.New(t).Elem()
	if x == nil {
		return dst, nil
	}

	v := reflect.ValueOf(x)

	switch {
	case v.Type().AssignableTo(t):
		dst.Set(v)
	case numeric(v.Kind()) && numeric(t.Kind()):
		dst.Set(v.Convert(t))
	default:
		return reflect.Value{}, fmt.Errorf("result %v (%T) is not %s", x, x, t)
	}

	return dst, nil
}

// variableType is the dynamic type of x, or the empty interface for nil.
func variableType(x any) reflect.Type {
	if x == nil {
		return anyType
	}

	return reflect.TypeOf(x)
}

func numeric(k reflect.Kind) bool {
	return (k >= reflect.Int && k <= reflect.Uint64) ||
		k == reflect.Float32 || k == reflect.Float64
}

// normalize maps decoded YAML values onto the types the language works with
// best: integers become int, and sequences whose elements share one type
// become typed slices.
func normalize(x any) any {
	switch v := x.(type) {
	case int64:
		return int(v)
	case uint64:
		if v <= math.MaxInt {
			return int(v)
		}

		return v
	case []any:
		return normalizeSlice(v)
	case map[string]any:
		m := make(map[string]any, len(v))
		for k, e := range v {
			m[k] = normalize(e)
		}

		return m
	case yaml.MapSlice:
		m := make(map[string]any, len(v))
		for _, item := range v {
			m[fmt.Sprint(item.Key)] = normalize(item.Value)
		}

		return m
	}

	return x
}

func normalizeSlice(s []any) any {
	out := make([]any, len(s))

	var elem reflect.Type

	for i, e := range s {
		out[i] = normalize(e)

		t := reflect.TypeOf(out[i])
		if i == 0 {
			elem = t
		} else if t != elem {
			elem = nil
		}
	}

	if elem == nil || len(out) == 0 || elem.Kind() == reflect.Map {
		return out
	}

	typed := reflect.MakeSlice(reflect.SliceOf(elem), len(out), len(out))
	for i, e := range out {
		typed.Index(i).Set(reflect.ValueOf(e))
	}

	return typed.Interface()
}
