package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"reflect"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/ardnew/dexpr/lang"
	"github.com/ardnew/dexpr/log"
)

// Eval evaluates an expression with parameters bound from the command line.
type Eval struct {
	Expr string   `arg:"" help:"Expression to evaluate"                 name:"expr"`
	Args []string `arg:"" help:"Parameter bindings written name=value" name:"args" optional:""`

	Param  []string `help:"Declare a parameter as name:type"                          placeholder:"NAME:TYPE" short:"p"`
	Return string   `help:"Require the result to convert to this type alias"          placeholder:"TYPE"      short:"r"`
	With   []string `help:"Evaluate again with these comma-separated bindings"        placeholder:"BINDINGS"  sep:"none"`
	Format string   `default:"text"                                                   enum:"text,json,yaml"   help:"Output format." short:"o"`
}

// Run executes the eval command.
func (e *Eval) Run(ctx context.Context, s *Session) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	return e.run(ctx, s, os.Stdout)
}

func (e *Eval) run(ctx context.Context, s *Session, w io.Writer) (err error) {
	interp, err := s.Interpreter(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if merr := s.WriteMetrics(os.Stderr); err == nil {
			err = merr
		}
	}()

	sets, err := e.bindingSets()
	if err != nil {
		return err
	}

	params, err := declareParams(interp.Environment(), e.Param, sets)
	if err != nil {
		return err
	}

	var ret reflect.Type
	if e.Return != "" {
		if ret, err = resolveType(interp.Environment(), e.Return); err != nil {
			return err
		}
	}

	expression, err := interp.Parse(ctx, e.Expr, ret, params...)
	if err != nil {
		return lang.WrapError(err).With(slog.String("command", "eval"))
	}

	results := make([]any, len(sets))

	grp, gctx := errgroup.WithContext(ctx)

	for i, set := range sets {
		grp.Go(func() error {
			args, err := bindArgs(params, set)
			if err != nil {
				return err
			}

			results[i], err = expression.InvokeContext(gctx, args...)
			if err != nil {
				return lang.WrapError(err).
					With(slog.String("command", "eval"), slog.Int("set", i))
			}

			return nil
		})
	}

	if err := grp.Wait(); err != nil {
		return err
	}

	log.DebugContext(ctx, "evaluated",
		slog.String("expr", e.Expr),
		slog.Int("sets", len(sets)),
		slog.String("type", typeString(expression.Type())))

	switch {
	case len(results) == 1:
		return writeResult(w, e.Format, results[0])

	case e.Format == "text":
		for _, r := range results {
			if err := writeResult(w, e.Format, r); err != nil {
				return err
			}
		}

		return nil
	}

	return writeResult(w, e.Format, results)
}

// bindingSets returns the bindings of the positional arguments followed by
// one set per --with flag. Bindings from the positional arguments apply to
// every set unless the set rebinds them.
func (e *Eval) bindingSets() ([][]binding, error) {
	base, err := parseBindings(e.Args)
	if err != nil {
		return nil, err
	}

	if len(e.With) == 0 {
		return [][]binding{base}, nil
	}

	sets := make([][]binding, 0, len(e.With))

	for _, w := range e.With {
		extra, err := parseBindings(splitList(w))
		if err != nil {
			return nil, err
		}

		set := slices.Clone(base)

		for _, b := range extra {
			if i := slices.IndexFunc(set, func(c binding) bool { return c.name == b.name }); i >= 0 {
				set[i] = b
			} else {
				set = append(set, b)
			}
		}

		sets = append(sets, set)
	}

	return sets, nil
}

type binding struct{ name, text string }

func parseBindings(args []string) ([]binding, error) {
	out := make([]binding, 0, len(args))

	for _, a := range args {
		name, text, err := parseBinding(a)
		if err != nil {
			return nil, err
		}

		out = append(out, binding{name, text})
	}

	return out, nil
}

// declareParams returns the declared parameters followed by a parameter for
// every other bound name, typed from the first text bound to it.
func declareParams(env *lang.Environment, decls []string, sets [][]binding) ([]lang.Parameter, error) {
	params := make([]lang.Parameter, 0, len(decls))

	for _, d := range decls {
		p, err := parseDecl(env, d)
		if err != nil {
			return nil, err
		}

		params = append(params, p)
	}

	for _, set := range sets {
		for _, b := range set {
			if slices.ContainsFunc(params, func(p lang.Parameter) bool { return p.Name == b.name }) {
				continue
			}

			params = append(params, lang.Parameter{
				Name: b.name,
				Type: reflect.TypeOf(inferValue(b.text)),
			})
		}
	}

	return params, nil
}

// bindArgs converts the bindings of one set to positional arguments.
func bindArgs(params []lang.Parameter, set []binding) ([]any, error) {
	args := make([]any, len(params))

	for i, p := range params {
		j := slices.IndexFunc(set, func(b binding) bool { return b.name == p.Name })
		if j < 0 {
			return nil, ErrMissingArg.With(slog.String("param", p.Name))
		}

		v, err := parseValue(set[j].text, p.Type)
		if err != nil {
			return nil, err
		}

		args[i] = v
	}

	return args, nil
}
