package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/ardnew/dexpr/lang"
)

// Fmt prints an expression in canonical form: fully parenthesized, with
// normalized spacing and literals.
type Fmt struct {
	Expr  string   `arg:"" help:"Expression to format" name:"expr"`
	Tree  bool     `help:"Print the bound expression tree with the static type of each node." short:"t"`
	Param []string `help:"Declare a parameter as name:type (with --tree)" placeholder:"NAME:TYPE" short:"p"`
}

// Run executes the fmt command.
func (f *Fmt) Run(ctx context.Context, s *Session) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	return f.run(ctx, s, os.Stdout)
}

func (f *Fmt) run(ctx context.Context, s *Session, w io.Writer) (err error) {
	interp, err := s.Interpreter(ctx)
	if err != nil {
		return err
	}

	if !f.Tree {
		node, err := lang.ParseSyntax(f.Expr, interp.Environment().Settings().Grammar())
		if err != nil {
			return lang.WrapError(err).With(slog.String("command", "fmt"))
		}

		_, err = fmt.Fprintln(w, node.String())

		return err
	}

	params := make([]lang.Parameter, 0, len(f.Param))

	for _, d := range f.Param {
		p, err := parseDecl(interp.Environment(), d)
		if err != nil {
			return err
		}

		params = append(params, p)
	}

	expression, err := interp.Parse(ctx, f.Expr, nil, params...)
	if err != nil {
		return lang.WrapError(err).With(slog.String("command", "fmt"))
	}

	return printTree(w, expression.Root(), 0)
}

// printTree writes one line per bound node: its kind, static type and
// source, indented by depth.
func printTree(w io.Writer, x lang.Expr, depth int) error {
	kind := strings.TrimPrefix(fmt.Sprintf("%T", x), "*lang.")

	_, err := fmt.Fprintf(w, "%s%s %s  %s\n",
		strings.Repeat("  ", depth), kind, typeString(x.Type()), x.String())
	if err != nil {
		return err
	}

	for _, c := range lang.Children(x) {
		if err := printTree(w, c, depth+1); err != nil {
			return err
		}
	}

	return nil
}
