package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"reflect"
	"strings"

	"github.com/ardnew/dexpr/lang"
)

// Check type-checks an expression without evaluating it.
type Check struct {
	Expr   string   `arg:"" help:"Expression to check" name:"expr"`
	Param  []string `help:"Declare a parameter as name:type"                 placeholder:"NAME:TYPE" short:"p"`
	Return string   `help:"Require the result to convert to this type alias" placeholder:"TYPE"      short:"r"`
	Format string   `default:"text"                                          enum:"text,json,yaml"   help:"Output format." short:"o"`
}

// checkReport describes a compiled expression.
type checkReport struct {
	Type        string   `json:"type"                  yaml:"type"`
	Identifiers []string `json:"identifiers,omitempty" yaml:"identifiers,omitempty"`
	Types       []string `json:"types,omitempty"       yaml:"types,omitempty"`
	Params      []string `json:"params,omitempty"      yaml:"params,omitempty"`
}

// Run executes the check command.
func (c *Check) Run(ctx context.Context, s *Session) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	return c.run(ctx, s, os.Stdout)
}

func (c *Check) run(ctx context.Context, s *Session, w io.Writer) (err error) {
	interp, err := s.Interpreter(ctx)
	if err != nil {
		return err
	}

	params := make([]lang.Parameter, 0, len(c.Param))

	for _, d := range c.Param {
		p, err := parseDecl(interp.Environment(), d)
		if err != nil {
			return err
		}

		params = append(params, p)
	}

	var ret reflect.Type
	if c.Return != "" {
		if ret, err = resolveType(interp.Environment(), c.Return); err != nil {
			return err
		}
	}

	expression, err := interp.Parse(ctx, c.Expr, ret, params...)
	if err != nil {
		return lang.WrapError(err).With(slog.String("command", "check"))
	}

	report := checkReport{
		Type:        typeString(expression.Type()),
		Identifiers: expression.Identifiers(),
		Types:       expression.Types(),
		Params:      expression.UsedParams(),
	}

	if alias, ok := interp.Environment().AliasOf(expression.Type()); ok {
		report.Type = alias
	}

	if c.Format == "text" {
		return report.writeText(w)
	}

	return writeResult(w, c.Format, report)
}

func (r checkReport) writeText(w io.Writer) error {
	_, err := fmt.Fprintf(w,
		"type:        %s\nidentifiers: %s\ntypes:       %s\nparams:      %s\n",
		r.Type,
		strings.Join(r.Identifiers, ", "),
		strings.Join(r.Types, ", "),
		strings.Join(r.Params, ", "))

	return err
}
