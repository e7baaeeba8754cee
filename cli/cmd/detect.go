package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ardnew/dexpr/lang"
)

// Detect lists the names an expression refers to without binding it, so
// unknown names are reported instead of rejected.
type Detect struct {
	Expr     string `arg:"" help:"Expression to inspect" name:"expr"`
	Children bool   `help:"Also report dotted member paths."                   short:"c"`
	Format   string   `default:"yaml"                                          enum:"text,json,yaml" help:"Output format." short:"o"`
	Param    []string `help:"Declare a parameter as name:type; it shadows environment names." placeholder:"NAME:TYPE" short:"p"`
}

type detectReport struct {
	Identifiers []string `json:"identifiers" yaml:"identifiers"`
	Types       []string `json:"types"       yaml:"types"`
	Params      []string `json:"params"      yaml:"params"`
	Unresolved  []string `json:"unresolved"  yaml:"unresolved"`
}

// Run executes the detect command.
func (d *Detect) Run(ctx context.Context, s *Session) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	return d.run(ctx, s, os.Stdout)
}

func (d *Detect) run(ctx context.Context, s *Session, w io.Writer) (err error) {
	interp, err := s.Interpreter(ctx)
	if err != nil {
		return err
	}

	params := make([]lang.Parameter, 0, len(d.Param))

	for _, decl := range d.Param {
		p, err := parseDecl(interp.Environment(), decl)
		if err != nil {
			return err
		}

		params = append(params, p)
	}

	det, err := interp.Detect(d.Expr, d.Children, params...)
	if err != nil {
		return lang.WrapError(err).With(slog.String("command", "detect"))
	}

	report := detectReport{
		Identifiers: nonNil(det.Identifiers),
		Types:       nonNil(det.Types),
		Params:      nonNil(det.Params),
		Unresolved:  nonNil(det.Unresolved),
	}

	if d.Format == "text" {
		return report.writeText(w)
	}

	return writeResult(w, d.Format, report)
}

func (r detectReport) writeText(w io.Writer) error {
	for _, section := range []struct {
		kind  string
		names []string
	}{
		{"identifier", r.Identifiers},
		{"type", r.Types},
		{"param", r.Params},
		{"unresolved", r.Unresolved},
	} {
		for _, name := range section.names {
			if _, err := fmt.Fprintf(w, "%-10s  %s\n", section.kind, name); err != nil {
				return err
			}
		}
	}

	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}

	return s
}
