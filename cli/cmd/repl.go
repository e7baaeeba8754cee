package cmd

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"

	"github.com/ardnew/dexpr/cli/cmd/repl"
	"github.com/ardnew/dexpr/log"
)

// Repl starts an interactive session. When stdin or stdout is not a
// terminal it reads one input per line instead.
type Repl struct {
	History bool `default:"true" help:"Persist input history in the cache directory." negatable:""`
	Lines   bool `help:"Read one input per line from stdin even on a terminal." short:"l"`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context, s *Session) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	interp, err := s.Interpreter(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if merr := s.WriteMetrics(os.Stderr); err == nil {
			err = merr
		}
	}()

	logger := log.Default().With(slog.String("component", "repl"))

	if r.Lines || !isTerminal(os.Stdin) || !isTerminal(os.Stdout) {
		return repl.RunLines(ctx, interp, os.Stdin, os.Stdout, logger)
	}

	return repl.Run(ctx, interp, r.historyPath(ctx), logger)
}

func (r *Repl) historyPath(ctx context.Context) string {
	if !r.History {
		return ""
	}

	ktx := kongContextFrom(ctx)
	if ktx == nil {
		return ""
	}

	dir := ktx.Model.Vars()[CacheIdentifier]
	if dir == "" {
		return ""
	}

	return filepath.Join(dir, "history.utf8")
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
