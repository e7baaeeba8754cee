package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/ardnew/dexpr/lang"
	"github.com/ardnew/dexpr/log"
)

// RunLines reads one input per line from r and writes each result to w.
// Lines starting with ':' are commands, as typed in command mode; blank
// lines and lines starting with "//" are skipped. An error is reported on w
// and does not stop the session. RunLines returns at EOF or on the quit
// command.
func RunLines(
	ctx context.Context,
	interp *lang.Interpreter,
	r io.Reader,
	w io.Writer,
	logger log.Logger,
) error {
	sh := &shell{interp: interp, logger: logger}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	for n := 1; scanner.Scan(); n++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}

		var (
			out string
			err error
		)

		if cmd, ok := strings.CutPrefix(line, ":"); ok {
			var act action

			out, act, err = sh.command(ctx, cmd)
			if act == actionQuit {
				return nil
			}
		} else {
			out, err = sh.eval(ctx, line)
		}

		if err != nil {
			logger.DebugContext(ctx, "repl line failed",
				slog.Int("line", n), slog.Any("error", err))

			out = "error: " + err.Error()
		}

		if out == "" {
			continue
		}

		if _, err := fmt.Fprintln(w, out); err != nil {
			return err
		}
	}

	return scanner.Err()
}
