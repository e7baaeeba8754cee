package repl

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/ardnew/dexpr/log"
)

const defaultEditor = "vi"

// editExprCommand implements [tea.ExecCommand]. It writes the expression
// being edited to a temp file, opens the user's editor on it, and reads the
// result back joined onto a single line.
type editExprCommand struct {
	ctxFunc func() context.Context
	logger  log.Logger
	text    string
	edited  string
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
}

// SetStdin sets the stdin reader for the command.
func (c *editExprCommand) SetStdin(r io.Reader) { c.stdin = r }

// SetStdout sets the stdout writer for the command.
func (c *editExprCommand) SetStdout(w io.Writer) { c.stdout = w }

// SetStderr sets the stderr writer for the command.
func (c *editExprCommand) SetStderr(w io.Writer) { c.stderr = w }

// Run opens the editor. An empty result leaves edited empty, which the
// caller treats as a cancelled edit.
func (c *editExprCommand) Run() error {
	ctx := c.ctxFunc()

	f, err := os.CreateTemp(os.TempDir(), "dexpr-repl-*.dx")
	if err != nil {
		return err
	}

	path := f.Name()

	defer os.Remove(path)

	_, err = f.WriteString(c.text + "\n")
	if cerr := f.Close(); err == nil {
		err = cerr
	}

	if err != nil {
		return err
	}

	if err := runEditor(ctx, c.stdin, c.stdout, c.stderr, path); err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	c.edited = joinLines(string(data))

	c.logger.TraceContext(ctx, "editor closed",
		slog.Int("content_length", len(data)),
		slog.Bool("changed", c.edited != c.text))

	return nil
}

// joinLines folds a multi-line expression onto one line.
func joinLines(s string) string {
	return strings.TrimSpace(strings.NewReplacer("\r\n", " ", "\n", " ").Replace(s))
}

// runEditor launches $EDITOR on path and waits for it to exit.
func runEditor(
	ctx context.Context,
	stdin io.Reader,
	stdout io.Writer,
	stderr io.Writer,
	path string,
) error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = defaultEditor
	}

	args := strings.Fields(editor)

	cmd := exec.CommandContext(ctx, args[0], append(args[1:], path)...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	return cmd.Run()
}
