package repl

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/ardnew/dexpr/lang"
	"github.com/ardnew/dexpr/log"
)

// shell evaluates expressions and control commands against an interpreter.
// It holds no terminal state so that the interactive model and line mode
// share it.
type shell struct {
	interp *lang.Interpreter
	logger log.Logger
}

// action is what the caller must do after a control command.
type action int

const (
	actionNone action = iota
	actionQuit
	actionClear
	actionEdit
)

// ctrlCommands are the available control-mode commands.
var ctrlCommands = []string{
	"help", "list", "let", "unset", "type", "detect", "edit", "clear", "quit",
}

func helpMessage() string {
	return `
: Commands (press Esc to toggle mode):

  help               Print this cruft
  list [pattern]     List identifiers and type aliases
  let name = expr    Evaluate expr and bind the result to name
  unset name         Remove an identifier or type alias
  type expr          Print the static type of expr
  detect expr        Print the names expr refers to
  edit               Edit the current expression in $EDITOR
  clear              Clear screen
  quit               Exit REPL

Usage:
  Type an expression to evaluate it
  Completions appear automatically as you type
  Press Tab / Shift-Tab to cycle through candidates
  Press Space to accept the current candidate
  Press Esc to toggle between eval and command modes
  Use Up/Down arrows for history navigation (mode switches automatically)
  Use Shift+Up/Shift+Down for history navigation within current mode only
  Press Ctrl+C on empty line or Ctrl+D to exit
`
}

// eval evaluates text and formats the result.
func (s *shell) eval(ctx context.Context, text string) (string, error) {
	v, err := s.interp.Eval(ctx, text)
	if err != nil {
		s.logger.DebugContext(ctx, "repl eval failed",
			slog.String("text", text), slog.Any("error", err))

		return "", err
	}

	s.logger.TraceContext(ctx, "repl eval result",
		slog.String("result_type", resultTypeName(v)))

	return lang.FormatResult(v), nil
}

// command runs a control command and returns its output.
func (s *shell) command(ctx context.Context, input string) (string, action, error) {
	name, rest, _ := strings.Cut(strings.TrimSpace(input), " ")
	rest = strings.TrimSpace(rest)

	s.logger.TraceContext(ctx, "repl exec command",
		slog.String("command", name),
		slog.String("args", rest))

	switch name {
	case "q", "quit", "exit":
		return "", actionQuit, nil

	case "h", "help":
		return helpMessage(), actionNone, nil

	case "l", "list":
		return s.list(rest), actionNone, nil

	case "let":
		out, err := s.let(ctx, rest)

		return out, actionNone, err

	case "unset":
		if rest == "" {
			return "", actionNone, ErrUsage.With(slog.String("command", "unset name"))
		}

		if !s.interp.Environment().Unset(rest) {
			return "", actionNone, ErrNotFound.With(slog.String("name", rest))
		}

		return "", actionNone, nil

	case "t", "type":
		e, err := s.interp.Parse(ctx, rest, nil)
		if err != nil {
			return "", actionNone, err
		}

		return s.typeName(e.Type()), actionNone, nil

	case "d", "detect":
		d, err := s.interp.Detect(rest, true)
		if err != nil {
			return "", actionNone, err
		}

		return formatDetection(d), actionNone, nil

	case "c", "clear":
		return "", actionClear, nil

	case "e", "edit":
		return "", actionEdit, nil
	}

	return "", actionNone, ErrUnknownCommand.With(slog.String("command", name))
}

// let evaluates "name = expr" and binds the result as a variable of the
// expression's static type.
func (s *shell) let(ctx context.Context, args string) (string, error) {
	name, text, ok := strings.Cut(args, "=")
	name = strings.TrimSpace(name)

	if !ok || name == "" || strings.TrimSpace(text) == "" {
		return "", ErrUsage.With(slog.String("command", "let name = expr"))
	}

	e, err := s.interp.Parse(ctx, text, nil)
	if err != nil {
		return "", err
	}

	v, err := e.InvokeContext(ctx)
	if err != nil {
		return "", err
	}

	typ := e.Type()
	if typ == nil {
		typ = reflect.TypeFor[any]()
	}

	if err := s.interp.Environment().SetTypedVariable(name, typ, v); err != nil {
		return "", err
	}

	return name + " " + s.typeName(typ) + " = " + lang.FormatResult(v), nil
}

// list describes every identifier and type alias whose name matches
// pattern, or all of them if pattern is empty.
func (s *shell) list(pattern string) string {
	env := s.interp.Environment()
	names := env.Names()

	if pattern != "" {
		matches := fuzzy.Find(pattern, names)

		names = make([]string, len(matches))
		for i, m := range matches {
			names[i] = m.Str
		}

		slices.Sort(names)
	}

	var b strings.Builder

	for _, name := range names {
		if id, ok := env.Lookup(name); ok {
			for _, line := range s.describe(id) {
				fmt.Fprintf(&b, "  %s %s\n", name, hintStyle.Render(line))
			}

			continue
		}

		if td, ok := env.LookupType(name); ok {
			fmt.Fprintf(&b, "  %s %s\n", name, hintStyle.Render(describeType(td)))
		}
	}

	return b.String()
}

// describe returns one line per signature of id.
func (s *shell) describe(id lang.Identifier) []string {
	switch id := id.(type) {
	case *lang.FunctionSet:
		lines := make([]string, len(id.Overloads))
		for i, o := range id.Overloads {
			lines[i] = overloadSignature(s.interp.Environment(), "", o, 0).String()
		}

		return lines

	case *lang.Variable:
		if id.IsGetter() {
			return []string{"get " + s.typeName(id.Type())}
		}

		return []string{s.typeName(id.Type()) + " = " + lang.FormatResult(id.Value().Interface())}
	}

	return []string{s.typeName(id.Type())}
}

// typeName prefers the registered alias of t.
func (s *shell) typeName(t reflect.Type) string {
	return aliasName(s.interp.Environment(), t)
}

func describeType(td *lang.TypeDescriptor) string {
	desc := "type " + td.Type.String()

	if n := len(td.Extensions) + methodCount(td.Type); n > 0 {
		desc += fmt.Sprintf(" (%d members)", n)
	}

	return desc
}

func methodCount(t reflect.Type) int {
	if t.Kind() == reflect.Interface {
		return t.NumMethod()
	}

	return reflect.PointerTo(t).NumMethod()
}

func formatDetection(d *lang.Detection) string {
	var b strings.Builder

	for _, section := range []struct {
		kind  string
		names []string
	}{
		{"identifier", d.Identifiers},
		{"type", d.Types},
		{"unresolved", d.Unresolved},
	} {
		for _, name := range section.names {
			fmt.Fprintf(&b, "%-10s  %s\n", section.kind, name)
		}
	}

	return strings.TrimSuffix(b.String(), "\n")
}

func resultTypeName(value any) string {
	if value == nil {
		return "nil"
	}

	return fmt.Sprintf("%T", value)
}
