package repl

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/ardnew/dexpr/lang"
	"github.com/ardnew/dexpr/log"
	"github.com/ardnew/dexpr/stdlib"
)

func newShell(tb testing.TB) *shell {
	tb.Helper()

	env := lang.NewEnvironment(lang.WithLambdas(true))
	if err := stdlib.Register(env, stdlib.All); err != nil {
		tb.Fatalf("stdlib.Register() error: %v", err)
	}

	if err := env.SetVariable("limit", 10); err != nil {
		tb.Fatalf("SetVariable() error: %v", err)
	}

	return &shell{
		interp: lang.New(lang.WithEnvironment(env)),
		logger: log.Default(),
	}
}

func TestShell_Eval(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"arithmetic", "1 + 2", "3", false},
		{"variable", "limit * 2", "20", false},
		{"string", `"a" + "b"`, `"ab"`, false},
		{"static_call", "Math.Max(2, 3)", "3", false},
		{"extension", `"hello".ToUpper()`, `"HELLO"`, false},
		{"null", "null", "null", false},
		{"unknown_identifier", "nope + 1", "", true},
		{"syntax_error", "1 +", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sh := newShell(t)

			got, err := sh.eval(t.Context(), tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("eval(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}

			if got != tt.want {
				t.Errorf("eval(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestShell_Command(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantAct  action
		contains string
		wantErr  error
	}{
		{"quit", "quit", actionQuit, "", nil},
		{"quit_short", "q", actionQuit, "", nil},
		{"clear", "clear", actionClear, "", nil},
		{"edit", "e", actionEdit, "", nil},
		{"help", "help", actionNone, "let name = expr", nil},
		{"type", "type limit + 0.5", actionNone, "double", nil},
		{"type_string", `t "x"`, actionNone, "string", nil},
		{"detect", "detect Math.Max(limit, missing)", actionNone, "unresolved  missing", nil},
		{"list_pattern", "list limit", actionNone, "limit int = 10", nil},
		{"let_usage", "let x", actionNone, "", ErrUsage},
		{"unset_usage", "unset", actionNone, "", ErrUsage},
		{"unset_missing", "unset missing", actionNone, "", ErrNotFound},
		{"unknown", "frobnicate", actionNone, "", ErrUnknownCommand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sh := newShell(t)

			out, act, err := sh.command(t.Context(), tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("command(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}

				return
			}

			if err != nil {
				t.Fatalf("command(%q) error: %v", tt.input, err)
			}

			if act != tt.wantAct {
				t.Errorf("command(%q) action = %d, want %d", tt.input, act, tt.wantAct)
			}

			if !strings.Contains(out, tt.contains) {
				t.Errorf("command(%q) = %q, want it to contain %q", tt.input, out, tt.contains)
			}
		})
	}
}

func TestShell_LetUnset(t *testing.T) {
	sh := newShell(t)
	ctx := t.Context()

	out, _, err := sh.command(ctx, "let twice = limit * 2")
	if err != nil {
		t.Fatalf("let error: %v", err)
	}

	if want := "twice int = 20"; out != want {
		t.Errorf("let = %q, want %q", out, want)
	}

	got, err := sh.eval(ctx, "twice + 1")
	if err != nil || got != "21" {
		t.Errorf("eval after let = %q, %v, want \"21\"", got, err)
	}

	// Rebinding replaces the variable, including its type.
	if _, _, err := sh.command(ctx, `let twice = "two"`); err != nil {
		t.Fatalf("rebind error: %v", err)
	}

	if got, _ := sh.eval(ctx, "twice"); got != `"two"` {
		t.Errorf("eval after rebind = %q, want %q", got, `"two"`)
	}

	if _, _, err := sh.command(ctx, "unset twice"); err != nil {
		t.Fatalf("unset error: %v", err)
	}

	if _, err := sh.eval(ctx, "twice"); err == nil {
		t.Error("eval after unset succeeded, want error")
	}
}

func TestShell_ListFunctions(t *testing.T) {
	sh := newShell(t)

	out := sh.list("getenv")

	for _, want := range []string{"getenv (string) string", "getenv (string, string) string"} {
		if !strings.Contains(out, want) {
			t.Errorf("list(getenv) = %q, want it to contain %q", out, want)
		}
	}
}

func TestRunLines(t *testing.T) {
	sh := newShell(t)

	in := strings.NewReader(strings.Join([]string{
		"// comment",
		"limit + 1",
		"",
		":let x = 4",
		"x * x",
		"bogus",
		":quit",
		"limit",
	}, "\n"))

	var out bytes.Buffer

	if err := RunLines(t.Context(), sh.interp, in, &out, log.Default()); err != nil {
		t.Fatalf("RunLines() error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("RunLines() wrote %d lines, want 4:\n%s", len(lines), out.String())
	}

	want := []string{"11", "x int = 4", "16"}
	for i, w := range want {
		if lines[i] != w {
			t.Errorf("line %d = %q, want %q", i, lines[i], w)
		}
	}

	if !strings.HasPrefix(lines[3], "error: ") {
		t.Errorf("line 3 = %q, want an error", lines[3])
	}
}
