package repl

import (
	"strings"
	"testing"
)

func TestDetectFunctionCall(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		cursor     int
		wantName   string
		wantIndex  int
		wantInCall bool
	}{
		{"no_call", "greeting", 8, "", 0, false},
		{"first_arg_empty", "add(", 4, "add", 0, true},
		{"first_arg", "add(1", 5, "add", 0, true},
		{"second_arg_empty", "add(1,", 6, "add", 1, true},
		{"second_arg", "add(1, 2", 8, "add", 1, true},
		{"static_member", "Math.Pow(", 9, "Math.Pow", 0, true},
		{"static_member_second", "Math.Pow(2,", 11, "Math.Pow", 1, true},
		{"member_chain", "srv.Host.Trim(", 14, "srv.Host.Trim", 0, true},
		{"nested_parens", "add(mul(2, 3),", 14, "add", 1, true},
		{"cursor_inside_nested", "add(mul(2, 3), 4)", 8, "mul", 0, true},
		{"closed_call", "add(1, 2)", 9, "", 0, false},
		{"grouping_paren", "(1 + 2", 6, "", 0, false},
		{"inside_index", "xs[add(1", 8, "add", 0, true},
		{"inside_brackets", "add(xs[1,", 9, "", 0, false},
		{"commas_in_nested_list", "f([1, 2], ", 10, "f", 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detectFunctionCall(tt.input, tt.cursor)

			if got.name != tt.wantName {
				t.Errorf("detectFunctionCall().name = %q, want %q", got.name, tt.wantName)
			}

			if got.argIndex != tt.wantIndex {
				t.Errorf("detectFunctionCall().argIndex = %d, want %d", got.argIndex, tt.wantIndex)
			}

			if got.inCall != tt.wantInCall {
				t.Errorf("detectFunctionCall().inCall = %v, want %v", got.inCall, tt.wantInCall)
			}
		})
	}
}

func TestLookupSignature(t *testing.T) {
	sh := newShell(t)
	env := sh.interp.Environment()

	if err := env.SetVariable("srv", server{Host: "localhost"}); err != nil {
		t.Fatalf("SetVariable() error: %v", err)
	}

	if err := env.SetVariable("inc", func(x int) int { return x + 1 }); err != nil {
		t.Fatalf("SetVariable() error: %v", err)
	}

	tests := []struct {
		name     string
		callee   string
		argIndex int
		want     string
		wantOK   bool
	}{
		{"overload_first", "getenv", 0, "getenv(string) string", true},
		{"overload_by_arity", "getenv", 1, "getenv(string, string) string", true},
		{"static_method", "Math.Pow", 0, "Pow(double, double) double", true},
		{"variadic_method", "Path.Join", 3, "Join(string...) string", true},
		{"instance_method", "srv.Addr", 0, "Addr() string", true},
		{"extension_by_arity", "srv.Host.Trim", 0, "Trim(string) string", true},
		{"func_variable", "inc", 0, "inc(int) int", true},
		{"not_callable", "limit", 0, "", false},
		{"unknown", "nope", 0, "", false},
		{"unknown_member", "Math.Nope", 0, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := lookupSignature(env, tt.callee, tt.argIndex)
			if ok != tt.wantOK {
				t.Fatalf("lookupSignature(%q) ok = %v, want %v", tt.callee, ok, tt.wantOK)
			}

			if ok && got.String() != tt.want {
				t.Errorf("lookupSignature(%q) = %q, want %q", tt.callee, got.String(), tt.want)
			}
		})
	}
}

func TestRenderSignatureHint(t *testing.T) {
	tests := []struct {
		name     string
		sig      signature
		argIndex int
	}{
		{"no_params", signature{name: "now", result: "long"}, 0},
		{"first_param", signature{name: "add", params: []string{"int", "int"}, result: "int"}, 0},
		{"second_param", signature{name: "add", params: []string{"int", "int"}, result: "int"}, 1},
		{"variadic", signature{name: "join", params: []string{"string..."}, variadic: true}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := renderSignatureHint(tt.sig, tt.argIndex)

			if !strings.Contains(got, tt.sig.name) {
				t.Errorf("renderSignatureHint() = %q, want it to contain %q", got, tt.sig.name)
			}

			for _, p := range tt.sig.params {
				if !strings.Contains(got, p) {
					t.Errorf("renderSignatureHint() = %q, want it to contain %q", got, p)
				}
			}
		})
	}
}
