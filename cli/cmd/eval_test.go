package cmd

import (
	"bytes"
	"errors"
	"testing"
)

func TestEvalRun(t *testing.T) {
	tests := []struct {
		name    string
		eval    Eval
		want    string
		wantErr error
	}{
		{
			name: "constant",
			eval: Eval{Expr: "1 + 2"},
			want: "3\n",
		},
		{
			name: "inferred_params",
			eval: Eval{Expr: "x * y", Args: []string{"x=2", "y=3"}},
			want: "6\n",
		},
		{
			name: "declared_param",
			eval: Eval{Expr: "n * 2", Param: []string{"n:long"}, Args: []string{"n=5"}},
			want: "10\n",
		},
		{
			name: "string_param",
			eval: Eval{Expr: "s.ToUpper()", Args: []string{"s=abc"}},
			want: "ABC\n",
		},
		{
			name: "nested_string_quoted",
			eval: Eval{Expr: `"a".Split(",")`},
			want: "[\"a\"]\n",
		},
		{
			name: "return_type",
			eval: Eval{Expr: "1 + 2", Return: "double"},
			want: "3\n",
		},
		{
			name: "with_sets",
			eval: Eval{Expr: "x + k", Args: []string{"k=10"}, With: []string{"x=1", "x=2"}},
			want: "11\n12\n",
		},
		{
			name: "with_sets_json",
			eval: Eval{Expr: "x * x", With: []string{"x=2", "x=3"}, Format: "json"},
			want: "[\n  4,\n  9\n]\n",
		},
		{
			name: "json_string",
			eval: Eval{Expr: `"hi"`, Format: "json"},
			want: "\"hi\"\n",
		},
		{
			name: "yaml_slice",
			eval: Eval{Expr: "Path.List(p)", Args: []string{`p="a"`}, Format: "yaml"},
			want: "- a\n",
		},
		{
			name:    "missing_arg",
			eval:    Eval{Expr: "n + 1", Param: []string{"n:int"}},
			wantErr: ErrMissingArg,
		},
		{
			name:    "bad_binding",
			eval:    Eval{Expr: "1", Args: []string{"x"}},
			wantErr: ErrArgument,
		},
		{
			name:    "bad_value",
			eval:    Eval{Expr: "n", Param: []string{"n:int"}, Args: []string{"n=abc"}},
			wantErr: ErrArgument,
		},
		{
			name:    "unknown_return_type",
			eval:    Eval{Expr: "1", Return: "bogus"},
			wantErr: ErrUnknownType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.eval.Format == "" {
				tt.eval.Format = "text"
			}

			var buf bytes.Buffer

			err := tt.eval.run(t.Context(), newSession(), &buf)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("run() error = %v, want %v", err, tt.wantErr)
				}

				return
			}

			if err != nil {
				t.Fatalf("run() error: %v", err)
			}

			if got := buf.String(); got != tt.want {
				t.Errorf("run() wrote %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEvalRun_ParseError(t *testing.T) {
	var buf bytes.Buffer

	err := (&Eval{Expr: "1 +", Format: "text"}).run(t.Context(), newSession(), &buf)
	if err == nil {
		t.Fatal("run() succeeded, want a parse error")
	}

	if buf.Len() != 0 {
		t.Errorf("run() wrote %q on error", buf.String())
	}
}

func TestEvalBindingSets(t *testing.T) {
	e := Eval{Args: []string{"a=1", "b=2"}, With: []string{"b=3, c=4", "a=5"}}

	sets, err := e.bindingSets()
	if err != nil {
		t.Fatalf("bindingSets() error: %v", err)
	}

	want := [][]binding{
		{{"a", "1"}, {"b", "3"}, {"c", "4"}},
		{{"a", "5"}, {"b", "2"}},
	}

	if len(sets) != len(want) {
		t.Fatalf("bindingSets() = %v, want %v", sets, want)
	}

	for i := range want {
		if len(sets[i]) != len(want[i]) {
			t.Fatalf("set %d = %v, want %v", i, sets[i], want[i])
		}

		for j := range want[i] {
			if sets[i][j] != want[i][j] {
				t.Errorf("set %d binding %d = %v, want %v", i, j, sets[i][j], want[i][j])
			}
		}
	}
}
