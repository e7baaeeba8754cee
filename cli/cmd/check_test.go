package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
)

func TestCheckRun(t *testing.T) {
	tests := []struct {
		name  string
		check Check
		want  string
	}{
		{
			name:  "text",
			check: Check{Expr: "Math.Max(x, 2.0)", Param: []string{"x:double"}, Format: "text"},
			want: "type:        double\n" +
				"identifiers: \n" +
				"types:       Math\n" +
				"params:      x\n",
		},
		{
			name:  "variable",
			check: Check{Expr: "pathSeparator", Format: "text"},
			want: "type:        string\n" +
				"identifiers: pathSeparator\n" +
				"types:       \n" +
				"params:      \n",
		},
		{
			name:  "unused_param",
			check: Check{Expr: "1", Param: []string{"x:int", "y:int"}, Format: "text"},
			want: "type:        int\n" +
				"identifiers: \n" +
				"types:       \n" +
				"params:      \n",
		},
		{
			name:  "return_type",
			check: Check{Expr: "1", Return: "long", Format: "text"},
			want: "type:        long\n" +
				"identifiers: \n" +
				"types:       \n" +
				"params:      \n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			if err := tt.check.run(t.Context(), newSession(), &buf); err != nil {
				t.Fatalf("run() error: %v", err)
			}

			if got := buf.String(); got != tt.want {
				t.Errorf("run() wrote %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCheckRun_JSON(t *testing.T) {
	var buf bytes.Buffer

	c := Check{Expr: "Math.Max(x, 2.0)", Param: []string{"x:double"}, Format: "json"}
	if err := c.run(t.Context(), newSession(), &buf); err != nil {
		t.Fatalf("run() error: %v", err)
	}

	var got checkReport
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}

	if got.Type != "double" || len(got.Identifiers) != 0 ||
		len(got.Types) != 1 || got.Types[0] != "Math" ||
		len(got.Params) != 1 || got.Params[0] != "x" {
		t.Errorf("report = %+v", got)
	}
}

func TestCheckRun_Errors(t *testing.T) {
	tests := []struct {
		name    string
		check   Check
		wantErr error
	}{
		{"unknown_name", Check{Expr: "nobody + 1"}, nil},
		{"type_mismatch", Check{Expr: `1 + "a" * 2`}, nil},
		{"bad_param", Check{Expr: "x", Param: []string{"x:bogus"}}, ErrParameter},
		{"bad_return", Check{Expr: "1", Return: "bogus"}, ErrUnknownType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			tt.check.Format = "text"

			err := tt.check.run(t.Context(), newSession(), &buf)
			if err == nil {
				t.Fatalf("run() succeeded, wrote %q", buf.String())
			}

			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("run() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
