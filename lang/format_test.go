package lang

import (
	"errors"
	"testing"
	"time"
)

func TestFormatResult(t *testing.T) {
	var nilSlice []int

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, "null"},
		{"int", 42, "42"},
		{"float", 2.5, "2.5"},
		{"bool", true, "true"},
		{"string", "a\"b", `"a\"b"`},
		{"error", errors.New("boom"), "boom"},
		{"stringer", 1500 * time.Millisecond, "1.5s"},
		{"slice", []any{1, "x", nil}, `[1, "x", null]`},
		{"nil slice", nilSlice, "null"},
		{"array", [2]bool{true, false}, "[true, false]"},
		{"map", map[string]int{"b": 2, "a": 1}, `{"a": 1, "b": 2}`},
		{"func", func(int) string { return "" }, "func(int) string"},
		{"nil pointer", (*int)(nil), "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatResult(tt.in); got != tt.want {
				t.Errorf("FormatResult(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
