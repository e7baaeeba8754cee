package lang

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"
)

func defaultGrammar() Grammar { return DefaultSettings().Grammar() }

func TestParseSyntax_Precedence(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"1 + 2 * 3", "(1 + (2 * 3))"},
		{"(1 + 2) * 3", "((1 + 2) * 3)"},
		{"a - b - c", "((a - b) - c)"},
		{"a || b && c", "(a || (b && c))"},
		{"a | b ^ c & d", "(a | (b ^ (c & d)))"},
		{"a == b < c", "(a == (b < c))"},
		{"a << 1 + 2", "(a << (1 + 2))"},
		{"-a * b", "(-a * b)"},
		{"!a && b", "(!a && b)"},
		{"a ? b : c ? d : e", "(a ? b : (c ? d : e))"},
		{"a.b.c(1, 2)[0]", "a.b.c(1, 2)[0]"},
		{"f()", "f()"},
		{`"x" + 'y'`, `("x" + 'y')`},
		{"null", "null"},
		{"true != false", "(true != false)"},
		{"x = y = 1", "x = y = 1"},
		{"x += 2 * 3", "x += (2 * 3)"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			n, err := ParseSyntax(tt.input, defaultGrammar())
			if err != nil {
				t.Fatalf("ParseSyntax(%q) error: %v", tt.input, err)
			}

			if got := n.String(); got != tt.want {
				t.Errorf("ParseSyntax(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseSyntax_Literals(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		number NumberType
		want   any
	}{
		{"int", "7", NumberDefault, 7},
		{"int min", "-9223372036854775808", NumberDefault, math.MinInt64},
		{"int64 suffix min", "-9223372036854775808L", NumberDefault, int64(math.MinInt64)},
		{"unsigned", "7u", NumberDefault, uint(7)},
		{"unsigned long", "7ul", NumberDefault, uint64(7)},
		{"too big for int", "9223372036854775808", NumberDefault, uint64(1 << 63)},
		{"long default", "7", NumberLong, int64(7)},
		{"single default", "7", NumberSingle, float32(7)},
		{"double default", "7", NumberDouble, 7.0},
		{"single real", "0.5", NumberSingle, float32(0.5)},
		{"double real", "0.5", NumberDefault, 0.5},
		{"float suffix", "0.5f", NumberDouble, float32(0.5)},
		{"double suffix", "2d", NumberSingle, 2.0},
		{"negated literal", "-5", NumberDefault, -5},
		{"bool", "true", NumberDefault, true},
		{"string", `"s"`, NumberDefault, "s"},
		{"char", `'c'`, NumberDefault, 'c'},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := defaultGrammar()
			g.DefaultNumber = tt.number

			n, err := ParseSyntax(tt.input, g)
			if err != nil {
				t.Fatalf("ParseSyntax(%q) error: %v", tt.input, err)
			}

			lit, ok := n.(*Literal)
			if !ok {
				t.Fatalf("ParseSyntax(%q) = %T, want *Literal", tt.input, n)
			}

			if lit.Value != tt.want {
				t.Errorf("value = %v (%T), want %v (%T)", lit.Value, lit.Value, tt.want, tt.want)
			}

			if lit.Type != reflect.TypeOf(tt.want) {
				t.Errorf("type = %v, want %T", lit.Type, tt.want)
			}
		})
	}
}

func TestParseSyntax_NegatedMember(t *testing.T) {
	n, err := ParseSyntax("-5.ToString()", defaultGrammar())
	if err != nil {
		t.Fatalf("ParseSyntax error: %v", err)
	}

	// The minus applies to the call result, not the literal.
	if _, ok := n.(*Unary); !ok {
		t.Errorf("ParseSyntax = %T, want *Unary", n)
	}
}

func TestParseSyntax_Lambda(t *testing.T) {
	g := defaultGrammar()
	g.Lambdas = true

	tests := []struct {
		input  string
		want   string
		params int
	}{
		{"x => x + 1", "(x) => (x + 1)", 1},
		{"(a, b) => a * b", "(a, b) => (a * b)", 2},
		{"() => 42", "() => 42", 0},
		{"(x) => y => x + y", "(x) => (y) => (x + y)", 1},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			n, err := ParseSyntax(tt.input, g)
			if err != nil {
				t.Fatalf("ParseSyntax(%q) error: %v", tt.input, err)
			}

			lam, ok := n.(*LambdaLit)
			if !ok {
				t.Fatalf("ParseSyntax(%q) = %T, want *LambdaLit", tt.input, n)
			}

			if len(lam.Params) != tt.params {
				t.Errorf("params = %d, want %d", len(lam.Params), tt.params)
			}

			if got := n.String(); got != tt.want {
				t.Errorf("String() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParseSyntax_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		grammar func(*Grammar)
		target  error
	}{
		{"empty", "", nil, ErrSyntax},
		{"dangling operator", "1 +", nil, ErrSyntax},
		{"unbalanced paren", "(1 + 2", nil, ErrSyntax},
		{"trailing token", "1 2", nil, ErrSyntax},
		{"empty index", "a[]", nil, ErrSyntax},
		{"missing member", "a.", nil, ErrSyntax},
		{"missing colon", "a ? b", nil, ErrSyntax},
		{"reserved keyword", "new + 1", nil, ErrSyntax},
		{"keyword member name", "a.if", nil, nil},
		{"lambda disabled", "x => x", nil, ErrSyntax},
		{"assignment disabled", "x = 1", func(g *Grammar) { g.Assignment = AssignNone }, ErrSyntax},
		{
			"compound assignment disabled", "x += 1",
			func(g *Grammar) { g.Assignment = AssignEqual }, ErrSyntax,
		},
		{
			"bitwise assignment disabled", "x <<= 1",
			func(g *Grammar) { g.Assignment = AssignEqual | AssignArithmetic }, ErrSyntax,
		},
		{"lambda keyword param", "if => 1", func(g *Grammar) { g.Lambdas = true }, ErrSyntax},
		{"int overflow", "-9223372036854775809", nil, ErrSyntax},
		{"long overflow", "9223372036854775808L", nil, ErrSyntax},
		{"lex error", "1 @ 2", nil, ErrLex},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := defaultGrammar()
			if tt.grammar != nil {
				tt.grammar(&g)
			}

			_, err := ParseSyntax(tt.input, g)

			if tt.target == nil {
				if err != nil {
					t.Fatalf("ParseSyntax(%q) error: %v", tt.input, err)
				}

				return
			}

			if !errors.Is(err, tt.target) {
				t.Fatalf("ParseSyntax(%q) error = %v, want %v", tt.input, err, tt.target)
			}

			var e *Error
			if errors.As(err, &e) && e.Source() != tt.input {
				t.Errorf("error source = %q, want %q", e.Source(), tt.input)
			}
		})
	}
}

func TestParseSyntax_MaxDepth(t *testing.T) {
	g := defaultGrammar()
	g.MaxDepth = 8

	deep := strings.Repeat("(", 20) + "1" + strings.Repeat(")", 20)

	if _, err := ParseSyntax(deep, g); !errors.Is(err, ErrSyntax) {
		t.Fatalf("deep nesting error = %v, want ErrSyntax", err)
	}

	if _, err := ParseSyntax("((1))", g); err != nil {
		t.Fatalf("shallow nesting error: %v", err)
	}
}

func TestError_Snippet(t *testing.T) {
	_, err := ParseSyntax("a +\n  * b", defaultGrammar())

	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("error = %v, want *Error", err)
	}

	pos := e.Position()
	if pos.Line != 2 || pos.Column != 3 {
		t.Errorf("Position = %+v, want line 2 column 3", pos)
	}

	if s := e.Snippet(); !strings.Contains(s, "^") {
		t.Errorf("Snippet = %q, want a caret", s)
	}
}

func FuzzParseSyntax(f *testing.F) {
	f.Add("a + b * c")
	f.Add("f(x, y)[0].Name")
	f.Add("x => x ? 1 : 2")
	f.Add("a = b += 3")
	f.Add("((((1))))")

	g := defaultGrammar()
	g.Lambdas = true

	f.Fuzz(func(t *testing.T, input string) {
		n, err := ParseSyntax(input, g)
		if err != nil {
			if k := KindOf(err); k != KindLex && k != KindSyntax {
				t.Errorf("error kind = %v, want lex or syntax: %v", k, err)
			}

			return
		}

		if n == nil {
			t.Fatal("nil node without error")
		}

		_ = n.String()
	})
}
