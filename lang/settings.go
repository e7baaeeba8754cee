package lang

import (
	"iter"
	"slices"
	"strings"
)

// NumberType selects the type given to numeric literals written without a
// suffix.
type NumberType int

const (
	// NumberDefault types integer literals as int (or uint64 when they do not
	// fit) and real literals as float64.
	NumberDefault NumberType = iota
	NumberInt
	NumberLong
	NumberSingle
	NumberDouble
)

var numberTypeNames = []string{"default", "int", "long", "single", "double"}

// String returns the lowercase name of the number type.
func (n NumberType) String() string {
	if int(n) >= 0 && int(n) < len(numberTypeNames) {
		return numberTypeNames[n]
	}

	return "unknown"
}

// NumberTypes returns an iterator over all valid number type names.
func NumberTypes() iter.Seq[string] { return slices.Values(numberTypeNames) }

// ParseNumberType parses a number type name, case-insensitively. It reports
// false for unrecognized names.
func ParseNumberType(s string) (NumberType, bool) {
	i := slices.Index(numberTypeNames, strings.ToLower(strings.TrimSpace(s)))
	if i < 0 {
		return NumberDefault, false
	}

	return NumberType(i), true
}

// AssignmentOperators is a set of permitted assignment operator families.
type AssignmentOperators uint8

const (
	AssignEqual      AssignmentOperators = 1 << iota // =
	AssignArithmetic                                 // += -= *= /= %=
	AssignBitwise                                    // &= |= ^= <<= >>=

	AssignNone AssignmentOperators = 0
	AssignAll                      = AssignEqual | AssignArithmetic | AssignBitwise
)

// Allows reports whether the assignment operator op is permitted.
func (a AssignmentOperators) Allows(op string) bool {
	switch op {
	case "=":
		return a&AssignEqual != 0
	case "+=", "-=", "*=", "/=", "%=":
		return a&AssignArithmetic != 0
	case "&=", "|=", "^=", "<<=", ">>=":
		return a&AssignBitwise != 0
	}

	return false
}

// String returns a "|"-separated list of the permitted families.
func (a AssignmentOperators) String() string {
	if a == AssignNone {
		return "none"
	}

	var parts []string

	if a&AssignEqual != 0 {
		parts = append(parts, "equal")
	}

	if a&AssignArithmetic != 0 {
		parts = append(parts, "arithmetic")
	}

	if a&AssignBitwise != 0 {
		parts = append(parts, "bitwise")
	}

	return strings.Join(parts, "|")
}

// ParseAssignmentOperators parses a list of family names separated by "|" or
// ",". Valid names are none, equal, arithmetic, bitwise and all.
func ParseAssignmentOperators(s string) (AssignmentOperators, bool) {
	var a AssignmentOperators

	for f := range strings.FieldsFuncSeq(s, func(r rune) bool {
		return r == '|' || r == ','
	}) {
		switch strings.ToLower(strings.TrimSpace(f)) {
		case "none":
		case "equal":
			a |= AssignEqual
		case "arithmetic":
			a |= AssignArithmetic
		case "bitwise":
			a |= AssignBitwise
		case "all":
			a |= AssignAll
		default:
			return AssignNone, false
		}
	}

	return a, true
}

func isAssignOp(op string) bool {
	switch op {
	case "=", "+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "<<=", ">>=":
		return true
	}

	return false
}

// DefaultMaxDepth is the default limit on syntax tree nesting.
const DefaultMaxDepth = 256

// Settings are the per-environment language options.
type Settings struct {
	CaseInsensitive bool
	LateBinding     bool
	DefaultNumber   NumberType
	Assignment      AssignmentOperators
	Lambdas         bool
	MaxDepth        int
}

// DefaultSettings returns case-sensitive settings with every assignment
// operator enabled and lambdas and late binding disabled.
func DefaultSettings() Settings {
	return Settings{
		DefaultNumber: NumberDefault,
		Assignment:    AssignAll,
		MaxDepth:      DefaultMaxDepth,
	}
}

// Grammar returns the subset of settings that affect parsing.
func (s Settings) Grammar() Grammar {
	return Grammar{
		DefaultNumber: s.DefaultNumber,
		Assignment:    s.Assignment,
		Lambdas:       s.Lambdas,
		MaxDepth:      s.MaxDepth,
	}
}

// Setting modifies [Settings]. Settings are applied to an environment with
// [Environment.Configure].
type Setting func(*Settings)

// WithCaseInsensitive selects case-insensitive identifier lookup.
func WithCaseInsensitive(enable bool) Setting {
	return func(s *Settings) { s.CaseInsensitive = enable }
}

// WithLateBinding enables runtime member resolution on interface values.
func WithLateBinding(enable bool) Setting {
	return func(s *Settings) { s.LateBinding = enable }
}

// WithDefaultNumber sets the type of unsuffixed numeric literals.
func WithDefaultNumber(n NumberType) Setting {
	return func(s *Settings) { s.DefaultNumber = n }
}

// WithAssignment sets the permitted assignment operators.
func WithAssignment(a AssignmentOperators) Setting {
	return func(s *Settings) { s.Assignment = a }
}

// WithLambdas enables lambda literals.
func WithLambdas(enable bool) Setting {
	return func(s *Settings) { s.Lambdas = enable }
}

// WithMaxDepth limits syntax tree nesting. Values less than 1 select
// [DefaultMaxDepth].
func WithMaxDepth(depth int) Setting {
	return func(s *Settings) {
		if depth < 1 {
			depth = DefaultMaxDepth
		}

		s.MaxDepth = depth
	}
}
