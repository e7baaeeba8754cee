package lang

import (
	"strconv"
	"strings"
)

// Span is a half-open byte range [Start, End) into expression text.
type Span struct {
	Start int
	End   int
}

// To returns the smallest span covering both s and t.
func (s Span) To(t Span) Span {
	return Span{Start: min(s.Start, t.Start), End: max(s.End, t.End)}
}

// String returns the span as "start:end".
func (s Span) String() string {
	return strconv.Itoa(s.Start) + ":" + strconv.Itoa(s.End)
}

// Position is a 1-based line and column.
type Position struct {
	Line   int
	Column int
}

func positionOf(source string, offset int) Position {
	offset = max(0, min(offset, len(source)))

	line := 1 + strings.Count(source[:offset], "\n")
	col := offset + 1

	if i := strings.LastIndexByte(source[:offset], '\n'); i >= 0 {
		col = offset - i
	}

	return Position{Line: line, Column: col}
}

// TokenKind identifies the lexical class of a [Token].
type TokenKind int

const (
	TokenEOF    TokenKind = iota // end of input
	TokenIdent                   // identifier or keyword
	TokenInt                     // integer literal
	TokenReal                    // real literal
	TokenString                  // string literal
	TokenChar                    // character literal
	TokenPunct                   // operator or punctuation
)

// String returns a human-readable name of the token kind.
func (k TokenKind) String() string {
	switch k {
	case TokenEOF:
		return "end of input"
	case TokenIdent:
		return "identifier"
	case TokenInt:
		return "integer literal"
	case TokenReal:
		return "real literal"
	case TokenString:
		return "string literal"
	case TokenChar:
		return "character literal"
	case TokenPunct:
		return "punctuation"
	default:
		return "unknown token"
	}
}

// Suffix is the normalized type suffix of a numeric literal.
type Suffix int

const (
	SuffixNone    Suffix = iota
	SuffixUnsigned       // u
	SuffixLong           // l
	SuffixULong          // ul, lu
	SuffixFloat          // f
	SuffixDouble         // d
)

// Token is a single lexical unit.
//
// Literal tokens carry their decoded value: integer literals hold the
// magnitude as uint64, real literals a float64, string literals a string and
// character literals a rune.
type Token struct {
	Kind   TokenKind
	Text   string
	Span   Span
	Value  any
	Suffix Suffix
}

// Is reports whether t is punctuation or an identifier spelled s.
func (t Token) Is(s string) bool {
	return (t.Kind == TokenPunct || t.Kind == TokenIdent) && t.Text == s
}

// String returns a description suitable for error messages.
func (t Token) String() string {
	switch t.Kind {
	case TokenEOF:
		return t.Kind.String()
	case TokenPunct:
		return strconv.Quote(t.Text)
	default:
		return t.Kind.String() + " " + strconv.Quote(t.Text)
	}
}

// punctuators ordered longest first so the lexer can match greedily.
var punctuators = []string{
	"<<=", ">>=",
	"=>", "==", "!=", "<=", ">=", "&&", "||", "<<", ">>",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=",
	"+", "-", "*", "/", "%", "&", "|", "^", "!", "~",
	"<", ">", "=", "?", ":", ".", ",", "(", ")", "[", "]",
}

// keywords that may never be registered as identifiers or type aliases.
var keywords = map[string]struct{}{
	"true": {}, "false": {}, "null": {}, "new": {}, "typeof": {},
	"is": {}, "as": {}, "default": {}, "this": {}, "var": {},
	"if": {}, "else": {}, "for": {}, "while": {}, "return": {},
}

// IsKeyword reports whether name is a reserved keyword.
func IsKeyword(name string) bool {
	_, ok := keywords[name]

	return ok
}

// Keywords returns the reserved keywords in no particular order.
func Keywords() []string { return sortedKeys(keywords) }
