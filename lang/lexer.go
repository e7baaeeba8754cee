package lang

import (
	"log/slog"
	"math"
	"math/bits"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Lexer converts expression text into a stream of [Token] values.
type Lexer struct {
	input string
	pos   int
}

// NewLexer returns a lexer positioned at the start of text.
func NewLexer(text string) *Lexer {
	return &Lexer{input: text}
}

// Reset rewinds the lexer to the start of its input.
func (l *Lexer) Reset() { l.pos = 0 }

// Tokens lexes the remaining input, including the trailing EOF token.
func (l *Lexer) Tokens() ([]Token, error) {
	var out []Token

	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}

		out = append(out, tok)

		if tok.Kind == TokenEOF {
			return out, nil
		}
	}
}

// Next returns the next token. After the input is exhausted every call
// returns a [TokenEOF] token.
func (l *Lexer) Next() (Token, error) {
	l.skipSpace()

	if l.eof() {
		return Token{Kind: TokenEOF, Span: Span{Start: l.pos, End: l.pos}}, nil
	}

	c := l.input[l.pos]

	switch {
	case isDigit(c) || (c == '.' && l.pos+1 < len(l.input) && isDigit(l.input[l.pos+1])):
		return l.lexNumber()
	case c == '"':
		return l.lexString()
	case c == '\'':
		return l.lexChar()
	}

	r, size := utf8.DecodeRuneInString(l.input[l.pos:])
	if isIdentStart(r) {
		return l.lexIdent(), nil
	}

	for _, p := range punctuators {
		if strings.HasPrefix(l.input[l.pos:], p) {
			start := l.pos
			l.pos += len(p)

			return Token{Kind: TokenPunct, Text: p, Span: Span{start, l.pos}}, nil
		}
	}

	return Token{}, ErrLex.
		Wrapf("unexpected character %q", r).
		At(Span{l.pos, l.pos + size})
}

func (l *Lexer) eof() bool { return l.pos >= len(l.input) }

func (l *Lexer) peekByte(n int) byte {
	if l.pos+n < len(l.input) {
		return l.input[l.pos+n]
	}

	return 0
}

func (l *Lexer) skipSpace() {
	for !l.eof() {
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if !unicode.IsSpace(r) {
			return
		}

		l.pos += size
	}
}

func (l *Lexer) lexIdent() Token {
	start := l.pos

	for !l.eof() {
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if !isIdentPart(r) {
			break
		}

		l.pos += size
	}

	text := l.input[start:l.pos]

	return Token{Kind: TokenIdent, Text: text, Span: Span{start, l.pos}}
}

func (l *Lexer) lexNumber() (Token, error) {
	start := l.pos

	base := 10

	if l.input[l.pos] == '0' {
		switch l.peekByte(1) {
		case 'x', 'X':
			base = 16
			l.pos += 2
		case 'b', 'B':
			base = 2
			l.pos += 2
		}
	}

	digits := l.scanDigits(base)
	isReal := false

	if base == 10 {
		if l.peekByte(0) == '.' && isDigit(l.peekByte(1)) {
			isReal = true
			l.pos++
			digits += l.scanDigits(10)
		}

		if c := l.peekByte(0); c == 'e' || c == 'E' {
			n := 1
			if s := l.peekByte(1); s == '+' || s == '-' {
				n++
			}

			if isDigit(l.peekByte(n)) && digits != "" {
				isReal = true
				l.pos += n
				l.scanDigits(10)
			}
		}
	}

	body := strings.ReplaceAll(l.input[start:l.pos], "_", "")

	if digits == "" {
		return Token{}, ErrLex.
			Wrapf("malformed number %q", l.input[start:l.pos]).
			At(Span{start, l.pos})
	}

	suffix, err := l.scanSuffix(start, base)
	if err != nil {
		return Token{}, err
	}

	span := Span{start, l.pos}
	text := l.input[start:l.pos]

	if isReal || suffix == SuffixFloat || suffix == SuffixDouble {
		if suffix == SuffixUnsigned || suffix == SuffixLong || suffix == SuffixULong {
			return Token{}, ErrLex.
				Wrapf("invalid suffix on real literal %q", text).
				At(span)
		}

		var f float64

		if base == 10 {
			f, err = strconv.ParseFloat(body, 64)
		} else {
			var u uint64

			u, err = strconv.ParseUint(digits, base, 64)
			f = float64(u)
		}

		if err != nil {
			return Token{}, ErrLex.Wrapf("malformed number %q", text).At(span)
		}

		return Token{
			Kind: TokenReal, Text: text, Span: span, Value: f, Suffix: suffix,
		}, nil
	}

	u, err := strconv.ParseUint(digits, base, 64)
	if err != nil {
		return Token{}, ErrLex.
			Wrapf("integer literal %q overflows 64 bits", text).
			At(span)
	}

	return Token{
		Kind: TokenInt, Text: text, Span: span, Value: u, Suffix: suffix,
	}, nil
}

// scanDigits consumes digits of the given base and underscore separators,
// returning the digits without separators.
func (l *Lexer) scanDigits(base int) string {
	var sb strings.Builder

	for !l.eof() {
		c := l.input[l.pos]
		if c == '_' {
			l.pos++

			continue
		}

		if !isBaseDigit(c, base) {
			break
		}

		sb.WriteByte(c)
		l.pos++
	}

	return sb.String()
}

func (l *Lexer) scanSuffix(start, base int) (Suffix, error) {
	s := l.pos

	for !l.eof() && isIdentByte(l.input[l.pos]) {
		l.pos++
	}

	raw := strings.ToLower(l.input[s:l.pos])

	switch raw {
	case "":
		return SuffixNone, nil
	case "u":
		return SuffixUnsigned, nil
	case "l":
		return SuffixLong, nil
	case "ul", "lu":
		return SuffixULong, nil
	case "f":
		if base != 16 {
			return SuffixFloat, nil
		}
	case "d":
		if base != 16 {
			return SuffixDouble, nil
		}
	case "m":
		return SuffixNone, ErrLex.
			Wrapf("decimal literals are not supported").
			With(slog.String("suffix", l.input[s:l.pos])).
			At(Span{start, l.pos})
	}

	return SuffixNone, ErrLex.
		Wrapf("invalid numeric suffix %q", l.input[s:l.pos]).
		At(Span{start, l.pos})
}

func (l *Lexer) lexString() (Token, error) {
	start := l.pos
	l.pos++

	var sb strings.Builder

	for {
		if l.eof() || l.input[l.pos] == '\n' {
			return Token{}, ErrLex.
				Wrapf("unterminated string literal").
				At(Span{start, l.pos})
		}

		c := l.input[l.pos]
		if c == '"' {
			l.pos++

			break
		}

		if c == '\\' {
			r, err := l.scanEscape()
			if err != nil {
				return Token{}, err
			}

			sb.WriteRune(r)

			continue
		}

		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		sb.WriteRune(r)
		l.pos += size
	}

	return Token{
		Kind:  TokenString,
		Text:  l.input[start:l.pos],
		Span:  Span{start, l.pos},
		Value: sb.String(),
	}, nil
}

func (l *Lexer) lexChar() (Token, error) {
	start := l.pos
	l.pos++

	if l.eof() || l.input[l.pos] == '\'' || l.input[l.pos] == '\n' {
		return Token{}, ErrLex.
			Wrapf("empty or unterminated character literal").
			At(Span{start, l.pos})
	}

	var r rune

	if l.input[l.pos] == '\\' {
		var err error

		r, err = l.scanEscape()
		if err != nil {
			return Token{}, err
		}
	} else {
		var size int

		r, size = utf8.DecodeRuneInString(l.input[l.pos:])
		l.pos += size
	}

	if l.eof() || l.input[l.pos] != '\'' {
		return Token{}, ErrLex.
			Wrapf("unterminated character literal").
			At(Span{start, l.pos})
	}

	l.pos++

	return Token{
		Kind:  TokenChar,
		Text:  l.input[start:l.pos],
		Span:  Span{start, l.pos},
		Value: r,
	}, nil
}

// scanEscape decodes an escape sequence at the current position, which must
// be a backslash.
func (l *Lexer) scanEscape() (rune, error) {
	start := l.pos
	l.pos++

	if l.eof() {
		return 0, ErrLex.Wrapf("unterminated escape sequence").At(Span{start, l.pos})
	}

	c := l.input[l.pos]
	l.pos++

	switch c {
	case 'n':
		return '\n', nil
	case 't':
		return '\t', nil
	case 'r':
		return '\r', nil
	case '0':
		return 0, nil
	case '\\':
		return '\\', nil
	case '\'':
		return '\'', nil
	case '"':
		return '"', nil
	case 'a':
		return '\a', nil
	case 'b':
		return '\b', nil
	case 'f':
		return '\f', nil
	case 'v':
		return '\v', nil
	case 'u':
		if l.pos+4 > len(l.input) {
			return 0, ErrLex.Wrapf("truncated unicode escape").At(Span{start, len(l.input)})
		}

		n, err := strconv.ParseUint(l.input[l.pos:l.pos+4], 16, 32)
		if err != nil {
			return 0, ErrLex.
				Wrapf("invalid unicode escape %q", l.input[start:l.pos+4]).
				At(Span{start, l.pos + 4})
		}

		l.pos += 4

		return rune(n), nil
	}

	return 0, ErrLex.
		Wrapf("invalid escape sequence %q", l.input[start:l.pos]).
		At(Span{start, l.pos})
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isBaseDigit(c byte, base int) bool {
	switch base {
	case 2:
		return c == '0' || c == '1'
	case 16:
		return isDigit(c) || (c|0x20 >= 'a' && c|0x20 <= 'f')
	default:
		return isDigit(c)
	}
}

func isIdentByte(c byte) bool {
	return c == '_' || isDigit(c) || (c|0x20 >= 'a' && c|0x20 <= 'z')
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// fitsInt64 reports whether magnitude u, negated when neg is set, fits int64.
func fitsInt64(u uint64, neg bool) bool {
	if neg {
		return u <= 1<<63
	}

	return u <= math.MaxInt64
}

// fitsInt reports whether magnitude u, negated when neg is set, fits int.
func fitsInt(u uint64, neg bool) bool {
	if bits.UintSize == 64 {
		return fitsInt64(u, neg)
	}

	if neg {
		return u <= 1<<31
	}

	return u <= math.MaxInt32
}
