package lang

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// Kind classifies an [Error] by the pipeline stage that produced it.
type Kind int

const (
	KindUnknown       Kind = iota // unknown
	KindLex                       // lex
	KindSyntax                    // syntax
	KindBind                      // bind
	KindSecurity                  // security
	KindTransform                 // transform
	KindInvocation                // invocation
	KindConfiguration             // configuration
)

// String returns the lowercase name of the error kind.
func (k Kind) String() string {
	switch k {
	case KindLex:
		return "lex"
	case KindSyntax:
		return "syntax"
	case KindBind:
		return "bind"
	case KindSecurity:
		return "security"
	case KindTransform:
		return "transform"
	case KindInvocation:
		return "invocation"
	case KindConfiguration:
		return "configuration"
	default:
		return "unknown"
	}
}

// Predefined errors (sentinel values).
//
// Every error returned by this package is derived from one of these, so
// errors.Is(err, ErrUnknownIdentifier) holds for any refinement made with
// With, Wrap, Wrapf or At.
var (
	ErrLex = newKindError(KindLex, "lex error")

	ErrSyntax = newKindError(KindSyntax, "syntax error")

	ErrUnknownIdentifier    = newKindError(KindBind, "unknown identifier")
	ErrUnknownType          = newKindError(KindBind, "unknown type")
	ErrUnknownMember        = newKindError(KindBind, "unknown member")
	ErrNoApplicableOverload = newKindError(KindBind, "no applicable overload")
	ErrAmbiguousOverload    = newKindError(KindBind, "ambiguous overload")
	ErrInvalidConversion    = newKindError(KindBind, "invalid conversion")
	ErrInvalidOperation     = newKindError(KindBind, "invalid operation")
	ErrNotAssignable        = newKindError(KindBind, "expression is not assignable")
	ErrReturnTypeMismatch   = newKindError(KindBind, "return type mismatch")

	ErrSecurity  = newKindError(KindSecurity, "security violation")
	ErrTransform = newKindError(KindTransform, "transform failed")

	ErrInvocation    = newKindError(KindInvocation, "invocation failed")
	ErrArgumentCount = newKindError(KindInvocation, "argument count mismatch")
	ErrLateBinding   = newKindError(KindInvocation, "late-bound member not found")

	ErrConfiguration   = newKindError(KindConfiguration, "invalid registration")
	ErrReservedKeyword = newKindError(KindConfiguration, "reserved keyword")
)

// Error represents an error with optional structured logging attributes and
// an optional source span. It implements both error and slog.LogValuer.
type Error struct {
	msg    string
	err    error       // Wrapped error (for errors.Unwrap)
	attrs  []slog.Attr // Attributes for structured logging
	kind   Kind
	span   Span
	spans  bool   // span is set
	source string // expression text the span refers to
	root   *Error // sentinel this error was derived from
}

// NewError creates a new Error with a message.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

func newKindError(kind Kind, msg string) *Error {
	return &Error{msg: msg, kind: kind}
}

// WrapError wraps a standard error into an Error.
func WrapError(err error) *Error {
	ee := &Error{}
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{err: err}
}

// derive copies e, remembering the sentinel it came from.
func (e *Error) derive() *Error {
	d := *e
	d.root = e.origin()

	return &d
}

func (e *Error) origin() *Error {
	if e.root != nil {
		return e.root
	}

	return e
}

// Error implements the error interface.
//
// The message has the form "<msg>: <cause> (line L, column C)", omitting any
// part that is not set.
func (e *Error) Error() string {
	part := make([]string, 0, 2)

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	s := strings.Join(part, ": ")

	if e.spans && e.source != "" {
		p := e.Position()
		s += " (line " + strconv.Itoa(p.Line) +
			", column " + strconv.Itoa(p.Column) + ")"
	}

	return s
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is the sentinel e was derived from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return e.origin() == t.origin()
}

// Kind returns the pipeline stage classification of the error.
func (e *Error) Kind() Kind { return e.kind }

// Span returns the source span of the error, if one was recorded.
func (e *Error) Span() (Span, bool) { return e.span, e.spans }

// Source returns the expression text the error refers to.
func (e *Error) Source() string { return e.source }

// Position returns the 1-based line and column of the span start.
func (e *Error) Position() Position {
	return positionOf(e.source, e.span.Start)
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+4)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	if e.kind != KindUnknown {
		attrs = append(attrs, slog.String("kind", e.kind.String()))
	}

	if e.spans {
		attrs = append(attrs,
			slog.Int("start", e.span.Start),
			slog.Int("end", e.span.End))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	d := e.derive()
	d.err = err

	return d
}

// Wrapf creates a new Error wrapping a formatted message.
func (e *Error) Wrapf(format string, args ...any) *Error {
	return e.Wrap(fmt.Errorf(format, args...))
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	d := e.derive()
	d.attrs = make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(d.attrs, e.attrs)
	copy(d.attrs[len(e.attrs):], attrs)

	return d
}

// At records the source span the error refers to.
func (e *Error) At(span Span) *Error {
	d := e.derive()
	d.span = span
	d.spans = true

	return d
}

// in attaches the expression text used to render positions and snippets.
func (e *Error) in(source string) *Error {
	d := e.derive()
	d.source = source

	return d
}

// Snippet renders the offending source line with a caret marker under the
// error span. It returns an empty string if no span or source is known.
func (e *Error) Snippet() string {
	if !e.spans || e.source == "" {
		return ""
	}

	p := e.Position()
	lines := strings.Split(e.source, "\n")

	if p.Line < 1 || p.Line > len(lines) {
		return ""
	}

	var src strings.Builder

	src.WriteString("  ")
	src.WriteString(strconv.Itoa(p.Line))
	src.WriteString(" | ")
	src.WriteString(lines[p.Line-1])
	src.WriteRune('\n')

	// 2 leading spaces + " | " (3 chars)
	padding := strings.Repeat(" ", len(strconv.Itoa(p.Line))+5)
	if p.Column > 0 {
		padding += strings.Repeat(" ", p.Column-1)
	}

	width := e.span.End - e.span.Start
	if width < 1 {
		width = 1
	}

	src.WriteString(padding + strings.Repeat("^", width) + "\n")

	return src.String()
}

// KindOf returns the [Kind] of err if it is (or wraps) an [*Error].
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}

	return KindUnknown
}

// withSource attaches source text to err when it is an [*Error] that has a
// span but no source yet.
func withSource(err error, source string) error {
	var e *Error
	if errors.As(err, &e) && e.source == "" {
		return e.in(source)
	}

	return err
}
