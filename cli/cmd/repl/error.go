package repl

import (
	"errors"
	"log/slog"
	"strings"
)

// Sentinel errors.
var (
	ErrOutOfBounds = errors.New("index out of range")

	ErrUsage          = newError("usage")
	ErrNotFound       = newError("no such name")
	ErrUnknownCommand = newError("unknown command (try 'help')")
)

// Error is a command error carrying the offending input as attributes.
type Error struct {
	msg   string
	base  *Error
	attrs []slog.Attr
}

func newError(msg string) *Error { return &Error{msg: msg} }

func (e *Error) Error() string {
	parts := []string{e.msg}
	for _, a := range e.attrs {
		parts = append(parts, a.Value.String())
	}

	return strings.Join(parts, ": ")
}

// Is matches the sentinel e was derived from.
func (e *Error) Is(target error) bool { return e == target || e.base == target }

// With returns a copy of e with attrs added.
func (e *Error) With(attrs ...slog.Attr) *Error {
	base := e
	if e.base != nil {
		base = e.base
	}

	return &Error{msg: e.msg, base: base, attrs: append(e.attrs[:len(e.attrs):len(e.attrs)], attrs...)}
}

func (e *Error) LogValue() slog.Value {
	return slog.GroupValue(append([]slog.Attr{slog.String("error", e.msg)}, e.attrs...)...)
}
