package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"time"
)

// ANSI color codes for pretty printing.
const (
	colorReset   = "\033[0m"
	colorGray    = "\033[90m"
	colorRed     = "\033[31m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorBlue    = "\033[34m"
	colorMagenta = "\033[35m"
	colorCyan    = "\033[36m"
)

// prettyHandler writes colorized records either as a single key=value line
// or as an indented JSON-like block. Group and attribute state is
// flattened into dotted keys when it is added.
type prettyHandler struct {
	opts   slog.HandlerOptions
	mu     *sync.Mutex
	w      io.Writer
	block  bool
	prefix string
	attrs  []slog.Attr
}

func newPrettyTextHandler(w io.Writer, opts *slog.HandlerOptions) *prettyHandler {
	return &prettyHandler{opts: *opts, mu: &sync.Mutex{}, w: w}
}

func newPrettyJSONHandler(w io.Writer, opts *slog.HandlerOptions) *prettyHandler {
	return &prettyHandler{opts: *opts, mu: &sync.Mutex{}, w: w, block: true}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	floor := slog.LevelInfo
	if h.opts.Level != nil {
		floor = h.opts.Level.Level()
	}

	return level >= floor
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = h.attrs[:len(h.attrs):len(h.attrs)]

	for _, a := range attrs {
		c.attrs = flatten(c.attrs, h.prefix, a)
	}

	return &c
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	c := *h
	c.prefix = h.prefix + name + "."

	return &c
}

// flatten appends a to out with its key qualified by prefix, expanding
// groups and resolving [slog.LogValuer] values.
func flatten(out []slog.Attr, prefix string, a slog.Attr) []slog.Attr {
	a.Value = a.Value.Resolve()

	if a.Value.Kind() == slog.KindGroup {
		sub := prefix
		if a.Key != "" {
			sub = prefix + a.Key + "."
		}

		for _, g := range a.Value.Group() {
			out = flatten(out, sub, g)
		}

		return out
	}

	if a.Key == "" {
		return out
	}

	return append(out, slog.Attr{Key: prefix + a.Key, Value: a.Value})
}

// builtin applies ReplaceAttr to one of the record's own fields.
func (h *prettyHandler) builtin(out []slog.Attr, a slog.Attr) []slog.Attr {
	if h.opts.ReplaceAttr != nil {
		a = h.opts.ReplaceAttr(nil, a)
	}

	if a.Key == "" {
		return out
	}

	return append(out, a)
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make([]slog.Attr, 0, 4+len(h.attrs)+r.NumAttrs())

	if !r.Time.IsZero() {
		attrs = h.builtin(attrs, slog.Time(slog.TimeKey, r.Time))
	}

	attrs = h.builtin(attrs, slog.Any(slog.LevelKey, r.Level))

	if h.opts.AddSource {
		if src := r.Source(); src != nil {
			attrs = h.builtin(attrs,
				slog.String(slog.SourceKey, fmt.Sprintf("%s:%d", src.File, src.Line)))
		}
	}

	attrs = h.builtin(attrs, slog.String(slog.MessageKey, r.Message))
	attrs = append(attrs, h.attrs...)

	r.Attrs(func(a slog.Attr) bool {
		attrs = flatten(attrs, h.prefix, a)

		return true
	})

	buf := new(bytes.Buffer)

	if h.block {
		buf.WriteString("{\n")
	}

	for i, a := range attrs {
		switch {
		case h.block && i > 0:
			buf.WriteString(",\n  ")
		case h.block:
			buf.WriteString("  ")
		case i > 0:
			buf.WriteByte(' ')
		}

		buf.WriteString(colorGray)
		buf.WriteString(a.Key)
		buf.WriteString(colorReset)

		if h.block {
			buf.WriteString(": ")
		} else {
			buf.WriteByte('=')
		}

		if a.Key == slog.LevelKey {
			writeColored(buf, levelColor(r.Level), a.Value.String())
		} else {
			writeValue(buf, a.Value)
		}
	}

	if h.block {
		buf.WriteString("\n}")
	}

	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

func levelColor(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return colorRed
	case level >= slog.LevelWarn:
		return colorYellow
	case level >= slog.LevelInfo:
		return colorGreen
	case level >= slog.LevelDebug:
		return colorBlue
	}

	return colorMagenta
}

func writeColored(buf *bytes.Buffer, color, s string) {
	buf.WriteString(color)
	buf.WriteString(s)
	buf.WriteString(colorReset)
}

func writeValue(buf *bytes.Buffer, v slog.Value) {
	switch v.Kind() {
	case slog.KindInt64:
		writeColored(buf, colorYellow, strconv.FormatInt(v.Int64(), 10))
	case slog.KindUint64:
		writeColored(buf, colorYellow, strconv.FormatUint(v.Uint64(), 10))
	case slog.KindFloat64:
		writeColored(buf, colorYellow, strconv.FormatFloat(v.Float64(), 'g', -1, 64))
	case slog.KindBool:
		if v.Bool() {
			writeColored(buf, colorGreen, "true")
		} else {
			writeColored(buf, colorRed, "false")
		}
	case slog.KindDuration:
		writeColored(buf, colorMagenta, v.Duration().String())
	case slog.KindTime:
		writeColored(buf, colorBlue, v.Time().Format(time.RFC3339))
	case slog.KindAny:
		if v.Any() == nil {
			writeColored(buf, colorGray, "null")
		} else {
			writeColored(buf, colorCyan, fmt.Sprint(v.Any()))
		}
	default:
		writeColored(buf, colorCyan, v.String())
	}
}
