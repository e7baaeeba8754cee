package lang

import (
	"errors"
	"log/slog"
	"reflect"
	"sort"
	"time"
)

func sortedKeys[T any](m map[string]T) []string {
	if len(m) == 0 {
		return nil
	}

	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

func resultTypeName(value any) string {
	if value == nil {
		return "nil"
	}

	return reflect.TypeOf(value).String()
}

// errorAttrs describes err for a failure log record.
func errorAttrs(err error) []slog.Attr {
	attrs := []slog.Attr{slog.String("kind", KindOf(err).String())}

	var e *Error
	if errors.As(err, &e) {
		return append(attrs, slog.Any("error", e))
	}

	return append(attrs, slog.String("error", err.Error()))
}

func parseAttrs(text string, returnType reflect.Type, params []Parameter) []slog.Attr {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name + " " + typeName(p.Type)
	}

	want := "any"
	if returnType != nil {
		want = typeName(returnType)
	}

	return []slog.Attr{
		slog.String("text", text),
		slog.String("return_type", want),
		slog.Any("params", names),
	}
}

func elapsed(start time.Time) slog.Attr {
	return slog.Duration("elapsed", time.Since(start))
}
