package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/dexpr/lang"
)

// writeResult writes v to w as text, JSON or YAML.
func writeResult(w io.Writer, format string, v any) error {
	switch format {
	case "", "text":
		_, err := fmt.Fprintln(w, textLine(v))

		return err

	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		if err := enc.Encode(v); err != nil {
			return ErrJSONMarshal.Wrap(err)
		}

		return nil

	case "yaml":
		b, err := yaml.MarshalWithOptions(v, yaml.Indent(2))
		if err != nil {
			return ErrYAMLMarshal.Wrap(err)
		}

		_, err = w.Write(b)

		return err
	}

	return ErrUnknownFormat.With(slog.String("format", format))
}

// textLine writes a top-level string result without quotes.
func textLine(v any) string {
	if s, ok := v.(string); ok {
		return s
	}

	return lang.FormatResult(v)
}

// typeString names t, or "null" for the type of the null literal.
func typeString(t reflect.Type) string {
	if t == nil {
		return "null"
	}

	return t.String()
}

// splitList splits a comma-separated list, dropping empty items.
func splitList(s string) []string {
	var out []string

	for f := range strings.SplitSeq(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}

	return out
}
