package lang

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
)

// FormatResult renders a result the way it would be written in expression
// text where possible: strings are quoted, nil is null, and slices and maps
// are listed element by element with map keys sorted.
func FormatResult(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return formatConst(x)
	case error:
		return x.Error()
	case fmt.Stringer:
		return x.String()
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return "null"
		}

		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i] = FormatResult(rv.Index(i).Interface())
		}

		return "[" + strings.Join(parts, ", ") + "]"

	case reflect.Map:
		if rv.IsNil() {
			return "null"
		}

		parts := make([]string, 0, rv.Len())

		iter := rv.MapRange()
		for iter.Next() {
			parts = append(parts, FormatResult(iter.Key().Interface())+": "+
				FormatResult(iter.Value().Interface()))
		}

		slices.Sort(parts)

		return "{" + strings.Join(parts, ", ") + "}"

	case reflect.Func:
		return typeName(rv.Type())

	case reflect.Pointer:
		if rv.IsNil() {
			return "null"
		}
	}

	return fmt.Sprint(v)
}
