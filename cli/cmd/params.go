package cmd

import (
	"log/slog"
	"reflect"
	"strconv"
	"strings"

	"github.com/ardnew/dexpr/lang"
)

var anyType = reflect.TypeFor[any]()

// resolveType returns the type registered for alias. The names "any" and ""
// denote the empty interface, and a "[]" prefix denotes a slice of the
// element alias.
func resolveType(env *lang.Environment, alias string) (reflect.Type, error) {
	alias = strings.TrimSpace(alias)

	if elem, ok := strings.CutPrefix(alias, "[]"); ok {
		t, err := resolveType(env, elem)
		if err != nil {
			return nil, err
		}

		return reflect.SliceOf(t), nil
	}

	if alias == "" || alias == "any" {
		return anyType, nil
	}

	td, ok := env.LookupType(alias)
	if !ok {
		return nil, ErrUnknownType.With(slog.String("alias", alias))
	}

	return td.Type, nil
}

// parseDecl parses a parameter declaration "name" or "name:type".
func parseDecl(env *lang.Environment, decl string) (lang.Parameter, error) {
	name, alias, _ := strings.Cut(decl, ":")

	name = strings.TrimSpace(name)
	if name == "" {
		return lang.Parameter{}, ErrParameter.With(slog.String("decl", decl))
	}

	t, err := resolveType(env, alias)
	if err != nil {
		return lang.Parameter{}, ErrParameter.
			With(slog.String("decl", decl)).
			Wrap(err)
	}

	return lang.Parameter{Name: name, Type: t}, nil
}

// parseBinding splits "name=value".
func parseBinding(arg string) (name, value string, err error) {
	name, value, ok := strings.Cut(arg, "=")

	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", "", ErrArgument.With(slog.String("arg", arg))
	}

	return name, value, nil
}

// inferValue converts command line text to the most specific of int, float64,
// bool and string. Quoted text is always a string.
func inferValue(text string) any {
	if s, err := strconv.Unquote(text); err == nil {
		return s
	}

	if n, err := strconv.ParseInt(text, 0, 0); err == nil {
		return int(n)
	}

	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return f
	}

	if b, err := strconv.ParseBool(text); err == nil {
		return b
	}

	return text
}

// parseValue converts command line text to a value of type t.
func parseValue(text string, t reflect.Type) (any, error) {
	v := reflect.New(t).Elem()

	var err error

	switch t.Kind() {
	case reflect.Interface:
		x := inferValue(text)
		if !reflect.TypeOf(x).Implements(t) {
			return nil, ErrArgument.With(
				slog.String("value", text), slog.String("type", t.String()))
		}

		return x, nil

	case reflect.String:
		s, uerr := strconv.Unquote(text)
		if uerr != nil {
			s = text
		}

		v.SetString(s)

	case reflect.Bool:
		var b bool

		b, err = strconv.ParseBool(text)
		v.SetBool(b)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		var n int64

		n, err = strconv.ParseInt(text, 0, t.Bits())
		v.SetInt(n)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64, reflect.Uintptr:
		var n uint64

		n, err = strconv.ParseUint(text, 0, t.Bits())
		v.SetUint(n)

	case reflect.Float32, reflect.Float64:
		var f float64

		f, err = strconv.ParseFloat(text, t.Bits())
		v.SetFloat(f)

	case reflect.Slice:
		var parts []string
		if text != "" {
			parts = strings.Split(text, ",")
		}

		v = reflect.MakeSlice(t, len(parts), len(parts))

		for i, p := range parts {
			x, perr := parseValue(strings.TrimSpace(p), t.Elem())
			if perr != nil {
				return nil, perr
			}

			v.Index(i).Set(reflect.ValueOf(x))
		}

	default:
		return nil, ErrArgument.With(
			slog.String("value", text), slog.String("type", t.String()))
	}

	if err != nil {
		return nil, ErrArgument.
			With(slog.String("value", text), slog.String("type", t.String())).
			Wrap(err)
	}

	return v.Interface(), nil
}
