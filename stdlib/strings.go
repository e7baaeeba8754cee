package stdlib

import (
	"fmt"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/ardnew/dexpr/lang"
)

// errRange reports a string position outside its receiver.
func errRange(what string, pos, n int) error {
	return fmt.Errorf("%s %d out of range [0:%d]", what, pos, n)
}

// stringExtensions are methods available on every string. Positions and
// lengths count bytes, like indexing.
var stringExtensions = []lang.Extension{
	{Name: "Length", Func: func(s string) int { return len(s) }},
	{Name: "RuneCount", Func: utf8.RuneCountInString},
	{Name: "IsEmpty", Func: func(s string) bool { return s == "" }},
	{Name: "ToUpper", Func: strings.ToUpper},
	{Name: "ToLower", Func: strings.ToLower},
	{Name: "Trim", Func: strings.TrimSpace},
	{Name: "Trim", Func: func(s, cutset string) string { return strings.Trim(s, cutset) }},
	{Name: "TrimStart", Func: func(s string) string { return strings.TrimLeft(s, " \t\r\n") }},
	{Name: "TrimEnd", Func: func(s string) string { return strings.TrimRight(s, " \t\r\n") }},
	{Name: "Contains", Func: strings.Contains},
	{Name: "StartsWith", Func: strings.HasPrefix},
	{Name: "EndsWith", Func: strings.HasSuffix},
	{Name: "IndexOf", Func: strings.Index},
	{Name: "LastIndexOf", Func: strings.LastIndex},
	{Name: "Replace", Func: strings.ReplaceAll},
	{Name: "Split", Func: strings.Split},
	{Name: "Repeat", Func: repeat},
	{Name: "Substring", Func: substringFrom},
	{Name: "Substring", Func: substring},
	{Name: "PadLeft", Func: func(s string, width int) string { return pad(s, width, true) }},
	{Name: "PadRight", Func: func(s string, width int) string { return pad(s, width, false) }},
}

func repeat(s string, count int) (string, error) {
	if count < 0 {
		return "", fmt.Errorf("negative repeat count %d", count)
	}

	return strings.Repeat(s, count), nil
}

func substringFrom(s string, start int) (string, error) {
	if start < 0 || start > len(s) {
		return "", errRange("start", start, len(s))
	}

	return s[start:], nil
}

func substring(s string, start, length int) (string, error) {
	if start < 0 || start > len(s) {
		return "", errRange("start", start, len(s))
	}

	if length < 0 || start+length > len(s) {
		return "", errRange("end", start+length, len(s))
	}

	return s[start : start+length], nil
}

func pad(s string, width int, left bool) string {
	n := width - utf8.RuneCountInString(s)
	if n <= 0 {
		return s
	}

	if left {
		return strings.Repeat(" ", n) + s
	}

	return s + strings.Repeat(" ", n)
}

// StringFuncs is the type behind the Strings alias.
type StringFuncs struct{}

// Join concatenates elems separated by sep.
func (StringFuncs) Join(elems []string, sep string) string {
	return strings.Join(elems, sep)
}

// Concat concatenates its arguments.
func (StringFuncs) Concat(parts ...string) string { return strings.Join(parts, "") }

// Format formats args with a Go fmt verb string.
func (StringFuncs) Format(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}

// IsNullOrEmpty reports whether s is empty.
func (StringFuncs) IsNullOrEmpty(s string) bool { return s == "" }

// Char returns the string holding the single rune c.
func (StringFuncs) Char(c rune) string { return string(c) }

func registerStrings(env *lang.Environment) error {
	if err := env.SetType("string", reflect.TypeFor[string](), stringExtensions...); err != nil {
		return err
	}

	return env.SetType("Strings", reflect.TypeFor[StringFuncs]())
}
