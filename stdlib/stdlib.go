package stdlib

import (
	"log/slog"
	"reflect"
	"strings"

	"github.com/ardnew/dexpr/lang"
)

// Group is a set of registrations selected by bitwise or.
type Group uint

const (
	Aliases Group = 1 << iota // aliases
	Math                      // math
	Strings                   // strings
	Path                      // path
	System                    // system

	// None selects nothing.
	None Group = 0
	// All selects every group.
	All = Aliases | Math | Strings | Path | System
)

var groupNames = []struct {
	group Group
	name  string
}{
	{Aliases, "aliases"},
	{Math, "math"},
	{Strings, "strings"},
	{Path, "path"},
	{System, "system"},
}

// String returns the group names joined by "|", or "none".
func (g Group) String() string {
	if g == None {
		return "none"
	}

	var names []string

	for _, n := range groupNames {
		if g&n.group != 0 {
			names = append(names, n.name)
		}
	}

	return strings.Join(names, "|")
}

// ParseGroup parses group names separated by "|" or ",". The names "all"
// and "none" are also recognized.
func ParseGroup(s string) (Group, bool) {
	var g Group

	for f := range strings.FieldsFuncSeq(s, func(r rune) bool { return r == '|' || r == ',' }) {
		f = strings.ToLower(strings.TrimSpace(f))

		switch f {
		case "", "none":
			continue
		case "all":
			g |= All

			continue
		}

		found := false

		for _, n := range groupNames {
			if n.name == f {
				g |= n.group
				found = true
			}
		}

		if !found {
			return None, false
		}
	}

	return g, true
}

// Register adds the selected groups to env. Registration stops at the first
// failure, which is returned as a configuration [*lang.Error] naming the
// group; groups registered before it remain.
func Register(env *lang.Environment, groups Group) error {
	steps := []struct {
		group Group
		fn    func(*lang.Environment) error
	}{
		{Aliases, registerAliases},
		{Math, registerMath},
		{Strings, registerStrings},
		{Path, registerPath},
		{System, registerSystem},
	}

	for _, s := range steps {
		if groups&s.group == 0 {
			continue
		}

		if err := s.fn(env); err != nil {
			return lang.WrapError(err).With(slog.String("group", s.group.String()))
		}
	}

	return nil
}

// basicAliases maps C-family type names to the Go types they denote.
var basicAliases = []struct {
	name string
	typ  reflect.Type
}{
	{"bool", reflect.TypeFor[bool]()},
	{"sbyte", reflect.TypeFor[int8]()},
	{"byte", reflect.TypeFor[uint8]()},
	{"short", reflect.TypeFor[int16]()},
	{"ushort", reflect.TypeFor[uint16]()},
	{"char", reflect.TypeFor[rune]()},
	{"int", reflect.TypeFor[int]()},
	{"uint", reflect.TypeFor[uint]()},
	{"long", reflect.TypeFor[int64]()},
	{"ulong", reflect.TypeFor[uint64]()},
	{"float", reflect.TypeFor[float32]()},
	{"double", reflect.TypeFor[float64]()},
	{"string", reflect.TypeFor[string]()},
	{"object", reflect.TypeFor[any]()},
}

func registerAliases(env *lang.Environment) error {
	for _, a := range basicAliases {
		if err := env.SetType(a.name, a.typ); err != nil {
			return err
		}
	}

	return nil
}
