package lang

import (
	"log/slog"
	"reflect"
	"slices"
	"strings"
	"unicode/utf8"
)

type convKey struct{ from, to reflect.Type }

// Environment is the registry of identifiers, type aliases, user conversions
// and language settings an expression binds against.
//
// Registration is not synchronized. Complete all registration before parsing
// concurrently, or serialize it with in-flight parses.
type Environment struct {
	settings    Settings
	idents      map[string]Identifier
	types       map[string]*TypeDescriptor
	conversions map[convKey]*Overload
	version     uint64
}

// NewEnvironment returns an empty environment with [DefaultSettings]
// modified by settings.
func NewEnvironment(settings ...Setting) *Environment {
	s := DefaultSettings()
	for _, opt := range settings {
		opt(&s)
	}

	return &Environment{
		settings:    s,
		idents:      make(map[string]Identifier),
		types:       make(map[string]*TypeDescriptor),
		conversions: make(map[convKey]*Overload),
	}
}

// Settings returns the current language settings.
func (e *Environment) Settings() Settings { return e.settings }

// Version returns a counter that increases with every successful mutation.
func (e *Environment) Version() uint64 { return e.version }

func (e *Environment) key(name string) string {
	if e.settings.CaseInsensitive {
		return strings.ToLower(name)
	}

	return name
}

func (e *Environment) sameName(a, b string) bool {
	if e.settings.CaseInsensitive {
		return strings.EqualFold(a, b)
	}

	return a == b
}

func validName(name string) error {
	if name == "" {
		return ErrConfiguration.Wrapf("name must not be empty")
	}

	if IsKeyword(name) {
		return ErrReservedKeyword.
			Wrapf("%q cannot be registered", name).
			With(slog.String("name", name))
	}

	for i, r := range name {
		if r == utf8.RuneError || (i == 0 && !isIdentStart(r)) || !isIdentPart(r) {
			return ErrConfiguration.
				Wrapf("%q is not a valid identifier", name).
				With(slog.String("name", name))
		}
	}

	return nil
}

// checkIdentifier verifies name may be bound to an identifier.
func (e *Environment) checkIdentifier(name string) error {
	if err := validName(name); err != nil {
		return err
	}

	if _, ok := e.types[e.key(name)]; ok {
		return ErrConfiguration.
			Wrapf("%q is already registered as a type alias", name).
			With(slog.String("name", name))
	}

	return nil
}

// SetVariable registers or replaces a constant whose type is the dynamic
// type of value.
func (e *Environment) SetVariable(name string, value any) error {
	if value == nil {
		return ErrConfiguration.
			Wrapf("cannot infer the type of nil variable %q", name).
			With(slog.String("name", name))
	}

	return e.SetTypedVariable(name, reflect.TypeOf(value), value)
}

// SetTypedVariable registers or replaces a constant of an explicit static
// type. Value must be assignable to typ.
func (e *Environment) SetTypedVariable(
	name string,
	typ reflect.Type,
	value any,
) error {
	if err := e.checkIdentifier(name); err != nil {
		return err
	}

	if typ == nil {
		return ErrConfiguration.
			Wrapf("variable %q has no type", name).
			With(slog.String("name", name))
	}

	v := reflect.ValueOf(value)

	switch {
	case !v.IsValid():
		if !nillable(typ) {
			return ErrConfiguration.
				Wrapf("nil is not a valid %s", typeName(typ)).
				With(slog.String("name", name))
		}

		v = reflect.Zero(typ)
	case v.Type().AssignableTo(typ):
		nv := reflect.New(typ).Elem()
		nv.Set(v)
		v = nv
	default:
		return ErrConfiguration.
			Wrapf("%s is not assignable to %s", v.Type(), typeName(typ)).
			With(slog.String("name", name))
	}

	e.idents[e.key(name)] = &Variable{name: name, typ: typ, value: v}
	e.version++

	return nil
}

// SetGetter registers or replaces a variable backed by fn, a func with no
// parameters evaluated on every invocation of an expression that reads it.
func (e *Environment) SetGetter(name string, fn any) error {
	if err := e.checkIdentifier(name); err != nil {
		return err
	}

	o, err := NewOverload(fn)
	if err != nil {
		return WrapError(err).With(slog.String("name", name))
	}

	if len(o.Params) != 0 || o.Result == nil {
		return ErrConfiguration.
			Wrapf("getter %q must take no arguments and return a value", name).
			With(slog.String("func", o.Fn.Type().String()))
	}

	e.idents[e.key(name)] = &Variable{name: name, typ: o.Result, getter: o}
	e.version++

	return nil
}

// SetFunction registers overloads under name. An overload with the same
// signature as an existing one replaces it in place; new signatures append.
// If name currently holds a variable, the variable is replaced.
func (e *Environment) SetFunction(name string, fns ...any) error {
	if err := e.checkIdentifier(name); err != nil {
		return err
	}

	if len(fns) == 0 {
		return ErrConfiguration.
			Wrapf("function %q has no overloads", name).
			With(slog.String("name", name))
	}

	overloads := make([]*Overload, 0, len(fns))

	for _, fn := range fns {
		o, err := NewOverload(fn)
		if err != nil {
			return WrapError(err).With(slog.String("name", name))
		}

		overloads = append(overloads, o)
	}

	set := &FunctionSet{name: name}
	if prev, ok := e.idents[e.key(name)].(*FunctionSet); ok {
		set = prev.clone()
	}

	for _, o := range overloads {
		set.add(o)
	}

	e.idents[e.key(name)] = set
	e.version++

	return nil
}

// Unset removes the identifier or type alias registered under name and
// reports whether one existed.
func (e *Environment) Unset(name string) bool {
	k := e.key(name)

	if _, ok := e.idents[k]; ok {
		delete(e.idents, k)
		e.version++

		return true
	}

	if _, ok := e.types[k]; ok {
		delete(e.types, k)
		e.version++

		return true
	}

	return false
}

// SetType registers or replaces the type alias for typ together with its
// extension methods. The first parameter of every extension must accept
// values of typ.
func (e *Environment) SetType(
	alias string,
	typ reflect.Type,
	extensions ...Extension,
) error {
	if err := validName(alias); err != nil {
		return err
	}

	if typ == nil {
		return ErrConfiguration.
			Wrapf("type alias %q has no type", alias).
			With(slog.String("alias", alias))
	}

	if _, ok := e.idents[e.key(alias)]; ok {
		return ErrConfiguration.
			Wrapf("%q is already registered as an identifier", alias).
			With(slog.String("alias", alias))
	}

	desc := &TypeDescriptor{Alias: alias, Type: typ}

	for _, x := range extensions {
		if err := validName(x.Name); err != nil {
			return WrapError(err).With(slog.String("alias", alias))
		}

		o, err := NewOverload(x.Func)
		if err != nil {
			return WrapError(err).With(
				slog.String("alias", alias), slog.String("method", x.Name))
		}

		if len(o.Params) == 0 || (o.Variadic && len(o.Params) == 1) {
			return ErrConfiguration.
				Wrapf("extension %s.%s has no receiver parameter", alias, x.Name).
				With(slog.String("func", o.Fn.Type().String()))
		}

		desc.Extensions = append(desc.Extensions,
			&Extension{Name: x.Name, Func: x.Func, overload: o})
	}

	e.types[e.key(alias)] = desc
	e.version++

	return nil
}

// SetConversion registers fn, a func(From) To or func(From) (To, error), as
// a user-defined implicit conversion.
func (e *Environment) SetConversion(fn any) error {
	o, err := NewOverload(fn)
	if err != nil {
		return err
	}

	if len(o.Params) != 1 || o.Variadic || o.Result == nil {
		return ErrConfiguration.
			Wrapf("conversion must have one parameter and a result, got %s",
				o.Fn.Type())
	}

	if o.Params[0] == o.Result {
		return ErrConfiguration.
			Wrapf("conversion from %s to itself", typeName(o.Result))
	}

	e.conversions[convKey{o.Params[0], o.Result}] = o
	e.version++

	return nil
}

// Configure applies settings. Switching to case-insensitive lookup fails
// with a configuration error, leaving the environment unchanged, if two
// registered names differ only in case.
func (e *Environment) Configure(settings ...Setting) error {
	s := e.settings
	for _, opt := range settings {
		opt(&s)
	}

	if s.MaxDepth < 1 {
		s.MaxDepth = DefaultMaxDepth
	}

	idents := e.idents
	types := e.types

	if s.CaseInsensitive != e.settings.CaseInsensitive {
		fold := func(name string) string {
			if s.CaseInsensitive {
				return strings.ToLower(name)
			}

			return name
		}

		idents = make(map[string]Identifier, len(e.idents))
		types = make(map[string]*TypeDescriptor, len(e.types))
		seen := make(map[string]string, len(e.idents)+len(e.types))

		claim := func(name string) error {
			k := fold(name)
			if prev, ok := seen[k]; ok {
				return ErrConfiguration.
					Wrapf("names %q and %q collide without case sensitivity",
						prev, name).
					With(slog.String("name", name))
			}

			seen[k] = name

			return nil
		}

		for _, id := range e.idents {
			if err := claim(id.Name()); err != nil {
				return err
			}

			idents[fold(id.Name())] = id
		}

		for _, td := range e.types {
			if err := claim(td.Alias); err != nil {
				return err
			}

			types[fold(td.Alias)] = td
		}
	}

	e.settings = s
	e.idents = idents
	e.types = types
	e.version++

	return nil
}

// Lookup returns the identifier registered under name.
func (e *Environment) Lookup(name string) (Identifier, bool) {
	id, ok := e.idents[e.key(name)]

	return id, ok
}

// LookupType returns the type alias registered under alias.
func (e *Environment) LookupType(alias string) (*TypeDescriptor, bool) {
	td, ok := e.types[e.key(alias)]

	return td, ok
}

// Identifiers returns all registered identifiers sorted by name.
func (e *Environment) Identifiers() []Identifier {
	out := make([]Identifier, 0, len(e.idents))
	for _, k := range sortedKeys(e.idents) {
		out = append(out, e.idents[k])
	}

	return out
}

// Types returns all registered type aliases sorted by alias.
func (e *Environment) Types() []*TypeDescriptor {
	out := make([]*TypeDescriptor, 0, len(e.types))
	for _, k := range sortedKeys(e.types) {
		out = append(out, e.types[k])
	}

	return out
}

// Names returns every registered identifier and type alias name, sorted.
func (e *Environment) Names() []string {
	names := make([]string, 0, len(e.idents)+len(e.types))

	for _, id := range e.idents {
		names = append(names, id.Name())
	}

	for _, td := range e.types {
		names = append(names, td.Alias)
	}

	slices.Sort(names)

	return names
}

// AliasOf returns the alias registered for typ, if any.
func (e *Environment) AliasOf(typ reflect.Type) (string, bool) {
	for _, k := range sortedKeys(e.types) {
		if e.types[k].Type == typ {
			return e.types[k].Alias, true
		}
	}

	return "", false
}

func (e *Environment) conversion(from, to reflect.Type) (*Overload, bool) {
	o, ok := e.conversions[convKey{from, to}]

	return o, ok
}

// Clone returns an independent copy of the environment.
func (e *Environment) Clone() *Environment {
	c := &Environment{
		settings:    e.settings,
		idents:      make(map[string]Identifier, len(e.idents)),
		types:       make(map[string]*TypeDescriptor, len(e.types)),
		conversions: make(map[convKey]*Overload, len(e.conversions)),
		version:     e.version,
	}

	for k, id := range e.idents {
		if fs, ok := id.(*FunctionSet); ok {
			id = fs.clone()
		}

		c.idents[k] = id
	}

	for k, td := range e.types {
		cp := *td
		cp.Extensions = slices.Clone(td.Extensions)
		c.types[k] = &cp
	}

	for k, o := range e.conversions {
		c.conversions[k] = o
	}

	return c
}
