// Package stdlib registers a standard set of type aliases, extension methods
// and functions in a [lang.Environment].
//
// Registration is grouped so that hosts embedding the interpreter can opt in
// to exactly what their expressions should see:
//
//   - [Aliases]: C-family names for the Go basic types (int, long, double,
//     char, object, ...), usable as conversions: long(x), char(65).
//   - [Math]: the Math alias, whose methods wrap package math: Math.Max(a, b).
//   - [Strings]: extension methods on string ("abc".ToUpper(),
//     s.Substring(1, 2)) and the Strings alias: Strings.Join(xs, ",").
//   - [Path]: the Path alias for file path manipulation and PATH-style list
//     munging: Path.Prefix(PATH, "/opt/bin").
//   - [System]: host information such as getenv("HOME"), cwd and platform.
//
// # Example
//
//	env := lang.NewEnvironment()
//	if err := stdlib.Register(env, stdlib.All); err != nil {
//		return err
//	}
//
//	v, err := lang.New(lang.WithEnvironment(env)).
//		Eval(ctx, `Path.Join(cwd, "bin").Length() > 3`)
package stdlib
