// Package cli contains the command line interface for dexpr.
//
// # Usage
//
// The default command evaluates an expression, binding parameters from
// name=value arguments:
//
//	dexpr 'Math.Max(x, y) * 2' x=3 y=4.5
//	dexpr -e env.yaml eval --with 'n=1' --with 'n=2' 'fib(n)'
//
// Other commands type-check (check), list referenced names (detect),
// canonicalize (fmt) and start an interactive session (repl).
//
// # Configuration
//
// Flag defaults are read from a YAML file in the user configuration
// directory. The init command writes one with the current flag values:
//
//	log-level: debug
//	stdlib: math,strings
//	cache: 64
//
// Nested mappings join their keys with "-", so "log: {level: debug}" is
// the same as "log-level: debug". Command-line flags override the file.
//
// # Language Options
//
//   - --stdlib: library groups to register (aliases, math, strings, path,
//     system, all, none)
//   - --number: type of unsuffixed numeric literals
//   - --assignment: assignment operators allowed
//   - --[no-]case-insensitive, --[no-]late-binding, --[no-]lambdas
//   - --cache: number of compiled expressions to keep
//   - --metrics: write Prometheus metrics to stderr on exit
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (text, json)
//   - --log-time-layout: Set timestamp format (RFC3339, Kitchen, etc.)
//   - --log-caller: Include caller information in log output
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o dexpr .
//
//   - --pprof-mode: Enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: Set profile output directory (default: ~/.cache/dexpr/pprof)
package cli
