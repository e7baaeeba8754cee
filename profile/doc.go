// Package profile provides optional runtime profiling for dexpr.
//
// Profiling is compiled in only with the "pprof" build tag, which wires
// [github.com/pkg/profile] and registers the [net/http/pprof] handlers.
// Without the tag every [Profiler] is a no-op and [Modes] is empty.
//
//	p := profile.Profiler{Mode: "cpu", Dir: "/tmp/dexpr"}
//	defer p.Start().Stop()
//
// Supported modes are allocs, block, clock, cpu, goroutine, heap, mem,
// mutex, thread and trace. Each writes <mode>.pprof (or trace.out) into Dir,
// which can be inspected with:
//
//	go tool pprof -http=: /tmp/dexpr/cpu.pprof
//
// The dexpr command exposes the profiler through --pprof-mode and
// --pprof-dir when built with the tag:
//
//	go build -tags pprof . && ./dexpr --pprof-mode cpu eval 'Math.Sqrt(2)'
package profile
