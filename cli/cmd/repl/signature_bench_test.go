package repl

import "testing"

func BenchmarkLookupSignature(b *testing.B) {
	sh := newShell(b)
	env := sh.interp.Environment()

	callees := []string{"getenv", "Math.Pow", "Path.Join", "limit"}

	for b.Loop() {
		for _, c := range callees {
			_, _ = lookupSignature(env, c, 1)
		}
	}
}

func BenchmarkChildCandidates(b *testing.B) {
	sh := newShell(b)
	env := sh.interp.Environment()

	for _, parent := range []string{"", "Math", "Path"} {
		b.Run("parent="+parent, func(b *testing.B) {
			for b.Loop() {
				_ = childCandidates(env, parent)
			}
		})
	}
}

func BenchmarkDetectFunctionCall(b *testing.B) {
	input := `Path.Join(getenv("HOME"), Math.Max(limit, 2).ToString(), "x"`

	for b.Loop() {
		_ = detectFunctionCall(input, len(input))
	}
}
