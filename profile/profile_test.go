package profile

import (
	"slices"
	"testing"
)

func TestProfiler_NoMode(t *testing.T) {
	s := Profiler{Dir: t.TempDir()}.Start()
	if _, ok := s.(ignore); !ok {
		t.Fatalf("Start() without a mode = %T, want no-op", s)
	}

	s.Stop()
}

func TestProfiler_UnknownMode(t *testing.T) {
	s := Profiler{Mode: "bogus", Dir: t.TempDir(), Quiet: true}.Start()
	if _, ok := s.(ignore); !ok {
		t.Fatalf("Start() with unknown mode = %T, want no-op", s)
	}

	s.Stop()
}

func TestModes(t *testing.T) {
	modes := Modes()

	if !Enabled {
		if len(modes) != 0 {
			t.Errorf("Modes() = %v without profiling support", modes)
		}

		return
	}

	if !slices.IsSorted(modes) || !slices.Contains(modes, "cpu") {
		t.Errorf("Modes() = %v, want sorted and containing cpu", modes)
	}
}
