package generator

import (
	"errors"
	"math/rand/v2"
	"testing"
)

// These tests run on the real host clock.

func TestNew_HostWarmupAndDraws(t *testing.T) {
	g, err := NewWithOptions(WithLogger(quiet))
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}
	if g.State() != Ready {
		t.Fatalf("state=%v, want ready", g.State())
	}

	const n = 1000
	draws := make([]uint32, n)
	for i := range draws {
		draws[i] = g.Uint32()
	}
	for i := 1; i < n; i++ {
		if draws[i] == draws[i-1] {
			t.Fatalf("draws %d and %d are equal: %x", i-1, i, draws[i])
		}
	}

	// Not a repeating cycle of any period shorter than n.
	for period := 1; period < n; period++ {
		cycle := true
		for i := 0; i+period < n; i++ {
			if draws[i] != draws[i+period] {
				cycle = false
				break
			}
		}
		if cycle {
			t.Fatalf("draws repeat with period %d", period)
		}
	}
}

func TestNew_HostNoLongBitRuns(t *testing.T) {
	if testing.Short() {
		t.Skip("draws 80 KB from the host clock")
	}
	g, err := NewWithOptions(WithLogger(quiet))
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	words := make([]uint64, 10000)
	for i := range words {
		words[i] = g.Uint64()
	}
	if run := longestBitRun(words); run >= 64 {
		t.Fatalf("longest bit run %d across %d draws", run, len(words))
	}
}

func TestNew_HostAsRandSource(t *testing.T) {
	g, err := New()
	if err != nil {
		if errors.Is(err, ErrConstruction) {
			t.Fatalf("host timing source rejected: %v", err)
		}
		t.Fatalf("New() err=%v", err)
	}
	r := rand.New(NewLocked(g))
	counts := make([]int, 4)
	for i := 0; i < 4000; i++ {
		counts[r.IntN(4)]++
	}
	for v, c := range counts {
		if c < 800 || c > 1200 {
			t.Fatalf("value %d drawn %d of 4000 times", v, c)
		}
	}
}
