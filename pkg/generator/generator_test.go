package generator

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"GoJitterRNG/pkg/conditioner"
	"GoJitterRNG/pkg/health"
	"GoJitterRNG/pkg/sampler"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// recording returns n plausible timing samples without repeats or a
// dominant value.
func recording(seed uint64, n int) []sampler.RawSample {
	r := rand.New(rand.NewPCG(seed, seed+1))
	out := make([]sampler.RawSample, n)
	for i := range out {
		out[i] = sampler.RawSample(1000 + r.Uint64N(1<<20))
	}
	return out
}

func constant(v sampler.RawSample, n int) []sampler.RawSample {
	out := make([]sampler.RawSample, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func mustReplay(t *testing.T, samples []sampler.RawSample, opts ...Option) *Generator {
	t.Helper()
	g, err := NewFromSamples(samples, append([]Option{WithLogger(quiet)}, opts...)...)
	if err != nil {
		t.Fatalf("NewFromSamples() err=%v", err)
	}
	return g
}

// longestBitRun returns the longest run of equal bits in words read
// little-endian, least significant bit first.
func longestBitRun(words []uint64) int {
	longest, run := 0, 0
	prev := -1
	for _, w := range words {
		for i := 0; i < 64; i++ {
			bit := int(w>>i) & 1
			if bit == prev {
				run++
			} else {
				prev, run = bit, 1
			}
			if run > longest {
				longest = run
			}
		}
	}
	return longest
}

func TestNewFromSamples_Ready(t *testing.T) {
	g := mustReplay(t, recording(1, 1<<14))
	if g.State() != Ready {
		t.Fatalf("state=%v, want ready", g.State())
	}
	if g.Err() != nil {
		t.Fatalf("err=%v", g.Err())
	}
	if got := g.h.pool.Fresh(); got < WarmupPasses {
		t.Fatalf("pool holds %d fresh folds after warm-up, want >= %d", got, WarmupPasses)
	}
}

func TestNewFromSamples_StuckSourceNeverReady(t *testing.T) {
	for i := 0; i < 5; i++ {
		g, err := NewFromSamples(constant(42, 100), WithLogger(quiet))
		if g != nil {
			t.Fatalf("attempt %d: got a generator in state %v", i, g.State())
		}
		if !errors.Is(err, ErrConstruction) {
			t.Fatalf("attempt %d: err=%v, want ErrConstruction", i, err)
		}
		if !errors.Is(err, health.ErrStuckSensor) {
			t.Fatalf("attempt %d: err=%v, want ErrStuckSensor", i, err)
		}
		var gerr *Error
		if !errors.As(err, &gerr) || gerr.Reason != health.StuckSensor {
			t.Fatalf("attempt %d: err=%#v", i, err)
		}
	}
}

func TestNewFromSamples_LowVariabilityNeverReady(t *testing.T) {
	samples := make([]sampler.RawSample, 1000)
	for i := range samples {
		samples[i] = 500
		if i%10 == 9 {
			samples[i] = sampler.RawSample(10000 + i)
		}
	}

	_, err := NewFromSamples(samples, WithLogger(quiet))
	if !errors.Is(err, ErrConstruction) || !errors.Is(err, health.ErrLowVariability) {
		t.Fatalf("err=%v, want construction failure with low variability", err)
	}
}

func TestNewFromSamples_RecoversOnLaterAttempt(t *testing.T) {
	// First attempt trips on a short stuck run, the second sees clean samples.
	samples := append(recording(2, 100), constant(7, health.MaxRunLength+1)...)
	samples = append(samples, recording(3, 1<<14)...)

	reg := prometheus.NewRegistry()
	g := mustReplay(t, samples, WithMetrics(NewMetrics(reg)))
	if g.State() != Ready {
		t.Fatalf("state=%v, want ready", g.State())
	}
	if got := testutil.ToFloat64(g.metrics.warmups); got != 2 {
		t.Fatalf("warm-up attempts=%v, want 2", got)
	}
}

func TestTryFillBytes_EmptyBuffer(t *testing.T) {
	g := mustReplay(t, recording(4, 1<<14))
	observed := g.h.monitor.Observed()
	fresh := g.h.pool.Fresh()

	err := g.TryFillBytes(nil)
	if !errors.Is(err, ErrBuffer) {
		t.Fatalf("err=%v, want ErrBuffer", err)
	}
	if errors.Is(err, ErrHealthTest) || errors.Is(err, ErrConstruction) {
		t.Fatalf("buffer error matches other kinds: %v", err)
	}
	if g.h.monitor.Observed() != observed || g.h.pool.Fresh() != fresh {
		t.Fatal("empty buffer touched the pipeline")
	}
	if g.State() != Ready {
		t.Fatalf("state=%v after buffer error", g.State())
	}

	g.FillBytes([]byte{}) // no-op, no abort
	if n, err := g.Read(nil); n != 0 || err != nil {
		t.Fatalf("Read(nil) = %d, %v", n, err)
	}
}

func TestTryFillBytes_DegradesOnHealthFailure(t *testing.T) {
	samples := append(recording(5, WarmupPasses), constant(7, 40)...)
	samples = append(samples, recording(6, 1<<12)...)
	g := mustReplay(t, samples)

	buf := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	err := g.TryFillBytes(buf)
	if !errors.Is(err, ErrHealthTest) || !errors.Is(err, health.ErrStuckSensor) {
		t.Fatalf("err=%v, want health failure with stuck sensor", err)
	}
	if !bytes.Equal(buf, make([]byte, len(buf))) {
		t.Fatalf("buffer not zeroed after failure: %x", buf)
	}
	if g.State() != Degraded {
		t.Fatalf("state=%v, want degraded", g.State())
	}

	// No recovery even though the source is healthy again.
	for i := 0; i < 3; i++ {
		if err := g.TryFillBytes(buf); !errors.Is(err, ErrHealthTest) {
			t.Fatalf("draw %d after degrade: err=%v", i, err)
		}
	}
	if !errors.Is(g.Err(), health.ErrStuckSensor) {
		t.Fatalf("Err()=%v", g.Err())
	}
	if _, err := g.Read(buf); !errors.Is(err, ErrHealthTest) {
		t.Fatalf("Read err=%v", err)
	}
}

func TestUint64_AbortsWhenDegraded(t *testing.T) {
	samples := append(recording(7, WarmupPasses), constant(9, 40)...)

	var aborted []error
	g := mustReplay(t, samples, WithAbort(func(err error) { aborted = append(aborted, err) }))

	if v := g.Uint64(); v != 0 {
		t.Fatalf("Uint64()=%d from a failed draw, want 0", v)
	}
	g.Uint32()
	g.FillBytes(make([]byte, 3))
	if len(aborted) != 3 {
		t.Fatalf("abort called %d times, want 3", len(aborted))
	}
	for _, err := range aborted {
		if !errors.Is(err, ErrHealthTest) {
			t.Fatalf("abort err=%v", err)
		}
	}
}

func TestZeroGeneratorIsNotReady(t *testing.T) {
	var g Generator
	if err := g.TryFillBytes(make([]byte, 4)); !errors.Is(err, ErrConstruction) {
		t.Fatalf("err=%v, want ErrConstruction", err)
	}
}

func TestReplay_Deterministic(t *testing.T) {
	samples := recording(8, 1<<14)
	a, b := mustReplay(t, samples), mustReplay(t, samples)

	for i := 0; i < 500; i++ {
		if x, y := a.Uint64(), b.Uint64(); x != y {
			t.Fatalf("draw %d: %x != %x", i, x, y)
		}
	}
}

func TestDraws_ShareOneStream(t *testing.T) {
	samples := recording(9, 1<<14)
	a, b := mustReplay(t, samples), mustReplay(t, samples)

	// 100 bytes span several blocks and end mid-block.
	want := make([]byte, 100)
	a.FillBytes(want)
	more := make([]byte, 12)
	a.FillBytes(more)
	want = append(want, more...)

	var got []byte
	for len(got) < len(want) {
		got = binary.LittleEndian.AppendUint32(got, b.Uint32())
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("integer draws and byte fills diverge:\n%x\n%x", got, want)
	}

	seen := make(map[[8]byte]bool)
	for i := 0; i+8 <= len(want); i += 8 {
		var k [8]byte
		copy(k[:], want[i:])
		if seen[k] {
			t.Fatalf("8-byte chunk at %d repeated", i)
		}
		seen[k] = true
	}
}

func TestUint64_NoLongBitRuns_Replay(t *testing.T) {
	g := mustReplay(t, recording(10, 1<<16))
	words := make([]uint64, 10000)
	for i := range words {
		words[i] = g.Uint64()
	}
	if run := longestBitRun(words); run >= 64 {
		t.Fatalf("longest bit run %d", run)
	}
}

func TestMetrics_CountPipeline(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	g := mustReplay(t, recording(11, 1<<14), WithMetrics(m))

	g.FillBytes(make([]byte, 3*32))

	if got := testutil.ToFloat64(m.blocks); got != 3 {
		t.Fatalf("blocks=%v, want 3", got)
	}
	if got := testutil.ToFloat64(m.passed); got != WarmupPasses+3*SamplesPerBlock {
		t.Fatalf("passed samples=%v", got)
	}
	if got := testutil.ToFloat64(m.state); got != float64(Ready) {
		t.Fatalf("state gauge=%v", got)
	}
}

func TestLocked_Concurrent(t *testing.T) {
	l := NewLocked(mustReplay(t, recording(12, 1<<14)))

	const workers, draws = 8, 200
	results := make(chan uint64, workers*draws)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < draws; i++ {
				results <- l.Uint64()
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[uint64]bool, workers*draws)
	for v := range results {
		if seen[v] {
			t.Fatalf("value %x handed out twice", v)
		}
		seen[v] = true
	}
	if l.State() != Ready {
		t.Fatalf("state=%v", l.State())
	}
}

func TestError_Format(t *testing.T) {
	err := &Error{Kind: KindHealth, Reason: health.LowVariability, Err: health.ErrLowVariability}
	want := "jitter: health test failure (low_variability): " + health.ErrLowVariability.Error()
	if err.Error() != want {
		t.Fatalf("Error()=%q, want %q", err.Error(), want)
	}
}

// The health cutoffs assume one bit of min-entropy per sample, so a block
// needs at least one fresh sample per output bit.
func TestSamplesPerBlock_CoversBlockAtOneBitPerSample(t *testing.T) {
	if SamplesPerBlock < conditioner.BlockSize*8 {
		t.Fatalf("SamplesPerBlock=%d credits fewer than %d bits", SamplesPerBlock, conditioner.BlockSize*8)
	}
}
