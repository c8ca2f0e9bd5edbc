// Package generator serves typed random draws from CPU timing jitter.
//
// A Generator owns its whole pipeline: timing sampler, health monitor,
// entropy pool and conditioner. Nothing is shared between generators, so
// independent generators (one per worker) need no coordination. A single
// Generator is not safe for concurrent use; wrap it with NewLocked when it
// has to be shared.
package generator

import (
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"

	"GoJitterRNG/pkg/conditioner"
	"GoJitterRNG/pkg/health"
	"GoJitterRNG/pkg/pool"
	"GoJitterRNG/pkg/sampler"
)

const (
	// WarmupPasses is the cold-test threshold: consecutive passing samples
	// required before any output is released.
	WarmupPasses = 1024
	// WarmupAttempts bounds the cold test retries.
	WarmupAttempts = 4
	// SamplesPerBlock is the number of fresh samples folded before each
	// extraction. Each sample is credited with one bit, the same rate the
	// health cutoffs assume, giving 256 bits per 32-byte block.
	SamplesPerBlock = 256
)

// RNG is the generator interface offered to callers.
type RNG interface {
	Uint32() uint32
	Uint64() uint64
	FillBytes(buf []byte)
	TryFillBytes(buf []byte) error
}

var (
	_ RNG         = (*Generator)(nil)
	_ io.Reader   = (*Generator)(nil)
	_ rand.Source = (*Generator)(nil)
)

// State is the generator lifecycle state.
type State int

const (
	Constructing State = iota
	Warming
	Ready
	Degraded
)

func (s State) String() string {
	switch s {
	case Constructing:
		return "constructing"
	case Warming:
		return "warming"
	case Ready:
		return "ready"
	case Degraded:
		return "degraded"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Generator is a seedless random number generator driven by timing jitter.
type Generator struct {
	h       *harvester
	cond    *conditioner.Conditioner
	block   conditioner.Block
	cursor  int
	state   State
	err     error
	log     *slog.Logger
	metrics *Metrics
	abort   func(error)
}

// New creates a generator on the host clock and runs the warm-up. It
// returns an error of kind KindConstruction if the host timing source never
// passes the cold test.
func New() (*Generator, error) {
	return NewWithOptions()
}

// NewWithOptions is New with observability hooks attached.
func NewWithOptions(opts ...Option) (*Generator, error) {
	return newGenerator(nil, opts)
}

// NewFromSamples builds a generator that replays samples instead of reading
// the clock. It exists for test harnesses only: its output is a deterministic
// function of samples.
func NewFromSamples(samples []sampler.RawSample, opts ...Option) (*Generator, error) {
	return newGenerator(sampler.NewRecordedSource(samples), opts)
}

func newGenerator(src sampler.Source, opts []Option) (*Generator, error) {
	g := &Generator{
		state:  Constructing,
		cursor: conditioner.BlockSize,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.log == nil {
		g.log = slog.Default()
	}
	if g.abort == nil {
		g.abort = exitOnFailure(g.log)
	}
	g.metrics.setState(Constructing)

	if src == nil {
		ts := sampler.NewTimingSampler()
		cal := ts.Calibration()
		g.log.Debug("timing sampler calibrated",
			"granularity_ns", cal.Granularity,
			"op_cost_ns", cal.OpCost,
			"oversample", cal.Oversample)
		src = ts
	}

	g.h = &harvester{
		src:     src,
		monitor: health.NewMonitor(),
		pool:    pool.New(),
		metrics: g.metrics,
	}
	g.cond = conditioner.New(g.h)

	if err := g.warmUp(); err != nil {
		return nil, err
	}
	g.setState(Ready)
	return g, nil
}

// warmUp stirs the pool and runs the cold test. Each attempt starts from a
// reset monitor and must see WarmupPasses consecutive passing samples.
func (g *Generator) warmUp() error {
	g.setState(Warming)

	var last error
	for attempt := 1; attempt <= WarmupAttempts; attempt++ {
		g.metrics.warmup()
		g.h.monitor.Reset()

		err := g.h.harvest(WarmupPasses)
		if err == nil && g.h.monitor.ConsecutivePasses() >= WarmupPasses {
			g.log.Info("jitter generator warmed up", "attempt", attempt, "samples", WarmupPasses)
			return nil
		}
		last = err
		g.log.Warn("warm-up attempt failed", "attempt", attempt, "err", err)
	}

	return &Error{
		Kind:   KindConstruction,
		Reason: g.h.monitor.Reason(),
		Err:    fmt.Errorf("no %d consecutive healthy samples in %d attempts: %w", WarmupPasses, WarmupAttempts, last),
	}
}

// State returns the current lifecycle state.
func (g *Generator) State() State { return g.state }

// Err returns the error that moved the generator to Degraded, or nil.
func (g *Generator) Err() error { return g.err }

// TryFillBytes fills buf with random bytes. It fails with KindBuffer for an
// empty buf and with KindHealth once the generator is degraded. On failure
// buf is zeroed.
func (g *Generator) TryFillBytes(buf []byte) error {
	if len(buf) == 0 {
		return &Error{Kind: KindBuffer, Err: errEmptyBuffer}
	}
	switch g.state {
	case Ready:
	case Degraded:
		clear(buf)
		return g.err
	default:
		clear(buf)
		return &Error{Kind: KindConstruction, Err: fmt.Errorf("generator is %s", g.state)}
	}

	for n := 0; n < len(buf); {
		if g.cursor == conditioner.BlockSize {
			if err := g.refill(); err != nil {
				clear(buf)
				return err
			}
		}
		c := copy(buf[n:], g.block[g.cursor:])
		clear(g.block[g.cursor : g.cursor+c])
		g.cursor += c
		n += c
	}
	return nil
}

// FillBytes fills buf like TryFillBytes. An empty buf is a no-op. It aborts
// on persistent health failure through the abort handler.
func (g *Generator) FillBytes(buf []byte) {
	if len(buf) == 0 {
		return
	}
	if err := g.TryFillBytes(buf); err != nil {
		g.abort(err)
	}
}

// Uint32 returns four bytes of output, little-endian. It aborts on
// persistent health failure.
func (g *Generator) Uint32() uint32 {
	var b [4]byte
	g.FillBytes(b[:])
	return binary.LittleEndian.Uint32(b[:])
}

// Uint64 returns eight bytes of output, little-endian. It aborts on
// persistent health failure. Uint64 makes a Generator a math/rand/v2 Source.
func (g *Generator) Uint64() uint64 {
	var b [8]byte
	g.FillBytes(b[:])
	return binary.LittleEndian.Uint64(b[:])
}

// Read implements io.Reader. It either fills p completely or returns an error.
func (g *Generator) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if err := g.TryFillBytes(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// refill harvests fresh samples and extracts the next block.
func (g *Generator) refill() error {
	if err := g.h.harvest(SamplesPerBlock); err != nil {
		return g.degrade(err)
	}
	b, err := g.cond.Condition(g.h.pool)
	if err != nil {
		return g.degrade(err)
	}
	g.block = b
	g.cursor = 0
	g.metrics.block()
	return nil
}

func (g *Generator) degrade(err error) error {
	g.err = &Error{Kind: KindHealth, Reason: g.h.monitor.Reason(), Err: err}
	g.setState(Degraded)
	g.log.Warn("jitter generator degraded", "reason", g.h.monitor.Reason(), "err", err)
	return g.err
}

func (g *Generator) setState(s State) {
	g.state = s
	g.metrics.setState(s)
}
