package sampler

const (
	// scratchWords is the size of the buffer touched by the fixed-cost operation.
	scratchWords = 64
	// opRounds is the number of strided scratch updates per operation.
	opRounds = 32
	// churnStep is added to every touched scratch word.
	churnStep = 0x9e3779b97f4a7c15

	// minTicksPerSample is how many clock ticks one accumulated sample should span.
	minTicksPerSample = 16
	minOversample     = 8
	maxOversample     = 1024

	calibrationRounds = 16
	// maxTickSpin bounds the wait for a clock tick during calibration.
	maxTickSpin = 1 << 16
)

// Calibration describes how a TimingSampler adapted itself to the host clock.
type Calibration struct {
	Granularity uint64 // smallest observed clock step, 0 if the clock never moved
	OpCost      uint64 // average ticks per delta: one operation plus one clock read
	Oversample  int    // deltas accumulated into one RawSample
}

// TimingSampler measures the execution time of a fixed, side-effect-free
// operation with a monotonic high-resolution clock.
//
// A TimingSampler is not safe for concurrent use.
type TimingSampler struct {
	clock   func() uint64
	scratch [scratchWords]uint64
	sink    uint64
	cal     Calibration
}

// NewTimingSampler creates a sampler on the host monotonic clock and calibrates it.
func NewTimingSampler() *TimingSampler {
	return newTimingSampler(monotonicNanos)
}

func newTimingSampler(clock func() uint64) *TimingSampler {
	s := &TimingSampler{clock: clock}
	s.calibrate()
	return s
}

// Calibration returns the values measured at construction.
func (s *TimingSampler) Calibration() Calibration {
	return s.cal
}

// Sample implements Source. It accumulates Oversample consecutive deltas,
// each bracketing one fixed-cost operation, so that variation below the
// clock resolution still shows up in the sum.
func (s *TimingSampler) Sample() RawSample {
	var sum uint64
	prev := s.clock()
	for i := 0; i < s.cal.Oversample; i++ {
		s.churn()
		now := s.clock()
		sum += now - prev
		prev = now
	}
	return RawSample(sum)
}

// churn is the fixed-cost operation. Index sequence and arithmetic do not
// depend on the scratch contents.
func (s *TimingSampler) churn() {
	acc := s.sink
	for i := 0; i < opRounds; i++ {
		j := (i * 7) & (scratchWords - 1)
		s.scratch[j] += churnStep
		acc ^= s.scratch[j]
	}
	s.sink = acc
}

func (s *TimingSampler) calibrate() {
	// 1. Clock granularity: smallest non-zero step between consecutive reads.
	var granularity uint64
	for r := 0; r < calibrationRounds; r++ {
		t0 := s.clock()
		t1 := t0
		for spin := 0; spin < maxTickSpin && t1 == t0; spin++ {
			t1 = s.clock()
		}
		if step := t1 - t0; step > 0 && (granularity == 0 || step < granularity) {
			granularity = step
		}
	}

	// 2. Average cost of one delta: the fixed operation plus a clock read.
	const costRuns = 64
	start := s.clock()
	end := start
	for i := 0; i < costRuns; i++ {
		s.churn()
		end = s.clock()
	}
	cost := (end - start) / costRuns

	// 3. Oversample until one sample spans minTicksPerSample clock steps.
	oversample := maxOversample
	if granularity > 0 {
		perOp := cost
		if perOp == 0 {
			perOp = 1
		}
		need := (minTicksPerSample*granularity + perOp - 1) / perOp
		if need < maxOversample {
			oversample = int(need)
		}
	}
	if oversample < minOversample {
		oversample = minOversample
	}

	s.cal = Calibration{
		Granularity: granularity,
		OpCost:      cost,
		Oversample:  oversample,
	}
}
