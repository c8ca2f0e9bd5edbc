// Package health runs continuous online tests on raw timing samples, modeled
// on the repetition count and adaptive proportion tests of NIST SP 800-90B.
//
// Thresholds assume an assessed min-entropy of H = 1 bit per sample and a
// false positive probability of 2^-20 per test.
package health

import "GoJitterRNG/pkg/sampler"

const (
	// MaxRunLength is the longest allowed run of identical samples.
	// Cutoff 1 + ceil(20/H) = 21, so the 21st repeat fails.
	MaxRunLength = 20

	// APTWindow is the sliding window size of the adaptive proportion test.
	APTWindow = 512
	// APTCutoff is the per-value count in one window that fails the test:
	// 1 + critbinom(W=512, p=2^-H=0.5, 1-2^-20) = 311.
	APTCutoff = 311
	// APTWarn marks the stream degraded before it fails.
	APTWarn = APTCutoff * 3 / 4
)

// Monitor classifies a stream of raw samples.
//
// A failure is sticky: once Failed, Observe keeps returning the failing
// verdict until Reset is called. A Monitor is not safe for concurrent use.
type Monitor struct {
	status Status
	reason Reason

	// repetition count test
	last      sampler.RawSample
	runLength int

	// adaptive proportion test
	window [APTWindow]sampler.RawSample
	filled int
	next   int
	counts map[sampler.RawSample]int
	// countOf[c] is the number of distinct values held c times in the window.
	countOf [APTWindow + 1]int
	peak    int

	observed uint64
	passes   int
}

// NewMonitor creates a monitor in the Healthy state.
func NewMonitor() *Monitor {
	m := &Monitor{}
	m.Reset()
	return m
}

// Reset clears all test state and returns the monitor to Healthy.
func (m *Monitor) Reset() {
	*m = Monitor{counts: make(map[sampler.RawSample]int, APTWindow)}
}

// Status returns the current classification.
func (m *Monitor) Status() Status { return m.status }

// WindowPeak returns the largest count of any single value in the window.
func (m *Monitor) WindowPeak() int { return m.peak }

// Reason returns why the monitor failed, ReasonNone if it has not.
func (m *Monitor) Reason() Reason { return m.reason }

// Observed returns the number of samples tested since the last reset.
func (m *Monitor) Observed() uint64 { return m.observed }

// ConsecutivePasses returns the number of passing verdicts since the last
// reset or failure.
func (m *Monitor) ConsecutivePasses() int { return m.passes }

// Observe runs both continuous tests on s. It must be called on every sample
// before the sample is used.
func (m *Monitor) Observe(s sampler.RawSample) Verdict {
	if m.status == Failed {
		return Verdict{Reason: m.reason}
	}
	m.observed++

	// Repetition count test
	if m.runLength > 0 && s == m.last {
		m.runLength++
	} else {
		m.last = s
		m.runLength = 1
	}
	if m.runLength > MaxRunLength {
		return m.fail(StuckSensor)
	}

	// Adaptive proportion test
	if m.filled == APTWindow {
		old := m.window[m.next]
		c := m.counts[old]
		m.countOf[c]--
		if c == m.peak && m.countOf[c] == 0 {
			m.peak--
		}
		if c--; c > 0 {
			m.counts[old] = c
			m.countOf[c]++
		} else {
			delete(m.counts, old)
		}
	} else {
		m.filled++
	}
	m.window[m.next] = s
	m.next = (m.next + 1) % APTWindow
	count := m.counts[s] + 1
	m.counts[s] = count
	if count > 1 {
		m.countOf[count-1]--
	}
	m.countOf[count]++
	if count > m.peak {
		m.peak = count
	}
	if count >= APTCutoff {
		return m.fail(LowVariability)
	}

	if m.runLength > MaxRunLength/2 || m.peak >= APTWarn {
		m.status = Degraded
	} else {
		m.status = Healthy
	}
	m.passes++
	return Verdict{Pass: true}
}

func (m *Monitor) fail(r Reason) Verdict {
	m.status = Failed
	m.reason = r
	m.passes = 0
	return Verdict{Reason: r}
}
