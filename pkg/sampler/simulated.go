package sampler

// RecordedSource replays a pre-recorded sequence of samples in place of the
// hardware clock. It exists for test harnesses: output built on it is fully
// deterministic and must never be used as randomness.
type RecordedSource struct {
	samples []RawSample
	next    int
}

// NewRecordedSource creates a source replaying samples, wrapping around at
// the end. An empty recording replays a single zero sample, which the health
// tests reject as stuck.
func NewRecordedSource(samples []RawSample) *RecordedSource {
	if len(samples) == 0 {
		samples = []RawSample{0}
	}
	recorded := make([]RawSample, len(samples))
	copy(recorded, samples)
	return &RecordedSource{samples: recorded}
}

// Sample implements Source.
func (r *RecordedSource) Sample() RawSample {
	s := r.samples[r.next]
	r.next++
	if r.next == len(r.samples) {
		r.next = 0
	}
	return s
}

// Replayed reports how many samples have been served since the last wrap.
func (r *RecordedSource) Replayed() int {
	return r.next
}
