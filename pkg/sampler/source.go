package sampler

// RawSample is one accumulated timing delta in clock ticks (nanoseconds).
type RawSample uint64

// Source is the interface for any component producing raw timing samples.
// Sample always returns a value; judging its quality is the health monitor's job.
type Source interface {
	// Sample measures one fixed-cost operation and returns the accumulated delta.
	Sample() RawSample
}
