//go:build !linux

package sampler

// monotonicNanos falls back to the runtime's monotonic clock reading.
var monotonicNanos = runtimeNanos
