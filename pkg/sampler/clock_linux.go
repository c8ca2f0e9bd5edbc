//go:build linux

package sampler

import (
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// monotonicNanos reads CLOCK_MONOTONIC_RAW, which is not slewed by NTP.
// The clock is chosen once; readings from different epochs are never mixed.
var monotonicNanos = pickClock()

var lastRaw atomic.Uint64

func pickClock() func() uint64 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC_RAW, &ts); err != nil {
		return runtimeNanos
	}
	lastRaw.Store(uint64(ts.Nano()))
	return rawNanos
}

// rawNanos repeats the last good reading on error, so the delta is zero.
func rawNanos() uint64 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC_RAW, &ts); err != nil {
		return lastRaw.Load()
	}
	now := uint64(ts.Nano())
	lastRaw.Store(now)
	return now
}
