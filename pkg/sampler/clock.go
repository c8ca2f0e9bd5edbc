package sampler

import "time"

var processStart = time.Now()

// runtimeNanos is the runtime's monotonic reading since package init.
func runtimeNanos() uint64 {
	return uint64(time.Since(processStart))
}
