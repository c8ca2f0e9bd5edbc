package generator

import (
	"fmt"

	"GoJitterRNG/pkg/health"
	"GoJitterRNG/pkg/pool"
	"GoJitterRNG/pkg/sampler"
)

// harvester drives samples from the source through the health monitor into
// the pool. It is the conditioner's Stirrer.
type harvester struct {
	src     sampler.Source
	monitor *health.Monitor
	pool    *pool.Pool
	metrics *Metrics
}

// harvest folds n samples. Every sample is tested first; a failing sample is
// never folded and stops the harvest.
func (h *harvester) harvest(n int) error {
	for i := 0; i < n; i++ {
		s := h.src.Sample()
		v := h.monitor.Observe(s)
		h.metrics.observe(v)
		if !v.Pass {
			return fmt.Errorf("sample %d: %w", h.monitor.Observed(), v.Err())
		}
		h.pool.Fold(s)
	}
	return nil
}

// Stir implements conditioner.Stirrer.
func (h *harvester) Stir() error {
	return h.harvest(1)
}
