package generator

import (
	"github.com/prometheus/client_golang/prometheus"

	"GoJitterRNG/pkg/health"
)

// Metrics exports pipeline counters. One Metrics value may be shared by
// several generators; a nil *Metrics records nothing.
type Metrics struct {
	samples  *prometheus.CounterVec
	failures *prometheus.CounterVec
	blocks   prometheus.Counter
	warmups  prometheus.Counter
	state    prometheus.Gauge

	passed prometheus.Counter
	failed prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		samples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jitter_samples_total",
			Help: "Raw timing samples tested, by health verdict.",
		}, []string{"verdict"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jitter_health_failures_total",
			Help: "Health test failures, by reason.",
		}, []string{"reason"}),
		blocks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jitter_blocks_total",
			Help: "Conditioned output blocks extracted from the pool.",
		}),
		warmups: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jitter_warmup_attempts_total",
			Help: "Warm-up (cold test) attempts.",
		}),
		state: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "jitter_generator_state",
			Help: "Last generator state: 0 constructing, 1 warming, 2 ready, 3 degraded.",
		}),
	}
	m.passed = m.samples.WithLabelValues("pass")
	m.failed = m.samples.WithLabelValues("fail")

	reg.MustRegister(m.samples, m.failures, m.blocks, m.warmups, m.state)
	return m
}

func (m *Metrics) observe(v health.Verdict) {
	if m == nil {
		return
	}
	if v.Pass {
		m.passed.Inc()
		return
	}
	m.failed.Inc()
	m.failures.WithLabelValues(v.Reason.String()).Inc()
}

func (m *Metrics) block() {
	if m == nil {
		return
	}
	m.blocks.Inc()
}

func (m *Metrics) warmup() {
	if m == nil {
		return
	}
	m.warmups.Inc()
}

func (m *Metrics) setState(s State) {
	if m == nil {
		return
	}
	m.state.Set(float64(s))
}
