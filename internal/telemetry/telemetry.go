// Package telemetry exposes the Prometheus counters and histograms
// that track tournament throughput and outcomes: runs attempted,
// method chosen, candidates rejected per gate, and each method's latest
// effective replicate count. A replicate-pass latency histogram is also
// defined and registered, but nothing in this module observes into it.
//
// Grounded on internal/metrics/vadr.go's metric-struct-plus-registry
// pattern.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sawpanic/strategyci/internal/ciresult"
)

// Metrics bundles every collector the tournament emits into. Register
// it once against a prometheus.Registerer at process start.
type Metrics struct {
	RunsTotal        *prometheus.CounterVec
	ChosenMethod     *prometheus.CounterVec
	CandidatesRejected *prometheus.CounterVec
	ReplicateLatency *prometheus.HistogramVec
	EffectiveBGauge  *prometheus.GaugeVec
}

// NewMetrics constructs Metrics without registering them, so callers
// can decide whether to use the default registry or a scoped one (test
// isolation, multi-tenant process).
func NewMetrics() *Metrics {
	return &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "strategyci", Subsystem: "tournament", Name: "runs_total",
			Help: "Total tournament runs attempted, labeled by outcome.",
		}, []string{"outcome"}),
		ChosenMethod: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "strategyci", Subsystem: "tournament", Name: "chosen_method_total",
			Help: "Count of tournament runs won by each method.",
		}, []string{"method"}),
		CandidatesRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "strategyci", Subsystem: "tournament", Name: "candidates_rejected_total",
			Help: "Count of candidates rejected, labeled by method and reject flag.",
		}, []string{"method", "reason"}),
		ReplicateLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "strategyci", Subsystem: "bootstrap", Name: "replicate_pass_seconds",
			Help:    "Wall-clock duration of one engine's replicate pass.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		EffectiveBGauge: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "strategyci", Subsystem: "bootstrap", Name: "effective_b",
			Help: "Most recent effective replicate count, labeled by method.",
		}, []string{"method"}),
	}
}

// MustRegister registers every collector in m against reg, panicking
// on a duplicate-registration error the way the teacher's metrics
// bootstrap does at process start (a programming error, not a runtime
// condition to recover from).
func (m *Metrics) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(m.RunsTotal, m.ChosenMethod, m.CandidatesRejected, m.ReplicateLatency, m.EffectiveBGauge)
}

// ObserveResult records a completed tournament's outcome: a success
// counter plus one chosen-method increment, and one rejected-counter
// increment per non-chosen, gate-failing candidate.
func (m *Metrics) ObserveResult(res ciresult.AutoCIResult, err error) {
	if err != nil {
		m.RunsTotal.WithLabelValues("no_valid_candidate").Inc()
	} else {
		m.RunsTotal.WithLabelValues("ok").Inc()
		m.ChosenMethod.WithLabelValues(res.ChosenMethod.String()).Inc()
	}
	for _, bd := range res.Diagnostics.Breakdowns {
		if !bd.PassedGates {
			m.CandidatesRejected.WithLabelValues(bd.Method.String(), bd.Reason).Inc()
		}
	}
}

// ObserveCandidate records one engine's effective replicate count
// right after it completes, independent of whether it goes on to win.
func (m *Metrics) ObserveCandidate(c ciresult.Candidate) {
	m.EffectiveBGauge.WithLabelValues(c.Method.String()).Set(float64(c.EffectiveB))
}
