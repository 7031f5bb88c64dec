package cascade

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	cascadeRuns     *prometheus.CounterVec
	serviceClamped  *prometheus.CounterVec
	cascadeDuration prometheus.Histogram
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.CounterVec, *prometheus.CounterVec, prometheus.Histogram) {
	runs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cascade_runs_total",
			Help: "Number of cascade runs by outcome",
		},
		[]string{"enduse", "outcome"},
	)
	clamped := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cascade_service_clamped_total",
			Help: "Number of technologies whose switched service was clamped to zero",
		},
		[]string{"enduse"},
	)
	dur := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cascade_duration_seconds",
			Help:    "Duration of a single cascade run",
			Buckets: prometheus.DefBuckets,
		},
	)
	return runs, clamped, dur
}

func init() {
	cascadeRuns, serviceClamped, cascadeDuration = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers cascade metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(cascadeRuns, serviceClamped, cascadeDuration)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	cascadeRuns, serviceClamped, cascadeDuration = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
