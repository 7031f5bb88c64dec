package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/demandcascade/core/metrics"
)

// PromSink exposes cascade results as Prometheus metrics.
type PromSink struct {
	yearly  *prometheus.GaugeVec
	peak    *prometheus.GaugeVec
	results *prometheus.CounterVec
	runs    *prometheus.HistogramVec
}

// NewPromSink registers cascade metrics on the default Prometheus registerer.
// The HTTP endpoint is started separately with StartPromServer.
func NewPromSink() (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	yearly := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "enduse_yearly_fuel",
		Help: "Yearly fuel demand of an end-use per fueltype",
	}, []string{"scenario", "enduse", "sector", "fueltype", "year"})
	peak := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "enduse_peak_hour_fuel",
		Help: "Peak hour fuel demand of an end-use per fueltype",
	}, []string{"scenario", "enduse", "sector", "fueltype", "year"})
	results := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cascade_results_total",
		Help: "Number of cascade results recorded",
	}, []string{"scenario", "mode"})
	runs := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "simulation_run_duration_seconds",
		Help:    "Duration of complete simulation runs",
		Buckets: prometheus.DefBuckets,
	}, []string{"scenario", "failed"})

	var err error
	if yearly, err = register(reg, yearly); err != nil {
		return nil, err
	}
	if peak, err = register(reg, peak); err != nil {
		return nil, err
	}
	if results, err = register(reg, results); err != nil {
		return nil, err
	}
	if runs, err = register(reg, runs); err != nil {
		return nil, err
	}
	return &PromSink{yearly: yearly, peak: peak, results: results, runs: runs}, nil
}

// register adds c to reg, reusing an identical collector registered before.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordCascadeResult sets the demand gauges and counts the results.
func (s *PromSink) RecordCascadeResult(res []coremetrics.CascadeResult) error {
	for _, r := range res {
		yr := strconv.Itoa(r.Year)
		s.yearly.WithLabelValues(r.Scenario, r.EndUse, r.Sector, r.Fueltype, yr).Set(r.YearlyFuel)
		s.peak.WithLabelValues(r.Scenario, r.EndUse, r.Sector, r.Fueltype, yr).Set(r.PeakHourFuel)
		s.results.WithLabelValues(r.Scenario, r.Mode).Inc()
	}
	return nil
}

// RecordRun observes the duration of a simulation run.
func (s *PromSink) RecordRun(sum coremetrics.RunSummary) error {
	s.runs.WithLabelValues(sum.Scenario, strconv.FormatBool(sum.Err != "")).Observe(sum.Duration.Seconds())
	return nil
}
