package metrics

import (
	"errors"
	"time"
)

// CascadeResult is the per-fueltype outcome of one cascade run.
type CascadeResult struct {
	RunID    string
	Scenario string
	EndUse   string
	Sector   string
	Year     int
	Fueltype string
	Mode     string

	YearlyFuel     float64
	PeakHourFuel   float64
	PeakDay        int
	ServiceClamped int
	Time           time.Time
}

// MetricsSink records cascade results for observability purposes.
type MetricsSink interface {
	RecordCascadeResult(results []CascadeResult) error
}

// RunSummary describes a complete simulation run.
type RunSummary struct {
	RunID    string
	Scenario string
	Years    int
	EndUses  int
	Runs     int
	Duration time.Duration
	Err      string
	Time     time.Time
}

// RunRecorder is implemented by sinks able to record run summaries.
type RunRecorder interface {
	RecordRun(s RunSummary) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordCascadeResult([]CascadeResult) error { return nil }
func (NopSink) RecordRun(RunSummary) error                { return nil }

// MultiSink fans results out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordCascadeResult forwards the results to every sink. All sinks are
// called; their errors are joined.
func (m *MultiSink) RecordCascadeResult(res []CascadeResult) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordCascadeResult(res); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordRun forwards the summary to every sink implementing RunRecorder.
func (m *MultiSink) RecordRun(s RunSummary) error {
	var errs []error
	for _, sink := range m.Sinks {
		if rec, ok := sink.(RunRecorder); ok {
			if err := rec.RecordRun(s); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
