// Package metrics defines the sinks that receive cascade results. Sinks like
// PromSink and InfluxSink live in infra/metrics and register themselves with
// RegisterMetricsSink; NewMetricsSink builds a MultiSink automatically when
// several sinks are configured.
package metrics
