package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/demandcascade/core/metrics"
	"github.com/kilianp07/demandcascade/infra/logger"
)

// InfluxConfig holds the connection settings of an InfluxSink.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// InfluxSink writes cascade results to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordCascadeResult writes one enduse_demand point per result.
func (s *InfluxSink) RecordCascadeResult(res []coremetrics.CascadeResult) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	points := make([]*write.Point, 0, len(res))
	for _, r := range res {
		points = append(points, cascadePoint(r))
	}
	if len(points) == 0 {
		return nil
	}
	return s.writeAPI.WritePoint(ctx, points...)
}

// RecordRun writes a simulation_run point.
func (s *InfluxSink) RecordRun(sum coremetrics.RunSummary) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("simulation_run").
		AddTag("run_id", sum.RunID).
		AddTag("scenario", sum.Scenario).
		AddTag("failed", strconv.FormatBool(sum.Err != "")).
		AddField("years", sum.Years).
		AddField("enduses", sum.EndUses).
		AddField("runs", sum.Runs).
		AddField("duration_ms", round3(sum.Duration.Seconds()*1000)).
		SetTime(sum.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }

func cascadePoint(r coremetrics.CascadeResult) *write.Point {
	return write.NewPointWithMeasurement("enduse_demand").
		AddTag("run_id", r.RunID).
		AddTag("scenario", r.Scenario).
		AddTag("enduse", r.EndUse).
		AddTag("sector", r.Sector).
		AddTag("fueltype", r.Fueltype).
		AddTag("year", strconv.Itoa(r.Year)).
		AddTag("mode", r.Mode).
		AddField("yearly_fuel", round3(r.YearlyFuel)).
		AddField("peak_hour_fuel", round3(r.PeakHourFuel)).
		AddField("peak_day", r.PeakDay).
		AddField("service_clamped", r.ServiceClamped).
		SetTime(r.Time)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
