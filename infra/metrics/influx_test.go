package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/demandcascade/core/metrics"
)

func TestInfluxSink_RecordCascadeResult(t *testing.T) {
	var mu sync.Mutex
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		body = string(data)
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSink(InfluxConfig{URL: srv.URL, Token: "token", Org: "org", Bucket: "bucket"})
	defer sink.Close()
	now := time.Now()
	rec := coremetrics.CascadeResult{
		RunID:          "run1",
		Scenario:       "baseline",
		EndUse:         "space_heating",
		Sector:         "residential",
		Year:           2030,
		Fueltype:       "gas",
		Mode:           "service_switch",
		YearlyFuel:     12.34567,
		PeakHourFuel:   0.0042,
		PeakDay:        10,
		ServiceClamped: 1,
		Time:           now,
	}
	if err := sink.RecordCascadeResult([]coremetrics.CascadeResult{rec}); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("enduse_demand").
		AddTag("run_id", "run1").
		AddTag("scenario", "baseline").
		AddTag("enduse", "space_heating").
		AddTag("sector", "residential").
		AddTag("fueltype", "gas").
		AddTag("year", "2030").
		AddTag("mode", "service_switch").
		AddField("yearly_fuel", 12.346).
		AddField("peak_hour_fuel", 0.004).
		AddField("peak_day", 10).
		AddField("service_clamped", 1).
		SetTime(now)
	expected := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	mu.Lock()
	defer mu.Unlock()
	if strings.TrimSpace(body) != expected {
		t.Errorf("unexpected body: %s\nwant: %s", body, expected)
	}
}

func TestInfluxSink_RecordRun(t *testing.T) {
	var mu sync.Mutex
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		body = string(data)
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSink(InfluxConfig{URL: srv.URL + "/api/v2/write", Token: "token", Org: "org", Bucket: "bucket"})
	defer sink.Close()
	if err := sink.RecordRun(coremetrics.RunSummary{RunID: "run1", Scenario: "baseline", Years: 2, EndUses: 3, Runs: 6, Duration: time.Second, Time: time.Now()}); err != nil {
		t.Fatalf("record run: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if !strings.HasPrefix(body, "simulation_run,") || !strings.Contains(body, "runs=6i") {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(InfluxConfig{URL: srv.URL + "/api/v2/write", Token: "tok", Org: "org", Bucket: "bucket"})
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}
