package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/demandcascade/config"
	"github.com/kilianp07/demandcascade/core/cascade"
	"github.com/kilianp07/demandcascade/core/loadprofile"
	coremetrics "github.com/kilianp07/demandcascade/core/metrics"
	"github.com/kilianp07/demandcascade/core/model"
	"github.com/kilianp07/demandcascade/core/switches"
	"github.com/kilianp07/demandcascade/core/technology"
	"github.com/kilianp07/demandcascade/infra/logger"
	"github.com/kilianp07/demandcascade/infra/metrics"
	"github.com/kilianp07/demandcascade/internal/eventbus"
	"github.com/kilianp07/demandcascade/pkg/export"
	"github.com/kilianp07/demandcascade/scenario"
)

// Report is the outcome of one simulation run.
type Report struct {
	RunID     string
	Scenario  string
	Fueltypes model.Fueltypes
	// Results are ordered by year, then by end-use as declared in the
	// scenario.
	Results []cascade.Result
}

// Progress is published after every completed cascade.
type Progress struct {
	RunID  string
	Year   int
	EndUse string
	Done   int
	Total  int
}

// Options tune a Service built without a configuration file.
type Options struct {
	Years   []int
	Workers int
	Sink    coremetrics.MetricsSink
	Log     logger.Logger
}

// Service runs every end-use of a scenario over the simulated years.
type Service struct {
	sc       *scenario.Scenario
	profiles *loadprofile.Stock
	plans    []switches.Plan
	years    []int
	workers  int
	sink     coremetrics.MetricsSink
	log      logger.Logger
	events   *eventbus.Bus[Progress]

	outputDir    string
	outputFormat string
	hourly       bool
	promPort     string
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	if err := logger.SetLevel(cfg.Logging.Level); err != nil {
		return nil, err
	}
	sc, err := scenario.Load(cfg.Simulation.Scenario)
	if err != nil {
		return nil, fmt.Errorf("load scenario: %w", err)
	}
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	svc, err := NewWithScenario(sc, Options{
		Years:   cfg.Simulation.Years,
		Workers: cfg.Simulation.Workers,
		Sink:    sink,
		Log:     logger.New("service"),
	})
	if err != nil {
		return nil, err
	}
	svc.outputDir = cfg.Simulation.OutputDir
	svc.outputFormat = cfg.Simulation.OutputFormat
	svc.hourly = cfg.Simulation.Hourly
	svc.promPort = cfg.Metrics.PrometheusPort
	return svc, nil
}

// NewWithScenario builds the shared collaborators of a scenario: the sealed
// load profile stock and one fitted switch plan per end-use.
func NewWithScenario(sc *scenario.Scenario, opts Options) (*Service, error) {
	if opts.Log == nil {
		opts.Log = logger.NopLogger{}
	}
	if opts.Sink == nil {
		opts.Sink = coremetrics.NopSink{}
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	years := opts.Years
	if len(years) == 0 {
		years = []int{sc.BaseYear, sc.EndYear}
	}
	for _, y := range years {
		if y < sc.BaseYear {
			return nil, fmt.Errorf("year %d before base year %d", y, sc.BaseYear)
		}
	}

	profiles, err := sc.ProfileStock()
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}
	plans, err := buildPlans(sc, profiles)
	if err != nil {
		return nil, err
	}
	opts.Log.Infof("scenario %s: %d enduses, %d profiles, years %v", sc.Name, len(sc.EndUses), len(profiles.Profiles()), years)
	return &Service{
		sc:           sc,
		profiles:     profiles,
		plans:        plans,
		years:        years,
		workers:      opts.Workers,
		sink:         opts.Sink,
		log:          opts.Log,
		events:       eventbus.New[Progress](len(years) * len(sc.EndUses)),
		outputFormat: "csv",
	}, nil
}

// buildPlans fits the switch curves of every end-use against its base-year
// service shares.
func buildPlans(sc *scenario.Scenario, profiles *loadprofile.Stock) ([]switches.Plan, error) {
	techBY, err := sc.TechnologyStock(sc.BaseYear)
	if err != nil {
		return nil, fmt.Errorf("technologies: %w", err)
	}
	fs, err := sc.FuelSwitchRecords()
	if err != nil {
		return nil, err
	}
	plans := make([]switches.Plan, len(sc.EndUses))
	for i, eu := range sc.EndUses {
		in, err := sc.Input(eu, sc.BaseYear, techBY, profiles)
		if err != nil {
			return nil, err
		}
		base, err := cascade.BaseServiceShares(in)
		if err != nil {
			return nil, fmt.Errorf("base shares: %w", err)
		}
		plan, err := switches.NewPlan(eu.Name, sc.BaseYear, base, fs, sc.ServiceSwitches, techBY.MaxShare)
		if err != nil {
			return nil, err
		}
		plans[i] = plan
	}
	return plans, nil
}

// Simulate runs every end-use for every year. Independent cascades run in
// parallel on at most the configured number of workers; the first error
// cancels the remaining runs.
func (s *Service) Simulate(ctx context.Context) (*Report, error) {
	runID := uuid.NewString()
	start := time.Now()
	n := len(s.sc.EndUses)
	results := make([]cascade.Result, len(s.years)*n)
	var done atomic.Int64

	stocks := make([]*technology.Stock, len(s.years))
	for yi, year := range s.years {
		techs, err := s.sc.TechnologyStock(year)
		if err != nil {
			return nil, fmt.Errorf("technologies %d: %w", year, err)
		}
		stocks[yi] = techs
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for yi, year := range s.years {
		techs := stocks[yi]
		for ei := range s.sc.EndUses {
			idx := yi*n + ei
			eu := s.sc.EndUses[ei]
			plan := s.plans[ei]
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				in, err := s.sc.Input(eu, year, techs, s.profiles)
				if err != nil {
					return err
				}
				in.Plan = plan
				in.Log = s.log
				res, err := cascade.Run(in)
				if err != nil {
					return fmt.Errorf("year %d: %w", year, err)
				}
				results[idx] = res
				s.events.Publish(Progress{
					RunID:  runID,
					Year:   year,
					EndUse: eu.Name,
					Done:   int(done.Add(1)),
					Total:  len(results),
				})
				return nil
			})
		}
	}
	err := g.Wait()

	summary := coremetrics.RunSummary{
		RunID:    runID,
		Scenario: s.sc.Name,
		Years:    len(s.years),
		EndUses:  n,
		Runs:     len(results),
		Duration: time.Since(start),
		Time:     start,
	}
	if err != nil {
		summary.Err = err.Error()
	}
	if rec, ok := s.sink.(coremetrics.RunRecorder); ok {
		if rerr := rec.RecordRun(summary); rerr != nil {
			s.log.Errorf("record run: %v", rerr)
		}
	}
	if err != nil {
		return nil, err
	}

	report := &Report{RunID: runID, Scenario: s.sc.Name, Fueltypes: s.sc.FueltypeRegistry(), Results: results}
	if err := s.sink.RecordCascadeResult(sinkResults(report, start)); err != nil {
		s.log.Errorf("record results: %v", err)
	}
	s.log.Infof("run %s: %d cascades in %s", runID, len(results), summary.Duration)
	return report, nil
}

func sinkResults(r *Report, at time.Time) []coremetrics.CascadeResult {
	rows := export.Rows(r.Results, r.Fueltypes)
	out := make([]coremetrics.CascadeResult, len(rows))
	for i, row := range rows {
		out[i] = coremetrics.CascadeResult{
			RunID:          r.RunID,
			Scenario:       r.Scenario,
			EndUse:         row.EndUse,
			Sector:         row.Sector,
			Year:           row.Year,
			Fueltype:       row.Fueltype,
			Mode:           row.Mode,
			YearlyFuel:     row.YearlyFuel,
			PeakHourFuel:   row.PeakHourFuel,
			PeakDay:        row.PeakDay,
			ServiceClamped: row.ServiceClamped,
			Time:           at,
		}
	}
	return out
}

// Events subscribes to the progress of subsequent simulations. The channel is
// closed by Close.
func (s *Service) Events() <-chan Progress { return s.events.Subscribe() }

// Run simulates the scenario and exports the results. When a Prometheus port
// is configured the metrics endpoint stays up until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	progress := s.events.Subscribe()
	defer s.events.Unsubscribe(progress)
	go func() {
		for p := range progress {
			s.log.Debugf("cascade %d/%d: %s %d", p.Done, p.Total, p.EndUse, p.Year)
		}
	}()
	if s.promPort != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	report, err := s.Simulate(ctx)
	if err != nil {
		return err
	}
	if s.outputDir != "" {
		if err := s.Export(report); err != nil {
			return err
		}
	}
	if s.promPort != "" {
		<-ctx.Done()
	}
	return nil
}

// Export writes the report into the output directory.
func (s *Service) Export(r *Report) error {
	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return err
	}
	name := filepath.Join(s.outputDir, fmt.Sprintf("%s_%s.%s", r.Scenario, r.RunID, s.outputFormat))
	if err := writeFile(name, func(f *os.File) error {
		rows := export.Rows(r.Results, r.Fueltypes)
		if s.outputFormat == "json" {
			return export.WriteJSON(f, rows)
		}
		return export.WriteCSV(f, rows)
	}); err != nil {
		return err
	}
	s.log.Infof("results written to %s", name)
	if !s.hourly {
		return nil
	}
	hourly := filepath.Join(s.outputDir, fmt.Sprintf("%s_%s_hourly.csv", r.Scenario, r.RunID))
	return writeFile(hourly, func(f *os.File) error {
		return export.WriteHourlyCSV(f, r.Results, r.Fueltypes)
	})
}

func writeFile(name string, write func(*os.File) error) (err error) {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return write(f)
}

// Profiles returns the load profile stock of the scenario.
func (s *Service) Profiles() *loadprofile.Stock { return s.profiles }

// Plans returns the fitted switch plan of every end-use in scenario order.
func (s *Service) Plans() []switches.Plan { return s.plans }

// Close flushes and closes the metrics sinks that hold connections.
func (s *Service) Close() error {
	s.events.Close()
	closeSink(s.sink)
	return nil
}

func closeSink(sink coremetrics.MetricsSink) {
	switch v := sink.(type) {
	case *coremetrics.MultiSink:
		for _, inner := range v.Sinks {
			closeSink(inner)
		}
	case interface{ Close() }:
		v.Close()
	}
}
