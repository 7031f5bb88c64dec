package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/demandcascade/app"
	"github.com/kilianp07/demandcascade/config"
	"github.com/kilianp07/demandcascade/infra/logger"
)

var (
	cfgPath string
	simOpts config.SimulationConfig
)

var rootCmd = &cobra.Command{
	Use:   "demandcascade",
	Short: "Energy demand cascade simulator",
	Long: `Runs the demand cascade of every end-use of a scenario for the
selected years: fuel to service conversion, technology switches, efficiency
gains and the disaggregation of yearly fuel into 8760 hourly values.

The configuration file selects the scenario, the years and the metrics sinks.
Simulation flags override the matching configuration entries.`,
	RunE: run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
	f := rootCmd.Flags()
	f.StringVarP(&simOpts.Scenario, "scenario", "s", "", "scenario file")
	f.IntSliceVar(&simOpts.Years, "years", nil, "simulated years, strictly increasing")
	f.IntVarP(&simOpts.Workers, "workers", "w", 0, "cascades run in parallel")
	f.StringVarP(&simOpts.OutputDir, "output-dir", "o", "", "directory receiving exported results")
	f.StringVar(&simOpts.OutputFormat, "format", "", "export format: csv or json")
	f.BoolVar(&simOpts.Hourly, "hourly", false, "also export hourly values")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	return svc.Run(ctx)
}

// loadConfig reads the configuration file and applies the simulation flags
// that were set on the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	sim := &cfg.Simulation
	flags := cmd.Flags()
	if flags.Changed("scenario") {
		sim.Scenario = simOpts.Scenario
	}
	if flags.Changed("years") {
		sim.Years = simOpts.Years
	}
	if flags.Changed("workers") {
		sim.Workers = simOpts.Workers
	}
	if flags.Changed("output-dir") {
		sim.OutputDir = simOpts.OutputDir
	}
	if flags.Changed("format") {
		sim.OutputFormat = simOpts.OutputFormat
	}
	if flags.Changed("hourly") {
		sim.Hourly = simOpts.Hourly
	}
	sim.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("flags: %w", err)
	}
	return cfg, nil
}
