package config

import (
	"fmt"
	"runtime"
)

// SimulationConfig selects the scenario and the simulated years.
type SimulationConfig struct {
	// Scenario is the path of the scenario file.
	Scenario string `json:"scenario"`
	// Years lists the simulated years. Empty runs base and end year of the
	// scenario.
	Years []int `json:"years"`
	// Workers bounds the number of cascades run in parallel.
	Workers int `json:"workers"`
	// OutputDir receives exported results; empty disables export.
	OutputDir string `json:"output_dir"`
	// OutputFormat is csv or json.
	OutputFormat string `json:"output_format"`
	// Hourly also exports the 8760 hourly values of every result.
	Hourly bool `json:"hourly"`
}

// SetDefaults applies fallback values for optional fields.
func (c *SimulationConfig) SetDefaults() {
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.OutputFormat == "" {
		c.OutputFormat = "csv"
	}
}

// Validate checks mandatory fields.
func (c SimulationConfig) Validate() error {
	if c.Scenario == "" {
		return fmt.Errorf("scenario is required")
	}
	if c.OutputFormat != "csv" && c.OutputFormat != "json" {
		return fmt.Errorf("unknown output format %s", c.OutputFormat)
	}
	for i := 1; i < len(c.Years); i++ {
		if c.Years[i] <= c.Years[i-1] {
			return fmt.Errorf("years must be strictly increasing")
		}
	}
	return nil
}
