// Package scenario loads a demand scenario from YAML and builds the
// collaborators a cascade run consumes: fueltypes, technology stock, load
// profiles, switch records and per-year correction factors.
package scenario

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/demandcascade/core/cascade"
	"github.com/kilianp07/demandcascade/core/diffusion"
	"github.com/kilianp07/demandcascade/core/model"
	"github.com/kilianp07/demandcascade/core/switches"
)

type DiffusionDef struct {
	Method    diffusion.Method `yaml:"method"`
	Midpoint  float64          `yaml:"midpoint"`
	Steepness float64          `yaml:"steepness"`
}

type HybridDef struct {
	LowFueltype     string  `yaml:"low_fueltype"`
	HighFueltype    string  `yaml:"high_fueltype"`
	LowTech         string  `yaml:"low_tech"`
	ServiceShareLow float64 `yaml:"service_share_low"`
}

type TechnologyDef struct {
	Name     string     `yaml:"name"`
	Fueltype string     `yaml:"fueltype"`
	EffBY    float64    `yaml:"eff_by"`
	EffEY    float64    `yaml:"eff_ey"`
	Kind     string     `yaml:"kind"`
	MaxShare float64    `yaml:"max_share"`
	Hybrid   *HybridDef `yaml:"hybrid,omitempty"`
}

// ProfileDef describes a load profile. Kind "flat" spreads demand evenly;
// kind "daily" combines monthly (or explicit per-day) weights with an
// intra-day shape.
type ProfileDef struct {
	ID           string    `yaml:"id"`
	Kind         string    `yaml:"kind"`
	Monthly      []float64 `yaml:"monthly,omitempty"`
	Days         []float64 `yaml:"days,omitempty"`
	Intraday     []float64 `yaml:"intraday,omitempty"`
	EndUses      []string  `yaml:"enduses"`
	Sectors      []string  `yaml:"sectors"`
	Technologies []string  `yaml:"technologies"`
}

type AssumptionsDef struct {
	SmartMeter    *cascade.SmartMeter    `yaml:"smart_meter,omitempty"`
	GenericChange *cascade.GenericChange `yaml:"generic_change,omitempty"`
	HeatRecovery  *cascade.HeatRecovery  `yaml:"heat_recovery,omitempty"`
	// Driver names an entry of Scenario.Drivers scaling this end-use.
	Driver string `yaml:"driver,omitempty"`
}

type EndUseDef struct {
	Name        string                        `yaml:"name"`
	Sector      string                        `yaml:"sector"`
	Climate     string                        `yaml:"climate,omitempty"`
	Fuel        map[string]float64            `yaml:"fuel"`
	Shares      map[string]map[string]float64 `yaml:"shares"`
	Assumptions AssumptionsDef                `yaml:"assumptions"`
}

type FuelSwitchDef struct {
	EndUse          string  `yaml:"enduse"`
	Technology      string  `yaml:"technology_install"`
	FueltypeReplace string  `yaml:"fueltype_replace"`
	ShareSwitched   float64 `yaml:"share_fuel_consumption_switched"`
	SwitchYear      int     `yaml:"switch_yr"`
}

// DegreeDays holds current-year over base-year degree-day ratios by year.
type DegreeDays struct {
	Heating Series `yaml:"heating"`
	Cooling Series `yaml:"cooling"`
}

type Scenario struct {
	Name            string                `yaml:"name"`
	Description     string                `yaml:"description,omitempty"`
	BaseYear        int                   `yaml:"base_year"`
	EndYear         int                   `yaml:"end_year"`
	Diffusion       DiffusionDef          `yaml:"diffusion"`
	Fueltypes       []string              `yaml:"fueltypes,omitempty"`
	Technologies    []TechnologyDef       `yaml:"technologies"`
	Profiles        []ProfileDef          `yaml:"load_profiles"`
	EndUses         []EndUseDef           `yaml:"enduses"`
	FuelSwitches    []FuelSwitchDef       `yaml:"fuel_switches,omitempty"`
	ServiceSwitches []model.ServiceSwitch `yaml:"service_switches,omitempty"`
	Drivers         map[string]Series     `yaml:"drivers,omitempty"`
	DegreeDays      DegreeDays            `yaml:"degree_days"`

	fueltypes model.Fueltypes
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes and validates a scenario document.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if err := sc.init(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}
	return &sc, nil
}

func (s *Scenario) init() error {
	if len(s.Fueltypes) == 0 {
		s.Fueltypes = model.DefaultFueltypes
	}
	ft, err := model.NewFueltypes(s.Fueltypes)
	if err != nil {
		return err
	}
	s.fueltypes = ft
	if s.Diffusion.Method == "" {
		s.Diffusion.Method = diffusion.Sigmoid
	}
	if s.Diffusion.Steepness == 0 {
		s.Diffusion.Steepness = 1
	}
	return s.Validate()
}

// FueltypeRegistry returns the fueltypes of the scenario.
func (s *Scenario) FueltypeRegistry() model.Fueltypes { return s.fueltypes }

// Validate checks references between the sections of the scenario.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.EndYear <= s.BaseYear {
		return fmt.Errorf("end year %d not after base year %d", s.EndYear, s.BaseYear)
	}
	switch s.Diffusion.Method {
	case diffusion.Linear, diffusion.Sigmoid:
	default:
		return fmt.Errorf("unknown diffusion method %q", s.Diffusion.Method)
	}

	techs := make(map[string]bool, len(s.Technologies))
	for _, t := range s.Technologies {
		if techs[t.Name] {
			return fmt.Errorf("duplicate technology %s", t.Name)
		}
		techs[t.Name] = true
		if _, err := s.fueltypeIndex(t.Fueltype); err != nil {
			return fmt.Errorf("technology %s: %w", t.Name, err)
		}
		if t.Hybrid != nil {
			if _, err := s.fueltypeIndex(t.Hybrid.LowFueltype); err != nil {
				return fmt.Errorf("technology %s: %w", t.Name, err)
			}
			if _, err := s.fueltypeIndex(t.Hybrid.HighFueltype); err != nil {
				return fmt.Errorf("technology %s: %w", t.Name, err)
			}
		}
	}

	enduses := make(map[string]bool, len(s.EndUses))
	seen := make(map[[2]string]bool, len(s.EndUses))
	for _, eu := range s.EndUses {
		key := [2]string{eu.Name, eu.Sector}
		if eu.Name == "" {
			return fmt.Errorf("enduse without name")
		}
		if seen[key] {
			return fmt.Errorf("duplicate enduse %s/%s", eu.Name, eu.Sector)
		}
		seen[key] = true
		enduses[eu.Name] = true
		if _, err := parseClimate(eu.Climate); err != nil {
			return fmt.Errorf("enduse %s: %w", eu.Name, err)
		}
		for f, v := range eu.Fuel {
			if _, err := s.fueltypeIndex(f); err != nil {
				return fmt.Errorf("enduse %s: %w", eu.Name, err)
			}
			if v < 0 {
				return fmt.Errorf("enduse %s: negative fuel for %s", eu.Name, f)
			}
		}
		for f, shares := range eu.Shares {
			if _, err := s.fueltypeIndex(f); err != nil {
				return fmt.Errorf("enduse %s: %w", eu.Name, err)
			}
			for t := range shares {
				if !techs[t] {
					return fmt.Errorf("enduse %s: unknown technology %s", eu.Name, t)
				}
			}
		}
		if d := eu.Assumptions.Driver; d != "" {
			if _, ok := s.Drivers[d]; !ok {
				return fmt.Errorf("enduse %s: unknown driver %s", eu.Name, d)
			}
		}
	}

	for _, fs := range s.FuelSwitches {
		if !enduses[fs.EndUse] {
			return fmt.Errorf("fuel switch: unknown enduse %s", fs.EndUse)
		}
		if !techs[fs.Technology] {
			return fmt.Errorf("fuel switch: unknown technology %s", fs.Technology)
		}
		if _, err := s.fueltypeIndex(fs.FueltypeReplace); err != nil {
			return fmt.Errorf("fuel switch: %w", err)
		}
		if fs.ShareSwitched < 0 || fs.ShareSwitched > 1 {
			return fmt.Errorf("fuel switch %s: share %v outside [0,1]", fs.Technology, fs.ShareSwitched)
		}
	}
	for _, ss := range s.ServiceSwitches {
		if !enduses[ss.EndUse] {
			return fmt.Errorf("service switch: unknown enduse %s", ss.EndUse)
		}
		if !techs[ss.Technology] {
			return fmt.Errorf("service switch: unknown technology %s", ss.Technology)
		}
		if ss.ShareEndYear < 0 || ss.ShareEndYear > 1 {
			return fmt.Errorf("service switch %s: share %v outside [0,1]", ss.Technology, ss.ShareEndYear)
		}
	}
	for _, eu := range s.EndUseNames() {
		if err := switches.CheckServiceShares(eu, model.ServiceSwitchesFor(eu, s.ServiceSwitches)); err != nil {
			return fmt.Errorf("service switch: %w", err)
		}
	}

	for _, p := range s.Profiles {
		if p.ID == "" {
			return fmt.Errorf("load profile without id")
		}
		switch p.Kind {
		case "flat", "daily":
		default:
			return fmt.Errorf("load profile %s: unknown kind %q", p.ID, p.Kind)
		}
	}
	return nil
}

func (s *Scenario) fueltypeIndex(name string) (int, error) {
	i, ok := s.fueltypes.Index(name)
	if !ok {
		return 0, fmt.Errorf("unknown fueltype %q", name)
	}
	return i, nil
}

// EndUseNames returns the distinct end-use names, sorted.
func (s *Scenario) EndUseNames() []string {
	seen := make(map[string]bool)
	var out []string
	for _, eu := range s.EndUses {
		if !seen[eu.Name] {
			seen[eu.Name] = true
			out = append(out, eu.Name)
		}
	}
	sort.Strings(out)
	return out
}

func parseClimate(s string) (cascade.Climate, error) {
	switch s {
	case "", "none":
		return cascade.NoClimate, nil
	case "heating":
		return cascade.Heating, nil
	case "cooling":
		return cascade.Cooling, nil
	default:
		return cascade.NoClimate, fmt.Errorf("unknown climate %q", s)
	}
}
