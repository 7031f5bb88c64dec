// Package cascade converts the annual fuel of one end-use into corrected
// yearly fuel, hourly fuel and peak demand for a simulated year.
//
// A run goes fuel -> technology service -> switched service -> fuel, then
// spreads each technology's fuel over the year with its load profile. Runs
// share only read-only collaborators and may execute concurrently.
package cascade

import (
	"fmt"

	"github.com/kilianp07/demandcascade/core/diffusion"
	"github.com/kilianp07/demandcascade/core/loadprofile"
	"github.com/kilianp07/demandcascade/core/logger"
	"github.com/kilianp07/demandcascade/core/model"
	"github.com/kilianp07/demandcascade/core/switches"
	"github.com/kilianp07/demandcascade/core/technology"
)

// ProfileSource returns the load profile of a technology.
type ProfileSource interface {
	Get(enduse, sector, tech string) (*loadprofile.LoadProfile, error)
}

// Climate selects the degree-day correction applied to an end-use.
type Climate int

const (
	NoClimate Climate = iota
	Heating
	Cooling
)

// SmartMeter configures savings from smart meter roll-out.
type SmartMeter struct {
	PenetrationBY float64 `yaml:"penetration_by" json:"penetration_by"`
	PenetrationEY float64 `yaml:"penetration_ey" json:"penetration_ey"`
	// Savings is the fraction of fuel saved per unit of penetration increase.
	Savings float64 `yaml:"savings" json:"savings"`
}

// GenericChange scales an end-use by EndFactor in the end year (1 = no change).
type GenericChange struct {
	EndFactor float64          `yaml:"end_factor" json:"end_factor"`
	Method    diffusion.Method `yaml:"method" json:"method"`
}

// HeatRecovery reduces service by the recovered fraction reached in the end
// year.
type HeatRecovery struct {
	Fraction float64 `yaml:"fraction" json:"fraction"`
}

// Assumptions holds the scenario corrections applied before conversion to
// service. Zero values disable a correction.
type Assumptions struct {
	Climate Climate
	// HeatingFactor and CoolingFactor are current-year over base-year
	// degree-day ratios.
	HeatingFactor float64
	CoolingFactor float64

	SmartMeter    *SmartMeter
	GenericChange *GenericChange
	HeatRecovery  *HeatRecovery

	// DriverBY and DriverCY scale fuel by DriverCY/DriverBY.
	DriverBY float64
	DriverCY float64

	// Sigmoid parameters shared by the diffusion of assumptions.
	Midpoint  float64
	Steepness float64
}

// Input collects every collaborator of one run.
type Input struct {
	EndUse      string
	Sector      string
	BaseYear    int
	CurrentYear int
	EndYear     int

	Fuel       model.FuelVector
	FuelShares model.FuelShares

	Technologies technology.Provider
	Profiles     ProfileSource
	Plan         switches.Plan
	Assumptions  Assumptions

	Log logger.Logger
}

func (in Input) validate() error {
	if in.EndUse == "" {
		return fmt.Errorf("enduse is required")
	}
	if len(in.Fuel) == 0 {
		return fmt.Errorf("enduse %s: empty fuel vector", in.EndUse)
	}
	for f, v := range in.Fuel {
		if v < 0 {
			return fmt.Errorf("enduse %s: negative fuel %v for fueltype %d", in.EndUse, v, f)
		}
	}
	if in.Technologies == nil {
		return fmt.Errorf("enduse %s: technology provider is required", in.EndUse)
	}
	if in.Profiles == nil {
		return fmt.Errorf("enduse %s: load profiles are required", in.EndUse)
	}
	if in.EndYear < in.BaseYear {
		return fmt.Errorf("enduse %s: end year %d before base year %d", in.EndUse, in.EndYear, in.BaseYear)
	}
	for f := range in.FuelShares {
		if f < 0 || f >= len(in.Fuel) {
			return fmt.Errorf("enduse %s: fuel share for unknown fueltype %d", in.EndUse, f)
		}
	}
	return nil
}

func (in Input) log() logger.Logger {
	if in.Log == nil {
		return logger.NopLogger{}
	}
	return in.Log
}
