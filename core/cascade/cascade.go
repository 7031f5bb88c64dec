package cascade

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/kilianp07/demandcascade/core/model"
	"github.com/kilianp07/demandcascade/core/switches"
)

// Result is the output of one run.
type Result struct {
	EndUse string
	Sector string
	Year   int

	YearlyFuel model.FuelVector
	// HourlyFuel holds one 365×24 grid per fueltype.
	HourlyFuel []*mat.Dense
	// PeakDayFuel is fueltypes × 24.
	PeakDayFuel  *mat.Dense
	PeakHourFuel model.FuelVector
	PeakDay      int

	Mode           switches.Mode
	ServiceClamped int
}

// Run executes the cascade for one end-use and year.
func Run(in Input) (Result, error) {
	start := time.Now()
	res, err := run(in)
	cascadeDuration.Observe(time.Since(start).Seconds())
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	cascadeRuns.WithLabelValues(in.EndUse, outcome).Inc()
	if res.ServiceClamped > 0 {
		serviceClamped.WithLabelValues(in.EndUse).Add(float64(res.ServiceClamped))
	}
	return res, err
}

func run(in Input) (Result, error) {
	if err := in.validate(); err != nil {
		return Result{}, err
	}
	log := in.log()
	fueltypes := len(in.Fuel)

	if in.Fuel.IsZero() {
		return zeroResult(in), nil
	}

	mode, err := in.Plan.Mode(in.CurrentYear)
	if err != nil {
		return Result{}, err
	}

	techs := runTechnologies(in.FuelShares, in.Plan)
	attrs, err := loadAttributes(in, techs)
	if err != nil {
		return Result{}, fmt.Errorf("enduse %s: %w", in.EndUse, err)
	}
	shares := reconcileHybrids(in, techs, log)

	fuel := climateCorrection(in.Fuel, in.Assumptions)
	fuel = smartMeterSavings(fuel, in)
	fuel = genericChange(fuel, in)
	fuel = driverScaling(fuel, in)

	svc, split := fuelToService(fuel, shares, attrs)
	svc = heatRecovery(svc, in)

	switched, clamped := applySwitch(mode, in, svc, split)
	if clamped > 0 {
		log.Warnf("enduse %s year %d: %d technologies clamped to zero service after %s",
			in.EndUse, in.CurrentYear, clamped, mode)
	}

	yearly, perTech, err := serviceToFuel(switched, attrs, fueltypes)
	if err != nil {
		return Result{}, fmt.Errorf("enduse %s: %w", in.EndUse, err)
	}
	hourly := hourlyFuel(perTech, attrs, fueltypes)
	day := peakDay(hourly)
	peakDH := peakDayFuel(perTech, attrs, day, fueltypes)

	log.Debugw("cascade run", map[string]any{
		"enduse":  in.EndUse,
		"sector":  in.Sector,
		"year":    in.CurrentYear,
		"mode":    mode.String(),
		"fuel":    yearly.Sum(),
		"peakDay": day,
	})

	return Result{
		EndUse:         in.EndUse,
		Sector:         in.Sector,
		Year:           in.CurrentYear,
		YearlyFuel:     yearly,
		HourlyFuel:     hourly,
		PeakDayFuel:    peakDH,
		PeakHourFuel:   peakHour(peakDH),
		PeakDay:        day,
		Mode:           mode,
		ServiceClamped: clamped,
	}, nil
}

func zeroResult(in Input) Result {
	n := len(in.Fuel)
	hourly := make([]*mat.Dense, n)
	for f := range hourly {
		hourly[f] = model.NewGrid()
	}
	return Result{
		EndUse:       in.EndUse,
		Sector:       in.Sector,
		Year:         in.CurrentYear,
		YearlyFuel:   model.NewFuelVector(n),
		HourlyFuel:   hourly,
		PeakDayFuel:  mat.NewDense(n, model.Hours, nil),
		PeakHourFuel: model.NewFuelVector(n),
	}
}

// BaseServiceShares returns the base-year service shares of an end-use,
// computed from its uncorrected fuel and hybrid-reconciled fuel shares. Plans
// are fitted against these shares.
func BaseServiceShares(in Input) (switches.BaseShares, error) {
	if err := in.validate(); err != nil {
		return switches.BaseShares{}, err
	}
	out := switches.BaseShares{ByTech: map[string]float64{}, ByFueltype: map[int]float64{}}
	if in.Fuel.IsZero() {
		return out, nil
	}
	techs := in.FuelShares.Technologies()
	attrs, err := loadAttributes(in, techs)
	if err != nil {
		return switches.BaseShares{}, fmt.Errorf("enduse %s: %w", in.EndUse, err)
	}
	shares := reconcileHybrids(in, techs, in.log())
	svc, split := fuelToService(in.Fuel, shares, attrs)
	total := svc.Sum()
	if total == 0 {
		return out, nil
	}
	for t, g := range svc {
		out.ByTech[t] = mat.Sum(g) / total
	}
	for f, s := range split.ShareOfTotal {
		out.ByFueltype[f] = s
	}
	return out, nil
}
