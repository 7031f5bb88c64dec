package scenario

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/kilianp07/demandcascade/core/cascade"
	"github.com/kilianp07/demandcascade/core/loadprofile"
	"github.com/kilianp07/demandcascade/core/model"
	"github.com/kilianp07/demandcascade/core/technology"
)

var daysInMonth = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// TechnologyStock computes technology attributes for one simulated year.
func (s *Scenario) TechnologyStock(year int) (*technology.Stock, error) {
	defs := make([]technology.Definition, 0, len(s.Technologies))
	for _, t := range s.Technologies {
		f, err := s.fueltypeIndex(t.Fueltype)
		if err != nil {
			return nil, fmt.Errorf("technology %s: %w", t.Name, err)
		}
		d := technology.Definition{
			Name:        t.Name,
			Fueltype:    f,
			EffBaseYear: t.EffBY,
			EffEndYear:  t.EffEY,
			Kind:        t.Kind,
			MaxShare:    t.MaxShare,
		}
		if h := t.Hybrid; h != nil {
			low, err := s.fueltypeIndex(h.LowFueltype)
			if err != nil {
				return nil, fmt.Errorf("technology %s: %w", t.Name, err)
			}
			high, err := s.fueltypeIndex(h.HighFueltype)
			if err != nil {
				return nil, fmt.Errorf("technology %s: %w", t.Name, err)
			}
			d.Hybrid = &technology.HybridDef{
				LowFueltype:     low,
				HighFueltype:    high,
				LowTech:         h.LowTech,
				ServiceShareLow: h.ServiceShareLow,
			}
		}
		defs = append(defs, d)
	}
	return technology.NewStock(defs, s.fueltypes.Len(), technology.Years{
		Base:      s.BaseYear,
		Current:   year,
		End:       s.EndYear,
		Method:    s.Diffusion.Method,
		Midpoint:  s.Diffusion.Midpoint,
		Steepness: s.Diffusion.Steepness,
	})
}

// ProfileStock builds and seals the load profile registry.
func (s *Scenario) ProfileStock() (*loadprofile.Stock, error) {
	stock := loadprofile.NewStock(s.Name)
	for _, def := range s.Profiles {
		p, err := def.build()
		if err != nil {
			return nil, err
		}
		if err := stock.Add(p, def.EndUses, def.Sectors, def.Technologies); err != nil {
			return nil, err
		}
	}
	stock.Seal()
	return stock, nil
}

func (d ProfileDef) build() (*loadprofile.LoadProfile, error) {
	if d.Kind == "flat" {
		return loadprofile.Flat(d.ID), nil
	}
	yd, err := d.dailyWeights()
	if err != nil {
		return nil, err
	}
	intraday := d.Intraday
	if len(intraday) == 0 {
		intraday = make([]float64, model.Hours)
		for h := range intraday {
			intraday[h] = 1
		}
	}
	if len(intraday) != model.Hours {
		return nil, fmt.Errorf("load profile %s: intraday has %d values, want %d", d.ID, len(intraday), model.Hours)
	}
	ydh := mat.NewDense(model.Days, model.Hours, nil)
	for day := 0; day < model.Days; day++ {
		ydh.SetRow(day, intraday)
	}
	return loadprofile.FromDaily(d.ID, yd, ydh)
}

func (d ProfileDef) dailyWeights() ([]float64, error) {
	switch {
	case len(d.Days) > 0:
		if len(d.Days) != model.Days {
			return nil, fmt.Errorf("load profile %s: days has %d values, want %d", d.ID, len(d.Days), model.Days)
		}
		return d.Days, nil
	case len(d.Monthly) > 0:
		if len(d.Monthly) != 12 {
			return nil, fmt.Errorf("load profile %s: monthly has %d values, want 12", d.ID, len(d.Monthly))
		}
		yd := make([]float64, 0, model.Days)
		for m, n := range daysInMonth {
			for i := 0; i < n; i++ {
				yd = append(yd, d.Monthly[m])
			}
		}
		return yd, nil
	default:
		yd := make([]float64, model.Days)
		for i := range yd {
			yd[i] = 1
		}
		return yd, nil
	}
}

// FuelSwitchRecords converts fuel switches to fueltype indexes.
func (s *Scenario) FuelSwitchRecords() ([]model.FuelSwitch, error) {
	out := make([]model.FuelSwitch, 0, len(s.FuelSwitches))
	for _, fs := range s.FuelSwitches {
		f, err := s.fueltypeIndex(fs.FueltypeReplace)
		if err != nil {
			return nil, fmt.Errorf("fuel switch %s: %w", fs.Technology, err)
		}
		out = append(out, model.FuelSwitch{
			EndUse:          fs.EndUse,
			Technology:      fs.Technology,
			FueltypeReplace: f,
			ShareSwitched:   fs.ShareSwitched,
			SwitchYear:      fs.SwitchYear,
		})
	}
	return out, nil
}

// Input assembles the cascade input of an end-use for year. The caller sets
// Plan and Log.
func (s *Scenario) Input(eu EndUseDef, year int, techs technology.Provider, profiles cascade.ProfileSource) (cascade.Input, error) {
	fuel := model.NewFuelVector(s.fueltypes.Len())
	for name, v := range eu.Fuel {
		f, err := s.fueltypeIndex(name)
		if err != nil {
			return cascade.Input{}, fmt.Errorf("enduse %s: %w", eu.Name, err)
		}
		fuel[f] = v
	}
	shares := make(model.FuelShares, len(eu.Shares))
	for name, techShares := range eu.Shares {
		f, err := s.fueltypeIndex(name)
		if err != nil {
			return cascade.Input{}, fmt.Errorf("enduse %s: %w", eu.Name, err)
		}
		m := make(map[string]float64, len(techShares))
		for t, v := range techShares {
			m[t] = v
		}
		shares[f] = m
	}
	climate, err := parseClimate(eu.Climate)
	if err != nil {
		return cascade.Input{}, fmt.Errorf("enduse %s: %w", eu.Name, err)
	}

	a := cascade.Assumptions{
		Climate:       climate,
		HeatingFactor: ratioOrOne(s.DegreeDays.Heating, year),
		CoolingFactor: ratioOrOne(s.DegreeDays.Cooling, year),
		SmartMeter:    eu.Assumptions.SmartMeter,
		GenericChange: eu.Assumptions.GenericChange,
		HeatRecovery:  eu.Assumptions.HeatRecovery,
		Midpoint:      s.Diffusion.Midpoint,
		Steepness:     s.Diffusion.Steepness,
	}
	if d := eu.Assumptions.Driver; d != "" {
		series := s.Drivers[d]
		a.DriverBY, _ = series.At(s.BaseYear)
		a.DriverCY, _ = series.At(year)
	}

	return cascade.Input{
		EndUse:       eu.Name,
		Sector:       eu.Sector,
		BaseYear:     s.BaseYear,
		CurrentYear:  year,
		EndYear:      s.EndYear,
		Fuel:         fuel,
		FuelShares:   shares,
		Technologies: techs,
		Profiles:     profiles,
		Assumptions:  a,
	}, nil
}

func ratioOrOne(s Series, year int) float64 {
	if v, ok := s.At(year); ok {
		return v
	}
	return 1
}
