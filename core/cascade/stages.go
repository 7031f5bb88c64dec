package cascade

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/kilianp07/demandcascade/core/diffusion"
	"github.com/kilianp07/demandcascade/core/loadprofile"
	"github.com/kilianp07/demandcascade/core/logger"
	"github.com/kilianp07/demandcascade/core/model"
	"github.com/kilianp07/demandcascade/core/switches"
	"github.com/kilianp07/demandcascade/core/technology"
)

// techAttrs caches the collaborator data of one technology for a run.
type techAttrs struct {
	eff     *mat.Dense
	dist    []*mat.Dense
	weights []float64
	profile *loadprofile.LoadProfile
	shapeYH *mat.Dense
	kind    technology.Kind
}

type attrSet map[string]techAttrs

// loadAttributes fetches efficiency, fueltype distribution and load profile
// of every technology a run may touch.
func loadAttributes(in Input, techs []string) (attrSet, error) {
	set := make(attrSet, len(techs))
	for _, t := range techs {
		eff, err := in.Technologies.Efficiency(in.EndUse, t)
		if err != nil {
			return nil, fmt.Errorf("efficiency: %w", err)
		}
		if err := model.CheckGrid(eff); err != nil {
			return nil, fmt.Errorf("efficiency %s/%s: %w", in.EndUse, t, err)
		}
		if mat.Min(eff) <= 0 {
			return nil, fmt.Errorf("efficiency %s/%s: must be positive", in.EndUse, t)
		}
		dist, err := in.Technologies.FueltypeDistribution(in.EndUse, t)
		if err != nil {
			return nil, fmt.Errorf("fueltype distribution: %w", err)
		}
		if len(dist) != len(in.Fuel) {
			return nil, fmt.Errorf("fueltype distribution %s/%s: %d fueltypes, want %d", in.EndUse, t, len(dist), len(in.Fuel))
		}
		p, err := in.Profiles.Get(in.EndUse, in.Sector, t)
		if err != nil {
			return nil, err
		}
		set[t] = techAttrs{
			eff:     eff,
			dist:    dist,
			weights: collapseDistribution(dist),
			profile: p,
			shapeYH: p.ShapeYH(),
			kind:    in.Technologies.Kind(in.EndUse, t),
		}
	}
	return set, nil
}

// collapseDistribution reduces an hourly fueltype distribution to one
// annual weight per fueltype.
func collapseDistribution(dist []*mat.Dense) []float64 {
	w := make([]float64, len(dist))
	for f, g := range dist {
		w[f] = mat.Sum(g)
	}
	total := floats.Sum(w)
	if total > 0 {
		floats.Scale(1/total, w)
	}
	return w
}

// runTechnologies returns every technology a run may need attributes for.
func runTechnologies(shares model.FuelShares, plan switches.Plan) []string {
	seen := make(map[string]struct{})
	for _, t := range shares.Technologies() {
		seen[t] = struct{}{}
	}
	for t := range plan.ShareBY {
		seen[t] = struct{}{}
	}
	for _, t := range plan.Installed {
		seen[t] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// reconcileHybrids splits the fuel share declared for each hybrid technology
// between its low- and high-temperature fueltypes by its service split. The
// low-temperature technology gives up the share moved into its fueltype, and
// every fueltype is renormalized.
func reconcileHybrids(in Input, techs []string, log logger.Logger) model.FuelShares {
	shares := in.FuelShares.Clone()
	for _, tech := range techs {
		split, ok := in.Technologies.Hybrid(in.EndUse, tech)
		if !ok {
			continue
		}
		declaredF, declared := -1, 0.0
		for _, f := range shares.Fueltypes() {
			if v, ok := shares[f][tech]; ok {
				if declaredF < 0 {
					declaredF, declared = f, v
				}
				delete(shares[f], tech)
			}
		}
		if declaredF < 0 {
			continue
		}
		low := declared * split.ServiceShareLow
		high := declared - low
		for _, f := range []int{split.LowFueltype, split.HighFueltype} {
			if shares[f] == nil {
				shares[f] = make(map[string]float64)
			}
		}
		shares[split.LowFueltype][tech] += low
		shares[split.HighFueltype][tech] += high

		moved := low
		if declaredF == split.LowFueltype {
			moved = 0
		}
		if moved > 0 && split.LowTech != "" {
			if cur, ok := shares[split.LowFueltype][split.LowTech]; ok {
				rest := cur - moved
				if rest < 0 {
					log.Warnf("enduse %s: hybrid %s moves %.4f into fueltype %d but %s only holds %.4f, clamping to zero",
						in.EndUse, tech, moved, split.LowFueltype, split.LowTech, cur)
					rest = 0
				}
				shares[split.LowFueltype][split.LowTech] = rest
			}
		}
	}
	shares.Normalize()
	return shares
}

// climateCorrection scales fuel by the degree-day ratio of heating or
// cooling end-uses.
func climateCorrection(fuel model.FuelVector, a Assumptions) model.FuelVector {
	switch a.Climate {
	case Heating:
		return fuel.Scale(a.HeatingFactor)
	case Cooling:
		return fuel.Scale(a.CoolingFactor)
	default:
		return fuel.Clone()
	}
}

// smartMeterSavings removes the fuel saved by the current-year increase of
// smart meter penetration.
func smartMeterSavings(fuel model.FuelVector, in Input) model.FuelVector {
	sm := in.Assumptions.SmartMeter
	if sm == nil {
		return fuel.Clone()
	}
	diff := diffusion.SigmoidDiffusion(in.BaseYear, in.CurrentYear, in.EndYear, in.Assumptions.Midpoint, in.Assumptions.Steepness)
	penetrationCY := sm.PenetrationBY + diff*(sm.PenetrationEY-sm.PenetrationBY)
	return fuel.Scale(1 - (penetrationCY-sm.PenetrationBY)*sm.Savings)
}

// genericChange scales fuel towards the end-year change factor.
func genericChange(fuel model.FuelVector, in Input) model.FuelVector {
	gc := in.Assumptions.GenericChange
	if gc == nil || gc.EndFactor == 1 {
		return fuel.Clone()
	}
	frac := diffusion.Fraction(gc.Method, in.BaseYear, in.CurrentYear, in.EndYear, in.Assumptions.Midpoint, in.Assumptions.Steepness)
	return fuel.Scale(1 + frac*(gc.EndFactor-1))
}

// driverScaling applies the ratio of the scenario driver between current and
// base year.
func driverScaling(fuel model.FuelVector, in Input) model.FuelVector {
	a := in.Assumptions
	if in.CurrentYear == in.BaseYear || a.DriverBY == 0 || a.DriverCY == 0 {
		return fuel.Clone()
	}
	return fuel.Scale(a.DriverCY / a.DriverBY)
}

// fuelToService converts fuel into hourly service per technology and records
// how service splits over fueltypes.
func fuelToService(fuel model.FuelVector, shares model.FuelShares, attrs attrSet) (model.ServiceMap, switches.FueltypeService) {
	svc := make(model.ServiceMap)
	perFueltype := make(map[int]map[string]float64)
	tmp := model.NewGrid()
	for _, f := range shares.Fueltypes() {
		if fuel[f] == 0 {
			continue
		}
		for _, t := range sortedTechs(shares[f]) {
			share := shares[f][t]
			if share == 0 {
				continue
			}
			a := attrs[t]
			tmp.MulElem(a.shapeYH, a.eff)
			tmp.Scale(fuel[f]*share, tmp)
			g, ok := svc[t]
			if !ok {
				g = model.NewGrid()
				svc[t] = g
			}
			g.Add(g, tmp)
			if perFueltype[f] == nil {
				perFueltype[f] = make(map[string]float64)
			}
			perFueltype[f][t] += mat.Sum(tmp)
		}
	}

	split := switches.FueltypeService{
		ShareOfTotal: make(map[int]float64, len(perFueltype)),
		TechShare:    make(map[int]map[string]float64, len(perFueltype)),
	}
	var total float64
	fueltypeTotal := make(map[int]float64, len(perFueltype))
	fueltypes := make([]int, 0, len(perFueltype))
	for f := range perFueltype {
		fueltypes = append(fueltypes, f)
	}
	sort.Ints(fueltypes)
	for _, f := range fueltypes {
		techs := perFueltype[f]
		for _, t := range sortedTechs(techs) {
			fueltypeTotal[f] += techs[t]
		}
		total += fueltypeTotal[f]
	}
	for f, techs := range perFueltype {
		if total > 0 {
			split.ShareOfTotal[f] = fueltypeTotal[f] / total
		}
		ts := make(map[string]float64, len(techs))
		for t, v := range techs {
			if fueltypeTotal[f] > 0 {
				ts[t] = v / fueltypeTotal[f]
			}
		}
		split.TechShare[f] = ts
	}
	return svc, split
}

// heatRecovery reduces all service by the recovered fraction reached in the
// current year.
func heatRecovery(svc model.ServiceMap, in Input) model.ServiceMap {
	hr := in.Assumptions.HeatRecovery
	if hr == nil || hr.Fraction == 0 {
		return svc
	}
	recovered := diffusion.SigmoidDiffusion(in.BaseYear, in.CurrentYear, in.EndYear, in.Assumptions.Midpoint, in.Assumptions.Steepness) * hr.Fraction
	out := make(model.ServiceMap, len(svc))
	for t, g := range svc {
		s := model.NewGrid()
		s.Scale(1-recovered, g)
		out[t] = s
	}
	return out
}

// applySwitch runs the switch active in the current year.
func applySwitch(mode switches.Mode, in Input, svc model.ServiceMap, split switches.FueltypeService) (model.ServiceMap, int) {
	switch mode {
	case switches.Service:
		return in.Plan.ApplyServiceSwitch(in.CurrentYear, svc)
	case switches.Fuel:
		return in.Plan.ApplyFuelSwitch(in.CurrentYear, svc, split)
	default:
		return svc, 0
	}
}

// serviceToFuel divides service by efficiency per technology and spreads the
// result over fueltypes with the collapsed distribution. It returns the new
// yearly fuel and each technology's fuel.
func serviceToFuel(svc model.ServiceMap, attrs attrSet, fueltypes int) (model.FuelVector, map[string]float64, error) {
	yearly := model.NewFuelVector(fueltypes)
	perTech := make(map[string]float64, len(svc))
	tmp := model.NewGrid()
	for _, t := range svc.Techs() {
		a, ok := attrs[t]
		if !ok {
			return nil, nil, fmt.Errorf("no attributes for technology %s", t)
		}
		tmp.DivElem(svc[t], a.eff)
		fuelTech := mat.Sum(tmp)
		perTech[t] = fuelTech
		for f, w := range a.weights {
			yearly[f] += fuelTech * w
		}
	}
	return yearly, perTech, nil
}

// hourlyFuel spreads each technology's fuel over the year with its hourly
// shape and hourly fueltype distribution.
func hourlyFuel(perTech map[string]float64, attrs attrSet, fueltypes int) []*mat.Dense {
	out := make([]*mat.Dense, fueltypes)
	for f := range out {
		out[f] = model.NewGrid()
	}
	tmp := model.NewGrid()
	for _, t := range sortedTechs(perTech) {
		fuelTech := perTech[t]
		if fuelTech == 0 {
			continue
		}
		a := attrs[t]
		for f := 0; f < fueltypes; f++ {
			tmp.MulElem(a.shapeYH, a.dist[f])
			tmp.Scale(fuelTech, tmp)
			out[f].Add(out[f], tmp)
		}
	}
	return out
}

// peakDay returns the day with the highest demand summed over fueltypes and
// hours. Ties resolve to the earliest day.
func peakDay(hourly []*mat.Dense) int {
	days := make([]float64, model.Days)
	for _, g := range hourly {
		for d := 0; d < model.Days; d++ {
			days[d] += floats.Sum(g.RawRowView(d))
		}
	}
	return floats.MaxIdx(days)
}

// peakDayFuel builds the hourly fuel of the peak day. Hybrid, cooling and
// ventilation technologies use their own shape of that day; the others use
// their peak-day shape scaled by their peak-day factor.
func peakDayFuel(perTech map[string]float64, attrs attrSet, day, fueltypes int) *mat.Dense {
	out := mat.NewDense(fueltypes, model.Hours, nil)
	dayFuel := make([]float64, model.Hours)
	for _, t := range sortedTechs(perTech) {
		fuelTech := perTech[t]
		if fuelTech == 0 {
			continue
		}
		a := attrs[t]
		switch a.kind {
		case technology.Hybrid, technology.Cooling, technology.Ventilation:
			onDay := fuelTech * a.profile.ShapeYD()[day]
			ydh := a.profile.ShapeYDH()
			floats.ScaleTo(dayFuel, onDay, ydh.RawRowView(day))
		default:
			floats.ScaleTo(dayFuel, fuelTech*a.profile.PeakYDFactor(), a.profile.ShapePeakDH())
		}
		for f := 0; f < fueltypes; f++ {
			for h := 0; h < model.Hours; h++ {
				out.Set(f, h, out.At(f, h)+dayFuel[h]*a.dist[f].At(day, h))
			}
		}
	}
	return out
}

// peakHour returns the maximum hourly value of the peak day per fueltype.
func peakHour(peakDH *mat.Dense) model.FuelVector {
	r, _ := peakDH.Dims()
	out := model.NewFuelVector(r)
	for f := 0; f < r; f++ {
		out[f] = floats.Max(peakDH.RawRowView(f))
	}
	return out
}

func sortedTechs(m map[string]float64) []string {
	out := make([]string, 0, len(m))
	for t := range m {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
