package switches

import (
	"gonum.org/v1/gonum/mat"

	"github.com/kilianp07/demandcascade/core/model"
)

// FueltypeService describes how current-year service splits over fueltypes
// before any switch is applied.
type FueltypeService struct {
	// ShareOfTotal is each fueltype's share of total service.
	ShareOfTotal map[int]float64
	// TechShare is each technology's share of its fueltype's service.
	TechShare map[int]map[string]float64
}

// ApplyFuelSwitch installs the switched technologies at their current-year
// share of total service and removes that service from the displaced
// fueltypes, split by each fueltype's part of the switched fuel. It returns
// a new map and the number of technologies whose service could not cover the
// removal and was floored at zero.
func (p Plan) ApplyFuelSwitch(curYr int, service model.ServiceMap, split FueltypeService) (model.ServiceMap, int) {
	out := service.Clone()
	total := service.Total()
	totalSum := mat.Sum(total)
	clamped := 0

	for _, tech := range p.Installed {
		params, ok := p.FuelParams[tech]
		if !ok {
			continue
		}
		share := curveShare(params, curYr, fuelSwitchYear(tech, p.FuelSwitches))
		installed := mat.NewDense(model.Days, model.Hours, nil)
		installed.Scale(share, total)
		out[tech] = installed
		newService := share * totalSum

		var displaced float64
		for _, s := range p.FuelSwitches {
			if s.Technology == tech {
				displaced += split.ShareOfTotal[s.FueltypeReplace] * s.ShareSwitched
			}
		}
		if displaced == 0 {
			continue
		}

		for _, s := range p.FuelSwitches {
			if s.Technology != tech {
				continue
			}
			frac := split.ShareOfTotal[s.FueltypeReplace] * s.ShareSwitched / displaced
			clamped += removeService(out, tech, split.TechShare[s.FueltypeReplace], frac*newService)
		}
	}
	return out, clamped
}

// removeService subtracts amount from the technologies of one fueltype in
// proportion to their pre-switch share of that fueltype, skipping the
// installed technology. Each technology's grid is scaled down so its hourly
// shape is kept; grids that cannot cover their part are zeroed.
func removeService(service model.ServiceMap, installed string, techShare map[string]float64, amount float64) int {
	var weight float64
	for t, w := range techShare {
		if t != installed {
			weight += w
		}
	}
	if weight == 0 {
		return 0
	}
	clamped := 0
	for _, t := range sortedKeys(techShare) {
		if t == installed {
			continue
		}
		g, ok := service[t]
		if !ok {
			continue
		}
		part := amount * techShare[t] / weight
		cur := mat.Sum(g)
		if cur <= 0 || part <= 0 {
			continue
		}
		if part >= cur {
			if part-cur > Tolerance*amount {
				clamped++
			}
			g.Zero()
			continue
		}
		g.Scale(1-part/cur, g)
	}
	return clamped
}
