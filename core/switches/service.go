package switches

import (
	"gonum.org/v1/gonum/mat"

	"github.com/kilianp07/demandcascade/core/model"
)

// CurrentServiceShares returns each technology's current-year service share
// under the plan's service switch and the number of decreasing technologies
// whose share had to be clamped at zero.
//
// Increasing technologies follow their fitted curve. Their gain is taken from
// every decreasing technology in proportion to its fixed share of the
// decreasing group's base-year total.
func (p Plan) CurrentServiceShares(curYr int) (map[string]float64, int) {
	switchYr := serviceSwitchYear(p.ServiceSwitches)
	shares := make(map[string]float64, len(p.ShareBY))
	for _, t := range p.Groups.Constant {
		shares[t] = p.ShareBY[t]
	}
	for _, t := range p.Groups.Decreasing {
		shares[t] = p.ShareBY[t]
	}

	var decTotal float64
	for _, t := range p.Groups.Decreasing {
		decTotal += p.ShareBY[t]
	}

	for _, t := range p.Groups.Increasing {
		cy := curveShare(p.ServiceParams[t], curYr, switchYr)
		shares[t] = cy
		gain := cy - p.ShareBY[t]
		if decTotal == 0 {
			continue
		}
		for _, d := range p.Groups.Decreasing {
			shares[d] -= gain * p.ShareBY[d] / decTotal
		}
	}

	clamped := 0
	for _, d := range p.Groups.Decreasing {
		if shares[d] < 0 {
			if shares[d] < -Tolerance {
				clamped++
			}
			shares[d] = 0
		}
	}
	return shares, clamped
}

// ApplyServiceSwitch redistributes the aggregate current-year service between
// technologies according to CurrentServiceShares. Technologies unknown to the
// plan are dropped; their service is part of the redistributed total. The
// input map is not modified.
func (p Plan) ApplyServiceSwitch(curYr int, service model.ServiceMap) (model.ServiceMap, int) {
	total := service.Total()
	shares, clamped := p.CurrentServiceShares(curYr)
	out := make(model.ServiceMap, len(shares))
	for t, s := range shares {
		g := mat.NewDense(model.Days, model.Hours, nil)
		g.Scale(s, total)
		out[t] = g
	}
	return out, clamped
}
