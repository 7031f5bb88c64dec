package technology

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/kilianp07/demandcascade/core/diffusion"
	"github.com/kilianp07/demandcascade/core/model"
)

// Definition holds the assumptions of one technology.
type Definition struct {
	Name        string  `yaml:"name"`
	Fueltype    int     `yaml:"fueltype"`
	EffBaseYear float64 `yaml:"eff_by"`
	EffEndYear  float64 `yaml:"eff_ey"`
	Kind        string  `yaml:"kind"`
	// MaxShare is the ceiling of the technology's diffusion curve.
	MaxShare float64    `yaml:"max_share"`
	Hybrid   *HybridDef `yaml:"hybrid,omitempty"`
}

// HybridDef configures a hybrid technology.
type HybridDef struct {
	LowFueltype     int     `yaml:"low_fueltype"`
	HighFueltype    int     `yaml:"high_fueltype"`
	LowTech         string  `yaml:"low_tech"`
	ServiceShareLow float64 `yaml:"service_share_low"`
}

// Years frames the efficiency diffusion of a stock.
type Years struct {
	Base      int
	Current   int
	End       int
	Method    diffusion.Method
	Midpoint  float64
	Steepness float64
}

type entry struct {
	def  Definition
	kind Kind
	eff  *mat.Dense
	dist []*mat.Dense
}

// Stock is an in-memory Provider for one simulated year. Attributes do not
// depend on the end-use.
type Stock struct {
	fueltypes int
	techs     map[string]entry
}

// NewStock computes current-year attributes for every definition.
func NewStock(defs []Definition, fueltypes int, yrs Years) (*Stock, error) {
	frac := diffusion.Fraction(yrs.Method, yrs.Base, yrs.Current, yrs.End, yrs.Midpoint, yrs.Steepness)
	s := &Stock{fueltypes: fueltypes, techs: make(map[string]entry, len(defs))}
	for _, d := range defs {
		if d.Name == "" {
			return nil, fmt.Errorf("technology without name")
		}
		if _, ok := s.techs[d.Name]; ok {
			return nil, fmt.Errorf("duplicate technology %s", d.Name)
		}
		if d.Fueltype < 0 || d.Fueltype >= fueltypes {
			return nil, fmt.Errorf("technology %s: fueltype %d out of range", d.Name, d.Fueltype)
		}
		if d.EffBaseYear <= 0 {
			return nil, fmt.Errorf("technology %s: base-year efficiency must be positive", d.Name)
		}
		effEY := d.EffEndYear
		if effEY <= 0 {
			effEY = d.EffBaseYear
		}
		effCY := d.EffBaseYear + frac*(effEY-d.EffBaseYear)

		e := entry{def: d, kind: ParseKind(d.Kind), eff: model.ConstantGrid(effCY)}
		dist := make([]*mat.Dense, fueltypes)
		for f := range dist {
			dist[f] = model.NewGrid()
		}
		if d.Hybrid != nil {
			h := d.Hybrid
			if h.LowFueltype < 0 || h.LowFueltype >= fueltypes || h.HighFueltype < 0 || h.HighFueltype >= fueltypes {
				return nil, fmt.Errorf("technology %s: hybrid fueltype out of range", d.Name)
			}
			if h.ServiceShareLow < 0 || h.ServiceShareLow > 1 {
				return nil, fmt.Errorf("technology %s: hybrid low share %v outside [0,1]", d.Name, h.ServiceShareLow)
			}
			e.kind = Hybrid
			dist[h.LowFueltype] = model.ConstantGrid(h.ServiceShareLow)
			dist[h.HighFueltype] = model.ConstantGrid(1 - h.ServiceShareLow)
		} else {
			dist[d.Fueltype] = model.ConstantGrid(1)
		}
		e.dist = dist
		s.techs[d.Name] = e
	}
	return s, nil
}

func (s *Stock) lookup(enduse, tech string) (entry, error) {
	e, ok := s.techs[tech]
	if !ok {
		return entry{}, fmt.Errorf("%s/%s: %w", enduse, tech, ErrUnknownTechnology)
	}
	return e, nil
}

// Efficiency implements Provider.
func (s *Stock) Efficiency(enduse, tech string) (*mat.Dense, error) {
	e, err := s.lookup(enduse, tech)
	if err != nil {
		return nil, err
	}
	return mat.DenseCopyOf(e.eff), nil
}

// FueltypeDistribution implements Provider.
func (s *Stock) FueltypeDistribution(enduse, tech string) ([]*mat.Dense, error) {
	e, err := s.lookup(enduse, tech)
	if err != nil {
		return nil, err
	}
	out := make([]*mat.Dense, len(e.dist))
	for i, g := range e.dist {
		out[i] = mat.DenseCopyOf(g)
	}
	return out, nil
}

// Kind implements Provider.
func (s *Stock) Kind(enduse, tech string) Kind {
	e, err := s.lookup(enduse, tech)
	if err != nil {
		return Standard
	}
	return e.kind
}

// Hybrid implements Provider.
func (s *Stock) Hybrid(enduse, tech string) (HybridSplit, bool) {
	e, err := s.lookup(enduse, tech)
	if err != nil || e.def.Hybrid == nil {
		return HybridSplit{}, false
	}
	h := e.def.Hybrid
	return HybridSplit{
		LowFueltype:     h.LowFueltype,
		HighFueltype:    h.HighFueltype,
		LowTech:         h.LowTech,
		ServiceShareLow: h.ServiceShareLow,
	}, true
}

// MaxShare returns the diffusion ceiling of a technology, 1 when unset.
func (s *Stock) MaxShare(tech string) float64 {
	e, ok := s.techs[tech]
	if !ok || e.def.MaxShare <= 0 {
		return 1
	}
	return e.def.MaxShare
}
