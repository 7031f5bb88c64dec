// Package switches resolves scenario technology switches for an end-use:
// it fits one diffusion curve per switched technology once per scenario and
// redistributes current-year service between technologies.
package switches

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/kilianp07/demandcascade/core/diffusion"
	"github.com/kilianp07/demandcascade/core/model"
)

// Tolerance below which share changes are treated as zero.
const Tolerance = 1e-9

// ConfigurationError reports an unsatisfiable switch configuration.
type ConfigurationError struct {
	EndUse string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("enduse %s: %s", e.EndUse, e.Reason)
}

// Mode is the switch kind active for an end-use.
type Mode int

const (
	None Mode = iota
	Service
	Fuel
)

func (m Mode) String() string {
	switch m {
	case Service:
		return "service_switch"
	case Fuel:
		return "fuel_switch"
	default:
		return "none"
	}
}

// Groups partitions technologies by the direction of their service share.
type Groups struct {
	Increasing []string
	Decreasing []string
	Constant   []string
}

// BaseShares holds base-year service shares of an end-use.
type BaseShares struct {
	// ByTech is each technology's share of total service.
	ByTech map[string]float64
	// ByFueltype is each fueltype's share of total service.
	ByFueltype map[int]float64
}

// Plan carries everything a cascade needs to apply switches in any year. It is
// built once per scenario and read concurrently afterwards.
type Plan struct {
	EndUse          string
	BaseYear        int
	ServiceSwitches []model.ServiceSwitch
	FuelSwitches    []model.FuelSwitch

	Groups    Groups
	ShareBY   map[string]float64
	ShareEY   map[string]float64
	Installed []string

	ServiceParams map[string]model.SigmoidParams
	FuelParams    map[string]model.SigmoidParams
}

// Ceiling returns the maximum service share a technology can reach.
type Ceiling func(tech string) float64

// CheckExclusive fails when both switch kinds are configured for an end-use
// in a non-base year.
func CheckExclusive(enduse string, baseYr, curYr int, fs []model.FuelSwitch, ss []model.ServiceSwitch) error {
	if curYr == baseYr {
		return nil
	}
	if len(model.FuelSwitchesFor(enduse, fs)) > 0 && len(model.ServiceSwitchesFor(enduse, ss)) > 0 {
		return &ConfigurationError{EndUse: enduse, Reason: "both service switch and fuel switch configured"}
	}
	return nil
}

// NewPlan fits the diffusion curves of every configured switch of an end-use.
// An end-use configured with both switch kinds is not fitted; its Mode
// reports the conflict for every year after the base year.
func NewPlan(enduse string, baseYr int, base BaseShares, fs []model.FuelSwitch, ss []model.ServiceSwitch, ceil Ceiling) (Plan, error) {
	if ceil == nil {
		ceil = func(string) float64 { return 1 }
	}
	p := Plan{
		EndUse:          enduse,
		BaseYear:        baseYr,
		ServiceSwitches: model.ServiceSwitchesFor(enduse, ss),
		FuelSwitches:    model.FuelSwitchesFor(enduse, fs),
		ShareBY:         copyShares(base.ByTech),
	}
	if len(p.ServiceSwitches) > 0 && len(p.FuelSwitches) > 0 {
		return p, nil
	}
	if len(p.ServiceSwitches) > 0 {
		if err := CheckServiceShares(enduse, p.ServiceSwitches); err != nil {
			return Plan{}, err
		}
		if err := p.fitService(ceil); err != nil {
			return Plan{}, err
		}
	}
	if len(p.FuelSwitches) > 0 {
		if err := p.fitFuel(base.ByFueltype, ceil); err != nil {
			return Plan{}, err
		}
	}
	return p, nil
}

// CheckServiceShares fails when the end-year shares of an end-use's service
// switches add up to more than one. A technology switched twice counts with
// its last share.
func CheckServiceShares(enduse string, ss []model.ServiceSwitch) error {
	shares := make(map[string]float64, len(ss))
	for _, s := range ss {
		shares[s.Technology] = s.ShareEndYear
	}
	var sum float64
	for _, t := range sortedKeys(shares) {
		sum += shares[t]
	}
	if sum > 1+Tolerance {
		return &ConfigurationError{
			EndUse: enduse,
			Reason: fmt.Sprintf("service switch shares sum to %g, above 1", sum),
		}
	}
	return nil
}

// Mode returns the switch kind for curYr. Switches never apply in the base
// year; configuring both kinds is reported as an error.
func (p Plan) Mode(curYr int) (Mode, error) {
	if err := CheckExclusive(p.EndUse, p.BaseYear, curYr, p.FuelSwitches, p.ServiceSwitches); err != nil {
		return None, err
	}
	switch {
	case curYr == p.BaseYear:
		return None, nil
	case len(p.ServiceSwitches) > 0:
		return Service, nil
	case len(p.FuelSwitches) > 0:
		return Fuel, nil
	default:
		return None, nil
	}
}

// Partition compares base-year shares with the end-year shares implied by
// the service switches. Technologies without a switch share what the
// switches leave in proportion to their base-year share. Switch shares are
// expected to pass CheckServiceShares.
func Partition(shareBY map[string]float64, ss []model.ServiceSwitch) (Groups, map[string]float64) {
	shareEY := copyShares(shareBY)
	specified := make(map[string]bool, len(ss))
	for _, s := range ss {
		shareEY[s.Technology] = s.ShareEndYear
		specified[s.Technology] = true
	}
	var specifiedSum, restBY float64
	for _, t := range sortedKeys(shareEY) {
		if specified[t] {
			specifiedSum += shareEY[t]
		} else {
			restBY += shareBY[t]
		}
	}
	remaining := math.Max(0, 1-specifiedSum)
	if restBY > 0 {
		for t, v := range shareBY {
			if !specified[t] {
				shareEY[t] = v * remaining / restBY
			}
		}
	}
	var g Groups
	for _, t := range sortedKeys(shareEY) {
		by := shareBY[t]
		ey := shareEY[t]
		switch {
		case ey > by+Tolerance:
			g.Increasing = append(g.Increasing, t)
		case ey < by-Tolerance:
			g.Decreasing = append(g.Decreasing, t)
		default:
			g.Constant = append(g.Constant, t)
		}
	}
	return g, shareEY
}

func (p *Plan) fitService(ceil Ceiling) error {
	p.Groups, p.ShareEY = Partition(p.ShareBY, p.ServiceSwitches)
	for t := range p.ShareEY {
		if _, ok := p.ShareBY[t]; !ok {
			p.ShareBY[t] = 0
		}
	}
	yr := serviceSwitchYear(p.ServiceSwitches)
	p.ServiceParams = make(map[string]model.SigmoidParams, len(p.Groups.Increasing))
	for _, t := range p.Groups.Increasing {
		params, err := fitTech(p.EndUse, t, ceil(t), p.BaseYear, yr, p.ShareBY[t], p.ShareEY[t])
		if err != nil {
			return err
		}
		p.ServiceParams[t] = params
	}
	return nil
}

func (p *Plan) fitFuel(fueltypeBY map[int]float64, ceil Ceiling) error {
	p.Installed = InstalledTechnologies(p.FuelSwitches)
	p.FuelParams = make(map[string]model.SigmoidParams, len(p.Installed))
	for _, t := range p.Installed {
		target := p.ShareBY[t]
		yr := 0
		for _, s := range p.FuelSwitches {
			if s.Technology != t {
				continue
			}
			target += fueltypeBY[s.FueltypeReplace] * s.ShareSwitched
			if s.SwitchYear > yr {
				yr = s.SwitchYear
			}
		}
		params, err := fitTech(p.EndUse, t, ceil(t), p.BaseYear, yr, p.ShareBY[t], target)
		if err != nil {
			return err
		}
		p.FuelParams[t] = params
	}
	return nil
}

// InstalledTechnologies returns the sorted technologies installed by fuel
// switches.
func InstalledTechnologies(fs []model.FuelSwitch) []string {
	seen := make(map[string]float64)
	for _, s := range fs {
		seen[s.Technology] = 0
	}
	return sortedKeys(seen)
}

func fitTech(enduse, tech string, l float64, baseYr, switchYr int, by, ey float64) (model.SigmoidParams, error) {
	if switchYr <= baseYr {
		return model.SigmoidParams{}, &ConfigurationError{
			EndUse: enduse,
			Reason: fmt.Sprintf("switch year %d of %s not after base year %d", switchYr, tech, baseYr),
		}
	}
	fit, err := diffusion.FitSigmoid(l, [2]float64{float64(baseYr), float64(switchYr)}, [2]float64{by, ey})
	if err != nil {
		var ce *diffusion.ConvergenceError
		if errors.As(err, &ce) {
			ce.EndUse = enduse
			ce.Technology = tech
			return model.SigmoidParams{}, ce
		}
		return model.SigmoidParams{}, fmt.Errorf("fit %s/%s: %w", enduse, tech, err)
	}
	return model.SigmoidParams{L: fit.L, Midpoint: fit.Midpoint, Steepness: fit.Steepness}, nil
}

func serviceSwitchYear(ss []model.ServiceSwitch) int {
	yr := 0
	for _, s := range ss {
		if s.SwitchYear > yr {
			yr = s.SwitchYear
		}
	}
	return yr
}

func fuelSwitchYear(tech string, fs []model.FuelSwitch) int {
	yr := 0
	for _, s := range fs {
		if s.Technology == tech && s.SwitchYear > yr {
			yr = s.SwitchYear
		}
	}
	return yr
}

// curveShare evaluates a fitted curve, holding the switch-year value
// afterwards.
func curveShare(p model.SigmoidParams, curYr, switchYr int) float64 {
	if curYr > switchYr {
		curYr = switchYr
	}
	return diffusion.SigmoidFunction(float64(curYr), p.L, p.Midpoint, p.Steepness)
}

func copyShares(m map[string]float64) map[string]float64 {
	cp := make(map[string]float64, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}

func sortedKeys(m map[string]float64) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
