package model

// FuelSwitch states that a share of one fueltype's consumption in an end-use
// is taken over by an installed technology by SwitchYear.
type FuelSwitch struct {
	EndUse          string  `yaml:"enduse" json:"enduse"`
	Technology      string  `yaml:"technology_install" json:"technology_install"`
	FueltypeReplace int     `yaml:"fueltype_replace" json:"fueltype_replace"`
	ShareSwitched   float64 `yaml:"share_fuel_consumption_switched" json:"share_fuel_consumption_switched"`
	SwitchYear      int     `yaml:"switch_yr" json:"switch_yr"`
}

// ServiceSwitch sets the end-year service share of a technology within an
// end-use.
type ServiceSwitch struct {
	EndUse       string  `yaml:"enduse" json:"enduse"`
	Technology   string  `yaml:"technology" json:"technology"`
	ShareEndYear float64 `yaml:"service_share_ey" json:"service_share_ey"`
	SwitchYear   int     `yaml:"switch_yr" json:"switch_yr"`
}

// SigmoidParams describes a fitted logistic diffusion curve.
type SigmoidParams struct {
	L         float64 `json:"l_parameter"`
	Midpoint  float64 `json:"midpoint"`
	Steepness float64 `json:"steepness"`
}

// FuelSwitchesFor filters switches to one end-use.
func FuelSwitchesFor(enduse string, switches []FuelSwitch) []FuelSwitch {
	var out []FuelSwitch
	for _, s := range switches {
		if s.EndUse == enduse {
			out = append(out, s)
		}
	}
	return out
}

// ServiceSwitchesFor filters switches to one end-use.
func ServiceSwitchesFor(enduse string, switches []ServiceSwitch) []ServiceSwitch {
	var out []ServiceSwitch
	for _, s := range switches {
		if s.EndUse == enduse {
			out = append(out, s)
		}
	}
	return out
}
