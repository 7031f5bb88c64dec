package scenario

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/kilianp07/demandcascade/core/cascade"
	"github.com/kilianp07/demandcascade/core/diffusion"
	"github.com/kilianp07/demandcascade/core/loadprofile"
	"github.com/kilianp07/demandcascade/core/technology"
)

func TestLoadBaseline(t *testing.T) {
	sc, err := Load("testdata/baseline.yaml")
	require.NoError(t, err)

	assert.Equal(t, "baseline", sc.Name)
	assert.Equal(t, diffusion.Sigmoid, sc.Diffusion.Method)
	assert.Equal(t, 8, sc.FueltypeRegistry().Len())
	assert.Equal(t, []string{"lighting", "space_cooling", "space_heating"}, sc.EndUseNames())
	require.Len(t, sc.ServiceSwitches, 1)
	assert.Equal(t, 0.5, sc.ServiceSwitches[0].ShareEndYear)
	assert.Equal(t, 2050, sc.ServiceSwitches[0].SwitchYear)
	assert.Equal(t, 0.03, sc.EndUses[0].Assumptions.SmartMeter.Savings)
	assert.Equal(t, diffusion.Linear, sc.EndUses[2].Assumptions.GenericChange.Method)
}

func TestProfileStock(t *testing.T) {
	sc, err := Load("testdata/baseline.yaml")
	require.NoError(t, err)
	stock, err := sc.ProfileStock()
	require.NoError(t, err)

	assert.Equal(t, []string{"lighting", "space_cooling", "space_heating"}, stock.EndUses())
	for _, p := range stock.Profiles() {
		assert.NoError(t, p.Validate(), p.ID())
	}

	gas, err := stock.Get("space_heating", "residential", "boiler_gas")
	require.NoError(t, err)
	hp, err := stock.Get("space_heating", "residential", "heat_pumps_electricity")
	require.NoError(t, err)
	assert.Same(t, gas, hp)

	// January outweighs July
	yd := gas.ShapeYD()
	assert.Greater(t, yd[0], yd[190])
	// peak hour of the day is 18:00
	dh := gas.ShapePeakDH()
	assert.Equal(t, 0.0, dh[18]-maxOf(dh))

	cool, err := stock.Get("space_cooling", "residential", "air_con_electricity")
	require.NoError(t, err)
	assert.Equal(t, 0.0, cool.ShapeYD()[0])

	_, err = stock.Get("lighting", "commercial", "lighting_led")
	assert.ErrorIs(t, err, loadprofile.ErrProfileNotFound)
	assert.ErrorIs(t, stock.Add(loadprofile.Flat("late"), []string{"x"}, []string{"y"}, []string{"z"}), loadprofile.ErrSealed)
}

func maxOf(x []float64) float64 {
	m := math.Inf(-1)
	for _, v := range x {
		m = math.Max(m, v)
	}
	return m
}

func TestTechnologyStock(t *testing.T) {
	sc, err := Load("testdata/baseline.yaml")
	require.NoError(t, err)

	by, err := sc.TechnologyStock(2015)
	require.NoError(t, err)
	ey, err := sc.TechnologyStock(2050)
	require.NoError(t, err)

	effBY, err := by.Efficiency("space_heating", "heat_pumps_electricity")
	require.NoError(t, err)
	effEY, err := ey.Efficiency("space_heating", "heat_pumps_electricity")
	require.NoError(t, err)
	assert.InDelta(t, 3.0, effBY.At(0, 0), 1e-12)
	assert.InDelta(t, 3.5, effEY.At(100, 5), 1e-12)

	split, ok := by.Hybrid("space_heating", "hybrid_gas_electricity")
	require.True(t, ok)
	assert.Equal(t, 1, split.LowFueltype)
	assert.Equal(t, 2, split.HighFueltype)
	assert.Equal(t, technology.Cooling, by.Kind("space_cooling", "air_con_electricity"))
}

func TestSeries(t *testing.T) {
	s := Series{2015: 1, 2050: 1.35}
	v, ok := s.At(2015)
	assert.True(t, ok)
	assert.Equal(t, 1.0, v)
	v, _ = s.At(2030)
	assert.InDelta(t, 1.15, v, 1e-12)
	v, _ = s.At(2010)
	assert.Equal(t, 1.0, v)
	v, _ = s.At(2060)
	assert.Equal(t, 1.35, v)
	_, ok = Series(nil).At(2030)
	assert.False(t, ok)
}

func TestInput(t *testing.T) {
	sc, err := Load("testdata/baseline.yaml")
	require.NoError(t, err)
	techs, err := sc.TechnologyStock(2030)
	require.NoError(t, err)
	profiles, err := sc.ProfileStock()
	require.NoError(t, err)

	in, err := sc.Input(sc.EndUses[0], 2030, techs, profiles)
	require.NoError(t, err)
	assert.Equal(t, "space_heating", in.EndUse)
	assert.Equal(t, 600.0, in.Fuel[1])
	assert.Equal(t, 100.0, in.Fuel[3])
	assert.Equal(t, 0.4, in.FuelShares[2]["hybrid_gas_electricity"])
	assert.Equal(t, cascade.Heating, in.Assumptions.Climate)
	assert.Equal(t, 0.92, in.Assumptions.HeatingFactor)
	assert.Equal(t, 1.0, in.Assumptions.DriverBY)
	assert.InDelta(t, 1.0+0.2*15/35, in.Assumptions.DriverCY, 1e-12)

	res, err := cascade.Run(in)
	require.NoError(t, err)
	var total float64
	for _, g := range res.HourlyFuel {
		total += mat.Sum(g)
	}
	assert.InDelta(t, res.YearlyFuel.Sum(), total, 1e-6)
}

func TestFuelSwitchRecords(t *testing.T) {
	sc, err := Load("testdata/fuel_switch.yaml")
	require.NoError(t, err)
	fs, err := sc.FuelSwitchRecords()
	require.NoError(t, err)
	require.Len(t, fs, 1)
	assert.Equal(t, 1, fs[0].FueltypeReplace)
	assert.Equal(t, "heat_pumps_electricity", fs[0].Technology)
}

func TestParseErrors(t *testing.T) {
	base := `name: s
base_year: 2015
end_year: 2050
technologies:
  - {name: boiler_gas, fueltype: gas, eff_by: 1}
  - {name: boiler_oil, fueltype: oil, eff_by: 1}
enduses:
  - name: space_heating
    sector: residential
    fuel: {gas: 1}
    shares: {gas: {boiler_gas: 1}}
`
	_, err := Parse([]byte(base))
	require.NoError(t, err)

	cases := map[string]string{
		"end before base":   strings.Replace(base, "end_year: 2050", "end_year: 2010", 1),
		"unknown fueltype":  strings.Replace(base, "fueltype: gas", "fueltype: plasma", 1),
		"unknown tech":      strings.Replace(base, "{gas: {boiler_gas: 1}}", "{gas: {boiler_coal: 1}}", 1),
		"negative fuel":     strings.Replace(base, "fuel: {gas: 1}", "fuel: {gas: -1}", 1),
		"bad climate":       strings.Replace(base, "sector: residential", "sector: residential\n    climate: tropical", 1),
		"switch enduse":     base + "service_switches:\n  - {enduse: lighting, technology: boiler_gas, service_share_ey: 0.5, switch_yr: 2050}\n",
		"switch share":      base + "fuel_switches:\n  - {enduse: space_heating, technology_install: boiler_gas, fueltype_replace: gas, share_fuel_consumption_switched: 2, switch_yr: 2050}\n",
		"duplicate enduse":  base + "  - {name: space_heating, sector: residential, fuel: {gas: 1}}\n",
		"unknown driver":    strings.Replace(base, "sector: residential", "sector: residential\n    assumptions: {driver: gdp}", 1),
		"switch shares sum": base + "service_switches:\n  - {enduse: space_heating, technology: boiler_gas, service_share_ey: 0.7, switch_yr: 2050}\n  - {enduse: space_heating, technology: boiler_oil, service_share_ey: 0.6, switch_yr: 2050}\n",
		"bad profile kind":  base + "load_profiles:\n  - {id: p, kind: hourly}\n",
		"diffusion method":  base + "diffusion: {method: cubic}\n",
		"duplicate fueltyp": base + "fueltypes: [gas, gas]\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}
