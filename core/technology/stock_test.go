package technology

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/kilianp07/demandcascade/core/diffusion"
)

func testDefs() []Definition {
	return []Definition{
		{Name: "boiler_gas", Fueltype: 1, EffBaseYear: 0.8, EffEndYear: 0.9},
		{Name: "heat_pumps_electricity", Fueltype: 2, EffBaseYear: 2.5, MaxShare: 0.8},
		{Name: "hybrid_gas_electricity", Fueltype: 1, EffBaseYear: 1.2, Hybrid: &HybridDef{
			LowFueltype: 2, HighFueltype: 1, LowTech: "heat_pumps_electricity", ServiceShareLow: 0.7,
		}},
		{Name: "air_con", Fueltype: 2, EffBaseYear: 3, Kind: "cooling"},
	}
}

func TestStockEfficiencyDiffusion(t *testing.T) {
	yrs := Years{Base: 2015, Current: 2030, End: 2045, Method: diffusion.Linear}
	s, err := NewStock(testDefs(), 8, yrs)
	require.NoError(t, err)

	eff, err := s.Efficiency("space_heating", "boiler_gas")
	require.NoError(t, err)
	assert.InDelta(t, 0.85, eff.At(10, 10), 1e-12)

	eff, err = s.Efficiency("space_heating", "heat_pumps_electricity")
	require.NoError(t, err)
	assert.InDelta(t, 2.5, eff.At(0, 0), 1e-12)

	base, err := NewStock(testDefs(), 8, Years{Base: 2015, Current: 2015, End: 2045, Method: diffusion.Sigmoid})
	require.NoError(t, err)
	eff, err = base.Efficiency("space_heating", "boiler_gas")
	require.NoError(t, err)
	assert.InDelta(t, 0.8, eff.At(0, 0), 1e-12)
}

func TestStockFueltypeDistribution(t *testing.T) {
	s, err := NewStock(testDefs(), 8, Years{Base: 2015, Current: 2015, End: 2050})
	require.NoError(t, err)

	dist, err := s.FueltypeDistribution("space_heating", "boiler_gas")
	require.NoError(t, err)
	require.Len(t, dist, 8)
	assert.Equal(t, 8760.0, mat.Sum(dist[1]))
	assert.Equal(t, 0.0, mat.Sum(dist[2]))

	dist, err = s.FueltypeDistribution("space_heating", "hybrid_gas_electricity")
	require.NoError(t, err)
	for d := 0; d < 365; d += 50 {
		sum := 0.0
		for f := range dist {
			sum += dist[f].At(d, 3)
		}
		assert.InDelta(t, 1, sum, 1e-12)
	}
	assert.InDelta(t, 0.7, dist[2].At(0, 0), 1e-12)
}

func TestStockKindAndHybrid(t *testing.T) {
	s, err := NewStock(testDefs(), 8, Years{Base: 2015, Current: 2015, End: 2050})
	require.NoError(t, err)
	assert.Equal(t, Hybrid, s.Kind("space_heating", "hybrid_gas_electricity"))
	assert.Equal(t, Cooling, s.Kind("cooling", "air_con"))
	assert.Equal(t, Standard, s.Kind("space_heating", "boiler_gas"))
	h, ok := s.Hybrid("space_heating", "hybrid_gas_electricity")
	require.True(t, ok)
	assert.Equal(t, "heat_pumps_electricity", h.LowTech)
	_, ok = s.Hybrid("space_heating", "boiler_gas")
	assert.False(t, ok)
	assert.Equal(t, 0.8, s.MaxShare("heat_pumps_electricity"))
	assert.Equal(t, 1.0, s.MaxShare("boiler_gas"))
}

func TestStockErrors(t *testing.T) {
	s, err := NewStock(testDefs(), 8, Years{Base: 2015, Current: 2015, End: 2050})
	require.NoError(t, err)
	_, err = s.Efficiency("space_heating", "unknown")
	assert.True(t, errors.Is(err, ErrUnknownTechnology))

	_, err = NewStock([]Definition{{Name: "x", Fueltype: 9, EffBaseYear: 1}}, 8, Years{})
	assert.Error(t, err)
	_, err = NewStock([]Definition{{Name: "x", Fueltype: 1}}, 8, Years{})
	assert.Error(t, err)
	_, err = NewStock([]Definition{{Name: "x", Fueltype: 1, EffBaseYear: 1}, {Name: "x", Fueltype: 1, EffBaseYear: 1}}, 8, Years{})
	assert.Error(t, err)
	assert.False(t, math.IsNaN(s.MaxShare("unknown")))
}
