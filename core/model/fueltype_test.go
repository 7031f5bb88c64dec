package model

import (
	"math"
	"testing"
)

func TestNewFueltypes(t *testing.T) {
	ft, err := NewFueltypes(DefaultFueltypes)
	if err != nil {
		t.Fatalf("new fueltypes: %v", err)
	}
	if ft.Len() != 8 {
		t.Fatalf("expected 8 fueltypes got %d", ft.Len())
	}
	if i, ok := ft.Index("gas"); !ok || i != 1 {
		t.Fatalf("gas index = %d, %v", i, ok)
	}
	if ft.Name(2) != "electricity" {
		t.Fatalf("unexpected name %s", ft.Name(2))
	}
	if _, err := NewFueltypes([]string{"gas", "gas"}); err == nil {
		t.Fatal("expected duplicate error")
	}
	if _, err := NewFueltypes([]string{""}); err == nil {
		t.Fatal("expected empty name error")
	}
}

func TestFuelVectorScaleDoesNotMutate(t *testing.T) {
	v := FuelVector{1, 2, 3}
	s := v.Scale(2)
	if v[1] != 2 {
		t.Fatalf("original mutated: %v", v)
	}
	if s.Sum() != 12 {
		t.Fatalf("expected 12 got %v", s.Sum())
	}
	if !NewFuelVector(3).IsZero() {
		t.Fatal("expected zero vector")
	}
}

func TestFuelSharesTechnologiesAndNormalize(t *testing.T) {
	s := FuelShares{
		1: {"boiler_gas": 3, "hybrid_gas_electricity": 1},
		2: {"heat_pumps_electricity": 1, "boiler_electricity": 1},
		3: {},
	}
	techs := s.Technologies()
	want := []string{"boiler_electricity", "boiler_gas", "heat_pumps_electricity", "hybrid_gas_electricity"}
	if len(techs) != len(want) {
		t.Fatalf("unexpected techs %v", techs)
	}
	for i := range want {
		if techs[i] != want[i] {
			t.Fatalf("techs[%d]=%s want %s", i, techs[i], want[i])
		}
	}
	cp := s.Clone()
	cp.Normalize()
	if math.Abs(cp[1]["boiler_gas"]-0.75) > 1e-12 {
		t.Fatalf("unexpected share %v", cp[1]["boiler_gas"])
	}
	if s[1]["boiler_gas"] != 3 {
		t.Fatal("clone shares state with original")
	}
}

func TestServiceMapTotal(t *testing.T) {
	sm := ServiceMap{"a": ConstantGrid(1), "b": ConstantGrid(2)}
	if got := sm.Sum(); math.Abs(got-3*HoursInYear) > 1e-9 {
		t.Fatalf("unexpected sum %v", got)
	}
	if got := sm.Total().At(10, 5); got != 3 {
		t.Fatalf("unexpected total cell %v", got)
	}
	cp := sm.Clone()
	cp["a"].Set(0, 0, 10)
	if sm["a"].At(0, 0) != 1 {
		t.Fatal("clone shares grids")
	}
	if err := CheckGrid(NewGrid()); err != nil {
		t.Fatalf("check grid: %v", err)
	}
}

func TestServiceMapTotalOrderIndependent(t *testing.T) {
	// float addition is not associative: only a fixed order gives a stable result
	big, one := 1e16, 3.0
	sm := ServiceMap{"a": ConstantGrid(big), "b": ConstantGrid(one), "c": ConstantGrid(-big)}
	var want float64
	for _, v := range []float64{big, one, -big} {
		want += v
	}
	for i := 0; i < 50; i++ {
		if got := sm.Total().At(0, 0); got != want {
			t.Fatalf("run %d: total %v want %v", i, got, want)
		}
	}
	if got := sm.Techs(); got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("unexpected order %v", got)
	}
}
