package model

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// DefaultFueltypes lists the energy carriers in index order.
var DefaultFueltypes = []string{
	"solid_fuel",
	"gas",
	"electricity",
	"oil",
	"heat_sold",
	"biomass",
	"hydrogen",
	"heat",
}

// Fueltypes maps fueltype names to array indexes.
type Fueltypes struct {
	names []string
	index map[string]int
}

// NewFueltypes builds a registry from an ordered list of names. Names must be
// unique and non-empty.
func NewFueltypes(names []string) (Fueltypes, error) {
	ft := Fueltypes{names: make([]string, len(names)), index: make(map[string]int, len(names))}
	for i, n := range names {
		if n == "" {
			return Fueltypes{}, fmt.Errorf("fueltype %d has no name", i)
		}
		if _, ok := ft.index[n]; ok {
			return Fueltypes{}, fmt.Errorf("duplicate fueltype %s", n)
		}
		ft.names[i] = n
		ft.index[n] = i
	}
	return ft, nil
}

// Len returns the number of fueltypes.
func (f Fueltypes) Len() int { return len(f.names) }

// Index returns the array index for a fueltype name.
func (f Fueltypes) Index(name string) (int, bool) {
	i, ok := f.index[name]
	return i, ok
}

// Name returns the fueltype name at index i.
func (f Fueltypes) Name(i int) string {
	if i < 0 || i >= len(f.names) {
		return fmt.Sprintf("fueltype_%d", i)
	}
	return f.names[i]
}

// Names returns a copy of the ordered names.
func (f Fueltypes) Names() []string {
	cp := make([]string, len(f.names))
	copy(cp, f.names)
	return cp
}

// FuelVector holds annual energy per fueltype for one end-use.
type FuelVector []float64

// NewFuelVector returns a zero vector of length n.
func NewFuelVector(n int) FuelVector { return make(FuelVector, n) }

// Sum returns the total over all fueltypes.
func (v FuelVector) Sum() float64 { return floats.Sum(v) }

// IsZero reports whether the vector carries no energy.
func (v FuelVector) IsZero() bool { return v.Sum() == 0 }

// Clone returns a copy of v.
func (v FuelVector) Clone() FuelVector {
	cp := make(FuelVector, len(v))
	copy(cp, v)
	return cp
}

// Scale returns a new vector multiplied by factor.
func (v FuelVector) Scale(factor float64) FuelVector {
	cp := v.Clone()
	floats.Scale(factor, cp)
	return cp
}

// FuelShares maps fueltype index to technology share of that fueltype's fuel.
type FuelShares map[int]map[string]float64

// Technologies returns the sorted union of technologies across fueltypes.
func (s FuelShares) Technologies() []string {
	seen := make(map[string]struct{})
	for _, techs := range s {
		for t := range techs {
			seen[t] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Fueltypes returns the fueltype indexes present, sorted ascending.
func (s FuelShares) Fueltypes() []int {
	out := make([]int, 0, len(s))
	for f := range s {
		out = append(out, f)
	}
	sort.Ints(out)
	return out
}

// Clone returns a deep copy.
func (s FuelShares) Clone() FuelShares {
	cp := make(FuelShares, len(s))
	for f, techs := range s {
		m := make(map[string]float64, len(techs))
		for t, v := range techs {
			m[t] = v
		}
		cp[f] = m
	}
	return cp
}

// Normalize rescales every fueltype so its shares sum to one. Fueltypes whose
// shares sum to zero are left unchanged.
func (s FuelShares) Normalize() {
	for _, techs := range s {
		var sum float64
		for _, v := range techs {
			sum += v
		}
		if sum == 0 {
			continue
		}
		for t, v := range techs {
			techs[t] = v / sum
		}
	}
}
