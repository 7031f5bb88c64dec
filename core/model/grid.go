package model

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Calendar convention: day 0 is January 1, no leap days.
const (
	Days        = 365
	Hours       = 24
	HoursInYear = Days * Hours
)

// NewGrid returns a zeroed 365x24 grid.
func NewGrid() *mat.Dense { return mat.NewDense(Days, Hours, nil) }

// ConstantGrid returns a 365x24 grid filled with v.
func ConstantGrid(v float64) *mat.Dense {
	data := make([]float64, HoursInYear)
	for i := range data {
		data[i] = v
	}
	return mat.NewDense(Days, Hours, data)
}

// GridSum sums every cell of g.
func GridSum(g mat.Matrix) float64 { return mat.Sum(g) }

// CheckGrid verifies g has the 365x24 shape.
func CheckGrid(g mat.Matrix) error {
	if g == nil {
		return fmt.Errorf("grid is nil")
	}
	r, c := g.Dims()
	if r != Days || c != Hours {
		return fmt.Errorf("grid has shape %dx%d, want %dx%d", r, c, Days, Hours)
	}
	return nil
}

// ServiceMap holds per-technology hourly service for one cascade run.
type ServiceMap map[string]*mat.Dense

// Clone deep-copies every grid.
func (s ServiceMap) Clone() ServiceMap {
	cp := make(ServiceMap, len(s))
	for t, g := range s {
		cp[t] = mat.DenseCopyOf(g)
	}
	return cp
}

// Techs returns the technology names in sorted order.
func (s ServiceMap) Techs() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Total sums every technology grid into a new aggregate grid, in technology
// name order.
func (s ServiceMap) Total() *mat.Dense {
	out := NewGrid()
	for _, t := range s.Techs() {
		out.Add(out, s[t])
	}
	return out
}

// Sum returns the annual service over all technologies.
func (s ServiceMap) Sum() float64 {
	var total float64
	for _, t := range s.Techs() {
		total += mat.Sum(s[t])
	}
	return total
}
