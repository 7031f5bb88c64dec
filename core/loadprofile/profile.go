// Package loadprofile holds the normalized time shapes used to spread annual
// demand over the days and hours of a year.
package loadprofile

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/kilianp07/demandcascade/core/model"
)

// Tolerance used when checking that shapes sum to one.
const Tolerance = 1e-6

// ShapeKind selects one of the shapes held by a LoadProfile.
type ShapeKind int

const (
	ShapeYD ShapeKind = iota
	ShapeYH
	ShapeYDH
	ShapePeakDH
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeYD:
		return "shape_yd"
	case ShapeYH:
		return "shape_yh"
	case ShapeYDH:
		return "shape_y_dh"
	case ShapePeakDH:
		return "shape_peak_dh"
	default:
		return fmt.Sprintf("shape(%d)", int(k))
	}
}

// LoadProfile is an immutable set of time shapes. Accessors return copies.
type LoadProfile struct {
	id          string
	shapeYD     []float64
	shapeYH     *mat.Dense
	shapeYDH    *mat.Dense
	peakYD      float64
	shapePeakDH []float64
}

// New derives every shape from an hourly shape. yh is normalized to sum to one;
// negative values and all-zero input are rejected.
func New(id string, yh mat.Matrix) (*LoadProfile, error) {
	if err := model.CheckGrid(yh); err != nil {
		return nil, fmt.Errorf("profile %s: %w", id, err)
	}
	if mat.Min(yh) < 0 {
		return nil, fmt.Errorf("profile %s: negative shape value", id)
	}
	total := mat.Sum(yh)
	if total <= 0 {
		return nil, fmt.Errorf("profile %s: shape sums to zero", id)
	}
	p := &LoadProfile{id: id, shapeYH: mat.NewDense(model.Days, model.Hours, nil)}
	p.shapeYH.Scale(1/total, yh)

	p.shapeYD = make([]float64, model.Days)
	p.shapeYDH = mat.NewDense(model.Days, model.Hours, nil)
	for d := 0; d < model.Days; d++ {
		row := p.shapeYH.RawRowView(d)
		daySum := floats.Sum(row)
		p.shapeYD[d] = daySum
		if daySum == 0 {
			continue
		}
		norm := p.shapeYDH.RawRowView(d)
		floats.ScaleTo(norm, 1/daySum, row)
	}
	p.peakYD = PeakFactor(p.shapeYD)
	peakDay := floats.MaxIdx(p.shapeYD)
	p.shapePeakDH = make([]float64, model.Hours)
	copy(p.shapePeakDH, p.shapeYDH.RawRowView(peakDay))
	return p, nil
}

// FromDaily composes a profile from a day-of-year shape and a per-day hourly
// shape: yh[d][h] = yd[d] * ydh[d][h].
func FromDaily(id string, yd []float64, ydh mat.Matrix) (*LoadProfile, error) {
	if len(yd) != model.Days {
		return nil, fmt.Errorf("profile %s: daily shape has %d values, want %d", id, len(yd), model.Days)
	}
	if err := model.CheckGrid(ydh); err != nil {
		return nil, fmt.Errorf("profile %s: %w", id, err)
	}
	yh := mat.NewDense(model.Days, model.Hours, nil)
	for d := 0; d < model.Days; d++ {
		var daySum float64
		for h := 0; h < model.Hours; h++ {
			daySum += ydh.At(d, h)
		}
		if daySum == 0 {
			continue
		}
		for h := 0; h < model.Hours; h++ {
			yh.Set(d, h, yd[d]*ydh.At(d, h)/daySum)
		}
	}
	return New(id, yh)
}

// Flat returns a profile spreading demand evenly over all 8760 hours.
func Flat(id string) *LoadProfile {
	p, err := New(id, model.ConstantGrid(1))
	if err != nil {
		// a constant positive grid is always valid
		panic(err)
	}
	return p
}

// PeakFactor returns max(x)/sum(x), the share of annual demand falling on the
// peak element. It is 0 for an all-zero array.
func PeakFactor(x []float64) float64 {
	total := floats.Sum(x)
	if total == 0 {
		return 0
	}
	return floats.Max(x) / total
}

// ID returns the profile identifier.
func (p *LoadProfile) ID() string { return p.id }

// ShapeYD returns the day-of-year shape (365 values, sum 1).
func (p *LoadProfile) ShapeYD() []float64 {
	cp := make([]float64, len(p.shapeYD))
	copy(cp, p.shapeYD)
	return cp
}

// ShapeYH returns the hour-of-year shape (365x24, sum 1).
func (p *LoadProfile) ShapeYH() *mat.Dense { return mat.DenseCopyOf(p.shapeYH) }

// ShapeYDH returns the per-day hourly shape (365x24, each row sums to 1 or 0).
func (p *LoadProfile) ShapeYDH() *mat.Dense { return mat.DenseCopyOf(p.shapeYDH) }

// PeakYDFactor returns the share of annual demand on the peak day.
func (p *LoadProfile) PeakYDFactor() float64 { return p.peakYD }

// ShapePeakDH returns the hourly shape of the peak day (24 values, sum 1).
func (p *LoadProfile) ShapePeakDH() []float64 {
	cp := make([]float64, len(p.shapePeakDH))
	copy(cp, p.shapePeakDH)
	return cp
}

// Shape returns the requested shape as a matrix: day shapes are returned as a
// 1x365 row and peak day shapes as a 1x24 row.
func (p *LoadProfile) Shape(kind ShapeKind) (*mat.Dense, error) {
	switch kind {
	case ShapeYD:
		return mat.NewDense(1, model.Days, p.ShapeYD()), nil
	case ShapeYH:
		return p.ShapeYH(), nil
	case ShapeYDH:
		return p.ShapeYDH(), nil
	case ShapePeakDH:
		return mat.NewDense(1, model.Hours, p.ShapePeakDH()), nil
	default:
		return nil, fmt.Errorf("unknown shape kind %s", kind)
	}
}

// Validate checks the normalization invariants of every shape.
func (p *LoadProfile) Validate() error {
	if s := mat.Sum(p.shapeYH); math.Abs(s-1) > Tolerance {
		return fmt.Errorf("profile %s: shape_yh sums to %g", p.id, s)
	}
	if s := floats.Sum(p.shapeYD); math.Abs(s-1) > Tolerance {
		return fmt.Errorf("profile %s: shape_yd sums to %g", p.id, s)
	}
	for d := 0; d < model.Days; d++ {
		s := floats.Sum(p.shapeYDH.RawRowView(d))
		if s != 0 && math.Abs(s-1) > Tolerance {
			return fmt.Errorf("profile %s: shape_y_dh day %d sums to %g", p.id, d, s)
		}
	}
	if s := floats.Sum(p.shapePeakDH); math.Abs(s-1) > Tolerance {
		return fmt.Errorf("profile %s: shape_peak_dh sums to %g", p.id, s)
	}
	return nil
}
