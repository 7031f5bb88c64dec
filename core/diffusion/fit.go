package diffusion

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
)

// Accepted range for fitted midpoint and steepness.
const (
	ParamMin = 0.001
	ParamMax = 200.0
)

// Fit points are kept strictly inside (0, L).
const (
	minShare   = 1e-7
	ceilMargin = 1e-6
)

// maxResidual is the largest sum of squared errors accepted for a fit.
const maxResidual = 1e-8

// fixedStarts are tried after the data-centred candidate, in order.
var fixedStarts = []float64{1.0, 0.001, 0.01, 0.1, 60, 100, 200, 400, 500, 1000}

// ConvergenceError reports that no start candidate produced an acceptable fit.
type ConvergenceError struct {
	EndUse     string
	Technology string
	Attempts   int
}

func (e *ConvergenceError) Error() string {
	if e.EndUse == "" && e.Technology == "" {
		return fmt.Sprintf("sigmoid fit did not converge after %d attempts", e.Attempts)
	}
	return fmt.Sprintf("sigmoid fit did not converge for %s/%s after %d attempts", e.EndUse, e.Technology, e.Attempts)
}

// StartCandidates returns the ordered start (midpoint, steepness) pairs used
// by FitSigmoid for the given x points.
func StartCandidates(xs [2]float64) [][2]float64 {
	mid := (xs[0]+xs[1])/2 - 2000
	out := [][2]float64{{mid - 5, 0.05}}
	for _, s := range fixedStarts {
		out = append(out, [2]float64{s, s})
	}
	return out
}

// FitSigmoid fits midpoint and steepness of SigmoidFunction with ceiling l
// through two points by least squares on the logit scale. Start candidates
// are tried in order until one yields parameters inside [ParamMin, ParamMax]
// that moved away from their start values.
func FitSigmoid(l float64, xs, ys [2]float64) (SigmoidFit, error) {
	ys = clampPoints(l, ys)
	cands := StartCandidates(xs)
	for _, start := range cands {
		fit, err := fitFrom(l, xs, ys, start)
		if err != nil {
			continue
		}
		if !acceptable(fit, start) {
			continue
		}
		return fit, nil
	}
	return SigmoidFit{}, &ConvergenceError{Attempts: len(cands)}
}

// SigmoidFit holds the fitted parameters of one curve.
type SigmoidFit struct {
	L         float64
	Midpoint  float64
	Steepness float64
}

// At evaluates the fitted curve in year x.
func (f SigmoidFit) At(x float64) float64 {
	return SigmoidFunction(x, f.L, f.Midpoint, f.Steepness)
}

func clampPoints(l float64, ys [2]float64) [2]float64 {
	for i, y := range ys {
		if y < minShare {
			ys[i] = minShare
		}
		if y >= l {
			ys[i] = l * (1 - ceilMargin)
		}
	}
	return ys
}

func acceptable(fit SigmoidFit, start [2]float64) bool {
	if fit.Midpoint < ParamMin || fit.Midpoint > ParamMax {
		return false
	}
	if fit.Steepness < ParamMin || fit.Steepness > ParamMax {
		return false
	}
	if fit.Midpoint == start[0] || fit.Steepness == start[1] {
		return false
	}
	return !math.IsNaN(fit.Midpoint) && !math.IsNaN(fit.Steepness)
}

// fitFrom minimises the squared logit residuals z_i - a*(x_i-2000) - b with
// a = steepness and b = -steepness*midpoint. Both points lie strictly inside
// (0, l), so a zero logit residual is a zero residual of the curve itself and
// the problem is a convex quadratic BFGS solves from any start.
func fitFrom(l float64, xs, ys [2]float64, start [2]float64) (SigmoidFit, error) {
	var u, z [2]float64
	for i := range xs {
		u[i] = xs[i] - 2000
		z[i] = logit(ys[i] / l)
	}
	p := optimize.Problem{
		Func: func(x []float64) float64 {
			var sse float64
			for i := range u {
				r := x[0]*u[i] + x[1] - z[i]
				sse += r * r
			}
			return sse
		},
		Grad: func(grad, x []float64) {
			grad[0], grad[1] = 0, 0
			for i := range u {
				r := x[0]*u[i] + x[1] - z[i]
				grad[0] += 2 * r * u[i]
				grad[1] += 2 * r
			}
		},
	}
	settings := &optimize.Settings{
		GradientThreshold: 1e-10,
		MajorIterations:   2000,
	}
	init := []float64{start[1], -start[1] * start[0]}
	res, err := optimize.Minimize(p, init, settings, &optimize.BFGS{})
	if res == nil {
		return SigmoidFit{}, err
	}
	if res.X[0] == 0 {
		return SigmoidFit{}, fmt.Errorf("flat curve")
	}
	fit := SigmoidFit{L: l, Midpoint: -res.X[1] / res.X[0], Steepness: res.X[0]}
	// line searches may give up once the optimum is reached to machine precision
	if r := residual(fit, xs, ys); r > maxResidual {
		if err == nil {
			err = fmt.Errorf("residual %g above %g", r, maxResidual)
		}
		return SigmoidFit{}, err
	}
	return fit, nil
}

func residual(fit SigmoidFit, xs, ys [2]float64) float64 {
	var sse float64
	for i := range xs {
		r := fit.At(xs[i]) - ys[i]
		sse += r * r
	}
	return sse
}

func logit(p float64) float64 { return math.Log(p / (1 - p)) }
