// Package diffusion provides the interpolation curves used to move scenario
// assumptions from their base-year value to their end-year value, and the
// two-point logistic curve fit used for technology adoption.
package diffusion

import "math"

// Method selects the interpolation used between base and end year.
type Method string

const (
	Linear  Method = "linear"
	Sigmoid Method = "sigmoid"
)

// Sigmoid x-axis bounds mapped onto [base year, end year].
const (
	sigmoidXMin = -5.0
	sigmoidXMax = 5.0
)

// LinearDiff returns the linear increment reached in curYr when moving from
// vStart to vEnd over nYears simulated years.
func LinearDiff(baseYr, curYr int, vStart, vEnd float64, nYears int) float64 {
	if curYr == baseYr || nYears <= 1 {
		return 0
	}
	return (vEnd - vStart) / float64(nYears-1) * float64(curYr-baseYr)
}

// SigmoidDiffusion returns the fraction in [0,1] of a change completed by
// curYr. It is 0 in the base year and 1 from the end year on.
func SigmoidDiffusion(baseYr, curYr, endYr int, midpoint, steepness float64) float64 {
	if curYr <= baseYr {
		return 0
	}
	if curYr >= endYr {
		return 1
	}
	x := sigmoidXMin + (sigmoidXMax-sigmoidXMin)/float64(endYr-baseYr)*float64(curYr-baseYr)
	return 1 / (1 + math.Exp(-steepness*(x-midpoint)))
}

// SigmoidFunction evaluates a logistic curve with ceiling l. The x axis is in
// calendar years, offset so the midpoint counts years after 2000.
func SigmoidFunction(x, l, midpoint, steepness float64) float64 {
	return l / (1 + math.Exp(-steepness*((x-2000)-midpoint)))
}

// Fraction returns the share of a change completed by curYr using method.
// Linear diffusion reaches 1 in endYr.
func Fraction(method Method, baseYr, curYr, endYr int, midpoint, steepness float64) float64 {
	if method == Linear {
		if curYr >= endYr {
			return 1
		}
		return LinearDiff(baseYr, curYr, 0, 1, endYr-baseYr+1)
	}
	return SigmoidDiffusion(baseYr, curYr, endYr, midpoint, steepness)
}
