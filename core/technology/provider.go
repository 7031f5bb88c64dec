// Package technology exposes per-technology attributes for one simulated
// year: efficiency, fueltype distribution and hybrid service split.
package technology

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

// ErrUnknownTechnology is returned for technologies missing from a provider.
var ErrUnknownTechnology = errors.New("unknown technology")

// Kind classifies how a technology's peak day is shaped.
type Kind int

const (
	Standard Kind = iota
	Hybrid
	Cooling
	Ventilation
)

func (k Kind) String() string {
	switch k {
	case Hybrid:
		return "hybrid"
	case Cooling:
		return "cooling"
	case Ventilation:
		return "ventilation"
	default:
		return "standard"
	}
}

// ParseKind converts a configuration string to a Kind. Unknown values map to
// Standard.
func ParseKind(s string) Kind {
	switch s {
	case "hybrid":
		return Hybrid
	case "cooling":
		return Cooling
	case "ventilation":
		return Ventilation
	default:
		return Standard
	}
}

// HybridSplit describes how a hybrid technology divides its service between
// a low-temperature and a high-temperature fueltype.
type HybridSplit struct {
	LowFueltype  int
	HighFueltype int
	// LowTech is the single-fuel technology serving the low-temperature part.
	LowTech string
	// ServiceShareLow is the current-year share of service from LowFueltype.
	ServiceShareLow float64
}

// Provider is the read-only attribute source consumed by the cascade.
// Implementations must be safe for concurrent use.
type Provider interface {
	// Efficiency returns the current-year 365x24 efficiency grid.
	Efficiency(enduse, tech string) (*mat.Dense, error)
	// FueltypeDistribution returns one 365x24 grid per fueltype; for every
	// hour the grids sum to one.
	FueltypeDistribution(enduse, tech string) ([]*mat.Dense, error)
	Kind(enduse, tech string) Kind
	Hybrid(enduse, tech string) (HybridSplit, bool)
}
