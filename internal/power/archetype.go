package power

import (
	"errors"
	"fmt"
)

// Archetype is a coarse rider classification used to estimate
// physiology when no empirical best efforts are available.
type Archetype string

const (
	TimeTrialist Archetype = "time_trialist"
	Sprinter     Archetype = "sprinter"
	AllRounder   Archetype = "all_rounder"
)

// ErrUnknownArchetype is returned for archetypes outside the known set.
var ErrUnknownArchetype = errors.New("unknown rider archetype")

// Archetypes lists the supported values in display order.
var Archetypes = []Archetype{TimeTrialist, Sprinter, AllRounder}

// wPrimeFormula holds the additive/multiplicative coefficients of the
// closed-form W' estimate for an archetype: W' = base + slope·CP.
type wPrimeFormula struct {
	base  float64 // joules
	slope float64 // joules per watt of CP
}

var wPrimeFormulas = map[Archetype]wPrimeFormula{
	TimeTrialist: {base: 10000, slope: 0.5},
	Sprinter:     {base: 25000, slope: 0.7},
	AllRounder:   {base: 15000, slope: 0.6},
}

// effortMultipliers maps standard durations to power as a multiple of
// CP, per archetype. Sprinters front-load short efforts; time
// trialists hold a flatter curve.
var effortMultipliers = map[Archetype]map[int]float64{
	TimeTrialist: {60: 1.4, 300: 1.2, 600: 1.1, 1200: 1.05, 1800: 1.02},
	Sprinter:     {60: 1.8, 300: 1.4, 600: 1.2, 1200: 1.1, 1800: 1.05},
	AllRounder:   {60: 1.6, 300: 1.3, 600: 1.15, 1200: 1.08, 1800: 1.03},
}

// EstimateFromArchetype derives a physiology model from a rider
// archetype and a known critical power, for riders with no activity
// history to fit a curve from.
func EstimateFromArchetype(a Archetype, criticalPower float64) (Physiology, error) {
	formula, ok := wPrimeFormulas[a]
	if !ok {
		return Physiology{}, fmt.Errorf("%w: %q", ErrUnknownArchetype, a)
	}
	return Physiology{
		CriticalPower: criticalPower,
		WPrime:        formula.base + formula.slope*criticalPower,
	}, nil
}

// SynthesizeBestEfforts generates a synthetic best-effort profile at
// the standard durations from an archetype multiplier table, for
// callers that need a profile rather than a closed-form estimate.
func SynthesizeBestEfforts(a Archetype, criticalPower float64) (BestEffortProfile, error) {
	multipliers, ok := effortMultipliers[a]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownArchetype, a)
	}
	efforts := make(BestEffortProfile, len(multipliers))
	for duration, m := range multipliers {
		efforts[duration] = criticalPower * m
	}
	return efforts, nil
}
