package physics

import (
	"errors"
	"fmt"
	"math"
)

// Gravity is the gravitational acceleration used in the power balance.
const Gravity = 9.81 // m/s²

// Speed solver bracket and convergence parameters. The residual is
// strictly increasing in speed, so a single sign change inside the
// bracket identifies the unique root.
const (
	minSpeed        = 0.1  // m/s
	maxSpeed        = 50.0 // m/s
	solverMaxIter   = 100
	solverTolerance = 1e-9 // m/s
)

// ErrNoSolution is returned when no speed in the bracket balances the
// supplied power, e.g. power too low to move up a steep gradient.
// Callers are expected to fall back to an estimated speed.
var ErrNoSolution = errors.New("no speed solution in bracket")

// BikeParams holds the physical parameters of a rider+bike system used
// by the speed solver.
type BikeParams struct {
	MassKg          float64 // rider + bike
	CdA             float64 // drag area, m²
	Crr             float64 // rolling resistance coefficient
	DriveEfficiency float64 // fraction of power reaching the wheel
}

// DefaultBikeParams returns the road-bike defaults used when the rider
// has not been configured.
func DefaultBikeParams() BikeParams {
	return BikeParams{
		MassKg:          75,
		CdA:             0.3,
		Crr:             0.005,
		DriveEfficiency: 1.0,
	}
}

// Conditions describes a single stretch of road for the solver.
type Conditions struct {
	AirDensity float64 // kg/m³
	Gradient   float64 // decimal fraction (0.05 = 5%)
	WindMS     float64 // m/s along the direction of travel, positive = tailwind
}

// SolveSpeed finds the steady-state speed (m/s) at which the required
// propulsive power equals the supplied power. Drive efficiency is
// applied as a multiplier on the input power before the solve. The
// residual
//
//	f(v) = (½·ρ·CdA·(v−wind)² + m·g·sin(atan(G)) + m·g·Crr·cos(atan(G)))·v − P
//
// is bracketed on [0.1, 50] m/s and bisected to convergence with a
// fixed iteration cap, so the solve terminates in bounded time.
func SolveSpeed(powerW float64, p BikeParams, c Conditions) (float64, error) {
	eff := p.DriveEfficiency
	if eff <= 0 || eff > 1 {
		eff = 1
	}
	effective := powerW * eff

	theta := math.Atan(c.Gradient)
	gravityForce := p.MassKg * Gravity * math.Sin(theta)
	rollingForce := p.MassKg * Gravity * p.Crr * math.Cos(theta)
	aero := 0.5 * c.AirDensity * p.CdA

	residual := func(v float64) float64 {
		rel := v - c.WindMS
		return (aero*rel*rel+gravityForce+rollingForce)*v - effective
	}

	lo, hi := minSpeed, maxSpeed
	flo, fhi := residual(lo), residual(hi)
	if flo*fhi > 0 {
		return 0, fmt.Errorf("%w: power %.1fW, gradient %.3f", ErrNoSolution, powerW, c.Gradient)
	}

	for i := 0; i < solverMaxIter && hi-lo > solverTolerance; i++ {
		mid := (lo + hi) / 2
		if flo*residual(mid) <= 0 {
			hi = mid
		} else {
			lo = mid
		}
	}

	return (lo + hi) / 2, nil
}
