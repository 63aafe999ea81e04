// Package pacing searches constant-power strategies over a course: it
// minimizes total time subject to a target anaerobic-energy budget,
// using the W' balance simulator as its objective function.
package pacing

import (
	"math"

	"veloplan/internal/sim"
)

// DefaultTargetUtilization is the fraction of W' a well-paced effort
// should spend by the finish line.
const DefaultTargetUtilization = 0.85

// Objective shaping constants. Infeasible powers get a large constant
// plus a quadratic pull back toward CP, so the search gradient still
// points into the feasible region instead of a flat infinite wall.
const (
	utilizationPenaltyScale = 1000 // seconds of cost per unit of utilization deviation
	underUtilizationFactor  = 5    // extra amplification for overly conservative pacing
	infeasiblePenalty       = 1e6
)

// Search bounds and fallbacks (watts).
const (
	absoluteMinPower   = 150
	absoluteMaxPower   = 500
	gridSamples        = 20
	conservativeFactor = 1.05
)

// Golden-section search parameters.
const (
	goldenRatio     = 0.6180339887498949
	searchTolerance = 1e-6 // watts
	searchMaxIter   = 100
)

// startFactors are the multiples of CP the local searches start from,
// clipped to the bounds. Multiple starts cover the non-convexity at the
// feasibility boundary.
var startFactors = []float64{1.05, 1.2, 1.4}

// Result is the outcome of an optimization: the recommended constant
// power and the simulation at that power.
type Result struct {
	PowerW  float64
	Outcome sim.Outcome

	// FromFallback is true when every search strategy failed and the
	// conservative fixed power was returned instead.
	FromFallback bool
}

// Optimizer searches for the fastest feasible constant power.
type Optimizer struct {
	Simulator         *sim.Simulator
	TargetUtilization float64
}

// NewOptimizer returns an Optimizer with the default W' utilization
// target.
func NewOptimizer(s *sim.Simulator) *Optimizer {
	return &Optimizer{Simulator: s, TargetUtilization: DefaultTargetUtilization}
}

// Bounds returns the power search interval for a given critical power:
// [max(0.9·CP, 150), min(2·CP, 500)].
func Bounds(criticalPower float64) (lo, hi float64) {
	lo = math.Max(0.9*criticalPower, absoluteMinPower)
	hi = math.Min(2*criticalPower, absoluteMaxPower)
	return lo, hi
}

// Optimize searches the bounded power range for the constant power
// minimizing total time plus a penalty on deviation from the target W'
// utilization. It runs golden-section searches from several starts,
// falls back to a coarse grid when none converges on a feasible point,
// and finally to a conservative fixed power. It always returns a
// usable recommendation and never an error.
func (o *Optimizer) Optimize(criticalPower, wPrimeMax float64, segments []sim.Segment) Result {
	lo, hi := Bounds(criticalPower)
	if hi <= lo {
		return o.fallback(criticalPower, wPrimeMax, segments, lo)
	}

	objective := func(powerW float64) float64 {
		out, err := o.Simulator.Simulate(powerW, criticalPower, wPrimeMax, segments)
		if err != nil {
			return math.Inf(1)
		}
		return o.score(out, powerW, criticalPower, wPrimeMax)
	}

	bestPower := math.NaN()
	bestScore := math.Inf(1)
	for _, factor := range startFactors {
		start := clip(factor*criticalPower, lo, hi)
		power := goldenSection(objective, lo, hi, start)
		if score := objective(power); score < bestScore && score < infeasiblePenalty {
			bestScore = score
			bestPower = power
		}
	}

	// Grid fallback: coarse sweep of the bounds, best feasible sample.
	if math.IsNaN(bestPower) {
		step := (hi - lo) / (gridSamples - 1)
		for i := 0; i < gridSamples; i++ {
			power := lo + float64(i)*step
			if score := objective(power); score < bestScore && score < infeasiblePenalty {
				bestScore = score
				bestPower = power
			}
		}
	}

	if math.IsNaN(bestPower) {
		return o.fallback(criticalPower, wPrimeMax, segments, clip(conservativeFactor*criticalPower, lo, hi))
	}

	out, err := o.Simulator.Simulate(bestPower, criticalPower, wPrimeMax, segments)
	if err != nil {
		return o.fallback(criticalPower, wPrimeMax, segments, clip(conservativeFactor*criticalPower, lo, hi))
	}
	return Result{PowerW: bestPower, Outcome: out}
}

// score turns a simulation outcome into the scalar objective.
func (o *Optimizer) score(out sim.Outcome, powerW, criticalPower, wPrimeMax float64) float64 {
	if !out.Feasible() {
		over := powerW - criticalPower
		return infeasiblePenalty + over*over
	}

	target := o.TargetUtilization
	if target <= 0 {
		target = DefaultTargetUtilization
	}

	utilization := (wPrimeMax - out.FinalWRemainingJ) / wPrimeMax
	penalty := math.Abs(utilization-target) * utilizationPenaltyScale
	if utilization < 0.7*target {
		penalty *= underUtilizationFactor
	}
	return out.TotalSec + penalty
}

// fallback simulates at the conservative power and returns whatever
// comes out; pacing advice must degrade, not crash.
func (o *Optimizer) fallback(criticalPower, wPrimeMax float64, segments []sim.Segment, powerW float64) Result {
	out, _ := o.Simulator.Simulate(powerW, criticalPower, wPrimeMax, segments)
	return Result{PowerW: powerW, Outcome: out, FromFallback: true}
}

// goldenSection minimizes f on [lo, hi], narrowing first around the
// start point. Fixed iteration cap and tolerance guarantee
// termination; the objective is cheap but not smooth at the
// feasibility boundary, so no derivative method applies.
func goldenSection(f func(float64) float64, lo, hi, start float64) float64 {
	// Seed the interval around the start to keep each run local.
	a := math.Max(lo, start-0.5*(hi-lo))
	b := math.Min(hi, start+0.5*(hi-lo))

	x1 := b - goldenRatio*(b-a)
	x2 := a + goldenRatio*(b-a)
	f1, f2 := f(x1), f(x2)

	for i := 0; i < searchMaxIter && b-a > searchTolerance; i++ {
		if f1 < f2 {
			b, x2, f2 = x2, x1, f1
			x1 = b - goldenRatio*(b-a)
			f1 = f(x1)
		} else {
			a, x1, f1 = x1, x2, f2
			x2 = a + goldenRatio*(b-a)
			f2 = f(x2)
		}
	}
	return (a + b) / 2
}

func clip(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
