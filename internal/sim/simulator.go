// Package sim simulates energy expenditure over a course: it tracks the
// rider's W' balance segment by segment at a constant power, depleting
// above critical power and recovering below it.
package sim

import (
	"errors"
	"fmt"
	"math"

	"veloplan/internal/physics"
)

// MaxGradient bounds the accepted segment gradient. Gradients arrive as
// decimal fractions; anything beyond ±0.4 is almost certainly a
// percent value that skipped conversion (5.0 instead of 0.05), so the
// simulator rejects it instead of producing nonphysical speeds.
const MaxGradient = 0.4

// ErrGradientOutOfRange reports a segment whose gradient fails the
// decimal-fraction sanity bound.
var ErrGradientOutOfRange = errors.New("segment gradient outside ±0.4; gradients must be decimal fractions, not percent")

// Solver fallback bounds: when no steady-state speed exists for a
// segment, speed is estimated linearly from power and clamped to a
// plausible riding range. A degraded-accuracy path, flagged on the
// segment result.
const (
	fallbackMinSpeed      = 5.0  // m/s
	fallbackMaxSpeed      = 20.0 // m/s
	fallbackWattsPerSpeed = 200.0
)

// Segment is one ordered piece of a course. Order is traversal order
// and determines the order of W' depletion and recovery.
type Segment struct {
	DistanceM float64
	Gradient  float64 // decimal fraction, signed
	WindMS    float64 // positive = tailwind
	AltitudeM float64
}

// SegmentResult is the simulation output for one segment, appended in
// course order and never mutated afterwards.
type SegmentResult struct {
	Segment           Segment
	SpeedMS           float64
	ElapsedSec        float64
	PowerW            float64
	WRemainingJ       float64
	CumulativeEnergyJ float64
	SpeedEstimated    bool // true when the solver fallback was used
}

// Outcome is the result of simulating a course at one constant power.
// TotalSec is +Inf when W' was exhausted mid-course; Results then holds
// the segments completed before the rider blew up, and FinalWRemainingJ
// the (negative) balance at the abort point.
type Outcome struct {
	Results          []SegmentResult
	TotalSec         float64
	FinalWRemainingJ float64
	TotalEnergyJ     float64
}

// Feasible reports whether the course was completed without exhausting W'.
func (o Outcome) Feasible() bool {
	return !math.IsInf(o.TotalSec, 1)
}

// Simulator runs constant-power course simulations against a rider's
// physiology and bike setup. It holds only read-only configuration, so
// a single Simulator may run concurrent simulations.
type Simulator struct {
	Bike     physics.BikeParams
	Recovery RecoveryModel

	// Weather overrides the per-segment standard atmosphere when set.
	Weather *physics.Weather
}

// New returns a Simulator with the given bike setup and linear recovery.
func New(bike physics.BikeParams) *Simulator {
	return &Simulator{Bike: bike, Recovery: LinearRecovery{}}
}

// ValidateSegments checks course segments for unit errors before any
// simulation runs.
func ValidateSegments(segments []Segment) error {
	for i, s := range segments {
		if s.DistanceM <= 0 {
			return fmt.Errorf("segment %d: distance must be positive, got %.1f", i, s.DistanceM)
		}
		if math.Abs(s.Gradient) > MaxGradient {
			return fmt.Errorf("segment %d: %w (got %.2f)", i, ErrGradientOutOfRange, s.Gradient)
		}
	}
	return nil
}

// Simulate rides the course at a constant power, tracking the W'
// balance from wPrimeMax. Above CP the balance depletes by
// (P−CP)·dt; the moment it goes negative the outcome is infeasible and
// the simulation aborts, returning the partial results. Below CP the
// balance recovers per the configured RecoveryModel, never exceeding
// wPrimeMax.
func (s *Simulator) Simulate(powerW, criticalPower, wPrimeMax float64, segments []Segment) (Outcome, error) {
	if err := ValidateSegments(segments); err != nil {
		return Outcome{}, err
	}

	recovery := s.Recovery
	if recovery == nil {
		recovery = LinearRecovery{}
	}

	wRemaining := wPrimeMax
	outcome := Outcome{Results: make([]SegmentResult, 0, len(segments))}

	for _, seg := range segments {
		speed, estimated := s.segmentSpeed(powerW, seg)
		dt := seg.DistanceM / speed

		outcome.TotalSec += dt
		outcome.TotalEnergyJ += powerW * dt

		if powerW > criticalPower {
			wRemaining -= (powerW - criticalPower) * dt
		} else {
			wRemaining = recovery.Recover(wPrimeMax, wRemaining, criticalPower, powerW, dt)
		}

		outcome.Results = append(outcome.Results, SegmentResult{
			Segment:           seg,
			SpeedMS:           speed,
			ElapsedSec:        dt,
			PowerW:            powerW,
			WRemainingJ:       wRemaining,
			CumulativeEnergyJ: outcome.TotalEnergyJ,
			SpeedEstimated:    estimated,
		})

		if wRemaining < 0 {
			outcome.TotalSec = math.Inf(1)
			outcome.FinalWRemainingJ = wRemaining
			return outcome, nil
		}
	}

	outcome.FinalWRemainingJ = wRemaining
	return outcome, nil
}

// segmentSpeed solves the steady-state speed for a segment, falling
// back to a bounded linear estimate when the bracket holds no root.
func (s *Simulator) segmentSpeed(powerW float64, seg Segment) (speed float64, estimated bool) {
	var rho float64
	if s.Weather != nil {
		w := *s.Weather
		w.AltitudeM = seg.AltitudeM
		rho = physics.AirDensity(w)
	} else {
		rho = physics.AirDensityAtAltitude(seg.AltitudeM)
	}

	speed, err := physics.SolveSpeed(powerW, s.Bike, physics.Conditions{
		AirDensity: rho,
		Gradient:   seg.Gradient,
		WindMS:     seg.WindMS,
	})
	if err != nil {
		speed = math.Max(fallbackMinSpeed, math.Min(fallbackMaxSpeed, powerW/fallbackWattsPerSpeed))
		return speed, true
	}
	return speed, false
}
