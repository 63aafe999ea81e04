package physics

import (
	"errors"
	"math"
	"testing"
)

func flatConditions() Conditions {
	return Conditions{AirDensity: SeaLevelAirDensity}
}

func TestSolveSpeed_Flat(t *testing.T) {
	v, err := SolveSpeed(250, DefaultBikeParams(), flatConditions())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// 250W on the flats at default params is ~10.5 m/s (~38 km/h).
	if math.Abs(v-10.48) > 0.05 {
		t.Errorf("Expected ~10.48 m/s at 250W flat, got %.3f", v)
	}
}

func TestSolveSpeed_ClimbWithTailwind(t *testing.T) {
	v, err := SolveSpeed(300, DefaultBikeParams(), Conditions{
		AirDensity: SeaLevelAirDensity,
		Gradient:   0.05,
		WindMS:     2,
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if math.Abs(v-6.74) > 0.05 {
		t.Errorf("Expected ~6.74 m/s at 300W up 5%% with 2 m/s tailwind, got %.3f", v)
	}
}

func TestSolveSpeed_DescentWithHeadwind(t *testing.T) {
	v, err := SolveSpeed(200, DefaultBikeParams(), Conditions{
		AirDensity: SeaLevelAirDensity,
		Gradient:   -0.05,
		WindMS:     -2,
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if math.Abs(v-14.05) > 0.05 {
		t.Errorf("Expected ~14.05 m/s at 200W down 5%% into 2 m/s headwind, got %.3f", v)
	}
}

func TestSolveSpeed_MonotonicInPower(t *testing.T) {
	prev := 0.0
	for _, power := range []float64{100, 150, 200, 250, 300, 350, 400} {
		v, err := SolveSpeed(power, DefaultBikeParams(), flatConditions())
		if err != nil {
			t.Fatalf("Unexpected error at %gW: %v", power, err)
		}
		if v <= prev {
			t.Errorf("Speed should increase with power: %.3f at %gW <= %.3f below", v, power, prev)
		}
		prev = v
	}
}

func TestSolveSpeed_DecreasingInGradient(t *testing.T) {
	prev := math.Inf(1)
	for _, gradient := range []float64{-0.05, 0, 0.02, 0.05, 0.08} {
		v, err := SolveSpeed(250, DefaultBikeParams(), Conditions{
			AirDensity: SeaLevelAirDensity,
			Gradient:   gradient,
		})
		if err != nil {
			t.Fatalf("Unexpected error at gradient %g: %v", gradient, err)
		}
		if v >= prev {
			t.Errorf("Speed should decrease with gradient: %.3f at %g >= %.3f below", v, gradient, prev)
		}
		prev = v
	}
}

func TestSolveSpeed_DecreasingInMass(t *testing.T) {
	prev := math.Inf(1)
	for _, mass := range []float64{60, 70, 80, 90} {
		params := DefaultBikeParams()
		params.MassKg = mass
		v, err := SolveSpeed(250, params, Conditions{
			AirDensity: SeaLevelAirDensity,
			Gradient:   0.04,
		})
		if err != nil {
			t.Fatalf("Unexpected error at %gkg: %v", mass, err)
		}
		if v >= prev {
			t.Errorf("Climbing speed should decrease with mass: %.3f at %gkg >= %.3f below", v, mass, prev)
		}
		prev = v
	}
}

func TestSolveSpeed_DriveEfficiencyScalesPower(t *testing.T) {
	params := DefaultBikeParams()
	full, err := SolveSpeed(250, params, flatConditions())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	params.DriveEfficiency = 0.95
	reduced, err := SolveSpeed(250, params, flatConditions())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if reduced >= full {
		t.Errorf("Lossy drivetrain should be slower: %.3f >= %.3f", reduced, full)
	}

	// Efficiency is a multiplier on input power, so 250W at 0.95
	// efficiency matches 237.5W at 1.0.
	equivalent, err := SolveSpeed(237.5, DefaultBikeParams(), flatConditions())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if math.Abs(reduced-equivalent) > 1e-6 {
		t.Errorf("Expected %.6f == %.6f", reduced, equivalent)
	}
}

func TestSolveSpeed_StaysInsideBracket(t *testing.T) {
	// Extreme inputs at both ends: a sprint-level effort on a steep
	// descent pushes the root toward the upper bracket, a trickle of
	// power up a wall pushes it toward the lower one. The solution
	// must stay inside [minSpeed, maxSpeed] in both cases.
	cases := []struct {
		name     string
		power    float64
		gradient float64
	}{
		{"fast descent", 1500, -0.08},
		{"crawl up a wall", 40, 0.15},
	}
	for _, tc := range cases {
		v, err := SolveSpeed(tc.power, DefaultBikeParams(), Conditions{
			AirDensity: SeaLevelAirDensity,
			Gradient:   tc.gradient,
		})
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if v < minSpeed || v > maxSpeed {
			t.Errorf("%s: speed %.3f outside [%.1f, %.1f]", tc.name, v, minSpeed, maxSpeed)
		}
	}
}

func TestSolveSpeed_NoSolutionOnSteepGradient(t *testing.T) {
	// 10W cannot move 75kg up a 30% wall at any speed above the
	// bracket minimum.
	_, err := SolveSpeed(10, DefaultBikeParams(), Conditions{
		AirDensity: SeaLevelAirDensity,
		Gradient:   0.30,
	})
	if !errors.Is(err, ErrNoSolution) {
		t.Fatalf("Expected ErrNoSolution, got %v", err)
	}
}

func TestSolveSpeed_Deterministic(t *testing.T) {
	a, _ := SolveSpeed(275, DefaultBikeParams(), Conditions{AirDensity: 1.19, Gradient: 0.03, WindMS: -1})
	b, _ := SolveSpeed(275, DefaultBikeParams(), Conditions{AirDensity: 1.19, Gradient: 0.03, WindMS: -1})
	if a != b {
		t.Errorf("Solver should be deterministic: %.9f != %.9f", a, b)
	}
}

func TestEstimateCdA(t *testing.T) {
	cases := []struct {
		bike, position string
		height         float64
		want           float64
	}{
		{BikeRoad, PositionDrops, 1.75, 0.33},
		{BikeTT, PositionAero, 1.60, 0.22 * 1.60 / 1.75},
		{BikeGravel, PositionHoods, 1.90, 0.38 * 1.90 / 1.75},
		{"Unknown", "Unknown", 1.75, 0.35},
	}

	for _, tc := range cases {
		got := EstimateCdA(tc.bike, tc.position, tc.height)
		if math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("EstimateCdA(%s, %s, %.2f) = %.4f, want %.4f", tc.bike, tc.position, tc.height, got, tc.want)
		}
	}
}
