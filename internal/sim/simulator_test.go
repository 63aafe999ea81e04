package sim

import (
	"errors"
	"math"
	"testing"

	"veloplan/internal/physics"
)

// referenceCourse is the five-segment reference course used across the
// simulator and optimizer tests.
func referenceCourse() []Segment {
	return []Segment{
		{DistanceM: 1000, Gradient: 0.02, WindMS: 0, AltitudeM: 100},
		{DistanceM: 1500, Gradient: 0.06, WindMS: 0, AltitudeM: 120},
		{DistanceM: 800, Gradient: -0.03, WindMS: 2, AltitudeM: 115},
		{DistanceM: 1200, Gradient: 0.01, WindMS: -1, AltitudeM: 110},
		{DistanceM: 900, Gradient: 0.04, WindMS: 0, AltitudeM: 125},
	}
}

func flatCourse(n int, distanceM float64) []Segment {
	segments := make([]Segment, n)
	for i := range segments {
		segments[i] = Segment{DistanceM: distanceM}
	}
	return segments
}

func TestSimulate_ConservationAtCriticalPower(t *testing.T) {
	s := New(physics.DefaultBikeParams())

	// At power == CP there is neither depletion nor recovery, so the
	// balance stays at wPrimeMax exactly.
	out, err := s.Simulate(300, 300, 25000, flatCourse(10, 500))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !out.Feasible() {
		t.Fatal("Riding at CP must always be feasible")
	}
	if out.FinalWRemainingJ != 25000 {
		t.Errorf("Expected exactly 25000 J remaining, got %.6f", out.FinalWRemainingJ)
	}
}

func TestSimulate_ConservationAtCPOnGeneralCourse(t *testing.T) {
	// Holds on hilly courses too: both balance terms are exactly zero
	// when power == CP, regardless of per-segment speed.
	s := New(physics.DefaultBikeParams())
	out, err := s.Simulate(300, 300, 25000, referenceCourse())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if out.FinalWRemainingJ != 25000 {
		t.Errorf("Expected exactly 25000 J remaining, got %.6f", out.FinalWRemainingJ)
	}
}

func TestSimulate_RecoveryNeverExceedsWPrimeMax(t *testing.T) {
	s := New(physics.DefaultBikeParams())

	// Below CP on every segment, starting from a full tank: the clamp
	// must hold the balance at wPrimeMax on every segment.
	out, err := s.Simulate(250, 300, 20000, referenceCourse())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	for i, r := range out.Results {
		if r.WRemainingJ > 20000 {
			t.Errorf("Segment %d: balance %.1f exceeds wPrimeMax", i, r.WRemainingJ)
		}
	}
	if out.FinalWRemainingJ != 20000 {
		t.Errorf("Full tank below CP should stay full, got %.1f", out.FinalWRemainingJ)
	}
}

func TestSimulate_DepletionAboveCP(t *testing.T) {
	s := New(physics.DefaultBikeParams())

	out, err := s.Simulate(330, 300, 25000, referenceCourse())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !out.Feasible() {
		t.Fatal("330W over the reference course should be feasible")
	}
	if out.FinalWRemainingJ >= 25000 {
		t.Errorf("Riding above CP must deplete W', got %.1f", out.FinalWRemainingJ)
	}

	// Depletion accounting: every joule above CP comes out of the tank.
	wantDepletion := (330 - 300) * out.TotalSec
	gotDepletion := 25000 - out.FinalWRemainingJ
	if math.Abs(wantDepletion-gotDepletion) > 1e-6 {
		t.Errorf("Depletion %.3f J, want %.3f", gotDepletion, wantDepletion)
	}
}

func TestSimulate_InfeasibleAbortsImmediately(t *testing.T) {
	s := New(physics.DefaultBikeParams())

	// 3×CP over 20 km cannot be sustained on 25 kJ.
	out, err := s.Simulate(900, 300, 25000, flatCourse(20, 1000))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if out.Feasible() {
		t.Fatal("Expected infeasible outcome")
	}
	if !math.IsInf(out.TotalSec, 1) {
		t.Errorf("Infeasible total time must be +Inf, got %.1f", out.TotalSec)
	}
	if out.FinalWRemainingJ >= 0 {
		t.Errorf("Abort balance should be negative for diagnostics, got %.1f", out.FinalWRemainingJ)
	}
	if len(out.Results) == 0 || len(out.Results) >= 20 {
		t.Errorf("Expected partial results from the abort point, got %d segments", len(out.Results))
	}
}

func TestSimulate_InfeasibleRegardlessOfLaterSegments(t *testing.T) {
	s := New(physics.DefaultBikeParams())

	// A brutal start followed by an easy finish: once W' goes negative
	// the outcome stays infeasible even though the course flattens.
	course := append([]Segment{
		{DistanceM: 3000, Gradient: 0.10},
	}, flatCourse(10, 1000)...)

	out, err := s.Simulate(500, 250, 10000, course)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if out.Feasible() {
		t.Fatal("Depleting W' on the first climb must make the whole outcome infeasible")
	}
	if len(out.Results) != 1 {
		t.Errorf("Simulation should abort at the depleting segment, got %d results", len(out.Results))
	}
}

func TestSimulate_ReferenceCourseAt350WIsInfeasible(t *testing.T) {
	// 350W depletes 50 J/s, so feasibility over this course needs a
	// sub-500s finish, which no plausible rider achieves on the 6%
	// climb. The abort-on-depletion policy makes this deterministic.
	s := New(physics.DefaultBikeParams())
	out, err := s.Simulate(350, 300, 25000, referenceCourse())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if out.Feasible() {
		t.Errorf("Expected infeasible at 350W, finished in %.1fs with %.1f J left", out.TotalSec, out.FinalWRemainingJ)
	}
}

func TestSimulate_SegmentResultsAccumulate(t *testing.T) {
	s := New(physics.DefaultBikeParams())
	course := referenceCourse()

	out, err := s.Simulate(310, 300, 25000, course)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(out.Results) != len(course) {
		t.Fatalf("Expected %d segment results, got %d", len(course), len(out.Results))
	}

	var elapsed, energy float64
	for i, r := range out.Results {
		if r.Segment != course[i] {
			t.Errorf("Segment %d: results out of course order", i)
		}
		if r.SpeedEstimated {
			t.Errorf("Segment %d: solver fallback should not trigger on a normal course", i)
		}
		elapsed += r.ElapsedSec
		energy += r.PowerW * r.ElapsedSec
		if math.Abs(r.CumulativeEnergyJ-energy) > 1e-6 {
			t.Errorf("Segment %d: cumulative energy %.1f, want %.1f", i, r.CumulativeEnergyJ, energy)
		}
	}
	if math.Abs(out.TotalSec-elapsed) > 1e-9 {
		t.Errorf("TotalSec %.3f != sum of segment times %.3f", out.TotalSec, elapsed)
	}
	if math.Abs(out.TotalEnergyJ-310*out.TotalSec) > 1e-6 {
		t.Errorf("TotalEnergyJ %.1f != power × time %.1f", out.TotalEnergyJ, 310*out.TotalSec)
	}
}

func TestSimulate_SolverFallbackIsFlagged(t *testing.T) {
	s := New(physics.DefaultBikeParams())

	// 20W up 35%: even at the bracket minimum the required power
	// exceeds the supply, so the bounded linear estimate kicks in
	// (clamped to 5 m/s at this power).
	out, err := s.Simulate(20, 300, 25000, []Segment{{DistanceM: 500, Gradient: 0.35}})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	r := out.Results[0]
	if !r.SpeedEstimated {
		t.Fatal("Expected the fallback speed path to be flagged")
	}
	if r.SpeedMS != 5.0 {
		t.Errorf("Fallback speed = %.1f, want clamp at 5.0", r.SpeedMS)
	}
}

func TestSimulate_RejectsPercentGradients(t *testing.T) {
	s := New(physics.DefaultBikeParams())

	// 5.0 here means 500%: a percent value that skipped conversion.
	_, err := s.Simulate(300, 300, 25000, []Segment{{DistanceM: 1000, Gradient: 5.0}})
	if !errors.Is(err, ErrGradientOutOfRange) {
		t.Fatalf("Expected ErrGradientOutOfRange, got %v", err)
	}
}

func TestSimulate_RejectsNonpositiveDistance(t *testing.T) {
	s := New(physics.DefaultBikeParams())
	if _, err := s.Simulate(300, 300, 25000, []Segment{{DistanceM: 0}}); err == nil {
		t.Fatal("Expected error for zero-distance segment")
	}
}

func TestLinearRecovery_ProportionalAndClamped(t *testing.T) {
	m := LinearRecovery{}

	got := m.Recover(25000, 20000, 300, 250, 10)
	if got != 20500 {
		t.Errorf("Expected 20000 + 50·10 = 20500, got %.1f", got)
	}

	got = m.Recover(25000, 24900, 300, 200, 60)
	if got != 25000 {
		t.Errorf("Recovery must clamp at wMax, got %.1f", got)
	}

	got = m.Recover(25000, 20000, 300, 300, 60)
	if got != 20000 {
		t.Errorf("No recovery at CP, got %.1f", got)
	}
}

func TestExponentialRecovery_ApproachesWMax(t *testing.T) {
	m := ExponentialRecovery{}

	short := m.Recover(25000, 10000, 300, 200, 30)
	long := m.Recover(25000, 10000, 300, 200, 600)

	if short <= 10000 {
		t.Error("Recovery below CP must restore some W'")
	}
	if long <= short {
		t.Error("Longer recovery must restore more")
	}
	if long > 25000 {
		t.Errorf("Recovery must never exceed wMax, got %.1f", long)
	}

	// A larger deficit below CP recovers faster (smaller tau).
	deep := m.Recover(25000, 10000, 300, 100, 30)
	if deep <= short {
		t.Error("Deeper power deficit should recover W' faster")
	}
}

func TestSimulator_ExponentialRecoveryPluggable(t *testing.T) {
	s := New(physics.DefaultBikeParams())
	s.Recovery = ExponentialRecovery{}

	// Drain on a climb, then recover on a long flat below CP.
	course := []Segment{
		{DistanceM: 2000, Gradient: 0.08},
		{DistanceM: 5000, Gradient: 0},
	}
	out, err := s.Simulate(250, 300, 20000, course)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if out.FinalWRemainingJ > 20000 {
		t.Errorf("Exponential recovery must respect wMax, got %.1f", out.FinalWRemainingJ)
	}
}
