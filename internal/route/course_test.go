package route

import (
	"errors"
	"math"
	"testing"

	"veloplan/internal/sim"
)

// rampTrace is ten points heading due north, 0.001 degrees of latitude
// (about 111.19 m) apart, climbing one meter per point.
func rampTrace() []Point {
	points := make([]Point, 10)
	for i := range points {
		points[i] = Point{Lat: float64(i) * 0.001, Lon: 0, AltitudeM: float64(i)}
	}
	return points
}

const legM = 111.1949266 // haversine distance of 0.001 degrees of latitude

func TestHaversine(t *testing.T) {
	d := haversineM(0, 0, 1, 0)
	if math.Abs(d-111194.9266) > 0.1 {
		t.Errorf("One degree of latitude = %.1f m, want ~111194.9", d)
	}

	// At the equator a degree of longitude spans the same arc.
	if dl := haversineM(0, 0, 0, 1); math.Abs(dl-d) > 0.1 {
		t.Errorf("Equatorial degree of longitude %.1f m, want %.1f", dl, d)
	}

	if z := haversineM(47.5, 8.2, 47.5, 8.2); z != 0 {
		t.Errorf("Identical points should be 0 m apart, got %g", z)
	}
}

func TestFromStreams_MismatchedLengths(t *testing.T) {
	_, err := FromStreams([][2]float64{{0, 0}, {0.001, 0}}, []float64{100})
	if !errors.Is(err, ErrMismatchedStreams) {
		t.Fatalf("Expected ErrMismatchedStreams, got %v", err)
	}
}

func TestFromPoints_TooFewPoints(t *testing.T) {
	for _, points := range [][]Point{nil, {{Lat: 1, Lon: 1}}} {
		if _, err := FromPoints(points); !errors.Is(err, ErrTooFewPoints) {
			t.Errorf("%d points: expected ErrTooFewPoints, got %v", len(points), err)
		}
	}
}

func TestFromPoints_DistancesAndGradients(t *testing.T) {
	c, err := FromPoints(rampTrace())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(c.LegDistM) != 9 || len(c.LegGradient) != 9 || len(c.CumDistM) != 10 {
		t.Fatalf("Leg counts wrong: %d dists, %d gradients, %d cumulative",
			len(c.LegDistM), len(c.LegGradient), len(c.CumDistM))
	}
	if math.Abs(c.TotalDistanceM()-9*legM) > 0.01 {
		t.Errorf("Total distance %.2f m, want %.2f", c.TotalDistanceM(), 9*legM)
	}

	// On a constant ramp the centered moving average leaves interior
	// deltas at 1 m per leg; the partial edge windows halve them.
	if g := c.LegGradient[4]; math.Abs(g-1/legM) > 1e-6 {
		t.Errorf("Interior gradient %.6f, want %.6f", g, 1/legM)
	}
	if g := c.LegGradient[0]; math.Abs(g-0.5/legM) > 1e-6 {
		t.Errorf("Edge gradient %.6f, want %.6f", g, 0.5/legM)
	}
}

func TestFromPoints_ZeroDistanceLeg(t *testing.T) {
	points := []Point{
		{Lat: 0, Lon: 0, AltitudeM: 100},
		{Lat: 0.001, Lon: 0, AltitudeM: 101},
		{Lat: 0.001, Lon: 0, AltitudeM: 105}, // GPS stall, altitude drift
		{Lat: 0.002, Lon: 0, AltitudeM: 102},
	}
	c, err := FromPoints(points)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if c.LegDistM[1] != 0 {
		t.Errorf("Stalled leg distance %.3f, want 0", c.LegDistM[1])
	}
	if c.LegGradient[1] != 0 {
		t.Errorf("Stalled leg gradient %.3f, want 0", c.LegGradient[1])
	}
}

func TestFromPoints_GradientClamped(t *testing.T) {
	// A near-zero-distance leg under a big altitude step: raw rise
	// over run is in the tens of thousands of percent.
	points := []Point{
		{Lat: 0, Lon: 0, AltitudeM: 0},
		{Lat: 0.001, Lon: 0, AltitudeM: 0},
		{Lat: 0.002, Lon: 0, AltitudeM: 0},
		{Lat: 0.002000001, Lon: 0, AltitudeM: 50},
		{Lat: 0.003, Lon: 0, AltitudeM: 50},
		{Lat: 0.004, Lon: 0, AltitudeM: 50},
	}
	c, err := FromPoints(points)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if g := c.LegGradient[2]; g != maxLegGradient {
		t.Errorf("Spike gradient %.3f, want clamp at %.1f", g, maxLegGradient)
	}
}

func TestElevationGainAndLoss(t *testing.T) {
	c, err := FromPoints(rampTrace())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	// The smoothed ramp climbs from 1 m to 8 m.
	if gain := c.ElevationGainM(); math.Abs(gain-7) > 1e-9 {
		t.Errorf("Elevation gain %.3f m, want 7", gain)
	}
	if loss := c.ElevationLossM(); loss != 0 {
		t.Errorf("Elevation loss %.3f m, want 0", loss)
	}
}

func TestEqualSegments(t *testing.T) {
	c, err := FromPoints(rampTrace())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	segments, err := c.EqualSegments(3)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(segments) != 3 {
		t.Fatalf("Expected 3 segments, got %d", len(segments))
	}
	if err := sim.ValidateSegments(segments); err != nil {
		t.Fatalf("Segments should pass simulator validation: %v", err)
	}

	var total float64
	for i, seg := range segments {
		total += seg.DistanceM
		if math.Abs(seg.DistanceM-3*legM) > 0.01 {
			t.Errorf("Segment %d distance %.2f m, want %.2f", i, seg.DistanceM, 3*legM)
		}
		if seg.WindMS != 0 {
			t.Errorf("Segment %d wind should start at 0, got %g", i, seg.WindMS)
		}
	}
	if math.Abs(total-c.TotalDistanceM()) > 1e-6 {
		t.Errorf("Segment distances sum to %.2f, course is %.2f", total, c.TotalDistanceM())
	}

	// Edge smoothing halves the first and last bin's climb rate; the
	// middle bin keeps the full ramp gradient.
	if g := segments[1].Gradient; math.Abs(g-1/legM) > 1e-6 {
		t.Errorf("Middle segment gradient %.6f, want %.6f", g, 1/legM)
	}
	edge := (2.0 / 3.0) / legM
	if g := segments[0].Gradient; math.Abs(g-edge) > 1e-6 {
		t.Errorf("First segment gradient %.6f, want %.6f", g, edge)
	}

	// Altitude rises monotonically across the segments of a climb.
	if !(segments[0].AltitudeM < segments[1].AltitudeM && segments[1].AltitudeM < segments[2].AltitudeM) {
		t.Errorf("Segment altitudes not increasing: %.2f %.2f %.2f",
			segments[0].AltitudeM, segments[1].AltitudeM, segments[2].AltitudeM)
	}
}

func TestEqualSegments_MoreSegmentsThanLegs(t *testing.T) {
	c, err := FromPoints([]Point{
		{Lat: 0, Lon: 0, AltitudeM: 10},
		{Lat: 0.001, Lon: 0, AltitudeM: 12},
		{Lat: 0.002, Lon: 0, AltitudeM: 14},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	segments, err := c.EqualSegments(10)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(segments) == 0 || len(segments) > 10 {
		t.Fatalf("Expected between 1 and 10 segments, got %d", len(segments))
	}
	var total float64
	for _, seg := range segments {
		total += seg.DistanceM
	}
	if math.Abs(total-c.TotalDistanceM()) > 1e-6 {
		t.Errorf("Empty bins must not lose distance: %.2f vs %.2f", total, c.TotalDistanceM())
	}
}

func TestEqualSegments_BadCount(t *testing.T) {
	c, err := FromPoints(rampTrace())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, err := c.EqualSegments(0); !errors.Is(err, ErrNoSegments) {
		t.Errorf("Expected ErrNoSegments, got %v", err)
	}
}

func TestApplyWind(t *testing.T) {
	segments := []sim.Segment{{DistanceM: 100}, {DistanceM: 200}}
	ApplyWind(segments, -2.5)
	for i, seg := range segments {
		if seg.WindMS != -2.5 {
			t.Errorf("Segment %d wind %g, want -2.5", i, seg.WindMS)
		}
	}
}
