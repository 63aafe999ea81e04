package route

import (
	"errors"

	"veloplan/internal/sim"
)

// ErrNoSegments is returned when a segment count of zero or less is
// requested.
var ErrNoSegments = errors.New("route: segment count must be positive")

// EqualSegments divides the course into n equal-distance bins and
// aggregates each bin's legs into one simulator segment: distance is
// the sum, gradient is the distance-weighted mean, altitude is the
// distance-weighted mean of leg midpoints. Wind is left zero; the
// caller applies weather. Bins that end up empty (more segments than
// trace legs) are dropped, so fewer than n segments can come back.
func (c *Course) EqualSegments(n int) ([]sim.Segment, error) {
	if n <= 0 {
		return nil, ErrNoSegments
	}
	total := c.TotalDistanceM()
	if total <= 0 {
		return nil, ErrTooFewPoints
	}

	type bin struct {
		dist    float64
		gradSum float64 // gradient · distance
		altSum  float64 // midpoint altitude · distance
	}
	bins := make([]bin, n)
	binLen := total / float64(n)

	// A leg belongs to the bin its midpoint falls in, which keeps
	// boundary legs from being split or double-counted.
	for i, d := range c.LegDistM {
		if d <= 0 {
			continue
		}
		mid := c.CumDistM[i] + d/2
		idx := int(mid / binLen)
		if idx >= n {
			idx = n - 1
		}
		midAlt := (c.Points[i].AltitudeM + c.Points[i+1].AltitudeM) / 2
		bins[idx].dist += d
		bins[idx].gradSum += c.LegGradient[i] * d
		bins[idx].altSum += midAlt * d
	}

	segments := make([]sim.Segment, 0, n)
	for _, b := range bins {
		if b.dist <= 0 {
			continue
		}
		segments = append(segments, sim.Segment{
			DistanceM: b.dist,
			Gradient:  b.gradSum / b.dist,
			AltitudeM: b.altSum / b.dist,
		})
	}
	if len(segments) == 0 {
		return nil, ErrTooFewPoints
	}
	return segments, nil
}

// ApplyWind sets a uniform headwind/tailwind on every segment.
func ApplyWind(segments []sim.Segment, windMS float64) {
	for i := range segments {
		segments[i].WindMS = windMS
	}
}
