// Package route turns a GPS trace into a course the simulator can
// ride: it computes leg distances and gradients from raw latitude,
// longitude and altitude samples, smooths out barometric noise, and
// aggregates the legs into equal-distance segments.
package route

import (
	"errors"
	"math"
)

const earthRadiusM = 6371000.0

// DefaultSmoothingWindow is the centered moving-average window applied
// to raw altitude samples before gradients are computed. Barometric
// altimeters jitter by a few meters; unsmoothed point-to-point
// gradients on closely spaced samples are mostly noise.
const DefaultSmoothingWindow = 5

// maxLegGradient caps a single leg's gradient. GPS traces produce
// occasional near-zero-distance legs whose raw rise/run is absurd;
// anything steeper than 40% is treated as noise and clamped.
const maxLegGradient = 0.4

var (
	ErrTooFewPoints      = errors.New("route: need at least two trace points")
	ErrMismatchedStreams = errors.New("route: latlng and altitude streams differ in length")
)

// Point is one GPS trace sample.
type Point struct {
	Lat       float64
	Lon       float64
	AltitudeM float64
}

// Course is a processed trace: per-leg distances and gradients indexed
// so that leg i runs from Points[i] to Points[i+1].
type Course struct {
	Points []Point

	// LegDistM[i] is the haversine distance of leg i in meters.
	LegDistM []float64
	// LegGradient[i] is leg i's rise over run as a decimal fraction.
	LegGradient []float64
	// CumDistM[i] is the distance from the start to Points[i].
	CumDistM []float64
}

// FromStreams builds a course from parallel Strava-style streams. The
// altitude stream is smoothed with the default window before gradients
// are derived.
func FromStreams(latlng [][2]float64, altitudeM []float64) (*Course, error) {
	if len(latlng) != len(altitudeM) {
		return nil, ErrMismatchedStreams
	}
	points := make([]Point, len(latlng))
	for i, ll := range latlng {
		points[i] = Point{Lat: ll[0], Lon: ll[1], AltitudeM: altitudeM[i]}
	}
	return FromPoints(points)
}

// FromPoints builds a course from trace points, smoothing altitude
// with the default window.
func FromPoints(points []Point) (*Course, error) {
	if len(points) < 2 {
		return nil, ErrTooFewPoints
	}

	c := &Course{Points: points}
	smoothAltitude(c.Points, DefaultSmoothingWindow)

	n := len(points) - 1
	c.LegDistM = make([]float64, n)
	c.LegGradient = make([]float64, n)
	c.CumDistM = make([]float64, len(points))

	for i := 0; i < n; i++ {
		a, b := c.Points[i], c.Points[i+1]
		d := haversineM(a.Lat, a.Lon, b.Lat, b.Lon)
		c.LegDistM[i] = d
		c.CumDistM[i+1] = c.CumDistM[i] + d

		// Duplicate or stationary samples have no run to divide by;
		// their gradient contributes nothing anyway.
		if d > 0 {
			g := (b.AltitudeM - a.AltitudeM) / d
			c.LegGradient[i] = clampGradient(g)
		}
	}
	return c, nil
}

// TotalDistanceM is the course length in meters.
func (c *Course) TotalDistanceM() float64 {
	return c.CumDistM[len(c.CumDistM)-1]
}

// ElevationGainM sums the positive altitude deltas over the smoothed
// trace.
func (c *Course) ElevationGainM() float64 {
	var gain float64
	for i := 1; i < len(c.Points); i++ {
		if d := c.Points[i].AltitudeM - c.Points[i-1].AltitudeM; d > 0 {
			gain += d
		}
	}
	return gain
}

// ElevationLossM sums the negative altitude deltas over the smoothed
// trace, returned as a positive number.
func (c *Course) ElevationLossM() float64 {
	var loss float64
	for i := 1; i < len(c.Points); i++ {
		if d := c.Points[i].AltitudeM - c.Points[i-1].AltitudeM; d < 0 {
			loss -= d
		}
	}
	return loss
}

// smoothAltitude replaces each point's altitude with the centered
// moving average over the window. Edges use the partial window that
// fits, so endpoints keep a sane value instead of padding artifacts.
func smoothAltitude(points []Point, window int) {
	if window < 2 || len(points) < 3 {
		return
	}
	half := window / 2
	raw := make([]float64, len(points))
	for i, p := range points {
		raw[i] = p.AltitudeM
	}
	for i := range points {
		lo := i - half
		if lo < 0 {
			lo = 0
		}
		hi := i + half
		if hi > len(raw)-1 {
			hi = len(raw) - 1
		}
		var sum float64
		for j := lo; j <= hi; j++ {
			sum += raw[j]
		}
		points[i].AltitudeM = sum / float64(hi-lo+1)
	}
}

func clampGradient(g float64) float64 {
	if g > maxLegGradient {
		return maxLegGradient
	}
	if g < -maxLegGradient {
		return -maxLegGradient
	}
	return g
}

// haversineM is the great-circle distance between two coordinates in
// meters.
func haversineM(lat1, lon1, lat2, lon2 float64) float64 {
	rlat1 := lat1 * math.Pi / 180
	rlat2 := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)

	h := sinLat*sinLat + math.Cos(rlat1)*math.Cos(rlat2)*sinLon*sinLon
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusM * c
}
