package pacing

// Analysis summarizes an optimization result for reporting: course
// statistics, energy utilization and the standard training-load
// estimates derived from the recommended power.
type Analysis struct {
	PowerW          float64
	TotalSec        float64
	TotalDistanceKm float64
	AvgSpeedKmh     float64
	ElevationGainM  float64

	WUtilizationPct  float64
	FinalWRemainingJ float64
	TotalEnergyKJ    float64

	IntensityFactor float64
	TSSEstimate     float64
}

// Analyze derives the pacing report from an optimization result. For a
// constant-power strategy normalized power equals the power itself, so
// IF = P/CP and TSS = hours · IF² · 100.
func Analyze(r Result, criticalPower, wPrimeMax float64) Analysis {
	a := Analysis{
		PowerW:           r.PowerW,
		TotalSec:         r.Outcome.TotalSec,
		FinalWRemainingJ: r.Outcome.FinalWRemainingJ,
		TotalEnergyKJ:    r.Outcome.TotalEnergyJ / 1000,
	}

	for _, seg := range r.Outcome.Results {
		a.TotalDistanceKm += seg.Segment.DistanceM / 1000
		if seg.Segment.Gradient > 0 {
			a.ElevationGainM += seg.Segment.DistanceM * seg.Segment.Gradient
		}
	}

	if r.Outcome.Feasible() && a.TotalSec > 0 {
		a.AvgSpeedKmh = a.TotalDistanceKm / a.TotalSec * 3600
	}
	if wPrimeMax > 0 {
		a.WUtilizationPct = (wPrimeMax - a.FinalWRemainingJ) / wPrimeMax * 100
	}
	if criticalPower > 0 {
		a.IntensityFactor = r.PowerW / criticalPower
		if r.Outcome.Feasible() {
			a.TSSEstimate = a.TotalSec / 3600 * a.IntensityFactor * a.IntensityFactor * 100
		}
	}

	return a
}
