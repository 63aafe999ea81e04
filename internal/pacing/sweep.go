package pacing

import (
	"sync"

	"veloplan/internal/sim"
)

// SweepRow is one candidate power in a comparison sweep.
type SweepRow struct {
	PowerW  float64
	Outcome sim.Outcome
}

// Sweep simulates each candidate power over the course. Runs are
// independent (segments and physiology are read-only), so each
// candidate gets its own goroutine. Rows come back in candidate order;
// infeasible powers appear with an infinite total time rather than
// being dropped, so callers can render the full comparison table.
func Sweep(s *sim.Simulator, criticalPower, wPrimeMax float64, segments []sim.Segment, candidates []float64) ([]SweepRow, error) {
	if err := sim.ValidateSegments(segments); err != nil {
		return nil, err
	}

	rows := make([]SweepRow, len(candidates))
	var wg sync.WaitGroup
	for i, powerW := range candidates {
		wg.Add(1)
		go func(i int, powerW float64) {
			defer wg.Done()
			out, _ := s.Simulate(powerW, criticalPower, wPrimeMax, segments)
			rows[i] = SweepRow{PowerW: powerW, Outcome: out}
		}(i, powerW)
	}
	wg.Wait()

	return rows, nil
}

// SweepRange builds evenly spaced candidates across [lo, hi] and runs
// a sweep over them.
func SweepRange(s *sim.Simulator, criticalPower, wPrimeMax float64, segments []sim.Segment, lo, hi float64, n int) ([]SweepRow, error) {
	if n < 2 || hi <= lo {
		return Sweep(s, criticalPower, wPrimeMax, segments, []float64{lo})
	}
	candidates := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range candidates {
		candidates[i] = lo + float64(i)*step
	}
	return Sweep(s, criticalPower, wPrimeMax, segments, candidates)
}
