package power

// BestEffortProfile maps effort duration (seconds) to the best average
// power (watts) observed for that duration.
type BestEffortProfile map[int]float64

// StandardDurations are the effort windows tracked for the
// power-duration curve, spanning sprint to threshold efforts.
var StandardDurations = []int{60, 300, 600, 1200, 1800}

// MinStreamPoints is the minimum number of samples a power stream needs
// before any effort is extracted from it.
const MinStreamPoints = 30

// BestEffortsFromStream computes the maximal average power over every
// requested duration from a 1 Hz power stream, using prefix sums so each
// duration is a single O(n) sliding-window pass.
func BestEffortsFromStream(watts []float64, durations []int) BestEffortProfile {
	if len(watts) < MinStreamPoints {
		return nil
	}

	prefix := make([]float64, len(watts)+1)
	for i, w := range watts {
		prefix[i+1] = prefix[i] + w
	}

	efforts := make(BestEffortProfile)
	for _, d := range durations {
		if d <= 0 || d > len(watts) {
			continue
		}
		best := 0.0
		for i := 0; i+d <= len(watts); i++ {
			avg := (prefix[i+d] - prefix[i]) / float64(d)
			if avg > best {
				best = avg
			}
		}
		if best > 0 {
			efforts[d] = best
		}
	}

	if len(efforts) == 0 {
		return nil
	}
	return efforts
}

// Merge folds another profile into p, keeping the higher power for each
// duration. Used to accumulate a rider profile across many activities.
func (p BestEffortProfile) Merge(other BestEffortProfile) {
	for duration, watts := range other {
		if watts > p[duration] {
			p[duration] = watts
		}
	}
}

// DistinctDurations returns the number of distinct durations with a
// positive best power.
func (p BestEffortProfile) DistinctDurations() int {
	n := 0
	for _, watts := range p {
		if watts > 0 {
			n++
		}
	}
	return n
}
