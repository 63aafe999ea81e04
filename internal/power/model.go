package power

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ErrInsufficientData is returned when fewer than two distinct effort
// durations are available; a two-parameter curve cannot be fitted from
// less. Callers should fall back to an archetype estimate.
var ErrInsufficientData = errors.New("need at least 2 distinct effort durations to fit CP/W'")

// Physiology is a fitted rider power model: the asymptote of the
// power-duration curve (CP) and the finite work capacity above it (W').
// Values are immutable once fitted.
type Physiology struct {
	CriticalPower float64 // watts
	WPrime        float64 // joules

	// Fit quality over the source efforts. Zero for archetype-derived
	// models.
	RSquared float64
	RMSE     float64
}

// PowerAt evaluates the power-duration curve P(t) = CP + W'/t.
func (p Physiology) PowerAt(durationSec float64) float64 {
	if durationSec <= 0 {
		return 0
	}
	return p.CriticalPower + p.WPrime/durationSec
}

// TimeToExhaustion returns how long the rider can hold a power above
// CP, or +Inf at or below CP.
func (p Physiology) TimeToExhaustion(watts float64) float64 {
	if watts <= p.CriticalPower {
		return math.Inf(1)
	}
	return p.WPrime / (watts - p.CriticalPower)
}

// Fit estimates CP and W' from best efforts by least squares on the
// hyperbolic model P(t) = CP + W'/t. The model is linear in the
// parameters over the basis (1, 1/t), so the fit is an exact
// design-matrix solve; negative parameters are clamped to zero and the
// remaining parameter re-solved, keeping both nonnegative.
func Fit(efforts BestEffortProfile) (Physiology, error) {
	durations := make([]int, 0, len(efforts))
	for d, watts := range efforts {
		if d > 0 && watts > 0 {
			durations = append(durations, d)
		}
	}
	if len(durations) < 2 {
		return Physiology{}, fmt.Errorf("%w: got %d", ErrInsufficientData, len(durations))
	}
	sort.Ints(durations)

	n := len(durations)
	design := mat.NewDense(n, 2, nil)
	observed := mat.NewVecDense(n, nil)
	for i, d := range durations {
		design.Set(i, 0, 1)
		design.Set(i, 1, 1/float64(d))
		observed.SetVec(i, efforts[d])
	}

	var qr mat.QR
	qr.Factorize(design)
	var solution mat.Dense
	if err := qr.SolveTo(&solution, false, observed); err != nil {
		return Physiology{}, fmt.Errorf("solving power-duration fit: %w", err)
	}

	cp := solution.At(0, 0)
	wPrime := solution.At(1, 0)

	// Nonnegativity: re-solve on the surviving basis column.
	if wPrime < 0 {
		wPrime = 0
		sum := 0.0
		for _, d := range durations {
			sum += efforts[d]
		}
		cp = sum / float64(n)
	}
	if cp < 0 {
		cp = 0
		num, den := 0.0, 0.0
		for _, d := range durations {
			inv := 1 / float64(d)
			num += efforts[d] * inv
			den += inv * inv
		}
		wPrime = num / den
	}

	model := Physiology{CriticalPower: cp, WPrime: wPrime}

	predicted := make([]float64, n)
	actual := make([]float64, n)
	sumSq := 0.0
	for i, d := range durations {
		predicted[i] = model.PowerAt(float64(d))
		actual[i] = efforts[d]
		r := actual[i] - predicted[i]
		sumSq += r * r
	}
	model.RSquared = stat.RSquaredFrom(predicted, actual, nil)
	model.RMSE = math.Sqrt(sumSq / float64(n))

	return model, nil
}
