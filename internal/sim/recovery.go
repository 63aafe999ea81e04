package sim

import "math"

// RecoveryModel computes the W' balance after riding below critical
// power for dt seconds. Implementations must never return a value above
// wMax.
type RecoveryModel interface {
	Recover(wMax, wCurrent, criticalPower, recoveryPower, dt float64) float64
}

// LinearRecovery restores W' proportionally to the power deficit below
// CP. This is the simulator default.
type LinearRecovery struct{}

func (LinearRecovery) Recover(wMax, wCurrent, criticalPower, recoveryPower, dt float64) float64 {
	deficit := criticalPower - recoveryPower
	if deficit <= 0 {
		return wCurrent
	}
	return math.Min(wCurrent+deficit*dt, wMax)
}

// Skiba time-constant coefficients for exponential W' reconstitution:
// tau = 2287.2 · DCP^-0.688, DCP the power deficit below CP.
const (
	skibaTauBase     = 2287.2
	skibaTauExponent = -0.688
)

// ExponentialRecovery is the Skiba-style reconstitution model: the W'
// deficit decays exponentially with a time constant that shortens as
// recovery power drops further below CP.
type ExponentialRecovery struct{}

func (ExponentialRecovery) Recover(wMax, wCurrent, criticalPower, recoveryPower, dt float64) float64 {
	deficit := criticalPower - recoveryPower
	if deficit <= 0 {
		return wCurrent
	}
	tau := skibaTauBase * math.Pow(deficit, skibaTauExponent)
	recovered := wMax - (wMax-wCurrent)*math.Exp(-dt/tau)
	return math.Min(recovered, wMax)
}
