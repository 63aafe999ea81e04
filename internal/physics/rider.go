package physics

// Bike types and riding positions recognized by the CdA estimator.
const (
	BikeRoad   = "Road"
	BikeTT     = "TT"
	BikeGravel = "Gravel"
	BikeMTB    = "MTB"

	PositionHoods = "Hoods"
	PositionDrops = "Drops"
	PositionAero  = "Aero"
	PositionFlat  = "Flat"
)

// baselineCdA maps bike type and position to a baseline drag area in m².
var baselineCdA = map[string]map[string]float64{
	BikeRoad:   {PositionHoods: 0.35, PositionDrops: 0.33, PositionAero: 0.30},
	BikeTT:     {PositionAero: 0.22},
	BikeGravel: {PositionHoods: 0.38, PositionDrops: 0.36},
	BikeMTB:    {PositionFlat: 0.40},
}

// referenceHeightM is the rider height the baseline table is normalized to.
const referenceHeightM = 1.75

// EstimateCdA estimates drag area from bike type, riding position and
// rider height. Taller riders present more frontal area, so the
// baseline is scaled linearly by height. Unknown bike/position
// combinations fall back to the road-bike hoods baseline.
func EstimateCdA(bikeType, position string, heightM float64) float64 {
	base := 0.35
	if positions, ok := baselineCdA[bikeType]; ok {
		if cda, ok := positions[position]; ok {
			base = cda
		}
	}
	if heightM <= 0 {
		return base
	}
	return base * heightM / referenceHeightM
}
