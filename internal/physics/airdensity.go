package physics

import "math"

// Standard atmosphere constants
const (
	DryAirGasConstant     = 287.05   // J/(kg·K)
	WaterVaporGasConstant = 461.495  // J/(kg·K)
	SeaLevelTemperatureK  = 288.15   // K
	SeaLevelPressureHPa   = 1013.25  // hPa
	LapseRate             = 0.0065   // K/m
	StandardGravity       = 9.80665  // m/s²
	MolarMassAir          = 0.0289644 // kg/mol
	UniversalGasConstant  = 8.31447  // J/(mol·K)

	// SeaLevelAirDensity is the standard density used when no weather
	// data is available.
	SeaLevelAirDensity = 1.225 // kg/m³
)

// Weather holds the environmental inputs for an air density calculation.
type Weather struct {
	TemperatureC float64
	DewPointC    float64
	PressureHPa  float64 // sea-level pressure
	AltitudeM    float64
}

// DefaultWeather returns the standard conditions used when no weather
// data is supplied: 15°C, 10°C dew point, 1013.25 hPa, sea level.
func DefaultWeather() Weather {
	return Weather{
		TemperatureC: 15,
		DewPointC:    10,
		PressureHPa:  SeaLevelPressureHPa,
	}
}

// AirDensity computes air density (kg/m³) from temperature, dew point,
// sea-level pressure and altitude. Sea-level pressure is adjusted for
// altitude with the barometric formula, then partitioned into dry-air
// and water-vapor partial pressures whose ideal-gas contributions are
// summed.
func AirDensity(w Weather) float64 {
	tempK := w.TemperatureC + 273.15

	// Barometric adjustment of sea-level pressure for altitude.
	exponent := StandardGravity * MolarMassAir / (UniversalGasConstant * LapseRate)
	pressureHPa := w.PressureHPa * math.Pow(1-(LapseRate*w.AltitudeM)/SeaLevelTemperatureK, exponent)

	// Saturation vapor pressure at the dew point (Magnus-style), in hPa.
	vaporHPa := 6.11 * math.Pow(10, (7.5*w.DewPointC)/(237.3+w.DewPointC))

	dryPa := pressureHPa*100 - vaporHPa*100
	vaporPa := vaporHPa * 100

	return dryPa/(DryAirGasConstant*tempK) + vaporPa/(WaterVaporGasConstant*tempK)
}

// AirDensityAtAltitude computes density at a given altitude under
// otherwise standard conditions.
func AirDensityAtAltitude(altitudeM float64) float64 {
	w := DefaultWeather()
	w.AltitudeM = altitudeM
	return AirDensity(w)
}
