package physics

import (
	"math"
	"testing"
)

func TestAirDensity_StandardConditions(t *testing.T) {
	rho := AirDensity(DefaultWeather())

	// 15°C with 10°C dew point at sea level: slightly below dry-air
	// density because of the water vapor fraction.
	if math.Abs(rho-1.2194) > 0.001 {
		t.Errorf("Expected ~1.2194 kg/m³ at standard conditions, got %.4f", rho)
	}
}

func TestAirDensity_KnownValues(t *testing.T) {
	cases := []struct {
		name    string
		weather Weather
		want    float64
	}{
		{"warm sea level", Weather{TemperatureC: 20, DewPointC: 10, PressureHPa: 1013.25}, 1.1986},
		{"hot humid 500m", Weather{TemperatureC: 30, DewPointC: 20, PressureHPa: 1000, AltitudeM: 500}, 1.0725},
		{"cool 1000m", Weather{TemperatureC: 15, DewPointC: 5, PressureHPa: 1020, AltitudeM: 1000}, 1.0898},
		{"cold dry 2000m", Weather{TemperatureC: 0, DewPointC: -5, PressureHPa: 1013.25, AltitudeM: 2000}, 1.0118},
	}

	for _, tc := range cases {
		got := AirDensity(tc.weather)
		if math.Abs(got-tc.want) > 0.001 {
			t.Errorf("%s: expected %.4f kg/m³, got %.4f", tc.name, tc.want, got)
		}
	}
}

func TestAirDensity_DecreasesWithAltitude(t *testing.T) {
	prev := AirDensityAtAltitude(0)
	for _, alt := range []float64{250, 500, 1000, 2000, 3000} {
		rho := AirDensityAtAltitude(alt)
		if rho >= prev {
			t.Errorf("Density should decrease with altitude: %.4f at %gm >= %.4f below", rho, alt, prev)
		}
		prev = rho
	}
}

func TestAirDensity_DecreasesWithHumidity(t *testing.T) {
	dry := AirDensity(Weather{TemperatureC: 25, DewPointC: 0, PressureHPa: 1013.25})
	humid := AirDensity(Weather{TemperatureC: 25, DewPointC: 22, PressureHPa: 1013.25})

	// Water vapor is lighter than dry air.
	if humid >= dry {
		t.Errorf("Humid air should be less dense: humid %.4f >= dry %.4f", humid, dry)
	}
}
