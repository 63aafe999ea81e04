package tui

import (
	"fmt"

	"veloplan/internal/config"
)

const (
	metersPerMile = 1609.34
	metersPerKm   = 1000.0
)

// Units provides unit conversion and formatting based on user preferences
type Units struct {
	cfg config.DisplayConfig
}

// NewUnits creates a new Units helper with the given display config
func NewUnits(cfg config.DisplayConfig) Units {
	return Units{cfg: cfg}
}

// FormatDistance formats a distance in meters to the user's preferred unit
func (u Units) FormatDistance(meters float64) string {
	if u.cfg.DistanceUnit == "mi" {
		return fmt.Sprintf("%.1f mi", meters/metersPerMile)
	}
	return fmt.Sprintf("%.1f km", meters/metersPerKm)
}

// FormatSpeed formats a speed in m/s to km/h or mph
func (u Units) FormatSpeed(metersPerSec float64) string {
	if u.cfg.DistanceUnit == "mi" {
		return fmt.Sprintf("%.1f mph", metersPerSec*3600/metersPerMile)
	}
	return fmt.Sprintf("%.1f km/h", metersPerSec*3600/metersPerKm)
}

// FormatElevation formats an elevation in meters to m or ft
func (u Units) FormatElevation(meters float64) string {
	if u.cfg.DistanceUnit == "mi" {
		return fmt.Sprintf("%.0f ft", meters*3.28084)
	}
	return fmt.Sprintf("%.0f m", meters)
}

// DistanceLabel returns the short unit label ("mi" or "km")
func (u Units) DistanceLabel() string {
	if u.cfg.DistanceUnit == "mi" {
		return "mi"
	}
	return "km"
}

// IsMiles returns true if distance unit is miles
func (u Units) IsMiles() bool {
	return u.cfg.DistanceUnit == "mi"
}

// FormatPower formats a power in watts
func FormatPower(watts float64) string {
	return fmt.Sprintf("%.0f W", watts)
}

// FormatDuration formats whole seconds as h m s
func FormatDuration(seconds float64) string {
	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%dh %02dm %02ds", h, m, s)
	}
	return fmt.Sprintf("%dm %02ds", m, s)
}
