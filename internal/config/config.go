package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"veloplan/internal/physics"
	"veloplan/internal/power"
)

// Config represents the application configuration
type Config struct {
	Strava  StravaConfig  `json:"strava"`
	Rider   RiderConfig   `json:"rider"`
	Pacing  PacingConfig  `json:"pacing"`
	Display DisplayConfig `json:"display"`
}

// StravaConfig holds Strava API credentials
type StravaConfig struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// RiderConfig holds the rider's physical parameters
type RiderConfig struct {
	WeightKg     float64 `json:"weight_kg"`
	BikeWeightKg float64 `json:"bike_weight_kg"`
	HeightM      float64 `json:"height_m"`
	BikeType     string  `json:"bike_type"` // Road, TT, Gravel, MTB
	Position     string  `json:"position"`  // Hoods, Drops, Aero, Flat

	// Archetype seeds the power profile before enough ride data exists:
	// time_trialist, sprinter or all_rounder.
	Archetype string `json:"archetype"`

	// CriticalPower overrides the fitted/estimated CP when > 0.
	CriticalPower float64 `json:"critical_power"`

	Crr             float64 `json:"crr"`              // rolling resistance coefficient
	DriveEfficiency float64 `json:"drive_efficiency"` // drivetrain efficiency (0..1]
}

// PacingConfig holds pacing optimizer defaults
type PacingConfig struct {
	TargetUtilization float64 `json:"target_utilization"` // fraction of W' to spend
	SegmentCount      int     `json:"segment_count"`      // course segmentation granularity
	WindMS            float64 `json:"wind_ms"`            // default head(-)/tail(+) wind
}

// DisplayConfig holds display preferences
type DisplayConfig struct {
	DistanceUnit string `json:"distance_unit"` // km or mi
}

// ErrNoConfig is returned when the config file doesn't exist
var ErrNoConfig = errors.New("config file not found")

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Rider: RiderConfig{
			WeightKg:        70,
			BikeWeightKg:    8,
			HeightM:         1.75,
			BikeType:        physics.BikeRoad,
			Position:        physics.PositionHoods,
			Archetype:       string(power.AllRounder),
			Crr:             0.005,
			DriveEfficiency: 1.0,
		},
		Pacing: PacingConfig{
			TargetUtilization: 0.85,
			SegmentCount:      10,
		},
		Display: DisplayConfig{
			DistanceUnit: "km",
		},
	}
}

// BikeParams builds the simulator's bike parameters from the rider
// configuration.
func (c *Config) BikeParams() physics.BikeParams {
	return physics.BikeParams{
		MassKg:          c.Rider.WeightKg + c.Rider.BikeWeightKg,
		CdA:             physics.EstimateCdA(c.Rider.BikeType, c.Rider.Position, c.Rider.HeightM),
		Crr:             c.Rider.Crr,
		DriveEfficiency: c.Rider.DriveEfficiency,
	}
}

// Load reads the configuration from ~/.veloplan/config.json
func Load() (*Config, error) {
	path, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNoConfig
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply defaults for missing values
	defaults := DefaultConfig()
	if cfg.Rider.WeightKg == 0 {
		cfg.Rider.WeightKg = defaults.Rider.WeightKg
	}
	if cfg.Rider.BikeWeightKg == 0 {
		cfg.Rider.BikeWeightKg = defaults.Rider.BikeWeightKg
	}
	if cfg.Rider.HeightM == 0 {
		cfg.Rider.HeightM = defaults.Rider.HeightM
	}
	if cfg.Rider.BikeType == "" {
		cfg.Rider.BikeType = defaults.Rider.BikeType
	}
	if cfg.Rider.Position == "" {
		cfg.Rider.Position = defaults.Rider.Position
	}
	if cfg.Rider.Archetype == "" {
		cfg.Rider.Archetype = defaults.Rider.Archetype
	}
	if cfg.Rider.Crr == 0 {
		cfg.Rider.Crr = defaults.Rider.Crr
	}
	if cfg.Rider.DriveEfficiency == 0 {
		cfg.Rider.DriveEfficiency = defaults.Rider.DriveEfficiency
	}
	if cfg.Pacing.TargetUtilization == 0 {
		cfg.Pacing.TargetUtilization = defaults.Pacing.TargetUtilization
	}
	if cfg.Pacing.SegmentCount == 0 {
		cfg.Pacing.SegmentCount = defaults.Pacing.SegmentCount
	}
	if cfg.Display.DistanceUnit == "" {
		cfg.Display.DistanceUnit = defaults.Display.DistanceUnit
	}

	return &cfg, nil
}

// Save writes the configuration to ~/.veloplan/config.json
func Save(cfg *Config) error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// CreateExample creates an example config file if none exists
func CreateExample() error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}

	// Check if config already exists
	if _, err := os.Stat(path); err == nil {
		return nil // Config exists, don't overwrite
	}

	example := DefaultConfig()
	example.Strava = StravaConfig{
		ClientID:     "YOUR_CLIENT_ID",
		ClientSecret: "YOUR_CLIENT_SECRET",
	}

	return Save(&example)
}

// Validate checks if the config has required fields
func (c *Config) Validate() error {
	if c.Strava.ClientID == "" || c.Strava.ClientID == "YOUR_CLIENT_ID" {
		return errors.New("strava.client_id is required - get it from https://www.strava.com/settings/api")
	}
	if c.Strava.ClientSecret == "" || c.Strava.ClientSecret == "YOUR_CLIENT_SECRET" {
		return errors.New("strava.client_secret is required - get it from https://www.strava.com/settings/api")
	}

	if c.Rider.WeightKg < 30 || c.Rider.WeightKg > 200 {
		return fmt.Errorf("rider.weight_kg must be between 30 and 200, got %v", c.Rider.WeightKg)
	}
	if c.Rider.HeightM < 1.0 || c.Rider.HeightM > 2.3 {
		return fmt.Errorf("rider.height_m must be between 1.0 and 2.3, got %v", c.Rider.HeightM)
	}
	switch c.Rider.BikeType {
	case physics.BikeRoad, physics.BikeTT, physics.BikeGravel, physics.BikeMTB:
	default:
		return fmt.Errorf("rider.bike_type must be one of Road, TT, Gravel, MTB, got %q", c.Rider.BikeType)
	}
	switch power.Archetype(c.Rider.Archetype) {
	case power.TimeTrialist, power.Sprinter, power.AllRounder:
	default:
		return fmt.Errorf("rider.archetype must be one of time_trialist, sprinter, all_rounder, got %q", c.Rider.Archetype)
	}
	if c.Rider.CriticalPower != 0 && (c.Rider.CriticalPower < 100 || c.Rider.CriticalPower > 500) {
		return fmt.Errorf("rider.critical_power must be between 100 and 500 watts, got %v", c.Rider.CriticalPower)
	}
	if c.Rider.DriveEfficiency <= 0 || c.Rider.DriveEfficiency > 1 {
		return fmt.Errorf("rider.drive_efficiency must be in (0, 1], got %v", c.Rider.DriveEfficiency)
	}

	if c.Pacing.TargetUtilization <= 0 || c.Pacing.TargetUtilization > 1 {
		return fmt.Errorf("pacing.target_utilization must be in (0, 1], got %v", c.Pacing.TargetUtilization)
	}
	if c.Pacing.SegmentCount < 1 || c.Pacing.SegmentCount > 100 {
		return fmt.Errorf("pacing.segment_count must be between 1 and 100, got %v", c.Pacing.SegmentCount)
	}

	if c.Display.DistanceUnit != "" && c.Display.DistanceUnit != "km" && c.Display.DistanceUnit != "mi" {
		return fmt.Errorf("display.distance_unit must be \"km\" or \"mi\", got %q", c.Display.DistanceUnit)
	}

	return nil
}

// getConfigPath returns the path to the config file
func getConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".veloplan", "config.json"), nil
}

// GetConfigDir returns the path to the config directory
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".veloplan"), nil
}
