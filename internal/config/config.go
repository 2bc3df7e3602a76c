// Package config holds the ambient and safety configuration surfaces:
// logging, the vehicle endpoint registry, and the SafetyLimits presets
// consulted by internal/safety.
package config

import (
	"fmt"
)

// SafetyLimits bounds every parameter the Vehicle Control Core validates
// before issuing a wire command.
type SafetyLimits struct {
	MaxSpeed               float64 // m/s, horizontal
	MaxVerticalSpeed       float64 // m/s
	MinBatteryPercent      float64
	CriticalBatteryPercent float64
	RequireGPSFix          bool
	MinSatellites          int
	MinAltitude            float64 // meters above home
	MaxAltitude            float64 // meters above home

	EnableSpeedLimits        bool
	EnableBatteryFailsafe    bool
	EnableParameterValidation bool
	EnablePreflightChecks    bool
	AutoClampValues          bool
}

// DefaultSafetyLimits is a balanced preset suitable for typical SITL and
// bench-test flights.
func DefaultSafetyLimits() SafetyLimits {
	return SafetyLimits{
		MaxSpeed:                  15,
		MaxVerticalSpeed:          5,
		MinBatteryPercent:         25,
		CriticalBatteryPercent:    10,
		RequireGPSFix:             true,
		MinSatellites:             6,
		MinAltitude:               -2,
		MaxAltitude:               120,
		EnableSpeedLimits:         true,
		EnableBatteryFailsafe:     true,
		EnableParameterValidation: true,
		EnablePreflightChecks:     true,
		AutoClampValues:           false,
	}
}

// RestrictiveSafetyLimits tightens every bound for cautious bench testing.
func RestrictiveSafetyLimits() SafetyLimits {
	l := DefaultSafetyLimits()
	l.MaxSpeed = 5
	l.MaxVerticalSpeed = 2
	l.MinBatteryPercent = 40
	l.CriticalBatteryPercent = 25
	l.MinSatellites = 8
	l.MaxAltitude = 30
	l.AutoClampValues = true
	return l
}

// PermissiveSafetyLimits widens bounds for experienced operators flying a
// known-good airframe.
func PermissiveSafetyLimits() SafetyLimits {
	l := DefaultSafetyLimits()
	l.MaxSpeed = 25
	l.MaxVerticalSpeed = 10
	l.MinBatteryPercent = 15
	l.CriticalBatteryPercent = 8
	l.MinSatellites = 5
	l.MaxAltitude = 400
	return l
}

// DisabledSafetyLimits turns every guard off. Parameters still must be
// finite; nothing else is checked.
func DisabledSafetyLimits() SafetyLimits {
	return SafetyLimits{
		MaxSpeed:         1e9,
		MaxVerticalSpeed: 1e9,
		MinAltitude:      -1e9,
		MaxAltitude:      1e9,
	}
}

// LoggingConfig controls the ambient logger.
type LoggingConfig struct {
	Level  string // "debug", "info", "warn", "error"
	Format string // "json", "text"
}

// Config is the top-level configuration for a mission process.
type Config struct {
	VehicleRegistryPath string // path to vehicles.yaml
	Safety              SafetyLimits
	Logging             LoggingConfig
}

// Default returns a Config with DefaultSafetyLimits and text logging.
func Default() *Config {
	return &Config{
		VehicleRegistryPath: "./config/vehicles.yaml",
		Safety:              DefaultSafetyLimits(),
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("config: invalid log level: %s", c.Logging.Level)
	}

	s := c.Safety
	if s.MaxSpeed <= 0 {
		return fmt.Errorf("config: max_speed must be positive")
	}
	if s.MaxVerticalSpeed <= 0 {
		return fmt.Errorf("config: max_vertical_speed must be positive")
	}
	if s.MinAltitude >= s.MaxAltitude {
		return fmt.Errorf("config: min_altitude must be below max_altitude")
	}
	if s.CriticalBatteryPercent > s.MinBatteryPercent {
		return fmt.Errorf("config: critical_battery_percent must not exceed min_battery_percent")
	}

	return nil
}
