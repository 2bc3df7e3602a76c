package config

import (
	"log"
	"os"
	"strconv"
)

// Load builds a Config from defaults overridden by environment variables,
// then validates it. Exits the process on an invalid configuration, matching
// how a mission launcher wants to fail before any vehicle is touched.
func Load() *Config {
	cfg := Default()

	if path := os.Getenv("VEHICLECORE_REGISTRY"); path != "" {
		cfg.VehicleRegistryPath = path
	}

	if level := os.Getenv("VEHICLECORE_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}

	if format := os.Getenv("VEHICLECORE_LOG_FORMAT"); format != "" {
		cfg.Logging.Format = format
	}

	if maxSpeed := os.Getenv("VEHICLECORE_MAX_SPEED"); maxSpeed != "" {
		if v, err := strconv.ParseFloat(maxSpeed, 64); err == nil {
			cfg.Safety.MaxSpeed = v
		}
	}

	if minBattery := os.Getenv("VEHICLECORE_MIN_BATTERY"); minBattery != "" {
		if v, err := strconv.ParseFloat(minBattery, 64); err == nil {
			cfg.Safety.MinBatteryPercent = v
		}
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: invalid configuration: %v", err)
	}

	return cfg
}
