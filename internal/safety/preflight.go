package safety

import (
	"fmt"

	"github.com/flightpath-dev/vehiclecore/internal/config"
	"github.com/flightpath-dev/vehiclecore/internal/telemetry"
)

// CheckResult is the outcome of one named pre-flight check.
type CheckResult struct {
	Passed  bool
	Message string
}

// PreflightResult is the outcome of the full pre-flight suite.
type PreflightResult struct {
	Checks       map[string]CheckResult
	Warnings     []string
	FailedChecks []string
	OK           bool
}

// RunPreflight evaluates the {config, gps, battery, connection} check
// suite against limits and the vehicle's current telemetry.
func RunPreflight(limits config.SafetyLimits, snap telemetry.Snapshot, connected bool) PreflightResult {
	result := PreflightResult{Checks: make(map[string]CheckResult, 4)}

	result.Checks["config"] = checkConfig(limits)
	result.Checks["connection"] = checkConnection(connected)
	result.Checks["gps"] = checkGPS(limits, snap)
	result.Checks["battery"] = checkBattery(limits, snap)

	for name, check := range result.Checks {
		if !check.Passed {
			result.FailedChecks = append(result.FailedChecks, name)
		}
	}
	result.OK = len(result.FailedChecks) == 0
	return result
}

func checkConfig(limits config.SafetyLimits) CheckResult {
	if limits.MaxSpeed <= 0 {
		return CheckResult{Message: "max_speed must be positive"}
	}
	if limits.MinAltitude >= limits.MaxAltitude {
		return CheckResult{Message: "min_altitude must be below max_altitude"}
	}
	return CheckResult{Passed: true, Message: "ok"}
}

func checkConnection(connected bool) CheckResult {
	if !connected {
		return CheckResult{Message: "no active heartbeat"}
	}
	return CheckResult{Passed: true, Message: "ok"}
}

func checkGPS(limits config.SafetyLimits, snap telemetry.Snapshot) CheckResult {
	if !limits.RequireGPSFix {
		return CheckResult{Passed: true, Message: "gps fix not required"}
	}
	if !snap.HaveGPS {
		return CheckResult{Message: "no gps telemetry received"}
	}
	if snap.GPS.Satellites < limits.MinSatellites {
		return CheckResult{Message: fmt.Sprintf("only %d satellites, need %d", snap.GPS.Satellites, limits.MinSatellites)}
	}
	return CheckResult{Passed: true, Message: "ok"}
}

func checkBattery(limits config.SafetyLimits, snap telemetry.Snapshot) CheckResult {
	if !snap.HaveBattery {
		return CheckResult{Message: "no battery telemetry received"}
	}
	if snap.Battery.Percentage < limits.MinBatteryPercent {
		return CheckResult{Message: fmt.Sprintf("battery at %.1f%%, need %.1f%%", snap.Battery.Percentage, limits.MinBatteryPercent)}
	}
	return CheckResult{Passed: true, Message: "ok"}
}
