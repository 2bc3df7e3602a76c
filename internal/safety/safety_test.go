package safety

import (
	"context"
	"testing"
	"time"

	"github.com/flightpath-dev/vehiclecore/internal/config"
	"github.com/flightpath-dev/vehiclecore/internal/geo"
	"github.com/flightpath-dev/vehiclecore/internal/telemetry"
)

func TestValidateSpeedWithinLimit(t *testing.T) {
	limits := config.DefaultSafetyLimits()
	r := ValidateSpeed(limits.MaxSpeed-1, limits)
	if !r.OK {
		t.Fatalf("expected speed within limit to validate: %+v", r)
	}
}

func TestValidateSpeedAboveLimit(t *testing.T) {
	limits := config.DefaultSafetyLimits()
	r := ValidateSpeed(limits.MaxSpeed+1, limits)
	if r.OK {
		t.Fatalf("expected speed above limit to fail")
	}
}

func TestValidateAltitudeOutOfRange(t *testing.T) {
	limits := config.DefaultSafetyLimits()
	if r := ValidateAltitude(limits.MaxAltitude+10, limits); r.OK {
		t.Fatal("expected altitude above max to fail")
	}
	if r := ValidateAltitude(limits.MinAltitude-10, limits); r.OK {
		t.Fatal("expected altitude below min to fail")
	}
}

func TestValidateToleranceFloor(t *testing.T) {
	if ValidateTolerance(0.05).OK {
		t.Fatal("expected sub-0.1m tolerance to fail")
	}
	if !ValidateTolerance(2).OK {
		t.Fatal("expected 2m tolerance to pass")
	}
}

func TestValidateTimeoutBounds(t *testing.T) {
	if ValidateTimeout(0).OK {
		t.Fatal("expected zero timeout to fail")
	}
	if ValidateTimeout(2 * time.Hour).OK {
		t.Fatal("expected timeout over one hour to fail")
	}
	if !ValidateTimeout(30 * time.Second).OK {
		t.Fatal("expected 30s timeout to pass")
	}
}

func TestClampSpeed(t *testing.T) {
	limits := config.DefaultSafetyLimits()
	if got := ClampSpeed(limits.MaxSpeed+5, limits); got != limits.MaxSpeed {
		t.Fatalf("expected clamp to max_speed, got %v", got)
	}
	if got := ClampSpeed(limits.MaxSpeed-5, limits); got != limits.MaxSpeed-5 {
		t.Fatalf("expected identity below max_speed, got %v", got)
	}
}

func TestClampVelocityPreservesDirection(t *testing.T) {
	limits := config.DefaultSafetyLimits()
	v := geo.VectorNED{North: limits.MaxSpeed * 2, East: 0, Down: 0}
	clamped := ClampVelocity(v, limits)

	if clamped.MagnitudeHorizontal() > limits.MaxSpeed+1e-9 {
		t.Fatalf("expected horizontal magnitude clamped to max_speed, got %v", clamped.MagnitudeHorizontal())
	}
	if clamped.East != 0 {
		t.Fatalf("expected direction preserved (east still 0), got %v", clamped.East)
	}
}

func TestClampVelocityVerticalIndependent(t *testing.T) {
	limits := config.DefaultSafetyLimits()
	v := geo.VectorNED{North: 1, East: 0, Down: limits.MaxVerticalSpeed * 3}
	clamped := ClampVelocity(v, limits)
	if clamped.Down != limits.MaxVerticalSpeed {
		t.Fatalf("expected down clamped to max_vertical_speed, got %v", clamped.Down)
	}
}

func TestPreflightFailsOnLowBattery(t *testing.T) {
	limits := config.DefaultSafetyLimits()
	limits.MinBatteryPercent = 95

	snap := telemetry.Snapshot{
		HaveBattery: true,
		Battery:     telemetry.Battery{Percentage: 80},
		HaveGPS:     true,
		GPS:         telemetry.GPS{Satellites: 10, FixType: 3},
	}

	result := RunPreflight(limits, snap, true)
	if result.OK {
		t.Fatal("expected preflight to fail on low battery")
	}
	found := false
	for _, name := range result.FailedChecks {
		if name == "battery" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected 'battery' in failed checks, got %v", result.FailedChecks)
	}
}

func TestPreflightPassesWhenHealthy(t *testing.T) {
	limits := config.DefaultSafetyLimits()
	snap := telemetry.Snapshot{
		HaveBattery: true,
		Battery:     telemetry.Battery{Percentage: 90},
		HaveGPS:     true,
		GPS:         telemetry.GPS{Satellites: 12, FixType: 3},
	}
	result := RunPreflight(limits, snap, true)
	if !result.OK {
		t.Fatalf("expected preflight to pass, got failed checks: %v", result.FailedChecks)
	}
}

func TestMonitorFiresBatteryCritical(t *testing.T) {
	state := telemetry.NewState()
	limits := config.DefaultSafetyLimits()
	limits.EnableBatteryFailsafe = true

	state.Mutate(func(s *telemetry.Snapshot) {
		s.HaveBattery = true
		s.Battery = telemetry.Battery{Percentage: limits.CriticalBatteryPercent - 1}
	})

	m := NewMonitor(state, limits)

	fired := make(chan Violation, 1)
	m.On(ViolationBatteryCritical, func(v Violation) { fired <- v })

	rtlCalled := make(chan struct{}, 1)
	m.SetBatteryFailsafe(func(ctx context.Context) { rtlCalled <- struct{}{} })

	m.tick(context.Background())

	select {
	case v := <-fired:
		if v.Type != ViolationBatteryCritical {
			t.Fatalf("unexpected violation type: %v", v.Type)
		}
	default:
		t.Fatal("expected battery critical violation to fire")
	}

	select {
	case <-rtlCalled:
	case <-time.After(time.Second):
		t.Fatal("expected battery failsafe to be invoked")
	}
}

func TestMonitorFiresGPSPoor(t *testing.T) {
	state := telemetry.NewState()
	limits := config.DefaultSafetyLimits()

	state.Mutate(func(s *telemetry.Snapshot) {
		s.HaveGPS = true
		s.GPS = telemetry.GPS{Satellites: limits.MinSatellites - 1}
	})

	m := NewMonitor(state, limits)
	fired := make(chan Violation, 1)
	m.On(ViolationGPSPoor, func(v Violation) { fired <- v })

	m.tick(context.Background())

	select {
	case <-fired:
	default:
		t.Fatal("expected gps poor violation to fire")
	}
}
