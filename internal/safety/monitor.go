package safety

import (
	"context"
	"math"
	"sync"
	"time"

	channerics "github.com/niceyeti/channerics/channels"

	"github.com/flightpath-dev/vehiclecore/internal/config"
	"github.com/flightpath-dev/vehiclecore/internal/telemetry"
)

// ViolationType names a kind of runtime safety violation.
type ViolationType string

const (
	ViolationBatteryLow           ViolationType = "battery_low"
	ViolationBatteryCritical      ViolationType = "battery_critical"
	ViolationSpeedTooHigh         ViolationType = "speed_too_high"
	ViolationVerticalSpeedTooHigh ViolationType = "vertical_speed_too_high"
	ViolationGPSPoor              ViolationType = "gps_poor"
)

// Violation is delivered to every callback registered for its Type.
type Violation struct {
	Type     ViolationType
	Message  string
	Snapshot telemetry.Snapshot
}

// tickInterval is how often the monitor samples telemetry. Command
// cancellation does not pass through the monitor: a command's driver
// reacts to its handle's Cancelled channel directly.
const tickInterval = 500 * time.Millisecond

// Monitor is the cooperative background task that watches battery,
// speed and GPS quality while a vehicle is connected.
type Monitor struct {
	state  *telemetry.State
	limits config.SafetyLimits

	mu        sync.Mutex
	callbacks map[ViolationType][]func(Violation)

	onBatteryCritical func(context.Context)
}

// NewMonitor builds a Monitor sampling state under limits.
func NewMonitor(state *telemetry.State, limits config.SafetyLimits) *Monitor {
	return &Monitor{
		state:     state,
		limits:    limits,
		callbacks: make(map[ViolationType][]func(Violation)),
	}
}

// On registers cb to run whenever a violation of type t fires. At most
// one registered set of callbacks fires per type per tick.
func (m *Monitor) On(t ViolationType, cb func(Violation)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks[t] = append(m.callbacks[t], cb)
}

// SetBatteryFailsafe installs the action invoked when battery drops
// below critical_battery_percent and enable_battery_failsafe is set. The
// vehicle core supplies this (typically its own rtl()) to avoid this
// package depending on internal/vehicle.
func (m *Monitor) SetBatteryFailsafe(fn func(context.Context)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onBatteryCritical = fn
}

// Run samples telemetry every tickInterval until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	ticks := channerics.NewTicker(ctx.Done(), tickInterval)
	for range ticks {
		m.tick(ctx)
	}
}

func (m *Monitor) tick(ctx context.Context) {
	snap := m.state.Current()
	fired := make(map[ViolationType]bool, 4)

	raise := func(t ViolationType, message string) {
		if fired[t] {
			return
		}
		fired[t] = true
		m.dispatch(Violation{Type: t, Message: message, Snapshot: snap})
	}

	if snap.HaveBattery {
		if snap.Battery.Percentage < m.limits.CriticalBatteryPercent {
			raise(ViolationBatteryCritical, "battery critical")
			m.mu.Lock()
			failsafe := m.onBatteryCritical
			m.mu.Unlock()
			if m.limits.EnableBatteryFailsafe && failsafe != nil {
				go failsafe(ctx)
			}
		} else if snap.Battery.Percentage < m.limits.MinBatteryPercent {
			raise(ViolationBatteryLow, "battery low")
		}
	}

	if m.limits.EnableSpeedLimits {
		if snap.HaveGroundspeed && snap.Groundspeed > m.limits.MaxSpeed {
			raise(ViolationSpeedTooHigh, "groundspeed exceeds max_speed")
		}
		if snap.HaveVelocity && math.Abs(snap.Velocity.Down) > m.limits.MaxVerticalSpeed {
			raise(ViolationVerticalSpeedTooHigh, "vertical speed exceeds max_vertical_speed")
		}
	}

	if snap.HaveGPS && snap.GPS.Satellites < m.limits.MinSatellites {
		raise(ViolationGPSPoor, "gps satellite count below minimum")
	}
}

func (m *Monitor) dispatch(v Violation) {
	m.mu.Lock()
	cbs := append([]func(Violation){}, m.callbacks[v.Type]...)
	m.mu.Unlock()

	for _, cb := range cbs {
		cb(v)
	}
}
