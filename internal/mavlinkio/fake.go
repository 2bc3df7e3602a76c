package mavlinkio

import (
	"context"
	"sync"

	"github.com/flightpath-dev/vehiclecore/internal/geo"
	"github.com/flightpath-dev/vehiclecore/internal/telemetry"
)

// Fake is an in-memory Adapter used by internal/vehicle and internal/mission
// tests. It records every call it receives and lets the test drive
// State directly to simulate telemetry arriving over the wire.
type Fake struct {
	State *telemetry.State

	mu       sync.Mutex
	Calls    []string
	Armed    bool
	Closed   bool
	LastGoto geo.Coordinate
	LastVel  geo.VectorNED

	// Hooks let a test fail a specific call.
	ArmErr, DisarmErr, TakeoffErr, LandErr, RTLErr, HoldErr error
	GotoErr, VelocityErr, MaxSpeedErr, OrbitErr             error
}

// NewFake returns a Fake bound to a fresh telemetry.State.
func NewFake() *Fake {
	return &Fake{State: telemetry.NewState()}
}

func (f *Fake) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, name)
}

func (f *Fake) Connect(ctx context.Context) error {
	f.record("connect")
	return nil
}

func (f *Fake) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	f.record("close")
	return nil
}

func (f *Fake) Arm(ctx context.Context) error {
	f.record("arm")
	if f.ArmErr != nil {
		return f.ArmErr
	}
	f.mu.Lock()
	f.Armed = true
	f.mu.Unlock()
	f.State.Mutate(func(s *telemetry.Snapshot) { s.HaveArmed = true; s.Armed = true })
	return nil
}

func (f *Fake) Disarm(ctx context.Context, force bool) error {
	f.record("disarm")
	if f.DisarmErr != nil {
		return f.DisarmErr
	}
	f.mu.Lock()
	f.Armed = false
	f.mu.Unlock()
	f.State.Mutate(func(s *telemetry.Snapshot) { s.HaveArmed = true; s.Armed = false })
	return nil
}

func (f *Fake) Takeoff(ctx context.Context, altitude float64) error {
	f.record("takeoff")
	return f.TakeoffErr
}

func (f *Fake) Land(ctx context.Context) error {
	f.record("land")
	return f.LandErr
}

func (f *Fake) ReturnToLaunch(ctx context.Context) error {
	f.record("rtl")
	return f.RTLErr
}

func (f *Fake) Hold(ctx context.Context) error {
	f.record("hold")
	return f.HoldErr
}

func (f *Fake) GotoLocation(ctx context.Context, target geo.Coordinate, yaw *float64) error {
	f.record("goto")
	f.mu.Lock()
	f.LastGoto = target
	f.mu.Unlock()
	return f.GotoErr
}

func (f *Fake) SetVelocityNED(ctx context.Context, v geo.VectorNED, yaw *float64) error {
	f.record("set_velocity")
	f.mu.Lock()
	f.LastVel = v
	f.mu.Unlock()
	return f.VelocityErr
}

func (f *Fake) SetMaximumSpeed(ctx context.Context, metersPerSecond float64) error {
	f.record("set_max_speed")
	return f.MaxSpeedErr
}

func (f *Fake) StartOrbit(ctx context.Context, center geo.Coordinate, radius, velocity float64, direction OrbitDirection, yaw YawBehavior) error {
	f.record("orbit")
	return f.OrbitErr
}

var _ Adapter = (*Fake)(nil)
