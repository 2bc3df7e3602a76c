// Package mavlinkio abstracts the MAVLink wire link behind a small
// interface: connect to an endpoint, feed a telemetry.State from the
// inbound stream, and issue the fixed set of commands the vehicle core
// drives. Everything above this package talks to Adapter, never to
// gomavlib directly, so a fake can stand in during tests.
package mavlinkio

import (
	"context"
	"time"

	"github.com/flightpath-dev/vehiclecore/internal/geo"
)

// YawBehavior controls how a vehicle points while orbiting.
type YawBehavior int

const (
	YawBehaviorHoldFrontToCircleCenter YawBehavior = iota
	YawBehaviorUncontrolled
	YawBehaviorHoldFrontTangentToCircle
	YawBehaviorRCControlled
)

// OrbitDirection selects a clockwise or counter-clockwise orbit.
type OrbitDirection int

const (
	OrbitClockwise OrbitDirection = iota
	OrbitCounterClockwise
)

// Adapter is the wire-level contract the Vehicle Control Core drives.
// Implementations serialize outbound commands: at most one command is in
// flight on the wire at a time.
type Adapter interface {
	// Connect opens the link and blocks until the first heartbeat is
	// observed or ctx is done.
	Connect(ctx context.Context) error
	Close() error

	Arm(ctx context.Context) error
	Disarm(ctx context.Context, force bool) error
	Takeoff(ctx context.Context, altitude float64) error
	Land(ctx context.Context) error
	ReturnToLaunch(ctx context.Context) error
	Hold(ctx context.Context) error

	// GotoLocation streams a single global position setpoint; the caller
	// polls telemetry for arrival and re-issues as needed.
	GotoLocation(ctx context.Context, target geo.Coordinate, yaw *float64) error

	// SetVelocityNED streams a single NED velocity setpoint.
	SetVelocityNED(ctx context.Context, v geo.VectorNED, yaw *float64) error

	SetMaximumSpeed(ctx context.Context, metersPerSecond float64) error

	StartOrbit(ctx context.Context, center geo.Coordinate, radius, velocity float64, direction OrbitDirection, yaw YawBehavior) error
}

// connectTimeout bounds how long Connect waits for a first heartbeat when
// the caller's context carries no deadline of its own.
const connectTimeout = 10 * time.Second
