package vehicle

import (
	"context"
	"math"
	"time"

	"github.com/flightpath-dev/vehiclecore/internal/command"
	"github.com/flightpath-dev/vehiclecore/internal/geo"
	"github.com/flightpath-dev/vehiclecore/internal/mavlinkio"
	"github.com/flightpath-dev/vehiclecore/internal/safety"
	"github.com/flightpath-dev/vehiclecore/internal/telemetry"
	"github.com/flightpath-dev/vehiclecore/internal/vehicleerr"
)

// Default command timeouts and tolerances, used when the caller's
// Options leaves the corresponding field zero.
const (
	defaultTakeoffTimeout    = 60 * time.Second
	defaultLandTimeout       = 120 * time.Second
	defaultRtlTimeout        = 180 * time.Second
	defaultGotoTimeout       = 300 * time.Second
	defaultHeadingTimeout    = 30 * time.Second
	defaultOrbitTimeout      = 10 * time.Minute
	defaultAltitudeTimeout   = 60 * time.Second
	defaultAltitudeTolerance = 0.5
	defaultHeadingTolerance  = 2.0 // degrees
)

func currentAltitude(snap telemetry.Snapshot) float64 {
	if snap.HavePosition {
		return snap.Position.Altitude
	}
	return 0
}

// TakeoffOptions configures Takeoff.
type TakeoffOptions struct {
	Timeout time.Duration
	Wait    bool
}

// Takeoff arms no one implicitly; the vehicle must already be armed.
// Completion predicate: in_air && altitude >= target-0.5m.
func (v *Vehicle) Takeoff(ctx context.Context, altitude float64, opts TakeoffOptions) (*command.Handle, error) {
	res := safety.ValidateAltitude(altitude, v.limits)
	if !res.OK {
		if v.limits.AutoClampValues {
			altitude = clampAltitude(altitude, v.limits.MinAltitude, v.limits.MaxAltitude)
		} else {
			return nil, &vehicleerr.ParameterValidationError{Parameter: "altitude", Value: res.Value, Limit: res.Limit, Message: res.Message}
		}
	}

	if v.fence != nil {
		if cur := v.state.Current(); cur.HavePosition {
			ok, reason, err := v.fence.ValidateTakeoff(cur.Position.Latitude, cur.Position.Longitude, altitude)
			if err != nil {
				return nil, err
			}
			if !ok {
				v.metrics.RecordGeofenceReject("takeoff")
				return nil, &vehicleerr.GeofenceViolationError{CurrentPosition: cur.Position.String(), TargetPosition: "takeoff", Reason: reason}
			}
		}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTakeoffTimeout
	}

	h, err := v.allocate("takeoff", timeout, func(c context.Context) error { return v.adapter.Hold(c) }, true)
	if err != nil {
		return nil, err
	}

	if err := v.adapter.Takeoff(ctx, altitude); err != nil {
		h.Fail(&vehicleerr.TakeoffError{Reason: err.Error()})
		v.finish(h)
		return h, nil
	}

	deadline := time.Now().Add(timeout)
	go v.runLoop(ctx, h, deadline,
		func(snap telemetry.Snapshot) error {
			return &vehicleerr.TakeoffTimeoutError{AltitudeRemaining: altitude - currentAltitude(snap)}
		},
		func(snap telemetry.Snapshot) stepResult {
			current := currentAltitude(snap)
			done := snap.HaveInAir && snap.InAir && current >= altitude-defaultAltitudeTolerance
			return stepResult{
				done: done,
				progress: map[string]any{
					"current_altitude":   current,
					"target_altitude":    altitude,
					"altitude_remaining": altitude - current,
				},
			}
		})

	if opts.Wait {
		h.Wait(ctx, 0)
	}
	return h, nil
}

func clampAltitude(alt, min, max float64) float64 {
	if alt < min {
		return min
	}
	if alt > max {
		return max
	}
	return alt
}

// LandOptions configures Land.
type LandOptions struct {
	Timeout time.Duration
	Wait    bool
}

// Land implicitly cancels any active navigation command.
func (v *Vehicle) Land(ctx context.Context, opts LandOptions) (*command.Handle, error) {
	v.preemptActive(ctx)

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultLandTimeout
	}

	h, err := v.allocate("land", timeout, nil, true)
	if err != nil {
		return nil, err
	}

	if err := v.adapter.Land(ctx); err != nil {
		h.Fail(&vehicleerr.LandingError{Reason: err.Error()})
		v.finish(h)
		return h, nil
	}

	deadline := time.Now().Add(timeout)
	go v.runLoop(ctx, h, deadline,
		func(telemetry.Snapshot) error { return &vehicleerr.LandingTimeoutError{} },
		func(snap telemetry.Snapshot) stepResult {
			done := snap.HaveLandedState && snap.LandedState == telemetry.LandedStateOnGround &&
				snap.HaveArmed && !snap.Armed
			return stepResult{
				done: done,
				progress: map[string]any{
					"current_altitude": currentAltitude(snap),
					"landed_state":     snap.LandedState,
					"armed":            snap.Armed,
				},
			}
		})

	if opts.Wait {
		h.Wait(ctx, 0)
	}
	return h, nil
}

// RtlOptions configures Rtl.
type RtlOptions struct {
	Timeout time.Duration
	Wait    bool
}

// Rtl implicitly cancels any active navigation command.
func (v *Vehicle) Rtl(ctx context.Context, opts RtlOptions) (*command.Handle, error) {
	v.preemptActive(ctx)

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultRtlTimeout
	}

	h, err := v.allocate("rtl", timeout, nil, true)
	if err != nil {
		return nil, err
	}

	if err := v.adapter.ReturnToLaunch(ctx); err != nil {
		h.Fail(&vehicleerr.NavigationError{Reason: err.Error()})
		v.finish(h)
		return h, nil
	}

	deadline := time.Now().Add(timeout)
	go v.runLoop(ctx, h, deadline,
		func(telemetry.Snapshot) error { return &vehicleerr.LandingTimeoutError{} },
		func(snap telemetry.Snapshot) stepResult {
			distance, _ := snap.DistanceToHome()
			done := distance <= 2 && snap.HaveLandedState && snap.LandedState == telemetry.LandedStateOnGround
			return stepResult{
				done: done,
				progress: map[string]any{
					"distance_to_home":  distance,
					"current_altitude":  currentAltitude(snap),
					"landed_state":      snap.LandedState,
				},
			}
		})

	if opts.Wait {
		h.Wait(ctx, 0)
	}
	return h, nil
}

// Hold issues an immediate position hold. It does not allocate a Command
// Handle of its own: it is the cancel action every other navigation
// command declares, and it completes instantaneously.
func (v *Vehicle) Hold(ctx context.Context) error {
	v.preemptActive(ctx)
	if err := v.adapter.Hold(ctx); err != nil {
		return &vehicleerr.NavigationError{Reason: err.Error()}
	}
	return nil
}

// GotoOptions configures Goto.
type GotoOptions struct {
	Tolerance float64
	Speed     *float64
	Heading   *float64
	Timeout   time.Duration
	Wait      bool
}

// Goto navigates to target. Completion predicate:
// position.distance_to(target) <= tolerance.
func (v *Vehicle) Goto(ctx context.Context, target geo.Coordinate, opts GotoOptions) (*command.Handle, error) {
	if res := safety.ValidateCoordinate(target); !res.OK {
		return nil, &vehicleerr.ParameterValidationError{Parameter: "target", Message: res.Message}
	}

	tolerance := opts.Tolerance
	if tolerance <= 0 {
		tolerance = geo.DefaultAcceptanceRadius
	}
	if res := safety.ValidateTolerance(tolerance); !res.OK {
		return nil, &vehicleerr.ParameterValidationError{Parameter: "tolerance", Value: res.Value, Limit: res.Limit, Message: res.Message}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultGotoTimeout
	}
	if res := safety.ValidateTimeout(timeout); !res.OK {
		return nil, &vehicleerr.ParameterValidationError{Parameter: "timeout", Value: res.Value, Limit: res.Limit, Message: res.Message}
	}

	speed := opts.Speed
	if speed != nil {
		if res := safety.ValidateSpeed(*speed, v.limits); !res.OK {
			if v.limits.AutoClampValues {
				clamped := safety.ClampSpeed(*speed, v.limits)
				speed = &clamped
			} else {
				return nil, &vehicleerr.SpeedLimitExceededError{Value: res.Value, Limit: res.Limit}
			}
		}
	}

	cur := v.state.Current()
	if v.fence != nil && cur.HavePosition {
		ok, reason, err := v.fence.ValidateWaypoint(cur.Position, target)
		if err != nil {
			return nil, err
		}
		if !ok {
			v.metrics.RecordGeofenceReject("goto")
			return nil, &vehicleerr.GeofenceViolationError{
				CurrentPosition: cur.Position.String(), TargetPosition: target.String(), Reason: reason,
			}
		}
	}

	h, err := v.allocate("goto", timeout, func(c context.Context) error { return v.adapter.Hold(c) }, true)
	if err != nil {
		return nil, err
	}

	if speed != nil {
		if err := v.adapter.SetMaximumSpeed(ctx, *speed); err != nil {
			h.Fail(&vehicleerr.NavigationError{Reason: err.Error()})
			v.finish(h)
			return h, nil
		}
	}
	if err := v.adapter.GotoLocation(ctx, target, opts.Heading); err != nil {
		h.Fail(&vehicleerr.NavigationError{Reason: err.Error()})
		v.finish(h)
		return h, nil
	}

	deadline := time.Now().Add(timeout)
	go v.runLoop(ctx, h, deadline,
		func(snap telemetry.Snapshot) error {
			remaining := tolerance
			if snap.HavePosition {
				remaining = snap.Position.DistanceTo(target)
			}
			return &vehicleerr.GotoTimeoutError{DistanceRemaining: remaining}
		},
		func(snap telemetry.Snapshot) stepResult {
			if !snap.HavePosition {
				return stepResult{progress: map[string]any{"target": target, "tolerance": tolerance}}
			}
			distance := snap.Position.DistanceTo(target)
			return stepResult{
				done: distance <= tolerance,
				progress: map[string]any{
					"distance":  distance,
					"target":    target,
					"tolerance": tolerance,
				},
			}
		})

	if opts.Wait {
		h.Wait(ctx, 0)
	}
	return h, nil
}

// SetHeadingOptions configures SetHeading.
type SetHeadingOptions struct {
	Timeout time.Duration
	Wait    bool
}

// signedHeadingDiff returns the signed shortest angular difference
// target-current in degrees, in [-180, 180).
func signedHeadingDiff(current, target float64) float64 {
	diff := math.Mod(target-current+540, 360) - 180
	return diff
}

// SetHeading yaws to the target heading in place. Completion predicate:
// |signed shortest diff| <= 2 degrees.
func (v *Vehicle) SetHeading(ctx context.Context, target float64, opts SetHeadingOptions) (*command.Handle, error) {
	target = math.Mod(target, 360)
	if target < 0 {
		target += 360
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultHeadingTimeout
	}

	h, err := v.allocate("set_heading", timeout, func(c context.Context) error { return v.adapter.Hold(c) }, true)
	if err != nil {
		return nil, err
	}

	cur := v.state.Current()
	yaw := target
	var dest geo.Coordinate
	if cur.HavePosition {
		dest = cur.Position
	}
	if err := v.adapter.GotoLocation(ctx, dest, &yaw); err != nil {
		h.Fail(&vehicleerr.NavigationError{Reason: err.Error()})
		v.finish(h)
		return h, nil
	}

	deadline := time.Now().Add(timeout)
	go v.runLoop(ctx, h, deadline,
		func(snap telemetry.Snapshot) error {
			return &vehicleerr.NavigationError{Reason: "set_heading timed out"}
		},
		func(snap telemetry.Snapshot) stepResult {
			diff := signedHeadingDiff(snap.Heading, target)
			return stepResult{
				done: math.Abs(diff) <= defaultHeadingTolerance,
				progress: map[string]any{
					"current_heading": snap.Heading,
					"target_heading":  target,
					"heading_diff":    diff,
				},
			}
		})

	if opts.Wait {
		h.Wait(ctx, 0)
	}
	return h, nil
}

// SetVelocityOptions configures SetVelocity. A zero Duration means
// continuous: the command never self-terminates and must be cancelled
// or superseded by another command.
type SetVelocityOptions struct {
	Heading  *float64
	Duration time.Duration
	Wait     bool
}

// SetVelocity streams a single NED velocity setpoint.
func (v *Vehicle) SetVelocity(ctx context.Context, velocity geo.VectorNED, opts SetVelocityOptions) (*command.Handle, error) {
	if res := safety.ValidateVelocity(velocity, v.limits); !res.OK {
		if v.limits.AutoClampValues {
			velocity = safety.ClampVelocity(velocity, v.limits)
		} else {
			return nil, &vehicleerr.SpeedLimitExceededError{Value: res.Value, Limit: res.Limit}
		}
	}

	// Continuous set_velocity has no deadline, so allocate with timeout=0;
	// command.Handle's own TimeRemaining for a zero timeout is always
	// zero, which is only ever consulted by Wait's own caller-supplied
	// timeout, not by this driver's loop.
	timeout := opts.Duration

	h, err := v.allocate("set_velocity", timeout, func(c context.Context) error { return v.adapter.Hold(c) }, true)
	if err != nil {
		return nil, err
	}

	if err := v.adapter.SetVelocityNED(ctx, velocity, opts.Heading); err != nil {
		h.Fail(&vehicleerr.NavigationError{Reason: err.Error()})
		v.finish(h)
		return h, nil
	}

	started := time.Now()
	var deadline time.Time
	if opts.Duration > 0 {
		deadline = started.Add(opts.Duration)
	}

	go v.runLoop(ctx, h, deadline,
		func(telemetry.Snapshot) error { return &vehicleerr.NavigationError{Reason: "set_velocity timed out"} },
		func(snap telemetry.Snapshot) stepResult {
			elapsed := time.Since(started)
			done := opts.Duration > 0 && elapsed >= opts.Duration
			remaining := time.Duration(0)
			if opts.Duration > elapsed {
				remaining = opts.Duration - elapsed
			}
			return stepResult{
				done: done,
				progress: map[string]any{
					"elapsed":        elapsed,
					"duration":       opts.Duration,
					"time_remaining": remaining,
				},
			}
		})

	if opts.Wait {
		h.Wait(ctx, 0)
	}
	return h, nil
}

// SetGroundspeed sets the vehicle's maximum groundspeed for subsequent
// navigation commands. This is a direct wire call, not a Command Handle:
// there's no progress to report for it.
func (v *Vehicle) SetGroundspeed(ctx context.Context, metersPerSecond float64) error {
	if res := safety.ValidateSpeed(metersPerSecond, v.limits); !res.OK {
		if v.limits.AutoClampValues {
			metersPerSecond = safety.ClampSpeed(metersPerSecond, v.limits)
		} else {
			return &vehicleerr.SpeedLimitExceededError{Value: res.Value, Limit: res.Limit}
		}
	}
	if err := v.adapter.SetMaximumSpeed(ctx, metersPerSecond); err != nil {
		return &vehicleerr.NavigationError{Reason: err.Error()}
	}
	return nil
}

// SetAltitudeOptions configures SetAltitude.
type SetAltitudeOptions struct {
	Tolerance float64
	Timeout   time.Duration
	Wait      bool
}

// SetAltitude climbs or descends to target altitude while holding the
// current lat/lon.
func (v *Vehicle) SetAltitude(ctx context.Context, target float64, opts SetAltitudeOptions) (*command.Handle, error) {
	if res := safety.ValidateAltitude(target, v.limits); !res.OK {
		if v.limits.AutoClampValues {
			target = clampAltitude(target, v.limits.MinAltitude, v.limits.MaxAltitude)
		} else {
			return nil, &vehicleerr.ParameterValidationError{Parameter: "altitude", Value: res.Value, Limit: res.Limit, Message: res.Message}
		}
	}

	tolerance := opts.Tolerance
	if tolerance <= 0 {
		tolerance = defaultAltitudeTolerance
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultAltitudeTimeout
	}

	cur := v.state.Current()
	if !cur.HavePosition {
		return nil, &vehicleerr.UnavailableTelemetry{Field: "position"}
	}
	dest := cur.Position
	dest.Altitude = target

	h, err := v.allocate("set_altitude", timeout, func(c context.Context) error { return v.adapter.Hold(c) }, true)
	if err != nil {
		return nil, err
	}

	if err := v.adapter.GotoLocation(ctx, dest, nil); err != nil {
		h.Fail(&vehicleerr.NavigationError{Reason: err.Error()})
		v.finish(h)
		return h, nil
	}

	deadline := time.Now().Add(timeout)
	go v.runLoop(ctx, h, deadline,
		func(snap telemetry.Snapshot) error {
			return &vehicleerr.NavigationError{Reason: "set_altitude timed out"}
		},
		func(snap telemetry.Snapshot) stepResult {
			current := currentAltitude(snap)
			return stepResult{
				done: math.Abs(target-current) <= tolerance,
				progress: map[string]any{
					"current_altitude": current,
					"target_altitude":  target,
				},
			}
		})

	if opts.Wait {
		h.Wait(ctx, 0)
	}
	return h, nil
}

// OrbitOptions configures Orbit.
type OrbitOptions struct {
	Speed       float64
	Clockwise   bool
	Revolutions float64
	Timeout     time.Duration
	Wait        bool
}

// Orbit circles center at radius meters. Completion predicate: the
// accumulated angular travel (sign-preserving unwrap of the bearing from
// center to position) reaches 2*pi*revolutions.
func (v *Vehicle) Orbit(ctx context.Context, center geo.Coordinate, radius float64, opts OrbitOptions) (*command.Handle, error) {
	speed := opts.Speed
	if speed <= 0 {
		speed = 5
	}
	if res := safety.ValidateSpeed(speed, v.limits); !res.OK {
		if v.limits.AutoClampValues {
			speed = safety.ClampSpeed(speed, v.limits)
		} else {
			return nil, &vehicleerr.SpeedLimitExceededError{Value: res.Value, Limit: res.Limit}
		}
	}

	revolutions := opts.Revolutions
	if revolutions <= 0 {
		revolutions = 1
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultOrbitTimeout
	}

	direction := mavlinkio.OrbitClockwise
	if !opts.Clockwise {
		direction = mavlinkio.OrbitCounterClockwise
	}

	h, err := v.allocate("orbit", timeout, func(c context.Context) error { return v.adapter.Hold(c) }, true)
	if err != nil {
		return nil, err
	}

	if err := v.adapter.StartOrbit(ctx, center, radius, speed, direction, mavlinkio.YawBehaviorHoldFrontToCircleCenter); err != nil {
		h.Fail(&vehicleerr.NavigationError{Reason: err.Error()})
		v.finish(h)
		return h, nil
	}

	started := time.Now()
	targetAngle := 2 * math.Pi * revolutions

	var haveLastBearing bool
	var lastBearing, accumulated float64

	deadline := started.Add(timeout)
	go v.runLoop(ctx, h, deadline,
		func(telemetry.Snapshot) error { return &vehicleerr.NavigationError{Reason: "orbit timed out"} },
		func(snap telemetry.Snapshot) stepResult {
			if !snap.HavePosition {
				return stepResult{}
			}
			bearing := center.BearingTo(snap.Position) * math.Pi / 180

			if haveLastBearing {
				delta := bearing - lastBearing
				for delta > math.Pi {
					delta -= 2 * math.Pi
				}
				for delta < -math.Pi {
					delta += 2 * math.Pi
				}
				accumulated += math.Abs(delta)
			}
			lastBearing = bearing
			haveLastBearing = true

			revsDone := accumulated / (2 * math.Pi)
			progressPct := 0.0
			if targetAngle > 0 {
				progressPct = math.Min(100, 100*accumulated/targetAngle)
			}
			remaining := time.Duration(0)
			elapsed := time.Since(started)

			return stepResult{
				done: accumulated >= targetAngle,
				progress: map[string]any{
					"revolutions_completed": revsDone,
					"target_revolutions":    revolutions,
					"progress_percent":      progressPct,
					"time_remaining":        remaining,
					"elapsed":               elapsed,
				},
			}
		})

	if opts.Wait {
		h.Wait(ctx, 0)
	}
	return h, nil
}

// MoveInDirection moves distance meters along heading degrees (compass
// bearing) from the current position, at the current altitude.
func (v *Vehicle) MoveInDirection(ctx context.Context, headingDegrees, distance float64, opts GotoOptions) (*command.Handle, error) {
	cur := v.state.Current()
	if !cur.HavePosition {
		return nil, &vehicleerr.UnavailableTelemetry{Field: "position"}
	}
	v2 := geo.VectorNED{North: distance, East: 0}.RotateByAngle(headingDegrees)
	target := cur.Position.OffsetBy(v2)
	return v.Goto(ctx, target, opts)
}

// MoveInCurrentDirection continues distance meters along the vehicle's
// current heading.
func (v *Vehicle) MoveInCurrentDirection(ctx context.Context, distance float64, opts GotoOptions) (*command.Handle, error) {
	cur := v.state.Current()
	if !cur.HaveHeading {
		return nil, &vehicleerr.UnavailableTelemetry{Field: "heading"}
	}
	return v.MoveInDirection(ctx, cur.Heading, distance, opts)
}

// MoveTowards moves distance meters toward target without overshooting
// it: a distance beyond the remaining ground gap stops at target.
func (v *Vehicle) MoveTowards(ctx context.Context, target geo.Coordinate, distance float64, opts GotoOptions) (*command.Handle, error) {
	cur := v.state.Current()
	if !cur.HavePosition {
		return nil, &vehicleerr.UnavailableTelemetry{Field: "position"}
	}
	remaining := cur.Position.GroundDistanceTo(target)
	if distance > remaining {
		distance = remaining
	}
	bearing := cur.Position.BearingTo(target)
	return v.MoveInDirection(ctx, bearing, distance, opts)
}

// PointAt yaws to face target without translating. If target is nil, it
// holds the current heading (a no-op command that still allocates and
// resolves a handle, matching every other navigation call's shape).
func (v *Vehicle) PointAt(ctx context.Context, target *geo.Coordinate, opts SetHeadingOptions) (*command.Handle, error) {
	cur := v.state.Current()
	if !cur.HavePosition {
		return nil, &vehicleerr.UnavailableTelemetry{Field: "position"}
	}
	heading := cur.Heading
	if target != nil {
		heading = cur.Position.BearingTo(*target)
	}
	return v.SetHeading(ctx, heading, opts)
}
