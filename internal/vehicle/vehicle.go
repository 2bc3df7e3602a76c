// Package vehicle implements the Vehicle Control Core: the component
// that turns high-level navigation intents into MAVLink setpoints,
// tracks their completion against telemetry, and surfaces a Command
// Handle per in-flight operation. It ties together internal/mavlinkio,
// internal/telemetry, internal/safety, internal/geofence, internal/command,
// internal/eventbus and internal/metrics.
package vehicle

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/flightpath-dev/vehiclecore/internal/command"
	"github.com/flightpath-dev/vehiclecore/internal/config"
	"github.com/flightpath-dev/vehiclecore/internal/eventbus"
	"github.com/flightpath-dev/vehiclecore/internal/geofence"
	"github.com/flightpath-dev/vehiclecore/internal/mavlinkio"
	"github.com/flightpath-dev/vehiclecore/internal/metrics"
	"github.com/flightpath-dev/vehiclecore/internal/safety"
	"github.com/flightpath-dev/vehiclecore/internal/telemetry"
	"github.com/flightpath-dev/vehiclecore/internal/vehicleerr"

	channerics "github.com/niceyeti/channerics/channels"
)

// connectPositionTimeout bounds how long Connect waits for a first
// position fix once the link's heartbeat is up.
const connectPositionTimeout = 30 * time.Second

// stalenessSampleInterval is how often the telemetry-staleness gauge is
// refreshed while connected.
const stalenessSampleInterval = 500 * time.Millisecond

// Vehicle is the user-facing control surface for one MAVLink-connected
// airframe. Exactly one Vehicle owns a given endpoint at a time.
type Vehicle struct {
	adapter mavlinkio.Adapter
	state   *telemetry.State
	limits  config.SafetyLimits
	monitor *safety.Monitor
	fence   *geofence.Client
	events  *eventbus.Bus
	metrics *metrics.Metrics
	logger  *log.Logger

	mu           sync.Mutex
	activeHandle *command.Handle
	aborted      bool
	connected    bool

	monitorCancel context.CancelFunc
}

// Option configures optional collaborators on New.
type Option func(*Vehicle)

// WithGeofence attaches a geofence client; when set, Goto's target and
// Takeoff's position and altitude go through it. Speeds are not sent to
// it.
func WithGeofence(c *geofence.Client) Option {
	return func(v *Vehicle) { v.fence = c }
}

// WithLogger overrides the default logger, which writes to the standard
// log output with a "vehicle: " prefix.
func WithLogger(l *log.Logger) Option {
	return func(v *Vehicle) { v.logger = l }
}

// WithMetrics overrides the default process-wide metrics instance.
func WithMetrics(m *metrics.Metrics) Option {
	return func(v *Vehicle) { v.metrics = m }
}

// New builds a Vehicle over adapter, whose inbound telemetry populates
// state. adapter and state must be a matched pair (the same State handed
// to mavlinkio.NewClient, or a mavlinkio.Fake's own State in tests).
func New(adapter mavlinkio.Adapter, state *telemetry.State, limits config.SafetyLimits, opts ...Option) *Vehicle {
	v := &Vehicle{
		adapter: adapter,
		state:   state,
		limits:  limits,
		events:  eventbus.New(),
		metrics: metrics.Get(),
		logger:  log.New(log.Writer(), "vehicle: ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(v)
	}
	v.monitor = safety.NewMonitor(state, limits)
	v.monitor.SetBatteryFailsafe(func(ctx context.Context) {
		v.logger.Println("battery critical: triggering automatic rtl")
		if _, err := v.Rtl(ctx, RtlOptions{}); err != nil {
			v.logger.Printf("battery failsafe rtl failed: %v", err)
		}
	})
	for _, t := range []safety.ViolationType{
		safety.ViolationBatteryLow, safety.ViolationBatteryCritical,
		safety.ViolationSpeedTooHigh, safety.ViolationVerticalSpeedTooHigh,
		safety.ViolationGPSPoor,
	} {
		vt := t
		v.monitor.On(vt, func(viol safety.Violation) {
			v.metrics.RecordViolation(string(vt))
			v.events.Publish(eventbus.OnSafetyViolation, viol)
		})
	}
	return v
}

// Events returns the event bus callers may Subscribe to for on_connect,
// on_arm, on_disarm, on_command_start, on_command_complete,
// on_safety_violation and on_abort notifications.
func (v *Vehicle) Events() *eventbus.Bus { return v.events }

// State returns the underlying telemetry state for direct reads.
func (v *Vehicle) State() *telemetry.State { return v.state }

// Connect opens the wire link, starts the safety monitor, and waits for
// a first position fix.
func (v *Vehicle) Connect(ctx context.Context) error {
	if err := v.adapter.Connect(ctx); err != nil {
		return &vehicleerr.ConnectionError{Cause: err}
	}

	monCtx, cancel := context.WithCancel(context.Background())
	v.monitorCancel = cancel
	go v.monitor.Run(monCtx)
	go v.sampleTelemetryStaleness(monCtx)

	_, ok := v.state.WaitUntil(ctx, connectPositionTimeout, func(s telemetry.Snapshot) bool { return s.HavePosition })
	if !ok {
		cancel()
		return &vehicleerr.ConnectionTimeoutError{Timeout: connectPositionTimeout.String()}
	}

	v.mu.Lock()
	v.connected = true
	v.mu.Unlock()

	v.metrics.SetConnected(true)
	v.events.Publish(eventbus.OnConnect, nil)
	return nil
}

// Disconnect stops the safety monitor and closes the wire link.
func (v *Vehicle) Disconnect() error {
	if v.monitorCancel != nil {
		v.monitorCancel()
	}
	v.mu.Lock()
	v.connected = false
	v.mu.Unlock()
	v.metrics.SetConnected(false)
	v.events.Publish(eventbus.OnDisconnect, nil)
	return v.adapter.Close()
}

func (v *Vehicle) isConnected() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.connected
}

// sampleTelemetryStaleness refreshes the telemetry-staleness gauge from
// the age of the last applied update until ctx is done.
func (v *Vehicle) sampleTelemetryStaleness(ctx context.Context) {
	ticks := channerics.NewTicker(ctx.Done(), stalenessSampleInterval)
	for range ticks {
		v.metrics.SetTelemetryStaleness(time.Since(v.state.Current().UpdatedAt))
	}
}

// Arm runs the pre-flight check suite (unless skipped or force) and, if
// it passes, arms the vehicle.
func (v *Vehicle) Arm(ctx context.Context, force bool) error {
	if !force && v.limits.EnablePreflightChecks {
		result := safety.RunPreflight(v.limits, v.state.Current(), v.isConnected())
		if !result.OK {
			return &vehicleerr.PreflightCheckError{FailedChecks: result.FailedChecks}
		}
	}
	if err := v.adapter.Arm(ctx); err != nil {
		return &vehicleerr.ArmError{Reason: err.Error()}
	}
	v.events.Publish(eventbus.OnArm, nil)
	return nil
}

// Disarm disarms the vehicle. force bypasses the flight-controller's own
// in-air disarm protections (use with care).
func (v *Vehicle) Disarm(ctx context.Context, force bool) error {
	if err := v.adapter.Disarm(ctx, force); err != nil {
		return &vehicleerr.ArmError{Reason: err.Error()}
	}
	v.events.Publish(eventbus.OnDisarm, nil)
	return nil
}

// Abort sets the abort flag, cancels any active command, and triggers
// rtl() (if rtl is true) or hold() otherwise.
func (v *Vehicle) Abort(ctx context.Context, rtl bool) error {
	v.mu.Lock()
	v.aborted = true
	v.mu.Unlock()

	v.preemptActive(ctx)
	v.events.Publish(eventbus.OnAbort, map[string]any{"rtl": rtl})

	if rtl {
		if err := v.adapter.ReturnToLaunch(ctx); err != nil {
			return &vehicleerr.AbortError{Reason: err.Error()}
		}
		return nil
	}
	if err := v.adapter.Hold(ctx); err != nil {
		return &vehicleerr.AbortError{Reason: err.Error()}
	}
	return nil
}

// ResetAbort clears the abort flag. Commands issued while it is set fail
// fast with AbortError.
func (v *Vehicle) ResetAbort() {
	v.mu.Lock()
	v.aborted = false
	v.mu.Unlock()
}

func (v *Vehicle) isAborted() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.aborted
}

// preemptActive cancels the current active handle, if any, and waits
// briefly for its driver goroutine to unwind. Used by abort/hold/rtl/land,
// which implicitly supersede whatever navigation command is running.
func (v *Vehicle) preemptActive(ctx context.Context) {
	v.mu.Lock()
	h := v.activeHandle
	v.mu.Unlock()
	if h == nil || h.IsComplete() {
		return
	}
	h.Cancel(ctx, false)
	h.Wait(ctx, time.Second)
}

// allocate creates a Handle for a named command, honoring the abort gate
// and (when exclusive) the single-active-navigation-command arbitration
// policy: a second exclusive command while one is already running is
// rejected with CommandBusyError rather than superseding it.
func (v *Vehicle) allocate(name string, timeout time.Duration, cancelAction func(context.Context) error, exclusive bool) (*command.Handle, error) {
	v.mu.Lock()
	if v.aborted {
		v.mu.Unlock()
		return nil, &vehicleerr.AbortError{Reason: "abort flag set"}
	}
	if exclusive && v.activeHandle != nil && !v.activeHandle.IsComplete() {
		active := v.activeHandle.CommandName()
		v.mu.Unlock()
		return nil, &vehicleerr.CommandBusyError{Active: active}
	}
	h := command.New(name, timeout, cancelAction)
	if exclusive {
		v.activeHandle = h
	}
	v.mu.Unlock()

	v.metrics.CommandsActive.Inc()
	v.events.Publish(eventbus.OnCommandStart, map[string]any{"command": name, "id": h.ID()})
	return h, nil
}

// finish records metrics/events once a handle has reached a terminal
// state; runLoop defers this, and a command whose first wire call fails
// calls it directly.
func (v *Vehicle) finish(h *command.Handle) {
	result := h.Wait(context.Background(), 0)
	v.metrics.CommandsActive.Dec()
	v.metrics.RecordCommand(h.CommandName(), string(result.Status), result.Duration)
	v.events.Publish(eventbus.OnCommandComplete, map[string]any{
		"command": h.CommandName(), "status": result.Status, "id": h.ID(),
	})
}

// stepResult is what one iteration of a command driver's poll loop
// reports after inspecting the current snapshot: whether the command is
// done, failed outright, or should keep running (with progress to attach).
type stepResult struct {
	done     bool
	failErr  error
	progress map[string]any
}

// runLoop drives h to a terminal state by calling step roughly 4 times a
// second (well above the minimum useful progress-reporting rate) until
// step reports done/failErr, h is cancelled, or deadline passes. A zero
// deadline means "never times out" (used by continuous set_velocity).
// timeoutErr builds the command-specific timeout error from the last
// observed snapshot, so it can carry e.g. the remaining distance/altitude.
func (v *Vehicle) runLoop(ctx context.Context, h *command.Handle, deadline time.Time, timeoutErr func(telemetry.Snapshot) error, step func(telemetry.Snapshot) stepResult) {
	defer v.finish(h)
	h.MarkRunning()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-h.Cancelled():
			h.ResolveCancellation(ctx)
			return
		case <-ticker.C:
			snap := v.state.Current()
			res := step(snap)
			if len(res.progress) > 0 {
				h.SetProgress(res.progress)
			}
			if res.failErr != nil {
				h.Fail(res.failErr)
				return
			}
			if res.done {
				h.Complete()
				return
			}
			if !deadline.IsZero() && time.Now().After(deadline) {
				h.MarkTimedOut(timeoutErr(snap))
				return
			}
		}
	}
}
