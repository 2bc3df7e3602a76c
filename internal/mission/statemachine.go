package mission

import (
	"context"
	"fmt"
	"time"

	"github.com/flightpath-dev/vehiclecore/internal/vehicle"
)

// StateName identifies a state within a StateMachine. Terminal is the
// reserved sentinel a StateFunc returns to end the mission.
type StateName string

// Terminal is the state name that ends a state-machine mission.
const Terminal StateName = ""

// StateFunc runs one state's body and returns the name of the state to
// run next (or Terminal to end the mission). Returning its own name
// re-enters the same state immediately.
type StateFunc func(ctx context.Context, v *vehicle.Vehicle) (StateName, error)

// BackgroundTask runs concurrently with the state machine for the life
// of the mission. An error return terminates the mission with that
// error; a nil return simply ends that one task without affecting the
// others.
type BackgroundTask func(ctx context.Context, v *vehicle.Vehicle) error

// InitHook runs once, on the state-machine goroutine, before the first
// state. An error return aborts the mission before any state runs.
type InitHook func(ctx context.Context, v *vehicle.Vehicle) error

// StateDef declares one named state. When Loop is set, Handle is
// re-invoked repeatedly for at least Duration before the state machine
// honors the state name it returned. The state's own return value is
// deferred, not discarded, until Duration has elapsed.
type StateDef struct {
	Name     StateName
	Handle   StateFunc
	Loop     bool
	Duration time.Duration
}

// StateMachine is a named-state mission graph plus its background tasks
// and init hooks.
type StateMachine struct {
	states     map[StateName]StateDef
	initial    StateName
	background []BackgroundTask
	initHooks  []InitHook
}

// NewStateMachine creates a state machine that begins at initial.
func NewStateMachine(initial StateName) *StateMachine {
	return &StateMachine{states: make(map[StateName]StateDef), initial: initial}
}

// AddState registers a state definition, overwriting any prior
// definition with the same name.
func (m *StateMachine) AddState(def StateDef) *StateMachine {
	m.states[def.Name] = def
	return m
}

// AddBackgroundTask registers a task to run for the life of the mission.
func (m *StateMachine) AddBackgroundTask(t BackgroundTask) *StateMachine {
	m.background = append(m.background, t)
	return m
}

// AddInitHook registers a hook to run once before the first state.
func (m *StateMachine) AddInitHook(h InitHook) *StateMachine {
	m.initHooks = append(m.initHooks, h)
	return m
}

// RunStateMachine connects v, runs init hooks, then drives m's states to
// completion while its background tasks run concurrently. An abort
// signal (or a background task failing) ends the mission; Disconnect
// always runs on return.
func RunStateMachine(ctx context.Context, v *vehicle.Vehicle, m *StateMachine) error {
	if err := v.Connect(ctx); err != nil {
		return err
	}
	defer v.Disconnect()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go watchAbortSignals(runCtx, cancel, v)

	for _, hook := range m.initHooks {
		if err := hook(runCtx, v); err != nil {
			return fmt.Errorf("mission: init hook failed: %w", err)
		}
	}

	done := make(chan error, 1)
	go func() { done <- runStates(runCtx, v, m) }()

	bgErrs := make(chan error, len(m.background))
	for _, task := range m.background {
		t := task
		go func() { bgErrs <- t(runCtx, v) }()
	}
	remaining := len(m.background)

	for {
		select {
		case err := <-done:
			cancel()
			return err

		case err := <-bgErrs:
			remaining--
			if err != nil {
				cancel()
				<-done
				return fmt.Errorf("mission: background task failed: %w", err)
			}
			if remaining == 0 {
				bgErrs = nil
			}

		case <-runCtx.Done():
			select {
			case err := <-done:
				return err
			case <-time.After(gracefulShutdownTimeout):
				return fmt.Errorf("mission: state machine did not terminate within %s of abort", gracefulShutdownTimeout)
			}
		}
	}
}

// runStates walks the state graph from m.initial to Terminal.
func runStates(ctx context.Context, v *vehicle.Vehicle, m *StateMachine) error {
	current := m.initial
	for current != Terminal {
		if err := ctx.Err(); err != nil {
			return err
		}
		def, ok := m.states[current]
		if !ok {
			return fmt.Errorf("mission: unknown state %q", current)
		}

		var next StateName
		var err error
		if def.Loop && def.Duration > 0 {
			next, err = runLoopedState(ctx, v, def)
		} else {
			next, err = def.Handle(ctx, v)
		}
		if err != nil {
			return err
		}
		current = next
	}
	return nil
}

// runLoopedState re-invokes def.Handle until def.Duration has elapsed,
// then returns the last next-state name it produced.
func runLoopedState(ctx context.Context, v *vehicle.Vehicle, def StateDef) (StateName, error) {
	deadline := time.Now().Add(def.Duration)
	var next StateName
	var err error
	for {
		next, err = def.Handle(ctx, v)
		if err != nil {
			return Terminal, err
		}
		if time.Now().After(deadline) {
			return next, nil
		}
		if err := ctx.Err(); err != nil {
			return Terminal, err
		}
	}
}
