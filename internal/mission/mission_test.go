package mission

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/flightpath-dev/vehiclecore/internal/config"
	"github.com/flightpath-dev/vehiclecore/internal/mavlinkio"
	"github.com/flightpath-dev/vehiclecore/internal/metrics"
	"github.com/flightpath-dev/vehiclecore/internal/telemetry"
	"github.com/flightpath-dev/vehiclecore/internal/vehicle"
)

func newTestVehicle(t *testing.T) *vehicle.Vehicle {
	t.Helper()
	fake := mavlinkio.NewFake()
	limits := config.DefaultSafetyLimits()
	limits.EnablePreflightChecks = false
	fake.State.Mutate(func(s *telemetry.Snapshot) {
		s.HavePosition = true
		s.HaveHome = true
	})
	return vehicle.New(fake, fake.State, limits, vehicle.WithMetrics(metrics.Get()))
}

func TestRunEntryPointReturnsUserError(t *testing.T) {
	v := newTestVehicle(t)
	wantErr := errors.New("boom")

	err := RunEntryPoint(context.Background(), v, func(ctx context.Context, v *vehicle.Vehicle) error {
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected %v, got %v", wantErr, err)
	}
}

func TestRunEntryPointSucceeds(t *testing.T) {
	v := newTestVehicle(t)

	err := RunEntryPoint(context.Background(), v, func(ctx context.Context, v *vehicle.Vehicle) error {
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunStateMachineWalksToTerminal(t *testing.T) {
	v := newTestVehicle(t)

	var visited []StateName
	m := NewStateMachine("start")
	m.AddState(StateDef{
		Name: "start",
		Handle: func(ctx context.Context, v *vehicle.Vehicle) (StateName, error) {
			visited = append(visited, "start")
			return "finish", nil
		},
	})
	m.AddState(StateDef{
		Name: "finish",
		Handle: func(ctx context.Context, v *vehicle.Vehicle) (StateName, error) {
			visited = append(visited, "finish")
			return Terminal, nil
		},
	})

	if err := RunStateMachine(context.Background(), v, m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(visited) != 2 || visited[0] != "start" || visited[1] != "finish" {
		t.Fatalf("unexpected visit order: %v", visited)
	}
}

func TestRunStateMachineRunsInitHooksOnce(t *testing.T) {
	v := newTestVehicle(t)

	hookCalls := 0
	m := NewStateMachine("only")
	m.AddInitHook(func(ctx context.Context, v *vehicle.Vehicle) error {
		hookCalls++
		return nil
	})
	m.AddState(StateDef{
		Name: "only",
		Handle: func(ctx context.Context, v *vehicle.Vehicle) (StateName, error) {
			return Terminal, nil
		},
	})

	if err := RunStateMachine(context.Background(), v, m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hookCalls != 1 {
		t.Fatalf("expected init hook to run exactly once, ran %d times", hookCalls)
	}
}

func TestRunStateMachineLoopStateHonorsMinDuration(t *testing.T) {
	v := newTestVehicle(t)

	calls := 0
	m := NewStateMachine("spin")
	m.AddState(StateDef{
		Name: "spin",
		Loop: true,
		// Deliberately short so the test doesn't stall, but long enough
		// to force more than one invocation of Handle.
		Duration: 30 * time.Millisecond,
		Handle: func(ctx context.Context, v *vehicle.Vehicle) (StateName, error) {
			calls++
			return Terminal, nil
		},
	})

	start := time.Now()
	if err := RunStateMachine(context.Background(), v, m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Fatalf("expected loop state to run for at least its duration, took %v", elapsed)
	}
	if calls < 2 {
		t.Fatalf("expected the loop state to be invoked more than once, got %d", calls)
	}
}

func TestRunStateMachineUnknownStateFails(t *testing.T) {
	v := newTestVehicle(t)

	m := NewStateMachine("missing")
	err := RunStateMachine(context.Background(), v, m)
	if err == nil {
		t.Fatal("expected an error for an undefined initial state")
	}
}

func TestRunStateMachineBackgroundTaskErrorTerminatesMission(t *testing.T) {
	v := newTestVehicle(t)
	wantErr := errors.New("background failure")

	m := NewStateMachine("loop")
	m.AddBackgroundTask(func(ctx context.Context, v *vehicle.Vehicle) error {
		time.Sleep(10 * time.Millisecond)
		return wantErr
	})
	m.AddState(StateDef{
		Name: "loop",
		Handle: func(ctx context.Context, v *vehicle.Vehicle) (StateName, error) {
			select {
			case <-ctx.Done():
				return Terminal, ctx.Err()
			case <-time.After(2 * time.Second):
				return Terminal, nil
			}
		},
	})

	err := RunStateMachine(context.Background(), v, m)
	if err == nil || !errors.Is(err, wantErr) {
		t.Fatalf("expected background task failure to surface, got %v", err)
	}
}

func TestRunStateMachineSurvivesCleanBackgroundTaskCompletion(t *testing.T) {
	v := newTestVehicle(t)

	m := NewStateMachine("start")
	m.AddBackgroundTask(func(ctx context.Context, v *vehicle.Vehicle) error {
		return nil
	})
	m.AddState(StateDef{
		Name: "start",
		Handle: func(ctx context.Context, v *vehicle.Vehicle) (StateName, error) {
			time.Sleep(10 * time.Millisecond)
			return Terminal, nil
		},
	})

	if err := RunStateMachine(context.Background(), v, m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
