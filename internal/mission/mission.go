// Package mission implements the Mission Runner: the entry-point and
// state-machine drivers that own a Vehicle for the lifetime of a user
// mission, plus SIGINT/SIGTERM-triggered abort handling.
package mission

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flightpath-dev/vehiclecore/internal/vehicle"
)

// gracefulShutdownTimeout bounds how long the runner waits for user code
// to return after an abort signal before giving up and returning an error.
const gracefulShutdownTimeout = 30 * time.Second

// EntryPointFunc is a single user coroutine given the connected vehicle;
// it drives the entire mission and its return value is the mission's
// result.
type EntryPointFunc func(ctx context.Context, v *vehicle.Vehicle) error

// RunEntryPoint connects v, invokes fn, and disconnects on return (or on
// abort, if fn does not itself return promptly): create vehicle -> connect
// -> invoke user coroutine -> on return/exception -> disconnect.
func RunEntryPoint(ctx context.Context, v *vehicle.Vehicle, fn EntryPointFunc) error {
	if err := v.Connect(ctx); err != nil {
		return err
	}
	defer v.Disconnect()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go watchAbortSignals(runCtx, cancel, v)

	done := make(chan error, 1)
	go func() { done <- fn(runCtx, v) }()

	select {
	case err := <-done:
		return err
	case <-runCtx.Done():
		select {
		case err := <-done:
			return err
		case <-time.After(gracefulShutdownTimeout):
			return fmt.Errorf("mission: user code did not return within %s of abort", gracefulShutdownTimeout)
		}
	}
}

// watchAbortSignals waits for SIGINT/SIGTERM and aborts the vehicle
// before cancelling the run context, so every select loop in the runner
// notices promptly. Returns early if ctx is done some other way first.
func watchAbortSignals(ctx context.Context, cancel context.CancelFunc, v *vehicle.Vehicle) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-sigCh:
		v.Abort(context.Background(), false)
		cancel()
	case <-ctx.Done():
	}
}
