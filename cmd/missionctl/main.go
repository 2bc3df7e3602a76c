// Command missionctl is a thin launcher: it resolves the flag surface a
// mission process is started with, wires a Vehicle over the requested
// connection, and runs either a waypoint-following default mission (from
// --file) or nothing at all. It does not dynamically load a --script
// module: that remains the embedding caller's code, built against
// internal/mission and internal/vehicle directly. This binary only
// demonstrates the launcher lifecycle those callers would reuse.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/flightpath-dev/vehiclecore/internal/config"
	"github.com/flightpath-dev/vehiclecore/internal/geo"
	"github.com/flightpath-dev/vehiclecore/internal/mavlinkio"
	"github.com/flightpath-dev/vehiclecore/internal/mission"
	"github.com/flightpath-dev/vehiclecore/internal/planfile"
	"github.com/flightpath-dev/vehiclecore/internal/telemetry"
	"github.com/flightpath-dev/vehiclecore/internal/vehicle"
	"github.com/flightpath-dev/vehiclecore/internal/vehicleerr"
)

const (
	exitSuccess           = 0
	exitMissionError      = 1
	exitConnectionFailure = 2
	exitSafetyViolation   = 3
	exitInterrupted       = 130
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("missionctl", flag.ContinueOnError)
	script := fs.String("script", "", "user mission module (informational only; see package doc)")
	connURI := fs.String("conn", "udp://127.0.0.1:14540", "MAVLink connection URI (udp://, tcp:// or serial://)")
	vehicleKind := fs.String("vehicle", "drone", "vehicle kind: drone, rover, or none")
	planPath := fs.String("file", "", "QGroundControl .plan file to fly")
	zmqIdentifier := fs.String("zmq-identifier", "", "zmq proxy identifier (reserved; no zmq transport in this build)")
	zmqProxyServer := fs.String("zmq-proxy-server", "", "zmq proxy host (reserved; no zmq transport in this build)")
	fs.Float64("samplerate", 4, "telemetry sample rate in hz (informational; the command driver polls on its own fixed tick)")
	output := fs.String("output", "", "file to log to; empty means stderr")
	if err := fs.Parse(args); err != nil {
		return exitMissionError
	}

	logger, closeLog, err := buildLogger(*output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "missionctl: cannot open --output: %v\n", err)
		return exitMissionError
	}
	defer closeLog()

	if *script != "" {
		logger.Printf("--script=%s noted; this binary only runs its built-in waypoint mission", *script)
	}
	if *zmqIdentifier != "" || *zmqProxyServer != "" {
		logger.Println("--zmq-identifier/--zmq-proxy-server set but no zmq transport is wired in this build; ignoring")
	}

	endpoint, err := mavlinkio.ParseEndpoint(*connURI)
	if err != nil {
		logger.Printf("invalid --conn: %v", err)
		return exitMissionError
	}

	var waypoints []geo.Waypoint
	if *planPath != "" {
		wps, err := planfile.Load(*planPath)
		if err != nil {
			logger.Printf("failed to load --file: %v", err)
			return exitMissionError
		}
		waypoints = wps
	}

	limits := config.DefaultSafetyLimits()
	if *vehicleKind == "rover" {
		limits.MaxAltitude = 5
		limits.MinAltitude = -1
	}

	state := telemetry.NewState()
	client := mavlinkio.NewClient(endpoint, state, logger)
	v := vehicle.New(client, state, limits, vehicle.WithLogger(logger))

	entry := waypointMission(waypoints, logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)

	ctx := context.Background()
	missionErr := make(chan error, 1)
	go func() { missionErr <- mission.RunEntryPoint(ctx, v, entry) }()

	select {
	case err := <-missionErr:
		if err != nil {
			return classifyError(err, logger)
		}
		return exitSuccess
	case <-sigCh:
		logger.Println("interrupted")
		<-missionErr
		return exitInterrupted
	}
}

// waypointMission builds the default entry point: arm, then fly the
// loaded waypoints in order. With no --file given it's a no-op mission
// that just connects and disconnects.
func waypointMission(waypoints []geo.Waypoint, logger *log.Logger) mission.EntryPointFunc {
	return func(ctx context.Context, v *vehicle.Vehicle) error {
		if len(waypoints) == 0 {
			logger.Println("no --file given; nothing to fly")
			return nil
		}
		if err := v.Arm(ctx, false); err != nil {
			return err
		}
		for i, wp := range waypoints {
			logger.Printf("flying to waypoint %d/%d", i+1, len(waypoints))
			h, err := v.Goto(ctx, wp.Coordinate, vehicle.GotoOptions{Tolerance: wp.Radius()})
			if err != nil {
				return err
			}
			result := h.Wait(ctx, 0)
			if result.Status != "completed" {
				return fmt.Errorf("missionctl: waypoint %d did not complete: %s (%v)", i, result.Status, result.Error)
			}
		}
		landCtx := ctxOrBackground(ctx)
		h, err := v.Land(landCtx, vehicle.LandOptions{})
		if err != nil {
			return err
		}
		result := h.Wait(landCtx, 0)
		if result.Status != "completed" {
			return fmt.Errorf("missionctl: land did not complete: %s (%v)", result.Status, result.Error)
		}
		return nil
	}
}

// ctxOrBackground returns ctx unless it's already done, in which case a
// fresh background context is used so the closing land command isn't
// rejected outright by an abort-cancelled context.
func ctxOrBackground(ctx context.Context) context.Context {
	if ctx.Err() != nil {
		return context.Background()
	}
	return ctx
}

func buildLogger(output string) (*log.Logger, func(), error) {
	if output == "" {
		return log.New(os.Stderr, "missionctl: ", log.LstdFlags), func() {}, nil
	}
	f, err := os.Create(output)
	if err != nil {
		return nil, nil, err
	}
	return log.New(f, "missionctl: ", log.LstdFlags), func() { f.Close() }, nil
}

// classifyError maps a mission error onto the exit-code taxonomy: a
// connection failure, a safety/abort condition, or any other mission
// error.
func classifyError(err error, logger *log.Logger) int {
	switch err.(type) {
	case *vehicleerr.ConnectionError, *vehicleerr.ConnectionTimeoutError, *vehicleerr.HeartbeatLostError, *vehicleerr.GeofenceUnavailableError:
		logger.Printf("connection failure: %v", err)
		return exitConnectionFailure
	case *vehicleerr.AbortError, *vehicleerr.PreflightCheckError, *vehicleerr.GeofenceViolationError,
		*vehicleerr.SpeedLimitExceededError, *vehicleerr.ParameterValidationError:
		logger.Printf("safety violation: %v", err)
		return exitSafetyViolation
	default:
		logger.Printf("mission error: %v", err)
		return exitMissionError
	}
}
