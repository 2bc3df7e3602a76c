// Package planfile reads QGroundControl ".plan" mission files into a
// flat list of waypoints. It is deliberately thin: no validation beyond
// what's needed to build a geo.Waypoint, no caching, no retries.
package planfile

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/flightpath-dev/vehiclecore/internal/geo"
)

// The cmdNav* constants below are the MAVLink command IDs whose
// params[4..6] are a lat/lon/alt waypoint. Other mission-item commands (e.g. camera
// triggers, delays) are skipped.
const (
	cmdNavWaypoint     = 16 // MAV_CMD_NAV_WAYPOINT
	cmdNavLoiterUnlim  = 17 // MAV_CMD_NAV_LOITER_UNLIM
	cmdNavLoiterTurns  = 18 // MAV_CMD_NAV_LOITER_TURNS
	cmdNavLoiterTime   = 19 // MAV_CMD_NAV_LOITER_TIME
	cmdNavLand         = 21 // MAV_CMD_NAV_LAND
	cmdNavTakeoff      = 22 // MAV_CMD_NAV_TAKEOFF
	cmdNavSplineWP     = 82 // MAV_CMD_NAV_SPLINE_WAYPOINT
)

var navCommands = map[int]bool{
	cmdNavWaypoint:    true,
	cmdNavLoiterUnlim: true,
	cmdNavLoiterTurns: true,
	cmdNavLoiterTime:  true,
	cmdNavLand:        true,
	cmdNavTakeoff:     true,
	cmdNavSplineWP:    true,
}

// document is the subset of the QGroundControl .plan schema this reader
// cares about.
type document struct {
	Mission struct {
		Items []item `json:"items"`
	} `json:"mission"`
}

type item struct {
	Command int       `json:"command"`
	Params  []float64 `json:"params"`
}

// Load reads a .plan file from path and returns its waypoints in item
// order.
func Load(path string) ([]geo.Waypoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("planfile: open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

// Read parses a .plan document from r and returns its waypoints in item
// order, skipping any mission item whose command is not a navigation
// command.
func Read(r io.Reader) ([]geo.Waypoint, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("planfile: decode: %w", err)
	}

	waypoints := make([]geo.Waypoint, 0, len(doc.Mission.Items))
	for i, it := range doc.Mission.Items {
		if !navCommands[it.Command] {
			continue
		}
		if len(it.Params) < 7 {
			return nil, fmt.Errorf("planfile: item %d: command %d needs 7 params, got %d", i, it.Command, len(it.Params))
		}
		coord := geo.Coordinate{
			Latitude:  it.Params[4],
			Longitude: it.Params[5],
			Altitude:  it.Params[6],
		}
		waypoints = append(waypoints, geo.NewWaypoint(coord))
	}
	return waypoints, nil
}
