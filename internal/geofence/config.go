package geofence

import (
	"github.com/flightpath-dev/vehiclecore/internal/config"
	"github.com/flightpath-dev/vehiclecore/internal/geo"
)

// SafetyConfig is the geofence server's own configuration: the vehicle
// type it is guarding, its speed/altitude bounds, and the include/exclude
// polygons loaded from KML.
type SafetyConfig struct {
	VehicleType config.VehicleType

	MinAltitude, MaxAltitude float64
	MinSpeed, MaxSpeed       float64

	Include []Polygon
	Exclude []Polygon

	// EnablePathValidation additionally tests the from→to segment
	// against every polygon edge, not just the destination point.
	EnablePathValidation bool
}

// ValidateWaypoint checks that to satisfies every include polygon and no
// exclude polygon, and, if EnablePathValidation is set, that the
// from→to segment doesn't cross a geofence boundary.
func (c SafetyConfig) ValidateWaypoint(from, to geo.Coordinate) (bool, string) {
	for _, poly := range c.Include {
		if !poly.Contains(to) {
			return false, "target outside include geofence " + poly.Name
		}
	}
	for _, poly := range c.Exclude {
		if poly.Contains(to) {
			return false, "target inside exclude geofence " + poly.Name
		}
	}

	if c.EnablePathValidation {
		for _, poly := range c.Include {
			if poly.CrossesSegment(from, to) {
				return false, "path crosses include geofence boundary " + poly.Name
			}
		}
		for _, poly := range c.Exclude {
			if poly.CrossesSegment(from, to) {
				return false, "path crosses exclude geofence boundary " + poly.Name
			}
		}
	}

	return true, ""
}

// ValidateSpeed checks speed against [MinSpeed, MaxSpeed].
func (c SafetyConfig) ValidateSpeed(speed float64) bool {
	return speed >= c.MinSpeed && speed <= c.MaxSpeed
}

// ValidateTakeoff checks a takeoff point against altitude bounds and the
// include/exclude polygons, same as ValidateWaypoint's destination check.
func (c SafetyConfig) ValidateTakeoff(lat, lon, alt float64) (bool, string) {
	if alt < c.MinAltitude || alt > c.MaxAltitude {
		return false, "takeoff altitude out of bounds"
	}
	ok, reason := c.ValidateWaypoint(geo.Coordinate{Latitude: lat, Longitude: lon, Altitude: alt},
		geo.Coordinate{Latitude: lat, Longitude: lon, Altitude: alt})
	return ok, reason
}
