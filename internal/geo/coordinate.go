// Package geo provides the geodetic and local-frame primitives the rest of
// the vehicle control core builds on: Coordinate, VectorNED and Waypoint.
// All types here are immutable and side-effect free.
package geo

import (
	"fmt"
	"math"
)

// earthRadiusMeters is the WGS84 mean radius used for the haversine
// distance and bearing formulas below.
const earthRadiusMeters = 6371000.0

// Coordinate is a geodetic point. Altitude is relative to the vehicle's
// home position, not MSL.
type Coordinate struct {
	Latitude  float64
	Longitude float64
	Altitude  float64
	Name      string
}

// NewCoordinate validates and constructs a Coordinate.
func NewCoordinate(lat, lon, alt float64) (Coordinate, error) {
	c := Coordinate{Latitude: lat, Longitude: lon, Altitude: alt}
	if err := c.Validate(); err != nil {
		return Coordinate{}, err
	}
	return c, nil
}

// Validate reports whether the coordinate is well-formed:
// -90<=lat<=90, -180<=lon<=180, all fields finite.
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Latitude) || math.IsInf(c.Latitude, 0) {
		return fmt.Errorf("geo: latitude is not finite: %v", c.Latitude)
	}
	if math.IsNaN(c.Longitude) || math.IsInf(c.Longitude, 0) {
		return fmt.Errorf("geo: longitude is not finite: %v", c.Longitude)
	}
	if math.IsNaN(c.Altitude) || math.IsInf(c.Altitude, 0) {
		return fmt.Errorf("geo: altitude is not finite: %v", c.Altitude)
	}
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("geo: latitude %v out of range [-90,90]", c.Latitude)
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("geo: longitude %v out of range [-180,180]", c.Longitude)
	}
	return nil
}

// DistanceTo returns the 3D distance to other in meters: a haversine
// ground distance plus the altitude delta combined via Pythagoras.
func (c Coordinate) DistanceTo(other Coordinate) float64 {
	ground := c.GroundDistanceTo(other)
	dAlt := other.Altitude - c.Altitude
	return math.Sqrt(ground*ground + dAlt*dAlt)
}

// GroundDistanceTo returns the 2D haversine distance to other, in meters,
// ignoring altitude.
func (c Coordinate) GroundDistanceTo(other Coordinate) float64 {
	lat1, lon1 := degToRad(c.Latitude), degToRad(c.Longitude)
	lat2, lon2 := degToRad(other.Latitude), degToRad(other.Longitude)

	dLat := lat2 - lat1
	dLon := lon2 - lon1

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c2 := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMeters * c2
}

// BearingTo returns the initial forward-azimuth bearing to other, in
// degrees, where 0 is north and angles increase clockwise.
func (c Coordinate) BearingTo(other Coordinate) float64 {
	lat1, lon1 := degToRad(c.Latitude), degToRad(c.Longitude)
	lat2, lon2 := degToRad(other.Latitude), degToRad(other.Longitude)

	dLon := lon2 - lon1
	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)

	bearing := radToDeg(math.Atan2(y, x))
	return normalizeDegrees(bearing)
}

// OffsetBy returns the coordinate reached by walking v meters in the
// local NED frame rooted at c. North/east are converted to a latitude and
// longitude delta using the small-angle equirectangular approximation;
// down is subtracted from altitude.
func (c Coordinate) OffsetBy(v VectorNED) Coordinate {
	dLat := v.North / earthRadiusMeters
	dLon := v.East / (earthRadiusMeters * math.Cos(degToRad(c.Latitude)))

	return Coordinate{
		Latitude:  c.Latitude + radToDeg(dLat),
		Longitude: c.Longitude + radToDeg(dLon),
		Altitude:  c.Altitude - v.Down,
	}
}

// VectorTo returns the local NED vector from c to other: north/east
// derived from ground distance and bearing, down from the altitude delta.
func (c Coordinate) VectorTo(other Coordinate) VectorNED {
	distance := c.GroundDistanceTo(other)
	bearing := degToRad(c.BearingTo(other))
	return VectorNED{
		North: distance * math.Cos(bearing),
		East:  distance * math.Sin(bearing),
		Down:  c.Altitude - other.Altitude,
	}
}

func (c Coordinate) String() string {
	if c.Name != "" {
		return fmt.Sprintf("%s(%.6f,%.6f,%.1fm)", c.Name, c.Latitude, c.Longitude, c.Altitude)
	}
	return fmt.Sprintf("(%.6f,%.6f,%.1fm)", c.Latitude, c.Longitude, c.Altitude)
}

func degToRad(d float64) float64 { return d * math.Pi / 180 }
func radToDeg(r float64) float64 { return r * 180 / math.Pi }

func normalizeDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}
