// Package geofence implements the geofence server configuration, its
// point-in-polygon and path-crossing checks, the KML polygon loader, and
// the length-prefixed JSON request/reply client and server used by the
// Vehicle Control Core's geofence pre-check.
package geofence

import (
	"github.com/flightpath-dev/vehiclecore/internal/geo"
)

// Polygon is a closed ring of WGS84 lat/lon vertices. Altitude on each
// point is ignored; altitude bounds are checked separately.
type Polygon struct {
	Name   string
	Points []geo.Coordinate
}

// Contains reports whether c falls inside the polygon using ray casting:
// count how many polygon edges a ray cast east from c crosses; an odd
// count means c is inside.
func (p Polygon) Contains(c geo.Coordinate) bool {
	if len(p.Points) < 3 {
		return false
	}

	inside := false
	n := len(p.Points)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		yi, xi := p.Points[i].Latitude, p.Points[i].Longitude
		yj, xj := p.Points[j].Latitude, p.Points[j].Longitude

		if ((yi > c.Latitude) != (yj > c.Latitude)) &&
			(c.Longitude < (xj-xi)*(c.Latitude-yi)/(yj-yi)+xi) {
			inside = !inside
		}
	}
	return inside
}

// CrossesSegment reports whether the line segment from→to crosses any
// edge of the polygon.
func (p Polygon) CrossesSegment(from, to geo.Coordinate) bool {
	n := len(p.Points)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		if segmentsIntersect(from, to, p.Points[i], p.Points[j]) {
			return true
		}
	}
	return false
}

// segmentsIntersect reports whether segment p1-p2 crosses segment p3-p4,
// treating Latitude/Longitude as a planar x/y pair (adequate at the
// geofence scales this protocol targets).
func segmentsIntersect(p1, p2, p3, p4 geo.Coordinate) bool {
	d1 := direction(p3, p4, p1)
	d2 := direction(p3, p4, p2)
	d3 := direction(p1, p2, p3)
	d4 := direction(p1, p2, p4)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	return false
}

// direction returns the cross product sign of (c-a) x (b-a), used to
// determine which side of line a-b the point c falls on.
func direction(a, b, c geo.Coordinate) float64 {
	return (b.Longitude-a.Longitude)*(c.Latitude-a.Latitude) -
		(b.Latitude-a.Latitude)*(c.Longitude-a.Longitude)
}
