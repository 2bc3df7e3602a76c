package geofence

import (
	"testing"

	"github.com/flightpath-dev/vehiclecore/internal/geo"
)

func square(minLat, minLon, maxLat, maxLon float64) Polygon {
	return Polygon{Points: []geo.Coordinate{
		{Latitude: minLat, Longitude: minLon},
		{Latitude: minLat, Longitude: maxLon},
		{Latitude: maxLat, Longitude: maxLon},
		{Latitude: maxLat, Longitude: minLon},
	}}
}

func TestPolygonContainsInsideOutside(t *testing.T) {
	p := square(0, 0, 10, 10)

	if !p.Contains(geo.Coordinate{Latitude: 5, Longitude: 5}) {
		t.Fatal("expected center point to be inside")
	}
	if p.Contains(geo.Coordinate{Latitude: 20, Longitude: 20}) {
		t.Fatal("expected far point to be outside")
	}
}

func TestSafetyConfigIncludeExclude(t *testing.T) {
	include := square(0, 0, 10, 10)
	exclude := square(4, 4, 6, 6)

	cfg := SafetyConfig{
		MinAltitude: 0, MaxAltitude: 100,
		MinSpeed: 0, MaxSpeed: 20,
		Include: []Polygon{include},
		Exclude: []Polygon{exclude},
	}

	origin := geo.Coordinate{Latitude: 1, Longitude: 1}

	ok, _ := cfg.ValidateWaypoint(origin, geo.Coordinate{Latitude: 2, Longitude: 2})
	if !ok {
		t.Fatal("expected a point inside include and outside exclude to validate")
	}

	ok, _ = cfg.ValidateWaypoint(origin, geo.Coordinate{Latitude: 5, Longitude: 5})
	if ok {
		t.Fatal("expected a point inside the exclude zone to be rejected")
	}

	ok, _ = cfg.ValidateWaypoint(origin, geo.Coordinate{Latitude: 50, Longitude: 50})
	if ok {
		t.Fatal("expected a point outside the include polygon to be rejected")
	}
}

func TestSafetyConfigValidateSpeed(t *testing.T) {
	cfg := SafetyConfig{MinSpeed: 1, MaxSpeed: 10}
	if !cfg.ValidateSpeed(5) {
		t.Fatal("expected 5 within [1,10] to validate")
	}
	if cfg.ValidateSpeed(15) {
		t.Fatal("expected 15 above max to be rejected")
	}
}

func TestSafetyConfigPathCrossing(t *testing.T) {
	exclude := square(4, 4, 6, 6)
	cfg := SafetyConfig{
		MinAltitude: 0, MaxAltitude: 100,
		MinSpeed: 0, MaxSpeed: 20,
		Exclude:              []Polygon{exclude},
		EnablePathValidation: true,
	}

	from := geo.Coordinate{Latitude: 1, Longitude: 5}
	to := geo.Coordinate{Latitude: 9, Longitude: 5}

	ok, reason := cfg.ValidateWaypoint(from, to)
	if ok {
		t.Fatalf("expected a path crossing the exclude zone to be rejected, got reason=%q", reason)
	}
}
