package geofence

import (
	"encoding/xml"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/flightpath-dev/vehiclecore/internal/geo"
)

// kmlDocument is the minimal subset of KML needed to pull
// Polygon/outerBoundaryIs/LinearRing/coordinates elements out of a file;
// this is thin I/O, not a general KML library.
type kmlDocument struct {
	XMLName  xml.Name `xml:"kml"`
	Document struct {
		Placemarks []struct {
			Name    string `xml:"name"`
			Polygon struct {
				OuterBoundary struct {
					LinearRing struct {
						Coordinates string `xml:"coordinates"`
					} `xml:"LinearRing"`
				} `xml:"outerBoundaryIs"`
			} `xml:"Polygon"`
		} `xml:"Placemark"`
	} `xml:"Document"`
}

// LoadKMLPolygons reads every Placemark/Polygon in path and returns one
// Polygon per placemark.
func LoadKMLPolygons(path string) ([]Polygon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("geofence: read kml: %w", err)
	}

	var doc kmlDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("geofence: parse kml: %w", err)
	}

	polygons := make([]Polygon, 0, len(doc.Document.Placemarks))
	for _, pm := range doc.Document.Placemarks {
		points, err := parseKMLCoordinates(pm.Polygon.OuterBoundary.LinearRing.Coordinates)
		if err != nil {
			return nil, fmt.Errorf("geofence: placemark %q: %w", pm.Name, err)
		}
		polygons = append(polygons, Polygon{Name: pm.Name, Points: points})
	}
	return polygons, nil
}

// parseKMLCoordinates parses a whitespace-separated list of
// "lon,lat[,alt]" triples, the coordinate order KML always uses.
func parseKMLCoordinates(raw string) ([]geo.Coordinate, error) {
	fields := strings.Fields(strings.TrimSpace(raw))
	points := make([]geo.Coordinate, 0, len(fields))

	for _, field := range fields {
		parts := strings.Split(field, ",")
		if len(parts) < 2 {
			return nil, fmt.Errorf("malformed coordinate triple %q", field)
		}
		lon, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid longitude %q: %w", parts[0], err)
		}
		lat, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid latitude %q: %w", parts[1], err)
		}
		var alt float64
		if len(parts) >= 3 {
			alt, _ = strconv.ParseFloat(parts[2], 64)
		}
		points = append(points, geo.Coordinate{Latitude: lat, Longitude: lon, Altitude: alt})
	}
	return points, nil
}
