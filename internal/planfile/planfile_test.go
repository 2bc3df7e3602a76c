package planfile

import (
	"strings"
	"testing"
)

const sampleDoc = `{
  "mission": {
    "items": [
      {"command": 22, "params": [0,0,0,0, 35.7275, -78.6960, 5]},
      {"command": 16, "params": [0,0,0,0, 35.7280, -78.6965, 20]},
      {"command": 16, "params": [0,0,0,0, 35.7285, -78.6970, 20]},
      {"command": 178, "params": [0,1,10,0,0,0,0]},
      {"command": 21, "params": [0,0,0,0, 35.7285, -78.6970, 0]}
    ]
  }
}`

func TestReadExtractsOnlyNavWaypoints(t *testing.T) {
	waypoints, err := Read(strings.NewReader(sampleDoc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(waypoints) != 4 {
		t.Fatalf("expected 4 nav waypoints (takeoff+2 waypoints+land), got %d", len(waypoints))
	}
	if waypoints[0].Coordinate.Latitude != 35.7275 {
		t.Fatalf("unexpected first latitude: %v", waypoints[0].Coordinate.Latitude)
	}
	if waypoints[2].Coordinate.Longitude != -78.6970 {
		t.Fatalf("unexpected third longitude: %v", waypoints[2].Coordinate.Longitude)
	}
}

func TestReadRejectsShortParams(t *testing.T) {
	_, err := Read(strings.NewReader(`{"mission":{"items":[{"command":16,"params":[1,2,3]}]}}`))
	if err == nil {
		t.Fatal("expected an error for a nav item with fewer than 7 params")
	}
}

func TestReadEmptyMission(t *testing.T) {
	waypoints, err := Read(strings.NewReader(`{"mission":{"items":[]}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(waypoints) != 0 {
		t.Fatalf("expected no waypoints, got %d", len(waypoints))
	}
}
