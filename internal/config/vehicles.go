package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// VehicleType selects the geofence server's speed/altitude bound set.
type VehicleType string

const (
	VehicleTypeCopter VehicleType = "copter"
	VehicleTypeRover   VehicleType = "rover"
)

// VehicleEntry is one registered vehicle: an id, a human name, and the
// connection URI mavlinkio.ParseEndpoint understands.
type VehicleEntry struct {
	ID       string      `yaml:"id"`
	Name     string      `yaml:"name"`
	Type     VehicleType `yaml:"type"`
	Endpoint string      `yaml:"endpoint"`
}

// VehicleRegistry holds every vehicle a mission process may connect to.
type VehicleRegistry struct {
	Vehicles []VehicleEntry `yaml:"vehicles"`
}

// LoadVehicleRegistry reads a registry from a YAML file.
func LoadVehicleRegistry(path string) (*VehicleRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read vehicle registry: %w", err)
	}

	var registry VehicleRegistry
	if err := yaml.Unmarshal(data, &registry); err != nil {
		return nil, fmt.Errorf("config: parse vehicle registry: %w", err)
	}

	return &registry, nil
}

// Find returns the vehicle entry with the given id.
func (r *VehicleRegistry) Find(id string) (*VehicleEntry, error) {
	for i := range r.Vehicles {
		if r.Vehicles[i].ID == id {
			return &r.Vehicles[i], nil
		}
	}
	return nil, fmt.Errorf("config: vehicle not found: %s", id)
}
