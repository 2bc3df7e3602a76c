package safety

import (
	"math"

	"github.com/flightpath-dev/vehiclecore/internal/config"
	"github.com/flightpath-dev/vehiclecore/internal/geo"
)

// ClampSpeed caps s at limits.MaxSpeed.
func ClampSpeed(s float64, limits config.SafetyLimits) float64 {
	if s > limits.MaxSpeed {
		return limits.MaxSpeed
	}
	return s
}

// ClampVelocity scales v's horizontal component uniformly so its
// magnitude does not exceed limits.MaxSpeed, preserving direction, and
// clamps the vertical component independently to limits.MaxVerticalSpeed.
func ClampVelocity(v geo.VectorNED, limits config.SafetyLimits) geo.VectorNED {
	out := v

	horizontal := math.Hypot(v.North, v.East)
	if horizontal > limits.MaxSpeed && horizontal > 0 {
		scale := limits.MaxSpeed / horizontal
		out.North = v.North * scale
		out.East = v.East * scale
	}

	if out.Down > limits.MaxVerticalSpeed {
		out.Down = limits.MaxVerticalSpeed
	} else if out.Down < -limits.MaxVerticalSpeed {
		out.Down = -limits.MaxVerticalSpeed
	}

	return out
}
