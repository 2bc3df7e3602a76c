package geo

import "math"

// VectorNED is a local Cartesian offset in meters: North, East, Down
// (positive down), relative to a vehicle's origin.
type VectorNED struct {
	North float64
	East  float64
	Down  float64
}

// Add returns the component-wise sum of v and other.
func (v VectorNED) Add(other VectorNED) VectorNED {
	return VectorNED{v.North + other.North, v.East + other.East, v.Down + other.Down}
}

// Sub returns the component-wise difference v - other.
func (v VectorNED) Sub(other VectorNED) VectorNED {
	return VectorNED{v.North - other.North, v.East - other.East, v.Down - other.Down}
}

// Negate returns -v.
func (v VectorNED) Negate() VectorNED {
	return VectorNED{-v.North, -v.East, -v.Down}
}

// Scale returns v multiplied by the scalar s.
func (v VectorNED) Scale(s float64) VectorNED {
	return VectorNED{v.North * s, v.East * s, v.Down * s}
}

// Magnitude returns the 3D Euclidean length of v.
func (v VectorNED) Magnitude() float64 {
	return math.Sqrt(v.North*v.North + v.East*v.East + v.Down*v.Down)
}

// MagnitudeHorizontal returns the 2D (north/east only) length of v.
func (v VectorNED) MagnitudeHorizontal() float64 {
	return math.Sqrt(v.North*v.North + v.East*v.East)
}

// Normalize returns v scaled to unit length. The zero vector normalizes
// to the zero vector, never dividing by zero.
func (v VectorNED) Normalize() VectorNED {
	m := v.Magnitude()
	if m == 0 {
		return VectorNED{}
	}
	return v.Scale(1 / m)
}

// RotateByAngle rotates the horizontal (north/east) component of v by
// deg degrees about the down axis, right-hand convention (positive deg
// rotates north toward east). Down is left unchanged.
func (v VectorNED) RotateByAngle(deg float64) VectorNED {
	rad := degToRad(deg)
	cos, sin := math.Cos(rad), math.Sin(rad)
	return VectorNED{
		North: v.North*cos - v.East*sin,
		East:  v.North*sin + v.East*cos,
		Down:  v.Down,
	}
}

// Heading returns the compass bearing (0=north, clockwise) of the
// horizontal component of v. The zero vector has heading 0.
func (v VectorNED) Heading() float64 {
	if v.North == 0 && v.East == 0 {
		return 0
	}
	return normalizeDegrees(radToDeg(math.Atan2(v.East, v.North)))
}
