package geo

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestVectorNegateInvolution(t *testing.T) {
	Convey("Given an arbitrary vector", t, func() {
		v := VectorNED{North: 3, East: -4, Down: 1.5}

		Convey("negating twice returns the original vector", func() {
			So(v.Negate().Negate(), ShouldResemble, v)
		})
	})
}

func TestVectorNormalize(t *testing.T) {
	Convey("Given a nonzero vector", t, func() {
		v := VectorNED{North: 3, East: 4, Down: 0}

		Convey("its normalized magnitude is 1", func() {
			So(v.Normalize().Magnitude(), ShouldAlmostEqual, 1.0, 1e-9)
		})
	})

	Convey("Given the zero vector", t, func() {
		v := VectorNED{}

		Convey("normalizing it returns the zero vector, not NaN", func() {
			n := v.Normalize()
			So(n.Magnitude(), ShouldAlmostEqual, 0.0, 1e-9)
		})
	})
}

func TestVectorRotateByAngle(t *testing.T) {
	Convey("Given a vector pointing due north", t, func() {
		v := VectorNED{North: 10, East: 0, Down: -5}

		Convey("rotating it 90 degrees points it due east and leaves down untouched", func() {
			r := v.RotateByAngle(90)
			So(r.North, ShouldAlmostEqual, 0, 1e-9)
			So(r.East, ShouldAlmostEqual, 10, 1e-9)
			So(r.Down, ShouldAlmostEqual, -5, 1e-9)
		})
	})
}

func TestVectorHeading(t *testing.T) {
	Convey("Given a vector pointing due east", t, func() {
		v := VectorNED{North: 0, East: 5, Down: 0}

		Convey("its heading is 90 degrees", func() {
			So(v.Heading(), ShouldAlmostEqual, 90, 1e-9)
		})
	})

	Convey("Given the zero vector", t, func() {
		v := VectorNED{}

		Convey("its heading is defined as 0", func() {
			So(v.Heading(), ShouldEqual, 0)
		})
	})
}
