package geo

import (
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestCoordinateValidate(t *testing.T) {
	Convey("Given coordinates at the edges of the valid range", t, func() {
		Convey("latitude/longitude at the poles and antimeridian are valid", func() {
			c := Coordinate{Latitude: 90, Longitude: 180}
			So(c.Validate(), ShouldBeNil)

			c = Coordinate{Latitude: -90, Longitude: -180}
			So(c.Validate(), ShouldBeNil)
		})

		Convey("out-of-range latitude is rejected", func() {
			c := Coordinate{Latitude: 91, Longitude: 0}
			So(c.Validate(), ShouldNotBeNil)
		})

		Convey("out-of-range longitude is rejected", func() {
			c := Coordinate{Latitude: 0, Longitude: 181}
			So(c.Validate(), ShouldNotBeNil)
		})

		Convey("non-finite fields are rejected", func() {
			c := Coordinate{Latitude: math.NaN(), Longitude: 0}
			So(c.Validate(), ShouldNotBeNil)

			c = Coordinate{Latitude: 0, Longitude: math.Inf(1)}
			So(c.Validate(), ShouldNotBeNil)
		})
	})
}

func TestDistanceSymmetry(t *testing.T) {
	Convey("Given two arbitrary coordinates", t, func() {
		a := Coordinate{Latitude: 35.7275, Longitude: -78.6960, Altitude: 10}
		b := Coordinate{Latitude: 35.7300, Longitude: -78.7000, Altitude: 40}

		Convey("distance is symmetric", func() {
			So(a.DistanceTo(b), ShouldAlmostEqual, b.DistanceTo(a), 1e-6)
		})

		Convey("ground distance is symmetric", func() {
			So(a.GroundDistanceTo(b), ShouldAlmostEqual, b.GroundDistanceTo(a), 1e-6)
		})
	})
}

func TestTriangleInequality(t *testing.T) {
	Convey("Given three coordinates", t, func() {
		a := Coordinate{Latitude: 35.0, Longitude: -78.0}
		b := Coordinate{Latitude: 35.1, Longitude: -78.1}
		c := Coordinate{Latitude: 35.2, Longitude: -78.3}

		Convey("the direct path never exceeds the sum of two legs", func() {
			direct := a.GroundDistanceTo(c)
			viaB := a.GroundDistanceTo(b) + b.GroundDistanceTo(c)
			So(direct, ShouldBeLessThanOrEqualTo, viaB+1e-6)
		})
	})
}

func TestOffsetByRoundTrip(t *testing.T) {
	Convey("Given a coordinate and a nearby target within 1km", t, func() {
		origin := Coordinate{Latitude: 35.7275, Longitude: -78.6960, Altitude: 10}
		target := Coordinate{Latitude: 35.7295, Longitude: -78.6940, Altitude: 25}

		Convey("offset_by(vector_to(target)) lands within 1m of target", func() {
			v := origin.VectorTo(target)
			result := origin.OffsetBy(v)
			So(result.DistanceTo(target), ShouldBeLessThan, 1.0)
		})
	})
}

func TestBearingCardinalDirections(t *testing.T) {
	Convey("Given an origin and a point due north", t, func() {
		origin := Coordinate{Latitude: 0, Longitude: 0}
		north := Coordinate{Latitude: 1, Longitude: 0}

		Convey("bearing is ~0 degrees", func() {
			So(origin.BearingTo(north), ShouldAlmostEqual, 0, 1e-6)
		})
	})

	Convey("Given an origin and a point due east", t, func() {
		origin := Coordinate{Latitude: 0, Longitude: 0}
		east := Coordinate{Latitude: 0, Longitude: 1}

		Convey("bearing is ~90 degrees", func() {
			So(origin.BearingTo(east), ShouldAlmostEqual, 90, 1e-6)
		})
	})
}
