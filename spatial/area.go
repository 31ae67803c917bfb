package spatial

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"

	"github.com/tingold/orb-tvws/geodesy"
)

// SquareArea is an axis aligned search square given by two opposite corners.
type SquareArea struct {
	Centre      geodesy.Location
	TopLeft     geodesy.Location
	BottomRight geodesy.Location
}

// SquareHalfDiagonal returns the half diagonal of a square with the given side.
func SquareHalfDiagonal(side float64) float64 {
	return side / 2 * math.Sqrt2
}

// BuildSquare places the top left corner at bearing 315 and the bottom right
// corner at bearing 135 from centre, both halfDiagonal meters away.
func BuildSquare(e geodesy.Ellipsoid, centre geodesy.Location, halfDiagonal float64) SquareArea {
	tl, _ := geodesy.Direct(e, centre, 315, halfDiagonal)
	br, _ := geodesy.Direct(e, centre, 135, halfDiagonal)
	return SquareArea{Centre: centre, TopLeft: tl, BottomRight: br}
}

// Contains reports whether p lies in the square, edges included.
func (s SquareArea) Contains(p geodesy.Location) bool {
	return p.Latitude <= s.TopLeft.Latitude && p.Latitude >= s.BottomRight.Latitude &&
		p.Longitude >= s.TopLeft.Longitude && p.Longitude <= s.BottomRight.Longitude
}

// Bound returns the square as an orb bound.
func (s SquareArea) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{s.TopLeft.Longitude, s.BottomRight.Latitude},
		Max: orb.Point{s.BottomRight.Longitude, s.TopLeft.Latitude},
	}
}

// PointInSquare reports whether p lies in s.
func PointInSquare(s SquareArea, p geodesy.Location) bool {
	return s.Contains(p)
}

// CircleArea is a circle sampled at a fixed angular step.
type CircleArea struct {
	Centre geodesy.Location
	Radius float64
	Step   float64
	Points []geodesy.Location
}

// BuildCircle samples the circle of radius meters around centre every step
// degrees, starting north and going clockwise. The point at 360 degrees is
// only added when closed is set, and then repeats the first point exactly.
func BuildCircle(e geodesy.Ellipsoid, centre geodesy.Location, radius, step float64, closed bool) (CircleArea, error) {
	if !(step > 0) || step > 360 {
		return CircleArea{}, errors.Wrapf(ErrInvalidInput, "circle step %v", step)
	}
	if radius < 0 || math.IsNaN(radius) {
		return CircleArea{}, errors.Wrapf(ErrInvalidInput, "circle radius %v", radius)
	}

	n := int(math.Ceil(360/step - 1e-9))
	points := make([]geodesy.Location, 0, n+1)
	for i := 0; i < n; i++ {
		p, _ := geodesy.Direct(e, centre, float64(i)*step, radius)
		points = append(points, p)
	}
	if closed {
		points = append(points, points[0])
	}

	return CircleArea{Centre: centre, Radius: radius, Step: step, Points: points}, nil
}

// Ring returns the sampled circle as a closed orb ring.
func (c CircleArea) Ring() orb.Ring {
	return Ring(c.Points)
}
