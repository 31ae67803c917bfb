package spatial

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"

	"github.com/tingold/orb-tvws/geodesy"
)

// Contour is a protected coverage boundary sampled on every integer
// azimuth from its centre.
type Contour struct {
	Centre geodesy.Location
	Points []geodesy.Location
}

// NewContour returns the radial contour at distance meters around centre.
func NewContour(e geodesy.Ellipsoid, centre geodesy.Location, distance float64) Contour {
	return Contour{Centre: centre, Points: geodesy.RadialContour(e, centre, distance)}
}

// PointTowards returns the contour point on the given bearing. The bearing
// is wrapped into [0, 360) first.
func (c Contour) PointTowards(bearing float64) (geodesy.Location, error) {
	i, err := geodesy.ContourIndex(bearing)
	if err != nil {
		return geodesy.Location{}, err
	}
	if i >= len(c.Points) {
		return geodesy.Location{}, errors.Wrapf(ErrInvalidInput, "contour has %d points", len(c.Points))
	}
	return c.Points[i], nil
}

// Contains reports whether p lies inside the contour.
func (c Contour) Contains(p geodesy.Location) (bool, error) {
	return PointInPolygon(c.Points, p)
}

// DistanceFrom returns the shortest distance in meters from p to the contour
// points facing it, those within 90 degrees either side of the bearing from
// the centre to p. A p on the centre is measured against every point.
func (c Contour) DistanceFrom(e geodesy.Ellipsoid, p geodesy.Location) (float64, error) {
	if len(c.Points) < 3 {
		return 0, errors.Wrapf(ErrDegenerateRing, "%d points", len(c.Points))
	}

	bearing, err := geodesy.Bearing(e, c.Centre, p)
	if errors.Is(err, geodesy.ErrCoincidentPoints) {
		return c.nearest(e, p, c.Points)
	}
	if err != nil {
		return 0, err
	}

	b := int(math.Floor(bearing))
	facing := make([]geodesy.Location, 0, 180)
	for k := b - 90; k < b+90; k++ {
		i, err := geodesy.ContourIndex(float64(k))
		if err != nil {
			return 0, err
		}
		if i < len(c.Points) {
			facing = append(facing, c.Points[i])
		}
	}
	return c.nearest(e, p, facing)
}

func (c Contour) nearest(e geodesy.Ellipsoid, p geodesy.Location, points []geodesy.Location) (float64, error) {
	best := math.Inf(1)
	for _, q := range points {
		d, err := geodesy.Distance(e, p, q)
		if err != nil {
			return 0, err
		}
		best = math.Min(best, d)
	}
	return best, nil
}

// Polygon returns the contour as an orb polygon.
func (c Contour) Polygon() orb.Polygon {
	return orb.Polygon{Ring(c.Points)}
}
