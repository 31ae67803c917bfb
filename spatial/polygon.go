// Package spatial holds the planar and geodetic helpers used to test
// locations against rings, squares, circles and region polygons.
//
// Rings are plain slices of geodesy.Location and are treated in the
// longitude/latitude plane. A ring may be given open or closed; a repeated
// closing point adds a zero length edge that never counts as a crossing.
package spatial

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"

	"github.com/tingold/orb-tvws/geodesy"
)

// Common errors returned by this package.
var (
	ErrDegenerateRing    = errors.New("spatial: ring needs at least 3 points")
	ErrDegenerateSegment = errors.New("spatial: zero length segment")
	ErrInvalidInput      = errors.New("spatial: invalid input")
)

// PointInPolygon reports whether p lies inside ring using the even-odd rule.
// Each edge whose longitude span straddles p is tested for a crossing below
// p; points exactly on an edge fall where the crossing test puts them.
func PointInPolygon(ring []geodesy.Location, p geodesy.Location) (bool, error) {
	if len(ring) < 3 {
		return false, errors.Wrapf(ErrDegenerateRing, "%d points", len(ring))
	}

	inside := false
	j := len(ring) - 1
	for i := range ring {
		a, b := ring[i], ring[j]
		if (a.Longitude < p.Longitude && b.Longitude >= p.Longitude) ||
			(b.Longitude < p.Longitude && a.Longitude >= p.Longitude) {
			lat := a.Latitude + (p.Longitude-a.Longitude)/(b.Longitude-a.Longitude)*(b.Latitude-a.Latitude)
			if lat < p.Latitude {
				inside = !inside
			}
		}
		j = i
	}

	return inside, nil
}

// Intersection returns the point where segment a1-a2 crosses segment b1-b2.
// The second result is false when the segments are parallel or do not
// reach each other. A zero length segment is an error.
func Intersection(a1, a2, b1, b2 geodesy.Location) (geodesy.Location, bool, error) {
	if a1.Equal(a2) || b1.Equal(b2) {
		return geodesy.Location{}, false, ErrDegenerateSegment
	}

	// move a1 to the origin
	bx, by := a2.Longitude-a1.Longitude, a2.Latitude-a1.Latitude
	cx, cy := b1.Longitude-a1.Longitude, b1.Latitude-a1.Latitude
	dx, dy := b2.Longitude-a1.Longitude, b2.Latitude-a1.Latitude

	// rotate a2 onto the positive x axis
	length := math.Hypot(bx, by)
	cos, sin := bx/length, by/length
	cx, cy = cx*cos+cy*sin, cy*cos-cx*sin
	dx, dy = dx*cos+dy*sin, dy*cos-dx*sin

	if (cy < 0 && dy < 0) || (cy >= 0 && dy >= 0) {
		return geodesy.Location{}, false, nil
	}
	if cy == dy {
		return geodesy.Location{}, false, nil
	}

	pos := dx + (cx-dx)*dy/(dy-cy)
	if pos < 0 || pos > length {
		return geodesy.Location{}, false, nil
	}

	return geodesy.Location{
		Latitude:  a1.Latitude + pos*sin,
		Longitude: a1.Longitude + pos*cos,
	}, true, nil
}

// Intersections returns every point where segment a-b crosses an edge of
// ring, the closing edge included, in ring order.
func Intersections(ring []geodesy.Location, a, b geodesy.Location) ([]geodesy.Location, error) {
	if len(ring) < 3 {
		return nil, errors.Wrapf(ErrDegenerateRing, "%d points", len(ring))
	}
	if a.Equal(b) {
		return nil, ErrDegenerateSegment
	}

	var out []geodesy.Location
	for i := range ring {
		p, q := ring[i], ring[(i+1)%len(ring)]
		if p.Equal(q) {
			continue
		}
		x, ok, err := Intersection(p, q, a, b)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, x)
		}
	}
	return out, nil
}

// Ring converts locations into a closed orb ring.
func Ring(ring []geodesy.Location) orb.Ring {
	r := make(orb.Ring, 0, len(ring)+1)
	for _, l := range ring {
		r = append(r, l.Point())
	}
	if len(r) > 0 && !r.Closed() {
		r = append(r, r[0])
	}
	return r
}
