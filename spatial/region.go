package spatial

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/pkg/errors"

	"github.com/tingold/orb-tvws/geodesy"
)

// Rect is a latitude/longitude rectangle.
type Rect struct {
	North float64
	West  float64
	South float64
	East  float64
}

// RectFromBound converts an orb bound.
func RectFromBound(b orb.Bound) Rect {
	return Rect{North: b.Top(), West: b.Left(), South: b.Bottom(), East: b.Right()}
}

// Contains reports whether (lat, lon) lies in the rectangle, edges included.
func (r Rect) Contains(lat, lon float64) bool {
	return lat <= r.North && lat >= r.South && lon >= r.West && lon <= r.East
}

// Bound returns the rectangle as an orb bound.
func (r Rect) Bound() orb.Bound {
	return orb.Bound{Min: orb.Point{r.West, r.South}, Max: orb.Point{r.East, r.North}}
}

// Polygon is a ring with its bounding rectangle and planar area cached.
type Polygon struct {
	Ring   []geodesy.Location
	Bounds Rect
	Area   float64
}

// NewPolygon wraps ring.
func NewPolygon(ring []geodesy.Location) (Polygon, error) {
	if len(ring) < 3 {
		return Polygon{}, errors.Wrapf(ErrDegenerateRing, "%d points", len(ring))
	}
	r := Ring(ring)
	return Polygon{
		Ring:   ring,
		Bounds: RectFromBound(r.Bound()),
		Area:   math.Abs(planar.Area(r)),
	}, nil
}

// Contains reports whether (lat, lon) lies in the polygon.
func (p Polygon) Contains(lat, lon float64) bool {
	if !p.Bounds.Contains(lat, lon) {
		return false
	}
	in, err := PointInPolygon(p.Ring, geodesy.NewLocation(lat, lon))
	return err == nil && in
}

// NearestRegionPolygon returns the smallest polygon containing (lat, lon).
// Candidates are tried in increasing area order; the input slice is not
// reordered.
func NearestRegionPolygon(candidates []Polygon, lat, lon float64) (Polygon, bool) {
	sorted := make([]Polygon, len(candidates))
	copy(sorted, candidates)
	sortByArea(sorted)
	return firstContaining(sorted, lat, lon)
}

func sortByArea(polygons []Polygon) {
	sort.SliceStable(polygons, func(i, j int) bool { return polygons[i].Area < polygons[j].Area })
}

func firstContaining(polygons []Polygon, lat, lon float64) (Polygon, bool) {
	for _, p := range polygons {
		if p.Contains(lat, lon) {
			return p, true
		}
	}
	return Polygon{}, false
}

// Region is a named area made of polygons, optionally prefiltered by
// bounding rectangles.
type Region struct {
	Name     string
	Bounds   []Rect
	Polygons []Polygon
}

// NewRegion builds a region from rings. Polygons are kept in increasing
// area order.
func NewRegion(name string, rings [][]geodesy.Location, bounds ...Rect) (*Region, error) {
	r := &Region{Name: name, Bounds: bounds}
	for i, ring := range rings {
		p, err := NewPolygon(ring)
		if err != nil {
			return nil, errors.Wrapf(err, "%s polygon %d", name, i)
		}
		r.Polygons = append(r.Polygons, p)
	}
	sortByArea(r.Polygons)
	return r, nil
}

// Contains returns the smallest polygon of the region holding (lat, lon).
func (r *Region) Contains(lat, lon float64) (Polygon, bool) {
	if len(r.Bounds) > 0 {
		hit := false
		for _, b := range r.Bounds {
			if b.Contains(lat, lon) {
				hit = true
				break
			}
		}
		if !hit {
			return Polygon{}, false
		}
	}
	return firstContaining(r.Polygons, lat, lon)
}

// Bound returns the bound of all region polygons.
func (r *Region) Bound() orb.Bound {
	mp := make(orb.MultiPolygon, 0, len(r.Polygons))
	for _, p := range r.Polygons {
		mp = append(mp, orb.Polygon{Ring(p.Ring)})
	}
	return mp.Bound()
}

// ParseRegionPolygons parses comma separated polygons, each a space
// separated "lat lon lat lon ..." list.
func ParseRegionPolygons(s string) ([][]geodesy.Location, error) {
	if strings.TrimSpace(s) == "" {
		return nil, errors.Wrap(ErrInvalidInput, "empty polygon list")
	}

	var out [][]geodesy.Location
	for i, poly := range strings.Split(s, ",") {
		values, err := parseFloats(poly)
		if err != nil {
			return nil, errors.Wrapf(err, "polygon %d", i)
		}
		if len(values)%2 != 0 {
			return nil, errors.Wrapf(ErrInvalidInput, "polygon %d: odd coordinate count %d", i, len(values))
		}
		ring := make([]geodesy.Location, 0, len(values)/2)
		for k := 0; k < len(values); k += 2 {
			ring = append(ring, geodesy.NewLocation(values[k], values[k+1]))
		}
		out = append(out, ring)
	}
	return out, nil
}

// ParseLocationRectangles parses comma separated "south west north east"
// rectangles.
func ParseLocationRectangles(s string) ([]Rect, error) {
	if strings.TrimSpace(s) == "" {
		return nil, errors.Wrap(ErrInvalidInput, "empty rectangle list")
	}

	var out []Rect
	for i, rect := range strings.Split(s, ",") {
		v, err := parseFloats(rect)
		if err != nil {
			return nil, errors.Wrapf(err, "rectangle %d", i)
		}
		if len(v) != 4 {
			return nil, errors.Wrapf(ErrInvalidInput, "rectangle %d: %d values", i, len(v))
		}
		out = append(out, Rect{South: v[0], West: v[1], North: v[2], East: v[3]})
	}
	return out, nil
}

func parseFloats(s string) ([]float64, error) {
	fields := strings.Fields(s)
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, errors.Wrap(ErrInvalidInput, err.Error())
		}
		out = append(out, v)
	}
	return out, nil
}
