package spatial

import (
	"math"
	"testing"

	"github.com/paulmach/orb/planar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/tingold/orb-tvws/geodesy"
)

func loc(lat, lon float64) geodesy.Location { return geodesy.NewLocation(lat, lon) }

var square = []geodesy.Location{loc(0, 0), loc(0, 10), loc(10, 10), loc(10, 0)}

func TestPointInPolygon(t *testing.T) {
	tests := []struct {
		name string
		p    geodesy.Location
		want bool
	}{
		{"centre", loc(5, 5), true},
		{"near corner", loc(0.001, 9.999), true},
		{"north", loc(15, 5), false},
		{"west", loc(5, -1), false},
		{"east", loc(5, 10.5), false},
		{"far", loc(-40, 120), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := PointInPolygon(square, tt.p)
			require.NoError(t, err)
			assert.Equal(t, tt.want, in)
		})
	}

	closed := append(append([]geodesy.Location{}, square...), square[0])
	in, err := PointInPolygon(closed, loc(5, 5))
	require.NoError(t, err)
	assert.True(t, in)
}

func TestPointInPolygon_Degenerate(t *testing.T) {
	_, err := PointInPolygon(square[:2], loc(0, 0))
	assert.ErrorIs(t, err, ErrDegenerateRing)

	_, err = PointInPolygon(nil, loc(0, 0))
	assert.ErrorIs(t, err, ErrDegenerateRing)
}

func TestPointInPolygon_MatchesPlanar(t *testing.T) {
	// concave: the north edge dips to (5, 5)
	ring := []geodesy.Location{loc(0, 0), loc(0, 10), loc(5, 5), loc(10, 10), loc(10, 0)}
	r := Ring(ring)

	rapid.Check(t, func(t *rapid.T) {
		lat := rapid.Float64Range(-2, 12).Draw(t, "lat")
		lon := rapid.Float64Range(-2, 12).Draw(t, "lon")

		// boundary points are resolved differently; skip them
		if lat == 0 || lat == 10 || lon == 0 || math.Abs(lat-lon) < 1e-9 || math.Abs(lat+lon-10) < 1e-9 {
			return
		}

		in, err := PointInPolygon(ring, loc(lat, lon))
		if err != nil {
			t.Fatal(err)
		}
		if want := planar.RingContains(r, loc(lat, lon).Point()); in != want {
			t.Fatalf("(%v, %v): got %v want %v", lat, lon, in, want)
		}
	})
}

func TestIntersection(t *testing.T) {
	p, ok, err := Intersection(loc(0, 0), loc(10, 10), loc(0, 10), loc(10, 0))
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 5, p.Latitude, 1e-12)
	assert.InDelta(t, 5, p.Longitude, 1e-12)

	// parallel
	_, ok, err = Intersection(loc(0, 0), loc(10, 0), loc(0, 1), loc(10, 1))
	require.NoError(t, err)
	assert.False(t, ok)

	// the lines cross beyond the end of the first segment
	_, ok, err = Intersection(loc(0, 0), loc(1, 1), loc(0, 10), loc(10, 0))
	require.NoError(t, err)
	assert.False(t, ok)

	// the second segment stops short of the first
	_, ok, err = Intersection(loc(0, 0), loc(10, 10), loc(0, 10), loc(4, 6))
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = Intersection(loc(1, 1), loc(1, 1), loc(0, 10), loc(10, 0))
	assert.ErrorIs(t, err, ErrDegenerateSegment)
}

func TestIntersections(t *testing.T) {
	points, err := Intersections(square, loc(5, -5), loc(5, 15))
	require.NoError(t, err)
	require.Len(t, points, 2)

	lons := []float64{points[0].Longitude, points[1].Longitude}
	assert.ElementsMatch(t, []float64{0, 10}, lons)
	for _, p := range points {
		assert.InDelta(t, 5, p.Latitude, 1e-12)
	}

	points, err = Intersections(square, loc(2, 2), loc(3, 3))
	require.NoError(t, err)
	assert.Empty(t, points)

	_, err = Intersections(square[:2], loc(2, 2), loc(3, 3))
	assert.ErrorIs(t, err, ErrDegenerateRing)
}

func TestBuildSquare(t *testing.T) {
	centre := loc(51.5, -0.1)
	half := SquareHalfDiagonal(2000)
	assert.InDelta(t, 1414.2136, half, 1e-4)

	s := BuildSquare(geodesy.WGS84, centre, half)
	assert.Greater(t, s.TopLeft.Latitude, centre.Latitude)
	assert.Less(t, s.TopLeft.Longitude, centre.Longitude)
	assert.Less(t, s.BottomRight.Latitude, centre.Latitude)
	assert.Greater(t, s.BottomRight.Longitude, centre.Longitude)

	d, err := geodesy.Distance(geodesy.WGS84, centre, s.TopLeft)
	require.NoError(t, err)
	assert.InDelta(t, half, d, 1e-3)

	assert.True(t, s.Contains(centre))
	assert.True(t, PointInSquare(s, s.TopLeft))
	assert.False(t, PointInSquare(s, loc(51.6, -0.1)))
	assert.True(t, s.Bound().Contains(centre.Point()))
}

func TestBuildCircle(t *testing.T) {
	centre := loc(51.5, -0.1)

	c, err := BuildCircle(geodesy.WGS84, centre, 5000, 90, false)
	require.NoError(t, err)
	require.Len(t, c.Points, 4)

	assert.Greater(t, c.Points[0].Latitude, centre.Latitude)
	assert.Greater(t, c.Points[1].Longitude, centre.Longitude)
	assert.Less(t, c.Points[2].Latitude, centre.Latitude)
	assert.Less(t, c.Points[3].Longitude, centre.Longitude)
	for _, p := range c.Points {
		d, err := geodesy.Distance(geodesy.WGS84, centre, p)
		require.NoError(t, err)
		assert.InDelta(t, 5000, d, 1e-3)
	}

	c, err = BuildCircle(geodesy.WGS84, centre, 5000, 10, true)
	require.NoError(t, err)
	require.Len(t, c.Points, 37)
	assert.Equal(t, c.Points[0], c.Points[36])
	assert.True(t, c.Ring().Closed())

	_, err = BuildCircle(geodesy.WGS84, centre, 5000, 0, false)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = BuildCircle(geodesy.WGS84, centre, -1, 10, false)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestParseRegionPolygons(t *testing.T) {
	rings, err := ParseRegionPolygons("0 0 0 10 10 10 10 0,20 20 20 21 21 21")
	require.NoError(t, err)
	require.Len(t, rings, 2)
	assert.Equal(t, square, rings[0])
	assert.Equal(t, loc(20, 21), rings[1][1])

	_, err = ParseRegionPolygons("0 0 0")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = ParseRegionPolygons("0 0 x 1")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = ParseRegionPolygons("  ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestParseLocationRectangles(t *testing.T) {
	rects, err := ParseLocationRectangles("49.9 -6.4 55.8 1.8,57 -8 61 0")
	require.NoError(t, err)
	require.Len(t, rects, 2)
	assert.Equal(t, Rect{North: 55.8, West: -6.4, South: 49.9, East: 1.8}, rects[0])
	assert.True(t, rects[0].Contains(51.5, -0.1))
	assert.False(t, rects[1].Contains(51.5, -0.1))

	_, err = ParseLocationRectangles("1 2 3")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestNearestRegionPolygon(t *testing.T) {
	big, err := NewPolygon(square)
	require.NoError(t, err)
	small, err := NewPolygon([]geodesy.Location{loc(4, 4), loc(4, 6), loc(6, 6), loc(6, 4)})
	require.NoError(t, err)
	assert.InDelta(t, 100, big.Area, 1e-9)
	assert.InDelta(t, 4, small.Area, 1e-9)

	candidates := []Polygon{big, small}

	p, ok := NearestRegionPolygon(candidates, 5, 5)
	require.True(t, ok)
	assert.Equal(t, small.Area, p.Area)
	assert.Equal(t, big.Area, candidates[0].Area, "input order kept")

	p, ok = NearestRegionPolygon(candidates, 1, 1)
	require.True(t, ok)
	assert.Equal(t, big.Area, p.Area)

	_, ok = NearestRegionPolygon(candidates, 20, 20)
	assert.False(t, ok)
}

func TestRegion(t *testing.T) {
	rings, err := ParseRegionPolygons("0 0 0 10 10 10 10 0,4 4 4 6 6 6 6 4")
	require.NoError(t, err)

	r, err := NewRegion("test", rings)
	require.NoError(t, err)
	assert.Equal(t, 4.0, r.Polygons[0].Area)

	p, ok := r.Contains(5, 5)
	require.True(t, ok)
	assert.Equal(t, 4.0, p.Area)

	b := r.Bound()
	assert.Equal(t, 0.0, b.Min[0])
	assert.Equal(t, 10.0, b.Max[1])

	// the rectangle prefilter excludes the west half
	r, err = NewRegion("east", rings, Rect{North: 10, West: 5, South: 0, East: 10})
	require.NoError(t, err)
	_, ok = r.Contains(5, 2)
	assert.False(t, ok)
	_, ok = r.Contains(5, 8)
	assert.True(t, ok)

	_, err = NewRegion("bad", [][]geodesy.Location{{loc(0, 0)}})
	assert.ErrorIs(t, err, ErrDegenerateRing)
}

func TestContour(t *testing.T) {
	centre := loc(51.5, -0.1)
	c := NewContour(geodesy.WGS84, centre, 10000)
	require.Len(t, c.Points, geodesy.ContourPoints)

	p, err := c.PointTowards(90)
	require.NoError(t, err)
	assert.Equal(t, c.Points[90], p)

	p, err = c.PointTowards(-90)
	require.NoError(t, err)
	assert.Equal(t, c.Points[270], p)

	p, err = c.PointTowards(360.4)
	require.NoError(t, err)
	assert.Equal(t, c.Points[0], p)

	_, err = c.PointTowards(math.NaN())
	assert.ErrorIs(t, err, geodesy.ErrInvalidBearing)

	in, err := c.Contains(centre)
	require.NoError(t, err)
	assert.True(t, in)

	in, err = c.Contains(loc(51.7, -0.1))
	require.NoError(t, err)
	assert.False(t, in)
}

func TestContour_DistanceFrom(t *testing.T) {
	centre := loc(51.5, -0.1)
	c := NewContour(geodesy.WGS84, centre, 10000)

	north, _ := geodesy.Direct(geodesy.WGS84, centre, 0, 20000)
	d, err := c.DistanceFrom(geodesy.WGS84, north)
	require.NoError(t, err)
	assert.InDelta(t, 10000, d, 0.01)

	d, err = c.DistanceFrom(geodesy.WGS84, centre)
	require.NoError(t, err)
	assert.InDelta(t, 10000, d, 0.01)

	_, err = Contour{Centre: centre}.DistanceFrom(geodesy.WGS84, north)
	assert.ErrorIs(t, err, ErrDegenerateRing)
}
