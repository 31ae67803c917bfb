package candidate

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/tingold/orb-tvws/geodesy"
	"github.com/tingold/orb-tvws/natgrid"
)

// fixedProjector puts every device at the same grid position.
type fixedProjector struct {
	e, n float64
	err  error
}

func (p fixedProjector) Project(geodesy.Location) (natgrid.GridPoint, error) {
	return natgrid.NewGridPoint(p.e, p.n), p.err
}

type fataler interface {
	Fatalf(format string, args ...any)
}

func cellSet(t fataler, s Sectors) map[Cell]int {
	set := make(map[Cell]int)
	for i := 0; i < 4; i++ {
		for _, c := range s.Sector(i) {
			if prev, ok := set[c]; ok {
				t.Fatalf("%v in sectors %d and %d", c, prev, i)
			}
			set[c] = i
		}
	}
	return set
}

func TestCell(t *testing.T) {
	c := Cell{Easting: 531800, Northing: 179600, Size: 100}

	corners := c.Corners()
	assert.Equal(t, orb.Point{531800, 179600}, corners[0])
	assert.Equal(t, orb.Point{531900, 179700}, corners[2])

	b := c.Bound()
	assert.Equal(t, orb.Point{531900, 179700}, b.Max)
	assert.InDelta(t, 10000, planar.Area(c.Polygon()), 1e-9)

	gp := c.GridPoint()
	assert.Equal(t, 531800, gp.Easting)
	assert.Equal(t, 100, gp.Resolution)
	assert.Equal(t, "E531800 N179600/100", c.String())
}

func TestSectorIndex(t *testing.T) {
	tests := []struct {
		e, n int
		want int
	}{
		{990, 2000, NorthWest},
		{1000, 2000, NorthEast},
		{1010, 2010, NorthEast},
		{1000, 1990, SouthEast},
		{990, 1990, SouthWest},
	}
	for _, tt := range tests {
		got := SectorIndex(Cell{Easting: tt.e, Northing: tt.n, Size: 10}, 1000, 2000)
		assert.Equal(t, tt.want, got, "cell %d,%d", tt.e, tt.n)
	}
}

func TestSectors(t *testing.T) {
	s := Sectors{
		{{Easting: 1}},
		{{Easting: 2}, {Easting: 3}},
		nil,
		{{Easting: 4}},
	}
	assert.Equal(t, 4, s.Len())
	assert.Len(t, s.All(), 4)
	assert.Len(t, s.Sector(1), 2)
	assert.Nil(t, s.Sector(4))
	assert.Nil(t, s.Sector(-1))
}

func TestCells_ZeroRadius(t *testing.T) {
	g := NewGenerator(fixedProjector{e: 1005.5, n: 2005.5})

	s, err := g.Cells(geodesy.Location{}, 0, 0, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []Cell{{Easting: 1000, Northing: 2000, Size: 10}}, s.All())
	assert.Len(t, s.Sector(NorthEast), 1)

	s, err = g.BoundaryCells(geodesy.Location{}, 0, 0, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())
}

func TestCells_SmallRadius(t *testing.T) {
	// a device on a grid corner touches the four cells around it
	g := NewGenerator(fixedProjector{e: 1000, n: 2000})
	s, err := g.Cells(geodesy.Location{}, 0, 0, 0.5, 10)
	require.NoError(t, err)

	assert.Equal(t, []Cell{{990, 2000, 10}}, s.Sector(NorthWest))
	assert.Equal(t, []Cell{{1000, 2000, 10}}, s.Sector(NorthEast))
	assert.Equal(t, []Cell{{1000, 1990, 10}}, s.Sector(SouthEast))
	assert.Equal(t, []Cell{{990, 1990, 10}}, s.Sector(SouthWest))

	// a radius inside the cell keeps the device cell only
	g = NewGenerator(fixedProjector{e: 1005.5, n: 2005.5})
	s, err = g.Cells(geodesy.Location{}, 0, 0, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []Cell{{1000, 2000, 10}}, s.All())
}

func TestCells_EdgeOverlap(t *testing.T) {
	// no corner of the neighbours is in reach, the cardinal points are
	g := NewGenerator(fixedProjector{e: 1005, n: 2005})
	s, err := g.Cells(geodesy.Location{}, 0, 0, 6, 10)
	require.NoError(t, err)

	set := cellSet(t, s)
	assert.Len(t, set, 5)
	for _, c := range []Cell{{1000, 2000, 10}, {990, 2000, 10}, {1010, 2000, 10}, {1000, 2010, 10}, {1000, 1990, 10}} {
		assert.Contains(t, set, c)
	}
}

func TestCells_InvalidInput(t *testing.T) {
	g := NewGenerator(fixedProjector{e: 1000, n: 2000})

	_, err := g.Cells(geodesy.Location{}, 0, 0, 100, 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = g.Cells(geodesy.Location{}, -1, 0, 100, 10)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = g.Cells(geodesy.Location{}, 0, 0, math.NaN(), 10)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = g.UncertaintyCells(geodesy.Location{}, 0, math.Inf(1), 10)
	assert.ErrorIs(t, err, ErrInvalidInput)

	g = NewGenerator(fixedProjector{err: natgrid.ErrOutOfDomain})
	_, err = g.Cells(geodesy.Location{}, 0, 0, 100, 10)
	assert.ErrorIs(t, err, natgrid.ErrOutOfDomain)
}

func TestCells_MaxCells(t *testing.T) {
	g := NewGenerator(fixedProjector{e: 1000, n: 2000}, WithMaxCells(100))

	_, err := g.Cells(geodesy.Location{}, 0, 0, 1000, 10)
	assert.ErrorIs(t, err, ErrTooManyCells)

	_, err = g.Cells(geodesy.Location{}, 0, 0, 20, 10)
	assert.NoError(t, err)

	// extents whose cell count overflows int are still refused
	g = NewGenerator(fixedProjector{e: 1000, n: 2000}, WithMaxCells(4000000))
	_, err = g.Cells(geodesy.Location{}, 0, 0, 3e10, 10)
	assert.ErrorIs(t, err, ErrTooManyCells)
	_, err = g.BoundaryCells(geodesy.Location{}, 0, 0, 1e300, 1)
	assert.ErrorIs(t, err, ErrTooManyCells)
	_, err = g.UncertaintyCells(geodesy.Location{}, 3e10, 3e10, 10)
	assert.ErrorIs(t, err, ErrTooManyCells)
}

func TestCells_NonFiniteDevice(t *testing.T) {
	g := NewGenerator(fixedProjector{e: 1000, n: 2000})
	for _, device := range []geodesy.Location{
		geodesy.NewLocation(math.NaN(), 0),
		geodesy.NewLocation(0, math.NaN()),
		geodesy.NewLocation(math.Inf(1), 0),
	} {
		_, err := g.Cells(device, 0, 0, 100, 10)
		assert.ErrorIs(t, err, ErrInvalidInput, "device %v", device)
		_, err = g.UncertaintyCells(device, 10, 10, 10)
		assert.ErrorIs(t, err, ErrInvalidInput, "device %v", device)
	}

	g = NewGenerator(fixedProjector{e: math.NaN(), n: 2000})
	_, err := g.Cells(geodesy.NewLocation(51.5, -0.1), 0, 0, 100, 10)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCells_Coverage(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		e := rapid.Float64Range(100000, 600000).Draw(t, "easting")
		n := rapid.Float64Range(100000, 900000).Draw(t, "northing")
		radius := rapid.Float64Range(0, 400).Draw(t, "radius")
		res := rapid.SampledFrom([]int{10, 100}).Draw(t, "res")

		g := NewGenerator(fixedProjector{e: e, n: n})
		s, err := g.Cells(geodesy.Location{}, 0, 0, radius, res)
		if err != nil {
			t.Fatal(err)
		}

		device := orb.Point{e, n}
		set := cellSet(t, s)
		if len(set) != s.Len() {
			t.Fatalf("%d distinct of %d", len(set), s.Len())
		}

		devE := int(math.Floor(e/float64(res))) * res
		devN := int(math.Floor(n/float64(res))) * res
		if _, ok := set[Cell{devE, devN, res}]; !ok {
			t.Fatalf("device cell missing")
		}

		slack := float64(res) * math.Sqrt2
		for c, sector := range set {
			if sector != SectorIndex(c, devE, devN) {
				t.Fatalf("%v in sector %d", c, sector)
			}

			b := c.Bound()
			closest := orb.Point{
				math.Min(math.Max(e, b.Min[0]), b.Max[0]),
				math.Min(math.Max(n, b.Min[1]), b.Max[1]),
			}
			if d := planar.Distance(closest, device); d > radius+1e-9 {
				t.Fatalf("%v is %.3f m away, radius %.3f", c, d, radius)
			}

			nearest := math.Inf(1)
			for _, p := range c.Corners() {
				nearest = math.Min(nearest, planar.Distance(p, device))
			}
			if nearest > radius+slack {
				t.Fatalf("%v nearest corner %.3f m away", c, nearest)
			}
		}
	})
}

func TestCells_London(t *testing.T) {
	g := NewGenerator(natgrid.NewProjector(natgrid.NationalGrid))
	device := geodesy.NewLocation(51.5, -0.1)

	s, err := g.Cells(device, 50, 50, 8000, 100)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, s.Len(), 19000)
	assert.LessOrEqual(t, s.Len(), 22500)
	for i := 0; i < 4; i++ {
		assert.NotEmpty(t, s.Sector(i), "sector %d", i)
	}

	radius := math.Hypot(50, 50) + 8000
	centre := orb.Point{531878.957, 179685.298}
	for _, c := range s.All() {
		assert.Equal(t, 100, c.Size)
		b := c.Bound()
		closest := orb.Point{
			math.Min(math.Max(centre[0], b.Min[0]), b.Max[0]),
			math.Min(math.Max(centre[1], b.Min[1]), b.Max[1]),
		}
		if planar.Distance(closest, centre) > radius+0.01 {
			t.Fatalf("%v outside radius", c)
		}
	}

	boundary, err := g.BoundaryCells(device, 50, 50, 8000, 100)
	require.NoError(t, err)
	all := cellSet(t, s)
	for _, c := range boundary.All() {
		assert.Contains(t, all, c)
	}
	assert.Greater(t, boundary.Len(), 300)
	assert.Less(t, boundary.Len(), s.Len()/10)
	for i := 0; i < 4; i++ {
		assert.NotEmpty(t, boundary.Sector(i), "sector %d", i)
	}
}

func TestUncertaintyCells(t *testing.T) {
	g := NewGenerator(fixedProjector{e: 1005, n: 2005})

	cells, err := g.UncertaintyCells(geodesy.Location{}, 0, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []Cell{{1000, 2000, 10}}, cells)

	cells, err = g.UncertaintyCells(geodesy.Location{}, 10, 20, 10)
	require.NoError(t, err)
	// eastings 990..1010, northings 1980..2020
	assert.Len(t, cells, 3*5)
	assert.Equal(t, Cell{990, 1980, 10}, cells[0])
	assert.Equal(t, Cell{1010, 2020, 10}, cells[len(cells)-1])
}
