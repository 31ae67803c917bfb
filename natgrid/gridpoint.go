package natgrid

import (
	"fmt"

	"github.com/paulmach/orb"

	"github.com/tingold/orb-tvws/units"
)

// GridPoint is a projected coordinate. OriginalEasting and OriginalNorthing
// keep full precision for distance tests; Easting and Northing are the
// coordinate floored onto Resolution meters and identify a grid cell.
type GridPoint struct {
	OriginalEasting  float64
	OriginalNorthing float64
	Easting          int
	Northing         int
	Resolution       int
}

// NewGridPoint returns the point at (e, n) with 1 m resolution.
func NewGridPoint(e, n float64) GridPoint {
	return GridPoint{
		OriginalEasting:  e,
		OriginalNorthing: n,
		Easting:          units.Floor(e, 1),
		Northing:         units.Floor(n, 1),
		Resolution:       1,
	}
}

// CellPoint returns the grid point identifying the cell with lower left
// corner (e, n). Both coordinates must already be multiples of res.
func CellPoint(e, n, res int) GridPoint {
	return GridPoint{
		OriginalEasting:  float64(e),
		OriginalNorthing: float64(n),
		Easting:          e,
		Northing:         n,
		Resolution:       res,
	}
}

// RoundTo floors the point onto res meters, keeping the original values.
func (p GridPoint) RoundTo(res int) GridPoint {
	p.Easting = units.Floor(p.OriginalEasting, res)
	p.Northing = units.Floor(p.OriginalNorthing, res)
	p.Resolution = res
	return p
}

// Round10 floors the point onto the 10 m grid.
func (p GridPoint) Round10() GridPoint { return p.RoundTo(10) }

// Round100 floors the point onto the 100 m grid.
func (p GridPoint) Round100() GridPoint { return p.RoundTo(100) }

// Point returns the full precision coordinate as an orb point (x = easting).
func (p GridPoint) Point() orb.Point {
	return orb.Point{p.OriginalEasting, p.OriginalNorthing}
}

func (p GridPoint) String() string {
	return fmt.Sprintf("E%d N%d", p.Easting, p.Northing)
}
