// Package candidate enumerates the national grid cells a white space device
// could cover, split into four quadrant sectors around the device.
package candidate

import (
	"fmt"
	"sort"

	"github.com/paulmach/orb"

	"github.com/tingold/orb-tvws/natgrid"
)

// Cell is a square of the national grid identified by its south west corner.
type Cell struct {
	Easting  int
	Northing int
	Size     int
}

// Corners returns the south west, south east, north east and north west
// corners.
func (c Cell) Corners() [4]orb.Point {
	e, n, s := float64(c.Easting), float64(c.Northing), float64(c.Size)
	return [4]orb.Point{
		{e, n},
		{e + s, n},
		{e + s, n + s},
		{e, n + s},
	}
}

// Bound returns the cell extent in grid meters.
func (c Cell) Bound() orb.Bound {
	e, n, s := float64(c.Easting), float64(c.Northing), float64(c.Size)
	return orb.Bound{Min: orb.Point{e, n}, Max: orb.Point{e + s, n + s}}
}

// Polygon returns the cell outline as a closed ring.
func (c Cell) Polygon() orb.Polygon {
	return c.Bound().ToPolygon()
}

// GridPoint returns the cell corner as a grid point at the cell resolution.
func (c Cell) GridPoint() natgrid.GridPoint {
	return natgrid.CellPoint(c.Easting, c.Northing, c.Size)
}

func (c Cell) String() string {
	return fmt.Sprintf("E%d N%d/%d", c.Easting, c.Northing, c.Size)
}

// Sector numbers the quadrants around a device.
const (
	NorthWest = iota
	NorthEast
	SouthEast
	SouthWest
)

// Sectors holds accepted cells by quadrant: north west, north east, south
// east and south west of the device.
type Sectors [4][]Cell

// Sector returns the cells of sector i, or nil when i is not a sector.
func (s Sectors) Sector(i int) []Cell {
	if i < 0 || i >= len(s) {
		return nil
	}
	return s[i]
}

// Len returns the number of cells in all sectors.
func (s Sectors) Len() int {
	n := 0
	for _, cells := range s {
		n += len(cells)
	}
	return n
}

// All returns every cell, sector by sector.
func (s Sectors) All() []Cell {
	out := make([]Cell, 0, s.Len())
	for _, cells := range s {
		out = append(out, cells...)
	}
	return out
}

// SectorIndex places cell c relative to the device corner (deviceE,
// deviceN). Cells on the device row count as north and on the device column
// as east.
func SectorIndex(c Cell, deviceE, deviceN int) int {
	if c.Northing >= deviceN {
		if c.Easting < deviceE {
			return NorthWest
		}
		return NorthEast
	}
	if c.Easting >= deviceE {
		return SouthEast
	}
	return SouthWest
}

func sortCells(cells []Cell) {
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Northing != cells[j].Northing {
			return cells[i].Northing < cells[j].Northing
		}
		return cells[i].Easting < cells[j].Easting
	})
}
