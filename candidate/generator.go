package candidate

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/pkg/errors"

	"github.com/tingold/orb-tvws/geodesy"
	"github.com/tingold/orb-tvws/natgrid"
	"github.com/tingold/orb-tvws/units"
)

// Common errors returned by this package.
var (
	ErrInvalidInput = errors.New("candidate: invalid input")
	ErrTooManyCells = errors.New("candidate: scan area too large")
)

// Projector converts a device location to national grid coordinates.
type Projector interface {
	Project(l geodesy.Location) (natgrid.GridPoint, error)
}

// Generator enumerates candidate cells. It holds no mutable state and is
// safe for concurrent use.
type Generator struct {
	projector Projector
	maxCells  int
}

// Option configures a Generator.
type Option func(*Generator)

// WithMaxCells rejects scans whose bounding square holds more than n cells.
// Zero disables the limit.
func WithMaxCells(n int) Option {
	return func(g *Generator) { g.maxCells = n }
}

// NewGenerator returns a generator projecting devices with p.
func NewGenerator(p Projector, opts ...Option) *Generator {
	g := &Generator{projector: p}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Cells returns every cell of the given resolution touching the disk of
// radius sqrt(dx²+dy²)+coverage around the device.
func (g *Generator) Cells(device geodesy.Location, dx, dy, coverage float64, resolution int) (Sectors, error) {
	s, err := g.newScan(device, dx, dy, coverage, resolution)
	if err != nil {
		return Sectors{}, err
	}
	return s.full(), nil
}

// BoundaryCells returns the outermost touching cells of each row, working
// inward from both ends. The first and last rows are scanned in full.
func (g *Generator) BoundaryCells(device geodesy.Location, dx, dy, coverage float64, resolution int) (Sectors, error) {
	s, err := g.newScan(device, dx, dy, coverage, resolution)
	if err != nil {
		return Sectors{}, err
	}
	return s.boundary(), nil
}

// UncertaintyCells returns the cells covering the device uncertainty box of
// half extents dx and dy, without any coverage radius.
func (g *Generator) UncertaintyCells(device geodesy.Location, dx, dy float64, resolution int) ([]Cell, error) {
	if err := checkInputs(dx, dy, 0, resolution); err != nil {
		return nil, err
	}
	e, n, err := g.project(device)
	if err != nil {
		return nil, err
	}
	if err := g.checkSize(e, n, dx, dy, resolution); err != nil {
		return nil, err
	}

	minE, maxE := units.Floor(e-dx, resolution), units.Floor(e+dx, resolution)
	minN, maxN := units.Floor(n-dy, resolution), units.Floor(n+dy, resolution)

	var cells []Cell
	for y := minN; y <= maxN; y += resolution {
		for x := minE; x <= maxE; x += resolution {
			cells = append(cells, Cell{Easting: x, Northing: y, Size: resolution})
		}
	}
	return cells, nil
}

func checkInputs(dx, dy, coverage float64, resolution int) error {
	if resolution <= 0 {
		return errors.Wrapf(ErrInvalidInput, "resolution %d", resolution)
	}
	for _, v := range []float64{dx, dy, coverage} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.Wrapf(ErrInvalidInput, "dx %v dy %v coverage %v", dx, dy, coverage)
		}
	}
	return nil
}

// checkSize rejects a scan whose bounding square, e±halfE by n±halfN, holds
// more than maxCells cells. It works in float64 so huge extents cannot wrap.
func (g *Generator) checkSize(e, n, halfE, halfN float64, res int) error {
	if g.maxCells <= 0 {
		return nil
	}
	r := float64(res)
	cols := math.Floor((e+halfE)/r) - math.Floor((e-halfE)/r) + 1
	rows := math.Floor((n+halfN)/r) - math.Floor((n-halfN)/r) + 1
	if cols*rows > float64(g.maxCells) {
		return errors.Wrapf(ErrTooManyCells, "%.0f x %.0f cells", cols, rows)
	}
	return nil
}

// project places the device on the grid, rejecting locations that do not
// give a finite grid position.
func (g *Generator) project(device geodesy.Location) (float64, float64, error) {
	if !device.Valid() {
		return 0, 0, errors.Wrapf(ErrInvalidInput, "device %v", device)
	}
	gp, err := g.projector.Project(device)
	if err != nil {
		return 0, 0, errors.Wrap(err, "project device")
	}
	e, n := gp.OriginalEasting, gp.OriginalNorthing
	if math.IsNaN(e) || math.IsNaN(n) || math.IsInf(e, 0) || math.IsInf(n, 0) {
		return 0, 0, errors.Wrapf(ErrInvalidInput, "device %v projects to %v,%v", device, e, n)
	}
	return e, n, nil
}

// scan is one candidate enumeration around a projected device.
type scan struct {
	device orb.Point
	radius float64
	res    int

	// device corner floored to the resolution
	devE, devN int

	minE, maxE int
	minN, maxN int

	// points on the circle due west, east, north and south of the device
	edges [4]orb.Point
}

func (g *Generator) newScan(device geodesy.Location, dx, dy, coverage float64, resolution int) (*scan, error) {
	if err := checkInputs(dx, dy, coverage, resolution); err != nil {
		return nil, err
	}
	e, n, err := g.project(device)
	if err != nil {
		return nil, err
	}

	radius := math.Hypot(dx, dy) + coverage
	if err := g.checkSize(e, n, radius, radius, resolution); err != nil {
		return nil, err
	}
	return newScan(orb.Point{e, n}, radius, resolution), nil
}

func newScan(device orb.Point, radius float64, res int) *scan {
	e, n := device[0], device[1]
	return &scan{
		device: device,
		radius: radius,
		res:    res,
		devE:   units.Floor(e, res),
		devN:   units.Floor(n, res),
		minE:   units.Floor(e-radius, res),
		maxE:   units.Floor(e+radius, res),
		minN:   units.Floor(n-radius, res),
		maxN:   units.Floor(n+radius, res),
		edges: [4]orb.Point{
			{e - radius, n},
			{e + radius, n},
			{e, n + radius},
			{e, n - radius},
		},
	}
}

// overlaps reports whether the cell with south west corner (e, n) touches
// the disk. The cell holding the device and any cell with a corner within
// the radius are accepted. Cells on the bounding square edge also count
// when one of the cardinal circle points lies strictly inside them.
func (s *scan) overlaps(e, n int) bool {
	if e == s.devE && n == s.devN {
		return true
	}

	c := Cell{Easting: e, Northing: n, Size: s.res}
	for _, p := range c.Corners() {
		if planar.Distance(p, s.device) <= s.radius {
			return true
		}
	}

	if e != s.minE && e != s.maxE && n != s.minN && n != s.maxN {
		return false
	}
	b := c.Bound()
	for _, p := range s.edges {
		if p[0] > b.Min[0] && p[0] < b.Max[0] && p[1] > b.Min[1] && p[1] < b.Max[1] {
			return true
		}
	}
	return false
}

// collector assigns accepted cells to sectors once each.
type collector struct {
	s       *scan
	seen    map[Cell]struct{}
	sectors Sectors
}

func (s *scan) collector() *collector {
	return &collector{s: s, seen: make(map[Cell]struct{})}
}

func (c *collector) add(e, n int) {
	cell := Cell{Easting: e, Northing: n, Size: c.s.res}
	if _, ok := c.seen[cell]; ok {
		return
	}
	c.seen[cell] = struct{}{}
	i := SectorIndex(cell, c.s.devE, c.s.devN)
	c.sectors[i] = append(c.sectors[i], cell)
}

func (c *collector) result() Sectors {
	for i := range c.sectors {
		sortCells(c.sectors[i])
	}
	return c.sectors
}

func (s *scan) full() Sectors {
	c := s.collector()
	if s.radius == 0 {
		c.add(s.devE, s.devN)
		return c.result()
	}

	for n := s.minN; n <= s.maxN; n += s.res {
		for e := s.minE; e <= s.maxE; e += s.res {
			if s.overlaps(e, n) {
				c.add(e, n)
			}
		}
	}
	return c.result()
}

func (s *scan) boundary() Sectors {
	c := s.collector()
	if s.radius == 0 {
		c.add(s.devE, s.devN)
		return c.result()
	}

	for n := s.minN; n <= s.maxN; n += s.res {
		interior := n != s.minN && n != s.maxN

		for e := s.minE; e < s.devE; e += s.res {
			if s.overlaps(e, n) {
				c.add(e, n)
				if interior {
					break
				}
			}
		}
		for e := s.maxE; e >= s.devE; e -= s.res {
			if s.overlaps(e, n) {
				c.add(e, n)
				if interior {
					break
				}
			}
		}
	}
	return c.result()
}
