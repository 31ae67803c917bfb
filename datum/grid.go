// Package datum shifts coordinates from the legacy North American datum to the
// modern one using NADCON-style correction grids.
//
// Each region has a latitude grid (.las) and a longitude grid (.los). Shifts
// are stored in arc-seconds and interpolated bilinearly over the four grid
// nodes surrounding the query point.
package datum

import (
	"encoding/binary"
	"io"
	"math"
	"os"

	"github.com/pkg/errors"
)

// Common errors returned by this package.
var (
	ErrNotApplicable = errors.New("datum: no transform available for location")
	ErrInvalidGrid   = errors.New("datum: invalid grid data")
)

const (
	headerSize   = 96
	offsetCols   = 64
	offsetRows   = 68
	offsetZ      = 72
	offsetXMin   = 76
	offsetDX     = 80
	offsetYMin   = 84
	offsetDY     = 88
	offsetAngle  = 92
	identLength  = 56
	programStart = 56
)

// Grid is one correction grid. Nodes are addressed 1-based by row (latitude)
// and column (longitude); row 0 holds the header and column 0 of every row is
// a record prefix that carries no data.
type Grid struct {
	Name    string
	Ident   string
	Program string
	Cols    int
	Rows    int
	Z       int
	XMin    float64
	YMin    float64
	DX      float64
	DY      float64
	XMax    float64
	YMax    float64
	Angle   float64

	values [][]float32
}

// ReadGrid parses a grid in the NADCON binary layout: records of (cols+1)
// little-endian 4-byte values, the first record holding the header.
func ReadGrid(name string, r io.Reader) (*Grid, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, "read grid %s", name)
	}
	if len(data) < headerSize {
		return nil, errors.Wrapf(ErrInvalidGrid, "%s: %d byte header", name, len(data))
	}

	le := binary.LittleEndian
	g := &Grid{
		Name:    name,
		Ident:   trimText(data[:identLength]),
		Program: trimText(data[programStart:offsetCols]),
		Cols:    int(int32(le.Uint32(data[offsetCols:]))),
		Rows:    int(int32(le.Uint32(data[offsetRows:]))),
		Z:       int(int32(le.Uint32(data[offsetZ:]))),
		XMin:    float64(math.Float32frombits(le.Uint32(data[offsetXMin:]))),
		DX:      math.Abs(float64(math.Float32frombits(le.Uint32(data[offsetDX:])))),
		YMin:    float64(math.Float32frombits(le.Uint32(data[offsetYMin:]))),
		DY:      math.Abs(float64(math.Float32frombits(le.Uint32(data[offsetDY:])))),
		Angle:   float64(math.Float32frombits(le.Uint32(data[offsetAngle:]))),
	}

	if g.Cols < 2 || g.Rows < 2 || g.DX == 0 || g.DY == 0 {
		return nil, errors.Wrapf(ErrInvalidGrid, "%s: %dx%d grid spacing %v/%v", name, g.Cols, g.Rows, g.DX, g.DY)
	}

	record := (g.Cols + 1) * 4
	if record < headerSize {
		return nil, errors.Wrapf(ErrInvalidGrid, "%s: record length %d shorter than header", name, record)
	}
	if len(data) < (g.Rows+1)*record {
		return nil, errors.Wrapf(ErrInvalidGrid, "%s: %d bytes for %d rows of %d", name, len(data), g.Rows, record)
	}

	g.XMax = g.XMin + float64(g.Cols-1)*g.DX
	g.YMax = g.YMin + float64(g.Rows-1)*g.DY

	g.values = make([][]float32, g.Rows+1)
	for i := 1; i <= g.Rows; i++ {
		row := make([]float32, g.Cols+1)
		base := i * record
		for j := 1; j <= g.Cols; j++ {
			row[j] = math.Float32frombits(le.Uint32(data[base+j*4:]))
		}
		g.values[i] = row
	}

	return g, nil
}

// LoadGrid reads a grid file from disk.
func LoadGrid(path string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open grid")
	}
	defer f.Close()

	return ReadGrid(path, f)
}

// Contains reports whether (x, y) lies strictly inside the grid extent.
func (g *Grid) Contains(x, y float64) bool {
	return x > g.XMin && x < g.XMax && y > g.YMin && y < g.YMax
}

// Value returns the node at 1-based row i and column j.
func (g *Grid) Value(i, j int) (float64, bool) {
	if i < 1 || i > g.Rows || j < 1 || j > g.Cols {
		return 0, false
	}
	return float64(g.values[i][j]), true
}

// Interpolate evaluates the bilinear surface through the four nodes around
// (x, y).
func (g *Grid) Interpolate(x, y float64) (float64, error) {
	xgrid := (x-g.XMin)/g.DX + 1
	ygrid := (y-g.YMin)/g.DY + 1
	irow := int(math.Floor(ygrid))
	jcol := int(math.Floor(xgrid))

	t1, ok1 := g.Value(irow, jcol)
	t3, ok3 := g.Value(irow, jcol+1)
	t2, ok2 := g.Value(irow+1, jcol)
	t4, ok4 := g.Value(irow+1, jcol+1)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return 0, errors.Wrapf(ErrNotApplicable, "%s: cell %d,%d outside grid", g.Name, irow, jcol)
	}

	a := t1
	b := t3 - t1
	c := t2 - t1
	d := t4 - t3 - t2 + t1
	dx := xgrid - float64(jcol)
	dy := ygrid - float64(irow)

	return a + b*dx + c*dy + d*dx*dy, nil
}

func trimText(b []byte) string {
	end := len(b)
	for end > 0 && (b[end-1] == ' ' || b[end-1] == 0) {
		end--
	}
	return string(b[:end])
}
