package natgrid

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/pkg/errors"
)

// Shift is the correction added to a raw projected coordinate.
type Shift struct {
	Easting  float64
	Northing float64
}

// Layout describes how shift samples are arranged: a row-major lattice of
// Columns samples per row, CellSize meters apart, starting at the origin.
type Layout struct {
	Columns        int
	CellSize       float64
	OriginEasting  float64
	OriginNorthing float64
}

// DefaultLayout is the OSTN lattice: 701 columns of 1 km cells from the false
// origin.
var DefaultLayout = Layout{Columns: 701, CellSize: 1000}

// ShiftGrid interpolates easting and northing shifts over a regular lattice.
// It is immutable after load and safe for concurrent use.
type ShiftGrid struct {
	layout  Layout
	samples []Shift
}

// NewShiftGrid wraps samples laid out as described by layout.
func NewShiftGrid(samples []Shift, layout Layout) (*ShiftGrid, error) {
	if layout.Columns < 2 || layout.CellSize <= 0 {
		return nil, errors.Wrapf(ErrInvalidShiftGrid, "layout %+v", layout)
	}
	if len(samples) < 2*layout.Columns {
		return nil, errors.Wrapf(ErrInvalidShiftGrid, "%d samples for %d columns", len(samples), layout.Columns)
	}
	return &ShiftGrid{layout: layout, samples: samples}, nil
}

// ReadShiftGrid parses comma separated records with the easting shift in
// field 3 and the northing shift in field 4. Samples are placed on the
// lattice in record order, so only the first record may be a header; any
// later short or non-numeric record fails the load.
func ReadShiftGrid(r io.Reader, layout Layout) (*ShiftGrid, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	cr.TrimLeadingSpace = true

	var samples []Shift
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidShiftGrid, "line %d: %v", line, err)
		}
		s, err := parseShift(rec)
		if err != nil {
			if line == 1 {
				continue
			}
			return nil, errors.Wrapf(ErrInvalidShiftGrid, "line %d: %v", line, err)
		}
		samples = append(samples, s)
	}

	return NewShiftGrid(samples, layout)
}

func parseShift(rec []string) (Shift, error) {
	if len(rec) < 5 {
		return Shift{}, errors.Errorf("%d fields, need 5", len(rec))
	}
	se, err := strconv.ParseFloat(strings.TrimSpace(rec[3]), 64)
	if err != nil {
		return Shift{}, errors.Wrap(err, "easting shift")
	}
	sn, err := strconv.ParseFloat(strings.TrimSpace(rec[4]), 64)
	if err != nil {
		return Shift{}, errors.Wrap(err, "northing shift")
	}
	return Shift{Easting: se, Northing: sn}, nil
}

// LoadShiftGrid reads a shift grid from a CSV file or from the first CSV or
// text entry of a zip archive.
func LoadShiftGrid(path string, layout Layout) (*ShiftGrid, error) {
	if !strings.EqualFold(filepath.Ext(path), ".zip") {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrap(err, "open shift grid")
		}
		defer f.Close()
		return ReadShiftGrid(f, layout)
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, errors.Wrap(err, "open shift grid archive")
	}
	defer zr.Close()

	for _, zf := range zr.File {
		ext := strings.ToLower(filepath.Ext(zf.Name))
		if ext != ".csv" && ext != ".txt" {
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			return nil, errors.Wrapf(err, "open %s", zf.Name)
		}
		g, err := ReadShiftGrid(rc, layout)
		rc.Close()
		if err != nil {
			return nil, errors.Wrap(err, zf.Name)
		}
		return g, nil
	}

	return nil, errors.Wrapf(ErrInvalidShiftGrid, "%s: no csv entry", path)
}

// Layout returns the lattice layout.
func (g *ShiftGrid) Layout() Layout { return g.layout }

// Len returns the number of samples.
func (g *ShiftGrid) Len() int { return len(g.samples) }

// At interpolates the shift at (easting, northing) from the four lattice
// samples around it.
func (g *ShiftGrid) At(easting, northing float64) (Shift, error) {
	cell := g.layout.CellSize
	cols := g.layout.Columns
	rows := len(g.samples) / cols
	x := easting - g.layout.OriginEasting
	y := northing - g.layout.OriginNorthing
	// bounds are checked before converting to int; NaN fails every comparison
	if !(x >= 0 && y >= 0 && x/cell < float64(cols-1) && y/cell < float64(rows-1)) {
		return Shift{}, errors.Wrapf(ErrOutOfDomain, "%.3f,%.3f", easting, northing)
	}

	ei := int(x / cell)
	ni := int(y / cell)
	i0 := ei + ni*cols
	if ei+1 >= cols || i0+cols+1 >= len(g.samples) {
		return Shift{}, errors.Wrapf(ErrOutOfDomain, "%.3f,%.3f", easting, northing)
	}

	s0 := g.samples[i0]
	s1 := g.samples[i0+1]
	s2 := g.samples[i0+cols+1]
	s3 := g.samples[i0+cols]

	t := (x - float64(ei)*cell) / cell
	u := (y - float64(ni)*cell) / cell

	w0 := (1 - t) * (1 - u)
	w1 := t * (1 - u)
	w2 := t * u
	w3 := (1 - t) * u

	return Shift{
		Easting:  w0*s0.Easting + w1*s1.Easting + w2*s2.Easting + w3*s3.Easting,
		Northing: w0*s0.Northing + w1*s1.Northing + w2*s2.Northing + w3*s3.Northing,
	}, nil
}
