package datum

import (
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/tingold/orb-tvws/geodesy"
)

// DefaultRegions lists the NADCON regions in lookup order.
var DefaultRegions = []string{"conus", "alaska", "stlrnc", "stgeorge", "stpaul", "prvi", "hawaii"}

const secondsPerDegree = 3600.0

// Region pairs the latitude and longitude shift grids of one area.
type Region struct {
	Name      string
	Latitude  *Grid // .las, shift in arc-seconds, positive north
	Longitude *Grid // .los, shift in arc-seconds, positive west
}

// Contains reports whether both grids of the region cover (lat, lon).
func (r Region) Contains(lat, lon float64) bool {
	return r.Latitude.Contains(lon, lat) && r.Longitude.Contains(lon, lat)
}

// LoadRegion reads <dir>/<name>.las and <dir>/<name>.los.
func LoadRegion(dir, name string) (Region, error) {
	las, err := LoadGrid(filepath.Join(dir, name+".las"))
	if err != nil {
		return Region{}, errors.Wrapf(err, "region %s", name)
	}
	los, err := LoadGrid(filepath.Join(dir, name+".los"))
	if err != nil {
		return Region{}, errors.Wrapf(err, "region %s", name)
	}
	return Region{Name: name, Latitude: las, Longitude: los}, nil
}

// LoadRegions loads every named region from dir, preserving order. A missing
// or corrupt file fails the whole load.
func LoadRegions(dir string, names []string, logger *log.Logger) ([]Region, error) {
	regions := make([]Region, 0, len(names))
	for _, name := range names {
		r, err := LoadRegion(dir, name)
		if err != nil {
			return nil, err
		}
		if logger != nil {
			logger.Info("loaded datum grid", "region", name, "cols", r.Latitude.Cols, "rows", r.Latitude.Rows,
				"xmin", r.Latitude.XMin, "ymin", r.Latitude.YMin)
		}
		regions = append(regions, r)
	}
	return regions, nil
}

// Transformer shifts legacy datum coordinates onto the modern datum. It is
// immutable and safe for concurrent use.
type Transformer struct {
	regions []Region
}

// NewTransformer builds a transformer that tries regions in the given order.
func NewTransformer(regions ...Region) *Transformer {
	rs := make([]Region, len(regions))
	copy(rs, regions)
	return &Transformer{regions: rs}
}

// Regions returns the region names in lookup order.
func (t *Transformer) Regions() []string {
	names := make([]string, len(t.regions))
	for i, r := range t.regions {
		names[i] = r.Name
	}
	return names
}

// Region returns the name of the first region covering p.
func (t *Transformer) Region(p geodesy.Location) (string, bool) {
	for _, r := range t.regions {
		if r.Contains(p.Latitude, p.Longitude) {
			return r.Name, true
		}
	}
	return "", false
}

// ToModern shifts p onto the modern datum. It returns an error wrapping
// ErrNotApplicable when no region covers p.
func (t *Transformer) ToModern(p geodesy.Location) (geodesy.Location, error) {
	for _, r := range t.regions {
		if !r.Contains(p.Latitude, p.Longitude) {
			continue
		}

		dlas, err := r.Latitude.Interpolate(p.Longitude, p.Latitude)
		if err != nil {
			return p, err
		}
		dlos, err := r.Longitude.Interpolate(p.Longitude, p.Latitude)
		if err != nil {
			return p, err
		}

		return geodesy.Location{
			Latitude:  p.Latitude + dlas/secondsPerDegree,
			Longitude: p.Longitude - dlos/secondsPerDegree,
		}, nil
	}

	return p, errors.Wrapf(ErrNotApplicable, "%v", p)
}

// ToModernOrSelf shifts p when a region covers it and returns p unchanged
// otherwise.
func (t *Transformer) ToModernOrSelf(p geodesy.Location) geodesy.Location {
	shifted, err := t.ToModern(p)
	if err != nil {
		return p
	}
	return shifted
}
