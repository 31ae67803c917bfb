// Package natgrid projects geodetic coordinates onto the British National Grid
// and back.
//
// The forward and inverse transforms are the Transverse Mercator series of the
// Ordnance Survey. A Projector may carry a ShiftGrid, in which case projected
// coordinates are corrected by the interpolated grid shift after projection and
// the shift is removed by fixed-point iteration before inversion.
package natgrid

import (
	"math"

	"github.com/pkg/errors"

	"github.com/tingold/orb-tvws/geodesy"
)

// Common errors returned by this package.
var (
	ErrOutOfDomain      = errors.New("natgrid: location outside grid domain")
	ErrNonConvergence   = errors.New("natgrid: iteration did not converge")
	ErrInvalidShiftGrid = errors.New("natgrid: invalid shift grid")
	ErrNoTile           = errors.New("natgrid: no national grid tile")
)

// DefaultMaxIterations bounds both inverse iterations.
const DefaultMaxIterations = 100

const (
	shiftTolerance    = 0.0001 // meters
	meridianTolerance = 0.001  // meters
)

// Params defines a Transverse Mercator projection.
type Params struct {
	Ellipsoid       geodesy.Ellipsoid
	ScaleFactor     float64 // F0 on the central meridian
	OriginLatitude  float64 // φ0, degrees
	OriginLongitude float64 // λ0, degrees
	FalseEasting    float64 // E0, meters
	FalseNorthing   float64 // N0, meters
}

// ostnGRS80 carries the rounded GRS80 constants published with the OSTN
// transformation, which the shift grid was computed against.
var ostnGRS80 = geodesy.Ellipsoid{
	Name:                "GRS80",
	SemiMajorAxis:       6378137.0,
	SemiMinorAxis:       6356752.314,
	Flattening:          (6378137.0 - 6356752.314) / 6378137.0,
	EccentricitySquared: 6.69437999e-3,
}

// NationalGrid projects ETRS89/WGS84 coordinates; pair it with the OSTN shift
// grid to land on OSGB36 eastings and northings.
var NationalGrid = Params{
	Ellipsoid:       ostnGRS80,
	ScaleFactor:     0.9996012717,
	OriginLatitude:  49,
	OriginLongitude: -2,
	FalseEasting:    400000,
	FalseNorthing:   -100000,
}

// AiryNationalGrid projects coordinates that are already on OSGB36.
var AiryNationalGrid = Params{
	Ellipsoid:       geodesy.Airy1830,
	ScaleFactor:     0.9996012717,
	OriginLatitude:  49,
	OriginLongitude: -2,
	FalseEasting:    400000,
	FalseNorthing:   -100000,
}

// Projector converts between geodetic locations and grid coordinates. It is
// immutable and safe for concurrent use.
type Projector struct {
	params        Params
	shifts        *ShiftGrid
	maxIterations int

	a, b, e2, n float64
	af0, bf0    float64 // axes scaled by F0
	lat0, lon0  float64 // true origin, radians
}

// ProjectorOption configures a Projector.
type ProjectorOption func(*Projector)

// WithShiftGrid applies g after forward projection.
func WithShiftGrid(g *ShiftGrid) ProjectorOption {
	return func(p *Projector) { p.shifts = g }
}

// WithMaxIterations caps the inverse iterations.
func WithMaxIterations(n int) ProjectorOption {
	return func(p *Projector) {
		if n > 0 {
			p.maxIterations = n
		}
	}
}

// NewProjector returns a projector for params.
func NewProjector(params Params, opts ...ProjectorOption) *Projector {
	e := params.Ellipsoid
	p := &Projector{
		params:        params,
		maxIterations: DefaultMaxIterations,
		a:             e.SemiMajorAxis,
		b:             e.SemiMinorAxis,
		e2:            e.EccentricitySquared,
		n:             (e.SemiMajorAxis - e.SemiMinorAxis) / (e.SemiMajorAxis + e.SemiMinorAxis),
		af0:           e.SemiMajorAxis * params.ScaleFactor,
		bf0:           e.SemiMinorAxis * params.ScaleFactor,
		lat0:          radians(params.OriginLatitude),
		lon0:          radians(params.OriginLongitude),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Params returns the projection parameters.
func (p *Projector) Params() Params { return p.params }

// ShiftGrid returns the attached shift grid, or nil.
func (p *Projector) ShiftGrid() *ShiftGrid { return p.shifts }

// Project converts l to grid coordinates, applying the shift grid when one is
// attached.
func (p *Projector) Project(l geodesy.Location) (GridPoint, error) {
	if !l.Valid() {
		return GridPoint{}, errors.Wrapf(ErrOutOfDomain, "location %v", l)
	}
	e, n := p.forward(l)
	if p.shifts == nil {
		return NewGridPoint(e, n), nil
	}

	s, err := p.shifts.At(e, n)
	if err != nil {
		return GridPoint{}, err
	}
	return NewGridPoint(e+s.Easting, n+s.Northing), nil
}

// ProjectRaw converts l without the shift correction.
func (p *Projector) ProjectRaw(l geodesy.Location) GridPoint {
	return NewGridPoint(p.forward(l))
}

// Unproject converts grid coordinates back to a location, removing the shift
// first when a shift grid is attached.
func (p *Projector) Unproject(easting, northing float64) (geodesy.Location, error) {
	if !finite(easting) || !finite(northing) {
		return geodesy.Location{}, errors.Wrapf(ErrOutOfDomain, "%v,%v", easting, northing)
	}
	if p.shifts != nil {
		var err error
		easting, northing, err = p.unshift(easting, northing)
		if err != nil {
			return geodesy.Location{}, err
		}
	}
	return p.inverse(easting, northing)
}

// UnprojectRaw converts grid coordinates without touching the shift grid.
func (p *Projector) UnprojectRaw(easting, northing float64) (geodesy.Location, error) {
	if !finite(easting) || !finite(northing) {
		return geodesy.Location{}, errors.Wrapf(ErrOutOfDomain, "%v,%v", easting, northing)
	}
	return p.inverse(easting, northing)
}

// unshift finds the raw projected coordinate whose shifted position is
// (easting, northing).
func (p *Projector) unshift(easting, northing float64) (float64, float64, error) {
	s, err := p.shifts.At(easting, northing)
	if err != nil {
		return 0, 0, err
	}
	e, n := easting-s.Easting, northing-s.Northing

	for i := 0; i < p.maxIterations; i++ {
		s, err = p.shifts.At(e, n)
		if err != nil {
			return 0, 0, err
		}
		ne, nn := easting-s.Easting, northing-s.Northing
		if math.Abs(ne-e) <= shiftTolerance && math.Abs(nn-n) <= shiftTolerance {
			return ne, nn, nil
		}
		e, n = ne, nn
	}

	return 0, 0, errors.Wrapf(ErrNonConvergence, "shift at %.3f,%.3f", easting, northing)
}

func (p *Projector) forward(l geodesy.Location) (float64, float64) {
	lat := radians(l.Latitude)
	lon := radians(l.Longitude)

	sinLat, cosLat := math.Sincos(lat)
	cos3 := cosLat * cosLat * cosLat
	cos5 := cos3 * cosLat * cosLat
	tan2 := math.Tan(lat) * math.Tan(lat)
	tan4 := tan2 * tan2

	nu := p.af0 / math.Sqrt(1-p.e2*sinLat*sinLat)
	rho := nu * (1 - p.e2) / (1 - p.e2*sinLat*sinLat)
	eta2 := nu/rho - 1

	m := p.meridionalArc(lat)

	i := m + p.params.FalseNorthing
	ii := nu / 2 * sinLat * cosLat
	iii := nu / 24 * sinLat * cos3 * (5 - tan2 + 9*eta2)
	iiia := nu / 720 * sinLat * cos5 * (61 - 58*tan2 + tan4)
	iv := nu * cosLat
	v := nu / 6 * cos3 * (nu/rho - tan2)
	vi := nu / 120 * cos5 * (5 - 18*tan2 + tan4 + 14*eta2 - 58*tan2*eta2)

	dl := lon - p.lon0
	dl2 := dl * dl
	dl3 := dl2 * dl
	dl4 := dl3 * dl
	dl5 := dl4 * dl
	dl6 := dl5 * dl

	northing := i + ii*dl2 + iii*dl4 + iiia*dl6
	easting := p.params.FalseEasting + iv*dl + v*dl3 + vi*dl5
	return easting, northing
}

func (p *Projector) inverse(easting, northing float64) (geodesy.Location, error) {
	e0 := p.params.FalseEasting
	n0 := p.params.FalseNorthing

	lat := (northing-n0)/p.af0 + p.lat0
	m := p.meridionalArc(lat)
	converged := math.Abs(northing-n0-m) < meridianTolerance
	for i := 0; !converged && i < p.maxIterations; i++ {
		lat += (northing - n0 - m) / p.af0
		m = p.meridionalArc(lat)
		converged = math.Abs(northing-n0-m) < meridianTolerance
	}
	if !converged {
		return geodesy.Location{}, errors.Wrapf(ErrNonConvergence, "latitude at %.3f,%.3f", easting, northing)
	}

	sinLat, cosLat := math.Sincos(lat)
	tanLat := math.Tan(lat)
	tan2 := tanLat * tanLat
	tan4 := tan2 * tan2
	tan6 := tan4 * tan2
	secLat := 1 / cosLat

	nu := p.af0 / math.Sqrt(1-p.e2*sinLat*sinLat)
	rho := nu * (1 - p.e2) / (1 - p.e2*sinLat*sinLat)
	eta2 := nu/rho - 1
	nu3 := nu * nu * nu
	nu5 := nu3 * nu * nu
	nu7 := nu5 * nu * nu

	vii := tanLat / (2 * rho * nu)
	viii := tanLat / (24 * rho * nu3) * (5 + 3*tan2 + eta2 - 9*tan2*eta2)
	ix := tanLat / (720 * rho * nu5) * (61 + 90*tan2 + 45*tan4)
	x := secLat / nu
	xi := secLat / (6 * nu3) * (nu/rho + 2*tan2)
	xii := secLat / (120 * nu5) * (5 + 28*tan2 + 24*tan4)
	xiia := secLat / (5040 * nu7) * (61 + 662*tan2 + 1320*tan4 + 720*tan6) // 7! = 5040

	de := easting - e0
	de2 := de * de
	de3 := de2 * de
	de4 := de3 * de
	de5 := de4 * de
	de6 := de5 * de
	de7 := de6 * de

	return geodesy.Location{
		Latitude:  degrees(lat - vii*de2 + viii*de4 - ix*de6),
		Longitude: degrees(p.lon0 + x*de - xi*de3 + xii*de5 - xiia*de7),
	}, nil
}

// meridionalArc returns the developed meridian distance M from the true
// origin to lat, scaled by F0.
func (p *Projector) meridionalArc(lat float64) float64 {
	n := p.n
	n2 := n * n
	n3 := n2 * n
	dLat := lat - p.lat0
	sLat := lat + p.lat0

	ma := (1 + n + 5.0/4*n2 + 5.0/4*n3) * dLat
	mb := (3*n + 3*n2 + 21.0/8*n3) * math.Sin(dLat) * math.Cos(sLat)
	mc := (15.0/8*n2 + 15.0/8*n3) * math.Sin(2*dLat) * math.Cos(2*sLat)
	md := 35.0 / 24 * n3 * math.Sin(3*dLat) * math.Cos(3*sLat)

	return p.bf0 * (ma - mb + mc - md)
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func radians(deg float64) float64 { return deg * math.Pi / 180 }
func degrees(rad float64) float64 { return rad * 180 / math.Pi }
