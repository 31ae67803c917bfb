// Package geodesy holds reference ellipsoids and solves the direct and inverse
// geodesic problems on them with Vincenty's formulae.
//
// Bearings are degrees clockwise from true north in [0, 360). Coincident and
// antipodal inputs have no defined bearing; Inverse reports them as errors
// instead of returning NaN.
package geodesy

import (
	"strings"

	"github.com/pkg/errors"
)

// Common errors returned by this package.
var (
	ErrCoincidentPoints = errors.New("geodesy: coincident points have no bearing")
	ErrNonConvergence   = errors.New("geodesy: vincenty iteration did not converge")
	ErrUnknownEllipsoid = errors.New("geodesy: unknown ellipsoid")
	ErrInvalidBearing   = errors.New("geodesy: bearing is not a finite number")
	ErrInvalidDMS       = errors.New("geodesy: invalid degree/minute/second value")
)

// Ellipsoid describes a reference ellipsoid. Values are constants and are
// never mutated after construction.
type Ellipsoid struct {
	Name                string
	SemiMajorAxis       float64 // a, meters
	SemiMinorAxis       float64 // b, meters
	Flattening          float64 // (a-b)/a
	EccentricitySquared float64 // (a²-b²)/a²
}

// NewEllipsoid builds an ellipsoid from its semi-major axis and inverse
// flattening.
func NewEllipsoid(name string, a, inverseFlattening float64) Ellipsoid {
	f := 1 / inverseFlattening
	b := a * (1 - f)
	return Ellipsoid{
		Name:                name,
		SemiMajorAxis:       a,
		SemiMinorAxis:       b,
		Flattening:          f,
		EccentricitySquared: f * (2 - f),
	}
}

// NewEllipsoidAxes builds an ellipsoid from both semi-axes.
func NewEllipsoidAxes(name string, a, b float64) Ellipsoid {
	return Ellipsoid{
		Name:                name,
		SemiMajorAxis:       a,
		SemiMinorAxis:       b,
		Flattening:          (a - b) / a,
		EccentricitySquared: (a*a - b*b) / (a * a),
	}
}

// Predefined ellipsoids.
var (
	WGS84            = NewEllipsoid("WGS84", 6378137.0, 298.257223563)
	GRS80            = NewEllipsoid("GRS80", 6378137.0, 298.257222101)
	Airy1830         = NewEllipsoidAxes("Airy1830", 6377563.396, 6356256.909)
	Airy1830Modified = NewEllipsoidAxes("Airy1830Modified", 6377340.189, 6356034.447)
	Clarke1866       = NewEllipsoidAxes("Clarke1866", 6378206.4, 6356583.8)
)

var ellipsoids = []Ellipsoid{WGS84, GRS80, Airy1830, Airy1830Modified, Clarke1866}

// Lookup returns the predefined ellipsoid with the given name, ignoring case.
func Lookup(name string) (Ellipsoid, error) {
	for _, e := range ellipsoids {
		if strings.EqualFold(e.Name, name) {
			return e, nil
		}
	}
	return Ellipsoid{}, errors.Wrapf(ErrUnknownEllipsoid, "%q", name)
}
