package geodesy

import (
	"math"

	"github.com/pkg/errors"
)

// ContourPoints is the number of points on a radial contour: one per integer
// azimuth from 0 to 360 inclusive.
const ContourPoints = 361

// RadialContour returns the points at distance meters from centre on every
// integer azimuth 0..360. The last point repeats the first to close the ring.
func RadialContour(e Ellipsoid, centre Location, distance float64) []Location {
	points := make([]Location, 0, ContourPoints)
	for az := 0; az < ContourPoints; az++ {
		p, _ := Direct(e, centre, float64(az), distance)
		points = append(points, p)
	}
	return points
}

// ContourIndex maps a bearing onto an index into a radial contour. Bearings
// outside [0, 360) wrap; NaN and infinities are rejected.
func ContourIndex(bearing float64) (int, error) {
	if math.IsNaN(bearing) || math.IsInf(bearing, 0) {
		return 0, errors.Wrapf(ErrInvalidBearing, "%v", bearing)
	}
	idx := int(NormalizeBearing(bearing))
	if idx >= 360 {
		idx = 0
	}
	return idx, nil
}
