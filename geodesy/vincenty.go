package geodesy

import (
	"math"

	"github.com/pkg/errors"
)

const (
	maxIterations = 200
	convergence   = 1e-12
)

// Curve is the geodesic between two locations.
type Curve struct {
	Distance     float64 // meters along the ellipsoid
	Azimuth      float64 // initial bearing at the start, degrees
	FinalAzimuth float64 // forward bearing on arrival at the end, degrees
}

// ReverseAzimuth is the bearing from the end back to the start.
func (c Curve) ReverseAzimuth() float64 {
	return NormalizeBearing(c.FinalAzimuth + 180)
}

// Inverse solves the inverse geodesic problem between p1 and p2.
//
// Coincident points return a zero-distance curve with NaN bearings together
// with ErrCoincidentPoints. Nearly antipodal points for which the iteration
// fails return ErrNonConvergence.
func Inverse(e Ellipsoid, p1, p2 Location) (Curve, error) {
	if p1.Equal(p2) {
		return Curve{Azimuth: math.NaN(), FinalAzimuth: math.NaN()}, ErrCoincidentPoints
	}

	a := e.SemiMajorAxis
	b := e.SemiMinorAxis
	f := e.Flattening

	L := toRadians(p2.Longitude - p1.Longitude)
	tanU1 := (1 - f) * math.Tan(toRadians(p1.Latitude))
	cosU1 := 1 / math.Sqrt(1+tanU1*tanU1)
	sinU1 := tanU1 * cosU1
	tanU2 := (1 - f) * math.Tan(toRadians(p2.Latitude))
	cosU2 := 1 / math.Sqrt(1+tanU2*tanU2)
	sinU2 := tanU2 * cosU2

	lambda := L
	var sinLambda, cosLambda, sinSigma, cosSigma, sigma, cosSqAlpha, cos2SigmaM, sinAlpha float64
	converged := false

	for i := 0; i < maxIterations; i++ {
		sinLambda, cosLambda = math.Sincos(lambda)
		x := cosU1*sinU2 - sinU1*cosU2*cosLambda
		sinSigma = math.Sqrt(cosU2*sinLambda*cosU2*sinLambda + x*x)
		if sinSigma == 0 {
			// distinct inputs that map to the same reduced point
			return Curve{Azimuth: math.NaN(), FinalAzimuth: math.NaN()}, ErrCoincidentPoints
		}
		cosSigma = sinU1*sinU2 + cosU1*cosU2*cosLambda
		sigma = math.Atan2(sinSigma, cosSigma)
		sinAlpha = cosU1 * cosU2 * sinLambda / sinSigma
		cosSqAlpha = 1 - sinAlpha*sinAlpha
		if cosSqAlpha != 0 {
			cos2SigmaM = cosSigma - 2*sinU1*sinU2/cosSqAlpha
		} else {
			// equatorial line
			cos2SigmaM = 0
		}
		C := f / 16 * cosSqAlpha * (4 + f*(4-3*cosSqAlpha))
		prev := lambda
		lambda = L + (1-C)*f*sinAlpha*
			(sigma+C*sinSigma*(cos2SigmaM+C*cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)))

		if math.Abs(lambda-prev) <= convergence {
			converged = true
			break
		}
	}

	if !converged {
		return Curve{Azimuth: math.NaN(), FinalAzimuth: math.NaN()},
			errors.Wrapf(ErrNonConvergence, "inverse %v -> %v", p1, p2)
	}

	uSq := cosSqAlpha * (a*a - b*b) / (b * b)
	A := 1 + uSq/16384*(4096+uSq*(-768+uSq*(320-175*uSq)))
	B := uSq / 1024 * (256 + uSq*(-128+uSq*(74-47*uSq)))
	deltaSigma := B * sinSigma * (cos2SigmaM + B/4*(cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)-
		B/6*cos2SigmaM*(-3+4*sinSigma*sinSigma)*(-3+4*cos2SigmaM*cos2SigmaM)))

	alpha1 := math.Atan2(cosU2*sinLambda, cosU1*sinU2-sinU1*cosU2*cosLambda)
	alpha2 := math.Atan2(cosU1*sinLambda, -sinU1*cosU2+cosU1*sinU2*cosLambda)

	return Curve{
		Distance:     b * A * (sigma - deltaSigma),
		Azimuth:      NormalizeBearing(toDegrees(alpha1)),
		FinalAzimuth: NormalizeBearing(toDegrees(alpha2)),
	}, nil
}

// Direct solves the direct geodesic problem: the location reached by
// travelling distance meters from start on the given initial bearing. The
// second return value is the forward bearing on arrival.
func Direct(e Ellipsoid, start Location, bearing, distance float64) (Location, float64) {
	if distance == 0 {
		return start, NormalizeBearing(bearing)
	}

	a := e.SemiMajorAxis
	b := e.SemiMinorAxis
	f := e.Flattening

	sinAlpha1, cosAlpha1 := math.Sincos(toRadians(bearing))
	tanU1 := (1 - f) * math.Tan(toRadians(start.Latitude))
	cosU1 := 1 / math.Sqrt(1+tanU1*tanU1)
	sinU1 := tanU1 * cosU1

	sigma1 := math.Atan2(tanU1, cosAlpha1)
	sinAlpha := cosU1 * sinAlpha1
	cosSqAlpha := 1 - sinAlpha*sinAlpha
	uSq := cosSqAlpha * (a*a - b*b) / (b * b)
	A := 1 + uSq/16384*(4096+uSq*(-768+uSq*(320-175*uSq)))
	B := uSq / 1024 * (256 + uSq*(-128+uSq*(74-47*uSq)))

	sigma := distance / (b * A)
	var sinSigma, cosSigma, cos2SigmaM float64
	for i := 0; i < maxIterations; i++ {
		cos2SigmaM = math.Cos(2*sigma1 + sigma)
		sinSigma, cosSigma = math.Sincos(sigma)
		deltaSigma := B * sinSigma * (cos2SigmaM + B/4*(cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)-
			B/6*cos2SigmaM*(-3+4*sinSigma*sinSigma)*(-3+4*cos2SigmaM*cos2SigmaM)))
		prev := sigma
		sigma = distance/(b*A) + deltaSigma
		if math.Abs(sigma-prev) <= convergence {
			break
		}
	}
	cos2SigmaM = math.Cos(2*sigma1 + sigma)
	sinSigma, cosSigma = math.Sincos(sigma)

	x := sinU1*sinSigma - cosU1*cosSigma*cosAlpha1
	lat := math.Atan2(sinU1*cosSigma+cosU1*sinSigma*cosAlpha1, (1-f)*math.Sqrt(sinAlpha*sinAlpha+x*x))
	lambda := math.Atan2(sinSigma*sinAlpha1, cosU1*cosSigma-sinU1*sinSigma*cosAlpha1)
	C := f / 16 * cosSqAlpha * (4 + f*(4-3*cosSqAlpha))
	L := lambda - (1-C)*f*sinAlpha*
		(sigma+C*sinSigma*(cos2SigmaM+C*cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)))
	alpha2 := math.Atan2(sinAlpha, -x)

	return Location{
		Latitude:  toDegrees(lat),
		Longitude: normalizeLongitude(start.Longitude + toDegrees(L)),
	}, NormalizeBearing(toDegrees(alpha2))
}

// Distance returns the geodesic distance in meters. Coincident points are
// zero meters apart.
func Distance(e Ellipsoid, p1, p2 Location) (float64, error) {
	c, err := Inverse(e, p1, p2)
	if errors.Is(err, ErrCoincidentPoints) {
		return 0, nil
	}
	return c.Distance, err
}

// Bearing returns the initial bearing from p1 to p2.
func Bearing(e Ellipsoid, p1, p2 Location) (float64, error) {
	c, err := Inverse(e, p1, p2)
	if err != nil {
		return math.NaN(), err
	}
	return c.Azimuth, nil
}
