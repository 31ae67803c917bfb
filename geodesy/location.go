package geodesy

import (
	"fmt"
	"math"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
)

// Location is a latitude/longitude pair in decimal degrees.
type Location struct {
	Latitude  float64
	Longitude float64
}

// NewLocation returns the location at lat, lon.
func NewLocation(lat, lon float64) Location {
	return Location{Latitude: lat, Longitude: lon}
}

// FromPoint converts an orb point (x = longitude, y = latitude).
func FromPoint(p orb.Point) Location {
	return Location{Latitude: p.Lat(), Longitude: p.Lon()}
}

// FromLatLng converts an s2 angle pair.
func FromLatLng(ll s2.LatLng) Location {
	return Location{Latitude: ll.Lat.Degrees(), Longitude: ll.Lng.Degrees()}
}

// Point returns the location as an orb point.
func (l Location) Point() orb.Point {
	return orb.Point{l.Longitude, l.Latitude}
}

// LatLng returns the location as an s2 angle pair.
func (l Location) LatLng() s2.LatLng {
	return s2.LatLng{
		Lat: s1.Angle(l.Latitude) * s1.Degree,
		Lng: s1.Angle(l.Longitude) * s1.Degree,
	}
}

// Equal reports whether both coordinates match exactly.
func (l Location) Equal(o Location) bool {
	return l.Latitude == o.Latitude && l.Longitude == o.Longitude
}

// Valid reports whether the coordinates are finite and in range.
func (l Location) Valid() bool {
	return !math.IsNaN(l.Latitude) && !math.IsNaN(l.Longitude) &&
		l.Latitude >= -90 && l.Latitude <= 90 &&
		l.Longitude >= -180 && l.Longitude <= 180
}

func (l Location) String() string {
	return fmt.Sprintf("(%.6f, %.6f)", l.Latitude, l.Longitude)
}

func toRadians(deg float64) float64 { return deg * math.Pi / 180 }
func toDegrees(rad float64) float64 { return rad * 180 / math.Pi }

// NormalizeBearing maps any finite bearing into [0, 360).
func NormalizeBearing(deg float64) float64 {
	b := math.Mod(deg, 360)
	if b < 0 {
		b += 360
	}
	if b >= 360 {
		b = 0
	}
	return b
}

// normalizeLongitude maps a longitude into [-180, 180].
func normalizeLongitude(deg float64) float64 {
	if deg >= -180 && deg <= 180 {
		return deg
	}
	l := math.Mod(deg+180, 360)
	if l < 0 {
		l += 360
	}
	return l - 180
}
