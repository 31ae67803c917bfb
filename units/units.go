// Package units converts the scalar distance and power quantities used by the
// coverage calculations, and rounds projected coordinates onto grid resolutions.
package units

import (
	"math"

	"github.com/pkg/errors"
)

// Conversion factors.
const (
	MetersPerFoot  = 0.30479999798832
	FeetPerMeter   = 3.2808399166666664
	KmPerMile      = 1.609344
	MilesPerKm     = 0.621371192
	FeetPerMile    = 5280.0
	MetersPerKm    = 1000.0
	MilliwattsPerW = 1000.0
)

// ErrUnknownUnit is returned when a Distance carries a unit outside the known set.
var ErrUnknownUnit = errors.New("units: unknown distance unit")

// Unit identifies the unit a Distance was measured in.
type Unit int

// Distance units.
const (
	Meters Unit = iota
	Kilometers
	Miles
	Feet
)

var unitNames = [...]string{"m", "km", "mi", "ft"}

func (u Unit) String() string {
	if u < 0 || int(u) >= len(unitNames) {
		return "unknown"
	}
	return unitNames[u]
}

// Distance is a length tagged with the unit it was supplied in.
type Distance struct {
	Value float64
	Unit  Unit
}

// NewDistance returns a Distance of v in unit u.
func NewDistance(v float64, u Unit) Distance {
	return Distance{Value: v, Unit: u}
}

// InMeters returns the distance in meters.
func (d Distance) InMeters() (float64, error) {
	switch d.Unit {
	case Meters:
		return d.Value, nil
	case Kilometers:
		return KmToMeters(d.Value), nil
	case Miles:
		return MilesToMeters(d.Value), nil
	case Feet:
		return FeetToMeters(d.Value), nil
	}
	return 0, errors.Wrapf(ErrUnknownUnit, "unit %d", int(d.Unit))
}

// InKm returns the distance in kilometers.
func (d Distance) InKm() (float64, error) {
	m, err := d.InMeters()
	return MetersToKm(m), err
}

// InMiles returns the distance in statute miles.
func (d Distance) InMiles() (float64, error) {
	m, err := d.InMeters()
	return KmToMiles(MetersToKm(m)), err
}

// InFeet returns the distance in feet.
func (d Distance) InFeet() (float64, error) {
	m, err := d.InMeters()
	return MetersToFeet(m), err
}

func FeetToMeters(ft float64) float64 { return ft * MetersPerFoot }
func MetersToFeet(m float64) float64 { return m * FeetPerMeter }
func FeetToMiles(ft float64) float64 { return ft / FeetPerMile }
func MilesToFeet(mi float64) float64 { return mi * FeetPerMile }
func MilesToKm(mi float64) float64 { return mi * KmPerMile }
func KmToMiles(km float64) float64 { return km * MilesPerKm }
func MilesToMeters(mi float64) float64 {
	return MilesToKm(mi) * MetersPerKm
}
func KmToMeters(km float64) float64 { return km * MetersPerKm }
func MetersToKm(m float64) float64 { return m / MetersPerKm }

// MilliwattsToDBm converts a power in milliwatts to dBm.
func MilliwattsToDBm(mw float64) float64 {
	return 10 * math.Log10(mw)
}

// DBmToMilliwatts converts dBm to milliwatts.
func DBmToMilliwatts(dbm float64) float64 {
	return math.Pow(10, dbm/10)
}

func WattsToDBm(w float64) float64 { return MilliwattsToDBm(w * MilliwattsPerW) }
func DBmToWatts(dbm float64) float64 { return DBmToMilliwatts(dbm) / MilliwattsPerW }
func KilowattsToDBm(kw float64) float64 { return WattsToDBm(kw * 1e3) }
func DBmToKilowatts(dbm float64) float64 {
	return DBmToWatts(dbm) / 1e3
}
func MegawattsToDBm(mw float64) float64 { return WattsToDBm(mw * 1e6) }
func DBmToMegawatts(dbm float64) float64 {
	return DBmToWatts(dbm) / 1e6
}
func KilowattsToWatts(kw float64) float64 { return kw * 1e3 }
func WattsToKilowatts(w float64) float64 { return w / 1e3 }

// WattsToDBW converts watts to dBW.
func WattsToDBW(w float64) float64 {
	return 10 * math.Log10(w)
}

// DBWToWatts converts dBW to watts.
func DBWToWatts(dbw float64) float64 {
	return math.Pow(10, dbw/10)
}

// DBWToDBm and DBmToDBW differ by the 30 dB between a watt and a milliwatt.
func DBWToDBm(dbw float64) float64 { return dbw + 30 }
func DBmToDBW(dbm float64) float64 { return dbm - 30 }

// Truncate drops v toward zero onto a multiple of res.
func Truncate(v float64, res int) int {
	if res <= 0 {
		return int(v)
	}
	return int(v) / res * res
}

// Floor rounds v down onto a multiple of res.
func Floor(v float64, res int) int {
	if res <= 0 {
		return int(math.Floor(v))
	}
	return int(math.Floor(v/float64(res))) * res
}

// RoundEven rounds v to the nearest multiple of res, breaking ties toward
// the even multiple.
func RoundEven(v float64, res int) int {
	if res <= 0 {
		return int(math.RoundToEven(v))
	}
	return int(math.RoundToEven(v/float64(res))) * res
}
