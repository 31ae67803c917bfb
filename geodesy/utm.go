package geodesy

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/tzneal/coordconv"
)

// UTMReference formats the UTM coordinate of l as "<zone><hemisphere>
// <easting> <northing>", for example "30U 699316 5710164".
func UTMReference(l Location) (string, error) {
	c, err := coordconv.DefaultUTMConverter.ConvertFromGeodetic(l.LatLng(), 0)
	if err != nil {
		return "", errors.Wrapf(err, "utm %v", l)
	}
	return fmt.Sprintf("%d%c %.0f %.0f", c.Zone, hemisphereRune(c.Hemisphere), c.Easting, c.Northing), nil
}

// MGRSReference returns the MGRS reference of l at the given precision (1 to
// 5 digits per axis).
func MGRSReference(l Location, precision int) (string, error) {
	m, err := coordconv.DefaultMGRSConverter.ConvertFromGeodetic(l.LatLng(), precision)
	if err != nil {
		return "", errors.Wrapf(err, "mgrs %v", l)
	}
	return fmt.Sprint(m), nil
}

// FromUTM converts a UTM coordinate back to a location.
func FromUTM(zone int, north bool, easting, northing float64) (Location, error) {
	hemi := coordconv.HemisphereSouth
	if north {
		hemi = coordconv.HemisphereNorth
	}
	ll, err := coordconv.DefaultUTMConverter.ConvertToGeodetic(coordconv.UTMCoord{
		Zone:       zone,
		Hemisphere: hemi,
		Easting:    easting,
		Northing:   northing,
	})
	if err != nil {
		return Location{}, errors.Wrapf(err, "utm zone %d", zone)
	}
	return FromLatLng(ll), nil
}

func hemisphereRune(h coordconv.Hemisphere) rune {
	switch h {
	case coordconv.HemisphereNorth:
		return 'N'
	case coordconv.HemisphereSouth:
		return 'S'
	}
	return '?'
}
