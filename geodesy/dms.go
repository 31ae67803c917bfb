package geodesy

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ParseDMS parses a degree value written either as a decimal number or as
// degree, minute and second fields separated by spaces, '-', ',' or ':'. A
// trailing or leading hemisphere letter (N, S, E, W) sets the sign.
func ParseDMS(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.Wrap(ErrInvalidDMS, "empty value")
	}

	sign := 1.0
	upper := strings.ToUpper(s)
	switch {
	case strings.HasSuffix(upper, "S"), strings.HasSuffix(upper, "W"):
		sign = -1
		s = s[:len(s)-1]
	case strings.HasSuffix(upper, "N"), strings.HasSuffix(upper, "E"):
		s = s[:len(s)-1]
	case strings.HasPrefix(upper, "S"), strings.HasPrefix(upper, "W"):
		sign = -1
		s = s[1:]
	case strings.HasPrefix(upper, "N"), strings.HasPrefix(upper, "E"):
		s = s[1:]
	}

	s = strings.Map(func(r rune) rune {
		switch r {
		case '°', '\'', '"':
			return ' '
		}
		return r
	}, s)

	// A lone value may carry its own minus sign; with several fields a '-' is
	// a separator.
	if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		return sign * v, nil
	}

	if strings.HasPrefix(strings.TrimSpace(s), "-") {
		sign = -sign
		s = strings.TrimPrefix(strings.TrimSpace(s), "-")
	}

	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '-' || r == ',' || r == ':'
	})
	if len(fields) == 0 || len(fields) > 3 {
		return 0, errors.Wrapf(ErrInvalidDMS, "%q", s)
	}

	var parts [3]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return 0, errors.Wrapf(ErrInvalidDMS, "%q", f)
		}
		parts[i] = v
	}
	if parts[1] < 0 || parts[1] >= 60 || parts[2] < 0 || parts[2] >= 60 {
		return 0, errors.Wrapf(ErrInvalidDMS, "minutes or seconds out of range in %q", s)
	}

	return sign * (math.Abs(parts[0]) + parts[1]/60 + parts[2]/3600), nil
}

// ParseLocation parses a latitude and longitude written in any form ParseDMS
// accepts.
func ParseLocation(lat, lon string) (Location, error) {
	la, err := ParseDMS(lat)
	if err != nil {
		return Location{}, errors.Wrap(err, "latitude")
	}
	lo, err := ParseDMS(lon)
	if err != nil {
		return Location{}, errors.Wrap(err, "longitude")
	}
	l := Location{Latitude: la, Longitude: lo}
	if !l.Valid() {
		return Location{}, errors.Wrapf(ErrInvalidDMS, "location %v out of range", l)
	}
	return l, nil
}

// ToDMS splits a decimal degree value into whole degrees, whole minutes and
// seconds. The sign is carried on the degrees, or on the minutes or seconds
// when the larger fields are zero.
func ToDMS(decimal float64) (deg, mins int, sec float64) {
	v := math.Abs(decimal)
	deg = int(v)
	m := (v - float64(deg)) * 60
	mins = int(m)
	sec = (m - float64(mins)) * 60

	// floating point residue can push seconds to 60
	if sec >= 60-1e-6 {
		sec = 0
		mins++
		if mins == 60 {
			mins = 0
			deg++
		}
	}

	if decimal < 0 {
		switch {
		case deg != 0:
			deg = -deg
		case mins != 0:
			mins = -mins
		default:
			sec = -sec
		}
	}
	return deg, mins, sec
}

// FormatDMS writes a latitude or longitude with a hemisphere letter, for
// example 51°30'0.00"N.
func FormatDMS(decimal float64, latitude bool) string {
	hemi := 'N'
	if latitude {
		if decimal < 0 {
			hemi = 'S'
		}
	} else {
		hemi = 'E'
		if decimal < 0 {
			hemi = 'W'
		}
	}
	d, m, s := ToDMS(math.Abs(decimal))
	return fmt.Sprintf("%d°%d'%.2f\"%c", d, m, s, hemi)
}
