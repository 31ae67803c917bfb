package natgrid

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

const tileSize = 100000

// tiles holds the 100 km square letters indexed by [easting/100km][northing/100km].
var tiles = [7][13]string{
	{"SV", "", "", "", "", "", "", "NL", "NF", "NA", "", "", ""},
	{"SW", "SR", "SM", "", "", "NW", "NR", "NM", "NG", "NB", "HW", "", ""},
	{"SX", "SS", "SN", "SH", "SC", "NX", "NS", "NN", "NH", "NC", "HX", "", ""},
	{"SY", "ST", "SO", "SJ", "SD", "NY", "NT", "NO", "NJ", "ND", "HY", "HT", ""},
	{"SZ", "SU", "SP", "SK", "SE", "NZ", "NU", "", "NK", "", "HZ", "HU", "HP"},
	{"TV", "TQ", "TL", "TF", "TA", "", "", "", "", "", "", "", ""},
	{"", "TR", "TM", "TG", "", "", "", "", "", "", "", "", ""},
}

// TileName returns the two letter code of the 100 km square containing
// (easting, northing).
func TileName(easting, northing int) (string, error) {
	if easting < 0 || northing < 0 {
		return "", errors.Wrapf(ErrNoTile, "%d,%d", easting, northing)
	}
	ei, ni := easting/tileSize, northing/tileSize
	if ei >= len(tiles) || ni >= len(tiles[0]) || tiles[ei][ni] == "" {
		return "", errors.Wrapf(ErrNoTile, "%d,%d", easting, northing)
	}
	return tiles[ei][ni], nil
}

// GridReference formats a grid reference with digits figures per axis, for
// example "TQ 30 80" for two digits.
func GridReference(easting, northing, digits int) (string, error) {
	if digits < 1 || digits > 5 {
		return "", errors.Errorf("natgrid: %d digit grid reference", digits)
	}
	name, err := TileName(easting, northing)
	if err != nil {
		return "", err
	}
	div := int(math.Pow10(5 - digits))
	e := (easting % tileSize) / div
	n := (northing % tileSize) / div
	return fmt.Sprintf("%s %0*d %0*d", name, digits, e, digits, n), nil
}

// dataTiles partitions the grid into the terrain data files. The first
// matching rectangle wins.
var dataTiles = []struct {
	code  string
	bound orb.Bound
}{
	{"UK_01", tileBound(200, 900, 100, 100)},
	{"UK_02", tileBound(0, 600, 500, 100)},
	{"UK_03", tileBound(0, 500, 500, 100)},
	{"UK_04", tileBound(400, 300, 300, 100)},
	{"UK_05", tileBound(400, 400, 200, 100)},
	{"UK_06", tileBound(0, 400, 400, 100)},
	{"UK_07", tileBound(200, 300, 200, 100)},
	{"UK_08", tileBound(0, 0, 100, 100)},
	{"UK_09", tileBound(100, 0, 200, 300)},
	{"UK_10", tileBound(300, 100, 200, 100)},
	{"UK_11", tileBound(300, 200, 200, 100)},
	{"UK_12", tileBound(300, 0, 200, 100)},
	{"UK_13", tileBound(500, 200, 200, 100)},
	{"UK_14", tileBound(500, 100, 200, 100)},
	{"UK_15", tileBound(500, 0, 200, 100)},
	{"UK_16", tileBound(0, 900, 200, 100)},
	{"UK_17", tileBound(0, 700, 300, 200)},
	{"UK_18", tileBound(300, 700, 200, 200)},
	{"UK_19", tileBound(400, 1000, 100, 300)},
	{"UK_20", tileBound(300, 900, 100, 300)},
}

// tileBound builds a bound from a south west corner and size in kilometers.
func tileBound(eastKm, northKm, widthKm, heightKm float64) orb.Bound {
	return orb.Bound{
		Min: orb.Point{eastKm * 1000, northKm * 1000},
		Max: orb.Point{(eastKm + widthKm) * 1000, (northKm + heightKm) * 1000},
	}
}

// DataTileCode returns the terrain data file code covering (easting,
// northing), or "" when none does.
func DataTileCode(easting, northing int) string {
	e, n := float64(easting), float64(northing)
	for _, t := range dataTiles {
		// half open on the upper edges
		if e >= t.bound.Min[0] && e < t.bound.Max[0] && n >= t.bound.Min[1] && n < t.bound.Max[1] {
			return t.code
		}
	}
	return ""
}
