// Package tvws is the geospatial core of a TV white space database. An
// Engine converts between geodetic coordinates, the legacy NADCON datum and
// the British National Grid, solves geodesics and enumerates the candidate
// cells a device could cover. Results can be exported as FlatGeobuf layers.
package tvws

import (
	"github.com/pkg/errors"
)

// Common errors returned by this package.
var (
	ErrResourceLoad    = errors.New("tvws: resource load failed")
	ErrEmptyLayer      = errors.New("tvws: layer has no features")
	ErrUnsupportedType = errors.New("tvws: unsupported geometry type")
	ErrInvalidData     = errors.New("tvws: invalid data")
	ErrNoIndex         = errors.New("tvws: file has no spatial index")
	ErrInvalidColumn   = errors.New("tvws: invalid column")
)

// CRS represents a coordinate reference system.
type CRS struct {
	Code        int    // EPSG code
	Name        string // CRS name
	Description string // CRS description
}

// WGS84 returns the geodetic CRS used for contours and regions (EPSG:4326).
func WGS84() *CRS {
	return &CRS{
		Code: 4326,
		Name: "WGS 84",
	}
}

// BritishNationalGrid returns the projected CRS of candidate cells
// (EPSG:27700).
func BritishNationalGrid() *CRS {
	return &CRS{
		Code: 27700,
		Name: "OSGB36 / British National Grid",
	}
}

// Options configures FlatGeobuf writing. CRS defaults to the natural CRS of
// the layer when nil.
type Options struct {
	Name         string // Layer name
	Description  string // Layer description
	IncludeIndex bool   // Include spatial index (default: true)
	CRS          *CRS
}

// DefaultOptions returns default options for writing FlatGeobuf files.
func DefaultOptions() *Options {
	return &Options{
		IncludeIndex: true,
	}
}

// ColumnInfo describes a property column in a FlatGeobuf file.
type ColumnInfo struct {
	Name     string // Column name
	Type     string // Column type ("Int", "Long", "Double", "String", ...)
	Title    string
	Nullable bool
}

// Header contains metadata about a FlatGeobuf file.
type Header struct {
	Name          string
	Description   string
	GeometryType  string     // "Polygon", "Point", ...
	FeaturesCount uint64     // Number of features in the file
	Envelope      [4]float64 // Bounding box [minX, minY, maxX, maxY]
	CRS           *CRS
	HasIndex      bool
	Columns       []ColumnInfo
}
