package tvws

import (
	"io"

	"github.com/flatgeobuf/flatgeobuf/src/go/flattypes"
	"github.com/flatgeobuf/flatgeobuf/src/go/writer"
	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"

	"github.com/tingold/orb-tvws/candidate"
	"github.com/tingold/orb-tvws/spatial"
)

// WriteCells writes candidate cells as a polygon layer in national grid
// coordinates. Each feature carries its easting, northing, size and sector.
func WriteCells(w io.Writer, sectors candidate.Sectors, opts *Options) error {
	l := newLayer(cellSchema, BritishNationalGrid())
	for i := 0; i < len(sectors); i++ {
		for _, c := range sectors.Sector(i) {
			if err := l.add(c.Polygon(), c.Easting, c.Northing, c.Size, i); err != nil {
				return errors.Wrapf(err, "cell %v", c)
			}
		}
	}
	return l.write(w, opts)
}

// WriteContours writes contours as WGS84 polygons, each tagged with its
// centre.
func WriteContours(w io.Writer, contours []spatial.Contour, opts *Options) error {
	l := newLayer(contourSchema, WGS84())
	for i, c := range contours {
		if len(c.Points) < 3 {
			return errors.Wrapf(spatial.ErrDegenerateRing, "contour %d has %d points", i, len(c.Points))
		}
		if err := l.add(c.Polygon(), c.Centre.Latitude, c.Centre.Longitude); err != nil {
			return errors.Wrapf(err, "contour %d", i)
		}
	}
	return l.write(w, opts)
}

// WriteContour writes a single contour.
func WriteContour(w io.Writer, c spatial.Contour, opts *Options) error {
	return WriteContours(w, []spatial.Contour{c}, opts)
}

// WriteRegions writes every polygon of every region as its own WGS84
// feature with the region name and the polygon area.
func WriteRegions(w io.Writer, regions []*spatial.Region, opts *Options) error {
	l := newLayer(regionSchema, WGS84())
	for _, r := range regions {
		for _, p := range r.Polygons {
			if err := l.add(orb.Polygon{spatial.Ring(p.Ring)}, r.Name, p.Area); err != nil {
				return errors.Wrapf(err, "region %s", r.Name)
			}
		}
	}
	return l.write(w, opts)
}

// feature is a polygon with its encoded properties.
type feature struct {
	geometry   orb.Polygon
	properties []byte
}

// layer collects the features of one file before writing. Properties are
// encoded as features are added so that bad values fail before any output.
type layer struct {
	schema   schema
	crs      *CRS
	features []feature
}

func newLayer(s schema, crs *CRS) *layer {
	return &layer{schema: s, crs: crs}
}

func (l *layer) add(geom orb.Polygon, values ...interface{}) error {
	if len(geom) == 0 || len(geom[0]) == 0 {
		return errors.Wrap(ErrInvalidData, "empty polygon")
	}
	props, err := l.schema.encode(values...)
	if err != nil {
		return err
	}
	l.features = append(l.features, feature{geometry: geom, properties: props})
	return nil
}

func (l *layer) write(w io.Writer, opts *Options) error {
	if opts == nil {
		opts = DefaultOptions()
	}
	if len(l.features) == 0 {
		return ErrEmptyLayer
	}

	builder := flatbuffers.NewBuilder(4096)

	header := writer.NewHeader(builder)
	header.SetGeometryType(flattypes.GeometryTypePolygon)

	if opts.Name != "" {
		header.SetName(opts.Name)
	}
	if opts.Description != "" {
		header.SetDescription(opts.Description)
	}
	header.SetColumns(l.schema.columns(builder))

	crsInfo := opts.CRS
	if crsInfo == nil {
		crsInfo = l.crs
	}
	if crsInfo != nil {
		crs := writer.NewCrs(builder)
		crs.SetOrg("EPSG")
		if crsInfo.Code > 0 {
			crs.SetCode(int32(crsInfo.Code))
		}
		if crsInfo.Name != "" {
			crs.SetName(crsInfo.Name)
		}
		if crsInfo.Description != "" {
			crs.SetDescription(crsInfo.Description)
		}
		header.SetCrs(crs)
	}

	gen := &layerGenerator{features: l.features}
	fgbWriter := writer.NewWriter(header, opts.IncludeIndex, gen, nil)

	if _, err := fgbWriter.Write(w); err != nil {
		return errors.Wrap(err, "write flatgeobuf")
	}
	return gen.err
}

// layerGenerator feeds layer features to the FlatGeobuf writer.
type layerGenerator struct {
	features []feature
	index    int
	err      error
}

func (g *layerGenerator) Generate() *writer.Feature {
	if g.index >= len(g.features) {
		return nil
	}

	f := g.features[g.index]
	g.index++

	builder := flatbuffers.NewBuilder(1024)
	fgbGeom, err := geometryToFGB(f.geometry, builder)
	if err != nil {
		if g.err == nil {
			g.err = errors.Wrapf(err, "feature %d", g.index-1)
		}
		return g.Generate()
	}

	feature := writer.NewFeature(builder)
	feature.SetGeometry(fgbGeom)
	if len(f.properties) > 0 {
		feature.SetProperties(f.properties)
	}

	return feature
}
