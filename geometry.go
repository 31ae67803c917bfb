package tvws

import (
	"github.com/flatgeobuf/flatgeobuf/src/go/flattypes"
	"github.com/flatgeobuf/flatgeobuf/src/go/writer"
	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/paulmach/orb"
)

// geometryToFGB converts a polygonal orb.Geometry to a FlatGeobuf geometry.
// Every layer this package writes is made of polygons.
func geometryToFGB(geom orb.Geometry, builder *flatbuffers.Builder) (*writer.Geometry, error) {
	var poly orb.Polygon
	switch v := geom.(type) {
	case orb.Polygon:
		poly = v
	case orb.Ring:
		poly = orb.Polygon{v}
	case orb.Bound:
		poly = v.ToPolygon()
	default:
		return nil, ErrUnsupportedType
	}
	if len(poly) == 0 || len(poly[0]) == 0 {
		return nil, ErrInvalidData
	}

	g := writer.NewGeometry(builder)
	g.SetType(flattypes.GeometryTypePolygon)
	xy, ends := polygonToXYEnds(poly)
	g.SetXY(xy)
	g.SetEnds(ends)
	return g, nil
}

// geometryFromFGB converts a FlatGeobuf polygon back to orb. Other geometry
// types yield nil.
func geometryFromFGB(fgbGeom *flattypes.Geometry) orb.Polygon {
	if fgbGeom == nil || fgbGeom.Type() != flattypes.GeometryTypePolygon {
		return nil
	}
	return polygonFromXYEnds(fgbGeom)
}

func polygonToXYEnds(poly orb.Polygon) ([]float64, []uint32) {
	totalPoints := 0
	for _, ring := range poly {
		totalPoints += len(ring)
	}

	xy := make([]float64, 0, totalPoints*2)
	ends := make([]uint32, 0, len(poly))

	cumulative := uint32(0)
	for _, ring := range poly {
		for _, p := range ring {
			xy = append(xy, p[0], p[1])
		}
		cumulative += uint32(len(ring))
		ends = append(ends, cumulative)
	}

	return xy, ends
}

func polygonFromXYEnds(fgbGeom *flattypes.Geometry) orb.Polygon {
	xyLen := fgbGeom.XyLength()
	endsLen := fgbGeom.EndsLength()

	if xyLen < 2 {
		return orb.Polygon{}
	}

	// a single ring may be written without ends
	if endsLen == 0 {
		ring := make(orb.Ring, 0, xyLen/2)
		for i := 0; i+1 < xyLen; i += 2 {
			ring = append(ring, orb.Point{fgbGeom.Xy(i), fgbGeom.Xy(i + 1)})
		}
		return orb.Polygon{ring}
	}

	poly := make(orb.Polygon, 0, endsLen)
	start := uint32(0)

	for i := 0; i < endsLen; i++ {
		end := fgbGeom.Ends(i)
		ring := make(orb.Ring, 0, end-start)

		for j := start; j < end; j++ {
			idx := int(j) * 2
			if idx+1 < xyLen {
				ring = append(ring, orb.Point{fgbGeom.Xy(idx), fgbGeom.Xy(idx + 1)})
			}
		}

		poly = append(poly, ring)
		start = end
	}

	return poly
}
