package tvws

import (
	"sort"

	flatgeobuf "github.com/flatgeobuf/flatgeobuf/src/go"
	"github.com/flatgeobuf/flatgeobuf/src/go/flattypes"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"

	"github.com/tingold/orb-tvws/candidate"
	"github.com/tingold/orb-tvws/geodesy"
	"github.com/tingold/orb-tvws/spatial"
)

// Reader provides read access to a FlatGeobuf file.
type Reader struct {
	fgb *flatgeobuf.FlatGeoBuf
}

// NewReader creates a reader from a file path.
// The file is memory-mapped for efficient access.
func NewReader(path string) (*Reader, error) {
	fgb, err := flatgeobuf.New(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}

	return &Reader{fgb: fgb}, nil
}

// NewReaderFromData creates a reader from byte data.
func NewReaderFromData(data []byte) (*Reader, error) {
	if len(data) == 0 {
		return nil, errors.Wrap(ErrInvalidData, "empty buffer")
	}
	fgb, err := flatgeobuf.NewWithData(data)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidData, err.Error())
	}

	return &Reader{fgb: fgb}, nil
}

// Header returns metadata about the FlatGeobuf file.
func (r *Reader) Header() *Header {
	h := r.fgb.Header()
	if h == nil {
		return nil
	}

	header := &Header{
		Name:          string(h.Name()),
		Description:   string(h.Description()),
		GeometryType:  flattypes.EnumNamesGeometryType[h.GeometryType()],
		FeaturesCount: h.FeaturesCount(),
		HasIndex:      h.IndexNodeSize() > 0,
	}

	if h.EnvelopeLength() >= 4 {
		header.Envelope = [4]float64{
			h.Envelope(0),
			h.Envelope(1),
			h.Envelope(2),
			h.Envelope(3),
		}
	}

	var crs flattypes.Crs
	if h.Crs(&crs) != nil {
		header.CRS = &CRS{
			Code:        int(crs.Code()),
			Name:        string(crs.Name()),
			Description: string(crs.Description()),
		}
	}

	colLen := h.ColumnsLength()
	if colLen > 0 {
		header.Columns = make([]ColumnInfo, 0, colLen)
		for i := 0; i < colLen; i++ {
			var col flattypes.Column
			if h.Columns(&col, i) {
				header.Columns = append(header.Columns, ColumnInfo{
					Name:     string(col.Name()),
					Type:     flattypes.EnumNamesColumnType[col.Type()],
					Title:    string(col.Title()),
					Nullable: col.Nullable(),
				})
			}
		}
	}

	return header
}

// ReadAll reads every feature. Features are reached through the spatial
// index over the header envelope, so files written without an index return
// ErrNoIndex.
func (r *Reader) ReadAll() (*geojson.FeatureCollection, error) {
	h := r.fgb.Header()
	if h.IndexNodeSize() == 0 {
		return nil, ErrNoIndex
	}
	if h.FeaturesCount() == 0 || h.EnvelopeLength() < 4 {
		return geojson.NewFeatureCollection(), nil
	}

	return r.search(h.Envelope(0), h.Envelope(1), h.Envelope(2), h.Envelope(3))
}

// Search performs a spatial query using the built-in index.
// Returns features whose bounding boxes intersect the query bounds.
func (r *Reader) Search(bounds orb.Bound) (*geojson.FeatureCollection, error) {
	if r.fgb.Header().IndexNodeSize() == 0 {
		return nil, ErrNoIndex
	}
	return r.search(bounds.Min[0], bounds.Min[1], bounds.Max[0], bounds.Max[1])
}

func (r *Reader) search(minX, minY, maxX, maxY float64) (*geojson.FeatureCollection, error) {
	h := r.fgb.Header()
	features, err := r.fgb.Search(minX, minY, maxX, maxY)
	if err != nil {
		return nil, errors.Wrap(err, "search index")
	}

	fc := geojson.NewFeatureCollection()
	for _, fgbFeature := range features {
		feature, err := convertFeature(fgbFeature, h)
		if err != nil {
			return nil, err
		}
		if feature != nil {
			fc.Append(feature)
		}
	}
	return fc, nil
}

// Cells reads a layer written by WriteCells back into sectors.
func (r *Reader) Cells() (candidate.Sectors, error) {
	var sectors candidate.Sectors

	fc, err := r.ReadAll()
	if err != nil {
		return sectors, err
	}
	for _, f := range fc.Features {
		var v [4]int
		for i, c := range cellSchema {
			if v[i], err = intProperty(f.Properties, c.name); err != nil {
				return candidate.Sectors{}, err
			}
		}
		sector := v[3]
		if sector < 0 || sector >= len(sectors) {
			return candidate.Sectors{}, errors.Wrapf(ErrInvalidData, "sector %d", sector)
		}
		sectors[sector] = append(sectors[sector], candidate.Cell{Easting: v[0], Northing: v[1], Size: v[2]})
	}
	return sectors, nil
}

// Contours reads a layer written by WriteContours.
func (r *Reader) Contours() ([]spatial.Contour, error) {
	fc, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	contours := make([]spatial.Contour, 0, len(fc.Features))
	for _, f := range fc.Features {
		lat, ok1 := f.Properties["latitude"].(float64)
		lon, ok2 := f.Properties["longitude"].(float64)
		if !ok1 || !ok2 {
			return nil, errors.Wrap(ErrInvalidColumn, "contour centre")
		}
		poly := f.Geometry.(orb.Polygon)
		contours = append(contours, spatial.Contour{
			Centre: geodesy.NewLocation(lat, lon),
			Points: ringLocations(poly[0]),
		})
	}
	return contours, nil
}

// Regions reads a layer written by WriteRegions. Polygons sharing a name
// form one region; regions keep the order their names first appear in.
func (r *Reader) Regions() ([]*spatial.Region, error) {
	fc, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	return regionsFromFeatures(fc.Features)
}

// Close releases resources associated with the reader.
func (r *Reader) Close() error {
	// The FlatGeoBuf type doesn't expose a public Close method,
	// but the finalizer will clean up when garbage collected.
	r.fgb = nil
	return nil
}

// RegionReader answers region lookups straight from the spatial index of a
// region layer, without loading every polygon.
type RegionReader struct {
	r *Reader
}

// NewRegionReader opens a region layer written by WriteRegions with an
// index.
func NewRegionReader(path string) (*RegionReader, error) {
	r, err := NewReader(path)
	if err != nil {
		return nil, err
	}
	if !r.Header().HasIndex {
		_ = r.Close()
		return nil, ErrNoIndex
	}
	return &RegionReader{r: r}, nil
}

// Regions loads every region of the layer.
func (rr *RegionReader) Regions() ([]*spatial.Region, error) {
	return rr.r.Regions()
}

// Locate returns the name and polygon of the smallest region polygon
// holding (lat, lon).
func (rr *RegionReader) Locate(lat, lon float64) (string, spatial.Polygon, bool, error) {
	p := orb.Point{lon, lat}
	fc, err := rr.r.Search(orb.Bound{Min: p, Max: p}.Pad(1e-9))
	if err != nil {
		return "", spatial.Polygon{}, false, err
	}

	type hit struct {
		name    string
		polygon spatial.Polygon
	}
	hits := make([]hit, 0, len(fc.Features))
	for _, f := range fc.Features {
		name, poly, err := regionFeature(f)
		if err != nil {
			return "", spatial.Polygon{}, false, err
		}
		hits = append(hits, hit{name, poly})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].polygon.Area < hits[j].polygon.Area })
	for _, h := range hits {
		if h.polygon.Contains(lat, lon) {
			return h.name, h.polygon, true, nil
		}
	}
	return "", spatial.Polygon{}, false, nil
}

// Close releases the underlying reader.
func (rr *RegionReader) Close() error {
	return rr.r.Close()
}

func regionsFromFeatures(features []*geojson.Feature) ([]*spatial.Region, error) {
	var order []string
	rings := make(map[string][][]geodesy.Location)
	for _, f := range features {
		name, poly, err := regionFeature(f)
		if err != nil {
			return nil, err
		}
		if _, ok := rings[name]; !ok {
			order = append(order, name)
		}
		rings[name] = append(rings[name], poly.Ring)
	}

	regions := make([]*spatial.Region, 0, len(order))
	for _, name := range order {
		region, err := spatial.NewRegion(name, rings[name])
		if err != nil {
			return nil, err
		}
		regions = append(regions, region)
	}
	return regions, nil
}

func regionFeature(f *geojson.Feature) (string, spatial.Polygon, error) {
	name, ok := f.Properties["name"].(string)
	if !ok {
		return "", spatial.Polygon{}, errors.Wrap(ErrInvalidColumn, "missing region name")
	}
	poly, err := spatial.NewPolygon(ringLocations(f.Geometry.(orb.Polygon)[0]))
	if err != nil {
		return "", spatial.Polygon{}, errors.Wrapf(err, "region %s", name)
	}
	return name, poly, nil
}

// ringLocations converts an orb ring to locations, dropping the closing
// point.
func ringLocations(ring orb.Ring) []geodesy.Location {
	if len(ring) > 1 && ring.Closed() {
		ring = ring[:len(ring)-1]
	}
	locs := make([]geodesy.Location, 0, len(ring))
	for _, p := range ring {
		locs = append(locs, geodesy.FromPoint(p))
	}
	return locs
}

// convertFeature converts a FlatGeobuf feature to a geojson.Feature.
// Features without a polygon geometry are skipped.
func convertFeature(fgbFeature *flattypes.Feature, header *flattypes.Header) (*geojson.Feature, error) {
	if fgbFeature == nil {
		return nil, nil
	}

	var geomObj flattypes.Geometry
	poly := geometryFromFGB(fgbFeature.Geometry(&geomObj))
	if len(poly) == 0 || len(poly[0]) == 0 {
		return nil, nil
	}

	feature := geojson.NewFeature(poly)

	propsLen := fgbFeature.PropertiesLength()
	if propsLen > 0 && header.ColumnsLength() > 0 {
		propsBytes := make([]byte, propsLen)
		for i := 0; i < propsLen; i++ {
			propsBytes[i] = byte(fgbFeature.Properties(i))
		}
		props, err := decodeProperties(propsBytes, header)
		if err != nil {
			return nil, err
		}
		feature.Properties = props
	}

	return feature, nil
}
