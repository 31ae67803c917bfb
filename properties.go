package tvws

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/flatgeobuf/flatgeobuf/src/go/flattypes"
	"github.com/flatgeobuf/flatgeobuf/src/go/writer"
	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"
)

// column is one entry of a layer schema.
type column struct {
	name string
	typ  flattypes.ColumnType
}

// schema is the fixed, ordered property layout of a layer. Values are
// encoded in schema order.
type schema []column

var (
	cellSchema = schema{
		{"easting", flattypes.ColumnTypeInt},
		{"northing", flattypes.ColumnTypeInt},
		{"size", flattypes.ColumnTypeInt},
		{"sector", flattypes.ColumnTypeInt},
	}
	contourSchema = schema{
		{"latitude", flattypes.ColumnTypeDouble},
		{"longitude", flattypes.ColumnTypeDouble},
	}
	regionSchema = schema{
		{"name", flattypes.ColumnTypeString},
		{"area", flattypes.ColumnTypeDouble},
	}
)

// columns builds the header columns of the schema.
func (s schema) columns(builder *flatbuffers.Builder) []*writer.Column {
	columns := make([]*writer.Column, 0, len(s))
	for _, c := range s {
		col := writer.NewColumn(builder)
		col.SetName(c.name)
		col.SetTitle(c.name) // Set title to match name for JS library compatibility
		col.SetType(c.typ)
		col.SetNullable(false)
		columns = append(columns, col)
	}
	return columns
}

// encode writes values in schema order. The format is: [2-byte column
// index][value bytes]... repeated for each property.
func (s schema) encode(values ...interface{}) ([]byte, error) {
	if len(values) != len(s) {
		return nil, errors.Wrapf(ErrInvalidColumn, "%d values for %d columns", len(values), len(s))
	}

	var buf bytes.Buffer
	for i, value := range values {
		indexBytes := make([]byte, 2)
		binary.LittleEndian.PutUint16(indexBytes, uint16(i))
		buf.Write(indexBytes)

		if err := writePropertyValue(&buf, value, s[i].typ); err != nil {
			return nil, errors.Wrapf(err, "column %s", s[i].name)
		}
	}
	return buf.Bytes(), nil
}

// writePropertyValue writes a single property value to the buffer.
func writePropertyValue(buf *bytes.Buffer, value interface{}, colType flattypes.ColumnType) error {
	switch colType {
	case flattypes.ColumnTypeInt:
		v, ok := value.(int)
		if !ok || v < math.MinInt32 || v > math.MaxInt32 {
			return errors.Wrapf(ErrInvalidColumn, "%v is not an int32", value)
		}
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, uint32(int32(v)))
		buf.Write(b)

	case flattypes.ColumnTypeDouble:
		v, ok := value.(float64)
		if !ok {
			return errors.Wrapf(ErrInvalidColumn, "%v is not a float64", value)
		}
		b := make([]byte, 8)
		binary.LittleEndian.PutUint64(b, math.Float64bits(v))
		buf.Write(b)

	case flattypes.ColumnTypeString:
		v, ok := value.(string)
		if !ok {
			return errors.Wrapf(ErrInvalidColumn, "%v is not a string", value)
		}
		buf.WriteString(v)
		buf.WriteByte(0) // Null terminator

	default:
		return errors.Wrapf(ErrInvalidColumn, "type %s", flattypes.EnumNamesColumnType[colType])
	}
	return nil
}

// decodeProperties decodes FlatGeobuf binary properties to geojson.Properties.
func decodeProperties(data []byte, header *flattypes.Header) (geojson.Properties, error) {
	props := make(geojson.Properties)
	offset := 0

	for offset < len(data) {
		if offset+2 > len(data) {
			return nil, errors.Wrap(ErrInvalidData, "truncated column index")
		}
		colIndex := int(binary.LittleEndian.Uint16(data[offset : offset+2]))
		offset += 2

		var col flattypes.Column
		if colIndex >= header.ColumnsLength() || !header.Columns(&col, colIndex) {
			return nil, errors.Wrapf(ErrInvalidColumn, "index %d", colIndex)
		}

		value, n, err := readPropertyValue(data[offset:], col.Type())
		if err != nil {
			return nil, errors.Wrapf(err, "column %s", col.Name())
		}
		offset += n
		props[string(col.Name())] = value
	}

	return props, nil
}

// readPropertyValue reads a property value from the buffer.
// Returns the value and number of bytes read.
func readPropertyValue(data []byte, colType flattypes.ColumnType) (interface{}, int, error) {
	need := func(n int) error {
		if len(data) < n {
			return errors.Wrapf(ErrInvalidData, "%d bytes left, need %d", len(data), n)
		}
		return nil
	}

	switch colType {
	case flattypes.ColumnTypeBool:
		if err := need(1); err != nil {
			return nil, 0, err
		}
		return data[0] != 0, 1, nil

	case flattypes.ColumnTypeInt:
		if err := need(4); err != nil {
			return nil, 0, err
		}
		return int(int32(binary.LittleEndian.Uint32(data[:4]))), 4, nil

	case flattypes.ColumnTypeLong:
		if err := need(8); err != nil {
			return nil, 0, err
		}
		return int(int64(binary.LittleEndian.Uint64(data[:8]))), 8, nil

	case flattypes.ColumnTypeDouble:
		if err := need(8); err != nil {
			return nil, 0, err
		}
		return math.Float64frombits(binary.LittleEndian.Uint64(data[:8])), 8, nil

	case flattypes.ColumnTypeString:
		end := bytes.IndexByte(data, 0)
		if end < 0 {
			return nil, 0, errors.Wrap(ErrInvalidData, "unterminated string")
		}
		return string(data[:end]), end + 1, nil

	default:
		return nil, 0, errors.Wrapf(ErrInvalidColumn, "type %s", flattypes.EnumNamesColumnType[colType])
	}
}

// intProperty reads an integer property written by this package.
func intProperty(props geojson.Properties, name string) (int, error) {
	v, ok := props[name].(int)
	if !ok {
		return 0, errors.Wrapf(ErrInvalidColumn, "missing int property %s", name)
	}
	return v, nil
}
