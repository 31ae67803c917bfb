package geodesy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDMS(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"51.5", 51.5},
		{"-0.1", -0.1},
		{"51 30 0", 51.5},
		{"51-30-00N", 51.5},
		{"0:6:0 W", -0.1},
		{"W 0 6 0", -0.1},
		{"51,30,36", 51.51},
		{`51°30'36"N`, 51.51},
		{"-37 57 3.72030", -37.951033416666664},
		{"37 57 3.72030 S", -37.951033416666664},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDMS(tt.in)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestParseDMS_Invalid(t *testing.T) {
	for _, in := range []string{"", "abc", "51 61 0", "1 2 3 4", "51 30 x"} {
		_, err := ParseDMS(in)
		assert.ErrorIs(t, err, ErrInvalidDMS, "input %q", in)
	}
}

func TestParseLocation(t *testing.T) {
	l, err := ParseLocation("51 30 0 N", "0 6 0 W")
	require.NoError(t, err)
	assert.InDelta(t, 51.5, l.Latitude, 1e-12)
	assert.InDelta(t, -0.1, l.Longitude, 1e-12)

	_, err = ParseLocation("95 0 0", "0")
	assert.ErrorIs(t, err, ErrInvalidDMS)

	_, err = ParseLocation("51", "nope")
	assert.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "longitude"))
}

func TestToDMS(t *testing.T) {
	tests := []struct {
		in   float64
		d, m int
		s    float64
	}{
		{51.5, 51, 30, 0},
		{51.51, 51, 30, 36},
		{-37.951033416666664, -37, 57, 3.7203},
		{-0.5, 0, -30, 0},
		{10.99999999999, 11, 0, 0},
	}

	for _, tt := range tests {
		d, m, s := ToDMS(tt.in)
		if d != tt.d || m != tt.m {
			t.Errorf("ToDMS(%v): expected %d %d, got %d %d", tt.in, tt.d, tt.m, d, m)
		}
		assert.InDelta(t, tt.s, s, 1e-4)
	}
}

func TestFormatDMS(t *testing.T) {
	assert.Equal(t, `51°30'0.00"N`, FormatDMS(51.5, true))
	assert.Equal(t, `0°6'0.00"W`, FormatDMS(-0.1, false))
	assert.Equal(t, `37°57'3.72"S`, FormatDMS(-37.951033416666664, true))
}

func TestUTMReference(t *testing.T) {
	l := NewLocation(42.662139, -71.365553)

	ref, err := UTMReference(l)
	require.NoError(t, err)
	assert.Equal(t, "19N 306130 4726010", ref)

	mgrs, err := MGRSReference(l, 5)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(mgrs, "19TCH"), "got %q", mgrs)

	back, err := FromUTM(19, true, 306130, 4726010)
	require.NoError(t, err)
	assert.InDelta(t, l.Latitude, back.Latitude, 1e-4)
	assert.InDelta(t, l.Longitude, back.Longitude, 1e-4)
}
