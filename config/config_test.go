package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tingold/orb-tvws/natgrid"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tvws.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "WGS84", cfg.Ellipsoid)
	assert.Equal(t, natgrid.DefaultLayout, cfg.NationalGrid.Layout())
	assert.Equal(t, "conus", cfg.Datum.Regions[0])
	assert.Equal(t, 100, cfg.Candidate.Resolution)
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
ellipsoid: GRS80
datum:
  dir: /data/nadcon
  regions: [conus, hawaii]
national_grid:
  shift_grid: /data/OSG_DATA.zip
  max_iterations: 20
candidate:
  resolution: 10
logging:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "GRS80", cfg.Ellipsoid)
	assert.Equal(t, "/data/nadcon", cfg.Datum.Dir)
	assert.Equal(t, []string{"conus", "hawaii"}, cfg.Datum.Regions)
	assert.Equal(t, "/data/OSG_DATA.zip", cfg.NationalGrid.ShiftGrid)
	assert.Equal(t, 20, cfg.NationalGrid.MaxIterations)
	assert.Equal(t, 701, cfg.NationalGrid.Columns, "unset fields keep defaults")
	assert.Equal(t, ProjectionOSTN, cfg.NationalGrid.Projection)
	assert.Equal(t, 10, cfg.Candidate.Resolution)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "tvws", cfg.Logging.Prefix)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("TVWS_DATUM_DIR", "/env/nadcon")
	t.Setenv("TVWS_SHIFT_GRID", "/env/OSG_DATA.zip")
	t.Setenv("TVWS_LOG_LEVEL", "warn")
	t.Setenv("TVWS_ELLIPSOID", "airy1830")

	cfg, err := Load(writeConfig(t, "datum:\n  dir: /file/nadcon\n"))
	require.NoError(t, err)

	assert.Equal(t, "/env/nadcon", cfg.Datum.Dir)
	assert.Equal(t, "/env/OSG_DATA.zip", cfg.NationalGrid.ShiftGrid)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "airy1830", cfg.Ellipsoid)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "/env/nadcon", cfg.Datum.Dir)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "ellipsoid: [not, a, string]\n"))
	assert.Error(t, err)

	tests := []struct {
		name string
		body string
	}{
		{"ellipsoid", "ellipsoid: bessel\n"},
		{"projection", "national_grid:\n  projection: utm\n"},
		{"columns", "national_grid:\n  columns: 1\n"},
		{"cell size", "national_grid:\n  cell_size: 0\n"},
		{"iterations", "national_grid:\n  max_iterations: -1\n"},
		{"resolution", "candidate:\n  resolution: 0\n"},
		{"max cells", "candidate:\n  max_cells: -5\n"},
		{"level", "logging:\n  level: loud\n"},
		{"format", "logging:\n  format: xml\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}
