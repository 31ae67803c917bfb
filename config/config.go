// Package config loads the engine configuration from YAML with TVWS_*
// environment overrides.
package config

import (
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/tingold/orb-tvws/datum"
	"github.com/tingold/orb-tvws/geodesy"
	"github.com/tingold/orb-tvws/natgrid"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Projection names accepted by NationalGridConfig.Projection.
const (
	ProjectionOSTN = "ostn"
	ProjectionAiry = "airy"
)

// Config holds everything needed to build an engine.
type Config struct {
	Ellipsoid    string             `yaml:"ellipsoid"`
	Datum        DatumConfig        `yaml:"datum"`
	NationalGrid NationalGridConfig `yaml:"national_grid"`
	Candidate    CandidateConfig    `yaml:"candidate"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// DatumConfig locates the NADCON grids. An empty Dir disables datum
// shifting.
type DatumConfig struct {
	Dir     string   `yaml:"dir"`
	Regions []string `yaml:"regions"`
}

// NationalGridConfig selects the projection and its shift grid.
type NationalGridConfig struct {
	Projection     string  `yaml:"projection"`
	ShiftGrid      string  `yaml:"shift_grid"`
	Columns        int     `yaml:"columns"`
	CellSize       float64 `yaml:"cell_size"`
	OriginEasting  float64 `yaml:"origin_easting"`
	OriginNorthing float64 `yaml:"origin_northing"`
	MaxIterations  int     `yaml:"max_iterations"`
}

// Layout returns the shift grid lattice layout.
func (c NationalGridConfig) Layout() natgrid.Layout {
	return natgrid.Layout{
		Columns:        c.Columns,
		CellSize:       c.CellSize,
		OriginEasting:  c.OriginEasting,
		OriginNorthing: c.OriginNorthing,
	}
}

// CandidateConfig tunes candidate cell generation.
type CandidateConfig struct {
	Resolution int `yaml:"resolution"`
	MaxCells   int `yaml:"max_cells"`
}

// LoggingConfig builds the engine logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
	Prefix string `yaml:"prefix"`
}

// Default returns the built in configuration.
func Default() *Config {
	return &Config{
		Ellipsoid: geodesy.WGS84.Name,
		Datum: DatumConfig{
			Regions: append([]string(nil), datum.DefaultRegions...),
		},
		NationalGrid: NationalGridConfig{
			Projection:    ProjectionOSTN,
			Columns:       natgrid.DefaultLayout.Columns,
			CellSize:      natgrid.DefaultLayout.CellSize,
			MaxIterations: natgrid.DefaultMaxIterations,
		},
		Candidate: CandidateConfig{
			Resolution: 100,
			MaxCells:   4000000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Prefix: "tvws",
		},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path loads defaults and environment only.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "read config file")
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(err, "parse config file")
		}
	}

	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from TVWS_* environment variables.
func (c *Config) ApplyEnv() {
	set := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set("TVWS_ELLIPSOID", &c.Ellipsoid)
	set("TVWS_DATUM_DIR", &c.Datum.Dir)
	set("TVWS_SHIFT_GRID", &c.NationalGrid.ShiftGrid)
	set("TVWS_PROJECTION", &c.NationalGrid.Projection)
	set("TVWS_LOG_LEVEL", &c.Logging.Level)
	set("TVWS_LOG_FORMAT", &c.Logging.Format)
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	if _, err := geodesy.Lookup(c.Ellipsoid); err != nil {
		return errors.Wrap(ErrInvalidConfig, err.Error())
	}

	ng := c.NationalGrid
	switch strings.ToLower(ng.Projection) {
	case ProjectionOSTN, ProjectionAiry:
	default:
		return errors.Wrapf(ErrInvalidConfig, "unknown projection %q", ng.Projection)
	}
	if ng.Columns < 2 {
		return errors.Wrapf(ErrInvalidConfig, "national_grid.columns %d", ng.Columns)
	}
	if ng.CellSize <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "national_grid.cell_size %v", ng.CellSize)
	}
	if ng.MaxIterations <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "national_grid.max_iterations %d", ng.MaxIterations)
	}

	if c.Candidate.Resolution <= 0 {
		return errors.Wrapf(ErrInvalidConfig, "candidate.resolution %d", c.Candidate.Resolution)
	}
	if c.Candidate.MaxCells < 0 {
		return errors.Wrapf(ErrInvalidConfig, "candidate.max_cells %d", c.Candidate.MaxCells)
	}

	if _, err := log.ParseLevel(c.Logging.Level); err != nil {
		return errors.Wrapf(ErrInvalidConfig, "logging.level %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return errors.Wrapf(ErrInvalidConfig, "logging.format %q", c.Logging.Format)
	}
	return nil
}
