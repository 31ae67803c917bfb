package tvws

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/tingold/orb-tvws/candidate"
	"github.com/tingold/orb-tvws/config"
	"github.com/tingold/orb-tvws/datum"
	"github.com/tingold/orb-tvws/geodesy"
	"github.com/tingold/orb-tvws/natgrid"
	"github.com/tingold/orb-tvws/spatial"
)

// Engine is the loaded geospatial context. All grids are read once when the
// engine is built; afterwards it is immutable and safe for concurrent use.
type Engine struct {
	cfg       *config.Config
	logger    *log.Logger
	ellipsoid geodesy.Ellipsoid
	datum     *datum.Transformer
	projector *natgrid.Projector
	generator *candidate.Generator
	metrics   *Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics records engine activity in m.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithEllipsoid overrides the configured geodesic ellipsoid.
func WithEllipsoid(el geodesy.Ellipsoid) Option {
	return func(e *Engine) { e.ellipsoid = el }
}

// WithTransformer uses t instead of loading datum grids.
func WithTransformer(t *datum.Transformer) Option {
	return func(e *Engine) { e.datum = t }
}

// WithProjector uses p instead of building one from the configuration.
func WithProjector(p *natgrid.Projector) Option {
	return func(e *Engine) { e.projector = p }
}

// New builds an engine from the default configuration and already loaded
// parts. Nothing is read from disk: without WithTransformer no datum shift
// is available and without WithProjector the projector has no shift grid.
func New(opts ...Option) *Engine {
	e := &Engine{cfg: config.Default()}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = NewLogger(e.cfg.Logging, io.Discard)
	}
	if e.ellipsoid.Name == "" {
		e.ellipsoid = geodesy.WGS84
	}
	if e.datum == nil {
		e.datum = datum.NewTransformer()
	}
	if e.projector == nil {
		e.projector = natgrid.NewProjector(natgrid.NationalGrid)
	}
	e.generator = candidate.NewGenerator(e.projector, candidate.WithMaxCells(e.cfg.Candidate.MaxCells))
	return e
}

// Load builds an engine from cfg, reading the datum and shift grids it
// names. Any load failure wraps ErrResourceLoad.
func Load(cfg *config.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, resourceError("config", err)
	}

	e := &Engine{cfg: cfg}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = NewLogger(cfg.Logging, os.Stderr)
	}

	if e.ellipsoid.Name == "" {
		el, err := geodesy.Lookup(cfg.Ellipsoid)
		if err != nil {
			return nil, resourceError("ellipsoid", err)
		}
		e.ellipsoid = el
	}

	if e.datum == nil {
		t, err := loadDatum(cfg.Datum, e.logger)
		if err != nil {
			return nil, resourceError("datum grids", err)
		}
		e.datum = t
	}

	if e.projector == nil {
		p, err := loadProjector(cfg.NationalGrid, e.logger)
		if err != nil {
			return nil, resourceError("shift grid", err)
		}
		e.projector = p
	}

	e.generator = candidate.NewGenerator(e.projector, candidate.WithMaxCells(cfg.Candidate.MaxCells))
	e.logger.Info("engine ready", "ellipsoid", e.ellipsoid.Name, "datum_regions", len(e.datum.Regions()),
		"projection", cfg.NationalGrid.Projection, "resolution", cfg.Candidate.Resolution)
	return e, nil
}

// MustLoad is like Load but panics on error.
func MustLoad(cfg *config.Config, opts ...Option) *Engine {
	e, err := Load(cfg, opts...)
	if err != nil {
		panic(err)
	}
	return e
}

var (
	sharedOnce   sync.Once
	sharedEngine *Engine
	sharedErr    error
)

// Shared loads the process wide engine on first use. Later calls return the
// same engine, or the same error, whatever cfg they pass.
func Shared(cfg *config.Config, opts ...Option) (*Engine, error) {
	sharedOnce.Do(func() {
		sharedEngine, sharedErr = Load(cfg, opts...)
	})
	return sharedEngine, sharedErr
}

// resourceError marks err as ErrResourceLoad while keeping the cause
// reachable through errors.Is; pkg/errors can only wrap one of the two.
func resourceError(what string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrResourceLoad, what, err)
}

func loadDatum(cfg config.DatumConfig, logger *log.Logger) (*datum.Transformer, error) {
	if cfg.Dir == "" {
		logger.Warn("no datum grid directory configured, legacy datum shifts disabled")
		return datum.NewTransformer(), nil
	}
	regions, err := datum.LoadRegions(cfg.Dir, cfg.Regions, logger)
	if err != nil {
		return nil, err
	}
	return datum.NewTransformer(regions...), nil
}

func loadProjector(cfg config.NationalGridConfig, logger *log.Logger) (*natgrid.Projector, error) {
	params, airy := natgrid.NationalGrid, strings.EqualFold(cfg.Projection, config.ProjectionAiry)
	if airy {
		params = natgrid.AiryNationalGrid
	}
	opts := []natgrid.ProjectorOption{natgrid.WithMaxIterations(cfg.MaxIterations)}

	switch {
	case cfg.ShiftGrid != "":
		g, err := natgrid.LoadShiftGrid(cfg.ShiftGrid, cfg.Layout())
		if err != nil {
			return nil, err
		}
		logger.Info("loaded shift grid", "path", cfg.ShiftGrid, "samples", g.Len(), "columns", cfg.Columns)
		opts = append(opts, natgrid.WithShiftGrid(g))
	case !airy:
		logger.Warn("no shift grid configured, national grid positions are uncorrected")
	}
	return natgrid.NewProjector(params, opts...), nil
}

// Config returns the configuration the engine was built from.
func (e *Engine) Config() *config.Config { return e.cfg }

// Logger returns the engine logger.
func (e *Engine) Logger() *log.Logger { return e.logger }

// Ellipsoid returns the ellipsoid used for geodesics.
func (e *Engine) Ellipsoid() geodesy.Ellipsoid { return e.ellipsoid }

// Datum returns the datum transformer.
func (e *Engine) Datum() *datum.Transformer { return e.datum }

// Projector returns the national grid projector.
func (e *Engine) Projector() *natgrid.Projector { return e.projector }

// Generator returns the candidate cell generator.
func (e *Engine) Generator() *candidate.Generator { return e.generator }

// ToModernDatum shifts a legacy datum location onto the modern datum. A
// location outside every grid returns an error wrapping
// datum.ErrNotApplicable; callers normally keep the input in that case.
func (e *Engine) ToModernDatum(p geodesy.Location) (geodesy.Location, error) {
	shifted, err := e.datum.ToModern(p)
	switch {
	case err == nil:
		e.metrics.datumLookup(datumShifted)
	case errors.Is(err, datum.ErrNotApplicable):
		e.metrics.datumLookup(datumNotApplicable)
		e.logger.Debug("datum shift not applicable", "location", p)
	default:
		e.metrics.datumLookup(datumError)
	}
	return shifted, err
}

// Project converts p to national grid coordinates.
func (e *Engine) Project(p geodesy.Location) (natgrid.GridPoint, error) {
	gp, err := e.projector.Project(p)
	if err != nil {
		e.metrics.projectionError("forward")
	}
	return gp, err
}

// Unproject converts national grid coordinates back to a location.
func (e *Engine) Unproject(easting, northing float64) (geodesy.Location, error) {
	l, err := e.projector.Unproject(easting, northing)
	if err != nil {
		e.metrics.projectionError("inverse")
	}
	return l, err
}

// DistanceAndBearing solves the inverse geodesic from p1 to p2.
func (e *Engine) DistanceAndBearing(p1, p2 geodesy.Location) (geodesy.Curve, error) {
	return geodesy.Inverse(e.ellipsoid, p1, p2)
}

// Destination returns the location meters away from p on bearing.
func (e *Engine) Destination(p geodesy.Location, bearing, meters float64) geodesy.Location {
	dest, _ := geodesy.Direct(e.ellipsoid, p, bearing, meters)
	return dest
}

// PointInPolygon reports whether p lies inside ring.
func (e *Engine) PointInPolygon(ring []geodesy.Location, p geodesy.Location) (bool, error) {
	return spatial.PointInPolygon(ring, p)
}

// RadialContour returns the contour distance meters around centre.
func (e *Engine) RadialContour(centre geodesy.Location, distance float64) spatial.Contour {
	return spatial.NewContour(e.ellipsoid, centre, distance)
}

// CandidateCells returns the sectored cells a device could cover. A zero
// resolution uses the configured one.
func (e *Engine) CandidateCells(device geodesy.Location, dx, dy, radius float64, resolution int) (candidate.Sectors, error) {
	if resolution == 0 {
		resolution = e.cfg.Candidate.Resolution
	}
	s, err := e.generator.Cells(device, dx, dy, radius, resolution)
	if err != nil {
		return s, err
	}
	e.metrics.candidateCells(s.Len())
	return s, nil
}

// BoundaryCells is CandidateCells restricted to the outer cells of each
// row.
func (e *Engine) BoundaryCells(device geodesy.Location, dx, dy, radius float64, resolution int) (candidate.Sectors, error) {
	if resolution == 0 {
		resolution = e.cfg.Candidate.Resolution
	}
	s, err := e.generator.BoundaryCells(device, dx, dy, radius, resolution)
	if err != nil {
		return s, err
	}
	e.metrics.candidateCells(s.Len())
	return s, nil
}
