package universe

import (
	"context"
	"log/slog"
	"time"

	"github.com/san-kum/bbnsim/internal/cosmo"
	"github.com/san-kum/bbnsim/internal/grid"
	"github.com/san-kum/bbnsim/internal/metrics"
	"github.com/san-kum/bbnsim/internal/parallel"
	"github.com/san-kum/bbnsim/internal/storage"
)

// Particle is the species contract the evolution depends on.
type Particle interface {
	Symbol() string
	Flavour() string
	Grid() *grid.Grid

	SetParams(params *cosmo.Params)
	Update()

	HasCollisionIntegrals() bool
	IntegrateCollisions(ctx context.Context) ([]float64, error)
	CollisionAt(p0 float64) (float64, error)
	SetCollisionIntegral(values []float64)
	CollisionIntegral() []float64
	UpdateDistribution()

	EnergyDensity() float64
	Numerator() float64
	Denominator() float64
}

// Interaction attaches its active collision integrals once per step.
type Interaction interface {
	Initialize()
	String() string
}

// StepMonitor is called at the end of every completed step. It must not
// modify the universe.
type StepMonitor func(u *Universe)

// RateProvider supplies the nucleosynthesis-rate table. Rows are recorded
// once the temperature has dropped to StartTemperature.
type RateProvider interface {
	StartTemperature() float64
	Columns() []string
	Rates(params *cosmo.Params) []float64
}

// Options configures a Universe. The zero value runs serially and exports nothing.
type Options struct {
	// Workers bounds the worker pool; 0 evaluates collision integrals serially.
	Workers int
	// ExportFreq is the number of steps between flushes of the tables to Sink.
	ExportFreq int
	// PoolTimeout bounds the wait for one species' collision integral.
	PoolTimeout time.Duration

	Logger *slog.Logger
	// MaxLogRate is the number of progress lines per second.
	MaxLogRate float64

	Sink        storage.Sink
	Metrics     *metrics.Recorder
	Monitors    []metrics.Metric
	StepMonitor StepMonitor
	Rates       RateProvider
}

const (
	DefaultExportFreq = 100
	DefaultMaxLogRate = 1.0
)

func (o Options) withDefaults() Options {
	if o.ExportFreq <= 0 {
		o.ExportFreq = DefaultExportFreq
	}
	if o.PoolTimeout <= 0 {
		o.PoolTimeout = parallel.DefaultTimeout
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.MaxLogRate <= 0 {
		o.MaxLogRate = DefaultMaxLogRate
	}
	if o.Sink == nil {
		o.Sink = storage.Discard
	}
	return o
}
