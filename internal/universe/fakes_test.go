package universe_test

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/san-kum/bbnsim/internal/cosmo"
	"github.com/san-kum/bbnsim/internal/grid"
	"github.com/san-kum/bbnsim/internal/storage"
	"github.com/san-kum/bbnsim/internal/universe"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeParticle struct {
	symbol  string
	flavour string
	grid    *grid.Grid
	params  *cosmo.Params

	numerator   func(p *cosmo.Params) float64
	denominator float64
	rho         float64
	collision   func(p0 float64) (float64, error) // nil when no integral is active

	integral    []float64
	updates     int
	distUpdates int
}

var _ universe.Particle = (*fakeParticle)(nil)

func newFake(symbol string) *fakeParticle {
	g, err := grid.Linear(0, 4, 5)
	if err != nil {
		panic(err)
	}
	return &fakeParticle{symbol: symbol, grid: g, denominator: 1, rho: 1}
}

func (f *fakeParticle) Symbol() string                   { return f.symbol }
func (f *fakeParticle) Flavour() string                  { return f.flavour }
func (f *fakeParticle) Grid() *grid.Grid                 { return f.grid }
func (f *fakeParticle) SetParams(params *cosmo.Params)   { f.params = params }
func (f *fakeParticle) EnergyDensity() float64           { return f.rho }
func (f *fakeParticle) Denominator() float64             { return f.denominator }
func (f *fakeParticle) HasCollisionIntegrals() bool      { return f.collision != nil }
func (f *fakeParticle) SetCollisionIntegral(v []float64) { f.integral = v }
func (f *fakeParticle) CollisionIntegral() []float64     { return f.integral }
func (f *fakeParticle) UpdateDistribution()              { f.distUpdates++ }

func (f *fakeParticle) Update() {
	f.updates++
	f.integral = nil
}

func (f *fakeParticle) Numerator() float64 {
	if f.numerator == nil {
		return 0
	}
	return f.numerator(f.params)
}

func (f *fakeParticle) CollisionAt(p0 float64) (float64, error) { return f.collision(p0) }

func (f *fakeParticle) IntegrateCollisions(ctx context.Context) ([]float64, error) {
	out := make([]float64, f.grid.Len())
	for i, p := range f.grid.Points() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v, err := f.collision(p)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// recordingSink keeps the row count of every flush.
type recordingSink struct {
	mu     sync.Mutex
	writes map[string][]int
}

func newRecordingSink() *recordingSink {
	return &recordingSink{writes: make(map[string][]int)}
}

func (s *recordingSink) WriteTable(name string, rs *storage.RecordStore) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes[name] = append(s.writes[name], rs.Len())
	return nil
}

func (s *recordingSink) Writes(name string) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.writes[name]...)
}

type constantRates struct {
	start float64
}

func (r constantRates) StartTemperature() float64       { return r.start }
func (r constantRates) Columns() []string               { return []string{"n->p", "p->n"} }
func (r constantRates) Rates(p *cosmo.Params) []float64 { return []float64{p.T, 2 * p.T} }

// shortRates reports fewer rates than it has columns.
type shortRates struct{ constantRates }

func (r shortRates) Rates(p *cosmo.Params) []float64 { return []float64{p.T} }

func newParams(tInitial, tFinal, dy float64) *cosmo.Params {
	p, err := cosmo.NewParams(cosmo.Options{TInitial: tInitial, TFinal: tFinal, Dy: dy})
	if err != nil {
		panic(err)
	}
	return p
}
