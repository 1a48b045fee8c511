package universe

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/san-kum/bbnsim/internal/cosmo"
	"github.com/san-kum/bbnsim/internal/integrators"
	"github.com/san-kum/bbnsim/internal/metrics"
	"github.com/san-kum/bbnsim/internal/parallel"
	"github.com/san-kum/bbnsim/internal/storage"
	"github.com/san-kum/bbnsim/internal/units"
)

// Table names passed to the Sink.
const (
	EvolutionTable = "evolution"
	RatesTable     = "rates"
)

// RateColumns lead every row of the nucleosynthesis-rate table.
var RateColumns = []string{"t[s]", "x[MeV]", "T[K9]", "dT/dt[K9/s]", "rho[g/cm3]", "H[1/s]"}

// Universe evolves the cosmological state. It is not safe for concurrent use.
type Universe struct {
	Params *cosmo.Params

	particles    []Particle
	interactions []Interaction
	oscillations *oscillations

	opts Options
	log  *slog.Logger
	pool *parallel.Pool
	ab   *integrators.AdamsBashforth

	data  *storage.RecordStore
	rates *storage.RecordStore

	step        int
	fraction    float64
	started     bool
	interrupted bool
	clock       time.Time
	progress    rate.Sometimes
}

// New returns a universe evolving params. The caller must Close it.
func New(params *cosmo.Params, opts Options) (*Universe, error) {
	if params == nil {
		return nil, fmt.Errorf("universe: params required")
	}
	if opts.Workers < 0 {
		return nil, fmt.Errorf("universe: negative worker count %d", opts.Workers)
	}
	opts = opts.withDefaults()

	u := &Universe{
		Params:   params,
		opts:     opts,
		log:      opts.Logger,
		pool:     parallel.NewPool(opts.Workers),
		ab:       integrators.NewAdamsBashforth(integrators.MaxOrder),
		data:     storage.NewRecordStore(storage.EvolutionColumns...),
		progress: rate.Sometimes{Interval: time.Duration(float64(time.Second) / opts.MaxLogRate)},
	}
	if opts.Rates != nil {
		columns := append(append([]string(nil), RateColumns...), opts.Rates.Columns()...)
		u.rates = storage.NewRecordStore(columns...)
	}
	return u, nil
}

// AddParticles binds the shared state into each species and appends them.
func (u *Universe) AddParticles(ps ...Particle) {
	for _, p := range ps {
		p.SetParams(u.Params)
		u.particles = append(u.particles, p)
	}
}

func (u *Universe) AddInteractions(is ...Interaction) {
	u.interactions = append(u.interactions, is...)
}

func (u *Universe) Particles() []Particle       { return u.particles }
func (u *Universe) Interactions() []Interaction { return u.interactions }

// Step is the number of completed steps.
func (u *Universe) Step() int { return u.step }

// Fraction is the last derivative sample d(aT)/dy.
func (u *Universe) Fraction() float64 { return u.fraction }

// Data is the evolution table, one row per completed step after the initial row.
func (u *Universe) Data() *storage.RecordStore { return u.data }

// RatesData is the nucleosynthesis-rate table, nil without a RateProvider.
func (u *Universe) RatesData() *storage.RecordStore { return u.rates }

// Interrupted reports whether the last Evolve stopped on cancellation.
func (u *Universe) Interrupted() bool { return u.interrupted }

// Summary collects the values of the configured monitors.
func (u *Universe) Summary() map[string]float64 { return metrics.Summary(u.opts.Monitors...) }

// Close releases the worker pool.
func (u *Universe) Close() { u.pool.Close() }

// Evolve steps until the temperature drops to TFinal or ctx is cancelled.
// Cancellation is not an error: the loop stops between steps, the tables are
// exported and the records returned.
func (u *Universe) Evolve(ctx context.Context) (*storage.RecordStore, error) {
	if err := u.prepare(); err != nil {
		return nil, err
	}
	u.interrupted = false
	u.logSummary("initial state")

	work := context.WithoutCancel(ctx)
	for u.Params.T > u.Params.TFinal {
		if ctx.Err() != nil {
			u.interrupted = true
			u.log.Warn("evolution interrupted", "step", u.step, "T", u.Params.T/units.MeV)
			break
		}
		u.logProgress()

		if err := u.MakeStep(work); err != nil {
			if xerr := u.export(); xerr != nil {
				u.log.Error("export after failed step", "err", xerr)
			}
			return u.data, err
		}
		if u.step%u.opts.ExportFreq == 0 {
			if err := u.export(); err != nil {
				return u.data, err
			}
		}
	}

	u.logSummary("final state")
	if err := u.export(); err != nil {
		return u.data, err
	}
	return u.data, nil
}

// prepare computes the initial state once and records the initial row.
func (u *Universe) prepare() error {
	if u.started {
		return nil
	}
	if len(u.particles) == 0 {
		return ErrNoParticles
	}
	if !u.Params.Initialized() {
		for _, p := range u.particles {
			p.Update()
		}
		u.Params.Update(u.totalEnergyDensity())
	}
	u.started = true
	u.clock = time.Now()
	return u.save()
}

func (u *Universe) totalEnergyDensity() float64 {
	rho := 0.0
	for _, p := range u.particles {
		rho += p.EnergyDensity()
	}
	return rho
}

func (u *Universe) save() error {
	p := u.Params
	return u.data.AppendRow(p.AT/units.MeV, p.T/units.MeV, p.A, p.X, p.Time/units.Second, p.Rho, p.NEff, u.fraction)
}

func (u *Universe) saveRates(prevT, prevTime float64) error {
	if u.rates == nil || u.Params.T > u.opts.Rates.StartTemperature() {
		return nil
	}
	p := u.Params
	dTdt := 0.0
	if dt := p.Time - prevTime; dt != 0 {
		dTdt = ((p.T - prevT) / units.K9) / (dt / units.Second)
	}
	row := []float64{p.Time / units.Second, p.X / units.MeV, p.T / units.K9, dTdt, p.Rho / units.GramPerCm3, p.H * units.Second}
	return u.rates.AppendRow(append(row, u.opts.Rates.Rates(p)...)...)
}

func (u *Universe) export() error {
	if err := u.opts.Sink.WriteTable(EvolutionTable, u.data); err != nil {
		return fmt.Errorf("export %s: %w", EvolutionTable, err)
	}
	if u.rates != nil && u.rates.Len() > 0 {
		if err := u.opts.Sink.WriteTable(RatesTable, u.rates); err != nil {
			return fmt.Errorf("export %s: %w", RatesTable, err)
		}
	}
	return nil
}

func (u *Universe) logProgress() {
	u.progress.Do(func() {
		p := u.Params
		u.log.Info("step",
			"step", u.step,
			"elapsed", time.Since(u.clock).Round(time.Millisecond),
			"t_s", p.Time/units.Second,
			"aT", p.AT/units.MeV,
			"T", p.T/units.MeV,
			"a", p.A,
			"dx", p.Dx,
		)
	})
}

func (u *Universe) logSummary(title string) {
	u.log.Info(title, "params", u.Params.String(), "particles", len(u.particles), "interactions", len(u.interactions))
	for _, p := range u.particles {
		if s, ok := p.(fmt.Stringer); ok {
			u.log.Info("particle", "particle", s.String())
		} else {
			u.log.Info("particle", "particle", p.Symbol())
		}
	}
	for _, in := range u.interactions {
		u.log.Info("interaction", "interaction", in.String())
	}
}
