package universe_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/bbnsim/internal/cosmo"
	"github.com/san-kum/bbnsim/internal/grid"
	"github.com/san-kum/bbnsim/internal/integrators"
	"github.com/san-kum/bbnsim/internal/metrics"
	"github.com/san-kum/bbnsim/internal/model"
	"github.com/san-kum/bbnsim/internal/parallel"
	"github.com/san-kum/bbnsim/internal/storage"
	"github.com/san-kum/bbnsim/internal/universe"
)

func build(params *cosmo.Params, opts universe.Options, ps ...universe.Particle) *universe.Universe {
	opts.Logger = quiet
	u, err := universe.New(params, opts)
	Expect(err).NotTo(HaveOccurred())
	DeferCleanup(u.Close)
	u.AddParticles(ps...)
	return u
}

var _ = Describe("Universe", func() {
	Describe("construction", func() {
		It("rejects missing params and negative workers", func() {
			_, err := universe.New(nil, universe.Options{})
			Expect(err).To(HaveOccurred())
			_, err = universe.New(newParams(1, 0.1, 0.1), universe.Options{Workers: -1})
			Expect(err).To(HaveOccurred())
		})

		It("binds the shared params into every particle", func() {
			params := newParams(1, 0.1, 0.1)
			a, b := newFake("a"), newFake("b")
			build(params, universe.Options{}, a, b)
			Expect(a.params).To(BeIdenticalTo(params))
			Expect(b.params).To(BeIdenticalTo(params))
		})

		It("refuses to evolve without particles", func() {
			u := build(newParams(1, 0.1, 0.1), universe.Options{})
			_, err := u.Evolve(context.Background())
			Expect(err).To(MatchError(universe.ErrNoParticles))
		})
	})

	Describe("multistep advance", func() {
		It("ramps the order from 1 up to 5", func() {
			samples := []float64{1, 2, 4, 3, 5, 6, 2}
			call := 0
			p := newFake("a")
			p.numerator = func(params *cosmo.Params) float64 {
				v := samples[call] / params.X
				call++
				return v
			}
			params := newParams(1, 0.001, 0.1)
			u := build(params, universe.Options{}, p)

			fs := []float64{}
			for step := range samples {
				before := params.AT
				Expect(u.MakeStep(context.Background())).To(Succeed())
				fs = append(fs, samples[step])

				order := integrators.Order(step)
				want, err := integrators.Correction(fs[len(fs)-order:], 0.1, order)
				Expect(err).NotTo(HaveOccurred())
				Expect(params.AT-before).To(BeNumerically("~", want, 1e-12), "step %d", step)
			}

			Expect(integrators.Order(len(samples) - 1)).To(Equal(integrators.MaxOrder))
			Expect(u.Step()).To(Equal(len(samples)))
			Expect(u.Data().Len()).To(Equal(len(samples) + 1))
		})

		It("matches hand-computed increments for the first steps", func() {
			samples := []float64{1, 2, 4}
			call := 0
			p := newFake("a")
			p.numerator = func(params *cosmo.Params) float64 {
				v := samples[call] / params.X
				call++
				return v
			}
			params := newParams(1, 0.001, 0.1)
			u := build(params, universe.Options{}, p)

			want := []float64{1.1, 1.35, 1.35 + 0.1*65.0/12}
			for i := range samples {
				Expect(u.MakeStep(context.Background())).To(Succeed())
				Expect(params.AT).To(BeNumerically("~", want[i], 1e-12))
			}
			fractions := u.Data().Column("fraction")
			Expect(fractions).To(HaveLen(4))
			for i, want := range samples {
				Expect(fractions[i+1]).To(BeNumerically("~", want, 1e-12))
			}
		})

		It("advances aT linearly for a constant derivative", func() {
			const k = 0.05
			p := newFake("a")
			p.numerator = func(params *cosmo.Params) float64 { return k / params.X }
			params := newParams(1, 0.1, 0.05)
			u := build(params, universe.Options{}, p)

			records, err := u.Evolve(context.Background())
			Expect(err).NotTo(HaveOccurred())

			n := float64(u.Step())
			Expect(params.AT).To(BeNumerically("~", 1+n*k*0.05, 1e-9))

			ts, xs := records.Column("T"), records.Column("x")
			for i := 1; i < len(ts); i++ {
				Expect(ts[i]).To(BeNumerically("<", ts[i-1]))
				Expect(xs[i]).To(BeNumerically(">", xs[i-1]))
			}
			Expect(ts[len(ts)-1]).To(BeNumerically("<=", 0.1))
			Expect(ts[len(ts)-2]).To(BeNumerically(">", 0.1))
		})

		It("fails with ErrNoHeatCapacity when no species has a denominator", func() {
			p := newFake("a")
			p.denominator = 0
			u := build(newParams(1, 0.1, 0.1), universe.Options{}, p)

			_, err := u.Evolve(context.Background())
			Expect(errors.Is(err, universe.ErrNoHeatCapacity)).To(BeTrue())

			var stepErr *universe.StepError
			Expect(errors.As(err, &stepErr)).To(BeTrue())
			Expect(stepErr.Step).To(Equal(0))
			Expect(stepErr.T).To(BeNumerically("~", 1, 1e-12))
			Expect(stepErr.Error()).To(ContainSubstring("step 0"))
		})
	})

	Describe("step pipeline", func() {
		It("runs every phase once per step", func() {
			p := newFake("a")
			p.collision = func(p0 float64) (float64, error) { return -p0, nil }
			var seen []float64
			u := build(newParams(1, 0.1, 0.1), universe.Options{
				StepMonitor: func(u *universe.Universe) { seen = append(seen, u.Params.T) },
			}, p)

			Expect(u.MakeStep(context.Background())).To(Succeed())
			Expect(p.updates).To(Equal(2)) // initial state and the step
			Expect(p.distUpdates).To(Equal(1))
			Expect(p.integral).To(Equal([]float64{0, -1, -2, -3, -4}))
			Expect(seen).To(HaveLen(1))
			Expect(seen[0]).To(Equal(u.Params.T))
		})

		It("gives the same integrals on the pool and serially", func() {
			run := func(workers int) [][]float64 {
				a, b := newFake("a"), newFake("b")
				a.collision = func(p0 float64) (float64, error) { return math.Sin(p0), nil }
				b.collision = func(p0 float64) (float64, error) { return p0 * p0, nil }
				u := build(newParams(1, 0.1, 0.1), universe.Options{Workers: workers}, a, b)
				Expect(u.MakeStep(context.Background())).To(Succeed())
				return [][]float64{a.integral, b.integral}
			}
			Expect(run(3)).To(Equal(run(0)))
		})

		It("wraps collision failures with the step", func() {
			boom := errors.New("boom")
			for _, workers := range []int{0, 2} {
				p := newFake("a")
				p.collision = func(p0 float64) (float64, error) {
					if p0 > 2 {
						return 0, boom
					}
					return 0, nil
				}
				u := build(newParams(1, 0.1, 0.1), universe.Options{Workers: workers}, p)

				err := u.MakeStep(context.Background())
				Expect(errors.Is(err, boom)).To(BeTrue(), "workers=%d", workers)
				Expect(u.Step()).To(Equal(0))
			}
		})

		It("fails on a pool timeout and still closes", func() {
			stuck := make(chan struct{})
			DeferCleanup(func() { close(stuck) })
			p := newFake("a")
			p.collision = func(float64) (float64, error) { <-stuck; return 0, nil }
			opts := universe.Options{Workers: 1, PoolTimeout: 20 * time.Millisecond, Logger: quiet}
			u, err := universe.New(newParams(1, 0.1, 0.1), opts)
			Expect(err).NotTo(HaveOccurred())
			u.AddParticles(p)

			_, err = u.Evolve(context.Background())
			Expect(errors.Is(err, parallel.ErrTimeout)).To(BeTrue())
			Expect(u.Step()).To(Equal(0))

			closed := make(chan struct{})
			go func() {
				u.Close()
				close(closed)
			}()
			Eventually(closed, 2*time.Second).Should(BeClosed())
		})

		It("feeds the monitors", func() {
			p := newFake("a")
			stability := metrics.NewStability()
			u := build(newParams(1, 0.5, 0.1), universe.Options{Monitors: []metrics.Metric{stability}}, p)

			_, err := u.Evolve(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Summary()).To(HaveKeyWithValue(stability.Name(), 1.0))
		})
	})

	Describe("oscillations", func() {
		var e, mu *fakeParticle

		BeforeEach(func() {
			e, mu = newFake("ν_e"), newFake("ν_μ")
			e.flavour, mu.flavour = "e", "mu"
			e.collision = func(float64) (float64, error) { return 1, nil }
			mu.collision = func(float64) (float64, error) { return 3, nil }
		})

		It("mixes the integrals of the subset", func() {
			u := build(newParams(1, 0.1, 0.1), universe.Options{}, e, mu)
			Expect(u.InitOscillations(universe.Mixing{
				"e":  {"e": 0.75, "mu": 0.25},
				"mu": {"e": 0.25, "mu": 0.75},
			}, e, mu)).To(Succeed())

			Expect(u.MakeStep(context.Background())).To(Succeed())
			Expect(e.integral).To(HaveEach(1.5))
			Expect(mu.integral).To(HaveEach(2.5))
		})

		It("rejects invalid patterns", func() {
			u := build(newParams(1, 0.1, 0.1), universe.Options{}, e, mu)
			plain := newFake("x")
			dup := newFake("y")
			dup.flavour = "e"

			cases := []struct {
				pattern   universe.Mixing
				particles []universe.Particle
			}{
				{universe.Mixing{"e": {"e": 1}}, nil},
				{universe.Mixing{"e": {"e": 1}}, []universe.Particle{plain}},
				{universe.Mixing{"e": {"e": 1}}, []universe.Particle{e, dup}},
				{universe.Mixing{"e": {"e": 1}}, []universe.Particle{e, mu}},
				{universe.Mixing{"e": {"tau": 1}, "mu": {}}, []universe.Particle{e, mu}},
			}
			for i, c := range cases {
				err := u.InitOscillations(c.pattern, c.particles...)
				Expect(errors.Is(err, universe.ErrOscillations)).To(BeTrue(), "case %d", i)
			}
		})
	})

	Describe("evolution loop", func() {
		It("flushes every ExportFreq steps and at the end", func() {
			sink := newRecordingSink()
			u := build(newParams(1, 0.5, 0.1), universe.Options{ExportFreq: 2, Sink: sink}, newFake("a"))

			_, err := u.Evolve(context.Background())
			Expect(err).NotTo(HaveOccurred())

			steps := u.Step()
			writes := sink.Writes(universe.EvolutionTable)
			Expect(writes).To(HaveLen(steps/2 + 1))
			Expect(writes[len(writes)-1]).To(Equal(steps + 1))
			Expect(sink.Writes(universe.RatesTable)).To(BeEmpty())
		})

		It("stops between steps when cancelled and still exports", func() {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			sink := newRecordingSink()
			u := build(newParams(1, 0.001, 0.1), universe.Options{
				Sink: sink,
				StepMonitor: func(u *universe.Universe) {
					if u.Step() == 2 { // the third step is completing
						cancel()
					}
				},
			}, newFake("a"))

			records, err := u.Evolve(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Interrupted()).To(BeTrue())
			Expect(records.Len()).To(Equal(4))
			Expect(sink.Writes(universe.EvolutionTable)).To(Equal([]int{4}))
		})

		It("records the initial state when already cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			u := build(newParams(1, 0.1, 0.1), universe.Options{}, newFake("a"))

			records, err := u.Evolve(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(records.Len()).To(Equal(1))
			Expect(records.Column("T")[0]).To(BeNumerically("~", 1, 1e-12))
		})

		It("appends nucleosynthesis rates below the start temperature", func() {
			sink := newRecordingSink()
			u := build(newParams(1, 0.5, 0.1), universe.Options{
				Sink:  sink,
				Rates: constantRates{start: 0.8},
			}, newFake("a"))

			_, err := u.Evolve(context.Background())
			Expect(err).NotTo(HaveOccurred())

			rates := u.RatesData()
			Expect(rates.Columns()).To(Equal(append(append([]string{}, universe.RateColumns...), "n->p", "p->n")))
			Expect(rates.Len()).To(BeNumerically(">", 0))
			Expect(rates.Len()).To(BeNumerically("<", u.Step()))

			for _, v := range rates.Column("dT/dt[K9/s]") {
				Expect(v).To(BeNumerically("<", 0))
			}
			ts := rates.Column("t[s]")
			for i := 1; i < len(ts); i++ {
				Expect(ts[i]).To(BeNumerically(">", ts[i-1]))
			}
			Expect(sink.Writes(universe.RatesTable)).NotTo(BeEmpty())
		})

		It("leaves no partial row when the rates row is rejected", func() {
			u := build(newParams(1, 0.5, 0.1), universe.Options{
				Rates: shortRates{constantRates{start: 2}},
			}, newFake("a"))

			err := u.MakeStep(context.Background())
			Expect(errors.Is(err, storage.ErrRowLength)).To(BeTrue())
			Expect(u.Step()).To(Equal(0))
			Expect(u.Data().Len()).To(Equal(1))
			Expect(u.RatesData().Len()).To(Equal(0))
		})
	})

	Describe("reference models", func() {
		evolve := func(name string, g *grid.Grid, tInitial, tFinal, dy float64, workers int) (*model.Model, *universe.Universe) {
			m, err := model.Build(name, model.Options{Grid: g})
			Expect(err).NotTo(HaveOccurred())

			u := build(newParams(tInitial, tFinal, dy), universe.Options{Workers: workers})
			for _, p := range m.Particles {
				u.AddParticles(p)
			}
			for _, in := range m.Interactions {
				u.AddInteractions(in)
			}
			_, err = u.Evolve(context.Background())
			Expect(err).NotTo(HaveOccurred())
			return m, u
		}

		It("heats the photons by (11/4)^(1/3) through e± annihilation", func() {
			g, err := grid.Linear(0, 20, 101)
			Expect(err).NotTo(HaveOccurred())
			_, u := evolve("electron-positron", g, 10, 0.01, 0.1, 0)

			Expect(u.Params.AT).To(BeNumerically("~", math.Cbrt(11.0/4), 2e-3))

			records := u.Data()
			ts, xs, ats := records.Column("T"), records.Column("x"), records.Column("aT")
			for i := 1; i < len(ts); i++ {
				Expect(ts[i]).To(BeNumerically("<", ts[i-1]))
				Expect(xs[i]).To(BeNumerically(">", xs[i-1]))
				Expect(ats[i]).To(BeNumerically(">=", ats[i-1]-1e-12))
			}
		})

		It("keeps aT constant for pure radiation", func() {
			g, err := grid.Linear(0, 20, 101)
			Expect(err).NotTo(HaveOccurred())
			_, u := evolve("radiation", g, 10, 0.1, 0.1, 0)
			Expect(u.Params.AT).To(BeNumerically("~", 1, 1e-12))
			Expect(u.Params.NEff).To(BeNumerically("~", 0, 1e-2))
		})

		It("evolves neutrino scattering identically on the pool", func() {
			g, err := grid.Linear(0, 20, 21)
			Expect(err).NotTo(HaveOccurred())
			serial, su := evolve("neutrino-scattering", g, 3, 2.5, 0.05, 0)

			g2, err := grid.Linear(0, 20, 21)
			Expect(err).NotTo(HaveOccurred())
			pooled, pu := evolve("neutrino-scattering", g2, 3, 2.5, 0.05, 4)

			Expect(pu.Step()).To(Equal(su.Step()))
			Expect(pu.Params.AT).To(Equal(su.Params.AT))
			want := serial.Particle("Neutrino e").Distribution()
			got := pooled.Particle("Neutrino e").Distribution()
			Expect(got).To(Equal(want))
			for i, v := range got {
				Expect(math.IsNaN(v)).To(BeFalse(), fmt.Sprintf("point %d", i))
			}
		})
	})
})
