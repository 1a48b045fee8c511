package model

import (
	"math"
	"sync"

	"github.com/san-kum/bbnsim/internal/cosmo"
	"github.com/san-kum/bbnsim/internal/grid"
	"github.com/san-kum/bbnsim/internal/units"
)

// RatesStartTemperature is where the weak-rate table starts by default.
const RatesStartTemperature = 1.5 * units.MeV

// ThermalSpecies reports the conformal temperature of a species.
type ThermalSpecies interface {
	ConformalTemperature() float64
}

// WeakRates tabulates the n <-> p weak rates in the Born approximation,
// normalized to the free neutron lifetime. Rates are in 1/s.
type WeakRates struct {
	Start float64 // defaults to RatesStartTemperature
	// Neutrino sets the neutrino temperature. Nil means neutrinos share the
	// plasma temperature.
	Neutrino ThermalSpecies
	Samples  int // quadrature nodes in the electron energy, default 4001
}

func (w *WeakRates) StartTemperature() float64 {
	if w.Start > 0 {
		return w.Start
	}
	return RatesStartTemperature
}

func (w *WeakRates) Columns() []string { return []string{"n->p[1/s]", "p->n[1/s]"} }

// Rates returns λ(n->p) and λ(p->n) at the current state.
func (w *WeakRates) Rates(p *cosmo.Params) []float64 {
	tnu := p.T
	if w.Neutrino != nil {
		tnu = w.Neutrino.ConformalTemperature() / p.A
	}
	np, pn := weakRates(p.T, tnu, w.samples())
	return []float64{np, pn}
}

func (w *WeakRates) samples() int {
	if w.Samples > 1 {
		return w.Samples
	}
	return 4001
}

var (
	decayOnce     sync.Once
	decayIntegral float64
)

// phaseSpace is the free neutron decay phase-space integral
// ∫_1^q ε √(ε²-1) (q-ε)² dε, about 1.636.
func phaseSpace() float64 {
	decayOnce.Do(func() {
		q := units.NeutronProtonMassDifference / units.ElectronMass
		g, err := grid.Linear(1, q, 20001)
		if err != nil {
			panic(err)
		}
		values := make([]float64, g.Len())
		for i, e := range g.Points() {
			values[i] = e * math.Sqrt(e*e-1) * (q - e) * (q - e)
		}
		decayIntegral = g.Integrate(values)
	})
	return decayIntegral
}

// weakRates integrates over the electron energy ε = E/m_e. Each rate sums the
// processes with an electron and with a positron in the final or initial state;
// neutron decay is the ε < q part of the first term.
func weakRates(t, tnu float64, n int) (float64, float64) {
	q := units.NeutronProtonMassDifference / units.ElectronMass
	z := units.ElectronMass / t
	znu := units.ElectronMass / tnu

	emax := 1 + q + 60*math.Max(1/z, 1/znu)
	g, err := grid.Linear(1, emax, n)
	if err != nil {
		panic(err)
	}
	np := make([]float64, g.Len())
	pn := make([]float64, g.Len())
	for i, e := range g.Points() {
		measure := e * math.Sqrt(e*e-1)
		np[i] = measure * ((e-q)*(e-q)*fermi(-e*z)*fermi((e-q)*znu) +
			(e+q)*(e+q)*fermi(e*z)*fermi(-(e+q)*znu))
		pn[i] = measure * ((e+q)*(e+q)*fermi(-e*z)*fermi((e+q)*znu) +
			(e-q)*(e-q)*fermi(e*z)*fermi(-(e-q)*znu))
	}

	k := 1 / (units.NeutronLifetime / units.Second * phaseSpace())
	return k * g.Integrate(np), k * g.Integrate(pn)
}

// fermi is 1/(1+e^x).
func fermi(x float64) float64 {
	if x > 700 {
		return 0
	}
	return 1 / (1 + math.Exp(x))
}
