package interaction

import (
	"math"

	"github.com/san-kum/bbnsim/internal/cosmo"
	"github.com/san-kum/bbnsim/internal/grid"
)

type testSpecie struct {
	name        string
	mass        float64
	grid        *grid.Grid
	dist        []float64
	eta         int
	equilibrium bool
	temperature float64
	params      *cosmo.Params
	integrals   []Integral
}

func newTestSpecie(name string, mass float64) *testSpecie {
	g, err := grid.Linear(0, 10, 21)
	if err != nil {
		panic(err)
	}
	s := &testSpecie{
		name:        name,
		mass:        mass,
		grid:        g,
		eta:         1,
		temperature: 1,
		params:      &cosmo.Params{M: 1, X: 1, A: 1, AT: 1, T: 1, H: 1, MomentumStep: 0.5},
	}
	s.dist = s.equilibriumValues()
	return s
}

func (s *testSpecie) equilibriumValues() []float64 {
	out := make([]float64, s.grid.Len())
	for i, p := range s.grid.Points() {
		out[i] = 1 / (math.Exp(math.Hypot(p, s.mass)/s.temperature) + float64(s.eta))
	}
	return out
}

func (s *testSpecie) Name() string                  { return s.name }
func (s *testSpecie) ConformalMass() float64        { return s.mass }
func (s *testSpecie) Grid() *grid.Grid              { return s.grid }
func (s *testSpecie) Distribution() []float64       { return s.dist }
func (s *testSpecie) Eta() int                      { return s.eta }
func (s *testSpecie) InEquilibrium() bool           { return s.equilibrium }
func (s *testSpecie) ConformalTemperature() float64 { return s.temperature }
func (s *testSpecie) Params() *cosmo.Params         { return s.params }
func (s *testSpecie) AddCollisionIntegral(i Integral) {
	s.integrals = append(s.integrals, i)
}

// scattering builds a + b -> a + b with a out of equilibrium and b in equilibrium.
func scattering(elements ...MatrixElement) (*FourParticleIntegral, *testSpecie, *testSpecie) {
	a := newTestSpecie("a", 0)
	b := newTestSpecie("b", 0.5)
	b.equilibrium = true
	b.params = a.params

	r, err := NewReaction(
		Leg{Specie: a, Side: Incoming},
		Leg{Specie: b, Side: Incoming},
		Leg{Specie: a, Side: Outgoing},
		Leg{Specie: b, Side: Outgoing},
	)
	if err != nil {
		panic(err)
	}
	if len(elements) == 0 {
		elements = []MatrixElement{MustMatrixElement(MatrixElementSpec{K1: 1, Order: [4]int{0, 1, 2, 3}})}
	}
	ci, err := NewFourParticleIntegral(r, elements, FourParticleOptions{DecouplingTemperature: 0.1})
	if err != nil {
		panic(err)
	}
	return ci, a, b
}
