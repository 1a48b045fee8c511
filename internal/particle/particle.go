// Package particle is a reference species for the evolution engine.
//
// A Particle starts in thermal equilibrium with the plasma, where its
// distribution is the Fermi-Dirac or Bose-Einstein function at the plasma
// temperature. Once the temperature drops to its decoupling temperature it
// switches, once and for good, to a tabulated distribution that only changes
// through its collision integrals.
//
// All momenta, masses and temperatures a Particle exposes are conformal:
// multiplied by the scale factor a = x / M.
package particle

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/bbnsim/internal/cosmo"
	"github.com/san-kum/bbnsim/internal/grid"
	"github.com/san-kum/bbnsim/internal/interaction"
)

// Statistics selects the quantum statistics of a species.
type Statistics int

const (
	Fermion Statistics = iota
	Boson
)

// Eta is +1 for fermions and -1 for bosons.
func (s Statistics) Eta() int {
	if s == Boson {
		return -1
	}
	return 1
}

func (s Statistics) String() string {
	if s == Boson {
		return "boson"
	}
	return "fermion"
}

// Spec describes a species.
type Spec struct {
	Name       string
	Symbol     string
	Mass       float64
	Dof        float64 // internal degrees of freedom
	Statistics Statistics
	// DecouplingTemperature is the plasma temperature below which the species
	// is tracked out of equilibrium. Zero keeps it in equilibrium for good.
	DecouplingTemperature float64
	Grid                  *grid.Grid
	Flavour               string // oscillation flavour, empty for none
}

// Particle implements the species contract of the universe and interaction packages.
type Particle struct {
	spec     Spec
	settings interaction.Settings
	params   *cosmo.Params

	equilibrium bool
	frozenAT    float64 // conformal temperature at decoupling
	dist        []float64

	integrals []interaction.Integral
	collision []float64
}

var _ interaction.Specie = (*Particle)(nil)

// New validates spec and returns a species in equilibrium.
func New(spec Spec, settings interaction.Settings) (*Particle, error) {
	if spec.Name == "" {
		return nil, fmt.Errorf("particle: name required")
	}
	if spec.Grid == nil {
		return nil, fmt.Errorf("particle %s: grid required", spec.Name)
	}
	if spec.Mass < 0 || spec.Dof <= 0 {
		return nil, fmt.Errorf("particle %s: mass=%g dof=%g out of bounds", spec.Name, spec.Mass, spec.Dof)
	}
	if spec.Symbol == "" {
		spec.Symbol = spec.Name
	}
	return &Particle{
		spec:        spec,
		settings:    settings,
		equilibrium: true,
		dist:        make([]float64, spec.Grid.Len()),
	}, nil
}

func (p *Particle) Name() string        { return p.spec.Name }
func (p *Particle) Symbol() string      { return p.spec.Symbol }
func (p *Particle) Flavour() string     { return p.spec.Flavour }
func (p *Particle) Grid() *grid.Grid    { return p.spec.Grid }
func (p *Particle) Eta() int            { return p.spec.Statistics.Eta() }
func (p *Particle) InEquilibrium() bool { return p.equilibrium }

// Params returns the shared cosmological state.
func (p *Particle) Params() *cosmo.Params { return p.params }

// SetParams binds the species to the state owned by the universe.
func (p *Particle) SetParams(params *cosmo.Params) {
	p.params = params
	p.refresh()
}

// Distribution returns the distribution sampled on the grid. Callers must not modify it.
func (p *Particle) Distribution() []float64 { return p.dist }

func (p *Particle) scale() float64 { return p.params.X / p.params.M }

// ConformalMass is m * a.
func (p *Particle) ConformalMass() float64 { return p.spec.Mass * p.scale() }

// ConformalTemperature is aT while in equilibrium and the frozen value afterwards.
func (p *Particle) ConformalTemperature() float64 {
	if p.equilibrium {
		return p.params.AT
	}
	return p.frozenAT
}

// Update starts a new step: it drops the previous step's integrals, checks
// for decoupling and, in equilibrium, resamples the distribution.
func (p *Particle) Update() {
	p.integrals = p.integrals[:0]
	p.collision = nil

	if p.equilibrium && p.params.T <= p.spec.DecouplingTemperature {
		p.frozenAT = p.params.AT
		p.equilibrium = false
	}
	p.refresh()
}

func (p *Particle) refresh() {
	if p.params == nil || !p.equilibrium {
		return
	}
	m, t := p.ConformalMass(), p.params.AT
	for i, y := range p.spec.Grid.Points() {
		p.dist[i] = p.occupancy(energy(y, m), t)
	}
}

// occupancy is the equilibrium distribution. The zero-energy boson mode is
// evaluated at a small positive energy.
func (p *Particle) occupancy(e, t float64) float64 {
	if e == 0 && p.spec.Statistics == Boson {
		e = 1e-3 * p.spec.Grid.Step()
		if e == 0 {
			e = 1e-6 * t
		}
	}
	return 1 / (math.Exp(e/t) + float64(p.Eta()))
}

// Equilibrium returns the equilibrium distribution for the current state on the grid.
func (p *Particle) Equilibrium() []float64 {
	out := make([]float64, p.spec.Grid.Len())
	m, t := p.ConformalMass(), p.ConformalTemperature()
	for i, y := range p.spec.Grid.Points() {
		out[i] = p.occupancy(energy(y, m), t)
	}
	return out
}

// AddCollisionIntegral attaches an integral for the current step.
func (p *Particle) AddCollisionIntegral(ci interaction.Integral) {
	p.integrals = append(p.integrals, ci)
}

func (p *Particle) HasCollisionIntegrals() bool { return len(p.integrals) > 0 }

// CollisionIntegrals returns the integrals attached for the current step.
func (p *Particle) CollisionIntegrals() []interaction.Integral { return p.integrals }

// IntegrateCollisions sums every attached integral over the grid.
func (p *Particle) IntegrateCollisions(ctx context.Context) ([]float64, error) {
	total := make([]float64, p.spec.Grid.Len())
	for _, ci := range p.integrals {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		values, err := ci.Integrate(p.spec.Grid.Points())
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.spec.Name, err)
		}
		for i, v := range values {
			total[i] += v
		}
	}
	return total, nil
}

// CollisionAt sums every attached integral at one momentum.
func (p *Particle) CollisionAt(p0 float64) (float64, error) {
	total := 0.0
	for _, ci := range p.integrals {
		v, err := ci.Integrate([]float64{p0})
		if err != nil {
			return 0, fmt.Errorf("%s: %w", p.spec.Name, err)
		}
		total += v[0]
	}
	return total, nil
}

// SetCollisionIntegral stores the aggregate collision term for the current step.
func (p *Particle) SetCollisionIntegral(values []float64) { p.collision = values }

// CollisionIntegral returns the aggregate collision term, nil before it is set.
func (p *Particle) CollisionIntegral() []float64 { return p.collision }

// UpdateDistribution advances the distribution by one step of its collision term.
func (p *Particle) UpdateDistribution() {
	if p.equilibrium || p.collision == nil {
		return
	}
	step := p.params.Dx
	if p.settings.Logarithmic {
		step = p.params.Dy
	}
	for i, c := range p.collision {
		p.dist[i] += c * step
	}
}

func (p *Particle) String() string {
	regime := "equilibrium"
	if !p.equilibrium {
		regime = "non-equilibrium"
	}
	return fmt.Sprintf("%s (%s, %s, m=%.4g MeV, g=%g, %s)",
		p.spec.Name, p.spec.Symbol, p.spec.Statistics, p.spec.Mass, p.spec.Dof, regime)
}

func energy(y, m float64) float64 { return math.Hypot(y, m) }
