package interaction

import (
	"fmt"
	"math"
	"sync"

	"github.com/san-kum/bbnsim/internal/grid"
)

// Settings are run-wide switches threaded down from the configuration.
type Settings struct {
	// Logarithmic integrates in y = ln(x), which drops one power of x from the
	// normalization of every collision term.
	Logarithmic bool
}

// FourParticleIntegral is the collision term of a 2<->2 reaction on the
// species of leg 0.
type FourParticleIntegral struct {
	Reaction              Reaction
	Elements              []MatrixElement
	Grids                 [2]*grid.Grid // grids of the free legs 1 and 2
	DecouplingTemperature float64
	Settings              Settings
	Kernel                Kernel

	mu    sync.Mutex
	cache *snapshot
}

var _ Integral = (*FourParticleIntegral)(nil)

type snapshot struct {
	legs     [4]LegSnapshot
	elements []MatrixElement
	bounds   Bounds
	step     float64
}

// FourParticleOptions configures NewFourParticleIntegral.
type FourParticleOptions struct {
	DecouplingTemperature float64
	Settings              Settings
	Kernel                Kernel // defaults to BoltzmannKernel
}

// NewFourParticleIntegral binds elements to a four-leg reaction. Stackable
// elements are merged so each distinct order is evaluated once.
func NewFourParticleIntegral(reaction Reaction, elements []MatrixElement, opts FourParticleOptions) (*FourParticleIntegral, error) {
	if reaction.Len() != 4 {
		return nil, fmt.Errorf("%w: four-particle integral with %d legs", ErrInvalidReaction, reaction.Len())
	}
	if reaction.Type() != 0 {
		return nil, fmt.Errorf("%w: %s is not a 2<->2 process", ErrInvalidReaction, reaction)
	}
	if len(elements) == 0 {
		return nil, fmt.Errorf("%w: %s has no matrix elements", ErrInvalidReaction, reaction)
	}
	if opts.Kernel == nil {
		opts.Kernel = BoltzmannKernel{}
	}

	return &FourParticleIntegral{
		Reaction:              reaction,
		Elements:              Stack(elements),
		Grids:                 [2]*grid.Grid{reaction.Leg(1).Specie.Grid(), reaction.Leg(2).Specie.Grid()},
		DecouplingTemperature: opts.DecouplingTemperature,
		Settings:              opts.Settings,
		Kernel:                opts.Kernel,
	}, nil
}

// Target is the species whose distribution this integral evolves.
func (ci *FourParticleIntegral) Target() Specie { return ci.Reaction.Leg(0).Specie }

// Initialize drops the cached snapshot so the next evaluation sees the live
// state of the legs. It is called once per step.
func (ci *FourParticleIntegral) Initialize() {
	ci.mu.Lock()
	ci.cache = nil
	ci.mu.Unlock()
}

// Constant is the normalization (M/x)^5 / (64 π³ H), with one more 1/x unless
// the run integrates in ln(x).
func (ci *FourParticleIntegral) Constant() (float64, error) {
	params := ci.Target().Params()
	if params == nil || params.H <= 0 || params.X <= 0 {
		return 0, ErrNotInitialized
	}
	c := math.Pow(params.M/params.X, 5) / (64 * math.Pow(math.Pi, 3) * params.H)
	if !ci.Settings.Logarithmic {
		c /= params.X
	}
	return c, nil
}

func (ci *FourParticleIntegral) snapshot() (*snapshot, error) {
	ci.mu.Lock()
	defer ci.mu.Unlock()
	if ci.cache != nil {
		return ci.cache, nil
	}

	c, err := ci.Constant()
	if err != nil {
		return nil, err
	}

	s := &snapshot{step: ci.Target().Params().MomentumStep}
	for i := range s.legs {
		leg := ci.Reaction.Leg(i)
		sp := leg.Specie
		s.legs[i] = LegSnapshot{
			Name:         sp.Name(),
			Side:         leg.Side,
			Mass:         sp.ConformalMass(),
			Grid:         sp.Grid(),
			Distribution: append([]float64(nil), sp.Distribution()...),
			Eta:          sp.Eta(),
			Equilibrium:  sp.InEquilibrium(),
			Temperature:  sp.ConformalTemperature(),
		}
	}

	s.elements = make([]MatrixElement, len(ci.Elements))
	for i, me := range ci.Elements {
		s.elements[i] = me.Scale(c)
	}

	s.bounds.Min1, s.bounds.Max1 = ci.Grids[0].Bounds()
	s.bounds.Min2, s.bounds.Max2 = ci.Grids[1].Bounds()
	if s.step == 0 {
		s.step = ci.Grids[0].MeanStep()
	}

	ci.cache = s
	return s, nil
}

type integrateConfig struct {
	bounds *Bounds
	step   float64
}

// IntegrateOption overrides a default of Integrate.
type IntegrateOption func(*integrateConfig)

// WithBounds limits the free-leg momenta.
func WithBounds(b Bounds) IntegrateOption {
	return func(c *integrateConfig) { c.bounds = &b }
}

// WithStepSize sets the quadrature step.
func WithStepSize(h float64) IntegrateOption {
	return func(c *integrateConfig) { c.step = h }
}

// Integrate returns the collision term at every momentum of p0, in the same order.
func (ci *FourParticleIntegral) Integrate(p0 []float64, opts ...IntegrateOption) ([]float64, error) {
	s, err := ci.snapshot()
	if err != nil {
		return nil, err
	}

	cfg := integrateConfig{step: s.step}
	for _, opt := range opts {
		opt(&cfg)
	}
	bounds := s.bounds
	if cfg.bounds != nil {
		bounds = *cfg.bounds
	}

	out := make([]float64, len(p0))
	for i, p := range p0 {
		v, err := ci.Kernel.Evaluate(p, &s.legs, s.elements, bounds, cfg.step)
		if err != nil {
			return nil, fmt.Errorf("%s at p=%g: %w", ci.Reaction, p, err)
		}
		out[i] = v
	}
	return out, nil
}

func (ci *FourParticleIntegral) String() string {
	return fmt.Sprintf("FourParticleIntegral(%s, %d elements)", ci.Reaction, len(ci.Elements))
}

// Reorder maps elements written for one leg ordering onto reaction, where
// perm[i] is the position in reaction of the original leg i. Mass-term signs
// follow the crossed flags of reaction.
func Reorder(elements []MatrixElement, perm [4]int, reaction Reaction) ([]MatrixElement, error) {
	if _, err := normalizeOrder(perm); err != nil {
		return nil, err
	}
	out := make([]MatrixElement, len(elements))
	for n, me := range elements {
		var order [4]int
		for i, leg := range me.order {
			order[i] = perm[leg]
		}
		moved, err := me.ApplyOrder(order, reaction)
		if err != nil {
			return nil, err
		}
		out[n] = moved
	}
	return out, nil
}
