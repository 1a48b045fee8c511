// Package cosmo holds the global cosmological state shared by every species.
package cosmo

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/bbnsim/internal/units"
)

// ErrParameterBounds indicates an initial condition outside the valid range.
var ErrParameterBounds = errors.New("cosmo: parameter out of valid bounds")

// Options configures the initial state.
type Options struct {
	TInitial     float64
	TFinal       float64
	Dy           float64 // step in ln(x)
	MassScale    float64 // defaults to 1 MeV
	MomentumStep float64 // default quadrature step for collision integrals
}

// Params is the cosmological state. It is owned by the Universe, which is the only
// writer; particles and collision integrals read it through a shared pointer.
type Params struct {
	M float64 // mass scale relating x and a: x = M * a

	AT   float64 // comoving temperature, a*T
	T    float64
	A    float64
	X    float64
	Time float64
	Rho  float64
	NEff float64
	H    float64 // Hubble rate

	Dx float64
	Dy float64

	TInitial float64
	TFinal   float64

	MomentumStep float64

	prevX float64
}

// NewParams builds the state at TInitial with a = M/TInitial, so that aT = M.
func NewParams(opts Options) (*Params, error) {
	if opts.MassScale == 0 {
		opts.MassScale = units.MeV
	}
	if opts.TInitial <= 0 || opts.TFinal <= 0 || opts.TFinal >= opts.TInitial {
		return nil, fmt.Errorf("%w: T_initial=%g T_final=%g", ErrParameterBounds, opts.TInitial, opts.TFinal)
	}
	if opts.Dy <= 0 {
		return nil, fmt.Errorf("%w: dy=%g", ErrParameterBounds, opts.Dy)
	}
	if opts.MomentumStep < 0 {
		return nil, fmt.Errorf("%w: momentum step=%g", ErrParameterBounds, opts.MomentumStep)
	}

	p := &Params{
		M:            opts.MassScale,
		TInitial:     opts.TInitial,
		TFinal:       opts.TFinal,
		Dy:           opts.Dy,
		MomentumStep: opts.MomentumStep,
		T:            opts.TInitial,
	}
	p.A = p.M / p.TInitial
	p.X = p.M * p.A
	p.AT = p.A * p.T
	p.Dx = p.X * (math.Exp(p.Dy) - 1)
	return p, nil
}

// Initialized reports whether Update has been called at least once.
func (p *Params) Initialized() bool { return p.Rho > 0 }

// Update recomputes every quantity that depends on (X, AT) given the total energy density.
func (p *Params) Update(rho float64) {
	p.A = p.X / p.M
	p.T = p.AT / p.A
	p.Rho = rho
	p.H = math.Sqrt(8*math.Pi/3*rho) / units.PlanckMass

	photon := math.Pi * math.Pi / 15 * math.Pow(p.T, 4)
	p.NEff = (rho/photon - 1) * 8.0 / 7.0 * math.Pow(11.0/4.0, 4.0/3.0)

	// radiation-dominated estimate on the first update, then dt = d(ln x) / H
	if p.prevX == 0 {
		p.Time = 1 / (2 * p.H)
	} else if p.X != p.prevX {
		p.Time += math.Log(p.X/p.prevX) / p.H
	}
	p.prevX = p.X

	p.Dx = p.X * (math.Exp(p.Dy) - 1)
}

func (p *Params) String() string {
	return fmt.Sprintf("Params(T=%.4e MeV, aT=%.4e MeV, a=%.4e, x=%.4e, t=%.4e s, H=%.4e)",
		p.T/units.MeV, p.AT/units.MeV, p.A, p.X, p.Time/units.Second, p.H)
}
