package interaction

import (
	"fmt"
	"strings"

	"github.com/san-kum/bbnsim/internal/cosmo"
	"github.com/san-kum/bbnsim/internal/grid"
)

// Side marks a reaction leg as incoming or outgoing. The values double as the
// signs of each leg in the energy-momentum conservation law.
type Side int

const (
	Incoming Side = -1
	Outgoing Side = 1
)

func (s Side) String() string {
	if s == Incoming {
		return "in"
	}
	return "out"
}

// Specie is the view of a particle species that reactions need.
type Specie interface {
	Name() string
	ConformalMass() float64
	Grid() *grid.Grid
	Distribution() []float64
	// Eta is +1 for fermions and -1 for bosons.
	Eta() int
	InEquilibrium() bool
	ConformalTemperature() float64
	Params() *cosmo.Params
	AddCollisionIntegral(Integral)
}

// Integral is a collision term attached to a species for the current step.
type Integral interface {
	Initialize()
	Integrate(p0 []float64, opts ...IntegrateOption) ([]float64, error)
}

// Leg is one side of a reaction.
type Leg struct {
	Specie  Specie
	Side    Side
	Crossed bool // leg belongs to a crossed diagram
}

// Reaction is an immutable ordered tuple of legs.
type Reaction struct {
	legs []Leg
}

// NewReaction copies legs into a reaction. Every leg must reference a species.
func NewReaction(legs ...Leg) (Reaction, error) {
	if len(legs) == 0 {
		return Reaction{}, fmt.Errorf("%w: empty reaction", ErrInvalidReaction)
	}
	for i, l := range legs {
		if l.Specie == nil {
			return Reaction{}, fmt.Errorf("%w: leg %d has no species", ErrInvalidReaction, i)
		}
		if l.Side != Incoming && l.Side != Outgoing {
			return Reaction{}, fmt.Errorf("%w: leg %d has side %d", ErrInvalidReaction, i, l.Side)
		}
	}
	return Reaction{legs: append([]Leg(nil), legs...)}, nil
}

func (r Reaction) Len() int { return len(r.legs) }

// Leg returns the i-th leg.
func (r Reaction) Leg(i int) Leg { return r.legs[i] }

// Type is the sum of leg sides: 0 for 2<->2 scattering, +-2 for 1<->3 decays.
func (r Reaction) Type() int {
	sum := 0
	for _, l := range r.legs {
		sum += int(l.Side)
	}
	return sum
}

func (r Reaction) String() string {
	var in, out []string
	for _, l := range r.legs {
		name := l.Specie.Name()
		if l.Crossed {
			name += "~"
		}
		if l.Side == Incoming {
			in = append(in, name)
		} else {
			out = append(out, name)
		}
	}
	return strings.Join(in, " + ") + " <-> " + strings.Join(out, " + ")
}
