// Package interaction models reactions between species and evaluates their
// Boltzmann collision terms.
package interaction

import (
	"fmt"
	"strings"
)

// Interaction groups the collision integrals produced by one physical process,
// typically one integral per non-equilibrium species taking part in it.
type Interaction struct {
	Name      string
	Integrals []*FourParticleIntegral
}

// New returns an interaction over the given integrals.
func New(name string, integrals ...*FourParticleIntegral) *Interaction {
	return &Interaction{Name: name, Integrals: integrals}
}

// Initialize attaches every integral that is still active to its target
// species. An integral is active while the temperature is above its
// decoupling temperature and the target is out of equilibrium.
func (in *Interaction) Initialize() {
	for _, ci := range in.Integrals {
		target := ci.Target()
		if target.InEquilibrium() {
			continue
		}
		if params := target.Params(); params == nil || params.T <= ci.DecouplingTemperature {
			continue
		}
		ci.Initialize()
		target.AddCollisionIntegral(ci)
	}
}

// Species lists the distinct species that take part, in order of appearance.
func (in *Interaction) Species() []Specie {
	seen := make(map[Specie]bool)
	var out []Specie
	for _, ci := range in.Integrals {
		for i := range ci.Reaction.Len() {
			sp := ci.Reaction.Leg(i).Specie
			if !seen[sp] {
				seen[sp] = true
				out = append(out, sp)
			}
		}
	}
	return out
}

func (in *Interaction) String() string {
	parts := make([]string, len(in.Integrals))
	for i, ci := range in.Integrals {
		parts[i] = ci.Reaction.String()
	}
	return fmt.Sprintf("%s [%s]", in.Name, strings.Join(parts, "; "))
}
