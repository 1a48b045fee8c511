package universe

import "fmt"

// Mixing maps a flavour to the weights of every flavour's collision integral
// in its own: collision[to] = Σ Mixing[to][from] · collision[from].
type Mixing map[string]map[string]float64

type oscillations struct {
	pattern   Mixing
	particles []Particle
}

// InitOscillations declares that the collision integrals of particles are
// mixed by pattern before their distributions are updated. The species must
// have distinct flavours and grids of the same size.
func (u *Universe) InitOscillations(pattern Mixing, particles ...Particle) error {
	if len(particles) == 0 {
		return fmt.Errorf("%w: no particles", ErrOscillations)
	}
	seen := make(map[string]bool, len(particles))
	n := particles[0].Grid().Len()
	for _, p := range particles {
		f := p.Flavour()
		if f == "" {
			return fmt.Errorf("%w: %s has no flavour", ErrOscillations, p.Symbol())
		}
		if seen[f] {
			return fmt.Errorf("%w: duplicate flavour %q", ErrOscillations, f)
		}
		seen[f] = true
		if _, ok := pattern[f]; !ok {
			return fmt.Errorf("%w: no weights for flavour %q", ErrOscillations, f)
		}
		if p.Grid().Len() != n {
			return fmt.Errorf("%w: %s grid has %d points, want %d", ErrOscillations, p.Symbol(), p.Grid().Len(), n)
		}
	}
	for to, row := range pattern {
		for from := range row {
			if !seen[to] || !seen[from] {
				return fmt.Errorf("%w: weight %s<-%s names an unknown flavour", ErrOscillations, to, from)
			}
		}
	}

	u.oscillations = &oscillations{pattern: pattern, particles: particles}
	return nil
}

// apply replaces every member's collision integral by the mixed one. Species
// without an integral this step contribute nothing.
func (o *oscillations) apply() {
	integrals := make([][]float64, len(o.particles))
	active := false
	for i, p := range o.particles {
		integrals[i] = p.CollisionIntegral()
		active = active || integrals[i] != nil
	}
	if !active {
		return
	}

	n := o.particles[0].Grid().Len()
	for _, p := range o.particles {
		mixed := make([]float64, n)
		row := o.pattern[p.Flavour()]
		for j, other := range o.particles {
			w := row[other.Flavour()]
			if w == 0 || integrals[j] == nil {
				continue
			}
			for k, v := range integrals[j] {
				mixed[k] += w * v
			}
		}
		p.SetCollisionIntegral(mixed)
	}
}
