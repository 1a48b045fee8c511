package particle

import "math"

// Moments of the distribution. Integrals run over the conformal momentum grid
// with the trapezoid rule; the y = 0 node carries no weight because of the y²
// phase-space factor and is skipped so a divergent boson mode cannot leak in.

func (p *Particle) prefactor() float64 { return p.spec.Dof / (2 * math.Pi * math.Pi) }

func (p *Particle) integrate(f func(y, e, occupancy float64) float64) float64 {
	g := p.spec.Grid
	m := p.ConformalMass()
	values := make([]float64, g.Len())
	for i, y := range g.Points() {
		if y == 0 {
			continue
		}
		values[i] = f(y, energy(y, m), p.dist[i])
	}
	return g.Integrate(values)
}

// EnergyDensity is the physical energy density, ρ_conformal / a⁴.
func (p *Particle) EnergyDensity() float64 {
	rho := p.prefactor() * p.integrate(func(y, e, f float64) float64 {
		return y * y * e * f
	})
	return rho / math.Pow(p.scale(), 4)
}

// NumberDensity is the physical number density, n_conformal / a³.
func (p *Particle) NumberDensity() float64 {
	n := p.prefactor() * p.integrate(func(y, _, f float64) float64 {
		return y * y * f
	})
	return n / math.Pow(p.scale(), 3)
}

// Pressure is the physical pressure, P_conformal / a⁴.
func (p *Particle) Pressure() float64 {
	pr := p.prefactor() * p.integrate(func(y, e, f float64) float64 {
		return y * y * y * y / (3 * e) * f
	})
	return pr / math.Pow(p.scale(), 4)
}

// Numerator is this species' contribution to the numerator of the equation
// for d(aT)/dx. In equilibrium it is the heat released as the conformal mass
// grows; out of equilibrium it is the energy its collisions hand to the plasma.
func (p *Particle) Numerator() float64 {
	if p.equilibrium {
		m, t := p.ConformalMass(), p.ConformalTemperature()
		if m == 0 {
			return 0
		}
		eta := float64(p.Eta())
		sum := p.integrate(func(y, _, f float64) float64 {
			return y * y * f * (1 - eta*f)
		})
		return p.prefactor() * m * m / (p.params.X * t) * sum
	}

	if p.collision == nil {
		return 0
	}
	g := p.spec.Grid
	m := p.ConformalMass()
	values := make([]float64, g.Len())
	for i, y := range g.Points() {
		values[i] = y * y * energy(y, m) * p.collision[i]
	}
	n := -p.prefactor() * g.Integrate(values)
	if p.settings.Logarithmic {
		n /= p.params.X
	}
	return n
}

// Denominator is the heat capacity of an equilibrium species, d ρ_conformal / d(aT).
// Species out of equilibrium do not share the plasma temperature and contribute nothing.
func (p *Particle) Denominator() float64 {
	if !p.equilibrium {
		return 0
	}
	t := p.ConformalTemperature()
	eta := float64(p.Eta())
	sum := p.integrate(func(y, e, f float64) float64 {
		return y * y * e * e * f * (1 - eta*f)
	})
	return p.prefactor() / (t * t) * sum
}
