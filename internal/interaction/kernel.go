package interaction

import (
	"fmt"
	"math"

	"github.com/san-kum/bbnsim/internal/grid"
)

// LegSnapshot is the frozen state of one reaction leg for the current step.
type LegSnapshot struct {
	Name         string
	Side         Side
	Mass         float64 // conformal mass
	Grid         *grid.Grid
	Distribution []float64
	Eta          int
	Equilibrium  bool
	Temperature  float64 // conformal temperature
}

// Occupancy returns the distribution of the leg at momentum p with energy e.
// Species in equilibrium use the analytic Fermi-Dirac or Bose-Einstein form.
func (l *LegSnapshot) Occupancy(p, e float64) float64 {
	if l.Equilibrium {
		return 1 / (math.Exp(e/l.Temperature) + float64(l.Eta))
	}
	return l.Grid.Interpolate(l.Distribution, p)
}

// Bounds limits the momenta of the two free legs (legs 1 and 2).
type Bounds struct {
	Min1, Max1 float64
	Min2, Max2 float64
}

// Kernel integrates the matrix-element weighted phase space for one target momentum.
type Kernel interface {
	Evaluate(p0 float64, legs *[4]LegSnapshot, elements []MatrixElement, b Bounds, step float64) (float64, error)
}

// BoltzmannKernel integrates the four-particle collision term over the
// momenta of legs 1 and 2 after analytic angular integration. The energy of
// leg 3 follows from energy conservation.
type BoltzmannKernel struct{}

var _ Kernel = BoltzmannKernel{}

func (BoltzmannKernel) Evaluate(p0 float64, legs *[4]LegSnapshot, elements []MatrixElement, b Bounds, step float64) (float64, error) {
	if !(step > 0) {
		return 0, fmt.Errorf("%w: %g", ErrStepSize, step)
	}
	if p0 == 0 {
		// the collision term is finite at p0 -> 0 but the measure is not
		p0 = 1e-8 * step
	}

	var sides, m [4]float64
	for i := range legs {
		sides[i] = float64(legs[i].Side)
		m[i] = legs[i].Mass
	}

	e0 := math.Hypot(p0, m[0])
	f0 := legs[0].Occupancy(p0, e0)

	nodes1, w1 := trapezoid(b.Min1, b.Max1, step)
	nodes2, w2 := trapezoid(b.Min2, b.Max2, step)

	total := 0.0
	for a, p1 := range nodes1 {
		if p1 == 0 {
			continue
		}
		e1 := math.Hypot(p1, m[1])
		f1 := legs[1].Occupancy(p1, e1)

		for c, p2 := range nodes2 {
			if p2 == 0 {
				continue
			}
			e2 := math.Hypot(p2, m[2])
			e3 := -sides[3] * (sides[0]*e0 + sides[1]*e1 + sides[2]*e2)
			if e3 <= m[3] {
				continue
			}
			p3 := math.Sqrt(e3*e3 - m[3]*m[3])

			f := [4]float64{f0, f1, legs[2].Occupancy(p2, e2), legs[3].Occupancy(p3, e3)}
			stat := statisticalFactor(legs, f)
			if stat == 0 {
				continue
			}

			p := [4]float64{p0, p1, p2, p3}
			e := [4]float64{e0, e1, e2, e3}
			sum := 0.0
			for _, me := range elements {
				sum += weight(me, p, e, m, sides)
			}
			total += w1[a] * w2[c] * (p1 / e1) * (p2 / e2) * sum * stat
		}
	}

	result := -sides[0] * total / (e0 * p0)
	if math.IsNaN(result) || math.IsInf(result, 0) {
		return 0, fmt.Errorf("%w: p0=%g", ErrNonFinite, p0)
	}
	return result, nil
}

// statisticalFactor is the gain minus loss product of occupancies with
// Pauli blocking (eta=+1) or Bose enhancement (eta=-1).
func statisticalFactor(legs *[4]LegSnapshot, f [4]float64) float64 {
	in, out := 1.0, 1.0
	inBlock, outBlock := 1.0, 1.0
	for i := range legs {
		block := 1 - float64(legs[i].Eta)*f[i]
		if legs[i].Side == Incoming {
			in *= f[i]
			inBlock *= block
		} else {
			out *= f[i]
			outBlock *= block
		}
	}
	return out*inBlock - in*outBlock
}

// trapezoid returns uniform nodes covering [lo, hi] with spacing as close to
// step as possible, together with the trapezoid weights.
func trapezoid(lo, hi, step float64) ([]float64, []float64) {
	if !(hi > lo) {
		return nil, nil
	}
	n := int(math.Round((hi - lo) / step))
	if n < 1 {
		n = 1
	}
	h := (hi - lo) / float64(n)

	nodes := make([]float64, n+1)
	weights := make([]float64, n+1)
	for i := range nodes {
		nodes[i] = lo + float64(i)*h
		weights[i] = h
	}
	nodes[n] = hi
	weights[0], weights[n] = h/2, h/2
	return nodes, weights
}
