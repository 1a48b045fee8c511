package metrics

import (
	"math"

	"github.com/san-kum/bbnsim/internal/cosmo"
)

// Stability is the fraction of observed steps whose state is finite and
// colder than the step before.
type Stability struct {
	name       string
	violations int
	samples    int
	lastT      float64
}

func NewStability() *Stability {
	return &Stability{name: "stability"}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(p *cosmo.Params, fraction float64) {
	s.samples++
	finite := true
	for _, v := range []float64{p.AT, p.T, p.X, p.H, fraction} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			finite = false
			break
		}
	}
	if !finite || (s.samples > 1 && p.T >= s.lastT) {
		s.violations++
	}
	s.lastT = p.T
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
	s.lastT = 0
}
