package metrics

import (
	"math"

	"github.com/san-kum/bbnsim/internal/cosmo"
)

// Heating tracks aT relative to its first observed value. Entropy released by
// annihilations into the plasma shows up as a ratio above one.
type Heating struct {
	name     string
	initial  float64
	current  float64
	maxDrift float64
	samples  int
}

func NewHeating() *Heating {
	return &Heating{name: "heating"}
}

func (h *Heating) Name() string { return h.name }

func (h *Heating) Observe(p *cosmo.Params, _ float64) {
	if h.samples == 0 {
		h.initial = p.AT
	}
	h.current = p.AT
	h.samples++

	if h.initial != 0 {
		h.maxDrift = math.Max(h.maxDrift, math.Abs(h.current/h.initial-1))
	}
}

// Value is the current aT divided by the first one.
func (h *Heating) Value() float64 {
	if h.samples == 0 || h.initial == 0 {
		return 1
	}
	return h.current / h.initial
}

// MaxDrift is the largest |aT/aT_0 - 1| seen so far.
func (h *Heating) MaxDrift() float64 { return h.maxDrift }

func (h *Heating) Reset() {
	h.initial = 0
	h.current = 0
	h.maxDrift = 0
	h.samples = 0
}
