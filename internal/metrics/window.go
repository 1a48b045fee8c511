package metrics

import (
	"math"

	"github.com/san-kum/bbnsim/internal/cosmo"
)

// Window keeps the last Size samples of a series and their extremes.
type Window struct {
	values      []float64
	next        int
	full        bool
	initialized bool
	min, max    float64
}

// NewWindow returns a window over the last size samples; size is at least one.
func NewWindow(size int) *Window {
	if size < 1 {
		size = 1
	}
	return &Window{values: make([]float64, size)}
}

// Push adds a sample, evicting the oldest one when the window is full.
func (w *Window) Push(v float64) {
	evicted := w.full && (w.values[w.next] == w.min || w.values[w.next] == w.max)

	w.values[w.next] = v
	w.next = (w.next + 1) % len(w.values)
	if w.next == 0 {
		w.full = true
	}

	switch {
	case !w.initialized:
		w.min, w.max = v, v
		w.initialized = true
	case evicted:
		w.rescan()
	default:
		w.min = math.Min(w.min, v)
		w.max = math.Max(w.max, v)
	}
}

func (w *Window) rescan() {
	samples := w.Samples()
	w.min, w.max = samples[0], samples[0]
	for _, v := range samples[1:] {
		w.min = math.Min(w.min, v)
		w.max = math.Max(w.max, v)
	}
}

// Len is the number of samples held.
func (w *Window) Len() int {
	if w.full {
		return len(w.values)
	}
	return w.next
}

// Samples returns the held samples, oldest first.
func (w *Window) Samples() []float64 {
	if !w.full {
		return append([]float64(nil), w.values[:w.next]...)
	}
	out := make([]float64, 0, len(w.values))
	out = append(out, w.values[w.next:]...)
	return append(out, w.values[:w.next]...)
}

// Min and Max report false before the first sample.
func (w *Window) Min() (float64, bool) { return w.min, w.initialized }
func (w *Window) Max() (float64, bool) { return w.max, w.initialized }

func (w *Window) Reset() {
	clear(w.values)
	w.next, w.full, w.initialized = 0, false, false
	w.min, w.max = 0, 0
}

// FractionSpread reports max - min of d(aT)/d(ln x) over a trailing window.
// A spread that does not settle points at a step size that is too large.
type FractionSpread struct {
	window *Window
}

func NewFractionSpread(size int) *FractionSpread {
	return &FractionSpread{window: NewWindow(size)}
}

func (f *FractionSpread) Name() string { return "fraction_spread" }

func (f *FractionSpread) Observe(_ *cosmo.Params, fraction float64) { f.window.Push(fraction) }

func (f *FractionSpread) Value() float64 {
	lo, ok := f.window.Min()
	if !ok {
		return 0
	}
	hi, _ := f.window.Max()
	return hi - lo
}

func (f *FractionSpread) Reset() { f.window.Reset() }
