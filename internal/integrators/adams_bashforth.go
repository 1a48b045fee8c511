package integrators

import (
	"errors"
	"fmt"
)

// MaxOrder is the highest supported Adams–Bashforth order.
const MaxOrder = 5

var (
	// ErrOrder indicates an order outside [1, MaxOrder].
	ErrOrder = errors.New("integrators: unsupported multistep order")

	// ErrHistory indicates the number of samples does not match the order.
	ErrHistory = errors.New("integrators: derivative history does not match order")
)

// Adams–Bashforth weights, oldest sample first.
var abWeights = [MaxOrder + 1][]float64{
	1: {1},
	2: {-1.0 / 2, 3.0 / 2},
	3: {5.0 / 12, -16.0 / 12, 23.0 / 12},
	4: {-9.0 / 24, 37.0 / 24, -59.0 / 24, 55.0 / 24},
	5: {251.0 / 720, -1274.0 / 720, 2616.0 / 720, -2774.0 / 720, 1901.0 / 720},
}

// Order returns the corrector order for a zero-based step index: the order ramps up
// by one per step until MaxOrder, as derivative history accumulates.
func Order(step int) int {
	if step < 0 {
		return 1
	}
	return min(step+1, MaxOrder)
}

// Correction returns the Adams–Bashforth increment h * sum(w_i * f_i).
// fs holds exactly `order` derivative samples, the current one last.
func Correction(fs []float64, h float64, order int) (float64, error) {
	if order < 1 || order > MaxOrder {
		return 0, fmt.Errorf("%w: %d", ErrOrder, order)
	}
	if len(fs) != order {
		return 0, fmt.Errorf("%w: order %d, %d samples", ErrHistory, order, len(fs))
	}

	sum := 0.0
	for i, w := range abWeights[order] {
		sum += w * fs[i]
	}
	return h * sum, nil
}

// AdamsBashforth advances a scalar state with a variable-order multistep method.
type AdamsBashforth struct {
	maxOrder int
	fs       []float64
}

// NewAdamsBashforth returns a corrector capped at maxOrder (MaxOrder when out of range).
func NewAdamsBashforth(maxOrder int) *AdamsBashforth {
	if maxOrder < 1 || maxOrder > MaxOrder {
		maxOrder = MaxOrder
	}
	return &AdamsBashforth{maxOrder: maxOrder, fs: make([]float64, 0, maxOrder)}
}

// Order returns the order used at the given zero-based step index.
func (ab *AdamsBashforth) Order(step int) int {
	return min(Order(step), ab.maxOrder)
}

// Step returns the increment for step index `step`. history holds past derivative
// samples (oldest first); only the most recent order-1 of them are used.
func (ab *AdamsBashforth) Step(history []float64, current, h float64, step int) (float64, error) {
	order := ab.Order(step)
	need := order - 1
	if len(history) < need {
		return 0, fmt.Errorf("%w: order %d needs %d past samples, have %d", ErrHistory, order, need, len(history))
	}

	ab.fs = ab.fs[:0]
	ab.fs = append(ab.fs, history[len(history)-need:]...)
	ab.fs = append(ab.fs, current)
	return Correction(ab.fs, h, order)
}
