// Package grid provides comoving momentum grids used to discretize distribution functions.
package grid

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	// ErrTooFewSamples indicates a grid with fewer than two points.
	ErrTooFewSamples = errors.New("grid: at least two samples required")

	// ErrBounds indicates an empty or inverted momentum range.
	ErrBounds = errors.New("grid: invalid momentum bounds")
)

// Grid is an ordered set of momentum samples plus its bounds.
// Points are strictly increasing and never modified after construction.
type Grid struct {
	points []float64
	min    float64
	max    float64
	step   float64 // uniform spacing, zero for non-uniform grids
}

// Linear returns n equally spaced points on [min, max].
func Linear(min, max float64, n int) (*Grid, error) {
	if n < 2 {
		return nil, ErrTooFewSamples
	}
	if !(max > min) || min < 0 {
		return nil, fmt.Errorf("%w: [%g, %g]", ErrBounds, min, max)
	}

	step := (max - min) / float64(n-1)
	points := make([]float64, n)
	for i := range points {
		points[i] = min + float64(i)*step
	}
	points[n-1] = max

	return &Grid{points: points, min: min, max: max, step: step}, nil
}

// Log returns n points whose spacing grows geometrically from min to max.
// The first point is min exactly, so a zero lower bound is allowed.
func Log(min, max float64, n int) (*Grid, error) {
	if n < 2 {
		return nil, ErrTooFewSamples
	}
	if !(max > min) || min < 0 {
		return nil, fmt.Errorf("%w: [%g, %g]", ErrBounds, min, max)
	}

	// shift keeps log() finite when min == 0
	shift := 1.0
	lo, hi := math.Log(min+shift), math.Log(max+shift)
	points := make([]float64, n)
	for i := range points {
		points[i] = math.Exp(lo+float64(i)*(hi-lo)/float64(n-1)) - shift
	}
	points[0], points[n-1] = min, max

	return &Grid{points: points, min: min, max: max}, nil
}

// Points returns the sample points. Callers must not modify the slice.
func (g *Grid) Points() []float64 { return g.points }

func (g *Grid) Len() int { return len(g.points) }

// Bounds returns the lower and upper momentum of the grid.
func (g *Grid) Bounds() (float64, float64) { return g.min, g.max }

// Step returns the uniform spacing, or zero when the grid is not uniform.
func (g *Grid) Step() float64 { return g.step }

// MeanStep is the average spacing, equal to Step on uniform grids.
func (g *Grid) MeanStep() float64 { return (g.max - g.min) / float64(len(g.points)-1) }

// Interpolate evaluates values (sampled on the grid) at momentum p.
// Inside the grid it interpolates linearly; above the last point it continues
// the exponential tail of the last two samples, or returns 0 when they are not positive.
func (g *Grid) Interpolate(values []float64, p float64) float64 {
	if p <= g.min {
		return values[0]
	}
	if p >= g.max {
		return g.tail(values, p)
	}

	i := g.index(p)
	x0, x1 := g.points[i], g.points[i+1]
	t := (p - x0) / (x1 - x0)
	if t == 0 {
		return values[i]
	}
	return values[i]*(1-t) + values[i+1]*t
}

func (g *Grid) index(p float64) int {
	if g.step > 0 {
		i := int((p - g.min) / g.step)
		if i >= len(g.points)-1 {
			i = len(g.points) - 2
		}
		// guard against rounding at cell boundaries
		for i > 0 && g.points[i] > p {
			i--
		}
		for i < len(g.points)-2 && g.points[i+1] <= p {
			i++
		}
		return i
	}
	i := sort.SearchFloat64s(g.points, p)
	if i > 0 && (i == len(g.points) || g.points[i] > p) {
		i--
	}
	if i > len(g.points)-2 {
		i = len(g.points) - 2
	}
	return i
}

func (g *Grid) tail(values []float64, p float64) float64 {
	n := len(g.points)
	last, prev := values[n-1], values[n-2]
	if p == g.max {
		return last
	}
	if last <= 0 || prev <= 0 {
		return 0
	}
	slope := math.Log(last/prev) / (g.points[n-1] - g.points[n-2])
	return last * math.Exp(slope*(p-g.max))
}

// Integrate applies the trapezoid rule to values sampled on the grid.
func (g *Grid) Integrate(values []float64) float64 {
	sum := 0.0
	for i := 1; i < len(g.points); i++ {
		sum += 0.5 * (values[i] + values[i-1]) * (g.points[i] - g.points[i-1])
	}
	return sum
}
