package interaction

import (
	"fmt"
	"sort"
)

// MatrixElementSpec holds the fields needed to build a MatrixElement.
type MatrixElementSpec struct {
	K1    float64
	K2    float64
	Order [4]int
}

// MatrixElement is one term of a squared transition amplitude,
//
//	K1 (p_i·p_j)(p_k·p_l) + K2 m_i m_j (p_k·p_l)
//
// with (i, j, k, l) = Order.
type MatrixElement struct {
	K1    float64
	K2    float64
	order [4]int
}

// NewMatrixElement validates that spec.Order is a permutation of the four legs
// and normalizes it so each half is sorted.
func NewMatrixElement(spec MatrixElementSpec) (MatrixElement, error) {
	order, err := normalizeOrder(spec.Order)
	if err != nil {
		return MatrixElement{}, err
	}
	return MatrixElement{K1: spec.K1, K2: spec.K2, order: order}, nil
}

// MustMatrixElement is like NewMatrixElement but panics on an invalid order.
// It is meant for static model tables.
func MustMatrixElement(spec MatrixElementSpec) MatrixElement {
	me, err := NewMatrixElement(spec)
	if err != nil {
		panic(err)
	}
	return me
}

func normalizeOrder(order [4]int) ([4]int, error) {
	var seen [4]bool
	for _, i := range order {
		if i < 0 || i > 3 || seen[i] {
			return order, fmt.Errorf("%w: %v", ErrInvalidOrder, order)
		}
		seen[i] = true
	}
	first, second := []int{order[0], order[1]}, []int{order[2], order[3]}
	sort.Ints(first)
	sort.Ints(second)
	return [4]int{first[0], first[1], second[0], second[1]}, nil
}

// Order returns the normalized leg order.
func (m MatrixElement) Order() [4]int { return m.order }

// ApplyOrder replaces the leg order and flips the sign of K2 when exactly one of
// the two mass-term legs belongs to a crossed diagram.
func (m MatrixElement) ApplyOrder(order [4]int, reaction Reaction) (MatrixElement, error) {
	norm, err := normalizeOrder(order)
	if err != nil {
		return m, err
	}
	if reaction.Len() != 4 {
		return m, fmt.Errorf("%w: %d legs", ErrInvalidReaction, reaction.Len())
	}
	out := MatrixElement{K1: m.K1, K2: m.K2, order: norm}
	if reaction.Leg(norm[0]).Crossed != reaction.Leg(norm[1]).Crossed {
		out.K2 = -out.K2
	}
	return out, nil
}

// Add accumulates the coefficients of other into m. The order of m is kept.
func (m MatrixElement) Add(other MatrixElement) MatrixElement {
	m.K1 += other.K1
	m.K2 += other.K2
	return m
}

// Scale multiplies both coefficients by c.
func (m MatrixElement) Scale(c float64) MatrixElement {
	m.K1 *= c
	m.K2 *= c
	return m
}

// Divide divides both coefficients by c.
func (m MatrixElement) Divide(c float64) MatrixElement {
	m.K1 /= c
	m.K2 /= c
	return m
}

// Stackable reports whether m and other can be merged into one evaluation pass.
// Identical orders always stack. Orders whose halves are swapped stack only when
// neither element carries a mass term, since the K1 term is symmetric under the swap.
func (m MatrixElement) Stackable(other MatrixElement) bool {
	if m.order == other.order {
		return true
	}
	swapped := [4]int{other.order[2], other.order[3], other.order[0], other.order[1]}
	return m.order == swapped && m.K2 == 0 && other.K2 == 0
}

func (m MatrixElement) String() string {
	o := m.order
	return fmt.Sprintf("K1=%.3e K2=%.3e [%d%d|%d%d]", m.K1, m.K2, o[0], o[1], o[2], o[3])
}

// Stack merges stackable elements, keeping the order of first appearance.
func Stack(elements []MatrixElement) []MatrixElement {
	var out []MatrixElement
next:
	for _, e := range elements {
		for i := range out {
			if out[i].Stackable(e) {
				out[i] = out[i].Add(e)
				continue next
			}
		}
		out = append(out, e)
	}
	return out
}
