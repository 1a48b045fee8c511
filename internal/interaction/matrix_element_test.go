package interaction

import (
	"errors"
	"testing"

	. "github.com/onsi/gomega"
)

func TestNewMatrixElement_InvalidOrder(t *testing.T) {
	tests := []struct {
		name  string
		order [4]int
	}{
		{"repeated leg", [4]int{0, 0, 1, 2}},
		{"out of range", [4]int{0, 1, 2, 4}},
		{"negative", [4]int{-1, 1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMatrixElement(MatrixElementSpec{K1: 1, Order: tt.order})
			if !errors.Is(err, ErrInvalidOrder) {
				t.Errorf("expected ErrInvalidOrder, got %v", err)
			}
		})
	}
}

func TestNewMatrixElement_Normalizes(t *testing.T) {
	me, err := NewMatrixElement(MatrixElementSpec{K1: 2, K2: 3, Order: [4]int{3, 1, 2, 0}})
	if err != nil {
		t.Fatalf("new matrix element: %v", err)
	}
	if got, want := me.Order(), [4]int{1, 3, 0, 2}; got != want {
		t.Errorf("order = %v, want %v", got, want)
	}
	if me.K1 != 2 || me.K2 != 3 {
		t.Errorf("coefficients changed: %v", me)
	}
}

func TestMustMatrixElement_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for invalid order")
		}
	}()
	MustMatrixElement(MatrixElementSpec{Order: [4]int{1, 1, 1, 1}})
}

func TestApplyOrder_CrossedSign(t *testing.T) {
	tests := []struct {
		name     string
		crossed  [2]bool
		wantFlip bool
	}{
		{"single crossing", [2]bool{true, false}, true},
		{"double crossing", [2]bool{true, true}, false},
		{"no crossing", [2]bool{false, false}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestSpecie("a", 0)
			r, err := NewReaction(
				Leg{Specie: a, Side: Incoming, Crossed: tt.crossed[0]},
				Leg{Specie: a, Side: Incoming, Crossed: tt.crossed[1]},
				Leg{Specie: a, Side: Outgoing},
				Leg{Specie: a, Side: Outgoing},
			)
			if err != nil {
				t.Fatalf("reaction: %v", err)
			}

			me := MustMatrixElement(MatrixElementSpec{K1: 1, K2: 5, Order: [4]int{2, 3, 0, 1}})
			got, err := me.ApplyOrder([4]int{1, 0, 3, 2}, r)
			if err != nil {
				t.Fatalf("apply order: %v", err)
			}

			want := 5.0
			if tt.wantFlip {
				want = -5
			}
			if got.K2 != want {
				t.Errorf("K2 = %g, want %g", got.K2, want)
			}
			if got.K1 != 1 {
				t.Errorf("K1 = %g, want 1", got.K1)
			}
			if got.Order() != [4]int{0, 1, 2, 3} {
				t.Errorf("order = %v", got.Order())
			}
		})
	}
}

func TestStackable(t *testing.T) {
	order := [4]int{0, 1, 2, 3}
	swapped := [4]int{2, 3, 0, 1}

	tests := []struct {
		name string
		a, b MatrixElementSpec
		want bool
	}{
		{"same order", MatrixElementSpec{K1: 1, K2: 2, Order: order}, MatrixElementSpec{K1: 3, K2: 4, Order: order}, true},
		{"swapped halves no mass term", MatrixElementSpec{K1: 1, Order: order}, MatrixElementSpec{K1: 2, Order: swapped}, true},
		{"swapped halves with mass term", MatrixElementSpec{K1: 1, Order: order}, MatrixElementSpec{K1: 2, K2: 1, Order: swapped}, false},
		{"swapped halves mass term on first", MatrixElementSpec{K1: 1, K2: 1, Order: order}, MatrixElementSpec{K1: 2, Order: swapped}, false},
		{"different order", MatrixElementSpec{K1: 1, Order: order}, MatrixElementSpec{K1: 1, Order: [4]int{0, 2, 1, 3}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := MustMatrixElement(tt.a), MustMatrixElement(tt.b)
			if got := a.Stackable(b); got != tt.want {
				t.Errorf("Stackable = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestArithmetic(t *testing.T) {
	g := NewWithT(t)

	a := MustMatrixElement(MatrixElementSpec{K1: 1, K2: 2, Order: [4]int{0, 1, 2, 3}})
	b := MustMatrixElement(MatrixElementSpec{K1: 3, K2: -1, Order: [4]int{0, 1, 2, 3}})

	sum := a.Add(b)
	g.Expect(sum.K1).To(Equal(4.0))
	g.Expect(sum.K2).To(Equal(1.0))
	g.Expect(sum.Order()).To(Equal(a.Order()))

	g.Expect(a.Scale(3).K2).To(Equal(6.0))
	g.Expect(a.Divide(4).K1).To(Equal(0.25))
	g.Expect(a.K1).To(Equal(1.0), "value receiver must not mutate")
	g.Expect(a.String()).To(ContainSubstring("[01|23]"))
}

func TestStack(t *testing.T) {
	g := NewWithT(t)

	elements := []MatrixElement{
		MustMatrixElement(MatrixElementSpec{K1: 1, Order: [4]int{0, 1, 2, 3}}),
		MustMatrixElement(MatrixElementSpec{K1: 2, Order: [4]int{0, 3, 1, 2}}),
		MustMatrixElement(MatrixElementSpec{K1: 4, Order: [4]int{2, 3, 0, 1}}),
		MustMatrixElement(MatrixElementSpec{K2: 1, Order: [4]int{1, 2, 0, 3}}),
	}

	stacked := Stack(elements)
	g.Expect(stacked).To(HaveLen(3))
	g.Expect(stacked[0].K1).To(Equal(5.0))
	g.Expect(stacked[1].K1).To(Equal(2.0))
	g.Expect(stacked[2].K2).To(Equal(1.0))
}
