package storage

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"
)

func TestRecordStore_RoundTrip(t *testing.T) {
	rs := NewRecordStore(EvolutionColumns...)
	const n = 50
	for i := 0; i < n; i++ {
		x := float64(i + 1)
		if err := rs.AppendRow(1+1/x, 10/x, x/10, x, x*x*1.5e21, math.Pi/x, 3.0460000001*x, -math.E/x); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	var buf bytes.Buffer
	if err := rs.WriteText(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	if header, _, _ := strings.Cut(buf.String(), "\n"); header != strings.Join(EvolutionColumns, "\t") {
		t.Errorf("header = %q", header)
	}

	back, err := ReadText(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if back.Len() != n {
		t.Fatalf("read %d rows, want %d", back.Len(), n)
	}

	tol := math.Pow(10, -TextPrecision)
	for _, c := range EvolutionColumns {
		want, got := rs.Column(c), back.Column(c)
		for i := range want {
			if math.Abs(got[i]-want[i]) > tol*math.Abs(want[i]) {
				t.Errorf("%s[%d] = %.17g, want %.17g", c, i, got[i], want[i])
			}
		}
	}
}

func TestRecordStore_Append(t *testing.T) {
	rs := NewRecordStore("a", "b")

	if err := rs.Append(map[string]float64{"a": 1, "b": 2}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := rs.Append(map[string]float64{"a": 1}); !errors.Is(err, ErrRowLength) {
		t.Errorf("short row: expected ErrRowLength, got %v", err)
	}
	if err := rs.Append(map[string]float64{"a": 1, "c": 2}); !errors.Is(err, ErrUnknownColumn) {
		t.Errorf("unknown column: expected ErrUnknownColumn, got %v", err)
	}
	if err := rs.AppendRow(1, 2, 3); !errors.Is(err, ErrRowLength) {
		t.Errorf("wide row: expected ErrRowLength, got %v", err)
	}

	if rs.Len() != 1 {
		t.Errorf("len = %d, want 1 after rejected appends", rs.Len())
	}
	if row := rs.Row(0); row["a"] != 1 || row["b"] != 2 {
		t.Errorf("row = %v", row)
	}
	if rs.Column("missing") != nil {
		t.Error("missing column should be nil")
	}
}

func TestRecordStore_Last(t *testing.T) {
	rs := NewRecordStore("fraction")
	for i := 1; i <= 5; i++ {
		rs.AppendRow(float64(i))
	}

	tests := []struct {
		k    int
		want []float64
	}{
		{0, nil},
		{1, []float64{5}},
		{3, []float64{3, 4, 5}},
		{10, []float64{1, 2, 3, 4, 5}},
	}
	for _, tt := range tests {
		got := rs.Last("fraction", tt.k)
		if len(got) != len(tt.want) {
			t.Errorf("Last(%d) = %v, want %v", tt.k, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("Last(%d) = %v, want %v", tt.k, got, tt.want)
				break
			}
		}
	}
}

func TestRecordStore_Truncate(t *testing.T) {
	rs := NewRecordStore("a", "b")
	for i := 0; i < 4; i++ {
		rs.AppendRow(float64(i), float64(-i))
	}

	rs.Truncate(10)
	if rs.Len() != 4 {
		t.Errorf("len = %d after truncating past the end", rs.Len())
	}
	rs.Truncate(2)
	if rs.Len() != 2 || len(rs.Column("b")) != 2 {
		t.Errorf("len = %d, b = %v, want 2 rows", rs.Len(), rs.Column("b"))
	}
	if got := rs.Last("a", 1); got[0] != 1 {
		t.Errorf("last a = %v, want [1]", got)
	}

	var none *RecordStore
	none.Truncate(0)
	if none.Len() != 0 {
		t.Errorf("nil store len = %d", none.Len())
	}
}

func TestRecordStore_Empty(t *testing.T) {
	rs := NewRecordStore()
	if rs.Len() != 0 {
		t.Errorf("len = %d", rs.Len())
	}
	if got := NewRecordStore("a").Len(); got != 0 {
		t.Errorf("len = %d", got)
	}
}

func TestReadText_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"not a number", "a\tb\n1\tx\n"},
		{"short row", "a\tb\n1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadText(strings.NewReader(tt.input)); !errors.Is(err, ErrFormat) {
				t.Errorf("expected ErrFormat, got %v", err)
			}
		})
	}
}
