// Package storage keeps simulation output: the in-memory RecordStore tables,
// the on-disk run folders and the SQLite run catalog.
package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// TextPrecision is the number of decimals written per value by WriteText.
const TextPrecision = 12

var (
	// ErrUnknownColumn indicates a column name outside the table schema.
	ErrUnknownColumn = errors.New("storage: unknown column")

	// ErrRowLength indicates a row whose width does not match the schema.
	ErrRowLength = errors.New("storage: row length does not match schema")

	// ErrFormat indicates malformed text input.
	ErrFormat = errors.New("storage: malformed table")
)

// EvolutionColumns is the schema of the per-step evolution table.
var EvolutionColumns = []string{"aT", "T", "a", "x", "t", "rho", "N_eff", "fraction"}

// RecordStore is an append-only table of named float columns.
// It is not safe for concurrent writers.
type RecordStore struct {
	columns []string
	index   map[string]int
	data    [][]float64
}

// NewRecordStore returns an empty table with the given columns.
func NewRecordStore(columns ...string) *RecordStore {
	rs := &RecordStore{
		columns: append([]string(nil), columns...),
		index:   make(map[string]int, len(columns)),
		data:    make([][]float64, len(columns)),
	}
	for i, c := range columns {
		rs.index[c] = i
	}
	return rs
}

// Columns returns the schema. Callers must not modify the slice.
func (rs *RecordStore) Columns() []string { return rs.columns }

// Len is the number of rows.
func (rs *RecordStore) Len() int {
	if rs == nil || len(rs.data) == 0 {
		return 0
	}
	return len(rs.data[0])
}

// Append adds a row given by column name. Every column must be present.
func (rs *RecordStore) Append(row map[string]float64) error {
	if len(row) != len(rs.columns) {
		return fmt.Errorf("%w: %d values for %d columns", ErrRowLength, len(row), len(rs.columns))
	}
	values := make([]float64, len(rs.columns))
	for name, v := range row {
		i, ok := rs.index[name]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownColumn, name)
		}
		values[i] = v
	}
	return rs.AppendRow(values...)
}

// AppendRow adds a row in schema order.
func (rs *RecordStore) AppendRow(values ...float64) error {
	if len(values) != len(rs.columns) {
		return fmt.Errorf("%w: %d values for %d columns", ErrRowLength, len(values), len(rs.columns))
	}
	for i, v := range values {
		rs.data[i] = append(rs.data[i], v)
	}
	return nil
}

// Truncate drops every row from index n on. A nil store is left alone.
func (rs *RecordStore) Truncate(n int) {
	if rs == nil || n < 0 || n >= rs.Len() {
		return
	}
	for i := range rs.data {
		rs.data[i] = rs.data[i][:n]
	}
}

// Column returns every value of the named column, or nil when it does not exist.
// Callers must not modify the slice.
func (rs *RecordStore) Column(name string) []float64 {
	i, ok := rs.index[name]
	if !ok {
		return nil
	}
	return rs.data[i]
}

// Last returns up to k of the most recent values of a column, oldest first.
func (rs *RecordStore) Last(name string, k int) []float64 {
	col := rs.Column(name)
	if k <= 0 || col == nil {
		return nil
	}
	if k > len(col) {
		k = len(col)
	}
	return col[len(col)-k:]
}

// Row returns the i-th row keyed by column.
func (rs *RecordStore) Row(i int) map[string]float64 {
	row := make(map[string]float64, len(rs.columns))
	for c, name := range rs.columns {
		row[name] = rs.data[c][i]
	}
	return row
}

// WriteText writes a tab-separated header followed by one line per row.
func (rs *RecordStore) WriteText(w io.Writer) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'

	if err := cw.Write(rs.columns); err != nil {
		return err
	}
	record := make([]string, len(rs.columns))
	for r := range rs.Len() {
		for c := range rs.columns {
			record[c] = strconv.FormatFloat(rs.data[c][r], 'e', TextPrecision, 64)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadText parses the output of WriteText.
func ReadText(r io.Reader) (*RecordStore, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: missing header", ErrFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}

	rs := NewRecordStore(header...)
	values := make([]float64, len(header))
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			return rs, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrFormat, line, err)
		}
		for i, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d column %s: %v", ErrFormat, line, header[i], err)
			}
			values[i] = v
		}
		if err := rs.AppendRow(values...); err != nil {
			return nil, err
		}
	}
}
