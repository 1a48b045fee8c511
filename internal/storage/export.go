package storage

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
)

// ExportData is the JSON form of a run.
type ExportData struct {
	Run    RunMetadata            `json:"run"`
	Tables map[string]ExportTable `json:"tables"`
}

type ExportTable struct {
	Columns []string             `json:"columns"`
	Rows    int                  `json:"rows"`
	Data    map[string][]float64 `json:"data"`
}

func exportTable(rs *RecordStore) ExportTable {
	t := ExportTable{Columns: rs.Columns(), Rows: rs.Len(), Data: make(map[string][]float64, len(rs.Columns()))}
	for _, c := range rs.Columns() {
		t.Data[c] = rs.Column(c)
	}
	return t
}

// ExportJSON writes the run metadata with every given table.
func ExportJSON(w io.Writer, meta RunMetadata, tables map[string]*RecordStore) error {
	data := ExportData{Run: meta, Tables: make(map[string]ExportTable, len(tables))}
	for name, rs := range tables {
		data.Tables[name] = exportTable(rs)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// ExportCSV writes one table as comma-separated values with full float precision.
func ExportCSV(w io.Writer, rs *RecordStore) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(rs.Columns()); err != nil {
		return err
	}
	record := make([]string, len(rs.Columns()))
	for r := range rs.Len() {
		for c, name := range rs.Columns() {
			record[c] = strconv.FormatFloat(rs.Column(name)[r], 'g', -1, 64)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
