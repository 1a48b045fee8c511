package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/bbnsim/internal/config"
	"github.com/san-kum/bbnsim/internal/storage"
	"github.com/san-kum/bbnsim/internal/universe"
)

func outputConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if err := cfg.ApplyEnv(nil); err != nil {
		return nil, err
	}
	applyOutputFlags(cfg)
	return cfg, nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	cfg, err := outputConfig()
	if err != nil {
		return err
	}

	catalog, err := storage.OpenCatalog(cfg.CatalogPath())
	if err != nil {
		return err
	}
	defer catalog.Close()

	entries, err := catalog.List(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		// runs written without a catalog are still found on disk
		entries, err = scanRuns(cfg.Folder)
		if err != nil {
			return err
		}
	}
	if len(entries) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	rows := make([][]string, len(entries))
	for i, e := range entries {
		finished := "-"
		if !e.Finished.IsZero() {
			finished = e.Finished.Sub(e.Started).Round(time.Millisecond).String()
		}
		rows[i] = []string{
			e.ID,
			e.Preset,
			e.Status,
			fmt.Sprintf("%g -> %g", e.TInitial, e.TFinal),
			fmt.Sprint(e.Steps),
			e.Started.Format("2006-01-02 15:04:05"),
			finished,
		}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(dim).
		Headers("ID", "PRESET", "STATUS", "T [MeV]", "STEPS", "STARTED", "WALL").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			cell := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return cell.Inherit(title)
			}
			if col == 2 {
				return cell.Inherit(statusStyle(rows[row][2]))
			}
			return cell
		})
	fmt.Println(t)
	return nil
}

func scanRuns(dir string) ([]storage.CatalogEntry, error) {
	st := storage.New(dir)
	runs, err := st.List()
	if err != nil {
		return nil, err
	}
	entries := make([]storage.CatalogEntry, 0, len(runs))
	for _, md := range runs {
		entries = append(entries, storage.CatalogEntry{
			ID:       md.ID,
			Folder:   filepath.Join(dir, md.ID),
			Preset:   md.Preset,
			TInitial: md.TInitial,
			TFinal:   md.TFinal,
			Steps:    md.Steps,
			Status:   md.Status,
			Started:  md.Started,
			Finished: md.Finished,
		})
		if limit > 0 && len(entries) == limit {
			break
		}
	}
	return entries, nil
}

// runDir accepts a run folder or a run id, looked up in the catalog and
// then below the output folder.
func runDir(ctx context.Context, cfg *config.Config, arg string) string {
	if info, err := os.Stat(arg); err == nil && info.IsDir() {
		return arg
	}
	if catalog, err := storage.OpenCatalog(cfg.CatalogPath()); err == nil {
		defer catalog.Close()
		if e, err := catalog.Get(ctx, arg); err == nil {
			return e.Folder
		}
	}
	return filepath.Join(cfg.Folder, arg)
}

func showRun(cmd *cobra.Command, args []string) error {
	cfg, err := outputConfig()
	if err != nil {
		return err
	}
	dir := runDir(cmd.Context(), cfg, args[0])

	rs, err := storage.LoadTable(dir, tableName)
	if err != nil {
		return fmt.Errorf("load %s table: %w", tableName, err)
	}
	data := rs.Column(column)
	if data == nil {
		return fmt.Errorf("unknown column %q (available: %s)", column, strings.Join(rs.Columns(), ", "))
	}
	if len(data) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Println(title.Render(filepath.Base(dir)))
	fmt.Printf("rows: %d\n", len(data))
	fmt.Printf("%s: %.6g -> %.6g\n\n", column, data[0], data[len(data)-1])

	graph := asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(fmt.Sprintf("%s per step", column)),
	)
	fmt.Println(graph)
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	cfg, err := outputConfig()
	if err != nil {
		return err
	}
	dir := runDir(cmd.Context(), cfg, args[0])

	w := os.Stdout
	if outFile != "" {
		f, err := os.Create(outFile)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "csv":
		rs, err := storage.LoadTable(dir, tableName)
		if err != nil {
			return err
		}
		return storage.ExportCSV(w, rs)
	case "json":
		meta, err := storage.New(filepath.Dir(dir)).Load(filepath.Base(dir))
		if err != nil {
			return err
		}
		tables := make(map[string]*storage.RecordStore)
		for _, name := range []string{universe.EvolutionTable, universe.RatesTable} {
			rs, err := storage.LoadTable(dir, name)
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			if err != nil {
				return err
			}
			tables[name] = rs
		}
		return storage.ExportJSON(w, *meta, tables)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}
