package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/san-kum/bbnsim/internal/config"
	"github.com/san-kum/bbnsim/internal/cosmo"
	"github.com/san-kum/bbnsim/internal/grid"
	"github.com/san-kum/bbnsim/internal/interaction"
	"github.com/san-kum/bbnsim/internal/metrics"
	"github.com/san-kum/bbnsim/internal/model"
	"github.com/san-kum/bbnsim/internal/storage"
	"github.com/san-kum/bbnsim/internal/units"
	"github.com/san-kum/bbnsim/internal/universe"
)

// resolveConfig layers, lowest first: defaults, config file, preset,
// environment, explicitly set flags.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if len(args) == 1 {
		cfg.Preset = args[0]
	}

	if preset != "" && !cfg.ApplyPreset(preset) {
		return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(cfg.Preset))
	}

	if err := cfg.ApplyEnv(nil); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("t-initial") {
		cfg.TInitial = tInitial
	}
	if flags.Changed("t-final") {
		cfg.TFinal = tFinal
	}
	if flags.Changed("dy") {
		cfg.Dy = dy
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("export-freq") {
		cfg.ExportFreq = exportFreq
	}
	if flags.Changed("log-timestep") {
		cfg.LogarithmicTimestep = logTimestep
	}
	if flags.Changed("samples") {
		cfg.Grid.Samples = samples
	}
	if flags.Changed("max-momentum") {
		cfg.Grid.MaxMomentum = maxMomentum
	}
	applyOutputFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyOutputFlags(cfg *config.Config) {
	if folder != "" {
		cfg.Folder = folder
	}
	if catalogPath != "" {
		cfg.Catalog = catalogPath
	}
}

func runEvolution(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	log := slog.Default().With("preset", cfg.Preset)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewRecorder(reg)
	if metricsAddr != "" {
		srv := serveMetrics(metricsAddr, reg, log)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	g, err := grid.Linear(0, cfg.Grid.MaxMomentum*units.MeV, cfg.Grid.Samples)
	if err != nil {
		return err
	}
	m, err := model.Build(cfg.Preset, model.Options{
		Grid:     g,
		Settings: interaction.Settings{Logarithmic: cfg.LogarithmicTimestep},
	})
	if err != nil {
		return err
	}
	params, err := cosmo.NewParams(cosmo.Options{
		TInitial: cfg.TInitial * units.MeV,
		TFinal:   cfg.TFinal * units.MeV,
		Dy:       cfg.Dy,
	})
	if err != nil {
		return err
	}

	st := storage.New(cfg.Folder)
	if err := st.Init(); err != nil {
		return err
	}
	meta := storage.RunMetadata{
		Preset:      cfg.Preset,
		TInitial:    cfg.TInitial,
		TFinal:      cfg.TFinal,
		Dy:          cfg.Dy,
		Workers:     cfg.Workers,
		Logarithmic: cfg.LogarithmicTimestep,
	}
	for _, p := range m.Particles {
		meta.Particles = append(meta.Particles, p.Name())
	}
	for _, in := range m.Interactions {
		meta.Interactions = append(meta.Interactions, in.String())
	}
	run, err := st.Create(meta)
	if err != nil {
		return err
	}
	if err := config.Save(filepath.Join(run.Dir(), "config.yaml"), cfg); err != nil {
		return err
	}

	catalog, err := storage.OpenCatalog(cfg.CatalogPath())
	if err != nil {
		return err
	}
	defer catalog.Close()
	record := func() {
		if err := catalog.Record(context.WithoutCancel(ctx), catalogEntry(run)); err != nil {
			log.Warn("catalog update failed", "err", err)
		}
	}
	record()

	opts := universe.Options{
		Workers:     cfg.Workers,
		ExportFreq:  cfg.ExportFreq,
		PoolTimeout: cfg.PoolTimeout,
		Logger:      log,
		MaxLogRate:  cfg.MaxLogRate,
		Sink:        run,
		Metrics:     recorder,
		Monitors: []metrics.Metric{
			metrics.NewStability(),
			metrics.NewHeating(),
			metrics.NewFractionSpread(50),
		},
	}
	if m.Rates != nil {
		opts.Rates = m.Rates
	}
	u, err := universe.New(params, opts)
	if err != nil {
		return err
	}
	defer u.Close()
	for _, p := range m.Particles {
		u.AddParticles(p)
	}
	for _, in := range m.Interactions {
		u.AddInteractions(in)
	}

	log.Info("evolution started", "run", run.ID(), "folder", run.Dir(), "workers", cfg.Workers)
	start := time.Now()
	_, evolveErr := u.Evolve(ctx)
	elapsed := time.Since(start)

	status := storage.StatusCompleted
	switch {
	case evolveErr != nil:
		status = storage.StatusFailed
	case u.Interrupted():
		status = storage.StatusInterrupted
	}
	if err := run.Update(func(md *storage.RunMetadata) {
		md.Finished = time.Now()
		md.Status = status
		md.Steps = u.Step()
		md.Summary = u.Summary()
	}); err != nil {
		log.Error("metadata update failed", "err", err)
	}
	record()

	printSummary(run, u.Params, elapsed)
	return evolveErr
}

func catalogEntry(run *storage.Run) storage.CatalogEntry {
	md := run.Metadata()
	return storage.CatalogEntry{
		ID:       md.ID,
		Folder:   run.Dir(),
		Preset:   md.Preset,
		TInitial: md.TInitial,
		TFinal:   md.TFinal,
		Steps:    md.Steps,
		Status:   md.Status,
		Started:  md.Started,
		Finished: md.Finished,
	}
}

func serveMetrics(addr string, reg *prometheus.Registry, log *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server stopped", "addr", addr, "err", err)
		}
	}()
	log.Info("serving metrics", "addr", addr)
	return srv
}

func printSummary(run *storage.Run, params *cosmo.Params, elapsed time.Duration) {
	md := run.Metadata()
	fmt.Println(title.Render("run " + md.ID))
	fmt.Printf("  status:  %s\n", statusStyle(md.Status).Render(md.Status))
	fmt.Printf("  steps:   %d in %v\n", md.Steps, elapsed.Round(time.Millisecond))
	fmt.Printf("  T:       %.6g MeV\n", params.T/units.MeV)
	fmt.Printf("  aT:      %.6g MeV\n", params.AT/units.MeV)
	fmt.Printf("  N_eff:   %.4f\n", params.NEff)
	fmt.Printf("  folder:  %s\n", dim.Render(run.Dir()))
	if len(md.Summary) > 0 {
		fmt.Println(magenta.Render("  metrics:"))
		for name, v := range md.Summary {
			fmt.Printf("    %s: %.6f\n", name, v)
		}
	}
}

func statusStyle(status string) lipgloss.Style {
	switch status {
	case storage.StatusCompleted:
		return green
	case storage.StatusInterrupted, storage.StatusRunning:
		return yellow
	default:
		return red
	}
}
