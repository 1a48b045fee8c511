package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/san-kum/bbnsim/internal/config"
	"github.com/san-kum/bbnsim/internal/model"
)

var (
	configFile  string
	preset      string
	folder      string
	catalogPath string
	logLevel    string
	metricsAddr string

	tInitial    float64
	tFinal      float64
	dy          float64
	workers     int
	exportFreq  int
	logTimestep bool
	samples     int
	maxMomentum float64

	limit     int
	format    string
	outFile   string
	column    string
	tableName string
	height    int
	width     int
)

var (
	title   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	green   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	red     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "bbnsim",
		Short:        "early-universe Boltzmann evolution",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(logLevel)
		},
	}
	rootCmd.PersistentFlags().StringVar(&folder, "folder", "", "output folder (default from config)")
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "run catalog database (default <folder>/catalog.db)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")

	runCmd := &cobra.Command{
		Use:   "run [model]",
		Short: "evolve a model from t-initial down to t-final",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runEvolution,
	}
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	runCmd.Flags().Float64Var(&tInitial, "t-initial", config.DefaultTInitial, "initial temperature [MeV]")
	runCmd.Flags().Float64Var(&tFinal, "t-final", config.DefaultTFinal, "final temperature [MeV]")
	runCmd.Flags().Float64Var(&dy, "dy", config.DefaultDy, "step in ln(x)")
	runCmd.Flags().IntVar(&workers, "workers", 0, "worker pool size, 0 runs serially")
	runCmd.Flags().IntVar(&exportFreq, "export-freq", config.DefaultExportFreq, "steps between table flushes")
	runCmd.Flags().BoolVar(&logTimestep, "log-timestep", false, "integrate distributions in ln(x)")
	runCmd.Flags().IntVar(&samples, "samples", config.DefaultSamples, "momentum grid samples")
	runCmd.Flags().Float64Var(&maxMomentum, "max-momentum", config.DefaultMaxMomentum, "momentum grid upper bound [MeV]")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address, e.g. :9090")

	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "list catalogued runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}
	runsCmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs, 0 for all")

	showCmd := &cobra.Command{
		Use:   "show [run folder or id]",
		Short: "plot a column of a run table",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}
	showCmd.Flags().StringVar(&column, "column", "aT", "column to plot")
	showCmd.Flags().StringVar(&tableName, "table", "evolution", "table to read: evolution or rates")
	showCmd.Flags().IntVar(&height, "height", 12, "plot height")
	showCmd.Flags().IntVar(&width, "width", 80, "plot width")

	exportCmd := &cobra.Command{
		Use:   "export [run folder or id]",
		Short: "export run tables to JSON or CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&format, "format", "json", "output format: json or csv")
	exportCmd.Flags().StringVar(&tableName, "table", "evolution", "table to export as CSV")
	exportCmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets [model]",
		Short: "list models and their presets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	rootCmd.AddCommand(runCmd, runsCmd, showCmd, exportCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogging(level string) error {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q", level)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})))
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	models := model.Names()
	if len(args) == 1 {
		if model.Describe(args[0]) == "" {
			return fmt.Errorf("unknown model: %s (available: %s)", args[0], strings.Join(models, ", "))
		}
		models = args
	}

	for _, name := range models {
		fmt.Printf("%s %s\n", title.Render(name), dim.Render(model.Describe(name)))
		presets := config.ListPresets(name)
		if len(presets) == 0 {
			fmt.Println(dim.Render("  no presets"))
			continue
		}
		for _, p := range presets {
			cfg := config.GetPreset(name, p)
			fmt.Printf("  %-10s T %g -> %g MeV, dy %g, %d samples\n",
				p, cfg.TInitial, cfg.TFinal, cfg.Dy, cfg.Grid.Samples)
		}
	}
	return nil
}
