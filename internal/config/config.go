package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultTInitial    = 10.0 // MeV
	DefaultTFinal      = 0.01 // MeV
	DefaultDy          = 0.025
	DefaultExportFreq  = 100
	DefaultMaxLogRate  = 1.0
	DefaultPoolTimeout = 1000 * time.Second
	DefaultSamples     = 201
	DefaultMaxMomentum = 20.0 // MeV, conformal
)

type Config struct {
	Preset              string        `yaml:"preset"`
	TInitial            float64       `yaml:"t_initial"`
	TFinal              float64       `yaml:"t_final"`
	Dy                  float64       `yaml:"dy"`
	ExportFreq          int           `yaml:"export_freq"`
	Workers             int           `yaml:"workers"`
	LogarithmicTimestep bool          `yaml:"logarithmic_timestep"`
	Folder              string        `yaml:"folder"`
	MaxLogRate          float64       `yaml:"max_log_rate"`
	PoolTimeout         time.Duration `yaml:"pool_timeout"`
	Grid                GridConfig    `yaml:"grid"`
	Catalog             string        `yaml:"catalog"`
}

// GridConfig sizes the conformal momentum grid shared by non-equilibrium species.
type GridConfig struct {
	Samples     int     `yaml:"samples"`
	MaxMomentum float64 `yaml:"max_momentum"`
}

func DefaultConfig() *Config {
	return &Config{
		Preset:      "electron-positron",
		TInitial:    DefaultTInitial,
		TFinal:      DefaultTFinal,
		Dy:          DefaultDy,
		ExportFreq:  DefaultExportFreq,
		Folder:      "output",
		MaxLogRate:  DefaultMaxLogRate,
		PoolTimeout: DefaultPoolTimeout,
		Grid: GridConfig{
			Samples:     DefaultSamples,
			MaxMomentum: DefaultMaxMomentum,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ApplyEnv overrides fields from the environment. PARALLELIZE takes a worker
// count or a boolean (true uses every CPU).
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	if v, ok := lookup("PARALLELIZE"); ok {
		workers, err := parseWorkers(v)
		if err != nil {
			return fmt.Errorf("config: PARALLELIZE=%q: %w", v, err)
		}
		c.Workers = workers
	}
	if v, ok := lookup("LOGARITHMIC_TIMESTEP"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: LOGARITHMIC_TIMESTEP=%q: %w", v, err)
		}
		c.LogarithmicTimestep = b
	}
	if v, ok := lookup("BBNSIM_OUTPUT"); ok && v != "" {
		c.Folder = v
	}
	if v, ok := lookup("BBNSIM_LOG_RATE"); ok {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("config: BBNSIM_LOG_RATE=%q: %w", v, err)
		}
		c.MaxLogRate = rate
	}
	return nil
}

func parseWorkers(v string) (int, error) {
	if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
		return n, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return 0, err
	}
	if b {
		return runtime.NumCPU(), nil
	}
	return 0, nil
}

// Validate reports the first field outside its valid range.
func (c *Config) Validate() error {
	switch {
	case c.Preset == "":
		return fmt.Errorf("config: preset required")
	case !(c.TFinal > 0) || !(c.TInitial > c.TFinal):
		return fmt.Errorf("config: need t_initial > t_final > 0, got %g and %g", c.TInitial, c.TFinal)
	case !(c.Dy > 0):
		return fmt.Errorf("config: dy must be positive, got %g", c.Dy)
	case c.ExportFreq < 1:
		return fmt.Errorf("config: export_freq must be at least 1, got %d", c.ExportFreq)
	case c.Workers < 0:
		return fmt.Errorf("config: workers must not be negative, got %d", c.Workers)
	case !(c.MaxLogRate > 0):
		return fmt.Errorf("config: max_log_rate must be positive, got %g", c.MaxLogRate)
	case c.PoolTimeout <= 0:
		return fmt.Errorf("config: pool_timeout must be positive, got %s", c.PoolTimeout)
	case c.Grid.Samples < 2:
		return fmt.Errorf("config: grid.samples must be at least 2, got %d", c.Grid.Samples)
	case !(c.Grid.MaxMomentum > 0):
		return fmt.Errorf("config: grid.max_momentum must be positive, got %g", c.Grid.MaxMomentum)
	}
	return nil
}

// CatalogPath is the SQLite catalog location, inside Folder unless set.
func (c *Config) CatalogPath() string {
	if c.Catalog != "" {
		return c.Catalog
	}
	return filepath.Join(c.Folder, "catalog.db")
}
