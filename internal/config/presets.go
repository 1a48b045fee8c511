package config

import "sort"

// Presets holds run settings per model preset and variant.
var Presets = map[string]map[string]*Config{
	"radiation": {
		"quick": {
			Preset: "radiation", TInitial: 10, TFinal: 0.1, Dy: 0.05,
			Grid: GridConfig{Samples: 101, MaxMomentum: 20},
		},
	},
	"electron-positron": {
		"standard": {
			Preset: "electron-positron", TInitial: 10, TFinal: 0.01, Dy: 0.025,
			Grid: GridConfig{Samples: 201, MaxMomentum: 20},
		},
		"coarse": {
			Preset: "electron-positron", TInitial: 10, TFinal: 0.01, Dy: 0.1,
			Grid: GridConfig{Samples: 101, MaxMomentum: 20},
		},
	},
	"neutrino-scattering": {
		"standard": {
			Preset: "neutrino-scattering", TInitial: 3, TFinal: 0.5, Dy: 0.05,
			Grid: GridConfig{Samples: 41, MaxMomentum: 20},
		},
		"fine": {
			Preset: "neutrino-scattering", TInitial: 3, TFinal: 0.1, Dy: 0.025,
			Grid: GridConfig{Samples: 81, MaxMomentum: 20},
		},
	},
}

func GetPreset(model, preset string) *Config {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	cfg, ok := modelPresets[preset]
	if !ok {
		return nil
	}
	return cfg
}

// Resolve builds a full config from a preset variant; unset fields take the defaults.
func Resolve(model, preset string) *Config {
	cfg := DefaultConfig()
	cfg.Preset = model
	if !cfg.ApplyPreset(preset) {
		return nil
	}
	return cfg
}

// ApplyPreset overwrites the temperatures, step and grid with the named
// variant of c.Preset. It reports false when the variant does not exist.
func (c *Config) ApplyPreset(name string) bool {
	p := GetPreset(c.Preset, name)
	if p == nil {
		return false
	}
	c.TInitial, c.TFinal, c.Dy = p.TInitial, p.TFinal, p.Dy
	c.Grid = p.Grid
	return true
}

func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Models lists every model that has presets.
func Models() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
