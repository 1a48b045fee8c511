// Package model assembles the species and interactions of the bundled presets.
package model

import (
	"errors"
	"fmt"
	"sort"

	"github.com/san-kum/bbnsim/internal/grid"
	"github.com/san-kum/bbnsim/internal/interaction"
	"github.com/san-kum/bbnsim/internal/particle"
	"github.com/san-kum/bbnsim/internal/units"
)

// ErrUnknownModel indicates a preset name with no builder.
var ErrUnknownModel = errors.New("model: unknown model")

// NeutrinoDecoupling is the default temperature below which neutrinos are
// tracked out of equilibrium.
const NeutrinoDecoupling = 5 * units.MeV

type Options struct {
	Grid     *grid.Grid // shared momentum grid, required
	Settings interaction.Settings

	// NeutrinoDecoupling overrides the package default when positive.
	NeutrinoDecoupling float64
}

// Model is a ready-to-evolve set of species and interactions.
type Model struct {
	Name         string
	Particles    []*particle.Particle
	Interactions []*interaction.Interaction
	// Rates feeds the nucleosynthesis-rate table, nil when the model has no electrons.
	Rates *WeakRates
}

// Particle returns the species with the given name, nil if absent.
func (m *Model) Particle(name string) *particle.Particle {
	for _, p := range m.Particles {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

type builder func(Options) (*Model, error)

var builders = map[string]struct {
	build       builder
	description string
}{
	"radiation":           {Radiation, "photon gas; aT stays constant"},
	"electron-positron":   {ElectronPositron, "photons and e± annihilation heating the plasma"},
	"neutrino-scattering": {NeutrinoScattering, "decoupled electron neutrinos scattering on the e± plasma"},
}

// Build returns the named model.
func Build(name string, opts Options) (*Model, error) {
	b, ok := builders[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, name)
	}
	if opts.Grid == nil {
		return nil, fmt.Errorf("model %s: grid required", name)
	}
	if opts.NeutrinoDecoupling <= 0 {
		opts.NeutrinoDecoupling = NeutrinoDecoupling
	}
	m, err := b.build(opts)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", name, err)
	}
	m.Name = name
	return m, nil
}

// Names lists the available models, sorted.
func Names() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Describe returns a one-line summary of a model, empty when unknown.
func Describe(name string) string { return builders[name].description }
