package model

import (
	"github.com/san-kum/bbnsim/internal/interaction"
	"github.com/san-kum/bbnsim/internal/particle"
	"github.com/san-kum/bbnsim/internal/units"
)

func Radiation(opts Options) (*Model, error) {
	photon, err := particle.New(PhotonSpec(opts.Grid), opts.Settings)
	if err != nil {
		return nil, err
	}
	return &Model{Particles: []*particle.Particle{photon}}, nil
}

func ElectronPositron(opts Options) (*Model, error) {
	m, err := Radiation(opts)
	if err != nil {
		return nil, err
	}
	electron, err := particle.New(ElectronSpec(opts.Grid), opts.Settings)
	if err != nil {
		return nil, err
	}
	m.Particles = append(m.Particles, electron)
	m.Rates = &WeakRates{}
	return m, nil
}

// NeutrinoScattering adds electron neutrinos that scatter off the e± plasma
// through the neutral and charged weak currents.
func NeutrinoScattering(opts Options) (*Model, error) {
	m, err := ElectronPositron(opts)
	if err != nil {
		return nil, err
	}
	neutrino, err := particle.New(NeutrinoSpec("e", opts.Grid, opts.NeutrinoDecoupling), opts.Settings)
	if err != nil {
		return nil, err
	}
	electron := m.Particle("Electron")

	reaction, err := interaction.NewReaction(
		interaction.Leg{Specie: neutrino, Side: interaction.Incoming},
		interaction.Leg{Specie: electron, Side: interaction.Incoming},
		interaction.Leg{Specie: neutrino, Side: interaction.Outgoing},
		interaction.Leg{Specie: electron, Side: interaction.Outgoing},
	)
	if err != nil {
		return nil, err
	}

	elements, err := ElectronNeutrinoScattering(units.WeakMixing)
	if err != nil {
		return nil, err
	}
	ci, err := interaction.NewFourParticleIntegral(reaction, elements, interaction.FourParticleOptions{
		Settings: opts.Settings,
	})
	if err != nil {
		return nil, err
	}

	m.Particles = append(m.Particles, neutrino)
	m.Rates.Neutrino = neutrino
	m.Interactions = append(m.Interactions, interaction.New("ν_e e scattering", ci))
	return m, nil
}

// ElectronNeutrinoScattering is |M|² of ν_e e -> ν_e e with legs ordered
// (ν, e, ν, e); sin2w is sin²θ_W.
func ElectronNeutrinoScattering(sin2w float64) ([]interaction.MatrixElement, error) {
	gL, gR := 0.5+sin2w, sin2w
	g := 128 * units.FermiConstant * units.FermiConstant

	specs := []interaction.MatrixElementSpec{
		{K1: g * gL * gL, Order: [4]int{0, 1, 2, 3}},
		{K1: g * gR * gR, Order: [4]int{0, 3, 1, 2}},
		{K2: -g * gL * gR, Order: [4]int{1, 3, 0, 2}},
	}
	elements := make([]interaction.MatrixElement, 0, len(specs))
	for _, s := range specs {
		me, err := interaction.NewMatrixElement(s)
		if err != nil {
			return nil, err
		}
		elements = append(elements, me)
	}
	return elements, nil
}
