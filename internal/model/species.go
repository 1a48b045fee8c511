package model

import (
	"github.com/san-kum/bbnsim/internal/grid"
	"github.com/san-kum/bbnsim/internal/particle"
	"github.com/san-kum/bbnsim/internal/units"
)

func PhotonSpec(g *grid.Grid) particle.Spec {
	return particle.Spec{
		Name: "Photon", Symbol: "γ",
		Dof: 2, Statistics: particle.Boson,
		Grid: g,
	}
}

// ElectronSpec covers electrons and positrons together, hence four degrees of freedom.
func ElectronSpec(g *grid.Grid) particle.Spec {
	return particle.Spec{
		Name: "Electron", Symbol: "e",
		Mass: units.ElectronMass,
		Dof:  4, Statistics: particle.Fermion,
		Grid: g,
	}
}

// NeutrinoSpec covers one neutrino flavour and its antiparticle.
func NeutrinoSpec(flavour string, g *grid.Grid, decoupling float64) particle.Spec {
	return particle.Spec{
		Name: "Neutrino " + flavour, Symbol: "ν_" + flavour,
		Dof: 2, Statistics: particle.Fermion,
		DecouplingTemperature: decoupling,
		Grid:                  g,
		Flavour:               flavour,
	}
}
