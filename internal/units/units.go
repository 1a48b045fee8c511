// Package units defines the natural unit system used across the simulation.
//
// Energies are measured in MeV (MeV = 1); lengths and times are inverse energies.
package units

const (
	MeV = 1.0
	KeV = 1e-3 * MeV
	GeV = 1e3 * MeV

	// Second is one second expressed in MeV^-1.
	Second = 1.51926758e21 / MeV

	// K9 is 10^9 K expressed as an energy.
	K9 = 8.617330350e-2 * MeV

	// GramPerCm3 is a mass density of 1 g/cm^3 in MeV^4.
	GramPerCm3 = 4.31008e-6 * MeV * MeV * MeV * MeV

	// PlanckMass is the (non-reduced) Planck mass.
	PlanckMass = 1.22091e22 * MeV

	// FermiConstant is G_F in MeV^-2.
	FermiConstant = 1.1663787e-11 / (MeV * MeV)

	// WeakMixing is sin^2 of the Weinberg angle.
	WeakMixing = 0.2312

	ElectronMass = 0.51099895 * MeV

	// NeutronProtonMassDifference is m_n - m_p.
	NeutronProtonMassDifference = 1.29333236 * MeV

	NeutronLifetime = 879.4 * Second
)
