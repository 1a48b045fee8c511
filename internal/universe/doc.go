// Package universe drives the evolution of the cosmological state.
//
// A [Universe] owns the shared [cosmo.Params], the species and their
// interactions. Each call to [Universe.MakeStep] runs the step pipeline:
//
//   - update every species (regime switching, equilibrium resampling)
//   - let every interaction attach its active collision integrals
//   - evaluate one aggregate collision integral per species, serially or on a worker pool
//   - mix the integrals of oscillating species, then update every distribution
//   - aggregate the temperature equation into fraction = x·ΣN/ΣD
//
// and then advances aT with a variable-order Adams–Bashforth corrector and x by dx.
//
// # Example
//
//	u, _ := universe.New(params, universe.Options{Workers: 4})
//	defer u.Close()
//	u.AddParticles(photon, electron)
//	records, err := u.Evolve(ctx)
//
// # Cancellation
//
// Evolve checks its context only between steps. Work of the current step runs
// to completion, so every exported row belongs to a fully completed step.
package universe
