// Package metrics observes a running simulation: step diagnostics that end up
// in the run summary, and Prometheus instrumentation.
package metrics

import "github.com/san-kum/bbnsim/internal/cosmo"

// Metric accumulates one diagnostic over the steps of a run.
type Metric interface {
	Name() string
	Observe(p *cosmo.Params, fraction float64)
	Value() float64
	Reset()
}

// Summary collects the value of every metric by name.
func Summary(ms ...Metric) map[string]float64 {
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		out[m.Name()] = m.Value()
	}
	return out
}
