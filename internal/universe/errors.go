package universe

import (
	"errors"
	"fmt"
)

var (
	// ErrNoHeatCapacity indicates that no species contributes to the
	// denominator of the temperature equation.
	ErrNoHeatCapacity = errors.New("universe: temperature equation has zero denominator")

	// ErrNoParticles indicates an evolution without species.
	ErrNoParticles = errors.New("universe: no particles")

	// ErrNonFinite indicates that the state diverged.
	ErrNonFinite = errors.New("universe: non-finite state")

	// ErrOscillations indicates an invalid mixing pattern.
	ErrOscillations = errors.New("universe: invalid oscillation pattern")
)

// StepError wraps a failure with the state of the step it happened in.
type StepError struct {
	Step    int
	X       float64
	T       float64
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (x=%.6e, T=%.6e MeV): %v", e.Step, e.X, e.T, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
