package interaction

import "errors"

var (
	// ErrInvalidOrder indicates a matrix element order that is not a permutation of the legs.
	ErrInvalidOrder = errors.New("interaction: invalid matrix element order")

	// ErrInvalidReaction indicates a malformed reaction.
	ErrInvalidReaction = errors.New("interaction: invalid reaction")

	// ErrNonFinite indicates the quadrature produced NaN or Inf.
	ErrNonFinite = errors.New("interaction: non-finite collision integral")

	// ErrNotInitialized indicates an integral evaluated before the cosmological state was set up.
	ErrNotInitialized = errors.New("interaction: cosmological state not initialized")

	// ErrStepSize indicates a non-positive quadrature step.
	ErrStepSize = errors.New("interaction: quadrature step must be positive")
)
