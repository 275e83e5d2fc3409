package trueskill

import "errors"

var (
	// ErrInvalidParameter reports a negative or non-finite sigma, beta or tau,
	// or a malformed set of rating groups.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrMismatchedLength reports rating groups and ranks of different lengths.
	ErrMismatchedLength = errors.New("mismatched length")

	// ErrDegenerateProbability reports a win probability that saturated to
	// exactly 0 or 1, which leaves a score ratio undefined.
	ErrDegenerateProbability = errors.New("degenerate probability")
)
