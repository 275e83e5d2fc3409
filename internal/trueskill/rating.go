package trueskill

import (
	"fmt"
	"math"
)

// Rating is a Gaussian belief over one entity's skill on one track.
// Ratings are values: Rate returns new ones and never mutates its input.
type Rating struct {
	Mu    float64
	Sigma float64
}

// String implements fmt.Stringer.
func (r Rating) String() string {
	return fmt.Sprintf("Rating(mu=%.1f, sigma=%.1f)", r.Mu, r.Sigma)
}

// Variance returns sigma².
func (r Rating) Variance() float64 {
	return r.Sigma * r.Sigma
}

func (r Rating) validate() error {
	if math.IsNaN(r.Mu) || math.IsInf(r.Mu, 0) {
		return fmt.Errorf("%w: mu must be finite, got %v", ErrInvalidParameter, r.Mu)
	}
	if math.IsNaN(r.Sigma) || math.IsInf(r.Sigma, 0) || r.Sigma < 0 {
		return fmt.Errorf("%w: sigma must be finite and non-negative, got %v", ErrInvalidParameter, r.Sigma)
	}
	return nil
}

// RatingOption overrides a field of the prior in CreateRating.
type RatingOption func(*Rating)

// WithMu sets the mean of the created rating.
func WithMu(mu float64) RatingOption {
	return func(r *Rating) { r.Mu = mu }
}

// WithSigma sets the standard deviation of the created rating.
func WithSigma(sigma float64) RatingOption {
	return func(r *Rating) { r.Sigma = sigma }
}
