package trueskill

import (
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// Sampler draws simulated match outcomes from latent skills. It is the only
// source of randomness in the package; give each simulation its own Sampler
// so concurrent runs stay reproducible.
type Sampler struct {
	model *Model
	src   rand.Source
}

// NewSampler returns a sampler using the model's performance noise. A nil
// source falls back to the global generator.
func NewSampler(model *Model, src rand.Source) *Sampler {
	return &Sampler{model: model, src: src}
}

// SampleRanks draws one performance per member from N(mu, beta), sums them
// per team and ranks teams by descending performance: 0 is the best team.
// The result is always a permutation of 0..len(groups)-1. Exactly equal
// performances keep their input order.
func (s *Sampler) SampleRanks(groups [][]Rating) []int {
	perf := make([]float64, len(groups))
	for i, team := range groups {
		for _, r := range team {
			perf[i] += s.performance(r.Mu)
		}
	}

	order := make([]int, len(groups))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return perf[order[a]] > perf[order[b]] })

	ranks := make([]int, len(groups))
	for place, idx := range order {
		ranks[idx] = place
	}
	return ranks
}

// SampleHidden ranks single-player teams given bare hidden skill values.
func (s *Sampler) SampleHidden(skills []float64) []int {
	groups := make([][]Rating, len(skills))
	for i, skill := range skills {
		groups[i] = []Rating{{Mu: skill}}
	}
	return s.SampleRanks(groups)
}

func (s *Sampler) performance(mu float64) float64 {
	return distuv.Normal{Mu: mu, Sigma: s.model.params.Beta, Src: s.src}.Rand()
}
