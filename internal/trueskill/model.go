// Package trueskill implements a Bayesian skill rating model in the TrueSkill
// family: Gaussian ratings updated by message passing on a factor graph,
// closed-form win probabilities, and a performance sampler that turns latent
// skills into simulated finishing orders.
package trueskill

import (
	"fmt"
	"math"
	"sort"
)

const (
	// DefaultMu is the prior mean of a fresh rating.
	DefaultMu = 1700.0
	// DefaultSigma is the prior standard deviation of a fresh rating.
	DefaultSigma = 200.0
	// DefaultDrawProbability is zero: matches never end in a declared draw.
	DefaultDrawProbability = 0.0

	// minDelta stops the message schedule once no team difference moves further.
	minDelta = 1e-4
	// maxSweeps bounds the schedule on long free-for-all chains.
	maxSweeps = 10
)

// Params is the full parameter set of a Model.
type Params struct {
	Mu              float64 // prior mean
	Sigma           float64 // prior standard deviation
	Beta            float64 // performance noise standard deviation
	Tau             float64 // dynamics noise added to sigma before each match
	DrawProbability float64 // probability mass reserved for ties
}

// DerivedParams ties the noise terms to the prior spread: beta = sigma/2 and
// tau = sigma/100, so retuning sigma moves all three spreads together.
func DerivedParams(mu, sigma, drawProbability float64) Params {
	return Params{
		Mu:              mu,
		Sigma:           sigma,
		Beta:            sigma / 2,
		Tau:             sigma / 100,
		DrawProbability: drawProbability,
	}
}

// DefaultParams returns mu=1700, sigma=200, beta=100, tau=2, no draws.
func DefaultParams() Params {
	return DerivedParams(DefaultMu, DefaultSigma, DefaultDrawProbability)
}

// Validate checks the invariants every Model relies on.
func (p Params) Validate() error {
	for name, v := range map[string]float64{
		"mu": p.Mu, "sigma": p.Sigma, "beta": p.Beta, "tau": p.Tau, "draw probability": p.DrawProbability,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s must be finite, got %v", ErrInvalidParameter, name, v)
		}
	}
	if p.Sigma <= 0 {
		return fmt.Errorf("%w: sigma must be positive, got %v", ErrInvalidParameter, p.Sigma)
	}
	if p.Beta <= 0 {
		return fmt.Errorf("%w: beta must be positive, got %v", ErrInvalidParameter, p.Beta)
	}
	if p.Tau < 0 {
		return fmt.Errorf("%w: tau cannot be negative, got %v", ErrInvalidParameter, p.Tau)
	}
	if p.DrawProbability < 0 || p.DrawProbability >= 1 {
		return fmt.Errorf("%w: draw probability must be in [0, 1), got %v", ErrInvalidParameter, p.DrawProbability)
	}
	return nil
}

// Model is an immutable rating environment. It is safe for concurrent use.
type Model struct {
	params Params
}

// NewModel builds a model whose beta and tau are derived from sigma.
func NewModel(mu, sigma, drawProbability float64) (*Model, error) {
	return NewModelWithParams(DerivedParams(mu, sigma, drawProbability))
}

// NewModelWithParams builds a model from an explicit parameter set.
func NewModelWithParams(p Params) (*Model, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Model{params: p}, nil
}

// Default returns a model with DefaultParams.
func Default() *Model {
	return &Model{params: DefaultParams()}
}

// Params returns the model parameters.
func (m *Model) Params() Params { return m.params }

// Mu returns the prior mean.
func (m *Model) Mu() float64 { return m.params.Mu }

// Sigma returns the prior standard deviation.
func (m *Model) Sigma() float64 { return m.params.Sigma }

// Beta returns the performance noise.
func (m *Model) Beta() float64 { return m.params.Beta }

// Tau returns the dynamics noise.
func (m *Model) Tau() float64 { return m.params.Tau }

// DrawProbability returns the tie probability.
func (m *Model) DrawProbability() float64 { return m.params.DrawProbability }

// Prior returns a rating at the model's prior.
func (m *Model) Prior() Rating {
	return Rating{Mu: m.params.Mu, Sigma: m.params.Sigma}
}

// CreateRating returns the prior with any overrides applied.
func (m *Model) CreateRating(opts ...RatingOption) (Rating, error) {
	r := m.Prior()
	for _, opt := range opts {
		opt(&r)
	}
	if err := r.validate(); err != nil {
		return Rating{}, err
	}
	return r, nil
}

// Expose returns a conservative leaderboard value that starts at zero for a
// prior rating and grows as the rating becomes certain.
func (m *Model) Expose(r Rating) float64 {
	k := m.params.Mu / m.params.Sigma
	return r.Mu - k*r.Sigma
}

// Rate1vs1 updates two single-player ratings after one match.
func (m *Model) Rate1vs1(winner, loser Rating, drawn bool) (Rating, Rating, error) {
	ranks := []int{0, 1}
	if drawn {
		ranks = []int{0, 0}
	}
	out, err := m.Rate([][]Rating{{winner}, {loser}}, ranks)
	if err != nil {
		return Rating{}, Rating{}, err
	}
	return out[0][0], out[1][0], nil
}

// Rate returns new ratings for every team after a match. ranks[i] is the
// placement of groups[i]; lower is better and equal ranks are ties. The
// output has the same shape and order as groups.
func (m *Model) Rate(groups [][]Rating, ranks []int) ([][]Rating, error) {
	return m.RateWeighted(groups, ranks, nil)
}

// RateWeighted is Rate with a partial-play weight per player. A nil weights
// slice means every player took full part.
func (m *Model) RateWeighted(groups [][]Rating, ranks []int, weights [][]float64) ([][]Rating, error) {
	if len(groups) != len(ranks) {
		return nil, fmt.Errorf("%w: %d rating groups but %d ranks", ErrMismatchedLength, len(groups), len(ranks))
	}
	if err := m.validateGroups(groups); err != nil {
		return nil, err
	}
	if weights == nil {
		weights = unitWeights(groups)
	}
	if len(weights) != len(groups) {
		return nil, fmt.Errorf("%w: %d rating groups but %d weight groups", ErrMismatchedLength, len(groups), len(weights))
	}
	clamped := make([][]float64, len(weights))
	for i, g := range groups {
		if len(weights[i]) != len(g) {
			return nil, fmt.Errorf("%w: group %d has %d ratings but %d weights", ErrMismatchedLength, i, len(g), len(weights[i]))
		}
		clamped[i] = make([]float64, len(g))
		for j, w := range weights[i] {
			if math.IsNaN(w) || w < 0 {
				return nil, fmt.Errorf("%w: weight must be non-negative, got %v", ErrInvalidParameter, w)
			}
			// A zero coefficient makes the team sum factor singular.
			clamped[i][j] = math.Max(w, minDelta)
		}
	}
	weights = clamped

	// The graph chains teams in placement order.
	order := make([]int, len(groups))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return ranks[order[a]] < ranks[order[b]] })

	sortedGroups := make([][]Rating, len(order))
	sortedRanks := make([]int, len(order))
	sortedWeights := make([][]float64, len(order))
	for i, idx := range order {
		sortedGroups[i] = groups[idx]
		sortedRanks[i] = ranks[idx]
		sortedWeights[i] = weights[idx]
	}

	g := m.buildGraph(sortedGroups, sortedRanks, sortedWeights)
	g.run()

	out := make([][]Rating, len(groups))
	offset := 0
	for i, idx := range order {
		team := make([]Rating, len(sortedGroups[i]))
		for j := range team {
			v := g.ratingVars[offset+j].value
			team[j] = Rating{Mu: v.mu(), Sigma: v.sigma()}
		}
		out[idx] = team
		offset += len(team)
	}
	return out, nil
}

func (m *Model) validateGroups(groups [][]Rating) error {
	if len(groups) < 2 {
		return fmt.Errorf("%w: need at least two rating groups, got %d", ErrInvalidParameter, len(groups))
	}
	for i, g := range groups {
		if len(g) == 0 {
			return fmt.Errorf("%w: rating group %d is empty", ErrInvalidParameter, i)
		}
		for _, r := range g {
			if err := r.validate(); err != nil {
				return err
			}
			if r.Variance()+m.params.Tau*m.params.Tau == 0 {
				return fmt.Errorf("%w: rating %v has no uncertainty and the model has no dynamics noise", ErrInvalidParameter, r)
			}
		}
	}
	return nil
}

func unitWeights(groups [][]Rating) [][]float64 {
	weights := make([][]float64, len(groups))
	for i, g := range groups {
		weights[i] = make([]float64, len(g))
		for j := range g {
			weights[i][j] = 1
		}
	}
	return weights
}

// graph is the factor graph of a single match, teams already in placement order.
type graph struct {
	ratingVars []*variable

	priors     []*priorFactor
	perfs      []*likelihoodFactor
	teamPerfs  []*sumFactor
	teamDiffs  []*sumFactor
	truncation []*truncateFactor
}

func (m *Model) buildGraph(groups [][]Rating, ranks []int, weights [][]float64) *graph {
	g := &graph{}

	teamPerfVars := make([]*variable, len(groups))
	for t, team := range groups {
		perfVars := make([]*variable, len(team))
		for i, r := range team {
			ratingVar, perfVar := newVariable(), newVariable()
			g.ratingVars = append(g.ratingVars, ratingVar)
			g.priors = append(g.priors, &priorFactor{v: ratingVar, rating: r, dynamic: m.params.Tau})
			g.perfs = append(g.perfs, &likelihoodFactor{mean: ratingVar, value: perfVar, variance: m.params.Beta * m.params.Beta})
			perfVars[i] = perfVar
		}
		teamPerfVars[t] = newVariable()
		g.teamPerfs = append(g.teamPerfs, &sumFactor{sum: teamPerfVars[t], terms: perfVars, coeffs: weights[t]})
	}

	for t := 0; t < len(groups)-1; t++ {
		diffVar := newVariable()
		g.teamDiffs = append(g.teamDiffs, &sumFactor{
			sum:    diffVar,
			terms:  []*variable{teamPerfVars[t], teamPerfVars[t+1]},
			coeffs: []float64{1, -1},
		})

		size := len(groups[t]) + len(groups[t+1])
		tf := &truncateFactor{v: diffVar, margin: drawMargin(m.params.DrawProbability, m.params.Beta, size)}
		if ranks[t] == ranks[t+1] {
			tf.vFunc, tf.wFunc = vDraw, wDraw
		} else {
			tf.vFunc, tf.wFunc = vWin, wWin
		}
		g.truncation = append(g.truncation, tf)
	}
	return g
}

// run executes the message schedule: priors down to team performances, an
// iterative sweep over the difference chain, then everything back up to the
// skill variables.
func (g *graph) run() {
	for _, f := range g.priors {
		f.down()
	}
	for _, f := range g.perfs {
		f.down()
	}
	for _, f := range g.teamPerfs {
		f.down()
	}

	n := len(g.teamDiffs)
	for sweep := 0; sweep < maxSweeps; sweep++ {
		var delta float64
		if n == 1 {
			g.teamDiffs[0].down()
			delta = g.truncation[0].up()
		} else {
			for i := 0; i < n-1; i++ {
				g.teamDiffs[i].down()
				delta = math.Max(delta, g.truncation[i].up())
				g.teamDiffs[i].up(1)
			}
			for i := n - 1; i > 0; i-- {
				g.teamDiffs[i].down()
				delta = math.Max(delta, g.truncation[i].up())
				g.teamDiffs[i].up(0)
			}
		}
		if delta <= minDelta {
			break
		}
	}

	g.teamDiffs[0].up(0)
	g.teamDiffs[n-1].up(1)
	for _, f := range g.teamPerfs {
		for i := range f.terms {
			f.up(i)
		}
	}
	for _, f := range g.perfs {
		f.up()
	}
}
