package trueskill

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()

	assert.Equal(t, 1700.0, p.Mu)
	assert.Equal(t, 200.0, p.Sigma)
	assert.Equal(t, 100.0, p.Beta)
	assert.Equal(t, 2.0, p.Tau)
	assert.Equal(t, 0.0, p.DrawProbability)
}

func TestNewModel_DerivesBetaAndTau(t *testing.T) {
	m, err := NewModel(1500, 300, 0.1)
	require.NoError(t, err)

	assert.Equal(t, 150.0, m.Beta())
	assert.Equal(t, 3.0, m.Tau())
	assert.Equal(t, 0.1, m.DrawProbability())
	assert.Equal(t, DerivedParams(1500, 300, 0.1), m.Params())
}

func TestNewModelWithParams_Validation(t *testing.T) {
	tests := []struct {
		name    string
		params  Params
		wantErr bool
	}{
		{"defaults", DefaultParams(), false},
		{"zero tau", Params{Mu: 0, Sigma: 1, Beta: 1, Tau: 0}, false},
		{"negative sigma", Params{Mu: 0, Sigma: -1, Beta: 1, Tau: 0}, true},
		{"zero sigma", Params{Mu: 0, Sigma: 0, Beta: 1, Tau: 0}, true},
		{"negative beta", Params{Mu: 0, Sigma: 1, Beta: -1, Tau: 0}, true},
		{"negative tau", Params{Mu: 0, Sigma: 1, Beta: 1, Tau: -0.1}, true},
		{"draw probability of one", Params{Mu: 0, Sigma: 1, Beta: 1, DrawProbability: 1}, true},
		{"nan mu", Params{Mu: math.NaN(), Sigma: 1, Beta: 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewModelWithParams(tt.params)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidParameter)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCreateRating_IdempotentPriors(t *testing.T) {
	m := Default()

	a, err := m.CreateRating()
	require.NoError(t, err)
	b, err := m.CreateRating()
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, m.Mu(), a.Mu)
	assert.Equal(t, m.Sigma(), a.Sigma)
	assert.Equal(t, m.Prior(), a)
}

func TestCreateRating_Overrides(t *testing.T) {
	m := Default()

	r, err := m.CreateRating(WithMu(1800))
	require.NoError(t, err)
	assert.Equal(t, Rating{Mu: 1800, Sigma: 200}, r)

	r, err = m.CreateRating(WithMu(1600), WithSigma(0))
	require.NoError(t, err)
	assert.Equal(t, Rating{Mu: 1600, Sigma: 0}, r)

	_, err = m.CreateRating(WithSigma(-1))
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestRate_MismatchedLength(t *testing.T) {
	m := Default()
	groups := [][]Rating{{m.Prior()}, {m.Prior()}}

	_, err := m.Rate(groups, []int{0})
	assert.ErrorIs(t, err, ErrMismatchedLength)

	_, err = m.Rate(groups, []int{0, 1, 2})
	assert.ErrorIs(t, err, ErrMismatchedLength)
}

func TestRate_InvalidGroups(t *testing.T) {
	m := Default()

	_, err := m.Rate([][]Rating{{m.Prior()}}, []int{0})
	assert.ErrorIs(t, err, ErrInvalidParameter)

	_, err = m.Rate([][]Rating{{m.Prior()}, {}}, []int{0, 1})
	assert.ErrorIs(t, err, ErrInvalidParameter)

	_, err = m.Rate([][]Rating{{m.Prior()}, {{Mu: 1700, Sigma: -5}}}, []int{0, 1})
	assert.ErrorIs(t, err, ErrInvalidParameter)

	static, err := NewModelWithParams(Params{Mu: 0, Sigma: 1, Beta: 1, Tau: 0})
	require.NoError(t, err)
	_, err = static.Rate([][]Rating{{{Mu: 0, Sigma: 0}}, {{Mu: 0, Sigma: 1}}}, []int{0, 1})
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestRate_MatchesReferenceValues(t *testing.T) {
	// Reference environment: mu=25, sigma=25/3, 10% draws.
	m, err := NewModel(25, 25.0/3, 0.1)
	require.NoError(t, err)

	winner, loser, err := m.Rate1vs1(m.Prior(), m.Prior(), false)
	require.NoError(t, err)
	assert.InDelta(t, 29.396, winner.Mu, 1e-3)
	assert.InDelta(t, 7.171, winner.Sigma, 1e-3)
	assert.InDelta(t, 20.604, loser.Mu, 1e-3)
	assert.InDelta(t, 7.171, loser.Sigma, 1e-3)

	a, b, err := m.Rate1vs1(m.Prior(), m.Prior(), true)
	require.NoError(t, err)
	assert.InDelta(t, 25.0, a.Mu, 1e-3)
	assert.InDelta(t, 6.458, a.Sigma, 1e-3)
	assert.InDelta(t, 25.0, b.Mu, 1e-3)
	assert.InDelta(t, 6.458, b.Sigma, 1e-3)
}

func TestRate_RankConsistentUpdate(t *testing.T) {
	m := Default()

	tests := []struct {
		name  string
		teamA []Rating
		teamB []Rating
	}{
		{"1v1 equal", []Rating{m.Prior()}, []Rating{m.Prior()}},
		{"1v1 favourite wins", []Rating{{Mu: 1900, Sigma: 80}}, []Rating{{Mu: 1500, Sigma: 150}}},
		{"1v1 upset", []Rating{{Mu: 1500, Sigma: 60}}, []Rating{{Mu: 1950, Sigma: 40}}},
		{"1v2", []Rating{m.Prior()}, []Rating{m.Prior(), m.Prior()}},
		{"3v2 mixed", []Rating{{Mu: 1600, Sigma: 120}, {Mu: 1750, Sigma: 30}, {Mu: 1800, Sigma: 200}}, []Rating{{Mu: 1900, Sigma: 50}, m.Prior()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := m.Rate([][]Rating{tt.teamA, tt.teamB}, []int{0, 1})
			require.NoError(t, err)
			require.Len(t, out, 2)
			require.Len(t, out[0], len(tt.teamA))
			require.Len(t, out[1], len(tt.teamB))

			for i, before := range tt.teamA {
				assert.GreaterOrEqual(t, out[0][i].Mu, before.Mu, "winner %d", i)
			}
			for i, before := range tt.teamB {
				assert.LessOrEqual(t, out[1][i].Mu, before.Mu, "loser %d", i)
			}
		})
	}
}

func TestRate_StrictMoveForEqualPriors(t *testing.T) {
	m := Default()

	out, err := m.Rate([][]Rating{{m.Prior(), m.Prior()}, {m.Prior(), m.Prior()}}, []int{0, 1})
	require.NoError(t, err)

	for _, r := range out[0] {
		assert.Greater(t, r.Mu, m.Mu())
	}
	for _, r := range out[1] {
		assert.Less(t, r.Mu, m.Mu())
	}
}

func TestRate_EqualMagnitudeForEqualPriors(t *testing.T) {
	m := Default()
	start := Rating{Mu: 1650, Sigma: 120}

	winner, loser, err := m.Rate1vs1(start, start, false)
	require.NoError(t, err)

	assert.InDelta(t, winner.Mu-start.Mu, start.Mu-loser.Mu, 1e-9)
	assert.InDelta(t, winner.Sigma, loser.Sigma, 1e-9)
}

func TestRate_PreservesCallerOrder(t *testing.T) {
	m := Default()
	groups := [][]Rating{{m.Prior()}, {m.Prior()}, {m.Prior()}}

	out, err := m.Rate(groups, []int{2, 0, 1})
	require.NoError(t, err)

	// groups[1] won, groups[0] came last.
	assert.Greater(t, out[1][0].Mu, out[2][0].Mu)
	assert.Greater(t, out[2][0].Mu, out[0][0].Mu)
	assert.Greater(t, out[1][0].Mu, m.Mu())
	assert.Less(t, out[0][0].Mu, m.Mu())
}

func TestRate_SparseRanks(t *testing.T) {
	m := Default()
	groups := [][]Rating{{m.Prior()}, {m.Prior()}, {m.Prior()}}

	dense, err := m.Rate(groups, []int{0, 1, 2})
	require.NoError(t, err)
	sparse, err := m.Rate(groups, []int{10, 20, 30})
	require.NoError(t, err)

	assert.Equal(t, dense, sparse)
}

func TestRate_Deterministic(t *testing.T) {
	m := Default()
	groups := [][]Rating{
		{{Mu: 1720, Sigma: 90}},
		{{Mu: 1650, Sigma: 150}, {Mu: 1810, Sigma: 60}},
		{{Mu: 1900, Sigma: 40}},
		{m.Prior()},
	}
	ranks := []int{1, 0, 3, 2}

	first, err := m.Rate(groups, ranks)
	require.NoError(t, err)
	second, err := m.Rate(groups, ranks)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRate_DoesNotMutateInput(t *testing.T) {
	m := Default()
	groups := [][]Rating{{m.Prior()}, {m.Prior()}}

	_, err := m.Rate(groups, []int{0, 1})
	require.NoError(t, err)

	assert.Equal(t, m.Prior(), groups[0][0])
	assert.Equal(t, m.Prior(), groups[1][0])
}

func TestRate_TiedTeamsFinishAboveLoser(t *testing.T) {
	m, err := NewModel(DefaultMu, DefaultSigma, 0.1)
	require.NoError(t, err)

	out, err := m.Rate([][]Rating{{m.Prior()}, {m.Prior()}, {m.Prior()}}, []int{0, 0, 1})
	require.NoError(t, err)

	assert.Greater(t, out[0][0].Mu, out[2][0].Mu)
	assert.Greater(t, out[1][0].Mu, out[2][0].Mu)
	assert.Less(t, out[2][0].Mu, m.Mu())
	assert.Less(t, out[0][0].Sigma, m.Sigma())
}

func TestRate_FreeForAllOrdering(t *testing.T) {
	m := Default()
	const players = 64

	groups := make([][]Rating, players)
	ranks := make([]int, players)
	for i := range groups {
		groups[i] = []Rating{m.Prior()}
		ranks[i] = i
	}

	out, err := m.Rate(groups, ranks)
	require.NoError(t, err)

	for i := 1; i < 4; i++ {
		assert.Greater(t, out[i-1][0].Mu, out[i][0].Mu, "place %d vs %d", i-1, i)
		assert.Greater(t, out[players-i-1][0].Mu, out[players-i][0].Mu, "place %d vs %d", players-i-1, players-i)
	}
	assert.Greater(t, out[0][0].Mu, m.Mu())
	assert.Less(t, out[players-1][0].Mu, m.Mu())
	for _, team := range out {
		assert.Less(t, team[0].Sigma, m.Sigma())
		assert.Greater(t, team[0].Sigma, 0.0)
	}
}

func TestRate_SigmaSettlesAboveZero(t *testing.T) {
	m := Default()
	a, b := m.Prior(), m.Prior()

	var err error
	for i := 0; i < 500; i++ {
		if i%2 == 0 {
			a, b, err = m.Rate1vs1(a, b, false)
		} else {
			b, a, err = m.Rate1vs1(b, a, false)
		}
		require.NoError(t, err)
	}

	assert.Less(t, a.Sigma, m.Sigma()/2)
	assert.Greater(t, a.Sigma, m.Tau()/math.Sqrt2)

	// One more match moves sigma very little once it has settled.
	next, _, err := m.Rate1vs1(a, b, false)
	require.NoError(t, err)
	assert.InDelta(t, a.Sigma, next.Sigma, 1)
}

func TestRateWeighted(t *testing.T) {
	m := Default()
	groups := [][]Rating{{m.Prior(), m.Prior()}, {m.Prior(), m.Prior()}}

	out, err := m.RateWeighted(groups, []int{0, 1}, [][]float64{{1, 0.5}, {1, 1}})
	require.NoError(t, err)

	full := out[0][0].Mu - m.Mu()
	partial := out[0][1].Mu - m.Mu()
	assert.Greater(t, partial, 0.0)
	assert.Greater(t, full, partial)

	_, err = m.RateWeighted(groups, []int{0, 1}, [][]float64{{1}, {1, 1}})
	assert.ErrorIs(t, err, ErrMismatchedLength)

	_, err = m.RateWeighted(groups, []int{0, 1}, [][]float64{{1, -1}, {1, 1}})
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestExpose(t *testing.T) {
	m := Default()

	assert.InDelta(t, 0, m.Expose(m.Prior()), 1e-9)
	assert.InDelta(t, 1800-8.5*20, m.Expose(Rating{Mu: 1800, Sigma: 20}), 1e-9)
}
