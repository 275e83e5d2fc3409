package trueskill

import (
	"math/rand/v2"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertPermutation(t *testing.T, ranks []int, n int) {
	t.Helper()
	require.Len(t, ranks, n)
	sorted := append([]int(nil), ranks...)
	sort.Ints(sorted)
	for i, r := range sorted {
		assert.Equal(t, i, r)
	}
}

func TestSampleRanks_Permutation(t *testing.T) {
	m := Default()

	for _, n := range []int{1, 2, 3, 8, 64, 200} {
		for seed := uint64(0); seed < 5; seed++ {
			s := NewSampler(m, rand.NewPCG(seed, 99))
			groups := make([][]Rating, n)
			for i := range groups {
				groups[i] = []Rating{{Mu: 1700 + float64(i%7)*10}}
			}
			assertPermutation(t, s.SampleRanks(groups), n)
		}
	}
}

func TestSampleRanks_ReproducibleWithSeed(t *testing.T) {
	m := Default()
	skills := []float64{1500, 1600, 1700, 1800, 1900, 1650, 1750}

	a := NewSampler(m, rand.NewPCG(42, 7)).SampleHidden(skills)
	b := NewSampler(m, rand.NewPCG(42, 7)).SampleHidden(skills)

	assert.Equal(t, a, b)
}

func TestSampleRanks_SeparatedSkillsKeepOrder(t *testing.T) {
	m := Default()
	s := NewSampler(m, rand.NewPCG(1, 2))

	// Far beyond the performance noise, the sampled order is the skill order.
	ranks := s.SampleHidden([]float64{0, 1e6, -1e6, 5e5})
	assert.Equal(t, []int{2, 0, 3, 1}, ranks)
}

func TestSampleRanks_SumsTeamMembers(t *testing.T) {
	m := Default()
	s := NewSampler(m, rand.NewPCG(3, 4))

	wins := 0
	for i := 0; i < 200; i++ {
		ranks := s.SampleRanks([][]Rating{{m.Prior()}, {m.Prior(), m.Prior()}})
		if ranks[1] == 0 {
			wins++
		}
	}
	// A two-player team doubles the summed performance of a lone player.
	assert.Equal(t, 200, wins)
}

func TestSampleRanks_IgnoresRatingSigma(t *testing.T) {
	m := Default()
	narrow := NewSampler(m, rand.NewPCG(5, 6)).SampleRanks([][]Rating{{{Mu: 1700, Sigma: 0}}, {{Mu: 1710, Sigma: 0}}})
	wide := NewSampler(m, rand.NewPCG(5, 6)).SampleRanks([][]Rating{{{Mu: 1700, Sigma: 500}}, {{Mu: 1710, Sigma: 500}}})

	assert.Equal(t, narrow, wide)
}

func TestSampleRanks_FavouriteWinsAtModelRate(t *testing.T) {
	m := Default()
	s := NewSampler(m, rand.NewPCG(11, 13))

	const trials = 4000
	wins := 0
	for i := 0; i < trials; i++ {
		if s.SampleHidden([]float64{1800, 1600})[0] == 0 {
			wins++
		}
	}

	// Φ(200/√(2·100²)) ≈ 0.921
	assert.InDelta(t, m.PerformanceWinProbability(200), float64(wins)/trials, 0.03)
}
