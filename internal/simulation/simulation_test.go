package simulation

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/skillrating/internal/tracks"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSimulator(t *testing.T, config Config) *Simulator {
	t.Helper()
	if config.Registry == nil {
		config.Registry = tracks.DefaultRegistry()
	}
	config.Logger = quietLogger()
	sim, err := NewSimulator(config)
	require.NoError(t, err)
	return sim
}

func TestNewRoster(t *testing.T) {
	roster, err := NewRoster(5, 1700, 400)
	require.NoError(t, err)
	require.Len(t, roster, 5)

	want := []float64{1500, 1600, 1700, 1800, 1900}
	ids := make(map[string]bool)
	for i, p := range roster {
		assert.InDelta(t, want[i], p.HiddenSkill, 1e-9)
		assert.Empty(t, p.Ratings)
		ids[p.ID] = true
	}
	assert.Len(t, ids, 5)
	assert.Equal(t, "player-01", roster[0].Name)

	single, err := NewRoster(1, 1700, 400)
	require.NoError(t, err)
	assert.Equal(t, 1700.0, single[0].HiddenSkill)

	_, err = NewRoster(0, 1700, 400)
	assert.Error(t, err)
	_, err = NewRoster(4, 1700, -1)
	assert.Error(t, err)
}

func TestNewSimulator_Defaults(t *testing.T) {
	_, err := NewSimulator(Config{})
	assert.Error(t, err)

	_, err = NewSimulator(Config{Registry: tracks.DefaultRegistry(), Matches: -1})
	assert.Error(t, err)

	sim := newTestSimulator(t, Config{})
	assert.Equal(t, 200, sim.config.Matches)
	assert.Equal(t, 10, sim.config.SnapshotEvery)
	assert.NotZero(t, sim.Seed())
	assert.NotNil(t, sim.Metrics())
}

func TestRun_VisibleRatingsFollowHiddenSkill(t *testing.T) {
	sim := newTestSimulator(t, Config{Matches: 100, SnapshotEvery: 10, Seed: 17})
	roster, err := NewRoster(8, 1700, 640)
	require.NoError(t, err)

	report, err := sim.Run(context.Background(), tracks.Ranked, roster)
	require.NoError(t, err)

	assert.Equal(t, tracks.Ranked, report.Track)
	assert.Equal(t, 100, report.Matches)
	require.Len(t, report.History, 11)
	assert.Equal(t, 0, report.History[0].Match)
	assert.Equal(t, 100, report.History[10].Match)
	for _, mu := range report.History[0].Mus {
		assert.Equal(t, 1700.0, mu)
	}

	assert.Less(t, report.ExtremesWinProbability, 0.05)
	assert.Less(t, report.MeanAbsDeviation, 150.0)
	assert.GreaterOrEqual(t, report.MaxDeviation, report.MeanAbsDeviation)
	assert.Equal(t, 8, report.Deviations.Count)

	for i, p := range report.Players {
		assert.Equal(t, 100, p.Matches)
		assert.Equal(t, roster[i].Ratings[tracks.Ranked], p.Visible)
		assert.InDelta(t, p.Visible.Mu-p.HiddenSkill, p.Deviation, 1e-9)
		assert.Nil(t, p.Performance)
	}

	board := report.Leaderboard()
	for i := 1; i < len(board); i++ {
		assert.GreaterOrEqual(t, board[i-1].Exposed, board[i].Exposed)
	}

	stats := sim.Metrics().GetStats()
	assert.Equal(t, uint64(100), stats.MatchesPlayed)
	assert.Equal(t, uint64(10), stats.Snapshots)
	assert.Equal(t, 800, stats.SkillChange.Count)
}

func TestRun_ReproducibleWithSeed(t *testing.T) {
	run := func() []float64 {
		sim := newTestSimulator(t, Config{Matches: 20, Seed: 1234})
		roster, err := NewRoster(6, 1700, 300)
		require.NoError(t, err)
		report, err := sim.Run(context.Background(), tracks.BotMatch, roster)
		require.NoError(t, err)
		return report.History[len(report.History)-1].Mus
	}

	assert.Equal(t, run(), run())
}

func TestRun_Cancelled(t *testing.T) {
	sim := newTestSimulator(t, Config{Matches: 50})
	roster, err := NewRoster(4, 1700, 200)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := sim.Run(ctx, tracks.Ranked, roster)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Equal(t, 0, report.Matches)
	assert.Empty(t, roster[0].Ratings)
}

func TestRun_Errors(t *testing.T) {
	sim := newTestSimulator(t, Config{Matches: 5})
	roster, err := NewRoster(4, 1700, 200)
	require.NoError(t, err)

	_, err = sim.Run(context.Background(), "casual", roster)
	assert.ErrorIs(t, err, tracks.ErrUnknownTrack)

	_, err = sim.Run(context.Background(), tracks.Ranked, roster[:1])
	assert.Error(t, err)
}

func TestRun_OnMatchAndPerformance(t *testing.T) {
	var calls atomic.Int64
	sim := newTestSimulator(t, Config{
		Matches:          10,
		Seed:             5,
		TrackPerformance: true,
		OnMatch: func(r *tracks.MatchResult) {
			calls.Add(1)
		},
	})
	roster, err := NewRoster(4, 1700, 400)
	require.NoError(t, err)

	report, err := sim.Run(context.Background(), tracks.Tournament, roster)
	require.NoError(t, err)

	assert.Equal(t, int64(10), calls.Load())
	for _, p := range report.Players {
		require.NotNil(t, p.Performance)
		assert.Greater(t, p.Performance.Sigma, 0.0)
	}
}

func TestRunTracks_MergesEveryTrack(t *testing.T) {
	sim := newTestSimulator(t, Config{Matches: 30, Seed: 99})
	roster, err := NewRoster(6, 1700, 400)
	require.NoError(t, err)

	reports, err := sim.RunTracks(context.Background(), []tracks.Track{tracks.Ranked, tracks.BotMatch}, roster)
	require.NoError(t, err)
	require.Len(t, reports, 2)

	for _, p := range roster {
		assert.Equal(t, 30, p.MatchesPlayed(tracks.Ranked))
		assert.Equal(t, 30, p.MatchesPlayed(tracks.BotMatch))
		assert.Equal(t, 0, p.MatchesPlayed(tracks.Tournament))
	}
	for i, p := range reports[tracks.Ranked].Players {
		assert.Equal(t, roster[i].Ratings[tracks.Ranked], p.Visible)
	}

	// Separate streams give the tracks different match histories.
	assert.NotEqual(t,
		reports[tracks.Ranked].History[len(reports[tracks.Ranked].History)-1].Mus,
		reports[tracks.BotMatch].History[len(reports[tracks.BotMatch].History)-1].Mus)
}

func TestRunTracks_UnknownTrack(t *testing.T) {
	sim := newTestSimulator(t, Config{Matches: 5})
	roster, err := NewRoster(4, 1700, 400)
	require.NoError(t, err)

	reports, err := sim.RunTracks(context.Background(), []tracks.Track{tracks.Ranked, "casual"}, roster)
	assert.ErrorIs(t, err, tracks.ErrUnknownTrack)
	assert.Contains(t, reports, tracks.Ranked)
	assert.Equal(t, 5, roster[0].MatchesPlayed(tracks.Ranked))
}
