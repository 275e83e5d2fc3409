package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/skillrating/internal/storage/models"
)

func TestRatingHistoryRepository(t *testing.T) {
	db := setupRatingTestDB(t)
	seedPlayers(t, NewPlayerRepository(db),
		&models.Player{ID: "p1", Name: "ada", HiddenSkill: 1800},
		&models.Player{ID: "p2", Name: "bob", HiddenSkill: 1600},
	)
	repo := NewRatingHistoryRepository(db)
	ctx := context.Background()

	for _, e := range []*models.RatingHistory{
		{PlayerID: "p1", Track: "ranked", MatchNumber: 10, Mu: 1760, Sigma: 90},
		{PlayerID: "p1", Track: "ranked", MatchNumber: 0, Mu: 1700, Sigma: 200},
		{PlayerID: "p2", Track: "ranked", MatchNumber: 0, Mu: 1700, Sigma: 200},
		{PlayerID: "p1", Track: "tournament", MatchNumber: 0, Mu: 1700, Sigma: 200},
	} {
		require.NoError(t, repo.Create(ctx, e))
		assert.NotZero(t, e.ID)
		assert.False(t, e.RecordedAt.IsZero())
	}

	mine, err := repo.GetByPlayerTrack(ctx, "p1", "ranked")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, 0, mine[0].MatchNumber)
	assert.Equal(t, 10, mine[1].MatchNumber)
	assert.Equal(t, 1760.0, mine[1].Mu)

	ranked, err := repo.GetByTrack(ctx, "ranked")
	require.NoError(t, err)
	assert.Len(t, ranked, 3)

	require.NoError(t, repo.DeleteByTrack(ctx, "ranked"))
	ranked, err = repo.GetByTrack(ctx, "ranked")
	require.NoError(t, err)
	assert.Empty(t, ranked)

	other, err := repo.GetByTrack(ctx, "tournament")
	require.NoError(t, err)
	assert.Len(t, other, 1)
}
