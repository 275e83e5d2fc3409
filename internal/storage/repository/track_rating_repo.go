package repository

import (
	"context"
	"time"

	"github.com/ramonehamilton/skillrating/internal/storage/models"
)

// TrackRatingRepository defines the interface for visible rating operations.
type TrackRatingRepository interface {
	// Upsert stores the rating of a player on a track.
	Upsert(ctx context.Context, rating *models.TrackRating) error

	// GetByPlayer retrieves every track rating of a player ordered by track.
	GetByPlayer(ctx context.Context, playerID string) ([]*models.TrackRating, error)

	// GetByTrack retrieves every rating on a track.
	GetByTrack(ctx context.Context, track string) ([]*models.TrackRating, error)

	// Leaderboard retrieves the top entries of a track ordered by the
	// conservative estimate mu - k*sigma. A limit of 0 returns all entries.
	Leaderboard(ctx context.Context, track string, k float64, limit int) ([]*models.LeaderboardEntry, error)
}

type trackRatingRepository struct {
	db DBTX
}

// NewTrackRatingRepository creates a new track rating repository.
func NewTrackRatingRepository(db DBTX) TrackRatingRepository {
	return &trackRatingRepository{db: db}
}

// Upsert stores the rating of a player on a track.
func (r *trackRatingRepository) Upsert(ctx context.Context, rating *models.TrackRating) error {
	rating.UpdatedAt = time.Now().UTC()

	query := `
		INSERT INTO track_ratings (player_id, track, mu, sigma, matches_played, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(player_id, track) DO UPDATE SET
			mu = excluded.mu,
			sigma = excluded.sigma,
			matches_played = excluded.matches_played,
			updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		rating.PlayerID,
		rating.Track,
		rating.Mu,
		rating.Sigma,
		rating.MatchesPlayed,
		rating.UpdatedAt,
	)
	return err
}

// GetByPlayer retrieves every track rating of a player.
func (r *trackRatingRepository) GetByPlayer(ctx context.Context, playerID string) ([]*models.TrackRating, error) {
	query := `
		SELECT player_id, track, mu, sigma, matches_played, updated_at
		FROM track_ratings
		WHERE player_id = ?
		ORDER BY track
	`
	return r.query(ctx, query, playerID)
}

// GetByTrack retrieves every rating on a track.
func (r *trackRatingRepository) GetByTrack(ctx context.Context, track string) ([]*models.TrackRating, error) {
	query := `
		SELECT player_id, track, mu, sigma, matches_played, updated_at
		FROM track_ratings
		WHERE track = ?
		ORDER BY player_id
	`
	return r.query(ctx, query, track)
}

func (r *trackRatingRepository) query(ctx context.Context, query string, args ...any) ([]*models.TrackRating, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var ratings []*models.TrackRating
	for rows.Next() {
		rating := &models.TrackRating{}
		if err := rows.Scan(
			&rating.PlayerID,
			&rating.Track,
			&rating.Mu,
			&rating.Sigma,
			&rating.MatchesPlayed,
			&rating.UpdatedAt,
		); err != nil {
			return nil, err
		}
		ratings = append(ratings, rating)
	}
	return ratings, rows.Err()
}

// Leaderboard retrieves the top entries of a track.
func (r *trackRatingRepository) Leaderboard(ctx context.Context, track string, k float64, limit int) ([]*models.LeaderboardEntry, error) {
	query := `
		SELECT tr.player_id, p.name, tr.mu, tr.sigma, tr.matches_played
		FROM track_ratings tr
		JOIN players p ON p.id = tr.player_id
		WHERE tr.track = ?
		ORDER BY tr.mu - ? * tr.sigma DESC, p.name
	`
	args := []any{track, k}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []*models.LeaderboardEntry
	for rows.Next() {
		entry := &models.LeaderboardEntry{}
		if err := rows.Scan(
			&entry.PlayerID,
			&entry.Name,
			&entry.Mu,
			&entry.Sigma,
			&entry.MatchesPlayed,
		); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
