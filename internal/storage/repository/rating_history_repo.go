package repository

import (
	"context"
	"time"

	"github.com/ramonehamilton/skillrating/internal/storage/models"
)

// RatingHistoryRepository defines the interface for rating snapshot operations.
type RatingHistoryRepository interface {
	// Create stores a rating snapshot.
	Create(ctx context.Context, entry *models.RatingHistory) error

	// GetByPlayerTrack retrieves the snapshots of a player on a track ordered by match number.
	GetByPlayerTrack(ctx context.Context, playerID, track string) ([]*models.RatingHistory, error)

	// GetByTrack retrieves every snapshot on a track ordered by match number.
	GetByTrack(ctx context.Context, track string) ([]*models.RatingHistory, error)

	// DeleteByTrack removes every snapshot on a track.
	DeleteByTrack(ctx context.Context, track string) error
}

type ratingHistoryRepository struct {
	db DBTX
}

// NewRatingHistoryRepository creates a new rating history repository.
func NewRatingHistoryRepository(db DBTX) RatingHistoryRepository {
	return &ratingHistoryRepository{db: db}
}

// Create stores a rating snapshot.
func (r *ratingHistoryRepository) Create(ctx context.Context, entry *models.RatingHistory) error {
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO rating_history (player_id, track, match_number, mu, sigma, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		entry.PlayerID,
		entry.Track,
		entry.MatchNumber,
		entry.Mu,
		entry.Sigma,
		entry.RecordedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	entry.ID = int(id)
	return nil
}

// GetByPlayerTrack retrieves the snapshots of a player on a track.
func (r *ratingHistoryRepository) GetByPlayerTrack(ctx context.Context, playerID, track string) ([]*models.RatingHistory, error) {
	query := `
		SELECT id, player_id, track, match_number, mu, sigma, recorded_at
		FROM rating_history
		WHERE player_id = ? AND track = ?
		ORDER BY match_number, id
	`
	return r.query(ctx, query, playerID, track)
}

// GetByTrack retrieves every snapshot on a track.
func (r *ratingHistoryRepository) GetByTrack(ctx context.Context, track string) ([]*models.RatingHistory, error) {
	query := `
		SELECT id, player_id, track, match_number, mu, sigma, recorded_at
		FROM rating_history
		WHERE track = ?
		ORDER BY match_number, id
	`
	return r.query(ctx, query, track)
}

// DeleteByTrack removes every snapshot on a track.
func (r *ratingHistoryRepository) DeleteByTrack(ctx context.Context, track string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM rating_history WHERE track = ?`, track)
	return err
}

func (r *ratingHistoryRepository) query(ctx context.Context, query string, args ...any) ([]*models.RatingHistory, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []*models.RatingHistory
	for rows.Next() {
		entry := &models.RatingHistory{}
		if err := rows.Scan(
			&entry.ID,
			&entry.PlayerID,
			&entry.Track,
			&entry.MatchNumber,
			&entry.Mu,
			&entry.Sigma,
			&entry.RecordedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
