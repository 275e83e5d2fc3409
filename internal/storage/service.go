package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ramonehamilton/skillrating/internal/simulation"
	"github.com/ramonehamilton/skillrating/internal/storage/models"
	"github.com/ramonehamilton/skillrating/internal/storage/repository"
	"github.com/ramonehamilton/skillrating/internal/tracks"
	"github.com/ramonehamilton/skillrating/internal/trueskill"
)

// Service provides high-level roster persistence on top of the repositories.
type Service struct {
	db      *DB
	players repository.PlayerRepository
	ratings repository.TrackRatingRepository
	history repository.RatingHistoryRepository
}

// NewService creates a new storage service.
func NewService(db *DB) *Service {
	return &Service{
		db:      db,
		players: repository.NewPlayerRepository(db.Conn()),
		ratings: repository.NewTrackRatingRepository(db.Conn()),
		history: repository.NewRatingHistoryRepository(db.Conn()),
	}
}

// Players returns the player repository.
func (s *Service) Players() repository.PlayerRepository { return s.players }

// Ratings returns the track rating repository.
func (s *Service) Ratings() repository.TrackRatingRepository { return s.ratings }

// History returns the rating history repository.
func (s *Service) History() repository.RatingHistoryRepository { return s.history }

// DB returns the underlying database.
func (s *Service) DB() *DB { return s.db }

// SaveRoster stores every player and all of their track ratings atomically.
func (s *Service) SaveRoster(ctx context.Context, roster []*tracks.Player) error {
	return s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		players := repository.NewPlayerRepository(tx)
		ratings := repository.NewTrackRatingRepository(tx)

		for _, p := range roster {
			if err := players.Upsert(ctx, &models.Player{
				ID:          p.ID,
				Name:        p.Name,
				HiddenSkill: p.HiddenSkill,
			}); err != nil {
				return fmt.Errorf("failed to store player %s: %w", p.Name, err)
			}

			for track, r := range p.Ratings {
				if err := ratings.Upsert(ctx, &models.TrackRating{
					PlayerID:      p.ID,
					Track:         string(track),
					Mu:            r.Mu,
					Sigma:         r.Sigma,
					MatchesPlayed: p.MatchesPlayed(track),
				}); err != nil {
					return fmt.Errorf("failed to store %s rating of %s: %w", track, p.Name, err)
				}
			}
		}
		return nil
	})
}

// LoadRoster reads every stored player with their track ratings.
// An empty database yields an empty roster.
func (s *Service) LoadRoster(ctx context.Context) ([]*tracks.Player, error) {
	stored, err := s.players.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}

	roster := make([]*tracks.Player, 0, len(stored))
	for _, sp := range stored {
		p := &tracks.Player{
			ID:          sp.ID,
			Name:        sp.Name,
			HiddenSkill: sp.HiddenSkill,
			Ratings:     make(map[tracks.Track]trueskill.Rating),
			Matches:     make(map[tracks.Track]int),
		}

		ratings, err := s.ratings.GetByPlayer(ctx, sp.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load ratings of %s: %w", sp.Name, err)
		}
		for _, r := range ratings {
			track := tracks.Track(r.Track)
			p.Ratings[track] = trueskill.Rating{Mu: r.Mu, Sigma: r.Sigma}
			p.Matches[track] = r.MatchesPlayed
		}
		roster = append(roster, p)
	}
	return roster, nil
}

// RecordHistory replaces the stored history of track with the snapshots of a
// run. Snapshot values are in roster order.
func (s *Service) RecordHistory(ctx context.Context, track tracks.Track, roster []*tracks.Player, history []simulation.Snapshot) error {
	return s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		repo := repository.NewRatingHistoryRepository(tx)
		if err := repo.DeleteByTrack(ctx, string(track)); err != nil {
			return fmt.Errorf("failed to clear %s history: %w", track, err)
		}

		for _, snap := range history {
			if len(snap.Mus) != len(roster) || len(snap.Sigmas) != len(roster) {
				return fmt.Errorf("snapshot after match %d has %d values for %d players", snap.Match, len(snap.Mus), len(roster))
			}
			for i, p := range roster {
				if err := repo.Create(ctx, &models.RatingHistory{
					PlayerID:    p.ID,
					Track:       string(track),
					MatchNumber: snap.Match,
					Mu:          snap.Mus[i],
					Sigma:       snap.Sigmas[i],
				}); err != nil {
					return fmt.Errorf("failed to store history of %s: %w", p.Name, err)
				}
			}
		}
		return nil
	})
}

// Leaderboard returns the top limit entries of track by mu - k*sigma.
func (s *Service) Leaderboard(ctx context.Context, track tracks.Track, k float64, limit int) ([]*models.LeaderboardEntry, error) {
	entries, err := s.ratings.Leaderboard(ctx, string(track), k, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s leaderboard: %w", track, err)
	}
	return entries, nil
}
