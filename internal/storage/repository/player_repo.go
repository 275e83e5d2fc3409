package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/ramonehamilton/skillrating/internal/storage/models"
)

// PlayerRepository defines the interface for roster data operations.
type PlayerRepository interface {
	// Upsert inserts a player or updates the name and hidden skill of an existing one.
	Upsert(ctx context.Context, player *models.Player) error

	// GetByID retrieves a player. Returns nil if not found.
	GetByID(ctx context.Context, id string) (*models.Player, error)

	// List retrieves every player ordered by name.
	List(ctx context.Context) ([]*models.Player, error)

	// Delete removes a player and, by cascade, their ratings and history.
	Delete(ctx context.Context, id string) error
}

type playerRepository struct {
	db DBTX
}

// NewPlayerRepository creates a new player repository.
func NewPlayerRepository(db DBTX) PlayerRepository {
	return &playerRepository{db: db}
}

// Upsert inserts a player or updates an existing one.
func (r *playerRepository) Upsert(ctx context.Context, player *models.Player) error {
	now := time.Now().UTC()
	if player.CreatedAt.IsZero() {
		player.CreatedAt = now
	}
	player.UpdatedAt = now

	query := `
		INSERT INTO players (id, name, hidden_skill, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			hidden_skill = excluded.hidden_skill,
			updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		player.ID,
		player.Name,
		player.HiddenSkill,
		player.CreatedAt,
		player.UpdatedAt,
	)
	return err
}

// GetByID retrieves a player by ID.
func (r *playerRepository) GetByID(ctx context.Context, id string) (*models.Player, error) {
	query := `
		SELECT id, name, hidden_skill, created_at, updated_at
		FROM players
		WHERE id = ?
	`

	player := &models.Player{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&player.ID,
		&player.Name,
		&player.HiddenSkill,
		&player.CreatedAt,
		&player.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return player, nil
}

// List retrieves every player ordered by name.
func (r *playerRepository) List(ctx context.Context) ([]*models.Player, error) {
	query := `
		SELECT id, name, hidden_skill, created_at, updated_at
		FROM players
		ORDER BY name, id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var players []*models.Player
	for rows.Next() {
		player := &models.Player{}
		if err := rows.Scan(
			&player.ID,
			&player.Name,
			&player.HiddenSkill,
			&player.CreatedAt,
			&player.UpdatedAt,
		); err != nil {
			return nil, err
		}
		players = append(players, player)
	}
	return players, rows.Err()
}

// Delete removes a player.
func (r *playerRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM players WHERE id = ?`, id)
	return err
}
