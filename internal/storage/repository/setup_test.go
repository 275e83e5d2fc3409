package repository

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// setupRatingTestDB creates an in-memory database with the roster tables.
func setupRatingTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:?_pragma=foreign_keys(1)")
	require.NoError(t, err)

	// Every pooled connection would otherwise get its own empty database.
	db.SetMaxOpenConns(1)

	schema := `
		CREATE TABLE players (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			hidden_skill REAL NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);
		CREATE TABLE track_ratings (
			player_id TEXT NOT NULL REFERENCES players(id) ON DELETE CASCADE,
			track TEXT NOT NULL,
			mu REAL NOT NULL,
			sigma REAL NOT NULL,
			matches_played INTEGER NOT NULL DEFAULT 0,
			updated_at DATETIME NOT NULL,
			PRIMARY KEY (player_id, track)
		);
		CREATE TABLE rating_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			player_id TEXT NOT NULL REFERENCES players(id) ON DELETE CASCADE,
			track TEXT NOT NULL,
			match_number INTEGER NOT NULL,
			mu REAL NOT NULL,
			sigma REAL NOT NULL,
			recorded_at DATETIME NOT NULL
		);
	`
	_, err = db.Exec(schema)
	require.NoError(t, err)

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Error closing database: %v", err)
		}
	})
	return db
}
