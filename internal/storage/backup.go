package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// BackupConfig holds configuration for backup operations.
type BackupConfig struct {
	// Dir is the directory where backups are written (required).
	Dir string

	// Name is the backup file name without extension.
	// If empty, a timestamp-based name is generated.
	Name string

	// Verify re-opens the backup and checks its integrity.
	Verify bool
}

// Backup snapshots the rating database into config.Dir with VACUUM INTO,
// which works on a live connection without an exclusive lock.
// It returns the path of the written file.
func (db *DB) Backup(ctx context.Context, config BackupConfig) (string, error) {
	if config.Dir == "" {
		return "", fmt.Errorf("backup directory cannot be empty")
	}
	if err := os.MkdirAll(config.Dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	name := config.Name
	if name == "" {
		name = "ratings_" + time.Now().Format("20060102_150405")
	}
	backupPath := filepath.Join(config.Dir, name+".db")

	if _, err := os.Stat(backupPath); err == nil {
		return "", fmt.Errorf("backup already exists: %s", backupPath)
	}

	if _, err := db.conn.ExecContext(ctx, "VACUUM INTO ?", backupPath); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}

	if config.Verify {
		if err := VerifyBackup(ctx, backupPath); err != nil {
			_ = os.Remove(backupPath)
			return "", fmt.Errorf("backup verification failed: %w", err)
		}
	}

	return backupPath, nil
}

// VerifyBackup checks that the file at path is an intact rating database.
func VerifyBackup(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("failed to stat backup: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open backup: %w", err)
	}
	defer func() { _ = conn.Close() }()

	var result string
	if err := conn.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("failed to check backup integrity: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("backup integrity check failed: %s", result)
	}

	var tables int
	err = conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('players', 'track_ratings', 'rating_history')`,
	).Scan(&tables)
	if err != nil {
		return fmt.Errorf("failed to inspect backup schema: %w", err)
	}
	if tables != 3 {
		return fmt.Errorf("backup is missing rating tables (found %d of 3)", tables)
	}

	return nil
}
