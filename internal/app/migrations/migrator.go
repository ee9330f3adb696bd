package migrations

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Migrator applies the numbered SQL files of a directory once each, tracking
// them in schema_migrations
type Migrator struct {
	db     *pgxpool.Pool
	logger zerolog.Logger
}

// NewMigrator creates a new migrator
func NewMigrator(db *pgxpool.Pool, logger zerolog.Logger) *Migrator {
	return &Migrator{
		db:     db,
		logger: logger,
	}
}

// ensureMigrationTableExists creates the migration tracking table if it doesn't exist
func (m *Migrator) ensureMigrationTableExists(ctx context.Context) error {
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version VARCHAR(255) PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`

	if _, err := m.db.Exec(ctx, createTableSQL); err != nil {
		return fmt.Errorf("failed to create migration tracking table: %w", err)
	}
	return nil
}

// isMigrationApplied checks if a specific migration has already been applied
func (m *Migrator) isMigrationApplied(ctx context.Context, version string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1);`
	if err := m.db.QueryRow(ctx, query, version).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check migration status: %w", err)
	}
	return exists, nil
}

// recordMigration marks a migration as applied inside tx
func recordMigration(ctx context.Context, tx pgx.Tx, version string) error {
	_, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version, applied_at) VALUES ($1, $2)`,
		version, time.Now())
	if err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}
	return nil
}

// MigrationVersion extracts the version prefix of a migration file ("001_init.sql" => "001")
func MigrationVersion(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(strings.SplitN(base, "_", 2)[0], ".sql")
}

// MigrateFromFile executes one migration file in a transaction, unless it was applied before.
// It reports whether the file was applied now.
func (m *Migrator) MigrateFromFile(ctx context.Context, filePath string) (bool, error) {
	if err := m.ensureMigrationTableExists(ctx); err != nil {
		return false, err
	}

	filename := filepath.Base(filePath)
	version := MigrationVersion(filename)

	applied, err := m.isMigrationApplied(ctx, version)
	if err != nil {
		return false, err
	}
	if applied {
		m.logger.Debug().Str("file", filename).Msg("Migration already applied, skipping")
		return false, nil
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return false, fmt.Errorf("failed to read migration file: %w", err)
	}

	tx, err := m.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err = tx.Exec(ctx, string(content)); err != nil {
		return false, fmt.Errorf("migration %s failed: %w", filename, err)
	}
	if err := recordMigration(ctx, tx, version); err != nil {
		return false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	m.logger.Info().Str("file", filename).Msg("Migration applied")
	return true, nil
}

// SQLFiles lists the .sql files of dirPath in execution order
func SQLFiles(dirPath string) ([]string, error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration directory: %w", err)
	}

	var sqlFiles []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			sqlFiles = append(sqlFiles, filepath.Join(dirPath, e.Name()))
		}
	}
	sort.Strings(sqlFiles)
	return sqlFiles, nil
}

// MigrateFromDirectory applies all pending SQL files in a directory and
// returns how many were applied
func (m *Migrator) MigrateFromDirectory(ctx context.Context, dirPath string) (int, error) {
	files, err := SQLFiles(dirPath)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, file := range files {
		applied, err := m.MigrateFromFile(ctx, file)
		if err != nil {
			return count, err
		}
		if applied {
			count++
		}
	}
	return count, nil
}
