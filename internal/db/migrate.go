package db

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrate applies the ordered schema evolutions at startup. Each migration
// runs in its own transaction and is recorded in applied_migrations. A
// migration that previously failed has its record cleared and is retried;
// a fresh failure halts startup.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS applied_migrations (
			migration_name TEXT PRIMARY KEY,
			applied_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
			success        BOOLEAN NOT NULL
		)`); err != nil {
		return fmt.Errorf("failed to create applied_migrations table: %w", err)
	}

	names, err := migrationNames()
	if err != nil {
		return err
	}

	for _, name := range names {
		applied, ok, err := migrationState(ctx, pool, name)
		if err != nil {
			return err
		}
		if ok && applied {
			continue
		}
		if ok && !applied {
			// Clear the failed record so this attempt is bookkept fresh.
			if _, err := pool.Exec(ctx,
				`DELETE FROM applied_migrations WHERE migration_name = $1`, name); err != nil {
				return fmt.Errorf("failed to clear failed migration %s: %w", name, err)
			}
			log.Warn().Str("migration", name).Msg("retrying previously failed migration")
		}

		if err := applyMigration(ctx, pool, name); err != nil {
			return err
		}
	}

	return nil
}

func migrationNames() ([]string, error) {
	entries, err := fs.ReadDir(migrationFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded migrations: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func migrationState(ctx context.Context, pool *pgxpool.Pool, name string) (success, found bool, err error) {
	err = pool.QueryRow(ctx,
		`SELECT success FROM applied_migrations WHERE migration_name = $1`, name).Scan(&success)
	if err == pgx.ErrNoRows {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("failed to query migration state for %s: %w", name, err)
	}
	return success, true, nil
}

func applyMigration(ctx context.Context, pool *pgxpool.Pool, name string) error {
	sqlBytes, err := migrationFS.ReadFile("migrations/" + name)
	if err != nil {
		return fmt.Errorf("failed to read migration %s: %w", name, err)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin migration transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, string(sqlBytes)); err != nil {
		// Record the failure outside the rolled-back transaction.
		if _, recErr := pool.Exec(ctx,
			`INSERT INTO applied_migrations (migration_name, success) VALUES ($1, false)
			 ON CONFLICT (migration_name) DO UPDATE SET success = false, applied_at = now()`,
			name); recErr != nil {
			log.Error().Err(recErr).Str("migration", name).Msg("failed to record migration failure")
		}
		return fmt.Errorf("migration %s failed: %w", name, err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO applied_migrations (migration_name, success) VALUES ($1, true)`, name); err != nil {
		return fmt.Errorf("failed to record migration %s: %w", name, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit migration %s: %w", name, err)
	}

	log.Info().Str("migration", name).Msg("migration applied")
	return nil
}
