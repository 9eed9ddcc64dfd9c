package migration

import (
	"context"
	"fmt"

	"gogsea/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles the run ledger schema
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order. The DDL is
// portable between PostgreSQL and SQLite.
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createAnalysisRunsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create analysis_runs table")
	}

	if err := r.createAnalysisResultsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create analysis_results table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	return nil
}

func (r *MigrationRunner) createAnalysisRunsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS analysis_runs (
			id VARCHAR(64) PRIMARY KEY,
			species VARCHAR(64) NOT NULL,
			seed BIGINT NOT NULL,
			permutations INTEGER NOT NULL,
			min_size INTEGER NOT NULL,
			max_size INTEGER NOT NULL,
			ranking_size INTEGER NOT NULL,
			ranking_hash VARCHAR(64) NOT NULL DEFAULT '',
			gene_set_count INTEGER NOT NULL,
			duration_ms BIGINT NOT NULL,
			created_at BIGINT NOT NULL
		)
	`)
	return err
}

// Undefined statistics are stored as NULL.
func (r *MigrationRunner) createAnalysisResultsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS analysis_results (
			run_id VARCHAR(64) NOT NULL REFERENCES analysis_runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			st_id TEXT NOT NULL,
			hit_count INTEGER NOT NULL,
			score DOUBLE PRECISION,
			normalized_score DOUBLE PRECISION,
			pvalue DOUBLE PRECISION,
			fdr DOUBLE PRECISION,
			degenerate BOOLEAN NOT NULL DEFAULT FALSE,
			PRIMARY KEY (run_id, position)
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_runs_created_at ON analysis_runs(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_runs_species ON analysis_runs(species)",
	}

	for _, idxSQL := range indexes {
		if _, err := db.ExecContext(ctx, idxSQL); err != nil {
			return fmt.Errorf("%s: %w", idxSQL, err)
		}
	}
	return nil
}
