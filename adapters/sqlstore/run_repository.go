package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"gogsea/domain/core"
	"gogsea/domain/enrichment"
	"gogsea/ports"

	"github.com/jmoiron/sqlx"
)

// RunRepository implements ports.RunRepository on PostgreSQL or SQLite
type RunRepository struct {
	db *sqlx.DB
}

// NewRunRepository creates a new SQL run repository
func NewRunRepository(db *sqlx.DB) *RunRepository {
	return &RunRepository{db: db}
}

type runRow struct {
	ID             string `db:"id"`
	Species        string `db:"species"`
	Seed           int64  `db:"seed"`
	Permutations   int    `db:"permutations"`
	MinSize        int    `db:"min_size"`
	MaxSize        int    `db:"max_size"`
	RankingSize    int    `db:"ranking_size"`
	RankingHash    string `db:"ranking_hash"`
	GeneSetCount   int    `db:"gene_set_count"`
	DurationMillis int64  `db:"duration_ms"`
	CreatedAt      int64  `db:"created_at"`
}

type resultRow struct {
	RunID           string          `db:"run_id"`
	Position        int             `db:"position"`
	Name            string          `db:"name"`
	StID            string          `db:"st_id"`
	HitCount        int             `db:"hit_count"`
	Score           sql.NullFloat64 `db:"score"`
	NormalizedScore sql.NullFloat64 `db:"normalized_score"`
	PValue          sql.NullFloat64 `db:"pvalue"`
	FDR             sql.NullFloat64 `db:"fdr"`
	Degenerate      bool            `db:"degenerate"`
}

const runColumns = `id, species, seed, permutations, min_size, max_size, ranking_size, ranking_hash, gene_set_count, duration_ms, created_at`

// SaveRun stores the run and its result rows in one transaction
func (r *RunRepository) SaveRun(ctx context.Context, run *ports.AnalysisRun) error {
	if run == nil || run.ID == "" {
		return fmt.Errorf("run must have an ID")
	}
	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = core.Now()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO analysis_runs (`+runColumns+`)
		VALUES (:id, :species, :seed, :permutations, :min_size, :max_size, :ranking_size, :ranking_hash, :gene_set_count, :duration_ms, :created_at)
	`, runRow{
		ID:             run.ID.String(),
		Species:        run.Species.String(),
		Seed:           run.Seed,
		Permutations:   run.Permutations,
		MinSize:        run.MinSize,
		MaxSize:        run.MaxSize,
		RankingSize:    run.RankingSize,
		RankingHash:    run.RankingHash.String(),
		GeneSetCount:   run.GeneSetCount,
		DurationMillis: run.DurationMillis,
		CreatedAt:      createdAt.UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}

	insertResult := tx.Rebind(`
		INSERT INTO analysis_results (run_id, position, name, st_id, hit_count, score, normalized_score, pvalue, fdr, degenerate)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	stmt, err := tx.PreparexContext(ctx, insertResult)
	if err != nil {
		return fmt.Errorf("prepare result insert: %w", err)
	}
	defer stmt.Close()

	for i, res := range run.Results {
		_, err := stmt.ExecContext(ctx,
			run.ID.String(), i, res.Pathway.Name, res.Pathway.StID, res.HitCount,
			nullable(res.Score), nullable(res.NormalizedScore), nullable(res.PValue), nullable(res.FDR),
			res.Degenerate,
		)
		if err != nil {
			return fmt.Errorf("insert result %d of run %s: %w", i, run.ID, err)
		}
	}

	return tx.Commit()
}

// GetRun loads a run with its results in report order
func (r *RunRepository) GetRun(ctx context.Context, id core.RunID) (*ports.AnalysisRun, error) {
	var row runRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(`SELECT `+runColumns+` FROM analysis_runs WHERE id = ?`), id.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", core.ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}

	var rows []resultRow
	err = r.db.SelectContext(ctx, &rows, r.db.Rebind(`
		SELECT run_id, position, name, st_id, hit_count, score, normalized_score, pvalue, fdr, degenerate
		FROM analysis_results
		WHERE run_id = ?
		ORDER BY position
	`), id.String())
	if err != nil {
		return nil, fmt.Errorf("get results of run %s: %w", id, err)
	}

	run := row.toRun()
	run.Results = make([]enrichment.AnalysisResult, len(rows))
	for i, rr := range rows {
		run.Results[i] = enrichment.AnalysisResult{
			Pathway:         enrichment.Pathway{Name: rr.Name, StID: rr.StID},
			HitCount:        rr.HitCount,
			Score:           floatOrNaN(rr.Score),
			NormalizedScore: floatOrNaN(rr.NormalizedScore),
			PValue:          floatOrNaN(rr.PValue),
			FDR:             floatOrNaN(rr.FDR),
			Degenerate:      rr.Degenerate,
		}
	}
	return run, nil
}

// ListRuns returns the most recent runs without their result rows
func (r *RunRepository) ListRuns(ctx context.Context, limit int) ([]*ports.AnalysisRun, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []runRow
	err := r.db.SelectContext(ctx, &rows, r.db.Rebind(`
		SELECT `+runColumns+`
		FROM analysis_runs
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`), limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	runs := make([]*ports.AnalysisRun, len(rows))
	for i := range rows {
		runs[i] = rows[i].toRun()
	}
	return runs, nil
}

func (row runRow) toRun() *ports.AnalysisRun {
	return &ports.AnalysisRun{
		ID:             core.RunID(row.ID),
		Species:        core.Species(row.Species),
		Seed:           row.Seed,
		Permutations:   row.Permutations,
		MinSize:        row.MinSize,
		MaxSize:        row.MaxSize,
		RankingSize:    row.RankingSize,
		RankingHash:    core.Hash(row.RankingHash),
		GeneSetCount:   row.GeneSetCount,
		DurationMillis: row.DurationMillis,
		CreatedAt:      core.FromUnixMilli(row.CreatedAt),
	}
}

func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func floatOrNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
