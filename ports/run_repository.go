package ports

import (
	"context"

	"gogsea/domain/core"
	"gogsea/domain/enrichment"
)

// AnalysisRun is the audit record of one completed analysis
type AnalysisRun struct {
	ID             core.RunID                  `json:"id" db:"id"`
	Species        core.Species                `json:"species" db:"species"`
	Seed           int64                       `json:"seed" db:"seed"`
	Permutations   int                         `json:"nperms" db:"permutations"`
	MinSize        int                         `json:"dataSetSizeMin" db:"min_size"`
	MaxSize        int                         `json:"dataSetSizeMax" db:"max_size"`
	RankingSize    int                         `json:"rankingSize" db:"ranking_size"`
	RankingHash    core.Hash                   `json:"rankingHash" db:"ranking_hash"`
	GeneSetCount   int                         `json:"geneSetCount" db:"gene_set_count"`
	DurationMillis int64                       `json:"durationMillis" db:"duration_ms"`
	CreatedAt      core.Timestamp              `json:"createdAt" db:"-"`
	Results        []enrichment.AnalysisResult `json:"results" db:"-"`
}

// RunRepository persists analysis runs
type RunRepository interface {
	SaveRun(ctx context.Context, run *AnalysisRun) error
	// GetRun returns core.ErrRunNotFound when id is unknown.
	GetRun(ctx context.Context, id core.RunID) (*AnalysisRun, error)
	ListRuns(ctx context.Context, limit int) ([]*AnalysisRun, error)
}
