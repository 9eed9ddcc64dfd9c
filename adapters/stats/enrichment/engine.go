package enrichment

import (
	"context"
	"time"

	"gogsea/domain/enrichment"
	"gogsea/domain/geneset"
	"gogsea/domain/ranking"
	"gogsea/internal"
)

// Engine computes preranked GSEA statistics. It holds no per-request
// state and is safe for concurrent use.
type Engine struct {
	logger *internal.Logger
}

// NewEngine creates an engine logging through logger (nil uses the default logger).
func NewEngine(logger *internal.Logger) *Engine {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Engine{logger: logger}
}

// Run scores every gene set against the ranking.
//
// Phase one computes the observed enrichment scores and the permutation
// null; phase two derives NES, nominal p-values and FDR q-values. Results
// are returned in the order of sets. An empty ranking or set list yields an
// empty result.
func (e *Engine) Run(ctx context.Context, list *ranking.RankedList, sets []geneset.GeneSet, params enrichment.Params) ([]enrichment.ScoredGeneSet, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if list.Len() == 0 || len(sets) == 0 {
		return []enrichment.ScoredGeneSet{}, nil
	}
	if params.Workers < 1 {
		params.Workers = 1
	}

	start := time.Now()
	rp := newRankProfile(list, params.Weight)

	observed := make([]float64, len(sets))
	hitCounts := make([]int, len(sets))
	for i, gs := range sets {
		hits := hitPositions(list, gs)
		hitCounts[i] = len(hits)
		observed[i] = rp.score(hits)
	}
	e.logger.Debug("[Enrichment] scored %d gene sets against %d genes in %v", len(sets), list.Len(), time.Since(start))

	nullStart := time.Now()
	null, err := generateNull(ctx, rp, hitCounts, nullParams{
		permutations: params.Permutations,
		seed:         params.Seed,
		workers:      params.Workers,
	})
	if err != nil {
		e.logger.Warn("[Enrichment] permutation phase aborted after %v: %v", time.Since(nullStart), err)
		return nil, err
	}
	e.logger.Debug("[Enrichment] generated %d x %d null scores with %d workers in %v",
		len(sets), params.Permutations, params.Workers, time.Since(nullStart))

	phaseTwo := normalize(observed, null, params.NormMode)

	results := make([]enrichment.ScoredGeneSet, len(sets))
	degenerate := 0
	for i, gs := range sets {
		st := phaseTwo[i]
		results[i] = enrichment.ScoredGeneSet{
			GeneSet:         gs,
			HitCount:        hitCounts[i],
			EnrichmentScore: observed[i],
			NormalizedScore: st.nes,
			PValue:          st.pValue,
			FDR:             st.fdr,
			Degenerate:      st.degenerate,
		}
		if err := results[i].Reason(); err != nil {
			degenerate++
			e.logger.Debug("[Enrichment] %v", err)
		}
	}
	if degenerate > 0 {
		e.logger.Warn("[Enrichment] %d of %d gene sets have an empty same-sign null; their NES, p-value and FDR are undefined", degenerate, len(sets))
	}

	e.logger.Info("[Enrichment] completed %d gene sets, %d permutations, seed %d in %v",
		len(sets), params.Permutations, params.Seed, time.Since(start))
	return results, nil
}
