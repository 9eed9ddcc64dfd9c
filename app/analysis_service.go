package app

import (
	"context"
	"fmt"
	"time"

	"gogsea/domain/core"
	"gogsea/domain/enrichment"
	"gogsea/domain/geneset"
	"gogsea/domain/ranking"
	"gogsea/internal"
	"gogsea/ports"

	"golang.org/x/sync/semaphore"
)

// AnalysisRecorder receives analysis lifecycle events (metrics).
type AnalysisRecorder interface {
	AnalysisStarted()
	AnalysisDone()
	AnalysisFinished(species, outcome string, elapsed time.Duration, scored, degenerate int)
}

// Outcome labels reported to the recorder.
const (
	outcomeOK      = "ok"
	outcomeInvalid = "invalid"
	outcomeAborted = "aborted"
	outcomeFailed  = "failed"
)

// AnalysisSettings holds service-wide defaults and limits
type AnalysisSettings struct {
	DefaultPermutations   int
	MaxPermutations       int
	Workers               int
	MaxConcurrentAnalyses int
	Weight                float64
	NormMode              enrichment.NormMode
	UpperSymbols          bool // fold ranking symbols to match an upper-cased catalog
}

// DefaultAnalysisSettings mirrors the engine defaults with two concurrent analyses
func DefaultAnalysisSettings() AnalysisSettings {
	p := enrichment.DefaultParams()
	return AnalysisSettings{
		DefaultPermutations:   p.Permutations,
		MaxPermutations:       10 * p.Permutations,
		Workers:               p.Workers,
		MaxConcurrentAnalyses: 2,
		Weight:                p.Weight,
		NormMode:              p.NormMode,
	}
}

// AnalysisRequest describes one preranked analysis
type AnalysisRequest struct {
	Species      core.Species
	Pairs        []ranking.Pair
	Permutations int // 0 selects the service default
	Bounds       geneset.SizeBounds
	Seed         *int64     // nil draws a fresh seed
	RunID        core.RunID // optional
}

// AnalysisOutcome is the report plus the data needed to replay it
type AnalysisOutcome struct {
	RunID        core.RunID
	Seed         int64
	Species      core.Species
	RankingSize  int
	GeneSetCount int
	Duration     time.Duration
	Results      []enrichment.AnalysisResult
}

// AnalysisService runs the end-to-end pipeline: ranking, catalog, size
// filter, enrichment, assembly and the run ledger.
type AnalysisService struct {
	catalogs  ports.CatalogPort
	engine    ports.EnrichmentPort
	runs      ports.RunRepository
	rngPort   ports.RNGPort
	assembler *ResultAssembler
	settings  AnalysisSettings
	admission *semaphore.Weighted
	recorder  AnalysisRecorder
	logger    *internal.Logger
}

// NewAnalysisService creates an analysis service. runs may be nil to disable the ledger.
func NewAnalysisService(
	catalogs ports.CatalogPort,
	engine ports.EnrichmentPort,
	runs ports.RunRepository,
	rngPort ports.RNGPort,
	settings AnalysisSettings,
	logger *internal.Logger,
) *AnalysisService {
	if settings.MaxConcurrentAnalyses < 1 {
		settings.MaxConcurrentAnalyses = 1
	}
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	return &AnalysisService{
		catalogs:  catalogs,
		engine:    engine,
		runs:      runs,
		rngPort:   rngPort,
		assembler: NewResultAssembler(),
		settings:  settings,
		admission: semaphore.NewWeighted(int64(settings.MaxConcurrentAnalyses)),
		logger:    logger,
	}
}

// SetRecorder installs an analysis recorder
func (s *AnalysisService) SetRecorder(r AnalysisRecorder) {
	s.recorder = r
}

// Species lists the species with a configured catalog
func (s *AnalysisService) Species() []core.Species {
	return s.catalogs.Species()
}

// Analyse computes the ordered enrichment report for one ranking
func (s *AnalysisService) Analyse(ctx context.Context, req AnalysisRequest) (*AnalysisOutcome, error) {
	start := time.Now()
	species := req.Species
	if species == "" {
		species = core.SpeciesHuman
	}

	outcome, scoredCount, degenerate, err := s.analyse(ctx, species, req, start)
	if s.recorder != nil {
		s.recorder.AnalysisFinished(species.String(), classify(err), time.Since(start), scoredCount, degenerate)
	}
	return outcome, err
}

func (s *AnalysisService) analyse(ctx context.Context, species core.Species, req AnalysisRequest, start time.Time) (*AnalysisOutcome, int, int, error) {
	params, err := s.params(ctx, req)
	if err != nil {
		return nil, 0, 0, err
	}
	if err := req.Bounds.Validate(); err != nil {
		return nil, 0, 0, err
	}

	pairs := req.Pairs
	if s.settings.UpperSymbols {
		pairs = append([]ranking.Pair(nil), req.Pairs...)
		ranking.FoldSymbols(pairs)
	}
	list, err := ranking.Build(pairs)
	if err != nil {
		return nil, 0, 0, err
	}

	if err := s.admission.Acquire(ctx, 1); err != nil {
		return nil, 0, 0, core.NewAbortedError(err)
	}
	defer s.admission.Release(1)
	if s.recorder != nil {
		s.recorder.AnalysisStarted()
		defer s.recorder.AnalysisDone()
	}

	catalog, err := s.catalogs.Catalog(ctx, species)
	if err != nil {
		return nil, 0, 0, err
	}

	sets, err := geneset.Filter(list, catalog, req.Bounds)
	if err != nil {
		return nil, 0, 0, err
	}

	runID := req.RunID
	if runID == "" {
		runID = core.NewRunID()
	}
	logger := s.logger.With("run_id", runID.String())
	logger.Info("[Analysis] %s: %d genes, %d of %d gene sets within [%d,%d], %d permutations, seed %d",
		species, list.Len(), len(sets), catalog.Len(), req.Bounds.Min, req.Bounds.Max, params.Permutations, params.Seed)

	scored, err := s.engine.Run(ctx, list, sets, params)
	if err != nil {
		return nil, 0, 0, err
	}
	degenerate := 0
	for _, sc := range scored {
		if sc.Degenerate {
			degenerate++
		}
	}

	results, err := s.assembler.Assemble(scored, catalog)
	if err != nil {
		return nil, 0, 0, err
	}

	outcome := &AnalysisOutcome{
		RunID:        runID,
		Seed:         params.Seed,
		Species:      species,
		RankingSize:  list.Len(),
		GeneSetCount: len(sets),
		Duration:     time.Since(start),
		Results:      results,
	}
	s.record(ctx, logger, outcome, params, req.Bounds, list)
	return outcome, len(scored), degenerate, nil
}

// params resolves per-request engine parameters against service limits
func (s *AnalysisService) params(ctx context.Context, req AnalysisRequest) (enrichment.Params, error) {
	perms := req.Permutations
	if perms == 0 {
		perms = s.settings.DefaultPermutations
	}
	if perms < 1 {
		return enrichment.Params{}, core.NewConfigError("nperms", fmt.Sprintf("must be at least 1, got %d", perms))
	}
	if s.settings.MaxPermutations > 0 && perms > s.settings.MaxPermutations {
		return enrichment.Params{}, core.NewConfigError("nperms", fmt.Sprintf("must not exceed %d, got %d", s.settings.MaxPermutations, perms))
	}

	var seed int64
	if req.Seed != nil {
		seed = *req.Seed
	} else {
		seed = s.rngPort.NextSeed(ctx)
	}

	params := enrichment.Params{
		Permutations: perms,
		Weight:       s.settings.Weight,
		Seed:         seed,
		Workers:      s.settings.Workers,
		NormMode:     s.settings.NormMode,
	}
	return params, params.Validate()
}

// record writes the run to the ledger; failures are logged, never returned
func (s *AnalysisService) record(ctx context.Context, logger *internal.Logger, outcome *AnalysisOutcome, params enrichment.Params, bounds geneset.SizeBounds, list *ranking.RankedList) {
	if s.runs == nil {
		return
	}
	run := &ports.AnalysisRun{
		ID:             outcome.RunID,
		Species:        outcome.Species,
		Seed:           params.Seed,
		Permutations:   params.Permutations,
		MinSize:        bounds.Min,
		MaxSize:        bounds.Max,
		RankingSize:    outcome.RankingSize,
		RankingHash:    list.Fingerprint(),
		GeneSetCount:   outcome.GeneSetCount,
		DurationMillis: outcome.Duration.Milliseconds(),
		CreatedAt:      core.Now(),
		Results:        outcome.Results,
	}
	if err := s.runs.SaveRun(context.WithoutCancel(ctx), run); err != nil {
		logger.Error("[Analysis] failed to record run: %v", err)
	}
}

// GetRun returns a recorded run
func (s *AnalysisService) GetRun(ctx context.Context, id core.RunID) (*ports.AnalysisRun, error) {
	if s.runs == nil {
		return nil, fmt.Errorf("%w: %s", core.ErrRunNotFound, id)
	}
	return s.runs.GetRun(ctx, id)
}

// ListRuns returns the most recent runs without results
func (s *AnalysisService) ListRuns(ctx context.Context, limit int) ([]*ports.AnalysisRun, error) {
	if s.runs == nil {
		return []*ports.AnalysisRun{}, nil
	}
	return s.runs.ListRuns(ctx, limit)
}

func classify(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case core.IsParseError(err), core.IsConfigError(err):
		return outcomeInvalid
	case core.IsAbortedError(err):
		return outcomeAborted
	default:
		return outcomeFailed
	}
}
