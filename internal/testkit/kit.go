package testkit

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"gogsea/domain/core"
	"gogsea/domain/geneset"
	"gogsea/ports"
)

// TestKit provides testing utilities and fixtures
type TestKit struct {
	generator *ExpressionGenerator
	catalogs  *StaticCatalogs
	runs      *InMemoryRunRepository
}

// NewTestKit creates a kit with a synthetic human catalog
func NewTestKit() *TestKit {
	return NewTestKitWithConfig(DefaultExpressionConfig())
}

// NewTestKitWithConfig creates a kit from a generator configuration
func NewTestKitWithConfig(config ExpressionGeneratorConfig) *TestKit {
	gen := NewExpressionGenerator(config)
	return &TestKit{
		generator: gen,
		catalogs:  NewStaticCatalogs(gen.Catalog(core.SpeciesHuman)),
		runs:      NewInMemoryRunRepository(),
	}
}

// Generator returns the synthetic data generator
func (t *TestKit) Generator() *ExpressionGenerator {
	return t.generator
}

// CatalogAdapter returns the in-memory catalogs
func (t *TestKit) CatalogAdapter() *StaticCatalogs {
	return t.catalogs
}

// RunRepository returns the shared in-memory run ledger
func (t *TestKit) RunRepository() *InMemoryRunRepository {
	return t.runs
}

// StaticCatalogs implements ports.CatalogPort over prebuilt catalogs
type StaticCatalogs struct {
	catalogs map[core.Species]*geneset.Catalog
	failures map[core.Species]error
}

// NewStaticCatalogs indexes catalogs by their species
func NewStaticCatalogs(catalogs ...*geneset.Catalog) *StaticCatalogs {
	s := &StaticCatalogs{
		catalogs: make(map[core.Species]*geneset.Catalog, len(catalogs)),
		failures: make(map[core.Species]error),
	}
	for _, c := range catalogs {
		s.catalogs[c.Species()] = c
	}
	return s
}

// Fail makes species report err, simulating an unavailable resource
func (s *StaticCatalogs) Fail(species core.Species, err error) {
	s.failures[species] = err
}

func (s *StaticCatalogs) Catalog(ctx context.Context, species core.Species) (*geneset.Catalog, error) {
	if err, ok := s.failures[species]; ok {
		return nil, core.NewCatalogError(string(species), err)
	}
	c, ok := s.catalogs[species]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownSpecies, species)
	}
	return c, nil
}

func (s *StaticCatalogs) Species() []core.Species {
	out := make([]core.Species, 0, len(s.catalogs)+len(s.failures))
	seen := map[core.Species]bool{}
	for sp := range s.catalogs {
		out = append(out, sp)
		seen[sp] = true
	}
	for sp := range s.failures {
		if !seen[sp] {
			out = append(out, sp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// InMemoryRunRepository implements ports.RunRepository for tests and the
// default "memory" run store
type InMemoryRunRepository struct {
	mu    sync.RWMutex
	runs  map[core.RunID]*ports.AnalysisRun
	order []core.RunID
	err   error
}

// NewInMemoryRunRepository creates an empty ledger
func NewInMemoryRunRepository() *InMemoryRunRepository {
	return &InMemoryRunRepository{runs: make(map[core.RunID]*ports.AnalysisRun)}
}

// FailWith makes every subsequent SaveRun return err
func (r *InMemoryRunRepository) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func (r *InMemoryRunRepository) SaveRun(ctx context.Context, run *ports.AnalysisRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if _, dup := r.runs[run.ID]; dup {
		return fmt.Errorf("run %s already recorded", run.ID)
	}
	stored := *run
	r.runs[run.ID] = &stored
	r.order = append(r.order, run.ID)
	return nil
}

func (r *InMemoryRunRepository) GetRun(ctx context.Context, id core.RunID) (*ports.AnalysisRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrRunNotFound, id)
	}
	out := *run
	return &out, nil
}

func (r *InMemoryRunRepository) ListRuns(ctx context.Context, limit int) ([]*ports.AnalysisRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if limit <= 0 {
		limit = 50
	}
	out := make([]*ports.AnalysisRun, 0, limit)
	for i := len(r.order) - 1; i >= 0 && len(out) < limit; i-- {
		summary := *r.runs[r.order[i]]
		summary.Results = nil
		out = append(out, &summary)
	}
	return out, nil
}

// Len returns the number of stored runs
func (r *InMemoryRunRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.runs)
}
