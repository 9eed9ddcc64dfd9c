package enrichment

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"sort"
	"testing"

	"gogsea/domain/core"
	domain "gogsea/domain/enrichment"
	"gogsea/domain/geneset"
	"gogsea/domain/ranking"
	"gogsea/internal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syntheticFixture builds a 400-gene ranking and 30 gene sets, a few of
// them enriched at the top or bottom of the ranking.
func syntheticFixture(t *testing.T) (*ranking.RankedList, []geneset.GeneSet) {
	t.Helper()
	rng := rand.New(rand.NewPCG(2024, 1))

	const n = 400
	genes := make([]ranking.RankedGene, n)
	for i := range genes {
		genes[i] = ranking.RankedGene{Symbol: geneName(i), Score: rng.NormFloat64() * 2}
	}
	list, err := ranking.FromGenes(genes)
	require.NoError(t, err)
	symbols := list.Symbols()

	var sets []geneset.GeneSet
	// Enriched at the top.
	sets = append(sets, geneset.New("UP1", "Up one", symbols[0:40:40][:25]))
	sets = append(sets, geneset.New("UP2", "Up two", append(symbols[5:20:20], symbols[200:205]...)))
	// Enriched at the bottom.
	sets = append(sets, geneset.New("DN1", "Down one", symbols[n-30:]))
	// Random sets of varied size.
	for i := 0; i < 27; i++ {
		size := 5 + rng.IntN(60)
		members := make([]string, size)
		for j := range members {
			members[j] = symbols[rng.IntN(n)]
		}
		sets = append(sets, geneset.New("RND"+geneName(i), "Random "+geneName(i), members))
	}
	return list, sets
}

func testParams(seed int64, workers int) domain.Params {
	p := domain.DefaultParams()
	p.Permutations = 200
	p.Seed = seed
	p.Workers = workers
	return p
}

func TestEngine_Determinism(t *testing.T) {
	list, sets := syntheticFixture(t)
	engine := NewEngine(internal.NewNopLogger())

	first, err := engine.Run(context.Background(), list, sets, testParams(99, 4))
	require.NoError(t, err)
	second, err := engine.Run(context.Background(), list, sets, testParams(99, 4))
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, math.Float64bits(first[i].EnrichmentScore), math.Float64bits(second[i].EnrichmentScore))
		assert.Equal(t, math.Float64bits(first[i].NormalizedScore), math.Float64bits(second[i].NormalizedScore))
		assert.Equal(t, math.Float64bits(first[i].PValue), math.Float64bits(second[i].PValue))
		assert.Equal(t, math.Float64bits(first[i].FDR), math.Float64bits(second[i].FDR))
	}
}

func TestEngine_IndependentOfWorkerCount(t *testing.T) {
	list, sets := syntheticFixture(t)
	engine := NewEngine(internal.NewNopLogger())

	serial, err := engine.Run(context.Background(), list, sets, testParams(7, 1))
	require.NoError(t, err)
	parallel, err := engine.Run(context.Background(), list, sets, testParams(7, 8))
	require.NoError(t, err)

	for i := range serial {
		assert.Equal(t, math.Float64bits(serial[i].NormalizedScore), math.Float64bits(parallel[i].NormalizedScore), "set %s", serial[i].GeneSet.ID)
		assert.Equal(t, math.Float64bits(serial[i].FDR), math.Float64bits(parallel[i].FDR), "set %s", serial[i].GeneSet.ID)
	}
}

func TestEngine_SeedChangesNullOnly(t *testing.T) {
	list, sets := syntheticFixture(t)
	engine := NewEngine(internal.NewNopLogger())

	a, err := engine.Run(context.Background(), list, sets, testParams(1, 2))
	require.NoError(t, err)
	b, err := engine.Run(context.Background(), list, sets, testParams(2, 2))
	require.NoError(t, err)

	differs := false
	for i := range a {
		assert.Equal(t, a[i].EnrichmentScore, b[i].EnrichmentScore)
		assert.Equal(t, a[i].HitCount, b[i].HitCount)
		if a[i].NormalizedScore != b[i].NormalizedScore {
			differs = true
		}
	}
	assert.True(t, differs, "different seeds should give different null distributions")
}

func TestEngine_StatisticalInvariants(t *testing.T) {
	list, sets := syntheticFixture(t)
	engine := NewEngine(internal.NewNopLogger())

	results, err := engine.Run(context.Background(), list, sets, testParams(31337, 4))
	require.NoError(t, err)
	require.Len(t, results, len(sets))

	var valid []domain.ScoredGeneSet
	for _, r := range results {
		if r.Degenerate {
			continue
		}
		valid = append(valid, r)
		assert.True(t, r.PValue >= 0 && r.PValue <= 1, "p-value %v", r.PValue)
		assert.True(t, r.FDR >= 0 && r.FDR <= 1, "fdr %v", r.FDR)
		assert.Equal(t, r.EnrichmentScore >= 0, r.NormalizedScore >= 0, "sign mismatch for %s", r.GeneSet.ID)
	}

	sort.SliceStable(valid, func(i, j int) bool {
		return math.Abs(valid[i].NormalizedScore) > math.Abs(valid[j].NormalizedScore)
	})
	for i := 1; i < len(valid); i++ {
		assert.GreaterOrEqual(t, valid[i].FDR, valid[i-1].FDR, "fdr not monotone at %d", i)
	}
}

func TestEngine_DetectsPlantedEnrichment(t *testing.T) {
	list, sets := syntheticFixture(t)
	engine := NewEngine(internal.NewNopLogger())

	params := testParams(5, 4)
	params.Permutations = 500
	results, err := engine.Run(context.Background(), list, sets, params)
	require.NoError(t, err)

	byID := map[string]domain.ScoredGeneSet{}
	for _, r := range results {
		byID[r.GeneSet.ID] = r
	}

	up := byID["UP1"]
	assert.Equal(t, 25, up.HitCount)
	assert.Greater(t, up.EnrichmentScore, 0.5)
	assert.Less(t, up.PValue, 0.01)
	assert.Less(t, up.FDR, 0.05)

	down := byID["DN1"]
	assert.Less(t, down.EnrichmentScore, -0.5)
	assert.Less(t, down.NormalizedScore, 0.0)
	assert.Less(t, down.PValue, 0.01)
}

func TestEngine_FiveGeneScenario(t *testing.T) {
	list, err := ranking.Build([]ranking.Pair{
		{Symbol: "G1", Value: "5.0"},
		{Symbol: "G2", Value: "3.0"},
		{Symbol: "G3", Value: "1.0"},
		{Symbol: "G4", Value: "-1.0"},
		{Symbol: "G5", Value: "-4.0"},
	})
	require.NoError(t, err)
	sets := []geneset.GeneSet{geneset.New("PW1", "Pathway one", []string{"G1", "G2", "G5"})}

	params := domain.DefaultParams()
	params.Permutations = 100
	params.Seed = 20240101

	results, err := NewEngine(internal.NewNopLogger()).Run(context.Background(), list, sets, params)
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, 3, r.HitCount)
	assert.Greater(t, r.EnrichmentScore, 0.0)
	assert.InDelta(t, 2.0/3.0, r.EnrichmentScore, 1e-12)
	assert.False(t, r.Degenerate)

	// Regression fixture for seed 20240101: 72 of the 100 null scores are
	// non-negative and 46 of those reach 2/3. With a single set the FDR
	// reduces to the nominal p-value.
	assert.InDelta(t, 0.9287469287469291, r.NormalizedScore, 1e-12)
	assert.InDelta(t, 46.0/72.0, r.PValue, 1e-12)
	assert.InDelta(t, 46.0/72.0, r.FDR, 1e-12)
}

func TestEngine_EmptyInputs(t *testing.T) {
	engine := NewEngine(internal.NewNopLogger())
	empty, err := ranking.Build(nil)
	require.NoError(t, err)

	results, err := engine.Run(context.Background(), empty, []geneset.GeneSet{geneset.New("A", "a", []string{"X"})}, domain.DefaultParams())
	require.NoError(t, err)
	assert.Empty(t, results)

	list, _ := syntheticFixture(t)
	results, err = engine.Run(context.Background(), list, nil, domain.DefaultParams())
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestEngine_Cancelled(t *testing.T) {
	list, sets := syntheticFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := NewEngine(internal.NewNopLogger()).Run(ctx, list, sets, testParams(1, 2))
	require.Error(t, err)
	assert.Nil(t, results)
	assert.True(t, errors.Is(err, core.ErrComputationAborted))
}

func TestEngine_InvalidParams(t *testing.T) {
	list, sets := syntheticFixture(t)
	engine := NewEngine(internal.NewNopLogger())

	params := testParams(1, 1)
	params.Permutations = 0
	_, err := engine.Run(context.Background(), list, sets, params)
	assert.True(t, errors.Is(err, core.ErrConfig))

	params = testParams(1, 1)
	params.NormMode = "median"
	_, err = engine.Run(context.Background(), list, sets, params)
	assert.True(t, errors.Is(err, core.ErrConfig))
}
