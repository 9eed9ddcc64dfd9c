package testkit

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"gogsea/domain/core"
	"gogsea/domain/ranking"
	"gogsea/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpressionGenerator_Deterministic(t *testing.T) {
	cfg := DefaultExpressionConfig()
	a := NewExpressionGenerator(cfg)
	b := NewExpressionGenerator(cfg)

	assert.Equal(t, a.Pairs(), b.Pairs())
	assert.Equal(t, a.GeneSets(), b.GeneSets())
	assert.Equal(t, a.GeneSets(), a.GeneSets())
}

func TestExpressionGenerator_Shapes(t *testing.T) {
	cfg := DefaultExpressionConfig()
	gen := NewExpressionGenerator(cfg)

	list, err := ranking.Build(gen.Pairs())
	require.NoError(t, err)
	assert.Equal(t, cfg.GeneCount, list.Len())

	sets := gen.GeneSets()
	require.Len(t, sets, cfg.PathwayCount)
	for _, gs := range sets {
		assert.LessOrEqual(t, gs.Size(), cfg.MaxPathwaySize)
		assert.Greater(t, gs.Size(), 0)
	}

	// Planted-up pathways sit mostly in the top of the ranking.
	up := sets[0]
	topHalf := 0
	for m := range up.Members {
		if pos, _ := list.Position(m); pos < list.Len()/2 {
			topHalf++
		}
	}
	assert.Greater(t, topHalf, up.Size()/2)
}

func TestExpressionGenerator_TextRoundTrip(t *testing.T) {
	gen := NewExpressionGenerator(ExpressionGeneratorConfig{GeneCount: 20, PathwayCount: 2, MinPathwaySize: 3, MaxPathwaySize: 5, Seed: 7})
	pairs, err := ranking.ParseText(gen.Text())
	require.NoError(t, err)
	assert.Len(t, pairs, 20)
}

func TestWriteGMT(t *testing.T) {
	gen := NewExpressionGenerator(ExpressionGeneratorConfig{GeneCount: 20, PathwayCount: 2, MinPathwaySize: 3, MaxPathwaySize: 3, Seed: 7})
	var buf bytes.Buffer
	require.NoError(t, WriteGMT(&buf, gen.GeneSets()))
	assert.Contains(t, buf.String(), "Synthetic pathway 1\tR-SYN-0001\t")
}

func TestStaticCatalogs(t *testing.T) {
	kit := NewTestKit()
	cats := kit.CatalogAdapter()

	cat, err := cats.Catalog(context.Background(), core.SpeciesHuman)
	require.NoError(t, err)
	assert.Equal(t, DefaultExpressionConfig().PathwayCount, cat.Len())

	_, err = cats.Catalog(context.Background(), core.SpeciesMouse)
	assert.True(t, core.IsConfigError(err))

	cats.Fail(core.SpeciesMouse, errors.New("bucket missing"))
	_, err = cats.Catalog(context.Background(), core.SpeciesMouse)
	assert.True(t, core.IsCatalogError(err))
	assert.Equal(t, []core.Species{core.SpeciesHuman, core.SpeciesMouse}, cats.Species())
}

func TestInMemoryRunRepository(t *testing.T) {
	repo := NewInMemoryRunRepository()
	ctx := context.Background()

	first := &ports.AnalysisRun{ID: core.NewRunID(), Species: core.SpeciesHuman}
	second := &ports.AnalysisRun{ID: core.NewRunID(), Species: core.SpeciesMouse}
	require.NoError(t, repo.SaveRun(ctx, first))
	require.NoError(t, repo.SaveRun(ctx, second))
	assert.Error(t, repo.SaveRun(ctx, first))

	got, err := repo.GetRun(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, core.SpeciesMouse, got.Species)

	_, err = repo.GetRun(ctx, core.NewRunID())
	assert.ErrorIs(t, err, core.ErrRunNotFound)

	runs, err := repo.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second.ID, runs[0].ID)

	repo.FailWith(errors.New("disk full"))
	assert.Error(t, repo.SaveRun(ctx, &ports.AnalysisRun{ID: core.NewRunID()}))
	assert.Equal(t, 2, repo.Len())
}
