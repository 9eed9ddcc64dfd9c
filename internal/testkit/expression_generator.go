package testkit

import (
	"fmt"
	"io"
	"math/rand"
	"sort"
	"strconv"
	"strings"

	"gogsea/domain/core"
	"gogsea/domain/geneset"
	"gogsea/domain/ranking"
)

// ExpressionGeneratorConfig configures the synthetic ranking and catalog generator
type ExpressionGeneratorConfig struct {
	GeneCount      int   `json:"gene_count"`
	PathwayCount   int   `json:"pathway_count"`
	PlantedUp      int   `json:"planted_up"`   // pathways drawn from the top of the ranking
	PlantedDown    int   `json:"planted_down"` // pathways drawn from the bottom
	MinPathwaySize int   `json:"min_pathway_size"`
	MaxPathwaySize int   `json:"max_pathway_size"`
	Seed           int64 `json:"seed"`
}

// DefaultExpressionConfig returns a small but realistic setup
func DefaultExpressionConfig() ExpressionGeneratorConfig {
	return ExpressionGeneratorConfig{
		GeneCount:      2000,
		PathwayCount:   60,
		PlantedUp:      3,
		PlantedDown:    2,
		MinPathwaySize: 10,
		MaxPathwaySize: 120,
		Seed:           42,
	}
}

// ExpressionGenerator produces a differential-expression style ranking and
// a catalog whose first pathways are enriched at either end of it.
type ExpressionGenerator struct {
	config  ExpressionGeneratorConfig
	rng     *rand.Rand
	symbols []string
	scores  []float64
	sets    []geneset.GeneSet
}

// NewExpressionGenerator creates a generator; output is a pure function of config
func NewExpressionGenerator(config ExpressionGeneratorConfig) *ExpressionGenerator {
	g := &ExpressionGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
	g.symbols = make([]string, config.GeneCount)
	g.scores = make([]float64, config.GeneCount)
	for i := range g.symbols {
		g.symbols[i] = GeneSymbol(i)
		g.scores[i] = g.rng.NormFloat64() * 1.5
	}
	g.sets = g.generateSets()
	return g
}

// GeneSymbol names the i-th synthetic gene
func GeneSymbol(i int) string {
	return fmt.Sprintf("GENE%05d", i)
}

// PathwayID names the i-th synthetic pathway
func PathwayID(i int) string {
	return fmt.Sprintf("R-SYN-%04d", i+1)
}

// Pairs returns the ranking as text pairs in generation (unsorted) order
func (g *ExpressionGenerator) Pairs() []ranking.Pair {
	pairs := make([]ranking.Pair, len(g.symbols))
	for i, s := range g.symbols {
		pairs[i] = ranking.Pair{Symbol: s, Value: strconv.FormatFloat(g.scores[i], 'g', -1, 64), Line: i + 1}
	}
	return pairs
}

// Text renders the ranking as a text/plain payload
func (g *ExpressionGenerator) Text() string {
	var b strings.Builder
	for _, p := range g.Pairs() {
		b.WriteString(p.Symbol)
		b.WriteByte('\t')
		b.WriteString(p.Value)
		b.WriteByte('\n')
	}
	return b.String()
}

// GeneSets returns the pathways in declaration order
func (g *ExpressionGenerator) GeneSets() []geneset.GeneSet {
	return append([]geneset.GeneSet(nil), g.sets...)
}

// generateSets builds the pathways. Planted pathways come first and take
// most of their members from the top (or bottom) tenth of the ranking.
func (g *ExpressionGenerator) generateSets() []geneset.GeneSet {
	order := make([]int, len(g.symbols))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return g.scores[order[a]] > g.scores[order[b]] })

	tenth := len(order) / 10
	if tenth < 1 {
		tenth = 1
	}
	top := order[:tenth]
	bottom := order[len(order)-tenth:]

	sets := make([]geneset.GeneSet, 0, g.config.PathwayCount)
	for i := 0; i < g.config.PathwayCount; i++ {
		size := g.config.MinPathwaySize
		if span := g.config.MaxPathwaySize - g.config.MinPathwaySize; span > 0 {
			size += g.rng.Intn(span + 1)
		}

		var pool []int
		switch {
		case i < g.config.PlantedUp:
			pool = top
		case i < g.config.PlantedUp+g.config.PlantedDown:
			pool = bottom
		}

		members := make([]string, 0, size)
		for j := 0; j < size; j++ {
			if pool != nil && g.rng.Float64() < 0.8 {
				members = append(members, g.symbols[pool[g.rng.Intn(len(pool))]])
				continue
			}
			members = append(members, g.symbols[g.rng.Intn(len(g.symbols))])
		}
		sets = append(sets, geneset.New(PathwayID(i), fmt.Sprintf("Synthetic pathway %d", i+1), members))
	}
	return sets
}

// Catalog wraps GeneSets for species
func (g *ExpressionGenerator) Catalog(species core.Species) *geneset.Catalog {
	return geneset.NewCatalog(species, g.GeneSets())
}

// WriteGMT renders sets in GMT format
func WriteGMT(w io.Writer, sets []geneset.GeneSet) error {
	for _, gs := range sets {
		fields := append([]string{gs.Name, gs.ID}, gs.SortedMembers()...)
		if _, err := io.WriteString(w, strings.Join(fields, "\t")+"\n"); err != nil {
			return err
		}
	}
	return nil
}
