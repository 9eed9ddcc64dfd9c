package app

import (
	"fmt"
	"math"
	"sort"

	"gogsea/domain/enrichment"
	"gogsea/domain/geneset"
)

// ResultAssembler turns engine output into the ordered report
type ResultAssembler struct{}

// NewResultAssembler creates a result assembler
func NewResultAssembler() *ResultAssembler {
	return &ResultAssembler{}
}

// Assemble resolves every scored set back to its declared catalog identity
// and orders the rows by FDR ascending, then |NES| descending, then name and
// identifier. Undefined values sort last in both keys.
func (a *ResultAssembler) Assemble(scored []enrichment.ScoredGeneSet, catalog *geneset.Catalog) ([]enrichment.AnalysisResult, error) {
	results := make([]enrichment.AnalysisResult, 0, len(scored))
	for _, s := range scored {
		declared, ok := catalog.Resolve(s.GeneSet.ID, s.GeneSet.Name)
		if !ok {
			return nil, fmt.Errorf("scored gene set %q (%s) does not resolve to a catalog entry", s.GeneSet.Name, s.GeneSet.ID)
		}
		results = append(results, enrichment.AnalysisResult{
			Pathway:         enrichment.Pathway{Name: declared.Name, StID: declared.ID},
			HitCount:        s.HitCount,
			Score:           s.EnrichmentScore,
			NormalizedScore: s.NormalizedScore,
			PValue:          s.PValue,
			FDR:             s.FDR,
			Degenerate:      s.Degenerate,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return resultLess(results[i], results[j])
	})
	return results, nil
}

func resultLess(a, b enrichment.AnalysisResult) bool {
	if c := compareNaNLast(a.FDR, b.FDR); c != 0 {
		return c < 0
	}
	if c := compareNaNLast(-math.Abs(a.NormalizedScore), -math.Abs(b.NormalizedScore)); c != 0 {
		return c < 0
	}
	if a.Pathway.Name != b.Pathway.Name {
		return a.Pathway.Name < b.Pathway.Name
	}
	return a.Pathway.StID < b.Pathway.StID
}

// compareNaNLast orders ascending with NaN after every number.
func compareNaNLast(x, y float64) int {
	xn, yn := math.IsNaN(x), math.IsNaN(y)
	switch {
	case xn && yn:
		return 0
	case xn:
		return 1
	case yn:
		return -1
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}
