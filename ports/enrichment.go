package ports

import (
	"context"

	"gogsea/domain/enrichment"
	"gogsea/domain/geneset"
	"gogsea/domain/ranking"
)

// EnrichmentPort scores filtered gene sets against a ranking
type EnrichmentPort interface {
	Run(ctx context.Context, list *ranking.RankedList, sets []geneset.GeneSet, params enrichment.Params) ([]enrichment.ScoredGeneSet, error)
}
