package ports

import (
	"context"

	"gogsea/domain/ranking"
)

// RankingReaderPort reads (symbol, value) pairs from a ranking file
type RankingReaderPort interface {
	ReadPairs(ctx context.Context, path string) ([]ranking.Pair, error)
}
