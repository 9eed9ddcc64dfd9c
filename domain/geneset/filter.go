package geneset

import (
	"fmt"

	"gogsea/domain/core"
	"gogsea/domain/ranking"
)

const (
	DefaultMinSize = 3
	DefaultMaxSize = 500
)

// SizeBounds limits the overlap between a gene set and the ranking.
// Both ends are inclusive.
type SizeBounds struct {
	Min int
	Max int
}

// DefaultSizeBounds returns the [3, 500] window.
func DefaultSizeBounds() SizeBounds {
	return SizeBounds{Min: DefaultMinSize, Max: DefaultMaxSize}
}

// Validate rejects inverted or negative bounds.
func (b SizeBounds) Validate() error {
	if b.Min < 0 {
		return core.NewConfigError("dataSetSizeMin", fmt.Sprintf("must be non-negative, got %d", b.Min))
	}
	if b.Min > b.Max {
		return core.NewConfigError("dataSetSizeMin", fmt.Sprintf("%d exceeds dataSetSizeMax %d", b.Min, b.Max))
	}
	return nil
}

// Contains reports whether n is inside the bounds.
func (b SizeBounds) Contains(n int) bool {
	return n >= b.Min && n <= b.Max
}

// Overlap counts members present in the ranking.
func Overlap(gs GeneSet, list *ranking.RankedList) int {
	n := 0
	for m := range gs.Members {
		if list.Contains(m) {
			n++
		}
	}
	return n
}

// Filter selects, in catalog order, the gene sets whose overlap with the
// ranking falls within bounds. Sets with no overlap are always excluded.
// Gene set contents are returned unchanged.
func Filter(list *ranking.RankedList, catalog *Catalog, bounds SizeBounds) ([]GeneSet, error) {
	if err := bounds.Validate(); err != nil {
		return nil, err
	}

	selected := make([]GeneSet, 0)
	if list.Len() == 0 || catalog.Len() == 0 {
		return selected, nil
	}

	for _, gs := range catalog.Sets() {
		n := Overlap(gs, list)
		if n == 0 || !bounds.Contains(n) {
			continue
		}
		selected = append(selected, gs)
	}
	return selected, nil
}
