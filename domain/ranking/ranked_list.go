package ranking

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"gogsea/domain/core"
)

// Pair is one raw (symbol, score text) record as received from a client.
// Line is the 1-based source line or record index, used in error messages.
type Pair struct {
	Symbol string
	Value  string
	Line   int
}

// RankedGene is a single entry in a ranking.
type RankedGene struct {
	Symbol string  `json:"symbol"`
	Score  float64 `json:"score"`
}

// RankedList is a deduplicated ranking sorted by score descending.
// It is immutable once built.
type RankedList struct {
	genes    []RankedGene
	position map[string]int
}

// Build turns raw pairs into a canonical ranking.
//
// Duplicate symbols keep the value of their last occurrence, and that
// occurrence also decides the tie-break order: equal scores stay in the
// order their last-kept occurrences appeared in the input.
func Build(pairs []Pair) (*RankedList, error) {
	type entry struct {
		score float64
		order int
	}

	latest := make(map[string]entry, len(pairs))
	for i, p := range pairs {
		symbol := strings.TrimSpace(p.Symbol)
		if symbol == "" {
			return nil, core.NewParseError(lineOf(p, i), "empty gene symbol")
		}
		score, err := ParseScore(p.Value)
		if err != nil {
			return nil, core.NewParseError(lineOf(p, i), "gene %s: %v", symbol, err)
		}
		latest[symbol] = entry{score: score, order: i}
	}

	genes := make([]RankedGene, 0, len(latest))
	orders := make(map[string]int, len(latest))
	for symbol, e := range latest {
		genes = append(genes, RankedGene{Symbol: symbol, Score: e.score})
		orders[symbol] = e.order
	}

	// Map iteration is random, so restore input order before the stable sort.
	sort.Slice(genes, func(i, j int) bool {
		return orders[genes[i].Symbol] < orders[genes[j].Symbol]
	})
	sort.SliceStable(genes, func(i, j int) bool {
		return genes[i].Score > genes[j].Score
	})

	return newRankedList(genes), nil
}

// FromGenes builds a ranking from already-parsed genes, applying the same
// deduplication and ordering rules as Build.
func FromGenes(genes []RankedGene) (*RankedList, error) {
	pairs := make([]Pair, len(genes))
	for i, g := range genes {
		pairs[i] = Pair{Symbol: g.Symbol, Value: strconv.FormatFloat(g.Score, 'g', -1, 64), Line: i + 1}
	}
	return Build(pairs)
}

func newRankedList(genes []RankedGene) *RankedList {
	position := make(map[string]int, len(genes))
	for i, g := range genes {
		position[g.Symbol] = i
	}
	return &RankedList{genes: genes, position: position}
}

// ParseScore parses a score value; only finite numbers are accepted.
func ParseScore(text string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, strconv.ErrRange
	}
	return v, nil
}

func lineOf(p Pair, index int) int {
	if p.Line > 0 {
		return p.Line
	}
	return index + 1
}

// Len returns the number of distinct genes.
func (l *RankedList) Len() int {
	if l == nil {
		return 0
	}
	return len(l.genes)
}

// Gene returns the gene at position i (0 is the highest score).
func (l *RankedList) Gene(i int) RankedGene {
	return l.genes[i]
}

// Genes returns a copy of the ranking.
func (l *RankedList) Genes() []RankedGene {
	if l == nil {
		return nil
	}
	out := make([]RankedGene, len(l.genes))
	copy(out, l.genes)
	return out
}

// Position returns the 0-based rank of symbol.
func (l *RankedList) Position(symbol string) (int, bool) {
	if l == nil {
		return 0, false
	}
	i, ok := l.position[symbol]
	return i, ok
}

// Contains reports whether symbol is ranked.
func (l *RankedList) Contains(symbol string) bool {
	_, ok := l.Position(symbol)
	return ok
}

// Symbols returns the ranked symbols in order.
func (l *RankedList) Symbols() []string {
	if l == nil {
		return nil
	}
	out := make([]string, len(l.genes))
	for i, g := range l.genes {
		out[i] = g.Symbol
	}
	return out
}

// Scores returns the ranked scores in order.
func (l *RankedList) Scores() []float64 {
	if l == nil {
		return nil
	}
	out := make([]float64, len(l.genes))
	for i, g := range l.genes {
		out[i] = g.Score
	}
	return out
}

// Fingerprint hashes the canonical ranking.
func (l *RankedList) Fingerprint() core.Hash {
	return core.ComputeRankingHash(l.Symbols(), l.Scores())
}
