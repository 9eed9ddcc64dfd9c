package enrichment

import (
	"fmt"
	"math"
	"runtime"

	"gogsea/domain/core"
	"gogsea/domain/geneset"
)

// NormMode selects how enrichment scores are normalized.
type NormMode string

const (
	// NormMeanDiv divides ES by the mean of the same-sign null scores.
	NormMeanDiv NormMode = "meandiv"
	// NormNone reports NES equal to ES.
	NormNone NormMode = "none"
)

const (
	DefaultPermutations = 1000
	DefaultWeight       = 1.0
)

// Params configures one engine run.
type Params struct {
	Permutations int      // null rounds per gene set
	Weight       float64  // exponent p applied to |score|
	Seed         int64    // drives every permutation stream
	Workers      int      // permutation worker pool size
	NormMode     NormMode // ES normalization
}

// DefaultParams returns 1000 permutations, classic weighting (p=1),
// mean-division normalization and one worker per core. Seed is zero;
// callers set it per request.
func DefaultParams() Params {
	return Params{
		Permutations: DefaultPermutations,
		Weight:       DefaultWeight,
		Workers:      runtime.NumCPU(),
		NormMode:     NormMeanDiv,
	}
}

// Validate checks parameter ranges.
func (p Params) Validate() error {
	if p.Permutations < 1 {
		return core.NewConfigError("nperms", fmt.Sprintf("must be at least 1, got %d", p.Permutations))
	}
	if p.Weight < 0 || math.IsNaN(p.Weight) || math.IsInf(p.Weight, 0) {
		return core.NewConfigError("weight", fmt.Sprintf("must be a finite non-negative number, got %v", p.Weight))
	}
	switch p.NormMode {
	case NormMeanDiv, NormNone:
	default:
		return core.NewConfigError("normMode", fmt.Sprintf("unsupported mode %q", p.NormMode))
	}
	return nil
}

// ScoredGeneSet carries the statistics computed for one gene set.
// Degenerate is set when the same-sign null pool was empty; NES, PValue and
// FDR are NaN in that case.
type ScoredGeneSet struct {
	GeneSet         geneset.GeneSet
	HitCount        int
	EnrichmentScore float64
	NormalizedScore float64
	PValue          float64
	FDR             float64
	Degenerate      bool
}

// Positive reports the sign group of the observed score (zero counts as positive).
func (s ScoredGeneSet) Positive() bool {
	return s.EnrichmentScore >= 0
}

// Reason explains why the set's statistics are undefined, or returns nil.
func (s ScoredGeneSet) Reason() error {
	if !s.Degenerate {
		return nil
	}
	sign := "positive"
	if !s.Positive() {
		sign = "negative"
	}
	return fmt.Errorf("%w: gene set %s has no %s null scores", core.ErrDegenerateNull, s.GeneSet.ID, sign)
}
