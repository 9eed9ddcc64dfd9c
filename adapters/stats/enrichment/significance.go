package enrichment

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"

	domain "gogsea/domain/enrichment"
)

// setStats is the phase-two outcome for one gene set.
type setStats struct {
	nes        float64
	pValue     float64
	fdr        float64
	degenerate bool
}

// signedNull splits one gene set's null scores by sign. Zero counts as
// positive, matching the sign convention for observed scores.
type signedNull struct {
	pos []float64
	neg []float64
}

func splitBySign(row []float64) signedNull {
	var s signedNull
	for _, v := range row {
		if v >= 0 {
			s.pos = append(s.pos, v)
		} else {
			s.neg = append(s.neg, v)
		}
	}
	return s
}

// absMean returns |mean(xs)|, or 0 when xs is empty.
func absMean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m, err := stats.Mean(xs)
	if err != nil {
		return 0
	}
	return math.Abs(m)
}

// nominalP is the fraction of same-sign null scores at least as extreme as es.
func nominalP(es float64, null signedNull) float64 {
	if es >= 0 {
		if len(null.pos) == 0 {
			return math.NaN()
		}
		n := 0
		for _, v := range null.pos {
			if v >= es {
				n++
			}
		}
		return float64(n) / float64(len(null.pos))
	}
	if len(null.neg) == 0 {
		return math.NaN()
	}
	n := 0
	for _, v := range null.neg {
		if v <= es {
			n++
		}
	}
	return float64(n) / float64(len(null.neg))
}

// normalize derives NES, nominal p-values and FDR q-values from the
// observed scores and the permutation matrix.
//
// Each set is normalized by the mean of its own same-sign null scores; the
// null NES values of all sets are then pooled by sign to estimate the FDR.
func normalize(observed []float64, null [][]float64, mode domain.NormMode) []setStats {
	out := make([]setStats, len(observed))
	var poolPos, poolNeg []float64

	for i, es := range observed {
		split := splitBySign(null[i])
		pValue := nominalP(es, split)

		posMean, negMean := absMean(split.pos), absMean(split.neg)
		if mode == domain.NormNone {
			posMean, negMean = 1, 1
		}

		// Null NES contributions are kept whenever a denominator exists,
		// even if this set's own sign group turns out to be degenerate.
		// Observed and null values are both scaled by multiplying with the
		// same reciprocal so equal raw scores stay equal.
		if posMean > 0 {
			floats.Scale(1/posMean, split.pos)
			poolPos = append(poolPos, split.pos...)
		}
		if negMean > 0 {
			floats.Scale(1/negMean, split.neg)
			poolNeg = append(poolNeg, split.neg...)
		}

		denom := posMean
		if es < 0 {
			denom = negMean
		}
		if denom == 0 || math.IsNaN(pValue) {
			out[i] = setStats{nes: math.NaN(), pValue: math.NaN(), fdr: math.NaN(), degenerate: true}
			continue
		}
		out[i] = setStats{nes: es * (1 / denom), pValue: pValue}
	}

	estimateFDR(out, poolPos, poolNeg)
	return out
}

// estimateFDR fills the fdr field of every non-degenerate entry:
//
//	q = P(null NES at least as extreme) / P(observed NES at least as extreme)
//
// computed within the sign group, clipped to [0,1], then made monotone so
// that q never decreases as |NES| decreases.
func estimateFDR(sets []setStats, poolPos, poolNeg []float64) {
	var obsPos, obsNeg []float64
	for _, s := range sets {
		if s.degenerate {
			continue
		}
		if s.nes >= 0 {
			obsPos = append(obsPos, s.nes)
		} else {
			obsNeg = append(obsNeg, s.nes)
		}
	}
	sort.Float64s(poolPos)
	sort.Float64s(poolNeg)
	sort.Float64s(obsPos)
	sort.Float64s(obsNeg)

	for i := range sets {
		s := &sets[i]
		if s.degenerate {
			continue
		}
		var nullFrac, obsFrac float64
		if s.nes >= 0 {
			nullFrac = fraction(countAtLeast(poolPos, s.nes), len(poolPos))
			obsFrac = fraction(countAtLeast(obsPos, s.nes), len(obsPos))
		} else {
			nullFrac = fraction(countAtMost(poolNeg, s.nes), len(poolNeg))
			obsFrac = fraction(countAtMost(obsNeg, s.nes), len(obsNeg))
		}
		switch {
		case math.IsNaN(nullFrac):
			s.fdr = math.NaN()
			s.degenerate = true
		case obsFrac == 0:
			s.fdr = 1
		default:
			s.fdr = math.Min(nullFrac/obsFrac, 1)
		}
	}

	enforceMonotone(sets)
}

// enforceMonotone walks sets from the least to the most extreme |NES| and
// replaces each q-value with the running minimum. Entries with equal |NES|
// share the minimum of their group.
func enforceMonotone(sets []setStats) {
	idx := make([]int, 0, len(sets))
	for i, s := range sets {
		if !s.degenerate {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return math.Abs(sets[idx[a]].nes) < math.Abs(sets[idx[b]].nes)
	})

	running := 1.0
	for start := 0; start < len(idx); {
		end := start
		level := math.Abs(sets[idx[start]].nes)
		groupMin := running
		for end < len(idx) && math.Abs(sets[idx[end]].nes) == level {
			groupMin = math.Min(groupMin, sets[idx[end]].fdr)
			end++
		}
		running = groupMin
		for _, i := range idx[start:end] {
			sets[i].fdr = running
		}
		start = end
	}
}

// countAtLeast counts values >= x in an ascending slice.
func countAtLeast(sorted []float64, x float64) int {
	return len(sorted) - sort.SearchFloat64s(sorted, x)
}

// countAtMost counts values <= x in an ascending slice.
func countAtMost(sorted []float64, x float64) int {
	return sort.Search(len(sorted), func(i int) bool { return sorted[i] > x })
}

func fraction(n, total int) float64 {
	if total == 0 {
		return math.NaN()
	}
	return float64(n) / float64(total)
}
