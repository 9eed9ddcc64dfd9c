package enrichment

import (
	"math"
	"slices"

	"gogsea/domain/geneset"
	"gogsea/domain/ranking"
)

// rankProfile holds the per-position hit weights |r_i|^p of a fixed ranking.
type rankProfile struct {
	n       int
	weights []float64
}

func newRankProfile(list *ranking.RankedList, p float64) *rankProfile {
	n := list.Len()
	weights := make([]float64, n)
	for i := 0; i < n; i++ {
		abs := math.Abs(list.Gene(i).Score)
		switch p {
		case 0:
			weights[i] = 1
		case 1:
			weights[i] = abs
		default:
			weights[i] = math.Pow(abs, p)
		}
	}
	return &rankProfile{n: n, weights: weights}
}

// hitPositions returns the sorted ranking positions of the set's members.
func hitPositions(list *ranking.RankedList, gs geneset.GeneSet) []int {
	hits := make([]int, 0, len(gs.Members))
	for m := range gs.Members {
		if pos, ok := list.Position(m); ok {
			hits = append(hits, pos)
		}
	}
	slices.Sort(hits)
	return hits
}

// score computes the weighted running-sum enrichment statistic for sorted
// hit positions.
//
// Between hits the walk only decreases, so its maximum is reached right
// after a hit and its minimum right before one; the walk ends at zero.
// That lets the score be evaluated in O(k) instead of O(n). The extreme of
// largest magnitude is returned, the positive one on a tie.
func (rp *rankProfile) score(hits []int) float64 {
	k := len(hits)
	if k == 0 {
		return 0
	}

	var hitWeight float64
	for _, h := range hits {
		hitWeight += rp.weights[h]
	}

	missStep := 0.0
	if rp.n > k {
		missStep = 1 / float64(rp.n-k)
	}
	uniformStep := 1 / float64(k)

	var running, maxDev, minDev float64
	for j, h := range hits {
		misses := float64(h - j)
		if before := running - misses*missStep; before < minDev {
			minDev = before
		}
		if hitWeight > 0 {
			running += rp.weights[h] / hitWeight
		} else {
			running += uniformStep
		}
		if after := running - misses*missStep; after > maxDev {
			maxDev = after
		}
	}

	if maxDev >= -minDev {
		return maxDev
	}
	return minDev
}
