package enrichment

import (
	"math"
	"math/rand/v2"
	"testing"

	"gogsea/domain/geneset"
	"gogsea/domain/ranking"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// referenceES walks every ranking position, the textbook O(n) form.
func referenceES(rp *rankProfile, hits []int) float64 {
	k := len(hits)
	if k == 0 {
		return 0
	}
	isHit := make([]bool, rp.n)
	var hitWeight float64
	for _, h := range hits {
		isHit[h] = true
		hitWeight += rp.weights[h]
	}
	missStep := 0.0
	if rp.n > k {
		missStep = 1 / float64(rp.n-k)
	}

	var running, maxDev, minDev float64
	for i := 0; i < rp.n; i++ {
		switch {
		case !isHit[i]:
			running -= missStep
		case hitWeight > 0:
			running += rp.weights[i] / hitWeight
		default:
			running += 1 / float64(k)
		}
		maxDev = math.Max(maxDev, running)
		minDev = math.Min(minDev, running)
	}
	if maxDev >= -minDev {
		return maxDev
	}
	return minDev
}

func rankingOf(t *testing.T, scores ...float64) *ranking.RankedList {
	t.Helper()
	genes := make([]ranking.RankedGene, len(scores))
	for i, s := range scores {
		genes[i] = ranking.RankedGene{Symbol: geneName(i), Score: s}
	}
	list, err := ranking.FromGenes(genes)
	require.NoError(t, err)
	return list
}

func geneName(i int) string {
	return "G" + string(rune('A'+i/26)) + string(rune('A'+i%26))
}

func TestScore_WorkedExample(t *testing.T) {
	// Weights 5,3,1,1,4; hits at 0,1,4 sum to 12; miss step 1/2.
	// Walk: 5/12, 8/12, 1/6, -1/3, 0.
	list := rankingOf(t, 5, 3, 1, -1, -4)
	rp := newRankProfile(list, 1)

	es := rp.score([]int{0, 1, 4})
	assert.InDelta(t, 2.0/3.0, es, 1e-12)
}

func TestScore_BottomHitsAreNegative(t *testing.T) {
	list := rankingOf(t, 5, 4, 3, 2, 1, -1, -2, -3)
	rp := newRankProfile(list, 1)

	assert.Less(t, rp.score([]int{5, 6, 7}), 0.0)
	assert.Greater(t, rp.score([]int{0, 1, 2}), 0.0)
}

func TestScore_FullCoverageIsOne(t *testing.T) {
	list := rankingOf(t, 3, 2, 1)
	rp := newRankProfile(list, 1)
	assert.InDelta(t, 1.0, rp.score([]int{0, 1, 2}), 1e-12)
}

func TestScore_ZeroWeightHitsStepUniformly(t *testing.T) {
	list := rankingOf(t, 2, 0, 0, -2)
	rp := newRankProfile(list, 1)

	// Hits carry no weight, so each hit steps by 1/2.
	es := rp.score([]int{1, 2})
	assert.InDelta(t, referenceES(rp, []int{1, 2}), es, 1e-12)
	assert.InDelta(t, 0.5, es, 1e-12)
}

func TestScore_MatchesReferenceWalk(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	scores := make([]float64, 200)
	for i := range scores {
		scores[i] = rng.NormFloat64() * 3
	}
	list := rankingOf(t, scores...)

	for _, p := range []float64{0, 1, 1.5, 2} {
		rp := newRankProfile(list, p)
		smp := newSampler(rp.n)
		for trial := 0; trial < 200; trial++ {
			k := 1 + rng.IntN(40)
			hits := append([]int(nil), smp.draw(rng, k)...)
			assert.InDelta(t, referenceES(rp, hits), rp.score(hits), 1e-9, "p=%v k=%d", p, k)
		}
	}
}

func TestHitPositions_Sorted(t *testing.T) {
	list := rankingOf(t, 9, 8, 7, 6, 5)
	gs := geneset.New("S", "s", []string{geneName(4), geneName(0), geneName(2), "MISSING"})

	assert.Equal(t, []int{0, 2, 4}, hitPositions(list, gs))
}

func TestSampler_DistinctSortedAndRestored(t *testing.T) {
	smp := newSampler(50)
	rng := rand.New(rand.NewPCG(1, 2))

	for trial := 0; trial < 100; trial++ {
		out := smp.draw(rng, 10)
		require.Len(t, out, 10)
		seen := map[int]bool{}
		for i, v := range out {
			assert.False(t, seen[v], "duplicate position %d", v)
			seen[v] = true
			assert.True(t, v >= 0 && v < 50)
			if i > 0 {
				assert.Less(t, out[i-1], v)
			}
		}
		for i, v := range smp.perm {
			require.Equal(t, i, v, "permutation not restored")
		}
	}
}

func TestStreamSeed_DistinctUnits(t *testing.T) {
	seen := map[[2]uint64]bool{}
	for set := 0; set < 20; set++ {
		for perm := 0; perm < 20; perm++ {
			a, b := streamSeed(42, set, perm)
			key := [2]uint64{a, b}
			assert.False(t, seen[key])
			seen[key] = true
		}
	}
	a1, b1 := streamSeed(42, 3, 4)
	a2, b2 := streamSeed(42, 3, 4)
	assert.Equal(t, a1, a2)
	assert.Equal(t, b1, b2)
}
