package enrichment

import (
	"context"
	"math/rand/v2"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"gogsea/domain/core"
)

// cancelCheckInterval is how many permutations run between context checks.
const cancelCheckInterval = 32

// sampler draws k distinct positions out of n with a partial Fisher-Yates
// shuffle. Swaps are undone after each draw so every draw starts from the
// identity permutation and depends only on the random stream.
type sampler struct {
	perm  []int
	swaps []int
	out   []int
}

func newSampler(n int) *sampler {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	return &sampler{perm: perm}
}

func (s *sampler) draw(rng *rand.Rand, k int) []int {
	n := len(s.perm)
	s.swaps = s.swaps[:0]
	for t := 0; t < k; t++ {
		j := t + rng.IntN(n-t)
		s.perm[t], s.perm[j] = s.perm[j], s.perm[t]
		s.swaps = append(s.swaps, j)
	}
	s.out = append(s.out[:0], s.perm[:k]...)
	for t := k - 1; t >= 0; t-- {
		j := s.swaps[t]
		s.perm[t], s.perm[j] = s.perm[j], s.perm[t]
	}
	slices.Sort(s.out)
	return s.out
}

// splitmix64 finalizer; spreads neighbouring unit indices across the seed space.
func mix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// streamSeed derives the PCG state for one (gene set, permutation) unit.
func streamSeed(seed int64, set, perm int) (uint64, uint64) {
	base := mix64(uint64(seed))
	return mix64(base ^ uint64(set)), mix64(base ^ (uint64(perm) << 1) ^ 0x5851f42d4c957f2d)
}

// generateNull scores Permutations random gene sets of the same size as
// each real set against the fixed ranking. Row i of the result is the null
// distribution for set i.
//
// Work is spread over a fixed pool of workers; each (set, permutation) unit
// draws from its own stream, so the matrix is identical for a given seed
// regardless of scheduling. Either every row completes or an error wrapping
// ErrComputationAborted is returned.
func generateNull(ctx context.Context, rp *rankProfile, hitCounts []int, params nullParams) ([][]float64, error) {
	null := make([][]float64, len(hitCounts))
	samplers := sync.Pool{New: func() any { return newSampler(rp.n) }}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(params.workers)

	for i, k := range hitCounts {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			smp := samplers.Get().(*sampler)
			defer samplers.Put(smp)

			src := rand.NewPCG(0, 0)
			rng := rand.New(src)
			row := make([]float64, params.permutations)
			for p := range row {
				if p%cancelCheckInterval == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				src.Seed(streamSeed(params.seed, i, p))
				row[p] = rp.score(smp.draw(rng, k))
			}
			null[i] = row
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, core.NewAbortedError(err)
	}
	if err := ctx.Err(); err != nil {
		return nil, core.NewAbortedError(err)
	}
	return null, nil
}

type nullParams struct {
	permutations int
	seed         int64
	workers      int
}
