package ports

import "context"

// RNGPort supplies base seeds for analyses that do not pin one
type RNGPort interface {
	// NextSeed returns a fresh base seed. Replaying a run with the reported
	// seed reproduces its permutation statistics exactly.
	NextSeed(ctx context.Context) int64
}
