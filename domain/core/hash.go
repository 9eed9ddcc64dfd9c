package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Short returns the first 12 hex characters, enough for log correlation.
func (h Hash) Short() string {
	if len(h) <= 12 {
		return string(h)
	}
	return string(h[:12])
}

// ComputeRankingHash fingerprints a ranking so replays of the same input can
// be matched in the run ledger. Order matters: symbols and scores are hashed
// in ranking order.
func ComputeRankingHash(symbols []string, scores []float64) Hash {
	var data strings.Builder
	for i, s := range symbols {
		data.WriteString(s)
		data.WriteByte('\t')
		data.WriteString(fmt.Sprintf("%g", scores[i]))
		data.WriteByte('\n')
	}
	return NewHash([]byte(data.String()))
}
