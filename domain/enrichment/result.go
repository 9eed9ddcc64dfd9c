package enrichment

import (
	"encoding/json"
	"math"
)

// Pathway identifies a gene set in the output: display name and the
// catalog-stable identifier.
type Pathway struct {
	Name string `json:"name"`
	StID string `json:"stId"`
}

// AnalysisResult is one row of the final report, resolved back to the
// catalog's declared identity.
type AnalysisResult struct {
	Pathway         Pathway
	HitCount        int
	Score           float64
	NormalizedScore float64
	PValue          float64
	FDR             float64
	Degenerate      bool
}

// resultJSON is the wire form; undefined statistics travel as null.
type resultJSON struct {
	Pathway         Pathway  `json:"pathway"`
	HitCount        int      `json:"hitCount"`
	Score           *float64 `json:"score"`
	NormalizedScore *float64 `json:"normalizedScore"`
	PValue          *float64 `json:"pvalue"`
	FDR             *float64 `json:"fdr"`
	Degenerate      bool     `json:"degenerate,omitempty"`
}

// MarshalJSON encodes NaN and infinite values as null.
func (r AnalysisResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(resultJSON{
		Pathway:         r.Pathway,
		HitCount:        r.HitCount,
		Score:           finiteOrNil(r.Score),
		NormalizedScore: finiteOrNil(r.NormalizedScore),
		PValue:          finiteOrNil(r.PValue),
		FDR:             finiteOrNil(r.FDR),
		Degenerate:      r.Degenerate,
	})
}

// UnmarshalJSON decodes null statistics back to NaN.
func (r *AnalysisResult) UnmarshalJSON(data []byte) error {
	var raw resultJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = AnalysisResult{
		Pathway:         raw.Pathway,
		HitCount:        raw.HitCount,
		Score:           valueOrNaN(raw.Score),
		NormalizedScore: valueOrNaN(raw.NormalizedScore),
		PValue:          valueOrNaN(raw.PValue),
		FDR:             valueOrNaN(raw.FDR),
		Degenerate:      raw.Degenerate,
	}
	return nil
}

func finiteOrNil(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func valueOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
