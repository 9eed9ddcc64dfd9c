package ranking

import (
	"strings"

	"gogsea/domain/core"
)

// ParseText splits a text/plain ranking payload into pairs.
// Each non-blank line is symbol<TAB>value; extra trailing fields are
// ignored and lines starting with '#' are comments.
func ParseText(payload string) ([]Pair, error) {
	lines := strings.Split(payload, "\n")
	pairs := make([]Pair, 0, len(lines))

	for i, raw := range lines {
		line := strings.TrimRight(raw, "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}

		fields := nonEmpty(strings.Split(line, "\t"))
		if len(fields) < 2 {
			// .rnk files exported by some tools use spaces.
			fields = strings.Fields(line)
		}
		if len(fields) < 2 {
			return nil, core.NewParseError(i+1, "expected symbol<TAB>value, got %q", line)
		}
		pairs = append(pairs, Pair{Symbol: fields[0], Value: fields[1], Line: i + 1})
	}

	return pairs, nil
}

// FoldSymbols upper-cases every symbol in place.
func FoldSymbols(pairs []Pair) {
	for i := range pairs {
		pairs[i].Symbol = strings.ToUpper(strings.TrimSpace(pairs[i].Symbol))
	}
}

func nonEmpty(fields []string) []string {
	out := fields[:0]
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
