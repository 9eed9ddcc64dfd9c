package gmt

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"gogsea/domain/geneset"
)

// maxLineBytes bounds a single GMT record; large pathways list thousands of members.
const maxLineBytes = 4 << 20

// ParseOptions controls symbol normalization while parsing.
type ParseOptions struct {
	UpperSymbols bool // fold member symbols to upper case
}

// Parse reads records of the form name<TAB>stableId<TAB>member...
// Blank lines are skipped; a record with fewer than two fields is malformed.
func Parse(r io.Reader, opts ParseOptions) ([]geneset.GeneSet, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	var sets []geneset.GeneSet
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: expected name and identifier, got %d field(s)", lineNo, len(fields))
		}
		name := strings.TrimSpace(fields[0])
		id := strings.TrimSpace(fields[1])
		if name == "" && id == "" {
			return nil, fmt.Errorf("line %d: gene set has neither name nor identifier", lineNo)
		}

		members := fields[2:]
		if opts.UpperSymbols {
			for i, m := range members {
				members[i] = strings.ToUpper(m)
			}
		}
		sets = append(sets, geneset.New(id, name, members))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("line %d: %w", lineNo+1, err)
	}
	return sets, nil
}
