package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gogsea/domain/core"
	"gogsea/domain/ranking"
	"gogsea/internal"

	"github.com/xuri/excelize/v2"
)

// RankingReader reads ranking files: .xlsx via excelize, .csv, and
// tab-separated .rnk/.tsv/.txt.
type RankingReader struct {
	logger *internal.Logger
}

// NewRankingReader creates a reader that logs through logger
func NewRankingReader(logger *internal.Logger) *RankingReader {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	return &RankingReader{logger: logger}
}

// ReadPairs returns the (symbol, value) pairs of the file at path in file order.
func (r *RankingReader) ReadPairs(ctx context.Context, path string) ([]ranking.Pair, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("ranking file %s: %w", path, err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	r.logger.Debug("[RankingReader] reading %s file: %s", ext, path)

	switch ext {
	case ".xlsx", ".xlsm":
		rows, err := r.readExcelRows(path)
		if err != nil {
			return nil, err
		}
		return pairsFromRows(rows, nil)
	case ".csv":
		rows, lines, err := r.readCSVRows(path)
		if err != nil {
			return nil, err
		}
		return pairsFromRows(rows, lines)
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read ranking file: %w", err)
		}
		return ranking.ParseText(string(data))
	}
}

// readExcelRows reads the first sheet of a workbook
func (r *RankingReader) readExcelRows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, core.NewParseError(0, "workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	r.logger.Debug("[RankingReader] sheet %s read (%d rows)", sheets[0], len(rows))
	return rows, nil
}

// readCSVRows returns the records and the file line each one started on
func (r *RankingReader) readCSVRows(path string) ([][]string, []int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.Comment = '#'
	var rows [][]string
	var lines []int
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, core.NewParseError(0, "csv: %v", err)
		}
		line, _ := reader.FieldPos(0)
		rows = append(rows, rec)
		lines = append(lines, line)
	}
	return rows, lines, nil
}

// pairsFromRows takes the first two columns of each row. A first row whose
// value cell is not numeric is treated as a header. lines maps rows to
// source line numbers; nil means row index + 1.
func pairsFromRows(rows [][]string, lines []int) ([]ranking.Pair, error) {
	pairs := make([]ranking.Pair, 0, len(rows))
	for i, row := range rows {
		line := i + 1
		if lines != nil {
			line = lines[i]
		}
		if isBlankRow(row) {
			continue
		}
		if len(row) < 2 || strings.TrimSpace(row[1]) == "" {
			return nil, core.NewParseError(line, "expected symbol and value columns")
		}
		if i == 0 {
			if _, err := ranking.ParseScore(row[1]); err != nil {
				continue
			}
		}
		pairs = append(pairs, ranking.Pair{Symbol: strings.TrimSpace(row[0]), Value: row[1], Line: line})
	}
	return pairs, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
