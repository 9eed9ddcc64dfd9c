package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"text/tabwriter"

	"gogsea/domain/enrichment"
	"gogsea/domain/geneset"
	"gogsea/ports"

	"github.com/montanaflynn/stats"
)

const (
	formatTable = "table"
	formatTSV   = "tsv"
	formatJSON  = "json"
)

func validFormat(format string) bool {
	switch format {
	case formatTable, formatTSV, formatJSON:
		return true
	}
	return false
}

var resultColumns = []string{"name", "stId", "hitCount", "score", "normalizedScore", "pvalue", "fdr"}

// writeResults renders the ordered report; NaN prints as NA in text formats
func writeResults(w io.Writer, format string, results []enrichment.AnalysisResult) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if results == nil {
			results = []enrichment.AnalysisResult{}
		}
		return enc.Encode(results)
	case formatTSV:
		if _, err := fmt.Fprintln(w, strings.Join(resultColumns, "\t")); err != nil {
			return err
		}
		for _, r := range results {
			if _, err := fmt.Fprintln(w, strings.Join(resultRow(r, 'g', -1), "\t")); err != nil {
				return err
			}
		}
		return nil
	case formatTable:
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, strings.ToUpper(strings.Join(resultColumns, "\t")))
		for _, r := range results {
			fmt.Fprintln(tw, strings.Join(resultRow(r, 'f', 4), "\t"))
		}
		return tw.Flush()
	}
	return fmt.Errorf("unknown format %q", format)
}

func resultRow(r enrichment.AnalysisResult, fmtByte byte, prec int) []string {
	num := func(v float64) string {
		if math.IsNaN(v) {
			return "NA"
		}
		return strconv.FormatFloat(v, fmtByte, prec, 64)
	}
	return []string{
		r.Pathway.Name,
		r.Pathway.StID,
		strconv.Itoa(r.HitCount),
		num(r.Score),
		num(r.NormalizedScore),
		num(r.PValue),
		num(r.FDR),
	}
}

// catalogSummary describes the gene set size distribution of a catalog
type catalogSummary struct {
	Species  string
	GeneSets int
	Genes    int
	MinSize  float64
	MaxSize  float64
	Mean     float64
	Median   float64
}

func summariseCatalog(catalog *geneset.Catalog) (catalogSummary, error) {
	summary := catalogSummary{Species: catalog.Species().String(), GeneSets: catalog.Len()}
	if catalog.Len() == 0 {
		return summary, nil
	}

	sizes := make(stats.Float64Data, 0, catalog.Len())
	genes := map[string]struct{}{}
	for _, gs := range catalog.Sets() {
		sizes = append(sizes, float64(gs.Size()))
		for m := range gs.Members {
			genes[m] = struct{}{}
		}
	}
	summary.Genes = len(genes)

	var err error
	if summary.MinSize, err = sizes.Min(); err != nil {
		return summary, err
	}
	if summary.MaxSize, err = sizes.Max(); err != nil {
		return summary, err
	}
	if summary.Mean, err = sizes.Mean(); err != nil {
		return summary, err
	}
	if summary.Median, err = sizes.Median(); err != nil {
		return summary, err
	}
	return summary, nil
}

func writeCatalogSummary(w io.Writer, s catalogSummary) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "species\t%s\n", s.Species)
	fmt.Fprintf(tw, "gene sets\t%d\n", s.GeneSets)
	fmt.Fprintf(tw, "distinct genes\t%d\n", s.Genes)
	fmt.Fprintf(tw, "set size\tmin %.0f, median %.1f, mean %.1f, max %.0f\n", s.MinSize, s.Median, s.Mean, s.MaxSize)
	tw.Flush()
}

func writeCatalogSets(w io.Writer, catalog *geneset.Catalog) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\nSTID\tNAME\tSIZE")
	for _, gs := range catalog.Sets() {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", gs.ID, gs.Name, gs.Size())
	}
	tw.Flush()
}

func writeRunList(w io.Writer, runs []*ports.AnalysisRun) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tSPECIES\tGENES\tSETS\tNPERMS\tSEED\tDURATION")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%dms\n",
			r.ID, r.CreatedAt.Time().Format("2006-01-02 15:04:05"), r.Species,
			r.RankingSize, r.GeneSetCount, r.Permutations, r.Seed, r.DurationMillis)
	}
	tw.Flush()
}
