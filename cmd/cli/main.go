package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"gogsea/adapters/excel"
	"gogsea/adapters/gmt"
	"gogsea/adapters/rng"
	"gogsea/adapters/s3"
	"gogsea/adapters/sqlstore"
	"gogsea/adapters/stats/enrichment"
	"gogsea/app"
	"gogsea/domain/core"
	"gogsea/domain/geneset"
	"gogsea/internal"
	"gogsea/internal/config"
	"gogsea/ports"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:          "gogsea",
		Short:        "Preranked gene set enrichment analysis",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("log-level", "WARN", "Log level: ERROR|WARN|INFO|DEBUG|TRACE")

	rootCmd.AddCommand(
		newAnalyseCmd(),
		newCatalogCmd(),
		newRunsCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(cmd *cobra.Command) *internal.Logger {
	level, _ := cmd.Flags().GetString("log-level")
	return internal.NewLoggerTo(os.Stderr, internal.ParseLogLevel(level), true)
}

type analyseOptions struct {
	species string
	gmtPath string
	nperms  int
	minSize int
	maxSize int
	seed    int64
	workers int
	upper   bool
	format  string
	top     int
	store   string
}

func newAnalyseCmd() *cobra.Command {
	opts := analyseOptions{}

	cmd := &cobra.Command{
		Use:   "analyse [ranking-file]",
		Short: "Run preranked GSEA on a ranking file",
		Long: `Run preranked GSEA on a ranking file (.rnk, .tsv, .txt, .csv or .xlsx).

The gene set catalog comes from --gmt or, when omitted, from HUMAN_GMT_PATH,
MOUSE_GMT_PATH or GMT_PATH_<SPECIES>. Locations may be local paths (optionally
.gz) or s3://bucket/key URIs.

Example: gogsea analyse de.rnk --species human --nperms 1000 --seed 42`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seedSet := cmd.Flags().Changed("seed")
			return runAnalyse(cmd.Context(), newLogger(cmd), args[0], opts, seedSet)
		},
	}

	cmd.Flags().StringVar(&opts.species, "species", "human", "Species catalog to use")
	cmd.Flags().StringVar(&opts.gmtPath, "gmt", "", "GMT catalog location (overrides environment)")
	cmd.Flags().IntVar(&opts.nperms, "nperms", 1000, "Number of permutations")
	cmd.Flags().IntVar(&opts.minSize, "min", geneset.DefaultMinSize, "Minimum overlap between a gene set and the ranking")
	cmd.Flags().IntVar(&opts.maxSize, "max", geneset.DefaultMaxSize, "Maximum overlap between a gene set and the ranking")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "Random seed (default: derived from the clock)")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "Permutation workers (default: number of CPUs)")
	cmd.Flags().BoolVar(&opts.upper, "upper", false, "Upper-case gene symbols in both ranking and catalog")
	cmd.Flags().StringVar(&opts.format, "format", formatTable, "Output format: table|tsv|json")
	cmd.Flags().IntVar(&opts.top, "top", 0, "Print only the first N rows (0 prints all)")
	cmd.Flags().StringVar(&opts.store, "store", "", "Record the run in this sqlite database")

	return cmd
}

func runAnalyse(ctx context.Context, logger *internal.Logger, path string, opts analyseOptions, seedSet bool) error {
	if !validFormat(opts.format) {
		return fmt.Errorf("unknown format %q (want table, tsv or json)", opts.format)
	}
	species := core.ParseSpecies(opts.species)

	var reader ports.RankingReaderPort = excel.NewRankingReader(logger)
	pairs, err := reader.ReadPairs(ctx, path)
	if err != nil {
		return err
	}

	registry, err := newRegistry(ctx, species, opts.gmtPath, opts.upper, logger)
	if err != nil {
		return err
	}

	var runs ports.RunRepository
	if opts.store != "" {
		db, err := sqlstore.Open(ctx, sqlstore.DriverSQLite, opts.store)
		if err != nil {
			return err
		}
		defer db.Close()
		runs = sqlstore.NewRunRepository(db)
	}

	settings := app.DefaultAnalysisSettings()
	settings.MaxPermutations = 0
	settings.UpperSymbols = opts.upper
	if opts.workers > 0 {
		settings.Workers = opts.workers
	}
	service := app.NewAnalysisService(registry, enrichment.NewEngine(logger), runs, rng.NewClockAdapter(), settings, logger)

	req := app.AnalysisRequest{
		Species:      species,
		Pairs:        pairs,
		Permutations: opts.nperms,
		Bounds:       geneset.SizeBounds{Min: opts.minSize, Max: opts.maxSize},
	}
	if seedSet {
		req.Seed = &opts.seed
	}

	outcome, err := service.Analyse(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "run %s: %d genes, %d gene sets, seed %d, %v\n",
		outcome.RunID, outcome.RankingSize, outcome.GeneSetCount, outcome.Seed, outcome.Duration.Round(1e6))
	results := outcome.Results
	if opts.top > 0 && opts.top < len(results) {
		results = results[:opts.top]
	}
	return writeResults(os.Stdout, opts.format, results)
}

func newCatalogCmd() *cobra.Command {
	var gmtPath string
	var upper bool
	var list bool

	cmd := &cobra.Command{
		Use:   "catalog [species]",
		Short: "Load a species catalog and summarise its gene sets",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			species := core.SpeciesHuman
			if len(args) == 1 {
				species = core.ParseSpecies(args[0])
			}
			logger := newLogger(cmd)

			registry, err := newRegistry(cmd.Context(), species, gmtPath, upper, logger)
			if err != nil {
				return err
			}
			catalog, err := registry.Catalog(cmd.Context(), species)
			if err != nil {
				return err
			}

			summary, err := summariseCatalog(catalog)
			if err != nil {
				return err
			}
			writeCatalogSummary(os.Stdout, summary)
			if list {
				writeCatalogSets(os.Stdout, catalog)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&gmtPath, "gmt", "", "GMT catalog location (overrides environment)")
	cmd.Flags().BoolVar(&upper, "upper", false, "Upper-case member symbols")
	cmd.Flags().BoolVar(&list, "list", false, "Print every gene set")
	return cmd
}

func newRunsCmd() *cobra.Command {
	var store string
	var limit int
	var format string

	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "List recorded runs, or print one run's results",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if store == "" {
				return fmt.Errorf("--store is required")
			}
			db, err := sqlstore.Open(cmd.Context(), sqlstore.DriverSQLite, store)
			if err != nil {
				return err
			}
			defer db.Close()
			repo := sqlstore.NewRunRepository(db)

			if len(args) == 1 {
				id, err := core.ParseRunID(args[0])
				if err != nil {
					return err
				}
				run, err := repo.GetRun(cmd.Context(), id)
				if err != nil {
					return err
				}
				return writeResults(os.Stdout, format, run.Results)
			}

			runs, err := repo.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			writeRunList(os.Stdout, runs)
			return nil
		},
	}

	cmd.Flags().StringVar(&store, "store", "", "sqlite database written by analyse --store")
	cmd.Flags().IntVar(&limit, "limit", 20, "Number of runs to list")
	cmd.Flags().StringVar(&format, "format", formatTable, "Output format for a single run: table|tsv|json")
	return cmd
}

// newRegistry builds a one-species registry from --gmt or the environment
func newRegistry(ctx context.Context, species core.Species, location string, upper bool, logger *internal.Logger) (*gmt.Registry, error) {
	if location == "" {
		location = config.LoadCatalogConfig().Locations[species]
	}
	if location == "" {
		return nil, fmt.Errorf("no catalog for species %q: pass --gmt or set %s_GMT_PATH", species, strings.ToUpper(species.String()))
	}

	var opener gmt.Opener = gmt.FileOpener{}
	if s3.IsURI(location) {
		s3Opener, err := s3.New(ctx, s3.ConfigFromEnv())
		if err != nil {
			return nil, err
		}
		opener = s3Opener
	}

	return gmt.NewRegistry(gmt.RegistryConfig{
		Locations: map[core.Species]string{species: location},
		Parse:     gmt.ParseOptions{UpperSymbols: upper},
	}, opener, logger), nil
}
