package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"hisoutlier/adapters/excel"
	"hisoutlier/adapters/memory"
	"hisoutlier/adapters/render"
	"hisoutlier/domain/outlier"
	"hisoutlier/internal"
	"hisoutlier/internal/config"
	"hisoutlier/internal/container"
	"hisoutlier/internal/migration"
	"hisoutlier/internal/testkit"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "outliers",
		Short: "Outlier detection over aggregate data values",
	}

	rootCmd.AddCommand(
		newDetectCmd(),
		newCompareCmd(),
		newMigrateCmd(),
		newGenerateCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newDetectCmd() *cobra.Command {
	var rf requestFlags
	var factsFile, format, output string

	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Detect outlier values for data elements and org units",
		Long: `Detect outlier values with one algorithm.

Values are read from DATABASE_URL, or from a facts workbook (xlsx or csv)
when --facts is given.

Example: outliers detect --de fbfJHSPpUQD --ou /ImspTQPwCqd --start 2022-01-01 --end 2022-12-31 --algorithm MODIFIED_Z_SCORE --format csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := rf.params(cmd)
			if err != nil {
				return err
			}
			c, err := setup(cmd.Context(), factsFile)
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())

			req, err := c.Config.Outlier.Limits().NewRequest(params)
			if err != nil {
				return err
			}
			values, err := c.Detector.Detect(cmd.Context(), req)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), output, format, render.NewGrid("Outlier values", req.Algorithm(), values))
		},
	}

	rf.register(cmd)
	cmd.Flags().StringVar(&factsFile, "facts", "", "Facts workbook (xlsx or csv) to detect on instead of the database")
	cmd.Flags().StringVar(&format, "format", render.FormatCSV, "Output format: json|csv|xlsx|html")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	return cmd
}

func newCompareCmd() *cobra.Command {
	var rf requestFlags
	var factsFile string

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Run every algorithm on the same request and summarize",
		Long: `Run Z_SCORE, MODIFIED_Z_SCORE and MIN_MAX concurrently with otherwise
identical parameters and print how many outliers each reports.

Example: outliers compare --facts facts.xlsx --de de1 --ou /root --start 2022-01-01 --end 2022-12-31`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := rf.params(cmd)
			if err != nil {
				return err
			}
			c, err := setup(cmd.Context(), factsFile)
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())

			counts, err := compare(cmd.Context(), c, params)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, alg := range outlier.Algorithms {
				fmt.Fprintf(out, "%-18s %d\n", alg, counts[alg])
			}
			return nil
		},
	}

	rf.register(cmd)
	cmd.Flags().StringVar(&factsFile, "facts", "", "Facts workbook (xlsx or csv) to detect on instead of the database")
	return cmd
}

// compare runs one detection per algorithm. The first failure cancels the
// remaining runs.
func compare(ctx context.Context, c *container.Container, params outlier.RequestParams) (map[outlier.Algorithm]int, error) {
	limits := c.Config.Outlier.Limits()
	counts := make(map[outlier.Algorithm]int, len(outlier.Algorithms))
	var mu sync.Mutex

	eg, ctx := errgroup.WithContext(ctx)
	for _, alg := range outlier.Algorithms {
		alg := alg
		p := params
		p.Algorithm = alg
		if alg == outlier.MinMax && !minMaxOrder(p.OrderBy) {
			p.OrderBy = ""
		}
		req, err := limits.NewRequest(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", alg, err)
		}
		eg.Go(func() error {
			values, err := c.Detector.Detect(ctx, req)
			if err != nil {
				return fmt.Errorf("%s: %w", alg, err)
			}
			mu.Lock()
			counts[alg] = len(values)
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return counts, nil
}

func minMaxOrder(o outlier.OrderBy) bool {
	return o == "" || o == outlier.OrderByMeanAbsDev || o == outlier.OrderByValue
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the aggregate data schema in DATABASE_URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(true)
			if err != nil {
				return err
			}
			logger := internal.NewLoggerTo(internal.ParseLogLevel(cfg.Log.Level), cmd.ErrOrStderr())
			c, err := container.New(cfg, logger)
			if err != nil {
				return err
			}
			db, err := c.OpenDatabase(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			runner := migration.NewRunner()
			if err := runner.Run(cmd.Context(), db); err != nil {
				return err
			}
			logger.Info("Schema version %s is in place", runner.Version())
			return nil
		},
	}
}

func newGenerateCmd() *cobra.Command {
	config := testkit.DefaultFactConfig()

	cmd := &cobra.Command{
		Use:   "generate [output.xlsx]",
		Short: "Write a synthetic facts workbook with planted spikes",
		Long: `Generate monthly aggregate values for a small org unit hierarchy rooted
at /root, with min-max ranges and occasional spikes, for use with --facts.

Example: outliers generate facts.xlsx --org-units 20 --months 36 --seed 7`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d := testkit.NewFactGenerator(config).Generate()
			if err := excel.WriteFacts(args[0], d.Facts, d.Ranges); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d facts, %d ranges and %d spikes to %s\n", len(d.Facts), len(d.Ranges), len(d.Spikes), args[0])
			return nil
		},
	}

	cmd.Flags().IntVar(&config.DataElementCount, "data-elements", config.DataElementCount, "Number of data elements")
	cmd.Flags().IntVar(&config.OrgUnitCount, "org-units", config.OrgUnitCount, "Number of facilities")
	cmd.Flags().IntVar(&config.Months, "months", config.Months, "Number of monthly periods")
	cmd.Flags().Float64Var(&config.SpikeRate, "spike-rate", config.SpikeRate, "Share of values replaced by spikes")
	cmd.Flags().Float64Var(&config.NonNumericRate, "non-numeric-rate", config.NonNumericRate, "Share of values stored as non-numeric text")
	cmd.Flags().Int64Var(&config.Seed, "seed", config.Seed, "Random seed for deterministic output")
	return cmd
}

// setup builds a container over the facts file, or over the database when
// factsFile is empty.
func setup(ctx context.Context, factsFile string) (*container.Container, error) {
	cfg, err := config.Load(factsFile == "")
	if err != nil {
		return nil, err
	}
	logger := internal.NewLogger(internal.ParseLogLevel(cfg.Log.Level))
	c, err := container.New(cfg, logger)
	if err != nil {
		return nil, err
	}

	if factsFile != "" {
		store := memory.NewStore()
		nFacts, nRanges, err := excel.LoadFacts(factsFile, store)
		if err != nil {
			return nil, err
		}
		logger.Debug("Loaded %d facts and %d min-max ranges from %s", nFacts, nRanges, factsFile)
		return c, c.InitOffline(store)
	}

	db, err := c.OpenDatabase(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.InitWithDatabase(db); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

func writeOutput(stdout io.Writer, path, format string, g *render.Grid) error {
	if path == "" {
		return render.Write(stdout, format, g)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := render.Write(f, format, g); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
