package cli

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/gauntlet/internal/queryir"
	"github.com/roach88/gauntlet/internal/store"
)

// ResultsOptions holds flags for the results command.
type ResultsOptions struct {
	*RootOptions
	Runs    bool
	Where   []string
	Columns []string
}

// NewResultsCommand creates the results command.
func NewResultsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResultsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "results <path>",
		Short: "Print a persisted results table",
		Long: `Print the results table stored at path (.csv, or .db for SQLite).

Filter rows with --where column=value (repeatable, all must match) and
keep a subset of columns with --columns. SQLite tables are filtered in the
database; CSV tables are filtered after loading.

With --runs, print the run IDs that wrote rows into a SQLite table instead.

Examples:
  gauntlet results results.csv --where model_id=SVC-v1
  gauntlet results results.db --where validation_id=holdout-v1 --columns result`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResults(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Runs, "runs", false, "list run IDs and their row counts (SQLite only)")
	cmd.Flags().StringArrayVar(&opts.Where, "where", nil, "keep rows whose column equals value (column=value)")
	cmd.Flags().StringSliceVar(&opts.Columns, "columns", nil, "columns to print after validation_id and model_id")

	return cmd
}

func runResults(opts *ResultsOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if _, err := os.Stat(path); err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "results not found", err)
	}

	st, err := store.Open(path)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open results store", err)
	}
	defer st.Close()

	if opts.Runs {
		return printRuns(formatter, st, cmd)
	}

	sel, err := buildSelect(opts)
	if err != nil {
		_ = formatter.Error(ErrCodeQuery, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid filter", err)
	}

	t, err := store.Query(cmd.Context(), st, sel)
	if err != nil {
		_ = formatter.Error(ErrCodeQuery, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to query results", err)
	}
	formatter.VerboseLog("Selected %d row(s) from %s", t.Len(), path)
	return formatter.Table(t, "")
}

func buildSelect(opts *ResultsOptions) (queryir.Select, error) {
	preds := make([]queryir.Predicate, 0, len(opts.Where))
	for _, expr := range opts.Where {
		eq, err := queryir.ParseWhere(expr)
		if err != nil {
			return queryir.Select{}, err
		}
		preds = append(preds, eq)
	}
	return queryir.Select{Columns: opts.Columns, Filter: queryir.Where(preds...)}, nil
}

func printRuns(formatter *OutputFormatter, st store.Store, cmd *cobra.Command) error {
	sq, ok := st.(*store.SQLiteStore)
	if !ok {
		err := errors.New("run history requires a SQLite results store")
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "unsupported store", err)
	}
	runs, err := sq.Runs(cmd.Context())
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(runs)
	}
	tw := tabwriter.NewWriter(formatter.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tROWS")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%d\n", r.RunID, r.Rows)
	}
	return tw.Flush()
}
