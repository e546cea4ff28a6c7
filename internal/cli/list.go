package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/gauntlet/internal/catalog"
	"github.com/roach88/gauntlet/internal/plan"
	"github.com/roach88/gauntlet/internal/registry"
)

// SpecInfo describes one registered model or validation.
type SpecInfo struct {
	Kind       string   `json:"kind"`
	ID         string   `json:"id"`
	EntryPoint string   `json:"entry_point"`
	Deprecated bool     `json:"deprecated"`
	OutputCols []string `json:"output_cols,omitempty"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list <plan>",
		Short: "List the models and validations a plan registers",
		Long: `List every model and validation of a plan with its entry point,
deprecation state and, for validations, declared output columns.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(rootOpts, args[0], cmd)
		},
	}
}

func runList(opts *RootOptions, planPath string, cmd *cobra.Command) error {
	logger := setupLogging(cmd, opts.Verbose)
	formatter := newFormatter(opts, cmd)

	p, err := plan.Load(planPath)
	if err != nil {
		_ = formatter.Error(ErrCodePlan, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load plan", err)
	}
	models, validations, err := plan.Build(p, catalog.Models(), catalog.Validations(), logger)
	if err != nil {
		_ = formatter.Error(ErrCodeInvalidPlan, "plan has problems", problemDetails(err))
		return WrapExitError(ExitCommandError, "invalid plan", err)
	}

	var infos []SpecInfo
	for _, s := range models.All() {
		infos = append(infos, specInfo("model", s))
	}
	for _, s := range validations.All() {
		infos = append(infos, specInfo("validation", s))
	}

	if formatter.Format == "json" {
		return formatter.Success(infos)
	}
	tw := tabwriter.NewWriter(formatter.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tID\tENTRY POINT\tDEPRECATED\tOUTPUT COLS")
	for _, info := range infos {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\n",
			info.Kind, info.ID, info.EntryPoint, info.Deprecated, strings.Join(info.OutputCols, ","))
	}
	return tw.Flush()
}

func specInfo[T any](kind string, s registry.Spec[T]) SpecInfo {
	return SpecInfo{
		Kind:       kind,
		ID:         s.ID,
		EntryPoint: entryPointString[T](s.Entry),
		Deprecated: s.Deprecated(),
		OutputCols: s.OutputCols,
	}
}

func entryPointString[T any](e registry.EntryPoint[T]) string {
	switch e := e.(type) {
	case registry.RefEntry[T]:
		return e.Ref
	case registry.FuncEntry[T]:
		return "<func>"
	case registry.DefunctEntry[T]:
		return "-"
	default:
		return fmt.Sprintf("%T", e)
	}
}
