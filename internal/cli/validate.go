package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/gauntlet/internal/catalog"
	"github.com/roach88/gauntlet/internal/plan"
)

// ValidationResult holds plan check results.
type ValidationResult struct {
	Valid       bool            `json:"valid"`
	Models      int             `json:"models"`
	Validations int             `json:"validations"`
	Problems    []*plan.Problem `json:"problems,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <plan>",
		Short: "Check a plan without running it",
		Long: `Check a plan's entity IDs, entry points and output columns against the
built-in catalog. Every problem found is reported, not just the first.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
}

func runValidate(opts *RootOptions, planPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	p, err := plan.Load(planPath)
	if err != nil {
		_ = formatter.Error(ErrCodePlan, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load plan", err)
	}
	formatter.VerboseLog("Loaded plan %q from %s", p.Name, planPath)

	result := ValidationResult{
		Valid:       true,
		Models:      len(p.Models),
		Validations: len(p.Validations),
	}
	if err := plan.Validate(p, catalog.Models(), catalog.Validations()); err != nil {
		result.Valid = false
		result.Problems = plan.Problems(err)
	}

	if !result.Valid {
		if formatter.Format == "json" {
			_ = formatter.Error(ErrCodeInvalidPlan, "plan has problems", result.Problems)
		} else {
			for _, pr := range result.Problems {
				fmt.Fprintf(formatter.Writer, "%s: %s\n", pr.Path, pr.Message)
			}
		}
		return NewExitError(ExitFailure, fmt.Sprintf("plan has %d problem(s)", len(result.Problems)))
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "Plan OK: %d model(s), %d validation(s)\n", result.Models, result.Validations)
	return nil
}
