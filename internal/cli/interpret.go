package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

// InterpretResult is the JSON payload of the interpret command.
type InterpretResult struct {
	Query          string              `json:"query"`
	Interpretation map[string][]string `json:"interpretation"`
	Tokens         int                 `json:"tokens"`
}

// NewInterpretCommand creates the interpret command.
func NewInterpretCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "interpret <query>...",
		Short: "Show how a search string is categorized",
		Long: `Categorize a unified search string without running the search.

Arguments are joined with spaces, so quoting the whole query is optional.
Tags in square brackets force a category; Attribute:Value pairs are
checked against the attribute definitions.

Examples:
  almanac interpret 'PIK3CA "Invasive Breast Carcinoma"[disease] Preclinical'
  almanac interpret gene:BRAF melanoma --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInterpret(rootOpts, strings.Join(args, " "), cmd)
		},
	}

	return cmd
}

func runInterpret(opts *RootOptions, query string, cmd *cobra.Command) error {
	a, err := openApp(opts, cmd)
	if err != nil {
		return err
	}
	defer a.closeLogged()

	interp, err := a.interpreter()
	if err != nil {
		return err
	}

	q, err := interp.Interpret(cmd.Context(), query)
	if err != nil {
		return WrapExitError(ExitCommandError, "interpretation failed", err)
	}

	return opts.formatter(cmd).Print(q.String(), InterpretResult{
		Query:          q.Raw,
		Interpretation: q.MarshalMap(),
		Tokens:         q.TokenCount,
	})
}
