package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vanallenlab/almanac/internal/interpret"
	"github.com/vanallenlab/almanac/internal/store"
)

// SearchResult is the JSON payload of the search command.
type SearchResult struct {
	Query          string              `json:"query"`
	Interpretation map[string][]string `json:"interpretation"`
	Count          int                 `json:"count"`
	Rows           []store.Row         `json:"rows"`
}

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>...",
		Short: "Interpret a search string and list matching evidence",
		Long: `Interpret a unified search string and list the validated assertions
whose features, disease, therapy and predictive implication match.

Unknown phrases are reported but do not filter. A query with nothing
recognized returns no rows.

Examples:
  almanac search BRAF melanoma
  almanac search 'gene:EGFR' 'Non-Small Cell Lung Cancer[disease]' --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(rootOpts, strings.Join(args, " "), cmd)
		},
	}

	return cmd
}

func runSearch(opts *RootOptions, query string, cmd *cobra.Command) error {
	a, err := openApp(opts, cmd)
	if err != nil {
		return err
	}
	defer a.closeLogged()

	interp, err := a.interpreter()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	q, err := interp.Interpret(ctx, query)
	if err != nil {
		return WrapExitError(ExitCommandError, "interpretation failed", err)
	}

	rows, err := a.store.Search(ctx, q.Categories)
	if err != nil {
		return WrapExitError(ExitCommandError, "search failed", err)
	}
	a.logger.Debug("search complete", "query", query, "rows", len(rows))

	return opts.formatter(cmd).Print(renderRows(q, rows), SearchResult{
		Query:          q.Raw,
		Interpretation: q.MarshalMap(),
		Count:          len(rows),
		Rows:           rows,
	})
}

// renderRows formats the interpretation followed by an aligned table of
// rows.
func renderRows(q *interpret.Query, rows []store.Row) string {
	var b strings.Builder
	b.WriteString(q.String())
	b.WriteString("\n")

	if len(rows) == 0 {
		b.WriteString("No matching assertions.\n")
		return b.String()
	}

	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ASSERTION\tFEATURE\tDISEASE\tTHERAPY\tIMPLICATION")
	for _, r := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", r.AssertionID, r.DisplayString, r.Disease, r.Therapy, r.Pred)
	}
	tw.Flush()

	fmt.Fprintf(&b, "\n%d row(s)\n", len(rows))
	return b.String()
}
