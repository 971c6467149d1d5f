package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vanallenlab/almanac/internal/store"
)

// SummaryOptions holds flags for the summary command.
type SummaryOptions struct {
	*RootOptions
	Refresh bool // recount and store instead of reading the cache
}

// NewSummaryCommand creates the summary command.
func NewSummaryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SummaryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show headline counts of validated evidence",
		Long: `Show the number of validated assertions, features, genes, diseases,
therapies and sources.

Counts come from the summary cache written by the last refresh. When the
cache is empty, or with --refresh, they are recounted and stored.

Examples:
  almanac summary
  almanac summary --refresh --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummary(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "recount instead of reading the cache")

	return cmd
}

func runSummary(opts *SummaryOptions, cmd *cobra.Command) error {
	a, err := openApp(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer a.closeLogged()

	ctx := cmd.Context()
	var sum store.Summary
	ok := false
	if !opts.Refresh {
		if sum, ok, err = a.store.CachedSummary(ctx); err != nil {
			return WrapExitError(ExitCommandError, "failed to read summary cache", err)
		}
	}
	if !ok {
		opts.formatter(cmd).VerboseLog("Refreshing summary counts")
		if sum, err = a.store.RefreshSummary(ctx); err != nil {
			return WrapExitError(ExitCommandError, "failed to refresh summary", err)
		}
	}

	return opts.formatter(cmd).Print(renderSummary(sum), sum)
}

func renderSummary(sum store.Summary) string {
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 4, 1, ' ', 0)
	fmt.Fprintf(tw, "Assertions:\t%d\n", sum.Assertions)
	fmt.Fprintf(tw, "Features:\t%d\n", sum.Features)
	fmt.Fprintf(tw, "Genes:\t%d\n", sum.Genes)
	fmt.Fprintf(tw, "Diseases:\t%d\n", sum.Diseases)
	fmt.Fprintf(tw, "Therapies:\t%d\n", sum.Therapies)
	fmt.Fprintf(tw, "Sources:\t%d\n", sum.Sources)
	fmt.Fprintf(tw, "Refreshed:\t%s\n", sum.RefreshedAt.UTC().Format(time.RFC3339))
	tw.Flush()
	return b.String()
}
