package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vanallenlab/almanac/internal/store"
)

// SeedResult is the JSON payload of the seed command.
type SeedResult struct {
	Inserted store.SeedStats `json:"inserted"`
	Summary  store.Summary   `json:"summary"`
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Load development data into the knowledgebase",
		Long: `Load feature definitions, sources and assertions from a YAML seed file
in a single transaction, then refresh the summary counts.

Definitions and sources that already exist are reused; assertions are
always added.

Example:
  almanac seed --config almanac.yaml testdata/knowledgebase.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runSeed(opts *RootOptions, path string, cmd *cobra.Command) error {
	f, err := os.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read seed file", err)
	}
	defer f.Close()

	seed, err := store.ParseSeed(f)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to parse seed file", err)
	}

	a, err := openApp(opts, cmd)
	if err != nil {
		return err
	}
	defer a.closeLogged()

	ctx := cmd.Context()
	stats, err := a.store.Seed(ctx, seed)
	if err != nil {
		return WrapExitError(ExitCommandError, "seed failed", err)
	}
	sum, err := a.store.RefreshSummary(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to refresh summary", err)
	}

	text := fmt.Sprintf("Seeded %s: %d assertion(s), %d feature(s), %d source(s), %d definition(s)\n",
		path, stats.Assertions, stats.Features, stats.Sources, stats.FeatureDefinitions)
	return opts.formatter(cmd).Print(text, SeedResult{Inserted: stats, Summary: sum})
}
