package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vanallenlab/almanac/internal/config"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool           `json:"valid"`
	Config *config.Config `json:"config,omitempty"`
	Path   string         `json:"path,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [config-file]",
		Short: "Validate a config file without connecting to anything",
		Long: `Validate a configuration file against the embedded schema.

The file is decoded strictly (unknown keys are errors), ALMANAC_*
environment overrides are applied, and the result is checked against the
CUE schema and the search settings. Without an argument the --config
file is validated.

Exit codes:
  0 - Config is valid
  1 - Config is invalid
  2 - Config file could not be read or decoded`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			path := rootOpts.Config
			if len(args) == 1 {
				path = args[0]
			}
			return runValidate(rootOpts, path, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	formatter.VerboseLog("Validating %q", path)

	cfg, err := config.Load(path)
	if err == nil {
		if formatter.Format == "json" {
			return formatter.Success(ValidationResult{Valid: true, Config: cfg})
		}
		fmt.Fprintln(formatter.Writer, "✓ Config is valid")
		return nil
	}

	var verr *config.ValidationError
	if !errors.As(err, &verr) {
		if outErr := formatter.Error(ErrCodeConfig, "failed to load config", err.Error()); outErr != nil {
			return outErr
		}
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	if formatter.Format == "json" {
		if outErr := formatter.Success(ValidationResult{Valid: false, Path: verr.Path, Error: verr.Message}); outErr != nil {
			return outErr
		}
	} else {
		fmt.Fprintf(formatter.Writer, "✗ %s\n", verr.Error())
	}
	return NewExitError(ExitFailure, "config validation failed")
}
