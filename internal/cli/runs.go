package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "runs",
		Short: "List forecast runs",
		Long: `List every run in the registry, lowercased and sorted.

Example:
  forecastdb runs --config forecastdb.yaml
  forecastdb runs --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			return outputList(newFormatter(cmd, rootOpts), s.catalog.ListRuns())
		},
	}
}

// NewModelsCommand creates the models command.
func NewModelsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List every model in the hierarchy table",
		Long: `List every distinct model node across all runs and generations.

Example:
  forecastdb models`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			models, err := s.catalog.Models(commandContext(cmd))
			if err != nil {
				return WrapRequestError("failed to list models", err)
			}
			return outputList(newFormatter(cmd, rootOpts), models)
		},
	}
}

// outputList writes one item per line, or a JSON array.
func outputList(formatter *OutputFormatter, items []string) error {
	if formatter.JSON() {
		return formatter.Success(items)
	}
	for _, item := range items {
		fmt.Fprintln(formatter.Writer, item)
	}
	return nil
}
