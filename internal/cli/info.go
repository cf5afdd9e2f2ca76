package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/forecastdb/internal/catalog"
	"github.com/roach88/forecastdb/internal/schema"
)

// InfoResult describes one run.
type InfoResult struct {
	Run       string `json:"run"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Codebook  string `json:"codebook"`
}

// NewInfoCommand creates the info command.
func NewInfoCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info <run>",
		Short: "Show a run's date range and codebook",
		Long: `Show the first and last month and the codebook reference of a run.
Run identifiers are matched case-insensitively.

Example:
  forecastdb info r_2022_06_01`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			run, err := s.catalog.GetRun(args[0])
			if err != nil {
				return WrapRequestError("unknown run", err)
			}
			result, err := runInfo(cmd, run)
			if err != nil {
				return err
			}

			formatter := newFormatter(cmd, rootOpts)
			if formatter.JSON() {
				return formatter.Success(result)
			}
			fmt.Fprintf(formatter.Writer, "run:      %s\n", result.Run)
			fmt.Fprintf(formatter.Writer, "start:    %s\n", result.StartDate)
			fmt.Fprintf(formatter.Writer, "end:      %s\n", result.EndDate)
			fmt.Fprintf(formatter.Writer, "codebook: %s\n", result.Codebook)
			return nil
		},
	}
}

func runInfo(cmd *cobra.Command, run *catalog.Run) (*InfoResult, error) {
	ctx := commandContext(cmd)
	start, err := run.StartDate(ctx)
	if err != nil {
		return nil, WrapRequestError("failed to read start date", err)
	}
	end, err := run.EndDate(ctx)
	if err != nil {
		return nil, WrapRequestError("failed to read end date", err)
	}
	codebook, err := run.Codebook(ctx)
	if err != nil {
		return nil, WrapRequestError("failed to read codebook", err)
	}
	return &InfoResult{
		Run:       run.ID,
		StartDate: start.Format(time.DateOnly),
		EndDate:   end.Format(time.DateOnly),
		Codebook:  codebook,
	}, nil
}

// NewTreeCommand creates the tree command.
func NewTreeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tree <run>",
		Short: "Show a run's model hierarchy",
		Long: `Show the (parent, node) edges of a run's model hierarchy for every level
of analysis and type of violence. Root edges have an empty parent.

Example:
  forecastdb tree r1
  forecastdb tree r1 --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer s.Close()

			run, err := s.catalog.GetRun(args[0])
			if err != nil {
				return WrapRequestError("unknown run", err)
			}
			tree, err := run.ModelTree(commandContext(cmd))
			if err != nil {
				return WrapRequestError("failed to resolve model tree", err)
			}

			formatter := newFormatter(cmd, rootOpts)
			if formatter.JSON() {
				return formatter.Success(tree)
			}
			for _, loa := range schema.LOAs {
				for _, tv := range schema.TVs {
					for _, e := range tree.Axis(loa, tv) {
						parent := e.Parent
						if parent == "" {
							parent = "(root)"
						}
						fmt.Fprintf(formatter.Writer, "%s/%s\t%s -> %s\n", loa, tv, parent, e.Node)
					}
				}
			}
			return nil
		},
	}
}
