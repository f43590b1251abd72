package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daoforge/quorum/internal/presentation/tui"
)

var statusFull bool

var statusCmd = &cobra.Command{
	Use:   "status <proposal_id>",
	Short: "Show the workflow status for a proposal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, _, err := buildEngine(cmd)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		wf, err := eng.WorkflowStatus(ctx, args[0])
		if err != nil {
			return err
		}

		md := tui.WorkflowMarkdown(wf)
		if statusFull {
			md += "\n" + tui.AnalysisMarkdown(eng.Analysis(ctx, args[0]))
		}

		render := tui.NewRenderer()
		out, err := render(md)
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusFull, "full", false, "Include the analysis report")
	rootCmd.AddCommand(statusCmd)
}
