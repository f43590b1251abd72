package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/daoforge/quorum/internal/presentation/tui"
	"github.com/daoforge/quorum/pkg/domain"
)

var (
	submitID        string
	submitTitle     string
	submitDesc      string
	submitAmount    float64
	submitToken     string
	submitRecipient string
	submitter       string
	submitCategory  string
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a proposal and run it through the full pipeline",
	Long: `Submits a governance proposal to an in-process pipeline, waits for all
stages to finish, and prints the final recommendation report.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, _, err := buildEngine(cmd)
		if err != nil {
			return err
		}

		tui.PrintBanner()

		if submitID == "" {
			submitID = "prop_" + uuid.NewString()[:8]
		}
		sub := domain.SubmissionRequest{
			ProposalID:       submitID,
			Title:            submitTitle,
			Description:      submitDesc,
			RequestedAmount:  submitAmount,
			TokenType:        submitToken,
			RecipientAddress: submitRecipient,
			Submitter:        submitter,
			Category:         submitCategory,
		}

		ctx := cmd.Context()
		if _, err := eng.SubmitProposal(ctx, sub); err != nil {
			return err
		}
		eng.Drain()

		wf, err := eng.WorkflowStatus(ctx, submitID)
		if err != nil {
			return err
		}
		analysis := eng.Analysis(ctx, submitID)

		render := tui.NewRenderer()
		out, err := render(tui.WorkflowMarkdown(wf) + "\n" + tui.AnalysisMarkdown(analysis))
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	},
}

func init() {
	submitCmd.Flags().StringVar(&submitID, "id", "", "Proposal identifier (generated when empty)")
	submitCmd.Flags().StringVar(&submitTitle, "title", "", "Proposal title")
	submitCmd.Flags().StringVar(&submitDesc, "description", "", "Proposal description")
	submitCmd.Flags().Float64Var(&submitAmount, "amount", 0, "Requested amount")
	submitCmd.Flags().StringVar(&submitToken, "token", domain.DefaultTokenType, "Token type")
	submitCmd.Flags().StringVar(&submitRecipient, "recipient", "", "Recipient address")
	submitCmd.Flags().StringVar(&submitter, "submitter", "", "Submitting member")
	submitCmd.Flags().StringVar(&submitCategory, "category", domain.DefaultCategory, "Proposal category")
	submitCmd.MarkFlagRequired("title")
	submitCmd.MarkFlagRequired("description")
	submitCmd.MarkFlagRequired("amount")
	submitCmd.MarkFlagRequired("submitter")
	rootCmd.AddCommand(submitCmd)
}
