package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/daoforge/quorum/internal/presentation/tui"
	"github.com/daoforge/quorum/pkg/domain"
)

var predictCmd = &cobra.Command{
	Use:   "predict <user_id> <proposal_id>",
	Short: "Predict how a voter will vote on a proposal",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, _, err := buildEngine(cmd)
		if err != nil {
			return err
		}

		pred, err := eng.PredictVote(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}

		render := tui.NewRenderer()
		out, err := render(tui.PredictionMarkdown(pred))
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	},
}

var outcomeCmd = &cobra.Command{
	Use:   "outcome <proposal_id>",
	Short: "Forecast the voting outcome for a proposal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, _, err := buildEngine(cmd)
		if err != nil {
			return err
		}

		forecast, err := eng.PredictOutcome(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		var b strings.Builder
		fmt.Fprintf(&b, "# Outcome forecast: %s\n\n", args[0])
		fmt.Fprintf(&b, "**Prediction:** %s  \n", forecast.Prediction)
		fmt.Fprintf(&b, "**Confidence:** %.2f  \n", forecast.Confidence)
		fmt.Fprintf(&b, "Breakdown: %d For / %d Against / %d Neutral\n",
			forecast.VoteBreakdown[domain.StanceFor],
			forecast.VoteBreakdown[domain.StanceAgainst],
			forecast.VoteBreakdown[domain.StanceNeutral])
		if len(forecast.KeyInfluencers) > 0 {
			fmt.Fprintf(&b, "\nKey influencers: %s\n", strings.Join(forecast.KeyInfluencers, ", "))
		}
		for _, rf := range forecast.RiskFactors {
			fmt.Fprintf(&b, "- %s\n", rf)
		}

		render := tui.NewRenderer()
		out, err := render(b.String())
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(outcomeCmd)
}
