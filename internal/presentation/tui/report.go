// Package tui renders pipeline results for the terminal: glamour markdown
// rendering plus the markdown report builders for workflows and analyses.
package tui

import (
	"fmt"
	"strings"

	"github.com/daoforge/quorum/pkg/domain"
)

// WorkflowMarkdown builds the markdown status report for a workflow.
func WorkflowMarkdown(wf *domain.Workflow) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Proposal %s\n\n", wf.ProposalID)
	fmt.Fprintf(&b, "**Stage:** %s  \n", wf.Stage)
	fmt.Fprintf(&b, "**Progress:** %d%%\n\n", wf.Progress)

	b.WriteString("| Stage | Status |\n|---|---|\n")
	fmt.Fprintf(&b, "| Compliance analysis | %s |\n", checkmark(wf.ComplianceDone))
	fmt.Fprintf(&b, "| Sentiment prediction | %s |\n", checkmark(wf.SentimentDone))
	fmt.Fprintf(&b, "| Execution planning | %s |\n", checkmark(wf.ExecutionDone))

	if len(wf.Errors) > 0 {
		b.WriteString("\n## Errors\n\n")
		for _, e := range wf.Errors {
			fmt.Fprintf(&b, "- %s\n", e)
		}
	}
	if len(wf.Warnings) > 0 {
		b.WriteString("\n## Warnings\n\n")
		for _, warning := range wf.Warnings {
			fmt.Fprintf(&b, "- %s\n", warning)
		}
	}
	return b.String()
}

// AnalysisMarkdown builds the markdown recommendation report for an
// aggregated analysis, including whichever stage results are present.
func AnalysisMarkdown(a *domain.AggregatedAnalysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Analysis: %s\n\n", a.ProposalID)
	fmt.Fprintf(&b, "**Recommendation:** %s  \n", a.FinalRecommendation)
	fmt.Fprintf(&b, "**Confidence:** %.2f  \n", a.Confidence)
	fmt.Fprintf(&b, "**Risk:** %s\n", a.RiskLevel)

	if c := a.Compliance; c != nil {
		b.WriteString("\n## Compliance\n\n")
		fmt.Fprintf(&b, "Compliant: %t  \n", c.Compliant)
		fmt.Fprintf(&b, "Financial impact: %.2f %s ($%.2f, %.2f%% of treasury)  \n",
			c.FinancialImpact.RequestedAmount, c.FinancialImpact.TokenType,
			c.FinancialImpact.TotalUSDValue, c.FinancialImpact.TreasuryImpactPct)
		fmt.Fprintf(&b, "Market: %s\n", c.MarketAnalysis.Sentiment)
		for _, v := range c.Violations {
			fmt.Fprintf(&b, "- %s\n", v)
		}
	}

	if s := a.Sentiment; s != nil {
		b.WriteString("\n## Voter sentiment\n\n")
		fmt.Fprintf(&b, "Prediction: %s (%.2f confidence)  \n", s.Prediction, s.Confidence)
		fmt.Fprintf(&b, "Breakdown: %d For / %d Against / %d Neutral  \n",
			s.VoteBreakdown[domain.StanceFor],
			s.VoteBreakdown[domain.StanceAgainst],
			s.VoteBreakdown[domain.StanceNeutral])
		if len(s.KeyInfluencers) > 0 {
			fmt.Fprintf(&b, "Key influencers: %s\n", strings.Join(s.KeyInfluencers, ", "))
		}
		for _, rf := range s.RiskFactors {
			fmt.Fprintf(&b, "- %s\n", rf)
		}
	}

	if e := a.Execution; e != nil {
		b.WriteString("\n## Execution plan\n\n")
		fmt.Fprintf(&b, "%s\n", e.Message)
		if e.ExecutionPlan != nil {
			for i, step := range e.ExecutionPlan.Steps {
				fmt.Fprintf(&b, "%d. %s\n", i+1, step)
			}
		}
		if e.SafetyCheck != nil {
			for _, issue := range e.SafetyCheck.Issues {
				fmt.Fprintf(&b, "- %s\n", issue)
			}
		}
	}

	return b.String()
}

// PredictionMarkdown builds the markdown report for a vote prediction.
func PredictionMarkdown(pred domain.VotePrediction) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Vote prediction: %s on %s\n\n", pred.UserID, pred.ProposalID)
	fmt.Fprintf(&b, "**Stance:** %s  \n", pred.Stance)
	fmt.Fprintf(&b, "**Confidence:** %.2f\n\n", pred.Confidence)
	fmt.Fprintf(&b, "%s\n", pred.Reasoning)
	return b.String()
}

func checkmark(done bool) string {
	if done {
		return "complete"
	}
	return "pending"
}
