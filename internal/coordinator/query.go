package coordinator

import (
	"context"
	"fmt"
	"strings"

	"github.com/daoforge/quorum/pkg/domain"
)

const helpResponse = "I can help with: proposal status, recommendations, summary. " +
	"Try asking 'What is the status of prop_123?'"

// Query answers a free-text question about the pipeline. Intents are
// matched by case-insensitive keyword substring: "status",
// "recommendation", "summary"; anything else gets the fixed help message.
func (c *Coordinator) Query(ctx context.Context, req domain.QueryRequest) domain.QueryReply {
	query := strings.ToLower(req.Query)

	reply := domain.QueryReply{
		Query:       req.Query,
		Response:    helpResponse,
		DataSources: []string{},
		Confidence:  0.7,
	}

	switch {
	case strings.Contains(query, "status") && req.ProposalID != "":
		wf, err := c.store.LoadWorkflow(ctx, req.ProposalID)
		if err != nil {
			reply.Response = fmt.Sprintf("No workflow found for proposal %s", req.ProposalID)
			reply.Confidence = 0.8
			return reply
		}
		reply.Response = statusText(wf)
		reply.DataSources = []string{"workflow_tracker"}
		reply.Confidence = 0.9

	case strings.Contains(query, "recommendation") && req.ProposalID != "":
		analysis, err := c.store.LoadAnalysis(ctx, req.ProposalID)
		if err != nil {
			reply.Response = fmt.Sprintf("Analysis not complete for proposal %s", req.ProposalID)
			reply.Confidence = 0.3
			return reply
		}
		reply.Response = fmt.Sprintf("Recommendation for %s: %s Confidence: %.2f Risk: %s",
			req.ProposalID, analysis.FinalRecommendation, analysis.Confidence, analysis.RiskLevel)
		reply.DataSources = []string{"comprehensive_analysis"}
		reply.Confidence = analysis.Confidence

	case strings.Contains(query, "summary"):
		summary, err := c.Summary(ctx)
		if err != nil {
			reply.Response = "Summary unavailable"
			reply.Confidence = 0.0
			return reply
		}
		reply.Response = fmt.Sprintf("DAO Summary: %d total proposals, %d completed, %d in progress",
			summary.TotalProposals, summary.Completed, summary.InProgress)
		reply.DataSources = []string{"workflow_tracker"}
		reply.Confidence = 0.9
	}

	return reply
}

func statusText(wf *domain.Workflow) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Proposal %s is in '%s' stage. Progress: %d%%",
		wf.ProposalID, wf.Stage, wf.Progress)
	if wf.ComplianceDone {
		b.WriteString(" Analysis: Complete.")
	}
	if wf.SentimentDone {
		b.WriteString(" Sentiment: Complete.")
	}
	if wf.ExecutionDone {
		b.WriteString(" Execution plan: Ready.")
	}
	if len(wf.Errors) > 0 {
		fmt.Fprintf(&b, " Errors: %s", strings.Join(wf.Errors, ", "))
	}
	return b.String()
}
