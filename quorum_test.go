package quorum_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daoforge/quorum"
	"github.com/daoforge/quorum/pkg/domain"
)

func TestEngine_EndToEnd(t *testing.T) {
	ctx := context.Background()
	eng, err := quorum.New()
	require.NoError(t, err)
	require.NoError(t, eng.SeedDemoData(ctx))

	wf, err := eng.SubmitProposal(ctx, domain.SubmissionRequest{
		ProposalID:      "prop_123",
		Title:           "DeFi Integration",
		Description:     "Fund 50 ETH for yield farming",
		RequestedAmount: 50,
		Submitter:       "alice",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StageAnalyzingCompliance, wf.Stage)

	eng.Drain()

	wf, err = eng.WorkflowStatus(ctx, "prop_123")
	require.NoError(t, err)
	assert.Equal(t, domain.StageCompleted, wf.Stage)
	assert.Equal(t, 100, wf.Progress)
	assert.Empty(t, wf.Errors)

	// Fresh proposal, no recorded sentiment: compliance contributes 0.8,
	// the uncertain forecast 0.0, the safe plan 0.7. Mean 0.5 with the
	// forecast's risk factors lands on deferral.
	analysis := eng.Analysis(ctx, "prop_123")
	require.NotNil(t, analysis.Compliance)
	require.NotNil(t, analysis.Sentiment)
	require.NotNil(t, analysis.Execution)
	assert.Equal(t, "DEFER - Requires additional review", analysis.FinalRecommendation)
	assert.InDelta(t, 0.5, analysis.Confidence, 1e-9)
	assert.Equal(t, domain.RiskMedium, analysis.RiskLevel)
}

func TestEngine_ProcessCommentInformsPrediction(t *testing.T) {
	ctx := context.Background()
	eng, err := quorum.New()
	require.NoError(t, err)
	require.NoError(t, eng.SeedDemoData(ctx))

	obs, err := eng.ProcessComment(ctx, domain.DiscussionComment{
		UserID:     "alice",
		ProposalID: "prop_500",
		RawComment: "I support this, great proposal!",
	})
	require.NoError(t, err)
	assert.Equal(t, 1.0, obs.SentimentScore)

	pred, err := eng.PredictVote(ctx, "alice", "prop_500")
	require.NoError(t, err)
	assert.Equal(t, domain.StanceFor, pred.Stance)
	assert.Contains(t, pred.Reasoning, "Sentiment: 1.00")
}

func TestEngine_QueryAndSummary(t *testing.T) {
	ctx := context.Background()
	eng, err := quorum.New()
	require.NoError(t, err)

	_, err = eng.SubmitProposal(ctx, domain.SubmissionRequest{
		ProposalID:      "prop_1",
		Title:           "Test",
		Description:     "Test",
		RequestedAmount: 10,
		Submitter:       "bob",
	})
	require.NoError(t, err)
	eng.Drain()

	reply := eng.Query(ctx, domain.QueryRequest{
		Query:      "what is the status?",
		ProposalID: "prop_1",
		UserID:     "bob",
	})
	assert.Contains(t, reply.Response, "Proposal prop_1")

	summary, err := eng.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalProposals)
	assert.Equal(t, 1, summary.Completed)
}

func TestEngine_RejectsInvalidSubmission(t *testing.T) {
	ctx := context.Background()
	eng, err := quorum.New()
	require.NoError(t, err)

	_, err = eng.SubmitProposal(ctx, domain.SubmissionRequest{
		ProposalID: "prop_1",
		Submitter:  "",
	})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}
