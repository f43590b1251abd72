package coordinator_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daoforge/quorum/internal/coordinator"
	"github.com/daoforge/quorum/pkg/adapters/memory"
	"github.com/daoforge/quorum/pkg/domain"
)

// fakeDispatcher records dispatched requests without answering them, so
// tests drive stage completion explicitly.
type fakeDispatcher struct {
	mu           sync.Mutex
	compliance   []domain.ComplianceRequest
	sentiment    []domain.SentimentRequest
	execution    []domain.ExecutionRequest
	err          error
	sentimentErr error
}

func (f *fakeDispatcher) DispatchCompliance(ctx context.Context, req domain.ComplianceRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.compliance = append(f.compliance, req)
	return nil
}

func (f *fakeDispatcher) DispatchSentiment(ctx context.Context, req domain.SentimentRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.sentimentErr != nil {
		return f.sentimentErr
	}
	f.sentiment = append(f.sentiment, req)
	return nil
}

func (f *fakeDispatcher) DispatchExecution(ctx context.Context, req domain.ExecutionRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.execution = append(f.execution, req)
	return nil
}

func (f *fakeDispatcher) counts() (int, int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.compliance), len(f.sentiment), len(f.execution)
}

func newTestCoordinator(t *testing.T, opts ...coordinator.Option) (*coordinator.Coordinator, *fakeDispatcher) {
	t.Helper()
	disp := &fakeDispatcher{}
	opts = append([]coordinator.Option{
		coordinator.WithRoster([]string{"alice", "bob", "charlie", "dave", "eve"}),
	}, opts...)
	return coordinator.New(memory.NewStore(), disp, opts...), disp
}

func submission(id string) domain.SubmissionRequest {
	return domain.SubmissionRequest{
		ProposalID:      id,
		Title:           "DeFi Integration",
		Description:     "Fund 50 ETH for yield farming",
		RequestedAmount: 50,
		Submitter:       "alice",
	}
}

func complianceResult() *domain.StageResult {
	return &domain.StageResult{Compliance: &domain.ComplianceResult{
		Compliant:      true,
		ReasoningTrace: "within treasury limits",
		FinancialImpact: domain.FinancialImpact{
			RequestedAmount: 50,
			TokenType:       "ETH",
		},
		RiskAssessment:  domain.RiskAssessment{OverallRisk: domain.RiskLow},
		ConfidenceScore: 0.85,
	}}
}

func sentimentResult() *domain.StageResult {
	return &domain.StageResult{Sentiment: &domain.SentimentForecast{
		Prediction:  domain.OutcomePass,
		Confidence:  0.9,
		RiskFactors: []string{},
	}}
}

func executionResult() *domain.StageResult {
	return &domain.StageResult{Execution: &domain.ExecutionReport{
		Success:     true,
		Message:     "plan ready",
		SafetyCheck: &domain.SafetyCheck{IsSafe: true},
	}}
}

func TestStartWorkflow_InitialState(t *testing.T) {
	ctx := context.Background()
	c, disp := newTestCoordinator(t)

	wf, err := c.StartWorkflow(ctx, submission("prop_1"))
	require.NoError(t, err)

	assert.Equal(t, domain.StageAnalyzingCompliance, wf.Stage)
	assert.Equal(t, domain.ProgressSubmitted, wf.Progress)
	assert.Empty(t, wf.Errors)

	compliance, _, _ := disp.counts()
	assert.Equal(t, 1, compliance, "compliance request dispatched on submission")
}

func TestStartWorkflow_ValidationRejected(t *testing.T) {
	ctx := context.Background()
	c, disp := newTestCoordinator(t)

	sub := submission("prop_1")
	sub.RequestedAmount = -5
	_, err := c.StartWorkflow(ctx, sub)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))

	// Rejected submissions never reach the state machine.
	_, statusErr := c.GetWorkflowStatus(ctx, "prop_1")
	assert.ErrorIs(t, statusErr, domain.ErrWorkflowNotFound)
	compliance, _, _ := disp.counts()
	assert.Zero(t, compliance)
}

func TestStartWorkflow_DuplicateActiveRejected(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCoordinator(t)

	_, err := c.StartWorkflow(ctx, submission("prop_1"))
	require.NoError(t, err)

	_, err = c.StartWorkflow(ctx, submission("prop_1"))
	assert.ErrorIs(t, err, domain.ErrWorkflowExists)
}

func TestStartWorkflow_TerminalResubmission(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCoordinator(t)

	_, err := c.StartWorkflow(ctx, submission("prop_1"))
	require.NoError(t, err)
	require.NoError(t, c.CompleteStage(ctx, "prop_1", domain.StageAnalyzingCompliance, true, complianceResult()))
	require.NoError(t, c.CompleteStage(ctx, "prop_1", domain.StagePredictingSentiment, true, sentimentResult()))
	require.NoError(t, c.CompleteStage(ctx, "prop_1", domain.StagePlanningExecution, true, executionResult()))

	// Completed workflows may be explicitly resubmitted.
	wf, err := c.StartWorkflow(ctx, submission("prop_1"))
	require.NoError(t, err)
	assert.Equal(t, domain.StageAnalyzingCompliance, wf.Stage)
	assert.Equal(t, domain.ProgressSubmitted, wf.Progress)
}

func TestCompleteStage_FullRun(t *testing.T) {
	ctx := context.Background()
	c, disp := newTestCoordinator(t)

	_, err := c.StartWorkflow(ctx, submission("prop_1"))
	require.NoError(t, err)

	progress := []int{domain.ProgressSubmitted}

	require.NoError(t, c.CompleteStage(ctx, "prop_1", domain.StageAnalyzingCompliance, true, complianceResult()))
	wf, err := c.GetWorkflowStatus(ctx, "prop_1")
	require.NoError(t, err)
	progress = append(progress, wf.Progress)
	assert.Equal(t, domain.StagePredictingSentiment, wf.Stage)
	assert.True(t, wf.ComplianceDone)

	require.NoError(t, c.CompleteStage(ctx, "prop_1", domain.StagePredictingSentiment, true, sentimentResult()))
	wf, err = c.GetWorkflowStatus(ctx, "prop_1")
	require.NoError(t, err)
	progress = append(progress, wf.Progress)
	assert.Equal(t, domain.StagePlanningExecution, wf.Stage)

	require.NoError(t, c.CompleteStage(ctx, "prop_1", domain.StagePlanningExecution, true, executionResult()))
	wf, err = c.GetWorkflowStatus(ctx, "prop_1")
	require.NoError(t, err)
	progress = append(progress, wf.Progress)
	assert.Equal(t, domain.StageCompleted, wf.Stage)

	assert.Equal(t, []int{10, 40, 70, 100}, progress)

	// Each downstream stage was dispatched exactly once.
	compliance, sentiment, execution := disp.counts()
	assert.Equal(t, 1, compliance)
	assert.Equal(t, 1, sentiment)
	assert.Equal(t, 1, execution)

	// Synthesis ran: mean(0.8, 0.9, 0.7) = 0.8, zero flags.
	analysis := c.GetAnalysis(ctx, "prop_1")
	assert.Equal(t, "APPROVE - High confidence, low risk", analysis.FinalRecommendation)
	assert.InDelta(t, 0.8, analysis.Confidence, 1e-9)
	assert.Equal(t, domain.RiskLow, analysis.RiskLevel)
}

func TestCompleteStage_Idempotent(t *testing.T) {
	ctx := context.Background()
	c, disp := newTestCoordinator(t)

	_, err := c.StartWorkflow(ctx, submission("prop_1"))
	require.NoError(t, err)
	require.NoError(t, c.CompleteStage(ctx, "prop_1", domain.StageAnalyzingCompliance, true, complianceResult()))

	before, _ := c.GetWorkflowStatus(ctx, "prop_1")
	_, sentimentBefore, _ := disp.counts()

	// A retried delivery of the same result is a no-op.
	require.NoError(t, c.CompleteStage(ctx, "prop_1", domain.StageAnalyzingCompliance, true, complianceResult()))

	after, _ := c.GetWorkflowStatus(ctx, "prop_1")
	_, sentimentAfter, _ := disp.counts()
	assert.Equal(t, before.Progress, after.Progress)
	assert.Equal(t, before.Stage, after.Stage)
	assert.Equal(t, sentimentBefore, sentimentAfter, "downstream dispatch must not repeat")
}

func TestCompleteStage_OutOfOrderIgnored(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCoordinator(t)

	_, err := c.StartWorkflow(ctx, submission("prop_1"))
	require.NoError(t, err)

	// Execution result while still analyzing compliance: recorded as a
	// warning, nothing advances.
	require.NoError(t, c.CompleteStage(ctx, "prop_1", domain.StagePlanningExecution, true, executionResult()))

	wf, err := c.GetWorkflowStatus(ctx, "prop_1")
	require.NoError(t, err)
	assert.Equal(t, domain.StageAnalyzingCompliance, wf.Stage)
	assert.Equal(t, domain.ProgressSubmitted, wf.Progress)
	assert.Len(t, wf.Warnings, 1)
}

func TestCompleteStage_FailureStaysInStage(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCoordinator(t)

	_, err := c.StartWorkflow(ctx, submission("prop_1"))
	require.NoError(t, err)

	require.NoError(t, c.CompleteStage(ctx, "prop_1", domain.StageAnalyzingCompliance, false, nil))

	wf, err := c.GetWorkflowStatus(ctx, "prop_1")
	require.NoError(t, err)
	assert.Equal(t, domain.StageAnalyzingCompliance, wf.Stage, "failure does not transition")
	assert.Len(t, wf.Errors, 1)
	assert.False(t, wf.Stage.Terminal())

	// The stage remains open for a retried, successful result.
	require.NoError(t, c.CompleteStage(ctx, "prop_1", domain.StageAnalyzingCompliance, true, complianceResult()))
	wf, _ = c.GetWorkflowStatus(ctx, "prop_1")
	assert.Equal(t, domain.StagePredictingSentiment, wf.Stage)
}

func TestCompleteStage_EscalationPolicy(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCoordinator(t, coordinator.WithPolicy(coordinator.Policy{MaxStageFailures: 2}))

	_, err := c.StartWorkflow(ctx, submission("prop_1"))
	require.NoError(t, err)

	require.NoError(t, c.CompleteStage(ctx, "prop_1", domain.StageAnalyzingCompliance, false, nil))
	wf, _ := c.GetWorkflowStatus(ctx, "prop_1")
	assert.Equal(t, domain.StageAnalyzingCompliance, wf.Stage)

	require.NoError(t, c.CompleteStage(ctx, "prop_1", domain.StageAnalyzingCompliance, false, nil))
	wf, _ = c.GetWorkflowStatus(ctx, "prop_1")
	assert.Equal(t, domain.StageErrored, wf.Stage)
	assert.Len(t, wf.Errors, 2)
}

func TestCompleteStage_PayloadMismatch(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCoordinator(t)

	_, err := c.StartWorkflow(ctx, submission("prop_1"))
	require.NoError(t, err)

	err = c.CompleteStage(ctx, "prop_1", domain.StageAnalyzingCompliance, true, sentimentResult())
	assert.ErrorIs(t, err, domain.ErrStageMismatch)

	wf, _ := c.GetWorkflowStatus(ctx, "prop_1")
	assert.Equal(t, domain.StageAnalyzingCompliance, wf.Stage)
	assert.Len(t, wf.Warnings, 1)
}

func TestCompleteStage_UnknownWorkflow(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCoordinator(t)

	err := c.CompleteStage(ctx, "ghost", domain.StageAnalyzingCompliance, true, complianceResult())
	assert.ErrorIs(t, err, domain.ErrWorkflowNotFound)
}

func TestGetAnalysis_UnknownPlaceholder(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCoordinator(t)

	analysis := c.GetAnalysis(ctx, "ghost")
	assert.Equal(t, domain.RecommendationUnavailable, analysis.FinalRecommendation)
	assert.Zero(t, analysis.Confidence)
	assert.Equal(t, domain.RiskUnknown, analysis.RiskLevel)
}

func TestStageTimeout_RecordsFailure(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCoordinator(t, coordinator.WithPolicy(coordinator.Policy{
		StageTimeout: 20 * time.Millisecond,
	}))

	_, err := c.StartWorkflow(ctx, submission("prop_1"))
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		wf, err := c.GetWorkflowStatus(ctx, "prop_1")
		return err == nil && len(wf.Errors) > 0
	}, time.Second, 10*time.Millisecond, "timeout should record a stage failure")

	wf, _ := c.GetWorkflowStatus(ctx, "prop_1")
	assert.Equal(t, domain.StageAnalyzingCompliance, wf.Stage, "timeout alone never escalates by default")
}

func TestDispatchError_RecordedAsFailure(t *testing.T) {
	ctx := context.Background()
	disp := &fakeDispatcher{err: assert.AnError}
	c := coordinator.New(memory.NewStore(), disp)

	_, err := c.StartWorkflow(ctx, submission("prop_1"))
	require.NoError(t, err, "submission succeeds even when dispatch fails")

	wf, err := c.GetWorkflowStatus(ctx, "prop_1")
	require.NoError(t, err)
	assert.Len(t, wf.Errors, 1)
	assert.Equal(t, domain.StageAnalyzingCompliance, wf.Stage)
}

func TestCompleteStage_MidPipelineDispatchError(t *testing.T) {
	ctx := context.Background()
	disp := &fakeDispatcher{sentimentErr: assert.AnError}
	c := coordinator.New(memory.NewStore(), disp)

	_, err := c.StartWorkflow(ctx, submission("prop_1"))
	require.NoError(t, err)

	// The failed sentiment dispatch re-acquires the per-proposal lock to
	// record the failure; CompleteStage must have released it by then.
	done := make(chan error, 1)
	go func() {
		done <- c.CompleteStage(ctx, "prop_1", domain.StageAnalyzingCompliance, true, complianceResult())
	}()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("CompleteStage did not return after a failed downstream dispatch")
	}

	wf, err := c.GetWorkflowStatus(ctx, "prop_1")
	require.NoError(t, err)
	assert.Equal(t, domain.StagePredictingSentiment, wf.Stage, "stage advanced before the dispatch attempt")
	assert.Len(t, wf.Errors, 1, "dispatch error recorded as a stage failure")
	assert.True(t, wf.ComplianceDone)
}

func TestSummary_Counts(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCoordinator(t)

	for _, id := range []string{"prop_1", "prop_2", "prop_3"} {
		_, err := c.StartWorkflow(ctx, submission(id))
		require.NoError(t, err)
	}

	require.NoError(t, c.CompleteStage(ctx, "prop_1", domain.StageAnalyzingCompliance, true, complianceResult()))
	require.NoError(t, c.CompleteStage(ctx, "prop_1", domain.StagePredictingSentiment, true, sentimentResult()))
	require.NoError(t, c.CompleteStage(ctx, "prop_1", domain.StagePlanningExecution, true, executionResult()))

	summary, err := c.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalProposals)
	assert.Equal(t, 1, summary.Completed)
	assert.Equal(t, 2, summary.InProgress)
	assert.Equal(t, 1, summary.Approved)
	assert.Zero(t, summary.Rejected)
}

func TestSummary_ErroredNotInProgress(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCoordinator(t, coordinator.WithPolicy(coordinator.Policy{MaxStageFailures: 1}))

	_, err := c.StartWorkflow(ctx, submission("prop_1"))
	require.NoError(t, err)
	_, err = c.StartWorkflow(ctx, submission("prop_2"))
	require.NoError(t, err)

	require.NoError(t, c.CompleteStage(ctx, "prop_1", domain.StageAnalyzingCompliance, false, nil))
	wf, _ := c.GetWorkflowStatus(ctx, "prop_1")
	require.Equal(t, domain.StageErrored, wf.Stage)

	summary, err := c.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalProposals)
	assert.Zero(t, summary.Completed)
	assert.Equal(t, 1, summary.InProgress)
	assert.Equal(t, 1, summary.Errored)
}
