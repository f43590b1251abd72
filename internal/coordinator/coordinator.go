// Package coordinator owns the per-proposal workflow lifecycle: it tracks
// progress through the fixed analysis stages, records partial results, and
// synthesizes the final recommendation once all stages complete.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/daoforge/quorum/internal/logging"
	"github.com/daoforge/quorum/internal/observability"
	"github.com/daoforge/quorum/internal/synthesis"
	"github.com/daoforge/quorum/pkg/domain"
	"github.com/daoforge/quorum/pkg/ports"
)

// Policy makes the retry/escalation behavior explicit configuration instead
// of an implicit choice buried in handlers.
type Policy struct {
	// MaxStageFailures escalates a workflow to Errored once its error list
	// reaches this length. Zero means never escalate: failures accumulate
	// and the workflow stays in its stage, open for retry.
	MaxStageFailures int

	// StageTimeout records a stage failure when a dispatched stage has not
	// reported back within this duration. Zero disables timeouts.
	StageTimeout time.Duration

	// TreasuryBalance is forwarded to the compliance stage for financial
	// impact analysis.
	TreasuryBalance float64
}

// DefaultTreasuryBalance mirrors the balance assumed for compliance
// analysis when no policy is configured.
const DefaultTreasuryBalance = 1000.0

// Coordinator drives submitted proposals through compliance analysis,
// sentiment prediction, and execution planning, in that fixed order.
// Handlers never block on downstream replies: dispatch is fire-and-forget
// and results re-enter through CompleteStage.
type Coordinator struct {
	store      ports.WorkflowStore
	dispatcher ports.AnalysisDispatcher
	roster     []string
	policy     Policy

	locks   *keyLocks
	logger  *slog.Logger
	metrics *observability.Metrics
	clock   func() time.Time

	timerMu sync.Mutex
	timers  map[string]*time.Timer
}

// Option configures the Coordinator.
type Option func(*Coordinator)

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// WithRoster sets the voter list handed to the sentiment-prediction stage.
func WithRoster(roster []string) Option {
	return func(c *Coordinator) {
		c.roster = append([]string(nil), roster...)
	}
}

// WithPolicy sets the failure-escalation and timeout policy.
func WithPolicy(p Policy) Option {
	return func(c *Coordinator) {
		c.policy = p
	}
}

// WithLocker enables distributed per-proposal locking across instances.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(c *Coordinator) {
		c.locks.locker = locker
	}
}

// WithMetrics attaches prometheus instrumentation.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(c *Coordinator) {
		c.clock = clock
	}
}

// New creates a coordinator over the given store and dispatcher.
func New(store ports.WorkflowStore, dispatcher ports.AnalysisDispatcher, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:      store,
		dispatcher: dispatcher,
		policy:     Policy{TreasuryBalance: DefaultTreasuryBalance},
		logger:     logging.NewNop(),
		clock:      time.Now,
		timers:     make(map[string]*time.Timer),
	}
	c.locks = newKeyLocks(nil, c.logger)
	for _, opt := range opts {
		opt(c)
	}
	c.locks.logger = c.logger
	if c.policy.TreasuryBalance <= 0 {
		c.policy.TreasuryBalance = DefaultTreasuryBalance
	}
	return c
}

var _ ports.StageResultSink = (*Coordinator)(nil)

// StartWorkflow validates the submission, creates the workflow and its
// analysis record in the first stage, and dispatches the compliance
// request. Submissions for proposals with an active workflow are rejected;
// a terminal workflow may be explicitly resubmitted, replacing the record.
func (c *Coordinator) StartWorkflow(ctx context.Context, sub domain.SubmissionRequest) (*domain.Workflow, error) {
	if err := sub.Validate(); err != nil {
		return nil, err
	}

	var created *domain.Workflow
	err := c.locks.withLock(ctx, sub.ProposalID, func() error {
		existing, err := c.store.LoadWorkflow(ctx, sub.ProposalID)
		switch {
		case err == nil:
			if !existing.Stage.Terminal() {
				return fmt.Errorf("%w: %s", domain.ErrWorkflowExists, sub.ProposalID)
			}
			c.logger.Info("replacing terminal workflow on resubmission",
				"proposal", sub.ProposalID, "prior_stage", existing.Stage)
		case errors.Is(err, domain.ErrWorkflowNotFound):
			// First submission for this id.
		default:
			return fmt.Errorf("load workflow: %w", err)
		}

		now := c.clock()
		wf := domain.NewWorkflow(sub.ProposalID, now)
		if err := c.store.SaveWorkflow(ctx, wf); err != nil {
			return fmt.Errorf("save workflow: %w", err)
		}
		if err := c.store.SaveAnalysis(ctx, domain.NewAggregatedAnalysis(sub.ProposalID, now)); err != nil {
			return fmt.Errorf("save analysis: %w", err)
		}
		created = wf
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.metrics.WorkflowStarted()
	c.logger.Info("workflow started", "proposal", sub.ProposalID, "stage", created.Stage)

	req := domain.ComplianceRequest{
		ProposalID:       sub.ProposalID,
		ProposalText:     fmt.Sprintf("Title: %s\nDescription: %s", sub.Title, sub.Description),
		RequestedAmount:  sub.RequestedAmount,
		TokenType:        sub.TokenType,
		RecipientAddress: sub.RecipientAddress,
		Submitter:        sub.Submitter,
		Category:         sub.Category,
		TreasuryBalance:  c.policy.TreasuryBalance,
	}
	c.dispatch(ctx, sub.ProposalID, domain.StageAnalyzingCompliance, func() error {
		return c.dispatcher.DispatchCompliance(ctx, req)
	})

	return created, nil
}

// CompleteStage records a stage result. Successful completion is idempotent
// per (proposal, stage): duplicates and out-of-order results are ignored
// rather than reprocessed. A failure appends to the error list and leaves
// the workflow in its stage; escalation to Errored is policy-driven.
func (c *Coordinator) CompleteStage(ctx context.Context, proposalID string, stage domain.Stage, success bool, result *domain.StageResult) error {
	// Dispatching the next stage happens after the per-key lock is
	// released: dispatch's error path re-acquires the same lock, and the
	// per-key mutex is not reentrant.
	var advanced *domain.Workflow
	var snapshot *domain.AggregatedAnalysis
	err := c.locks.withLock(ctx, proposalID, func() error {
		wf, err := c.store.LoadWorkflow(ctx, proposalID)
		if err != nil {
			return err
		}
		if wf.Stage.Terminal() {
			c.logger.Debug("stage result for terminal workflow ignored",
				"proposal", proposalID, "stage", stage)
			return nil
		}
		if wf.StageDone(stage) {
			c.logger.Debug("duplicate stage result ignored",
				"proposal", proposalID, "stage", stage)
			return nil
		}
		if stage != wf.Stage {
			wf.Warnings = append(wf.Warnings,
				fmt.Sprintf("out-of-order result for stage %s ignored (current stage %s)", stage, wf.Stage))
			wf.UpdatedAt = c.clock()
			return c.store.SaveWorkflow(ctx, wf)
		}

		c.metrics.StageCompleted(string(stage), success)

		if !success {
			return c.recordFailure(ctx, wf, stage, result)
		}

		if !result.Matches(stage) {
			wf.Warnings = append(wf.Warnings,
				fmt.Sprintf("result payload does not match stage %s; ignored", stage))
			wf.UpdatedAt = c.clock()
			if err := c.store.SaveWorkflow(ctx, wf); err != nil {
				return err
			}
			return domain.ErrStageMismatch
		}

		c.cancelStageTimer(proposalID, stage)

		analysis, err := c.store.LoadAnalysis(ctx, proposalID)
		if err != nil {
			return fmt.Errorf("load analysis: %w", err)
		}

		switch stage {
		case domain.StageAnalyzingCompliance:
			analysis.Compliance = result.Compliance
		case domain.StagePredictingSentiment:
			analysis.Sentiment = result.Sentiment
		case domain.StagePlanningExecution:
			analysis.Execution = result.Execution
		}

		wf.MarkStageDone(stage)
		wf.Stage = stage.Next()
		wf.BumpProgress(stage.Milestone())
		wf.UpdatedAt = c.clock()

		if stage == domain.StagePlanningExecution {
			rec := synthesis.Synthesize(analysis)
			analysis.FinalRecommendation = rec.Recommendation
			analysis.Confidence = rec.Confidence
			analysis.RiskLevel = rec.RiskLevel
			analysis.Timestamp = c.clock()
			c.metrics.RecommendationSynthesized(rec.Confidence)
			c.logger.Info("workflow completed",
				"proposal", proposalID,
				"recommendation", rec.Recommendation,
				"confidence", rec.Confidence,
				"risk", rec.RiskLevel)
		}

		if err := c.store.SaveAnalysis(ctx, analysis); err != nil {
			return fmt.Errorf("save analysis: %w", err)
		}
		if err := c.store.SaveWorkflow(ctx, wf); err != nil {
			return fmt.Errorf("save workflow: %w", err)
		}

		advanced = wf
		snapshot = analysis
		return nil
	})
	if err != nil {
		return err
	}
	if advanced != nil {
		c.dispatchNext(ctx, advanced, snapshot)
	}
	return nil
}

func (c *Coordinator) recordFailure(ctx context.Context, wf *domain.Workflow, stage domain.Stage, result *domain.StageResult) error {
	msg := fmt.Sprintf("stage %s failed", stage)
	if result != nil && result.Execution != nil && result.Execution.Message != "" {
		msg = fmt.Sprintf("stage %s failed: %s", stage, result.Execution.Message)
	}
	wf.Errors = append(wf.Errors, msg)
	wf.UpdatedAt = c.clock()

	if c.policy.MaxStageFailures > 0 && len(wf.Errors) >= c.policy.MaxStageFailures {
		wf.Stage = domain.StageErrored
		c.cancelStageTimer(wf.ProposalID, stage)
		c.logger.Warn("workflow escalated to errored",
			"proposal", wf.ProposalID, "failures", len(wf.Errors))
	} else {
		c.logger.Warn("stage failure recorded",
			"proposal", wf.ProposalID, "stage", stage, "failures", len(wf.Errors))
	}

	return c.store.SaveWorkflow(ctx, wf)
}

// dispatchNext sends the request for the stage the workflow just entered.
func (c *Coordinator) dispatchNext(ctx context.Context, wf *domain.Workflow, analysis *domain.AggregatedAnalysis) {
	switch wf.Stage {
	case domain.StagePredictingSentiment:
		text := ""
		if analysis.Compliance != nil {
			text = fmt.Sprintf("Analysis: %s", analysis.Compliance.ReasoningTrace)
		}
		req := domain.SentimentRequest{
			ProposalID:   wf.ProposalID,
			UserList:     append([]string(nil), c.roster...),
			ProposalText: text,
		}
		c.dispatch(ctx, wf.ProposalID, wf.Stage, func() error {
			return c.dispatcher.DispatchSentiment(ctx, req)
		})

	case domain.StagePlanningExecution:
		req := domain.ExecutionRequest{
			ProposalID:   wf.ProposalID,
			ProposalText: "Approved proposal for execution planning",
			TokenType:    domain.DefaultTokenType,
		}
		if analysis.Compliance != nil {
			req.BudgetAmount = analysis.Compliance.FinancialImpact.RequestedAmount
			req.TokenType = analysis.Compliance.FinancialImpact.TokenType
		}
		if analysis.Sentiment != nil {
			req.ExecutionInstructions = fmt.Sprintf(
				"Execute as planned with %s voter sentiment", analysis.Sentiment.Prediction)
		}
		c.dispatch(ctx, wf.ProposalID, wf.Stage, func() error {
			return c.dispatcher.DispatchExecution(ctx, req)
		})
	}
}

// dispatch fires the downstream request and arms the stage timeout. A
// dispatch error is recorded as a stage failure rather than crashing the
// coordinator: the workflow stays retriable.
func (c *Coordinator) dispatch(ctx context.Context, proposalID string, stage domain.Stage, send func() error) {
	if err := send(); err != nil {
		c.logger.Error("stage dispatch failed", "proposal", proposalID, "stage", stage, "err", err)
		_ = c.locks.withLock(ctx, proposalID, func() error {
			wf, loadErr := c.store.LoadWorkflow(ctx, proposalID)
			if loadErr != nil {
				return loadErr
			}
			return c.recordFailure(ctx, wf, stage, nil)
		})
		return
	}
	c.armStageTimer(proposalID, stage)
}

func (c *Coordinator) timerKey(proposalID string, stage domain.Stage) string {
	return proposalID + "/" + string(stage)
}

func (c *Coordinator) armStageTimer(proposalID string, stage domain.Stage) {
	if c.policy.StageTimeout <= 0 {
		return
	}
	key := c.timerKey(proposalID, stage)

	c.timerMu.Lock()
	defer c.timerMu.Unlock()
	if old, ok := c.timers[key]; ok {
		old.Stop()
	}
	c.timers[key] = time.AfterFunc(c.policy.StageTimeout, func() {
		c.logger.Warn("stage timed out", "proposal", proposalID, "stage", stage)
		if err := c.CompleteStage(context.Background(), proposalID, stage, false, nil); err != nil {
			c.logger.Error("failed to record stage timeout",
				"proposal", proposalID, "stage", stage, "err", err)
		}
	})
}

func (c *Coordinator) cancelStageTimer(proposalID string, stage domain.Stage) {
	c.timerMu.Lock()
	defer c.timerMu.Unlock()
	key := c.timerKey(proposalID, stage)
	if timer, ok := c.timers[key]; ok {
		timer.Stop()
		delete(c.timers, key)
	}
}

// GetWorkflowStatus returns the current workflow snapshot.
// Side-effect free.
func (c *Coordinator) GetWorkflowStatus(ctx context.Context, proposalID string) (*domain.Workflow, error) {
	return c.store.LoadWorkflow(ctx, proposalID)
}

// GetAnalysis returns the aggregated analysis snapshot, which may be
// partially populated. Unknown ids yield the explicit placeholder payload.
func (c *Coordinator) GetAnalysis(ctx context.Context, proposalID string) *domain.AggregatedAnalysis {
	analysis, err := c.store.LoadAnalysis(ctx, proposalID)
	if err != nil {
		return domain.UnavailableAnalysis(proposalID)
	}
	return analysis
}

// Summary aggregates counts over all tracked workflows and finalized
// analyses.
func (c *Coordinator) Summary(ctx context.Context) (domain.PipelineSummary, error) {
	workflows, err := c.store.ListWorkflows(ctx)
	if err != nil {
		return domain.PipelineSummary{}, err
	}

	summary := domain.PipelineSummary{TotalProposals: len(workflows)}
	for _, wf := range workflows {
		switch {
		case wf.Stage == domain.StageErrored:
			summary.Errored++
		case wf.Progress == domain.ProgressCompleted:
			summary.Completed++
		}
	}
	summary.InProgress = summary.TotalProposals - summary.Completed - summary.Errored

	analyses, err := c.store.ListAnalyses(ctx)
	if err != nil {
		return domain.PipelineSummary{}, err
	}
	for _, a := range analyses {
		switch {
		case strings.Contains(a.FinalRecommendation, "APPROVE"):
			summary.Approved++
		case strings.Contains(a.FinalRecommendation, "REJECT"):
			summary.Rejected++
		}
	}
	return summary, nil
}
