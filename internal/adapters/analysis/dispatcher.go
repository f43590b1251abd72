// Package analysis implements the downstream analysis units as local,
// deterministic simulations: compliance/financial analysis over static
// prices, sentiment forecasting via the prediction engine, and
// execution-safety planning. A LocalDispatcher runs them asynchronously
// and feeds results back through the stage-result sink, so the
// coordinator sees the same fire-and-forget shape as with remote units.
package analysis

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/daoforge/quorum/internal/logging"
	"github.com/daoforge/quorum/internal/prediction"
	"github.com/daoforge/quorum/pkg/domain"
	"github.com/daoforge/quorum/pkg/ports"
)

// ErrNotBound is returned when a dispatch arrives before Bind.
var ErrNotBound = errors.New("analysis: dispatcher has no stage-result sink")

// LocalDispatcher implements ports.AnalysisDispatcher with in-process
// analysis units. Each dispatch runs on its own goroutine and reports back
// through the bound sink.
type LocalDispatcher struct {
	compliance *ComplianceAnalyzer
	sentiment  *SentimentStage
	planner    *ExecutionPlanner
	logger     *slog.Logger

	mu   sync.RWMutex
	sink ports.StageResultSink
	wg   sync.WaitGroup
}

// Option configures the LocalDispatcher.
type Option func(*options)

type options struct {
	logger    *slog.Logger
	prices    ports.PriceSource
	budgetCap float64
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithPriceSource overrides the static price table.
func WithPriceSource(prices ports.PriceSource) Option {
	return func(o *options) {
		o.prices = prices
	}
}

// WithBudgetCap caps the amount a single execution plan may disburse.
func WithBudgetCap(limit float64) Option {
	return func(o *options) {
		o.budgetCap = limit
	}
}

// NewLocalDispatcher creates a dispatcher whose sentiment stage predicts
// over the given knowledge store. Bind must be called before dispatching.
func NewLocalDispatcher(kg ports.KnowledgeStore, opts ...Option) *LocalDispatcher {
	o := options{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &LocalDispatcher{
		compliance: NewComplianceAnalyzer(o.prices),
		sentiment:  NewSentimentStage(prediction.NewEngine(kg, prediction.WithLogger(o.logger))),
		planner:    NewExecutionPlanner(o.budgetCap),
		logger:     o.logger,
	}
}

var _ ports.AnalysisDispatcher = (*LocalDispatcher)(nil)

// Bind connects the dispatcher to the stage-result sink. The coordinator
// and the dispatcher reference each other, so binding happens after both
// are constructed.
func (d *LocalDispatcher) Bind(sink ports.StageResultSink) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sink = sink
}

// Wait blocks until all in-flight analyses have delivered their results.
func (d *LocalDispatcher) Wait() {
	d.wg.Wait()
}

// DispatchCompliance runs the compliance analysis asynchronously.
func (d *LocalDispatcher) DispatchCompliance(_ context.Context, req domain.ComplianceRequest) error {
	if err := d.ready(); err != nil {
		return err
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		// The submission request's context may be gone before analysis
		// finishes; results are delivered on a detached context.
		ctx := context.Background()
		result := d.compliance.Analyze(ctx, req)
		d.deliver(ctx, req.ProposalID, domain.StageAnalyzingCompliance, true,
			&domain.StageResult{Compliance: result})
	}()
	return nil
}

// DispatchSentiment runs the sentiment forecast asynchronously.
func (d *LocalDispatcher) DispatchSentiment(_ context.Context, req domain.SentimentRequest) error {
	if err := d.ready(); err != nil {
		return err
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx := context.Background()
		forecast, err := d.sentiment.Forecast(ctx, req)
		if err != nil {
			d.logger.Error("sentiment forecast failed", "proposal", req.ProposalID, "err", err)
			d.deliver(ctx, req.ProposalID, domain.StagePredictingSentiment, false, nil)
			return
		}
		d.deliver(ctx, req.ProposalID, domain.StagePredictingSentiment, true,
			&domain.StageResult{Sentiment: forecast})
	}()
	return nil
}

// DispatchExecution runs the execution planner asynchronously. A plan that
// fails its safety check is reported as a stage failure.
func (d *LocalDispatcher) DispatchExecution(_ context.Context, req domain.ExecutionRequest) error {
	if err := d.ready(); err != nil {
		return err
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx := context.Background()
		report := d.planner.Plan(ctx, req)
		d.deliver(ctx, req.ProposalID, domain.StagePlanningExecution, report.Success,
			&domain.StageResult{Execution: report})
	}()
	return nil
}

func (d *LocalDispatcher) ready() error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.sink == nil {
		return ErrNotBound
	}
	return nil
}

func (d *LocalDispatcher) deliver(ctx context.Context, proposalID string, stage domain.Stage, success bool, result *domain.StageResult) {
	d.mu.RLock()
	sink := d.sink
	d.mu.RUnlock()
	if err := sink.CompleteStage(ctx, proposalID, stage, success, result); err != nil {
		d.logger.Error("stage result delivery failed",
			"proposal", proposalID, "stage", stage, "err", err)
	}
}
