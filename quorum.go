package quorum

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/daoforge/quorum/internal/adapters/analysis"
	"github.com/daoforge/quorum/internal/coordinator"
	"github.com/daoforge/quorum/internal/logging"
	"github.com/daoforge/quorum/internal/observability"
	"github.com/daoforge/quorum/internal/prediction"
	"github.com/daoforge/quorum/pkg/adapters/memory"
	"github.com/daoforge/quorum/pkg/domain"
	"github.com/daoforge/quorum/pkg/ports"
)

// Version is the library version.
const Version = "0.1.0"

// Policy re-exports the coordinator's escalation policy for configuration.
type Policy = coordinator.Policy

// Engine is the high-level entry point for the governance pipeline. It
// wires the workflow coordinator, the analysis units, and the knowledge
// store, defaulting every collaborator to its in-memory implementation.
type Engine struct {
	coordinator *coordinator.Coordinator
	dispatcher  ports.AnalysisDispatcher
	store       ports.WorkflowStore
	knowledge   ports.KnowledgeStore
	analyzer    ports.SentimentAnalyzer
	predictor   *prediction.Engine
	logger      *slog.Logger
	metrics     *observability.Metrics
	locker      ports.DistributedLocker
	policy      Policy
	roster      []string
}

// Option configures the Engine.
type Option func(*Engine)

// WithLogger sets a structured logger for all components.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithWorkflowStore injects a custom workflow store.
func WithWorkflowStore(store ports.WorkflowStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithKnowledgeStore injects a custom knowledge store.
func WithKnowledgeStore(kg ports.KnowledgeStore) Option {
	return func(e *Engine) {
		e.knowledge = kg
	}
}

// WithDispatcher injects a custom analysis dispatcher, bypassing the local
// simulated units.
func WithDispatcher(d ports.AnalysisDispatcher) Option {
	return func(e *Engine) {
		e.dispatcher = d
	}
}

// WithSentimentAnalyzer injects a custom comment analyzer.
func WithSentimentAnalyzer(a ports.SentimentAnalyzer) Option {
	return func(e *Engine) {
		e.analyzer = a
	}
}

// WithPolicy sets the failure-escalation and treasury policy.
func WithPolicy(p Policy) Option {
	return func(e *Engine) {
		e.policy = p
	}
}

// WithVoterRoster sets the voter list for sentiment prediction.
func WithVoterRoster(roster []string) Option {
	return func(e *Engine) {
		e.roster = append([]string(nil), roster...)
	}
}

// WithLocker enables distributed per-proposal locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = locker
	}
}

// WithMetrics attaches prometheus instrumentation.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// binder is implemented by dispatchers that deliver results in-process and
// need the stage-result sink after construction.
type binder interface {
	Bind(ports.StageResultSink)
}

// New initializes the pipeline engine. With no options it runs fully
// in-memory with the local simulated analysis units.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		logger: logging.NewNop(),
		policy: Policy{TreasuryBalance: coordinator.DefaultTreasuryBalance},
		roster: append([]string(nil), memory.SeedUsers...),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.policy.TreasuryBalance <= 0 {
		e.policy.TreasuryBalance = coordinator.DefaultTreasuryBalance
	}
	if e.store == nil {
		e.store = memory.NewStore()
	}
	if e.knowledge == nil {
		e.knowledge = memory.NewKnowledge()
	}
	if e.analyzer == nil {
		e.analyzer = analysis.NewLexiconAnalyzer()
	}
	if e.dispatcher == nil {
		e.dispatcher = analysis.NewLocalDispatcher(e.knowledge,
			analysis.WithLogger(e.logger),
			analysis.WithBudgetCap(e.policy.TreasuryBalance),
		)
	}

	e.predictor = prediction.NewEngine(e.knowledge, prediction.WithLogger(e.logger))

	e.coordinator = coordinator.New(e.store, e.dispatcher,
		coordinator.WithLogger(e.logger),
		coordinator.WithRoster(e.roster),
		coordinator.WithPolicy(e.policy),
		coordinator.WithLocker(e.locker),
		coordinator.WithMetrics(e.metrics),
	)

	if b, ok := e.dispatcher.(binder); ok {
		b.Bind(e.coordinator)
	}

	return e, nil
}

// SubmitProposal validates the submission and opens its workflow.
func (e *Engine) SubmitProposal(ctx context.Context, sub domain.SubmissionRequest) (*domain.Workflow, error) {
	return e.coordinator.StartWorkflow(ctx, sub)
}

// CompleteStage records a stage result from an external analysis unit.
func (e *Engine) CompleteStage(ctx context.Context, proposalID string, stage domain.Stage, success bool, result *domain.StageResult) error {
	return e.coordinator.CompleteStage(ctx, proposalID, stage, success, result)
}

// WorkflowStatus returns the current workflow snapshot.
func (e *Engine) WorkflowStatus(ctx context.Context, proposalID string) (*domain.Workflow, error) {
	return e.coordinator.GetWorkflowStatus(ctx, proposalID)
}

// Analysis returns the aggregated analysis, possibly partial.
func (e *Engine) Analysis(ctx context.Context, proposalID string) *domain.AggregatedAnalysis {
	return e.coordinator.GetAnalysis(ctx, proposalID)
}

// Query answers a free-text question about the pipeline.
func (e *Engine) Query(ctx context.Context, req domain.QueryRequest) domain.QueryReply {
	return e.coordinator.Query(ctx, req)
}

// Summary aggregates counts over all tracked workflows.
func (e *Engine) Summary(ctx context.Context) (domain.PipelineSummary, error) {
	return e.coordinator.Summary(ctx)
}

// PredictVote forecasts one user's stance on a proposal.
func (e *Engine) PredictVote(ctx context.Context, userID, proposalID string) (domain.VotePrediction, error) {
	return e.predictor.PredictUserVote(ctx, userID, proposalID)
}

// PredictOutcome forecasts the aggregate vote outcome over the configured
// roster.
func (e *Engine) PredictOutcome(ctx context.Context, proposalID string) (domain.SentimentForecast, error) {
	return e.predictor.PredictOutcome(ctx, proposalID, e.roster)
}

// ProcessComment scores a discussion comment and asserts the resulting
// sentiment observation into the knowledge store.
func (e *Engine) ProcessComment(ctx context.Context, comment domain.DiscussionComment) (domain.SentimentObservation, error) {
	obs, err := e.analyzer.Analyze(ctx, comment)
	if err != nil {
		return domain.SentimentObservation{}, fmt.Errorf("analyze comment: %w", err)
	}
	if err := e.knowledge.AssertSentiment(ctx, obs); err != nil {
		return domain.SentimentObservation{}, fmt.Errorf("record sentiment: %w", err)
	}
	e.logger.Info("comment processed",
		"user", comment.UserID,
		"proposal", comment.ProposalID,
		"score", obs.SentimentScore)
	return obs, nil
}

// SeedDemoData loads the sample voter graph into the knowledge store.
func (e *Engine) SeedDemoData(ctx context.Context) error {
	return memory.Seed(ctx, e.knowledge)
}

// Knowledge exposes the knowledge store for adapters built on the engine.
func (e *Engine) Knowledge() ports.KnowledgeStore {
	return e.knowledge
}

// Roster returns the configured voter roster.
func (e *Engine) Roster() []string {
	return append([]string(nil), e.roster...)
}

// Drain blocks until in-flight local analyses have delivered their results.
// It is a no-op for dispatchers without in-process delivery.
func (e *Engine) Drain() {
	if d, ok := e.dispatcher.(interface{ Wait() }); ok {
		d.Wait()
	}
}
