package ports

import (
	"context"

	"github.com/daoforge/quorum/pkg/domain"
)

// AnalysisDispatcher sends stage requests to the downstream analysis units.
// Dispatch is fire-and-forget: no call blocks waiting for the unit's answer.
// Results re-enter the coordinator later as stage-completion messages
// through a StageResultSink.
type AnalysisDispatcher interface {
	// DispatchCompliance requests the compliance/financial analysis stage.
	DispatchCompliance(ctx context.Context, req domain.ComplianceRequest) error

	// DispatchSentiment requests the voter-sentiment prediction stage.
	DispatchSentiment(ctx context.Context, req domain.SentimentRequest) error

	// DispatchExecution requests the execution-planning stage.
	DispatchExecution(ctx context.Context, req domain.ExecutionRequest) error
}

// StageResultSink receives stage results as they arrive from analysis units.
// The coordinator implements it.
type StageResultSink interface {
	CompleteStage(ctx context.Context, proposalID string, stage domain.Stage, success bool, result *domain.StageResult) error
}
