package ports

import (
	"context"

	"github.com/daoforge/quorum/pkg/domain"
)

// WorkflowStore persists workflows and their aggregated analyses.
// It replaces the original process-wide maps with an explicit store object
// owned by the coordinator; implementations must be safe for concurrent use.
type WorkflowStore interface {
	// SaveWorkflow persists the workflow snapshot.
	SaveWorkflow(ctx context.Context, wf *domain.Workflow) error

	// LoadWorkflow retrieves the workflow for a proposal id.
	// Returns domain.ErrWorkflowNotFound if unknown.
	LoadWorkflow(ctx context.Context, proposalID string) (*domain.Workflow, error)

	// SaveAnalysis persists the aggregated analysis snapshot.
	SaveAnalysis(ctx context.Context, a *domain.AggregatedAnalysis) error

	// LoadAnalysis retrieves the analysis for a proposal id.
	// Returns domain.ErrWorkflowNotFound if unknown.
	LoadAnalysis(ctx context.Context, proposalID string) (*domain.AggregatedAnalysis, error)

	// ListWorkflows returns snapshots of every tracked workflow.
	ListWorkflows(ctx context.Context) ([]*domain.Workflow, error)

	// ListAnalyses returns snapshots of every tracked analysis.
	ListAnalyses(ctx context.Context) ([]*domain.AggregatedAnalysis, error)
}
