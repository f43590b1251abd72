package memory

import (
	"context"
	"sync"

	"github.com/daoforge/quorum/pkg/domain"
)

// Store implements ports.WorkflowStore in memory.
// Safe for concurrent use.
type Store struct {
	workflows map[string]*domain.Workflow
	analyses  map[string]*domain.AggregatedAnalysis
	mu        sync.RWMutex
}

// NewStore creates a new in-memory workflow store.
func NewStore() *Store {
	return &Store{
		workflows: make(map[string]*domain.Workflow),
		analyses:  make(map[string]*domain.AggregatedAnalysis),
	}
}

// SaveWorkflow persists the workflow snapshot.
func (s *Store) SaveWorkflow(ctx context.Context, wf *domain.Workflow) error {
	cp := copyWorkflow(wf)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.workflows[wf.ProposalID] = cp
	return nil
}

// LoadWorkflow retrieves the workflow for a proposal id.
func (s *Store) LoadWorkflow(ctx context.Context, proposalID string) (*domain.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wf, ok := s.workflows[proposalID]
	if !ok {
		return nil, domain.ErrWorkflowNotFound
	}
	return copyWorkflow(wf), nil
}

// SaveAnalysis persists the aggregated analysis snapshot.
func (s *Store) SaveAnalysis(ctx context.Context, a *domain.AggregatedAnalysis) error {
	cp := copyAnalysis(a)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.analyses[a.ProposalID] = cp
	return nil
}

// LoadAnalysis retrieves the analysis for a proposal id.
func (s *Store) LoadAnalysis(ctx context.Context, proposalID string) (*domain.AggregatedAnalysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.analyses[proposalID]
	if !ok {
		return nil, domain.ErrWorkflowNotFound
	}
	return copyAnalysis(a), nil
}

// ListWorkflows returns snapshots of every tracked workflow.
func (s *Store) ListWorkflows(ctx context.Context) ([]*domain.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Workflow, 0, len(s.workflows))
	for _, wf := range s.workflows {
		out = append(out, copyWorkflow(wf))
	}
	return out, nil
}

// ListAnalyses returns snapshots of every tracked analysis.
func (s *Store) ListAnalyses(ctx context.Context) ([]*domain.AggregatedAnalysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.AggregatedAnalysis, 0, len(s.analyses))
	for _, a := range s.analyses {
		out = append(out, copyAnalysis(a))
	}
	return out, nil
}

// Copies isolate callers from store-held pointers, so a loaded snapshot can
// be mutated and saved back without racing concurrent readers.

func copyWorkflow(wf *domain.Workflow) *domain.Workflow {
	cp := *wf
	cp.Errors = append([]string(nil), wf.Errors...)
	cp.Warnings = append([]string(nil), wf.Warnings...)
	return &cp
}

func copyAnalysis(a *domain.AggregatedAnalysis) *domain.AggregatedAnalysis {
	cp := *a
	if a.Compliance != nil {
		c := *a.Compliance
		cp.Compliance = &c
	}
	if a.Sentiment != nil {
		sn := *a.Sentiment
		sn.VoteBreakdown = make(map[domain.Stance]int, len(a.Sentiment.VoteBreakdown))
		for k, v := range a.Sentiment.VoteBreakdown {
			sn.VoteBreakdown[k] = v
		}
		sn.KeyInfluencers = append([]string(nil), a.Sentiment.KeyInfluencers...)
		sn.RiskFactors = append([]string(nil), a.Sentiment.RiskFactors...)
		cp.Sentiment = &sn
	}
	if a.Execution != nil {
		x := *a.Execution
		cp.Execution = &x
	}
	return &cp
}
