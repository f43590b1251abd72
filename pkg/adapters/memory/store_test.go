package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daoforge/quorum/pkg/adapters/memory"
	"github.com/daoforge/quorum/pkg/domain"
)

func TestStore_WorkflowRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	wf := domain.NewWorkflow("prop_1", time.Now())
	require.NoError(t, store.SaveWorkflow(ctx, wf))

	loaded, err := store.LoadWorkflow(ctx, "prop_1")
	require.NoError(t, err)
	assert.Equal(t, domain.StageAnalyzingCompliance, loaded.Stage)
	assert.Equal(t, domain.ProgressSubmitted, loaded.Progress)
}

func TestStore_NotFound(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	_, err := store.LoadWorkflow(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrWorkflowNotFound)

	_, err = store.LoadAnalysis(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrWorkflowNotFound)
}

func TestStore_CopyOnRead(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	wf := domain.NewWorkflow("prop_1", time.Now())
	require.NoError(t, store.SaveWorkflow(ctx, wf))

	// Mutating a loaded snapshot must not leak back into the store.
	loaded, err := store.LoadWorkflow(ctx, "prop_1")
	require.NoError(t, err)
	loaded.Errors = append(loaded.Errors, "local mutation")
	loaded.Progress = 99

	fresh, err := store.LoadWorkflow(ctx, "prop_1")
	require.NoError(t, err)
	assert.Empty(t, fresh.Errors)
	assert.Equal(t, domain.ProgressSubmitted, fresh.Progress)
}

func TestStore_AnalysisRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	a := domain.NewAggregatedAnalysis("prop_1", time.Now())
	a.Sentiment = &domain.SentimentForecast{
		ProposalID:    "prop_1",
		Prediction:    domain.OutcomePass,
		Confidence:    0.7,
		VoteBreakdown: map[domain.Stance]int{domain.StanceFor: 3},
	}
	require.NoError(t, store.SaveAnalysis(ctx, a))

	loaded, err := store.LoadAnalysis(ctx, "prop_1")
	require.NoError(t, err)
	require.NotNil(t, loaded.Sentiment)
	assert.Equal(t, domain.OutcomePass, loaded.Sentiment.Prediction)

	// Copy isolation extends into nested maps.
	loaded.Sentiment.VoteBreakdown[domain.StanceFor] = 99
	fresh, err := store.LoadAnalysis(ctx, "prop_1")
	require.NoError(t, err)
	assert.Equal(t, 3, fresh.Sentiment.VoteBreakdown[domain.StanceFor])
}
