package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daoforge/quorum/pkg/domain"
)

// RunKnowledgeStoreContract verifies that a KnowledgeStore implementation
// adheres to the interface contract. Both the memory and redis adapters run
// this suite.
func RunKnowledgeStoreContract(t *testing.T, store KnowledgeStore) {
	ctx := context.Background()
	suffix := time.Now().Format("20060102150405")
	user := "contract-user-" + suffix
	proposal := "contract-prop-" + suffix

	t.Run("Influence Default", func(t *testing.T) {
		w, err := store.Influence(ctx, "unknown-"+suffix)
		require.NoError(t, err)
		assert.Equal(t, domain.DefaultInfluence, w, "unknown users default to the baseline weight")
	})

	t.Run("Influence Set and Clamp", func(t *testing.T) {
		require.NoError(t, store.SetInfluence(ctx, user, 0.8))
		w, err := store.Influence(ctx, user)
		require.NoError(t, err)
		assert.InDelta(t, 0.8, w, 1e-9)

		require.NoError(t, store.SetInfluence(ctx, user+"-hot", 1.7))
		w, err = store.Influence(ctx, user+"-hot")
		require.NoError(t, err)
		assert.InDelta(t, 1.0, w, 1e-9, "weights are clamped to [0,1]")
	})

	t.Run("Vote Uniqueness", func(t *testing.T) {
		require.NoError(t, store.CastVote(ctx, user, proposal, domain.StanceFor))

		err := store.CastVote(ctx, user, proposal, domain.StanceAgainst)
		assert.ErrorIs(t, err, domain.ErrDuplicateVote)

		stance, ok, err := store.Vote(ctx, user, proposal)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, domain.StanceFor, stance, "first cast wins")
	})

	t.Run("Votes By User", func(t *testing.T) {
		require.NoError(t, store.CastVote(ctx, user, proposal+"-2", domain.StanceAgainst))

		votes, err := store.VotesByUser(ctx, user)
		require.NoError(t, err)
		assert.Len(t, votes, 2)
	})

	t.Run("Follow Edges", func(t *testing.T) {
		follows, err := store.Follows(ctx, user)
		require.NoError(t, err)
		assert.Empty(t, follows)

		require.NoError(t, store.SetFollows(ctx, user, []string{"alice", "bob"}))
		follows, err = store.Follows(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, []string{"alice", "bob"}, follows)
	})

	t.Run("Sentiment Last Write Wins", func(t *testing.T) {
		_, ok, err := store.Sentiment(ctx, user, proposal)
		require.NoError(t, err)
		assert.False(t, ok)

		first := domain.SentimentObservation{
			UserID: user, ProposalID: proposal,
			SentimentScore: 0.4, InfluenceLevel: "medium", Confidence: 0.6,
		}
		require.NoError(t, store.AssertSentiment(ctx, first))

		second := first
		second.SentimentScore = -0.9
		require.NoError(t, store.AssertSentiment(ctx, second))

		got, ok, err := store.Sentiment(ctx, user, proposal)
		require.NoError(t, err)
		require.True(t, ok)
		assert.InDelta(t, -0.9, got.SentimentScore, 1e-9)
	})

	t.Run("Sentiment Clamped", func(t *testing.T) {
		obs := domain.SentimentObservation{
			UserID: user + "-c", ProposalID: proposal,
			SentimentScore: -3.0, InfluenceLevel: "low", Confidence: 1.4,
		}
		require.NoError(t, store.AssertSentiment(ctx, obs))

		got, ok, err := store.Sentiment(ctx, user+"-c", proposal)
		require.NoError(t, err)
		require.True(t, ok)
		assert.InDelta(t, -1.0, got.SentimentScore, 1e-9)
		assert.InDelta(t, 1.0, got.Confidence, 1e-9)
	})

	t.Run("Predictions", func(t *testing.T) {
		pred := domain.VotePrediction{
			UserID: user, ProposalID: proposal,
			Stance: domain.StanceFor, Confidence: 0.46,
			Reasoning: "Sentiment: 0.50; User influence: 0.80",
		}
		require.NoError(t, store.SavePrediction(ctx, pred))

		got, ok, err := store.Prediction(ctx, user, proposal)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, pred, got)
	})
}
