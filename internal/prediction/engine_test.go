package prediction_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daoforge/quorum/internal/prediction"
	"github.com/daoforge/quorum/pkg/adapters/memory"
	"github.com/daoforge/quorum/pkg/domain"
)

func seededEngine(t *testing.T) (*prediction.Engine, *memory.Knowledge) {
	t.Helper()
	kg := memory.NewKnowledge()
	require.NoError(t, kg.Seed(context.Background()))
	return prediction.NewEngine(kg), kg
}

func TestPredictUserVote_SentimentOnly(t *testing.T) {
	ctx := context.Background()
	kg := memory.NewKnowledge()
	engine := prediction.NewEngine(kg)

	// Sentiment 0.5, self influence 0.8, no follows recorded:
	// total = 0.6*0.5 = 0.3 > 0.2 => For; confidence = 0.3 + 0.2*0.8 = 0.46.
	require.NoError(t, kg.SetInfluence(ctx, "alice", 0.8))
	require.NoError(t, kg.AssertSentiment(ctx, domain.SentimentObservation{
		UserID:         "alice",
		ProposalID:     "prop_x",
		SentimentScore: 0.5,
		InfluenceLevel: "high",
		Confidence:     0.9,
	}))

	pred, err := engine.PredictUserVote(ctx, "alice", "prop_x")
	require.NoError(t, err)
	assert.Equal(t, domain.StanceFor, pred.Stance)
	assert.InDelta(t, 0.46, pred.Confidence, 1e-9)
	assert.Contains(t, pred.Reasoning, "Sentiment: 0.50")
	assert.Contains(t, pred.Reasoning, "User influence: 0.80")
}

func TestPredictUserVote_NoData(t *testing.T) {
	ctx := context.Background()
	kg := memory.NewKnowledge()
	engine := prediction.NewEngine(kg)

	// Unknown user: sentiment defaults to 0, influence to 0.2.
	pred, err := engine.PredictUserVote(ctx, "stranger", "prop_x")
	require.NoError(t, err)
	assert.Equal(t, domain.StanceNeutral, pred.Stance)
	assert.InDelta(t, 0.04, pred.Confidence, 1e-9)
	assert.NotContains(t, pred.Reasoning, "Sentiment:")
}

func TestPredictUserVote_SocialInfluence(t *testing.T) {
	ctx := context.Background()
	engine, _ := seededEngine(t)

	// dave follows alice (0.8, For) and bob (0.6, Against) on prop_001:
	// social = (1*0.8 - 1*0.6) * 0.3 = 0.06; total = 0.4*0.06 = 0.024 => Neutral.
	pred, err := engine.PredictUserVote(ctx, "dave", "prop_001")
	require.NoError(t, err)
	assert.Equal(t, domain.StanceNeutral, pred.Stance)
	assert.Contains(t, pred.Reasoning, "Social network: 1 For, 1 Against")
}

func TestPredictUserVote_SocialPushesStance(t *testing.T) {
	ctx := context.Background()
	engine, kg := seededEngine(t)

	// eve follows only alice (For on prop_001) and carries positive
	// sentiment: both terms line up above the stance threshold.
	require.NoError(t, kg.AssertSentiment(ctx, domain.SentimentObservation{
		UserID:         "eve",
		ProposalID:     "prop_001",
		SentimentScore: 0.4,
		InfluenceLevel: "medium",
		Confidence:     0.7,
	}))

	pred, err := engine.PredictUserVote(ctx, "eve", "prop_001")
	require.NoError(t, err)
	// total = 0.6*0.4 + 0.4*(0.8*0.3) = 0.24 + 0.096 = 0.336
	assert.Equal(t, domain.StanceFor, pred.Stance)
	assert.InDelta(t, 0.436, pred.Confidence, 1e-9)
}

func TestPredictOutcome_EmptyRoster(t *testing.T) {
	ctx := context.Background()
	engine, _ := seededEngine(t)

	forecast, err := engine.PredictOutcome(ctx, "prop_x", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeUncertain, forecast.Prediction)
	assert.Zero(t, forecast.Confidence)
	assert.Empty(t, forecast.KeyInfluencers)
	assert.Contains(t, forecast.RiskFactors, "Small sample size")
}

func TestPredictOutcome_PersistsPredictions(t *testing.T) {
	ctx := context.Background()
	engine, kg := seededEngine(t)

	_, err := engine.PredictOutcome(ctx, "prop_009", []string{"alice", "bob"})
	require.NoError(t, err)

	pred, ok, err := kg.Prediction(ctx, "alice", "prop_009")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "alice", pred.UserID)
	assert.NotEmpty(t, pred.Reasoning)
}

func TestPredictOutcome_KeyInfluencersStableTop3(t *testing.T) {
	ctx := context.Background()
	engine, kg := seededEngine(t)

	// charlie and a tied newcomer share 0.4; roster order breaks the tie.
	require.NoError(t, kg.SetInfluence(ctx, "frank", 0.4))

	forecast, err := engine.PredictOutcome(ctx, "prop_x",
		[]string{"charlie", "frank", "alice", "bob", "eve"})
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob", "eve"}, forecast.KeyInfluencers)

	forecast, err = engine.PredictOutcome(ctx, "prop_x",
		[]string{"charlie", "frank", "alice"})
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "charlie", "frank"}, forecast.KeyInfluencers)
}

func TestPredictOutcome_RiskFactors(t *testing.T) {
	ctx := context.Background()
	engine, kg := seededEngine(t)

	// Strong positive sentiment for two of three voters on a small roster.
	for _, user := range []string{"alice", "bob"} {
		require.NoError(t, kg.AssertSentiment(ctx, domain.SentimentObservation{
			UserID:         user,
			ProposalID:     "prop_z",
			SentimentScore: 0.9,
			InfluenceLevel: "high",
			Confidence:     0.9,
		}))
	}

	forecast, err := engine.PredictOutcome(ctx, "prop_z", []string{"alice", "bob", "dave"})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomePass, forecast.Prediction)
	assert.Contains(t, forecast.RiskFactors, "Small sample size")
	assert.Contains(t, forecast.RiskFactors, "Very close margin")
	assert.Equal(t, 2, forecast.VoteBreakdown[domain.StanceFor])
	assert.Equal(t, 1, forecast.VoteBreakdown[domain.StanceNeutral])
}

func TestPredictOutcome_ApathyFlag(t *testing.T) {
	ctx := context.Background()
	engine, _ := seededEngine(t)

	// No sentiment for anyone: every prediction lands Neutral.
	forecast, err := engine.PredictOutcome(ctx, "prop_new",
		[]string{"alice", "bob", "charlie", "dave", "eve"})
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeUncertain, forecast.Prediction)
	assert.Contains(t, forecast.RiskFactors, "High voter apathy")
	assert.NotContains(t, forecast.RiskFactors, "Small sample size")
}
