// Package prediction implements the vote-outcome prediction engine: per-user
// stance forecasts combining stored sentiment with social-graph influence,
// and an influence-weighted aggregate outcome per proposal.
package prediction

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/daoforge/quorum/internal/logging"
	"github.com/daoforge/quorum/pkg/domain"
	"github.com/daoforge/quorum/pkg/ports"
)

// Scoring constants. Sentiment dominates the combined score; votes observed
// in the follow graph are damped before they contribute.
const (
	sentimentWeight  = 0.6
	socialWeight     = 0.4
	socialDamping    = 0.3
	stanceThreshold  = 0.2
	influenceBoost   = 0.2
	outcomeThreshold = 0.10
)

// Engine predicts individual votes and aggregate outcomes from the
// knowledge store. Both operations are non-failing on well-formed input:
// missing data defaults instead of erroring.
type Engine struct {
	kg     ports.KnowledgeStore
	logger *slog.Logger
}

// Option configures the Engine.
type Option func(*Engine)

// WithLogger sets a structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine creates a prediction engine backed by the given knowledge store.
func NewEngine(kg ports.KnowledgeStore, opts ...Option) *Engine {
	e := &Engine{
		kg:     kg,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// PredictUserVote forecasts one user's stance on a proposal.
// The combined score is 0.6*sentiment + 0.4*socialInfluence, where the
// social term sums each followed user's recorded vote weighted by that
// user's influence and the damping factor.
func (e *Engine) PredictUserVote(ctx context.Context, userID, proposalID string) (domain.VotePrediction, error) {
	var sentimentScore float64
	obs, hasSentiment, err := e.kg.Sentiment(ctx, userID, proposalID)
	if err != nil {
		return domain.VotePrediction{}, fmt.Errorf("sentiment lookup for %s: %w", userID, err)
	}
	if hasSentiment {
		sentimentScore = obs.SentimentScore
	}

	selfInfluence, err := e.kg.Influence(ctx, userID)
	if err != nil {
		return domain.VotePrediction{}, fmt.Errorf("influence lookup for %s: %w", userID, err)
	}

	follows, err := e.kg.Follows(ctx, userID)
	if err != nil {
		return domain.VotePrediction{}, fmt.Errorf("follow lookup for %s: %w", userID, err)
	}

	var social float64
	var forCount, againstCount int
	for _, followed := range follows {
		stance, voted, err := e.kg.Vote(ctx, followed, proposalID)
		if err != nil {
			return domain.VotePrediction{}, fmt.Errorf("vote lookup for %s: %w", followed, err)
		}
		if !voted {
			continue
		}
		influence, err := e.kg.Influence(ctx, followed)
		if err != nil {
			return domain.VotePrediction{}, fmt.Errorf("influence lookup for %s: %w", followed, err)
		}
		social += stance.Weight() * influence * socialDamping
		switch stance {
		case domain.StanceFor:
			forCount++
		case domain.StanceAgainst:
			againstCount++
		}
	}

	total := sentimentScore*sentimentWeight + social*socialWeight

	stance := domain.StanceNeutral
	if total > stanceThreshold {
		stance = domain.StanceFor
	} else if total < -stanceThreshold {
		stance = domain.StanceAgainst
	}

	confidence := math.Min(math.Abs(total)+selfInfluence*influenceBoost, 1.0)

	// The reasoning trace is part of the prediction's audit record, not just
	// display text.
	var reasons []string
	if hasSentiment {
		reasons = append(reasons, fmt.Sprintf("Sentiment: %.2f", sentimentScore))
	}
	if forCount+againstCount > 0 {
		reasons = append(reasons, fmt.Sprintf("Social network: %d For, %d Against", forCount, againstCount))
	}
	reasons = append(reasons, fmt.Sprintf("User influence: %.2f", selfInfluence))

	return domain.VotePrediction{
		UserID:     userID,
		ProposalID: proposalID,
		Stance:     stance,
		Confidence: confidence,
		Reasoning:  strings.Join(reasons, "; "),
	}, nil
}

// PredictOutcome forecasts the aggregate outcome over the given voters.
// Every per-user prediction is persisted before tallying. An empty user
// list degrades to an Uncertain forecast with zero confidence.
func (e *Engine) PredictOutcome(ctx context.Context, proposalID string, userList []string) (domain.SentimentForecast, error) {
	breakdown := map[domain.Stance]int{
		domain.StanceFor:     0,
		domain.StanceAgainst: 0,
		domain.StanceNeutral: 0,
	}

	var weightedScore float64
	for _, userID := range userList {
		pred, err := e.PredictUserVote(ctx, userID, proposalID)
		if err != nil {
			return domain.SentimentForecast{}, err
		}
		if err := e.kg.SavePrediction(ctx, pred); err != nil {
			return domain.SentimentForecast{}, fmt.Errorf("persist prediction for %s: %w", userID, err)
		}

		influence, err := e.kg.Influence(ctx, userID)
		if err != nil {
			return domain.SentimentForecast{}, fmt.Errorf("influence lookup for %s: %w", userID, err)
		}

		breakdown[pred.Stance]++
		switch pred.Stance {
		case domain.StanceFor:
			weightedScore += pred.Confidence * influence
		case domain.StanceAgainst:
			weightedScore -= pred.Confidence * influence
		}
	}

	var totalPower float64
	for _, userID := range userList {
		influence, err := e.kg.Influence(ctx, userID)
		if err != nil {
			return domain.SentimentForecast{}, fmt.Errorf("influence lookup for %s: %w", userID, err)
		}
		totalPower += influence
	}

	threshold := outcomeThreshold * totalPower
	outcome := domain.OutcomeUncertain
	if weightedScore > threshold {
		outcome = domain.OutcomePass
	} else if weightedScore < -threshold {
		outcome = domain.OutcomeFail
	}

	// Guard against an empty roster: max(power, 1) keeps the division sound.
	confidence := math.Min(math.Abs(weightedScore)/math.Max(totalPower, 1), 1.0)

	forecast := domain.SentimentForecast{
		ProposalID:     proposalID,
		Prediction:     outcome,
		Confidence:     confidence,
		VoteBreakdown:  breakdown,
		KeyInfluencers: e.keyInfluencers(ctx, userList),
		RiskFactors:    riskFactors(breakdown, len(userList)),
	}

	e.logger.Info("outcome predicted",
		"proposal", proposalID,
		"prediction", outcome,
		"confidence", confidence,
		"voters", len(userList))

	return forecast, nil
}

// keyInfluencers returns the top three users by influence. The sort is
// stable so ties keep their original roster order.
func (e *Engine) keyInfluencers(ctx context.Context, userList []string) []string {
	weights := make(map[string]float64, len(userList))
	for _, userID := range userList {
		w, err := e.kg.Influence(ctx, userID)
		if err != nil {
			w = domain.DefaultInfluence
		}
		weights[userID] = w
	}

	ranked := append([]string(nil), userList...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return weights[ranked[i]] > weights[ranked[j]]
	})

	if len(ranked) > 3 {
		ranked = ranked[:3]
	}
	return ranked
}

func riskFactors(breakdown map[domain.Stance]int, voters int) []string {
	factors := []string{}
	if float64(breakdown[domain.StanceNeutral]) > float64(voters)*0.3 {
		factors = append(factors, "High voter apathy")
	}
	if abs(breakdown[domain.StanceFor]-breakdown[domain.StanceAgainst]) <= 2 {
		factors = append(factors, "Very close margin")
	}
	if voters < 5 {
		factors = append(factors, "Small sample size")
	}
	return factors
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
