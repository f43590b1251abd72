package ports

import (
	"context"

	"github.com/daoforge/quorum/pkg/domain"
)

// KnowledgeStore holds per-user influence weights, historical votes, the
// social follow graph, recorded sentiment observations and persisted vote
// predictions. Reads must be safe under concurrent prediction runs; writes
// use an exclusive update per key.
type KnowledgeStore interface {
	// Influence returns the user's voting weight in [0,1].
	// Unknown users default to domain.DefaultInfluence.
	Influence(ctx context.Context, userID string) (float64, error)

	// SetInfluence records the user's voting weight, clamped to [0,1].
	SetInfluence(ctx context.Context, userID string, weight float64) error

	// CastVote appends an immutable historical vote.
	// Returns domain.ErrDuplicateVote if the (user, proposal) pair exists.
	CastVote(ctx context.Context, userID, proposalID string, stance domain.Stance) error

	// Vote returns the recorded stance for (user, proposal), if any.
	Vote(ctx context.Context, userID, proposalID string) (domain.Stance, bool, error)

	// VotesByUser lists the user's historical votes.
	VotesByUser(ctx context.Context, userID string) ([]domain.HistoricalVote, error)

	// Follows returns the users that userID follows.
	Follows(ctx context.Context, userID string) ([]string, error)

	// SetFollows replaces the user's follow list.
	SetFollows(ctx context.Context, userID string, follows []string) error

	// AssertSentiment records a sentiment observation, overwriting any prior
	// observation for the same (user, proposal) key.
	AssertSentiment(ctx context.Context, obs domain.SentimentObservation) error

	// Sentiment returns the recorded observation for (user, proposal), if any.
	Sentiment(ctx context.Context, userID, proposalID string) (domain.SentimentObservation, bool, error)

	// SavePrediction persists a per-user vote prediction (last-write-wins).
	SavePrediction(ctx context.Context, pred domain.VotePrediction) error

	// Prediction returns the stored prediction for (user, proposal), if any.
	Prediction(ctx context.Context, userID, proposalID string) (domain.VotePrediction, bool, error)
}
