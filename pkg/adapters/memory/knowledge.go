package memory

import (
	"context"
	"sync"

	"github.com/daoforge/quorum/pkg/domain"
)

type voteKey struct {
	userID     string
	proposalID string
}

// Knowledge implements ports.KnowledgeStore in memory.
// Safe for concurrent use; every write takes the exclusive lock.
type Knowledge struct {
	influence   map[string]float64
	votes       map[voteKey]domain.Stance
	follows     map[string][]string
	sentiments  map[voteKey]domain.SentimentObservation
	predictions map[voteKey]domain.VotePrediction
	mu          sync.RWMutex
}

// NewKnowledge creates an empty in-memory knowledge store.
func NewKnowledge() *Knowledge {
	return &Knowledge{
		influence:   make(map[string]float64),
		votes:       make(map[voteKey]domain.Stance),
		follows:     make(map[string][]string),
		sentiments:  make(map[voteKey]domain.SentimentObservation),
		predictions: make(map[voteKey]domain.VotePrediction),
	}
}

// Influence returns the user's weight, defaulting unknown users.
func (k *Knowledge) Influence(ctx context.Context, userID string) (float64, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	if w, ok := k.influence[userID]; ok {
		return w, nil
	}
	return domain.DefaultInfluence, nil
}

// SetInfluence records the user's weight, clamped to [0,1].
func (k *Knowledge) SetInfluence(ctx context.Context, userID string, weight float64) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.influence[userID] = domain.Clamp(weight, 0, 1)
	return nil
}

// CastVote appends an immutable vote record; duplicates are rejected.
func (k *Knowledge) CastVote(ctx context.Context, userID, proposalID string, stance domain.Stance) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	key := voteKey{userID, proposalID}
	if _, ok := k.votes[key]; ok {
		return domain.ErrDuplicateVote
	}
	k.votes[key] = stance
	return nil
}

// Vote returns the recorded stance for (user, proposal), if any.
func (k *Knowledge) Vote(ctx context.Context, userID, proposalID string) (domain.Stance, bool, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	stance, ok := k.votes[voteKey{userID, proposalID}]
	return stance, ok, nil
}

// VotesByUser lists the user's historical votes.
func (k *Knowledge) VotesByUser(ctx context.Context, userID string) ([]domain.HistoricalVote, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	var out []domain.HistoricalVote
	for key, stance := range k.votes {
		if key.userID == userID {
			out = append(out, domain.HistoricalVote{
				UserID:     key.userID,
				ProposalID: key.proposalID,
				Stance:     stance,
			})
		}
	}
	return out, nil
}

// Follows returns the users that userID follows.
func (k *Knowledge) Follows(ctx context.Context, userID string) ([]string, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return append([]string(nil), k.follows[userID]...), nil
}

// SetFollows replaces the user's follow list.
func (k *Knowledge) SetFollows(ctx context.Context, userID string, follows []string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.follows[userID] = append([]string(nil), follows...)
	return nil
}

// AssertSentiment records an observation, last write wins. Scores are
// clamped to their declared ranges on the way in.
func (k *Knowledge) AssertSentiment(ctx context.Context, obs domain.SentimentObservation) error {
	obs.SentimentScore = domain.Clamp(obs.SentimentScore, -1, 1)
	obs.Confidence = domain.Clamp(obs.Confidence, 0, 1)

	k.mu.Lock()
	defer k.mu.Unlock()
	k.sentiments[voteKey{obs.UserID, obs.ProposalID}] = obs
	return nil
}

// Sentiment returns the recorded observation for (user, proposal), if any.
func (k *Knowledge) Sentiment(ctx context.Context, userID, proposalID string) (domain.SentimentObservation, bool, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	obs, ok := k.sentiments[voteKey{userID, proposalID}]
	return obs, ok, nil
}

// SavePrediction persists a vote prediction, last write wins.
func (k *Knowledge) SavePrediction(ctx context.Context, pred domain.VotePrediction) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.predictions[voteKey{pred.UserID, pred.ProposalID}] = pred
	return nil
}

// Prediction returns the stored prediction for (user, proposal), if any.
func (k *Knowledge) Prediction(ctx context.Context, userID, proposalID string) (domain.VotePrediction, bool, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	pred, ok := k.predictions[voteKey{userID, proposalID}]
	return pred, ok, nil
}
