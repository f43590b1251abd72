// Package redis provides the redis-backed knowledge store and the
// distributed per-proposal locker for multi-instance deployments.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	backend "github.com/redis/go-redis/v9"

	"github.com/daoforge/quorum/pkg/domain"
)

// Knowledge implements ports.KnowledgeStore on redis. Influence weights and
// votes live in hashes keyed per user; duplicate vote rejection relies on
// HSETNX, so uniqueness holds across concurrent writers and instances.
type Knowledge struct {
	client *backend.Client
	prefix string
}

// Option configures the store.
type Option func(*Knowledge)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(k *Knowledge) {
		k.prefix = prefix
	}
}

// New creates a redis knowledge store connecting to the given address.
func New(address, password string, db int, opts ...Option) *Knowledge {
	client := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(client, opts...)
}

// NewFromClient creates a redis knowledge store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Knowledge {
	k := &Knowledge{
		client: client,
		prefix: "quorum:kg:",
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

func (k *Knowledge) influenceKey() string {
	return k.prefix + "influence"
}

func (k *Knowledge) votesKey(userID string) string {
	return k.prefix + "votes:" + userID
}

func (k *Knowledge) followsKey(userID string) string {
	return k.prefix + "follows:" + userID
}

func (k *Knowledge) sentimentKey(userID string) string {
	return k.prefix + "sentiment:" + userID
}

func (k *Knowledge) predictionKey(userID string) string {
	return k.prefix + "prediction:" + userID
}

// Influence returns the user's voting weight, defaulting for unknown users.
func (k *Knowledge) Influence(ctx context.Context, userID string) (float64, error) {
	val, err := k.client.HGet(ctx, k.influenceKey(), userID).Result()
	if err == backend.Nil {
		return domain.DefaultInfluence, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get influence: %w", err)
	}
	weight, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("parse influence %q: %w", val, err)
	}
	return weight, nil
}

// SetInfluence records the user's voting weight, clamped to [0,1].
func (k *Knowledge) SetInfluence(ctx context.Context, userID string, weight float64) error {
	weight = domain.Clamp(weight, 0, 1)
	if err := k.client.HSet(ctx, k.influenceKey(), userID, strconv.FormatFloat(weight, 'f', -1, 64)).Err(); err != nil {
		return fmt.Errorf("set influence: %w", err)
	}
	return nil
}

// CastVote appends an immutable vote. HSETNX makes the duplicate check
// atomic on the server.
func (k *Knowledge) CastVote(ctx context.Context, userID, proposalID string, stance domain.Stance) error {
	set, err := k.client.HSetNX(ctx, k.votesKey(userID), proposalID, string(stance)).Result()
	if err != nil {
		return fmt.Errorf("cast vote: %w", err)
	}
	if !set {
		return fmt.Errorf("%w: %s on %s", domain.ErrDuplicateVote, userID, proposalID)
	}
	return nil
}

// Vote returns the recorded stance for (user, proposal), if any.
func (k *Knowledge) Vote(ctx context.Context, userID, proposalID string) (domain.Stance, bool, error) {
	val, err := k.client.HGet(ctx, k.votesKey(userID), proposalID).Result()
	if err == backend.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get vote: %w", err)
	}
	return domain.Stance(val), true, nil
}

// VotesByUser lists the user's historical votes.
func (k *Knowledge) VotesByUser(ctx context.Context, userID string) ([]domain.HistoricalVote, error) {
	entries, err := k.client.HGetAll(ctx, k.votesKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list votes: %w", err)
	}
	votes := make([]domain.HistoricalVote, 0, len(entries))
	for proposalID, stance := range entries {
		votes = append(votes, domain.HistoricalVote{
			UserID:     userID,
			ProposalID: proposalID,
			Stance:     domain.Stance(stance),
		})
	}
	return votes, nil
}

// Follows returns the users that userID follows.
func (k *Knowledge) Follows(ctx context.Context, userID string) ([]string, error) {
	val, err := k.client.Get(ctx, k.followsKey(userID)).Result()
	if err == backend.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get follows: %w", err)
	}
	var follows []string
	if err := json.Unmarshal([]byte(val), &follows); err != nil {
		return nil, fmt.Errorf("unmarshal follows: %w", err)
	}
	return follows, nil
}

// SetFollows replaces the user's follow list.
func (k *Knowledge) SetFollows(ctx context.Context, userID string, follows []string) error {
	data, err := json.Marshal(follows)
	if err != nil {
		return fmt.Errorf("marshal follows: %w", err)
	}
	if err := k.client.Set(ctx, k.followsKey(userID), data, 0).Err(); err != nil {
		return fmt.Errorf("set follows: %w", err)
	}
	return nil
}

// AssertSentiment records an observation, overwriting any prior one for the
// same (user, proposal) key. Score and confidence are clamped on write.
func (k *Knowledge) AssertSentiment(ctx context.Context, obs domain.SentimentObservation) error {
	obs.SentimentScore = domain.Clamp(obs.SentimentScore, -1, 1)
	obs.Confidence = domain.Clamp(obs.Confidence, 0, 1)
	data, err := json.Marshal(obs)
	if err != nil {
		return fmt.Errorf("marshal sentiment: %w", err)
	}
	if err := k.client.HSet(ctx, k.sentimentKey(obs.UserID), obs.ProposalID, data).Err(); err != nil {
		return fmt.Errorf("assert sentiment: %w", err)
	}
	return nil
}

// Sentiment returns the recorded observation for (user, proposal), if any.
func (k *Knowledge) Sentiment(ctx context.Context, userID, proposalID string) (domain.SentimentObservation, bool, error) {
	var obs domain.SentimentObservation
	val, err := k.client.HGet(ctx, k.sentimentKey(userID), proposalID).Result()
	if err == backend.Nil {
		return obs, false, nil
	}
	if err != nil {
		return obs, false, fmt.Errorf("get sentiment: %w", err)
	}
	if err := json.Unmarshal([]byte(val), &obs); err != nil {
		return obs, false, fmt.Errorf("unmarshal sentiment: %w", err)
	}
	return obs, true, nil
}

// SavePrediction persists a per-user vote prediction, last-write-wins.
func (k *Knowledge) SavePrediction(ctx context.Context, pred domain.VotePrediction) error {
	data, err := json.Marshal(pred)
	if err != nil {
		return fmt.Errorf("marshal prediction: %w", err)
	}
	if err := k.client.HSet(ctx, k.predictionKey(pred.UserID), pred.ProposalID, data).Err(); err != nil {
		return fmt.Errorf("save prediction: %w", err)
	}
	return nil
}

// Prediction returns the stored prediction for (user, proposal), if any.
func (k *Knowledge) Prediction(ctx context.Context, userID, proposalID string) (domain.VotePrediction, bool, error) {
	var pred domain.VotePrediction
	val, err := k.client.HGet(ctx, k.predictionKey(userID), proposalID).Result()
	if err == backend.Nil {
		return pred, false, nil
	}
	if err != nil {
		return pred, false, fmt.Errorf("get prediction: %w", err)
	}
	if err := json.Unmarshal([]byte(val), &pred); err != nil {
		return pred, false, fmt.Errorf("unmarshal prediction: %w", err)
	}
	return pred, true, nil
}
