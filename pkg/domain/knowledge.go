package domain

import "time"

// Stance is a vote position on a proposal.
type Stance string

const (
	StanceFor     Stance = "For"
	StanceAgainst Stance = "Against"
	StanceNeutral Stance = "Neutral"
)

// Weight returns the signed contribution of the stance to a tally.
func (s Stance) Weight() float64 {
	switch s {
	case StanceFor:
		return 1
	case StanceAgainst:
		return -1
	default:
		return 0
	}
}

// DefaultInfluence is the weight assumed for users with no recorded influence.
const DefaultInfluence = 0.2

// HistoricalVote is one immutable (user, proposal) vote record.
type HistoricalVote struct {
	UserID     string `json:"user_id"`
	ProposalID string `json:"proposal_id"`
	Stance     Stance `json:"stance"`
}

// SentimentObservation is a recorded sentiment reading for a user on a
// proposal. Re-asserting the same (user, proposal) key overwrites.
type SentimentObservation struct {
	UserID         string    `json:"user_id"`
	ProposalID     string    `json:"proposal_id"`
	SentimentScore float64   `json:"sentiment_score"` // [-1, 1]
	InfluenceLevel string    `json:"influence_level"`
	Confidence     float64   `json:"confidence"` // [0, 1]
	Timestamp      time.Time `json:"timestamp"`
}

// VotePrediction is a per-user stance forecast with an auditable trace.
type VotePrediction struct {
	UserID     string  `json:"user_id"`
	ProposalID string  `json:"proposal_id"`
	Stance     Stance  `json:"stance"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// DiscussionComment is a raw community comment handed to the sentiment
// analyzer boundary.
type DiscussionComment struct {
	UserID     string `json:"user_id"`
	ProposalID string `json:"proposal_id"`
	RawComment string `json:"raw_comment"`
	Platform   string `json:"platform,omitempty"`
}

// Clamp restricts v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
