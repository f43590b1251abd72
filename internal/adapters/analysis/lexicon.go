package analysis

import (
	"context"
	"strings"
	"time"

	"github.com/daoforge/quorum/pkg/domain"
	"github.com/daoforge/quorum/pkg/ports"
)

// LexiconAnalyzer scores discussion comments with a fixed word list. It is
// a deterministic stand-in for the external sentiment model: same shape of
// output (score, influence level, confidence), no network.
type LexiconAnalyzer struct {
	clock func() time.Time
}

// NewLexiconAnalyzer creates the analyzer.
func NewLexiconAnalyzer() *LexiconAnalyzer {
	return &LexiconAnalyzer{clock: time.Now}
}

var _ ports.SentimentAnalyzer = (*LexiconAnalyzer)(nil)

var positiveWords = map[string]struct{}{
	"support": {}, "approve": {}, "great": {}, "good": {}, "excellent": {},
	"benefit": {}, "agree": {}, "yes": {}, "strong": {}, "promising": {},
}

var negativeWords = map[string]struct{}{
	"against": {}, "reject": {}, "bad": {}, "risky": {}, "waste": {},
	"concern": {}, "oppose": {}, "no": {}, "scam": {}, "doubt": {},
}

// Analyze scores the comment in [-1, 1]. Comments with no lexicon hits get
// a neutral score at minimal confidence.
func (a *LexiconAnalyzer) Analyze(_ context.Context, comment domain.DiscussionComment) (domain.SentimentObservation, error) {
	var positive, negative int
	for _, word := range strings.Fields(strings.ToLower(comment.RawComment)) {
		word = strings.Trim(word, ".,!?;:'\"()")
		if _, ok := positiveWords[word]; ok {
			positive++
		}
		if _, ok := negativeWords[word]; ok {
			negative++
		}
	}

	obs := domain.SentimentObservation{
		UserID:         comment.UserID,
		ProposalID:     comment.ProposalID,
		InfluenceLevel: "low",
		Timestamp:      a.clock(),
	}

	hits := positive + negative
	if hits == 0 {
		obs.Confidence = 0.1
		return obs, nil
	}

	obs.SentimentScore = domain.Clamp(float64(positive-negative)/float64(hits), -1, 1)
	obs.Confidence = domain.Clamp(0.3+0.1*float64(hits), 0, 0.9)

	switch conviction := obs.SentimentScore; {
	case conviction >= 0.6 || conviction <= -0.6:
		obs.InfluenceLevel = "high"
	case conviction >= 0.3 || conviction <= -0.3:
		obs.InfluenceLevel = "medium"
	}

	return obs, nil
}
