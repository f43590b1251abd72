package analysis

import (
	"context"

	"github.com/daoforge/quorum/internal/prediction"
	"github.com/daoforge/quorum/pkg/domain"
)

// SentimentStage runs the vote-prediction engine over the requested voter
// roster to produce the sentiment forecast for a proposal.
type SentimentStage struct {
	engine *prediction.Engine
}

// NewSentimentStage creates the stage over a prediction engine.
func NewSentimentStage(engine *prediction.Engine) *SentimentStage {
	return &SentimentStage{engine: engine}
}

// Forecast predicts the aggregate vote outcome for the proposal.
func (s *SentimentStage) Forecast(ctx context.Context, req domain.SentimentRequest) (*domain.SentimentForecast, error) {
	forecast, err := s.engine.PredictOutcome(ctx, req.ProposalID, req.UserList)
	if err != nil {
		return nil, err
	}
	return &forecast, nil
}
