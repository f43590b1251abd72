package ports

import (
	"context"

	"github.com/daoforge/quorum/pkg/domain"
)

// SentimentAnalyzer scores a raw discussion comment. The production
// implementation calls an external model; it is consumed here, not
// re-specified.
type SentimentAnalyzer interface {
	Analyze(ctx context.Context, comment domain.DiscussionComment) (domain.SentimentObservation, error)
}

// PriceSource resolves token prices for financial valuation. The live feed
// is an external collaborator; implementations may serve static estimates.
type PriceSource interface {
	// Quote returns the USD price and price confidence for a symbol such as
	// "ETH/USD".
	Quote(ctx context.Context, symbol string) (domain.TokenQuote, error)
}
