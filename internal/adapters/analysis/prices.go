package analysis

import (
	"context"

	"github.com/daoforge/quorum/pkg/domain"
)

// StaticPrices serves fixed price estimates for the major treasury tokens.
// It stands in for a live oracle feed; the price confidence of 0.5 marks
// every quote as an estimate.
type StaticPrices struct{}

var staticQuotes = map[string]domain.TokenQuote{
	"ETH/USD":  {Price: 2400, Confidence: 0.5, Status: "fallback"},
	"BTC/USD":  {Price: 43000, Confidence: 0.5, Status: "fallback"},
	"SOL/USD":  {Price: 95, Confidence: 0.5, Status: "fallback"},
	"USDC/USD": {Price: 1, Confidence: 0.5, Status: "fallback"},
}

// Quote returns the static estimate for the symbol. Unknown symbols get a
// generic 1000 USD estimate rather than an error.
func (StaticPrices) Quote(_ context.Context, symbol string) (domain.TokenQuote, error) {
	if q, ok := staticQuotes[symbol]; ok {
		return q, nil
	}
	return domain.TokenQuote{Price: 1000, Confidence: 0.5, Status: "fallback_estimate"}, nil
}

// majorSymbols are the tokens included in every market snapshot.
var majorSymbols = []string{"ETH/USD", "BTC/USD", "SOL/USD"}
