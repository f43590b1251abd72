package analysis

import (
	"context"
	"fmt"
	"math"

	"github.com/daoforge/quorum/pkg/domain"
	"github.com/daoforge/quorum/pkg/ports"
)

// ComplianceAnalyzer performs the compliance and financial-impact stage
// using deterministic rules over priced market data. It replaces the
// external analysis unit for local and test deployments.
type ComplianceAnalyzer struct {
	prices ports.PriceSource
}

// NewComplianceAnalyzer creates an analyzer over the given price source.
func NewComplianceAnalyzer(prices ports.PriceSource) *ComplianceAnalyzer {
	if prices == nil {
		prices = StaticPrices{}
	}
	return &ComplianceAnalyzer{prices: prices}
}

// Analyze evaluates the proposal's financial impact, market context, and
// rule compliance. It never fails: degraded price data lowers confidence
// instead of erroring.
func (a *ComplianceAnalyzer) Analyze(ctx context.Context, req domain.ComplianceRequest) *domain.ComplianceResult {
	impact := a.financialImpact(ctx, req)
	market := a.marketContext(ctx)

	violations := []string{}
	if req.RequestedAmount < 0 {
		violations = append(violations, "Requested amount is negative")
	}
	if req.TreasuryBalance > 0 && req.RequestedAmount > req.TreasuryBalance {
		violations = append(violations, "Requested amount exceeds treasury balance")
	}

	factors := []string{}
	if impact.TreasuryImpactPct > 20 {
		factors = append(factors, "Large treasury impact")
	}
	if impact.PriceConfidence < 0.05 {
		factors = append(factors, "Low price confidence")
	}

	recommendations := []string{}
	if impact.RiskLevel != domain.RiskLow {
		recommendations = append(recommendations, "Stage the disbursement in tranches")
	}
	if impact.TreasuryImpactPct > 10 {
		recommendations = append(recommendations, "Require a follow-up treasury report")
	}

	confidence := 0.7
	switch impact.RiskLevel {
	case domain.RiskLow:
		confidence = 0.85
	case domain.RiskMedium:
		confidence = 0.6
	case domain.RiskHigh:
		confidence = 0.4
	}
	if len(violations) > 0 {
		confidence = math.Min(confidence, 0.5)
	}

	return &domain.ComplianceResult{
		Compliant:  len(violations) == 0,
		Violations: violations,
		ReasoningTrace: fmt.Sprintf(
			"Requested %.2f %s (%.2f%% of treasury); financial risk %s; market %s",
			req.RequestedAmount, req.TokenType, impact.TreasuryImpactPct,
			impact.RiskLevel, market.Sentiment),
		FinancialImpact: impact,
		MarketAnalysis:  market,
		TechnicalAssessment: map[string]string{
			"feasibility": "MEDIUM",
			"complexity":  "MEDIUM",
		},
		RiskAssessment: domain.RiskAssessment{
			OverallRisk: impact.RiskLevel,
			Factors:     factors,
		},
		Recommendations: recommendations,
		ConfidenceScore: confidence,
	}
}

func (a *ComplianceAnalyzer) financialImpact(ctx context.Context, req domain.ComplianceRequest) domain.FinancialImpact {
	symbol := req.TokenType + "/USD"
	quote, err := a.prices.Quote(ctx, symbol)
	if err != nil {
		// Degraded feed: price the request against the generic estimate and
		// flag the result as high risk.
		return domain.FinancialImpact{
			RequestedAmount:   req.RequestedAmount,
			TokenType:         req.TokenType,
			CurrentPriceUSD:   1000,
			TotalUSDValue:     req.RequestedAmount * 1000,
			TreasuryImpactPct: impactPct(req.RequestedAmount, req.TreasuryBalance),
			RiskLevel:         domain.RiskHigh,
			DataSource:        "error_fallback",
		}
	}

	pct := impactPct(req.RequestedAmount, req.TreasuryBalance)
	return domain.FinancialImpact{
		RequestedAmount:   req.RequestedAmount,
		TokenType:         req.TokenType,
		CurrentPriceUSD:   quote.Price,
		PriceConfidence:   quote.Confidence,
		TotalUSDValue:     req.RequestedAmount * quote.Price,
		TreasuryImpactPct: pct,
		RiskLevel:         financialRisk(pct, quote.Confidence),
		DataSource:        quote.Status,
	}
}

func (a *ComplianceAnalyzer) marketContext(ctx context.Context) domain.MarketAnalysis {
	snapshot := make(map[string]domain.TokenQuote, len(majorSymbols))
	for _, symbol := range majorSymbols {
		quote, err := a.prices.Quote(ctx, symbol)
		if err != nil {
			continue
		}
		snapshot[symbol] = quote
	}
	return domain.MarketAnalysis{
		Sentiment:  marketSentiment(snapshot),
		DataSource: "static_prices",
		Snapshot:   snapshot,
	}
}

func impactPct(amount, treasury float64) float64 {
	if treasury <= 0 {
		return 0
	}
	return amount / treasury * 100
}

// financialRisk tiers the request by treasury impact and price confidence.
func financialRisk(treasuryImpact, priceConfidence float64) string {
	switch {
	case treasuryImpact > 20 || priceConfidence < 0.01:
		return domain.RiskHigh
	case treasuryImpact > 10 || priceConfidence < 0.05:
		return domain.RiskMedium
	default:
		return domain.RiskLow
	}
}

// marketSentiment labels market stability from the average price confidence
// across the snapshot.
func marketSentiment(snapshot map[string]domain.TokenQuote) string {
	if len(snapshot) == 0 {
		return "UNKNOWN"
	}
	var sum float64
	for _, quote := range snapshot {
		sum += quote.Confidence
	}
	avg := sum / float64(len(snapshot))
	switch {
	case avg > 0.1:
		return "STABLE"
	case avg > 0.05:
		return "VOLATILE"
	default:
		return "HIGHLY_VOLATILE"
	}
}
