package domain

import "time"

// Risk levels used across stage results and the final synthesis.
const (
	RiskLow     = "LOW"
	RiskMedium  = "MEDIUM"
	RiskHigh    = "HIGH"
	RiskUnknown = "Unknown"
)

// RecommendationPending is the placeholder recommendation before synthesis.
const RecommendationPending = "Analysis in progress..."

// RecommendationUnavailable is returned for unknown proposal ids.
const RecommendationUnavailable = "Analysis not yet available"

// AggregatedAnalysis accumulates the three stage results for one proposal.
// Slots stay nil until the matching stage reports success; the final fields
// are written exactly once, when the last stage completes.
type AggregatedAnalysis struct {
	ProposalID string `json:"proposal_id"`

	Compliance *ComplianceResult  `json:"proposal_analysis,omitempty"`
	Sentiment  *SentimentForecast `json:"sentiment_prediction,omitempty"`
	Execution  *ExecutionReport   `json:"execution_plan,omitempty"`

	FinalRecommendation string    `json:"final_recommendation"`
	Confidence          float64   `json:"confidence_score"`
	RiskLevel           string    `json:"risk_assessment"`
	Timestamp           time.Time `json:"timestamp"`
}

// NewAggregatedAnalysis creates the empty analysis record that accompanies a
// freshly started workflow.
func NewAggregatedAnalysis(proposalID string, now time.Time) *AggregatedAnalysis {
	return &AggregatedAnalysis{
		ProposalID:          proposalID,
		FinalRecommendation: RecommendationPending,
		Confidence:          0.0,
		RiskLevel:           RiskUnknown,
		Timestamp:           now,
	}
}

// UnavailableAnalysis is the explicit "not found" payload for status lookups
// against unknown proposal ids.
func UnavailableAnalysis(proposalID string) *AggregatedAnalysis {
	return &AggregatedAnalysis{
		ProposalID:          proposalID,
		FinalRecommendation: RecommendationUnavailable,
		Confidence:          0.0,
		RiskLevel:           RiskUnknown,
	}
}

// ComplianceResult is the typed outcome of the compliance/financial stage.
type ComplianceResult struct {
	Compliant           bool              `json:"compliance"`
	Violations          []string          `json:"violations"`
	ReasoningTrace      string            `json:"reasoning_trace"`
	FinancialImpact     FinancialImpact   `json:"financial_impact"`
	MarketAnalysis      MarketAnalysis    `json:"market_analysis"`
	TechnicalAssessment map[string]string `json:"technical_assessment,omitempty"`
	RiskAssessment      RiskAssessment    `json:"risk_assessment"`
	SimilarProposals    []SimilarProposal `json:"similar_proposals,omitempty"`
	Recommendations     []string          `json:"recommendations,omitempty"`
	ConfidenceScore     float64           `json:"confidence_score"`
}

// FinancialImpact quantifies a proposal's cost against the treasury.
type FinancialImpact struct {
	RequestedAmount   float64 `json:"requested_amount"`
	TokenType         string  `json:"token_type"`
	CurrentPriceUSD   float64 `json:"current_price_usd"`
	PriceConfidence   float64 `json:"price_confidence"`
	TotalUSDValue     float64 `json:"total_usd_value"`
	TreasuryImpactPct float64 `json:"treasury_impact_percentage"`
	RiskLevel         string  `json:"risk_level"`
	DataSource        string  `json:"data_source"`
}

// MarketAnalysis summarizes market context at analysis time.
type MarketAnalysis struct {
	Sentiment  string                `json:"market_sentiment"`
	DataSource string                `json:"data_source"`
	Snapshot   map[string]TokenQuote `json:"market_snapshot,omitempty"`
}

// TokenQuote is one priced symbol in a market snapshot.
type TokenQuote struct {
	Price      float64 `json:"price"`
	Confidence float64 `json:"confidence"`
	Status     string  `json:"status"`
}

// RiskAssessment carries the stage's overall risk verdict.
type RiskAssessment struct {
	OverallRisk string   `json:"overall_risk"`
	Factors     []string `json:"factors,omitempty"`
}

// SimilarProposal references a historical proposal with comparable shape.
type SimilarProposal struct {
	ProposalID string  `json:"proposal_id"`
	Similarity float64 `json:"similarity"`
	Outcome    string  `json:"outcome"`
}

// SentimentForecast is the typed outcome of the sentiment-prediction stage.
type SentimentForecast struct {
	ProposalID     string         `json:"proposal_id"`
	Prediction     string         `json:"prediction"`
	Confidence     float64        `json:"confidence"`
	VoteBreakdown  map[Stance]int `json:"vote_breakdown"`
	KeyInfluencers []string       `json:"key_influencers"`
	RiskFactors    []string       `json:"risk_factors"`
}

// Forecast outcomes.
const (
	OutcomePass      = "Pass"
	OutcomeFail      = "Fail"
	OutcomeUncertain = "Uncertain"
)

// ExecutionReport is the typed outcome of the execution-planning stage.
type ExecutionReport struct {
	Success         bool              `json:"success"`
	Message         string            `json:"message"`
	ExecutionStatus map[string]string `json:"execution_status,omitempty"`
	SafetyCheck     *SafetyCheck      `json:"safety_check,omitempty"`
	ExecutionPlan   *ExecutionPlan    `json:"execution_plan,omitempty"`
}

// SafetyCheck records the pre-execution safety verdict.
type SafetyCheck struct {
	IsSafe bool     `json:"is_safe"`
	Checks []string `json:"checks,omitempty"`
	Issues []string `json:"issues,omitempty"`
}

// ExecutionPlan lists the concrete steps for an approved proposal.
type ExecutionPlan struct {
	Steps        []string `json:"steps"`
	BudgetAmount float64  `json:"budget_amount"`
	TokenType    string   `json:"token_type"`
	Deadline     string   `json:"deadline,omitempty"`
}

// StageResult is the tagged variant carried by a stage-completion message.
// Exactly one slot matching the stage must be set; the boundary validates
// this before the coordinator sees the message.
type StageResult struct {
	Compliance *ComplianceResult
	Sentiment  *SentimentForecast
	Execution  *ExecutionReport
}

// Matches reports whether the populated slot agrees with the given stage.
func (r *StageResult) Matches(stage Stage) bool {
	if r == nil {
		return false
	}
	switch stage {
	case StageAnalyzingCompliance:
		return r.Compliance != nil
	case StagePredictingSentiment:
		return r.Sentiment != nil
	case StagePlanningExecution:
		return r.Execution != nil
	}
	return false
}
