// Package synthesis turns accumulated stage results into the final
// recommendation. It is pure aggregation: no I/O, no stored state.
package synthesis

import "github.com/daoforge/quorum/pkg/domain"

// Per-stage confidence contributions.
const (
	compliantScore    = 0.8
	nonCompliantScore = 0.2
	safeScore         = 0.7
	unsafeScore       = 0.3
)

// Risk flags appended by the synthesizer.
const (
	FlagComplianceIssues  = "Compliance issues"
	FlagHighFinancialRisk = "High financial risk"
	FlagNegativeSentiment = "Negative voter sentiment"
	FlagExecutionSafety   = "Execution safety concerns"
)

// Recommendation is the synthesized verdict over the three stage results.
type Recommendation struct {
	Recommendation string
	Confidence     float64
	RiskLevel      string
	RiskFlags      []string
}

// Synthesize aggregates whichever stage results are present. Absent stages
// contribute nothing; with no contributions at all, confidence is 0.0.
func Synthesize(a *domain.AggregatedAnalysis) Recommendation {
	var scores []float64
	flags := []string{}

	if a.Compliance != nil {
		if a.Compliance.Compliant {
			scores = append(scores, compliantScore)
		} else {
			scores = append(scores, nonCompliantScore)
			flags = append(flags, FlagComplianceIssues)
		}
		if a.Compliance.RiskAssessment.OverallRisk == domain.RiskHigh {
			flags = append(flags, FlagHighFinancialRisk)
		}
	}

	if a.Sentiment != nil {
		scores = append(scores, a.Sentiment.Confidence)
		if a.Sentiment.Prediction == domain.OutcomeFail {
			flags = append(flags, FlagNegativeSentiment)
		}
		flags = append(flags, a.Sentiment.RiskFactors...)
	}

	if a.Execution != nil {
		if a.Execution.SafetyCheck != nil && a.Execution.SafetyCheck.IsSafe {
			scores = append(scores, safeScore)
		} else {
			scores = append(scores, unsafeScore)
			flags = append(flags, FlagExecutionSafety)
		}
	}

	var confidence float64
	if len(scores) > 0 {
		var sum float64
		for _, s := range scores {
			sum += s
		}
		confidence = sum / float64(len(scores))
	}

	rec := Recommendation{
		Confidence: confidence,
		RiskFlags:  flags,
	}

	// First match wins.
	switch {
	case confidence > 0.7 && len(flags) == 0:
		rec.Recommendation = "APPROVE - High confidence, low risk"
		rec.RiskLevel = domain.RiskLow
	case confidence > 0.5 && len(flags) <= 1:
		rec.Recommendation = "APPROVE WITH CONDITIONS - Moderate confidence"
		rec.RiskLevel = domain.RiskMedium
	case confidence > 0.3:
		rec.Recommendation = "DEFER - Requires additional review"
		rec.RiskLevel = domain.RiskMedium
	default:
		rec.Recommendation = "REJECT - Low confidence or high risk"
		rec.RiskLevel = domain.RiskHigh
	}

	return rec
}
