package analysis

import (
	"context"
	"fmt"

	"github.com/daoforge/quorum/pkg/domain"
)

// ExecutionPlanner performs the execution-planning stage: a pre-execution
// safety check followed by a concrete disbursement plan.
type ExecutionPlanner struct {
	// budgetCap bounds a single disbursement. Zero disables the check.
	budgetCap float64
}

// NewExecutionPlanner creates a planner. budgetCap caps the amount a single
// plan may disburse; zero means uncapped.
func NewExecutionPlanner(budgetCap float64) *ExecutionPlanner {
	return &ExecutionPlanner{budgetCap: budgetCap}
}

// Plan runs the safety check and, when it passes, produces the disbursement
// plan. An unsafe request yields a failed report with the issues listed.
func (p *ExecutionPlanner) Plan(_ context.Context, req domain.ExecutionRequest) *domain.ExecutionReport {
	checks := []string{}
	issues := []string{}

	if req.RecipientAddress != "" {
		checks = append(checks, "Recipient address provided")
	} else {
		// Proposals without an external recipient keep funds in treasury
		// custody; that is not a safety failure.
		checks = append(checks, "No external recipient; treasury retains custody")
	}

	if req.BudgetAmount > 0 {
		checks = append(checks, "Budget amount is positive")
	} else {
		issues = append(issues, "Budget amount must be positive")
	}

	if p.budgetCap > 0 {
		if req.BudgetAmount <= p.budgetCap {
			checks = append(checks, "Budget within treasury limit")
		} else {
			issues = append(issues, fmt.Sprintf("Budget %.2f exceeds treasury limit %.2f", req.BudgetAmount, p.budgetCap))
		}
	}

	safe := len(issues) == 0
	report := &domain.ExecutionReport{
		Success: safe,
		SafetyCheck: &domain.SafetyCheck{
			IsSafe: safe,
			Checks: checks,
			Issues: issues,
		},
	}

	if !safe {
		report.Message = "Execution plan rejected by safety check"
		return report
	}

	recipient := req.RecipientAddress
	if recipient == "" {
		recipient = "treasury"
	}
	report.Message = "Execution plan prepared"
	report.ExecutionStatus = map[string]string{"state": "planned"}
	report.ExecutionPlan = &domain.ExecutionPlan{
		Steps: []string{
			fmt.Sprintf("Verify destination %s", recipient),
			fmt.Sprintf("Transfer %.2f %s from the treasury", req.BudgetAmount, req.TokenType),
			"Record the transaction in the governance ledger",
		},
		BudgetAmount: req.BudgetAmount,
		TokenType:    req.TokenType,
		Deadline:     req.Deadline,
	}
	return report
}
