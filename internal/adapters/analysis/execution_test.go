package analysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daoforge/quorum/pkg/domain"
)

func TestPlan_Safe(t *testing.T) {
	p := NewExecutionPlanner(1000)

	report := p.Plan(context.Background(), domain.ExecutionRequest{
		ProposalID:       "prop_1",
		BudgetAmount:     50,
		TokenType:        "ETH",
		RecipientAddress: "0xabc",
		Deadline:         "2026-09-30",
	})

	assert.True(t, report.Success)
	require.NotNil(t, report.SafetyCheck)
	assert.True(t, report.SafetyCheck.IsSafe)
	assert.Empty(t, report.SafetyCheck.Issues)
	require.NotNil(t, report.ExecutionPlan)
	assert.Len(t, report.ExecutionPlan.Steps, 3)
	assert.Contains(t, report.ExecutionPlan.Steps[0], "0xabc")
	assert.Equal(t, "2026-09-30", report.ExecutionPlan.Deadline)
}

func TestPlan_NoRecipientStaysSafe(t *testing.T) {
	p := NewExecutionPlanner(0)

	report := p.Plan(context.Background(), domain.ExecutionRequest{
		ProposalID:   "prop_1",
		BudgetAmount: 50,
		TokenType:    "ETH",
	})

	assert.True(t, report.Success)
	assert.Contains(t, report.SafetyCheck.Checks, "No external recipient; treasury retains custody")
	assert.Contains(t, report.ExecutionPlan.Steps[0], "treasury")
}

func TestPlan_ZeroBudgetRejected(t *testing.T) {
	p := NewExecutionPlanner(0)

	report := p.Plan(context.Background(), domain.ExecutionRequest{ProposalID: "prop_1"})

	assert.False(t, report.Success)
	assert.False(t, report.SafetyCheck.IsSafe)
	assert.Contains(t, report.SafetyCheck.Issues, "Budget amount must be positive")
	assert.Nil(t, report.ExecutionPlan)
}

func TestPlan_BudgetCapEnforced(t *testing.T) {
	p := NewExecutionPlanner(100)

	report := p.Plan(context.Background(), domain.ExecutionRequest{
		ProposalID:   "prop_1",
		BudgetAmount: 500,
		TokenType:    "ETH",
	})

	assert.False(t, report.Success)
	require.Len(t, report.SafetyCheck.Issues, 1)
	assert.Contains(t, report.SafetyCheck.Issues[0], "exceeds treasury limit")
}
