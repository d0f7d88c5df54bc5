// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/iwvelando/finance-planner/pkg/finance"
	"github.com/iwvelando/finance-planner/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// D parses a decimal literal and panics on error.
func D(value string) decimal.Decimal {
	return mathutil.MustParse(value)
}

// FindScenario finds a scenario by name in the results slice.
// Returns a pointer to the analysis if found, nil otherwise.
func FindScenario(results []finance.ScenarioAnalysis, name string) *finance.ScenarioAnalysis {
	for i := range results {
		if results[i].ScenarioName == name {
			return &results[i]
		}
	}
	return nil
}

// FindBudgetLine finds a budget variance by category.
// Returns a pointer to the analysis if found, nil otherwise.
func FindBudgetLine(results []finance.BudgetVarianceAnalysis, category string) *finance.BudgetVarianceAnalysis {
	for i := range results {
		if results[i].Category == category {
			return &results[i]
		}
	}
	return nil
}
