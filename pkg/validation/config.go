// Package validation provides plan validation utilities. Nothing here rejects
// a plan; the analyzers accept negative and out-of-range values and these
// checks only surface them as warnings.
package validation

import (
	"fmt"
	"strings"

	"github.com/iwvelando/finance-planner/pkg/constants"
	"github.com/iwvelando/finance-planner/pkg/finance"
	"github.com/iwvelando/finance-planner/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// PlanValidator collects warnings for a plan.
type PlanValidator struct {
	Plan finance.PlanInput

	warnings []string
}

// ValidateAll validates the entire plan and returns warnings.
func (pv *PlanValidator) ValidateAll() []string {
	pv.warnings = nil

	if pv.Plan.CashFlow != nil {
		pv.validateCashFlow(*pv.Plan.CashFlow, pv.Plan.ProjectionPeriods)
	}
	for _, investment := range pv.Plan.Investments {
		pv.validateInvestment(investment)
	}
	for _, period := range pv.Plan.Profitability {
		pv.validateProfitability(period)
	}
	pv.validateBudget(pv.Plan.Budget)
	pv.validateScenarios(pv.Plan.BaseCase, pv.Plan.Scenarios)

	return pv.warnings
}

func (pv *PlanValidator) warnf(format string, args ...interface{}) {
	pv.warnings = append(pv.warnings, fmt.Sprintf(format, args...))
}

func (pv *PlanValidator) negative(subject, field string, value decimal.Decimal) {
	if value.IsNegative() {
		pv.warnf("%s has negative %s (%s)", subject, field, value)
	}
}

func (pv *PlanValidator) fraction(subject, field string, value decimal.Decimal) {
	if value.IsNegative() || value.GreaterThan(mathutil.One) {
		pv.warnf("%s has %s outside [0, 1] (%s)", subject, field, value)
	}
}

func (pv *PlanValidator) validateCashFlow(input finance.CashFlowInput, periods int) {
	const subject = "Cash flow"
	pv.negative(subject, "monthly revenue", input.MonthlyRevenue)
	pv.negative(subject, "operating expenses", input.OperatingExpenses)
	pv.fraction(subject, "tax rate", input.TaxRate)

	if periods <= 0 {
		periods = constants.DefaultProjectionPeriods
	}
	for _, entry := range input.CapitalExpenses {
		if entry.Month > periods {
			pv.warnf("Capital expense '%s' in month %d falls after the %d-month projection and will be ignored",
				entry.Description, entry.Month, periods)
		}
		pv.negative(fmt.Sprintf("Capital expense '%s'", entry.Description), "amount", entry.Amount)
	}
}

func (pv *PlanValidator) validateInvestment(input finance.InvestmentInput) {
	subject := fmt.Sprintf("Investment '%s'", input.Name)
	pv.negative(subject, "initial investment", input.InitialInvestment)
	pv.negative(subject, "implementation costs", input.ImplementationCosts)
	pv.negative(subject, "annual maintenance costs", input.AnnualMaintenanceCosts)
	pv.negative(subject, "discount rate", input.DiscountRate)
	pv.fraction(subject, "risk factor", input.RiskFactor)
	if input.ProjectLifespanYears <= 0 {
		pv.warnf("%s has no project lifespan; NPV and ROI ignore all benefits", subject)
	}
}

func (pv *PlanValidator) validateProfitability(input finance.ProfitabilityInput) {
	subject := fmt.Sprintf("Profitability period '%s'", input.Name)
	pv.negative(subject, "revenue", input.Revenue)
	pv.fraction(subject, "tax rate", input.TaxRate)
	pv.fraction(subject, "variable cost rate", input.VariableCostRate)
}

func (pv *PlanValidator) validateBudget(items []finance.BudgetItem) {
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		key := strings.ToLower(strings.TrimSpace(item.Category))
		if _, dup := seen[key]; dup {
			pv.warnf("Budget category '%s' appears more than once", item.Category)
		}
		seen[key] = struct{}{}
		pv.negative(fmt.Sprintf("Budget category '%s'", item.Category), "budgeted amount", item.BudgetedAmount)
	}
}

func (pv *PlanValidator) validateScenarios(base *finance.BaseCase, scenarios []finance.Scenario) {
	if len(scenarios) == 0 {
		return
	}
	if base == nil {
		pv.warnf("Scenarios are defined without a base case; impacts are computed against zero")
	}

	total := mathutil.Zero
	seen := make(map[string]struct{}, len(scenarios))
	for _, scenario := range scenarios {
		if _, dup := seen[scenario.Name]; dup {
			pv.warnf("Scenario '%s' appears more than once", scenario.Name)
		}
		seen[scenario.Name] = struct{}{}
		pv.fraction(fmt.Sprintf("Scenario '%s'", scenario.Name), "probability", scenario.Probability)
		total = total.Add(scenario.Probability)
	}
	if !total.Equal(mathutil.One) {
		pv.warnf("Scenario probabilities sum to %s, not 1; the expected net impact is not a true expectation", total)
	}
}
