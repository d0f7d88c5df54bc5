package config

import (
	"github.com/iwvelando/finance-planner/pkg/finance"
)

// ToPlanInput converts the configuration into the analyzer inputs. Enum
// strings are passed through unchanged and checked by the analyzers.
func (c *Configuration) ToPlanInput() finance.PlanInput {
	plan := finance.PlanInput{}

	if c.CashFlow != nil {
		input := c.CashFlow.ToCashFlowInput()
		plan.CashFlow = &input
		plan.ProjectionPeriods = c.CashFlow.Periods
	}

	for _, investment := range c.Investments {
		plan.Investments = append(plan.Investments, investment.ToInvestmentInput())
	}
	for _, period := range c.Profitability {
		plan.Profitability = append(plan.Profitability, period.ToProfitabilityInput())
	}
	for _, line := range c.Budget {
		plan.Budget = append(plan.Budget, line.ToBudgetItem())
	}
	for _, snapshot := range c.Ratios {
		plan.Ratios = append(plan.Ratios, snapshot.ToRatioInput())
	}

	if c.BaseCase != nil {
		plan.BaseCase = &finance.BaseCase{
			AnnualRevenue: c.BaseCase.AnnualRevenue,
			AnnualCosts:   c.BaseCase.AnnualCosts,
		}
	}
	for _, scenario := range c.Scenarios {
		plan.Scenarios = append(plan.Scenarios, scenario.ToScenario())
	}

	return plan
}

// ToCashFlowInput converts the projection assumptions.
func (cf *CashFlow) ToCashFlowInput() finance.CashFlowInput {
	input := finance.CashFlowInput{
		StartingCash:         cf.StartingCash,
		MonthlyRevenue:       cf.MonthlyRevenue,
		OperatingExpenses:    cf.OperatingExpenses,
		TaxRate:              cf.TaxRate,
		RevenueGrowthRate:    cf.RevenueGrowthRate,
		ExpenseInflationRate: cf.ExpenseInflationRate,
		StartMonth:           cf.StartMonth,
	}
	for _, entry := range cf.CapitalExpenses {
		input.CapitalExpenses = append(input.CapitalExpenses, finance.CapitalExpense{
			Month:       entry.Month,
			Amount:      entry.Amount,
			Description: entry.Description,
		})
	}
	return input
}

// ToInvestmentInput converts an investment.
func (i Investment) ToInvestmentInput() finance.InvestmentInput {
	return finance.InvestmentInput{
		Name:                   i.Name,
		InitialInvestment:      i.InitialInvestment,
		AnnualRevenueIncrease:  i.AnnualRevenueIncrease,
		AnnualCostSavings:      i.AnnualCostSavings,
		ImplementationCosts:    i.ImplementationCosts,
		AnnualMaintenanceCosts: i.AnnualMaintenanceCosts,
		ProjectLifespanYears:   i.ProjectLifespanYears,
		DiscountRate:           i.DiscountRate,
		RiskFactor:             i.RiskFactor,
		SolveIRR:               i.SolveIRR,
	}
}

// ToProfitabilityInput converts an income statement.
func (p ProfitabilityPeriod) ToProfitabilityInput() finance.ProfitabilityInput {
	return finance.ProfitabilityInput{
		Name:              p.Name,
		Revenue:           p.Revenue,
		CostOfGoodsSold:   p.CostOfGoodsSold,
		OperatingExpenses: p.OperatingExpenses,
		Depreciation:      p.Depreciation,
		InterestExpense:   p.InterestExpense,
		TaxRate:           p.TaxRate,
		FixedCosts:        p.FixedCosts,
		VariableCostRate:  p.VariableCostRate,
	}
}

// ToBudgetItem converts a budget line.
func (b BudgetLine) ToBudgetItem() finance.BudgetItem {
	return finance.BudgetItem{
		Category:       b.Category,
		BudgetedAmount: b.Budgeted,
		ActualAmount:   b.Actual,
		CategoryType:   finance.CategoryType(b.Type),
		Criticality:    finance.Criticality(b.Criticality),
	}
}

// ToRatioInput converts a ratio snapshot.
func (r RatioSnapshot) ToRatioInput() finance.RatioInput {
	return finance.RatioInput{
		Name:                r.Name,
		CurrentAssets:       r.CurrentAssets,
		CashAndEquivalents:  r.CashAndEquivalents,
		Inventory:           r.Inventory,
		AccountsReceivable:  r.AccountsReceivable,
		TotalAssets:         r.TotalAssets,
		CurrentLiabilities:  r.CurrentLiabilities,
		TotalDebt:           r.TotalDebt,
		TotalEquity:         r.TotalEquity,
		Revenue:             r.Revenue,
		CostOfGoodsSold:     r.CostOfGoodsSold,
		OperatingProfit:     r.OperatingProfit,
		NetIncome:           r.NetIncome,
		InterestExpense:     r.InterestExpense,
		DebtServicePayments: r.DebtServicePayments,
	}
}

// ToScenario converts a scenario.
func (s Scenario) ToScenario() finance.Scenario {
	return finance.Scenario{
		Name:                 s.Name,
		Probability:          s.Probability,
		RevenueChangePercent: s.RevenueChangePercent,
		CostChangePercent:    s.CostChangePercent,
		KeyAssumptions:       append([]string(nil), s.KeyAssumptions...),
	}
}
