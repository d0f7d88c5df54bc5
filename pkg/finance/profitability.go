package finance

import (
	"github.com/iwvelando/finance-planner/pkg/mathutil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProfitabilityInput is one period's income statement snapshot. TaxRate and
// VariableCostRate are fractions of the relevant base.
type ProfitabilityInput struct {
	Name              string          `json:"name,omitempty"`
	Revenue           decimal.Decimal `json:"revenue"`
	CostOfGoodsSold   decimal.Decimal `json:"cost_of_goods_sold"`
	OperatingExpenses decimal.Decimal `json:"operating_expenses"`
	Depreciation      decimal.Decimal `json:"depreciation"`
	InterestExpense   decimal.Decimal `json:"interest_expense"`
	TaxRate           decimal.Decimal `json:"tax_rate"`
	FixedCosts        decimal.Decimal `json:"fixed_costs"`
	VariableCostRate  decimal.Decimal `json:"variable_cost_rate"`
}

// ProfitabilityAnalysis is the margin waterfall of one period. Margins are in
// percent of revenue.
type ProfitabilityAnalysis struct {
	Name               string          `json:"name,omitempty"`
	Revenue            decimal.Decimal `json:"revenue"`
	GrossProfit        decimal.Decimal `json:"gross_profit"`
	GrossMargin        decimal.Decimal `json:"gross_margin"`
	OperatingProfit    decimal.Decimal `json:"operating_profit"`
	OperatingMargin    decimal.Decimal `json:"operating_margin"`
	EBITDA             decimal.Decimal `json:"ebitda"`
	EBITDAMargin       decimal.Decimal `json:"ebitda_margin"`
	EarningsBeforeTax  decimal.Decimal `json:"earnings_before_tax"`
	Taxes              decimal.Decimal `json:"taxes"`
	NetProfit          decimal.Decimal `json:"net_profit"`
	NetMargin          decimal.Decimal `json:"net_margin"`
	VariableCosts      decimal.Decimal `json:"variable_costs"`
	ContributionMargin decimal.Decimal `json:"contribution_margin"`
	BreakEvenRevenue   decimal.Decimal `json:"break_even_revenue"`
	Degraded           Degraded        `json:"degraded,omitempty"`
}

// ProfitabilityAnalyzer computes margin waterfalls and break-even revenue.
type ProfitabilityAnalyzer struct {
	logger *zap.Logger
}

// NewProfitabilityAnalyzer creates an analyzer with the given logger.
func NewProfitabilityAnalyzer(logger *zap.Logger) *ProfitabilityAnalyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfitabilityAnalyzer{logger: logger}
}

// Analyze computes the waterfall. With zero revenue every margin and the
// break-even revenue are zero and marked degraded.
func (a *ProfitabilityAnalyzer) Analyze(input ProfitabilityInput) ProfitabilityAnalysis {
	result := ProfitabilityAnalysis{
		Name:    input.Name,
		Revenue: input.Revenue,
	}

	result.GrossProfit = input.Revenue.Sub(input.CostOfGoodsSold)
	result.OperatingProfit = result.GrossProfit.Sub(input.OperatingExpenses)
	result.EBITDA = result.OperatingProfit.Add(input.Depreciation)

	result.EarningsBeforeTax = result.OperatingProfit.Sub(input.InterestExpense)
	result.Taxes = mathutil.NonNegative(result.EarningsBeforeTax).Mul(input.TaxRate)
	result.NetProfit = result.EarningsBeforeTax.Sub(result.Taxes)

	result.VariableCosts = input.Revenue.Mul(input.VariableCostRate)
	result.ContributionMargin = input.Revenue.Sub(result.VariableCosts)

	margin := func(field string, value decimal.Decimal) decimal.Decimal {
		pct, ok := mathutil.Percentage(value, input.Revenue)
		return result.Degraded.guard(field, pct, ok)
	}
	result.GrossMargin = margin("gross_margin", result.GrossProfit)
	result.OperatingMargin = margin("operating_margin", result.OperatingProfit)
	result.EBITDAMargin = margin("ebitda_margin", result.EBITDA)
	result.NetMargin = margin("net_margin", result.NetProfit)

	// Break-even also degrades when variable costs consume all revenue.
	breakEven := mathutil.Zero
	contributionRatio, ok := mathutil.SafeDiv(result.ContributionMargin, input.Revenue)
	if ok {
		breakEven, ok = mathutil.SafeDiv(input.FixedCosts, contributionRatio)
	}
	result.BreakEvenRevenue = result.Degraded.guard("break_even_revenue", breakEven, ok)

	if len(result.Degraded) > 0 {
		a.logger.Warn("profitability ratios degraded",
			zap.String("op", "finance.ProfitabilityAnalyzer.Analyze"),
			zap.String("period", input.Name),
			zap.Strings("fields", result.Degraded),
		)
	}

	return result
}
