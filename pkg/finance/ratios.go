package finance

import (
	"github.com/iwvelando/finance-planner/pkg/mathutil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RatioInput is a balance-sheet and income snapshot.
type RatioInput struct {
	Name                string          `json:"name,omitempty"`
	CurrentAssets       decimal.Decimal `json:"current_assets"`
	CashAndEquivalents  decimal.Decimal `json:"cash_and_equivalents"`
	Inventory           decimal.Decimal `json:"inventory"`
	AccountsReceivable  decimal.Decimal `json:"accounts_receivable"`
	TotalAssets         decimal.Decimal `json:"total_assets"`
	CurrentLiabilities  decimal.Decimal `json:"current_liabilities"`
	TotalDebt           decimal.Decimal `json:"total_debt"`
	TotalEquity         decimal.Decimal `json:"total_equity"`
	Revenue             decimal.Decimal `json:"revenue"`
	CostOfGoodsSold     decimal.Decimal `json:"cost_of_goods_sold"`
	OperatingProfit     decimal.Decimal `json:"operating_profit"`
	NetIncome           decimal.Decimal `json:"net_income"`
	InterestExpense     decimal.Decimal `json:"interest_expense"`
	DebtServicePayments decimal.Decimal `json:"debt_service_payments"`
}

type LiquidityRatios struct {
	CurrentRatio decimal.Decimal `json:"current_ratio"`
	QuickRatio   decimal.Decimal `json:"quick_ratio"`
	CashRatio    decimal.Decimal `json:"cash_ratio"`
}

type EfficiencyRatios struct {
	AssetTurnover       decimal.Decimal `json:"asset_turnover"`
	InventoryTurnover   decimal.Decimal `json:"inventory_turnover"`
	ReceivablesTurnover decimal.Decimal `json:"receivables_turnover"`
}

// ProfitabilityRatios are in percent.
type ProfitabilityRatios struct {
	GrossMargin     decimal.Decimal `json:"gross_margin"`
	OperatingMargin decimal.Decimal `json:"operating_margin"`
	NetMargin       decimal.Decimal `json:"net_margin"`
	ReturnOnAssets  decimal.Decimal `json:"return_on_assets"`
}

type LeverageRatios struct {
	DebtToEquity        decimal.Decimal `json:"debt_to_equity"`
	DebtServiceCoverage decimal.Decimal `json:"debt_service_coverage"`
	InterestCoverage    decimal.Decimal `json:"interest_coverage"`
}

// FinancialRatios groups the four ratio panels of one snapshot.
type FinancialRatios struct {
	Name          string              `json:"name,omitempty"`
	Liquidity     LiquidityRatios     `json:"liquidity"`
	Efficiency    EfficiencyRatios    `json:"efficiency"`
	Profitability ProfitabilityRatios `json:"profitability"`
	Leverage      LeverageRatios      `json:"leverage"`
	Degraded      Degraded            `json:"degraded,omitempty"`
}

// RatioCalculator computes ratio panels.
type RatioCalculator struct {
	logger *zap.Logger
}

// NewRatioCalculator creates a calculator with the given logger.
func NewRatioCalculator(logger *zap.Logger) *RatioCalculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RatioCalculator{logger: logger}
}

// Calculate computes every ratio. Each zero denominator yields zero for the
// ratios that depend on it, recorded as "<panel>.<ratio>" in Degraded.
func (c *RatioCalculator) Calculate(input RatioInput) FinancialRatios {
	result := FinancialRatios{Name: input.Name}

	ratio := func(field string, numerator, denominator decimal.Decimal) decimal.Decimal {
		value, ok := mathutil.SafeDiv(numerator, denominator)
		return result.Degraded.guard(field, value, ok)
	}
	percent := func(field string, numerator, denominator decimal.Decimal) decimal.Decimal {
		value, ok := mathutil.Percentage(numerator, denominator)
		return result.Degraded.guard(field, value, ok)
	}

	result.Liquidity = LiquidityRatios{
		CurrentRatio: ratio("liquidity.current_ratio", input.CurrentAssets, input.CurrentLiabilities),
		QuickRatio:   ratio("liquidity.quick_ratio", input.CurrentAssets.Sub(input.Inventory), input.CurrentLiabilities),
		CashRatio:    ratio("liquidity.cash_ratio", input.CashAndEquivalents, input.CurrentLiabilities),
	}

	result.Efficiency = EfficiencyRatios{
		AssetTurnover:       ratio("efficiency.asset_turnover", input.Revenue, input.TotalAssets),
		InventoryTurnover:   ratio("efficiency.inventory_turnover", input.CostOfGoodsSold, input.Inventory),
		ReceivablesTurnover: ratio("efficiency.receivables_turnover", input.Revenue, input.AccountsReceivable),
	}

	result.Profitability = ProfitabilityRatios{
		GrossMargin:     percent("profitability.gross_margin", input.Revenue.Sub(input.CostOfGoodsSold), input.Revenue),
		OperatingMargin: percent("profitability.operating_margin", input.OperatingProfit, input.Revenue),
		NetMargin:       percent("profitability.net_margin", input.NetIncome, input.Revenue),
		ReturnOnAssets:  percent("profitability.return_on_assets", input.NetIncome, input.TotalAssets),
	}

	result.Leverage = LeverageRatios{
		DebtToEquity:        ratio("leverage.debt_to_equity", input.TotalDebt, input.TotalEquity),
		DebtServiceCoverage: ratio("leverage.debt_service_coverage", input.OperatingProfit, input.DebtServicePayments),
		InterestCoverage:    ratio("leverage.interest_coverage", input.OperatingProfit, input.InterestExpense),
	}

	if len(result.Degraded) > 0 {
		c.logger.Warn("financial ratios degraded",
			zap.String("op", "finance.RatioCalculator.Calculate"),
			zap.String("snapshot", input.Name),
			zap.Strings("fields", result.Degraded),
		)
	}

	return result
}
