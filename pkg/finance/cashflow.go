// Package finance provides the financial planning analyzers: cash-flow
// projection, investment ROI, profitability, budget variance, financial ratios
// and what-if scenarios. Every analyzer is a pure function of its input; the
// logger only observes.
package finance

import (
	"fmt"

	"github.com/iwvelando/finance-planner/pkg/constants"
	"github.com/iwvelando/finance-planner/pkg/datetime"
	"github.com/iwvelando/finance-planner/pkg/mathutil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CapitalExpense is a one-off outlay scheduled in a projection month (1-based).
type CapitalExpense struct {
	Month       int             `json:"month"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
}

// CashFlowInput holds the assumptions for a monthly cash-flow projection. Rates
// are fractions, e.g. 0.2 for 20%.
type CashFlowInput struct {
	StartingCash         decimal.Decimal  `json:"starting_cash"`
	MonthlyRevenue       decimal.Decimal  `json:"monthly_revenue"`
	OperatingExpenses    decimal.Decimal  `json:"operating_expenses"`
	CapitalExpenses      []CapitalExpense `json:"capital_expenses_schedule,omitempty"`
	TaxRate              decimal.Decimal  `json:"tax_rate"`
	RevenueGrowthRate    decimal.Decimal  `json:"revenue_growth_rate"`
	ExpenseInflationRate decimal.Decimal  `json:"expense_inflation_rate"`
	StartMonth           string           `json:"start_month,omitempty"`
}

// CashFlowProjection is one projected month.
type CashFlowProjection struct {
	Period             string          `json:"period"`
	Index              int             `json:"index"`
	Revenue            decimal.Decimal `json:"revenue"`
	OperatingExpenses  decimal.Decimal `json:"operating_expenses"`
	CapitalExpenses    decimal.Decimal `json:"capital_expenses"`
	TaxObligations     decimal.Decimal `json:"tax_obligations"`
	NetCashFlow        decimal.Decimal `json:"net_cash_flow"`
	CumulativeCashFlow decimal.Decimal `json:"cumulative_cash_flow"`
	CashPosition       decimal.Decimal `json:"cash_position"`
	LiquidityRatio     decimal.Decimal `json:"liquidity_ratio"`
	Degraded           Degraded        `json:"degraded,omitempty"`
}

// CashFlowSummary condenses a projection.
type CashFlowSummary struct {
	Periods               int             `json:"periods"`
	EndingCash            decimal.Decimal `json:"ending_cash"`
	TotalNetCashFlow      decimal.Decimal `json:"total_net_cash_flow"`
	MinimumCashPosition   decimal.Decimal `json:"minimum_cash_position"`
	MinimumCashPeriod     string          `json:"minimum_cash_period"`
	FirstNegativePeriod   int             `json:"first_negative_period"`
	AverageLiquidityRatio decimal.Decimal `json:"average_liquidity_ratio"`
}

// CashFlowProjector produces period-indexed cash-flow projections.
type CashFlowProjector struct {
	logger *zap.Logger
}

// NewCashFlowProjector creates a projector with the given logger.
// If logger is nil, it will use a no-op logger to prevent panics.
func NewCashFlowProjector(logger *zap.Logger) *CashFlowProjector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CashFlowProjector{logger: logger}
}

// Project computes one row per month for the given number of periods. A zero
// period count means constants.DefaultProjectionPeriods; negative counts are
// rejected.
//
// Rows are a left fold over the periods: each row's cumulative cash flow and
// cash position extend the previous row's by its net cash flow.
func (p *CashFlowProjector) Project(input CashFlowInput, periods int) ([]CashFlowProjection, error) {
	if periods == 0 {
		periods = constants.DefaultProjectionPeriods
	}
	if periods < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidPeriods, periods)
	}
	if input.StartMonth != "" {
		if err := datetime.ValidateMonth(input.StartMonth); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidStartMonth, err)
		}
	}

	capex, err := p.scheduleByMonth(input.CapitalExpenses, periods)
	if err != nil {
		return nil, err
	}

	rows := make([]CashFlowProjection, 0, periods)
	cumulative := mathutil.Zero
	position := input.StartingCash

	for period := 1; period <= periods; period++ {
		label, err := datetime.PeriodLabel(input.StartMonth, period)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidStartMonth, err)
		}

		elapsed := mathutil.FromInt(int64(period - 1))
		growthFactor := mathutil.One.Add(mathutil.Div(input.RevenueGrowthRate.Mul(elapsed), mathutil.MonthsPerYear))
		inflationFactor := mathutil.One.Add(mathutil.Div(input.ExpenseInflationRate.Mul(elapsed), mathutil.MonthsPerYear))

		revenue := input.MonthlyRevenue.Mul(growthFactor)
		expenses := input.OperatingExpenses.Mul(inflationFactor)
		capital, ok := capex[period]
		if !ok {
			capital = mathutil.Zero
		}

		// Losses generate no tax credit.
		grossProfit := revenue.Sub(expenses)
		taxes := mathutil.NonNegative(grossProfit).Mul(input.TaxRate)

		net := revenue.Sub(expenses).Sub(capital).Sub(taxes)
		cumulative = cumulative.Add(net)
		position = position.Add(net)

		row := CashFlowProjection{
			Period:             label,
			Index:              period,
			Revenue:            revenue,
			OperatingExpenses:  expenses,
			CapitalExpenses:    capital,
			TaxObligations:     taxes,
			NetCashFlow:        net,
			CumulativeCashFlow: cumulative,
			CashPosition:       position,
		}
		ratio, ok := mathutil.SafeDiv(position, expenses.Add(capital))
		row.LiquidityRatio = row.Degraded.guard("liquidity_ratio", ratio, ok)
		if !ok {
			p.logger.Warn("liquidity ratio undefined for period with no outflows",
				zap.String("op", "finance.CashFlowProjector.Project"),
				zap.String("period", label),
			)
		}

		p.logger.Debug("projected period",
			zap.String("op", "finance.CashFlowProjector.Project"),
			zap.String("period", label),
			zap.Stringer("net_cash_flow", net),
			zap.Stringer("cash_position", position),
		)
		rows = append(rows, row)
	}

	return rows, nil
}

// scheduleByMonth totals the capital expense schedule per month. Entries past
// the projection horizon never match a period and are ignored.
func (p *CashFlowProjector) scheduleByMonth(schedule []CapitalExpense, periods int) (map[int]decimal.Decimal, error) {
	totals := make(map[int]decimal.Decimal, len(schedule))
	for i, entry := range schedule {
		if entry.Month < 1 {
			return nil, inputError("capital_expenses_schedule", i,
				fmt.Errorf("%w: month %d is before the first period", ErrInvalidScheduleEntry, entry.Month))
		}
		if entry.Month > periods {
			p.logger.Debug("capital expense falls outside the projection",
				zap.String("op", "finance.CashFlowProjector.scheduleByMonth"),
				zap.String("description", entry.Description),
				zap.Int("month", entry.Month),
			)
			continue
		}
		totals[entry.Month] = totals[entry.Month].Add(entry.Amount)
	}
	return totals, nil
}

// SummarizeProjection folds projection rows into a summary. An empty
// projection yields a zero summary.
func SummarizeProjection(rows []CashFlowProjection) CashFlowSummary {
	var summary CashFlowSummary
	if len(rows) == 0 {
		return summary
	}

	summary.Periods = len(rows)
	last := rows[len(rows)-1]
	summary.EndingCash = last.CashPosition
	summary.TotalNetCashFlow = last.CumulativeCashFlow
	summary.MinimumCashPosition = rows[0].CashPosition
	summary.MinimumCashPeriod = rows[0].Period

	liquidityTotal := mathutil.Zero
	for _, row := range rows {
		if row.CashPosition.LessThan(summary.MinimumCashPosition) {
			summary.MinimumCashPosition = row.CashPosition
			summary.MinimumCashPeriod = row.Period
		}
		if summary.FirstNegativePeriod == 0 && row.CashPosition.IsNegative() {
			summary.FirstNegativePeriod = row.Index
		}
		liquidityTotal = liquidityTotal.Add(row.LiquidityRatio)
	}
	summary.AverageLiquidityRatio = mathutil.Div(liquidityTotal, mathutil.FromInt(int64(len(rows))))

	return summary
}
