package finance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func TestRatioCalculate(t *testing.T) {
	ratios := NewRatioCalculator(zaptest.NewLogger(t)).Calculate(RatioInput{
		Name:                "Q4",
		CurrentAssets:       d("50000"),
		CashAndEquivalents:  d("10000"),
		Inventory:           d("20000"),
		AccountsReceivable:  d("8000"),
		TotalAssets:         d("200000"),
		CurrentLiabilities:  d("25000"),
		TotalDebt:           d("60000"),
		TotalEquity:         d("120000"),
		Revenue:             d("400000"),
		CostOfGoodsSold:     d("240000"),
		OperatingProfit:     d("40000"),
		NetIncome:           d("30000"),
		InterestExpense:     d("5000"),
		DebtServicePayments: d("16000"),
	})

	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"current ratio", ratios.Liquidity.CurrentRatio.String(), "2"},
		{"quick ratio", ratios.Liquidity.QuickRatio.String(), "1.2"},
		{"cash ratio", ratios.Liquidity.CashRatio.String(), "0.4"},
		{"asset turnover", ratios.Efficiency.AssetTurnover.String(), "2"},
		{"inventory turnover", ratios.Efficiency.InventoryTurnover.String(), "12"},
		{"receivables turnover", ratios.Efficiency.ReceivablesTurnover.String(), "50"},
		{"gross margin", ratios.Profitability.GrossMargin.String(), "40"},
		{"operating margin", ratios.Profitability.OperatingMargin.String(), "10"},
		{"net margin", ratios.Profitability.NetMargin.String(), "7.5"},
		{"return on assets", ratios.Profitability.ReturnOnAssets.String(), "15"},
		{"debt to equity", ratios.Leverage.DebtToEquity.String(), "0.5"},
		{"debt service coverage", ratios.Leverage.DebtServiceCoverage.String(), "2.5"},
		{"interest coverage", ratios.Leverage.InterestCoverage.String(), "8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, d(tt.got).Equal(d(tt.expected)), "%s = %s, expected %s", tt.name, tt.got, tt.expected)
		})
	}
	assert.Equal(t, "Q4", ratios.Name)
	assert.Empty(t, ratios.Degraded)
}

func TestRatioCalculateZeroDenominators(t *testing.T) {
	ratios := NewRatioCalculator(nil).Calculate(RatioInput{
		CurrentAssets:   d("100"),
		NetIncome:       d("10"),
		OperatingProfit: d("20"),
	})

	expected := Degraded{
		"liquidity.current_ratio",
		"liquidity.quick_ratio",
		"liquidity.cash_ratio",
		"efficiency.asset_turnover",
		"efficiency.inventory_turnover",
		"efficiency.receivables_turnover",
		"profitability.gross_margin",
		"profitability.operating_margin",
		"profitability.net_margin",
		"profitability.return_on_assets",
		"leverage.debt_to_equity",
		"leverage.debt_service_coverage",
		"leverage.interest_coverage",
	}
	assert.Equal(t, expected, ratios.Degraded)

	for _, value := range []string{
		ratios.Liquidity.CurrentRatio.String(),
		ratios.Profitability.NetMargin.String(),
		ratios.Leverage.InterestCoverage.String(),
	} {
		assert.Equal(t, "0", value)
	}
}

func TestRatioCalculatePartialDegradation(t *testing.T) {
	ratios := NewRatioCalculator(nil).Calculate(RatioInput{
		CurrentAssets:      d("100"),
		CurrentLiabilities: d("50"),
		TotalEquity:        d("10"),
		TotalDebt:          d("30"),
	})

	assert.True(t, ratios.Liquidity.CurrentRatio.Equal(d("2")))
	assert.True(t, ratios.Leverage.DebtToEquity.Equal(d("3")))
	assert.False(t, ratios.Degraded.Has("liquidity.current_ratio"))
	assert.True(t, ratios.Degraded.Has("efficiency.inventory_turnover"))
}
