package finance

import (
	"testing"

	"github.com/iwvelando/finance-planner/pkg/mathutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func TestProfitabilityAnalyze(t *testing.T) {
	input := ProfitabilityInput{
		Name:              "FY2025",
		Revenue:           d("100000"),
		CostOfGoodsSold:   d("40000"),
		OperatingExpenses: d("30000"),
		Depreciation:      d("5000"),
		InterestExpense:   d("2000"),
		TaxRate:           d("0.25"),
		FixedCosts:        d("20000"),
		VariableCostRate:  d("0.3"),
	}

	analysis := NewProfitabilityAnalyzer(zaptest.NewLogger(t)).Analyze(input)

	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"gross profit", analysis.GrossProfit.String(), "60000"},
		{"gross margin", analysis.GrossMargin.String(), "60"},
		{"operating profit", analysis.OperatingProfit.String(), "30000"},
		{"operating margin", analysis.OperatingMargin.String(), "30"},
		{"ebitda", analysis.EBITDA.String(), "35000"},
		{"ebitda margin", analysis.EBITDAMargin.String(), "35"},
		{"earnings before tax", analysis.EarningsBeforeTax.String(), "28000"},
		{"taxes", analysis.Taxes.String(), "7000"},
		{"net profit", analysis.NetProfit.String(), "21000"},
		{"net margin", analysis.NetMargin.String(), "21"},
		{"variable costs", analysis.VariableCosts.String(), "30000"},
		{"contribution margin", analysis.ContributionMargin.String(), "70000"},
		{"break-even revenue", mathutil.Round(analysis.BreakEvenRevenue).String(), "28571.43"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, d(tt.got).Equal(d(tt.expected)), "%s = %s, expected %s", tt.name, tt.got, tt.expected)
		})
	}
	assert.Empty(t, analysis.Degraded)
}

func TestProfitabilityLossIsNotTaxed(t *testing.T) {
	analysis := NewProfitabilityAnalyzer(nil).Analyze(ProfitabilityInput{
		Revenue:           d("1000"),
		OperatingExpenses: d("1500"),
		TaxRate:           d("0.3"),
	})

	assert.True(t, analysis.Taxes.IsZero())
	assert.True(t, analysis.NetProfit.Equal(d("-500")))
	assert.True(t, analysis.NetMargin.Equal(d("-50")))
}

func TestProfitabilityZeroRevenue(t *testing.T) {
	analysis := NewProfitabilityAnalyzer(nil).Analyze(ProfitabilityInput{
		OperatingExpenses: d("100"),
		FixedCosts:        d("100"),
	})

	for _, field := range []string{"gross_margin", "operating_margin", "ebitda_margin", "net_margin", "break_even_revenue"} {
		assert.True(t, analysis.Degraded.Has(field), "expected %s to be degraded", field)
	}
	assert.True(t, analysis.GrossMargin.IsZero())
	assert.True(t, analysis.NetMargin.IsZero())
	assert.True(t, analysis.BreakEvenRevenue.IsZero())
	assert.True(t, analysis.OperatingProfit.Equal(d("-100")))
}

func TestProfitabilityFullVariableCosts(t *testing.T) {
	analysis := NewProfitabilityAnalyzer(nil).Analyze(ProfitabilityInput{
		Revenue:          d("500"),
		FixedCosts:       d("100"),
		VariableCostRate: d("1"),
	})

	assert.True(t, analysis.ContributionMargin.IsZero())
	assert.True(t, analysis.BreakEvenRevenue.IsZero())
	assert.Equal(t, Degraded{"break_even_revenue"}, analysis.Degraded)
}
