package finance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestBudgetAnalyzeRent(t *testing.T) {
	results, err := NewBudgetVarianceAnalyzer(zaptest.NewLogger(t)).Analyze([]BudgetItem{
		{Category: "Rent", BudgetedAmount: d("1000"), ActualAmount: d("1200"), CategoryType: CategoryExpense, Criticality: CriticalityHigh},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)

	rent := results[0]
	assert.True(t, rent.VarianceAmount.Equal(d("200")))
	assert.True(t, rent.VariancePercentage.Equal(d("20")))
	assert.Equal(t, VarianceUnfavorable, rent.VarianceType)
	assert.Equal(t, SignificanceCritical, rent.SignificanceLevel)
	assert.Equal(t, "reduce expenses immediately", rent.RecommendedAction)
}

func TestBudgetClassification(t *testing.T) {
	tests := []struct {
		name         string
		item         BudgetItem
		variance     VarianceType
		significance SignificanceLevel
		action       string
	}{
		{
			name:         "revenue shortfall over fifteen percent",
			item:         BudgetItem{Category: "Sales", BudgetedAmount: d("10000"), ActualAmount: d("8000"), CategoryType: CategoryRevenue, Criticality: CriticalityLow},
			variance:     VarianceUnfavorable,
			significance: SignificanceCritical,
			action:       "investigate shortfall",
		},
		{
			name:         "revenue beat is favorable",
			item:         BudgetItem{Category: "Sales", BudgetedAmount: d("10000"), ActualAmount: d("12000"), CategoryType: CategoryRevenue, Criticality: CriticalityMedium},
			variance:     VarianceFavorable,
			significance: SignificanceCritical,
			action:       "replicate success factors",
		},
		{
			name:         "high criticality crosses at ten percent",
			item:         BudgetItem{Category: "Payroll", BudgetedAmount: d("1000"), ActualAmount: d("1110"), CategoryType: CategoryExpense, Criticality: CriticalityHigh},
			variance:     VarianceUnfavorable,
			significance: SignificanceCritical,
			action:       "reduce expenses immediately",
		},
		{
			name:         "medium criticality at eleven percent is moderate",
			item:         BudgetItem{Category: "Payroll", BudgetedAmount: d("1000"), ActualAmount: d("1110"), CategoryType: CategoryExpense, Criticality: CriticalityMedium},
			variance:     VarianceUnfavorable,
			significance: SignificanceModerate,
			action:       "review spending controls",
		},
		{
			name:         "exactly fifteen percent is moderate",
			item:         BudgetItem{Category: "Travel", BudgetedAmount: d("1000"), ActualAmount: d("1150"), CategoryType: CategoryExpense, Criticality: CriticalityLow},
			variance:     VarianceUnfavorable,
			significance: SignificanceModerate,
			action:       "review spending controls",
		},
		{
			name:         "revenue moderately under",
			item:         BudgetItem{Category: "Services", BudgetedAmount: d("1000"), ActualAmount: d("920"), CategoryType: CategoryRevenue, Criticality: CriticalityLow},
			variance:     VarianceUnfavorable,
			significance: SignificanceModerate,
			action:       "review revenue assumptions",
		},
		{
			name:         "expense underspend is favorable",
			item:         BudgetItem{Category: "Marketing", BudgetedAmount: d("1000"), ActualAmount: d("930"), CategoryType: CategoryExpense, Criticality: CriticalityLow},
			variance:     VarianceFavorable,
			significance: SignificanceModerate,
			action:       "document contributing factors",
		},
		{
			name:         "exactly five percent is minor",
			item:         BudgetItem{Category: "Supplies", BudgetedAmount: d("1000"), ActualAmount: d("1050"), CategoryType: CategoryExpense, Criticality: CriticalityHigh},
			variance:     VarianceUnfavorable,
			significance: SignificanceMinor,
			action:       "monitor",
		},
		{
			name:         "on budget expense",
			item:         BudgetItem{Category: "Insurance", BudgetedAmount: d("500"), ActualAmount: d("500"), CategoryType: CategoryExpense, Criticality: CriticalityHigh},
			variance:     VarianceFavorable,
			significance: SignificanceMinor,
			action:       "monitor",
		},
		{
			name:         "on budget revenue",
			item:         BudgetItem{Category: "Subscriptions", BudgetedAmount: d("500"), ActualAmount: d("500"), CategoryType: CategoryRevenue, Criticality: CriticalityHigh},
			variance:     VarianceFavorable,
			significance: SignificanceMinor,
			action:       "monitor",
		},
	}

	analyzer := NewBudgetVarianceAnalyzer(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := analyzer.Analyze([]BudgetItem{tt.item})
			require.NoError(t, err)
			assert.Equal(t, tt.variance, results[0].VarianceType)
			assert.Equal(t, tt.significance, results[0].SignificanceLevel)
			assert.Equal(t, tt.action, results[0].RecommendedAction)
		})
	}
}

func TestBudgetZeroBudgetIsDegraded(t *testing.T) {
	results, err := NewBudgetVarianceAnalyzer(nil).Analyze([]BudgetItem{
		{Category: "Unplanned", ActualAmount: d("300"), CategoryType: CategoryExpense, Criticality: CriticalityLow},
	})
	require.NoError(t, err)

	assert.True(t, results[0].VarianceAmount.Equal(d("300")))
	assert.True(t, results[0].VariancePercentage.IsZero())
	assert.True(t, results[0].Degraded.Has("variance_percentage"))
	assert.Equal(t, VarianceUnfavorable, results[0].VarianceType)
	assert.Equal(t, SignificanceMinor, results[0].SignificanceLevel)
}

func TestBudgetRejectsUnknownEnums(t *testing.T) {
	analyzer := NewBudgetVarianceAnalyzer(nil)

	_, err := analyzer.Analyze([]BudgetItem{
		{Category: "Rent", CategoryType: CategoryExpense, Criticality: CriticalityLow},
		{Category: "Mystery", CategoryType: "asset", Criticality: CriticalityLow},
	})
	require.ErrorIs(t, err, ErrInvalidCategoryType)
	var inputErr *InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, "budget", inputErr.Field)
	assert.Equal(t, 1, inputErr.Index)

	_, err = analyzer.Analyze([]BudgetItem{
		{Category: "Rent", CategoryType: CategoryExpense, Criticality: "urgent"},
	})
	assert.ErrorIs(t, err, ErrInvalidCriticality)
}

func TestRecommendationTableIsTotal(t *testing.T) {
	for _, s := range []SignificanceLevel{SignificanceCritical, SignificanceModerate, SignificanceMinor} {
		for _, v := range []VarianceType{VarianceFavorable, VarianceUnfavorable} {
			for _, c := range []CategoryType{CategoryRevenue, CategoryExpense} {
				assert.NotEmpty(t, Recommendation(s, v, c), "missing recommendation for %s/%s/%s", s, v, c)
			}
		}
	}
}

func TestSummarizeBudget(t *testing.T) {
	results, err := NewBudgetVarianceAnalyzer(nil).Analyze([]BudgetItem{
		{Category: "Rent", BudgetedAmount: d("1000"), ActualAmount: d("1200"), CategoryType: CategoryExpense, Criticality: CriticalityHigh},
		{Category: "Sales", BudgetedAmount: d("5000"), ActualAmount: d("5100"), CategoryType: CategoryRevenue, Criticality: CriticalityMedium},
		{Category: "Travel", BudgetedAmount: d("400"), ActualAmount: d("300"), CategoryType: CategoryExpense, Criticality: CriticalityLow},
	})
	require.NoError(t, err)

	summary := SummarizeBudget(results)
	assert.True(t, summary.TotalBudgeted.Equal(d("6400")))
	assert.True(t, summary.TotalActual.Equal(d("6600")))
	assert.True(t, summary.TotalVariance.Equal(d("200")))
	assert.Equal(t, 2, summary.Favorable)
	assert.Equal(t, 1, summary.Unfavorable)
	assert.Equal(t, 2, summary.BySignificance[SignificanceCritical])
	assert.Equal(t, 1, summary.BySignificance[SignificanceMinor])
}
