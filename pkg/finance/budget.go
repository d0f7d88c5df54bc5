package finance

import (
	"fmt"

	"github.com/iwvelando/finance-planner/pkg/constants"
	"github.com/iwvelando/finance-planner/pkg/mathutil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CategoryType says whether a budget line earns or spends.
type CategoryType string

const (
	CategoryRevenue CategoryType = "revenue"
	CategoryExpense CategoryType = "expense"
)

// Criticality weights how closely a budget line is watched.
type Criticality string

const (
	CriticalityHigh   Criticality = "high"
	CriticalityMedium Criticality = "medium"
	CriticalityLow    Criticality = "low"
)

// VarianceType classifies a variance from the business's point of view.
type VarianceType string

const (
	VarianceFavorable   VarianceType = "favorable"
	VarianceUnfavorable VarianceType = "unfavorable"
)

// SignificanceLevel is the severity of a variance.
type SignificanceLevel string

const (
	SignificanceCritical SignificanceLevel = "critical"
	SignificanceModerate SignificanceLevel = "moderate"
	SignificanceMinor    SignificanceLevel = "minor"
)

var (
	criticalThreshold        = mathutil.FromInt(constants.CriticalVarianceThreshold)
	highCriticalityThreshold = mathutil.FromInt(constants.HighCriticalityVarianceThreshold)
	moderateThreshold        = mathutil.FromInt(constants.ModerateVarianceThreshold)
)

type recommendationKey struct {
	significance SignificanceLevel
	variance     VarianceType
	category     CategoryType
}

// recommendations covers every (significance, variance, category) combination.
var recommendations = map[recommendationKey]string{
	{SignificanceCritical, VarianceUnfavorable, CategoryRevenue}: "investigate shortfall",
	{SignificanceCritical, VarianceUnfavorable, CategoryExpense}: "reduce expenses immediately",
	{SignificanceCritical, VarianceFavorable, CategoryRevenue}:   "replicate success factors",
	{SignificanceCritical, VarianceFavorable, CategoryExpense}:   "replicate success factors",
	{SignificanceModerate, VarianceUnfavorable, CategoryRevenue}: "review revenue assumptions",
	{SignificanceModerate, VarianceUnfavorable, CategoryExpense}: "review spending controls",
	{SignificanceModerate, VarianceFavorable, CategoryRevenue}:   "document contributing factors",
	{SignificanceModerate, VarianceFavorable, CategoryExpense}:   "document contributing factors",
	{SignificanceMinor, VarianceUnfavorable, CategoryRevenue}:    "monitor",
	{SignificanceMinor, VarianceUnfavorable, CategoryExpense}:    "monitor",
	{SignificanceMinor, VarianceFavorable, CategoryRevenue}:      "monitor",
	{SignificanceMinor, VarianceFavorable, CategoryExpense}:      "monitor",
}

// Recommendation returns the action text for a classified variance.
func Recommendation(significance SignificanceLevel, variance VarianceType, category CategoryType) string {
	return recommendations[recommendationKey{significance, variance, category}]
}

// BudgetItem is one budgeted line compared against actuals.
type BudgetItem struct {
	Category       string          `json:"category"`
	BudgetedAmount decimal.Decimal `json:"budgeted_amount"`
	ActualAmount   decimal.Decimal `json:"actual_amount"`
	CategoryType   CategoryType    `json:"category_type"`
	Criticality    Criticality     `json:"criticality"`
}

// BudgetVarianceAnalysis is the classified variance of one budget line.
type BudgetVarianceAnalysis struct {
	Category           string            `json:"category"`
	CategoryType       CategoryType      `json:"category_type"`
	BudgetedAmount     decimal.Decimal   `json:"budgeted_amount"`
	ActualAmount       decimal.Decimal   `json:"actual_amount"`
	VarianceAmount     decimal.Decimal   `json:"variance_amount"`
	VariancePercentage decimal.Decimal   `json:"variance_percentage"`
	VarianceType       VarianceType      `json:"variance_type"`
	SignificanceLevel  SignificanceLevel `json:"significance_level"`
	RecommendedAction  string            `json:"recommended_action"`
	Degraded           Degraded          `json:"degraded,omitempty"`
}

// BudgetSummary totals a set of variances.
type BudgetSummary struct {
	TotalBudgeted  decimal.Decimal           `json:"total_budgeted"`
	TotalActual    decimal.Decimal           `json:"total_actual"`
	TotalVariance  decimal.Decimal           `json:"total_variance"`
	Favorable      int                       `json:"favorable"`
	Unfavorable    int                       `json:"unfavorable"`
	BySignificance map[SignificanceLevel]int `json:"by_significance"`
}

// BudgetVarianceAnalyzer compares budgets against actuals.
type BudgetVarianceAnalyzer struct {
	logger *zap.Logger
}

// NewBudgetVarianceAnalyzer creates an analyzer with the given logger.
// A nil logger is replaced with a no-op logger.
func NewBudgetVarianceAnalyzer(logger *zap.Logger) *BudgetVarianceAnalyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BudgetVarianceAnalyzer{logger: logger}
}

// Analyze classifies every item in input order. An item with an unknown
// category type or criticality fails the whole call.
func (a *BudgetVarianceAnalyzer) Analyze(items []BudgetItem) ([]BudgetVarianceAnalysis, error) {
	results := make([]BudgetVarianceAnalysis, 0, len(items))
	for i, item := range items {
		if err := validateBudgetItem(item); err != nil {
			return nil, inputError("budget", i, err)
		}
		results = append(results, a.analyzeItem(item))
	}
	return results, nil
}

func (a *BudgetVarianceAnalyzer) analyzeItem(item BudgetItem) BudgetVarianceAnalysis {
	result := BudgetVarianceAnalysis{
		Category:       item.Category,
		CategoryType:   item.CategoryType,
		BudgetedAmount: item.BudgetedAmount,
		ActualAmount:   item.ActualAmount,
		VarianceAmount: item.ActualAmount.Sub(item.BudgetedAmount),
	}

	pct, ok := mathutil.Percentage(result.VarianceAmount, item.BudgetedAmount)
	result.VariancePercentage = result.Degraded.guard("variance_percentage", pct, ok)
	if !ok {
		a.logger.Warn("variance percentage undefined for zero budget",
			zap.String("op", "finance.BudgetVarianceAnalyzer.Analyze"),
			zap.String("category", item.Category),
		)
	}

	result.VarianceType = classifyVariance(item.CategoryType, result.VarianceAmount)
	result.SignificanceLevel = classifySignificance(item.Criticality, result.VariancePercentage)
	result.RecommendedAction = Recommendation(result.SignificanceLevel, result.VarianceType, item.CategoryType)

	a.logger.Debug("budget line classified",
		zap.String("op", "finance.BudgetVarianceAnalyzer.Analyze"),
		zap.String("category", item.Category),
		zap.String("variance_type", string(result.VarianceType)),
		zap.String("significance", string(result.SignificanceLevel)),
	)
	return result
}

// classifyVariance treats an exact match as favorable for both category types.
func classifyVariance(category CategoryType, variance decimal.Decimal) VarianceType {
	favorable := !variance.IsNegative()
	if category == CategoryExpense {
		favorable = !variance.IsPositive()
	}
	if favorable {
		return VarianceFavorable
	}
	return VarianceUnfavorable
}

func classifySignificance(criticality Criticality, variancePercentage decimal.Decimal) SignificanceLevel {
	magnitude := variancePercentage.Abs()
	switch {
	case criticality == CriticalityHigh && magnitude.GreaterThan(highCriticalityThreshold):
		return SignificanceCritical
	case magnitude.GreaterThan(criticalThreshold):
		return SignificanceCritical
	case magnitude.GreaterThan(moderateThreshold):
		return SignificanceModerate
	default:
		return SignificanceMinor
	}
}

func validateBudgetItem(item BudgetItem) error {
	switch item.CategoryType {
	case CategoryRevenue, CategoryExpense:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidCategoryType, item.CategoryType)
	}
	switch item.Criticality {
	case CriticalityHigh, CriticalityMedium, CriticalityLow:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidCriticality, item.Criticality)
	}
	return nil
}

// SummarizeBudget totals analyzed budget lines.
func SummarizeBudget(results []BudgetVarianceAnalysis) BudgetSummary {
	summary := BudgetSummary{
		TotalBudgeted:  mathutil.Zero,
		TotalActual:    mathutil.Zero,
		TotalVariance:  mathutil.Zero,
		BySignificance: make(map[SignificanceLevel]int),
	}
	for _, r := range results {
		summary.TotalBudgeted = summary.TotalBudgeted.Add(r.BudgetedAmount)
		summary.TotalActual = summary.TotalActual.Add(r.ActualAmount)
		summary.TotalVariance = summary.TotalVariance.Add(r.VarianceAmount)
		if r.VarianceType == VarianceFavorable {
			summary.Favorable++
		} else {
			summary.Unfavorable++
		}
		summary.BySignificance[r.SignificanceLevel]++
	}
	return summary
}
