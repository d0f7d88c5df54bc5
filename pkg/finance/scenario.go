package finance

import (
	"strings"

	"github.com/iwvelando/finance-planner/pkg/constants"
	"github.com/iwvelando/finance-planner/pkg/mathutil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Risk factor and mitigation texts. Consumers alert on these strings.
const (
	RiskHighRevenueVolatility    = "high revenue volatility"
	RiskSignificantCostInflation = "significant cost inflation"
	RiskLowProbabilityHighImpact = "low probability scenario with high impact"

	MitigationCostReduction     = "develop cost-reduction plan"
	MitigationRevenueDiversify  = "diversify revenue streams"
	MitigationCashReserves      = "build cash reserves"
	MitigationInsuranceCoverage = "review insurance coverage"
)

var (
	revenueVolatilityThreshold = mathutil.FromInt(constants.RevenueVolatilityThreshold)
	costInflationThreshold     = mathutil.FromInt(constants.CostInflationThreshold)
	lowProbabilityThreshold    = mathutil.MustParse(constants.LowProbabilityThreshold)
)

// BaseCase is the annual baseline every scenario is compared against.
type BaseCase struct {
	AnnualRevenue decimal.Decimal `json:"annual_revenue"`
	AnnualCosts   decimal.Decimal `json:"annual_costs"`
}

// Scenario is a named what-if. Change fields are in percent; probability is
// a fraction.
type Scenario struct {
	Name                 string          `json:"name"`
	Probability          decimal.Decimal `json:"probability"`
	RevenueChangePercent decimal.Decimal `json:"revenue_change_percent"`
	CostChangePercent    decimal.Decimal `json:"cost_change_percent"`
	KeyAssumptions       []string        `json:"key_assumptions,omitempty"`
}

// ScenarioAnalysis is the outcome of one scenario.
type ScenarioAnalysis struct {
	ScenarioName         string          `json:"scenario_name"`
	Probability          decimal.Decimal `json:"probability"`
	RevenueImpact        decimal.Decimal `json:"revenue_impact"`
	CostImpact           decimal.Decimal `json:"cost_impact"`
	NetImpact            decimal.Decimal `json:"net_impact"`
	ProjectedRevenue     decimal.Decimal `json:"projected_revenue"`
	ProjectedCosts       decimal.Decimal `json:"projected_costs"`
	KeyAssumptions       []string        `json:"key_assumptions"`
	RiskFactors          []string        `json:"risk_factors"`
	MitigationStrategies []string        `json:"mitigation_strategies"`
}

// ScenarioSummary condenses a scenario batch.
type ScenarioSummary struct {
	ExpectedNetImpact decimal.Decimal `json:"expected_net_impact"`
	TotalProbability  decimal.Decimal `json:"total_probability"`
	BestCase          string          `json:"best_case"`
	WorstCase         string          `json:"worst_case"`
}

// ScenarioAnalyzer applies what-if deltas to a base case.
type ScenarioAnalyzer struct {
	logger *zap.Logger
}

// NewScenarioAnalyzer creates an analyzer with the given logger.
func NewScenarioAnalyzer(logger *zap.Logger) *ScenarioAnalyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScenarioAnalyzer{logger: logger}
}

// Analyze evaluates each scenario independently against the base case and
// returns the results in input order.
func (a *ScenarioAnalyzer) Analyze(base BaseCase, scenarios []Scenario) ([]ScenarioAnalysis, error) {
	results := make([]ScenarioAnalysis, 0, len(scenarios))
	for i, scenario := range scenarios {
		if strings.TrimSpace(scenario.Name) == "" {
			return nil, inputError("scenarios", i, ErrEmptyScenarioName)
		}
		results = append(results, a.analyzeScenario(base, scenario))
	}
	return results, nil
}

func (a *ScenarioAnalyzer) analyzeScenario(base BaseCase, scenario Scenario) ScenarioAnalysis {
	revenueImpact := mathutil.ApplyPercentage(base.AnnualRevenue, scenario.RevenueChangePercent)
	costImpact := mathutil.ApplyPercentage(base.AnnualCosts, scenario.CostChangePercent)
	newRevenue := base.AnnualRevenue.Add(revenueImpact)
	newCosts := base.AnnualCosts.Add(costImpact)
	netImpact := newRevenue.Sub(newCosts).Sub(base.AnnualRevenue.Sub(base.AnnualCosts))

	assumptions := append([]string{}, scenario.KeyAssumptions...)
	risks := riskFactors(scenario)
	result := ScenarioAnalysis{
		ScenarioName:         scenario.Name,
		Probability:          scenario.Probability,
		RevenueImpact:        revenueImpact,
		CostImpact:           costImpact,
		NetImpact:            netImpact,
		ProjectedRevenue:     newRevenue,
		ProjectedCosts:       newCosts,
		KeyAssumptions:       assumptions,
		RiskFactors:          risks,
		MitigationStrategies: mitigationStrategies(netImpact, risks),
	}

	a.logger.Debug("scenario analyzed",
		zap.String("op", "finance.ScenarioAnalyzer.Analyze"),
		zap.String("scenario", scenario.Name),
		zap.Stringer("net_impact", netImpact),
		zap.Int("risk_factors", len(risks)),
	)
	return result
}

func riskFactors(scenario Scenario) []string {
	risks := []string{}
	if scenario.RevenueChangePercent.Abs().GreaterThan(revenueVolatilityThreshold) {
		risks = append(risks, RiskHighRevenueVolatility)
	}
	if scenario.CostChangePercent.GreaterThan(costInflationThreshold) {
		risks = append(risks, RiskSignificantCostInflation)
	}
	if scenario.Probability.LessThan(lowProbabilityThreshold) {
		risks = append(risks, RiskLowProbabilityHighImpact)
	}
	return risks
}

func mitigationStrategies(netImpact decimal.Decimal, risks []string) []string {
	strategies := []string{}
	if netImpact.IsNegative() {
		strategies = append(strategies, MitigationCostReduction, MitigationRevenueDiversify)
	}
	if len(risks) > 1 {
		strategies = append(strategies, MitigationCashReserves, MitigationInsuranceCoverage)
	}
	return strategies
}

// SummarizeScenarios computes the probability-weighted net impact and the
// best and worst scenarios by net impact. Ties keep the earlier scenario.
func SummarizeScenarios(results []ScenarioAnalysis) ScenarioSummary {
	summary := ScenarioSummary{
		ExpectedNetImpact: mathutil.Zero,
		TotalProbability:  mathutil.Zero,
	}
	if len(results) == 0 {
		return summary
	}

	best, worst := results[0], results[0]
	for _, r := range results {
		summary.ExpectedNetImpact = summary.ExpectedNetImpact.Add(r.Probability.Mul(r.NetImpact))
		summary.TotalProbability = summary.TotalProbability.Add(r.Probability)
		if r.NetImpact.GreaterThan(best.NetImpact) {
			best = r
		}
		if r.NetImpact.LessThan(worst.NetImpact) {
			worst = r
		}
	}
	summary.BestCase = best.ScenarioName
	summary.WorstCase = worst.ScenarioName
	return summary
}
