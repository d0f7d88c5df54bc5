package finance

import (
	"fmt"

	"github.com/iwvelando/finance-planner/pkg/mathutil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// irrMaxIterations bounds the bisection in EstimateIRR.
	irrMaxIterations = 200

	// irrRateScale is the number of fractional digits kept for trial rates.
	irrRateScale = 12
)

var (
	irrLowerBound = mathutil.MustParse("-0.99")
	irrUpperBound = mathutil.MustParse("10")
	irrTolerance  = mathutil.MustParse("0.0000000001")
	two           = mathutil.FromInt(2)
)

// BreakEvenNever is the break-even text when the investment never pays back.
const BreakEvenNever = "never"

// InvestmentInput describes a single investment. Rates are fractions.
type InvestmentInput struct {
	Name                   string          `json:"name,omitempty"`
	InitialInvestment      decimal.Decimal `json:"initial_investment"`
	AnnualRevenueIncrease  decimal.Decimal `json:"annual_revenue_increase"`
	AnnualCostSavings      decimal.Decimal `json:"annual_cost_savings"`
	ImplementationCosts    decimal.Decimal `json:"implementation_costs"`
	AnnualMaintenanceCosts decimal.Decimal `json:"annual_maintenance_costs"`
	ProjectLifespanYears   int             `json:"project_lifespan_years"`
	DiscountRate           decimal.Decimal `json:"discount_rate"`
	RiskFactor             decimal.Decimal `json:"risk_factor"`

	// SolveIRR runs EstimateIRR in addition to the first-order approximation.
	SolveIRR bool `json:"solve_irr,omitempty"`
}

// ROIAnalysis is the return analysis of one investment. Percent fields are
// expressed in percent (12.5 means 12.5%).
type ROIAnalysis struct {
	Name                  string           `json:"name,omitempty"`
	InvestmentAmount      decimal.Decimal  `json:"investment_amount"`
	AnnualRevenueIncrease decimal.Decimal  `json:"annual_revenue_increase"`
	AnnualCostSavings     decimal.Decimal  `json:"annual_cost_savings"`
	NetAnnualBenefit      decimal.Decimal  `json:"net_annual_benefit"`
	PaybackPeriodMonths   decimal.Decimal  `json:"payback_period_months"`
	NetPresentValue       decimal.Decimal  `json:"net_present_value"`
	InternalRateOfReturn  decimal.Decimal  `json:"internal_rate_of_return"`
	IRREstimate           *decimal.Decimal `json:"irr_estimate,omitempty"`
	IRRConverged          bool             `json:"irr_converged,omitempty"`
	ROIPercentage         decimal.Decimal  `json:"roi_percentage"`
	RiskAdjustedROI       decimal.Decimal  `json:"risk_adjusted_roi"`
	BreakEvenPoint        string           `json:"break_even_point"`
	Degraded              Degraded         `json:"degraded,omitempty"`
}

// ROIAnalyzer computes payback, NPV, IRR and ROI for investments.
type ROIAnalyzer struct {
	logger *zap.Logger
}

// NewROIAnalyzer creates an analyzer with the given logger.
// If logger is nil, it will use a no-op logger to prevent panics.
func NewROIAnalyzer(logger *zap.Logger) *ROIAnalyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ROIAnalyzer{logger: logger}
}

// Analyze evaluates one investment. Negative amounts and rates are not
// rejected; they flow through the formulas unchanged.
func (a *ROIAnalyzer) Analyze(input InvestmentInput) ROIAnalysis {
	totalInvestment := input.InitialInvestment.Add(input.ImplementationCosts)
	netAnnualBenefit := input.AnnualRevenueIncrease.
		Add(input.AnnualCostSavings).
		Sub(input.AnnualMaintenanceCosts)
	lifespan := mathutil.FromInt(int64(input.ProjectLifespanYears))

	result := ROIAnalysis{
		Name:                  input.Name,
		InvestmentAmount:      totalInvestment,
		AnnualRevenueIncrease: input.AnnualRevenueIncrease,
		AnnualCostSavings:     input.AnnualCostSavings,
		NetAnnualBenefit:      netAnnualBenefit,
	}

	// Scale before dividing so whole-month paybacks stay exact under Ceil.
	paybackMonths, ok := mathutil.SafeDiv(totalInvestment.Mul(mathutil.MonthsPerYear), netAnnualBenefit)
	if ok {
		result.PaybackPeriodMonths = paybackMonths
		result.BreakEvenPoint = fmt.Sprintf("%s months", result.PaybackPeriodMonths.Ceil().String())
	} else {
		result.Degraded.mark("payback_period_months")
		result.Degraded.mark("break_even_point")
		result.BreakEvenPoint = BreakEvenNever
		a.logger.Warn("payback period undefined: net annual benefit is zero",
			zap.String("op", "finance.ROIAnalyzer.Analyze"),
			zap.String("investment", input.Name),
		)
	}

	npv, ok := NetPresentValue(totalInvestment, netAnnualBenefit, input.DiscountRate, input.ProjectLifespanYears)
	result.NetPresentValue = result.Degraded.guard("net_present_value", npv, ok)
	if !ok {
		a.logger.Warn("net present value undefined: discount factor is zero",
			zap.String("op", "finance.ROIAnalyzer.Analyze"),
			zap.String("investment", input.Name),
			zap.Stringer("discount_rate", input.DiscountRate),
		)
	}

	totalReturn := netAnnualBenefit.Mul(lifespan).Sub(totalInvestment)
	roi, ok := mathutil.Percentage(totalReturn, totalInvestment)
	result.ROIPercentage = result.Degraded.guard("roi_percentage", roi, ok)
	result.RiskAdjustedROI = result.ROIPercentage.Mul(mathutil.One.Sub(input.RiskFactor))
	if !ok {
		result.Degraded.mark("risk_adjusted_roi")
	}

	// First-order approximation; IRREstimate holds the solved rate when requested.
	benefitRatio, ok := mathutil.SafeDiv(netAnnualBenefit, totalInvestment)
	if ok {
		result.InternalRateOfReturn = mathutil.NonNegative(benefitRatio.Sub(input.DiscountRate).Mul(mathutil.Hundred))
	} else {
		result.InternalRateOfReturn = mathutil.Zero
		result.Degraded.mark("internal_rate_of_return")
		a.logger.Warn("return ratios undefined: total investment is zero",
			zap.String("op", "finance.ROIAnalyzer.Analyze"),
			zap.String("investment", input.Name),
		)
	}

	if input.SolveIRR {
		estimate, converged := EstimateIRR(totalInvestment, netAnnualBenefit, input.ProjectLifespanYears)
		result.IRREstimate = &estimate
		result.IRRConverged = converged
	}

	a.logger.Debug("investment analyzed",
		zap.String("op", "finance.ROIAnalyzer.Analyze"),
		zap.String("investment", input.Name),
		zap.Stringer("npv", result.NetPresentValue),
		zap.Stringer("roi_percentage", result.ROIPercentage),
	)
	return result
}

// NetPresentValue discounts a level annual benefit over the lifespan and
// subtracts the up-front investment:
//
//	-investment + Σ_{year=1..lifespan} benefit / (1+rate)^year
//
// It reports false, with a zero value, when a discount factor is zero (a rate
// of -100%).
func NetPresentValue(investment, annualBenefit, rate decimal.Decimal, lifespanYears int) (decimal.Decimal, bool) {
	pv, ok := presentValue(annualBenefit, rate, lifespanYears)
	if !ok {
		return mathutil.Zero, false
	}
	return pv.Sub(investment), true
}

func presentValue(annualBenefit, rate decimal.Decimal, lifespanYears int) (decimal.Decimal, bool) {
	growth := mathutil.One.Add(rate)
	total := mathutil.Zero
	for year := 1; year <= lifespanYears; year++ {
		term, ok := mathutil.SafeDiv(annualBenefit, mathutil.Pow(growth, year))
		if !ok {
			return mathutil.Zero, false
		}
		total = total.Add(term)
	}
	return total, true
}

// npvAt is NetPresentValue for rates inside the bisection bounds, where every
// discount factor is positive.
func npvAt(investment, annualBenefit, rate decimal.Decimal, lifespanYears int) decimal.Decimal {
	npv, _ := NetPresentValue(investment, annualBenefit, rate, lifespanYears)
	return npv
}

// EstimateIRR solves NPV(rate) = 0 by bisection on [-99%, 1000%] and returns
// the rate in percent. It reports false when no root is bracketed, which is
// always the case for a non-positive investment or benefit.
func EstimateIRR(investment, annualBenefit decimal.Decimal, lifespanYears int) (decimal.Decimal, bool) {
	if lifespanYears < 1 || !investment.IsPositive() || !annualBenefit.IsPositive() {
		return mathutil.Zero, false
	}

	low, high := irrLowerBound, irrUpperBound
	// NPV falls as the rate rises, so a root exists only if the bounds straddle zero.
	if npvAt(investment, annualBenefit, low, lifespanYears).IsNegative() ||
		npvAt(investment, annualBenefit, high, lifespanYears).IsPositive() {
		return mathutil.Zero, false
	}

	for i := 0; i < irrMaxIterations; i++ {
		mid := low.Add(high).DivRound(two, irrRateScale)
		npv := npvAt(investment, annualBenefit, mid, lifespanYears)
		switch {
		case npv.IsZero():
			return mid.Mul(mathutil.Hundred), true
		case npv.IsPositive():
			low = mid
		default:
			high = mid
		}
		if high.Sub(low).LessThanOrEqual(irrTolerance) {
			break
		}
	}

	return low.Add(high).DivRound(two, irrRateScale).Mul(mathutil.Hundred), true
}
