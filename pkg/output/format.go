// Package output provides utilities for formatting and displaying plan reports.
package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/iwvelando/finance-planner/internal/planner"
	"github.com/iwvelando/finance-planner/pkg/constants"
	"github.com/iwvelando/finance-planner/pkg/finance"
	"github.com/iwvelando/finance-planner/pkg/format"
	"github.com/iwvelando/finance-planner/pkg/mathutil"
	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Write renders the report in the named format.
func Write(w io.Writer, outputFormat string, report *planner.Report) error {
	switch outputFormat {
	case constants.OutputFormatPretty:
		return PrettyFormat(w, report)
	case constants.OutputFormatCSV:
		return CsvFormat(w, report)
	case constants.OutputFormatJSON:
		return JSONFormat(w, report)
	case constants.OutputFormatXLSX:
		return XLSXFormat(w, report)
	default:
		return fmt.Errorf("unsupported output format %q", outputFormat)
	}
}

// PrettyFormat outputs a human-readable rather than machine-readable report.
func PrettyFormat(w io.Writer, report *planner.Report) error {
	pw := &prettyWriter{p: message.NewPrinter(language.English)}
	plan := report.Plan

	if len(plan.CashFlow) > 0 {
		pw.cashFlow(plan.CashFlow, plan.CashFlowSummary)
	}
	for _, analysis := range plan.Investments {
		pw.investment(analysis)
	}
	for _, analysis := range plan.Profitability {
		pw.profitability(analysis)
	}
	if len(plan.Budget) > 0 {
		pw.budget(plan.Budget, plan.BudgetSummary)
	}
	for _, ratios := range plan.Ratios {
		pw.ratios(ratios)
	}
	if len(plan.Scenarios) > 0 {
		pw.scenarios(plan.Scenarios, plan.ScenarioSummary)
	}
	if len(report.Warnings) > 0 {
		pw.header("Warnings")
		for _, warning := range report.Warnings {
			pw.printf("- %s\n", warning)
		}
	}

	_, err := w.Write(pw.buf.Bytes())
	return err
}

type prettyWriter struct {
	p       *message.Printer
	buf     bytes.Buffer
	started bool
}

func (pw *prettyWriter) printf(layout string, args ...interface{}) {
	_, _ = pw.p.Fprintf(&pw.buf, layout, args...)
}

func (pw *prettyWriter) header(title string) {
	if pw.started {
		pw.buf.WriteString("\n")
	}
	pw.started = true
	pw.printf("--- %s ---\n", title)
}

// money formats an amount with the printer's grouping; the float conversion
// happens here and nowhere upstream.
func (pw *prettyWriter) money(amount decimal.Decimal) string {
	value := mathutil.ToNumber(mathutil.Round(amount))
	if value < 0 {
		return pw.p.Sprintf("-$%.2f", -value)
	}
	return pw.p.Sprintf("$%.2f", value)
}

func (pw *prettyWriter) degraded(fields finance.Degraded) {
	if len(fields) > 0 {
		pw.printf("Undefined (zero denominator): %s\n", strings.Join(fields, ", "))
	}
}

func (pw *prettyWriter) table(headers []string, rows [][]string) {
	tw := tabwriter.NewWriter(&pw.buf, 0, 0, 1, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(tw, strings.Join(headers, "\t"))
	for _, row := range rows {
		_, _ = fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	_ = tw.Flush()
}

func (pw *prettyWriter) cashFlow(rows []finance.CashFlowProjection, summary *finance.CashFlowSummary) {
	pw.header("Cash flow projection")
	table := make([][]string, 0, len(rows))
	for _, row := range rows {
		table = append(table, []string{
			row.Period,
			pw.money(row.Revenue),
			pw.money(row.OperatingExpenses),
			pw.money(row.CapitalExpenses),
			pw.money(row.TaxObligations),
			pw.money(row.NetCashFlow),
			pw.money(row.CumulativeCashFlow),
			pw.money(row.CashPosition),
			format.Ratio(row.LiquidityRatio),
		})
	}
	pw.table([]string{"Period", "Revenue", "Expenses", "Capital", "Taxes", "Net", "Cumulative", "Cash", "Liquidity"}, table)

	if summary == nil {
		return
	}
	pw.printf("Ending cash: %s\n", pw.money(summary.EndingCash))
	pw.printf("Minimum cash: %s (%s)\n", pw.money(summary.MinimumCashPosition), summary.MinimumCashPeriod)
	if summary.FirstNegativePeriod > 0 {
		pw.printf("First negative period: %s\n", rows[summary.FirstNegativePeriod-1].Period)
	} else {
		pw.printf("First negative period: none\n")
	}
}

func (pw *prettyWriter) investment(a finance.ROIAnalysis) {
	pw.header("Investment " + a.Name)
	pw.printf("Total investment: %s\n", pw.money(a.InvestmentAmount))
	pw.printf("Net annual benefit: %s\n", pw.money(a.NetAnnualBenefit))
	pw.printf("Payback: %s (%s months)\n", a.BreakEvenPoint, format.Ratio(a.PaybackPeriodMonths))
	pw.printf("Net present value: %s\n", pw.money(a.NetPresentValue))
	pw.printf("ROI: %s (risk adjusted %s)\n", format.Percent(a.ROIPercentage), format.Percent(a.RiskAdjustedROI))
	switch {
	case a.IRREstimate == nil:
		pw.printf("IRR (approximation): %s\n", format.Percent(a.InternalRateOfReturn))
	case a.IRRConverged:
		pw.printf("IRR: %s (approximation %s)\n", format.Percent(*a.IRREstimate), format.Percent(a.InternalRateOfReturn))
	default:
		pw.printf("IRR: no solution (approximation %s)\n", format.Percent(a.InternalRateOfReturn))
	}
	pw.degraded(a.Degraded)
}

func (pw *prettyWriter) profitability(a finance.ProfitabilityAnalysis) {
	pw.header("Profitability " + a.Name)
	pw.table([]string{"Line", "Amount", "Margin"}, [][]string{
		{"Revenue", pw.money(a.Revenue), ""},
		{"Gross profit", pw.money(a.GrossProfit), format.Percent(a.GrossMargin)},
		{"Operating profit", pw.money(a.OperatingProfit), format.Percent(a.OperatingMargin)},
		{"EBITDA", pw.money(a.EBITDA), format.Percent(a.EBITDAMargin)},
		{"Earnings before tax", pw.money(a.EarningsBeforeTax), ""},
		{"Taxes", pw.money(a.Taxes), ""},
		{"Net profit", pw.money(a.NetProfit), format.Percent(a.NetMargin)},
		{"Contribution margin", pw.money(a.ContributionMargin), ""},
		{"Break-even revenue", pw.money(a.BreakEvenRevenue), ""},
	})
	pw.degraded(a.Degraded)
}

func (pw *prettyWriter) budget(results []finance.BudgetVarianceAnalysis, summary *finance.BudgetSummary) {
	pw.header("Budget variance")
	table := make([][]string, 0, len(results))
	for _, r := range results {
		table = append(table, []string{
			r.Category,
			pw.money(r.BudgetedAmount),
			pw.money(r.ActualAmount),
			pw.money(r.VarianceAmount),
			format.Percent(r.VariancePercentage),
			string(r.VarianceType),
			string(r.SignificanceLevel),
			r.RecommendedAction,
		})
	}
	pw.table([]string{"Category", "Budgeted", "Actual", "Variance", "Variance %", "Type", "Significance", "Action"}, table)

	if summary != nil {
		pw.printf("Total variance: %s (%d favorable, %d unfavorable)\n",
			pw.money(summary.TotalVariance), summary.Favorable, summary.Unfavorable)
	}
}

func (pw *prettyWriter) ratios(r finance.FinancialRatios) {
	pw.header("Financial ratios " + r.Name)
	pw.table([]string{"Ratio", "Value"}, [][]string{
		{"Current ratio", format.Ratio(r.Liquidity.CurrentRatio)},
		{"Quick ratio", format.Ratio(r.Liquidity.QuickRatio)},
		{"Cash ratio", format.Ratio(r.Liquidity.CashRatio)},
		{"Asset turnover", format.Ratio(r.Efficiency.AssetTurnover)},
		{"Inventory turnover", format.Ratio(r.Efficiency.InventoryTurnover)},
		{"Receivables turnover", format.Ratio(r.Efficiency.ReceivablesTurnover)},
		{"Gross margin", format.Percent(r.Profitability.GrossMargin)},
		{"Operating margin", format.Percent(r.Profitability.OperatingMargin)},
		{"Net margin", format.Percent(r.Profitability.NetMargin)},
		{"Return on assets", format.Percent(r.Profitability.ReturnOnAssets)},
		{"Debt to equity", format.Ratio(r.Leverage.DebtToEquity)},
		{"Debt service coverage", format.Ratio(r.Leverage.DebtServiceCoverage)},
		{"Interest coverage", format.Ratio(r.Leverage.InterestCoverage)},
	})
	pw.degraded(r.Degraded)
}

func (pw *prettyWriter) scenarios(results []finance.ScenarioAnalysis, summary *finance.ScenarioSummary) {
	pw.header("Scenarios")
	table := make([][]string, 0, len(results))
	for _, r := range results {
		table = append(table, []string{
			r.ScenarioName,
			format.Ratio(r.Probability),
			pw.money(r.RevenueImpact),
			pw.money(r.CostImpact),
			pw.money(r.NetImpact),
			strings.Join(r.RiskFactors, "; "),
			strings.Join(r.MitigationStrategies, "; "),
		})
	}
	pw.table([]string{"Scenario", "Probability", "Revenue impact", "Cost impact", "Net impact", "Risks", "Mitigations"}, table)

	if summary != nil {
		pw.printf("Expected net impact: %s\n", pw.money(summary.ExpectedNetImpact))
		pw.printf("Best case: %s, worst case: %s\n", summary.BestCase, summary.WorstCase)
	}
}

// CsvFormat outputs every figure of the report as one long-format table with
// the columns section, name, metric and value.
func CsvFormat(w io.Writer, report *planner.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"section", "name", "metric", "value"}); err != nil {
		return err
	}
	for _, record := range csvRecords(report.Plan) {
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// CsvString returns the CSV rendering of the report.
func CsvString(report *planner.Report) string {
	var buf bytes.Buffer
	if err := CsvFormat(&buf, report); err != nil {
		return ""
	}
	return buf.String()
}

// record is one figure of a report in long format. Text is set for
// non-numeric metrics.
type record struct {
	section string
	name    string
	metric  string
	value   decimal.Decimal
	text    string
	isText  bool
}

func (r record) formatted() string {
	if r.isText {
		return r.text
	}
	return r.value.StringFixed(constants.DisplayScale)
}

func csvRecords(plan finance.PlanResult) [][]string {
	flat := reportRecords(plan)
	records := make([][]string, 0, len(flat))
	for _, r := range flat {
		records = append(records, []string{r.section, r.name, r.metric, r.formatted()})
	}
	return records
}

func reportRecords(plan finance.PlanResult) []record {
	var records []record
	add := func(section, name, metric string, value decimal.Decimal) {
		records = append(records, record{section: section, name: name, metric: metric, value: value})
	}
	addText := func(section, name, metric, value string) {
		records = append(records, record{section: section, name: name, metric: metric, text: value, isText: true})
	}

	for _, row := range plan.CashFlow {
		add("cash_flow", row.Period, "revenue", row.Revenue)
		add("cash_flow", row.Period, "operating_expenses", row.OperatingExpenses)
		add("cash_flow", row.Period, "capital_expenses", row.CapitalExpenses)
		add("cash_flow", row.Period, "tax_obligations", row.TaxObligations)
		add("cash_flow", row.Period, "net_cash_flow", row.NetCashFlow)
		add("cash_flow", row.Period, "cumulative_cash_flow", row.CumulativeCashFlow)
		add("cash_flow", row.Period, "cash_position", row.CashPosition)
		add("cash_flow", row.Period, "liquidity_ratio", row.LiquidityRatio)
	}

	for _, a := range plan.Investments {
		add("investment", a.Name, "investment_amount", a.InvestmentAmount)
		add("investment", a.Name, "net_annual_benefit", a.NetAnnualBenefit)
		add("investment", a.Name, "payback_period_months", a.PaybackPeriodMonths)
		add("investment", a.Name, "net_present_value", a.NetPresentValue)
		add("investment", a.Name, "internal_rate_of_return", a.InternalRateOfReturn)
		if a.IRREstimate != nil {
			add("investment", a.Name, "irr_estimate", *a.IRREstimate)
			addText("investment", a.Name, "irr_converged", strconv.FormatBool(a.IRRConverged))
		}
		add("investment", a.Name, "roi_percentage", a.ROIPercentage)
		add("investment", a.Name, "risk_adjusted_roi", a.RiskAdjustedROI)
		addText("investment", a.Name, "break_even_point", a.BreakEvenPoint)
	}

	for _, a := range plan.Profitability {
		add("profitability", a.Name, "gross_profit", a.GrossProfit)
		add("profitability", a.Name, "gross_margin", a.GrossMargin)
		add("profitability", a.Name, "operating_profit", a.OperatingProfit)
		add("profitability", a.Name, "operating_margin", a.OperatingMargin)
		add("profitability", a.Name, "ebitda", a.EBITDA)
		add("profitability", a.Name, "ebitda_margin", a.EBITDAMargin)
		add("profitability", a.Name, "net_profit", a.NetProfit)
		add("profitability", a.Name, "net_margin", a.NetMargin)
		add("profitability", a.Name, "contribution_margin", a.ContributionMargin)
		add("profitability", a.Name, "break_even_revenue", a.BreakEvenRevenue)
	}

	for _, r := range plan.Budget {
		add("budget", r.Category, "variance_amount", r.VarianceAmount)
		add("budget", r.Category, "variance_percentage", r.VariancePercentage)
		addText("budget", r.Category, "variance_type", string(r.VarianceType))
		addText("budget", r.Category, "significance_level", string(r.SignificanceLevel))
		addText("budget", r.Category, "recommended_action", r.RecommendedAction)
	}

	for _, r := range plan.Ratios {
		add("ratios", r.Name, "current_ratio", r.Liquidity.CurrentRatio)
		add("ratios", r.Name, "quick_ratio", r.Liquidity.QuickRatio)
		add("ratios", r.Name, "cash_ratio", r.Liquidity.CashRatio)
		add("ratios", r.Name, "asset_turnover", r.Efficiency.AssetTurnover)
		add("ratios", r.Name, "inventory_turnover", r.Efficiency.InventoryTurnover)
		add("ratios", r.Name, "receivables_turnover", r.Efficiency.ReceivablesTurnover)
		add("ratios", r.Name, "gross_margin", r.Profitability.GrossMargin)
		add("ratios", r.Name, "operating_margin", r.Profitability.OperatingMargin)
		add("ratios", r.Name, "net_margin", r.Profitability.NetMargin)
		add("ratios", r.Name, "return_on_assets", r.Profitability.ReturnOnAssets)
		add("ratios", r.Name, "debt_to_equity", r.Leverage.DebtToEquity)
		add("ratios", r.Name, "debt_service_coverage", r.Leverage.DebtServiceCoverage)
		add("ratios", r.Name, "interest_coverage", r.Leverage.InterestCoverage)
	}

	for _, r := range plan.Scenarios {
		add("scenario", r.ScenarioName, "probability", r.Probability)
		add("scenario", r.ScenarioName, "revenue_impact", r.RevenueImpact)
		add("scenario", r.ScenarioName, "cost_impact", r.CostImpact)
		add("scenario", r.ScenarioName, "net_impact", r.NetImpact)
		addText("scenario", r.ScenarioName, "risk_factors", strings.Join(r.RiskFactors, "; "))
		addText("scenario", r.ScenarioName, "mitigation_strategies", strings.Join(r.MitigationStrategies, "; "))
	}
	if plan.ScenarioSummary != nil {
		add("scenario_summary", "", "expected_net_impact", plan.ScenarioSummary.ExpectedNetImpact)
	}

	return records
}

// JSONFormat outputs the report as indented JSON. Decimal values are encoded
// as strings so no precision is lost.
func JSONFormat(w io.Writer, report *planner.Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
