package finance

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// PlanInput bundles every analysis of one plan. Nil or empty sections are
// skipped.
type PlanInput struct {
	CashFlow          *CashFlowInput       `json:"cash_flow,omitempty"`
	ProjectionPeriods int                  `json:"projection_periods,omitempty"`
	Investments       []InvestmentInput    `json:"investments,omitempty"`
	Profitability     []ProfitabilityInput `json:"profitability,omitempty"`
	Budget            []BudgetItem         `json:"budget,omitempty"`
	Ratios            []RatioInput         `json:"ratios,omitempty"`
	BaseCase          *BaseCase            `json:"base_case,omitempty"`
	Scenarios         []Scenario           `json:"scenarios,omitempty"`
}

// PlanResult holds the output of every analysis that ran.
type PlanResult struct {
	CashFlow        []CashFlowProjection     `json:"cash_flow,omitempty"`
	CashFlowSummary *CashFlowSummary         `json:"cash_flow_summary,omitempty"`
	Investments     []ROIAnalysis            `json:"investments,omitempty"`
	Profitability   []ProfitabilityAnalysis  `json:"profitability,omitempty"`
	Budget          []BudgetVarianceAnalysis `json:"budget,omitempty"`
	BudgetSummary   *BudgetSummary           `json:"budget_summary,omitempty"`
	Ratios          []FinancialRatios        `json:"ratios,omitempty"`
	Scenarios       []ScenarioAnalysis       `json:"scenarios,omitempty"`
	ScenarioSummary *ScenarioSummary         `json:"scenario_summary,omitempty"`
}

// Engine runs the analyzers of a plan.
type Engine struct {
	CashFlow      *CashFlowProjector
	ROI           *ROIAnalyzer
	Profitability *ProfitabilityAnalyzer
	Budget        *BudgetVarianceAnalyzer
	Ratios        *RatioCalculator
	Scenarios     *ScenarioAnalyzer

	logger *zap.Logger
}

// NewEngine wires every analyzer to the same logger.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		CashFlow:      NewCashFlowProjector(logger),
		ROI:           NewROIAnalyzer(logger),
		Profitability: NewProfitabilityAnalyzer(logger),
		Budget:        NewBudgetVarianceAnalyzer(logger),
		Ratios:        NewRatioCalculator(logger),
		Scenarios:     NewScenarioAnalyzer(logger),
		logger:        logger,
	}
}

// Run executes the analyses present in input. The sections share no state, so
// each one runs on its own goroutine; the projection itself stays a sequential
// fold. All section errors are returned joined and no partial result is
// returned alongside them.
func (e *Engine) Run(input PlanInput) (PlanResult, error) {
	var (
		result PlanResult
		wg     sync.WaitGroup
		mu     sync.Mutex
		errs   []error
	)

	run := func(section string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", section, err))
				mu.Unlock()
			}
		}()
	}

	if input.CashFlow != nil {
		run("cash flow", func() error {
			rows, err := e.CashFlow.Project(*input.CashFlow, input.ProjectionPeriods)
			if err != nil {
				return err
			}
			summary := SummarizeProjection(rows)
			result.CashFlow = rows
			result.CashFlowSummary = &summary
			return nil
		})
	}

	if len(input.Investments) > 0 {
		run("investments", func() error {
			analyses := make([]ROIAnalysis, len(input.Investments))
			for i, investment := range input.Investments {
				analyses[i] = e.ROI.Analyze(investment)
			}
			result.Investments = analyses
			return nil
		})
	}

	if len(input.Profitability) > 0 {
		run("profitability", func() error {
			analyses := make([]ProfitabilityAnalysis, len(input.Profitability))
			for i, period := range input.Profitability {
				analyses[i] = e.Profitability.Analyze(period)
			}
			result.Profitability = analyses
			return nil
		})
	}

	if len(input.Budget) > 0 {
		run("budget", func() error {
			analyses, err := e.Budget.Analyze(input.Budget)
			if err != nil {
				return err
			}
			summary := SummarizeBudget(analyses)
			result.Budget = analyses
			result.BudgetSummary = &summary
			return nil
		})
	}

	if len(input.Ratios) > 0 {
		run("ratios", func() error {
			ratios := make([]FinancialRatios, len(input.Ratios))
			for i, snapshot := range input.Ratios {
				ratios[i] = e.Ratios.Calculate(snapshot)
			}
			result.Ratios = ratios
			return nil
		})
	}

	if len(input.Scenarios) > 0 {
		run("scenarios", func() error {
			var base BaseCase
			if input.BaseCase != nil {
				base = *input.BaseCase
			}
			analyses, err := e.Scenarios.Analyze(base, input.Scenarios)
			if err != nil {
				return err
			}
			summary := SummarizeScenarios(analyses)
			result.Scenarios = analyses
			result.ScenarioSummary = &summary
			return nil
		})
	}

	wg.Wait()

	if len(errs) > 0 {
		err := errors.Join(errs...)
		e.logger.Error("plan failed",
			zap.String("op", "finance.Engine.Run"),
			zap.Error(err),
		)
		return PlanResult{}, err
	}

	e.logger.Debug("plan complete",
		zap.String("op", "finance.Engine.Run"),
		zap.Int("projection_rows", len(result.CashFlow)),
		zap.Int("investments", len(result.Investments)),
		zap.Int("budget_lines", len(result.Budget)),
		zap.Int("scenarios", len(result.Scenarios)),
	)
	return result, nil
}
