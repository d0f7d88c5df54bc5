// Package planner defines the report of a plan run and includes functions for
// computing it from a configuration.
package planner

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/finance-planner/internal/config"
	"github.com/iwvelando/finance-planner/pkg/finance"
	"go.uber.org/zap"
)

// ErrEmptyPlan is returned when a configuration requests no analysis.
var ErrEmptyPlan = errors.New("configuration contains no analyses")

// Report holds all results of one plan run.
type Report struct {
	ID          string             `json:"id"`
	GeneratedAt time.Time          `json:"generated_at"`
	Plan        finance.PlanResult `json:"plan"`
	Warnings    []string           `json:"warnings,omitempty"`
}

// GetReport validates the configuration and runs every analysis it contains.
// Validation warnings never stop the run; input errors do.
func GetReport(logger *zap.Logger, conf config.Configuration) (*Report, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if conf.Empty() {
		return nil, ErrEmptyPlan
	}

	report := &Report{
		ID:          uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Warnings:    conf.ValidateConfiguration(),
	}
	for _, warning := range report.Warnings {
		logger.Debug("configuration warning: "+warning,
			zap.String("op", "planner.GetReport"),
			zap.String("report_id", report.ID),
		)
	}

	plan, err := finance.NewEngine(logger).Run(conf.ToPlanInput())
	if err != nil {
		return nil, fmt.Errorf("failed to run plan: %w", err)
	}
	report.Plan = plan

	logger.Debug("report computed",
		zap.String("op", "planner.GetReport"),
		zap.String("report_id", report.ID),
		zap.Int("warnings", len(report.Warnings)),
	)
	return report, nil
}
