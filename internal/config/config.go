// Package config defines the data structures related to configuration and
// includes functions for loading and parsing the plan file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"reflect"
	"strings"

	"github.com/iwvelando/finance-planner/pkg/constants"
	"github.com/iwvelando/finance-planner/pkg/mathutil"
	"github.com/iwvelando/finance-planner/pkg/validation"
	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. PLANNER_OUTPUT_FORMAT.
const EnvPrefix = "PLANNER"

// Configuration holds all configuration for finance-planner.
type Configuration struct {
	Logging       LoggingConfig         `yaml:"logging,omitempty"`
	Output        OutputConfig          `yaml:"output,omitempty"`
	CashFlow      *CashFlow             `yaml:"cashFlow,omitempty"`
	Investments   []Investment          `yaml:"investments,omitempty"`
	Profitability []ProfitabilityPeriod `yaml:"profitability,omitempty"`
	Budget        []BudgetLine          `yaml:"budget,omitempty"`
	Ratios        []RatioSnapshot       `yaml:"ratios,omitempty"`
	BaseCase      *BaseCase             `yaml:"baseCase,omitempty"`
	Scenarios     []Scenario            `yaml:"scenarios,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv, json, xlsx
}

// CashFlow holds the monthly projection assumptions.
type CashFlow struct {
	StartMonth           string           `yaml:"startMonth,omitempty"`
	Periods              int              `yaml:"periods,omitempty"`
	StartingCash         decimal.Decimal  `yaml:"startingCash"`
	MonthlyRevenue       decimal.Decimal  `yaml:"monthlyRevenue"`
	OperatingExpenses    decimal.Decimal  `yaml:"operatingExpenses"`
	TaxRate              decimal.Decimal  `yaml:"taxRate"`
	RevenueGrowthRate    decimal.Decimal  `yaml:"revenueGrowthRate"`
	ExpenseInflationRate decimal.Decimal  `yaml:"expenseInflationRate"`
	CapitalExpenses      []CapitalExpense `yaml:"capitalExpenses,omitempty"`
}

// CapitalExpense is a one-off outlay in a projection month (1-based).
type CapitalExpense struct {
	Description string          `yaml:"description,omitempty"`
	Month       int             `yaml:"month"`
	Amount      decimal.Decimal `yaml:"amount"`
}

// Investment describes a project to evaluate for ROI.
type Investment struct {
	Name                   string          `yaml:"name"`
	InitialInvestment      decimal.Decimal `yaml:"initialInvestment"`
	ImplementationCosts    decimal.Decimal `yaml:"implementationCosts"`
	AnnualRevenueIncrease  decimal.Decimal `yaml:"annualRevenueIncrease"`
	AnnualCostSavings      decimal.Decimal `yaml:"annualCostSavings"`
	AnnualMaintenanceCosts decimal.Decimal `yaml:"annualMaintenanceCosts"`
	ProjectLifespanYears   int             `yaml:"projectLifespanYears"`
	DiscountRate           decimal.Decimal `yaml:"discountRate"`
	RiskFactor             decimal.Decimal `yaml:"riskFactor"`
	SolveIRR               bool            `yaml:"solveIrr,omitempty"` // also solve NPV = 0 for the exact IRR
}

// ProfitabilityPeriod is one income statement.
type ProfitabilityPeriod struct {
	Name              string          `yaml:"name"`
	Revenue           decimal.Decimal `yaml:"revenue"`
	CostOfGoodsSold   decimal.Decimal `yaml:"costOfGoodsSold"`
	OperatingExpenses decimal.Decimal `yaml:"operatingExpenses"`
	Depreciation      decimal.Decimal `yaml:"depreciation"`
	InterestExpense   decimal.Decimal `yaml:"interestExpense"`
	TaxRate           decimal.Decimal `yaml:"taxRate"`
	FixedCosts        decimal.Decimal `yaml:"fixedCosts"`
	VariableCostRate  decimal.Decimal `yaml:"variableCostRate"`
}

// BudgetLine is one budgeted category with its actuals.
type BudgetLine struct {
	Category    string          `yaml:"category"`
	Type        string          `yaml:"type"`        // revenue, expense
	Criticality string          `yaml:"criticality"` // high, medium, low
	Budgeted    decimal.Decimal `yaml:"budgeted"`
	Actual      decimal.Decimal `yaml:"actual"`
}

// RatioSnapshot is a balance-sheet and income snapshot.
type RatioSnapshot struct {
	Name                string          `yaml:"name"`
	CurrentAssets       decimal.Decimal `yaml:"currentAssets"`
	CashAndEquivalents  decimal.Decimal `yaml:"cashAndEquivalents"`
	Inventory           decimal.Decimal `yaml:"inventory"`
	AccountsReceivable  decimal.Decimal `yaml:"accountsReceivable"`
	TotalAssets         decimal.Decimal `yaml:"totalAssets"`
	CurrentLiabilities  decimal.Decimal `yaml:"currentLiabilities"`
	TotalDebt           decimal.Decimal `yaml:"totalDebt"`
	TotalEquity         decimal.Decimal `yaml:"totalEquity"`
	Revenue             decimal.Decimal `yaml:"revenue"`
	CostOfGoodsSold     decimal.Decimal `yaml:"costOfGoodsSold"`
	OperatingProfit     decimal.Decimal `yaml:"operatingProfit"`
	NetIncome           decimal.Decimal `yaml:"netIncome"`
	InterestExpense     decimal.Decimal `yaml:"interestExpense"`
	DebtServicePayments decimal.Decimal `yaml:"debtServicePayments"`
}

// BaseCase is the annual baseline scenarios are compared against.
type BaseCase struct {
	AnnualRevenue decimal.Decimal `yaml:"annualRevenue"`
	AnnualCosts   decimal.Decimal `yaml:"annualCosts"`
}

// Scenario is a named what-if against the base case.
type Scenario struct {
	Name                 string          `yaml:"name"`
	Probability          decimal.Decimal `yaml:"probability"`
	RevenueChangePercent decimal.Decimal `yaml:"revenueChangePercent"`
	CostChangePercent    decimal.Decimal `yaml:"costChangePercent"`
	KeyAssumptions       []string        `yaml:"keyAssumptions,omitempty"`
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file, %w", err)
	}

	configuration, err := loadBytes(data)
	if err != nil {
		return nil, fmt.Errorf("error reading config file %s, %w", configPath, err)
	}
	return configuration, nil
}

// LoadConfigurationFromReader loads a YAML-formatted configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading config data, %w", err)
	}

	configuration, err := loadBytes(data)
	if err != nil {
		return nil, fmt.Errorf("error reading config data, %w", err)
	}
	return configuration, nil
}

func loadBytes(data []byte) (*Configuration, error) {
	exact, err := quoteNumbers(data)
	if err != nil {
		return nil, err
	}

	v := newViper()
	if err := v.ReadConfig(bytes.NewReader(exact)); err != nil {
		return nil, err
	}

	return decode(v)
}

// LoadEnvFile loads environment overrides from a dotenv file. A missing file
// is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	err := v.Unmarshal(&configuration, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		DecimalHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}
	return &configuration, nil
}

var decimalType = reflect.TypeOf(decimal.Decimal{})

// DecimalHookFunc decodes YAML strings and numbers into decimal.Decimal.
// Strings are exact. The loaders quote bare floats before decoding, so the
// float64 case only serves callers that build maps themselves.
func DecimalHookFunc() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != decimalType {
			return data, nil
		}

		switch v := data.(type) {
		case nil:
			return mathutil.Zero, nil
		case decimal.Decimal:
			return v, nil
		case string:
			return mathutil.Parse(v)
		case float64:
			return mathutil.FromFloat(v), nil
		case float32:
			return decimal.NewFromFloat32(v), nil
		case int:
			return mathutil.FromInt(int64(v)), nil
		case int32:
			return mathutil.FromInt(int64(v)), nil
		case int64:
			return mathutil.FromInt(v), nil
		default:
			return nil, fmt.Errorf("cannot decode %s into a decimal", from)
		}
	}
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	plan := c.ToPlanInput()

	var warnings []string
	if c.Output.Format != "" {
		if err := validation.ValidateOutputFormat(c.Output.Format); err != nil {
			warnings = append(warnings, err.Error())
		}
	}

	validator := validation.PlanValidator{Plan: plan}
	return append(warnings, validator.ValidateAll()...)
}

// ProjectionPeriods returns the configured projection length, or the default.
func (c *Configuration) ProjectionPeriods() int {
	if c.CashFlow == nil || c.CashFlow.Periods == 0 {
		return constants.DefaultProjectionPeriods
	}
	return c.CashFlow.Periods
}

// Empty reports whether the configuration requests no analysis at all.
func (c *Configuration) Empty() bool {
	return c.CashFlow == nil &&
		len(c.Investments) == 0 &&
		len(c.Profitability) == 0 &&
		len(c.Budget) == 0 &&
		len(c.Ratios) == 0 &&
		len(c.Scenarios) == 0
}
