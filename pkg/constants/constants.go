// Package constants provides shared constants for the finance-planner application.
package constants

import "time"

// DateTimeLayout is the format expected for projection start months and is also
// the period label format.
const DateTimeLayout = "2006-01"

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// DefaultProjectionPeriods is the number of monthly rows a projection
	// produces when the caller does not ask for a specific count.
	DefaultProjectionPeriods = 12

	// DivisionScale is the number of fractional digits kept by every division
	// in the decimal core.
	DivisionScale = 20

	// DisplayScale is the number of fractional digits used at the output
	// boundary (currency cents).
	DisplayScale = 2

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100
)

// Budget variance thresholds, in percent.
const (
	// CriticalVarianceThreshold marks any line item as critical.
	CriticalVarianceThreshold = 15

	// HighCriticalityVarianceThreshold marks high-criticality line items as critical.
	HighCriticalityVarianceThreshold = 10

	// ModerateVarianceThreshold separates moderate from minor variances.
	ModerateVarianceThreshold = 5
)

// Scenario risk thresholds.
const (
	// RevenueVolatilityThreshold is the absolute revenue change percent above
	// which a scenario is flagged as volatile.
	RevenueVolatilityThreshold = 20

	// CostInflationThreshold is the cost change percent above which a scenario
	// is flagged for cost inflation.
	CostInflationThreshold = 15

	// LowProbabilityThreshold is the probability below which a scenario is
	// flagged as low probability.
	LowProbabilityThreshold = "0.3"
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the machine-readable JSON output format
	OutputFormatJSON = "json"

	// OutputFormatXLSX is the spreadsheet output format, one sheet per section
	OutputFormatXLSX = "xlsx"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// ExampleConfigFile is the example configuration file name
	ExampleConfigFile = "config.yaml.example"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// DefaultEnvFile is loaded, when present, before configuration is read
	DefaultEnvFile = ".env"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum upload size for YAML plans (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024

	// RequestIDHeader carries the per-request identifier
	RequestIDHeader = "X-Request-ID"

	// DefaultReadHeaderTimeout bounds how long a client may take to send headers
	DefaultReadHeaderTimeout = 2 * time.Second

	// DefaultShutdownTimeout bounds graceful shutdown of in-flight requests
	DefaultShutdownTimeout = 15 * time.Second
)
