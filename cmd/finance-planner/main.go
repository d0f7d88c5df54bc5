package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/iwvelando/finance-planner/internal/config"
	"github.com/iwvelando/finance-planner/internal/logging"
	"github.com/iwvelando/finance-planner/internal/planner"
	"github.com/iwvelando/finance-planner/pkg/constants"
	"github.com/iwvelando/finance-planner/pkg/output"
	"github.com/iwvelando/finance-planner/pkg/validation"
	"go.uber.org/zap"
)

func main() {
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	envFile := flag.String("env-file", constants.DefaultEnvFile, "dotenv file with PLANNER_* overrides")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv, json, xlsx")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	periods := flag.Int("periods", 0, "cash flow projection length override in months")
	flag.Parse()

	if err := config.LoadEnvFile(*envFile); err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load env file\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}

	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	logger, err := logging.New(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// CLI override takes precedence over config
	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}

	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	if *periods != 0 {
		if conf.CashFlow == nil {
			logger.Warn("ignoring periods override without a cashFlow section",
				zap.String("op", "main"),
			)
		} else {
			conf.CashFlow.Periods = *periods
		}
	}

	report, err := planner.GetReport(logger, *conf)
	if err != nil {
		logger.Fatal("failed to compute plan",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	for _, warning := range report.Warnings {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	if err := output.Write(os.Stdout, outputFormat, report); err != nil {
		logger.Fatal("failed to write report",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}
