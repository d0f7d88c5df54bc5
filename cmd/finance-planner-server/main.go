package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/iwvelando/finance-planner/internal/config"
	"github.com/iwvelando/finance-planner/internal/logging"
	"github.com/iwvelando/finance-planner/internal/server"
	"github.com/iwvelando/finance-planner/pkg/constants"
	"go.uber.org/zap"
)

var version = "dev"

func main() {
	configLocation := flag.String("config", constants.DefaultServerConfigFile, "path to server configuration file")
	envFile := flag.String("env-file", constants.DefaultEnvFile, "dotenv file with PLANNER_* overrides")
	address := flag.String("address", "", "listen address override")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	if err := config.LoadEnvFile(*envFile); err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load env file\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}

	cfg, err := server.LoadConfig(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load server configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}
	if *address != "" {
		cfg.Address = *address
	}

	logger, err := logging.New(cfg.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           server.NewHandler(logger, cfg.UploadSizeBytes(), version, server.WithRateLimit(cfg.RateLimit, cfg.RateBurst)),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			zap.String("op", "main"),
			zap.String("address", cfg.Address),
			zap.Int64("max_upload_bytes", cfg.UploadSizeBytes()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Fatal("server failed",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
	case sig := <-stop:
		logger.Info("shutting down",
			zap.String("op", "main"),
			zap.String("signal", sig.String()),
		)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}
