// Package main is the entry point for the Argus detection engine.
package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"argus/cmd"
	"argus/config"
	"argus/detect"
	"argus/notify"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// buildLogger constructs the process-wide zap logger from config.
func buildLogger(cfg config.LoggingConfig) (*zap.SugaredLogger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger.Sugar(), nil
}

// run initializes the engines, loads configured rules, serves metrics, and
// blocks until a shutdown signal arrives.
func run() error {
	configPath := os.Getenv("ARGUS_CONFIG")
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := buildLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer logger.Sync()

	bus := notify.NewBus(logger)

	correlationEngine := detect.NewCorrelationEngine(detect.CorrelationEngineConfig{
		EventBufferSize:   cfg.Correlation.EventBufferSize,
		BatchChunkSize:    cfg.Correlation.BatchChunkSize,
		BatchConcurrency:  cfg.Correlation.BatchConcurrency,
		CleanupInterval:   cfg.Correlation.CleanupInterval,
		MatchHistoryLimit: cfg.Correlation.MatchHistoryLimit,
	}, bus, logger)
	defer correlationEngine.Shutdown()

	sigmaEngine, err := detect.NewSigmaEngine(detect.SigmaEngineConfig{
		VerdictCacheSize: cfg.Sigma.VerdictCacheSize,
	}, bus, logger)
	if err != nil {
		return err
	}

	if cfg.Rules.CorrelationFile != "" {
		rules, err := detect.LoadCorrelationRules(cfg.Rules.CorrelationFile, logger)
		if err != nil {
			return fmt.Errorf("failed to load correlation rules: %w", err)
		}
		for i := range rules {
			if err := correlationEngine.AddRule(&rules[i]); err != nil {
				logger.Errorw("Failed to register correlation rule",
					"rule_id", rules[i].ID, "error", err)
			}
		}
	}

	if cfg.Rules.SigmaDir != "" {
		if _, err := detect.LoadSigmaRuleDir(cfg.Rules.SigmaDir, sigmaEngine, logger); err != nil {
			return fmt.Errorf("failed to load sigma rules: %w", err)
		}
	}

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Metrics.ListenAddr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		}
		go func() {
			logger.Infow("Metrics endpoint listening", "addr", cfg.Metrics.ListenAddr)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Errorw("Metrics server failed", "error", err)
			}
		}()
	}

	logger.Infow("Argus detection engine started",
		"correlation_rules", len(correlationEngine.GetAllRules()),
		"sigma_rules", len(sigmaEngine.GetAllRules()))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Infow("Shutdown signal received", "signal", sig.String())

	if metricsServer != nil {
		metricsServer.Close()
	}
	correlationEngine.Shutdown()
	bus.Wait()
	return nil
}

// main dispatches to the CLI when a known command is given, otherwise runs
// the detection engine.
func main() {
	if len(os.Args) > 1 && os.Args[1] == "rules" {
		os.Args = append([]string{os.Args[0]}, os.Args[2:]...)

		rulesCmd := cmd.NewRulesCmd()
		if err := rulesCmd.Execute(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
