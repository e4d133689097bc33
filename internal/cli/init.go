// Package cli provides process bootstrap shared by the commands: .env
// loading, configuration, logging and signal handling.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"hesabdari/internal/config"
	"hesabdari/internal/log"
)

// LoadEnvFile loads the .env file for local development. A missing file is
// not an error; other failures are returned.
func LoadEnvFile(paths ...string) error {
	if err := godotenv.Load(paths...); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// SetupLogger builds the process logger from the configured level and
// format and installs it as the slog default.
func SetupLogger(cfg *config.Config) *log.Logger {
	lc := log.DefaultConfig()
	lc.Component = log.ComponentApp
	if cfg != nil {
		if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
			lc.Level = level
		}
		if cfg.LogFormat != "" {
			lc.Format = cfg.LogFormat
		}
	}
	logger := log.New(lc)
	log.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig reads the environment and validates the result.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM. The
// received signal is logged.
func SignalContext(parent context.Context, logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String(), log.FieldOperation, log.OpShutdown)
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// Fatal logs err and exits with status 1.
func Fatal(logger *log.Logger, msg string, err error) {
	if logger == nil {
		slog.Error(msg, log.FieldError, err)
	} else {
		logger.Error(msg, log.FieldError, err)
	}
	os.Exit(1)
}
