package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"golang.org/x/sync/errgroup"

	"hesabdari/internal/backend"
	"hesabdari/internal/cli"
	"hesabdari/internal/config"
	apphttp "hesabdari/internal/http"
	"hesabdari/internal/log"
)

func main() {
	if err := cli.LoadEnvFile(); err != nil {
		cli.Fatal(nil, "Failed to load .env", err)
	}

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		cli.Fatal(nil, "Invalid configuration", err)
	}
	logger := cli.SetupLogger(cfg)

	ctx, cancel := cli.SignalContext(context.Background(), logger)
	defer cancel()

	if err := run(ctx, logger, cfg); err != nil {
		logger.Error("Server stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

// run serves until ctx is cancelled, then drains in-flight requests.
func run(ctx context.Context, logger *log.Logger, cfg *config.Config) error {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Warn("Cleanup failed", log.FieldError, err)
		}
	}()

	addr := ":" + cfg.Port
	srv, err := apphttp.NewServer(apphttp.Options{
		Addr:           addr,
		Editor:         res.Service,
		Checks:         res.Checks,
		TrustedProxies: cfg.TrustedProxies,
		Locale:         cfg.Locale(),
		RateLimit:      cfg.RateLimit,
		ViewCacheSize:  cfg.ViewCacheSize,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting hesabdari server",
			"addr", addr,
			log.FieldBackend, bcfg.Type.String(),
			log.FieldCount, res.Store.Len(),
			log.FieldOperation, log.OpStartup)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		logger.Info("Shutting down server", log.FieldOperation, log.OpShutdown)
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
