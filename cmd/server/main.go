package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amirasaad/payconsole/infra/initializer"
	"github.com/amirasaad/payconsole/pkg/app"
	"github.com/amirasaad/payconsole/pkg/config"
	"github.com/amirasaad/payconsole/webapi"
	log "github.com/charmbracelet/log"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("failed to load application configuration: %w", err)
	}

	deps, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	logger := deps.Logger

	console := app.New(deps, cfg)
	defer func() {
		if err := console.Close(); err != nil {
			logger.Error("failed to release dependencies", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	interval := time.Minute
	if cfg.Reports != nil && cfg.Reports.ScheduleInterval > 0 {
		interval = cfg.Reports.ScheduleInterval
	}
	go runSchedules(ctx, console.Reports, interval, time.Now, logger)

	fiberApp := webapi.SetupApp(console)
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("starting server",
		"env", cfg.Env,
		"address", addr,
		"scheme", cfg.Server.Scheme,
		"backend", cfg.Backend.BaseURL,
	)

	errCh := make(chan error, 1)
	go func() { errCh <- fiberApp.Listen(addr) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	if err := fiberApp.ShutdownWithTimeout(shutdownTimeout); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
