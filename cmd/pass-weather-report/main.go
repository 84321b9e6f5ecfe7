package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"

	httpapi "github.com/i474232898/pass-weather-report/internal/api/http"
	"github.com/i474232898/pass-weather-report/internal/config"
	"github.com/i474232898/pass-weather-report/internal/observability"
	"github.com/i474232898/pass-weather-report/internal/pipeline"
	"github.com/i474232898/pass-weather-report/internal/scheduler"
	"github.com/i474232898/pass-weather-report/internal/sheets"
	"github.com/i474232898/pass-weather-report/internal/store"
	"github.com/i474232898/pass-weather-report/internal/weather"
	"github.com/i474232898/pass-weather-report/internal/weather/providers"
)

// runTimeout bounds a single fetch-format-append run.
const runTimeout = 5 * time.Minute

type options struct {
	date   string
	dryRun bool
	serve  bool
}

func main() {
	var opts options
	flag.StringVar(&opts.date, "date", "", "report day as YYYY-MM-DD (default: DAY_OFFSET days before today, UTC)")
	flag.BoolVar(&opts.dryRun, "dry-run", false, "print the report table instead of writing to the spreadsheet")
	flag.BoolVar(&opts.serve, "serve", false, "run the daily scheduler and HTTP API until interrupted")
	flag.Parse()

	config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	if err := run(cfg, opts, logger); err != nil {
		logger.Error("pass-weather-report failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.AppConfig, opts options, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	provider := providers.NewSynopticProvider(httpClient, cfg.SynopticBaseURL, cfg.SynopticToken, metrics, logger)
	service := weather.NewService(provider, cfg.Stations, logger)

	sink, err := newSink(ctx, cfg, opts.dryRun, logger)
	if err != nil {
		return err
	}

	history := store.NewMemoryStore(cfg.ReportHistory)
	runner := pipeline.NewRunner(service, sink, history, metrics, clock, logger, pipeline.Options{
		DayOffset: cfg.DayOffset,
		DryRun:    opts.dryRun,
	})

	if opts.serve {
		return serve(ctx, cfg, runner, history, service, clock, logger)
	}

	day := runner.TargetDay()
	if opts.date != "" {
		day, err = time.Parse(weather.DateLayout, opts.date)
		if err != nil {
			return fmt.Errorf("invalid --date %q: want YYYY-MM-DD", opts.date)
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	_, err = runner.Run(runCtx, day)
	return err
}

func newSink(ctx context.Context, cfg *config.AppConfig, dryRun bool, logger *slog.Logger) (pipeline.Sink, error) {
	if dryRun {
		return pipeline.TableSink{W: os.Stdout}, nil
	}
	if err := cfg.RequireSheet(); err != nil {
		return nil, err
	}
	return sheets.NewWriter(ctx, sheets.Config{
		CredentialsFile: cfg.CredentialsFile,
		SpreadsheetID:   cfg.SheetID,
		SheetName:       cfg.SheetName,
		SheetGID:        cfg.SheetGID,
		RowsPerDay:      cfg.RowsPerDay,
		Coloring:        cfg.Coloring,
	}, logger)
}

func serve(ctx context.Context, cfg *config.AppConfig, runner *pipeline.Runner, history *store.MemoryStore,
	service *weather.Service, clock clockwork.Clock, logger *slog.Logger) error {
	// Scheduler that triggers the daily run.
	sched := scheduler.New(runner, cfg.RunAt, runTimeout, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "pass-weather-report",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          runTimeout + 10*time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(fiberlogger.New())
	app.Use(recover.New())

	httpapi.RegisterRoutes(app, httpapi.Deps{
		Runner:     runner,
		History:    history,
		Stations:   service,
		Metrics:    promhttp.Handler(),
		Clock:      clock,
		RunTimeout: runTimeout,
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "port", cfg.Port)
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
