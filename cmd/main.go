package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/waffles/internal/adapters/http/api"
	"github.com/okian/waffles/internal/adapters/http/site"
	"github.com/okian/waffles/internal/adapters/http/swagger"
	"github.com/okian/waffles/internal/adapters/ledger"
	"github.com/okian/waffles/internal/adapters/repository"
	app "github.com/okian/waffles/internal/app"
	"github.com/okian/waffles/internal/config"
	"github.com/okian/waffles/internal/domain/chatlog"
	"github.com/okian/waffles/pkg/logger"
	"github.com/okian/waffles/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 30 * time.Second
	writeTimeout              = 30 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = time.Minute
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Load configuration (defaults -> .env -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(
		logger.WithFormat(cfg.LogFormat),
		logger.WithFile(logger.FileConfig{Path: cfg.LogFile}),
	); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc, err := buildService(ctx, cfg, log)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, cfg, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// buildService opens the configured event store and ledger and assembles the
// tracker service. The ledger is optional: an empty ledger_path disables it.
func buildService(ctx context.Context, cfg *config.Config, log logger.Logger) (*app.Service, error) {
	start, err := cfg.Start()
	if err != nil {
		return nil, err
	}
	weekday, err := cfg.Weekday()
	if err != nil {
		return nil, err
	}

	pattern, err := cfg.Pattern()
	if err != nil {
		return nil, err
	}

	var storeOpts []repository.Option
	if cfg.EventStoreCompact {
		storeOpts = append(storeOpts, repository.WithIndent(""))
	}
	store, err := repository.Open(ctx, cfg.EventStoreDriver, cfg.EventStorePath, storeOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open event store: %w", err)
	}

	opts := []app.Option{
		app.WithLogger(log),
		app.WithStore(store),
		app.WithParser(chatlog.NewParser(chatlog.WithPattern(pattern))),
		app.WithPersons(cfg.Registry()),
		app.WithKeyword(cfg.Keyword),
		app.WithStartDate(start),
		app.WithWeekday(weekday),
		app.WithDefaultColor(cfg.DefaultColor),
	}
	if cfg.LedgerPath != "" {
		led, err := ledger.New(cfg.LedgerPath, ledger.WithSheet(cfg.LedgerSheet))
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to open drinks ledger: %w", err)
		}
		opts = append(opts, app.WithLedger(led))
	}
	return app.New(opts...), nil
}

// newMux registers the API, the docs and the dashboard on one mux.
func newMux(ctx context.Context, cfg *config.Config, svc *app.Service) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc, api.WithMaxUploadBytes(cfg.MaxUploadBytes)).Register(ctx, mux)
	site.Register(ctx, mux)
	return mux
}

// startSystemMetricsUpdater updates system metrics until ctx is done.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater refreshes day-dependent service metrics until ctx is done.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics updates service-level metrics. The reference week
// count moves with the calendar even when nothing is uploaded.
func updateServiceMetrics(svc *app.Service) {
	stats := svc.GetStats()

	if events, ok := stats["events"].(int); ok {
		metrics.UpdateEventsStored(events)
	}
	if ref, ok := stats["referenceWeeks"].(int); ok {
		metrics.UpdateReferenceWeeks(ref)
	}
}
