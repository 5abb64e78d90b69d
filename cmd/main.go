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

	"github.com/okian/mentorpulse/internal/adapters/cache"
	"github.com/okian/mentorpulse/internal/adapters/http/api"
	"github.com/okian/mentorpulse/internal/adapters/http/site"
	"github.com/okian/mentorpulse/internal/adapters/http/swagger"
	"github.com/okian/mentorpulse/internal/adapters/repository"
	"github.com/okian/mentorpulse/internal/adapters/repository/postgres"
	app "github.com/okian/mentorpulse/internal/app"
	"github.com/okian/mentorpulse/internal/config"
	"github.com/okian/mentorpulse/internal/dataset"
	"github.com/okian/mentorpulse/pkg/logger"
	"github.com/okian/mentorpulse/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 30 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	systemMetricsInterval  = 10 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	if err := logger.Init(); err != nil {
		_, _ = os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg); err != nil {
		log.Error(ctx, "service failed", logger.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

// run wires the service from cfg and serves HTTP until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config) error {
	log := logger.Get()

	svc, cleanup, err := newService(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer func() {
		if err := svc.Close(); err != nil {
			log.Warn(ctx, "service close failed", logger.Error(err))
		}
	}()

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, svc, cfg),
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
			return fmt.Errorf("http server: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}

// newService builds the service with the record source and dashboard cache
// named by cfg. cleanup releases the external connections.
func newService(ctx context.Context, cfg *config.Config) (*app.Service, func(), error) {
	log := logger.Get()
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	opts := []app.Option{
		app.WithLogger(log),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithApprovalThreshold(cfg.ApprovalThreshold),
		app.WithRefreshOnStart(cfg.RefreshOnStart),
	}

	src, closeSource, err := newSource(ctx, cfg)
	if err != nil {
		return nil, cleanup, err
	}
	if src != nil {
		opts = append(opts, app.WithSource(src))
		closers = append(closers, closeSource)
	}

	if cfg.RedisAddr != "" {
		cc := cache.DefaultConfig()
		cc.Addr = cfg.RedisAddr
		cc.DB = cfg.RedisDB
		cc.TTL = cfg.CacheTTL()
		dc, err := cache.New(ctx, cc, cache.WithLogger(log.Named("cache")))
		if err != nil {
			// The cache is optional; dashboards are computed on every read without it.
			log.Warn(ctx, "dashboard cache disabled", logger.String("addr", cfg.RedisAddr), logger.Error(err))
		} else {
			opts = append(opts, app.WithDashboardCache(dc))
			closers = append(closers, func() { _ = dc.Close() })
		}
	}

	return app.New(opts...), cleanup, nil
}

// newSource returns the PostgreSQL source when database_url is set, else the
// YAML file source when dataset_file is set, else nil.
func newSource(ctx context.Context, cfg *config.Config) (repository.Source, func(), error) {
	switch {
	case cfg.DatabaseURL != "":
		pc := postgres.DefaultConfig()
		pc.URL = cfg.DatabaseURL
		src, err := postgres.NewSource(ctx, pc, postgres.WithLogger(logger.Named("postgres")))
		if err != nil {
			return nil, nil, fmt.Errorf("connect record source: %w", err)
		}
		if err := src.Migrate(ctx); err != nil {
			logger.Get().Warn(ctx, "schema migration skipped", logger.Error(err))
		}
		return src, src.Close, nil
	case cfg.DatasetFile != "":
		return dataset.NewFileSource(cfg.DatasetFile), func() {}, nil
	default:
		return nil, func() {}, nil
	}
}

// newMux registers the docs, the API and the dashboard page.
func newMux(ctx context.Context, svc *app.Service, cfg *config.Config) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, cfg.MaxLeaderboardLimit).Register(ctx, mux)
	site.Register(ctx, mux)
	return mux
}

// startSystemMetricsUpdater updates process metrics until ctx is done.
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

// startServiceMetricsUpdater mirrors service stats into gauges until ctx is done.
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

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
}

func updateServiceMetrics(svc *app.Service) {
	stats := svc.GetStats()
	metrics.UpdateQueueSize(stats.QueueDepth)
	metrics.UpdateQueueCapacity(stats.QueueCapacity)
	metrics.UpdateWorkerCount(stats.Workers)
	metrics.UpdateStudentsTracked(stats.Students)
}
