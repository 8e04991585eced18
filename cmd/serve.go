package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	service "github.com/okian/heroes/internal/app"
	"github.com/okian/heroes/internal/config"
	"github.com/okian/heroes/pkg/logger"
	"github.com/okian/heroes/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func (c *cli) serveCommand() *cobra.Command {
	var (
		addr  string
		store string
		dsn   string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the hero backend and the search gateway",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				c.cfg.Addr = addr
			}
			if store != "" {
				c.cfg.StoreDriver = store
			}
			if dsn != "" {
				c.cfg.DatabaseURL = dsn
			}
			if err := c.cfg.Validate(); err != nil {
				return err
			}
			return runServe(cmd.Context(), c.cfg, nil)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides addr)")
	cmd.Flags().StringVar(&store, "store", "", "hero store: memory or postgres")
	cmd.Flags().StringVar(&dsn, "database-url", "", "Postgres DSN for the postgres store")
	return cmd
}

// runServe blocks until ctx is canceled. ready, when set, receives the bound
// address once the listener is up.
func runServe(ctx context.Context, cfg *config.Config, ready func(addr string)) error {
	loggerInstance := logger.Get()

	// Rebuild metrics before the service wires /metrics to the registry.
	mm := metrics.Configure(metricsOptions(cfg)...)

	// Create and start the service with configuration options
	svc := service.New(
		service.WithLogger(loggerInstance),
		service.WithStoreDriver(cfg.StoreDriver, cfg.DatabaseURL),
		service.WithSeedDefaults(cfg.SeedDefaults),
		service.WithBaseURL(cfg.BaseURL),
		service.WithHeroesPath(cfg.HeroesPath),
		service.WithDebounce(cfg.Debounce()),
		service.WithClientTimeout(cfg.ClientTimeout()),
		service.WithMessageLimit(cfg.MessageLimit),
		service.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer svc.Stop()

	handler, err := svc.Handler()
	if err != nil {
		return err
	}

	// Start system metrics updater
	go startSystemMetricsUpdater(ctx)

	// Start service metrics updater
	go startServiceMetricsUpdater(ctx, svc, mm.RefreshInterval())

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Addr, err)
	}

	srv := &http.Server{
		Handler:           handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()
	if ready != nil {
		ready(ln.Addr().String())
	}

	// Wait for shutdown signal
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	}
	loggerInstance.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
	return nil
}

func metricsOptions(cfg *config.Config) []metrics.Option {
	return []metrics.Option{
		metrics.WithMetricsEnabled(cfg.MetricsEnabled),
		metrics.WithNamespace(cfg.MetricsNamespace),
		metrics.WithHistogramBuckets(cfg.MetricsBuckets),
		metrics.WithCustomLabels(cfg.MetricsLabels),
		metrics.WithRefreshInterval(cfg.MetricsRefresh()),
	}
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
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

// startServiceMetricsUpdater starts a background goroutine that updates service metrics.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service, interval time.Duration) {
	ticker := time.NewTicker(interval)
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
		// average pause across all collections so far
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics refreshes gauges the store does not keep current itself.
func updateServiceMetrics(svc *service.Service) {
	stats := svc.GetStats()
	if heroes, ok := stats["heroes"].(int); ok {
		metrics.UpdateStoredHeroes(heroes)
	}
}
