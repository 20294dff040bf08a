package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/boddenberg/family-finance-go/internal/config"
	"github.com/boddenberg/family-finance-go/internal/handler"
	"github.com/boddenberg/family-finance-go/internal/infra/observability"
	"github.com/boddenberg/family-finance-go/internal/infra/resilience"
	"github.com/boddenberg/family-finance-go/internal/infra/sqlite"
	"github.com/boddenberg/family-finance-go/internal/infra/supabase"
	"github.com/boddenberg/family-finance-go/internal/port"
	"github.com/boddenberg/family-finance-go/internal/service"
)

const (
	serviceName     = "family-finance"
	shutdownTimeout = 15 * time.Second
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API. Configuration comes from the environment and --env-file.
With SEED_MOCK_DATA=true and the sqlite store, --seed-user gets a demo data set
on first start.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
	cmd.Flags().String("seed-user", "demo", "User that receives the demo data set when seeding is enabled")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	// --- Config ---
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	seedUser, _ := cmd.Flags().GetString("seed-user")

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("store", cfg.StoreBackend),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("rate_cache_ttl", cfg.RateCacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Bool("tracing", cfg.TracingEnabled),
	)

	// --- Tracing ---
	shutdownTracer := observability.NoopShutdown
	if cfg.TracingEnabled {
		shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, serviceName)
		if err != nil {
			return fmt.Errorf("init tracer: %w", err)
		}
		shutdownTracer = shutdown
	}
	defer shutdownTracer(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Store ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	store, closeStore, err := openStore(ctx, cfg, httpClient, metrics, logger, seedUser)
	if err != nil {
		return err
	}
	defer closeStore()

	// --- Exchange rates ---
	rates, closeRates := newRateClient(cfg, httpClient, metrics, logger)
	defer closeRates()

	// --- Services ---
	engine, err := newEngine(cfg.CategoryRulesFile)
	if err != nil {
		return err
	}
	svc := handler.Services{
		Analytics:  service.NewAnalyticsService(store, engine, resilience.NewBulkhead(cfg.MaxConcurrency), metrics, logger),
		Expenses:   service.NewExpenseService(store, engine, metrics, logger),
		Rent:       service.NewRentService(store, store, engine, logger),
		Remittance: service.NewRemittanceService(store, rates, nil, logger),
		Ledger:     service.NewLedgerService(store, store),
		Export:     service.NewExportService(store),
		Health:     store,
	}

	// --- Router ---
	router := handler.NewRouter(svc, handler.Options{
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	}, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// --- Graceful shutdown ---
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

// openStore connects the configured record store. The returned func releases
// it.
func openStore(
	ctx context.Context,
	cfg *config.Config,
	httpClient *http.Client,
	metrics *observability.Metrics,
	logger *zap.Logger,
	seedUser string,
) (port.RecordStore, func(), error) {
	switch cfg.StoreBackend {
	case config.StoreSupabase:
		logger.Info("using Supabase as record store", zap.String("supabase_url", cfg.SupabaseURL))
		if cfg.SeedMockData {
			logger.Warn("SEED_MOCK_DATA is only supported by the sqlite store, ignoring")
		}
		client := supabase.NewClient(
			httpClient,
			cfg.SupabaseURL,
			cfg.SupabaseAnonKey,
			cfg.SupabaseServiceKey,
			resilience.NewCircuitBreaker("supabase", logger),
			resilience.Config{
				MaxRetries:     cfg.MaxRetries,
				InitialBackoff: cfg.InitialBackoff,
				MaxConcurrency: cfg.MaxConcurrency,
			},
			metrics,
			logger,
		)
		return client, func() {}, nil

	default:
		logger.Info("using SQLite as record store", zap.String("path", cfg.SQLitePath))
		db, err := sqlite.Open(cfg.SQLitePath, logger)
		if err != nil {
			return nil, nil, err
		}
		closeDB := func() {
			if err := db.Close(); err != nil {
				logger.Warn("failed to close sqlite store", zap.Error(err))
			}
		}
		if cfg.SeedMockData {
			if err := db.Seed(ctx, seedUser, time.Now()); err != nil {
				closeDB()
				return nil, nil, err
			}
		}
		return db, closeDB, nil
	}
}
