// Package main is the entry point for the marketplace API server.
// It wires all dependencies together and starts the HTTP server.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ghxstship/marketplace/internal/config"
	"github.com/ghxstship/marketplace/internal/crud"
	"github.com/ghxstship/marketplace/internal/dataview"
	"github.com/ghxstship/marketplace/internal/observability"
	"github.com/ghxstship/marketplace/internal/permission"
	"github.com/ghxstship/marketplace/internal/realtime"
	"github.com/ghxstship/marketplace/internal/schema"
	"github.com/ghxstship/marketplace/internal/store"
	"github.com/ghxstship/marketplace/internal/transfer"
	"github.com/ghxstship/marketplace/internal/transport"
	"github.com/ghxstship/marketplace/model"
)

// Build-time variables set via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0 -X main.commit=abc1234"
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return 1
	}

	logger, err := observability.NewLogger(cfg.Observability)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		return 1
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	tracingShutdown, err := observability.InitTracing(ctx, cfg.Observability.Tracing, "marketplace-api", version)
	if err != nil {
		logger.Error("tracing initialization failed", zap.Error(err))
		return 1
	}

	metrics := observability.InitMetrics(prometheus.DefaultRegisterer)

	// Realtime hub. The store publishes change events into it; websocket
	// subscribers fan out from it.
	hub := realtime.NewHub(
		realtime.WithHubLogger(logger),
		realtime.WithBuffer(cfg.Realtime.BufferSize),
		realtime.WithDropHook(metrics.RecordRealtimeDrop),
		realtime.WithDispatchHook(func(event model.ChangeEvent) {
			metrics.RecordRealtimeEvent(string(event.Entity), string(event.Type))
		}),
	)

	records, pool, err := buildRecordStore(ctx, cfg.Store, hub, logger)
	if err != nil {
		logger.Error("record store initialization failed", zap.Error(err))
		return 1
	}
	if pool != nil {
		defer pool.Close()
	}

	directory, err := buildDirectory(cfg.Directory, pool, logger)
	if err != nil {
		logger.Error("role directory initialization failed", zap.Error(err))
		return 1
	}

	resolver := permission.NewResolver(directory, records)
	engine := crud.NewEngine(records, resolver, schema.DefaultTables(),
		crud.WithLogger(logger),
		crud.WithObserver(observability.NewOperationObserver(metrics)),
	)

	exporter := transfer.NewExporter()
	importer := transfer.NewImporter(engine)

	var bridge *realtime.Bridge
	if cfg.Realtime.Enabled {
		hub.Start(ctx)
		bridge = realtime.NewBridge(hub, logger)
	}

	jwks := transport.NewJWKSClient(cfg.Identity.JWKSURL, cfg.Identity.JWKSCacheTTL, logger)

	ready := func() error { return nil }
	if pool != nil {
		ready = func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return pool.Ping(pingCtx)
		}
	}

	router := transport.NewRouter(transport.Dependencies{
		Config:       cfg,
		Logger:       logger,
		Engine:       engine,
		Resolver:     resolver,
		Views:        dataview.NewRegistry(schema.DefaultTables()),
		Exporter:     exporter,
		Importer:     importer,
		Bridge:       bridge,
		Metrics:      metrics,
		Authenticate: transport.JWTAuthenticator(cfg.Identity, jwks),
		Ready:        ready,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	logger.Info("server started",
		zap.Int("port", cfg.Server.Port),
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("store", cfg.Store.Driver),
		zap.Bool("realtime", cfg.Realtime.Enabled),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown initiated")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
		return 1
	}

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout == 0 {
		shutdownTimeout = 30 * time.Second
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	// Stop accepting new connections and drain in-flight requests.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	// Let the hub drain its buffered change events.
	if cfg.Realtime.Enabled {
		hub.Wait()
	}

	if err := tracingShutdown(shutdownCtx); err != nil {
		logger.Error("tracing shutdown error", zap.Error(err))
	}

	logger.Info("shutdown complete")
	return 0
}

// buildRecordStore creates the record store based on config. The pool is
// returned separately so readiness checks and the role directory can share
// it; it is nil for the memory driver.
func buildRecordStore(ctx context.Context, cfg config.StoreConfig, notifier model.ChangeNotifier, logger *zap.Logger) (store.RecordStore, *pgxpool.Pool, error) {
	switch cfg.Driver {
	case "memory":
		logger.Info("using in-memory record store")
		return store.NewMemoryStore(notifier), nil, nil
	case "postgres":
		dsn := os.Getenv(cfg.DSNEnv)
		if dsn == "" {
			return nil, nil, fmt.Errorf("record store: %s environment variable not set", cfg.DSNEnv)
		}

		poolCfg, err := pgxpool.ParseConfig(dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("record store: parse DSN: %w", err)
		}
		poolCfg.MaxConns = int32(cfg.MaxOpenConns)
		poolCfg.MinConns = int32(cfg.MaxIdleConns)
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime

		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("record store: connect: %w", err)
		}

		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("record store: ping: %w", err)
		}

		return store.NewPgStore(pool, notifier), pool, nil
	default:
		return nil, nil, fmt.Errorf("unsupported record store driver: %q", cfg.Driver)
	}
}

// buildDirectory creates the role directory based on config.
func buildDirectory(cfg config.DirectoryConfig, pool *pgxpool.Pool, logger *zap.Logger) (model.RoleDirectory, error) {
	switch cfg.Driver {
	case "static", "":
		logger.Info("using static role directory", zap.String("file", cfg.StaticFile))
		return permission.NewStaticDirectory(cfg.StaticFile)
	case "postgres":
		if pool == nil {
			return nil, fmt.Errorf("role directory: postgres driver requires the postgres record store")
		}
		return store.NewPgDirectory(pool), nil
	default:
		return nil, fmt.Errorf("unsupported role directory driver: %q", cfg.Driver)
	}
}
