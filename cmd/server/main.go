package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Cmetankaaa/shop-next/internal/adapter/client"
	"github.com/Cmetankaaa/shop-next/internal/adapter/handler"
	"github.com/Cmetankaaa/shop-next/internal/adapter/storage"
	"github.com/Cmetankaaa/shop-next/internal/config"
	"github.com/Cmetankaaa/shop-next/internal/core/service"
	"github.com/Cmetankaaa/shop-next/internal/metrics"
	"github.com/Cmetankaaa/shop-next/internal/obs"
	"github.com/Cmetankaaa/shop-next/internal/port"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg := config.Load(*configPath)

	logger, err := obs.NewLogger(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	repo, closeRepo, err := openStorage(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}
	defer closeRepo()

	httpClient := &http.Client{Timeout: cfg.RequestTimeout}

	catalogClient := client.NewCatalogClient(cfg.APIBaseURL, cfg.CatalogPageSize, httpClient)
	fetchCtx, fetchCancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	catalog, reviews := service.LoadStorefront(fetchCtx, catalogClient, logger)
	fetchCancel()
	logger.Info("storefront loaded", zap.Int("products", len(catalog)), zap.Int("reviews", len(reviews)))

	sessions := service.NewSessionManager(
		repo,
		catalog,
		client.NewOrderClient(cfg.APIBaseURL, httpClient),
		service.NewTimerScheduler(),
		cfg.ConfirmationDelay,
		logger,
		m,
	)
	sessions.SetIdleTTL(cfg.SessionIdleTTL)
	go sessions.RunJanitor(ctx, time.Minute)

	// gRPC health
	grpcServer, healthServer := handler.NewGRPCServer(logger)
	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}
	go func() {
		logger.Info("gRPC server listening", zap.String("addr", cfg.GRPCAddr))
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC server error", zap.Error(err))
		}
	}()

	// HTTP
	mux := http.NewServeMux()
	limiter := handler.NewRateLimiter(cfg.CheckoutRate, cfg.CheckoutBurst, 10*time.Minute)
	handler.NewHTTPHandler(sessions, catalog, reviews, limiter, logger).Register(mux)
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.WithLogging(logger, mux),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	healthServer.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown", zap.Error(err))
	}
	logger.Info("HTTP server stopped")

	grpcServer.GracefulStop()
	logger.Info("gRPC server stopped")

	// pending confirmations complete before the store goes away
	sessions.CloseAll()
	logger.Info("sessions closed")
	return nil
}

func openStorage(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (port.CartRepository, func(), error) {
	switch cfg.Driver {
	case config.StorageRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			PoolSize: 100,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		logger.Info("connected to redis", zap.String("addr", cfg.RedisAddr))
		return storage.NewRedisAdapter(rdb, cfg.CartTTL), func() { rdb.Close() }, nil

	case config.StorageMySQL:
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open mysql: %w", err)
		}
		db.SetMaxOpenConns(50)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)

		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("ping mysql: %w", err)
		}
		adapter := storage.NewMySQLAdapter(db)
		if err := adapter.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("mysql schema: %w", err)
		}
		logger.Info("connected to mysql")
		return adapter, func() { db.Close() }, nil

	case config.StorageMemory, "":
		logger.Info("using in-memory cart storage")
		return storage.NewMemoryAdapter(), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
