package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/rl1809/inventory-console/internal/adapter/handler"
	"github.com/rl1809/inventory-console/internal/adapter/storage"
	"github.com/rl1809/inventory-console/internal/config"
	"github.com/rl1809/inventory-console/internal/core/service"
	"github.com/rl1809/inventory-console/internal/logger"
	"github.com/rl1809/inventory-console/internal/port"
)

const (
	healthInterval  = 10 * time.Second
	shutdownTimeout = 5 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logger.New(cfg.IsProduction(), cfg.LogFile)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, cache, deps, closeStores, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStores()

	if cfg.AdminPasswordHash == "" {
		log.Warn("ADMIN_PASSWORD_HASH is empty, logins are disabled")
	}
	auth := handler.NewAuthenticator(cfg.JWTSecret, cfg.AccessTTL(), cfg.RefreshTTL(), cfg.AdminUsername, cfg.AdminPasswordHash)
	catalog := service.NewCatalogService(repo, cache)

	// Initialize gRPC server
	grpcServer := grpc.NewServer()
	grpcHealth := handler.NewGRPCHealth(deps...)
	grpcHealth.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return err
	}

	// Initialize HTTP server
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.NewHTTPHandler(catalog, auth).Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("gRPC server listening", zap.String("addr", cfg.GRPCAddr))
		return grpcServer.Serve(lis)
	})

	g.Go(func() error {
		log.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(healthInterval)
		defer ticker.Stop()
		for {
			grpcHealth.Check(gctx)
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down...")

		grpcHealth.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Warn("HTTP shutdown", zap.Error(err))
		}
		log.Info("HTTP server stopped")

		grpcServer.GracefulStop()
		log.Info("gRPC server stopped")
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	log.Info("connections closed")
	return nil
}

// openStores connects the product repository and the idempotency cache
// selected by cfg.Storage.
func openStores(ctx context.Context, cfg *config.Config, log *zap.Logger) (port.DatabaseRepository, port.CacheRepository, []handler.Pinger, func(), error) {
	if cfg.Storage == "memory" {
		log.Warn("using in-memory storage, data is lost on exit")
		return storage.NewMemoryAdapter(), nil, nil, func() {}, nil
	}

	// Initialize MySQL
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, nil, nil, fmt.Errorf("ping mysql: %w", err)
	}
	log.Info("connected to mysql")

	mysqlAdapter := storage.NewMySQLAdapter(db)
	if err := mysqlAdapter.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, nil, nil, err
	}

	// Initialize Redis
	redisAdapter, err := storage.NewRedisAdapterFromURL(cfg.RedisURL)
	if err != nil {
		db.Close()
		return nil, nil, nil, nil, err
	}
	if err := redisAdapter.PingContext(ctx); err != nil {
		db.Close()
		redisAdapter.Close()
		return nil, nil, nil, nil, fmt.Errorf("ping redis: %w", err)
	}
	log.Info("connected to redis")

	closeAll := func() {
		redisAdapter.Close()
		db.Close()
	}
	return mysqlAdapter, redisAdapter, []handler.Pinger{db, redisAdapter}, closeAll, nil
}
