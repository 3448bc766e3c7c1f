package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"ecommerce-core/internal/auth"
	"ecommerce-core/internal/config"
	"ecommerce-core/internal/db"
	"ecommerce-core/internal/httpserver"
	"ecommerce-core/internal/logging"
	"ecommerce-core/internal/payment"
	"ecommerce-core/internal/platform"
	"ecommerce-core/internal/seed"
	"ecommerce-core/internal/storage"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	zl, err := logging.New(cfg.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer zl.Sync()
	logger := zl.Sugar()

	ctx := context.Background()
	store, cleanup, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatalf("open snapshot store: %v", err)
	}
	defer cleanup()

	authCfg := auth.DefaultConfig()
	authCfg.SessionTTL = cfg.SessionTTL
	authSvc := auth.New(authCfg, store, logger)
	processor := payment.NewProcessor(logger, payment.Defaults()...)

	core, err := platform.New(processor, authSvc, store, logger)
	if err != nil {
		logger.Fatalf("init platform: %v", err)
	}
	if _, err := seed.EnsureDefaultUsers(core); err != nil {
		logger.Fatalf("bootstrap users: %v", err)
	}

	srv := httpserver.New(cfg.HTTPAddr, logger, httpserver.Deps{
		Platform: core,
		Auth:     authSvc,
	})

	serverErr := make(chan error, 1)
	go func() {
		logger.Infof("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Infof("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Errorf("server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("graceful shutdown failed: %v", err)
	} else {
		logger.Info("server stopped")
	}
}

func openStore(ctx context.Context, cfg config.Config) (storage.Store, func(), error) {
	switch cfg.SnapshotBackend {
	case "postgres":
		pool, err := db.Connect(ctx, cfg.DBConnString)
		if err != nil {
			return nil, nil, err
		}
		return storage.NewPGStore(ctx, pool), pool.Close, nil
	case "file":
		store, err := storage.NewFileStore(cfg.SnapshotPath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown snapshot backend %q", cfg.SnapshotBackend)
	}
}
