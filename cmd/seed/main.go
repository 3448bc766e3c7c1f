package main

import (
	"context"
	"fmt"
	"os"

	"ecommerce-core/internal/auth"
	"ecommerce-core/internal/config"
	"ecommerce-core/internal/db"
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

	authSvc := auth.New(auth.DefaultConfig(), store, logger)
	processor := payment.NewProcessor(logger, payment.Defaults()...)
	core, err := platform.New(processor, authSvc, store, logger)
	if err != nil {
		logger.Fatalf("init platform: %v", err)
	}

	if err := seed.Apply(core); err != nil {
		logger.Fatalf("seed apply: %v", err)
	}

	logger.Info("seed applied")
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
