package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/api-sage/branch-teller-core/src/internal/adapter/console"
	"github.com/api-sage/branch-teller-core/src/internal/adapter/repository/implementations"
	"github.com/api-sage/branch-teller-core/src/internal/adapter/repository/memory"
	"github.com/api-sage/branch-teller-core/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/branch-teller-core/src/internal/bootstrap"
	"github.com/api-sage/branch-teller-core/src/internal/config"
	"github.com/api-sage/branch-teller-core/src/internal/logger"
	"github.com/api-sage/branch-teller-core/src/internal/security"
	"github.com/api-sage/branch-teller-core/src/internal/usecase/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, db, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	if db != nil {
		defer db.Close()
	}

	seed, err := bootstrap.LoadSeed(cfg.SeedFile)
	if err != nil {
		log.Fatalf("load seed: %v", err)
	}

	hasher := security.NewBcryptHasher(cfg.BcryptCost)
	if err := bootstrap.Apply(ctx, store, hasher, seed); err != nil {
		log.Fatalf("apply seed: %v", err)
	}

	lookup, err := services.LoadLookupTable(ctx, store)
	if err != nil {
		log.Fatalf("load lookup table: %v", err)
	}

	bank := services.NewBank(store, lookup, hasher, cfg.LockTimeout)
	if err := console.New(bank, store, os.Stdout).Run(ctx, os.Stdin); err != nil && ctx.Err() == nil {
		log.Fatalf("console: %v", err)
	}
}

// openStore returns the configured record store. The memory store has no
// database handle.
func openStore(ctx context.Context, cfg config.Config) (repo_interfaces.Store, *sql.DB, error) {
	if cfg.Store == config.StoreMemory {
		return memory.NewStore(), nil, nil
	}

	openCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	db, err := implementations.Open(openCtx, cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, err
	}

	if _, err := implementations.RunMigrations(openCtx, db, cfg.MigrationsDir); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return implementations.NewStore(db), db, nil
}
