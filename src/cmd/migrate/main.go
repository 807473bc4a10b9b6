package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/api-sage/branch-teller-core/src/internal/adapter/repository/implementations"
	"github.com/api-sage/branch-teller-core/src/internal/bootstrap"
	"github.com/api-sage/branch-teller-core/src/internal/config"
	"github.com/api-sage/branch-teller-core/src/internal/logger"
	"github.com/api-sage/branch-teller-core/src/internal/security"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger.SetLevel(cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := implementations.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	applied, err := implementations.RunMigrations(ctx, db, cfg.MigrationsDir)
	if err != nil {
		log.Fatalf("run migrations: %v", err)
	}
	log.Printf("migrations completed successfully, %d applied", len(applied))

	if len(os.Args) > 1 && os.Args[1] == "-seed" {
		seed, err := bootstrap.LoadSeed(cfg.SeedFile)
		if err != nil {
			log.Fatalf("load seed: %v", err)
		}
		hasher := security.NewBcryptHasher(cfg.BcryptCost)
		if err := bootstrap.Apply(ctx, implementations.NewStore(db), hasher, seed); err != nil {
			log.Fatalf("apply seed: %v", err)
		}
		log.Println("seed applied")
	}
}
