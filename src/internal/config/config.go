package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/api-sage/branch-teller-core/src/internal/logger"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

const defaultConnectionString = "Host=localhost;Port=5432;Database=branch_bank_db;Username=postgres;Password=postgres;Timeout=30;CommandTimeout=30"
const defaultDriver = "postgres"
const defaultStore = "postgres"
const defaultSeedFile = "src/config/seed.yaml"
const defaultLockTimeout = 5 * time.Second

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"

	DriverPQ  = "postgres"
	DriverPGX = "pgx"
)

type Config struct {
	DatabaseDSN    string
	DatabaseDriver string
	Store          string
	MigrationsDir  string
	SeedFile       string
	BcryptCost     int
	LockTimeout    time.Duration
	LogLevel       logger.Level
}

func Load() (Config, error) {
	// A missing .env file is fine; the environment still applies.
	_ = godotenv.Load()

	conn := envOrDefault("DATABASE_DSN", defaultConnectionString)

	driver := strings.ToLower(envOrDefault("DATABASE_DRIVER", defaultDriver))
	if driver != DriverPQ && driver != DriverPGX {
		return Config{}, fmt.Errorf("DATABASE_DRIVER must be %q or %q, got %q", DriverPQ, DriverPGX, driver)
	}

	store := strings.ToLower(envOrDefault("STORE", defaultStore))
	if store != StorePostgres && store != StoreMemory {
		return Config{}, fmt.Errorf("STORE must be %q or %q, got %q", StorePostgres, StoreMemory, store)
	}

	cost := bcrypt.DefaultCost
	if raw := strings.TrimSpace(os.Getenv("BCRYPT_COST")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, fmt.Errorf("BCRYPT_COST must be an integer: %w", err)
		}
		if parsed < bcrypt.MinCost || parsed > bcrypt.MaxCost {
			return Config{}, fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
		}
		cost = parsed
	}

	lockTimeout := defaultLockTimeout
	if raw := strings.TrimSpace(os.Getenv("LOCK_TIMEOUT")); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("LOCK_TIMEOUT must be a duration: %w", err)
		}
		lockTimeout = parsed
	}

	logLevel, err := logger.ParseLevel(envOrDefault("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	return Config{
		DatabaseDSN:    normalizeConnectionString(conn),
		DatabaseDriver: driver,
		Store:          store,
		MigrationsDir:  envOrDefault("MIGRATIONS_DIR", filepath.Join("src", "migrations")),
		SeedFile:       envOrDefault("SEED_FILE", defaultSeedFile),
		BcryptCost:     cost,
		LockTimeout:    lockTimeout,
		LogLevel:       logLevel,
	}, nil
}

func envOrDefault(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func normalizeConnectionString(raw string) string {
	if strings.HasPrefix(raw, "postgres://") || strings.HasPrefix(raw, "postgresql://") {
		return raw
	}

	parts := strings.Split(raw, ";")
	out := make([]string, 0, len(parts))
	hasSSLMode := false

	for _, part := range parts {
		p := strings.TrimSpace(part)
		if p == "" {
			continue
		}

		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}

		key := strings.ToLower(strings.TrimSpace(kv[0]))
		val := strings.TrimSpace(kv[1])

		switch key {
		case "host":
			out = append(out, "host="+val)
		case "port":
			out = append(out, "port="+val)
		case "database":
			out = append(out, "dbname="+val)
		case "username":
			out = append(out, "user="+val)
		case "password":
			out = append(out, "password="+val)
		case "timeout", "connect timeout":
			out = append(out, "connect_timeout="+val)
		case "commandtimeout", "command timeout":
			out = append(out, "statement_timeout="+val+"s")
		case "sslmode":
			hasSSLMode = true
			out = append(out, "sslmode="+val)
		default:
			out = append(out, key+"="+val)
		}
	}

	if len(out) == 0 {
		return raw
	}

	if !hasSSLMode {
		out = append(out, "sslmode=disable")
	}

	return strings.Join(out, " ")
}
