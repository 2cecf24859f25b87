package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const defaultConnectionString = "Host=localhost;Port=5432;Database=vending_db;Username=postgres;Password=postgres;Timeout=30;CommandTimeout=30"
const defaultPort = "3001"
const defaultStoreDriver = StoreDriverPostgres
const defaultSweepInterval = time.Hour
const defaultSeedMachineBalance = "0.00"
const defaultSeedUserBalance = "50.00"

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	Port               string
	DatabaseDSN        string
	StoreDriver        string
	MigrationsDir      string
	SweepInterval      time.Duration
	SeedMachineBalance decimal.Decimal
	SeedUserBalance    decimal.Decimal
}

func Load() (Config, error) {
	conn := strings.TrimSpace(os.Getenv("DATABASE_DSN"))
	if conn == "" {
		conn = defaultConnectionString
	}

	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = defaultPort
	}

	driver := strings.ToLower(strings.TrimSpace(os.Getenv("STORE_DRIVER")))
	if driver == "" {
		driver = defaultStoreDriver
	}
	if driver != StoreDriverPostgres && driver != StoreDriverMemory {
		return Config{}, fmt.Errorf("unsupported STORE_DRIVER %q", driver)
	}

	sweepInterval := defaultSweepInterval
	if raw := strings.TrimSpace(os.Getenv("SWEEP_INTERVAL")); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("parse SWEEP_INTERVAL: %w", err)
		}
		if parsed <= 0 {
			return Config{}, fmt.Errorf("SWEEP_INTERVAL must be positive")
		}
		sweepInterval = parsed
	}

	seedMachine, err := seedBalance("SEED_MACHINE_BALANCE", defaultSeedMachineBalance)
	if err != nil {
		return Config{}, err
	}
	seedUser, err := seedBalance("SEED_USER_BALANCE", defaultSeedUserBalance)
	if err != nil {
		return Config{}, err
	}

	migrationsDir := strings.TrimSpace(os.Getenv("MIGRATIONS_DIR"))
	if migrationsDir == "" {
		migrationsDir = "migrations"
	}

	return Config{
		Port:               port,
		DatabaseDSN:        normalizeConnectionString(conn),
		StoreDriver:        driver,
		MigrationsDir:      migrationsDir,
		SweepInterval:      sweepInterval,
		SeedMachineBalance: seedMachine,
		SeedUserBalance:    seedUser,
	}, nil
}

func seedBalance(envKey, fallback string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(os.Getenv(envKey))
	if raw == "" {
		raw = fallback
	}

	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse %s: %w", envKey, err)
	}
	if value.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must not be negative", envKey)
	}

	return value, nil
}

func normalizeConnectionString(raw string) string {
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
