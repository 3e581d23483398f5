// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for the journal and history databases
	Port     int
	LogLevel string
	DevMode  bool

	// Fund accounts. The custody account is the engine's own identity on
	// the asset token and share ledger.
	CustodyAccount         string
	OwnerAccount           string
	TreasuryAccount        string
	TreasuryManagerAccount string
	OperatorAccounts       []string

	FeeRatePercent uint64

	// Cron schedules for the maintenance jobs; empty disables a job.
	RebalanceSchedule string
	FeeSchedule       string
	QueueTrimSchedule string
	SnapshotSchedule  string
}

// Load reads configuration from the environment. A .env file is honored in
// development but never required.
func Load() (*Config, error) {
	// Ignore error - .env is optional
	_ = godotenv.Load()

	cfg := &Config{
		DataDir:                getEnv("VAULT_DATA_DIR", "./data"),
		LogLevel:               getEnv("VAULT_LOG_LEVEL", "info"),
		DevMode:                getEnvBool("VAULT_DEV_MODE", false),
		CustodyAccount:         getEnv("VAULT_CUSTODY_ACCOUNT", "vault:custody"),
		OwnerAccount:           getEnv("VAULT_OWNER_ACCOUNT", "vault:owner"),
		TreasuryAccount:        getEnv("VAULT_TREASURY_ACCOUNT", "vault:treasury"),
		TreasuryManagerAccount: getEnv("VAULT_TREASURY_MANAGER_ACCOUNT", ""),
		RebalanceSchedule:      getEnv("VAULT_REBALANCE_SCHEDULE", "0 * * * *"),
		FeeSchedule:            getEnv("VAULT_FEE_SCHEDULE", "30 0 * * *"),
		QueueTrimSchedule:      getEnv("VAULT_QUEUE_TRIM_SCHEDULE", "45 0 * * 0"),
		SnapshotSchedule:       getEnv("VAULT_SNAPSHOT_SCHEDULE", "*/15 * * * *"),
	}

	port, err := strconv.Atoi(getEnv("VAULT_PORT", "8080"))
	if err != nil || port < 1 || port > 65535 {
		return nil, fmt.Errorf("invalid VAULT_PORT: %q", getEnv("VAULT_PORT", "8080"))
	}
	cfg.Port = port

	feeRate, err := strconv.ParseUint(getEnv("VAULT_FEE_RATE_PERCENT", "10"), 10, 64)
	if err != nil || feeRate > 100 {
		return nil, fmt.Errorf("invalid VAULT_FEE_RATE_PERCENT: %q", getEnv("VAULT_FEE_RATE_PERCENT", "10"))
	}
	cfg.FeeRatePercent = feeRate

	for _, op := range strings.Split(getEnv("VAULT_OPERATOR_ACCOUNTS", ""), ",") {
		op = strings.TrimSpace(op)
		if op != "" {
			cfg.OperatorAccounts = append(cfg.OperatorAccounts, op)
		}
	}

	absDataDir, err := filepath.Abs(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data dir %q: %w", cfg.DataDir, err)
	}
	cfg.DataDir = absDataDir

	return cfg, nil
}

// JournalDBPath returns the path of the append-only event journal database.
func (c *Config) JournalDBPath() string {
	return filepath.Join(c.DataDir, "journal.db")
}

// HistoryDBPath returns the path of the share-price history database.
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.DataDir, "history.db")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
