package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.DevMode)
	assert.Equal(t, "vault:custody", cfg.CustodyAccount)
	assert.Equal(t, "vault:owner", cfg.OwnerAccount)
	assert.Equal(t, uint64(10), cfg.FeeRatePercent)
	assert.True(t, filepath.IsAbs(cfg.DataDir))
	assert.Equal(t, filepath.Join(cfg.DataDir, "journal.db"), cfg.JournalDBPath())
	assert.Equal(t, filepath.Join(cfg.DataDir, "history.db"), cfg.HistoryDBPath())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("VAULT_PORT", "9999")
	t.Setenv("VAULT_DEV_MODE", "true")
	t.Setenv("VAULT_FEE_RATE_PERCENT", "25")
	t.Setenv("VAULT_OPERATOR_ACCOUNTS", "bob, carol ,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Port)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, uint64(25), cfg.FeeRatePercent)
	assert.Equal(t, []string{"bob", "carol"}, cfg.OperatorAccounts)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("VAULT_PORT", "not-a-port")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsFeeRateAbove100(t *testing.T) {
	t.Setenv("VAULT_FEE_RATE_PERCENT", "101")
	_, err := Load()
	assert.Error(t, err)
}
