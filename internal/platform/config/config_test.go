package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("MINTGATE_OWNER_ACCOUNT", "acct-owner")
	t.Setenv("MINTGATE_WALLET_ACCOUNT", "acct-wallet")
	t.Setenv("MINTGATE_LEDGER_URL", "http://ledger:9000")
	t.Setenv("MINTGATE_ORACLE_URL", "http://oracle:9001")
	t.Setenv("MINTGATE_JWT_SIGNING_KEY", "test-key")
}

func TestFromEnvRequiredFields(t *testing.T) {
	t.Setenv("MINTGATE_OWNER_ACCOUNT", "")
	t.Setenv("MINTGATE_WALLET_ACCOUNT", "")
	t.Setenv("MINTGATE_LEDGER_URL", "")
	t.Setenv("MINTGATE_ORACLE_URL", "")
	t.Setenv("MINTGATE_JWT_SIGNING_KEY", "")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MINTGATE_OWNER_ACCOUNT")
	assert.Contains(t, err.Error(), "MINTGATE_WALLET_ACCOUNT")
	assert.Contains(t, err.Error(), "MINTGATE_LEDGER_URL")
	assert.Contains(t, err.Error(), "MINTGATE_ORACLE_URL")
}

func TestFromEnvDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "mintgate.sale.events", cfg.KafkaTopic)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Empty(t, cfg.DatabaseURL)
}

func TestFromEnvKafkaBrokers(t *testing.T) {
	setRequired(t)
	t.Setenv("MINTGATE_KAFKA_BROKERS", "broker1:9092, broker2:9092,")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
}
