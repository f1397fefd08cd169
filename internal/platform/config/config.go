package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config captures everything cmd/server needs to wire the sale. The three
// collaborator references (wallet, ledger, oracle) are required and never
// defaulted: the sale must not start half-wired.
type Config struct {
	Addr string

	// Sale construction parameters.
	OwnerAccount  string
	WalletAccount string
	LedgerURL     string
	OracleURL     string

	// OwnerSecret bootstraps credentials for the owner account so it can obtain
	// tokens. Optional: deployments may provision credentials out of band.
	OwnerSecret string

	JWTSigningKey string

	// Optional infrastructure. Empty means in-memory fallbacks.
	DatabaseURL  string
	RedisURL     string
	KafkaBrokers []string
	KafkaTopic   string

	RequestTimeout time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
// It returns an error listing every missing required variable at once.
func FromEnv() (Config, error) {
	cfg := Config{
		Addr:           getenv("MINTGATE_ADDR", ":8080"),
		OwnerAccount:   os.Getenv("MINTGATE_OWNER_ACCOUNT"),
		WalletAccount:  os.Getenv("MINTGATE_WALLET_ACCOUNT"),
		LedgerURL:      os.Getenv("MINTGATE_LEDGER_URL"),
		OracleURL:      os.Getenv("MINTGATE_ORACLE_URL"),
		OwnerSecret:    os.Getenv("MINTGATE_OWNER_SECRET"),
		JWTSigningKey:  os.Getenv("MINTGATE_JWT_SIGNING_KEY"),
		DatabaseURL:    os.Getenv("MINTGATE_DATABASE_URL"),
		RedisURL:       os.Getenv("MINTGATE_REDIS_URL"),
		KafkaTopic:     getenv("MINTGATE_KAFKA_TOPIC", "mintgate.sale.events"),
		RequestTimeout: 30 * time.Second,
	}

	if brokers := os.Getenv("MINTGATE_KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	var missing []string
	if cfg.OwnerAccount == "" {
		missing = append(missing, "MINTGATE_OWNER_ACCOUNT")
	}
	if cfg.WalletAccount == "" {
		missing = append(missing, "MINTGATE_WALLET_ACCOUNT")
	}
	if cfg.LedgerURL == "" {
		missing = append(missing, "MINTGATE_LEDGER_URL")
	}
	if cfg.OracleURL == "" {
		missing = append(missing, "MINTGATE_ORACLE_URL")
	}
	if cfg.JWTSigningKey == "" {
		missing = append(missing, "MINTGATE_JWT_SIGNING_KEY")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
