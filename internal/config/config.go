package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// WrappedSOLMint is the wSOL mint used as the input side of every swap.
const WrappedSOLMint = "So11111111111111111111111111111111111111112"

type Config struct {
	// Secrets (from .env)
	HMACSecret         string
	TraderSecretBase58 string
	TraderSecretJSON   string
	WebhookURL         string
	BotName            string

	// Network
	RPCURL      string
	JupiterBase string

	// Trading Parameters
	InputMint                 string
	SlippageBps               int
	PrioritizationFeeLamports *int64
	AggregatorRPS             int

	// HTTP
	Port               int
	CORSAllowOrigin    string
	MaxBodyBytes       int64
	HTTPTimeoutSeconds int

	LogLevel string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	fee, err := envInt64Ptr("PRIORITIZATION_FEE_LAMPORTS")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		// Secrets
		HMACSecret:         envStr("HMAC_SECRET", ""),
		TraderSecretBase58: envStr("TRADER_SECRET_BASE58", ""),
		TraderSecretJSON:   envStr("TRADER_SECRET_JSON", ""),
		WebhookURL:         envStr("WEBHOOK_URL", ""),
		BotName:            envStr("BOT_NAME", "SolanaSigner"),

		// Network
		RPCURL:      envStr("RPC_URL", "https://api.devnet.solana.com"),
		JupiterBase: strings.TrimRight(envStr("JUPITER_BASE", "https://quote-api.jup.ag"), "/"),

		// Trading Parameters
		InputMint:                 envStr("INPUT_MINT", WrappedSOLMint),
		SlippageBps:               envInt("SLIPPAGE_BPS", 50),
		PrioritizationFeeLamports: fee,
		AggregatorRPS:             envInt("AGGREGATOR_RPS", 0),

		// HTTP
		Port:               envInt("PORT", 8080),
		CORSAllowOrigin:    envStr("CORS_ALLOW_ORIGIN", "*"),
		MaxBodyBytes:       int64(envInt("MAX_BODY_BYTES", 1<<20)),
		HTTPTimeoutSeconds: envInt("HTTP_TIMEOUT_SECONDS", 15),

		LogLevel: envStr("LOG_LEVEL", "info"),
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []string

	if c.RPCURL == "" {
		errs = append(errs, "RPC_URL is required")
	}
	if c.JupiterBase == "" {
		errs = append(errs, "JUPITER_BASE is required")
	}
	if c.SlippageBps < 0 || c.SlippageBps > 10000 {
		errs = append(errs, "SLIPPAGE_BPS must be between 0 and 10000")
	}
	if c.PrioritizationFeeLamports != nil && *c.PrioritizationFeeLamports < 0 {
		errs = append(errs, "PRIORITIZATION_FEE_LAMPORTS must not be negative")
	}
	if c.HTTPTimeoutSeconds <= 0 {
		errs = append(errs, "HTTP_TIMEOUT_SECONDS must be positive")
	}
	if c.MaxBodyBytes <= 0 {
		errs = append(errs, "MAX_BODY_BYTES must be positive")
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL: %v", err))
	}

	if c.HMACSecret == "" {
		log.Warn("HMAC_SECRET not set: every /trade request will be rejected with bad_hmac")
	}
	if c.TraderSecretBase58 != "" && c.TraderSecretJSON != "" {
		log.Warn("both TRADER_SECRET_BASE58 and TRADER_SECRET_JSON set, using TRADER_SECRET_BASE58")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

func (c *Config) Print() {
	fields := log.Fields{
		"rpc_url":      c.RPCURL,
		"jupiter_base": c.JupiterBase,
		"input_mint":   truncAddr(c.InputMint),
		"slippage_bps": c.SlippageBps,
		"port":         c.Port,
		"hmac_secret":  boolLabel(c.HMACSecret != "", "configured", "not set"),
		"webhook":      boolLabel(c.WebhookURL != "", "configured", "disabled"),
		"timeout":      c.HTTPTimeout().String(),
	}
	if c.PrioritizationFeeLamports != nil {
		fields["priority_fee_lamports"] = *c.PrioritizationFeeLamports
	} else {
		fields["priority_fee_lamports"] = "unset"
	}
	if c.AggregatorRPS > 0 {
		fields["aggregator_rps"] = c.AggregatorRPS
	}
	log.WithFields(fields).Info("signer configuration")
}

func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

// --- helpers ---

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// envInt64Ptr returns nil when the variable is unset, so callers can tell
// "not configured" apart from an explicit zero.
func envInt64Ptr(key string) (*int64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid integer %q", key, v)
	}
	return &n, nil
}

func truncAddr(addr string) string {
	if len(addr) > 10 {
		return addr[:10]
	}
	return addr
}

func boolLabel(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}
