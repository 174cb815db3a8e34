package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"signalFlipBot/internal/adapters/logger" // Import the logger package for LogLevel
	"signalFlipBot/internal/domain"
)

// Supported exchange venues.
const (
	ExchangeOKX     = "okx"
	ExchangeBinance = "binance"
)

// Config holds all application configuration.
type Config struct {
	// Venue selection
	Exchange string

	// OKX API
	OKXAPIKey     string
	OKXSecretKey  string
	OKXPassphrase string
	OKXBaseURL    string
	OKXSimulated  bool // send x-simulated-trading for the demo environment

	// Binance API
	BinanceAPIKey    string
	BinanceSecretKey string
	BinanceTestnet   bool

	// Exchange call bound
	ExchangeTimeout time.Duration

	// Signal defaults
	DefaultSymbol   string
	DefaultPercent  decimal.Decimal
	DefaultLeverage int
	MaxLeverage     int

	// Account / sizing
	MarginMode         domain.MarginMode
	SettlementCurrency string
	DefaultLotSize     decimal.Decimal

	// Close confirmation poll
	CloseConfirmInterval time.Duration
	CloseConfirmTimeout  time.Duration

	// Orchestration
	FlipLockTimeout time.Duration

	// HTTP server
	Port         string
	WebhookToken string // optional shared secret for /webhook

	// Logging
	LogLevel  logger.LogLevel // Use the LogLevel type from the logger adapter
	LogFormat string
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	cfg.Exchange = strings.ToLower(getEnv("EXCHANGE", ExchangeOKX))

	// OKX API (unprefixed names match existing .env files)
	cfg.OKXAPIKey = getEnv("API_KEY", "")
	cfg.OKXSecretKey = getEnv("API_SECRET", "")
	cfg.OKXPassphrase = getEnv("API_PASSPHRASE", "")
	cfg.OKXBaseURL = getEnv("OKX_BASE_URL", "https://www.okx.com")
	cfg.OKXSimulated = getEnvAsBool("OKX_SIMULATED", false)

	cfg.BinanceAPIKey = getEnv("BINANCE_API_KEY", "")
	cfg.BinanceSecretKey = getEnv("BINANCE_API_SECRET", "")
	cfg.BinanceTestnet = getEnvAsBool("IS_TESTNET", true) // Default to testnet for safety

	switch cfg.Exchange {
	case ExchangeOKX:
		if cfg.OKXAPIKey == "" || cfg.OKXSecretKey == "" || cfg.OKXPassphrase == "" {
			errs = append(errs, "API_KEY, API_SECRET and API_PASSPHRASE must be set")
		}
	case ExchangeBinance:
		if cfg.BinanceAPIKey == "" || cfg.BinanceSecretKey == "" {
			errs = append(errs, "BINANCE_API_KEY and BINANCE_API_SECRET must be set")
		}
	default:
		errs = append(errs, fmt.Sprintf("EXCHANGE must be %q or %q, got %q", ExchangeOKX, ExchangeBinance, cfg.Exchange))
	}

	timeoutSeconds, err := getEnvAsIntRequired("EXCHANGE_TIMEOUT_SECONDS", 15)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid EXCHANGE_TIMEOUT_SECONDS: %v", err))
	} else if timeoutSeconds <= 0 || timeoutSeconds > 60 {
		errs = append(errs, "EXCHANGE_TIMEOUT_SECONDS must be between 1 and 60")
	}
	cfg.ExchangeTimeout = time.Duration(timeoutSeconds) * time.Second

	// Signal defaults
	cfg.DefaultSymbol = getEnv("DEFAULT_SYMBOL", "SOL-USDT-SWAP")

	cfg.DefaultPercent, err = getEnvAsDecimalRequired("DEFAULT_PERCENT", decimal.NewFromInt(50))
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid DEFAULT_PERCENT: %v", err))
	} else if !cfg.DefaultPercent.IsPositive() || cfg.DefaultPercent.GreaterThan(decimal.NewFromInt(100)) {
		errs = append(errs, "DEFAULT_PERCENT must be in (0,100]")
	}

	cfg.MaxLeverage = getEnvAsInt("MAX_LEVERAGE", 125)
	if cfg.MaxLeverage < 1 {
		errs = append(errs, "MAX_LEVERAGE must be positive")
	}

	cfg.DefaultLeverage, err = getEnvAsIntRequired("DEFAULT_LEVERAGE", 10)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid DEFAULT_LEVERAGE: %v", err))
	} else if cfg.DefaultLeverage < 1 || cfg.DefaultLeverage > cfg.MaxLeverage {
		errs = append(errs, "DEFAULT_LEVERAGE must be between 1 and MAX_LEVERAGE")
	}

	cfg.MarginMode, err = domain.ParseMarginMode(getEnv("MARGIN_MODE", string(domain.MarginCross)))
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MARGIN_MODE: %v", err))
	}
	cfg.SettlementCurrency = strings.ToUpper(getEnv("SETTLEMENT_CURRENCY", "USDT"))

	cfg.DefaultLotSize, err = getEnvAsDecimalRequired("DEFAULT_LOT_SIZE", decimal.RequireFromString("0.01"))
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid DEFAULT_LOT_SIZE: %v", err))
	} else if !cfg.DefaultLotSize.IsPositive() {
		errs = append(errs, "DEFAULT_LOT_SIZE must be positive")
	}

	cfg.CloseConfirmInterval = time.Duration(getEnvAsInt("CLOSE_CONFIRM_INTERVAL_MS", 200)) * time.Millisecond
	cfg.CloseConfirmTimeout = time.Duration(getEnvAsInt("CLOSE_CONFIRM_TIMEOUT_MS", 3000)) * time.Millisecond
	if cfg.CloseConfirmInterval <= 0 || cfg.CloseConfirmTimeout < cfg.CloseConfirmInterval {
		errs = append(errs, "CLOSE_CONFIRM_INTERVAL_MS must be positive and not exceed CLOSE_CONFIRM_TIMEOUT_MS")
	}

	cfg.FlipLockTimeout = time.Duration(getEnvAsInt("FLIP_LOCK_TIMEOUT_SECONDS", 30)) * time.Second
	if cfg.FlipLockTimeout <= 0 {
		errs = append(errs, "FLIP_LOCK_TIMEOUT_SECONDS must be positive")
	}

	// HTTP server
	cfg.Port = getEnv("PORT", "8080")
	if _, err := strconv.Atoi(cfg.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid PORT %q", cfg.Port))
	}
	cfg.WebhookToken = getEnv("WEBHOOK_TOKEN", "")

	// Logging
	logLevelStr := getEnv("LOG_LEVEL", "INFO")
	cfg.LogLevel = logger.ParseLevel(logLevelStr) // Use the parser from the logger package
	cfg.LogFormat = strings.ToLower(getEnv("LOG_FORMAT", "json"))

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(strings.TrimSpace(valueStr))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsIntRequired(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		// Use default if env var is not set at all
		return defaultValue, nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(valueStr))
	if err != nil {
		// Return error if env var is set but invalid
		return 0, fmt.Errorf("invalid integer value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsDecimalRequired(key string, defaultValue decimal.Decimal) (decimal.Decimal, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := decimal.NewFromString(strings.TrimSpace(valueStr))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(strings.TrimSpace(valueStr))
	if err != nil {
		return defaultValue
	}
	return value
}
