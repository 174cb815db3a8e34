// Package venue builds the configured exchange adapter.
package venue

import (
	"fmt"

	"signalFlipBot/config"
	"signalFlipBot/internal/adapters/binanceclient"
	"signalFlipBot/internal/adapters/metrics"
	"signalFlipBot/internal/adapters/okxclient"
	"signalFlipBot/internal/ports"
)

// New returns the exchange named by cfg.Exchange, wrapped so every call is
// observed by m. A nil m leaves the adapter unwrapped.
func New(cfg *config.Config, logger ports.Logger, m ports.Metrics) (ports.Exchange, error) {
	var (
		ex  ports.Exchange
		err error
	)
	switch cfg.Exchange {
	case config.ExchangeOKX:
		ex, err = okxclient.New(okxclient.Config{
			APIKey:     cfg.OKXAPIKey,
			SecretKey:  cfg.OKXSecretKey,
			Passphrase: cfg.OKXPassphrase,
			BaseURL:    cfg.OKXBaseURL,
			Simulated:  cfg.OKXSimulated,
			Timeout:    cfg.ExchangeTimeout,
			Logger:     logger,
		})
	case config.ExchangeBinance:
		ex, err = binanceclient.New(binanceclient.Config{
			APIKey:     cfg.BinanceAPIKey,
			SecretKey:  cfg.BinanceSecretKey,
			UseTestnet: cfg.BinanceTestnet,
			Timeout:    cfg.ExchangeTimeout,
			Logger:     logger,
		})
	default:
		return nil, fmt.Errorf("unknown exchange %q: %w", cfg.Exchange, ports.ErrConfigurationError)
	}
	if err != nil {
		return nil, err
	}
	if m != nil {
		ex = metrics.Instrument(ex, m)
	}
	return ex, nil
}
