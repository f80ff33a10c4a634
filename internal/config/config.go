package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/LeJamon/goXRPLbooks/internal/feed"
)

// Config is the full configuration of the book feed.
type Config struct {
	Feed  FeedConfig  `mapstructure:"feed"`
	Books BooksConfig `mapstructure:"books"`
	Log   LogConfig   `mapstructure:"log"`
}

// FeedConfig tunes the websocket subscription layer.
type FeedConfig struct {
	// Endpoints is the node pool connections are spread over.
	Endpoints []string `mapstructure:"endpoints"`

	// ChunkSize is the number of books subscribed per connection.
	ChunkSize int `mapstructure:"chunk_size"`

	// DedupeSize is the number of transaction hashes remembered for
	// deduplication.
	DedupeSize int `mapstructure:"dedupe_size"`

	// ReconnectMin and ReconnectMax bound the reconnect backoff.
	ReconnectMin time.Duration `mapstructure:"reconnect_min"`
	ReconnectMax time.Duration `mapstructure:"reconnect_max"`
}

// BooksConfig selects the markets to track and how to evaluate them.
type BooksConfig struct {
	// Currencies is the currency universe; every pairing becomes one
	// tracked market.
	Currencies []CurrencyConfig `mapstructure:"currencies"`

	// LiquidThreshold is the quoted-spread percentage below which a
	// book counts as liquid, as a decimal string.
	LiquidThreshold string `mapstructure:"liquid_threshold"`

	// ConvertToXRP renders native amounts in XRP units instead of
	// drops.
	ConvertToXRP bool `mapstructure:"convert_to_xrp"`
}

// CurrencyConfig names one currency. XRP carries no issuer.
type CurrencyConfig struct {
	Code   string `mapstructure:"code"`
	Issuer string `mapstructure:"issuer"`
}

// LogConfig tunes logging.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// FeedCurrencies converts the configured universe to feed currencies.
func (b BooksConfig) FeedCurrencies() []feed.Currency {
	currencies := make([]feed.Currency, len(b.Currencies))
	for i, c := range b.Currencies {
		currencies[i] = feed.Currency{Code: c.Code, Issuer: c.Issuer}
	}
	return currencies
}

// Threshold parses the liquidity threshold.
func (b BooksConfig) Threshold() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(b.LiquidThreshold)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("liquid_threshold %q: %w", b.LiquidThreshold, err)
	}
	return d, nil
}

// Validate checks the configuration for values the feed cannot run
// with.
func Validate(cfg *Config) error {
	if len(cfg.Feed.Endpoints) == 0 {
		return fmt.Errorf("feed.endpoints must not be empty")
	}
	if cfg.Feed.ChunkSize <= 0 {
		return fmt.Errorf("feed.chunk_size must be positive, got %d", cfg.Feed.ChunkSize)
	}
	if cfg.Feed.DedupeSize <= 0 {
		return fmt.Errorf("feed.dedupe_size must be positive, got %d", cfg.Feed.DedupeSize)
	}
	if cfg.Feed.ReconnectMin <= 0 || cfg.Feed.ReconnectMax < cfg.Feed.ReconnectMin {
		return fmt.Errorf("feed reconnect backoff %s..%s is not a valid range",
			cfg.Feed.ReconnectMin, cfg.Feed.ReconnectMax)
	}
	if len(cfg.Books.Currencies) < 2 {
		return fmt.Errorf("books.currencies needs at least two currencies to form a market")
	}
	for _, c := range cfg.Books.FeedCurrencies() {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("books.currencies: %w", err)
		}
	}
	threshold, err := cfg.Books.Threshold()
	if err != nil {
		return err
	}
	if threshold.Sign() <= 0 {
		return fmt.Errorf("books.liquid_threshold must be positive, got %s", threshold)
	}
	return nil
}
