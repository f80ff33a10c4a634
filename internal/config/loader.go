package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/LeJamon/goXRPLbooks/internal/feed"
)

// LoadConfig loads configuration in priority order:
// 1. Built-in defaults
// 2. Configuration file (bookfeed.toml), when one exists
// 3. Environment variables (BOOKFEED_ prefix)
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if err := readConfigFile(v, path); err != nil {
		return nil, err
	}

	v.SetEnvPrefix("BOOKFEED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// readConfigFile reads an explicit config file, or searches the working
// directory for bookfeed.toml when no path is given. A missing default
// file is fine; an explicitly named one must exist.
func readConfigFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return fmt.Errorf("config file does not exist: %s", path)
		}
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigName("bookfeed")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// setDefaults tracks the XRP markets of the two major gateways against
// the public cluster pool.
func setDefaults(v *viper.Viper) {
	v.SetDefault("feed.endpoints", feed.DefaultEndpoints())
	v.SetDefault("feed.chunk_size", feed.DefaultChunkSize)
	v.SetDefault("feed.dedupe_size", feed.DefaultDedupeSize)
	v.SetDefault("feed.reconnect_min", time.Second)
	v.SetDefault("feed.reconnect_max", time.Minute)

	v.SetDefault("books.currencies", []map[string]string{
		{"code": "XRP"},
		{"code": "USD", "issuer": "rhub8VRN55s94qWKDv6jmDy1pUykJzF3wq"},
		{"code": "EUR", "issuer": "rhub8VRN55s94qWKDv6jmDy1pUykJzF3wq"},
		{"code": "USD", "issuer": "rvYAfWj5gh67oV6fW32ZzP3Aw4Eubs59B"},
	})
	v.SetDefault("books.liquid_threshold", "1")
	v.SetDefault("books.convert_to_xrp", true)

	v.SetDefault("log.level", "info")
}
