package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.NotEmpty(t, cfg.Feed.Endpoints)
	assert.Equal(t, 10, cfg.Feed.ChunkSize)
	assert.Equal(t, time.Second, cfg.Feed.ReconnectMin)
	assert.Equal(t, time.Minute, cfg.Feed.ReconnectMax)
	assert.True(t, cfg.Books.ConvertToXRP)
	assert.Equal(t, "info", cfg.Log.Level)

	threshold, err := cfg.Books.Threshold()
	require.NoError(t, err)
	assert.True(t, threshold.Equal(decimal.NewFromInt(1)))

	currencies := cfg.Books.FeedCurrencies()
	require.NotEmpty(t, currencies)
	assert.Equal(t, "XRP", currencies[0].Code)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookfeed.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[feed]
endpoints = ["wss://s1.ripple.com/"]
chunk_size = 5

[books]
liquid_threshold = "0.5"
convert_to_xrp = false

[[books.currencies]]
code = "XRP"

[[books.currencies]]
code = "USD"
issuer = "rhub8VRN55s94qWKDv6jmDy1pUykJzF3wq"

[log]
level = "debug"
`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"wss://s1.ripple.com/"}, cfg.Feed.Endpoints)
	assert.Equal(t, 5, cfg.Feed.ChunkSize)
	assert.False(t, cfg.Books.ConvertToXRP)
	assert.Equal(t, "debug", cfg.Log.Level)
	require.Len(t, cfg.Books.Currencies, 2)

	threshold, err := cfg.Books.Threshold()
	require.NoError(t, err)
	assert.True(t, threshold.Equal(decimal.RequireFromString("0.5")))
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("BOOKFEED_LOG_LEVEL", "warn")
	t.Setenv("BOOKFEED_BOOKS_LIQUID_THRESHOLD", "0.25")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	threshold, err := cfg.Books.Threshold()
	require.NoError(t, err)
	assert.True(t, threshold.Equal(decimal.RequireFromString("0.25")))
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := func() *Config {
		cfg, err := LoadConfig("")
		require.NoError(t, err)
		return cfg
	}

	cfg := base()
	cfg.Feed.Endpoints = nil
	assert.Error(t, Validate(cfg))

	cfg = base()
	cfg.Feed.ChunkSize = 0
	assert.Error(t, Validate(cfg))

	cfg = base()
	cfg.Feed.ReconnectMax = cfg.Feed.ReconnectMin / 2
	assert.Error(t, Validate(cfg))

	cfg = base()
	cfg.Books.Currencies = cfg.Books.Currencies[:1]
	assert.Error(t, Validate(cfg))

	cfg = base()
	cfg.Books.Currencies[1].Issuer = ""
	assert.Error(t, Validate(cfg))

	cfg = base()
	cfg.Books.LiquidThreshold = "-1"
	assert.Error(t, Validate(cfg))

	cfg = base()
	cfg.Books.LiquidThreshold = "wide"
	assert.Error(t, Validate(cfg))
}
