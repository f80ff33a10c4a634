package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/LeJamon/goXRPLbooks/internal/config"
	"github.com/LeJamon/goXRPLbooks/internal/core/book"
	"github.com/LeJamon/goXRPLbooks/internal/feed"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the order book feed",
	Long: `Connect to the configured XRPL nodes, subscribe to every configured
market and keep the order books current until interrupted.`,
	RunE: runFeed,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runFeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	log, err := newLogger(cfg.Log.Level)
	if err != nil {
		return err
	}
	defer log.Sync()

	threshold, err := cfg.Books.Threshold()
	if err != nil {
		return err
	}
	store := book.NewStore(book.StoreConfig{
		LiquidThreshold: threshold,
		ConvertToXRP:    cfg.Books.ConvertToXRP,
	})

	specs := feed.BuildBookSpecs(cfg.Books.FeedCurrencies())
	subscriber, err := feed.NewSubscriber(store, specs, feed.Options{
		Endpoints:    cfg.Feed.Endpoints,
		ChunkSize:    cfg.Feed.ChunkSize,
		DedupeSize:   cfg.Feed.DedupeSize,
		ReconnectMin: cfg.Feed.ReconnectMin,
		ReconnectMax: cfg.Feed.ReconnectMax,
	}, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("starting book feed",
		zap.Int("markets", len(specs)),
		zap.Strings("endpoints", cfg.Feed.Endpoints))
	if err := subscriber.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("feed stopped: %w", err)
	}
	log.Info("book feed stopped")
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
