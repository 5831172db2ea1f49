package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rxfeed/oracle/config"
	"github.com/rxfeed/oracle/fill"
	"github.com/rxfeed/oracle/journal"
	"github.com/rxfeed/oracle/source/binance"
	"github.com/rxfeed/oracle/source/frankfurter"
	"github.com/rxfeed/oracle/store"
)

var rootCmd = &cobra.Command{
	Use:   "oracle",
	Short: "Maintains a daily two-currency price record from exchange and FX feeds",
	Long: `Oracle maintains a daily time series of an asset's close price in two
currencies. Each run extends the stored record from its watermark through
yesterday (UTC): exchange closes in the reference currency, converted into
the target currency with forward-filled FX rates.

Runs are idempotent and append-only: re-running never mutates or duplicates
days that are already recorded.`,
	SilenceUsage: true,
}

var cfgPath string

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "f", "",
		"path to config file (YAML or JSON); defaults apply when omitted")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func buildStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	ref := cfg.Asset.ReferenceCurrency
	tgt := cfg.Asset.TargetCurrency

	switch cfg.Store.Type {
	case "file":
		return store.NewFile(cfg.Store.Path, ref, tgt), nil
	case "s3":
		return store.NewS3(ctx, store.S3Options{
			Endpoint:        cfg.Store.Endpoint,
			Region:          cfg.Store.Region,
			AccessKeyID:     cfg.Store.AccessKeyID,
			SecretAccessKey: cfg.Store.SecretAccessKey,
			Bucket:          cfg.Store.Bucket,
			Key:             cfg.Store.Key,
		}, ref, tgt)
	default:
		return nil, fmt.Errorf("unknown store type %q", cfg.Store.Type)
	}
}

// buildJournal returns nil when journaling is disabled.
func buildJournal(cfg *config.Config) (journal.Journal, error) {
	switch cfg.Journal.Type {
	case "", "none":
		return nil, nil
	case "csv":
		return journal.NewCSV(cfg.Journal.RunsFile)
	case "sqlite":
		return journal.NewSQLite(cfg.Journal.DBPath)
	default:
		return nil, fmt.Errorf("unknown journal type %q", cfg.Journal.Type)
	}
}

func buildRunner(ctx context.Context, cfg *config.Config) (*fill.Runner, journal.Journal, error) {
	st, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("create store: %w", err)
	}

	j, err := buildJournal(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("create journal: %w", err)
	}

	return &fill.Runner{
		Store:        st,
		Prices:       binance.NewClient(cfg.Sources.ExchangeURL, cfg.Asset.Symbol),
		Rates:        frankfurter.NewClient(cfg.Sources.FxURL, cfg.Asset.ReferenceCurrency, cfg.Asset.TargetCurrency),
		Journal:      j,
		InitialStart: cfg.Asset.InitialStartDate,
	}, j, nil
}
