// Command cryptofolio tracks a Binance account's portfolio: it syncs
// the deposit, withdrawal and trade history into a local database and
// serves valuation, performance and tax reports on a web dashboard.
//
// Usage:
//
//	cryptofolio --config config.yaml
//	cryptofolio --pairs BTC_USDT,ETH_USDT
//	cryptofolio --setup          (interactive configuration wizard)
//
// Required environment variables:
//
//	BINANCE_API_KEY, BINANCE_API_SECRET (read-only keys are enough)
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/elobry/cryptofolio/config"
	"github.com/elobry/cryptofolio/internal"
	"github.com/elobry/cryptofolio/internal/clients"
	"github.com/elobry/cryptofolio/internal/services/capital"
	"github.com/elobry/cryptofolio/internal/services/ledger"
	"github.com/elobry/cryptofolio/internal/services/pricer"
	"github.com/elobry/cryptofolio/internal/services/syncer"
	"github.com/elobry/cryptofolio/internal/services/tax"
	"github.com/elobry/cryptofolio/internal/services/valuation"
	"github.com/elobry/cryptofolio/internal/setup"
	"github.com/elobry/cryptofolio/internal/storage/events"
	"github.com/elobry/cryptofolio/internal/storage/snapshots"
	"github.com/elobry/cryptofolio/internal/web"
)

func main() {
	runSetup := flag.Bool("setup", false, "run the interactive configuration wizard")

	cfg, err := config.Get()
	if *runSetup {
		if err := setup.RunTUI(); err != nil {
			log.Fatal(err)
		}
		return
	}
	if err != nil {
		log.Fatal(err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	apiKey := os.Getenv("BINANCE_API_KEY")
	apiSecret := os.Getenv("BINANCE_API_SECRET")
	if apiKey == "" || apiSecret == "" {
		log.Fatal("BINANCE_API_KEY and BINANCE_API_SECRET environment variables must be set")
	}
	client := clients.NewBinanceClient(apiKey, apiSecret)

	store, err := events.Open(cfg.DBPath)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	snapshotStore, err := snapshots.NewWALStore(cfg.SnapshotDir)
	if err != nil {
		log.Fatal(err)
	}
	defer snapshotStore.Close()

	oracle := pricer.NewBinancePricer(client)
	source := ledger.NewBinanceSource(client, cfg.Pairs, logger)

	tracker := internal.NewTracker(
		syncer.New(source, store, "binance", logger),
		store,
		source,
		valuation.NewNormalizer(cfg.QuoteAsset, logger),
		valuation.NewEngine(oracle, cfg.QuoteAsset, cfg.StableAssets, logger),
		capital.NewCalculator(oracle, cfg.QuoteAsset, cfg.StableAssets, logger),
		tax.NewEstimator(cfg.IncomeTaxRate, cfg.SocialTaxRate),
		snapshotStore,
		cfg.QuoteAsset,
		logger,
	)

	server := web.NewServer(cfg.ListenAddr, tracker, snapshotStore)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return tracker.Run(ctx, cfg.SyncInterval)
	})
	g.Go(func() error {
		if len(cfg.TLSDomains) > 0 {
			return server.StartWithAutoTLS(ctx, cfg.TLSDomains, cfg.CertCacheDir)
		}
		return server.Start(ctx)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		logger.Fatal("tracker stopped", zap.Error(err))
	}
}
