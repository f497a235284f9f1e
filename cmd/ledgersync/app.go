package main

import (
	"fmt"
	"log/slog"

	"github.com/josh-kwaku/ledgersync/internal/catalog"
	"github.com/josh-kwaku/ledgersync/internal/config"
	"github.com/josh-kwaku/ledgersync/internal/directory"
	"github.com/josh-kwaku/ledgersync/internal/ledger"
	"github.com/josh-kwaku/ledgersync/internal/logging"
	"github.com/josh-kwaku/ledgersync/internal/poller"
	"github.com/josh-kwaku/ledgersync/internal/service"
	"github.com/josh-kwaku/ledgersync/internal/settings"
)

// app holds the components shared by every subcommand.
type app struct {
	cfg      *config.Config
	settings *settings.Store
	dir      *directory.Directory
	catalog  *catalog.Store
	engine   *service.Engine
	checkout *service.Checkout
}

func newApp(name string) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logging.Init(name, cfg.LogLevel, cfg.AppEnv)
	return buildApp(cfg)
}

func buildApp(cfg *config.Config) (*app, error) {
	store, err := settings.NewStore(cfg.RuntimeConfigPath)
	if err != nil {
		return nil, fmt.Errorf("buildApp: %w", err)
	}
	dir := directory.New(store)

	backend := ledger.NewBackend(ledger.BackendConfig{
		URL:               cfg.StripeAPIURL,
		MaxNetworkRetries: cfg.StripeMaxNetworkRetries,
		Timeout:           cfg.StripeTimeout,
		Logger:            logging.NewStripeLogger(slog.Default()),
	})
	clients := service.FactorySource(ledger.NewFactory(dir, backend))
	prices := catalog.NewStore(cfg.CatalogPath)

	return &app{
		cfg:      cfg,
		settings: store,
		dir:      dir,
		catalog:  prices,
		engine: service.NewEngine(dir, clients, poller.Policy{
			Interval:    cfg.PollInterval,
			MaxAttempts: cfg.PollMaxAttempts,
		}),
		checkout: service.NewCheckout(prices, dir, clients, poller.Policy{
			Interval:    cfg.PayerPollInterval,
			MaxAttempts: cfg.PayerPollMaxAttempts,
		}),
	}, nil
}
