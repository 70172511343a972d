package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"budgetbot/internal/clients/cache"
	"budgetbot/internal/clients/rates"
	"budgetbot/internal/clients/tg"
	"budgetbot/internal/config"
	"budgetbot/internal/logger"
	"budgetbot/internal/model/currency"
	"budgetbot/internal/model/dialog"
	"budgetbot/internal/model/messages"
	"budgetbot/internal/model/reports"
	"budgetbot/internal/model/storage"
)

func main() {
	conf, err := config.New()
	if err != nil {
		logger.Fatal("failed to init config:", zap.Error(err))
	}

	table, err := currency.Load(conf.App())
	if err != nil {
		logger.Fatal("failed to load currency table:", zap.Error(err))
	}

	ledger, err := newLedgerStorage(conf)
	if err != nil {
		logger.Fatal("failed to init storage:", zap.Error(err))
	}

	generator := reports.NewGenerator(ledger, nil)
	if hosts := conf.Memcached().Hosts(); len(hosts) > 0 {
		mc, err := cache.NewMemcache(conf.Memcached())
		if err != nil {
			logger.Fatal("failed to init memcache:", zap.Error(err))
		}
		generator = reports.NewGenerator(ledger, mc)
	}

	manager := dialog.NewManager(ledger, table, rates.New(conf.Rates()), generator, conf.App())

	client, err := tg.New(conf.Telegram())
	if err != nil {
		logger.Fatal("failed to init client:", zap.Error(err))
	}

	msgService := messages.NewService(client, manager, conf.Telegram())

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client.ListenUpdates(ctx, msgService)
}

func newLedgerStorage(conf *config.Service) (storage.Storage, error) {
	switch conf.Storage().Backend() {
	case "postgres":
		return storage.NewPostgresStorage(conf.Postgres())
	case "memory":
		return storage.NewInMemStorage(), nil
	default:
		return storage.NewFileStorage(conf.Storage())
	}
}
