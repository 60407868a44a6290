package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"porch-petals/internal/config"
	"porch-petals/internal/db"
	"porch-petals/internal/eventbus"
	"porch-petals/internal/httpserver"
	"porch-petals/internal/logging"
	"porch-petals/internal/notion"
	"porch-petals/internal/payment"
	"porch-petals/internal/poller"
	invrepo "porch-petals/internal/repository/inventory"
	"porch-petals/internal/repository/slot"
	cartsvc "porch-petals/internal/service/cart"
	checkoutsvc "porch-petals/internal/service/checkout"
	invsvc "porch-petals/internal/service/inventory"
)

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		fatal := logging.New(os.Stdout, "porch-petals", "api", "info")
		fatal.Fatal().Err(err).Msg("load config")
	}
	base := logging.New(os.Stdout, cfg.AppName, "", cfg.LogLevel)
	logger := logging.Component(base, "api")

	ctx := context.Background()

	var dbpool *pgxpool.Pool
	if cfg.DBConnString != "" {
		dbpool, err = db.Connect(ctx, cfg.DBConnString)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect to db")
		}
		defer dbpool.Close()
	}

	slots, closeSlots := openSlots(ctx, cfg, dbpool, base)
	defer closeSlots()

	source, closeSource := openInventorySource(cfg, base)
	defer closeSource()

	gateway := invsvc.NewGateway(source, logging.Component(base, "inventory"))
	catalog := poller.New(gateway, cfg.InventoryRefreshInterval(), logging.Component(base, "poller"))
	catalog.Start()
	defer catalog.Stop()

	events := openPublisher(cfg, base)
	defer events.Close()

	carts := cartsvc.New(slots, logging.Component(base, "cart"))
	checkout := checkoutsvc.New(
		carts,
		slots,
		catalog,
		payment.New(cfg.StripeSecretKey, logging.Component(base, "payment")),
		events,
		checkoutsvc.Config{MaxAttempts: cfg.CheckoutMaxAttempts, Window: cfg.CheckoutWindow()},
		logging.Component(base, "checkout"),
	)

	var pinger httpserver.Pinger
	if dbpool != nil {
		pinger = dbpool
	}
	srv, err := httpserver.New(cfg.HTTPAddr, logging.Component(base, "http"), pinger, httpserver.Deps{
		Catalog:        catalog,
		Houseplants:    gateway,
		Carts:          carts,
		Checkout:       checkout,
		PublishableKey: cfg.StripePublishableKey,
	}, cfg.AllowedOrigins())
	if err != nil {
		logger.Fatal().Err(err).Msg("init server")
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("starting http server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-serverErr:
		logger.Error().Err(err).Msg("server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	} else {
		logger.Info().Msg("server stopped")
	}
}

func openSlots(ctx context.Context, cfg config.Config, pool *pgxpool.Pool, base zerolog.Logger) (slot.Repository, func()) {
	logger := logging.Component(base, "slots")
	switch cfg.SlotBackend {
	case "redis":
		client, err := slot.DialRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect to redis")
		}
		return slot.NewRedis(client, cfg.SlotNamespace, cfg.SlotTTL(), logger), func() { client.Close() }
	case "postgres":
		if pool == nil {
			logger.Fatal().Msg("SLOT_BACKEND=postgres requires DB_DSN")
		}
		return slot.NewPostgres(pool, logger), func() {}
	case "", "memory":
		return slot.NewMemory(), func() {}
	default:
		logger.Fatal().Str("backend", cfg.SlotBackend).Msg("unknown slot backend")
		return nil, nil
	}
}

// openInventorySource returns nil when the storefront should serve sample
// inventory.
func openInventorySource(cfg config.Config, base zerolog.Logger) (invsvc.Source, func()) {
	logger := logging.Component(base, "inventory")
	switch cfg.InventoryBackend {
	case "postgres":
		if cfg.DBConnString == "" {
			logger.Fatal().Msg("INVENTORY_BACKEND=postgres requires DB_DSN")
		}
		sqlDB, err := invrepo.Connect(cfg.DBConnString)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect inventory database")
		}
		return invrepo.NewPostgres(sqlDB, logger), func() { sqlDB.Close() }
	case "", "notion":
		if !cfg.NotionConfigured() {
			logger.Warn().Msg("workspace database not configured, serving sample inventory")
			return nil, func() {}
		}
		client, err := notion.NewClient(cfg.NotionToken, cfg.NotionBaseURL)
		if err != nil {
			logger.Fatal().Err(err).Str("baseURL", cfg.NotionBaseURL).Msg("invalid workspace API url")
		}
		return notion.NewInventorySource(client, cfg.NotionDatabaseID), func() {}
	default:
		logger.Fatal().Str("backend", cfg.InventoryBackend).Msg("unknown inventory backend")
		return nil, func() {}
	}
}

func openPublisher(cfg config.Config, base zerolog.Logger) eventbus.Publisher {
	logger := logging.Component(base, "eventbus")
	if cfg.RabbitMQURL == "" {
		return eventbus.NewLogPublisher(logger)
	}
	pub, err := eventbus.DialRabbitMQ(eventbus.RabbitMQConfig{
		URL:        cfg.RabbitMQURL,
		Exchange:   cfg.OrderExchange,
		RoutingKey: cfg.OrderRoutingKey,
	}, logger)
	if err != nil {
		logger.Error().Err(err).Msg("rabbitmq unavailable, order events will only be logged")
		return eventbus.NewLogPublisher(logger)
	}
	return pub
}
