// Package main is the entry point for the subscription tracker Telegram bot.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"gitlab.com/yelinaung/subscription-bot/internal/bot"
	"gitlab.com/yelinaung/subscription-bot/internal/config"
	"gitlab.com/yelinaung/subscription-bot/internal/database"
	"gitlab.com/yelinaung/subscription-bot/internal/engine"
	"gitlab.com/yelinaung/subscription-bot/internal/exchange"
	"gitlab.com/yelinaung/subscription-bot/internal/logger"
	"gitlab.com/yelinaung/subscription-bot/internal/metrics"
	"gitlab.com/yelinaung/subscription-bot/internal/repository"
	"gitlab.com/yelinaung/subscription-bot/internal/rules"
	"gitlab.com/yelinaung/subscription-bot/internal/settings"
	"gitlab.com/yelinaung/subscription-bot/internal/store"
)

const shutdownTimeout = 10 * time.Second

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("subscription-bot %s (commit: %s, built: %s)\n", version, commit, date)
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to load config")
	}

	logger.Configure(cfg.LogLevel, cfg.LogFormat)
	if err := logger.InitHashSalt(); err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialise log hash salt")
	}

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool); err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	if err := database.SeedBudget(ctx, pool); err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to seed budget")
	}

	logger.Log.Info().Msg("Database initialized successfully")

	stateStore, redisClient, err := openStateStore(ctx, cfg, pool)
	if err != nil {
		logger.Log.Fatal().Err(err).Str("state_store", cfg.StateStore).Msg("Failed to open state store")
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	subscriptions := repository.NewSubscriptionRepository(pool)
	snapshots := repository.NewSnapshotSource(subscriptions, repository.NewBudgetRepository(pool))
	settingsService := settings.NewService(stateStore)
	rates := exchange.NewCachedService(
		exchange.NewFrankfurterClient(cfg.ExchangeRateBaseURL, cfg.ExchangeRateTimeout),
		cfg.ExchangeRateCacheTTL,
	)
	converter := exchange.NewNormalizer(rates, cfg.BaseCurrency)
	clock := engine.SystemClock(cfg.Location)

	registry := rules.Default()
	logger.Log.Info().Strs("rules", registry.Names()).Msg("Notification rules registered")

	var telegramBot *bot.Bot
	eng := engine.New(engine.Deps{
		Clock:     clock,
		Snapshots: snapshots,
		Settings:  settingsService,
		Store:     stateStore,
		Channel: engine.ChannelFunc(func(ctx context.Context, d engine.Delivery) error {
			return telegramBot.Deliver(ctx, d)
		}),
		Registry:  registry,
		Converter: converter,
		Charts:    bot.GenerateBudgetChart,
		Metrics:   m,
	}, engine.Config{
		Cooldown:        cfg.Cooldown,
		DeliveryTimeout: cfg.DeliveryTimeout,
		LogCap:          cfg.LogCap,
		Currency:        cfg.BaseCurrency,
	})

	telegramBot, err = bot.New(cfg, bot.Deps{
		Notifications: eng,
		Subscriptions: subscriptions,
		Settings:      settingsService,
		Snapshots:     snapshots,
		Converter:     converter,
		Clock:         clock,
	})
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to create bot")
	}

	runner := engine.NewRunner(eng, cfg.CheckInterval)
	settingsService.OnChange(runner.Trigger)
	if err := runner.Start(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to start notification runner")
	}

	metricsServer := startMetricsServer(cfg.MetricsAddr, m)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		logger.Log.Info().Msg("Shutting down...")
		cancel()
	}()

	telegramBot.Start(ctx)

	runner.Stop()
	eng.Wait()

	if metricsServer != nil {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Log.Warn().Err(err).Msg("Failed to shut down metrics server")
		}
	}
}

// openStateStore returns the configured engine state store. The Redis client
// is returned so the caller can close it.
func openStateStore(ctx context.Context, cfg *config.Config, db database.PGXDB) (store.Store, *redis.Client, error) {
	switch cfg.StateStore {
	case config.StateStoreRedis:
		client, err := store.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return store.NewRedisStore(client), client, nil
	case config.StateStoreMemory:
		logger.Log.Warn().Msg("Using in-memory state store, notification history is lost on restart")
		return store.NewMemoryStore(), nil, nil
	default:
		return repository.NewStateRepository(db), nil, nil
	}
}

// startMetricsServer serves /metrics when addr is set.
func startMetricsServer(addr string, m *metrics.Metrics) *http.Server {
	if addr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Log.Info().Str("addr", addr).Msg("Metrics server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error().Err(err).Msg("Metrics server failed")
		}
	}()

	return srv
}
