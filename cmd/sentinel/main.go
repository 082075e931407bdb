package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"sentinel/internal/adapters/config"
	"sentinel/internal/adapters/errors/noop"
	"sentinel/internal/adapters/errors/sentry"
	"sentinel/internal/adapters/kafka"
	"sentinel/internal/adapters/postgres"
	"sentinel/internal/adapters/redis"
	"sentinel/internal/adapters/telegram"
	"sentinel/internal/domain/wallet"
	"sentinel/internal/ledger"
	"sentinel/internal/metrics"
	"sentinel/internal/oracle"
	"sentinel/internal/protocols"
	pgrepo "sentinel/internal/repository/postgres"
	redisrepo "sentinel/internal/repository/redis"
	"sentinel/internal/services/monitor"
	"sentinel/internal/workers"
	"sentinel/pkg/errors"
	"sentinel/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	log := logger.Get()
	log.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	errorTracker := initErrorTracker(cfg, log)
	logger.SetErrorTracker(errorTracker)

	metrics.Register()

	// Risk pipeline
	priceOracle := oracle.NewFromConfig(cfg.Oracle)
	registry := buildRegistry(cfg, priceOracle, log)
	aggregator := protocols.NewAggregator(registry, cfg.Protocols.FetchTimeout)
	book := ledger.New()

	opts, walletRepo, closers := buildCollaborators(cfg, log)
	defer func() {
		for _, close := range closers {
			if err := close(); err != nil {
				log.Warnf("Close failed: %v", err)
			}
		}
	}()

	orchestrator := monitor.NewOrchestrator(book, aggregator, opts...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Resume persisted state when a repository is available; otherwise fall
	// back to a fresh initialization from the environment
	resumed := false
	if walletRepo != nil {
		if err := orchestrator.Resume(ctx, cfg.Monitor.Wallet); err != nil {
			if errors.Is(err, errors.ErrNotFound) {
				log.Info("No persisted monitoring state to resume")
			} else {
				log.Warnf("Failed to resume persisted state: %v", err)
			}
		} else {
			resumed = true
		}
	}

	if !resumed {
		if cfg.Monitor.Wallet != "" {
			if err := orchestrator.Initialize(ctx, monitor.InitializeInput{
				Wallet:            cfg.Monitor.Wallet,
				ProtocolIDs:       cfg.Monitor.Protocols,
				AlertThresholdPct: &cfg.Monitor.AlertThresholdPct,
			}); err != nil {
				log.Fatalf("Failed to initialize monitoring: %v", err)
			}
		} else {
			log.Warn("MONITOR_WALLET not set, monitoring idle until a wallet is configured")
		}
	}

	// Workers
	scheduler := workers.NewScheduler()
	scheduler.RegisterWorker(workers.NewMonitorWorker(
		orchestrator,
		cfg.Monitor.CycleInterval,
		cfg.Monitor.DiscoveryEvery,
	))
	if err := scheduler.Start(ctx); err != nil {
		log.Fatalf("Failed to start workers: %v", err)
	}

	// Metrics endpoint
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewServer(cfg.Metrics.Addr)
		go func() {
			log.Infof("Metrics listening on %s", cfg.Metrics.Addr)
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Errorf("Metrics server failed: %v", err)
			}
		}()
	}

	log.Info("System initialized successfully")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Infof("Received signal %s, shutting down", sig)

	cancel()
	if err := scheduler.Stop(); err != nil {
		log.Warnf("Worker shutdown: %v", err)
	}
	if metricsServer != nil {
		_ = metricsServer.Close()
	}
	_ = errorTracker.Flush(context.Background())
}

// initErrorTracker initializes error tracking (Sentry or no-op)
func initErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return noop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return noop.New()
	}

	log.Info("Error tracking initialized (Sentry)")
	return tracker
}

// buildRegistry registers a protocol adapter for every configured endpoint
func buildRegistry(cfg *config.Config, priceOracle oracle.Oracle, log *logger.Logger) *protocols.Registry {
	registry := protocols.NewRegistry()
	client := &http.Client{Timeout: cfg.Protocols.FetchTimeout}

	if cfg.Protocols.AaveEndpoint != "" {
		registry.Register(protocols.NewAave(cfg.Protocols.AaveEndpoint, client, priceOracle))
	}
	if cfg.Protocols.CompoundEndpoint != "" {
		registry.Register(protocols.NewCompound(cfg.Protocols.CompoundEndpoint, client, priceOracle))
	}
	if cfg.Protocols.CurveEndpoint != "" {
		registry.Register(protocols.NewCurve(cfg.Protocols.CurveEndpoint, client, priceOracle))
	}

	log.Infof("Registered protocols: %v", registry.IDs())
	return registry
}

// buildCollaborators wires the optional side channels: snapshot store,
// event stream, human alerts, config persistence. Each one is skipped when
// its backend is not configured. The wallet repository is also returned
// directly so bootstrap can resume persisted state.
func buildCollaborators(cfg *config.Config, log *logger.Logger) ([]monitor.Option, wallet.Repository, []func() error) {
	var opts []monitor.Option
	var walletRepo wallet.Repository
	var closers []func() error

	if cfg.Redis.Enabled() {
		redisClient, err := redis.NewClient(cfg.Redis)
		if err != nil {
			log.Warnf("Redis unavailable, snapshots kept in memory only: %v", err)
		} else {
			opts = append(opts, monitor.WithSnapshotStore(redisrepo.NewSnapshotStore(redisClient)))
			closers = append(closers, redisClient.Close)
			log.Info("Snapshot store initialized (Redis)")
		}
	}

	if cfg.Postgres.Enabled() {
		pgClient, err := postgres.NewClient(cfg.Postgres)
		if err != nil {
			log.Warnf("Postgres unavailable, wallet config not persisted: %v", err)
		} else {
			walletRepo = pgrepo.NewWalletRepository(pgClient.DB())
			opts = append(opts, monitor.WithWalletRepository(walletRepo))
			closers = append(closers, pgClient.Close)
			log.Info("Wallet repository initialized (Postgres)")
		}
	}

	if cfg.Kafka.Enabled() {
		producer := kafka.NewProducer(cfg.Kafka.Brokers)
		opts = append(opts, monitor.WithPublisher(kafka.NewSnapshotPublisher(producer)))
		closers = append(closers, producer.Close)
		log.Info("Snapshot publisher initialized (Kafka)")
	}

	if cfg.Telegram.Enabled() {
		alerter, err := telegram.NewAlerter(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			log.Warnf("Telegram unavailable, threshold alerts disabled: %v", err)
		} else {
			opts = append(opts, monitor.WithNotifier(alerter))
			log.Info("Alert notifier initialized (Telegram)")
		}
	}

	return opts, walletRepo, closers
}
