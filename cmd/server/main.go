package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"bloodbank/internal/approval"
	"bloodbank/internal/ledger"
	"bloodbank/internal/notify"
	"bloodbank/internal/orchestrator"
	"bloodbank/internal/platform/config"
	"bloodbank/internal/platform/httpserver"
	"bloodbank/internal/platform/logger"
	"bloodbank/internal/platform/metrics"
	"bloodbank/internal/platform/postgres"
	platformredis "bloodbank/internal/platform/redis"
	"bloodbank/internal/ratelimit"
	httptransport "bloodbank/internal/transport/http"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stock ledger: in-memory by default, postgres when a DSN is set.
	var stock ledger.Ledger
	if cfg.PostgresDSN != "" {
		pool, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Error("postgres connection failed", "error", err.Error())
			os.Exit(1)
		}
		defer pool.Close()

		pg := ledger.NewPostgresLedger(pool, ledger.WithPostgresMetrics(m))
		if err := pg.Migrate(ctx); err != nil {
			log.Error("ledger migration failed", "error", err.Error())
			os.Exit(1)
		}
		stock = pg
	} else {
		stock = ledger.NewInMemoryLedger(ledger.WithMetrics(m))
	}

	// Notification sink: kafka when brokers are configured, else the log.
	var sink notify.Sink
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err := notify.NewKafkaSink(cfg.KafkaBrokers, cfg.NotifyTopic)
		if err != nil {
			log.Error("kafka sink setup failed", "error", err.Error())
			os.Exit(1)
		}
		defer kafkaSink.Close()
		sink = kafkaSink
	} else {
		sink = notify.NewLogSink(log)
	}
	notifier := notify.New(sink, log)

	workflow, err := approval.New(
		approval.NewInMemoryRequestStore(),
		approval.NewInMemoryDonationStore(),
		stock,
		approval.WithLogger(log),
		approval.WithMetrics(m),
		approval.WithNotifier(notifier),
	)
	if err != nil {
		log.Error("approval service setup failed", "error", err.Error())
		os.Exit(1)
	}

	limiter, err := buildLimiter(cfg)
	if err != nil {
		log.Error("rate limiter setup failed", "error", err.Error())
		os.Exit(1)
	}

	orch := orchestrator.New(limiter, workflow,
		orchestrator.WithLogger(log),
		orchestrator.WithMetrics(m),
		orchestrator.WithDisabled(cfg.RateLimitDisabled),
	)

	handler := httptransport.NewHandler(workflow, orch, stock, log)
	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(handler, m))

	log.Info("starting bloodbank", "addr", cfg.Addr, "limiter", string(cfg.RateLimiter))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := notifier.Run(gctx); err != nil && err != context.Canceled {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err.Error())
		os.Exit(1)
	}
}

func buildLimiter(cfg config.Config) (ratelimit.Limiter, error) {
	switch cfg.RateLimiter {
	case config.LimiterTokenBucket:
		rps := float64(cfg.RateLimit) / cfg.RateWindow.Seconds()
		return ratelimit.NewTokenBucket(rps, cfg.RateLimit), nil
	case config.LimiterRedis:
		client, err := platformredis.New(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		if client == nil {
			return nil, errors.New("BLOODBANK_REDIS_URL is required for the redis limiter")
		}
		return ratelimit.NewRedisWindow(client.Client, cfg.RateLimit, cfg.RateWindow), nil
	default:
		return ratelimit.NewFixedWindow(cfg.RateLimit, cfg.RateWindow), nil
	}
}
