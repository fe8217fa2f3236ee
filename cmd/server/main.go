package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sendcore/pkg/platform/middleware/request"
	"sendcore/pkg/platform/middleware/requesttime"

	"sendcore/internal/billing"
	"sendcore/internal/compliance"
	"sendcore/internal/events"
	"sendcore/internal/notify"
	"sendcore/internal/platform/config"
	"sendcore/internal/platform/httpserver"
	"sendcore/internal/platform/logger"
	"sendcore/internal/platform/middleware"
	"sendcore/internal/platform/postgres"
	"sendcore/internal/platform/redis"
	"sendcore/internal/registration/handler"
	"sendcore/internal/registration/lock"
	regmetrics "sendcore/internal/registration/metrics"
	"sendcore/internal/registration/reconciler"
	"sendcore/internal/registration/saga"
	"sendcore/internal/registration/store"
)

// main wires dependencies and keeps the server lifecycle small. Backends are
// selected by configuration: Postgres, Redis and Kafka each fall back to an
// in-process implementation when unconfigured, so a bare binary runs locally.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx := context.Background()

	// Profile store: Postgres when configured, in-memory otherwise.
	var profiles store.ProfileStore
	pool, err := postgres.New(ctx, cfg.Postgres)
	if err != nil {
		log.Error("postgres init failed", "error", err)
		os.Exit(1)
	}
	if pool != nil {
		pg := store.NewPostgres(pool)
		if err := pg.Migrate(ctx); err != nil {
			log.Error("postgres migration failed", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		profiles = pg
		log.Info("using postgres profile store")
	} else {
		profiles = store.NewInMemory()
		log.Warn("DATABASE_URL not set, using in-memory profile store")
	}

	// Registration locks: Redis when configured, in-process otherwise.
	var locks lock.TenantLock
	rdb, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		log.Error("redis init failed", "error", err)
		os.Exit(1)
	}
	if rdb != nil {
		defer rdb.Close()
		locks = lock.NewRedis(rdb.Client)
		log.Info("using redis registration locks")
	} else {
		locks = lock.NewInMemory()
		log.Warn("REDIS_URL not set, registration locks are per-process only")
	}

	// Status events: Kafka when configured, in-process sink otherwise.
	var publisher events.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafka, err := events.NewKafka(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			log.Error("kafka init failed", "error", err)
			os.Exit(1)
		}
		publisher = kafka
		log.Info("publishing status events to kafka", "topic", cfg.Kafka.Topic)
	} else {
		publisher = events.NewMemory()
		log.Warn("KAFKA_BROKERS not set, status events stay in-process")
	}
	defer publisher.Close()

	// Compliance authority: live client when configured, fake otherwise.
	var client compliance.Client
	if cfg.Compliance.BaseURL != "" {
		client = compliance.NewHTTPClient(compliance.HTTPConfig{
			BaseURL:   cfg.Compliance.BaseURL,
			APIKey:    cfg.Compliance.APIKey,
			APISecret: cfg.Compliance.APISecret,
			Timeout:   cfg.Compliance.Timeout,
		})
	} else {
		client = compliance.NewFake()
		log.Warn("COMPLIANCE_BASE_URL not set, using fake compliance authority")
	}

	m := regmetrics.New()
	notifier := notify.NewLogNotifier(log)
	charger := billing.NewNoopCharger(log)

	orchestrator := saga.New(client, profiles, locks, saga.Config{
		PrimaryProfileID:     cfg.Compliance.PrimaryProfileID,
		ProfilePolicyID:      cfg.Compliance.ProfilePolicyID,
		TrustProductPolicyID: cfg.Compliance.TrustProductPolicyID,
		NotifyEmail:          cfg.Compliance.NotifyEmail,
		StatusCallbackURL:    cfg.Compliance.StatusCallbackURL,
		InboundMessageURL:    cfg.Compliance.InboundMessageURL,
	}, log, m)

	rec := reconciler.New(client, profiles, notifier, charger, publisher, log, m, reconciler.SweepConfig{
		BatchSize:   cfg.Sweep.BatchSize,
		Concurrency: cfg.Sweep.Concurrency,
	})

	h := handler.New(orchestrator, rec, profiles, log)

	router := chi.NewRouter()
	router.Use(chimw.RealIP)
	router.Use(request.Middleware)
	router.Use(requesttime.Middleware)
	router.Use(chimw.Recoverer)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Tenant-facing routes require tenant identification.
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireTenant(log))
		h.Register(r)
	})
	// The vendor callback authenticates by handle resolution, not tenant.
	router.Group(func(r chi.Router) {
		h.RegisterCallback(r)
	})
	// The sweep trigger is gated by the cron secret.
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireCronKey(cfg.Cron.Secret, log))
		h.RegisterSync(r)
	})

	srv := httpserver.New(cfg.Server.Addr, router)

	log.Info("starting sendcore registration service", "addr", cfg.Server.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}
