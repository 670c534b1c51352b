package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"hemabank/internal/donation/events"
	"hemabank/internal/donation/handler"
	donationmetrics "hemabank/internal/donation/metrics"
	"hemabank/internal/donation/service"
	"hemabank/internal/donation/store"
	httpapi "hemabank/internal/http"
	"hemabank/internal/notify"
	"hemabank/internal/platform/config"
	"hemabank/internal/platform/httpserver"
	"hemabank/internal/platform/logger"
	"hemabank/internal/platform/metrics"
	"hemabank/internal/platform/middleware"
	"hemabank/internal/platform/redis"
	"hemabank/internal/sweeper"
	"hemabank/internal/token"
)

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	// Storage: PostgreSQL when configured, in-memory otherwise (dev mode).
	var st service.Store = store.NewMemory()
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Error("open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			log.Error("ping database", "error", err)
			os.Exit(1)
		}
		st = store.NewPostgres(db)
	} else {
		log.Warn("DATABASE_URL not set, using in-memory store")
	}

	// Lifecycle events: notifications always, Kafka when brokers are set.
	publishers := events.Multi{notify.NewSink(log)}
	if len(cfg.Kafka.Brokers) > 0 {
		kafka, err := events.NewKafka(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			log.Error("connect kafka", "error", err)
			os.Exit(1)
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := kafka.Close(flushCtx); err != nil {
				log.Warn("flush kafka on shutdown", "error", err)
			}
		}()
		publishers = append(publishers, kafka)
	}

	engine, err := service.New(st,
		service.WithLogger(log),
		service.WithMetrics(donationmetrics.New()),
		service.WithPublisher(publishers),
	)
	if err != nil {
		log.Error("build donation service", "error", err)
		os.Exit(1)
	}

	// Optional Redis-backed rate limiting.
	var limiter middleware.Limiter
	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		log.Error("connect redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		if cfg.RateLimit.Enabled {
			limiter = middleware.NewRedisLimiter(redisClient, cfg.RateLimit.Limit, cfg.RateLimit.Window)
		}
	}

	tokens := token.NewService(cfg.JWTSigningKey, "hemabank", "hemabank-api")
	router := httpapi.NewRouter(httpapi.Deps{
		Donation:  handler.New(engine, log),
		Validator: tokens,
		Metrics:   metrics.New(),
		Limiter:   limiter,
		Logger:    log,
	})

	if cfg.Sweep.Enabled {
		sw, err := sweeper.New(engine, cfg.Sweep.Schedule, log)
		if err != nil {
			log.Error("build sweeper", "error", err)
			os.Exit(1)
		}
		sw.Start()
		defer sw.Stop()
	}

	srv := httpserver.New(cfg.Addr, router)
	log.Info("starting hemabank", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("hemabank stopped")
}
