package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kkkkikiki/promo/internal/cache"
	"github.com/kkkkikiki/promo/internal/clock"
	"github.com/kkkkikiki/promo/internal/config"
	"github.com/kkkkikiki/promo/internal/database"
	"github.com/kkkkikiki/promo/internal/logger"
	"github.com/kkkkikiki/promo/internal/middleware"
	"github.com/kkkkikiki/promo/internal/repository"
	"github.com/kkkkikiki/promo/internal/rpc"
	"github.com/kkkkikiki/promo/internal/service"
)

const sweepLockKey = "promo:lock:lifecycle-sweep"

func main() {
	ctx := context.Background()

	// Load configuration from environment variables
	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel(), cfg.Log.Format)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zl.Sync()

	zl.Info("starting promo service",
		zap.String("environment", cfg.App.Environment),
		zap.String("store", cfg.Database.Driver),
	)

	// Storage
	var (
		store       repository.CampaignStore
		redisClient *redis.Client
		dbHealth    func(context.Context) error
	)
	switch cfg.Database.Driver {
	case "postgres":
		db, err := database.NewDB(ctx, cfg, zl)
		if err != nil {
			zl.Fatal("failed to connect to database", zap.Error(err))
		}
		defer func() {
			if err := db.Close(); err != nil {
				zl.Error("error closing database connections", zap.Error(err))
			}
		}()
		if cfg.Database.Migrate {
			if err := database.Migrate(ctx, db.Postgres); err != nil {
				zl.Fatal("failed to migrate schema", zap.Error(err))
			}
		}
		store = repository.NewCampaignRepository(db.Postgres)
		redisClient = db.Redis
		dbHealth = db.Postgres.PingContext
	case "memory":
		zl.Warn("using in-memory campaign store, data is lost on restart")
		store = repository.NewMemoryCampaignRepository()
		if cfg.Redis.Enabled {
			redisClient, err = database.NewRedis(ctx, cfg.Redis, zl)
			if err != nil {
				zl.Fatal("failed to connect to Redis", zap.Error(err))
			}
			defer redisClient.Close()
		}
		dbHealth = func(context.Context) error { return nil }
	}

	// Active campaign lookups go through Redis when it is configured
	var (
		active      repository.ActiveFinder = store
		invalidator service.Invalidator     = service.NopInvalidator
		sweepLock   service.SweepLock
	)
	if redisClient != nil {
		activeCache := cache.NewActiveCampaignCache(redisClient, store, cfg.Redis.CacheTTL, zl)
		active = activeCache
		invalidator = activeCache
		sweepLock = cache.NewLock(redisClient, sweepLockKey, cfg.Scheduler.LockTTL, zl)
	}

	clk := clock.System{}
	campaigns := service.NewCampaignService(store, active, invalidator, clk, zl)
	lifecycle := service.NewLifecycleManager(store, invalidator, clk, zl)
	resolver := service.NewDiscountResolver(active, clk, service.BadgeDefaults{
		Text:          cfg.Discount.DefaultBadgeText,
		TextLocalized: cfg.Discount.DefaultBadgeTextLocalized,
	}, zl)
	analytics := service.NewAnalyticsAccumulator(store, zl)

	runCtx, stopBackground := context.WithCancel(ctx)
	defer stopBackground()
	if cfg.Scheduler.Enabled {
		sweeper := service.NewSweeper(lifecycle, cfg.Scheduler.SweepInterval, sweepLock, zl)
		go sweeper.Run(runCtx)
	}

	// Create HTTP mux
	mux := http.NewServeMux()

	path, handler := rpc.NewCampaignServiceHandler(rpc.NewCampaignServer(campaigns, lifecycle, resolver, analytics, zl))
	mux.Handle(path, handler)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		hostname, _ := os.Hostname()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"ok","service":"promo","hostname":"%s"}`, hostname)
	})

	mux.HandleFunc("/health/db", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := dbHealth(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"error","message":"store unavailable"}`))
			return
		}
		if redisClient != nil {
			if err := redisClient.Ping(r.Context()).Err(); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status":"error","message":"redis unavailable"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"ok","store":"%s"}`, cfg.Database.Driver)
	})

	mux.Handle("/metrics", promhttp.Handler())

	var root http.Handler = mux
	root = middleware.NewRateLimit(cfg.RateLimit, zl).Handler(root)
	root = middleware.NewLogging(zl).Handler(root)

	server := &http.Server{
		Addr:           cfg.Server.GetServerAddr(),
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
		// h2c serves HTTP/2 without TLS
		Handler: h2c.NewHandler(root, &http2.Server{
			MaxConcurrentStreams: 1000,
		}),
	}

	go func() {
		zl.Info("listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zl.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zl.Info("shutting down server")
	stopBackground()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zl.Error("server forced to shutdown", zap.Error(err))
		return
	}

	zl.Info("server exited gracefully")
}
