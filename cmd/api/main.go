package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"calldash/internal/audit"
	"calldash/internal/auth"
	"calldash/internal/config"
	"calldash/internal/httpapi"
	"calldash/internal/normalize"
	"calldash/internal/provider"
	"calldash/internal/store"
	syncsvc "calldash/internal/sync"
	"calldash/internal/users"
	"calldash/pkg/logger"
	"calldash/pkg/utils"
)

func main() {
	// Root context that cancels on shutdown.
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Missing .env is fine; real deployments set env vars directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)
	rootCtx = logger.With(rootCtx, log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	deps, cleanup, err := buildDeps(rootCtx, cfg, log)
	if err != nil {
		log.Error("dependency init failed", "err", err)
		os.Exit(1)
	}
	defer cleanup()

	normalizer := normalize.New(cfg.Business.DefaultCostPerMinute)
	historySvc := audit.NewService(deps.history)
	userSvc := users.NewService(deps.users)
	syncService := syncsvc.NewService(deps.fetcher, normalizer, deps.calls, deps.locker, historySvc, cfg.Provider)

	if !cfg.IsProduction() {
		if err := userSvc.SeedDefaults(rootCtx, cfg.Provider.AgentID); err != nil {
			log.Error("seed default users failed", "err", err)
			os.Exit(1)
		}
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	httpapi.RegisterRoutes(r, httpapi.Handlers{
		Auth:        authManager,
		Users:       userSvc,
		Sync:        syncService,
		Repo:        deps.calls,
		History:     historySvc,
		DefaultRate: cfg.Business.DefaultCostPerMinute,
		Ready:       deps.ready,
	})

	// Warm the store before serving, then keep it fresh in the background.
	go func() {
		if _, err := syncService.Sync(rootCtx, audit.TriggerStartup); err != nil && !errors.Is(err, syncsvc.ErrSyncInProgress) {
			log.Warn("startup sync failed", "err", err)
		}
	}()
	scheduler := syncsvc.NewScheduler(syncService, cfg.Provider.SyncInterval)
	go scheduler.Run(rootCtx)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env, "provider", deps.fetcher.Name())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
	scheduler.Wait()
}

// deps bundles the storage and provider implementations for one profile.
type deps struct {
	calls   store.Repository
	users   users.Repository
	history audit.Repository
	locker  syncsvc.Locker
	fetcher provider.CallFetcher
	ready   func(context.Context) error
}

// buildDeps picks the simulator profile (everything in memory, no infra
// required) or the full Postgres/Redis profile. Config validation already
// rejected the simulator in production.
func buildDeps(ctx context.Context, cfg config.Config, log *slog.Logger) (deps, func(), error) {
	if cfg.Provider.UseSimulator {
		log.Info("running with simulated provider and in-memory storage")
		return deps{
			calls:   store.NewMemoryRepo(),
			users:   users.NewMemoryRepo(),
			history: audit.NewMemoryRepo(),
			locker:  syncsvc.NewLocalLocker(),
			fetcher: provider.NewSimulator(cfg.Provider.AgentID),
		}, func() {}, nil
	}

	db, err := utils.OpenPostgres(ctx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		return deps{}, nil, err
	}

	rdb, err := utils.OpenRedis(ctx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		db.Close()
		return deps{}, nil, err
	}

	fetcher, err := buildFetcher(cfg)
	if err != nil {
		rdb.Close()
		db.Close()
		return deps{}, nil, err
	}

	cleanup := func() {
		rdb.Close()
		db.Close()
	}
	return deps{
		calls:   store.NewPostgresRepo(db),
		users:   users.NewPostgresRepo(db),
		history: audit.NewPostgresRepo(db),
		locker:  syncsvc.NewRedisLocker(rdb),
		fetcher: fetcher,
		ready: func(ctx context.Context) error {
			return utils.HealthCheck(ctx, db, 2*time.Second)
		},
	}, cleanup, nil
}

func buildFetcher(cfg config.Config) (provider.CallFetcher, error) {
	client, err := provider.NewRetellClient(cfg.Provider)
	if err != nil {
		return nil, err
	}
	if cfg.IsProduction() {
		return client, nil
	}
	// Outside production a provider outage falls back to simulated data so
	// the dashboard stays demoable.
	return &provider.FallbackFetcher{Primary: client, Fallback: provider.NewSimulator(cfg.Provider.AgentID)}, nil
}
