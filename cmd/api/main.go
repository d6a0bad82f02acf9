package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/geocoder89/taskhub/internal/auth"
	"github.com/geocoder89/taskhub/internal/cache"
	"github.com/geocoder89/taskhub/internal/config"
	"github.com/geocoder89/taskhub/internal/db"
	httpx "github.com/geocoder89/taskhub/internal/http"
	"github.com/geocoder89/taskhub/internal/http/handlers"
	"github.com/geocoder89/taskhub/internal/observability"
	"github.com/geocoder89/taskhub/internal/redisclient"
	"github.com/geocoder89/taskhub/internal/repo/memory"
	"github.com/geocoder89/taskhub/internal/repo/postgres"
	"github.com/geocoder89/taskhub/internal/security"
	"github.com/geocoder89/taskhub/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

const shutdownGrace = 10 * time.Second

func main() {
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("taskhub exited", "err", err)
		os.Exit(1)
	}
}

// backends is what the HTTP layer needs from storage, plus the readiness
// checks and the cleanup to run on the way out.
type backends struct {
	users   service.UserStore
	tasks   service.TaskStore
	stats   service.StatsCache
	checks  map[string]handlers.Pinger
	closers []func()
}

func (b *backends) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, observability.TracingConfig{
		ServiceName: cfg.OTELServiceName,
		Environment: cfg.Env,
		Endpoint:    cfg.OTELEndpoint,
		SampleRatio: cfg.OTELSampleRatio,
	})
	if err != nil {
		return fmt.Errorf("tracer init: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	prom := observability.NewProm(reg)

	b, err := openBackends(ctx, cfg, log, prom)
	if err != nil {
		return err
	}
	defer b.close()

	tokens := auth.NewManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL())
	authSvc := service.NewAuthService(b.users, security.NewHasher(cfg.BcryptCost), tokens, prom)
	taskSvc := service.NewTaskService(b.tasks,
		service.WithStatsCache(b.stats),
		service.WithLocation(cfg.StatsLocation()),
		service.WithMetrics(prom),
	)

	var draining atomic.Bool
	srv := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Port),
		Handler: httpx.NewRouter(httpx.Deps{
			Log:      log,
			Config:   cfg,
			Auth:     authSvc,
			Tasks:    taskSvc,
			Tokens:   tokens,
			Prom:     prom,
			Gatherer: reg,
			Ready:    b.checks,
			Draining: &draining,
		}),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", "addr", srv.Addr, "env", cfg.Env, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("draining connections", "grace", shutdownGrace)
		draining.Store(true)

		sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()

		err := srv.Shutdown(sctx)
		if terr := shutdownTracer(sctx); terr != nil {
			log.Warn("tracer flush failed", "err", terr)
		}
		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("shutdown complete")
	return nil
}

func openBackends(ctx context.Context, cfg config.Config, log *slog.Logger, prom *observability.Prom) (*backends, error) {
	b := &backends{checks: map[string]handlers.Pinger{}}

	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		log.Warn("using in-memory store; data is lost on restart")
		b.users = memory.NewUsersRepo()
		b.tasks = memory.NewTasksRepo()

	default:
		connectCtx, cancel := context.WithTimeout(ctx, time.Minute)
		pool, err := db.Connect(connectCtx, log, cfg.DBURL, int32(cfg.DBMaxConns), cfg.DBConnectAttempts)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		b.closers = append(b.closers, pool.Close)

		schemaCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err = db.EnsureSchema(schemaCtx, pool)
		cancel()
		if err != nil {
			b.close()
			return nil, fmt.Errorf("schema: %w", err)
		}

		b.users = postgres.NewUsersRepo(pool, prom)
		b.tasks = postgres.NewTasksRepo(pool, prom)
		b.checks["postgres"] = pool.Ping
	}

	if cfg.RedisAddr == "" {
		b.stats = cache.NewMemoryStats(cfg.StatsCacheTTL())
		return b, nil
	}

	rdb := redisclient.New(redisclient.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	b.closers = append(b.closers, func() { _ = rdb.Close() })
	b.stats = cache.NewRedisStats(rdb.Raw(), cfg.StatsCacheTTL())
	b.checks["redis"] = rdb.Ping
	log.Info("stats cache backed by redis", "addr", cfg.RedisAddr)

	return b, nil
}
