package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/tableorder-backend/api"
	"github.com/angelmondragon/tableorder-backend/api/routes"
	"github.com/angelmondragon/tableorder-backend/internal/auth"
	"github.com/angelmondragon/tableorder-backend/internal/broadcast"
	"github.com/angelmondragon/tableorder-backend/internal/cron"
	"github.com/angelmondragon/tableorder-backend/internal/menus"
	"github.com/angelmondragon/tableorder-backend/internal/orders"
	"github.com/angelmondragon/tableorder-backend/internal/reports"
	"github.com/angelmondragon/tableorder-backend/internal/sessions"
	"github.com/angelmondragon/tableorder-backend/internal/stores"
	"github.com/angelmondragon/tableorder-backend/internal/tables"
	"github.com/angelmondragon/tableorder-backend/pkg/config"
	"github.com/angelmondragon/tableorder-backend/pkg/db"
	"github.com/angelmondragon/tableorder-backend/pkg/instance"
	"github.com/angelmondragon/tableorder-backend/pkg/logger"
	"github.com/angelmondragon/tableorder-backend/pkg/metrics"
	"github.com/angelmondragon/tableorder-backend/pkg/migrate"
	"github.com/angelmondragon/tableorder-backend/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: cfg.App.Name,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api exited with error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.App.Location()
	if err != nil {
		return err
	}

	dbClient, err := db.New(ctx, cfg.DB, db.Options{UseSQLite: cfg.FeatureFlags.UseSQLite}, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	hub := broadcast.NewHub(broadcast.Options{
		Buffer:  cfg.Stream.SubscriberBuffer,
		Logger:  logg,
		Metrics: metrics.NewStreamMetrics(registry),
	})
	defer hub.Close()

	gdb := dbClient.DB()

	sessionManager, err := sessions.NewManager(sessions.ManagerParams{
		Repo:      sessions.NewRepository(gdb),
		Tx:        dbClient,
		Publisher: hub,
		Password:  cfg.Password,
		Logger:    logg,
	})
	if err != nil {
		return err
	}

	orderService, err := orders.NewService(orders.NewRepository(gdb), dbClient, hub, logg)
	if err != nil {
		return err
	}

	menuService, err := menus.NewService(menus.ServiceParams{
		Repo:     menus.NewRepository(gdb),
		Tx:       dbClient,
		Cache:    redisClient,
		CacheTTL: cfg.Cache.MenuTTL,
		Logger:   logg,
	})
	if err != nil {
		return err
	}

	tableService, err := tables.NewService(tables.NewRepository(gdb), sessionManager, cfg.Password)
	if err != nil {
		return err
	}

	storeRepo := stores.NewRepository(gdb)
	storeService, err := stores.NewService(storeRepo, cfg.Password)
	if err != nil {
		return err
	}

	reportService, err := reports.NewService(reports.NewRepository(gdb), loc)
	if err != nil {
		return err
	}

	authService, err := auth.NewService(auth.ServiceParams{
		Stores:    storeRepo,
		Sessions:  sessionManager,
		JWTConfig: cfg.JWT,
	})
	if err != nil {
		return err
	}

	handler := routes.NewRouter(
		cfg,
		logg,
		dbClient,
		redisClient,
		registry,
		hub,
		authService,
		storeService,
		menuService,
		orderService,
		tableService,
		reportService,
	)
	server := api.NewServer(ctx, cfg, handler)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logg.Info(logg.WithFields(gctx, map[string]any{
			"env":      cfg.App.Env,
			"addr":     server.Addr,
			"instance": instance.GetID(),
		}), "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logg.Info(shutdownCtx, "shutting down api server")
		return server.Shutdown(shutdownCtx)
	})

	if cfg.Cron.Enabled {
		cronService, err := buildCron(cfg, logg, redisClient, registry, sessionManager, tableService)
		if err != nil {
			return err
		}
		if cronService != nil {
			g.Go(func() error {
				return cronService.Run(gctx)
			})
		}
	}

	return g.Wait()
}

func buildCron(
	cfg *config.Config,
	logg *logger.Logger,
	redisClient *redis.Client,
	registry prometheus.Registerer,
	sessionManager sessions.Manager,
	tableService tables.Service,
) (*cron.Service, error) {
	var jobs []cron.Job
	if cfg.Cron.StaleSessionAfter > 0 {
		job, err := cron.NewStaleSessionJob(cron.StaleSessionJobParams{
			Logger:   logg,
			Sessions: sessionManager,
			MaxAge:   cfg.Cron.StaleSessionAfter,
		})
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	if cfg.Cron.HistoryRetention > 0 {
		job, err := cron.NewHistoryRetentionJob(cron.HistoryRetentionJobParams{
			Logger:    logg,
			History:   tableService,
			Retention: cfg.Cron.HistoryRetention,
		})
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	if len(jobs) == 0 {
		logg.Info(context.Background(), "cron enabled without jobs; skipping")
		return nil, nil
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("cron"), cfg.Cron.LockTTL)
	if err != nil {
		return nil, err
	}

	jobRegistry, err := cron.NewRegistry(jobs...)
	if err != nil {
		return nil, err
	}

	return cron.NewService(cron.ServiceParams{
		Logger:     logg,
		Registry:   jobRegistry,
		Lock:       lock,
		Metrics:    metrics.NewCronJobMetrics(registry),
		Interval:   cfg.Cron.Interval,
		JobTimeout: cfg.Cron.JobTimeout,
	})
}
