// Package main is the entry point of the Arena Hub gamification service.
//
// The service owns the competitive layer of the platform: ELO ratings, the
// rating history ledger, achievements, and leaderboards. It consumes match
// outcomes from the event bus, serves the real-time chat gateway, and runs
// the background reconciliation and cache-refresh jobs.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/codm-arena/arena-hub/config"
	"github.com/codm-arena/arena-hub/internal/application/command"
	"github.com/codm-arena/arena-hub/internal/application/eventhandler"
	"github.com/codm-arena/arena-hub/internal/application/query"
	"github.com/codm-arena/arena-hub/internal/infrastructure/messaging"
	"github.com/codm-arena/arena-hub/internal/infrastructure/persistence/postgres"
	"github.com/codm-arena/arena-hub/internal/infrastructure/persistence/redis"
	"github.com/codm-arena/arena-hub/internal/infrastructure/scheduler"
	"github.com/codm-arena/arena-hub/internal/infrastructure/scheduler/jobs"
	"github.com/codm-arena/arena-hub/internal/interface/ws"
	"github.com/codm-arena/arena-hub/pkg/keymutex"
	"github.com/codm-arena/arena-hub/pkg/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := logger.New(os.Stdout, logger.ParseLevel(cfg.Observability.LogLevel))
	slogger := setupSlog(cfg)
	log.Info("starting arena hub",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. DATABASE
	// ─────────────────────────────────────────────────────────────────────────
	conn, err := postgres.NewConnection(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer conn.Close()
	log.Info("database connection established")

	if cfg.Database.Migrate {
		migrator := postgres.NewMigrator(conn)
		if err := migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("database schema is up to date")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. REDIS (optional)
	// ─────────────────────────────────────────────────────────────────────────
	var leaderboardCache *redis.LeaderboardCache
	if !cfg.Redis.Disabled {
		cache, err := redis.NewCache(cfg.Redis)
		if err != nil {
			log.Warn("redis unavailable, leaderboard caching disabled", logger.Err(err))
		} else {
			defer cache.Close()
			leaderboardCache = redis.NewLeaderboardCache(cache, cfg.Redis.LeaderboardTTL)
			log.Info("redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	busCfg := messaging.DefaultInMemoryEventBusConfig()
	busCfg.Logger = slogger
	bus := messaging.NewInMemoryEventBus(busCfg)
	defer bus.Close()

	// ─────────────────────────────────────────────────────────────────────────
	// 6. REPOSITORIES AND APPLICATION SERVICES
	// ─────────────────────────────────────────────────────────────────────────
	statsRepo := postgres.NewStatsRepository(conn)
	historyRepo := postgres.NewHistoryRepository(conn)
	catalogRepo := postgres.NewCatalogRepository(conn)
	unlockRepo := postgres.NewUnlockRepository(conn)
	boardRepo := postgres.NewLeaderboardRepository(conn)

	locks := keymutex.New()

	achievements := command.NewCheckAchievementsHandler(statsRepo, catalogRepo, unlockRepo, bus, log)
	matches := command.NewMatchResultHandler(
		statsRepo, locks, achievements, invalidator(leaderboardCache), bus,
		cfg.Gamification.LockWait, cfg.Gamification.ConflictRetries, log,
	)
	adjust := command.NewAdjustRatingHandler(
		statsRepo, locks, invalidator(leaderboardCache), bus,
		cfg.Gamification.LockWait, log,
	)
	counters := command.NewIncrementCountersHandler(statsRepo, locks, achievements, cfg.Gamification.LockWait, log)
	register := command.NewRegisterPlayerHandler(statsRepo, achievements, log)

	leaderboards := query.NewLeaderboardQuery(boardRepo, pageCache(leaderboardCache), cfg.Gamification.MaxLeaderboardLimit, log)
	history := query.NewHistoryQuery(historyRepo, cfg.Gamification.MaxHistoryLimit)
	achievementList := query.NewAchievementsQuery(catalogRepo, unlockRepo)
	playerStats := query.NewStatsQuery(statsRepo)

	services := &ws.Services{
		Register:     register,
		Adjust:       adjust,
		Counters:     counters,
		Leaderboards: leaderboards,
		History:      history,
		Achievements: achievementList,
		Stats:        playerStats,
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. EVENT SUBSCRIPTIONS
	// ─────────────────────────────────────────────────────────────────────────
	if err := eventhandler.NewMatchCompletedHandler(matches, log).Register(bus); err != nil {
		return fmt.Errorf("failed to subscribe match handler: %w", err)
	}
	if err := eventhandler.NewChatMessageHandler(achievements, log).Register(bus); err != nil {
		return fmt.Errorf("failed to subscribe chat handler: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. SCHEDULER
	// ─────────────────────────────────────────────────────────────────────────
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched = scheduler.New(scheduler.Config{
			Logger:            slogger,
			MaxConcurrentJobs: cfg.Scheduler.MaxConcurrentJobs,
			JobTimeout:        cfg.Scheduler.JobTimeout,
		})

		reconcile := jobs.NewReconcileAchievementsJob(statsRepo, achievements, slogger)
		if err := sched.Register(reconcile, scheduler.After(time.Minute, scheduler.Every(cfg.Scheduler.ReconcileAchievementsInterval))); err != nil {
			return fmt.Errorf("failed to register reconcile job: %w", err)
		}

		if leaderboardCache != nil {
			refresh := jobs.NewRefreshLeaderboardJob(boardRepo, leaderboardCache, cfg.Gamification.MaxLeaderboardLimit, slogger)
			if err := sched.Register(refresh, scheduler.Every(cfg.Scheduler.RefreshLeaderboardInterval)); err != nil {
				return fmt.Errorf("failed to register refresh job: %w", err)
			}
		}

		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 9. CHAT GATEWAY
	// ─────────────────────────────────────────────────────────────────────────
	var hub *ws.Hub
	var gateway *ws.Server
	serverErr := make(chan error, 1)
	if cfg.Chat.Enabled {
		hub = ws.NewHub(cfg.Chat, bus, services, log)
		if err := hub.RegisterNotifications(bus); err != nil {
			return fmt.Errorf("failed to subscribe gateway notifications: %w", err)
		}
		go hub.Run()

		gateway = ws.NewServer(cfg.Chat, hub, log)
		go func() {
			serverErr <- gateway.Start()
		}()
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 10. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("arena hub is running")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", logger.String("signal", sig.String()))
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("gateway failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if gateway != nil {
		if err := gateway.Shutdown(shutdownCtx); err != nil {
			log.Warn("gateway shutdown failed", logger.Err(err))
		}
	}
	if hub != nil {
		hub.Stop()
	}
	if sched != nil {
		if err := sched.Stop(); err != nil {
			log.Warn("scheduler shutdown failed", logger.Err(err))
		}
	}

	log.Info("shutdown completed")
	return nil
}

// invalidator adapts the optional cache to the command layer's interface
// without handing it a typed nil.
func invalidator(cache *redis.LeaderboardCache) command.LeaderboardInvalidator {
	if cache == nil {
		return nil
	}
	return cache
}

// pageCache does the same for the query layer.
func pageCache(cache *redis.LeaderboardCache) query.LeaderboardPageCache {
	if cache == nil {
		return nil
	}
	return cache
}

// setupSlog configures the structured logger used by the infrastructure
// packages (event bus, scheduler).
func setupSlog(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.Observability.LogFormat == "json" || cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)
	return log
}
