// Package main is the entry point for the Lumina gamification worker.
//
// The worker owns the write side of the gamification service: it consumes
// learning-activity commands, maintains points, levels, streaks, and badge
// awards, and periodically recomputes leaderboard ranks. Ranks are eventually
// consistent by design; the rebuild job here is what bounds their staleness.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lumina-lms/lumina-gamification/config"
	"github.com/lumina-lms/lumina-gamification/internal/application/command"
	"github.com/lumina-lms/lumina-gamification/internal/application/query"
	"github.com/lumina-lms/lumina-gamification/internal/domain/badge"
	"github.com/lumina-lms/lumina-gamification/internal/domain/leaderboard"
	"github.com/lumina-lms/lumina-gamification/internal/domain/shared"
	"github.com/lumina-lms/lumina-gamification/internal/infrastructure/messaging"
	"github.com/lumina-lms/lumina-gamification/internal/infrastructure/persistence/postgres"
	rediscache "github.com/lumina-lms/lumina-gamification/internal/infrastructure/persistence/redis"
	"github.com/lumina-lms/lumina-gamification/internal/infrastructure/scheduler"
	"github.com/lumina-lms/lumina-gamification/internal/infrastructure/scheduler/jobs"
	"github.com/lumina-lms/lumina-gamification/internal/infrastructure/service"
	"github.com/lumina-lms/lumina-gamification/pkg/logger"
)

// application groups the wired command and query handlers.
type application struct {
	AwardPoints      *command.AwardPointsHandler
	AdjustPoints     *command.AdjustPointsHandler
	RecordActivity   *command.RecordActivityHandler
	CreateBadge      *command.CreateBadgeHandler
	CheckBadges      *command.CheckAndAwardBadgesHandler
	RecomputeRanks   *command.RecomputeRanksHandler
	SideEffects      *command.SideEffects
	GetLeaderboard   *query.GetLeaderboardHandler
	GetBadgeProgress *query.GetUserBadgeProgressHandler
	GetUserState     *query.GetUserStateHandler
}

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
	// CONFIGURATION AND LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := setupLogger(cfg)
	log.Info("starting gamification worker",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// DATABASE
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbConn.Close()

	if cfg.Database.MigrateOnStart {
		log.Info("applying database migrations")
		if err := postgres.NewMigrator(dbConn).Migrate(ctx); err != nil {
			return fmt.Errorf("migrations failed: %w", err)
		}
	}

	stateRepo := postgres.NewStateRepository(dbConn)
	entryRepo := postgres.NewEntryRepository(dbConn)
	badgeRepo := postgres.NewBadgeRepository(dbConn)
	awardRepo := postgres.NewAwardRepository(dbConn)
	metricsRepo := postgres.NewMetricsRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// REDIS (optional: leaderboard reads fall back to the repository)
	// ─────────────────────────────────────────────────────────────────────────
	var lbCache leaderboard.Cache
	if !cfg.Redis.Disabled {
		cache, err := rediscache.NewCache(redisCacheConfig(cfg))
		if err != nil {
			// The cache is an optimization, not a dependency.
			log.Warn("redis unavailable, leaderboard reads will hit the database",
				logger.Err(err))
		} else {
			defer cache.Close()
			lbCache = rediscache.NewLeaderboardCache(cache)
			log.Info("redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// EVENT BUS AND COLLABORATORS
	// ─────────────────────────────────────────────────────────────────────────
	busConfig := messaging.DefaultInMemoryEventBusConfig()
	busConfig.Logger = log
	bus := messaging.NewInMemoryEventBus(busConfig)
	defer bus.Close()

	var dispatcher command.NotificationDispatcher
	if cfg.Gamification.BadgeNotifications {
		dispatcher = service.NewLoggingDispatcher(log)
	} else {
		dispatcher = service.NewNoopDispatcher()
	}
	idGen := service.NewUUIDGenerator()

	// ─────────────────────────────────────────────────────────────────────────
	// APPLICATION LAYER
	// ─────────────────────────────────────────────────────────────────────────
	evaluator := badge.NewEvaluator(metricsRepo, log)
	ledger := command.NewLedgerService(stateRepo, entryRepo)

	checkBadges := command.NewCheckAndAwardBadgesHandler(
		badgeRepo, awardRepo, evaluator, ledger, idGen, dispatcher, bus, log)
	awardPoints := command.NewAwardPointsHandler(ledger, checkBadges, dispatcher, bus, log)
	recordActivity := command.NewRecordActivityHandler(stateRepo, bus, log)
	recomputeRanks := command.NewRecomputeRanksHandler(entryRepo, lbCache, bus, log)
	sideEffects := command.NewSideEffects(awardPoints, checkBadges, recordActivity, log)

	// The handler set the host deployment's transport (outside this service's
	// scope) consumes. Kept together so wiring lives in one place.
	app := &application{
		AwardPoints:      awardPoints,
		AdjustPoints:     command.NewAdjustPointsHandler(ledger, dispatcher, bus, log),
		RecordActivity:   recordActivity,
		CreateBadge:      command.NewCreateBadgeHandler(badgeRepo, idGen, bus, log),
		CheckBadges:      checkBadges,
		RecomputeRanks:   recomputeRanks,
		SideEffects:      sideEffects,
		GetLeaderboard:   query.NewGetLeaderboardHandler(entryRepo, lbCache, log),
		GetBadgeProgress: query.NewGetUserBadgeProgressHandler(stateRepo, badgeRepo, awardRepo, evaluator, log),
		GetUserState:     query.NewGetUserStateHandler(stateRepo, entryRepo, log),
	}

	// Earning points is learning activity: keep the streak moving without
	// requiring callers to send a separate activity command. Runs as a
	// side effect so a failed streak update never surfaces anywhere.
	err = bus.Subscribe(shared.EventPointsAwarded, shared.EventHandlerFunc(func(event shared.Event) error {
		awarded, ok := event.(shared.PointsAwardedEvent)
		if !ok {
			return nil
		}
		app.SideEffects.RecordActivity(ctx, command.RecordActivityCommand{
			UserID:         awarded.AggregateID(),
			OrganizationID: awarded.OrganizationID,
			Date:           awarded.OccurredAt(),
		})
		return nil
	}))
	if err != nil {
		return fmt.Errorf("failed to subscribe activity listener: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// SCHEDULER
	// ─────────────────────────────────────────────────────────────────────────
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		schedConfig := scheduler.DefaultConfig()
		schedConfig.Logger = log
		sched = scheduler.NewScheduler(schedConfig)

		rebuildJob := jobs.NewRebuildRanksJob(entryRepo, recomputeRanks, log)
		if err := sched.Register(rebuildJob, scheduler.NewIntervalSchedule(cfg.Scheduler.RebuildRanksInterval)); err != nil {
			return fmt.Errorf("failed to register rebuild job: %w", err)
		}

		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	}

	log.Info("gamification worker started")

	// ─────────────────────────────────────────────────────────────────────────
	// GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutdown signal received", logger.String("signal", sig.String()))
	case <-ctx.Done():
		log.Info("context cancelled")
	}

	if sched != nil {
		if err := sched.Stop(); err != nil {
			log.Error("scheduler stop failed", logger.Err(err))
		}
	}

	log.Info("gamification worker stopped")
	return nil
}

func setupLogger(cfg *config.Config) *logger.Logger {
	opts := logger.DefaultOptions()
	opts.Level = logger.ParseLevel(cfg.Observability.LogLevel)
	return logger.New(opts)
}

func redisCacheConfig(cfg *config.Config) rediscache.Config {
	rc := rediscache.DefaultConfig()
	rc.Host = cfg.Redis.Host
	rc.Port = cfg.Redis.Port
	rc.Password = cfg.Redis.Password
	rc.DB = cfg.Redis.DB
	rc.PoolSize = cfg.Redis.PoolSize
	rc.MinIdleConns = cfg.Redis.MinIdleConns
	rc.DialTimeout = cfg.Redis.DialTimeout
	rc.ReadTimeout = cfg.Redis.ReadTimeout
	rc.WriteTimeout = cfg.Redis.WriteTimeout
	return rc
}
