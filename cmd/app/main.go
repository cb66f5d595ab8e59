package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fitquest/internal/config"
	"fitquest/internal/db"
	httpServer "fitquest/internal/http"
	"fitquest/internal/http/handlers"
	"fitquest/internal/http/middleware"
	"fitquest/internal/logger"
	"fitquest/internal/migrations"
	"fitquest/internal/repository"
	"fitquest/internal/scheduler"
	"fitquest/internal/service"
	"fitquest/internal/ws"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

var version = "dev"

type redisPinger struct{ c *redis.Client }

func (p redisPinger) Ping(ctx context.Context) error { return p.c.Ping(ctx).Err() }

func main() {
	cfg := config.Load()
	logger.Setup(logger.Options{
		Level:      cfg.LogLevel,
		JSON:       cfg.LogJSON,
		Dir:        cfg.LogDir,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})
	service.InitJWT(cfg.JWTSecret)

	eco, err := config.LoadEconomy(cfg.EconomyFile)
	if err != nil {
		logger.Fatal("failed to load economy file", "error", err)
	}

	dbPool := db.Connect(cfg.DatabaseURL)
	defer dbPool.Close()

	ctx := context.Background()
	if os.Getenv("AUTO_MIGRATE") == "true" {
		applied, err := migrations.Apply(ctx, dbPool)
		if err != nil {
			logger.Fatal("migrations failed", "error", err)
		}
		logger.Info("migrations done", "applied", len(applied))
	}

	levels, err := service.LoadLevelTable(ctx, repository.NewLevelRepository(dbPool))
	if err != nil {
		logger.Fatal("failed to load level table", "error", err)
	}

	hub := ws.NewHub()
	defer hub.Close()

	engine := service.NewEngine(service.Stores{
		Ledger:        repository.NewUserRepository(dbPool),
		Quests:        repository.NewQuestRepository(dbPool),
		Badges:        repository.NewBadgeRepository(dbPool),
		Spins:         repository.NewSpinRepository(dbPool),
		Challenges:    repository.NewChallengeRepository(dbPool),
		Tournaments:   repository.NewTournamentRepository(dbPool),
		Workouts:      repository.NewWorkoutRepository(dbPool),
		Subscriptions: repository.NewSubscriptionRepository(dbPool),
		Friends:       repository.NewFriendRepository(dbPool),
		Audit:         repository.NewAuditRepository(dbPool),
	}, levels, eco, hub, service.SystemClock(cfg.Timezone))

	if cfg.SweepEnabled {
		sweeper, err := scheduler.NewSweeper(engine.Premium, engine.Quests, cfg.SweepInterval, eco.QuestRetentionDays)
		if err != nil {
			logger.Fatal("failed to create sweeper", "error", err)
		}
		sweeper.Start()
		defer sweeper.Shutdown()
	}

	redisClient := middleware.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	var redisHealth handlers.Pinger
	if redisClient != nil {
		defer redisClient.Close()
		redisHealth = redisPinger{redisClient}
	}

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	// CORS for the frontend on a different domain
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" && (cfg.AllowedOrigin == "" || origin == cfg.AllowedOrigin) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		}
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	health := handlers.NewHealthHandler(version,
		handlers.Dependency{Name: "database", Pinger: dbPool},
		handlers.Dependency{Name: "redis", Pinger: redisHealth, Optional: true},
	)
	httpServer.RegisterRoutes(r, httpServer.Deps{
		Handler: handlers.NewHandler(engine),
		Health:  health,
		Limiter: middleware.NewRateLimiter(redisClient),
		Hub:     hub,
		Config:  cfg,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort, "version", version, "levels", len(levels.Levels()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
