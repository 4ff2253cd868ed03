package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/consultly/consultant-scheduling/internal/api"
	"github.com/consultly/consultant-scheduling/internal/config"
	"github.com/consultly/consultant-scheduling/internal/db"
	"github.com/consultly/consultant-scheduling/internal/identity"
	redisclient "github.com/consultly/consultant-scheduling/internal/redis"
	"github.com/consultly/consultant-scheduling/internal/schedule"
)

const version = "0.3.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("config load error")
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "api-server").Logger()
	if cfg.Env == "dev" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	logger.Info().Str("env", cfg.Env).Str("http_port", cfg.HTTPPort).Msg("api-server starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	logger.Info().Msg("connected to Postgres")

	if err := db.ApplyMigrations(rootCtx, pgPool, cfg.MigrationsPath); err != nil {
		logger.Warn().Err(err).Str("path", cfg.MigrationsPath).Msg("migrations not applied")
	} else {
		logger.Info().Msg("migrations applied")
	}

	// Connect Redis
	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Error().Err(err).Msg("error closing redis")
		}
	}()
	logger.Info().Msg("connected to Redis")

	workStart, err := schedule.ParseTimeOfDay(cfg.WorkDayStart)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid WORK_DAY_START")
	}
	workEnd, err := schedule.ParseTimeOfDay(cfg.WorkDayEnd)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid WORK_DAY_END")
	}

	repo := schedule.NewPgRepository(pgPool)
	locker := redisclient.NewRedisScheduleLocker(rdb, cfg.LockTTL)
	svc := schedule.NewService(repo, schedule.NewValidator(), locker, logger)

	users := identity.NewPgRepository(pgPool)
	auth := identity.NewAuthenticator(users, cfg.JWTSecret)

	router := api.NewRouter(api.RouterConfig{
		Service:      svc,
		Auth:         auth,
		PgPool:       pgPool,
		Redis:        rdb,
		Env:          cfg.Env,
		Version:      version,
		Logger:       logger,
		WorkDayStart: workStart,
		WorkDayEnd:   workEnd,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server error")
		}
	}()

	<-rootCtx.Done()
	logger.Info().Msg("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown error")
	}
}
