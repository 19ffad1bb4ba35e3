package main // Entry point package

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/planetarium-reservation/internal/config"
	"github.com/iliyamo/planetarium-reservation/internal/database"
	"github.com/iliyamo/planetarium-reservation/internal/handler"
	"github.com/iliyamo/planetarium-reservation/internal/middleware"
	"github.com/iliyamo/planetarium-reservation/internal/queue"
	"github.com/iliyamo/planetarium-reservation/internal/repository"
	"github.com/iliyamo/planetarium-reservation/internal/router"
	"github.com/iliyamo/planetarium-reservation/internal/service"
)

func main() {
	envFile := pflag.String("env-file", ".env", "dotenv file to load before reading the environment")
	migrate := pflag.Bool("migrate", false, "apply the embedded schema before serving")
	consumer := pflag.Bool("consumer", false, "run the reservation event consumer next to the API")
	pflag.Parse()

	if err := run(*envFile, *migrate, *consumer); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(envFile string, migrate, consumer bool) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}
	logger := config.NewLogger(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBDriver, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return err
	}
	defer db.Close()
	if cfg.AutoMigrate || migrate {
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
		logger.Info("schema applied", "driver", cfg.DBDriver)
	}

	// Redis backs the cache and the rate limiter only; without it both
	// become pass-through and reservations keep working.
	rdb, err := config.NewRedisClient(cfg.Redis)
	if err != nil {
		logger.Warn("redis unavailable, running without cache and rate limit", "error", err)
		rdb = nil
	} else {
		defer rdb.Close()
	}

	var publisher service.Publisher = service.NopPublisher{}
	if cfg.EventsEnabled {
		publisher = service.NewAMQPPublisher(cfg.AMQPURL, logger)
	}

	domes := repository.NewDomeRepo(db)
	shows := repository.NewShowRepo(db)
	sessions := repository.NewSessionRepo(db)
	tickets := repository.NewTicketRepo(db)
	reservations := repository.NewReservationRepo(db)

	manager := service.NewReservationManager(sessions, tickets, reservations, publisher, logger)
	availability := service.NewAvailabilityCalculator(sessions)

	e := router.New(router.Deps{
		DB:           db,
		JWTSecret:    cfg.JWTSecret,
		Catalog:      handler.NewCatalogHandler(domes, shows, logger),
		Sessions:     handler.NewSessionHandler(availability, logger),
		Reservations: handler.NewReservationHandler(manager, logger),
		Cache:        middleware.NewRedisCache(cfg.Cache, rdb, logger),
		Limiter:      middleware.NewTokenBucket(cfg.RateLimit, rdb, logger),
		Global:       []echo.MiddlewareFunc{middleware.RequestID(), middleware.RequestLogger(logger)},
	})

	g, gctx := errgroup.WithContext(ctx)
	addr := ":" + cfg.Port
	g.Go(func() error {
		logger.Info("listening", "addr", addr, "env", cfg.Env, "driver", cfg.DBDriver)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if consumer {
		g.Go(func() error {
			return queue.StartReservationConsumer(gctx, cfg.AMQPURL, cfg.EventLogDir, logger)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("shutting down")
		return e.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
