// Command stubserver runs the sandbox booking backend: the home page, the
// booking configuration and booking endpoints, the history and the admin
// summary.  It exists so the seat picker, the load test and local demos
// have something real to talk to.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/cinema-seat-booking/internal/config"
	"github.com/iliyamo/cinema-seat-booking/internal/handler"
	bookingmw "github.com/iliyamo/cinema-seat-booking/internal/middleware"
	"github.com/iliyamo/cinema-seat-booking/internal/queue"
	"github.com/iliyamo/cinema-seat-booking/internal/repository"
	"github.com/iliyamo/cinema-seat-booking/internal/router"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "stubserver: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.LoadServer()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: config.ParseLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		repo      repository.BookingRepo
		bookLimit echo.MiddlewareFunc
	)
	switch cfg.SeatStore {
	case "redis":
		rcfg, err := config.LoadRedis()
		if err != nil {
			return err
		}
		rdb, err := config.NewRedisClient(ctx, rcfg)
		if err != nil {
			return err
		}
		defer rdb.Close()
		repo = repository.NewRedisBookingRepo(rdb, cfg.RedisPrefix, repository.SeedMovies())
		bookLimit = rateLimiter(cfg, rdb, logger)
		logger.Info("seat store: redis", "addr", rcfg.Address(), "prefix", cfg.RedisPrefix)
	default:
		repo = repository.NewMemoryBookingRepo(repository.SeedMovies())
		logger.Info("seat store: memory")
	}

	var events queue.Publisher = queue.NopPublisher{}
	if cfg.AMQPURL != "" {
		events = queue.NewAMQPPublisher(cfg.AMQPURL, logger)
		if cfg.EventsLog != "" {
			f, err := os.OpenFile(cfg.EventsLog, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
			if err != nil {
				return fmt.Errorf("open events log: %w", err)
			}
			defer f.Close()
			consumer := queue.NewConsumer(cfg.AMQPURL, f, logger)
			go func() {
				if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("booking consumer stopped", "error", err)
				}
			}()
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			logger.Debug("request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency, "error", v.Error)
			return nil
		},
	}))
	h := handler.NewBookingHandler(repo, events, cfg.StrictSeats, logger)
	router.RegisterRoutes(e, h, bookLimit)

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr, "env", cfg.Env, "strict", cfg.StrictSeats)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func rateLimiter(cfg config.ServerConfig, rdb *redis.Client, logger *slog.Logger) echo.MiddlewareFunc {
	if !cfg.RateLimit.Enabled {
		return nil
	}
	rl := cfg.RateLimit
	bucket := bookingmw.NewRedisTokenBucket(rdb, bookingmw.RateLimitConfig{
		Prefix:         cfg.RedisPrefix + ":rl",
		Capacity:       rl.Capacity,
		RefillTokens:   rl.RefillTokens,
		RefillInterval: rl.RefillInterval,
		TTL:            rl.TTL,
	})
	return bookingmw.RateLimit(bucket, rl.Capacity, logger)
}
