// Package config loads runtime configuration from the environment (and
// an optional .env file) for the seat picker, the sandbox backend and
// the load test.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// ClientConfig configures the seat picker.
type ClientConfig struct {
	BaseURL     string        `env:"BOOKING_BASE_URL" env-default:"http://127.0.0.1:5000"` // booking backend
	SubmitDelay time.Duration `env:"BOOKING_SUBMIT_DELAY" env-default:"1s"`                // pause before the booking request
	HistoryPath string        `env:"BOOKING_HISTORY_PATH" env-default:"/history"`          // navigation target on success
	Locale      string        `env:"BOOKING_LOCALE" env-default:"id-ID"`                   // number formatting locale
	Rows        []string      `env:"BOOKING_ROWS" env-default:"A,B,C,D,E" env-separator:","`
	Columns     int           `env:"BOOKING_COLUMNS" env-default:"6"`
	TicketDir   string        `env:"TICKET_DIR"` // export a PDF ticket here after booking (empty = off)
	LogLevel    string        `env:"LOG_LEVEL" env-default:"info"`
}

// ServerConfig configures the sandbox backend.
type ServerConfig struct {
	Env         string `env:"APP_ENV" env-default:"dev"`          // environment name (dev/test)
	Port        string `env:"APP_PORT" env-default:"5000"`        // HTTP port
	SeatStore   string `env:"SEAT_STORE" env-default:"memory"`    // memory | redis
	RedisPrefix string `env:"REDIS_PREFIX" env-default:"booking"` // key namespace in Redis
	StrictSeats bool   `env:"STRICT_SEATS" env-default:"false"`   // reject requests touching taken seats
	LogLevel    string `env:"LOG_LEVEL" env-default:"info"`

	// Booking events go to RabbitMQ when AMQPURL is set.  EventsLog, when
	// also set, runs a consumer appending the events to that file.
	AMQPURL   string `env:"AMQP_URL"`
	EventsLog string `env:"BOOKING_EVENTS_LOG"`

	RateLimit RateLimitConfig
}

// RateLimitConfig limits POST /book_ticket per client.  It needs the
// Redis seat store.
type RateLimitConfig struct {
	Enabled        bool          `env:"RATE_LIMIT_ENABLED" env-default:"false"`
	Capacity       int           `env:"RATE_LIMIT_CAPACITY" env-default:"20"`
	RefillTokens   int           `env:"RATE_LIMIT_REFILL_TOKENS" env-default:"1"`
	RefillInterval time.Duration `env:"RATE_LIMIT_REFILL_INTERVAL" env-default:"1s"`
	TTL            time.Duration `env:"RATE_LIMIT_TTL" env-default:"10m"`
}

// LoadTestConfig configures the load test runner.
type LoadTestConfig struct {
	TargetURL   string        `env:"LOADTEST_URL" env-default:"http://127.0.0.1:5000/"`
	Marker      string        `env:"LOADTEST_MARKER" env-default:"CINEMA X1X"`
	Stages      string        `env:"LOADTEST_STAGES" env-default:"10s:20,30s:20,5s:0"`
	P95Budget   time.Duration `env:"LOADTEST_P95" env-default:"500ms"`
	ThinkTime   time.Duration `env:"LOADTEST_THINK" env-default:"1s"`
	HTTPTimeout time.Duration `env:"LOADTEST_HTTP_TIMEOUT" env-default:"30s"`
}

// LoadDotEnv reads .env files into the process environment.  Missing
// files are not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

func LoadClient() (ClientConfig, error) {
	var cfg ClientConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to read client environment: %w", err)
	}
	return cfg, nil
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to read server environment: %w", err)
	}
	switch cfg.SeatStore {
	case "memory", "redis":
	default:
		return cfg, fmt.Errorf("SEAT_STORE must be memory or redis, got %q", cfg.SeatStore)
	}
	if cfg.RateLimit.Enabled && cfg.SeatStore != "redis" {
		return cfg, fmt.Errorf("RATE_LIMIT_ENABLED requires SEAT_STORE=redis")
	}
	return cfg, nil
}

func LoadLoadTest() (LoadTestConfig, error) {
	var cfg LoadTestConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to read load test environment: %w", err)
	}
	return cfg, nil
}

// ParseLevel maps LOG_LEVEL values onto slog levels, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
