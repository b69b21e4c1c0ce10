package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"oms/internal/adapters/out/downstream"
	"oms/internal/adapters/out/rabbitmq"
	"oms/internal/adapters/out/telemetry"
	"oms/internal/core/application/gateway"
	"oms/internal/core/application/publisher"
	"oms/internal/core/application/usecases/commands"
	"oms/internal/jobs"
	"oms/internal/pkg/ratelimit"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort        string
	ShutdownTimeout time.Duration

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	RabbitMQ rabbitmq.Config

	Payments  downstream.Config
	Inventory downstream.Config
	Gateway   gateway.Config

	RateLimit              ratelimit.Config
	RateLimitIdle          time.Duration
	RateLimitSweepSchedule string

	Publisher      publisher.Config
	Submit         commands.SubmitConfig
	PaymentTimeout jobs.PaymentTimeoutConfig
	Telemetry      telemetry.Config
}

// DSN is the PostgreSQL connection string for the GORM driver.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSslMode)
}

// LoadConfig reads .env when present, then the process environment. Unset
// variables take their defaults; malformed ones are reported together.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}
	return configFromEnv(os.Getenv)
}

func configFromEnv(getenv func(string) string) (Config, error) {
	env := envReader{getenv: getenv}

	rabbit := rabbitmq.DefaultConfig()
	breaker := gateway.DefaultConfig()
	outbox := publisher.DefaultConfig()
	submit := commands.DefaultSubmitConfig()
	paymentTimeout := jobs.DefaultPaymentTimeoutConfig()
	downstreamTimeout := env.duration("DOWNSTREAM_TIMEOUT", 3*time.Second)

	config := Config{
		HTTPPort:        env.text("HTTP_PORT", "8080"),
		ShutdownTimeout: env.duration("SHUTDOWN_TIMEOUT", 15*time.Second),

		DBHost:     env.text("DB_HOST", "localhost"),
		DBPort:     env.text("DB_PORT", "5432"),
		DBUser:     env.text("DB_USER", "postgres"),
		DBPassword: env.text("DB_PASSWORD", ""),
		DBName:     env.text("DB_NAME", "oms"),
		DBSslMode:  env.text("DB_SSLMODE", "disable"),

		RabbitMQ: rabbitmq.Config{
			URL:          env.text("RABBITMQ_URL", rabbit.URL),
			Exchange:     env.text("RABBITMQ_EXCHANGE", rabbit.Exchange),
			ExchangeType: env.text("RABBITMQ_EXCHANGE_TYPE", rabbit.ExchangeType),
			Queue:        env.text("RABBITMQ_QUEUE", rabbit.Queue),
			BindingKey:   env.text("RABBITMQ_BINDING_KEY", rabbit.BindingKey),
			DialTimeout:  env.duration("RABBITMQ_DIAL_TIMEOUT", rabbit.DialTimeout),
		},

		Payments: downstream.Config{
			Name:    "payments",
			BaseURL: env.text("PAYMENTS_URL", "http://localhost:8081"),
			Timeout: downstreamTimeout,
		},
		Inventory: downstream.Config{
			Name:    "inventory",
			BaseURL: env.text("INVENTORY_URL", "http://localhost:8082"),
			Timeout: downstreamTimeout,
		},
		Gateway: gateway.Config{
			FailureThreshold: uint32(env.unsigned("BREAKER_FAILURE_THRESHOLD", uint64(breaker.FailureThreshold), 32)),
			FailureWindow:    env.duration("BREAKER_FAILURE_WINDOW", breaker.FailureWindow),
			Cooldown:         env.duration("BREAKER_COOLDOWN", breaker.Cooldown),
			HalfOpenMaxCalls: uint32(env.unsigned("BREAKER_HALF_OPEN_CALLS", uint64(breaker.HalfOpenMaxCalls), 32)),
			MaxRetries:       env.unsigned("DOWNSTREAM_MAX_RETRIES", breaker.MaxRetries, 64),
			InitialBackoff:   env.duration("DOWNSTREAM_INITIAL_BACKOFF", breaker.InitialBackoff),
			MaxBackoff:       env.duration("DOWNSTREAM_MAX_BACKOFF", breaker.MaxBackoff),
			CallTimeout:      env.duration("DOWNSTREAM_CALL_TIMEOUT", breaker.CallTimeout),
		},

		RateLimit: ratelimit.Config{
			Capacity:        env.number("RATE_LIMIT_CAPACITY", 10),
			RefillPerSecond: env.number("RATE_LIMIT_REFILL_PER_SECOND", 1),
		},
		RateLimitIdle:          env.duration("RATE_LIMIT_IDLE", 10*time.Minute),
		RateLimitSweepSchedule: env.text("RATE_LIMIT_SWEEP_SCHEDULE", "0 * * * * *"),

		Publisher: publisher.Config{
			PollInterval:   env.duration("OUTBOX_POLL_INTERVAL", outbox.PollInterval),
			BatchSize:      env.integer("OUTBOX_BATCH_SIZE", outbox.BatchSize),
			PublishTimeout: env.duration("OUTBOX_PUBLISH_TIMEOUT", outbox.PublishTimeout),
			MaxAttempts:    env.integer("OUTBOX_MAX_ATTEMPTS", outbox.MaxAttempts),
			BaseDelay:      env.duration("OUTBOX_BASE_DELAY", outbox.BaseDelay),
			MaxDelay:       env.duration("OUTBOX_MAX_DELAY", outbox.MaxDelay),
		},
		Submit: commands.SubmitConfig{
			MaxConflictRetries: env.integer("MAX_CONFLICT_RETRIES", submit.MaxConflictRetries),
		},
		PaymentTimeout: jobs.PaymentTimeoutConfig{
			Schedule:  env.text("PAYMENT_TIMEOUT_SCHEDULE", paymentTimeout.Schedule),
			Timeout:   env.duration("PAYMENT_TIMEOUT", paymentTimeout.Timeout),
			BatchSize: env.integer("PAYMENT_TIMEOUT_BATCH_SIZE", paymentTimeout.BatchSize),
			RunBudget: env.duration("PAYMENT_TIMEOUT_RUN_BUDGET", paymentTimeout.RunBudget),
		},
		Telemetry: telemetry.Config{
			Enabled:        env.flag("OTEL_ENABLED", false),
			Endpoint:       env.text("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName:    env.text("SERVICE_NAME", "order-management-service"),
			ServiceVersion: env.text("SERVICE_VERSION", "1.0.0"),
		},
	}

	if err := env.err(); err != nil {
		return Config{}, err
	}
	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

func (c Config) Validate() error {
	return errors.Join(
		c.RabbitMQ.Validate(),
		c.Payments.Validate(),
		c.Inventory.Validate(),
		c.Gateway.Validate(),
		c.RateLimit.Validate(),
		c.Publisher.Validate(),
	)
}

// envReader collects parse failures so one bad variable does not hide another.
type envReader struct {
	getenv func(string) string
	errs   []error
}

func (r *envReader) lookup(key string) (string, bool) {
	value := strings.TrimSpace(r.getenv(key))
	return value, value != ""
}

func (r *envReader) text(key, fallback string) string {
	if value, ok := r.lookup(key); ok {
		return value
	}
	return fallback
}

func (r *envReader) integer(key string, fallback int) int {
	value, ok := r.lookup(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return parsed
}

// unsigned rejects negative values and values that do not fit in bits.
func (r *envReader) unsigned(key string, fallback uint64, bits int) uint64 {
	value, ok := r.lookup(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseUint(value, 10, bits)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return parsed
}

func (r *envReader) number(key string, fallback float64) float64 {
	value, ok := r.lookup(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return parsed
}

func (r *envReader) flag(key string, fallback bool) bool {
	value, ok := r.lookup(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return parsed
}

func (r *envReader) duration(key string, fallback time.Duration) time.Duration {
	value, ok := r.lookup(key)
	if !ok {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return parsed
}

func (r *envReader) err() error {
	return errors.Join(r.errs...)
}
