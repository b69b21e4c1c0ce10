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

	"oms/cmd"
	httpin "oms/internal/adapters/in/http"
	"oms/internal/adapters/out/postgres"
	"oms/internal/adapters/out/rabbitmq"
	"oms/internal/adapters/out/telemetry"

	"github.com/labstack/gommon/log"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	configs, err := cmd.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := telemetry.Setup(ctx, configs.Telemetry)
	if err != nil {
		log.Fatalf("Error setting up telemetry: %v", err)
	}
	defer func() {
		if err := providers.Shutdown(context.Background()); err != nil {
			logger.Error("Telemetry shutdown failed", "error", err)
		}
	}()

	gormDB := mustGormOpen(configs)

	conn, err := rabbitmq.NewConnection(configs.RabbitMQ, logger)
	if err != nil {
		log.Fatalf("Error configuring RabbitMQ: %v", err)
	}
	if err := conn.Connect(); err != nil {
		log.Fatalf("Error connecting to RabbitMQ: %v", err)
	}
	defer func() { _ = conn.Close() }()

	observer, err := telemetry.NewObserver(providers.Meter("oms"), logger)
	if err != nil {
		log.Fatalf("Error creating observer: %v", err)
	}

	app, err := cmd.NewCompositionRoot(configs, gormDB, rabbitmq.NewPublisher(conn), observer, logger)
	if err != nil {
		log.Fatalf("Error wiring application: %v", err)
	}

	jobManager := app.CreateJobManager()
	if err := jobManager.StartAll(); err != nil {
		log.Fatalf("Error starting jobs: %v", err)
	}
	defer jobManager.StopAll()

	startWebServer(ctx, stop, app, configs, logger)
}

func mustGormOpen(configs cmd.Config) *gorm.DB {
	gormDB, err := gorm.Open(postgresdriver.Open(configs.DSN()), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("Error connecting to database: %v", err)
	}
	if err := postgres.AutoMigrate(gormDB); err != nil {
		log.Fatalf("Error migrating database: %v", err)
	}
	return gormDB
}

func startWebServer(ctx context.Context, stop context.CancelFunc, app *cmd.CompositionRoot, configs cmd.Config, logger *slog.Logger) {
	e := httpin.NewEcho(logger)
	app.CreateHTTPServer().Register(e)

	go func() {
		if err := e.Start(fmt.Sprintf("0.0.0.0:%s", configs.HTTPPort)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), configs.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
}
