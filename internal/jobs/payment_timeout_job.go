package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"oms/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
)

type ExpiredPaymentsHandler interface {
	Handle(ctx context.Context, cmd commands.CancelExpiredPaymentsCommand) (int, error)
}

type PaymentTimeoutConfig struct {
	Schedule  string
	Timeout   time.Duration
	BatchSize int
	RunBudget time.Duration // upper bound for one run
}

func DefaultPaymentTimeoutConfig() PaymentTimeoutConfig {
	return PaymentTimeoutConfig{
		Schedule:  "*/10 * * * * *",
		Timeout:   15 * time.Minute,
		BatchSize: 100,
		RunBudget: 30 * time.Second,
	}
}

// PaymentTimeoutJob cancels orders whose payment never arrived.
type PaymentTimeoutJob struct {
	handler ExpiredPaymentsHandler
	config  PaymentTimeoutConfig
	cron    *cron.Cron
	logger  *slog.Logger
}

func NewPaymentTimeoutJob(handler ExpiredPaymentsHandler, config PaymentTimeoutConfig, logger *slog.Logger) *PaymentTimeoutJob {
	return &PaymentTimeoutJob{
		handler: handler,
		config:  config,
		cron:    cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger:  logger.With("component", "payment_timeout_job"),
	}
}

func (j *PaymentTimeoutJob) Start() error {
	if _, err := commands.NewCancelExpiredPaymentsCommand(j.config.Timeout, j.config.BatchSize); err != nil {
		return err
	}
	if _, err := j.cron.AddFunc(j.config.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), j.config.RunBudget)
		defer cancel()
		j.RunOnce(ctx)
	}); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Payment timeout job started",
		"schedule", j.config.Schedule, "timeout", j.config.Timeout)
	return nil
}

// RunOnce performs one sweep and returns the number of cancelled orders.
func (j *PaymentTimeoutJob) RunOnce(ctx context.Context) int {
	cmd, err := commands.NewCancelExpiredPaymentsCommand(j.config.Timeout, j.config.BatchSize)
	if err != nil {
		j.logger.ErrorContext(ctx, "Payment timeout job misconfigured", "error", err)
		return 0
	}

	cancelled, err := j.handler.Handle(ctx, cmd)
	if err != nil && !errors.Is(err, context.Canceled) {
		j.logger.ErrorContext(ctx, "Payment timeout job failed", "error", err, "cancelled", cancelled)
	}
	if cancelled > 0 {
		j.logger.InfoContext(ctx, "Cancelled expired payments", "count", cancelled)
	}
	return cancelled
}

func (j *PaymentTimeoutJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Payment timeout job stopped")
}
