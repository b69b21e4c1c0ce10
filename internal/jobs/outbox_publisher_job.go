package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

var ErrAlreadyStarted = errors.New("job already started")

type Runner interface {
	Run(ctx context.Context)
}

// OutboxPublisherJob runs the publisher loop in its own goroutine. Stop waits
// for the in-flight drain to return.
type OutboxPublisherJob struct {
	runner Runner
	logger *slog.Logger

	mutex  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewOutboxPublisherJob(runner Runner, logger *slog.Logger) *OutboxPublisherJob {
	return &OutboxPublisherJob{
		runner: runner,
		logger: logger.With("component", "outbox_publisher_job"),
	}
}

func (j *OutboxPublisherJob) Start() error {
	j.mutex.Lock()
	defer j.mutex.Unlock()

	if j.cancel != nil {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	j.cancel = cancel
	j.done = done

	go func() {
		defer close(done)
		j.runner.Run(ctx)
	}()

	j.logger.InfoContext(ctx, "Outbox publisher job started")
	return nil
}

func (j *OutboxPublisherJob) Stop() {
	j.mutex.Lock()
	cancel, done := j.cancel, j.done
	j.cancel, j.done = nil, nil
	j.mutex.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	j.logger.InfoContext(context.Background(), "Outbox publisher job stopped")
}
