package jobs

import (
	"fmt"
)

// JobManager coordinates all background jobs in the application.
// Provides a unified interface to start and stop them.
type JobManager struct {
	paymentTimeoutJob *PaymentTimeoutJob
	sweepJob          *RateLimiterSweepJob
	publisherJob      *OutboxPublisherJob
}

func NewJobManager(
	paymentTimeoutJob *PaymentTimeoutJob,
	sweepJob *RateLimiterSweepJob,
	publisherJob *OutboxPublisherJob,
) *JobManager {
	return &JobManager{
		paymentTimeoutJob: paymentTimeoutJob,
		sweepJob:          sweepJob,
		publisherJob:      publisherJob,
	}
}

// StartAll starts the publisher first so commits made by the payment timeout job
// are picked up right away. Returns an error if any job fails to start.
func (jm *JobManager) StartAll() error {
	if err := jm.publisherJob.Start(); err != nil {
		return fmt.Errorf("failed to start outbox publisher job: %w", err)
	}

	if err := jm.sweepJob.Start(); err != nil {
		jm.publisherJob.Stop()
		return fmt.Errorf("failed to start rate limiter sweep job: %w", err)
	}

	if err := jm.paymentTimeoutJob.Start(); err != nil {
		// Stop already started jobs if this one fails
		jm.sweepJob.Stop()
		jm.publisherJob.Stop()
		return fmt.Errorf("failed to start payment timeout job: %w", err)
	}

	return nil
}

// StopAll stops the scheduled jobs before the publisher.
func (jm *JobManager) StopAll() {
	jm.paymentTimeoutJob.Stop()
	jm.sweepJob.Stop()
	jm.publisherJob.Stop()
}
