// Package jobs provides the background tasks of the order service.
//
// Scheduled jobs use github.com/robfig/cron/v3 with a seconds field; the
// outbox publisher runs as a long-lived goroutine.
//
// # Available Jobs
//
// 1. PaymentTimeoutJob - cancels orders stuck in PAYMENT_PENDING longer than the payment timeout
// 2. RateLimiterSweepJob - drops rate buckets of clients that went quiet
// 3. OutboxPublisherJob - runs the outbox publisher loop until stopped
//
// # Usage
//
// Jobs are managed through JobManager which provides a unified interface:
//
//	jobManager := jobs.NewJobManager(paymentTimeoutJob, sweepJob, publisherJob)
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//	defer jobManager.StopAll()
//
// # Scheduling
//
// Scheduled jobs skip a tick while the previous run is still in progress, so
// a slow run never overlaps the next one.
//
// # Error Handling
//
// - Payment timeout job logs failed cancellations and keeps going; orders that moved on in the meantime are skipped silently
// - Failed job starts stop any already running jobs
package jobs
