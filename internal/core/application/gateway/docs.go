// Package gateway wraps a downstream ports.ConfirmationService with a circuit
// breaker and bounded retry.
//
// Each Confirm call runs up to MaxRetries+1 attempts, each with its own
// CallTimeout. Results are classified first:
//
//	nil                                   -> Success
//	timeout, transport error, 5xx/408/429 -> Retryable (counted by the breaker, retried)
//	other 4xx, cancellation               -> Fatal (not counted, not retried)
//
// While the breaker is open, calls fail immediately with
// ports.ErrDownstreamUnavailable and the dependency is not contacted.
package gateway
