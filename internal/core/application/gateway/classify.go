package gateway

import (
	"context"
	"errors"
	"net/http"

	"oms/internal/core/ports"
)

// Outcome is the classification of one downstream attempt.
type Outcome int

const (
	Success Outcome = iota
	Retryable
	Fatal
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Retryable:
		return "retryable"
	case Fatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Classify maps an attempt error to an Outcome. Errors that carry no status
// code are treated as transport failures.
func Classify(err error) Outcome {
	if err == nil {
		return Success
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Retryable
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, ports.ErrDownstreamRejected) {
		return Fatal
	}

	var callErr *ports.DownstreamCallError
	if errors.As(err, &callErr) && callErr.StatusCode != 0 {
		return classifyStatus(callErr.StatusCode)
	}

	return Retryable
}

func classifyStatus(code int) Outcome {
	switch {
	case code >= 200 && code < 300:
		return Success
	case code >= 500, code == http.StatusRequestTimeout, code == http.StatusTooManyRequests:
		return Retryable
	default:
		return Fatal
	}
}
