package gateway_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"oms/internal/core/application/gateway"
	"oms/internal/core/domain/model/kernel"
	"oms/internal/core/domain/model/order"
	"oms/internal/core/ports"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDependency struct {
	calls  atomic.Int32
	mu     sync.Mutex
	answer func(ctx context.Context, call int32) error
}

func (f *fakeDependency) Confirm(ctx context.Context, _ ports.ConfirmationRequest) error {
	call := f.calls.Add(1)
	f.mu.Lock()
	answer := f.answer
	f.mu.Unlock()
	if answer == nil {
		return nil
	}
	return answer(ctx, call)
}

func (f *fakeDependency) respond(answer func(ctx context.Context, call int32) error) {
	f.mu.Lock()
	f.answer = answer
	f.mu.Unlock()
}

func status(code int) func(context.Context, int32) error {
	return func(context.Context, int32) error {
		return &ports.DownstreamCallError{Dependency: "payments", StatusCode: code}
	}
}

type transition struct{ from, to string }

type recordingObserver struct {
	ports.NopObserver
	mu          sync.Mutex
	transitions []transition
}

func (o *recordingObserver) BreakerStateChanged(_ context.Context, _ string, from, to string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.transitions = append(o.transitions, transition{from, to})
}

func (o *recordingObserver) seen() []transition {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]transition(nil), o.transitions...)
}

func testConfig() gateway.Config {
	return gateway.Config{
		FailureThreshold: 5,
		FailureWindow:    time.Minute,
		Cooldown:         50 * time.Millisecond,
		HalfOpenMaxCalls: 1,
		MaxRetries:       0,
		InitialBackoff:   time.Millisecond,
		MaxBackoff:       5 * time.Millisecond,
		CallTimeout:      time.Second,
	}
}

func newGateway(t *testing.T, dep ports.ConfirmationService, config gateway.Config, observer ports.Observer) *gateway.Gateway {
	t.Helper()
	g, err := gateway.New("payments", dep, config, observer, nil)
	require.NoError(t, err)
	return g
}

func request() ports.ConfirmationRequest {
	return ports.ConfirmationRequest{
		OrderID:        kernel.NewUUID(),
		Command:        order.ConfirmPayment,
		Amount:         decimal.RequireFromString("12.50"),
		IdempotencyKey: "order:2",
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want gateway.Outcome
	}{
		{"nil", nil, gateway.Success},
		{"deadline", context.DeadlineExceeded, gateway.Retryable},
		{"wrapped deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), gateway.Retryable},
		{"cancelled", context.Canceled, gateway.Fatal},
		{"transport", &ports.DownstreamCallError{Dependency: "x", Err: errors.New("connection refused")}, gateway.Retryable},
		{"unknown error", errors.New("boom"), gateway.Retryable},
		{"500", &ports.DownstreamCallError{StatusCode: http.StatusInternalServerError}, gateway.Retryable},
		{"503", &ports.DownstreamCallError{StatusCode: http.StatusServiceUnavailable}, gateway.Retryable},
		{"408", &ports.DownstreamCallError{StatusCode: http.StatusRequestTimeout}, gateway.Retryable},
		{"429", &ports.DownstreamCallError{StatusCode: http.StatusTooManyRequests}, gateway.Retryable},
		{"400", &ports.DownstreamCallError{StatusCode: http.StatusBadRequest}, gateway.Fatal},
		{"404", &ports.DownstreamCallError{StatusCode: http.StatusNotFound}, gateway.Fatal},
		{"422", &ports.DownstreamCallError{StatusCode: http.StatusUnprocessableEntity}, gateway.Fatal},
		{"rejected sentinel", ports.ErrDownstreamRejected, gateway.Fatal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, gateway.Classify(tt.err))
		})
	}
}

func TestConfirm_Success(t *testing.T) {
	dep := &fakeDependency{}
	g := newGateway(t, dep, testConfig(), nil)

	require.NoError(t, g.Confirm(t.Context(), request()))
	assert.Equal(t, int32(1), dep.calls.Load())
	assert.Equal(t, "CLOSED", g.Snapshot().State)
}

func TestConfirm_RetriesRetryableFailures(t *testing.T) {
	dep := &fakeDependency{}
	dep.respond(func(_ context.Context, call int32) error {
		if call < 3 {
			return &ports.DownstreamCallError{StatusCode: http.StatusServiceUnavailable}
		}
		return nil
	})
	config := testConfig()
	config.MaxRetries = 2
	g := newGateway(t, dep, config, nil)

	require.NoError(t, g.Confirm(t.Context(), request()))
	assert.Equal(t, int32(3), dep.calls.Load())
}

func TestConfirm_RetriesExhausted_IsUnavailable(t *testing.T) {
	dep := &fakeDependency{}
	dep.respond(status(http.StatusBadGateway))
	config := testConfig()
	config.MaxRetries = 2
	g := newGateway(t, dep, config, nil)

	err := g.Confirm(t.Context(), request())

	require.ErrorIs(t, err, ports.ErrDownstreamUnavailable)
	var callErr *ports.DownstreamCallError
	require.ErrorAs(t, err, &callErr)
	assert.Equal(t, http.StatusBadGateway, callErr.StatusCode)
	assert.Equal(t, int32(3), dep.calls.Load())
}

func TestConfirm_FatalFailure_IsNotRetried(t *testing.T) {
	dep := &fakeDependency{}
	dep.respond(status(http.StatusBadRequest))
	config := testConfig()
	config.MaxRetries = 3
	g := newGateway(t, dep, config, nil)

	err := g.Confirm(t.Context(), request())

	require.ErrorIs(t, err, ports.ErrDownstreamRejected)
	assert.NotErrorIs(t, err, ports.ErrDownstreamUnavailable)
	assert.Equal(t, int32(1), dep.calls.Load())
}

func TestBreaker_OpensAfterThresholdAndShortCircuits(t *testing.T) {
	dep := &fakeDependency{}
	dep.respond(status(http.StatusInternalServerError))
	observer := &recordingObserver{}
	g := newGateway(t, dep, testConfig(), observer)

	for range 5 {
		require.ErrorIs(t, g.Confirm(t.Context(), request()), ports.ErrDownstreamUnavailable)
	}
	assert.Equal(t, "OPEN", g.Snapshot().State)

	for range 3 {
		require.ErrorIs(t, g.Confirm(t.Context(), request()), ports.ErrDownstreamUnavailable)
	}
	assert.Equal(t, int32(5), dep.calls.Load(), "open circuit must not reach the dependency")
	assert.Equal(t, []transition{{"CLOSED", "OPEN"}}, observer.seen())
}

func TestBreaker_TrialSuccessAfterCooldownCloses(t *testing.T) {
	dep := &fakeDependency{}
	dep.respond(status(http.StatusInternalServerError))
	observer := &recordingObserver{}
	g := newGateway(t, dep, testConfig(), observer)
	for range 5 {
		_ = g.Confirm(t.Context(), request())
	}

	dep.respond(nil)
	time.Sleep(80 * time.Millisecond)

	require.NoError(t, g.Confirm(t.Context(), request()))
	assert.Equal(t, int32(6), dep.calls.Load())
	assert.Equal(t, "CLOSED", g.Snapshot().State)
	assert.Equal(t, []transition{
		{"CLOSED", "OPEN"},
		{"OPEN", "HALF_OPEN"},
		{"HALF_OPEN", "CLOSED"},
	}, observer.seen())
}

func TestBreaker_TrialFailureReopens(t *testing.T) {
	dep := &fakeDependency{}
	dep.respond(status(http.StatusInternalServerError))
	g := newGateway(t, dep, testConfig(), nil)
	for range 5 {
		_ = g.Confirm(t.Context(), request())
	}
	time.Sleep(80 * time.Millisecond)

	require.ErrorIs(t, g.Confirm(t.Context(), request()), ports.ErrDownstreamUnavailable)
	assert.Equal(t, int32(6), dep.calls.Load())
	assert.Equal(t, "OPEN", g.Snapshot().State)

	require.ErrorIs(t, g.Confirm(t.Context(), request()), ports.ErrDownstreamUnavailable)
	assert.Equal(t, int32(6), dep.calls.Load())
}

func TestBreaker_FatalFailuresDoNotOpen(t *testing.T) {
	dep := &fakeDependency{}
	dep.respond(status(http.StatusConflict))
	g := newGateway(t, dep, testConfig(), nil)

	for range 10 {
		require.ErrorIs(t, g.Confirm(t.Context(), request()), ports.ErrDownstreamRejected)
	}

	snapshot := g.Snapshot()
	assert.Equal(t, "CLOSED", snapshot.State)
	assert.Zero(t, snapshot.ConsecutiveFailures)
	assert.Equal(t, int32(10), dep.calls.Load())
}

func TestConfirm_CallTimeoutIsRetryable(t *testing.T) {
	dep := &fakeDependency{}
	dep.respond(func(ctx context.Context, _ int32) error {
		<-ctx.Done()
		return ctx.Err()
	})
	config := testConfig()
	config.CallTimeout = 20 * time.Millisecond
	config.MaxRetries = 1
	g := newGateway(t, dep, config, nil)

	started := time.Now()
	err := g.Confirm(t.Context(), request())

	require.ErrorIs(t, err, ports.ErrDownstreamUnavailable)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int32(2), dep.calls.Load())
	assert.Less(t, time.Since(started), time.Second)
	assert.Equal(t, uint32(2), g.Snapshot().ConsecutiveFailures)
}

func TestConfirm_CancelledContext_DoesNotCallDependency(t *testing.T) {
	dep := &fakeDependency{}
	g := newGateway(t, dep, testConfig(), nil)
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	err := g.Confirm(ctx, request())

	require.ErrorIs(t, err, ports.ErrDownstreamUnavailable)
	assert.Zero(t, dep.calls.Load())
}

func TestNew_ValidatesArguments(t *testing.T) {
	dep := &fakeDependency{}

	_, err := gateway.New("", dep, testConfig(), nil, nil)
	require.Error(t, err)

	_, err = gateway.New("payments", nil, testConfig(), nil, nil)
	require.Error(t, err)

	config := testConfig()
	config.FailureThreshold = 0
	_, err = gateway.New("payments", dep, config, nil, nil)
	require.Error(t, err)

	config = testConfig()
	config.MaxBackoff = 0
	_, err = gateway.New("payments", dep, config, nil, nil)
	require.Error(t, err)
}

func TestConfirm_CallerCancellingMidCall_IsNotCountedAsSuccess(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	dep := &fakeDependency{}
	g := newGateway(t, dep, testConfig(), nil)

	dep.respond(status(http.StatusServiceUnavailable))
	require.ErrorIs(t, g.Confirm(t.Context(), request()), ports.ErrDownstreamUnavailable)
	require.Equal(t, uint32(1), g.Snapshot().ConsecutiveFailures)

	dep.respond(func(ctx context.Context, _ int32) error {
		close(started)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-release:
			return &ports.DownstreamCallError{Dependency: "payments", StatusCode: http.StatusServiceUnavailable}
		}
	})

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- g.Confirm(ctx, request()) }()
	<-started
	cancel()
	close(release)
	err := <-done

	require.ErrorIs(t, err, ports.ErrDownstreamUnavailable)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, uint32(2), g.Snapshot().ConsecutiveFailures)
}
