// Package resilience wraps calls to external collaborators (embedding and
// text generation) with a concurrency cap, a per-attempt timeout, bounded
// exponential retry and a circuit breaker.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	"swiftjobs-backend/pkg/apperror"

	"github.com/cenkalti/backoff/v5"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// ErrTimeout marks an attempt that exceeded Policy.Timeout.
var ErrTimeout = errors.New("external call timed out")

// Policy configures a Guard.
type Policy struct {
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// Concurrency caps in-flight attempts; extra callers queue.
	Concurrency int
	// BreakerOpenFor is how long the breaker stays open before probing.
	BreakerOpenFor time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		Timeout:        30 * time.Second,
		MaxAttempts:    3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		Concurrency:    4,
		BreakerOpenFor: 30 * time.Second,
	}
}

// Observer receives one event per attempt. outcome is one of success,
// failure, timeout, rejected.
type Observer interface {
	ObserveExternalCall(service, outcome string, elapsed time.Duration)
}

type Guard struct {
	service  string
	policy   Policy
	sem      *semaphore.Weighted
	breaker  *gobreaker.CircuitBreaker
	observer Observer
	logger   *zap.Logger
}

func NewGuard(service string, policy Policy, logger *zap.Logger, observer Observer) *Guard {
	def := DefaultPolicy()
	if policy.Timeout <= 0 {
		policy.Timeout = def.Timeout
	}
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = def.MaxAttempts
	}
	if policy.InitialBackoff <= 0 {
		policy.InitialBackoff = def.InitialBackoff
	}
	if policy.MaxBackoff < policy.InitialBackoff {
		policy.MaxBackoff = policy.InitialBackoff
	}
	if policy.Concurrency < 1 {
		policy.Concurrency = def.Concurrency
	}
	if policy.BreakerOpenFor <= 0 {
		policy.BreakerOpenFor = def.BreakerOpenFor
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	g := &Guard{
		service:  service,
		policy:   policy,
		sem:      semaphore.NewWeighted(int64(policy.Concurrency)),
		observer: observer,
		logger:   logger.With(zap.String("service", service)),
	}

	g.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        service,
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     policy.BreakerOpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.8
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			g.logger.Warn("circuit breaker state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !countsAgainstService(err)
		},
	})

	return g
}

func (g *Guard) Service() string {
	return g.service
}

// Do runs op under the guard. Validation errors and caller cancellation are
// returned as-is; anything else that survives all attempts comes back as an
// apperror of kind external_service.
func Do[T any](ctx context.Context, g *Guard, op func(ctx context.Context) (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = g.policy.InitialBackoff
	b.MaxInterval = g.policy.MaxBackoff

	attempt := 0
	result, err := backoff.Retry(ctx, func() (T, error) {
		attempt++
		v, err := runAttempt(ctx, g, op)
		if err == nil {
			return v, nil
		}
		if !retryable(ctx, err) {
			return v, backoff.Permanent(err)
		}
		g.logger.Warn("external call failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", g.policy.MaxAttempts),
			zap.Error(err),
		)
		return v, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(uint(g.policy.MaxAttempts)))
	if err == nil {
		return result, nil
	}

	var zero T
	if ctxErr := ctx.Err(); ctxErr != nil {
		return zero, ctxErr
	}
	if apperror.IsKind(err, apperror.KindValidation) {
		return zero, err
	}
	return zero, apperror.ExternalService(
		fmt.Sprintf("%s unavailable after %d attempt(s)", g.service, attempt), err)
}

func runAttempt[T any](ctx context.Context, g *Guard, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return zero, err
	}
	defer g.sem.Release(1)

	callCtx, cancel := context.WithTimeout(ctx, g.policy.Timeout)
	defer cancel()

	start := time.Now()
	out, err := g.breaker.Execute(func() (interface{}, error) {
		v, err := op(callCtx)
		if err != nil && ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w after %s: %v", ErrTimeout, g.policy.Timeout, err)
		}
		return v, err
	})
	g.observe(err, time.Since(start))
	if err != nil {
		return zero, err
	}
	v, _ := out.(T)
	return v, nil
}

func (g *Guard) observe(err error, elapsed time.Duration) {
	if g.observer == nil {
		return
	}
	outcome := "success"
	switch {
	case err == nil:
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		outcome = "rejected"
	case errors.Is(err, ErrTimeout):
		outcome = "timeout"
	default:
		outcome = "failure"
	}
	g.observer.ObserveExternalCall(g.service, outcome, elapsed)
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if errors.Is(err, gobreaker.ErrOpenState) {
		return false
	}
	return countsAgainstService(err)
}

// countsAgainstService separates collaborator faults from bad input and
// caller cancellation.
func countsAgainstService(err error) bool {
	if apperror.IsKind(err, apperror.KindValidation) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	return true
}
