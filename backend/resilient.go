package backend

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
)

// RetryPolicy controls how a ResilientClient retries transient failures.
// It is fixed for the lifetime of the client that carries it.
type RetryPolicy struct {
	// MaxAttempts is the total number of underlying call attempts, >= 1.
	MaxAttempts int

	// BaseDelay is the wait before the first retry.
	BaseDelay time.Duration

	// Multiplier grows the delay between consecutive retries.
	Multiplier float64

	// CallTimeout bounds each individual attempt. Zero means the caller's
	// context is the only bound.
	CallTimeout time.Duration

	// MinSpacing is the minimum gap between two calls issued on the same
	// client instance, enforced by delaying, never by reordering. It guards
	// against backend-side resource contention when calls arrive in rapid
	// succession.
	MinSpacing time.Duration

	// Retryable decides whether an error is worth retrying. Nil means
	// IsRetryable.
	Retryable func(error) bool
}

// DefaultRetryPolicy returns the retry policy used when the caller does not
// supply one.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   300 * time.Millisecond,
		Multiplier:  2.0,
		CallTimeout: 30 * time.Second,
		MinSpacing:  400 * time.Millisecond,
	}
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.Multiplier <= 0 {
		p.Multiplier = 1.0
	}
	if p.Retryable == nil {
		p.Retryable = IsRetryable
	}
	return p
}

// delay returns the backoff wait after the given zero-based attempt.
func (p RetryPolicy) delay(attempt int) time.Duration {
	d := float64(p.BaseDelay)
	for i := 0; i < attempt; i++ {
		d *= p.Multiplier
	}
	return time.Duration(d)
}

// ResilientClient wraps any Client with timeout, retry-with-backoff and
// error classification. Transient failures are retried up to the policy's
// attempt budget; permanent failures propagate immediately. Calls issued by
// one caller are processed in issuance order.
type ResilientClient struct {
	inner   Client
	policy  RetryPolicy
	spacing *rate.Limiter
}

// NewResilientClient wraps inner with the given retry policy.
func NewResilientClient(inner Client, policy RetryPolicy) *ResilientClient {
	policy = policy.normalized()
	var limiter *rate.Limiter
	if policy.MinSpacing > 0 {
		limiter = rate.NewLimiter(rate.Every(policy.MinSpacing), 1)
	}
	return &ResilientClient{inner: inner, policy: policy, spacing: limiter}
}

// Backend returns the wrapped client's backend ID.
func (c *ResilientClient) Backend() ID { return c.inner.Backend() }

// ListOptions lists candidates with retry.
func (c *ResilientClient) ListOptions(ctx context.Context) ([]Candidate, error) {
	var candidates []Candidate
	err := c.do(ctx, "list-options", func(callCtx context.Context) error {
		var err error
		candidates, err = c.inner.ListOptions(callCtx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return candidates, nil
}

// Execute performs the request with retry.
func (c *ResilientClient) Execute(ctx context.Context, req Request) (*Result, error) {
	var result *Result
	err := c.do(ctx, "execute", func(callCtx context.Context) error {
		var err error
		result, err = c.inner.Execute(callCtx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Dispose releases the wrapped client. Never retried.
func (c *ResilientClient) Dispose() error { return c.inner.Dispose() }

// do runs fn under the retry policy. Each attempt starts from a clean
// slate: fresh per-call context, and any result captured by a previous
// failed attempt is overwritten before it can be observed.
func (c *ResilientClient) do(ctx context.Context, op string, fn func(context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt < c.policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.policy.delay(attempt - 1)):
			}
		}

		if c.spacing != nil {
			if err := c.spacing.Wait(ctx); err != nil {
				return err
			}
		}

		callCtx := ctx
		var cancel context.CancelFunc
		if c.policy.CallTimeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, c.policy.CallTimeout)
		}
		err := fn(callCtx)
		if cancel != nil {
			cancel()
		}
		if err == nil {
			return nil
		}
		lastErr = err

		if !c.policy.Retryable(err) {
			log.Debug("permanent backend error, not retrying",
				"backend", c.inner.Backend(), "op", op, "err", err)
			return err
		}
		log.Debug("transient backend error",
			"backend", c.inner.Backend(), "op", op,
			"attempt", attempt+1, "max", c.policy.MaxAttempts, "err", err)
	}

	return &Error{
		Backend:  c.inner.Backend(),
		Kind:     Classify(lastErr),
		Attempts: c.policy.MaxAttempts,
		Err:      wrapExhausted(lastErr),
	}
}

func wrapExhausted(last error) error {
	if last == nil {
		return ErrExhaustedRetries
	}
	return &exhaustedError{last: last}
}

// exhaustedError ties ErrExhaustedRetries to the last underlying cause so
// both errors.Is targets hold.
type exhaustedError struct {
	last error
}

func (e *exhaustedError) Error() string {
	return ErrExhaustedRetries.Error() + ": " + e.last.Error()
}

func (e *exhaustedError) Is(target error) bool { return target == ErrExhaustedRetries }

func (e *exhaustedError) Unwrap() error { return e.last }
