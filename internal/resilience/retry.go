package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// RetryConfig controls retry behavior with backoff and optional jitter.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts (including the first try).
	// A value of 1 means no retries. Default: 3.
	MaxAttempts int

	// InitialBackoff is the base delay before the first retry. Default: 500ms.
	InitialBackoff time.Duration

	// MaxBackoff caps the backoff duration. Default: 30s.
	MaxBackoff time.Duration

	// Multiplier scales the backoff after each attempt. 1.0 gives a fixed
	// interval. Default: 2.0.
	Multiplier float64

	// JitterFraction adds random jitter as a fraction of the computed delay
	// (0.0 = no jitter, 0.5 = ±50%). Default: 0.25.
	JitterFraction float64

	// ShouldRetry optionally overrides the default transient-error check.
	// If nil, IsTransient is used.
	ShouldRetry func(err error) bool

	// OnRetry is called before each retry sleep with attempt number and error.
	OnRetry func(attempt int, err error)
}

// DefaultRetryConfig returns a sensible retry configuration for HTTP fetches.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     30 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.25,
	}
}

// FixedInterval returns a policy that waits the same interval between
// every attempt and retries any error.
func FixedInterval(maxAttempts int, wait time.Duration) RetryConfig {
	return RetryConfig{
		MaxAttempts:    maxAttempts,
		InitialBackoff: wait,
		MaxBackoff:     wait,
		Multiplier:     1.0,
		JitterFraction: 0,
		ShouldRetry:    AlwaysRetry,
	}
}

// AlwaysRetry treats every error as retryable.
func AlwaysRetry(error) bool { return true }

// Status is the final outcome of a retried operation.
type Status int

const (
	// StatusSucceeded means one attempt returned without error.
	StatusSucceeded Status = iota
	// StatusExhausted means every attempt failed with a retryable error.
	StatusExhausted
	// StatusPermanent means an attempt failed with a non-retryable error.
	StatusPermanent
	// StatusCancelled means the context ended while the error was still retryable.
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusSucceeded:
		return "succeeded"
	case StatusExhausted:
		return "exhausted"
	case StatusPermanent:
		return "permanent"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Result carries the value of a retried call together with how it ended.
type Result[T any] struct {
	Value    T
	Status   Status
	Attempts int
	Err      error
}

// OK reports whether the call succeeded.
func (r Result[T]) OK() bool { return r.Status == StatusSucceeded }

// Run executes fn under cfg and reports the outcome. Retryable failures
// sleep for the computed backoff; a cancelled context stops immediately.
func Run[T any](ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) (T, error)) Result[T] {
	cfg = applyDefaults(cfg)

	shouldRetry := cfg.ShouldRetry
	if shouldRetry == nil {
		shouldRetry = IsTransient
	}

	var res Result[T]
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		res.Attempts = attempt + 1

		val, err := fn(ctx)
		if err == nil {
			res.Value = val
			res.Status = StatusSucceeded
			res.Err = nil
			return res
		}
		res.Err = err

		if !shouldRetry(err) {
			res.Status = StatusPermanent
			return res
		}

		if ctx.Err() != nil {
			res.Status = StatusCancelled
			return res
		}

		// Don't sleep after the last attempt.
		if attempt >= cfg.MaxAttempts-1 {
			break
		}

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt+1, err)
		}

		delay := computeBackoff(attempt, cfg)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			res.Status = StatusCancelled
			return res
		case <-timer.C:
		}
	}

	res.Status = StatusExhausted
	return res
}

func applyDefaults(cfg RetryConfig) RetryConfig {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 500 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 30 * time.Second
	}
	if cfg.Multiplier <= 0 {
		cfg.Multiplier = 2.0
	}
	if cfg.JitterFraction < 0 {
		cfg.JitterFraction = 0
	}
	return cfg
}

func computeBackoff(attempt int, cfg RetryConfig) time.Duration {
	delay := float64(cfg.InitialBackoff) * math.Pow(cfg.Multiplier, float64(attempt))
	if delay > float64(cfg.MaxBackoff) {
		delay = float64(cfg.MaxBackoff)
	}

	// Apply jitter: ±JitterFraction of delay.
	if cfg.JitterFraction > 0 {
		jitterRange := delay * cfg.JitterFraction
		jitter := (rand.Float64()*2 - 1) * jitterRange // [-jitterRange, +jitterRange]
		delay += jitter
	}

	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

// RetryLogger returns an OnRetry callback that logs each retry attempt.
func RetryLogger(path, operation string) func(int, error) {
	return func(attempt int, err error) {
		zap.L().Warn("retrying operation",
			zap.String("path", path),
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
}
